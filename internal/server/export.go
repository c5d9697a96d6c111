// internal/server/export.go
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/OCAP2/panopath/internal/export"
	"github.com/OCAP2/panopath/internal/geo"
	"github.com/OCAP2/panopath/internal/handlers"
	"github.com/OCAP2/panopath/internal/session"
)

// handleExportImage renders the panorama, with or without paths, as a PNG download.
func (s *Server) handleExportImage(w http.ResponseWriter, r *http.Request) {
	mode, err := export.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"warning": err.Error()})
		return
	}

	start := time.Now()
	artifacts, err := s.deps.Session.Export(mode)
	switch {
	case errors.Is(err, session.ErrExportInProgress):
		// a second click while rasterizing is dropped
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, session.ErrNoPanorama):
		writeJSON(w, http.StatusConflict, map[string]string{"warning": handlers.WarnNoPanorama})
		return
	case err != nil:
		s.deps.Logger.Error("Export failed", "mode", mode, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	elapsed := time.Since(start)
	if s.deps.Handlers != nil {
		s.deps.Handlers.RecordExport(string(mode), len(artifacts.Document.Paths), len(artifacts.Image), elapsed)
	}
	s.deps.Logger.Info("Exported image",
		"mode", mode,
		"paths", len(artifacts.Document.Paths),
		"bytes", len(artifacts.Image),
		"elapsed", elapsed)

	download(w, "image/png", artifacts.ImageName(), artifacts.Image)
}

// handleExportPaths streams the path document.
func (s *Server) handleExportPaths(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Session.ExportDocument()
	if err != nil {
		s.deps.Logger.Error("Path export failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data, err := export.Marshal(doc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	name := export.DocumentFilename(time.UnixMilli(doc.Timestamp), false)
	download(w, "application/json", name, data)
}

// handleExportGeoJSON streams the paths as a lon/lat FeatureCollection.
func (s *Server) handleExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	data, err := geo.PathGeoJSON(s.deps.Session.Paths())
	if err != nil {
		s.deps.Logger.Error("GeoJSON export failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	name := fmt.Sprintf("paths_%d.geojson", time.Now().UnixMilli())
	download(w, "application/geo+json", name, data)
}

func download(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

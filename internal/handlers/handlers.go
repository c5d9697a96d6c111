// internal/handlers/handlers.go

// Package handlers registers the viewer commands on the dispatcher. Each
// handler parses its arguments, drives the session, persists finalized
// paths and records metrics. The returned Result carries the mesh intents
// to broadcast and an optional warning for the requesting client.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/panopath/internal/dispatcher"
	"github.com/OCAP2/panopath/internal/influx"
	"github.com/OCAP2/panopath/internal/parser"
	"github.com/OCAP2/panopath/internal/scene"
	"github.com/OCAP2/panopath/internal/session"
	"github.com/OCAP2/panopath/internal/storage"
	"github.com/OCAP2/panopath/pkg/core"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Commands understood by the viewer.
const (
	CmdPointAdd     = ":POINT:ADD:"
	CmdPointUndo    = ":POINT:UNDO:"
	CmdPathFinalize = ":PATH:FINALIZE:"
	CmdPathClear    = ":PATH:CLEAR:"
	CmdCategorySet  = ":CATEGORY:SET:"
	CmdCategoryKey  = ":CATEGORY:DIGIT:"
	CmdModeDraw     = ":MODE:DRAW:"
	CmdModeRotate   = ":MODE:ROTATE:"
	CmdPathsImport  = ":PATHS:IMPORT:"
)

// In-process commands that carry side effects off the command path. Storage
// writes block when their queue is full so none is lost; metric points are
// dropped instead.
const (
	CmdStorePaths  = ":STORE:PATHS:"
	CmdStoreMetric = ":STORE:METRIC:"

	storeQueueSize  = 64
	metricQueueSize = 256
)

// IsViewerCommand reports whether cmd may be sent by a connected browser.
func IsViewerCommand(cmd string) bool {
	switch cmd {
	case CmdPointAdd, CmdPointUndo, CmdPathFinalize, CmdPathClear,
		CmdCategorySet, CmdCategoryKey, CmdModeDraw, CmdModeRotate, CmdPathsImport:
		return true
	}
	return false
}

// storeOp is the payload of CmdStorePaths. Saves and clears share one queue
// so they reach the backend in session order.
type storeOp struct {
	save  *core.Path
	clear bool
}

// User-facing warnings.
const (
	WarnTooFewPoints = "Select at least 2 points before saving a path"
	WarnNoPanorama   = "The panorama is not loaded yet, export aborted"
	WarnBadPoint     = "That point is not on the panorama"
	WarnBadDocument  = "Could not import paths"
)

// Result is what a viewer command hands back to the adapter.
type Result struct {
	Intents []scene.Intent `json:"intents,omitempty"`
	Warning string         `json:"warning,omitempty"`
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Session *session.Session
	Parser  *parser.Parser
	Storage storage.Backend // optional
	Metrics influx.Writer   // optional
	Logger  *slog.Logger
}

// Service provides handler methods for processing viewer commands
type Service struct {
	deps Dependencies
	d    *dispatcher.Dispatcher // set by RegisterHandlers
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(deps.Logger)
	}
	return &Service{deps: deps}
}

// RegisterHandlers registers every viewer command. Viewer commands are
// synchronous: the caller needs the intents before the next event. Storage
// and metric writes run on buffered workers that Dispatcher.Close drains.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	s.d = d
	d.Register(CmdStorePaths, s.handleStorePaths, dispatcher.Buffered(storeQueueSize), dispatcher.Blocking())
	d.Register(CmdStoreMetric, s.handleStoreMetric, dispatcher.Buffered(metricQueueSize))

	d.Register(CmdPointAdd, s.handlePointAdd, dispatcher.Logged())
	d.Register(CmdPointUndo, s.handlePointUndo, dispatcher.Logged())
	d.Register(CmdPathFinalize, s.handleFinalize, dispatcher.Logged())
	d.Register(CmdPathClear, s.handleClear, dispatcher.Logged())
	d.Register(CmdCategorySet, s.handleCategorySet, dispatcher.Logged())
	d.Register(CmdCategoryKey, s.handleCategoryDigit, dispatcher.Logged())
	d.Register(CmdModeDraw, s.handleModeDraw, dispatcher.Logged())
	d.Register(CmdModeRotate, s.handleModeRotate, dispatcher.Logged())
	d.Register(CmdPathsImport, s.handleImport, dispatcher.Logged())
}

// RestoreFromStorage loads persisted paths into the session.
func (s *Service) RestoreFromStorage() ([]scene.Intent, error) {
	if s.deps.Storage == nil {
		return nil, nil
	}
	paths, err := s.deps.Storage.LoadPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to load paths: %w", err)
	}
	intents := s.deps.Session.RestorePaths(paths)
	s.deps.Logger.Info("Restored paths from storage", "paths", len(paths))
	return intents, nil
}

func (s *Service) handlePointAdd(e dispatcher.Event) (any, error) {
	p, err := s.deps.Parser.ParsePoint(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to add point: %w", err)
	}
	intents, err := s.deps.Session.AddPoint(p)
	if err != nil {
		s.deps.Logger.Warn("Rejected point", "point", p, "error", err)
		return &Result{Warning: WarnBadPoint}, nil
	}
	return &Result{Intents: intents}, nil
}

func (s *Service) handlePointUndo(e dispatcher.Event) (any, error) {
	intents, _ := s.deps.Session.UndoLastPoint()
	return &Result{Intents: intents}, nil
}

func (s *Service) handleFinalize(e dispatcher.Event) (any, error) {
	start := time.Now()
	geom, intents, err := s.deps.Session.Finalize()
	if errors.Is(err, session.ErrTooFewPoints) {
		return &Result{Warning: WarnTooFewPoints}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to finalize path: %w", err)
	}

	s.persist(geom.Path)
	s.writePoint(influx.PathPoint(geom.Path, time.Since(start)))

	s.deps.Logger.Info("Path finalized",
		"id", geom.Path.ID,
		"category", geom.Path.Category,
		"points", len(geom.Path.Points),
		"meshes", len(geom.Meshes))
	return &Result{Intents: intents}, nil
}

func (s *Service) handleClear(e dispatcher.Event) (any, error) {
	intents, removed := s.deps.Session.ClearAll()

	s.enqueueStore(storeOp{clear: true})
	s.writePoint(influx.ClearPoint(removed, s.deps.Session.Stats().Panorama.String(), e.Timestamp))

	s.deps.Logger.Info("Cleared all paths", "paths", removed)
	return &Result{Intents: intents}, nil
}

func (s *Service) handleCategorySet(e dispatcher.Event) (any, error) {
	c, err := s.deps.Parser.ParseCategory(e.Args)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Session.SetCategory(c); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (s *Service) handleCategoryDigit(e dispatcher.Event) (any, error) {
	d, err := s.deps.Parser.ParseDigit(e.Args)
	if err != nil {
		return nil, err
	}
	if _, err := s.deps.Session.SelectDigit(d); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (s *Service) handleModeDraw(e dispatcher.Event) (any, error) {
	on := s.deps.Session.ToggleDrawMode()
	s.deps.Logger.Debug("Draw mode toggled", "on", on)
	return &Result{}, nil
}

func (s *Service) handleModeRotate(e dispatcher.Event) (any, error) {
	on := s.deps.Session.ToggleAutoRotate()
	s.deps.Logger.Debug("Auto-rotate toggled", "on", on)
	return &Result{}, nil
}

func (s *Service) handleImport(e dispatcher.Event) (any, error) {
	doc, err := s.deps.Parser.ParseDocument(e.Args)
	if err != nil {
		s.deps.Logger.Warn("Rejected path document", "error", err)
		return &Result{Warning: fmt.Sprintf("%s: %v", WarnBadDocument, err)}, nil
	}

	geoms, intents, err := s.deps.Session.ImportDocument(doc)
	for _, g := range geoms {
		s.persist(g.Path)
	}
	s.deps.Logger.Info("Imported paths", "paths", len(geoms), "of", len(doc.Paths))
	if err != nil {
		return &Result{Intents: intents, Warning: fmt.Sprintf("%s: %v", WarnBadDocument, err)}, nil
	}
	return &Result{Intents: intents}, nil
}

func (s *Service) persist(p core.Path) {
	s.enqueueStore(storeOp{save: &p})
}

func (s *Service) enqueueStore(op storeOp) {
	if s.deps.Storage == nil {
		return
	}
	s.enqueue(CmdStorePaths, op, s.handleStorePaths)
}

// enqueue hands payload to the command's worker. Without a dispatcher the
// handler runs inline.
func (s *Service) enqueue(cmd string, payload any, inline dispatcher.HandlerFunc) {
	e := dispatcher.Event{Command: cmd, Payload: payload, Timestamp: time.Now()}
	var err error
	if s.d == nil {
		_, err = inline(e)
	} else {
		_, err = s.d.Dispatch(e)
	}
	if err != nil {
		s.deps.Logger.Error("Failed to queue write", "command", cmd, "error", err)
	}
}

func (s *Service) handleStorePaths(e dispatcher.Event) (any, error) {
	op, ok := e.Payload.(storeOp)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected payload %T", CmdStorePaths, e.Payload)
	}
	switch {
	case op.clear:
		if err := s.deps.Storage.ClearPaths(); err != nil {
			return nil, fmt.Errorf("clear stored paths: %w", err)
		}
	case op.save != nil:
		if err := s.deps.Storage.SavePath(*op.save); err != nil {
			return nil, fmt.Errorf("store path %s: %w", op.save.ID, err)
		}
	}
	return nil, nil
}

func (s *Service) handleStoreMetric(e dispatcher.Event) (any, error) {
	p, ok := e.Payload.(*influxdb2_write.Point)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected payload %T", CmdStoreMetric, e.Payload)
	}
	if err := s.deps.Metrics.WritePoint(context.Background(), p); err != nil {
		return nil, fmt.Errorf("write %s point: %w", p.Name(), err)
	}
	return nil, nil
}

// RecordExport writes an export metric. Exports run outside the dispatcher,
// so the server calls this directly.
func (s *Service) RecordExport(mode string, paths, imageBytes int, elapsed time.Duration) {
	s.writePoint(influx.ExportPoint(mode, paths, imageBytes, elapsed, time.Now()))
}

func (s *Service) writePoint(p *influxdb2_write.Point) {
	if s.deps.Metrics == nil {
		return
	}
	s.enqueue(CmdStoreMetric, p, s.handleStoreMetric)
}

// internal/server/server.go

// Package server is the thin adapter between browsers and the session. It
// serves the viewer page and the current panorama, relays viewer commands
// from the WebSocket to the dispatcher, fans the resulting mesh intents out
// to every client and streams exports as downloads.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"image/jpeg"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/OCAP2/panopath/internal/dispatcher"
	"github.com/OCAP2/panopath/internal/handlers"
	"github.com/OCAP2/panopath/internal/logging"
	"github.com/OCAP2/panopath/internal/scene"
	"github.com/OCAP2/panopath/internal/session"
	"github.com/OCAP2/panopath/pkg/streaming"

	ws "github.com/gorilla/websocket"
)

//go:embed web/index.html
var webFS embed.FS

// Dependencies holds everything the server needs.
type Dependencies struct {
	Session    *session.Session
	Dispatcher *dispatcher.Dispatcher
	Handlers   *handlers.Service // optional, records export metrics
	Logger     *slog.Logger
}

// Server is the HTTP/WebSocket adapter.
type Server struct {
	deps     Dependencies
	upgrader ws.Upgrader
	hub      *hub
	mux      *http.ServeMux

	// cmdMu serializes command handling with its broadcast so every client
	// sees intents in the order the session produced them.
	cmdMu sync.Mutex

	readers sync.WaitGroup
}

// New creates the server and its routes.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{
		deps: deps,
		upgrader: ws.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		hub: newHub(),
		mux: http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /panorama", s.handlePanorama)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /export/image", s.handleExportImage)
	s.mux.HandleFunc("GET /export/paths", s.handleExportPaths)
	s.mux.HandleFunc("GET /export/geojson", s.handleExportGeoJSON)
	s.mux.HandleFunc("GET /healthcheck", s.handleHealth)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Clients is the number of connected browsers.
func (s *Server) Clients() int {
	return s.hub.len()
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("HTTP server listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	<-errCh
	return err
}

// Close disconnects every WebSocket client and waits for their loops to end.
func (s *Server) Close() {
	s.hub.closeAll()
	s.readers.Wait()
}

// Broadcast sends intents to every client. Used for changes that do not
// come from a command, such as the panorama finishing loading.
func (s *Server) Broadcast(intents []scene.Intent) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	s.broadcastIntents(intents)
	s.broadcastState()
}

func (s *Server) broadcastIntents(intents []scene.Intent) {
	if len(intents) == 0 {
		return
	}
	data, err := marshalEnvelope(streaming.TypeIntents, intents)
	if err != nil {
		s.deps.Logger.Error("Failed to encode intents", "error", err)
		return
	}
	s.hub.broadcast(data)
}

func (s *Server) broadcastState() {
	st, _ := s.deps.Session.Snapshot()
	data, err := marshalEnvelope(streaming.TypeState, st)
	if err != nil {
		s.deps.Logger.Error("Failed to encode state", "error", err)
		return
	}
	s.hub.broadcast(data)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handlePanorama(w http.ResponseWriter, r *http.Request) {
	img, state := s.deps.Session.Panorama()
	if img == nil {
		http.Error(w, "panorama not loaded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("X-Panorama-State", state.String())
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 90}); err != nil {
		s.deps.Logger.Error("Failed to encode panorama", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.deps.Session.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"panorama": stats.Panorama.String(),
		"paths":    stats.Paths,
		"clients":  s.Clients(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Logger.Warn("WebSocket upgrade error", "error", err)
		return
	}

	c := newClient(conn, s.deps.Logger)
	s.hub.add(c)
	s.readers.Add(2)
	go func() {
		defer s.readers.Done()
		c.writeLoop()
	}()
	go func() {
		defer s.readers.Done()
		s.readLoop(c)
	}()

	c.logger.InfoContext(c.ctx, "WebSocket client connected")
}

// sync sends the full state and the intents that rebuild the scene.
// Callers hold cmdMu.
func (s *Server) sync(c *client) {
	st, intents := s.deps.Session.Snapshot()
	if data, err := marshalEnvelope(streaming.TypeState, st); err == nil {
		c.send(data)
	}
	if data, err := marshalEnvelope(streaming.TypeIntents, intents); err == nil && len(intents) > 0 {
		c.send(data)
	}
}

// readLoop reads commands from one client until it disconnects.
func (s *Server) readLoop(c *client) {
	defer func() {
		s.hub.remove(c)
		_ = c.close()
		c.logger.InfoContext(c.ctx, "WebSocket client disconnected")
	}()

	s.cmdMu.Lock()
	s.sync(c)
	s.cmdMu.Unlock()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				c.logger.WarnContext(c.ctx, "WebSocket read error", "error", err)
			}
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Type != streaming.TypeCommand {
			c.logger.DebugContext(c.ctx, "Non-command message received", "raw", string(message))
			s.warn(c, "", "unsupported message")
			continue
		}
		var cmd streaming.CommandPayload
		if err := env.Decode(&cmd); err != nil || cmd.Command == "" {
			s.warn(c, "", "malformed command")
			continue
		}
		s.runCommand(c, cmd)
	}
}

func (s *Server) runCommand(c *client, cmd streaming.CommandPayload) {
	if !handlers.IsViewerCommand(cmd.Command) {
		c.logger.WarnContext(logging.WithCommand(c.ctx, cmd.Command), "Command rejected", "error", "not a viewer command")
		s.warn(c, cmd.Command, "unknown command: "+cmd.Command)
		return
	}

	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	out, err := s.deps.Dispatcher.Dispatch(dispatcher.Event{
		Command: cmd.Command,
		Args:    cmd.Args,
		Client:  c.id,
	})
	if err != nil {
		c.logger.WarnContext(logging.WithCommand(c.ctx, cmd.Command), "Command rejected", "error", err)
		s.warn(c, cmd.Command, err.Error())
		return
	}

	res, _ := out.(*handlers.Result)
	if res == nil {
		return
	}
	if res.Warning != "" {
		s.warn(c, cmd.Command, res.Warning)
	}
	s.broadcastIntents(res.Intents)
	s.broadcastState()
}

// warn sends a user-facing message to one client only.
func (s *Server) warn(c *client, command, message string) {
	data, err := marshalEnvelope(streaming.TypeWarning, streaming.WarningPayload{Message: message, For: command})
	if err != nil {
		return
	}
	c.send(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

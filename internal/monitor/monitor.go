// internal/monitor/monitor.go

// Package monitor samples the viewer session on an interval, writes a
// human-readable status file and pushes a session point to InfluxDB.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/panopath/internal/influx"
	"github.com/OCAP2/panopath/internal/session"
)

// StatsSource is anything that can report session counters.
type StatsSource interface {
	Stats() session.Stats
}

// PendingSource reports rows a buffering storage backend has not written yet.
type PendingSource interface {
	Pending() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Source     StatsSource
	Writes     PendingSource // optional
	Metrics    influx.Writer // optional
	Logger     *slog.Logger
	Interval   time.Duration
	StatusFile string // optional
}

// Status is one sample.
type Status struct {
	Time      time.Time `json:"time"`
	Paths     int       `json:"paths"`
	Points    int       `json:"points"`
	Selection int       `json:"selection"`
	Panorama  string    `json:"panorama"`
	Pending   int       `json:"pendingWrites"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = 30 * time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Sample reads the current counters.
func (s *Service) Sample() Status {
	st := s.deps.Source.Stats()
	status := Status{
		Time:      time.Now().UTC(),
		Paths:     st.Paths,
		Points:    st.Points,
		Selection: st.Selection,
		Panorama:  st.Panorama.String(),
	}
	if s.deps.Writes != nil {
		status.Pending = s.deps.Writes.Pending()
	}
	return status
}

// Tick takes one sample and writes it out.
func (s *Service) Tick(ctx context.Context) Status {
	status := s.Sample()

	if s.deps.StatusFile != "" {
		if err := writeStatusFile(s.deps.StatusFile, status); err != nil {
			s.deps.Logger.Error("Error writing status file", "error", err)
		}
	}
	if s.deps.Metrics != nil {
		point := influx.SessionPoint(status.Paths, status.Points, status.Selection, status.Pending, status.Panorama, status.Time)
		if err := s.deps.Metrics.WritePoint(ctx, point); err != nil {
			s.deps.Logger.Error("Error writing session point", "error", err)
		}
	}
	return status
}

func writeStatusFile(path string, status Status) error {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Start starts the status monitor goroutine
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Logger.Debug("Starting status monitor", "interval", s.deps.Interval)
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()
	<-done
}

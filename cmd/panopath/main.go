// cmd/panopath/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/internal/export"
	"github.com/OCAP2/panopath/internal/logging"
	intOtel "github.com/OCAP2/panopath/internal/otel"
	"github.com/OCAP2/panopath/internal/scene"
	"github.com/OCAP2/panopath/internal/session"
	"github.com/OCAP2/panopath/pkg/core"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// BuildVersion and BuildDate can be set at build time via ldflags
var (
	BuildVersion = "0.0.1"
	BuildDate    = "unknown"
)

const appName = "panopath"

var (
	configDir string
	logLevel  string

	SessionStartTime = time.Now()
	InstanceID       = uuid.NewString()
)

// appState holds the process-wide logging and telemetry set up before any
// subcommand runs.
type appState struct {
	slogManager  *logging.SlogManager
	logger       *slog.Logger
	logFile      io.Writer
	level        string
	otelProvider *intOtel.Provider
	closers      []io.Closer
	logsDir      string
}

var app appState

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Annotate utility paths on 360° panoramas",
	Long: `panopath serves a browser viewer for equirectangular panoramas. Points
clicked on the sphere become colored utility paths that can be exported as a
PNG overlay and a JSON path document.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		found, err := config.Load(configDir)
		if err != nil {
			return err
		}
		if logLevel != "" {
			config.Set("logLevel", logLevel)
		}
		if err := app.setup(); err != nil {
			return err
		}
		if !found {
			app.logger.Warn("No config file found, using defaults", "dir", configDir, "file", config.FileName)
		}
		app.logger.Info("Starting panopath",
			"version", BuildVersion,
			"buildDate", BuildDate,
			"command", cmd.Name())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing "+config.FileName)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(serveCmd, exportCmd, projectCmd, migrateCmd, versionCmd)
}

func main() {
	err := rootCmd.Execute()
	app.shutdown()
	if err != nil {
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", appName, BuildVersion, BuildDate)
	},
}

// setup opens the log files and builds the slog handler chain: console,
// log file, optional OTel bridge and optional Graylog.
func (r *appState) setup() error {
	level := config.GetString("logLevel")
	r.logsDir = config.GetString("logsDir")
	if err := os.MkdirAll(r.logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}

	logPath := logging.LogFilePath(r.logsDir, appName, SessionStartTime)
	if _, err := os.Stat(logPath); err == nil {
		_ = os.Rename(logPath, logPath+".old")
	}
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	r.closers = append(r.closers, logFile)

	opts := logging.Options{
		Level:   level,
		File:    logFile,
		Console: os.Stderr,
		Context: func() []slog.Attr {
			return []slog.Attr{slog.String("instance", InstanceID)}
		},
	}

	otelCfg := config.GetOTelConfig()
	var otelFile io.Writer
	if otelCfg.Enabled {
		f, err := os.OpenFile(logging.LogFilePath(r.logsDir, appName+".otel", SessionStartTime),
			os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open otel log file: %w", err)
		}
		r.closers = append(r.closers, f)
		otelFile = f
	}
	r.otelProvider, err = intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: BuildVersion,
		InstanceID:     InstanceID,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      otelFile,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		return fmt.Errorf("failed to set up OpenTelemetry: %w", err)
	}
	opts.Provider = r.otelProvider.LoggerProvider()

	if gl := config.GetGraylogConfig(); gl.Enabled {
		h, closer, err := logging.NewGraylogHandler(gl.Address, level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Graylog disabled: %v\n", err)
		} else {
			opts.Graylog = h
			r.closers = append(r.closers, closer)
		}
	}

	r.slogManager = logging.NewSlogManager()
	r.slogManager.Setup(opts)
	r.logger = r.slogManager.Logger()
	slog.SetDefault(r.logger)

	r.logFile, r.level = logFile, level
	return nil
}

func (r *appState) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if r.slogManager != nil {
		if err := r.slogManager.Flush(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
		}
	}
	if r.otelProvider != nil {
		if err := r.otelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to shut down OpenTelemetry: %v\n", err)
		}
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i].Close()
	}
	r.closers = nil
}

// component returns the zerolog logger tagged for one subsystem.
func (r *appState) component(name string) zerolog.Logger {
	return logging.NewZerolog(r.logFile, r.level, name)
}

// sessionConfig builds the session from the canvas and server settings.
func sessionConfig() (session.Config, error) {
	canvas := config.GetCanvasConfig()
	strategy, err := core.ParseStrategy(canvas.Strategy)
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{
		Strategy: strategy,
		Scene: scene.Options{
			SphereRadius:     canvas.SphereRadius,
			MinSegmentLength: canvas.MinSegmentLength,
			CylinderRadius:   canvas.CylinderRadius,
			JointRadius:      canvas.JointRadius,
			EndpointRadius:   canvas.EndpointRadius,
			TubeRadius:       canvas.TubeRadius,
			TubeSamples:      canvas.TubeSamples,
			HotspotRadius:    canvas.HotspotRadius,
		},
		Render: export.RenderOptions{
			Width:       canvas.Width,
			Height:      canvas.Height,
			StrokeWidth: canvas.StrokeWidth,
		},
	}, nil
}

func statusFilePath() string {
	return filepath.Join(app.logsDir, "status.json")
}

func influxBackupPath() string {
	return filepath.Join(app.logsDir, fmt.Sprintf("influx_backup_%s.lp.gz", SessionStartTime.Format("20060102_150405")))
}

// cmd/panopath/serve.go
package main

import (
	"context"
	"errors"
	"image"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/internal/dispatcher"
	"github.com/OCAP2/panopath/internal/handlers"
	"github.com/OCAP2/panopath/internal/influx"
	"github.com/OCAP2/panopath/internal/logging"
	"github.com/OCAP2/panopath/internal/monitor"
	"github.com/OCAP2/panopath/internal/panorama"
	"github.com/OCAP2/panopath/internal/server"
	"github.com/OCAP2/panopath/internal/session"
	"github.com/OCAP2/panopath/internal/storage"

	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	servePanorama string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the panorama viewer",
	Long: `Starts the HTTP server with the browser viewer, loads the panorama in the
background and restores previously stored paths. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			config.Set("server.address", serveAddr)
		}
		if servePanorama != "" {
			config.Set("server.panorama", servePanorama)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")
	serveCmd.Flags().StringVar(&servePanorama, "panorama", "", "panorama file or URL (overrides server.panorama)")
}

func runServe(ctx context.Context) error {
	logger := app.logger
	srvCfg := config.GetServerConfig()

	sessCfg, err := sessionConfig()
	if err != nil {
		return err
	}
	sess := session.New(sessCfg)

	backend, err := storage.NewBackend(config.GetStorageConfig(), logger, app.component("storage"))
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	metrics, closeMetrics := connectInflux(ctx)
	defer closeMetrics()

	d, err := dispatcher.New(logging.NewDispatcherLogger(logger))
	if err != nil {
		return err
	}
	defer d.Close()

	svc := handlers.NewService(handlers.Dependencies{
		Session: sess,
		Storage: backend,
		Metrics: metrics,
		Logger:  logger,
	})
	svc.RegisterHandlers(d)
	logger.Debug("Dispatcher ready", "commands", d.Commands())
	if _, err := svc.RestoreFromStorage(); err != nil {
		logger.Error("Starting without stored paths", "error", err)
	}

	srv := server.New(server.Dependencies{
		Session:    sess,
		Dispatcher: d,
		Handlers:   svc,
		Logger:     logger,
	})

	if mc := config.GetMonitorConfig(); mc.Enabled {
		mon := monitor.NewService(monitor.Dependencies{
			Source:     sess,
			Writes:     pendingWrites(backend),
			Metrics:    metrics,
			Logger:     logger,
			Interval:   mc.Interval,
			StatusFile: statusFilePath(),
		})
		mon.Start(ctx)
		defer mon.Stop()
	}

	canvas := config.GetCanvasConfig()
	loader := panorama.NewLoader(logger,
		panorama.WithHTTPClient(&http.Client{Timeout: srvCfg.FetchTimeout}),
		panorama.WithPlaceholderSize(canvas.Width/2, canvas.Height/2))
	loaded := loader.Load(ctx, srvCfg.Panorama, panorama.Callbacks{
		OnLoad: func(img image.Image, placeholder bool) {
			b := img.Bounds()
			logger.Info("Panorama ready",
				"source", srvCfg.Panorama,
				"width", b.Dx(),
				"height", b.Dy(),
				"placeholder", placeholder)
			srv.Broadcast(sess.SetPanorama(img, placeholder))
		},
		OnError: func(err error) {
			logger.Error("Failed to load panorama, using placeholder", "source", srvCfg.Panorama, "error", err)
		},
	})

	err = srv.ListenAndServe(ctx, srvCfg.Address, srvCfg.WriteTimeout)
	<-loaded
	if err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// pendingWrites is nil for backends that write synchronously.
func pendingWrites(b storage.Backend) monitor.PendingSource {
	if p, ok := b.(monitor.PendingSource); ok {
		return p
	}
	return nil
}

// connectInflux returns the metrics writer, or nil when influx is disabled
// or neither the server nor a backup file is available.
func connectInflux(ctx context.Context) (influx.Writer, func()) {
	mgr := influx.NewManager(config.GetInfluxConfig(), app.component("influx"), influxBackupPath())
	err := mgr.Connect(ctx)
	switch {
	case errors.Is(err, influx.ErrDisabled):
		return nil, func() {}
	case err != nil:
		app.logger.Error("Metrics disabled", "error", err)
		_ = mgr.Close()
		return nil, func() {}
	}
	return mgr, func() {
		if err := mgr.Close(); err != nil {
			app.logger.Error("Failed to close influx manager", "error", err)
		}
	}
}

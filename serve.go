package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/panbridge/panbridge/internal/api"
	"github.com/panbridge/panbridge/internal/ledger"
	"github.com/panbridge/panbridge/internal/pan"
	"github.com/panbridge/panbridge/internal/session"
	"github.com/panbridge/panbridge/internal/settings"
)

// shutdownGrace bounds how long in-flight requests get to finish after the
// first termination signal.
const shutdownGrace = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// newDialer builds backend handles against the configured API endpoint.
func newDialer(logger *slog.Logger) session.Dialer {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = pan.DefaultBaseURL
	}

	return func(user, password, token string) session.Backend {
		return pan.New(baseURL, backendHTTPClient(), user, password, token, logger)
	}
}

func runServe(parent context.Context) error {
	logger := buildLogger()
	ctx := shutdownContext(parent, logger)

	store := settings.NewStore(cfg.SettingsPath)
	mgr := session.NewManager(newDialer(logger), store, logger)

	// The server refuses to start without a working session. A broken
	// account configuration should fail loudly at boot, not on the first
	// request.
	if err := mgr.Login(ctx); err != nil {
		return fmt.Errorf("initial login: %w", err)
	}

	var led *ledger.Ledger

	if cfg.LedgerPath != "" {
		var err error

		led, err = ledger.Open(ctx, cfg.LedgerPath, logger)
		if err != nil {
			return err
		}
		defer led.Close()
	}

	srv := api.NewServer(mgr, led, cfg.UploadDir, cfg.MaxUploadBytes(), logger)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", slog.String("addr", cfg.ListenAddr))

		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		return httpSrv.Shutdown(shutdownCtx)
	})

	if cfg.WatchSettings {
		g.Go(func() error {
			return watchSettings(ctx, store, mgr, logger)
		})
	}

	return g.Wait()
}

// watchSettings reloads the session when the settings file is rewritten
// outside the process. The parent directory is watched rather than the file
// itself because atomic rename-into-place replaces the inode.
func watchSettings(ctx context.Context, store *settings.Store, mgr *session.Manager, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating settings watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(store.Path())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(store.Path())

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != target {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// The manager's own saves also land here. Skip events that
			// did not change the document to avoid a save/reload loop.
			if store.Load() == mgr.Settings() {
				continue
			}

			logger.Info("settings file changed, reloading session")

			if err := mgr.ReloadFromDisk(ctx); err != nil {
				logger.Error("reloading session from disk",
					slog.String("error", err.Error()),
				)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("settings watcher error", slog.String("error", err.Error()))
		}
	}
}

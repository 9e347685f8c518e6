// Package service runs the annotation feature headless: the full dispatch
// loop, store client and render pipeline wired to an in-memory map, with a
// Prometheus endpoint for scraping. Used when no interactive frontend is
// attached, primarily for monitoring store health and note flow.
package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/lsnmst/idjwi-alert-system/internal/alerts"
	"github.com/lsnmst/idjwi-alert-system/internal/annotation"
	"github.com/lsnmst/idjwi-alert-system/internal/conf"
	"github.com/lsnmst/idjwi-alert-system/internal/logging"
	"github.com/lsnmst/idjwi-alert-system/internal/mapview"
	"github.com/lsnmst/idjwi-alert-system/internal/notestore"
	"github.com/lsnmst/idjwi-alert-system/internal/notify"
	"github.com/lsnmst/idjwi-alert-system/internal/observability"
	"github.com/lsnmst/idjwi-alert-system/internal/session"
)

// Options control a headless service run.
type Options struct {
	// MetricsListen is the listen address for the metrics endpoint. Empty
	// disables the endpoint.
	MetricsListen string

	// RefreshEvery is the interval between note layer refreshes, standing in
	// for the viewport-settle trigger an interactive map would provide.
	RefreshEvery time.Duration

	// IncludeUnvalidated renders notes still awaiting moderation.
	IncludeUnvalidated bool
}

// Run wires the feature and blocks until the context is cancelled.
func Run(ctx context.Context, settings *conf.Settings, opts Options) error {
	if opts.RefreshEvery <= 0 {
		opts.RefreshEvery = time.Minute
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	store, err := notestore.NewClient(notestore.Config{
		BaseURL:     settings.Store.URL,
		APIKey:      settings.Store.APIKey,
		NotesTable:  settings.Store.NotesTable,
		AlertsTable: settings.Store.AlertsTable,
		Timeout:     settings.Store.Timeout,
		RetryMax:    settings.Store.RetryMax,
	}, metrics.Annotation)
	if err != nil {
		return err
	}

	sessions := session.NewClient(session.Config{
		BaseURL:        settings.Store.URL,
		APIKey:         settings.Store.APIKey,
		Timeout:        settings.Store.Timeout,
		CacheTTL:       settings.Session.CacheTTL,
		AnonymousLabel: settings.Session.AnonymousLabel,
	})

	m := mapview.NewHeadless(settings.Map.DefaultZoom)
	loop := annotation.NewLoop()

	feature := annotation.New(ctx, annotation.Deps{
		Map:           m,
		Store:         store,
		Sessions:      sessions,
		Notifier:      notify.NewLogNotifier(nil),
		Dispatcher:    loop,
		Metrics:       metrics.Annotation,
		ZoomThreshold: settings.Map.NoteZoomThreshold,
	})
	overlay := alerts.NewOverlay(store, m.AlertLayer())

	if opts.MetricsListen != "" {
		mux := http.NewServeMux()
		metrics.RegisterHandlers(mux)
		srv := &http.Server{
			Addr:              opts.MetricsListen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logging.Info("Metrics endpoint listening", "addr", opts.MetricsListen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics endpoint failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Alert overlay is a one-shot load; notes refresh on a timer.
	go func() {
		_ = overlay.Load(ctx)
	}()

	loop.Dispatch(feature.Start)
	go func() {
		ticker := time.NewTicker(opts.RefreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				loop.Dispatch(func() {
					feature.Pipeline.Refresh(annotation.RefreshOptions{
						IncludeUnvalidated: opts.IncludeUnvalidated,
					})
				})
			}
		}
	}()

	logging.Info("Annotation service started",
		"zoom", settings.Map.DefaultZoom,
		"zoom_threshold", settings.Map.NoteZoomThreshold,
		"refresh_every", opts.RefreshEvery)

	loop.Run(ctx)
	return nil
}

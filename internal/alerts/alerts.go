// Package alerts renders the deforestation alerts overlay. Alerts come from
// the remote store as WKT points and are drawn once at startup as fixed
// circle markers; they are not part of the annotation lifecycle.
package alerts

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"path/filepath"

	"github.com/lsnmst/idjwi-alert-system/internal/geo"
	"github.com/lsnmst/idjwi-alert-system/internal/logging"
	"github.com/lsnmst/idjwi-alert-system/internal/mapview"
)

var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "alerts.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, _, err = logging.NewFileLogger(logFilePath, "alerts", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize alerts file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "alerts")
	}
}

// Alert is a single deforestation alert row. Geometry is WKT, e.g.
// "POINT(29.05 -2.15)".
type Alert struct {
	Geom  string  `json:"geom"`
	Value float64 `json:"alert_value"`
	Date  string  `json:"alert_date"`
}

// Location parses the alert's WKT geometry, reporting false when malformed.
func (a *Alert) Location() (geo.Point, bool) {
	return geo.ParseWKTPoint(a.Geom)
}

// Source lists alerts from the remote store.
type Source interface {
	ListAlerts(ctx context.Context) ([]Alert, error)
}

// Marker style matching the web frontend's circle markers.
var alertStyle = mapview.MarkerStyle{
	Color:       "red",
	FillOpacity: 0.7,
	Radius:      5,
}

// Overlay draws the alerts layer.
type Overlay struct {
	source Source
	layer  mapview.MarkerLayer
}

// NewOverlay creates an overlay rendering into the given layer.
func NewOverlay(source Source, layer mapview.MarkerLayer) *Overlay {
	return &Overlay{source: source, layer: layer}
}

// Load fetches all alerts and renders them. Rows with malformed geometry are
// skipped silently; a fetch error leaves the layer untouched.
func (o *Overlay) Load(ctx context.Context) error {
	alerts, err := o.source.ListAlerts(ctx)
	if err != nil {
		logger.Error("Failed to fetch alerts", "error", err)
		return err
	}

	o.layer.Clear()
	rendered := 0
	for i := range alerts {
		p, ok := alerts[i].Location()
		if !ok {
			logger.Debug("Skipping alert with malformed geometry", "geom", alerts[i].Geom)
			continue
		}
		o.layer.Add(mapview.MarkerSpec{
			Point: p,
			Style: alertStyle,
			Popup: mapview.Popup{
				Body: fmt.Sprintf("Value: %g\nDate: %s", alerts[i].Value, alerts[i].Date),
			},
		})
		rendered++
	}

	logger.Info("Alerts overlay rendered", "total", len(alerts), "rendered", rendered)
	return nil
}

package validate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lsnmst/idjwi-alert-system/internal/conf"
	"github.com/lsnmst/idjwi-alert-system/internal/notestore"
)

// Command creates the validate command checking configuration and store
// reachability.
func Command(settings *conf.Settings) *cobra.Command {
	var skipStore bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and store connectivity",
		Long:  "Check that the loaded configuration is usable and that the remote store answers with the configured credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), settings, skipStore)
		},
	}

	cmd.Flags().BoolVar(&skipStore, "offline", false, "Skip the remote store connectivity check")

	return cmd
}

func runValidate(ctx context.Context, settings *conf.Settings, skipStore bool) error {
	fmt.Printf("map center: %.5f,%.5f zoom %.0f (notes hidden at zoom <= %.0f)\n",
		settings.Map.CenterLat, settings.Map.CenterLon,
		settings.Map.DefaultZoom, settings.Map.NoteZoomThreshold)

	if settings.Store.URL == "" {
		return fmt.Errorf("store.url is not set")
	}
	if settings.Store.APIKey == "" {
		fmt.Println("warning: store.apikey is not set, requests will likely be rejected")
	}

	client, err := notestore.NewClient(notestore.Config{
		BaseURL:     settings.Store.URL,
		APIKey:      settings.Store.APIKey,
		NotesTable:  settings.Store.NotesTable,
		AlertsTable: settings.Store.AlertsTable,
		Timeout:     settings.Store.Timeout,
		RetryMax:    settings.Store.RetryMax,
	}, nil)
	if err != nil {
		return err
	}

	if skipStore {
		fmt.Println("configuration OK (store check skipped)")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, settings.Store.Timeout)
	defer cancel()

	rows, err := client.ListNotes(ctx)
	if err != nil {
		return fmt.Errorf("store check failed: %w", err)
	}
	validated := 0
	for i := range rows {
		if rows[i].Validated {
			validated++
		}
	}
	fmt.Printf("store OK: %d notes (%d validated)\n", len(rows), validated)

	alerts, err := client.ListAlerts(ctx)
	if err != nil {
		return fmt.Errorf("alert table check failed: %w", err)
	}
	fmt.Printf("store OK: %d alerts\n", len(alerts))

	fmt.Println("configuration OK")
	return nil
}

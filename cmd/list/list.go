package list

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lsnmst/idjwi-alert-system/internal/conf"
	"github.com/lsnmst/idjwi-alert-system/internal/notestore"
)

// Command creates the list command printing notes from the remote store.
// With --all it includes notes still awaiting validation, which is the
// moderation review view.
func Command(settings *conf.Settings) *cobra.Command {
	var includeUnvalidated bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List community notes",
		Long:  "Fetch community notes from the remote store and print them. By default only validated notes are shown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), settings, includeUnvalidated)
		},
	}

	cmd.Flags().BoolVar(&includeUnvalidated, "all", viper.GetBool("list.all"), "Include notes still awaiting validation")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func runList(ctx context.Context, settings *conf.Settings, includeUnvalidated bool) error {
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

	rows, err := client.ListNotes(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch notes: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tCATEGORY\tTITLE\tSTATUS\tPOSITION\tAUTHOR")
	shown := 0
	for i := range rows {
		if !rows[i].Validated && !includeUnvalidated {
			continue
		}
		status := "validated"
		if !rows[i].Validated {
			status = "pending"
		}
		position := "-"
		if p, ok := rows[i].Location(); ok {
			position = fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lon)
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\t%s\n",
			rows[i].CreatedAt.Format("2006-01-02"),
			rows[i].Category.Glyph(),
			rows[i].Category,
			rows[i].Title,
			status,
			position,
			rows[i].CreatedByName)
		shown++
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d of %d notes shown\n", shown, len(rows))
	return nil
}

package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lsnmst/idjwi-alert-system/internal/conf"
	"github.com/lsnmst/idjwi-alert-system/internal/service"
)

// Command creates the serve command running the headless annotation service.
func Command(settings *conf.Settings) *cobra.Command {
	opts := service.Options{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the annotation service headless",
		Long:  "Run the note annotation feature without an interactive map: periodic refreshes against the remote store, alert overlay load, and a Prometheus metrics endpoint.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return service.Run(ctx, settings, opts)
		},
	}

	if err := setupFlags(cmd, &opts); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, opts *service.Options) error {
	cmd.Flags().StringVar(&opts.MetricsListen, "listen", "localhost:9090", "Listen address and port of the metrics endpoint, empty to disable")
	cmd.Flags().DurationVar(&opts.RefreshEvery, "refresh", time.Minute, "Interval between note layer refreshes")
	cmd.Flags().BoolVar(&opts.IncludeUnvalidated, "all", false, "Render notes still awaiting validation")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

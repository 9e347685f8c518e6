package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lsnmst/idjwi-alert-system/cmd/list"
	"github.com/lsnmst/idjwi-alert-system/cmd/serve"
	"github.com/lsnmst/idjwi-alert-system/cmd/validate"
	"github.com/lsnmst/idjwi-alert-system/internal/conf"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "idjwimap",
		Short:   "Idjwi deforestation alert map CLI",
		Version: Version,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		list.Command(settings),
		validate.Command(settings),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Store.URL, "storeurl", viper.GetString("store.url"), "Base URL of the remote note store")
	rootCmd.PersistentFlags().StringVar(&settings.Store.APIKey, "storekey", viper.GetString("store.apikey"), "API key for the remote note store")
	rootCmd.PersistentFlags().Float64Var(&settings.Map.NoteZoomThreshold, "zoomthreshold", viper.GetFloat64("map.notezoomthreshold"), "Zoom level at/below which note markers are hidden")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

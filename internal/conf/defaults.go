// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "IdjwiMap")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "idjwimap.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", "Sunday")

	// Idjwi island, Lake Kivu
	viper.SetDefault("map.centerlat", -2.15)
	viper.SetDefault("map.centerlon", 29.05)
	viper.SetDefault("map.defaultzoom", 11)
	viper.SetDefault("map.notezoomthreshold", 12)

	viper.SetDefault("store.url", "https://example.supabase.co")
	viper.SetDefault("store.apikey", "")
	viper.SetDefault("store.notestable", "community_notes")
	viper.SetDefault("store.alertstable", "alerts")
	viper.SetDefault("store.timeout", 10*time.Second)
	viper.SetDefault("store.retrymax", 3)

	viper.SetDefault("session.cachettl", 5*time.Minute)
	viper.SetDefault("session.anonymouslabel", "anonymous")
}

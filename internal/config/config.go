package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the runtime settings for the portal gateway.
type Config struct {
	Port       string
	APIBaseURL string
	DBPath     string
	Env        string
	Debug      bool
}

// Load reads configuration from an optional .env file and the environment.
// Missing values fall back to development defaults.
func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Debug().Err(err).Msg("no config file found, using environment only")
	}

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("API_BASE_URL", "http://localhost:9090/api")
	viper.SetDefault("DB_PATH", "portal.db")
	viper.SetDefault("ENV", "development")

	return &Config{
		Port:       viper.GetString("PORT"),
		APIBaseURL: viper.GetString("API_BASE_URL"),
		DBPath:     viper.GetString("DB_PATH"),
		Env:        viper.GetString("ENV"),
		Debug:      viper.GetBool("DEBUG"),
	}
}

package config

import (
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	Port           string
	LogLevel       string
	AllowedOrigins []string
	MaxPoints      int
}

// LoadServer reads server settings from the environment and an optional
// .env file in the working directory.
func LoadServer() (*ServerConfig, error) {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("MAX_POINTS", 20000)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	// the file is optional
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	for _, key := range []string{"PORT", "LOG_LEVEL", "ALLOWED_ORIGINS", "MAX_POINTS"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var origins []string
	for _, o := range strings.Split(v.GetString("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return &ServerConfig{
		Port:           v.GetString("PORT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		AllowedOrigins: origins,
		MaxPoints:      v.GetInt("MAX_POINTS"),
	}, nil
}

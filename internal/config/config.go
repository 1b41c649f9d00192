package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port int
	}
	Database struct {
		Driver string
		Path   string
		DSN    string
	}
	Scheduler struct {
		Interval   time.Duration
		Workers    int
		RunTimeout time.Duration
	}
	Artifacts struct {
		Dir     string
		BaseURL string
	}
	Email struct {
		SMTPHost string
		SMTPPort int
		From     string
		Password string
	}
	Slack struct {
		Token   string
		Channel string
	}
	Auth struct {
		JWTSecret string
	}
	// Timezone used for "today" dashboard aggregates, IANA name.
	Timezone string
}

// Load reads config.yaml from the working directory, falling back to defaults
// when no file is present.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", "data/logicqp.db")
	viper.SetDefault("scheduler.interval", 30*time.Second)
	viper.SetDefault("scheduler.workers", 4)
	viper.SetDefault("scheduler.runtimeout", 5*time.Minute)
	viper.SetDefault("artifacts.dir", "data/reports")
	viper.SetDefault("artifacts.baseurl", "/reports")
	viper.SetDefault("auth.jwtsecret", "change-me")
	viper.SetDefault("timezone", "UTC")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	return &config, nil
}

package config

import (
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string
	}
	Database struct {
		DSN string // Data Source Name ("memory" or file path for SQLite)
	}
	GuestChatQuota int `mapstructure:"guest_chat_quota" json:"guest_chat_quota"`
	Booking        struct {
		ConfirmationPrefix string `mapstructure:"confirmation_prefix"`
	} `mapstructure:"booking"`
}

// AppConfig is the global configuration instance.
var AppConfig Config

// LoadConfig loads configuration from file and environment variables.
func LoadConfig() {
	viper.SetConfigName("config") // Name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../config") // For running from locations like tests

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.dsn", "memory")
	// Free-trial visitors get this many chat messages per business before the
	// widget asks them to sign up. Advisory only; see services.QuotaService.
	viper.SetDefault("guest_chat_quota", 3)
	viper.SetDefault("booking.confirmation_prefix", "APT")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("WARN: [Config] Configuration file (config.yaml) not found. Using environment variables and defaults.")
		} else {
			log.Fatalf("FATAL: [Config] Error reading configuration file: %v", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("FATAL: [Config] Failed to unmarshal configuration into AppConfig struct: %v", err)
	}

	// Environment variable overrides
	if port := os.Getenv("SERVER_PORT"); port != "" {
		AppConfig.Server.Port = port
		log.Printf("INFO: [Config] Server port overridden by environment variable SERVER_PORT: %s", port)
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		AppConfig.Database.DSN = dsn
		log.Println("INFO: [Config] Database DSN overridden by environment variable DATABASE_DSN.")
	}

	if AppConfig.GuestChatQuota < 0 {
		log.Printf("WARN: [Config] guest_chat_quota is negative (%d), clamping to 0.", AppConfig.GuestChatQuota)
		AppConfig.GuestChatQuota = 0
	}

	log.Println("INFO: [Config] Configuration loading complete.")
}

package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`

	// Fixed property served by the voice assistant.
	HotelCode string `mapstructure:"HOTEL_CODE"`
	HotelName string `mapstructure:"HOTEL_NAME"`

	// External collaborators.
	AZDSBaseURL          string `mapstructure:"AZDS_BASE_URL"`
	BrowserAutomationURL string `mapstructure:"BROWSER_AUTOMATION_URL"`

	// Shared secret the voice platform sends with each webhook call.
	VapiWebhookSecret string `mapstructure:"VAPI_WEBHOOK_SECRET"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("HOTEL_CODE", "proper-sf")
	viper.SetDefault("HOTEL_NAME", "San Francisco Proper Hotel")
	viper.SetDefault("AZDS_BASE_URL", "https://newbooking.azds.com/api/hotel")
	viper.SetDefault("BROWSER_AUTOMATION_URL", "http://localhost:3000")
	viper.SetDefault("VAPI_WEBHOOK_SECRET", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

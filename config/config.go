package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDraftDB  int    `mapstructure:"REDIS_DRAFT_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Payment gateway (orders API).
	GatewayBaseURL   string `mapstructure:"GATEWAY_BASE_URL"`
	GatewayKeyID     string `mapstructure:"GATEWAY_KEY_ID"`
	GatewayKeySecret string `mapstructure:"GATEWAY_KEY_SECRET"`

	// Marketplace booking backend.
	BookingAPIURL   string `mapstructure:"BOOKING_API_URL"`
	BookingAPIToken string `mapstructure:"BOOKING_API_TOKEN"`

	// Defaults for money handling and outbound calls.
	Currency           string `mapstructure:"CURRENCY"`
	HTTPTimeoutSeconds int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`
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
	viper.SetDefault("REDIS_DRAFT_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("GATEWAY_BASE_URL", "https://api.razorpay.com")
	viper.SetDefault("GATEWAY_KEY_ID", "")
	viper.SetDefault("GATEWAY_KEY_SECRET", "")
	viper.SetDefault("BOOKING_API_URL", "http://localhost:9090")
	viper.SetDefault("BOOKING_API_TOKEN", "")
	viper.SetDefault("CURRENCY", "INR")
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 15)

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

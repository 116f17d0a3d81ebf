package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string          `mapstructure:"database_url"`
	ServerPort  string          `mapstructure:"server_port"`
	JWTSecret   string          `mapstructure:"jwt_secret"`
	Checkout    CheckoutConfig  `mapstructure:"checkout"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Broker      BrokerConfig    `mapstructure:"broker"`
	Email       EmailConfig     `mapstructure:"email"`
	Assistant   AssistantConfig `mapstructure:"assistant"`
}

type CheckoutConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BrokerConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	From     string `mapstructure:"from"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type AssistantConfig struct {
	// StarterDailyQuota bounds assistant chats for starter tenants;
	// pro and above are unlimited.
	StarterDailyQuota int           `mapstructure:"starter_daily_quota"`
	QuotaWindow       time.Duration `mapstructure:"quota_window"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}
	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}
	if config.Checkout.BaseURL == "" {
		log.Fatal("Checkout provider base URL must be set in the config file")
	}
	if config.Broker.Queue == "" {
		config.Broker.Queue = "portal.events"
	}
	if config.Email.SMTPPort == 0 {
		config.Email.SMTPPort = 587
	}
	if config.Assistant.StarterDailyQuota == 0 {
		config.Assistant.StarterDailyQuota = 20
	}
	if config.Assistant.QuotaWindow == 0 {
		config.Assistant.QuotaWindow = 24 * time.Hour
	}

	return &config
}

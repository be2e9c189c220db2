package config

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	Scaler    ScalerConfig    `mapstructure:"scaler"`
	Detection DetectionConfig `mapstructure:"detection"`
	Timeplus  TimeplusConfig  `mapstructure:"timeplus"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port            string `mapstructure:"port"`
	AllowedOrigins  string `mapstructure:"allowedOrigins"`
	ShutdownTimeout int    `mapstructure:"shutdownTimeout"`
}

// OpenAIConfig holds the AI analyzer configuration
type OpenAIConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	APIKey         string `mapstructure:"apiKey"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
}

// NotifierConfig holds the chat webhook configuration
type NotifierConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhookUrl"`
	Channel    string `mapstructure:"channel"`
}

// ScalerConfig holds the scaling trigger configuration
type ScalerConfig struct {
	TriggerURL         string `mapstructure:"triggerUrl"`
	GroupName          string `mapstructure:"groupName"`
	MinCapacity        int    `mapstructure:"minCapacity"`
	MaxCapacity        int    `mapstructure:"maxCapacity"`
	ScaleUpIncrement   int    `mapstructure:"scaleUpIncrement"`
	ScaleDownIncrement int    `mapstructure:"scaleDownIncrement"`
	CooldownSeconds    int    `mapstructure:"cooldownSeconds"`
}

// DetectionConfig holds the incident pipeline tuning knobs
type DetectionConfig struct {
	ConfidenceThreshold int    `mapstructure:"confidenceThreshold"`
	ThrottleMinutes     int    `mapstructure:"throttleMinutes"`
	MaxIncidents        int    `mapstructure:"maxIncidents"`
	Environment         string `mapstructure:"environment"` // empty = accept all
}

// TimeplusConfig holds the incident history store connection configuration
type TimeplusConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	Workspace string `mapstructure:"workspace"`
}

// LoadConfig loads the application configuration from file or environment variables
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	// Set default values
	viper.SetDefault("server.port", "8090")
	viper.SetDefault("server.allowedOrigins", "*")
	viper.SetDefault("server.shutdownTimeout", 10)

	viper.SetDefault("openai.enabled", false)
	viper.SetDefault("openai.model", "gpt-4o")
	viper.SetDefault("openai.timeoutSeconds", 30)

	viper.SetDefault("notifier.enabled", false)
	viper.SetDefault("notifier.channel", "#incidents")

	viper.SetDefault("scaler.groupName", "production-asg")
	viper.SetDefault("scaler.minCapacity", 2)
	viper.SetDefault("scaler.maxCapacity", 10)
	viper.SetDefault("scaler.scaleUpIncrement", 2)
	viper.SetDefault("scaler.scaleDownIncrement", 1)
	viper.SetDefault("scaler.cooldownSeconds", 300)

	viper.SetDefault("detection.confidenceThreshold", 70)
	viper.SetDefault("detection.throttleMinutes", 5)
	viper.SetDefault("detection.maxIncidents", 500)

	viper.SetDefault("timeplus.enabled", false)
	viper.SetDefault("timeplus.address", "localhost:8464")
	viper.SetDefault("timeplus.workspace", "default")

	// Allow environment variables to override config file
	viper.SetEnvPrefix("INCIDENT_GATEWAY")
	viper.AutomaticEnv()

	// If config file is provided, read it
	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			logrus.Warnf("Error reading config file: %v", err)
		}
	}

	// Unmarshal config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

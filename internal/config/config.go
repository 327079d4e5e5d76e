package config

import (
	"fmt"
	"regexp"

	"github.com/spf13/viper"
	"github.com/wheelibin/mowd/internal/constants"
)

// format: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
var validApplicationCredential = regexp.MustCompile(`^[a-zA-Z0-9]{8}-[a-zA-Z0-9]{4}-[a-zA-Z0-9]{4}-[a-zA-Z0-9]{4}-[a-zA-Z0-9]{12}$`)

const (
	AuthModeClientCredentials = "clientCredentials"
	AuthModePassword          = "password"
)

type MQTT struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"clientId"`
	TopicPrefix string `json:"topicPrefix"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

type Config struct {
	AuthMode          string `json:"authMode"`
	ApplicationKey    string `json:"applicationKey"`
	ApplicationSecret string `json:"applicationSecret"`
	Username          string `json:"username"`
	Password          string `json:"password"`

	// minutes between statistics snapshot polls
	StatisticsIntervalMinutes int `json:"statisticsIntervalMinutes"`

	MQTT        MQTT   `json:"mqtt"`
	MetricsAddr string `json:"metricsAddr"`
}

func InitialiseConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath("/etc/mowd/")
	viper.AddConfigPath("$HOME/.config/mowd/")
	viper.AddConfigPath(".")

	viper.SetDefault("authMode", AuthModeClientCredentials)
	viper.SetDefault("statisticsIntervalMinutes", constants.DefaultStatisticsIntervalMinutes)
	viper.SetDefault("mqtt.clientId", "mowd")
	viper.SetDefault("mqtt.topicPrefix", "mowd")
	viper.SetDefault("metricsAddr", ":9090")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}

func ReadConfig() (*Config, error) {
	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	switch c.AuthMode {
	case AuthModeClientCredentials:
		if !validApplicationCredential.MatchString(c.ApplicationKey) {
			return fmt.Errorf(`"applicationKey" is not valid (allowed format: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx)`)
		}
		if !validApplicationCredential.MatchString(c.ApplicationSecret) {
			return fmt.Errorf(`"applicationSecret" is not valid (allowed format: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx)`)
		}
	case AuthModePassword:
		if !validApplicationCredential.MatchString(c.ApplicationKey) {
			return fmt.Errorf(`"applicationKey" is not valid (allowed format: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx)`)
		}
		if c.Username == "" || c.Password == "" {
			return fmt.Errorf(`authMode %q requires "username" and "password"`, c.AuthMode)
		}
	default:
		return fmt.Errorf("unknown authMode %q", c.AuthMode)
	}
	if c.StatisticsIntervalMinutes < 1 {
		return fmt.Errorf("statisticsIntervalMinutes must be at least 1")
	}
	if c.MQTT.Broker == "" {
		return fmt.Errorf(`"mqtt.broker" is required`)
	}
	return nil
}

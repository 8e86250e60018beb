package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Engine    EngineConfig
	MQTT      MQTTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type EngineConfig struct {
	ActivityLogCap         int
	AutoRefresh            bool
	RefreshIntervalSeconds int
	SimulatorSeed          int64
}

type MQTTConfig struct {
	Broker         string
	ClientID       string
	Topic          string
	Username       string
	Password       string
	CertFile       string
	KeyFile        string
	CAFile         string
	QoS            int
	KeepAlive      int
	ConnectTimeout int
	AlarmInterval  time.Duration
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()

	viper.SetDefault("ENGINE_ACTIVITY_LOG_CAP", 50)
	viper.SetDefault("ENGINE_AUTO_REFRESH", false)
	viper.SetDefault("ENGINE_REFRESH_INTERVAL_SECONDS", 5)
	viper.SetDefault("MQTT_QOS", 1)
	viper.SetDefault("MQTT_KEEP_ALIVE", 30)
	viper.SetDefault("MQTT_CONNECT_TIMEOUT", 10)
	viper.SetDefault("MQTT_ALARM_INTERVAL_SECONDS", 15)

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Engine: EngineConfig{
			ActivityLogCap:         viper.GetInt("ENGINE_ACTIVITY_LOG_CAP"),
			AutoRefresh:            viper.GetBool("ENGINE_AUTO_REFRESH"),
			RefreshIntervalSeconds: viper.GetInt("ENGINE_REFRESH_INTERVAL_SECONDS"),
			SimulatorSeed:          viper.GetInt64("ENGINE_SIMULATOR_SEED"),
		},
		MQTT: MQTTConfig{
			Broker:         viper.GetString("MQTT_BROKER"),
			ClientID:       viper.GetString("MQTT_CLIENT_ID"),
			Topic:          viper.GetString("MQTT_TOPIC"),
			Username:       viper.GetString("MQTT_USERNAME"),
			Password:       viper.GetString("MQTT_PASSWORD"),
			CertFile:       viper.GetString("MQTT_CERT_FILE"),
			KeyFile:        viper.GetString("MQTT_KEY_FILE"),
			CAFile:         viper.GetString("MQTT_CA_FILE"),
			QoS:            viper.GetInt("MQTT_QOS"),
			KeepAlive:      viper.GetInt("MQTT_KEEP_ALIVE"),
			ConnectTimeout: viper.GetInt("MQTT_CONNECT_TIMEOUT"),
			AlarmInterval:  time.Duration(viper.GetInt("MQTT_ALARM_INTERVAL_SECONDS")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
	}

	return config, nil
}

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Engine.ActivityLogCap)
	assert.False(t, cfg.Engine.AutoRefresh)
	assert.Equal(t, 5, cfg.Engine.RefreshIntervalSeconds)
	assert.Equal(t, 1, cfg.MQTT.QoS)
	assert.Equal(t, 15*time.Second, cfg.MQTT.AlarmInterval)
	assert.Empty(t, cfg.MQTT.Broker, "simulator source is the default")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ENGINE_ACTIVITY_LOG_CAP", "100")
	t.Setenv("ENGINE_AUTO_REFRESH", "true")
	t.Setenv("ENGINE_REFRESH_INTERVAL_SECONDS", "30")
	t.Setenv("MQTT_BROKER", "ssl://broker.example.com:8883")
	t.Setenv("MQTT_TOPIC", "hotel/uplinks")
	t.Setenv("MQTT_ALARM_INTERVAL_SECONDS", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Environment)
	assert.Equal(t, 100, cfg.Engine.ActivityLogCap)
	assert.True(t, cfg.Engine.AutoRefresh)
	assert.Equal(t, 30, cfg.Engine.RefreshIntervalSeconds)
	assert.Equal(t, "ssl://broker.example.com:8883", cfg.MQTT.Broker)
	assert.Equal(t, "hotel/uplinks", cfg.MQTT.Topic)
	assert.Equal(t, time.Minute, cfg.MQTT.AlarmInterval)
}

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "owlrd", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, "/dev/i2c-1", cfg.Vitals.I2CDevice)
	assert.Equal(t, 100, cfg.Vitals.PollIntervalMs)
	assert.Equal(t, 1000, cfg.Vitals.ReportIntervalMs)
	assert.Equal(t, 5, cfg.Vitals.TopK)
	assert.Equal(t, 50, cfg.Vitals.ConfidenceThreshold)
	assert.Equal(t, "vitals:data:stream", cfg.Vitals.Stream)
	assert.Equal(t, "vitals", cfg.Vitals.Topic)
	assert.Equal(t, 30, cfg.Vitals.RealtimeTTLSeconds)
	assert.True(t, cfg.Vitals.EnablePersistence)
	assert.True(t, cfg.Vitals.EnableMQTT)
	assert.False(t, cfg.Vitals.SimulateSensor)

	assert.False(t, cfg.Cloud.Enabled)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_NAME", "test-db")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("MQTT_QOS", "2")
	os.Setenv("VITALS_DEVICE_ID", "device-1")
	os.Setenv("VITALS_TENANT_ID", "tenant-1")
	os.Setenv("VITALS_POLL_INTERVAL_MS", "40")
	os.Setenv("VITALS_REPORT_INTERVAL_MS", "2000")
	os.Setenv("VITALS_TOPK", "8")
	os.Setenv("VITALS_CONFIDENCE_THRESHOLD", "60")
	os.Setenv("VITALS_ENABLE_PERSISTENCE", "false")
	os.Setenv("VITALS_SIMULATE_SENSOR", "true")
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, "test-db", cfg.Database.Database)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, byte(2), cfg.MQTT.QoS)
	assert.Equal(t, "device-1", cfg.Vitals.DeviceID)
	assert.Equal(t, "tenant-1", cfg.Vitals.TenantID)
	assert.Equal(t, 40, cfg.Vitals.PollIntervalMs)
	assert.Equal(t, 2000, cfg.Vitals.ReportIntervalMs)
	assert.Equal(t, 8, cfg.Vitals.TopK)
	assert.Equal(t, 60, cfg.Vitals.ConfidenceThreshold)
	assert.False(t, cfg.Vitals.EnablePersistence)
	assert.True(t, cfg.Vitals.SimulateSensor)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	os.Clearenv()
	os.Setenv("VITALS_REPORT_INTERVAL_MS", "-1")
	defer os.Clearenv()

	_, err := Load()
	require.Error(t, err)

	os.Clearenv()
	os.Setenv("VITALS_CONFIDENCE_THRESHOLD", "150")
	_, err = Load()
	require.Error(t, err)

	os.Clearenv()
	os.Setenv("VITALS_CLOUD_ENABLED", "true")
	_, err = Load()
	require.Error(t, err, "cloud enabled without base URL should fail")
}

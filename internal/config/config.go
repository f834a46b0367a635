package config

import (
	"fmt"
	"os"

	"wisefido-vitals/common/config"
)

// Config Vitals 采集服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	// Vitals 服务特定配置
	Vitals struct {
		DeviceID            string // 设备ID（平台内唯一）
		TenantID            string // 租户ID
		I2CDevice           string // Hub 所在的 i2c-dev 设备路径
		PollIntervalMs      int    // 轮询间隔（毫秒）
		ReportIntervalMs    int    // 上报间隔（毫秒，默认 1000）
		TopK                int    // 窗口内保留的最高置信度采样数（默认 5）
		ConfidenceThreshold int    // 置信度过滤阈值（默认 50）
		Stream              string // Redis Streams 输出流，如 "vitals:data:stream"
		Topic               string // MQTT 上报主题前缀，如 "vitals"
		RealtimeTTLSeconds  int    // 实时数据 KV 的过期时间（秒）
		EnablePersistence   bool   // 是否落库到 vitals_timeseries
		EnableMQTT          bool   // 是否发布 MQTT
		SimulateSensor      bool   // 无硬件时使用模拟驱动
	}

	// Cloud 厂家云上报配置
	Cloud struct {
		Enabled   bool
		BaseURL   string
		AppID     string
		SecretKey string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 默认值
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "owlrd"
	cfg.Database.SSLMode = "disable"

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.DB = 0

	cfg.MQTT.Broker = "mqtt://localhost:1883"
	cfg.MQTT.ClientID = "wisefido-vitals"
	cfg.MQTT.Username = "wisefido"
	cfg.MQTT.QoS = 1

	// 环境变量覆盖（DB_* / REDIS_* / MQTT_*）
	cfg.Database.LoadFromEnv("DB")
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.MQTT.LoadFromEnv("MQTT")

	// Vitals 服务配置
	cfg.Vitals.DeviceID = getEnv("VITALS_DEVICE_ID", "")
	cfg.Vitals.TenantID = getEnv("VITALS_TENANT_ID", "")
	cfg.Vitals.I2CDevice = getEnv("VITALS_I2C_DEVICE", "/dev/i2c-1")
	cfg.Vitals.PollIntervalMs = getEnvInt("VITALS_POLL_INTERVAL_MS", 100)
	cfg.Vitals.ReportIntervalMs = getEnvInt("VITALS_REPORT_INTERVAL_MS", 1000)
	cfg.Vitals.TopK = getEnvInt("VITALS_TOPK", 5)
	cfg.Vitals.ConfidenceThreshold = getEnvInt("VITALS_CONFIDENCE_THRESHOLD", 50)
	cfg.Vitals.Stream = getEnv("VITALS_STREAM", "vitals:data:stream")
	cfg.Vitals.Topic = getEnv("VITALS_MQTT_TOPIC", "vitals")
	cfg.Vitals.RealtimeTTLSeconds = getEnvInt("VITALS_REALTIME_TTL_SECONDS", 30)
	cfg.Vitals.EnablePersistence = getEnvBool("VITALS_ENABLE_PERSISTENCE", true)
	cfg.Vitals.EnableMQTT = getEnvBool("VITALS_ENABLE_MQTT", true)
	cfg.Vitals.SimulateSensor = getEnvBool("VITALS_SIMULATE_SENSOR", false)

	// 厂家云上报（默认关闭）
	cfg.Cloud.Enabled = getEnvBool("VITALS_CLOUD_ENABLED", false)
	cfg.Cloud.BaseURL = getEnv("VITALS_CLOUD_BASE_URL", "")
	cfg.Cloud.AppID = getEnv("VITALS_CLOUD_APP_ID", "")
	cfg.Cloud.SecretKey = getEnv("VITALS_CLOUD_SECRET_KEY", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate 校验配置合法性
func (c *Config) validate() error {
	if c.Vitals.PollIntervalMs <= 0 {
		return fmt.Errorf("poll interval must be positive, got %d", c.Vitals.PollIntervalMs)
	}
	if c.Vitals.ReportIntervalMs <= 0 {
		return fmt.Errorf("report interval must be positive, got %d", c.Vitals.ReportIntervalMs)
	}
	if c.Vitals.TopK <= 0 {
		return fmt.Errorf("top-k must be positive, got %d", c.Vitals.TopK)
	}
	if c.Vitals.ConfidenceThreshold < 0 || c.Vitals.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence threshold must be in [0,100], got %d", c.Vitals.ConfidenceThreshold)
	}
	if c.Cloud.Enabled && c.Cloud.BaseURL == "" {
		return fmt.Errorf("cloud upload enabled but VITALS_CLOUD_BASE_URL is empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"wisefido-vitals-hub/common/config"

	"gopkg.in/yaml.v3"
)

const (
	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

// Config 生命体征实时中心服务配置
type Config struct {
	HTTP struct {
		Addr   string `yaml:"addr"`
		WSPath string `yaml:"ws_path"`
	} `yaml:"http"`

	Auth struct {
		Mode      string        `yaml:"mode"`       // "jwt" 或 "remote"
		JWTSecret string        `yaml:"jwt_secret"` // HS256 签名密钥
		RemoteURL string        `yaml:"remote_url"` // 远程校验服务地址（GET {url}/api/profile）
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"auth"`

	DBEnabled bool                  `yaml:"db_enabled"`
	Database  config.DatabaseConfig `yaml:"database"`

	RedisEnabled bool               `yaml:"redis_enabled"`
	Redis        config.RedisConfig `yaml:"redis"`

	Cache struct {
		SnapshotKey     string        `yaml:"snapshot_key"`
		SnapshotTTL     time.Duration `yaml:"snapshot_ttl"`
		ReadingsStream  string        `yaml:"readings_stream"`
		StreamMaxLength int64         `yaml:"stream_max_length"`
	} `yaml:"cache"`

	MQTTEnabled bool              `yaml:"mqtt_enabled"`
	MQTT        config.MQTTConfig `yaml:"mqtt"`
	MQTTPrefix  string            `yaml:"mqtt_topic_prefix"`

	Hub struct {
		PingInterval   time.Duration `yaml:"ping_interval"`
		StatusInterval time.Duration `yaml:"status_interval"`
		SendBuffer     int           `yaml:"send_buffer"`
		EventBuffer    int           `yaml:"event_buffer"`
	} `yaml:"hub"`

	Persist struct {
		Workers int           `yaml:"workers"`
		Queue   int           `yaml:"queue"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"persist"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load 加载配置：默认值 -> CONFIG_FILE（YAML，可选）-> 环境变量
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":3000"
	cfg.HTTP.WSPath = "/ws"

	cfg.Auth.Mode = AuthModeJWT
	cfg.Auth.Timeout = 5 * time.Second

	cfg.DBEnabled = true
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "vitals"
	cfg.Database.SSLMode = "disable"

	cfg.Redis.Addr = "localhost:6379"
	cfg.Cache.SnapshotKey = "vitals:snapshot"
	cfg.Cache.SnapshotTTL = 60 * time.Second
	cfg.Cache.ReadingsStream = "vitals:readings:stream"
	cfg.Cache.StreamMaxLength = 10000

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "wisefido-vitals-hub"
	cfg.MQTT.QoS = 1
	cfg.MQTTPrefix = "vitals"

	cfg.Hub.PingInterval = 30 * time.Second
	cfg.Hub.StatusInterval = 30 * time.Second
	cfg.Hub.SendBuffer = 16
	cfg.Hub.EventBuffer = 256

	cfg.Persist.Workers = 2
	cfg.Persist.Queue = 256
	cfg.Persist.Timeout = 5 * time.Second

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.WSPath = getEnv("WS_PATH", c.HTTP.WSPath)

	c.Auth.Mode = getEnv("AUTH_MODE", c.Auth.Mode)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.RemoteURL = getEnv("AUTH_REMOTE_URL", c.Auth.RemoteURL)
	c.Auth.Timeout = getDuration("AUTH_TIMEOUT", c.Auth.Timeout)

	c.DBEnabled = getBool("DB_ENABLED", c.DBEnabled)
	c.Database.LoadFromEnv("DB")
	// DB_NAME 与其它 wisefido 服务保持一致
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)

	c.RedisEnabled = getBool("REDIS_ENABLED", c.RedisEnabled)
	c.Redis.LoadFromEnv("REDIS")
	c.Cache.SnapshotKey = getEnv("CACHE_SNAPSHOT_KEY", c.Cache.SnapshotKey)
	c.Cache.SnapshotTTL = getDuration("CACHE_SNAPSHOT_TTL", c.Cache.SnapshotTTL)
	c.Cache.ReadingsStream = getEnv("STREAM_READINGS", c.Cache.ReadingsStream)

	c.MQTTEnabled = getBool("MQTT_ENABLED", c.MQTTEnabled)
	c.MQTT.LoadFromEnv("MQTT")
	c.MQTTPrefix = getEnv("MQTT_TOPIC_PREFIX", c.MQTTPrefix)

	c.Hub.PingInterval = getDuration("HUB_PING_INTERVAL", c.Hub.PingInterval)
	c.Hub.StatusInterval = getDuration("HUB_STATUS_INTERVAL", c.Hub.StatusInterval)
	c.Hub.SendBuffer = getInt("HUB_SEND_BUFFER", c.Hub.SendBuffer)
	c.Hub.EventBuffer = getInt("HUB_EVENT_BUFFER", c.Hub.EventBuffer)

	c.Persist.Workers = getInt("PERSIST_WORKERS", c.Persist.Workers)
	c.Persist.Queue = getInt("PERSIST_QUEUE", c.Persist.Queue)
	c.Persist.Timeout = getDuration("PERSIST_TIMEOUT", c.Persist.Timeout)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate 校验配置的一致性
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=%s", AuthModeJWT)
		}
	case AuthModeRemote:
		if c.Auth.RemoteURL == "" {
			return fmt.Errorf("AUTH_REMOTE_URL is required when AUTH_MODE=%s", AuthModeRemote)
		}
	default:
		return fmt.Errorf("unsupported auth mode: %s", c.Auth.Mode)
	}

	if c.Hub.PingInterval <= 0 || c.Hub.StatusInterval <= 0 {
		return fmt.Errorf("hub intervals must be positive")
	}
	if c.Hub.SendBuffer <= 0 || c.Hub.EventBuffer <= 0 {
		return fmt.Errorf("hub buffers must be positive")
	}
	if c.Persist.Workers <= 0 || c.Persist.Queue <= 0 || c.Persist.Timeout <= 0 {
		return fmt.Errorf("persist workers, queue and timeout must be positive")
	}
	if c.HTTP.WSPath == "" || c.HTTP.WSPath[0] != '/' {
		return fmt.Errorf("WS_PATH must start with '/': %q", c.HTTP.WSPath)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

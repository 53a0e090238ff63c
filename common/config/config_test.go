package config

import (
	"testing"
)

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_DATABASE", "vitals_test")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", SSLMode: "disable", MaxConns: 4}
	cfg.LoadFromEnv("DB")

	if cfg.Host != "db.internal" {
		t.Errorf("Expected host 'db.internal', got '%s'", cfg.Host)
	}
	if cfg.Port != 6543 {
		t.Errorf("Expected port 6543, got %d", cfg.Port)
	}
	if cfg.User != "postgres" {
		t.Errorf("Expected user to keep default 'postgres', got '%s'", cfg.User)
	}
	if cfg.MaxConns != 4 {
		t.Errorf("Expected invalid DB_MAX_CONNS to be ignored, got %d", cfg.MaxConns)
	}

	want := "host=db.internal port=6543 user=postgres password= dbname=vitals_test sslmode=disable"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}

func TestRedisAndMQTTConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("MQTT_QOS", "7")

	r := RedisConfig{Addr: "localhost:6379"}
	r.LoadFromEnv("REDIS")
	if r.Addr != "redis:6380" || r.DB != 3 {
		t.Errorf("unexpected redis config: %+v", r)
	}

	m := MQTTConfig{QoS: 1}
	m.LoadFromEnv("MQTT")
	if m.Broker != "tcp://broker:1883" {
		t.Errorf("Expected broker override, got '%s'", m.Broker)
	}
	if m.QoS != 1 {
		t.Errorf("Expected out-of-range QoS to be ignored, got %d", m.QoS)
	}
}

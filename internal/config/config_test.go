package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("STEPUP_TEST_INT", "oops")
	t.Setenv("STEPUP_TEST_BOOL", "true")
	t.Setenv("STEPUP_TEST_DUR", "90m")

	assert.Equal(t, 7, EnvIntDefault("STEPUP_TEST_INT", 7))
	assert.True(t, EnvBoolDefault("STEPUP_TEST_BOOL", false))
	assert.Equal(t, 90*time.Minute, EnvDurationDefault("STEPUP_TEST_DUR", time.Hour))
	assert.Equal(t, time.Hour, EnvDurationDefault("STEPUP_TEST_MISSING", time.Hour))
	assert.Equal(t, "def", EnvDefault("STEPUP_TEST_MISSING", "def"))
}

func TestLoad(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SITE_URL", "https://shop.example/")
	t.Setenv("ORDER_AUTO_TRACKING", "1")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "https://shop.example", cfg.SiteURL)
	assert.True(t, cfg.OrderAutoTracking)
	assert.Equal(t, "products", cfg.ESIndex)
	assert.True(t, cfg.CSRFEnabled)
}

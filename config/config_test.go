package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "release", c.GinMode)
	assert.Equal(t, "blog_platform", c.DBName)
	assert.Equal(t, 10, c.DBPoolSize)
	assert.Equal(t, "http://localhost:3000", c.ClientOrigin)
	assert.Equal(t, 100, c.RateLimitRequests)
	assert.Equal(t, 15, c.RateLimitWindowMinutes)
	assert.Equal(t, "uploads", c.UploadDir)
	assert.Equal(t, 10, c.MaxUploadMB)
	assert.False(t, c.ExposeResetToken)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	c := AppConfig{AppPort: "9000", DBName: "blog_test", RateLimitRequests: 5}
	applyDefaults(&c)

	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "blog_test", c.DBName)
	assert.Equal(t, 5, c.RateLimitRequests)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("RATE_LIMIT_REQUESTS", "42")
	t.Setenv("EXPOSE_RESET_TOKEN", "true")

	var c AppConfig
	applyDefaults(&c)
	applyEnvOverrides(&c)

	assert.Equal(t, "9999", c.AppPort)
	assert.Equal(t, 42, c.RateLimitRequests)
	assert.True(t, c.ExposeResetToken)
}

func TestToGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, toGormLogLevel("debug"))
	assert.Equal(t, logger.Error, toGormLogLevel("error"))
	assert.Equal(t, logger.Silent, toGormLogLevel("silent"))
	assert.Equal(t, logger.Warn, toGormLogLevel("info"))
	assert.Equal(t, logger.Warn, toGormLogLevel(""))
}

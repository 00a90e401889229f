package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workflow.MaxCadetRejections)
	assert.Equal(t, 30, cfg.Workflow.IntensivePursuitDays)
	assert.Equal(t, int64(20_000_000), cfg.Workflow.RewardUnit)
	assert.Equal(t, "config/roles.yaml", cfg.Workflow.SeedRolesFile)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("WORKFLOW_REWARD_UNIT", "1000")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(1000), cfg.Workflow.RewardUnit)
	assert.InDelta(t, 2.5, cfg.RateLimit.RequestsPerSecond, 0.0001)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWT:       JWTConfig{Secret: "s"},
			App:       AppConfig{Env: "development"},
			RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 1},
			Workflow:  WorkflowConfig{MaxCadetRejections: 3, IntensivePursuitDays: 30, RewardUnit: 1},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }},
		{"production without db password", func(c *Config) { c.App.Env = "production" }},
		{"zero rejections", func(c *Config) { c.Workflow.MaxCadetRejections = 0 }},
		{"negative reward unit", func(c *Config) { c.Workflow.RewardUnit = -1 }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}

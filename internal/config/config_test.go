package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080", Env: "development"},
		Database:  DatabaseConfig{URL: "postgres://localhost/emi"},
		Scheduler: SchedulerConfig{Timezone: "Asia/Kolkata"},
		Business:  BusinessConfig{FullPaymentDatePolicy: "due_date", ScheduleCacheTTL: 5 * time.Minute},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "SERVER_PORT"},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, "DATABASE_URL"},
		{"bad date policy", func(c *Config) { c.Business.FullPaymentDatePolicy = "yesterday" }, "FULL_PAYMENT_DATE_POLICY"},
		{"non-positive cache ttl", func(c *Config) { c.Business.ScheduleCacheTTL = 0 }, "SCHEDULE_CACHE_TTL"},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, "SCHEDULER_TIMEZONE"},
		{"remote payments without timeout", func(c *Config) { c.Payments.APIURL = "http://payments" }, "PAYMENTS_API_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.IsDevelopment())

	cfg.Server.Env = "dev"
	assert.True(t, cfg.IsDevelopment())

	cfg.Server.Env = "production"
	assert.False(t, cfg.IsDevelopment())
}

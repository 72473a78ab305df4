package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_StorageConfig_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		cfg         StorageConfig
		expectError string
	}{
		{name: "valid", cfg: StorageConfig{Catalog: "catalogo.csv", Messages: "mensajes.csv"}},
		{name: "missing catalog", cfg: StorageConfig{Messages: "mensajes.csv"}, expectError: "catalog file path"},
		{name: "missing messages", cfg: StorageConfig{Catalog: "catalogo.csv"}, expectError: "messages file path"},
		{name: "same file", cfg: StorageConfig{Catalog: "a.csv", Messages: "a.csv"}, expectError: "different files"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.expectError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectError)
		})
	}
}

func Test_MailConfig_Validate(t *testing.T) {
	valid := MailConfig{Addr: "localhost:1025", From: "Wallacore <no-reply@wallacore.test>", Timeout: time.Second}
	testCases := []struct {
		name        string
		mutate      func(c *MailConfig)
		expectError string
	}{
		{name: "valid", mutate: func(*MailConfig) {}},
		{name: "missing address", mutate: func(c *MailConfig) { c.Addr = "" }, expectError: "address is not configured"},
		{name: "address without port", mutate: func(c *MailConfig) { c.Addr = "smtp.example.com" }, expectError: "must be host:port"},
		{name: "address without host", mutate: func(c *MailConfig) { c.Addr = ":587" }, expectError: "must be host:port"},
		{name: "invalid sender", mutate: func(c *MailConfig) { c.From = "not an address" }, expectError: "invalid mail sender"},
		{name: "username without password", mutate: func(c *MailConfig) { c.Username = "u" }, expectError: "password is required"},
		{name: "missing timeout", mutate: func(c *MailConfig) { c.Timeout = 0 }, expectError: "timeout"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.expectError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectError)
		})
	}
}

func Test_NotificationConfig_DefaultsToLog(t *testing.T) {
	cfg := NotificationConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, NotificationModeLog, cfg.Mode)

	cfg = NotificationConfig{Mode: "fax"}
	assert.Error(t, cfg.Validate())
}

func Test_ThumbnailConfig_Validate(t *testing.T) {
	cfg := ThumbnailConfig{Timeout: time.Second, MaxBytes: 1024}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Size)
	assert.Equal(t, int64(DefaultThumbnailMaxPixels), cfg.MaxPixels)

	cfg = ThumbnailConfig{Timeout: time.Second, MaxBytes: 1024, MaxPixels: -1}
	assert.Error(t, cfg.Validate())

	cfg = ThumbnailConfig{Size: -1, Timeout: time.Second, MaxBytes: 1024}
	assert.Error(t, cfg.Validate())

	cfg = ThumbnailConfig{Timeout: time.Second}
	assert.Error(t, cfg.Validate())
}

func Test_LogConfig_Validate(t *testing.T) {
	cfg := LogConfig{Level: " WARN "}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "warn", cfg.Level)

	cfg = LogConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Level)

	cfg = LogConfig{Level: "trace"}
	assert.Error(t, cfg.Validate())
}

func Test_NATSConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     NATSConfig
		wantErr bool
	}{
		{name: "single server", cfg: NATSConfig{Url: "nats://localhost:4222", Timeout: time.Second}},
		{name: "cluster", cfg: NATSConfig{Url: "nats://a:4222, nats://b:4222", Timeout: time.Second}},
		{name: "missing url", cfg: NATSConfig{Timeout: time.Second}, wantErr: true},
		{name: "no host", cfg: NATSConfig{Url: "localhost", Timeout: time.Second}, wantErr: true},
		{name: "missing timeout", cfg: NATSConfig{Url: "nats://localhost:4222"}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_ResilienceConfig_Validate(t *testing.T) {
	valid := func() ResilienceConfig {
		return ResilienceConfig{
			Retry:          RetryConfig{MaxAttempts: 3, InitialBackoff: time.Second},
			CircuitBreaker: CircuitBreakerConfig{ConsecutiveFailures: 5, ErrorRatePercent: 50, OpenTimeout: time.Second},
		}
	}
	cfg := valid()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Minute, cfg.Retry.MaxBackoff)

	cfg = valid()
	cfg.Retry.MaxBackoff = 100 * time.Millisecond
	assert.ErrorContains(t, cfg.Validate(), "shorter than")

	cfg = valid()
	cfg.CircuitBreaker.ErrorRatePercent = 101
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Retry.MaxAttempts = 0
	assert.Error(t, cfg.Validate())
}

func Test_ProbesConfig_Validate(t *testing.T) {
	cfg := ProbesConfig{}
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.ReadinessFileName)
	assert.NotEqual(t, cfg.ReadinessFileName, cfg.LivenessFileName)
	assert.Equal(t, 20*time.Second, cfg.LivenessInterval)

	cfg = ProbesConfig{ReadinessFileName: "/tmp/x", LivenessFileName: "/tmp/x"}
	assert.Error(t, cfg.Validate())
}

func Test_TelemetryConfig_Validate(t *testing.T) {
	cfg := TelemetryConfig{}
	cfg.Traces.OtlpHttp.Endpoint = "localhost:4318"
	cfg.Traces.OtlpHttp.Timeout = time.Second
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1.0, cfg.Traces.SampleRatio)

	cfg.Traces.SampleRatio = 1.5
	assert.Error(t, cfg.Validate())
}

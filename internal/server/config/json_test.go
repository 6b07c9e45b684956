package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":             "www.example:9000",
		"database_dsn":                   "media.db",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "30m",
		"s3_access_key":                  "user",
		"s3_secret_key":                  "password",
		"s3_bucket":                      "bucket",
		"s3_region":                      "region",
		"s3_base_endpoint":               "base_endpoint",
		"presign_ttl":                    "5m",
		"op_timeout":                     "10s",
		"rollback_retry_attempts":        4,
		"rollback_retry_backoff":         "250ms",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "media.db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "user", cfg.S3AccessKey)
		assert.Equal(t, "password", cfg.S3SecretKey)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, 5*time.Minute, cfg.PresignTTL)
		assert.Equal(t, 10*time.Second, cfg.OpTimeout)
		assert.Equal(t, uint64(4), cfg.RollbackRetryAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.RollbackRetryBackoff)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrHTTP:            "defaults:1234",
			DatabaseDSN:                 "media.db",
			SecretKey:                   "key",
			AccessTokenValidityDuration: 2 * time.Minute,
			S3AccessKey:                 "s3user",
			S3SecretKey:                 "s3password",
			S3Bucket:                    "s3bucket",
			S3Region:                    "s3region",
			S3BaseEndpoint:              "s3baseendpoint",
			PresignTTL:                  time.Minute,
			OpTimeout:                   time.Second,
			RollbackRetryAttempts:       1,
			RollbackRetryBackoff:        time.Millisecond,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "media.db", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "s3user", cfg.S3AccessKey)
		assert.Equal(t, "s3password", cfg.S3SecretKey)
		assert.Equal(t, "s3bucket", cfg.S3Bucket)
		assert.Equal(t, "s3region", cfg.S3Region)
		assert.Equal(t, "s3baseendpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, time.Minute, cfg.PresignTTL)
		assert.Equal(t, time.Second, cfg.OpTimeout)
		assert.Equal(t, uint64(1), cfg.RollbackRetryAttempts)
		assert.Equal(t, time.Millisecond, cfg.RollbackRetryBackoff)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}

package cocodb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cocodb.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
endpoint = "wss://db.example.com"
credential = "c2VjcmV0"
max_buffered = 50
hibernate_interval = "30s"
backoff = ["10ms", "1s"]

[circuit_breaker]
max_requests = 2
timeout = "15s"
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "wss://db.example.com", cfg.Endpoint)
	assert.Equal(t, "c2VjcmV0", cfg.Credential)
	assert.Equal(t, 50, cfg.MaxBuffered)
	assert.Equal(t, 30*time.Second, cfg.HibernateInterval)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, time.Second}, cfg.Backoff)
	require.NotNil(t, cfg.NewCircuitBreaker)
	assert.Equal(t, "wss://db.example.com/ws", cfg.NewCircuitBreaker("wss://db.example.com/ws").Name())
}

func TestLoadConfigFileMinimal(t *testing.T) {
	path := writeConfigFile(t, `
endpoint = "ws://localhost:5000"
credential = "c2VjcmV0"
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.MaxBuffered)
	assert.Zero(t, cfg.HibernateInterval)
	assert.Nil(t, cfg.Backoff)
	assert.Nil(t, cfg.NewCircuitBreaker)
}

func TestLoadConfigFileCredentialEnv(t *testing.T) {
	t.Setenv("TEST_COCODB_CREDENTIAL", "ZnJvbS1lbnY=")
	path := writeConfigFile(t, `
endpoint = "ws://localhost:5000"
credential = "ignored"
credential_env = "TEST_COCODB_CREDENTIAL"
hibernate_interval = "off"
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ZnJvbS1lbnY=", cfg.Credential)
	assert.Negative(t, cfg.HibernateInterval)
}

func TestLoadConfigFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing credential",
			content: `endpoint = "ws://localhost:5000"`,
			wantErr: ErrInvalidCredential,
		},
		{
			name:    "empty credential env",
			content: "endpoint = \"ws://localhost:5000\"\ncredential_env = \"TEST_COCODB_UNSET\"",
			wantErr: ErrInvalidCredential,
		},
		{
			name:    "bad endpoint",
			content: "endpoint = \"http://localhost\"\ncredential = \"x\"",
			wantErr: ErrInvalidEndpoint,
		},
	}

	t.Setenv("TEST_COCODB_UNSET", "")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFile(writeConfigFile(t, tt.content))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfigFileRejectsMalformedValues(t *testing.T) {
	for name, content := range map[string]string{
		"bad duration":     "endpoint = \"ws://h\"\ncredential = \"x\"\nhibernate_interval = \"soon\"",
		"negative backoff": "endpoint = \"ws://h\"\ncredential = \"x\"\nbackoff = [\"-1s\"]",
		"unknown key":      "endpoint = \"ws://h\"\ncredential = \"x\"\nretries = 3",
		"not toml":         "endpoint = ",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfigFile(writeConfigFile(t, content))
			require.Error(t, err)
		})
	}

	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

package cocodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSocketURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"ws://localhost:5000", "ws://localhost:5000/ws"},
		{"ws://localhost:5000/", "ws://localhost:5000/ws"},
		{"wss://db.example.com", "wss://db.example.com/ws"},
		{"wss://db.example.com/coco/ws", "wss://db.example.com/coco/ws"},
		{"  ws://localhost:5000  ", "ws://localhost:5000/ws"},
		{"ws://localhost:5000?region=eu", "ws://localhost:5000/ws?region=eu"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			got, err := Config{Endpoint: tt.endpoint, Credential: "x"}.socketURL()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"valid", Config{Endpoint: "ws://localhost:5000", Credential: "YWxhZGRpbjpvcGVuc2VzYW1l"}, nil},
		{"valid tls", Config{Endpoint: "wss://db.example", Credential: "c2VjcmV0"}, nil},
		{"missing endpoint", Config{Credential: "c2VjcmV0"}, ErrInvalidEndpoint},
		{"no scheme", Config{Endpoint: "localhost:5000", Credential: "c2VjcmV0"}, ErrInvalidEndpoint},
		{"https scheme", Config{Endpoint: "https://db.example", Credential: "c2VjcmV0"}, ErrInvalidEndpoint},
		{"missing credential", Config{Endpoint: "ws://localhost:5000"}, ErrInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigHeader(t *testing.T) {
	h := Config{Credential: "YWxhZGRpbjpvcGVuc2VzYW1l"}.header()
	assert.Equal(t, "Basic YWxhZGRpbjpvcGVuc2VzYW1l", h.Get("Authorization"))

	h = Config{Credential: "  YWxhZGRpbjpvcGVuc2VzYW1l\n"}.header()
	assert.Equal(t, "Basic YWxhZGRpbjpvcGVuc2VzYW1l", h.Get("Authorization"))
}

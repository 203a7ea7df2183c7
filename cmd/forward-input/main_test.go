package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char5742/remote-input/internal/config"
)

func TestApplyArgs(t *testing.T) {
	tests := []struct {
		name     string
		preset   string
		args     []string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{name: "host only", args: []string{"tablet"}, wantHost: "tablet", wantPort: 4004},
		{name: "host and port", args: []string{"tablet", "5005"}, wantHost: "tablet", wantPort: 5005},
		{name: "ipv6 host", args: []string{"::1"}, wantHost: "::1", wantPort: 4004},
		{name: "host from config", preset: "phone", wantHost: "phone", wantPort: 4004},
		{name: "no host", wantErr: true},
		{name: "bad port", args: []string{"tablet", "http"}, wantErr: true},
		{name: "port out of range", args: []string{"tablet", "70000"}, wantErr: true},
		{name: "too many", args: []string{"a", "1", "b"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Client.Host = tt.preset

			err := applyArgs(cfg, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, cfg.Client.Host)
			assert.Equal(t, tt.wantPort, cfg.Client.Port)
		})
	}
}

func TestStatusURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Client.Host = "tablet"
	assert.Equal(t, "http://tablet:8080/api/status", statusURL(cfg))

	cfg.Client.Host = "fe80::1"
	cfg.Client.APIPort = 9000
	assert.Equal(t, "http://[fe80::1]:9000/api/status", statusURL(cfg))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "new", "config.toml")
	cfg, err := loadConfig(missing, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
	assert.FileExists(t, missing)

	valid := filepath.Join(dir, "valid.toml")
	require.NoError(t, os.WriteFile(valid, []byte("[client]\nhost = \"tablet\"\n"), 0o600))
	cfg, err = loadConfig(valid, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "tablet", cfg.Client.Host)

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("[client]\nport = 70000\n"), 0o600))
	_, err = loadConfig(invalid, &bytes.Buffer{})
	assert.Error(t, err)

	var out bytes.Buffer
	cfg, err = loadConfig(filepath.Join(valid, "config.toml"), &out)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
	assert.Contains(t, out.String(), "デフォルト設定を使用します")
}

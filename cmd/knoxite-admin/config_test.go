package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/knoxite/admin/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func validConfig() *ServerConfig {
	cfg := newServerConfig()
	cfg.AdminUserName = "admin"
	cfg.AdminPassword = "$2a$04$hash"
	cfg.StoragesPath = "/srv/knoxite"
	cfg.TokenSecret = strings.Repeat("s", 64)
	return cfg
}

func TestServerConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", cfgFileName)

	cfg := validConfig()
	cfg.Capacity = 5e9
	cfg.TokenTTL = duration{90 * time.Minute}
	cfg.Log = logger.Config{Format: logger.FormatJSON, Level: zapcore.DebugLevel}
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := newServerConfig()
	require.NoError(t, loaded.Load(path))
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestServerConfig_LoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), cfgFileName)
	body := `admin_user_name = "admin"
admin_password = "$2a$04$hash"
storages_path = "/srv/knoxite"
token_secret = "` + strings.Repeat("x", 32) + `"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	cfg := newServerConfig()
	require.NoError(t, cfg.Load(path))
	assert.Equal(t, defaultBindAddress, cfg.BindAddress)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL.Duration)
	assert.Equal(t, 5, cfg.LoginBurst)
	assert.Equal(t, zapcore.InfoLevel, cfg.Log.Level)
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*ServerConfig) {}},
		{name: "no user", mutate: func(c *ServerConfig) { c.AdminUserName = "" }, wantErr: "admin_user_name"},
		{name: "no password", mutate: func(c *ServerConfig) { c.AdminPassword = "" }, wantErr: "admin_password"},
		{name: "no storages", mutate: func(c *ServerConfig) { c.StoragesPath = "" }, wantErr: "storages_path"},
		{name: "short secret", mutate: func(c *ServerConfig) { c.TokenSecret = "short" }, wantErr: "token_secret"},
		{name: "bad log format", mutate: func(c *ServerConfig) { c.Log.Format = "xml" }, wantErr: "log format"},
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
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

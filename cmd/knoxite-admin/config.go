package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/knoxite/admin/auth"
	"github.com/knoxite/admin/logger"
	"go.uber.org/zap/zapcore"
)

const (
	appName     = "knoxite-admin"
	cfgFileName = "knoxite-admin.conf"

	defaultBindAddress = ":42024"
)

// ServerConfig is the TOML file written by setup and read by serve.
type ServerConfig struct {
	AdminUserName string        `toml:"admin_user_name"`
	AdminPassword string        `toml:"admin_password"` // bcrypt hash
	BindAddress   string        `toml:"bind_address"`
	StoragesPath  string        `toml:"storages_path"`
	Capacity      uint64        `toml:"capacity"` // zero means probe the filesystem
	TokenSecret   string        `toml:"token_secret"`
	TokenTTL      duration      `toml:"token_ttl"`
	LoginRate     float64       `toml:"login_rate"`
	LoginBurst    int           `toml:"login_burst"`
	Log           logger.Config `toml:"log"`
}

// duration reads "12h" style values from TOML.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func newServerConfig() *ServerConfig {
	return &ServerConfig{
		BindAddress: defaultBindAddress,
		TokenTTL:    duration{auth.DefaultTokenTTL},
		LoginRate:   1,
		LoginBurst:  5,
		Log: logger.Config{
			Format: logger.FormatAuto,
			Level:  zapcore.InfoLevel,
		},
	}
}

// defaultConfigPath is knoxite-admin/knoxite-admin.conf under the user's
// config directory, or the bare file name if that cannot be determined.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return cfgFileName
	}
	return filepath.Join(dir, appName, cfgFileName)
}

// defaultBoltPath is where the command line client keeps its credentials.
func defaultBoltPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("."+appName, "admin.bolt")
	}
	return filepath.Join(dir, "."+appName, "admin.bolt")
}

// Load reads the config at path over the defaults already in c.
func (c *ServerConfig) Load(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("unable to read config %s: %w", path, err)
	}
	return c.Validate()
}

// Validate checks the fields serve cannot run without.
func (c *ServerConfig) Validate() error {
	switch {
	case c.AdminUserName == "":
		return fmt.Errorf("admin_user_name is required")
	case c.AdminPassword == "":
		return fmt.Errorf("admin_password is required")
	case c.StoragesPath == "":
		return fmt.Errorf("storages_path is required")
	case len(c.TokenSecret) < 32:
		return fmt.Errorf("token_secret must be at least 32 characters")
	}
	return c.Log.Validate()
}

// Save writes c to path, creating the parent directory. The file holds the
// token secret and is only readable by its owner.
func (c *ServerConfig) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0600)
}

// siblingPath names a file in the directory holding path.
func siblingPath(path, name string) string {
	return filepath.Join(filepath.Dir(path), name)
}

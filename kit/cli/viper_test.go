package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/knoxite/admin/units"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

func ExampleNewCommand() {
	var bindAddress string
	var capacity uint64
	var insecure bool
	var tokenTTL time.Duration
	var origins []string
	var unit units.Unit
	var logLevel zapcore.Level
	cmd, err := NewCommand(viper.New(), &Program{
		Run: func() error {
			fmt.Println(bindAddress)
			fmt.Println(capacity)
			fmt.Println(insecure)
			fmt.Println(tokenTTL)
			fmt.Println(origins)
			fmt.Println(unit)
			fmt.Println(logLevel.String())
			return nil
		},
		Name: "example",
		Opts: []Opt{
			{
				DestP:   &bindAddress,
				Flag:    "http-bind-address",
				Default: ":42024",
				Desc:    "bind address for the REST API",
			},
			{
				DestP:   &capacity,
				Flag:    "capacity",
				Default: 5000,
				Desc:    "fixed capacity in bytes",
			},
			{
				DestP:   &insecure,
				Flag:    "skip-verify",
				Default: true,
				Desc:    "skip TLS verification",
			},
			{
				DestP:   &tokenTTL,
				Flag:    "token-ttl",
				Default: 12 * time.Hour,
				Desc:    "lifetime of issued tokens",
			},
			{
				DestP:   &origins,
				Flag:    "origins",
				Default: []string{"a", "b"},
				Desc:    "allowed origins",
			},
			{
				DestP:   &unit,
				Flag:    "unit",
				Default: "GB",
				Desc:    "values implementing pflag.Value",
			},
			{
				DestP:   &logLevel,
				Flag:    "log-level",
				Default: zapcore.WarnLevel,
			},
		},
	})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return
	}

	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
	}
	// Output:
	// :42024
	// 5000
	// true
	// 12h0m0s
	// [a b]
	// GB
	// warn
}

func Test_NewProgram(t *testing.T) {
	config := map[string]string{
		// config values should be same as flags
		"storages-path": "/srv/knoxite",
		"admin-user":    "root",
		"retries":       "2147483647",
		"capacity":      "9223372036854775807",
		"log-level":     "debug",
	}

	tests := []struct {
		name      string
		envVarVal string
		args      []string
		expected  string
	}{
		{
			name:     "no vals reads from config",
			expected: "/srv/knoxite",
		},
		{
			name:      "reads from env var",
			envVarVal: "/env/knoxite",
			expected:  "/env/knoxite",
		},
		{
			name:     "reads from flag",
			args:     []string{"--storages-path=/flag/knoxite"},
			expected: "/flag/knoxite",
		},
		{
			name:      "flag has highest precedence",
			envVarVal: "/env/knoxite",
			args:      []string{"--storages-path=/flag/knoxite"},
			expected:  "/flag/knoxite",
		},
	}

	for _, tt := range tests {
		for _, writer := range configWriters {
			fn := func(t *testing.T) {
				testDir := t.TempDir()

				confFile, err := writer.writeFn(testDir, config)
				require.NoError(t, err)

				t.Setenv("TEST_CONFIG_PATH", confFile)
				if tt.envVarVal != "" {
					t.Setenv("TEST_STORAGES_PATH", tt.envVarVal)
				}

				var storagesPath string
				var adminUser string
				var retries int32
				var capacity int64
				var logLevel zapcore.Level
				program := &Program{
					Name: "test",
					Opts: []Opt{
						{
							DestP:    &storagesPath,
							Flag:     "storages-path",
							Required: true,
						},
						{
							DestP: &adminUser,
							Flag:  "admin-user",
						},
						{
							DestP: &retries,
							Flag:  "retries",
						},
						{
							DestP: &capacity,
							Flag:  "capacity",
						},
						{
							DestP: &logLevel,
							Flag:  "log-level",
						},
					},
					Run: func() error { return nil },
				}

				cmd, err := NewCommand(viper.New(), program)
				require.NoError(t, err)
				cmd.SetArgs(append([]string{}, tt.args...))
				require.NoError(t, cmd.Execute())

				require.Equal(t, tt.expected, storagesPath)
				assert.Equal(t, "root", adminUser)
				assert.Equal(t, int32(2147483647), retries)
				assert.Equal(t, int64(9223372036854775807), capacity)
				assert.Equal(t, zapcore.DebugLevel, logLevel)
			}

			t.Run(fmt.Sprintf("%s_%s", tt.name, writer.ext), fn)
		}
	}
}

func Test_ExplicitEnvVar(t *testing.T) {
	t.Setenv("KNOXITE_SECRET", "s3cret")

	var secret string
	cmd, err := NewCommand(viper.New(), &Program{
		Name: "test",
		Opts: []Opt{
			{
				DestP:  &secret,
				Flag:   "token-secret",
				EnvVar: "KNOXITE_SECRET",
			},
		},
		Run: func() error { return nil },
	})
	require.NoError(t, err)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "s3cret", secret)
}

type configWriter func(dir string, config interface{}) (string, error)
type labeledWriter struct {
	ext     string
	writeFn configWriter
}

var configWriters = []labeledWriter{
	{ext: "json", writeFn: writeJsonConfig},
	{ext: "toml", writeFn: writeTomlConfig},
	{ext: "yml", writeFn: yamlConfigWriter(true)},
	{ext: "yaml", writeFn: yamlConfigWriter(false)},
}

func writeJsonConfig(dir string, config interface{}) (string, error) {
	b, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	confFile := filepath.Join(dir, "config.json")
	if err := os.WriteFile(confFile, b, 0600); err != nil {
		return "", err
	}
	return confFile, nil
}

func writeTomlConfig(dir string, config interface{}) (string, error) {
	confFile := filepath.Join(dir, "config.toml")
	w, err := os.OpenFile(confFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", err
	}
	defer w.Close()

	if err := toml.NewEncoder(w).Encode(config); err != nil {
		return "", err
	}
	return confFile, nil
}

func yamlConfigWriter(shortExt bool) configWriter {
	fileName := "config.yaml"
	if shortExt {
		fileName = "config.yml"
	}

	return func(dir string, config interface{}) (string, error) {
		confFile := filepath.Join(dir, fileName)
		w, err := os.OpenFile(confFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err != nil {
			return "", err
		}
		defer w.Close()

		if err := yaml.NewEncoder(w).Encode(config); err != nil {
			return "", err
		}
		return confFile, nil
	}
}

func Test_RequiredFlag(t *testing.T) {
	var storagesPath string
	program := &Program{
		Name: "test",
		Opts: []Opt{
			{
				DestP:    &storagesPath,
				Flag:     "storages-path",
				Required: true,
			},
		},
	}

	cmd, err := NewCommand(viper.New(), program)
	require.NoError(t, err)
	cmd.SetArgs([]string{})
	err = cmd.Execute()
	require.Error(t, err)
	require.Equal(t, `required flag(s) "storages-path" not set`, err.Error())
}

func Test_ConfigPrecedence(t *testing.T) {
	jsonConfig := map[string]interface{}{"log-level": zapcore.DebugLevel}
	tomlConfig := map[string]interface{}{"log-level": zapcore.InfoLevel}
	yamlConfig := map[string]interface{}{"log-level": zapcore.WarnLevel}
	ymlConfig := map[string]interface{}{"log-level": zapcore.ErrorLevel}

	tests := []struct {
		name          string
		writeJson     bool
		writeToml     bool
		writeYaml     bool
		writeYml      bool
		expectedLevel zapcore.Level
	}{
		{
			name:          "JSON is used if present",
			writeJson:     true,
			writeToml:     true,
			writeYaml:     true,
			writeYml:      true,
			expectedLevel: zapcore.DebugLevel,
		},
		{
			name:          "TOML is used if no JSON present",
			writeToml:     true,
			writeYaml:     true,
			writeYml:      true,
			expectedLevel: zapcore.InfoLevel,
		},
		{
			name:          "YAML is used if no JSON or TOML present",
			writeYaml:     true,
			writeYml:      true,
			expectedLevel: zapcore.WarnLevel,
		},
		{
			name:          "YML is used if no other option present",
			writeYml:      true,
			expectedLevel: zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		fn := func(t *testing.T) {
			testDir := t.TempDir()
			t.Setenv("TEST_CONFIG_PATH", testDir)

			if tt.writeJson {
				_, err := writeJsonConfig(testDir, jsonConfig)
				require.NoError(t, err)
			}
			if tt.writeToml {
				_, err := writeTomlConfig(testDir, tomlConfig)
				require.NoError(t, err)
			}
			if tt.writeYaml {
				_, err := yamlConfigWriter(false)(testDir, yamlConfig)
				require.NoError(t, err)
			}
			if tt.writeYml {
				_, err := yamlConfigWriter(true)(testDir, ymlConfig)
				require.NoError(t, err)
			}

			var logLevel zapcore.Level
			program := &Program{
				Name: "test",
				Opts: []Opt{
					{
						DestP: &logLevel,
						Flag:  "log-level",
					},
				},
				Run: func() error { return nil },
			}

			cmd, err := NewCommand(viper.New(), program)
			require.NoError(t, err)
			cmd.SetArgs([]string{})
			require.NoError(t, cmd.Execute())

			require.Equal(t, tt.expectedLevel, logLevel)
		}

		t.Run(tt.name, fn)
	}
}

func Test_ConfigPathDotDirectory(t *testing.T) {
	testDir := t.TempDir()

	tests := []struct {
		name string
		dir  string
	}{
		{name: "dot at start", dir: ".directory"},
		{name: "dot in middle", dir: "config.d"},
		{name: "dot at end", dir: "forgotmyextension."},
	}

	config := map[string]string{
		"admin-user": "root",
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			configDir := filepath.Join(testDir, tc.dir)
			require.NoError(t, os.Mkdir(configDir, 0700))

			_, err := writeTomlConfig(configDir, config)
			require.NoError(t, err)
			t.Setenv("TEST_CONFIG_PATH", configDir)

			var adminUser string
			program := &Program{
				Name: "test",
				Opts: []Opt{
					{
						DestP: &adminUser,
						Flag:  "admin-user",
					},
				},
				Run: func() error { return nil },
			}

			cmd, err := NewCommand(viper.New(), program)
			require.NoError(t, err)
			cmd.SetArgs([]string{})
			require.NoError(t, cmd.Execute())

			require.Equal(t, "root", adminUser)
		})
	}
}

func Test_MissingConfigPath(t *testing.T) {
	t.Setenv("TEST_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.toml"))

	_, err := NewCommand(viper.New(), &Program{Name: "test", Run: func() error { return nil }})
	assert.Error(t, err)
}

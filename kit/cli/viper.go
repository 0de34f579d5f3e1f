package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Opt is a single command-line option
type Opt struct {
	DestP interface{} // pointer to the destination

	EnvVar     string
	Flag       string
	Hidden     bool
	Persistent bool
	Required   bool
	Short      rune // using rune b/c it guarantees correctness. a short must always be a string of length 1

	Default interface{}
	Desc    string
}

// Program parses CLI options
type Program struct {
	// Run is invoked by cobra on execute.
	Run func() error
	// Name is the name of the program in help usage and the env var prefix.
	Name string
	// Opts are the command line/env var options to the program
	Opts []Opt
}

// NewCommand creates a new cobra command to be executed that respects env vars.
//
// Uses the upper-case version of the program's name as a prefix
// to all environment variables.
//
// This is to simplify the viper/cobra boilerplate.
func NewCommand(v *viper.Viper, p *Program) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:  p.Name,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return p.Run()
		},
	}

	SetEnvPrefix(v, p.Name)
	if err := initializeConfig(v, p.Name); err != nil {
		return nil, err
	}

	if err := BindOptions(v, cmd, p.Opts); err != nil {
		return nil, err
	}
	return cmd, nil
}

// SetEnvPrefix makes v read <NAME>_<FLAG> environment variables, with
// dashes in flag names turned into underscores.
func SetEnvPrefix(v *viper.Viper, name string) {
	v.SetEnvPrefix(strings.ToUpper(strings.ReplaceAll(name, "-", "_")))
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

// initializeConfig reads <NAME>_CONFIG_PATH if set. The path may name a
// file or a directory; a directory is searched for config.json, config.toml,
// config.yaml and config.yml in that order.
func initializeConfig(v *viper.Viper, name string) error {
	envVar := strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_CONFIG_PATH"
	configPath := os.Getenv(envVar)
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if err != nil {
		return fmt.Errorf("%s: %w", envVar, err)
	}
	if info.IsDir() {
		found := false
		for _, ext := range []string{"json", "toml", "yaml", "yml"} {
			candidate := filepath.Join(configPath, "config."+ext)
			if _, err := os.Stat(candidate); err == nil {
				configPath, found = candidate, true
				break
			}
		}
		if !found {
			return nil
		}
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return nil
}

// BindOptions adds opts to the specified command and automatically
// registers those options with viper. Values already present in viper
// (config file or environment) become the flag defaults so that an
// explicit flag still wins.
func BindOptions(v *viper.Viper, cmd *cobra.Command, opts []Opt) error {
	for _, o := range opts {
		flagset := cmd.Flags()
		if o.Persistent {
			flagset = cmd.PersistentFlags()
		}
		envVal := lookupEnv(v, &o)
		hasShort := o.Short != 0

		switch destP := o.DestP.(type) {
		case *string:
			var d string
			if o.Default != nil {
				d = o.Default.(string)
			}
			if hasShort {
				flagset.StringVarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagset.StringVar(destP, o.Flag, d, o.Desc)
			}
			if envVal != nil {
				*destP = v.GetString(o.Flag)
			}
		case *int:
			var d int
			if o.Default != nil {
				d = o.Default.(int)
			}
			if hasShort {
				flagset.IntVarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagset.IntVar(destP, o.Flag, d, o.Desc)
			}
			if envVal != nil {
				*destP = v.GetInt(o.Flag)
			}
		case *int32:
			var d int32
			if o.Default != nil {
				d = cast.ToInt32(o.Default)
			}
			if hasShort {
				flagset.Int32VarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagset.Int32Var(destP, o.Flag, d, o.Desc)
			}
			if envVal != nil {
				*destP = v.GetInt32(o.Flag)
			}
		case *int64:
			var d int64
			if o.Default != nil {
				d = cast.ToInt64(o.Default)
			}
			if hasShort {
				flagset.Int64VarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagset.Int64Var(destP, o.Flag, d, o.Desc)
			}
			if envVal != nil {
				*destP = v.GetInt64(o.Flag)
			}
		case *uint64:
			var d uint64
			if o.Default != nil {
				d = cast.ToUint64(o.Default)
			}
			if hasShort {
				flagset.Uint64VarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagset.Uint64Var(destP, o.Flag, d, o.Desc)
			}
			if envVal != nil {
				*destP = v.GetUint64(o.Flag)
			}
		case *float64:
			var d float64
			if o.Default != nil {
				d = o.Default.(float64)
			}
			if hasShort {
				flagset.Float64VarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagset.Float64Var(destP, o.Flag, d, o.Desc)
			}
			if envVal != nil {
				*destP = v.GetFloat64(o.Flag)
			}
		case *bool:
			var d bool
			if o.Default != nil {
				d = o.Default.(bool)
			}
			if hasShort {
				flagset.BoolVarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagset.BoolVar(destP, o.Flag, d, o.Desc)
			}
			if envVal != nil {
				*destP = v.GetBool(o.Flag)
			}
		case *time.Duration:
			var d time.Duration
			if o.Default != nil {
				d = o.Default.(time.Duration)
			}
			if hasShort {
				flagset.DurationVarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagset.DurationVar(destP, o.Flag, d, o.Desc)
			}
			if envVal != nil {
				*destP = v.GetDuration(o.Flag)
			}
		case *[]string:
			var d []string
			if o.Default != nil {
				d = o.Default.([]string)
			}
			if hasShort {
				flagset.StringSliceVarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagset.StringSliceVar(destP, o.Flag, d, o.Desc)
			}
			if envVal != nil {
				*destP = v.GetStringSlice(o.Flag)
			}
		case *zapcore.Level:
			var d zapcore.Level
			if o.Default != nil {
				d = o.Default.(zapcore.Level)
			}
			if hasShort {
				LevelVarP(flagset, destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				LevelVar(flagset, destP, o.Flag, d, o.Desc)
			}
			if envVal != nil {
				if err := destP.Set(fmt.Sprint(envVal)); err != nil {
					return fmt.Errorf("%s: %w", o.Flag, err)
				}
			}
		case pflag.Value:
			if o.Default != nil {
				if err := destP.Set(fmt.Sprint(o.Default)); err != nil {
					return fmt.Errorf("%s: invalid default: %w", o.Flag, err)
				}
			}
			if hasShort {
				flagset.VarP(destP, o.Flag, string(o.Short), o.Desc)
			} else {
				flagset.Var(destP, o.Flag, o.Desc)
			}
			if envVal != nil {
				if err := destP.Set(fmt.Sprint(envVal)); err != nil {
					return fmt.Errorf("%s: %w", o.Flag, err)
				}
			}
		default:
			// if you get a panic here, sorry about that!
			// anyway, go ahead and make a PR and add another type.
			return fmt.Errorf("unknown destination type %T", o.DestP)
		}

		if o.Required {
			if err := cmd.MarkFlagRequired(o.Flag); err != nil {
				return err
			}
			// A value from config or env satisfies the requirement.
			if envVal != nil {
				if f := flagset.Lookup(o.Flag); f != nil {
					delete(f.Annotations, cobra.BashCompOneRequiredFlag)
				}
			}
		}
		if o.Hidden {
			if err := flagset.MarkHidden(o.Flag); err != nil {
				return err
			}
		}
		if err := v.BindPFlag(o.Flag, flagset.Lookup(o.Flag)); err != nil {
			return err
		}
	}
	return nil
}

// lookupEnv returns the value set for o through a config file or the
// environment, or nil.
func lookupEnv(v *viper.Viper, o *Opt) interface{} {
	if o.EnvVar != "" {
		_ = v.BindEnv(o.Flag, o.EnvVar)
	}
	if v.IsSet(o.Flag) {
		return v.Get(o.Flag)
	}
	return nil
}

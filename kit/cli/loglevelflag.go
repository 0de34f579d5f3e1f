package cli

import (
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

// levelValue is a zapcore.Level usable as a pflag.Value.
type levelValue zapcore.Level

func (l *levelValue) String() string { return zapcore.Level(*l).String() }

func (l *levelValue) Set(s string) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("unknown log level %q; use debug, info, warn or error", s)
	}
	*l = levelValue(level)
	return nil
}

func (l *levelValue) Type() string { return "level" }

// LevelVar defines a log level flag storing into p.
func LevelVar(fs *pflag.FlagSet, p *zapcore.Level, name string, value zapcore.Level, usage string) {
	LevelVarP(fs, p, name, "", value, usage)
}

// LevelVarP is LevelVar with a shorthand letter.
func LevelVarP(fs *pflag.FlagSet, p *zapcore.Level, name, shorthand string, value zapcore.Level, usage string) {
	*p = value
	fs.VarP((*levelValue)(p), name, shorthand, usage)
}

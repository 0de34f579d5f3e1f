package logger

import (
	"io"
	"os"
	"strings"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	isatty "github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger writing to w in the configured format. The auto
// format picks console for terminals and logfmt otherwise.
func New(w io.Writer, c Config) (*zap.Logger, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format(time.RFC3339))
	}
	config.EncodeDuration = func(d time.Duration, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(d.String())
	}

	return zap.New(zapcore.NewCore(
		newEncoder(format(w, c.Format), config),
		zapcore.Lock(zapcore.AddSync(w)),
		c.Level,
	), zap.Fields(zap.String("log_id", newLogID()))), nil
}

func newEncoder(format string, config zapcore.EncoderConfig) zapcore.Encoder {
	switch format {
	case FormatJSON:
		return zapcore.NewJSONEncoder(config)
	case FormatLogfmt:
		return zaplogfmt.NewEncoder(config)
	default:
		return zapcore.NewConsoleEncoder(config)
	}
}

func format(w io.Writer, f string) string {
	f = strings.ToLower(f)
	if f != "" && f != FormatAuto {
		return f
	}
	if file, ok := w.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		return FormatConsole
	}
	return FormatLogfmt
}

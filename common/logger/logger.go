// Package logger is a key/value facade over zap shared by the escrow
// binaries.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// danglingKey holds the trailing value of an odd-length field list.
const danglingKey = "!BADKEY"

type Logger struct {
	zap *zap.Logger
}

// Config selects the level and encoding. Output defaults to stdout; tests
// point it at a buffer.
type Config struct {
	Level       string
	Format      string
	ServiceName string
	Output      zapcore.WriteSyncer
}

// New builds a logger. Unknown levels fall back to info so a typo in the
// config never silences the ledger.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = zapcore.Lock(os.Stdout)
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), output, parseLevel(cfg.Level))
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))

	if cfg.ServiceName != "" {
		zl = zl.With(zap.String("service", cfg.ServiceName))
	}

	return &Logger{zap: zl}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder

	if strings.EqualFold(format, "console") {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func parseLevel(level string) zapcore.Level {
	parsed, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil || level == "" {
		return zapcore.InfoLevel
	}
	return parsed
}

func (l *Logger) Debug(msg string, kv ...any) { l.zap.Debug(msg, fields(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.zap.Info(msg, fields(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.zap.Warn(msg, fields(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.zap.Error(msg, fields(kv)...) }
func (l *Logger) Fatal(msg string, kv ...any) { l.zap.Fatal(msg, fields(kv)...) }

// With returns a child logger that stamps every entry with kv, e.g.
// With("component", "payout").
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{zap: l.zap.With(fields(kv)...)}
}

func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// fields turns alternating keys and values into zap fields. Errors keep
// their message under the given key.
func fields(kv []any) []zap.Field {
	if len(kv) == 0 {
		return nil
	}

	out := make([]zap.Field, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		if i+1 == len(kv) {
			out = append(out, zap.Any(danglingKey, kv[i]))
			break
		}

		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}

		if err, ok := kv[i+1].(error); ok {
			out = append(out, zap.NamedError(key, err))
			continue
		}
		out = append(out, zap.Any(key, kv[i+1]))
	}
	return out
}

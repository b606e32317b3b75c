// Package logger provides structured logging for verity.
//
// The package-level helpers (Debug, Info, Warn, Section) print only when
// verbose mode is enabled via the --verbose flag, so the CLI stays quiet by
// default. Long-running servers switch to JSON output with SetFormat.
//
// Request and session scoped fields are carried through context.Context
// with ctxzap; use WithSession and FromContext inside services.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the log encoding.
type Format string

// Supported log formats.
const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

var (
	mu      sync.RWMutex
	verbose bool
	format            = FormatConsole
	output  io.Writer = os.Stderr
	base              = zap.NewNop()
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	rebuild()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// SetFormat switches between console and JSON encoding.
func SetFormat(f Format) {
	mu.Lock()
	defer mu.Unlock()
	format = f
	rebuild()
}

// rebuild swaps the base logger (caller must hold lock).
func rebuild() {
	if !verbose {
		base = zap.NewNop()
		return
	}

	cfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var enc zapcore.Encoder
	if format == FormatJSON {
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(output), zapcore.DebugLevel)
	base = zap.New(core)
}

// L returns the current base logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	L().Debug(fmt.Sprintf(format, args...))
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	L().Debug("=== " + name + " ===")
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	L().Info(fmt.Sprintf(format, args...))
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	L().Warn(fmt.Sprintf(format, args...))
}

// WithSession returns a context carrying a logger tagged with the session ID.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return ctxzap.ToContext(ctx, L().With(zap.String("session_id", sessionID)))
}

// WithRequest returns a context carrying a logger tagged with the request ID.
func WithRequest(ctx context.Context, requestID string) context.Context {
	return ctxzap.ToContext(ctx, L().With(zap.String("request_id", requestID)))
}

// AddFields adds fields to the logger carried by ctx.
func AddFields(ctx context.Context, fields ...zap.Field) {
	ctxzap.AddFields(ctx, fields...)
}

// FromContext returns the logger carried by ctx including added fields.
// A context without a logger yields a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return ctxzap.Extract(ctx)
}

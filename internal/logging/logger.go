package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnvVar selects the level when none is passed to Initialize.
// Unset or empty keeps logging silent.
const LogLevelEnvVar = "DEVSCAN_LOG_LEVEL"

// maxDumpBytes caps hex and ascii dumps of datagrams.
const maxDumpBytes = 256

var (
	logger *zap.Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Initialize builds the global console logger on stderr. An empty level
// falls back to DEVSCAN_LOG_LEVEL; if that is empty too the logger is a
// no-op. Unknown names log at info.
func Initialize(name string) error {
	if name == "" {
		name = os.Getenv(LogLevelEnvVar)
	}
	if name == "" {
		logger = zap.NewNop()
		return nil
	}

	lvl, _ := ParseLevel(name)
	level.SetLevel(lvl)

	encoder := zap.NewDevelopmentEncoderConfig()
	encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeCaller = zapcore.ShortCallerEncoder

	cfg := zap.Config{
		Level:            level,
		Encoding:         "console",
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// ParseLevel maps debug, info, warn or error to a zap level. Anything else
// returns info and an error.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// SetLevel changes the level of an initialized logger. It has no effect
// on the silent logger.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)
	return nil
}

// Level returns the level of the console logger
func Level() zapcore.Level {
	return level.Level()
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogDatagram logs a datagram sent or received on a multicast group.
// Nothing is logged above debug level.
func LogDatagram(direction string, ifName string, ttl int, data []byte) {
	if !GetLogger().Core().Enabled(zapcore.DebugLevel) {
		return
	}
	Debug("Datagram",
		zap.String("direction", direction),
		zap.String("interface", ifName),
		zap.Int("ttl", ttl),
		zap.Int("length", len(data)),
		zap.String("hex", hexDump(data)),
		zap.String("ascii", asciiDump(data)),
	)
}

// LogInterfaceEvent logs a change of the local interface set
func LogInterfaceEvent(event string, index int, addr string) {
	Info("Interface event",
		zap.String("event", event),
		zap.Int("index", index),
		zap.String("address", addr),
	)
}

func hexDump(data []byte) string {
	if len(data) > maxDumpBytes {
		return hex.EncodeToString(data[:maxDumpBytes]) + "..."
	}
	return hex.EncodeToString(data)
}

func asciiDump(data []byte) string {
	if len(data) > maxDumpBytes {
		data = data[:maxDumpBytes]
	}
	out := make([]byte, len(data))
	for i, b := range data {
		if b < 32 || b > 126 {
			b = '.'
		}
		out[i] = b
	}
	return string(out)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

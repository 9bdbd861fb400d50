package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// productionLogger builds a logger from the production encoder writing into buf
func productionLogger(buf *bytes.Buffer) *zap.Logger {
	cfg := newConfig("production")
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg.EncoderConfig),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}

// Property: production entries are JSON objects with level, timestamp and message
func TestProperty_ProductionLogsAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("production log entries are structured JSON", prop.ForAll(
		func(message string, level string) bool {
			var buf bytes.Buffer
			logger := productionLogger(&buf)

			switch level {
			case "debug":
				logger.Debug(message)
			case "warn":
				logger.Warn(message)
			case "error":
				logger.Error(message)
			default:
				logger.Info(message)
			}
			logger.Sync()

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}

			if entry["level"] != level {
				return false
			}
			if _, ok := entry["timestamp"]; !ok {
				return false
			}
			return entry["msg"] == message
		},
		gen.AlphaString(),
		gen.OneConstOf("debug", "info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: typed fields survive encoding
func TestProperty_FieldsAreKept(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("session and error fields are encoded", prop.ForAll(
		func(sessionID string, errorMsg string) bool {
			var buf bytes.Buffer
			logger := productionLogger(&buf)

			logger.Error("Reply failed", zap.String("session_id", sessionID), zap.String("error", errorMsg))
			logger.Sync()

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}
			if _, ok := entry["stacktrace"]; !ok {
				return false
			}
			return entry["session_id"] == sessionID && entry["error"] == errorMsg
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNew_ProductionAndDevelopment(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := New(env, "debug")
		if err != nil {
			t.Fatalf("Failed to create %s logger: %v", env, err)
		}
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("%s logger should enable debug level", env)
		}
	}
}

func TestNew_LevelIsApplied(t *testing.T) {
	logger, err := New("production", "warn")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New("production", "loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

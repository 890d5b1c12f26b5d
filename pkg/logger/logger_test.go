package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/pkg/config"
)

func newBufferLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := NewWithWriter(&config.Config{Env: "test", LogLevel: "debug", LogFormat: "json"}, &buf)
	return l, &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			require.NotNil(t, l)
			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	l, buf := newBufferLogger(t)

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { l.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { l.Info("info message") }, "info message", "info"},
		{"warn", func() { l.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { l.Error("error message") }, "error message", "error"},
		{"debugf", func() { l.Debugf("fund: %s, points: %d", "000216", 30) }, "fund: 000216, points: 30", "debug"},
		{"infof", func() { l.Infof("saved %d rows", 42) }, "saved 42 rows", "info"},
		{"warnf", func() { l.Warnf("retry attempt: %d", 3) }, "retry attempt: 3", "warn"},
		{"errorf", func() { l.Errorf("failed to fetch: %s", "timeout") }, "failed to fetch: timeout", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decode(t, buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
			assert.Equal(t, "fundlens", entry["service"])
			assert.Equal(t, "test", entry["env"])
		})
	}
}

func TestWithFields(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.WithFields(map[string]interface{}{
		"fund_code": "000216",
		"nav":       1.2345,
		"points":    250,
	}).Info("nav saved")

	entry := decode(t, buf)
	assert.Equal(t, "000216", entry["fund_code"])
	assert.Equal(t, 1.2345, entry["nav"])
	assert.Equal(t, float64(250), entry["points"])
	assert.Equal(t, "nav saved", entry["message"])
}

func TestWithComponentAndFund(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.WithComponent("eastmoney").WithFund("110011").WithField("page", 2).Debug("page fetched")

	entry := decode(t, buf)
	assert.Equal(t, "eastmoney", entry["component"])
	assert.Equal(t, "110011", entry["fund_code"])
	assert.Equal(t, float64(2), entry["page"])
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.WithError(errors.New("database connection failed")).Error("operation failed")

	entry := decode(t, buf)
	assert.Equal(t, "database connection failed", entry["error"])
	assert.Equal(t, "operation failed", entry["message"])
}

func TestLogFormats(t *testing.T) {
	for _, format := range []string{"json", "console", "pretty"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(&config.Config{Env: "test", LogLevel: "info", LogFormat: format}, &buf)
			l.Info("test message")

			assert.True(t, strings.Contains(buf.String(), "test message"), "output: %s", buf.String())
		})
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithFund("000001").Info("discarded")
	})
}

package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mymovies/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: make(map[string]interface{})}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "debug level json",
			cfg:     &config.LoggingConfig{Level: "debug", Format: "json"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
		{
			name:    "file output",
			cfg:     &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.WithField("mode", "static").Info("run started")
	logger.Debug("hidden at info level")

	output := buf.String()
	assert.Contains(t, output, `"message":"run started"`)
	assert.Contains(t, output, `"mode":"static"`)
	assert.Contains(t, output, `"app":"mymovies"`)
	assert.NotContains(t, output, "hidden at info level")
}

func TestConsoleNoColor(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&config.LoggingConfig{Level: "info", NoColor: true}, &buf)
	require.NoError(t, err)

	logger.Warn("plain output")

	output := buf.String()
	assert.Contains(t, output, "WARN")
	assert.Contains(t, output, "| plain output")
	assert.NotContains(t, output, "\033[")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	var console bytes.Buffer
	logger, err := NewWithWriter(&config.LoggingConfig{Level: "info", File: path}, &console)
	require.NoError(t, err)

	logger.Info("written twice")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"written twice"`)
	assert.Contains(t, console.String(), "written twice")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.
		WithField("field1", "value1").
		WithFields(map[string]interface{}{
			"count": 4,
			"ok":    true,
		}).
		Info("chained fields")

	output := buf.String()
	if !strings.Contains(output, "chained fields") {
		t.Error("Message not found in output")
	}
	if !strings.Contains(output, `"field1":"value1"`) {
		t.Error("field1 not found in output")
	}
	if !strings.Contains(output, `"count":4`) {
		t.Error("count not found in output")
	}
	if !strings.Contains(output, `"ok":true`) {
		t.Error("ok not found in output")
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(&buf)

	_ = parent.WithField("child", "only")
	parent.Info("parent message")

	assert.NotContains(t, buf.String(), "child")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}

	logger.WithError(errors.New("login rejected")).Error("auth failed")

	output := buf.String()
	assert.Contains(t, output, "auth failed")
	assert.Contains(t, output, "login rejected")
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.InfoWithFields("typed", map[string]interface{}{
		"int64":    int64(456),
		"float":    0.5,
		"time":     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		"duration": 5 * time.Second,
		"strings":  []string{"a", "b"},
		"cause":    errors.New("boom"),
		"custom":   struct{ Name string }{Name: "x"},
	})

	output := buf.String()
	assert.Contains(t, output, `"int64":456`)
	assert.Contains(t, output, `"strings":["a","b"]`)
	assert.Contains(t, output, `"cause":"boom"`)
	assert.Contains(t, output, `"custom":{"Name":"x"}`)
}

func TestGlobalLogger(t *testing.T) {
	previous := globalLogger
	defer SetLogger(previous)

	test := NewTestLogger()
	SetLogger(test)

	Info("info message")
	WithField("key", "value").Warn("with field")
	WithError(errors.New("bad")).Error("with error")
	LogPass(2, 21, 10, 3, 13)
	LogMetrics("export", map[string]interface{}{"unique": 13})

	assert.True(t, test.HasMessage("info message"))
	assert.Len(t, test.GetMessagesByLevel("ERROR"), 1)
	assert.Equal(t, "bad", test.GetMessagesByLevel("ERROR")[0].Error.Error())

	passes := test.GetMessagesByLevel("DEBUG")
	require.Len(t, passes, 1)
	assert.Equal(t, 3, passes[0].Fields["added"])

	assert.True(t, test.HasMessage("Run metrics"))

	test.Clear()
	assert.Empty(t, test.GetMessages())
}

func TestInitialize(t *testing.T) {
	previous := globalLogger
	defer SetLogger(previous)

	require.NoError(t, Initialize(&config.LoggingConfig{Level: "error"}))
	assert.NotNil(t, GetLogger())

	assert.Error(t, Initialize(&config.LoggingConfig{Level: "loud"}))
}

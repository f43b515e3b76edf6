package logmasker

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab4/taskapi"
)

type entry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (r *recordingLogger) log(level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{level, msg, args})
}

func (r *recordingLogger) Info(msg string, args ...any)  { r.log("info", msg, args) }
func (r *recordingLogger) Error(msg string, args ...any) { r.log("error", msg, args) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.log("warn", msg, args) }
func (r *recordingLogger) Debug(msg string, args ...any) { r.log("debug", msg, args) }

func (r *recordingLogger) last() entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}

func defaultConfig(t *testing.T) *LogMaskerConfig {
	t.Helper()
	cfg := &LogMaskerConfig{}
	require.NoError(t, taskapi.ProcessConfigDefaults(cfg))
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestLogMaskerConfigDefaults(t *testing.T) {
	cfg := defaultConfig(t)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, MaskStrategyRedact, cfg.DefaultStrategy)
	assert.Contains(t, cfg.FieldRules, FieldMaskingRule{Field: "apiKey", Strategy: MaskStrategyPartial})
	assert.Contains(t, cfg.FieldRules, FieldMaskingRule{Field: "password", Strategy: MaskStrategyRedact})
	assert.Equal(t, PartialMaskConfig{ShowFirst: 2, MaskChar: "*", MinLength: 6}, cfg.Partial)
}

func TestLogMaskerConfigValidate(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.DefaultStrategy = "shred"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidStrategy)

	cfg = defaultConfig(t)
	cfg.FieldRules = append(cfg.FieldRules, FieldMaskingRule{Field: ""})
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidRule)

	cfg = defaultConfig(t)
	cfg.PatternRules = []PatternMaskingRule{{Pattern: "("}}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidRule)

	cfg = defaultConfig(t)
	cfg.FieldRules = []FieldMaskingRule{{Field: "x", Strategy: "shred"}}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidStrategy)
}

func TestMaskingLogger(t *testing.T) {
	base := &recordingLogger{}
	cfg := defaultConfig(t)
	cfg.PatternRules = []PatternMaskingRule{{Pattern: `^sk-[a-z0-9]+$`, Strategy: MaskStrategyHash}}
	logger, err := NewMaskingLogger(base, cfg)
	require.NoError(t, err)

	logger.Info("Configuration loaded",
		"apiKey", "abcdef123456",
		"password", "hunter2",
		"user", "alice",
		"note", "sk-abc123",
		"count", 3,
		"dangling",
	)

	got := base.last()
	assert.Equal(t, "info", got.level)
	assert.Equal(t, "Configuration loaded", got.msg)
	require.Len(t, got.args, 11)
	assert.Equal(t, "ab**********", got.args[1])
	assert.Equal(t, "[REDACTED]", got.args[3])
	assert.Equal(t, "alice", got.args[5])
	assert.True(t, strings.HasPrefix(got.args[7].(string), "[HASH:"))
	assert.Equal(t, 3, got.args[9])
	assert.Equal(t, "dangling", got.args[10])
}

func TestMaskingLogger_ShortAndNonStringValues(t *testing.T) {
	logger, err := NewMaskingLogger(&recordingLogger{}, defaultConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "[REDACTED]", logger.Mask("apiKey", "abc"))
	assert.Equal(t, "", logger.Mask("apiKey", ""))
	assert.Equal(t, "[REDACTED]", logger.Mask("apiKey", 12345678))
	assert.Equal(t, "[REDACTED]", logger.Mask("token", 42))
}

func TestMaskingLogger_MaskableValue(t *testing.T) {
	base := &recordingLogger{}
	logger, err := NewMaskingLogger(base, defaultConfig(t))
	require.NoError(t, err)

	logger.Warn("secret value", "anything", Secret("topsecretvalue"))
	assert.Equal(t, "to************", base.last().args[1])
}

func TestMaskingLogger_Disabled(t *testing.T) {
	base := &recordingLogger{}
	cfg := defaultConfig(t)
	cfg.Enabled = false
	logger, err := NewMaskingLogger(base, cfg)
	require.NoError(t, err)

	logger.Error("plain", "password", "hunter2")
	assert.Equal(t, []any{"password", "hunter2"}, base.last().args)
}

func TestLogMaskerModule_ProvidesService(t *testing.T) {
	module := NewModule()
	app, err := taskapi.NewApplication(
		taskapi.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		taskapi.WithConfigFeeders(),
		taskapi.WithModules(module),
	)
	require.NoError(t, err)
	require.NoError(t, app.Init())

	var logger taskapi.Logger
	require.NoError(t, app.GetService(ServiceName, &logger))
	assert.Same(t, module.Logger(), logger)
}

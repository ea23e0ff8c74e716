package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level, o Options) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	InitializeWithCore(core, o)
	t.Cleanup(Reset)
	return logs
}

// TestAllCategoriesLog checks every category reaches the core under its own name.
func TestAllCategoriesLog(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, Options{})

	categories := []Category{
		CategoryBoot,
		CategoryLoad,
		CategoryPipeline,
		CategoryAnalysis,
		CategoryStore,
		CategoryReport,
		CategoryPerformance,
	}
	for _, cat := range categories {
		require.True(t, IsCategoryEnabled(cat), "category %s should be enabled", cat)
		Get(cat).Info("info for %s", cat)
	}

	Boot("boot %d", 1)
	Load("load %d", 1)
	Pipeline("pipeline %d", 1)
	Analysis("analysis %d", 1)
	Store("store %d", 1)
	Report("report %d", 1)

	assert.Equal(t, len(categories)+6, logs.Len())
	for _, cat := range categories {
		found := logs.FilterLoggerName(string(cat)).Len()
		assert.GreaterOrEqual(t, found, 1, "no entries for %s", cat)
	}
	assert.Equal(t, "pipeline 1", logs.FilterLoggerName("pipeline").All()[1].Message)
}

func TestCategoryDisabled(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, Options{
		Categories: map[string]bool{"store": false, "load": true},
	})

	assert.False(t, IsCategoryEnabled(CategoryStore))
	assert.True(t, IsCategoryEnabled(CategoryLoad))
	assert.True(t, IsCategoryEnabled(CategoryAnalysis), "unspecified categories default to enabled")

	Store("should be dropped")
	Load("should be kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "should be kept", logs.All()[0].Message)
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel, Options{})

	l := Get(CategoryPipeline)
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARNING", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitializeWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "censuswage.log")
	require.NoError(t, Initialize(Options{Level: "info", Format: "json", File: path}))
	t.Cleanup(Reset)

	Pipeline("kept %d rows", 42)
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"kept 42 rows"`), "got: %s", data)
	assert.True(t, strings.Contains(string(data), `"logger":"pipeline"`), "got: %s", data)
}

func TestInitializeRejectsUnknownFormat(t *testing.T) {
	err := Initialize(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestStructuredLog(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, Options{})

	Get(CategoryAnalysis).StructuredLog("warn", "slow fit", map[string]interface{}{"procedure": "ridge"})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "ridge", entry.ContextMap()["procedure"])
}

func TestTimerThreshold(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, Options{})

	timer := StartTimer(CategoryPipeline, "recode")
	timer.start = time.Now().Add(-time.Second)
	timer.StopWithThreshold(time.Millisecond)

	require.Equal(t, 1, logs.FilterLoggerName("performance").Len())
	assert.Contains(t, logs.All()[0].Message, "recode took")
}

func TestAuditEvents(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, Options{})

	a := Audit("run-1")
	a.RunStart("acs.parquet")
	a.Stage("filter", 10, 7, 2*time.Millisecond)
	a.RunEnd(time.Second, assert.AnError)

	entries := logs.FilterLoggerName("audit").All()
	require.Len(t, entries, 3)
	assert.Equal(t, "run_start", entries[0].ContextMap()["event"])
	assert.Equal(t, "run-1", entries[1].ContextMap()["run"])
	assert.Equal(t, int64(7), entries[1].ContextMap()["rows_out"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, assert.AnError.Error(), entries[2].ContextMap()["error"])
}

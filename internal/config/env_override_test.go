package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides_StoreAndLogging(t *testing.T) {
	t.Setenv("CENSUSWAGE_DB", "/tmp/runs.db")
	t.Setenv("CENSUSWAGE_LOG_LEVEL", "debug")
	t.Setenv("CENSUSWAGE_DATA", "acs.parquet")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "/tmp/runs.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "acs.parquet", cfg.Data.Path)
}

func TestEnvOverrides_Parallelism(t *testing.T) {
	t.Run("valid value applies", func(t *testing.T) {
		t.Setenv("CENSUSWAGE_PARALLELISM", "4")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 4, cfg.Analysis.Parallelism)
	})

	t.Run("invalid values are ignored", func(t *testing.T) {
		for _, v := range []string{"four", "0", "-2"} {
			t.Setenv("CENSUSWAGE_PARALLELISM", v)
			cfg := DefaultConfig()
			cfg.applyEnvOverrides()
			assert.Equal(t, 1, cfg.Analysis.Parallelism, "value %q", v)
		}
	})
}

func TestEnvOverrides_EmptyLeavesConfig(t *testing.T) {
	t.Setenv("CENSUSWAGE_DB", "")
	t.Setenv("CENSUSWAGE_LOG_LEVEL", "")
	t.Setenv("CENSUSWAGE_DATA", "")
	t.Setenv("CENSUSWAGE_PARALLELISM", "")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	assert.Equal(t, DefaultConfig(), cfg)
}

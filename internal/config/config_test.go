package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, "table", cfg.State)
	assert.Equal(t, "migrations/journal.json", cfg.JournalPath)
	assert.True(t, cfg.Transactional)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.Dialect)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STRATA_DATABASE_URL", "postgres://app@db/strata")
	t.Setenv("STRATA_DIALECT", "postgres")
	t.Setenv("STRATA_MIGRATIONS_DIR", "db/migrations")
	t.Setenv("STRATA_STATE", "journal")
	t.Setenv("STRATA_TRANSACTIONAL", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://app@db/strata", cfg.DatabaseURL)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "db/migrations", cfg.MigrationsDir)
	assert.Equal(t, "journal", cfg.State)
	assert.False(t, cfg.Transactional)
}

func TestLoadRejectsUnknownState(t *testing.T) {
	t.Setenv("STRATA_STATE", "redis")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state must be")
}

func TestLoadKeepsWhitespaceMigrationsDir(t *testing.T) {
	t.Setenv("STRATA_MIGRATIONS_DIR", " ")

	cfg, err := Load()
	// A blank-but-set value is still non-empty; only truly empty fails.
	require.NoError(t, err)
	assert.Equal(t, " ", cfg.MigrationsDir)
}

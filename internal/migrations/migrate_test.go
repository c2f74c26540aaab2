package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLatestMigrationVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_pool_leaderboard.up.sql",
		"000001_create_pool_leaderboard.down.sql",
		"000012_add_index.up.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000099_not_a_file"), 0o755))

	assert.EqualValues(t, 12, findLatestMigrationVersion(dir))
	assert.Zero(t, findLatestMigrationVersion(filepath.Join(dir, "missing")))
}

func TestRepositoryMigrationsAreNumbered(t *testing.T) {
	assert.EqualValues(t, 2, findLatestMigrationVersion("../../migrations"))
}

func TestRunMigrationsNeedsURL(t *testing.T) {
	assert.Error(t, RunMigrations("", "../../migrations", nil))
}

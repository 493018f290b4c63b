package infra

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindMigrationDir_WalksUp(t *testing.T) {
	// Tests run from internal/infra; the repository root holds db/migrations.
	dir := findMigrationDir()
	assert.True(t, filepath.IsAbs(dir))
	assert.Equal(t, "migrations", filepath.Base(dir))
	assert.Equal(t, "db", filepath.Base(filepath.Dir(dir)))
}

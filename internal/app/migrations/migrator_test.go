package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":  {Data: []byte("SELECT 10;")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"001_first.sql":  {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("ignored")},
	}

	migs, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, migs, 3)
	assert.Equal(t, []string{"001", "002", "010"}, []string{migs[0].Version, migs[1].Version, migs[2].Version})
	assert.Equal(t, "SELECT 2;", migs[1].SQL)
}

func TestLoadRejectsDuplicateVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 1;")},
	}

	_, err := Load(fsys)
	assert.ErrorContains(t, err, "duplicate migration version 001")
}

func TestEmbeddedMigrations(t *testing.T) {
	migs, err := Load(Files())
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, "001", migs[0].Version)
	assert.Contains(t, migs[0].SQL, "CREATE TABLE IF NOT EXISTS users")
	// user rows are scanned into a plain string hash
	assert.Regexp(t, `(?m)^\s*password\s+VARCHAR\(255\)\s+NOT NULL,`, migs[0].SQL)
}

package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrderedGooseFiles(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	prev := ""
	for _, entry := range entries {
		name := entry.Name()
		assert.True(t, strings.HasSuffix(name, ".sql"), name)
		assert.Greater(t, name, prev)
		prev = name

		body, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestRequestsMigrationEncodesSubjectRule(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, migrationsDir+"/00003_student_requests.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "(type = 'attendance_correction') = (subject_id IS NOT NULL)")
	assert.Contains(t, string(body), "DEFAULT 'pending'")
}

func TestNewMigratorRequiresDB(t *testing.T) {
	_, err := NewMigrator(nil, nil)
	require.Error(t, err)
}

package postgres

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(Migrations(), migrationsDir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for _, e := range entries {
		raw, err := fs.ReadFile(Migrations(), migrationsDir+"/"+e.Name())
		require.NoError(t, err)
		body := string(raw)
		assert.True(t, strings.Contains(body, "-- +goose Up"), e.Name())
		assert.True(t, strings.Contains(body, "-- +goose Down"), e.Name())
	}
}

func TestMigrations_DefineSaveFunctions(t *testing.T) {
	raw, err := fs.ReadFile(Migrations(), migrationsDir+"/00002_save_functions.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "FUNCTION save_job(p_job jsonb, p_financials jsonb, p_supplements jsonb)")
	assert.Contains(t, string(raw), "FUNCTION save_contract(p_contract jsonb, p_line_items jsonb)")
}

func TestCommand_Unknown(t *testing.T) {
	err := Command(context.Background(), nil, "sideways", zap.NewNop())
	assert.ErrorContains(t, err, "unknown migrate command")
}

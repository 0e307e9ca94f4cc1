package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STUCK_AFTER_DAYS", "")
	t.Setenv("AI_PROVIDER", "")

	cfg := config.Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 14, cfg.StuckAfterDays)
	assert.Equal(t, "gemini", cfg.AIProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, "0 2 * * *", cfg.PhaseAgingCron)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.AuthRequired)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("JJR_TEST_A=file\nJJR_TEST_B=\"quoted\"\n"), 0o600))

	t.Setenv("JJR_TEST_A", "env")
	t.Setenv("JJR_TEST_B", "")
	os.Unsetenv("JJR_TEST_B")

	require.NoError(t, config.LoadDotEnv(path, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "env", os.Getenv("JJR_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("JJR_TEST_B"))
}

func TestSupabaseEnabled(t *testing.T) {
	cfg := &config.Config{UseSupabase: true}
	assert.False(t, cfg.SupabaseEnabled())

	cfg.SupabaseURL = "https://x.supabase.co"
	cfg.SupabaseAnonKey = "anon"
	assert.True(t, cfg.SupabaseEnabled())
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdminIDs(t *testing.T) {
	ids, err := ParseAdminIDs("123456789")
	require.NoError(t, err)
	assert.Equal(t, []int64{123456789}, ids)

	ids, err = ParseAdminIDs("111, 222,333 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{111, 222, 333}, ids)

	ids, err = ParseAdminIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ParseAdminIDs("111,abc")
	assert.Error(t, err)
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminIDs: []int64{111, 222}}
	assert.True(t, cfg.IsAdmin(111))
	assert.True(t, cfg.IsAdmin(222))
	assert.False(t, cfg.IsAdmin(333))
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("ADMIN_CHAT_ID", "111")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("ADMIN_CHAT_ID", "111,222")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{111, 222}, cfg.AdminIDs)
	assert.Equal(t, 3, cfg.RateLimitMessages)
	assert.Equal(t, 5, cfg.RateLimitSeconds)
	assert.Equal(t, 30, cfg.DedupSeconds)
	assert.Equal(t, ":8080", cfg.HealthAddr)
	assert.False(t, cfg.LLMEnabled)
}

package config_test

import (
	"testing"

	"github.com/jrsteele09/go-bank-backoffice/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnvVars(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("ENV", "")
		t.Setenv("API_BASE_URL", "")

		c := config.EnvVars{}
		require.Equal(t, ":8080", c.GetPort())
		require.Equal(t, "DEV", c.GetEnv())
		require.False(t, c.IsProduction())
		require.Equal(t, "http://localhost:8081/api", c.GetAPIBaseURL())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PORT", ":9000")
		t.Setenv("ENV", "PROD")
		t.Setenv("API_BASE_URL", "https://bank.example.com/api/")

		c := config.EnvVars{}
		require.Equal(t, ":9000", c.GetPort())
		require.True(t, c.IsProduction())
		require.Equal(t, "https://bank.example.com/api", c.GetAPIBaseURL())
	})
}

func TestCorsOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example ,")

	origins := config.Cors{}.GetAllowedOrigins()
	require.Len(t, origins, 2)
	require.True(t, origins.IsAllowedOrigin("http://a.example"))
	require.True(t, origins.IsAllowedOrigin("http://b.example"))
	require.False(t, origins.IsAllowedOrigin("http://c.example"))
}

func TestStorage(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("STORE_BACKEND", "Redis")

	s := config.Storage{}
	require.Equal(t, 0, s.GetRedisDB())
	require.Equal(t, "redis", s.GetStoreBackend())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/community?sslmode=disable")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "app.events", cfg.EventsExchange)
	require.Equal(t, "smallgroups", cfg.DeepLinkScheme)
	require.Equal(t, 5*time.Minute, cfg.PermissionCacheTTL)
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing DB_DSN", env: map[string]string{"JWT_SECRET": "secret"}},
		{name: "missing JWT_SECRET", env: map[string]string{"DB_DSN": "postgres://x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DSN", "")
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("PERMISSION_CACHE_TTL", "90s")
	require.Equal(t, 90*time.Second, getEnvDuration("PERMISSION_CACHE_TTL", time.Minute))

	t.Setenv("PERMISSION_CACHE_TTL", "120")
	require.Equal(t, 2*time.Minute, getEnvDuration("PERMISSION_CACHE_TTL", time.Minute))

	t.Setenv("PERMISSION_CACHE_TTL", "soon")
	require.Equal(t, time.Minute, getEnvDuration("PERMISSION_CACHE_TTL", time.Minute))
}

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROJEVAL_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, time.Minute, cfg.LeaderboardCacheTTL)
	require.Equal(t, 5*time.Minute, cfg.DashboardCacheTTL)
	require.Equal(t, 30*time.Second, cfg.AITimeout)
	require.Equal(t, AIProviderOpenAI, cfg.AIProvider)
}

func TestLoadGeminiProvider(t *testing.T) {
	t.Setenv("PROJEVAL_JWT_SECRET", "secret")
	t.Setenv("PROJEVAL_AI_PROVIDER", "Gemini")
	t.Setenv("PROJEVAL_GEMINI_API_KEY", "g-key")
	t.Setenv("PROJEVAL_OPENAI_API_KEY", "o-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, AIProviderGemini, cfg.AIProvider)
	require.Equal(t, "g-key", cfg.AIAPIKey())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	_, err := fromViper(viper.New())
	require.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	v := viper.New()
	v.Set("jwt.secret", "secret")
	v.Set("ai.timeout", "soon")
	_, err := fromViper(v)
	require.ErrorContains(t, err, "ai.timeout")

	v = viper.New()
	v.Set("jwt.secret", "secret")
	v.Set("ai.provider", "anthropic")
	_, err = fromViper(v)
	require.ErrorContains(t, err, "unsupported ai provider")
}

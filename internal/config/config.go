package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported AI providers.
const (
	AIProviderOpenAI = "openai"
	AIProviderGemini = "gemini"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	JWTSecret           string
	JWTTTL              time.Duration
	LeaderboardCacheTTL time.Duration
	DashboardCacheTTL   time.Duration
	AIProvider          string
	AIModel             string
	AIBaseURL           string
	OpenAIAPIKey        string
	GeminiAPIKey        string
	AITimeout           time.Duration
	RateLimitAI         int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// AIAPIKey returns the credential for the configured provider.
func (c Config) AIAPIKey() string {
	if c.AIProvider == AIProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PROJEVAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "Project Evaluation API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("leaderboard.cache_ttl", "1m")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("ai.provider", AIProviderOpenAI)
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("rate_limit.ai", 10)

	durations := map[string]time.Duration{}
	for _, key := range []string{"jwt.ttl", "leaderboard.cache_ttl", "dashboard.cache_ttl", "ai.timeout"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		JWTTTL:              durations["jwt.ttl"],
		LeaderboardCacheTTL: durations["leaderboard.cache_ttl"],
		DashboardCacheTTL:   durations["dashboard.cache_ttl"],
		AIProvider:          strings.ToLower(v.GetString("ai.provider")),
		AIModel:             v.GetString("ai.model"),
		AIBaseURL:           v.GetString("ai.base_url"),
		OpenAIAPIKey:        v.GetString("openai_api_key"),
		GeminiAPIKey:        v.GetString("gemini_api_key"),
		AITimeout:           durations["ai.timeout"],
		RateLimitAI:         v.GetInt("rate_limit.ai"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.AIProvider {
	case AIProviderOpenAI, AIProviderGemini:
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	if cfg.RateLimitAI <= 0 {
		cfg.RateLimitAI = 10
	}

	return cfg, nil
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv, AppPort, BaseURL string
	DBDSN                    string
	RedisAddr                string
	RedisDB                  int
	CORSOrigins              []string

	OpenAIKey, OpenAIModel       string
	AnthropicKey, AnthropicModel string
	GeminiKey, GeminiModel       string
	GrokKey, GrokModel           string

	// MockMode swaps every configured provider for deterministic mocks.
	MockMode  bool
	MockDelay time.Duration

	// ProviderWeights is "name=weight,name=weight"; unnamed providers
	// weigh 1.0.
	ProviderWeights map[string]float64
	ProviderRPS     int
	ProviderBurst   int
	RoundTimeout    time.Duration

	Workers       int
	RetryDelay    time.Duration
	SweepInterval time.Duration
	KeepJobs      int
}

func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		AppEnv:          get("APP_ENV", "dev"),
		AppPort:         get("APP_PORT", "8080"),
		BaseURL:         get("APP_BASE_URL", "http://localhost:8080"),
		DBDSN:           must("DB_DSN"),
		RedisAddr:       get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisDB:         atoi(get("REDIS_DB", "0")),
		CORSOrigins:     split(get("CORS_ORIGINS", "http://localhost:5173")),
		OpenAIKey:       get("OPENAI_API_KEY", ""),
		OpenAIModel:     get("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicKey:    get("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  get("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),
		GeminiKey:       get("GEMINI_API_KEY", ""),
		GeminiModel:     get("GEMINI_MODEL", "gemini-2.5-pro"),
		GrokKey:         get("GROK_API_KEY", ""),
		GrokModel:       get("GROK_MODEL", "grok-3-latest"),
		MockMode:        parseBool(get("MOCK_MODE", "false")),
		MockDelay:       mustDuration(get("MOCK_DELAY", "300ms")),
		ProviderWeights: parseWeights(get("PROVIDER_WEIGHTS", "")),
		ProviderRPS:     atoi(get("PROVIDER_RPS", "2")),
		ProviderBurst:   atoi(get("PROVIDER_BURST", "2")),
		RoundTimeout:    mustDuration(get("ROUND_TIMEOUT", "120s")),
		Workers:         atoi(get("WORKERS", "4")),
		RetryDelay:      mustDuration(get("RETRY_DELAY", "60s")),
		SweepInterval:   mustDuration(get("SWEEP_INTERVAL", "1h")),
		KeepJobs:        atoi(get("KEEP_JOBS", "1000")),
	}
	return c
}

// parseWeights reads "openai=1.5,gemini=0.8". Malformed entries are
// skipped.
func parseWeights(s string) map[string]float64 {
	out := map[string]float64{}
	for _, part := range strings.Split(s, ",") {
		name, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || w < 0 {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(name))] = w
	}
	return out
}

func get(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing env %s", k)
	}
	return v
}
func atoi(s string) int                   { i, _ := strconv.Atoi(s); return i }
func parseBool(s string) bool             { b, _ := strconv.ParseBool(s); return b }
func mustDuration(s string) time.Duration { d, _ := time.ParseDuration(s); return d }
func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func GetEnv(k, d string) string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	return v
}

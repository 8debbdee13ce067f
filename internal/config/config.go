// Package config loads service settings from the environment.  A .env file in
// the working directory is read first; variables already set in the process
// environment win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the service.
type Config struct {
	Env  string
	Port string

	// DatabaseURL selects the Postgres store.  When empty the in-memory
	// store is used.
	DatabaseURL string

	OpenAIAPIKey        string
	OpenAIBaseURL       string
	ChatModel           string
	ClassifierModel     string
	AgentTimeout        time.Duration
	ExtraCrisisKeywords []string
	CrisisNotifyChannel string
	CrisisAlertQueue    string
	JWTSecret           string
	TokenTTL            time.Duration
	CORSAllowedOrigins  []string
	MaxBodyBytes        int64
	RequestTimeout      time.Duration
	HistoryDefaultLimit int
	ShutdownGracePeriod time.Duration
}

// Development reports whether the service runs with ENV=development.
func (c Config) Development() bool { return c.Env == "development" }

// AgentConfigured reports whether an API key for the agent is present.
func (c Config) AgentConfigured() bool { return c.OpenAIAPIKey != "" }

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.  Tests pass a map-backed
// lookup instead of the process environment.
func FromEnv(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}
	cfg := Config{
		Env:                 strings.ToLower(p.str("ENV", "production")),
		Port:                p.str("PORT", "8080"),
		DatabaseURL:         p.str("DATABASE_URL", ""),
		OpenAIAPIKey:        p.str("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       p.str("OPENAI_BASE_URL", ""),
		ChatModel:           p.str("OPENAI_MODEL_CHAT", "gpt-4o"),
		ClassifierModel:     p.str("OPENAI_MODEL_CLASSIFIER", "gpt-4o-mini"),
		AgentTimeout:        p.duration("AGENT_TIMEOUT", 30*time.Second),
		ExtraCrisisKeywords: p.list("CRISIS_KEYWORDS"),
		CrisisNotifyChannel: p.str("CRISIS_NOTIFY_CHANNEL", ""),
		CrisisAlertQueue:    p.str("CRISIS_ALERT_QUEUE", ""),
		JWTSecret:           p.str("JWT_SECRET", ""),
		TokenTTL:            p.duration("TOKEN_TTL", 24*time.Hour),
		CORSAllowedOrigins:  p.list("CORS_ALLOWED_ORIGINS"),
		MaxBodyBytes:        int64(p.integer("MAX_BODY_BYTES", 1<<20)),
		RequestTimeout:      p.duration("REQUEST_TIMEOUT", 60*time.Second),
		HistoryDefaultLimit: p.integer("HISTORY_DEFAULT_LIMIT", 50),
		ShutdownGracePeriod: p.duration("SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.JWTSecret == "" {
		if !cfg.Development() {
			p.errs = append(p.errs, errors.New("JWT_SECRET must be set outside development"))
		}
		cfg.JWTSecret = "development-secret"
	}
	if cfg.CrisisNotifyChannel != "" && cfg.DatabaseURL == "" {
		p.errs = append(p.errs, errors.New("CRISIS_NOTIFY_CHANNEL requires DATABASE_URL"))
	}
	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: expected a positive integer, got %q", key, v))
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: expected a positive duration, got %q", key, v))
		return def
	}
	return d
}

func (p *parser) list(key string) []string {
	var out []string
	for _, part := range strings.Split(p.getenv(key), ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

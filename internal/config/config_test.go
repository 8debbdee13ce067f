package config

import (
	"strings"
	"testing"
	"time"
)

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{"ENV": "development"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.ChatModel != "gpt-4o" || cfg.ClassifierModel != "gpt-4o-mini" {
		t.Errorf("unexpected models %q / %q", cfg.ChatModel, cfg.ClassifierModel)
	}
	if cfg.AgentTimeout != 30*time.Second {
		t.Errorf("agent timeout = %s", cfg.AgentTimeout)
	}
	if cfg.HistoryDefaultLimit != 50 {
		t.Errorf("history limit = %d", cfg.HistoryDefaultLimit)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("cors origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.JWTSecret == "" {
		t.Error("development should fall back to a local JWT secret")
	}
	if cfg.AgentConfigured() {
		t.Error("agent should not be configured without an API key")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"PORT":            "9000",
		"JWT_SECRET":      "s3cret",
		"AGENT_TIMEOUT":   "5s",
		"CRISIS_KEYWORDS": " sin salida ,, rendirme ",
		"OPENAI_API_KEY":  "sk-test",
		"MAX_BODY_BYTES":  "2048",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" || cfg.AgentTimeout != 5*time.Second || cfg.MaxBodyBytes != 2048 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if got := strings.Join(cfg.ExtraCrisisKeywords, "|"); got != "sin salida|rendirme" {
		t.Errorf("keywords = %q", got)
	}
	if !cfg.AgentConfigured() {
		t.Error("agent should be configured")
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret in production", map[string]string{}, "JWT_SECRET"},
		{"bad duration", map[string]string{"JWT_SECRET": "x", "AGENT_TIMEOUT": "soon"}, "AGENT_TIMEOUT"},
		{"bad integer", map[string]string{"JWT_SECRET": "x", "HISTORY_DEFAULT_LIMIT": "-3"}, "HISTORY_DEFAULT_LIMIT"},
		{"notify without database", map[string]string{"JWT_SECRET": "x", "CRISIS_NOTIFY_CHANNEL": "crisis"}, "DATABASE_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(lookup(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

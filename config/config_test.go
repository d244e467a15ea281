package config

import (
	"reflect"
	"testing"
	"time"
)

var envKeys = []string{
	"PORT", "APP_ENV", "LLM_PROVIDER", "GROQ_API_KEY", "GROQ_BASE_URL", "GROQ_MODEL",
	"GEMINI_API_KEY", "GEMINI_MODEL", "LLM_TIMEOUT", "TAVUS_API_KEY", "TAVUS_BASE_URL",
	"TAVUS_REPLICA_ID", "TAVUS_TIMEOUT", "ALLOWED_ORIGINS", "INTERNAL_API_KEY", "AUTH_JWT_SECRET",
	"RATE_LIMIT_INTRO", "RATE_LIMIT_CHAT", "RATE_LIMIT_VIDEO",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" || cfg.Production {
		t.Fatalf("port %q production %v", cfg.Port, cfg.Production)
	}
	if cfg.IntroLimit != DefaultIntroLimit || cfg.ChatLimit != DefaultChatLimit || cfg.VideoLimit != DefaultVideoLimit {
		t.Fatalf("limits %v %v %v", cfg.IntroLimit, cfg.ChatLimit, cfg.VideoLimit)
	}
	if cfg.VideoLimit != (RateLimit{Max: 2, Window: 5 * time.Minute}) {
		t.Fatalf("video limit %v", cfg.VideoLimit)
	}
	wantOrigins := []string{"https://vivatalk.netlify.app", "https://vivatalk.com", "http://localhost:3000"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, wantOrigins) {
		t.Fatalf("origins %v", cfg.AllowedOrigins)
	}
	if cfg.LLM.Timeout != 30*time.Second || cfg.LLM.GroqModel != "compound-beta" {
		t.Fatalf("llm %+v", cfg.LLM)
	}
}

func TestLoadProductionOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Production || len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("production %v origins %v", cfg.Production, cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", " key-1 ")
	t.Setenv("GROQ_API_KEY", "your_groq_api_key_here")
	t.Setenv("TAVUS_REPLICA_ID", "r-9")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_CHAT", "5/10s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Provider != "gemini" || cfg.LLM.GeminiAPIKey != "key-1" {
		t.Fatalf("llm %+v", cfg.LLM)
	}
	if cfg.LLM.GroqAPIKey != "" {
		t.Fatal("placeholder key must count as unset")
	}
	if cfg.Avatar.ReplicaID != "r-9" {
		t.Fatalf("replica %q", cfg.Avatar.ReplicaID)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("origins %v", cfg.AllowedOrigins)
	}
	if cfg.ChatLimit != (RateLimit{Max: 5, Window: 10 * time.Second}) {
		t.Fatalf("chat limit %v", cfg.ChatLimit)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	for key, value := range map[string]string{
		"LLM_PROVIDER":     "openai",
		"LLM_TIMEOUT":      "soon",
		"RATE_LIMIT_VIDEO": "two per hour",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%q accepted", key, value)
			}
		})
	}
}

func TestParseRateLimit(t *testing.T) {
	cases := map[string]RateLimit{
		"20/1m":    {Max: 20, Window: time.Minute},
		" 2 / 5m ": {Max: 2, Window: 5 * time.Minute},
		"100/1h":   {Max: 100, Window: time.Hour},
	}
	for in, want := range cases {
		got, err := ParseRateLimit(in)
		if err != nil || got != want {
			t.Errorf("ParseRateLimit(%q) = %v, %v", in, got, err)
		}
	}

	for _, in := range []string{"", "20", "0/1m", "-1/1m", "5/0s", "x/1m", "5/abc"} {
		if _, err := ParseRateLimit(in); err == nil {
			t.Errorf("ParseRateLimit(%q) accepted", in)
		}
	}
}

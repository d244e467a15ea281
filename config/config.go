package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port       string
	Production bool

	LLM    LLMConfig
	Avatar AvatarConfig

	AllowedOrigins []string
	InternalAPIKey string
	AuthJWTSecret  string

	IntroLimit RateLimit
	ChatLimit  RateLimit
	VideoLimit RateLimit
}

type LLMConfig struct {
	// Provider is "groq" or "gemini". Empty picks the first one with a key.
	Provider     string
	GroqAPIKey   string
	GroqBaseURL  string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string
	Timeout      time.Duration
}

type AvatarConfig struct {
	APIKey    string
	BaseURL   string
	ReplicaID string
	Timeout   time.Duration
}

// RateLimit is a fixed-window policy: Max requests per Window.
type RateLimit struct {
	Max    int
	Window time.Duration
}

func (r RateLimit) String() string {
	return fmt.Sprintf("%d/%s", r.Max, r.Window)
}

var (
	DefaultIntroLimit = RateLimit{Max: 20, Window: time.Minute}
	DefaultChatLimit  = RateLimit{Max: 30, Window: time.Minute}
	DefaultVideoLimit = RateLimit{Max: 2, Window: 5 * time.Minute}
)

var defaultOrigins = []string{
	"https://vivatalk.netlify.app",
	"https://vivatalk.com",
}

// placeholders are sample values shipped in env templates; they count as unset.
var placeholders = map[string]bool{
	"your_groq_api_key_here":                      true,
	"gsk_placeholder_key_replace_with_actual_key": true,
	"your_gemini_api_key_here":                    true,
	"your_tavus_api_key_here":                     true,
	"your_actual_tavus_api_key_here":              true,
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	production := getenv("APP_ENV", "development") == "production"

	cfg := Config{
		Port:       getenv("PORT", "8080"),
		Production: production,
		LLM: LLMConfig{
			Provider:     strings.ToLower(os.Getenv("LLM_PROVIDER")),
			GroqAPIKey:   secret("GROQ_API_KEY"),
			GroqBaseURL:  getenv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			GroqModel:    getenv("GROQ_MODEL", "compound-beta"),
			GeminiAPIKey: secret("GEMINI_API_KEY"),
			GeminiModel:  getenv("GEMINI_MODEL", "gemini-2.0-flash-001"),
		},
		Avatar: AvatarConfig{
			APIKey:    secret("TAVUS_API_KEY"),
			BaseURL:   getenv("TAVUS_BASE_URL", "https://tavusapi.com/v2"),
			ReplicaID: strings.TrimSpace(os.Getenv("TAVUS_REPLICA_ID")),
		},
		InternalAPIKey: os.Getenv("INTERNAL_API_KEY"),
		AuthJWTSecret:  os.Getenv("AUTH_JWT_SECRET"),
	}

	var err error
	if cfg.LLM.Timeout, err = duration("LLM_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Avatar.Timeout, err = duration("TAVUS_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	switch cfg.LLM.Provider {
	case "", "groq", "gemini":
	default:
		return Config{}, fmt.Errorf("LLM_PROVIDER: unsupported provider %q", cfg.LLM.Provider)
	}

	cfg.AllowedOrigins = ParseList(os.Getenv("ALLOWED_ORIGINS"))
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = append([]string{}, defaultOrigins...)
		if !production {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, "http://localhost:3000")
		}
	}

	if cfg.IntroLimit, err = rateLimit("RATE_LIMIT_INTRO", DefaultIntroLimit); err != nil {
		return Config{}, err
	}
	if cfg.ChatLimit, err = rateLimit("RATE_LIMIT_CHAT", DefaultChatLimit); err != nil {
		return Config{}, err
	}
	if cfg.VideoLimit, err = rateLimit("RATE_LIMIT_VIDEO", DefaultVideoLimit); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ParseList splits a comma separated list, dropping blanks.
func ParseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseRateLimit parses "<max>/<duration>", e.g. "2/5m".
func ParseRateLimit(s string) (RateLimit, error) {
	maxPart, windowPart, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return RateLimit{}, fmt.Errorf("rate limit %q: expected <max>/<duration>", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(maxPart))
	if err != nil || n <= 0 {
		return RateLimit{}, fmt.Errorf("rate limit %q: max must be a positive integer", s)
	}
	window, err := time.ParseDuration(strings.TrimSpace(windowPart))
	if err != nil || window <= 0 {
		return RateLimit{}, fmt.Errorf("rate limit %q: window must be a positive duration", s)
	}
	return RateLimit{Max: n, Window: window}, nil
}

func rateLimit(key string, fallback RateLimit) (RateLimit, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	rl, err := ParseRateLimit(v)
	if err != nil {
		return RateLimit{}, fmt.Errorf("%s: %w", key, err)
	}
	return rl, nil
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func secret(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if placeholders[v] {
		return ""
	}
	return v
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage and inference backends, session
// lifetimes, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "emergentiq-advisor")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SupabaseConfig identifies the Supabase project used when BACKEND or
// INFERENCE_PROVIDER is "supabase".
type SupabaseConfig struct {
	URL string // SUPABASE_URL
	Key string // SUPABASE_KEY (service role or anon key)
}

// InferenceConfig selects and tunes the LLM backend.
type InferenceConfig struct {
	Provider     string        // INFERENCE_PROVIDER: gemini|ollama|supabase
	Timeout      time.Duration // INFERENCE_TIMEOUT
	GeminiAPIKey string        // GEMINI_API_KEY
	GeminiModel  string        // GEMINI_MODEL
	OllamaURL    string        // OLLAMA_URL
	OllamaModel  string        // OLLAMA_MODEL
	Function     string        // INFERENCE_FUNCTION (Supabase edge function name)
}

// BreakerConfig tunes the circuit breaker around the inference backend.
type BreakerConfig struct {
	MaxRequests  uint32        // BREAKER_MAX_REQUESTS (half-open probes)
	Interval     time.Duration // BREAKER_INTERVAL (closed-state counter reset)
	Timeout      time.Duration // BREAKER_TIMEOUT (open -> half-open)
	FailureRatio float64       // BREAKER_FAILURE_RATIO in (0..1]
	MinRequests  uint32        // BREAKER_MIN_REQUESTS before the ratio applies
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage / auth
	Backend  string // BACKEND: sqlite|supabase
	DBPath   string // SQLite path
	Supabase SupabaseConfig

	// Inference
	Inference InferenceConfig
	Breaker   BreakerConfig

	// Advisor
	SessionIdleTTL time.Duration // live controller idle expiry
	OnboardingTTL  time.Duration // wizard idle expiry
	InterestCount  int           // interests generated per wizard
	MaxPromptRunes int           // max user message length in runes
	RequireAuth    bool          // reject requests without an identity

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// TrustedProxies lists proxy IPs/CIDRs whose X-Forwarded-For is honoured.
	// Empty means the client IP is the socket peer.
	TrustedProxies []string

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage / auth
		Backend: strings.ToLower(getenv("BACKEND", "sqlite")),
		DBPath:  getenv("DB_PATH", "advisor.db"),
		Supabase: SupabaseConfig{
			URL: strings.TrimRight(getenv("SUPABASE_URL", ""), "/"),
			Key: getenv("SUPABASE_KEY", ""),
		},

		// Inference
		Inference: InferenceConfig{
			Provider:     strings.ToLower(getenv("INFERENCE_PROVIDER", "ollama")),
			Timeout:      getdur("INFERENCE_TIMEOUT", 60*time.Second),
			GeminiAPIKey: getenv("GEMINI_API_KEY", ""),
			GeminiModel:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),
			OllamaURL:    strings.TrimRight(getenv("OLLAMA_URL", "http://localhost:11434"), "/"),
			OllamaModel:  getenv("OLLAMA_MODEL", "llama3.2"),
			Function:     getenv("INFERENCE_FUNCTION", "chat"),
		},
		Breaker: BreakerConfig{
			MaxRequests:  uint32(getint("BREAKER_MAX_REQUESTS", 1)),
			Interval:     getdur("BREAKER_INTERVAL", time.Minute),
			Timeout:      getdur("BREAKER_TIMEOUT", 30*time.Second),
			FailureRatio: getfloat("BREAKER_FAILURE_RATIO", 0.6),
			MinRequests:  uint32(getint("BREAKER_MIN_REQUESTS", 5)),
		},

		// Advisor
		SessionIdleTTL: getdur("SESSION_IDLE_TTL", 30*time.Minute),
		OnboardingTTL:  getdur("ONBOARDING_TTL", time.Hour),
		InterestCount:  getint("INTEREST_COUNT", 3000),
		MaxPromptRunes: getint("MAX_PROMPT_RUNES", 4000),
		RequireAuth:    getbool("REQUIRE_AUTH", false),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		TrustedProxies: splitCSV(getenv("TRUSTED_PROXIES", "")),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "emergentiq-advisor"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.Backend {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "supabase":
	default:
		return cfg, errors.New("BACKEND must be one of: sqlite, supabase")
	}
	switch cfg.Inference.Provider {
	case "gemini":
		if cfg.Inference.GeminiAPIKey == "" {
			return cfg, errors.New("GEMINI_API_KEY is required when INFERENCE_PROVIDER=gemini")
		}
	case "ollama":
		if cfg.Inference.OllamaURL == "" {
			return cfg, errors.New("OLLAMA_URL must not be empty")
		}
	case "supabase":
		if strings.TrimSpace(cfg.Inference.Function) == "" {
			return cfg, errors.New("INFERENCE_FUNCTION must not be empty")
		}
	default:
		return cfg, errors.New("INFERENCE_PROVIDER must be one of: gemini, ollama, supabase")
	}
	if (cfg.Backend == "supabase" || cfg.Inference.Provider == "supabase") && (cfg.Supabase.URL == "" || cfg.Supabase.Key == "") {
		return cfg, errors.New("SUPABASE_URL and SUPABASE_KEY are required for the supabase backend")
	}
	if cfg.Inference.Timeout <= 0 {
		return cfg, errors.New("INFERENCE_TIMEOUT must be > 0")
	}
	if cfg.Breaker.FailureRatio <= 0 || cfg.Breaker.FailureRatio > 1 {
		return cfg, errors.New("BREAKER_FAILURE_RATIO must be in (0,1]")
	}
	if cfg.Breaker.Timeout <= 0 || cfg.Breaker.Interval < 0 {
		return cfg, errors.New("BREAKER_TIMEOUT must be > 0 and BREAKER_INTERVAL >= 0")
	}
	if cfg.SessionIdleTTL <= 0 || cfg.OnboardingTTL <= 0 {
		return cfg, errors.New("SESSION_IDLE_TTL and ONBOARDING_TTL must be > 0")
	}
	if cfg.InterestCount < 1 || cfg.InterestCount > 100000 {
		return cfg, errors.New("INTEREST_COUNT must be between 1 and 100000")
	}
	if cfg.MaxPromptRunes < 1 {
		return cfg, errors.New("MAX_PROMPT_RUNES must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	for _, p := range cfg.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return cfg, fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", p)
			}
		}
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

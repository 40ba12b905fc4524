package main

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/auth"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/backend"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/config"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/http/handlers"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/inference"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/location"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/onboarding"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/repo"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/services"
)

// stores is everything the services persist through.
type stores interface {
	services.ChatStore
	services.SessionStore
	services.ProfileStore
	services.BookmarkStore
}

type app struct {
	handlers *handlers.Handlers
	verifier auth.Verifier
	close    func()
}

// build wires storage, inference and the services for cfg.
func build(ctx context.Context, cfg config.Config) (*app, error) {
	st, verifier, statsDB, err := newStores(cfg)
	if err != nil {
		return nil, err
	}
	llm, err := newInference(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mgr := services.NewSessionManager(st, st, services.ProfileUsers{Profiles: st}, llm, services.ManagerOptions{
		IdleTTL:        cfg.SessionIdleTTL,
		MaxPromptRunes: cfg.MaxPromptRunes,
	})
	catalog := location.NewCatalog()

	h := handlers.New(handlers.Deps{
		Sessions:       mgr,
		SessionSvc:     services.NewSessionService(st, mgr),
		Profiles:       services.NewProfileService(st),
		Bookmarks:      services.NewBookmarkService(st),
		Locations:      catalog,
		Onboarding:     onboarding.NewStore(catalog, cfg.OnboardingTTL, cfg.InterestCount),
		StatsDB:        statsDB,
		MaxPromptRunes: cfg.MaxPromptRunes,
	})
	return &app{handlers: h, verifier: verifier, close: mgr.CloseAll}, nil
}

// newStores opens the configured backend. Only sqlite exposes a *gorm.DB
// (session-list ETags); only supabase verifies bearer tokens.
func newStores(cfg config.Config) (stores, auth.Verifier, *gorm.DB, error) {
	switch cfg.Backend {
	case "sqlite":
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite %q: %w", cfg.DBPath, err)
		}
		if err := repo.AutoMigrate(db); err != nil {
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return repo.NewStore(db), nil, db, nil
	case "supabase":
		sb, err := backend.NewSupabase(cfg.Supabase.URL, cfg.Supabase.Key)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("supabase: %w", err)
		}
		return sb, sb, nil, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// newInference builds the configured provider behind a circuit breaker and
// the request metrics.
func newInference(ctx context.Context, cfg config.Config) (inference.Client, error) {
	var next inference.Client
	switch p := cfg.Inference.Provider; p {
	case "gemini":
		g, err := inference.NewGemini(ctx, cfg.Inference.GeminiAPIKey, cfg.Inference.GeminiModel)
		if err != nil {
			return nil, err
		}
		next = withTimeout(g, cfg.Inference)
	case "ollama":
		next = inference.NewOllama(cfg.Inference.OllamaURL, cfg.Inference.OllamaModel, cfg.Inference.Timeout)
	case "supabase":
		next = inference.NewEdgeFunction(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Inference.Function, cfg.Inference.Timeout)
	default:
		return nil, fmt.Errorf("unknown inference provider %q", p)
	}

	bc := inference.DefaultBreakerConfig(cfg.Inference.Provider)
	if b := cfg.Breaker; b.Timeout > 0 {
		bc.MaxRequests = b.MaxRequests
		bc.Interval = b.Interval
		bc.Timeout = b.Timeout
		bc.FailureThreshold = b.FailureRatio
		bc.MinRequests = b.MinRequests
	}
	return inference.Instrumented{
		Provider: cfg.Inference.Provider,
		Next:     inference.NewBreaker(next, bc),
	}, nil
}

// withTimeout bounds every call to c by cfg.Timeout.
func withTimeout(c inference.Client, cfg config.InferenceConfig) inference.Client {
	if cfg.Timeout <= 0 {
		return c
	}
	return inference.ClientFunc(func(ctx context.Context, req inference.Request) (*inference.Response, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		return c.Complete(ctx, req)
	})
}

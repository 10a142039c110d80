// Package app wires the simwatch subsystems into a running service.
//
// New builds the full object graph from a [config.Config]: incident store,
// chat provider (with optional fallback chain), the two agent loops, the
// pre-defined action catalog, and the transport surfaces. Shutdown tears
// everything down in reverse order.
//
// For testing, inject doubles via functional options (WithProvider,
// WithStore). When an option is not provided, New creates real
// implementations through the config registry.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jmallard/simwatch/internal/actions"
	"github.com/jmallard/simwatch/internal/agent"
	"github.com/jmallard/simwatch/internal/config"
	"github.com/jmallard/simwatch/internal/health"
	"github.com/jmallard/simwatch/internal/resilience"
	"github.com/jmallard/simwatch/internal/server"
	"github.com/jmallard/simwatch/internal/store"
	"github.com/jmallard/simwatch/internal/tools"
	"github.com/jmallard/simwatch/pkg/provider/llm"
)

// defaultSystemPrompt steers the model when the config does not provide one.
const defaultSystemPrompt = `You are an assistant for a disaster-response simulation exercise.
Answer questions about the simulated incident timeline using the queryDatabase tool.
Incidents have a domain (MEDICAL, FIRE, LOGISTICS, COMMUNICATION, STRUCTURAL),
a severity (CRITICAL, HIGH, MEDIUM, LOW), a timestamp, a location, and a description.
Be concise and factual. If the data does not answer the question, say so plainly.
All data is simulated; never treat it as a real emergency.`

// App owns all subsystem lifetimes.
type App struct {
	cfg *config.Config

	provider llm.Provider
	store    store.Store
	service  *server.Service
	handler  http.Handler
	health   *health.Handler

	// closers run in reverse order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for [New]. Use these to inject test doubles.
type Option func(*App)

// WithProvider injects a chat provider instead of creating one from config.
func WithProvider(p llm.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithStore injects an incident store instead of creating one from config.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// New builds the App from cfg. The registry resolves provider and store
// names to constructors; pass [config.DefaultRegistry] outside of tests.
func New(ctx context.Context, cfg *config.Config, registry *config.Registry, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config must not be nil")
	}
	if registry == nil {
		registry = config.DefaultRegistry()
	}

	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if err := a.initStore(ctx, registry); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}
	if err := a.initProvider(ctx, registry); err != nil {
		return nil, fmt.Errorf("app: init provider: %w", err)
	}
	if err := a.initService(); err != nil {
		return nil, fmt.Errorf("app: init service: %w", err)
	}

	handler, err := server.NewHandler(server.HandlerConfig{
		Service:        a.service,
		Health:         a.health,
		APIKey:         cfg.Server.APIKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("app: init handler: %w", err)
	}
	a.handler = handler

	return a, nil
}

// initStore resolves the incident store from config unless injected.
func (a *App) initStore(ctx context.Context, registry *config.Registry) error {
	if a.store == nil {
		st, err := registry.CreateStore(ctx, a.cfg.Store)
		if err != nil {
			return err
		}
		a.store = st
		slog.Info("incident store ready",
			slog.String("driver", a.cfg.Store.Driver),
			slog.String("scenario", a.cfg.Store.Scenario))
	}
	if c, ok := a.store.(interface{ Close() }); ok {
		a.closers = append(a.closers, func() error {
			c.Close()
			return nil
		})
	}
	return nil
}

// initProvider resolves the chat provider. With fallbacks configured, the
// primary and each fallback get their own circuit breaker and failover
// happens in config order.
func (a *App) initProvider(ctx context.Context, registry *config.Registry) error {
	if a.provider != nil {
		return nil
	}

	primary, err := registry.CreateLLM(ctx, a.cfg.LLM)
	if err != nil {
		return err
	}

	// A single provider still runs behind its own breaker.
	group := resilience.NewLLMFallback(primary, a.cfg.LLM.Provider, resilience.FallbackConfig{})
	for i, fc := range a.cfg.LLM.Fallbacks {
		fb, err := registry.CreateLLM(ctx, fc)
		if err != nil {
			return fmt.Errorf("fallback %d (%s): %w", i, fc.Provider, err)
		}
		group.AddFallback(fc.Provider, fb)
		slog.Info("registered fallback provider",
			slog.String("provider", fc.Provider),
			slog.String("model", fc.Model))
	}
	a.provider = group
	return nil
}

// initService builds the two agent loops, the action catalog, the shared
// service, and the health handler.
func (a *App) initService() error {
	queryTool, err := tools.NewQueryTool(a.store)
	if err != nil {
		return err
	}

	prompt := a.cfg.Agent.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	inference := llm.InferenceConfig{
		MaxTokens:   a.cfg.Agent.MaxTokens,
		Temperature: float64(a.cfg.Agent.Temperature),
		TopP:        float64(a.cfg.Agent.TopP),
	}

	// Interactive queries keep tool results small; pre-defined actions
	// summarise more data per call, so their loop gets a larger budget.
	interactive, err := agent.New(agent.Config{
		Provider:      a.provider,
		Tools:         []agent.Tool{queryTool},
		SystemPrompt:  prompt,
		Inference:     inference,
		MaxIterations: a.cfg.Agent.MaxIterations,
		ResultBudget:  a.cfg.Agent.ResultBudget,
	})
	if err != nil {
		return fmt.Errorf("interactive loop: %w", err)
	}
	actionLoop, err := agent.New(agent.Config{
		Provider:      a.provider,
		Tools:         []agent.Tool{queryTool},
		SystemPrompt:  prompt,
		Inference:     inference,
		MaxIterations: a.cfg.Agent.MaxIterations,
		ResultBudget:  actions.ResultBudget,
	})
	if err != nil {
		return fmt.Errorf("action loop: %w", err)
	}

	catalog, err := actions.New(actionLoop)
	if err != nil {
		return err
	}
	service, err := server.NewService(interactive, catalog, a.store)
	if err != nil {
		return err
	}
	a.service = service

	a.health = health.New(
		health.Checker{Name: "store", Check: a.store.Ping},
		health.Checker{Name: "provider", Check: a.checkProvider},
	)
	return nil
}

// checkProvider reports whether a chat provider is wired. Readiness does not
// issue a model call; a misconfigured provider surfaces on first query.
func (a *App) checkProvider(context.Context) error {
	if a.provider == nil {
		return fmt.Errorf("no chat provider configured")
	}
	return nil
}

// Handler returns the HTTP surface: /v1 routes, health probes, /metrics.
func (a *App) Handler() http.Handler { return a.handler }

// Service returns the transport-independent core, for the Lambda adapter.
func (a *App) Service() *server.Service { return a.service }

// Shutdown tears subsystems down in reverse-init order. If ctx expires
// before all closers finish, remaining closers are skipped.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", slog.Int("closers", len(a.closers)))
		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", slog.Int("remaining", i+1))
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("closer error", slog.Int("index", i), slog.String("error", err.Error()))
			}
		}
	})
	return shutdownErr
}

package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"study-proxy/api/internal/config"
	"study-proxy/api/internal/llm"
	"study-proxy/api/internal/llm/anthropic"
	"study-proxy/api/internal/llm/gemini"
	"study-proxy/api/internal/llm/openai"
	"study-proxy/api/internal/prompt"
	"study-proxy/api/internal/service"
	"study-proxy/api/internal/store"
)

// App holds everything both binaries share.
type App struct {
	Opts    *config.Opts
	Log     *logrus.Logger
	Engines *llm.Engines
	Service *service.Service
	DB      *sql.DB
	Repo    *store.GenerationRepo // nil without DATABASE_URL
}

// NewEngines registers every engine that has an API key.
func NewEngines(o *config.Opts) *llm.Engines {
	engs := llm.NewEngines(o.Engine)
	if o.SambaNovaAPIKey != "" {
		engs.Register(openai.New(config.SambaNova, o.SambaNovaAPIKey, o.SambaNovaBaseURL, o.SambaNovaModel).
			WithVisionModel(o.SambaNovaVision))
	}
	if o.OpenAIAPIKey != "" {
		engs.Register(openai.New(config.OpenAI, o.OpenAIAPIKey, "", o.OpenAIModel))
	}
	if o.GeminiAPIKey != "" {
		engs.Register(gemini.New(o.GeminiAPIKey, o.GeminiModel))
	}
	if o.AnthropicAPIKey != "" {
		engs.Register(anthropic.New(o.AnthropicAPIKey, o.AnthropicModel))
	}
	return engs
}

func Build(ctx context.Context, o *config.Opts, log *logrus.Logger) (*App, error) {
	a := &App{Opts: o, Log: log, Engines: NewEngines(o)}
	log.WithFields(logrus.Fields{"engines": a.Engines.Names(), "default": a.Engines.Default()}).Info("engines registered")

	prompts, err := prompt.New(o.PromptDir)
	if err != nil {
		return nil, err
	}

	var rec service.Recorder
	if o.DatabaseURL != "" {
		octx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := store.Open(octx, o.DatabaseURL)
		if err != nil {
			return nil, err
		}
		repo := store.NewGenerationRepo(db)
		if err := repo.EnsureSchema(octx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.DB, a.Repo, rec = db, repo, repo
		log.Info("generation log enabled")
	}

	a.Service = service.New(a.Engines, prompts, rec)
	return a, nil
}

// Ping is the /healthz store check, nil without a store.
func (a *App) Ping() func(context.Context) error {
	if a.Repo == nil {
		return nil
	}
	return a.Repo.Ping
}

// RunRetention purges old generations every interval until ctx is done.
func (a *App) RunRetention(ctx context.Context, interval time.Duration) {
	if a.Repo == nil || a.Opts.Retention <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		n, err := a.Repo.PurgeOlderThan(ctx, a.Opts.Retention)
		if err != nil {
			a.Log.WithError(err).Warn("purge generations")
		} else if n > 0 {
			a.Log.WithField("rows", n).Info("purged old generations")
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

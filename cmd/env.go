package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/nichelab/niche-cli/internal/llm"
	"github.com/nichelab/niche-cli/internal/pipeline"
	"github.com/nichelab/niche-cli/internal/store"
)

// runEnv holds the initialized store and pipeline shared by the run, batch,
// and serve commands.
type runEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *runEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "niche.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv sets up the store, provider registry, fallback chain, and pipeline.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*runEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	registry := llm.NewRegistryFromConfig(cfg)
	chain, err := llm.NewChainFromConfig(registry, cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &runEnv{
		Store:    st,
		Pipeline: pipeline.New(chain, cfg.LLM.StageModels),
	}, nil
}

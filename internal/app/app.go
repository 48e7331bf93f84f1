// Package app assembles the application: configuration, database,
// model runtime, stores, and the pipelines built on top of them.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/exposure"
	"github.com/sproutapp/sprout/internal/idea"
	"github.com/sproutapp/sprout/internal/match"
	"github.com/sproutapp/sprout/internal/recommend"
)

// App holds all initialized components. Construct with Setup, release
// with Close.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DBPool   *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Ideas     *idea.Store
	Exposures *exposure.Store
	Selector  *recommend.Selector
	Expander  *recommend.Expander
	Index     *match.Index
	Matcher   *match.Matcher

	otelCleanup func()
	dbCleanup   func()
}

// Close releases resources in reverse initialization order. Safe to
// call on a partially initialized App.
func (a *App) Close() error {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
		a.otelCleanup = nil
	}
	return nil
}

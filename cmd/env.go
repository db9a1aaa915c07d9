package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/claimguru/extract-cli/internal/cost"
	"github.com/claimguru/extract-cli/internal/extract"
	"github.com/claimguru/extract-cli/internal/fields"
	"github.com/claimguru/extract-cli/internal/intake"
	"github.com/claimguru/extract-cli/internal/model"
	"github.com/claimguru/extract-cli/internal/ocr"
	"github.com/claimguru/extract-cli/internal/pipeline"
	"github.com/claimguru/extract-cli/internal/store"
	"github.com/claimguru/extract-cli/internal/textlayer"
)

// pipelineEnv holds the initialized store, intake gate, and orchestrator
// shared by the extract/serve/usage/cache commands.
type pipelineEnv struct {
	Store        store.Store
	Gate         *intake.Gate
	Orchestrator *pipeline.Orchestrator
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline sets up the store, cost calculator, field engine, and all
// extraction strategies, then builds the orchestrator. Callers should
// defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	rates := cost.DefaultRates()
	if cfg.Extraction.RateCardPath != "" {
		rates, err = cost.LoadRates(cfg.Extraction.RateCardPath)
		if err != nil {
			zap.L().Warn("rate card not loaded, using default rates", zap.Error(err))
			rates = cost.DefaultRates()
		}
	}
	calc := cost.NewCalculator(rates)
	engine := fields.NewEngine()

	textractAdapter, err := ocr.NewAdapter(model.MethodTextract, cfg.Textract, cfg.Extraction.ProviderMaxAttempts, calc, engine)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	visionAdapter, err := ocr.NewAdapter(model.MethodVision, cfg.Vision, cfg.Extraction.ProviderMaxAttempts, calc, engine)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	orch := pipeline.NewOrchestrator(st, textlayer.New(engine),
		map[model.Method]extract.Extractor{
			model.MethodTextract: textractAdapter,
			model.MethodVision:   visionAdapter,
		},
		pipeline.Options{
			HybridConfidence: cfg.Extraction.HybridConfidence,
			HybridMinFields:  cfg.Extraction.HybridMinFields,
		},
	)

	return &pipelineEnv{
		Store:        st,
		Gate:         intake.New(cfg.Extraction.MaxUploadBytes),
		Orchestrator: orch,
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "extract.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// Package pipeline implements the ETL stages: order valuation, geo
// enrichment, store-candidate ranking, product-pair analysis, and monthly
// margin aggregation, plus the sequential orchestrator that runs them.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sales-etl/internal/config"
	"github.com/sells-group/sales-etl/internal/ingest"
	"github.com/sells-group/sales-etl/internal/model"
	"github.com/sells-group/sales-etl/internal/reference"
	"github.com/sells-group/sales-etl/internal/store"
)

// Pipeline runs the full batch ETL: each stage fully materializes its output
// before the next begins, and every derived table is recomputed from scratch
// on every run.
type Pipeline struct {
	cfg    *config.Config
	store  store.Store
	loader *reference.Loader
}

// New creates a Pipeline.
func New(cfg *config.Config, st store.Store, loader *reference.Loader) *Pipeline {
	return &Pipeline{cfg: cfg, store: st, loader: loader}
}

// Run executes the pipeline end to end and returns the run manifest. On any
// stage failure the run record is marked failed, no manifest is written, and
// output files from the failed run must not be treated as valid.
func (p *Pipeline) Run(ctx context.Context) (*model.Manifest, error) {
	log := zap.L()
	started := time.Now().UTC()

	run, err := p.store.CreateRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log.Info("pipeline: run started", zap.String("run_id", run.ID))

	manifest := &model.Manifest{
		RunID:     run.ID,
		StartedAt: started,
		Outputs:   make(map[string]int),
		StageMS:   make(map[string]int64),
	}

	fail := func(stage string, err error) (*model.Manifest, error) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed); statusErr != nil {
			log.Warn("pipeline: failed to mark run failed", zap.Error(statusErr))
		}
		return nil, eris.Wrapf(err, "pipeline: stage %s", stage)
	}

	// Stage: reference. Required for geo enrichment; any country failing
	// aborts the run.
	var refs []model.PostalReference
	err = p.trackStage(ctx, run.ID, "reference", manifest, func() (int64, error) {
		loaded, loadErr := p.loader.Load(ctx, p.cfg.Reference.Countries)
		refs = loaded
		return int64(len(refs)), loadErr
	})
	if err != nil {
		return fail("reference", err)
	}

	// Stage: ingest. Cleaned copies are persisted as a side effect.
	var res *ingest.Result
	err = p.trackStage(ctx, run.ID, "ingest", manifest, func() (int64, error) {
		loaded, loadErr := ingest.Load(p.cfg.ETL.OrdersPath, p.cfg.ETL.ItemsPath)
		if loadErr != nil {
			return 0, loadErr
		}
		res = loaded
		if err := res.WriteCleaned(p.cfg.ETL.OutputDir); err != nil {
			return 0, err
		}
		return int64(len(res.Orders) + len(res.Items)), nil
	})
	if err != nil {
		return fail("ingest", err)
	}
	manifest.Outputs[FileOrdersCleaned] = len(res.Orders)
	manifest.Outputs[FileItemsCleaned] = len(res.Items)

	// Stage: valuation.
	var orders []model.Order
	err = p.trackStage(ctx, run.ID, "valuation", manifest, func() (int64, error) {
		orders = AttachOrderValues(res.Orders, res.Items)
		return int64(len(orders)), nil
	})
	if err != nil {
		return fail("valuation", err)
	}

	// Stage: enrich.
	err = p.trackStage(ctx, run.ID, "enrich", manifest, func() (int64, error) {
		orders = EnrichOrders(orders, reference.Index(refs))
		if err := WriteEnrichedOrders(p.cfg.ETL.OutputDir, res.OrdersTable, orders); err != nil {
			return 0, err
		}
		return int64(len(orders)), nil
	})
	if err != nil {
		return fail("enrich", err)
	}
	manifest.Outputs[FileOrdersEnriched] = len(orders)

	// The three analyses are independent consumers of the enriched orders
	// and cleaned items.
	var cities []model.CityAggregate
	err = p.trackStage(ctx, run.ID, "candidates", manifest, func() (int64, error) {
		cities = TopStoreCandidates(orders)
		if err := WriteCityRecommendations(p.cfg.ETL.OutputDir, cities); err != nil {
			return 0, err
		}
		return int64(len(cities)), nil
	})
	if err != nil {
		return fail("candidates", err)
	}
	manifest.Outputs[FileTopCities] = len(cities)

	var pairs []model.ProductPair
	err = p.trackStage(ctx, run.ID, "pairs", manifest, func() (int64, error) {
		pairs = TopProductPairs(orders, res.Items)
		if err := WriteProductPairs(p.cfg.ETL.OutputDir, pairs); err != nil {
			return 0, err
		}
		return int64(len(pairs)), nil
	})
	if err != nil {
		return fail("pairs", err)
	}
	manifest.Outputs[FileTopPairs] = len(pairs)

	var margins []model.MonthlyMargin
	err = p.trackStage(ctx, run.ID, "margins", manifest, func() (int64, error) {
		computed, marginErr := MonthlyProductMargins(orders, res.Items)
		if marginErr != nil {
			return 0, marginErr
		}
		margins = computed
		if err := WriteMonthlyMargins(p.cfg.ETL.OutputDir, margins); err != nil {
			return 0, err
		}
		return int64(len(margins)), nil
	})
	if err != nil {
		return fail("margins", err)
	}
	manifest.Outputs[FileMonthlyMargin] = len(margins)

	manifest.Status = model.RunStatusCompleted
	manifest.FinishedAt = time.Now().UTC()
	if err := WriteManifest(p.cfg.ETL.OutputDir, *manifest); err != nil {
		return fail("manifest", err)
	}
	if err := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusCompleted); err != nil {
		log.Warn("pipeline: failed to mark run completed", zap.Error(err))
	}

	log.Info("pipeline: run completed",
		zap.String("run_id", run.ID),
		zap.Duration("elapsed", manifest.FinishedAt.Sub(started)),
	)
	return manifest, nil
}

// trackStage records a stage in the audit store around fn and logs its
// outcome. fn returns the row count it produced.
func (p *Pipeline) trackStage(ctx context.Context, runID, name string, manifest *model.Manifest, fn func() (int64, error)) error {
	log := zap.L().With(zap.String("run_id", runID), zap.String("stage", name))

	stage, err := p.store.CreateStage(ctx, runID, name)
	if err != nil {
		log.Warn("pipeline: failed to create stage record", zap.Error(err))
	}

	start := time.Now()
	rows, fnErr := fn()
	elapsed := time.Since(start)
	manifest.StageMS[name] = elapsed.Milliseconds()

	status := model.StageStatusCompleted
	errMsg := ""
	if fnErr != nil {
		status = model.StageStatusFailed
		errMsg = fnErr.Error()
	}
	if stage != nil {
		if err := p.store.CompleteStage(ctx, stage.ID, status, rows, errMsg); err != nil {
			log.Warn("pipeline: failed to complete stage record", zap.Error(err))
		}
	}

	if fnErr != nil {
		log.Error("pipeline: stage failed", zap.Duration("elapsed", elapsed), zap.Error(fnErr))
		return fnErr
	}
	log.Info("pipeline: stage completed", zap.Duration("elapsed", elapsed), zap.Int64("rows", rows))
	return nil
}

// EnsureOutputDir creates the output directory if needed.
func EnsureOutputDir(dir string) error {
	return eris.Wrap(os.MkdirAll(dir, 0o755), "pipeline: create output dir")
}

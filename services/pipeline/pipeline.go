package pipeline

import (
	// Go Internal Packages
	"context"
	"strings"
	"sync"
	"time"

	// Local Packages
	errors "card-pipeline/errors"
	models "card-pipeline/models"
	crawler "card-pipeline/services/crawler"
	transform "card-pipeline/services/transform"

	// External Packages
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Crawler interface {
	Crawl(ctx context.Context, target crawler.Target) (models.CatalogTable, error)
}

type Job interface {
	Name() string
	Run(ctx context.Context, runID string) (transform.Result, error)
}

type RunStore interface {
	SaveRun(ctx context.Context, run models.PipelineRun) error
}

// Targets are the crawled prefixes of the three storage layers.
type Targets struct {
	Raw   crawler.Target
	Stage crawler.Target
	Spec  crawler.Target
}

type step struct {
	state models.PipelineState
	run   func(ctx context.Context, runID string) error
}

// Pipeline chains crawl and transform stages. One run executes at a time; notifications
// received while a run is active collapse into a single follow-up run.
type Pipeline struct {
	crawler       Crawler
	runs          RunStore
	triggerPrefix string
	logger        *zap.Logger
	steps         []step

	trigger chan struct{}
	mu      sync.Mutex
	lastKey string

	now   func() time.Time
	newID func() string
}

func New(c Crawler, stageJob, specJob Job, runs RunStore, targets Targets, triggerPrefix string, logger *zap.Logger) *Pipeline {
	p := &Pipeline{
		crawler:       c,
		runs:          runs,
		triggerPrefix: triggerPrefix,
		logger:        logger,
		trigger:       make(chan struct{}, 1),
		now:           time.Now,
		newID:         func() string { return uuid.NewString() },
	}
	p.steps = []step{
		{models.StateCrawlRaw, p.crawl(targets.Raw)},
		{models.StateTransformStage, p.transform(stageJob)},
		{models.StateCrawlStage, p.crawl(targets.Stage)},
		{models.StateTransformSpec, p.transform(specJob)},
		{models.StateCrawlSpec, p.crawl(targets.Spec)},
	}
	return p
}

// Notify accepts an object-created notification. It never blocks.
func (p *Pipeline) Notify(_ context.Context, event models.ObjectCreated) {
	if !strings.HasPrefix(event.Key, p.triggerPrefix) {
		p.logger.Debug("ignoring notification outside trigger prefix", zap.String("key", event.Key))
		return
	}
	p.mu.Lock()
	p.lastKey = event.Key
	p.mu.Unlock()

	select {
	case p.trigger <- struct{}{}:
	default:
		p.logger.Debug("run already pending, coalescing notification", zap.String("key", event.Key))
	}
}

// Run waits for triggers and executes runs one after another until ctx is canceled.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.trigger:
			p.mu.Lock()
			key := p.lastKey
			p.mu.Unlock()
			_, _ = p.Execute(ctx, key)
		}
	}
}

// Execute runs every stage in order and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, triggerKey string) (models.PipelineRun, error) {
	run := models.PipelineRun{
		ID:         p.newID(),
		TriggerKey: triggerKey,
		StartedAt:  p.now().UTC(),
	}
	logger := p.logger.With(zap.String("run_id", run.ID), zap.String("trigger", triggerKey))
	p.transition(ctx, logger, &run, models.StateWaitForObjectCreated)

	for _, s := range p.steps {
		p.transition(ctx, logger, &run, s.state)
		if err := s.run(ctx, run.ID); err != nil {
			err = errors.StageFailedErr(run.ID, string(s.state), err)
			run.Error = err.Error()
			run.FinishedAt = p.now().UTC()
			p.transition(ctx, logger, &run, models.StateFailed)
			logger.Error("pipeline run failed", zap.Error(err))
			return run, err
		}
	}

	run.FinishedAt = p.now().UTC()
	p.transition(ctx, logger, &run, models.StateDone)
	logger.Info("pipeline run finished", zap.Duration("took", run.FinishedAt.Sub(run.StartedAt)))
	return run, nil
}

func (p *Pipeline) transition(ctx context.Context, logger *zap.Logger, run *models.PipelineRun, state models.PipelineState) {
	run.State = state
	run.Transitions = append(run.Transitions, models.StateTransition{State: state, At: p.now().UTC()})
	logger.Info("pipeline state", zap.String("state", string(state)))

	// run history is best effort, the data layers are the source of truth
	saved := *run
	saved.Transitions = append([]models.StateTransition(nil), run.Transitions...)
	if err := p.runs.SaveRun(context.WithoutCancel(ctx), saved); err != nil {
		logger.Warn("failed to save pipeline run", zap.String("state", string(state)), zap.Error(err))
	}
}

func (p *Pipeline) crawl(target crawler.Target) func(context.Context, string) error {
	return func(ctx context.Context, _ string) error {
		_, err := p.crawler.Crawl(ctx, target)
		return err
	}
}

func (p *Pipeline) transform(job Job) func(context.Context, string) error {
	return func(ctx context.Context, runID string) error {
		_, err := job.Run(ctx, runID)
		return err
	}
}

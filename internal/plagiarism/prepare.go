package plagiarism

import (
	"context"
	"fmt"
	"math"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/rs/zerolog/log"
)

// CodeLoader resolves a submission location to extracted code. It must
// fail soft and return "" for unreadable documents.
type CodeLoader interface {
	Code(ctx context.Context, location string) string
}

// preparedSubmission carries a job result back with its batch position
type preparedSubmission struct {
	index      int
	submission *Submission
}

// PrepareJob extracts and normalizes a single submission
type PrepareJob struct {
	Index      int
	Ref        models.SubmissionRef
	Loader     CodeLoader
	Normalizer *Normalizer
	ResultChan chan<- preparedSubmission
}

// Execute executes the preparation job
func (j *PrepareJob) Execute(ctx context.Context) error {
	sub := prepareOne(ctx, j.Ref, j.Loader, j.Normalizer)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.ResultChan <- preparedSubmission{index: j.Index, submission: sub}:
		return nil
	}
}

func prepareOne(ctx context.Context, ref models.SubmissionRef, loader CodeLoader, normalizer *Normalizer) *Submission {
	raw := loader.Code(ctx, ref.Location)
	normalized := normalizer.Normalize(raw)

	sub := &Submission{
		Ref:            ref,
		RawCode:        raw,
		NormalizedCode: normalized,
	}
	if normalized != "" {
		sub.ContentHash = ContentHash(normalized)
	}
	return sub
}

// Prepare extracts and normalizes every submission, fanning out over pool
// when one is given. The result keeps the order of refs. Cancelling ctx
// aborts the whole batch.
func Prepare(
	ctx context.Context,
	pool *WorkerPool,
	loader CodeLoader,
	normalizer *Normalizer,
	refs []models.SubmissionRef,
) ([]*Submission, error) {
	subs := make([]*Submission, len(refs))

	if pool == nil {
		for i, ref := range refs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			subs[i] = prepareOne(ctx, ref, loader, normalizer)
		}
		return subs, nil
	}

	resultChan := make(chan preparedSubmission, len(refs))

	for i, ref := range refs {
		job := &PrepareJob{
			Index:      i,
			Ref:        ref,
			Loader:     loader,
			Normalizer: normalizer,
			ResultChan: resultChan,
		}
		if err := pool.Submit(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to submit preparation job: %w", err)
		}
	}

	for received := 0; received < len(refs); received++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-resultChan:
			subs[result.index] = result.submission
		}
	}

	return subs, nil
}

// Detector runs the full pipeline: extraction, normalization, batch
// similarity and ranking.
type Detector struct {
	loader     CodeLoader
	normalizer *Normalizer
	engine     *Engine
	pool       *WorkerPool
	progress   func(ctx context.Context, step models.Step)
}

type DetectorOption func(*Detector)

// WithPool parallelises extraction and normalization across pool
func WithPool(pool *WorkerPool) DetectorOption {
	return func(d *Detector) { d.pool = pool }
}

// WithProgress registers a callback for pipeline steps
func WithProgress(fn func(ctx context.Context, step models.Step)) DetectorOption {
	return func(d *Detector) { d.progress = fn }
}

func NewDetector(loader CodeLoader, normalizer *Normalizer, engine *Engine, opts ...DetectorOption) *Detector {
	d := &Detector{
		loader:     loader,
		normalizer: normalizer,
		engine:     engine,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect analyses refs as one batch. Zero refs is an error; fewer than two
// usable submissions is an empty report.
func (d *Detector) Detect(ctx context.Context, refs []models.SubmissionRef, threshold float64) (*Report, error) {
	if len(refs) == 0 {
		return nil, ErrNoSubmissions
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	d.step(ctx, models.StepExtracting)
	subs, err := Prepare(ctx, d.pool, d.loader, d.normalizer, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare submissions: %w", err)
	}

	empty := 0
	for _, s := range subs {
		if s.NormalizedCode == "" {
			empty++
		}
	}
	if empty > 0 {
		log.Warn().Int("empty", empty).Int("total", len(subs)).Msg("Submissions without code excluded from batch")
	}

	d.step(ctx, models.StepVectorizing)
	return d.engine.Analyze(subs, threshold), nil
}

func (d *Detector) step(ctx context.Context, step models.Step) {
	if d.progress != nil {
		d.progress(ctx, step)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/RishiKendai/plagiarism-control/internal/metrics"
	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/RishiKendai/plagiarism-control/internal/plagiarism"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Detector is the batch pipeline the analysis service drives
type Detector interface {
	Detect(ctx context.Context, refs []models.SubmissionRef, threshold float64) (*plagiarism.Report, error)
}

type AnalysisConfig struct {
	DefaultThreshold float64
	Timeout          time.Duration
	MaxConcurrent    int
}

type AnalysisService struct {
	files    FileStore
	runs     RunStore
	status   StatusRecorder
	detector Detector
	cfg      AnalysisConfig
	sem      chan struct{}
}

func NewAnalysisService(files FileStore, runs RunStore, status StatusRecorder, detector Detector, cfg AnalysisConfig) *AnalysisService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &AnalysisService{
		files:    files,
		runs:     runs,
		status:   status,
		detector: detector,
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Analyze runs one batch over every stored notebook and persists the run.
// A nil threshold falls back to the configured default.
func (s *AnalysisService) Analyze(ctx context.Context, threshold *float64) (*models.AnalysisRun, error) {
	th := s.cfg.DefaultThreshold
	if threshold != nil {
		th = *threshold
	}
	if math.IsNaN(th) || th < 0 || th > 1 {
		return nil, plagiarism.ErrInvalidThreshold
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	// detect takes over the slot once it starts the detector
	handedOff := false
	defer func() {
		if !handedOff {
			<-s.sem
		}
	}()

	files, err := s.files.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) < 2 {
		return nil, ErrNotEnoughFiles
	}

	refs := make([]models.SubmissionRef, len(files))
	for i, f := range files {
		refs[i] = f.Ref()
	}

	s.setStatus(ctx, models.StepInitiated)
	start := time.Now()

	handedOff = true
	report, err := s.detect(ctx, refs, th)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalysisCount.WithLabelValues("failed").Inc()
		s.setStatus(context.WithoutCancel(ctx), models.StepFailed)
		return nil, err
	}

	run := &models.AnalysisRun{
		ID:                uuid.New().String(),
		AnalysisTimestamp: time.Now().UTC(),
		Threshold:         th,
		Results:           report.Results,
		Students:          report.Students,
		TotalFiles:        report.TotalFiles,
		TotalMatches:      report.TotalMatches,
	}

	if err := s.runs.InsertRun(ctx, run); err != nil {
		metrics.AnalysisCount.WithLabelValues("failed").Inc()
		s.setStatus(context.WithoutCancel(ctx), models.StepFailed)
		return nil, err
	}

	metrics.AnalysisCount.WithLabelValues("completed").Inc()
	metrics.PairsReported.Add(float64(run.TotalMatches))
	s.setStatus(ctx, models.StepCompleted)

	log.Info().
		Str("runId", run.ID).
		Int("files", run.TotalFiles).
		Int("pairs", run.TotalMatches).
		Dur("took", time.Since(start)).
		Msg("Analysis run stored")

	return run, nil
}

// detect bounds the batch by the configured timeout. On expiry the whole
// batch is abandoned, no partial result is kept. The caller's semaphore slot
// is released only when the detector returns, so an abandoned batch still
// counts against MaxConcurrent while it winds down.
func (s *AnalysisService) detect(ctx context.Context, refs []models.SubmissionRef, threshold float64) (*plagiarism.Report, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	type outcome struct {
		report *plagiarism.Report
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() { <-s.sem }()
		report, err := s.detector.Detect(ctx, refs, threshold)
		done <- outcome{report: report, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Error().Dur("timeout", s.cfg.Timeout).Int("files", len(refs)).Msg("Analysis timed out")
			return nil, ErrAnalysisTimeout
		}
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) {
				return nil, ErrAnalysisTimeout
			}
			return nil, fmt.Errorf("analysis failed: %w", out.err)
		}
		return out.report, nil
	}
}

func (s *AnalysisService) setStatus(ctx context.Context, step models.Step) {
	if err := s.status.Update(ctx, step); err != nil {
		log.Warn().Err(err).Str("step", string(step)).Msg("Failed to record analysis status")
	}
}

func (s *AnalysisService) Status(ctx context.Context) (models.Step, error) {
	return s.status.Get(ctx)
}

// Latest returns the most recent run, or an empty run when none exists
func (s *AnalysisService) Latest(ctx context.Context) (*models.AnalysisRun, error) {
	run, err := s.runs.GetLatestRun(ctx)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return &models.AnalysisRun{
			Results:  []models.PairResult{},
			Students: []models.StudentSummary{},
		}, nil
	}
	return run, nil
}

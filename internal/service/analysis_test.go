package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/RishiKendai/plagiarism-control/internal/notebook"
	"github.com/RishiKendai/plagiarism-control/internal/plagiarism"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analysisFixture struct {
	uploads  *UploadService
	analysis *AnalysisService
	runs     *memRuns
	status   *memStatus
}

func newAnalysisFixture(t *testing.T) *analysisFixture {
	t.Helper()

	files := newMemFiles()
	store := newLocalStore(t)
	status := &memStatus{}
	runs := &memRuns{}

	detector := plagiarism.NewDetector(
		notebook.NewExtractor(store),
		plagiarism.NewNormalizer(plagiarism.PythonLexicon(), true),
		plagiarism.NewEngine(plagiarism.DefaultOptions()),
		plagiarism.WithProgress(func(ctx context.Context, step models.Step) {
			_ = status.Update(ctx, step)
		}),
	)

	return &analysisFixture{
		uploads: NewUploadService(files, store, 10),
		analysis: NewAnalysisService(files, runs, status, detector, AnalysisConfig{
			DefaultThreshold: 0.5,
			Timeout:          time.Minute,
			MaxConcurrent:    1,
		}),
		runs:   runs,
		status: status,
	}
}

func TestAnalyze_FullRun(t *testing.T) {
	t.Parallel()

	f := newAnalysisFixture(t)
	ctx := context.Background()

	for _, in := range []UploadInput{
		upload("Lab 1 - ann.ipynb", notebookJSON(t, "x = 1", "y = x + 2")),
		upload("Lab 1 - ben.ipynb", notebookJSON(t, "# copied\na = 1", "b = a + 2")),
		upload("Lab 1 - cat.ipynb", notebookJSON(t, "print(len(range(10)))")),
	} {
		_, err := f.uploads.Upload(ctx, in)
		require.NoError(t, err)
	}

	run, err := f.analysis.Analyze(ctx, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 0.5, run.Threshold)
	assert.Equal(t, 3, run.TotalFiles)
	assert.Equal(t, 1, run.TotalMatches)
	require.Len(t, run.Results, 1)
	assert.Equal(t, "Ann", run.Results[0].StudentA)
	assert.Equal(t, "Ben", run.Results[0].StudentB)
	assert.Equal(t, 100.0, run.Results[0].Similarity)
	assert.Len(t, run.Students, 3)

	assert.Equal(t, []models.Step{
		models.StepInitiated,
		models.StepExtracting,
		models.StepVectorizing,
		models.StepCompleted,
	}, f.status.recorded())

	latest, err := f.analysis.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)

	step, err := f.analysis.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, step)
}

func TestAnalyze_Rejects(t *testing.T) {
	t.Parallel()

	f := newAnalysisFixture(t)
	ctx := context.Background()

	_, err := f.analysis.Analyze(ctx, nil)
	assert.ErrorIs(t, err, ErrNotEnoughFiles)

	_, err = f.uploads.Upload(ctx, upload("a.ipynb", notebookJSON(t, "x = 1")))
	require.NoError(t, err)
	_, err = f.analysis.Analyze(ctx, nil)
	assert.ErrorIs(t, err, ErrNotEnoughFiles)

	bad := 1.5
	_, err = f.analysis.Analyze(ctx, &bad)
	assert.ErrorIs(t, err, plagiarism.ErrInvalidThreshold)

	assert.Empty(t, f.runs.runs)
}

func TestAnalyze_ExplicitThreshold(t *testing.T) {
	t.Parallel()

	f := newAnalysisFixture(t)
	ctx := context.Background()

	for _, in := range []UploadInput{
		upload("a.ipynb", notebookJSON(t, "import numpy as np\nvalues = np.array(data)\nprint(values.mean())")),
		upload("b.ipynb", notebookJSON(t, "import numpy as np\nvalues = np.array(data)\nprint(values.mean())\nprint(len(values))")),
	} {
		_, err := f.uploads.Upload(ctx, in)
		require.NoError(t, err)
	}

	zero := 0.0
	run, err := f.analysis.Analyze(ctx, &zero)
	require.NoError(t, err)
	assert.Equal(t, 0.0, run.Threshold)
	require.Len(t, run.Results, 1)

	one := 1.0
	run, err = f.analysis.Analyze(ctx, &one)
	require.NoError(t, err)
	assert.Empty(t, run.Results)
}

type blockingDetector struct{}

func (blockingDetector) Detect(ctx context.Context, _ []models.SubmissionRef, _ float64) (*plagiarism.Report, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAnalyze_TimeoutAbortsBatch(t *testing.T) {
	t.Parallel()

	files := newMemFiles()
	store := newLocalStore(t)
	uploads := NewUploadService(files, store, 10)
	ctx := context.Background()

	for _, name := range []string{"a.ipynb", "b.ipynb"} {
		_, err := uploads.Upload(ctx, upload(name, notebookJSON(t, "x = 1")))
		require.NoError(t, err)
	}

	status := &memStatus{}
	runs := &memRuns{}
	svc := NewAnalysisService(files, runs, status, blockingDetector{}, AnalysisConfig{
		DefaultThreshold: 0.5,
		Timeout:          20 * time.Millisecond,
		MaxConcurrent:    1,
	})

	_, err := svc.Analyze(ctx, nil)
	assert.ErrorIs(t, err, ErrAnalysisTimeout)
	assert.Empty(t, runs.runs)
	assert.Equal(t, []models.Step{models.StepInitiated, models.StepFailed}, status.recorded())
}

// slowDetector ignores cancellation and records how many runs overlap
type slowDetector struct {
	delay   time.Duration
	running atomic.Int32
	peak    atomic.Int32
}

func (d *slowDetector) Detect(context.Context, []models.SubmissionRef, float64) (*plagiarism.Report, error) {
	n := d.running.Add(1)
	defer d.running.Add(-1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(d.delay)
	return &plagiarism.Report{}, nil
}

func TestAnalyze_TimedOutBatchKeepsSlot(t *testing.T) {
	t.Parallel()

	files := newMemFiles()
	store := newLocalStore(t)
	uploads := NewUploadService(files, store, 10)
	ctx := context.Background()

	for _, name := range []string{"a.ipynb", "b.ipynb"} {
		_, err := uploads.Upload(ctx, upload(name, notebookJSON(t, "x = 1")))
		require.NoError(t, err)
	}

	detector := &slowDetector{delay: 100 * time.Millisecond}
	svc := NewAnalysisService(files, &memRuns{}, &memStatus{}, detector, AnalysisConfig{
		DefaultThreshold: 0.5,
		Timeout:          20 * time.Millisecond,
		MaxConcurrent:    1,
	})

	for i := 0; i < 4; i++ {
		_, err := svc.Analyze(ctx, nil)
		assert.ErrorIs(t, err, ErrAnalysisTimeout)
	}
	assert.Equal(t, int32(1), detector.peak.Load())
}

func TestLatest_EmptyShape(t *testing.T) {
	t.Parallel()

	f := newAnalysisFixture(t)

	run, err := f.analysis.Latest(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, run.Results)
	assert.NotNil(t, run.Students)
	assert.Empty(t, run.Results)
}

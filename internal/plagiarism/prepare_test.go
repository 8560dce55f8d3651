package plagiarism

import (
	"context"
	"sync"
	"testing"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLoader map[string]string

func (m mapLoader) Code(_ context.Context, location string) string {
	return m[location]
}

func refs(locations ...string) []models.SubmissionRef {
	out := make([]models.SubmissionRef, len(locations))
	for i, loc := range locations {
		out[i] = models.SubmissionRef{
			FileID:      loc,
			StudentName: "student " + loc,
			StudentID:   loc,
			Location:    loc,
			UploadOrder: i + 1,
		}
	}
	return out
}

func TestPrepare_Sequential(t *testing.T) {
	t.Parallel()

	loader := mapLoader{"a": "x = 1  # one", "b": ""}
	n := NewNormalizer(PythonLexicon(), true)

	subs, err := Prepare(context.Background(), nil, loader, n, refs("a", "b"))
	require.NoError(t, err)
	require.Len(t, subs, 2)

	assert.Equal(t, "x = 1  # one", subs[0].RawCode)
	assert.Equal(t, "var0 = 1", subs[0].NormalizedCode)
	assert.Equal(t, ContentHash("var0 = 1"), subs[0].ContentHash)
	assert.Equal(t, "", subs[1].NormalizedCode)
	assert.Equal(t, "", subs[1].ContentHash)
}

func TestPrepare_PoolKeepsOrder(t *testing.T) {
	t.Parallel()

	loader := mapLoader{}
	var locations []string
	for i := 0; i < 40; i++ {
		loc := string(rune('a'+i%26)) + string(rune('0'+i/26))
		loader[loc] = "value = " + loc
		locations = append(locations, loc)
	}

	pool := NewWorkerPool(context.Background(), 4)
	defer pool.Close()

	subs, err := Prepare(context.Background(), pool, loader, NewNormalizer(PythonLexicon(), false), refs(locations...))
	require.NoError(t, err)
	require.Len(t, subs, len(locations))

	for i, loc := range locations {
		assert.Equal(t, loc, subs[i].Ref.FileID)
		assert.Equal(t, "value = "+loc, subs[i].NormalizedCode)
	}
}

func TestPrepare_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Prepare(ctx, nil, mapLoader{}, NewNormalizer(PythonLexicon(), true), refs("a"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetect_Errors(t *testing.T) {
	t.Parallel()

	d := NewDetector(mapLoader{}, NewNormalizer(PythonLexicon(), true), NewEngine(DefaultOptions()))

	_, err := d.Detect(context.Background(), nil, 0.5)
	assert.ErrorIs(t, err, ErrNoSubmissions)

	for _, threshold := range []float64{-0.1, 1.5} {
		_, err = d.Detect(context.Background(), refs("a", "b"), threshold)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	}
}

func TestDetect_SingleUsableSubmission(t *testing.T) {
	t.Parallel()

	loader := mapLoader{"a": "x = 1", "b": ""}
	d := NewDetector(loader, NewNormalizer(PythonLexicon(), true), NewEngine(DefaultOptions()))

	report, err := d.Detect(context.Background(), refs("a", "b"), 0.5)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, 2, report.TotalFiles)
	assert.Equal(t, 1, report.AnalyzedFiles)
}

func TestDetect_WithPoolAndProgress(t *testing.T) {
	t.Parallel()

	loader := mapLoader{
		"a": "x = 1\ny = x + 2",
		"b": "a = 1\nb = a + 2",
		"c": "print(len(range(10)))",
	}

	pool := NewWorkerPool(context.Background(), 2)
	defer pool.Close()

	var mu sync.Mutex
	var steps []models.Step
	progress := func(_ context.Context, step models.Step) {
		mu.Lock()
		defer mu.Unlock()
		steps = append(steps, step)
	}

	d := NewDetector(loader, NewNormalizer(PythonLexicon(), true), NewEngine(DefaultOptions()),
		WithPool(pool), WithProgress(progress))

	report, err := d.Detect(context.Background(), refs("a", "b", "c"), 0.5)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 100.0, report.Results[0].Similarity)
	assert.Equal(t, "student a", report.Results[0].StudentA)
	assert.Equal(t, "student b", report.Results[0].StudentB)

	assert.Equal(t, []models.Step{models.StepExtracting, models.StepVectorizing}, steps)
}

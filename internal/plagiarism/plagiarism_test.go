package plagiarism

import (
	"fmt"
	"testing"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmission(n *Normalizer, id, code string) *Submission {
	normalized := n.Normalize(code)
	sub := &Submission{
		Ref: models.SubmissionRef{
			FileID:      id,
			StudentName: "student " + id,
			StudentID:   id,
		},
		RawCode:        code,
		NormalizedCode: normalized,
	}
	if normalized != "" {
		sub.ContentHash = ContentHash(normalized)
	}
	return sub
}

func TestAnalyze_RenamedCopyIsFullMatch(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(PythonLexicon(), true)
	subs := []*Submission{
		newSubmission(n, "a", "# compute sum\ndef add(a, b):\n    return a + b  # add\nresult = add(1, 2)\nprint(result)"),
		newSubmission(n, "b", "def plus(x, y):\n    # plus two numbers\n    return x + y\nout = plus(1, 2)  # call\nprint(out)"),
	}

	report := NewEngine(DefaultOptions()).Analyze(subs, 0.5)

	require.Len(t, report.Results, 1)
	r := report.Results[0]
	assert.Equal(t, 100.0, r.Similarity)
	assert.True(t, r.Duplicate)
	assert.Equal(t, RiskNearCopy, r.Risk)
	assert.Equal(t, "a", r.FileAID)
	assert.Equal(t, "b", r.FileBID)
	require.NotEmpty(t, r.MatchingLines)
	assert.Equal(t, 100.0, r.MatchingLines[0].Similarity)
	assert.Equal(t, len(r.MatchingLines), r.TotalMatches)
}

func TestAnalyze_UnrelatedPairBelowThreshold(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(PythonLexicon(), false)
	subs := []*Submission{
		newSubmission(n, "a", "total = sum(values)\nprint(total)"),
		newSubmission(n, "b", "import os\nfor name in os.listdir(path):\n    os.remove(name)"),
	}

	m := SimilarityMatrix([]string{subs[0].NormalizedCode, subs[1].NormalizedCode}, DefaultVectorOptions())
	require.NotNil(t, m)
	assert.Less(t, m.At(0, 1), 0.3)

	report := NewEngine(DefaultOptions()).Analyze(subs, 0.5)
	assert.Empty(t, report.Results)
	assert.Equal(t, 0, report.TotalMatches)
	assert.Equal(t, 2, report.AnalyzedFiles)
}

func TestAnalyze_OnlyDuplicatePairReported(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(PythonLexicon(), true)
	subs := []*Submission{
		newSubmission(n, "a", "x = 1\ny = x + 2"),
		newSubmission(n, "b", "a = 1\nb = a + 2  # same thing"),
		newSubmission(n, "c", "print(len(range(10)))"),
	}

	for _, threshold := range []float64{0, 0.01, 0.5, 0.99, 1} {
		t.Run(fmt.Sprintf("threshold=%v", threshold), func(t *testing.T) {
			report := NewEngine(DefaultOptions()).Analyze(subs, threshold)

			require.Len(t, report.Results, 1)
			assert.Equal(t, 100.0, report.Results[0].Similarity)
			assert.Equal(t, "a", report.Results[0].FileAID)
			assert.Equal(t, "b", report.Results[0].FileBID)
			assert.Equal(t, 3, report.TotalFiles)
			assert.Equal(t, 1, report.TotalMatches)
		})
	}
}

func TestAnalyze_SingleSubmission(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(PythonLexicon(), true)
	report := NewEngine(DefaultOptions()).Analyze([]*Submission{newSubmission(n, "a", "x = 1")}, 0.5)

	assert.Empty(t, report.Results)
	assert.Equal(t, 1, report.TotalFiles)
	require.Len(t, report.Students, 1)
	assert.Equal(t, 0.0, report.Students[0].Score)
}

func TestAnalyze_EmptyCodeExcluded(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(PythonLexicon(), true)
	subs := []*Submission{
		newSubmission(n, "a", "x = 1\ny = x + 2"),
		newSubmission(n, "empty", "# only a comment"),
		newSubmission(n, "b", "x = 1\ny = x + 2"),
	}

	report := NewEngine(DefaultOptions()).Analyze(subs, 0)

	assert.Equal(t, 3, report.TotalFiles)
	assert.Equal(t, 2, report.AnalyzedFiles)
	require.Len(t, report.Results, 1)
	for _, s := range report.Students {
		assert.NotEqual(t, "empty", s.FileID)
	}
}

func TestAnalyze_SortedAndThresholded(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(PythonLexicon(), false)
	subs := []*Submission{
		newSubmission(n, "a", "import numpy as np\nvalues = np.array(data)\nprint(values.mean())"),
		newSubmission(n, "b", "import numpy as np\nvalues = np.array(data)\nprint(values.sum())"),
		newSubmission(n, "c", "import numpy as np\nframe = load(path)\nframe.plot()"),
		newSubmission(n, "d", "import numpy as np\nvalues = np.array(data)\nprint(values.mean())"),
		newSubmission(n, "e", "for row in table:\n    print(row)"),
	}

	for _, threshold := range []float64{0, 0.2, 0.5, 0.9} {
		report := NewEngine(DefaultOptions()).Analyze(subs, threshold)

		for i, r := range report.Results {
			assert.GreaterOrEqual(t, r.Similarity, threshold*100)
			assert.Greater(t, r.Similarity, 0.0)
			assert.LessOrEqual(t, r.Similarity, 100.0)
			if i > 0 {
				assert.GreaterOrEqual(t, report.Results[i-1].Similarity, r.Similarity)
			}
		}
	}

	report := NewEngine(DefaultOptions()).Analyze(subs, 0.9)
	require.NotEmpty(t, report.Results)
	assert.Equal(t, "a", report.Results[0].FileAID)
	assert.Equal(t, "d", report.Results[0].FileBID)
}

func TestAnalyze_ThresholdMonotonic(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(PythonLexicon(), false)
	subs := []*Submission{
		newSubmission(n, "a", "import numpy as np\nvalues = np.array(data)\nprint(values.mean())"),
		newSubmission(n, "b", "import numpy as np\nvalues = np.array(data)\nprint(values.sum())"),
		newSubmission(n, "c", "import numpy as np\nframe = load(path)\nframe.plot()"),
	}

	engine := NewEngine(DefaultOptions())
	low := engine.Analyze(subs, 0.1)
	high := engine.Analyze(subs, 0.6)

	assert.GreaterOrEqual(t, len(low.Results), len(high.Results))
}

func TestAnalyze_EvidenceGating(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(PythonLexicon(), false)
	near := []*Submission{
		newSubmission(n, "a", "import numpy as np\nvalues = np.array(data)\nprint(values.mean())"),
		newSubmission(n, "b", "import numpy as np\nvalues = np.array(data)\nprint(values.sum())"),
	}

	strict := DefaultOptions()
	strict.EvidenceCutoff = 0.999
	report := NewEngine(strict).Analyze(near, 0.01)
	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Duplicate)
	assert.Empty(t, report.Results[0].MatchingLines)
	assert.Equal(t, 0, report.Results[0].TotalMatches)

	loose := DefaultOptions()
	loose.EvidenceCutoff = 0.1
	report = NewEngine(loose).Analyze(near, 0.01)
	require.Len(t, report.Results, 1)
	require.GreaterOrEqual(t, len(report.Results[0].MatchingLines), 2)
	assert.Equal(t, models.LineMatch{LineA: 1, LineB: 1, Code: "import numpy as np", Similarity: 100}, report.Results[0].MatchingLines[0])

	dupes := []*Submission{
		newSubmission(n, "a", "x = compute_value(1)"),
		newSubmission(n, "b", "x = compute_value(1)"),
	}
	noDupEvidence := DefaultOptions()
	noDupEvidence.EvidenceOnDuplicates = false
	report = NewEngine(noDupEvidence).Analyze(dupes, 0.5)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Duplicate)
	assert.Empty(t, report.Results[0].MatchingLines)
}

func TestAnalyze_StudentSummaries(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(PythonLexicon(), true)
	subs := []*Submission{
		newSubmission(n, "a", "x = 1\ny = x + 2"),
		newSubmission(n, "b", "a = 1\nb = a + 2"),
		newSubmission(n, "c", "print(len(range(10)))"),
	}

	report := NewEngine(DefaultOptions()).Analyze(subs, 0.5)

	require.Len(t, report.Students, 3)
	assert.Equal(t, 100.0, report.Students[0].Score)
	assert.Equal(t, 100.0, report.Students[1].Score)
	assert.Equal(t, "c", report.Students[2].FileID)
	assert.Equal(t, 0.0, report.Students[2].Score)
	assert.Equal(t, RiskClean, report.Students[2].Risk)
	assert.Empty(t, report.Students[2].Peers)
	assert.NotNil(t, report.Students[2].Peers)
}

func TestAnalyze_ZeroScorePairDroppedAtThresholdZero(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(PythonLexicon(), false)
	subs := []*Submission{
		newSubmission(n, "a", "alpha = beta"),
		newSubmission(n, "b", "gamma = delta"),
	}

	report := NewEngine(DefaultOptions()).Analyze(subs, 0)
	assert.Empty(t, report.Results)
	assert.Equal(t, 2, report.AnalyzedFiles)
}

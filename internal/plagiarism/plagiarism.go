package plagiarism

import (
	"errors"
	"math"
	"sort"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

const DefaultEvidenceCutoff = 0.7

var (
	ErrNoSubmissions    = errors.New("no submissions to analyze")
	ErrInvalidThreshold = errors.New("threshold must be within [0, 1]")
)

// Submission is one student's code prepared for a single analysis run
type Submission struct {
	Ref            models.SubmissionRef
	RawCode        string
	NormalizedCode string
	ContentHash    string
}

// Options tune the engine. EvidenceCutoff and the reporting threshold
// are independent: evidence is only computed above EvidenceCutoff.
type Options struct {
	Vector               VectorOptions
	Evidence             EvidenceOptions
	EvidenceCutoff       float64
	EvidenceOnDuplicates bool
}

func DefaultOptions() Options {
	return Options{
		Vector:               DefaultVectorOptions(),
		Evidence:             DefaultEvidenceOptions(),
		EvidenceCutoff:       DefaultEvidenceCutoff,
		EvidenceOnDuplicates: true,
	}
}

// Report is the outcome of one analysis run
type Report struct {
	Results []models.PairResult
	// Students holds one summary per analysed submission
	Students []models.StudentSummary
	// TotalFiles counts every submission handed in, usable or not
	TotalFiles int
	// AnalyzedFiles counts submissions with non-empty normalized code
	AnalyzedFiles int
	// TotalMatches counts qualifying pairs
	TotalMatches int
}

// Engine scores every pair of a closed batch. It holds no state between calls.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Analyze emits a pair result for every unordered pair whose similarity is
// at least threshold, sorted by similarity descending. Pairs scoring zero
// share no weighted terms and are never reported.
func (e *Engine) Analyze(subs []*Submission, threshold float64) *Report {
	usable := make([]*Submission, 0, len(subs))
	for _, s := range subs {
		if s.NormalizedCode == "" {
			log.Debug().Str("fileId", s.Ref.FileID).Msg("Excluding submission with empty code")
			continue
		}
		usable = append(usable, s)
	}

	report := &Report{
		Results:       []models.PairResult{},
		Students:      []models.StudentSummary{},
		TotalFiles:    len(subs),
		AnalyzedFiles: len(usable),
	}

	// Edge Case: not enough data for a single pair
	if len(usable) < 2 {
		log.Info().
			Int("files", len(subs)).
			Int("usable", len(usable)).
			Msg("Not enough submissions to compare")
		report.Students = summarizeStudents(usable, nil)
		return report
	}

	texts := make([]string, len(usable))
	for i, s := range usable {
		texts[i] = s.NormalizedCode
	}
	matrix := SimilarityMatrix(texts, e.opts.Vector)

	if groups := DuplicateGroups(usable); len(groups) > 0 {
		log.Info().Int("groups", len(groups)).Msg("Found exact duplicate submissions")
	}

	for i := 0; i < len(usable); i++ {
		for j := i + 1; j < len(usable); j++ {
			a, b := usable[i], usable[j]
			score, duplicate := pairScore(a, b, matrix, i, j)
			// zero-score pairs are dropped even at threshold 0
			if score <= 0 || score < threshold {
				continue
			}
			report.Results = append(report.Results, e.buildResult(a, b, score, duplicate))
		}
	}

	sort.SliceStable(report.Results, func(i, j int) bool {
		return report.Results[i].Similarity > report.Results[j].Similarity
	})

	report.TotalMatches = len(report.Results)
	report.Students = summarizeStudents(usable, report.Results)

	log.Info().
		Int("files", report.TotalFiles).
		Int("analyzed", report.AnalyzedFiles).
		Int("pairs", report.TotalMatches).
		Float64("threshold", threshold).
		Msg("Batch analysis completed")

	return report
}

// pairScore applies the duplicate fast path before consulting the matrix
func pairScore(a, b *Submission, matrix *mat.SymDense, i, j int) (float64, bool) {
	if IsDuplicate(a, b) {
		return 1.0, true
	}
	if matrix == nil {
		return 0, false
	}
	s := matrix.At(i, j)
	if math.IsNaN(s) {
		return 0, false
	}
	return clamp01(s), false
}

func (e *Engine) buildResult(a, b *Submission, score float64, duplicate bool) models.PairResult {
	matches := []models.LineMatch{}
	if e.wantsEvidence(score, duplicate) {
		matches = FindMatchingLines(a.NormalizedCode, b.NormalizedCode, e.opts.Evidence)
	}

	return models.PairResult{
		StudentA:      a.Ref.StudentName,
		StudentAID:    a.Ref.StudentID,
		FileAID:       a.Ref.FileID,
		StudentB:      b.Ref.StudentName,
		StudentBID:    b.Ref.StudentID,
		FileBID:       b.Ref.FileID,
		Similarity:    roundTo(score*100, 2),
		Duplicate:     duplicate,
		Risk:          RiskLevel(score),
		MatchingLines: matches,
		TotalMatches:  len(matches),
	}
}

func (e *Engine) wantsEvidence(score float64, duplicate bool) bool {
	if duplicate {
		return e.opts.EvidenceOnDuplicates
	}
	return score > e.opts.EvidenceCutoff
}

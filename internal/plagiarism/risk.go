package plagiarism

import (
	"math"
	"sort"

	"github.com/RishiKendai/plagiarism-control/internal/models"
)

const (
	RiskClean            = "clean"
	RiskSuspicious       = "suspicious"
	RiskHighlySuspicious = "highly suspicious"
	RiskNearCopy         = "near copy"
)

// topK is how many of a student's strongest pairs feed their score
const topK = 3

// RiskLevel returns risk level based on a 0..1 similarity score
func RiskLevel(score float64) string {
	if score < 0.3 {
		return RiskClean
	} else if score < 0.6 {
		return RiskSuspicious
	} else if score < 0.85 {
		return RiskHighlySuspicious
	}
	return RiskNearCopy
}

// StudentScore calculates a student's score from the 0..1 scores of their
// flagged pairs using a Top-K mean plus a boost for having many peers.
func StudentScore(scores []float64, peers int) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sorted := append([]float64(nil), scores...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	k := topK
	if len(sorted) < k {
		k = len(sorted)
	}
	sum := 0.0
	for _, s := range sorted[:k] {
		sum += s
	}
	score := sum / float64(k)

	if peers > 0 {
		score += math.Min(0.15, 0.05*float64(peers-1))
	}

	return clamp01(score)
}

// summarizeStudents builds one summary per analysed submission, strongest first
func summarizeStudents(subs []*Submission, results []models.PairResult) []models.StudentSummary {
	scores := make(map[string][]float64)
	peers := make(map[string][]string)
	for _, r := range results {
		s := r.Similarity / 100
		scores[r.FileAID] = append(scores[r.FileAID], s)
		scores[r.FileBID] = append(scores[r.FileBID], s)
		peers[r.FileAID] = append(peers[r.FileAID], r.FileBID)
		peers[r.FileBID] = append(peers[r.FileBID], r.FileAID)
	}

	summaries := make([]models.StudentSummary, 0, len(subs))
	for _, sub := range subs {
		id := sub.Ref.FileID
		score := StudentScore(scores[id], len(peers[id]))
		filePeers := peers[id]
		if filePeers == nil {
			filePeers = []string{}
		}
		summaries = append(summaries, models.StudentSummary{
			StudentName: sub.Ref.StudentName,
			StudentID:   sub.Ref.StudentID,
			FileID:      id,
			Score:       roundTo(score*100, 2),
			Risk:        RiskLevel(score),
			Peers:       filePeers,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Score > summaries[j].Score
	})
	return summaries
}

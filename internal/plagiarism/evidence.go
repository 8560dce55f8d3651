package plagiarism

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	DefaultFuzzyCutoff   = 0.85
	DefaultMinLineLength = 10
	DefaultMaxMatches    = 50
)

// EvidenceOptions bound the cost of line matching for one pair
type EvidenceOptions struct {
	// FuzzyCutoff is the ratio a non-identical line pair must exceed
	FuzzyCutoff float64
	// MinLineLength is the length both lines must exceed to be fuzzy matched
	MinLineLength int
	// MaxMatches caps the evidence list; scanning stops once reached
	MaxMatches int
}

func DefaultEvidenceOptions() EvidenceOptions {
	return EvidenceOptions{
		FuzzyCutoff:   DefaultFuzzyCutoff,
		MinLineLength: DefaultMinLineLength,
		MaxMatches:    DefaultMaxMatches,
	}
}

type numberedLine struct {
	number int
	text   string
	// length in characters, not bytes
	length int
}

func splitLines(code string) []numberedLine {
	raw := strings.Split(code, "\n")
	lines := make([]numberedLine, 0, len(raw))
	for i, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, numberedLine{
				number: i + 1,
				text:   trimmed,
				length: utf8.RuneCountInString(trimmed),
			})
		}
	}
	return lines
}

// FindMatchingLines pairs lines of a with identical or near-identical lines of b.
// Exact matches come from a lookup and score 100; other lines are compared
// against every line of b with a SequenceMatcher ratio.
func FindMatchingLines(a, b string, opts EvidenceOptions) []models.LineMatch {
	if opts.MaxMatches <= 0 {
		return []models.LineMatch{}
	}

	linesA := splitLines(a)
	linesB := splitLines(b)
	matches := make([]models.LineMatch, 0)

	exact := make(map[string]int, len(linesB))
	for _, lb := range linesB {
		if _, ok := exact[lb.text]; !ok {
			exact[lb.text] = lb.number
		}
	}

	for _, la := range linesA {
		if len(matches) >= opts.MaxMatches {
			break
		}

		if numB, ok := exact[la.text]; ok {
			matches = append(matches, models.LineMatch{
				LineA:      la.number,
				LineB:      numB,
				Code:       la.text,
				Similarity: 100.0,
			})
			continue
		}

		if la.length <= opts.MinLineLength {
			continue
		}

		charsA := chars(la.text)
		for _, lb := range linesB {
			if len(matches) >= opts.MaxMatches {
				break
			}
			if lb.length <= opts.MinLineLength {
				continue
			}
			ratio, ok := lineRatio(charsA, lb.text, opts.FuzzyCutoff)
			if !ok {
				continue
			}
			matches = append(matches, models.LineMatch{
				LineA:      la.number,
				LineB:      lb.number,
				Code:       la.text,
				Similarity: roundTo(ratio*100, 1),
			})
		}
	}

	return matches
}

// lineRatio reports the SequenceMatcher ratio of a and b when it exceeds
// cutoff. Cheap upper bounds are checked before the full ratio.
func lineRatio(charsA []string, b string, cutoff float64) (float64, bool) {
	charsB := chars(b)
	la, lb := len(charsA), len(charsB)
	if la+lb == 0 {
		return 0, false
	}
	if upper := 2 * float64(min(la, lb)) / float64(la+lb); upper <= cutoff {
		return 0, false
	}

	m := difflib.NewMatcher(charsA, charsB)
	if m.QuickRatio() <= cutoff {
		return 0, false
	}
	ratio := m.Ratio()
	if ratio <= cutoff {
		return 0, false
	}
	return ratio, true
}

func chars(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

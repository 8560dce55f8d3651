package plagiarism

import (
	"regexp"
	"strconv"
	"strings"
)

var identifierPattern = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\b`)

// Normalizer canonicalizes code so cosmetic edits do not hide a match.
// It is deterministic and safe for concurrent use.
type Normalizer struct {
	lexicon              *Lexicon
	comments             []*regexp.Regexp
	normalizeIdentifiers bool
}

func NewNormalizer(lexicon *Lexicon, normalizeIdentifiers bool) *Normalizer {
	if lexicon == nil {
		lexicon = PythonLexicon()
	}
	return &Normalizer{
		lexicon:              lexicon,
		comments:             lexicon.commentPatterns(),
		normalizeIdentifiers: normalizeIdentifiers,
	}
}

// Normalize strips comments, collapses whitespace and, when enabled,
// renames identifiers to var0, var1, ... in first-seen order.
func (n *Normalizer) Normalize(code string) string {
	code = n.StripComments(code)
	code = CollapseWhitespace(code)
	if n.normalizeIdentifiers {
		code = n.RenameIdentifiers(code)
	}
	return code
}

// StripComments removes comments until none are left. Removing one block
// can fuse the text around it into a new delimiter, so one pass is not
// enough. Every pass that changes the text shortens it.
func (n *Normalizer) StripComments(code string) string {
	for {
		next := code
		for _, re := range n.comments {
			next = re.ReplaceAllString(next, "")
		}
		if next == code {
			return code
		}
		code = next
	}
}

// CollapseWhitespace trims every line and drops the ones left empty
func CollapseWhitespace(code string) string {
	lines := strings.Split(code, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}

// RenameIdentifiers is a single pass over word tokens. It is not scope
// aware: equal spellings in different scopes share one synthetic name.
func (n *Normalizer) RenameIdentifiers(code string) string {
	mapping := make(map[string]string)
	return identifierPattern.ReplaceAllStringFunc(code, func(token string) string {
		if n.lexicon.IsReserved(token) {
			return token
		}
		name, ok := mapping[token]
		if !ok {
			name = "var" + strconv.Itoa(len(mapping))
			mapping[token] = name
		}
		return name
	})
}

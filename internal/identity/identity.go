// Package identity infers a student's name and id from an uploaded file name.
package identity

import (
	"regexp"
	"strings"
	"unicode"
)

const Unknown = "unknown"

var (
	rollPattern      = regexp.MustCompile(`(?i)^roll\d+$`)
	numericPattern   = regexp.MustCompile(`^\d+$`)
	idUnsafePattern  = regexp.MustCompile(`[^a-z0-9_]`)
	assignmentPrefix = []string{"lab", "assignment", "hw", "project", "task", "exercise", "ex", "test", "quiz"}
)

// FromFilename returns a display name and an id for a notebook file name.
// It is best effort: "Lab 2 - Jane Doe.ipynb" yields ("Jane Doe", "jane_doe").
func FromFilename(filename string) (name, id string) {
	base := strings.TrimSpace(strings.ReplaceAll(filename, ".ipynb", ""))
	if base == "" {
		return Unknown, Unknown
	}

	if strings.Contains(base, " - ") {
		parts := strings.Split(base, " - ")
		if n := strings.TrimSpace(parts[len(parts)-1]); n != "" {
			return titleCase(n), slug(n)
		}
	} else if strings.Contains(base, "-") {
		parts := strings.Split(base, "-")
		if n := strings.TrimSpace(parts[len(parts)-1]); n != "" {
			return titleCase(n), slug(n)
		}
	}

	var parts []string
	for _, p := range strings.Split(base, "_") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) == 1 {
		part := parts[0]
		if n, i, ok := numberedIdentity(part); ok {
			return n, i
		}
		return titleCase(part), strings.ToLower(part)
	}

	start := 0
	for i, p := range parts {
		if isAssignmentPart(p) {
			start = i + 1
		}
	}

	var nameParts []string
	switch {
	case start < len(parts):
		nameParts = parts[start:]
	case len(parts) >= 2:
		nameParts = parts[len(parts)-2:]
	default:
		nameParts = parts
	}

	for _, p := range nameParts {
		if n, i, ok := numberedIdentity(p); ok {
			return n, i
		}
	}

	if len(nameParts) > 0 {
		return titleCase(strings.Join(nameParts, " ")), strings.ToLower(strings.Join(nameParts, "_"))
	}

	return titleCase(strings.ReplaceAll(base, "_", " ")), strings.ReplaceAll(strings.ToLower(base), " ", "_")
}

// numberedIdentity handles roll numbers and bare numeric ids
func numberedIdentity(part string) (string, string, bool) {
	if rollPattern.MatchString(part) {
		lower := strings.ToLower(part)
		return lower, lower, true
	}
	if numericPattern.MatchString(part) {
		return "student_" + part, part, true
	}
	return "", "", false
}

// isAssignmentPart matches lab, lab3, hw_... style prefixes
func isAssignmentPart(part string) bool {
	lower := strings.ToLower(part)
	for _, prefix := range assignmentPrefix {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func slug(s string) string {
	id := strings.ReplaceAll(strings.ToLower(s), " ", "_")
	return idUnsafePattern.ReplaceAllString(id, "")
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

package plagiarism

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash fingerprints normalized code with SHA-256
func ContentHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// IsDuplicate reports byte-identical normalized content. It takes precedence
// over the vector model: duplicates always score exactly 1.0.
func IsDuplicate(a, b *Submission) bool {
	return a.ContentHash != "" && a.ContentHash == b.ContentHash
}

// DuplicateGroups buckets submission indexes by content hash, keeping only
// hashes shared by two or more submissions.
func DuplicateGroups(subs []*Submission) map[string][]int {
	groups := make(map[string][]int)
	for i, s := range subs {
		if s.ContentHash == "" {
			continue
		}
		groups[s.ContentHash] = append(groups[s.ContentHash], i)
	}
	for hash, idx := range groups {
		if len(idx) < 2 {
			delete(groups, hash)
		}
	}
	return groups
}

package domain

import "strings"

// countTermMatches counts boundary-delimited occurrences of term in text.
// Both inputs must already be lower-cased. Boundary checks are byte-level
// ASCII, which is sufficient for the English table terms: "war" must not
// match inside "warning", but multi-word phrases like "missile strike"
// match across their internal space.
func countTermMatches(text, term string) int {
	if term == "" || text == "" {
		return 0
	}
	count := 0
	for start := 0; ; {
		i := strings.Index(text[start:], term)
		if i < 0 {
			break
		}
		pos := start + i
		end := pos + len(term)
		if boundary(text, pos-1) && boundary(text, end) {
			count++
		}
		start = end
	}
	return count
}

// containsTerm reports whether term occurs at least once on word boundaries.
func containsTerm(text, term string) bool {
	return countTermMatches(text, term) > 0
}

// boundary reports whether the byte at index i (out of range counts as a
// boundary) is not part of a word.
func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	return !isWordByte(text[i])
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

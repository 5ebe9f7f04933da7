// Package matching provides the deterministic half of the job-candidate
// match engine: skill normalization, skill set comparison, and the text
// blobs sent to the semantic similarity service.
package matching

import (
	"strings"
	"unicode"
)

// NormalizeSkill canonicalizes a skill token for comparison: lowercase,
// trimmed, punctuation stripped except '.', '+', '#' (so "C++", "C#" and
// "Node.js" survive intact), internal whitespace collapsed to one space.
// Idempotent: NormalizeSkill(NormalizeSkill(x)) == NormalizeSkill(x).
func NormalizeSkill(skill string) string {
	lower := strings.ToLower(skill)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.' || r == '+' || r == '#':
			b.WriteRune(r)
		}
	}

	// Fields collapses whitespace runs and drops leading/trailing space,
	// which keeps the function idempotent.
	return strings.Join(strings.Fields(b.String()), " ")
}

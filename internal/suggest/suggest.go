// Package suggest computes "did you mean" corrections for a dotted path
// that failed to resolve, by fuzzy-matching it against the sibling names
// that were actually in scope. Grounded on SPEC_FULL.md's DOMAIN STACK
// entry for go-edlib: a RootGraph.Resolve miss should attach a
// suggestion the same way rust-analyzer-style resolvers do, rather than
// just reporting the miss.
package suggest

import (
	edlib "github.com/hbollon/go-edlib"
)

// minSimilarity is the lowest Levenshtein similarity (0..1) a candidate
// must clear before it's offered as a suggestion. Below this a wrong
// guess is worse than no suggestion at all.
const minSimilarity = 0.5

// For finds the closest match to name among candidates, returning ""
// if none clears minSimilarity. candidates is typically every sibling
// qualified name visible from the file that failed to resolve.
func For(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	match, err := edlib.FuzzySearchThreshold(name, candidates, float32(minSimilarity), edlib.Levenshtein)
	if err != nil || match == "" {
		return ""
	}
	return match
}

// ForPath is For specialized to a dotted reference: name is the full
// dotted path that failed to resolve (e.g. "Base.Featrue.sub"), and
// candidates are full dotted paths of symbols known in scope.
func ForPath(path string, candidates []string) string {
	return For(path, candidates)
}

package nameset

import "github.com/hbollon/go-edlib"

// suggestThreshold mirrors standardbeagle-lci's FuzzyMatcher default (internal/
// semantic/fuzzy_matcher.go's NewFuzzyMatcher fallback of 0.80): below this
// Jaro-Winkler similarity, a candidate isn't worth suggesting.
const suggestThreshold = 0.80

// Suggest returns the best "did you mean" candidate for an unresolved name,
// or "" if no candidate clears suggestThreshold. Used to populate
// diag.Diagnostic.Suggestion for the name pass's KindUnknownSymbol
// diagnostics; KindUnknownLabel diagnostics from verify carry no suggestion.
func Suggest(target string, candidates []string) string {
	best := ""
	bestScore := float32(0)
	for _, candidate := range candidates {
		score, err := edlib.StringsSimilarity(target, candidate, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	if bestScore < suggestThreshold {
		return ""
	}
	return best
}

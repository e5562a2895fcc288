// Package match finds the best historical price for each estimate line item:
// synonym expansion, unit/discipline compatibility, candidate scoring, price
// validation and the matcher that orchestrates them across the knowledge base.
package match

import (
	"sort"
	"strings"

	"estimate-engine/core/rules"
	"estimate-engine/core/textnorm"
)

// Expander expands a term into its closed set of interchangeable terms using
// the bidirectional synonym table.
type Expander struct {
	rules *rules.Set
}

// NewExpander creates an expander over the given rule set
func NewExpander(rs *rules.Set) *Expander {
	return &Expander{rules: rs}
}

// Expand returns the term plus every synonym reachable through the table.
// A table entry matches when the normalized term contains, or is contained
// in, the entry's key or any of its listed synonyms. The result always
// includes the term itself and is sorted for determinism.
func (e *Expander) Expand(term string) []string {
	found := map[string]struct{}{term: {}}

	termNorm := textnorm.Normalize(term)
	if termNorm == "" {
		return []string{term}
	}

	for key, values := range e.rules.Synonyms {
		keyNorm := textnorm.Normalize(key)
		if keyNorm != "" && overlaps(termNorm, keyNorm) {
			found[key] = struct{}{}
			for _, v := range values {
				found[v] = struct{}{}
			}
			continue
		}
		for _, v := range values {
			valueNorm := textnorm.Normalize(v)
			if valueNorm != "" && overlaps(termNorm, valueNorm) {
				found[key] = struct{}{}
				for _, vv := range values {
					found[vv] = struct{}{}
				}
				break
			}
		}
	}

	out := make([]string, 0, len(found))
	for s := range found {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// expandNormalized returns the normalized synonym set for a term
func (e *Expander) expandNormalized(term string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, s := range e.Expand(term) {
		if n := textnorm.Normalize(s); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// overlaps reports whether one normalized string contains the other
func overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

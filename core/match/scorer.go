// Package match - Candidate scoring
package match

import (
	"strings"

	"estimate-engine/core/rules"
	"estimate-engine/core/textnorm"
	"estimate-engine/core/types"
)

// Scoring weights. These are empirically tuned constants; changing any of
// them silently shifts match tiers, so they are fixed here and covered by
// tests rather than exposed as knobs.
const (
	// Name similarity
	ScoreNameExact    = 2.0
	ScoreNameSynonym  = 1.8
	ScoreNameContains = 1.5
	ScoreNameToken    = 1.0

	// Category bonus
	ScoreCategoryMatch = 1.0

	// Specification/size similarity
	ScoreSpecExact    = 1.5
	ScoreSizeMatch    = 1.2
	ScoreSpecContains = 0.8

	// Unit signal
	ScoreUnitEqual = 0.5
	ScoreUnitLoose = 0.3

	// ScoreNormalizer converts a raw score to a confidence in [0,1]
	ScoreNormalizer = 5.0
)

// Scorer computes the additive similarity score between one line item and
// one knowledge-base entry.
type Scorer struct {
	rules    *rules.Set
	expander *Expander
	units    *UnitChecker
}

// NewScorer creates a scorer over the given rule set
func NewScorer(rs *rules.Set) *Scorer {
	return &Scorer{
		rules:    rs,
		expander: NewExpander(rs),
		units:    NewUnitChecker(rs),
	}
}

// itemProfile caches the normalized forms of one item so the matcher does
// not recompute them for every KB entry.
type itemProfile struct {
	item     *types.LineItem
	nameNorm string
	specNorm string
	fullNorm string
	size     string
	category string
	synonyms map[string]struct{}
	tokens   []string
}

// entryProfile caches the normalized forms of one KB entry for a whole run
type entryProfile struct {
	entry    *types.KBEntry
	descNorm string
	specNorm string
	fullNorm string
	size     string
	category string
	synonyms map[string]struct{}
}

func (s *Scorer) profileItem(item *types.LineItem) *itemProfile {
	nameNorm := textnorm.Normalize(item.Name)
	return &itemProfile{
		item:     item,
		nameNorm: nameNorm,
		specNorm: textnorm.Normalize(item.Specification),
		fullNorm: textnorm.Normalize(item.Name + " " + item.Specification),
		size:     textnorm.ExtractSize(item.Specification),
		category: textnorm.ExtractCategory(item.Name, s.rules.CategoryKeywords),
		synonyms: s.expander.expandNormalized(item.Name),
		tokens:   strings.Fields(nameNorm),
	}
}

func (s *Scorer) profileEntry(entry *types.KBEntry) *entryProfile {
	spec := entry.Specification()
	return &entryProfile{
		entry:    entry,
		descNorm: textnorm.Normalize(entry.Description),
		specNorm: textnorm.Normalize(spec),
		fullNorm: textnorm.Normalize(entry.Description + " " + spec),
		size:     textnorm.ExtractSize(spec),
		category: textnorm.ExtractCategory(entry.Description, s.rules.CategoryKeywords),
		synonyms: s.expander.expandNormalized(entry.Description),
	}
}

// Score computes the similarity score between item and entry. A score of
// zero with ok=false means the candidate was vetoed by unit incompatibility.
func (s *Scorer) Score(item *types.LineItem, entry *types.KBEntry) (score float64, ok bool) {
	sc, _, vetoed := s.score(s.profileItem(item), s.profileEntry(entry))
	return sc, !vetoed
}

// score is the profile-level scoring used by the matcher. categoryHit marks
// the candidate as eligible for the category fallback.
func (s *Scorer) score(ip *itemProfile, ep *entryProfile) (score float64, categoryHit, vetoed bool) {
	// Unit veto first: an incompatible unit pair discards the candidate
	// regardless of any other signal.
	compat := s.units.Compatible(ip.item.Unit, ep.entry.Unit)
	if compat == UnitIncompatible {
		return 0, false, true
	}

	// 1. Name similarity. A synonym match outranks plain containment.
	switch {
	case ip.nameNorm != "" && ip.nameNorm == ep.descNorm:
		score += ScoreNameExact
	case synonymsIntersect(ip.synonyms, ep.synonyms):
		score += ScoreNameSynonym
	case ip.nameNorm != "" && ep.descNorm != "" && overlaps(ip.nameNorm, ep.descNorm):
		score += ScoreNameContains
	case anyTokenContained(ip.tokens, ep.descNorm):
		score += ScoreNameToken
	}

	// 2. Category bonus
	if ip.category != "" && ip.category == ep.category {
		score += ScoreCategoryMatch
		categoryHit = true
	}

	// 3. Specification/size similarity
	if ip.specNorm != "" && ep.specNorm != "" {
		switch {
		case ip.specNorm == ep.specNorm:
			score += ScoreSpecExact
		case ip.size != "" && ip.size == ep.size:
			score += ScoreSizeMatch
		case strings.Contains(ep.fullNorm, ip.specNorm) || strings.Contains(ip.fullNorm, ep.specNorm):
			score += ScoreSpecContains
		}
	}

	// 4. Unit signal
	switch compat {
	case UnitEqual:
		score += ScoreUnitEqual
	case UnitLoose:
		score += ScoreUnitLoose
	}

	return score, categoryHit, false
}

// synonymsIntersect reports whether two normalized synonym sets share a term.
// Every set contains its own term, so identical names intersect trivially;
// callers check exact equality first.
func synonymsIntersect(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for s := range a {
		if _, ok := b[s]; ok {
			return true
		}
	}
	return false
}

// anyTokenContained reports whether any name token longer than one rune
// appears in the entry description.
func anyTokenContained(tokens []string, descNorm string) bool {
	if descNorm == "" {
		return false
	}
	for _, tok := range tokens {
		if len([]rune(tok)) > 1 && strings.Contains(descNorm, tok) {
			return true
		}
	}
	return false
}

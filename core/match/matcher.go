// Package match - Matcher/enricher
package match

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"estimate-engine/core/rules"
	"estimate-engine/core/types"
	"estimate-engine/internal/errors"
	"estimate-engine/internal/logging"
)

// Config bounds the matcher and fixes its tier thresholds
type Config struct {
	// Workers bounds the per-item fan-out; zero or negative means serial
	Workers int

	// MinConfidence is the confidence required to apply a matched price
	MinConfidence float64

	// ExactScore, PartialScore and FallbackScore are the tier thresholds
	ExactScore    float64
	PartialScore  float64
	FallbackScore float64
}

// DefaultConfig returns the tuned thresholds
func DefaultConfig() Config {
	return Config{
		Workers:       1,
		MinConfidence: 0.5,
		ExactScore:    1.0,
		PartialScore:  0.5,
		FallbackScore: 0.8,
	}
}

// Matcher scores every priceable item against the knowledge base and writes
// price, amount and confidence back onto the items.
type Matcher struct {
	kb          []*types.KBEntry
	cfg         Config
	scorer      *Scorer
	disciplines *DisciplineChecker
	validator   *Validator
}

// NewMatcher creates a matcher over a knowledge-base snapshot. The snapshot
// is treated as immutable for the lifetime of the matcher.
func NewMatcher(kb []*types.KBEntry, rs *rules.Set, cfg Config) *Matcher {
	return &Matcher{
		kb:          kb,
		cfg:         cfg,
		scorer:      NewScorer(rs),
		disciplines: NewDisciplineChecker(rs),
		validator:   NewValidator(rs),
	}
}

// Enrich matches every priceable item in place and returns the per-item
// issues encountered. Items at level 0 or without a quantity pass through
// untouched. Matching one item touches no shared state, so items fan out
// across a bounded worker pool; each worker writes only to its own item.
func (m *Matcher) Enrich(ctx context.Context, items []*types.LineItem) []types.Issue {
	profiles := m.ProfileKB()
	issueSlots := make([]*types.Issue, len(items))

	g := new(errgroup.Group)
	if m.cfg.Workers > 1 {
		g.SetLimit(m.cfg.Workers)
	} else {
		g.SetLimit(1)
	}

	matched := 0
	for i, item := range items {
		if !item.Priceable() {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		i, item := i, item
		g.Go(func() error {
			issueSlots[i] = m.matchItem(item, profiles)
			return nil
		})
	}
	_ = g.Wait()

	issues := make([]types.Issue, 0)
	for _, issue := range issueSlots {
		if issue != nil {
			issues = append(issues, *issue)
		}
	}
	for _, item := range items {
		if item.UnitPrice != nil {
			matched++
		}
	}

	logging.Info("price matching complete",
		zap.Int("items", len(items)),
		zap.Int("matched", matched),
		zap.Int("kb_entries", len(m.kb)),
		zap.Int("issues", len(issues)))

	return issues
}

// matchItem scores one item against the whole KB and applies the outcome.
// It returns an issue for a no-match or a rejected price, nil otherwise.
func (m *Matcher) matchItem(item *types.LineItem, profiles []*entryProfile) *types.Issue {
	result := m.Match(item, profiles)

	if result.Tier == types.TierNone {
		logging.Debug("no match",
			zap.String("item", item.Name),
			zap.Float64("best_score", result.Score))
		return &types.Issue{
			Type:     errors.TypeNoMatch,
			ItemID:   item.ID,
			ItemName: item.Name,
			Message:  fmt.Sprintf("no KB candidate cleared a match tier (best score %.2f)", result.Score),
		}
	}

	entry := result.Entry
	confidence := result.Confidence

	item.PriceReferences = []string{entry.ItemID}
	provenance := fmt.Sprintf("KB:%s[%s](%d%%)", entry.ItemID, result.Tier, int(confidence*100))
	if item.SourceReference != "" {
		provenance += ", " + item.SourceReference
	}
	item.SourceReference = provenance

	if result.PriceRejected {
		halved := confidence * 0.5
		item.Confidence = &halved
		logging.Warn("price rejected",
			zap.String("item", item.Name),
			zap.String("kb_entry", entry.ItemID),
			zap.String("price", entry.UnitPrice.String()))
		return &types.Issue{
			Type:     errors.TypePriceRejected,
			ItemID:   item.ID,
			ItemName: item.Name,
			Message:  fmt.Sprintf("matched %s but price %s failed validation", entry.ItemID, entry.UnitPrice.String()),
		}
	}

	item.Confidence = &confidence

	if confidence >= m.cfg.MinConfidence || result.Score >= m.cfg.ExactScore {
		price := entry.UnitPrice
		amount := item.Quantity.Mul(price)
		item.UnitPrice = &price
		item.Amount = &amount
		logging.Debug("match applied",
			zap.String("item", item.Name),
			zap.String("kb_entry", entry.ItemID),
			zap.String("tier", string(result.Tier)),
			zap.Float64("confidence", confidence))
	} else {
		logging.Debug("low-confidence match recorded without price",
			zap.String("item", item.Name),
			zap.String("kb_entry", entry.ItemID),
			zap.Float64("confidence", confidence))
	}

	return nil
}

// Match scores one item against the KB and classifies the result without
// mutating the item.
func (m *Matcher) Match(item *types.LineItem, profiles []*entryProfile) types.MatchResult {
	ip := m.scorer.profileItem(item)

	var (
		best          float64
		bestEntry     *types.KBEntry
		fallback      float64
		fallbackEntry *types.KBEntry
	)

	for _, ep := range profiles {
		if !m.disciplines.Compatible(ep.entry.Discipline, item.Discipline) {
			continue
		}
		score, categoryHit, vetoed := m.scorer.score(ip, ep)
		if vetoed {
			continue
		}
		if categoryHit && score > fallback {
			fallback = score
			fallbackEntry = ep.entry
		}
		// Strictly greater keeps the first-encountered candidate on ties.
		if score > best {
			best = score
			bestEntry = ep.entry
		}
	}

	result := types.MatchResult{Score: best, Tier: types.TierNone}
	switch {
	case bestEntry != nil && best >= m.cfg.ExactScore:
		result.Entry = bestEntry
		result.Tier = types.TierExact
	case bestEntry != nil && best >= m.cfg.PartialScore:
		result.Entry = bestEntry
		result.Tier = types.TierPartial
	case fallbackEntry != nil && fallback >= m.cfg.FallbackScore:
		result.Entry = fallbackEntry
		result.Tier = types.TierCategoryFallback
		result.Score = fallback
	}

	if result.Tier == types.TierNone {
		return result
	}

	result.Confidence = result.Score / ScoreNormalizer
	if result.Confidence > 1 {
		result.Confidence = 1
	}

	price := result.Entry.UnitPrice
	quantity := *item.Quantity
	if !m.validator.ValidPrice(item.Name, price) || !m.validator.SanePrice(item.Name, item.Unit, price, quantity) {
		result.PriceRejected = true
	}

	return result
}

// ProfileKB precomputes entry profiles for repeated Match calls
func (m *Matcher) ProfileKB() []*entryProfile {
	profiles := make([]*entryProfile, len(m.kb))
	for i, entry := range m.kb {
		profiles[i] = m.scorer.profileEntry(entry)
	}
	return profiles
}

// Package verify compares a generated estimate against an optional reference
// estimate, reconstructs the calculation basis behind every amount, and
// aggregates the result into a per-run report.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"estimate-engine/core/rollup"
	"estimate-engine/core/rules"
	"estimate-engine/core/trace"
	"estimate-engine/core/types"
	"estimate-engine/internal/logging"
)

// MatchStatus classifies how close a generated amount is to its reference
type MatchStatus string

const (
	// StatusMatched means the difference ratio is below 10%
	StatusMatched MatchStatus = "matched"

	// StatusAcceptable means the difference ratio is below 30%
	StatusAcceptable MatchStatus = "acceptable"

	// StatusNeedsReview means the difference ratio is 30% or more
	StatusNeedsReview MatchStatus = "needs-review"

	// StatusUnmatched means no reference item was found
	StatusUnmatched MatchStatus = "unmatched"
)

// Status thresholds on the absolute difference ratio
const (
	matchedRatio    = 0.1
	acceptableRatio = 0.3
)

// Per-item issue labels
const (
	IssueZeroAmount   = "zero-amount"
	IssueMissingPrice = "missing-price"
	IssueUnclearBasis = "unclear-basis"
)

// ItemResult is the verification outcome for one generated item
type ItemResult struct {
	// ItemName identifies the generated item
	ItemName string `json:"item_name"`

	// Generated is the item's amount after matching and rollup
	Generated decimal.Decimal `json:"generated"`

	// Reference is the matched reference item's amount, if any
	Reference *decimal.Decimal `json:"reference,omitempty"`

	// Difference is generated minus reference, when a reference was found
	Difference *decimal.Decimal `json:"difference,omitempty"`

	// DifferenceRatio is difference divided by reference. Nil when no
	// reference was found or the reference amount is zero; a zero reference
	// leaves the ratio undefined rather than faulting.
	DifferenceRatio *float64 `json:"difference_ratio,omitempty"`

	// Status classifies the difference
	Status MatchStatus `json:"status"`

	// Trace is the reconstructed calculation basis
	Trace trace.Trace `json:"trace"`

	// Issues flags problems detected on this item
	Issues []string `json:"issues,omitempty"`
}

// Summary carries corpus-level statistics
type Summary struct {
	TotalItems   int             `json:"total_items"`
	MatchedItems int             `json:"matched_items"`
	MatchRate    float64         `json:"match_rate"`
	Generated    decimal.Decimal `json:"generated_total"`
	Reference    decimal.Decimal `json:"reference_total"`

	// TotalDifference and TotalDifferenceRatio are nil when the reference
	// total is zero
	TotalDifference      *decimal.Decimal `json:"total_difference,omitempty"`
	TotalDifferenceRatio *float64         `json:"total_difference_ratio,omitempty"`

	IssueCount int `json:"issue_count"`
}

// Report is the full verification output for one run
type Report struct {
	// ID uniquely identifies the run
	ID string `json:"id"`

	// GeneratedAt is the report creation time
	GeneratedAt time.Time `json:"generated_at"`

	Summary Summary      `json:"summary"`
	Items   []ItemResult `json:"items"`

	// Metrics echoes the building metrics the trace stage consumed
	Metrics *types.BuildingMetrics `json:"metrics,omitempty"`

	// TradeTotals sums subtree-root amounts per trade
	TradeTotals map[types.Discipline]decimal.Decimal `json:"trade_totals,omitempty"`
}

// Verifier reconstructs calculation traces and scores a generated estimate
// against a reference one.
type Verifier struct {
	classifier *trace.Classifier
	workers    int
}

// NewVerifier creates a verifier over the given rule set. workers bounds the
// per-item trace fan-out; zero or negative means serial.
func NewVerifier(rs *rules.Set, workers int) *Verifier {
	if workers < 1 {
		workers = 1
	}
	return &Verifier{classifier: trace.NewClassifier(rs), workers: workers}
}

// refEntry is one indexed reference item. Slices keep document order so the
// fallback passes consume references deterministically.
type refEntry struct {
	key  string
	item *types.LineItem
}

// Verify traces every generated item and, when reference is non-empty,
// matches each against a reference item and scores the difference. The
// reference-consumption passes run sequentially because each consumed
// reference is marked used and must not be double-matched; the per-item
// traces then fan out across a bounded pool, each writing only its own slot.
func (v *Verifier) Verify(ctx context.Context, generated, reference []*types.LineItem, metrics *types.BuildingMetrics) *Report {
	tree, _ := rollup.Build(generated)

	refs := v.assignReferences(generated, reference)

	results := make([]ItemResult, len(generated))
	g := new(errgroup.Group)
	g.SetLimit(v.workers)

	for i, item := range generated {
		if ctx.Err() != nil {
			break
		}
		i, item := i, item
		hasChildren := len(tree.Nodes[i].Children) > 0
		g.Go(func() error {
			results[i] = v.verifyItem(item, refs[i], hasChildren, metrics)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Items:       results,
		Metrics:     metrics,
		TradeTotals: rollup.TradeTotals(generated),
	}
	report.Summary = summarize(results)

	logging.Info("verification complete",
		zap.String("report_id", report.ID),
		zap.Int("items", report.Summary.TotalItems),
		zap.Int("matched", report.Summary.MatchedItems),
		zap.Int("issues", report.Summary.IssueCount))

	return report
}

// assignReferences pairs each generated item with at most one reference item.
// Three passes per item: exact name|specification key, then name-only against
// unused references with the same specification, then partial containment
// against unused references. Consumed references are never matched twice.
func (v *Verifier) assignReferences(generated, reference []*types.LineItem) []*types.LineItem {
	assigned := make([]*types.LineItem, len(generated))
	if len(reference) == 0 {
		return assigned
	}

	index := make(map[string]*types.LineItem, len(reference))
	byName := make(map[string][]refEntry)
	var ordered []refEntry
	for _, item := range reference {
		if item.Name == "" {
			continue
		}
		entry := refEntry{key: refKey(item.Name, item.Specification), item: item}
		if _, exists := index[entry.key]; !exists {
			index[entry.key] = item
		}
		byName[item.Name] = append(byName[item.Name], entry)
		ordered = append(ordered, entry)
	}

	used := make(map[string]bool)

	for i, item := range generated {
		key := refKey(item.Name, item.Specification)

		if ref, ok := index[key]; ok {
			assigned[i] = ref
			continue
		}

		for _, candidate := range byName[item.Name] {
			if candidate.item.Specification == item.Specification && !used[candidate.key] {
				assigned[i] = candidate.item
				used[candidate.key] = true
				break
			}
		}
		if assigned[i] != nil {
			continue
		}

		for _, candidate := range ordered {
			if used[candidate.key] {
				continue
			}
			if !containsEither(item.Name, candidate.item.Name) {
				continue
			}
			if item.Specification == "" || candidate.item.Specification == "" ||
				containsEither(item.Specification, candidate.item.Specification) {
				assigned[i] = candidate.item
				used[candidate.key] = true
				break
			}
		}
	}

	return assigned
}

// verifyItem traces one item and scores it against its reference, if any
func (v *Verifier) verifyItem(item *types.LineItem, ref *types.LineItem, hasChildren bool, metrics *types.BuildingMetrics) ItemResult {
	result := ItemResult{
		ItemName:  item.Name,
		Generated: item.AmountOrZero(),
		Status:    StatusUnmatched,
		Trace:     v.classifier.Trace(item, hasChildren, metrics),
	}

	if ref != nil {
		refAmount := ref.AmountOrZero()
		result.Reference = &refAmount

		difference := result.Generated.Sub(refAmount)
		result.Difference = &difference

		if !refAmount.IsZero() {
			ratio, _ := difference.Div(refAmount).Float64()
			result.DifferenceRatio = &ratio

			abs := ratio
			if abs < 0 {
				abs = -abs
			}
			switch {
			case abs < matchedRatio:
				result.Status = StatusMatched
			case abs < acceptableRatio:
				result.Status = StatusAcceptable
			default:
				result.Status = StatusNeedsReview
				result.Issues = append(result.Issues,
					fmt.Sprintf("amount differs from reference by %+.1f%%", ratio*100))
			}
		}
	}

	if result.Generated.IsZero() {
		result.Issues = append(result.Issues, IssueZeroAmount)
	}
	if item.UnitPrice == nil && !hasChildren {
		result.Issues = append(result.Issues, IssueMissingPrice)
	}
	if result.Trace.Basis == trace.BasisUnknown {
		result.Issues = append(result.Issues, IssueUnclearBasis)
	}

	return result
}

// summarize computes the corpus-level statistics
func summarize(results []ItemResult) Summary {
	s := Summary{TotalItems: len(results)}

	for _, r := range results {
		s.Generated = s.Generated.Add(r.Generated)
		if r.Reference != nil {
			s.Reference = s.Reference.Add(*r.Reference)
		}
		if r.Status == StatusMatched || r.Status == StatusAcceptable {
			s.MatchedItems++
		}
		s.IssueCount += len(r.Issues)
	}

	if s.TotalItems > 0 {
		s.MatchRate = float64(s.MatchedItems) / float64(s.TotalItems)
	}
	if !s.Reference.IsZero() {
		diff := s.Generated.Sub(s.Reference)
		s.TotalDifference = &diff
		ratio, _ := diff.Div(s.Reference).Float64()
		s.TotalDifferenceRatio = &ratio
	}

	return s
}

func refKey(name, spec string) string {
	return strings.Trim(name+"|"+spec, "|")
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

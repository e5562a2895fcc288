package verify

import (
	"fmt"
	"sort"
	"strings"

	"estimate-engine/core/trace"
	"estimate-engine/core/types"
)

const reportRule = "======================================================================"
const itemRule = "----------------------------------------------------------------------"

// FormatText renders the report as a human-readable plain-text document:
// summary, building metrics, per-item derivations and a closing list of
// flagged items.
func FormatText(r *Report) string {
	var b strings.Builder

	b.WriteString(reportRule + "\n")
	b.WriteString("Estimate Verification Report\n")
	b.WriteString(reportRule + "\n")

	s := r.Summary
	b.WriteString("\nSummary\n")
	fmt.Fprintf(&b, "  Report ID:       %s\n", r.ID)
	fmt.Fprintf(&b, "  Total items:     %d\n", s.TotalItems)
	fmt.Fprintf(&b, "  Match rate:      %.1f%% (%d/%d)\n", s.MatchRate*100, s.MatchedItems, s.TotalItems)
	fmt.Fprintf(&b, "  Generated total: ¥%s\n", trace.FormatMoney(s.Generated))
	if !s.Reference.IsZero() {
		fmt.Fprintf(&b, "  Reference total: ¥%s\n", trace.FormatMoney(s.Reference))
		if s.TotalDifference != nil && s.TotalDifferenceRatio != nil {
			fmt.Fprintf(&b, "  Difference:      ¥%s (%+.1f%%)\n",
				trace.FormatMoney(*s.TotalDifference), *s.TotalDifferenceRatio*100)
		}
	}
	fmt.Fprintf(&b, "  Issues detected: %d\n", s.IssueCount)

	if r.Metrics != nil {
		b.WriteString("\nBuilding metrics\n")
		if r.Metrics.FloorAreaM2 != nil {
			fmt.Fprintf(&b, "  Floor area: %.0f m2\n", *r.Metrics.FloorAreaM2)
		}
		if r.Metrics.Floors != nil {
			fmt.Fprintf(&b, "  Floors:     %d\n", *r.Metrics.Floors)
		}
		if r.Metrics.RoomCount != nil {
			fmt.Fprintf(&b, "  Rooms:      %d\n", *r.Metrics.RoomCount)
		}
	}

	if len(r.TradeTotals) > 0 {
		b.WriteString("\nTrade totals\n")
		trades := make([]types.Discipline, 0, len(r.TradeTotals))
		for trade := range r.TradeTotals {
			trades = append(trades, trade)
		}
		sort.Slice(trades, func(i, j int) bool { return trades[i] < trades[j] })
		for _, trade := range trades {
			name := string(trade)
			if name == "" {
				name = "(untagged)"
			}
			fmt.Fprintf(&b, "  %-30s ¥%s\n", name, trace.FormatMoney(r.TradeTotals[trade]))
		}
	}

	b.WriteString("\nItem derivations\n")
	b.WriteString(itemRule + "\n")
	for _, item := range r.Items {
		fmt.Fprintf(&b, "\n* %s\n", item.ItemName)
		fmt.Fprintf(&b, "  Generated: ¥%s\n", trace.FormatMoney(item.Generated))
		if item.Reference != nil {
			fmt.Fprintf(&b, "  Reference: ¥%s (%s)\n", trace.FormatMoney(*item.Reference), item.Status)
		}
		fmt.Fprintf(&b, "  Basis:     %s\n", item.Trace.Basis)
		if item.Trace.Formula != "" {
			fmt.Fprintf(&b, "  Formula:   %s\n", item.Trace.Formula)
		}
		if item.Trace.KBReference != "" {
			fmt.Fprintf(&b, "  KB entry:  %s\n", item.Trace.KBReference)
		}
		if item.Trace.Notes != "" {
			fmt.Fprintf(&b, "  Notes:     %s\n", item.Trace.Notes)
		}
		fmt.Fprintf(&b, "  Trace confidence: %.0f%%\n", item.Trace.Confidence*100)
		if len(item.Issues) > 0 {
			fmt.Fprintf(&b, "  Issues:    %s\n", strings.Join(item.Issues, ", "))
		}
	}

	flagged := make([]ItemResult, 0)
	for _, item := range r.Items {
		if len(item.Issues) > 0 {
			flagged = append(flagged, item)
		}
	}
	if len(flagged) > 0 {
		b.WriteString("\n" + reportRule + "\n")
		b.WriteString("Flagged items\n")
		b.WriteString(reportRule + "\n")
		for _, item := range flagged {
			fmt.Fprintf(&b, "  - %s: %s\n", item.ItemName, strings.Join(item.Issues, ", "))
		}
	}

	return b.String()
}

// Package engine provides the API-primary estimation pipeline.
// CLI is a thin wrapper around this engine.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"estimate-engine/core/match"
	"estimate-engine/core/rollup"
	"estimate-engine/core/rules"
	"estimate-engine/core/types"
	"estimate-engine/core/verify"
	"estimate-engine/internal/errors"
	"estimate-engine/internal/logging"
)

// Engine runs the full pipeline: price matching, hierarchical rollup, item
// numbering and verification.
type Engine struct {
	rules  *rules.Set
	config match.Config
}

// NewEngine creates an engine over a rule set and matcher configuration
func NewEngine(rs *rules.Set, cfg match.Config) *Engine {
	return &Engine{rules: rs, config: cfg}
}

// RunRequest is the input to one pipeline run
type RunRequest struct {
	// Items is the ordered line-item sequence to price, mutated in place
	Items []*types.LineItem

	// KB is the knowledge-base snapshot, read-only for the run
	KB []*types.KBEntry

	// Reference is an optional reference estimate for verification
	Reference []*types.LineItem

	// Metrics is an optional building-metrics object for trace estimation
	Metrics *types.BuildingMetrics
}

// RunResult is the output of one pipeline run
type RunResult struct {
	// Items is the same sequence, now priced and rolled up
	Items []*types.LineItem

	// Report is the verification and trace report
	Report *verify.Report

	// Issues accumulates every per-item issue from matching and rollup
	Issues []types.Issue

	// Timing
	StartedAt time.Time
	Duration  time.Duration
}

// Run executes the pipeline. Matching fans out across items; rollup and
// numbering are sequential; verification traces fan out again. Every item
// failure is accumulated as an issue rather than aborting the run, so Run
// always returns a best-effort result for a valid request.
func (e *Engine) Run(ctx context.Context, req *RunRequest) (*RunResult, error) {
	start := time.Now()

	if req == nil || req.Items == nil {
		return nil, errors.Input("item sequence is required")
	}

	result := &RunResult{Items: req.Items, StartedAt: start.UTC()}

	matcher := match.NewMatcher(req.KB, e.rules, e.config)
	result.Issues = append(result.Issues, matcher.Enrich(ctx, req.Items)...)

	tree, hierarchyIssues := rollup.Build(req.Items)
	result.Issues = append(result.Issues, hierarchyIssues...)
	tree.Rollup()
	rollup.AssignNumbers(req.Items)

	verifier := verify.NewVerifier(e.rules, e.config.Workers)
	result.Report = verifier.Verify(ctx, req.Items, req.Reference, req.Metrics)

	result.Duration = time.Since(start)

	logging.Info("pipeline run complete",
		zap.Int("items", len(req.Items)),
		zap.Int("kb_entries", len(req.KB)),
		zap.Int("issues", len(result.Issues)),
		zap.Duration("duration", result.Duration))

	return result, nil
}

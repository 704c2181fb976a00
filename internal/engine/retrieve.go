package engine

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/dynamic-memory/internal/logging"
	"github.com/rcliao/dynamic-memory/internal/model"
	"github.com/rcliao/dynamic-memory/internal/prompt"
	"github.com/rcliao/dynamic-memory/internal/scoring"
)

// Retrieve returns up to topK memories ranked by composite score, most
// relevant first. memType restricts candidates when non-empty. Only the
// returned memories get their access bookkeeping updated.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int, memType model.Type) ([]model.Memory, error) {
	if topK <= 0 {
		return []model.Memory{}, nil
	}
	ranked, err := e.Rank(ctx, query, memType)
	if err != nil {
		return nil, err
	}

	top := scoring.Top(ranked, topK)
	if len(top) == 0 {
		return []model.Memory{}, nil
	}

	ids := make([]int64, len(top))
	for i, s := range top {
		ids[i] = s.Memory.ID
	}
	hits, err := e.store.Touch(ctx, ids, e.now())
	if err != nil {
		return nil, err
	}

	logging.FromCtx(ctx).Debug().Str("op", "retrieve").Int("candidates", len(ranked)).
		Int("returned", len(hits)).Msg("memories retrieved")
	return hits, nil
}

// Rank scores every candidate against query without touching access
// bookkeeping.
func (e *Engine) Rank(ctx context.Context, query string, memType model.Type) ([]scoring.Scored, error) {
	candidates := e.store.List(memType)
	if len(candidates) == 0 {
		return []scoring.Scored{}, nil
	}

	var rel []float64
	var err error
	if e.batch {
		rel, err = e.batchRelevance(ctx, query, candidates)
	} else {
		rel, err = e.relevance(ctx, query, candidates)
	}
	if err != nil {
		return nil, err
	}
	return scoring.Rank(candidates, rel), nil
}

// relevance issues one call per candidate with bounded concurrency.
// Unusable answers score 0.
func (e *Engine) relevance(ctx context.Context, query string, candidates []model.Memory) ([]float64, error) {
	rel := make([]float64, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, m := range candidates {
		i, m := i, m
		g.Go(func() error {
			out, err := e.ask(gctx, prompt.TaskRelevance, prompt.Vars{
				"query":       query,
				"memory":      m.Content,
				"memory_type": string(m.Type),
			})
			if err != nil {
				if structural(err) {
					return err
				}
				e.warn(ctx, "relevance", m.ID, err, "relevance call failed, scoring 0")
				return nil
			}
			score, ok := parseScore(out)
			if !ok {
				e.warn(ctx, "relevance", m.ID, nil, "unparsable relevance, scoring 0")
			}
			rel[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rel, nil
}

// batchRelevance scores all candidates in one call. Candidates the answer
// omits score 0.
func (e *Engine) batchRelevance(ctx context.Context, query string, candidates []model.Memory) ([]float64, error) {
	rel := make([]float64, len(candidates))

	var b strings.Builder
	for _, m := range candidates {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", m.ID, m.Type, oneLine(m.Content))
	}

	out, err := e.ask(ctx, prompt.TaskRelevanceBatch, prompt.Vars{
		"query":      query,
		"candidates": strings.TrimRight(b.String(), "\n"),
	})
	if err != nil {
		if structural(err) {
			return nil, err
		}
		e.warn(ctx, "relevance", 0, err, "batch relevance call failed, scoring all 0")
		return rel, nil
	}

	scores := parseBatchScores(out)
	for i, m := range candidates {
		score, ok := scores[m.ID]
		if !ok {
			e.warn(ctx, "relevance", m.ID, nil, "candidate missing from batch answer, scoring 0")
		}
		rel[i] = score
	}
	return rel, nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

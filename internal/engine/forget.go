package engine

import (
	"context"

	"github.com/rcliao/dynamic-memory/internal/logging"
	"github.com/rcliao/dynamic-memory/internal/model"
)

// ForgetRequest names what to remove. ID takes precedence over Strategy;
// a request with neither removes nothing.
type ForgetRequest struct {
	ID       *int64
	Strategy string
}

// Forget removes memories and returns the removed records. An id that is
// not present is not an error.
func (e *Engine) Forget(ctx context.Context, req ForgetRequest) ([]model.Memory, error) {
	if req.ID != nil {
		removed, err := e.store.Delete(ctx, []int64{*req.ID})
		if err != nil {
			return nil, err
		}
		e.logForget(ctx, "id", removed)
		return removed, nil
	}
	if req.Strategy == "" {
		return []model.Memory{}, nil
	}

	strategy, err := e.policies.Lookup(req.Strategy)
	if err != nil {
		return nil, err
	}

	now := e.now()
	removed, err := e.store.DeleteWhere(ctx, func(mems []model.Memory) []int64 {
		return strategy.Select(mems, now)
	})
	if err != nil {
		return nil, err
	}
	e.logForget(ctx, strategy.Name(), removed)
	return removed, nil
}

func (e *Engine) logForget(ctx context.Context, by string, removed []model.Memory) {
	logging.FromCtx(ctx).Debug().Str("op", "forget").Str("by", by).
		Int("removed", len(removed)).Msg("memories forgotten")
}

package view

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// Result is the outcome of loading one slot.
type Result[T any] struct {
	State    State
	Value    T
	HasValue bool
	// Stale is set when the fetch failed and Value is the copy committed
	// by an earlier successful load.
	Stale bool
	Err   error
}

// Failed reports whether the fetch ended in the error state.
func (r Result[T]) Failed() bool {
	return r.State == Error
}

// Pending returns the result of a slot that has started but not finished.
func Pending[T any]() Result[T] {
	return Result[T]{State: Loading}
}

// Load runs fetch for the slot at key.
//
// A successful fetch is returned as loaded and, if no newer generation has
// started meanwhile, replaces the slot's retained copy in full. A failed
// fetch is returned in the error state carrying the retained copy, if any.
// Store failures never fail the load; they are logged to the logger in ctx.
func Load[T any](ctx context.Context, s Store, key string, fetch func(context.Context) (T, error)) Result[T] {
	logger := zerolog.Ctx(ctx)

	gen, err := s.Begin(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("slot", key).Msg("view store begin failed")
	}

	v, fetchErr := fetch(ctx)
	if fetchErr != nil {
		res := Result[T]{State: Error, Err: fetchErr}
		if data, ok, err := s.Last(ctx, key); err != nil {
			logger.Warn().Err(err).Str("slot", key).Msg("view store read failed")
		} else if ok {
			if err := json.Unmarshal(data, &res.Value); err == nil {
				res.HasValue = true
				res.Stale = true
			}
		}
		return res
	}

	if gen != 0 {
		data, err := json.Marshal(v)
		if err != nil {
			logger.Warn().Err(err).Str("slot", key).Msg("view value not encodable")
		} else if committed, err := s.Commit(ctx, key, gen, data); err != nil {
			logger.Warn().Err(err).Str("slot", key).Msg("view store commit failed")
		} else if !committed {
			logger.Debug().Str("slot", key).Uint64("generation", gen).Msg("stale response discarded")
		}
	}

	return Result[T]{State: Loaded, Value: v, HasValue: true}
}

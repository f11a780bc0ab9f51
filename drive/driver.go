// Package drive couples a memo.Memo with a runner.Runner: each settled
// update dispatches the effects it produced.
package drive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rickb777/date/v2/timespan"
	"go.uber.org/zap"

	"github.com/on-the-ground/derive_ive_go/deriver"
	"github.com/on-the-ground/derive_ive_go/memo"
	"github.com/on-the-ground/derive_ive_go/runner"
)

type TimeSpan = timespan.TimeSpan

// Settlement describes one update of a Driver.
type Settlement[S, C, T any] struct {
	State    S
	Computed C
	// Effects holds the effects of this update in dispatch order.
	Effects []T
	// Span covers the derivation, excluding dispatch.
	Span TimeSpan
}

type config[S any] struct {
	logger *zap.Logger
	equal  deriver.Equality[S]
}

// Option configures a Driver.
type Option[S any] func(*config[S])

// WithLogger sets the logger of the Driver and of its Memo.
func WithLogger[S any](logger *zap.Logger) Option[S] {
	return func(c *config[S]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEquality sets the equality of the Memo fast path.
func WithEquality[S any](equal deriver.Equality[S]) Option[S] {
	return func(c *config[S]) {
		c.equal = equal
	}
}

// Driver owns one Memo lineage. Updates are serialized, and the effects of
// an update are dispatched before the next update starts, so effects reach
// the Runner in derivation order. It is safe for concurrent use.
type Driver[S, C any, T runner.Partitionable] struct {
	mu     sync.Mutex
	memo   memo.Memo[S, C, []T]
	runner *runner.Runner[T]
	logger *zap.Logger
}

// New seeds a Memo over node with initial and dispatches its first effects to r.
//
// The Driver does not own r: closing r is up to the caller. On a dispatch
// error the Driver is still returned, settled on initial.
func New[S, C any, T runner.Partitionable](
	ctx context.Context,
	initial S,
	node deriver.Node[S, C, T],
	r *runner.Runner[T],
	opts ...Option[S],
) (*Driver[S, C, T], Settlement[S, C, T], error) {
	cfg := config[S]{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	batched := deriver.MapEffects(node, func(effect T) []T { return []T{effect} })
	memoOpts := []memo.Option[S]{memo.WithLogger[S](cfg.logger)}
	if cfg.equal != nil {
		memoOpts = append(memoOpts, memo.WithEquality(cfg.equal))
	}

	start := time.Now()
	m, effects := memo.FromNode(initial, batched, memo.Concat[T](), memoOpts...)
	span := timespan.BetweenTimes(start, time.Now())

	d := &Driver[S, C, T]{
		memo:   m,
		runner: r,
		logger: cfg.logger,
	}
	settlement, err := d.dispatch(ctx, effects, span)
	return d, settlement, err
}

// SetState settles the Memo on state and dispatches the resulting effects.
//
// On a dispatch error the state is settled anyway; the error tells which
// effects may not have reached the Runner.
func (d *Driver[S, C, T]) SetState(ctx context.Context, state S) (Settlement[S, C, T], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.settle(ctx, func(m memo.Memo[S, C, []T]) (memo.Memo[S, C, []T], []T) {
		return m.SetState(state)
	})
}

// Update is SetState(ctx, f(State())), applied atomically.
func (d *Driver[S, C, T]) Update(ctx context.Context, f func(S) S) (Settlement[S, C, T], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.settle(ctx, func(m memo.Memo[S, C, []T]) (memo.Memo[S, C, []T], []T) {
		return m.Update(f)
	})
}

// State returns the last settled state.
func (d *Driver[S, C, T]) State() S {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.memo.State()
}

// Computed returns the output derived from State.
func (d *Driver[S, C, T]) Computed() C {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.memo.Computed()
}

func (d *Driver[S, C, T]) settle(
	ctx context.Context,
	step func(memo.Memo[S, C, []T]) (memo.Memo[S, C, []T], []T),
) (Settlement[S, C, T], error) {
	start := time.Now()
	next, effects := step(d.memo)
	span := timespan.BetweenTimes(start, time.Now())

	d.memo = next
	return d.dispatch(ctx, effects, span)
}

func (d *Driver[S, C, T]) dispatch(ctx context.Context, effects []T, span TimeSpan) (Settlement[S, C, T], error) {
	settlement := Settlement[S, C, T]{
		State:    d.memo.State(),
		Computed: d.memo.Computed(),
		Effects:  effects,
		Span:     span,
	}

	d.logger.Debug("settled",
		zap.String("memoId", d.memo.ID()),
		zap.Int("effects", len(effects)),
		zap.Duration("took", span.Duration()),
	)

	if len(effects) == 0 {
		return settlement, nil
	}
	if err := d.runner.Run(ctx, effects...); err != nil {
		return settlement, fmt.Errorf("dispatch %d effects of memo %s: %w", len(effects), d.memo.ID(), err)
	}
	return settlement, nil
}

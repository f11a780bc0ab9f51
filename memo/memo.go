package memo

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/on-the-ground/derive_ive_go/deriver"
)

// Memo pairs a state with the output derived from it.
//
// Build one with New or FromNode; the zero Memo is not usable.
type Memo[S, C, E any] struct {
	id       string
	state    S
	computed C
	node     deriver.Node[S, C, E]
	batch    Batcher[E]
	equal    deriver.Equality[S]
	logger   *zap.Logger
}

type options[S any] struct {
	equal  deriver.Equality[S]
	logger *zap.Logger
}

// Option configures a Memo.
type Option[S any] func(*options[S])

// WithEquality sets the equality used by the SetState fast path.
// For memos built with New it is also the equality of the underlying leaf.
func WithEquality[S any](equal deriver.Equality[S]) Option[S] {
	return func(o *options[S]) {
		if equal != nil {
			o.equal = equal
		}
	}
}

// WithLogger sets the logger receiving debug logs. Defaults to zap.NewNop().
func WithLogger[S any](logger *zap.Logger) Option[S] {
	return func(o *options[S]) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions[S any](opts []Option[S]) options[S] {
	o := options[S]{
		equal:  deriver.Shallow[S](),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds a Memo computing compute(state), recomputed only when the
// state changes. It emits no effects.
func New[S, C any](initial S, compute func(S) C, opts ...Option[S]) Memo[S, C, deriver.Unit] {
	o := newOptions(opts)
	node := deriver.Leaf[S, C, deriver.Unit](compute, deriver.WithCustomEquality(o.equal))
	m, _ := seed(initial, node, Discard[deriver.Unit](), o)
	return m
}

// FromNode builds a Memo over an existing node, stepping it once with
// initial. It returns the batched effects of that first step.
func FromNode[S, C, E any](initial S, node deriver.Node[S, C, E], batch Batcher[E], opts ...Option[S]) (Memo[S, C, E], E) {
	return seed(initial, node, batch, newOptions(opts))
}

func seed[S, C, E any](initial S, node deriver.Node[S, C, E], batch Batcher[E], o options[S]) (Memo[S, C, E], E) {
	next, computed, effects := deriver.Advance(node, initial)
	m := Memo[S, C, E]{
		id:       uuid.New().String(),
		state:    initial,
		computed: computed,
		node:     next,
		batch:    batch,
		equal:    o.equal,
		logger:   o.logger,
	}
	m.logger.Debug("memo seeded",
		zap.String("memoId", m.id),
		zap.Int("effects", len(effects)),
	)
	return m, batch(effects)
}

// SetState derives the output for state.
//
// When state equals the current state the Memo is returned as is, without
// stepping the node, along with the batch of no effects.
func (m Memo[S, C, E]) SetState(state S) (Memo[S, C, E], E) {
	if m.equal(state, m.state) {
		m.logger.Debug("memo state unchanged", zap.String("memoId", m.id))
		return m, m.batch(nil)
	}

	next, computed, effects := deriver.Advance(m.node, state)
	m.state = state
	m.computed = computed
	m.node = next

	m.logger.Debug("memo advanced",
		zap.String("memoId", m.id),
		zap.Int("effects", len(effects)),
	)
	return m, m.batch(effects)
}

// Update is SetState(f(m.State())).
func (m Memo[S, C, E]) Update(f func(S) S) (Memo[S, C, E], E) {
	return m.SetState(f(m.state))
}

// State returns the last accepted state.
func (m Memo[S, C, E]) State() S { return m.state }

// Computed returns the output derived from State.
func (m Memo[S, C, E]) Computed() C { return m.computed }

// Node returns the node remembering the current state, for callers that
// want to continue with deriver.Advance directly.
func (m Memo[S, C, E]) Node() deriver.Node[S, C, E] { return m.node }

// ID identifies the lineage this Memo belongs to.
func (m Memo[S, C, E]) ID() string { return m.id }

package deriver

import "github.com/on-the-ground/derive_ive_go/internal/table"

type config[T any] struct {
	equal Equality[T]
}

// Option configures how a leaf compares its inputs.
type Option[T any] func(*config[T])

func newConfig[T any](opts []Option[T]) config[T] {
	cfg := config[T]{equal: Shallow[T]()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithReferenceEquality makes the leaf compare inputs with Reference.
func WithReferenceEquality[T any]() Option[T] {
	return WithCustomEquality(Reference[T]())
}

// WithShallowEquality makes the leaf compare inputs with Shallow. This is the default.
func WithShallowEquality[T any]() Option[T] {
	return WithCustomEquality(Shallow[T]())
}

// WithDeepEquality makes the leaf compare inputs with Deep.
func WithDeepEquality[T any]() Option[T] {
	return WithCustomEquality(Deep[T]())
}

// WithCustomEquality makes the leaf compare inputs with equal.
// A nil equal keeps the current policy.
func WithCustomEquality[T any](equal Equality[T]) Option[T] {
	return func(cfg *config[T]) {
		if equal != nil {
			cfg.equal = equal
		}
	}
}

// Leaf builds a node that calls compute on its first step and whenever the
// input differs from the last one. It never emits effects.
func Leaf[I, O, E any](compute func(I) O, opts ...Option[I]) Node[I, O, E] {
	return leaf(func(input I) (O, []E) {
		return compute(input), nil
	}, newConfig(opts).equal)
}

// LeafWithEffect is Leaf for computations that also describe one effect per recomputation.
func LeafWithEffect[I, O, E any](compute func(I) (O, E), opts ...Option[I]) Node[I, O, E] {
	return leaf(func(input I) (O, []E) {
		output, effect := compute(input)
		return output, []E{effect}
	}, newConfig(opts).equal)
}

// EffectOnly builds a node with no meaningful output that emits one effect
// each time its input changes.
func EffectOnly[I, E any](compute func(I) E, opts ...Option[I]) Node[I, Unit, E] {
	return LeafWithEffect(func(input I) (Unit, E) {
		return Unit{}, compute(input)
	}, opts...)
}

// Constant builds a node reporting Changed once, without effects, and
// Unchanged on every later step.
func Constant[I, O, E any](output O) Node[I, O, E] {
	settled := Node[I, O, E]{step: func(I) Outcome[I, O, E] {
		return Unchanged[I, O, E]{Value: output}
	}}
	return Node[I, O, E]{step: func(I) Outcome[I, O, E] {
		return Changed[I, O, E]{Value: output, Next: settled}
	}}
}

// Tabled is Leaf backed by a bounded table of earlier results, so switching
// back to an input seen recently reuses its output instead of calling compute.
//
// Inputs must be comparable or implement fmt.Stringer; other inputs panic.
// The table keeps between maxTableSize and 2*maxTableSize entries and is
// shared by every successor of the returned node. maxTableSize must be
// greater than 0.
func Tabled[I, O, E any](compute func(I) O, maxTableSize uint32, opts ...Option[I]) Node[I, O, E] {
	results := table.New[O](maxTableSize)
	return Leaf[I, O, E](func(input I) O {
		key := table.Key(input)
		if output, ok := results.Load(key); ok {
			return output
		}
		output := compute(input)
		results.Store(key, output)
		return output
	}, opts...)
}

func leaf[I, O, E any](compute func(I) (O, []E), equal Equality[I]) Node[I, O, E] {
	return Node[I, O, E]{step: func(input I) Outcome[I, O, E] {
		return recompute(compute, equal, input)
	}}
}

func recompute[I, O, E any](compute func(I) (O, []E), equal Equality[I], input I) Outcome[I, O, E] {
	output, effects := compute(input)
	return Changed[I, O, E]{
		Value:   output,
		Effects: effects,
		Next:    remembered(compute, equal, input, output),
	}
}

// remembered is a leaf that has seen lastInput and produced lastOutput.
func remembered[I, O, E any](compute func(I) (O, []E), equal Equality[I], lastInput I, lastOutput O) Node[I, O, E] {
	return Node[I, O, E]{step: func(input I) Outcome[I, O, E] {
		if equal(input, lastInput) {
			return Unchanged[I, O, E]{Value: lastOutput}
		}
		return recompute(compute, equal, input)
	}}
}

// Package deriver provides persistent, incrementally recomputed derivations.
//
// A Node is a memoized computation from an input I to an output O that may
// emit effect descriptors of type E. Stepping a node with an input yields an
// Outcome: either Unchanged, carrying the cached output and no effects, or
// Changed, carrying the fresh output, the ordered effects of this
// recomputation and the successor node that remembers the new input.
//
// Nodes never mutate. A successor is a new value; the node you stepped is
// still valid and can be stepped again to replay the same point in history.
//
// # Composition
//
// Dependencies are wired explicitly by composing combinators:
//   - Leaf, LeafWithEffect, EffectOnly, Constant, Tabled build leaves.
//   - Selecting narrows the input a node depends on.
//   - Map transforms an output only when it changed.
//   - Map2 advances two branches on the same input (the diamond).
//   - Deriving and Add assemble records from independently cached branches.
//   - Chain feeds one node's output into another.
//   - ChainEffect and AddEffect attach effect-only nodes.
//   - MapEffects rewrites the effects a node emits.
//
// # Effect order
//
// Whenever two effect lists are merged, the one closer to the root (or the
// right branch of a Map2) comes first, followed by the one closer to the
// leaves (or the left branch). Chain(first, second) emits second's effects
// before first's; Map2(left, right, f) emits right's before left's.
//
// # Equality
//
// Every leaf decides whether an input changed with an Equality. The presets
// are Reference, Shallow, Deep and Comparable; Shallow is the default. Pick
// one per leaf with WithReferenceEquality, WithShallowEquality,
// WithDeepEquality or WithCustomEquality.
//
// WARNING: compute functions and equalities must be pure. An equality that
// reports two inputs equal must keep reporting structurally identical values
// equal, and may only do so when substituting one for the other would not
// change the computed output. Violations are not detected: they produce
// stale or redundant recomputation, never an error.
//
// Example:
//
//	square := deriver.LeafWithEffect(func(x int) (int, string) {
//	    return x * x, "squared"
//	})
//	node, out, effects := deriver.Advance(square, 3) // 9, ["squared"]
//	node, out, effects = deriver.Advance(node, 3)    // 9, []
package deriver

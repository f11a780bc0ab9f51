package deriver

import "fmt"

// Unit is the output of nodes that exist only for their effects.
type Unit = struct{}

// Node is a persistent memoized computation from I to O emitting effects of type E.
//
// The zero Node is not usable; build nodes with the constructors of this package.
type Node[I, O, E any] struct {
	step func(I) Outcome[I, O, E]
}

// Step advances the node with input and reports whether its output changed.
func (n Node[I, O, E]) Step(input I) Outcome[I, O, E] {
	if n.step == nil {
		panic("deriver: step on a zero Node")
	}
	return n.step(input)
}

// Outcome is a sealed interface: only Unchanged and Changed implement it.
type Outcome[I, O, E any] interface {
	// Output returns the current output of the stepped node.
	Output() O

	outcome()
}

var (
	_ Outcome[int, int, int] = Unchanged[int, int, int]{}
	_ Outcome[int, int, int] = Changed[int, int, int]{}
)

// Unchanged reports that the cached output is still valid.
// It carries no effects, and the stepped node remains the node to use next.
type Unchanged[I, O, E any] struct {
	Value O
}

func (u Unchanged[I, O, E]) Output() O { return u.Value }
func (Unchanged[I, O, E]) outcome()    {}

// Changed reports a recomputation: either the first step of a node, or an
// input that differed from the remembered one.
type Changed[I, O, E any] struct {
	Value O
	// Effects holds the effects of this recomputation in emission order. It may be empty.
	Effects []E
	// Next remembers the new input and output and must be used for the following step.
	Next Node[I, O, E]
}

func (c Changed[I, O, E]) Output() O { return c.Value }
func (Changed[I, O, E]) outcome()    {}

// Advance steps n with input and returns the node to use for the next step,
// the current output and the effects of this step.
//
// When the output is unchanged, the returned node is n itself and effects is nil.
func Advance[I, O, E any](n Node[I, O, E], input I) (Node[I, O, E], O, []E) {
	next, output, effects, _ := settle(n, input)
	return next, output, effects
}

// settle flattens an Outcome into its parts.
func settle[I, O, E any](n Node[I, O, E], input I) (Node[I, O, E], O, []E, bool) {
	switch o := n.Step(input).(type) {
	case Unchanged[I, O, E]:
		return n, o.Value, nil, false
	case Changed[I, O, E]:
		return o.Next, o.Value, o.Effects, true
	default:
		// Outcome is sealed, so this only happens with a nil outcome.
		panic(fmt.Sprintf("deriver: unrecognized outcome: %T", o))
	}
}

// concat joins two effect lists, placing later (closer to the root) before earlier.
func concat[E any](later, earlier []E) []E {
	switch {
	case len(later) == 0:
		return earlier
	case len(earlier) == 0:
		return later
	}
	out := make([]E, 0, len(later)+len(earlier))
	out = append(out, later...)
	return append(out, earlier...)
}

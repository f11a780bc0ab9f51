package deriver

// Selecting feeds inner with project(input) instead of input, so the result
// only recomputes when the projected part changes.
//
// project runs on every step and must be cheap and pure.
func Selecting[I, J, O, E any](project func(I) J, inner Node[J, O, E]) Node[I, O, E] {
	return Node[I, O, E]{step: func(input I) Outcome[I, O, E] {
		next, output, effects, changed := settle(inner, project(input))
		if !changed {
			return Unchanged[I, O, E]{Value: output}
		}
		return Changed[I, O, E]{
			Value:   output,
			Effects: effects,
			Next:    Selecting(project, next),
		}
	}}
}

// Map applies transform to inner's output. transform only runs when inner
// reports Changed, or on the first step if inner was already warm, in which
// case the result is Changed without effects.
func Map[I, A, B, E any](inner Node[I, A, E], transform func(A) B) Node[I, B, E] {
	return mapped(inner, transform, nil)
}

func mapped[I, A, B, E any](inner Node[I, A, E], transform func(A) B, last *B) Node[I, B, E] {
	return Node[I, B, E]{step: func(input I) Outcome[I, B, E] {
		next, a, effects, changed := settle(inner, input)
		if last != nil && !changed {
			return Unchanged[I, B, E]{Value: *last}
		}
		b := transform(a)
		return Changed[I, B, E]{
			Value:   b,
			Effects: effects,
			Next:    mapped(next, transform, &b),
		}
	}}
}

// Map2 steps left and right with the same input and merges their outputs
// with combine.
//
// The result is Changed when either side is, and combine only runs then.
// Effects are right's followed by left's. A side reporting Unchanged keeps
// its node, so each branch keeps its own memory and only changed branches
// do any work.
func Map2[I, L, R, O, E any](left Node[I, L, E], right Node[I, R, E], combine func(L, R) O) Node[I, O, E] {
	return combined(left, right, combine, nil)
}

func combined[I, L, R, O, E any](left Node[I, L, E], right Node[I, R, E], combine func(L, R) O, last *O) Node[I, O, E] {
	return Node[I, O, E]{step: func(input I) Outcome[I, O, E] {
		nextLeft, l, leftEffects, leftChanged := settle(left, input)
		nextRight, r, rightEffects, rightChanged := settle(right, input)
		if last != nil && !leftChanged && !rightChanged {
			return Unchanged[I, O, E]{Value: *last}
		}
		output := combine(l, r)
		return Changed[I, O, E]{
			Value:   output,
			Effects: concat(rightEffects, leftEffects),
			Next:    combined(nextLeft, nextRight, combine, &output),
		}
	}}
}

// Deriving lifts a curried constructor into a node whose output is the
// constructor itself. Feed it fields with Add:
//
//	stats := deriver.Add(deriver.Add(deriver.Deriving[In, func(A) func(B) Stats, E](newStats), a), b)
func Deriving[I, F, E any](constructor F) Node[I, F, E] {
	return Constant[I, F, E](constructor)
}

// Add applies the function accumulated in acc to next's output. It is Map2,
// so each added field keeps its own change detection and effects.
func Add[I, A, B, E any](acc Node[I, func(A) B, E], next Node[I, A, E]) Node[I, B, E] {
	return Map2(acc, next, func(apply func(A) B, a A) B {
		return apply(a)
	})
}

// Chain feeds first's output into second.
//
// When first is Unchanged, second is not stepped at all. When first is
// Changed, second is stepped with the new output and the result is Changed
// even if second reports Unchanged, so second always remembers the latest
// intermediate value. Effects are second's followed by first's.
func Chain[I, M, O, E any](first Node[I, M, E], second Node[M, O, E]) Node[I, O, E] {
	return chained(first, second, nil)
}

func chained[I, M, O, E any](first Node[I, M, E], second Node[M, O, E], last *O) Node[I, O, E] {
	return Node[I, O, E]{step: func(input I) Outcome[I, O, E] {
		nextFirst, m, firstEffects, firstChanged := settle(first, input)
		if last != nil && !firstChanged {
			return Unchanged[I, O, E]{Value: *last}
		}
		nextSecond, output, secondEffects, _ := settle(second, m)
		return Changed[I, O, E]{
			Value:   output,
			Effects: concat(secondEffects, firstEffects),
			Next:    chained(nextFirst, nextSecond, &output),
		}
	}}
}

// ChainEffect runs effect on inner's output whenever inner changes.
// inner's output passes through untouched.
func ChainEffect[I, O, E any](inner Node[I, O, E], effect Node[O, Unit, E]) Node[I, O, E] {
	return Chain(inner, tap(effect))
}

// tap steps effect with its input and outputs that input.
func tap[O, E any](effect Node[O, Unit, E]) Node[O, O, E] {
	return Node[O, O, E]{step: func(input O) Outcome[O, O, E] {
		next, _, effects, changed := settle(effect, input)
		if !changed {
			return Unchanged[O, O, E]{Value: input}
		}
		return Changed[O, O, E]{Value: input, Effects: effects, Next: tap(next)}
	}}
}

// AddEffect runs effect on the same input as inner. inner's output passes
// through untouched; effect's effects come before inner's.
func AddEffect[I, O, E any](inner Node[I, O, E], effect Node[I, Unit, E]) Node[I, O, E] {
	return Map2(inner, effect, func(output O, _ Unit) O {
		return output
	})
}

// MapEffects rewrites every effect inner emits with transform, keeping
// their order. Outputs and change detection are untouched.
func MapEffects[I, O, E, F any](inner Node[I, O, E], transform func(E) F) Node[I, O, F] {
	return Node[I, O, F]{step: func(input I) Outcome[I, O, F] {
		next, output, effects, changed := settle(inner, input)
		if !changed {
			return Unchanged[I, O, F]{Value: output}
		}
		var mappedEffects []F
		if len(effects) > 0 {
			mappedEffects = make([]F, len(effects))
			for i, effect := range effects {
				mappedEffects[i] = transform(effect)
			}
		}
		return Changed[I, O, F]{
			Value:   output,
			Effects: mappedEffects,
			Next:    MapEffects(next, transform),
		}
	}}
}

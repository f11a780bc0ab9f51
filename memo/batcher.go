package memo

// Batcher reduces the ordered effects of one update into a single effect.
// It must accept an empty list, which means nothing happened.
type Batcher[E any] func([]E) E

// Concat flattens effect batches in order. It returns nil for no effects.
func Concat[T any]() Batcher[[]T] {
	return func(batches [][]T) []T {
		var out []T
		for _, batch := range batches {
			out = append(out, batch...)
		}
		return out
	}
}

// Discard ignores effects and returns the zero value.
func Discard[E any]() Batcher[E] {
	return func([]E) E {
		var zero E
		return zero
	}
}

package deriver_test

import (
	"fmt"
	"testing"

	"github.com/on-the-ground/derive_ive_go/deriver"
)

func fib(n int) int {
	if n <= 1 {
		return n
	}
	return fib(n-1) + fib(n-2)
}

type order struct {
	Items  []string
	Amount int
	Note   string
}

func BenchmarkNaiveFib20(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = fib(20)
	}
}

func BenchmarkLeafFib20_SameInput(b *testing.B) {
	node := deriver.Leaf[int, int, string](fib)
	for i := 0; i < b.N; i++ {
		node, _, _ = deriver.Advance(node, 20)
	}
}

func BenchmarkLeafFib20_Alternating(b *testing.B) {
	node := deriver.Leaf[int, int, string](fib)
	for i := 0; i < b.N; i++ {
		node, _, _ = deriver.Advance(node, 19+i%2)
	}
}

func BenchmarkTabledFib20_Alternating(b *testing.B) {
	sizes := []uint32{1, 2, 8}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("TableSize_%d", size), func(b *testing.B) {
			node := deriver.Tabled[int, int, string](fib, size)
			for i := 0; i < b.N; i++ {
				node, _, _ = deriver.Advance(node, 19+i%2)
			}
		})
	}
}

func BenchmarkMap2_OneSideChanges(b *testing.B) {
	total := deriver.Map2(
		deriver.Selecting(func(o order) []string { return o.Items },
			deriver.Leaf[[]string, int, string](func(items []string) int { return fib(len(items) + 15) })),
		deriver.Selecting(func(o order) int { return o.Amount },
			deriver.Leaf[int, int, string](func(amount int) int { return amount * 2 })),
		func(l, r int) int { return l + r },
	)
	items := []string{"a", "b", "c"}

	b.Run("Shallow", func(b *testing.B) {
		node := total
		for i := 0; i < b.N; i++ {
			node, _, _ = deriver.Advance(node, order{Items: items, Amount: i})
		}
	})
}

func BenchmarkEquality(b *testing.B) {
	x := order{Items: []string{"a", "b", "c"}, Amount: 3, Note: "n"}
	y := order{Items: x.Items, Amount: 3, Note: "n"}

	presets := map[string]deriver.Equality[order]{
		"Reference": deriver.Reference[order](),
		"Shallow":   deriver.Shallow[order](),
		"Deep":      deriver.Deep[order](),
	}
	for name, equal := range presets {
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = equal(x, y)
			}
		})
	}
}

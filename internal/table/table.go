package table

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Table is a bounded memo table with two generations. Stores go to the head
// generation; once it holds maxSize entries the older generation is cleared
// and becomes the head. Loads check both.
type Table[O any] struct {
	generations [2]*sync.Map
	head        atomic.Uint32
	size        atomic.Uint32
	maxSize     uint32
}

func New[O any](maxSize uint32) *Table[O] {
	if maxSize == 0 {
		panic("maxSize should be greater than 0")
	}
	return &Table[O]{
		generations: [2]*sync.Map{{}, {}},
		maxSize:     maxSize,
	}
}

// Key turns a Stringer into its string so non-comparable inputs can still
// be tabled. Anything else is returned as is and must be comparable.
func Key(v any) any {
	if stringer, ok := v.(fmt.Stringer); ok {
		return stringer.String()
	}
	return v
}

func (t *Table[O]) Load(key any) (O, bool) {
	head := t.head.Load()
	if v, ok := t.generations[head].Load(key); ok {
		return v.(O), true
	}
	if v, ok := t.generations[1-head].Load(key); ok {
		return v.(O), true
	}
	var zero O
	return zero, false
}

// Store adds key to the head generation, rotating first when the head is full.
func (t *Table[O]) Store(key any, value O) {
	for {
		size := t.size.Load()
		if size < t.maxSize {
			if t.size.CompareAndSwap(size, size+1) {
				break
			}
			continue
		}
		if t.size.CompareAndSwap(size, 1) {
			next := 1 - t.head.Load()
			t.generations[next].Clear()
			t.head.Store(next)
			break
		}
	}
	t.generations[t.head.Load()].Store(key, value)
}

// Len counts the entries of both generations.
func (t *Table[O]) Len() int {
	n := 0
	for _, generation := range t.generations {
		generation.Range(func(_, _ any) bool {
			n++
			return true
		})
	}
	return n
}

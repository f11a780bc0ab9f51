// Package memo wraps a deriver.Node into a get/set value.
//
// A Memo holds the current state, the output computed from it and the node
// that remembers how it was computed. SetState and Update return a new Memo
// together with the effects of the update, reduced to a single value by the
// Batcher the Memo was built with:
//
//	m, _ := memo.FromNode("abc", node, memo.Concat[string]())
//	m, effects := m.SetState("abd")
//
// Setting a state equal to the current one (by the Memo's equality, Shallow
// by default) is a fast path: the node is not stepped and the Batcher is
// called with no effects. Otherwise the cost of an update is proportional
// to the branches of the node whose inputs changed.
//
// A Memo is a value. Keep the one returned by each call; the previous one
// still describes the previous state. Each Memo lineage carries an id, used
// as the memoId field of its debug logs.
package memo

package btree

// GetSortedKeyValues returns every pair in ascending key order.
func (t *Tree[K, V]) GetSortedKeyValues() []KeyValue[K, V] {
	sorted := make([]KeyValue[K, V], 0, t.length)
	t.Ascend(func(kv KeyValue[K, V]) bool {
		sorted = append(sorted, kv)
		return true
	})
	return sorted
}

// Ascend calls fn for each pair in ascending key order until fn returns false.
func (t *Tree[K, V]) Ascend(fn func(KeyValue[K, V]) bool) {
	if t.root == noNode {
		return
	}
	t.inOrderTraversal(t.root, fn)
}

/*
inOrderTraversal visits child i before pair i, and the last child after the last pair.
It returns false once fn has asked to stop.
*/
func (t *Tree[K, V]) inOrderTraversal(id nodeID, fn func(KeyValue[K, V]) bool) bool {
	n := t.arena.get(id)
	for i, kv := range n.keyValues {
		if !n.isLeaf() && !t.inOrderTraversal(n.children[i], fn) {
			return false
		}
		if !fn(kv) {
			return false
		}
	}
	if !n.isLeaf() {
		return t.inOrderTraversal(n.children[len(n.keyValues)], fn)
	}
	return true
}

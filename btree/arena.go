package btree

import "slices"

/*
arena owns every node of a tree. Nodes reference each other (children and parent)
only through nodeID indices into nodes. Released slots are nil and get reused.
*/
type arena[K, V any] struct {
	nodes []*node[K, V]
	free  []nodeID
	live  int
}

func (a *arena[K, V]) alloc(kvs ...KeyValue[K, V]) nodeID {
	n := &node[K, V]{parent: noNode}
	n.keyValues = append(n.keyValues, kvs...)
	a.live++
	if k := len(a.free); k > 0 {
		id := a.free[k-1]
		a.free = a.free[:k-1]
		a.nodes[id] = n
		return id
	}
	a.nodes = append(a.nodes, n)
	return nodeID(len(a.nodes) - 1)
}

func (a *arena[K, V]) release(id nodeID) {
	a.nodes[id] = nil
	a.free = append(a.free, id)
	a.live--
}

func (a *arena[K, V]) reset() {
	clear(a.nodes)
	a.nodes = a.nodes[:0]
	a.free = a.free[:0]
	a.live = 0
}

func (a *arena[K, V]) get(id nodeID) *node[K, V] {
	return a.nodes[id]
}

// insertChildAt attaches child to parent at pos and points the child back at parent.
func (a *arena[K, V]) insertChildAt(parent nodeID, pos int, child nodeID) {
	p := a.get(parent)
	p.children = slices.Insert(p.children, pos, child)
	a.get(child).parent = parent
}

// insertChild attaches child in key order among the parent's existing children,
// ordered by their first keys. child and every existing child must hold at least one key.
func (a *arena[K, V]) insertChild(parent, child nodeID, cmp func(a, b K) int) {
	pos, _ := slices.BinarySearchFunc(a.get(parent).children, a.get(child).firstKeyValue().Key,
		func(c nodeID, key K) int {
			return cmp(a.get(c).firstKeyValue().Key, key)
		})
	a.insertChildAt(parent, pos, child)
}

// removeChildAt detaches and returns the child at pos. The caller re-parents or releases it.
func (a *arena[K, V]) removeChildAt(parent nodeID, pos int) nodeID {
	p := a.get(parent)
	child := p.children[pos]
	p.children = slices.Delete(p.children, pos, pos+1)
	a.get(child).parent = noNode
	return child
}

/*
split cuts an overflown node at its median into a new right sibling and returns it.
The median pair stays as the last pair of id for the caller to promote;
children to the right of it move to the sibling along with their parent links.
*/
func (a *arena[K, V]) split(id nodeID) nodeID {
	n := a.get(id)
	mid := n.medianIndex()

	sibling := a.alloc(n.keyValues[mid+1:]...)
	clear(n.keyValues[mid+1:])
	n.keyValues = n.keyValues[:mid+1]

	// Except for leaf nodes, hand the right half of the child pointers over as well.
	if !n.isLeaf() {
		s := a.get(sibling)
		s.children = append(s.children, n.children[mid+1:]...)
		for _, c := range s.children {
			a.get(c).parent = sibling
		}
		clear(n.children[mid+1:])
		n.children = n.children[:mid+1]
	}
	return sibling
}

// indexAtParent returns the position of id in its parent's children, -1 for the root.
func (a *arena[K, V]) indexAtParent(id nodeID) int {
	n := a.get(id)
	if n.isRoot() {
		return -1
	}
	return slices.Index(a.get(n.parent).children, id)
}

func (a *arena[K, V]) hasLeftSibling(id nodeID) bool {
	return a.indexAtParent(id) > 0
}

func (a *arena[K, V]) leftSibling(id nodeID) nodeID {
	i := a.indexAtParent(id)
	if i <= 0 {
		return noNode
	}
	return a.get(a.get(id).parent).children[i-1]
}

func (a *arena[K, V]) hasRightSibling(id nodeID) bool {
	i := a.indexAtParent(id)
	return i >= 0 && i < len(a.get(a.get(id).parent).children)-1
}

func (a *arena[K, V]) rightSibling(id nodeID) nodeID {
	if !a.hasRightSibling(id) {
		return noNode
	}
	return a.get(a.get(id).parent).children[a.indexAtParent(id)+1]
}

// maxNode follows rightmost children down to the leaf holding the subtree's maximum key.
func (a *arena[K, V]) maxNode(id nodeID) nodeID {
	for n := a.get(id); !n.isLeaf(); n = a.get(id) {
		id = n.children[len(n.children)-1]
	}
	return id
}

func (a *arena[K, V]) maxKey(id nodeID) KeyValue[K, V] {
	return a.get(a.maxNode(id)).lastKeyValue()
}

func (a *arena[K, V]) minNode(id nodeID) nodeID {
	for n := a.get(id); !n.isLeaf(); n = a.get(id) {
		id = n.children[0]
	}
	return id
}

package btree

import "fmt"

// Delete removes key and reports whether it was present. A missing key leaves the tree unchanged.
func (t *Tree[K, V]) Delete(key K) bool {
	id, err := t.searchNode(t.root, key)
	if err != nil {
		return false
	}
	t.delete(id, key)
	t.length--
	t.stats.Deletes++
	return true
}

/*
delete removes key from id, which must contain it.
An internal key is replaced by its predecessor (the max key of its left subtree) and the
predecessor is then deleted from the leaf holding it, so removal always happens at a leaf.
*/
func (t *Tree[K, V]) delete(id nodeID, key K) {
	n := t.arena.get(id)

	if !n.isLeaf() {
		pos, _ := n.search(key, t.cmp)
		predecessorNode := t.arena.maxNode(n.children[pos])
		predecessor := t.arena.get(predecessorNode).lastKeyValue()

		n.removeKeyValueAt(pos)
		n.insertKeyValue(predecessor, t.cmp)

		t.delete(predecessorNode, predecessor.Key)
		return
	}

	// sibling lookups depend on positions that removal can invalidate, so capture them first.
	left, right, sepLeft, sepRight := t.siblingContext(id)

	if err := n.removeKey(key, t.cmp); err != nil {
		panic(fmt.Errorf("%w: leaf %d lost its key: %w", ErrInvariant, id, err))
	}

	if n.isEmpty() && n.isRoot() {
		t.arena.release(id)
		t.root = noNode
		return
	}
	if t.bounds.underflown(n.keyCount(), n.isRoot()) {
		t.rebalance(id, left, right, sepLeft, sepRight)
	}
}

/*
siblingContext returns the left and right siblings of id plus the indices of the
parent keys separating id from each of them. Missing siblings are noNode with index -1.
*/
func (t *Tree[K, V]) siblingContext(id nodeID) (left, right nodeID, sepLeft, sepRight int) {
	left, right, sepLeft, sepRight = noNode, noNode, -1, -1
	if t.arena.get(id).isRoot() {
		return
	}
	if t.arena.hasLeftSibling(id) {
		left = t.arena.leftSibling(id)
		sepLeft = t.arena.indexAtParent(left)
	}
	if t.arena.hasRightSibling(id) {
		right = t.arena.rightSibling(id)
		sepRight = t.arena.indexAtParent(id)
	}
	return
}

/*
rebalance repairs an underflown non-root node. Preference order:
rotate right (borrow from left), rotate left (borrow from right),
join with the right sibling, join with the left sibling.
Rotation settles the level; a join takes a key from the parent and may cascade upward.
*/
func (t *Tree[K, V]) rebalance(id, left, right nodeID, sepLeft, sepRight int) {
	for {
		n := t.arena.get(id)
		if !t.bounds.underflown(n.keyCount(), n.isRoot()) {
			return
		}

		// the parent keeps its position across a join below it, so its context can be taken now.
		pLeft, pRight, pSepLeft, pSepRight := t.siblingContext(n.parent)

		next := noNode
		switch {
		case left != noNode && t.bounds.minOneFull(t.arena.get(left).keyCount()):
			t.rotateRight(id, left, sepLeft)
			return
		case right != noNode && t.bounds.minOneFull(t.arena.get(right).keyCount()):
			t.rotateLeft(id, right, sepRight)
			return
		case right != noNode && t.bounds.minFull(t.arena.get(right).keyCount()):
			next = t.join(id, right, sepRight)
		case left != noNode && t.bounds.minFull(t.arena.get(left).keyCount()):
			next = t.join(left, id, sepLeft)
		}
		if next == noNode {
			return
		}
		id, left, right, sepLeft, sepRight = next, pLeft, pRight, pSepLeft, pSepRight
	}
}

/*
rotateRight moves the left sibling's max key up into the separator slot and the old
separator down into id. An internal sibling also hands over its rightmost child.
*/
func (t *Tree[K, V]) rotateRight(id, left nodeID, sep int) {
	n, l := t.arena.get(id), t.arena.get(left)
	p := t.arena.get(n.parent)

	n.insertKeyValue(p.keyValues[sep], t.cmp)
	p.keyValues[sep] = l.removeKeyValueAt(l.keyCount() - 1)

	if !l.isLeaf() {
		child := t.arena.removeChildAt(left, len(l.children)-1)
		t.arena.insertChildAt(id, 0, child)
	}
	t.stats.RotateRights++
	t.log.Debug("rotate right", "separator", p.keyValues[sep].Key)
}

// rotateLeft mirrors rotateRight, borrowing the right sibling's min key and leftmost child.
func (t *Tree[K, V]) rotateLeft(id, right nodeID, sep int) {
	n, r := t.arena.get(id), t.arena.get(right)
	p := t.arena.get(n.parent)

	n.insertKeyValue(p.keyValues[sep], t.cmp)
	p.keyValues[sep] = r.removeKeyValueAt(0)

	if !r.isLeaf() {
		child := t.arena.removeChildAt(right, 0)
		t.arena.insertChildAt(id, len(n.children), child)
	}
	t.stats.RotateLefts++
	t.log.Debug("rotate left", "separator", p.keyValues[sep].Key)
}

/*
join merges right and the parent key at sep into left and releases right.
It returns the parent, which lost a key and may now be underflown. When the parent was
the root and is left empty, left becomes the new root and noNode is returned.
*/
func (t *Tree[K, V]) join(left, right nodeID, sep int) nodeID {
	l, r := t.arena.get(left), t.arena.get(right)
	parent := l.parent
	p := t.arena.get(parent)

	l.keyValues = append(l.keyValues, p.removeKeyValueAt(sep))
	l.keyValues = append(l.keyValues, r.keyValues...)
	for _, c := range r.children {
		t.arena.insertChildAt(left, len(l.children), c)
	}
	t.arena.removeChildAt(parent, sep+1)
	t.arena.release(right)
	t.stats.Joins++

	if p.isRoot() && p.isEmpty() {
		t.arena.removeChildAt(parent, 0)
		t.arena.release(parent)
		t.root = left
		t.stats.RootCollapses++
		if t.debugEnabled() {
			t.log.Debug("root collapse", "height", t.Height())
		}
		return noNode
	}
	return parent
}

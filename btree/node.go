package btree

import (
	"fmt"
	"slices"
)

// nodeID indexes a node inside its tree's arena.
type nodeID int

const noNode nodeID = -1

type node[K, V any] struct {
	// sorted ascending by key, unique keys.
	keyValues []KeyValue[K, V]
	// for internal nodes len(children) == len(keyValues)+1. Leaves have none.
	children []nodeID
	// non-owning back-reference, noNode for the root.
	parent nodeID
}

func (n *node[K, V]) isLeaf() bool {
	return len(n.children) == 0
}

func (n *node[K, V]) isRoot() bool {
	return n.parent == noNode
}

func (n *node[K, V]) isEmpty() bool {
	return len(n.keyValues) == 0
}

func (n *node[K, V]) keyCount() int {
	return len(n.keyValues)
}

/*
If a pair with key is found in node n, return its index i.
Else, return the index j where the key would have resided if it was present in the node.
Basically, lower bound of the key in the node -- this coincides with position of the child pointer !!
So, we can continue the traversal down the tree if the returned boolean value is false.
*/
func (n *node[K, V]) search(key K, cmp func(a, b K) int) (int, bool) {
	low, high := 0, len(n.keyValues)
	for low < high {
		mid := (low + high) / 2
		c := cmp(key, n.keyValues[mid].Key)
		switch {
		case c > 0:
			low = mid + 1
		case c < 0:
			high = mid
		default:
			return mid, true
		}
	}
	return low, false
}

// insertKeyValue performs an ordered insert. Callers guarantee kv.Key is not present.
func (n *node[K, V]) insertKeyValue(kv KeyValue[K, V], cmp func(a, b K) int) int {
	pos, _ := n.search(kv.Key, cmp)
	n.keyValues = slices.Insert(n.keyValues, pos, kv)
	return pos
}

// removeKey removes the pair holding key and fails if the node does not contain it.
func (n *node[K, V]) removeKey(key K, cmp func(a, b K) int) error {
	pos, found := n.search(key, cmp)
	if !found {
		return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}
	n.removeKeyValueAt(pos)
	return nil
}

func (n *node[K, V]) removeKeyValueAt(pos int) KeyValue[K, V] {
	kv := n.keyValues[pos]
	n.keyValues = slices.Delete(n.keyValues, pos, pos+1)
	return kv
}

// medianIndex is where an overflown node is cut. Both halves stay within bounds.
func (n *node[K, V]) medianIndex() int {
	return len(n.keyValues) / 2
}

/*
keyValueToMoveUp returns the pair to promote after split.
split leaves the median as the last pair of the left half, so this does not remove it.
*/
func (n *node[K, V]) keyValueToMoveUp() KeyValue[K, V] {
	return n.keyValues[len(n.keyValues)-1]
}

func (n *node[K, V]) firstKeyValue() KeyValue[K, V] {
	return n.keyValues[0]
}

func (n *node[K, V]) lastKeyValue() KeyValue[K, V] {
	return n.keyValues[len(n.keyValues)-1]
}

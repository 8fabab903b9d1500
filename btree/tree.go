package btree

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

/*
Tree keeps the root of the tree and the arena that owns all of its nodes.
A tree is made up of nodes. Each node contains sorted key-value pairs.
*/
type Tree[K, V any] struct {
	degree int
	bounds bounds
	cmp    func(a, b K) int
	arena  arena[K, V]
	root   nodeID
	length int
	stats  Stats
	log    *slog.Logger
}

// New creates an empty tree ordered by compare, which must define a total order.
func New[K, V any](cfg Config, compare func(a, b K) int) (*Tree[K, V], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if compare == nil {
		return nil, errors.New("btree: nil comparator")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tree[K, V]{
		degree: cfg.MaxBranchingDegree,
		bounds: newBounds(cfg.MaxBranchingDegree),
		cmp:    compare,
		root:   noNode,
		log:    logger.With("component", "btree"),
	}, nil
}

// NewOrdered creates an empty tree for keys with a natural ordering.
func NewOrdered[K cmp.Ordered, V any](cfg Config) (*Tree[K, V], error) {
	return New[K, V](cfg, cmp.Compare[K])
}

// MustNew is like New but panics on an invalid configuration.
func MustNew[K, V any](cfg Config, compare func(a, b K) int) *Tree[K, V] {
	t, err := New[K, V](cfg, compare)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tree[K, V]) MaxBranchingDegree() int { return t.degree }
func (t *Tree[K, V]) MaxKeys() int { return t.bounds.maxKeys }
func (t *Tree[K, V]) MinKeys() int { return t.bounds.minKeys }

// Len returns the number of stored pairs.
func (t *Tree[K, V]) Len() int {
	return t.length
}

// Height returns the number of levels, 0 for an empty tree.
func (t *Tree[K, V]) Height() int {
	if t.root == noNode {
		return 0
	}
	h := 1
	for n := t.arena.get(t.root); !n.isLeaf(); n = t.arena.get(n.children[0]) {
		h++
	}
	return h
}

// debugEnabled guards debug records whose attributes walk the tree.
func (t *Tree[K, V]) debugEnabled() bool {
	return t.log.Enabled(context.Background(), slog.LevelDebug)
}

func (t *Tree[K, V]) String() string {
	return fmt.Sprintf("btree(degree=%d, len=%d, height=%d, nodes=%d)", t.degree, t.length, t.Height(), t.arena.live)
}

// Clear drops every node.
func (t *Tree[K, V]) Clear() {
	t.arena.reset()
	t.root = noNode
	t.length = 0
}

// Search returns the value stored under key, or an error wrapping ErrKeyNotFound.
func (t *Tree[K, V]) Search(key K) (V, error) {
	id, err := t.searchNode(t.root, key)
	if err != nil {
		var zero V
		return zero, err
	}
	n := t.arena.get(id)
	pos, _ := n.search(key, t.cmp)
	return n.keyValues[pos].Value, nil
}

func (t *Tree[K, V]) Contains(key K) bool {
	_, err := t.searchNode(t.root, key)
	return err == nil
}

// Min returns the pair with the smallest key.
func (t *Tree[K, V]) Min() (KeyValue[K, V], error) {
	if t.root == noNode {
		return KeyValue[K, V]{}, fmt.Errorf("%w: tree is empty", ErrKeyNotFound)
	}
	return t.arena.get(t.arena.minNode(t.root)).firstKeyValue(), nil
}

// Max returns the pair with the largest key.
func (t *Tree[K, V]) Max() (KeyValue[K, V], error) {
	if t.root == noNode {
		return KeyValue[K, V]{}, fmt.Errorf("%w: tree is empty", ErrKeyNotFound)
	}
	return t.arena.maxKey(t.root), nil
}

/*
searchNode returns the node containing key in the subtree rooted at root.
Within a node it binary searches; on a miss it descends into the child at the insertion point.
*/
func (t *Tree[K, V]) searchNode(root nodeID, key K) (nodeID, error) {
	for next := root; next != noNode; {
		n := t.arena.get(next)
		pos, found := n.search(key, t.cmp)
		if found {
			return next, nil
		}
		if pos >= len(n.children) {
			break
		}
		next = n.children[pos]
	}
	return noNode, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
}

// Insert stores a new pair. If the key already exists the tree is left unchanged and ErrDuplicateKey is returned.
func (t *Tree[K, V]) Insert(key K, value V) error {
	leaf, err := t.findLeafToInsertKey(t.root, key)
	if err != nil {
		return err
	}
	t.insertInLeaf(leaf, KeyValue[K, V]{Key: key, Value: value})
	t.length++
	t.stats.Inserts++
	return nil
}

/*
Starting from root, recursively descend to the leaf where key belongs.
Descend left of the first larger key, or into the rightmost child if key exceeds all keys in the node.
Meeting key anywhere on the way means it is already stored.
*/
func (t *Tree[K, V]) findLeafToInsertKey(root nodeID, key K) (nodeID, error) {
	if root == noNode {
		return noNode, nil
	}
	n := t.arena.get(root)
	pos, found := n.search(key, t.cmp)
	if found {
		return noNode, fmt.Errorf("%w: %v", ErrDuplicateKey, key)
	}
	if n.isLeaf() {
		return root, nil
	}
	return t.findLeafToInsertKey(n.children[pos], key)
}

// insertInLeaf creates the root for the first pair, otherwise inserts into leaf and repairs overflow.
func (t *Tree[K, V]) insertInLeaf(leaf nodeID, kv KeyValue[K, V]) {
	if leaf == noNode {
		t.root = t.arena.alloc(kv)
		return
	}
	t.arena.get(leaf).insertKeyValue(kv, t.cmp)
	t.splitRepair(leaf)
}

/*
splitRepair splits id while it is overflown and climbs toward the root.
The median goes up into the parent, which may overflow in turn.
Splitting the root grows the tree by one level.
*/
func (t *Tree[K, V]) splitRepair(id nodeID) {
	for t.bounds.overflown(t.arena.get(id).keyCount()) {
		sibling := t.arena.split(id)
		n := t.arena.get(id)
		up := n.keyValueToMoveUp()
		n.removeKeyValueAt(n.keyCount() - 1)
		t.stats.Splits++

		if n.isRoot() {
			root := t.arena.alloc(up)
			t.arena.insertChild(root, id, t.cmp)
			t.arena.insertChild(root, sibling, t.cmp)
			t.root = root
			t.stats.RootSplits++
			if t.debugEnabled() {
				t.log.Debug("root split", "height", t.Height(), "promoted", up.Key)
			}
			return
		}

		parent := n.parent
		t.arena.get(parent).insertKeyValue(up, t.cmp)
		t.arena.insertChild(parent, sibling, t.cmp)
		id = parent
	}
}

/*
GetMaxCapacity returns the maximum number of keys a tree with levelCount levels can hold:
the sum over levels l of (D-1) * D^l. A levelCount of zero or less yields 0, and a result
that would overflow int saturates at math.MaxInt.
*/
func (t *Tree[K, V]) GetMaxCapacity(levelCount int) int {
	total, nodes := 0, 1
	for l := 0; l < levelCount; l++ {
		if nodes > (math.MaxInt-total)/t.bounds.maxKeys {
			return math.MaxInt
		}
		total += t.bounds.maxKeys * nodes
		if l+1 < levelCount && nodes > math.MaxInt/t.degree {
			return math.MaxInt
		}
		nodes *= t.degree
	}
	return total
}

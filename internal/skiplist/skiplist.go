// Package skiplist is a probabilistic ordered map. Tests use it as an independent
// reference for the B-Tree's ordering and lookup behavior.
package skiplist

import (
	"math"
	"math/rand/v2"
)

const (
	MaxHeight = 16
	p         = 0.5
)

var probabilities [MaxHeight]uint32

func init() {
	probability := 1.0

	for level := 0; level < MaxHeight; level++ {
		probabilities[level] = uint32(probability * float64(math.MaxUint32))
		probability *= p
	}
}

type node[K, V any] struct {
	key   K
	val   V
	tower [MaxHeight]*node[K, V]
}

type SkipList[K, V any] struct {
	head   *node[K, V] // starting head node
	height int         // current height
	length int
	cmp    func(a, b K) int
	rng    *rand.Rand
}

// New creates an empty list ordered by cmp. seed makes tower heights reproducible.
func New[K, V any](cmp func(a, b K) int, seed uint64) *SkipList[K, V] {
	return &SkipList[K, V]{
		head:   &node[K, V]{},
		height: 1,
		cmp:    cmp,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (sl *SkipList[K, V]) randomHeight() int {
	seed := sl.rng.Uint32()

	height := 1
	for height < MaxHeight && seed <= probabilities[height] {
		height++
	}
	return height
}

func (sl *SkipList[K, V]) Len() int { return sl.length }

func (sl *SkipList[K, V]) search(key K) (*node[K, V], [MaxHeight]*node[K, V]) {
	var next *node[K, V]
	var journey [MaxHeight]*node[K, V]

	prev := sl.head
	// top to bottom level
	for level := sl.height - 1; level >= 0; level-- {
		for next = prev.tower[level]; next != nil; next = prev.tower[level] {
			// key <= next.key
			if sl.cmp(key, next.key) <= 0 {
				break
			}
			// key > next.key
			prev = next
		}
		journey[level] = prev
	}

	if next != nil && sl.cmp(key, next.key) == 0 {
		return next, journey
	}
	return nil, journey
}

func (sl *SkipList[K, V]) Get(key K) (V, bool) {
	n, _ := sl.search(key)

	if n != nil {
		return n.val, true
	}
	var zero V
	return zero, false
}

// Insert stores val under key and reports whether the key was new. An existing key gets its value replaced.
func (sl *SkipList[K, V]) Insert(key K, val V) bool {
	n, journey := sl.search(key)

	//update value of existing key
	if n != nil {
		n.val = val
		return false
	}

	height := sl.randomHeight()
	newNode := &node[K, V]{key: key, val: val}

	//bottom to top level
	for level := 0; level < height; level++ {
		prev := journey[level]
		if prev == nil {
			// prev is nil if we extend the height of the list,
			// journey won't have an entry for it.
			prev = sl.head
		}
		newNode.tower[level] = prev.tower[level]
		prev.tower[level] = newNode
	}

	if height > sl.height {
		sl.height = height
	}
	sl.length++
	return true
}

func (sl *SkipList[K, V]) shrink() {
	for level := sl.height - 1; level > 0; level-- {
		if sl.head.tower[level] == nil {
			sl.height--
		} else {
			break
		}
	}
}

func (sl *SkipList[K, V]) Delete(key K) bool {
	n, journey := sl.search(key)

	// no such key exists
	if n == nil {
		return false
	}

	//bottom to top level
	for level := 0; level < sl.height; level++ {
		prev := journey[level]

		if prev.tower[level] != n {
			break
		}

		prev.tower[level] = n.tower[level]
		n.tower[level] = nil
	}

	// shrink height if the removed node was the only one on its top levels.
	sl.shrink()
	sl.length--
	return true
}

// Keys returns every key in ascending order.
func (sl *SkipList[K, V]) Keys() []K {
	keys := make([]K, 0, sl.length)
	for n := sl.head.tower[0]; n != nil; n = n.tower[0] {
		keys = append(keys, n.key)
	}
	return keys
}

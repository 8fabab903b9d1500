package btree

import "fmt"

/*
Check verifies the structural invariants of the tree:
  - the root has no parent and every child points back at its parent
  - internal nodes have one more child than keys
  - every non-root node holds between MinKeys and MaxKeys keys
  - all leaves are at the same depth
  - the in-order traversal is strictly ascending and matches Len

Errors wrap ErrInvariant.
*/
func (t *Tree[K, V]) Check() error {
	if t.root == noNode {
		if t.length != 0 {
			return fmt.Errorf("%w: empty tree reports %d keys", ErrInvariant, t.length)
		}
		return nil
	}
	if p := t.arena.get(t.root).parent; p != noNode {
		return fmt.Errorf("%w: root %d has parent %d", ErrInvariant, t.root, p)
	}

	leafDepth := -1
	nodes := 0
	var walk func(id nodeID, depth int) error
	walk = func(id nodeID, depth int) error {
		nodes++
		n := t.arena.get(id)
		if n.isEmpty() {
			return fmt.Errorf("%w: node %d is empty", ErrInvariant, id)
		}
		if t.bounds.overflown(n.keyCount()) || t.bounds.underflown(n.keyCount(), n.isRoot()) {
			return fmt.Errorf("%w: node %d has %d keys, want [%d, %d]",
				ErrInvariant, id, n.keyCount(), t.bounds.minKeys, t.bounds.maxKeys)
		}
		if n.isLeaf() {
			if leafDepth == -1 {
				leafDepth = depth
			} else if depth != leafDepth {
				return fmt.Errorf("%w: leaf %d at depth %d, others at %d", ErrInvariant, id, depth, leafDepth)
			}
			return nil
		}
		if len(n.children) != n.keyCount()+1 {
			return fmt.Errorf("%w: node %d has %d keys and %d children",
				ErrInvariant, id, n.keyCount(), len(n.children))
		}
		for _, c := range n.children {
			if got := t.arena.get(c).parent; got != id {
				return fmt.Errorf("%w: child %d of node %d points at parent %d", ErrInvariant, c, id, got)
			}
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(t.root, 0); err != nil {
		return err
	}
	if nodes != t.arena.live {
		return fmt.Errorf("%w: %d reachable nodes, %d allocated", ErrInvariant, nodes, t.arena.live)
	}

	var (
		prev    K
		count   int
		ordered = true
	)
	t.Ascend(func(kv KeyValue[K, V]) bool {
		if count > 0 && t.cmp(prev, kv.Key) >= 0 {
			ordered = false
			return false
		}
		prev = kv.Key
		count++
		return true
	})
	if !ordered {
		return fmt.Errorf("%w: traversal not strictly ascending after %v", ErrInvariant, prev)
	}
	if count != t.length {
		return fmt.Errorf("%w: traversal yields %d keys, tree reports %d", ErrInvariant, count, t.length)
	}
	return nil
}

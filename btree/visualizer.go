package btree

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/xlab/treeprint"
)

/*
Visualizer renders the node hierarchy of a tree, one line per node.
Leaves are green, internal nodes cyan, and nodes outside their key bounds red.
*/
type Visualizer[K, V any] struct {
	Tree    *Tree[K, V]
	NoColor bool
}

func (v *Visualizer[K, V]) Visualize() string {
	t := v.Tree
	if t == nil || t.root == noNode {
		return "(empty)"
	}
	root := treeprint.NewWithRoot(v.label(t.root))
	v.addChildren(root, t.root)
	return strings.TrimRight(root.String(), "\n")
}

func (v *Visualizer[K, V]) addChildren(branch treeprint.Tree, id nodeID) {
	for _, c := range v.Tree.arena.get(id).children {
		if v.Tree.arena.get(c).isLeaf() {
			branch.AddNode(v.label(c))
			continue
		}
		v.addChildren(branch.AddBranch(v.label(c)), c)
	}
}

func (v *Visualizer[K, V]) label(id nodeID) string {
	t := v.Tree
	n := t.arena.get(id)

	keys := make([]string, len(n.keyValues))
	for i, kv := range n.keyValues {
		keys[i] = fmt.Sprint(kv.Key)
	}
	text := "[" + strings.Join(keys, " ") + "]"

	var c *color.Color
	switch {
	case t.bounds.overflown(n.keyCount()) || t.bounds.underflown(n.keyCount(), n.isRoot()):
		c = color.New(color.FgRed, color.Bold)
	case n.isLeaf():
		c = color.New(color.FgGreen)
	default:
		c = color.New(color.FgCyan)
	}
	if v.NoColor {
		c.DisableColor()
	}
	return c.Sprint(text)
}

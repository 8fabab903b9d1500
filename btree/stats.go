package btree

// Stats counts structural work done by a tree since it was created.
type Stats struct {
	Inserts       uint64
	Deletes       uint64
	Splits        uint64
	RootSplits    uint64
	RotateLefts   uint64
	RotateRights  uint64
	Joins         uint64
	RootCollapses uint64

	// point-in-time values
	Keys   int
	Nodes  int
	Height int
}

func (t *Tree[K, V]) Stats() Stats {
	s := t.stats
	s.Keys = t.length
	s.Nodes = t.arena.live
	s.Height = t.Height()
	return s
}

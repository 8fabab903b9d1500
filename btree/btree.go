/*
Package btree implements an in-memory B-Tree keyed by any type with a three-way comparator.

Nodes hold between minKeys and maxKeys sorted key-value pairs (the root may hold fewer).
Insertion splits overflown nodes bottom-up; deletion replaces internal keys with their
predecessor and repairs underflown leaves by rotation or join, which may cascade to the root.

A Tree is not safe for concurrent use. Guard it with a single mutex if it is shared.
*/
package btree

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	// MinBranchingDegree is the smallest accepted maximum number of children per node.
	MinBranchingDegree = 3
	// DefaultBranchingDegree is used by DefaultConfig.
	DefaultBranchingDegree = 4
)

var (
	// ErrInvalidDegree is returned when a tree is configured with degree < MinBranchingDegree.
	ErrInvalidDegree = errors.New("invalid branching degree")
	// ErrDuplicateKey is returned by Insert when the key is already stored. The tree is unchanged.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrKeyNotFound is returned by lookups that miss.
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvariant is wrapped by every error returned from Check.
	ErrInvariant = errors.New("btree invariant violated")
)

// Config holds construction options for a Tree.
type Config struct {
	// MaxBranchingDegree is the maximum number of children any node may have.
	MaxBranchingDegree int
	// Logger receives debug events for structural changes. Nil discards them.
	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{MaxBranchingDegree: DefaultBranchingDegree}
}

func (c Config) validate() error {
	if c.MaxBranchingDegree < MinBranchingDegree {
		return fmt.Errorf("%w: must be at least %d, got %d", ErrInvalidDegree, MinBranchingDegree, c.MaxBranchingDegree)
	}
	return nil
}

/*
bounds classifies nodes by key count.
maxKeys = D - 1 and minKeys = ceil(D/2) - 1 for branching degree D.
*/
type bounds struct {
	minKeys int
	maxKeys int
}

func newBounds(degree int) bounds {
	return bounds{
		minKeys: (degree+1)/2 - 1,
		maxKeys: degree - 1,
	}
}

func (b bounds) overflown(keyCount int) bool {
	return keyCount > b.maxKeys
}

// roots are allowed to underflow, including down to zero keys.
func (b bounds) underflown(keyCount int, isRoot bool) bool {
	return !isRoot && keyCount < b.minKeys
}

func (b bounds) minFull(keyCount int) bool {
	return keyCount == b.minKeys
}

// minOneFull reports whether a node can lend a key without underflowing.
func (b bounds) minOneFull(keyCount int) bool {
	return keyCount > b.minKeys
}

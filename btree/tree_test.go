package btree

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/go-faker/faker/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vchandela/btree/internal/skiplist"
)

func newIntTree(t *testing.T, degree int) *Tree[int, string] {
	t.Helper()
	tr, err := NewOrdered[int, string](Config{MaxBranchingDegree: degree})
	require.NoError(t, err)
	return tr
}

func insertAll(t *testing.T, tr *Tree[int, string], keys ...int) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, tr.Insert(k, fmt.Sprintf("v%d", k)))
		require.NoError(t, tr.Check(), "after inserting %d", k)
	}
}

func deleteAll(t *testing.T, tr *Tree[int, string], keys ...int) {
	t.Helper()
	for _, k := range keys {
		require.True(t, tr.Delete(k), "delete %d", k)
		require.NoError(t, tr.Check(), "after deleting %d", k)
	}
}

func sortedKeys(tr *Tree[int, string]) []int {
	keys := make([]int, 0, tr.Len())
	for _, kv := range tr.GetSortedKeyValues() {
		keys = append(keys, kv.Key)
	}
	return keys
}

// shape returns the keys of the root followed by the keys of each of its children.
func shape(tr *Tree[int, string]) [][]int {
	if tr.root == noNode {
		return nil
	}
	root := tr.arena.get(tr.root)
	out := [][]int{keysOf(root)}
	for _, c := range root.children {
		out = append(out, keysOf(tr.arena.get(c)))
	}
	return out
}

// scenarioA builds the degree 4 tree: [10 20] over [5 6 7] [12 17] [30].
func scenarioA(t *testing.T) *Tree[int, string] {
	t.Helper()
	tr := newIntTree(t, 4)
	insertAll(t, tr, 10, 20, 5, 6, 12, 30, 7, 17)
	return tr
}

func TestNewRejectsSmallDegree(t *testing.T) {
	for _, degree := range []int{-1, 0, 1, 2} {
		_, err := NewOrdered[int, string](Config{MaxBranchingDegree: degree})
		require.ErrorIs(t, err, ErrInvalidDegree, "degree %d", degree)
	}
	assert.Panics(t, func() {
		MustNew[int, string](Config{MaxBranchingDegree: 2}, cmp.Compare[int])
	})

	_, err := New[int, string](DefaultConfig(), nil)
	require.Error(t, err)

	tr, err := NewOrdered[int, string](DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultBranchingDegree, tr.MaxBranchingDegree())
	assert.Equal(t, 3, tr.MaxKeys())
	assert.Equal(t, 1, tr.MinKeys())
}

func TestInsertScenario(t *testing.T) {
	tr := scenarioA(t)

	assert.Equal(t, []int{5, 6, 7, 10, 12, 17, 20, 30}, sortedKeys(tr))
	assert.Equal(t, [][]int{{10, 20}, {5, 6, 7}, {12, 17}, {30}}, shape(tr))
	assert.Equal(t, 8, tr.Len())
	assert.Equal(t, 2, tr.Height())

	st := tr.Stats()
	assert.EqualValues(t, 8, st.Inserts)
	assert.EqualValues(t, 2, st.Splits)
	assert.EqualValues(t, 1, st.RootSplits)
	assert.Equal(t, 4, st.Nodes)
	assert.Equal(t, 8, st.Keys)
	assert.Equal(t, 2, st.Height)
}

func TestDeleteInternalKeyUsesPredecessor(t *testing.T) {
	tr := scenarioA(t)

	deleteAll(t, tr, 10)

	assert.Equal(t, []int{5, 6, 7, 12, 17, 20, 30}, sortedKeys(tr))
	assert.Equal(t, [][]int{{7, 20}, {5, 6}, {12, 17}, {30}}, shape(tr))
	_, err := tr.Search(10)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDeleteJoinsWithLeftSibling(t *testing.T) {
	tr := scenarioA(t)
	deleteAll(t, tr, 10, 17)
	require.Equal(t, [][]int{{7, 20}, {5, 6}, {12}, {30}}, shape(tr))

	// [30] has no right sibling and [12] cannot lend a key.
	deleteAll(t, tr, 30)

	assert.Equal(t, [][]int{{7}, {5, 6}, {12, 20}}, shape(tr))
	assert.Equal(t, []int{5, 6, 7, 12, 20}, sortedKeys(tr))
	st := tr.Stats()
	assert.EqualValues(t, 1, st.Joins)
	assert.EqualValues(t, 0, st.RotateLefts+st.RotateRights)
	assert.Equal(t, 3, st.Nodes)
}

func TestDeleteRotations(t *testing.T) {
	t.Run("RotateRightPreferred", func(t *testing.T) {
		tr := scenarioA(t)
		deleteAll(t, tr, 12, 17)

		assert.Equal(t, [][]int{{7, 20}, {5, 6}, {10}, {30}}, shape(tr))
		assert.EqualValues(t, 1, tr.Stats().RotateRights)
	})

	t.Run("RotateLeftWithoutLeftSibling", func(t *testing.T) {
		tr := scenarioA(t)
		deleteAll(t, tr, 5, 6, 7)

		assert.Equal(t, [][]int{{12, 20}, {10}, {17}, {30}}, shape(tr))
		assert.EqualValues(t, 1, tr.Stats().RotateLefts)
	})

	t.Run("JoinWithRightSibling", func(t *testing.T) {
		tr := scenarioA(t)
		deleteAll(t, tr, 5, 6, 7, 10)

		assert.Equal(t, [][]int{{20}, {12, 17}, {30}}, shape(tr))
		assert.EqualValues(t, 1, tr.Stats().Joins)
	})

	t.Run("RotateLeftWhenLeftIsMinimal", func(t *testing.T) {
		tr := scenarioA(t)
		insertAll(t, tr, 31)
		deleteAll(t, tr, 5, 6, 12)
		require.Equal(t, [][]int{{10, 20}, {7}, {17}, {30, 31}}, shape(tr))

		// [17] empties with a minimal left sibling and a right sibling that can lend.
		deleteAll(t, tr, 17)

		assert.Equal(t, [][]int{{10, 30}, {7}, {20}, {31}}, shape(tr))
		assert.EqualValues(t, 1, tr.Stats().RotateLefts)
		assert.EqualValues(t, 0, tr.Stats().RotateRights)
	})
}

func TestDeleteCascadesToRoot(t *testing.T) {
	tr := newIntTree(t, 3)
	keys := make([]int, 0, 15)
	for i := 1; i <= 15; i++ {
		keys = append(keys, i)
	}
	insertAll(t, tr, keys...)
	require.Equal(t, 4, tr.Height())

	deleteAll(t, tr, 1, 2, 3, 4)
	assert.Less(t, tr.Height(), 4)
	assert.Positive(t, tr.Stats().RootCollapses)
	assert.Equal(t, keys[4:], sortedKeys(tr))
}

func TestDuplicateKeyLeavesTreeUnchanged(t *testing.T) {
	tr := scenarioA(t)
	before := shape(tr)

	for _, k := range []int{10, 20, 5, 30} {
		err := tr.Insert(k, "other")
		require.ErrorIs(t, err, ErrDuplicateKey, "key %d", k)
	}

	assert.Equal(t, before, shape(tr))
	assert.Equal(t, 8, tr.Len())
	v, err := tr.Search(10)
	require.NoError(t, err)
	assert.Equal(t, "v10", v)
}

func TestSearch(t *testing.T) {
	tr := newIntTree(t, 4)
	_, err := tr.Search(1)
	require.ErrorIs(t, err, ErrKeyNotFound)

	insertAll(t, tr, 10, 20, 5, 6, 12, 30, 7, 17)
	for _, k := range []int{5, 6, 7, 10, 12, 17, 20, 30} {
		v, err := tr.Search(k)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("v%d", k), v)
		assert.True(t, tr.Contains(k))
	}
	for _, k := range []int{0, 8, 11, 25, 31} {
		_, err := tr.Search(k)
		require.ErrorIs(t, err, ErrKeyNotFound, "key %d", k)
		assert.False(t, tr.Contains(k))
	}
}

func TestDeleteMissingKeyIsIdempotent(t *testing.T) {
	tr := scenarioA(t)
	before := sortedKeys(tr)

	assert.False(t, tr.Delete(99))
	assert.False(t, tr.Delete(99))
	assert.Equal(t, before, sortedKeys(tr))
	assert.EqualValues(t, 0, tr.Stats().Deletes)

	empty := newIntTree(t, 4)
	assert.False(t, empty.Delete(1))
}

func TestGetMaxCapacity(t *testing.T) {
	tr := newIntTree(t, 4)
	assert.Equal(t, 0, tr.GetMaxCapacity(0))
	assert.Equal(t, 3, tr.GetMaxCapacity(1))
	assert.Equal(t, 15, tr.GetMaxCapacity(2))
	assert.Equal(t, 63, tr.GetMaxCapacity(3))

	tr3 := newIntTree(t, 3)
	insertAll(t, tr3, 1, 2, 3, 4, 5, 6, 7, 8)
	assert.LessOrEqual(t, tr3.Len(), tr3.GetMaxCapacity(tr3.Height()))
}

func TestGetMaxCapacityBounds(t *testing.T) {
	tr := newIntTree(t, 4)
	assert.Equal(t, 0, tr.GetMaxCapacity(-1))
	assert.Equal(t, 0, tr.GetMaxCapacity(math.MinInt))

	// with D=4 the capacity of L levels is 4^L - 1.
	if strconv.IntSize == 64 {
		assert.Equal(t, int64(1<<62-1), int64(tr.GetMaxCapacity(31)))
	}
	assert.Equal(t, math.MaxInt, tr.GetMaxCapacity(32))
	assert.Equal(t, math.MaxInt, tr.GetMaxCapacity(1000))
	assert.Equal(t, math.MaxInt, newIntTree(t, 1000).GetMaxCapacity(math.MaxInt))
}

func TestDebugLogging(t *testing.T) {
	growAndShrink := func(level slog.Level) string {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level}))
		tr, err := NewOrdered[int, string](Config{MaxBranchingDegree: 3, Logger: logger})
		require.NoError(t, err)
		insertAll(t, tr, 1, 2, 3)
		require.Equal(t, 2, tr.Height())
		deleteAll(t, tr, 3)
		require.Equal(t, 1, tr.Height())
		return buf.String()
	}

	out := growAndShrink(slog.LevelDebug)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `msg="root split"`)
	assert.Contains(t, lines[0], "height=2")
	assert.Contains(t, lines[0], "component=btree")
	assert.Contains(t, lines[1], `msg="root collapse"`)
	assert.Contains(t, lines[1], "height=1")

	assert.Empty(t, growAndShrink(slog.LevelInfo))
}

func TestDeleteFromLeafWithoutKeyPanicsWithInvariant(t *testing.T) {
	tr := newIntTree(t, 4)
	insertAll(t, tr, 1)

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		tr.delete(tr.root, 2)
	}()

	err, ok := recovered.(error)
	require.True(t, ok, "panic value %v is not an error", recovered)
	assert.True(t, errors.Is(err, ErrInvariant))
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestMinMaxAscend(t *testing.T) {
	tr := newIntTree(t, 5)
	_, err := tr.Min()
	require.ErrorIs(t, err, ErrKeyNotFound)
	_, err = tr.Max()
	require.ErrorIs(t, err, ErrKeyNotFound)

	insertAll(t, tr, 50, 40, 30, 20, 10, 60, 70, 80, 90)
	lo, err := tr.Min()
	require.NoError(t, err)
	assert.Equal(t, 10, lo.Key)
	hi, err := tr.Max()
	require.NoError(t, err)
	assert.Equal(t, 90, hi.Key)

	var seen []int
	tr.Ascend(func(kv KeyValue[int, string]) bool {
		seen = append(seen, kv.Key)
		return kv.Key < 40
	})
	assert.Equal(t, []int{10, 20, 30, 40}, seen)
}

func TestRoundTripEmptiesTree(t *testing.T) {
	tr := newIntTree(t, 4)
	r := rand.New(rand.NewPCG(7, 11))
	keys := r.Perm(200)
	insertAll(t, tr, keys...)

	r.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	deleteAll(t, tr, keys...)

	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 0, tr.Height())
	assert.Empty(t, tr.GetSortedKeyValues())
	assert.Equal(t, 0, tr.Stats().Nodes)

	// the tree is usable again after being emptied.
	insertAll(t, tr, 3, 1, 2)
	assert.Equal(t, []int{1, 2, 3}, sortedKeys(tr))
}

func TestRandomOperationsMatchReference(t *testing.T) {
	for degree := 3; degree <= 8; degree++ {
		t.Run(fmt.Sprintf("degree=%d", degree), func(t *testing.T) {
			tr := newIntTree(t, degree)
			r := rand.New(rand.NewPCG(uint64(degree), 42))
			ref := skiplist.New[int, string](cmp.Compare[int], uint64(degree))

			for i := 0; i < 2000; i++ {
				k := r.IntN(300)
				if r.IntN(3) == 0 {
					assert.Equal(t, ref.Delete(k), tr.Delete(k), "delete %d", k)
				} else {
					err := tr.Insert(k, fmt.Sprint(i))
					if _, present := ref.Get(k); present {
						require.ErrorIs(t, err, ErrDuplicateKey)
					} else {
						require.NoError(t, err)
						ref.Insert(k, fmt.Sprint(i))
					}
				}
				require.NoError(t, tr.Check(), "step %d", i)
			}

			assert.Equal(t, ref.Len(), tr.Len())
			assert.Equal(t, ref.Keys(), sortedKeys(tr))
			for _, k := range ref.Keys() {
				want, _ := ref.Get(k)
				got, err := tr.Search(k)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestCustomComparatorAndFakerKeys(t *testing.T) {
	reverse := func(a, b string) int { return strings.Compare(b, a) }
	tr, err := New[string, int](Config{MaxBranchingDegree: 5}, reverse)
	require.NoError(t, err)

	inserted := map[string]bool{}
	for i := 0; i < 300; i++ {
		word := faker.Word() + faker.Word()
		err := tr.Insert(word, i)
		if inserted[word] {
			require.ErrorIs(t, err, ErrDuplicateKey)
			continue
		}
		require.NoError(t, err)
		inserted[word] = true
	}
	require.NoError(t, tr.Check())
	require.Equal(t, len(inserted), tr.Len())

	got := tr.GetSortedKeyValues()
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i-1].Key, got[i].Key, "descending under the reversed comparator")
	}
}

func TestClear(t *testing.T) {
	tr := scenarioA(t)
	tr.Clear()

	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 0, tr.Height())
	require.NoError(t, tr.Check())
	insertAll(t, tr, 1)
	assert.Equal(t, 1, tr.Stats().Nodes)
}

func TestString(t *testing.T) {
	tr := scenarioA(t)
	assert.Equal(t, "btree(degree=4, len=8, height=2, nodes=4)", tr.String())
}

package datastructure

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinHeapExtractsInOrder(t *testing.T) {
	for _, d := range []int{2, 4} {
		h := NewdAryHeap[int](d)
		rng := rand.New(rand.NewSource(7))
		ranks := make([]float64, 200)
		for i := range ranks {
			ranks[i] = float64(rng.Intn(50))
			h.Insert(NewPriorityQueueNode(ranks[i], i))
		}
		sort.Float64s(ranks)

		for _, want := range ranks {
			got, err := h.ExtractMin()
			require.NoError(t, err)
			assert.Equal(t, want, got.GetRank())
		}
		assert.True(t, h.IsEmpty())
	}
}

func TestMinHeapTieBreakIsInsertionOrder(t *testing.T) {
	h := NewFourAryHeap[string]()
	for _, id := range []string{"d", "a", "c", "b", "e"} {
		h.Insert(NewPriorityQueueNode(1.0, id))
	}

	order := make([]string, 0, 5)
	for !h.IsEmpty() {
		n, err := h.ExtractMin()
		require.NoError(t, err)
		order = append(order, n.GetItem())
	}
	assert.Equal(t, []string{"d", "a", "c", "b", "e"}, order)
}

func TestMinHeapDecreaseKey(t *testing.T) {
	h := NewFourAryHeap[string]()
	a := NewPriorityQueueNode(5.0, "a")
	b := NewPriorityQueueNode(3.0, "b")
	c := NewPriorityQueueNode(4.0, "c")
	h.Insert(a)
	h.Insert(b)
	h.Insert(c)

	require.NoError(t, h.DecreaseKey(a, 1.0))
	assert.Error(t, h.DecreaseKey(b, 10.0))

	top, err := h.GetMin()
	require.NoError(t, err)
	assert.Equal(t, "a", top.GetItem())
	assert.Equal(t, 1.0, h.GetMinrank())

	_, _ = h.ExtractMin()
	assert.Error(t, h.DecreaseKey(a, 0.5))
}

func TestMinHeapEmpty(t *testing.T) {
	h := NewBinaryHeap[int]()
	_, err := h.ExtractMin()
	assert.ErrorIs(t, err, ErrHeapEmpty)
	_, err = h.GetMin()
	assert.ErrorIs(t, err, ErrHeapEmpty)
	assert.Greater(t, h.GetMinrank(), 1e15)
}

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solo(id, singer string) ShuffleItem {
	return ShuffleItem{ID: id, Singers: []string{singer}}
}

func TestFairOrder_Empty(t *testing.T) {
	assert.Nil(t, FairOrder(nil))
	assert.Nil(t, FairOrder([]ShuffleItem{}))
}

func TestFairOrder_SingleSingerKeepsOrder(t *testing.T) {
	items := []ShuffleItem{
		solo("a1", "A"),
		solo("a2", "A"),
		solo("a3", "A"),
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, FairOrder(items))
}

func TestFairOrder_TwoSingersInterleave(t *testing.T) {
	// [A,A,B,B] must come out [A,B,A,B]
	items := []ShuffleItem{
		solo("a1", "A"),
		solo("a2", "A"),
		solo("b1", "B"),
		solo("b2", "B"),
	}
	assert.Equal(t, []string{"a1", "b1", "a2", "b2"}, FairOrder(items))
}

func TestFairOrder_DuetWaitsForSlowestSinger(t *testing.T) {
	// Singer sets [{A},{P},{A,P},{P},{A},{P,T}]: the duet ap waits until
	// both A and P are equally due; pt goes early because T is brand new.
	items := []ShuffleItem{
		solo("a1", "A"),
		solo("p1", "P"),
		{ID: "ap", Singers: []string{"A", "P"}},
		solo("p2", "P"),
		solo("a2", "A"),
		{ID: "pt", Singers: []string{"P", "T"}},
	}
	assert.Equal(t, []string{"a1", "p1", "pt", "a2", "ap", "p2"}, FairOrder(items))
}

func TestFairOrder_Deterministic(t *testing.T) {
	items := []ShuffleItem{
		solo("a1", "A"),
		{ID: "u1"},
		solo("b1", "B"),
		{ID: "ab", Singers: []string{"A", "B"}},
		solo("a2", "A"),
		{ID: "u2"},
		solo("b2", "B"),
	}

	first := FairOrder(items)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FairOrder(items))
	}
}

func TestFairOrder_UnassignedItemsAreIndependent(t *testing.T) {
	// Unassigned items are each their own pseudo-singer, so they never
	// throttle one another the way repeated items of one singer do.
	items := []ShuffleItem{
		{ID: "u1"},
		{ID: "u2"},
		solo("a1", "A"),
		solo("a2", "A"),
	}
	order := FairOrder(items)
	require.Len(t, order, 4)
	assert.Equal(t, []string{"u1", "u2", "a1", "a2"}, order)
}

func TestFairOrder_TieBreaksOnInputPosition(t *testing.T) {
	// Three distinct singers, all equally due at every step: input order wins.
	items := []ShuffleItem{
		solo("c1", "C"),
		solo("b1", "B"),
		solo("a1", "A"),
	}
	assert.Equal(t, []string{"c1", "b1", "a1"}, FairOrder(items))
}

func TestFairOrder_PreservesAllItems(t *testing.T) {
	items := []ShuffleItem{
		solo("a1", "A"), solo("b1", "B"), solo("a2", "A"),
		{ID: "ab", Singers: []string{"A", "B"}},
		solo("b2", "B"), {ID: "u1"}, solo("a3", "A"),
	}
	order := FairOrder(items)
	require.Len(t, order, len(items))

	seen := make(map[string]bool, len(order))
	for _, id := range order {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	for _, item := range items {
		assert.True(t, seen[item.ID], "missing id %s", item.ID)
	}
}

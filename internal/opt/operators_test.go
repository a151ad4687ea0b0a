package opt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedCrossoverKeepsSliceAndOrder(t *testing.T) {
	p1 := []int{0, 1, 2, 3, 4, 5, 6, 7}
	p2 := []int{7, 6, 5, 4, 3, 2, 1, 0}
	c1 := oxChild(p1, p2, 2, 4)
	// donor slice 5,4,3 at 2..4; the rest of p1 in order from position 5 wrapping
	assert.Equal(t, []int{1, 2, 5, 4, 3, 6, 7, 0}, c1)
	assert.True(t, Valid(c1, 8))
}

func TestOrderedCrossoverLeavesParents(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p1 := []int{3, 1, 0, 2}
	p2 := []int{0, 1, 2, 3}
	c1, c2 := OrderedCrossover(rng, p1, p2)
	assert.Equal(t, []int{3, 1, 0, 2}, p1)
	assert.Equal(t, []int{0, 1, 2, 3}, p2)
	assert.True(t, Valid(c1, 4))
	assert.True(t, Valid(c2, 4))
}

func TestShuffleIndexesAlwaysMovesAtFullRate(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	perm := []int{0, 1}
	assert.True(t, ShuffleIndexes(rng, perm, 1))
	assert.True(t, Valid(perm, 2))

	single := []int{0}
	assert.False(t, ShuffleIndexes(rng, single, 1))
}

func TestTournamentPicksCheapest(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	costs := []float64{5, 1, 9, 3}
	// a tournament as large as the population almost surely samples index 1
	wins := 0
	for i := 0; i < 200; i++ {
		if Tournament(rng, costs, 64) == 1 {
			wins++
		}
	}
	assert.Equal(t, 200, wins)

	picks := SelectTournament(rng, costs, 3, 10)
	require.Len(t, picks, 10)
	for _, p := range picks {
		assert.True(t, p >= 0 && p < len(costs))
	}
	assert.Equal(t, 0, Tournament(rng, []float64{7}, 3))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid([]int{}, 0))
	assert.False(t, Valid([]int{0, 0}, 2))
	assert.False(t, Valid([]int{0, 2}, 2))
	assert.False(t, Valid([]int{0}, 2))
}

func FuzzOperatorsPreservePermutation(f *testing.F) {
	f.Add(int64(1), uint8(8), 0.05)
	f.Add(int64(99), uint8(2), 1.0)
	f.Add(int64(-3), uint8(0), 0.5)
	f.Fuzz(func(t *testing.T, seed int64, size uint8, indpb float64) {
		n := int(size)
		rng := rand.New(rand.NewSource(seed))
		p1, p2 := RandomPermutation(rng, n), RandomPermutation(rng, n)
		c1, c2 := OrderedCrossover(rng, p1, p2)
		if !Valid(c1, n) || !Valid(c2, n) {
			t.Fatalf("crossover broke permutation: %v %v from %v %v", c1, c2, p1, p2)
		}
		ShuffleIndexes(rng, c1, indpb)
		if !Valid(c1, n) {
			t.Fatalf("mutation broke permutation: %v", c1)
		}
	})
}

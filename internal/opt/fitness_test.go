package opt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"cdsplan/internal/model"
)

func TestEvaluatorCost(t *testing.T) {
	rows := []model.ContainerDetail{
		{Weight: 100, Length: 2, Width: 3, Location: "1,4"},
		{Weight: 50, Length: 1, Width: 1, Location: "bay-1"},
		{Weight: 10, Location: " 7 , 2 "},
	}
	ev := NewEvaluator(rows, nil)
	// weights 160, footprint 7, imbalance 3*100 + 5*10
	assert.Equal(t, 160.0+7+350, ev.Cost([]int{0, 1, 2}))
	assert.Equal(t, Breakdown{Weight: 160, Footprint: 7, Imbalance: 350}, ev.Breakdown([]int{2, 0, 1}))
}

func TestEvaluatorObjectives(t *testing.T) {
	rows := []model.ContainerDetail{{Weight: 100, Length: 2, Width: 3, Location: "1,4"}}
	assert.Equal(t, 6.0, NewEvaluator(rows, map[string]float64{ObjWeight: 0, ObjImbalance: 0}).Cost([]int{0}))
	assert.Equal(t, 200.0+6+300, NewEvaluator(rows, map[string]float64{ObjWeight: 2}).Cost([]int{0}))
}

func TestImbalance(t *testing.T) {
	cases := []struct {
		loc  string
		want int
		ok   bool
	}{
		{"3,1", 2, true},
		{"-2,2", 4, true},
		{"1,2,3", 0, false},
		{"0101", 0, false},
		{"1:2:3", 0, false},
		{"a,1", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := Imbalance(tc.loc)
		assert.Equal(t, tc.want, got, tc.loc)
		assert.Equal(t, tc.ok, ok, tc.loc)
	}
}

func TestCostNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	rows := make([]model.ContainerDetail, 30)
	for i := range rows {
		rows[i] = model.ContainerDetail{
			Weight:   rng.Float64() * 30000,
			Length:   rng.Float64() * 13,
			Width:    rng.Float64() * 3,
			Location: []string{"1,9", "9,1", "x", "4,4"}[rng.Intn(4)],
		}
	}
	ev := NewEvaluator(rows, nil)
	for i := 0; i < 50; i++ {
		assert.GreaterOrEqual(t, ev.Cost(RandomPermutation(rng, len(rows))), 0.0)
	}
}

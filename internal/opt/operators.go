package opt

import "math/rand"

// RandomPermutation returns a uniformly random ordering of 0..n-1.
func RandomPermutation(rng *rand.Rand, n int) []int {
	return rng.Perm(n)
}

// Valid reports whether perm holds each of 0..n-1 exactly once.
func Valid(perm []int, n int) bool {
	if len(perm) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range perm {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// OrderedCrossover is OX1 on two parents of equal length. A random slice
// [a,b] is exchanged between the parents and each child fills its remaining
// positions, starting after b and wrapping, with its own parent's genes in
// their original order. Parents are left untouched.
func OrderedCrossover(rng *rand.Rand, p1, p2 []int) ([]int, []int) {
	n := len(p1)
	if n < 2 || len(p2) != n {
		return append([]int(nil), p1...), append([]int(nil), p2...)
	}
	a, b := rng.Intn(n), rng.Intn(n-1)
	if b >= a {
		b++
	}
	if a > b {
		a, b = b, a
	}
	return oxChild(p1, p2, a, b), oxChild(p2, p1, a, b)
}

func oxChild(keep, donor []int, a, b int) []int {
	n := len(keep)
	child := make([]int, n)
	taken := make([]bool, n)
	for i := a; i <= b; i++ {
		child[i] = donor[i]
		taken[donor[i]] = true
	}
	k := (b + 1) % n
	for i := 0; i < n; i++ {
		v := keep[(b+1+i)%n]
		if taken[v] {
			continue
		}
		child[k] = v
		k = (k + 1) % n
	}
	return child
}

// ShuffleIndexes swaps each position, with probability indpb, with another
// position drawn uniformly from the rest. perm is modified in place and the
// return value reports whether anything moved.
func ShuffleIndexes(rng *rand.Rand, perm []int, indpb float64) bool {
	n := len(perm)
	if n < 2 {
		return false
	}
	moved := false
	for i := 0; i < n; i++ {
		if rng.Float64() >= indpb {
			continue
		}
		j := rng.Intn(n - 1)
		if j >= i {
			j++
		}
		perm[i], perm[j] = perm[j], perm[i]
		moved = true
	}
	return moved
}

// Tournament samples k entrants with replacement and returns the index of the
// cheapest. The earliest drawn entrant wins ties.
func Tournament(rng *rand.Rand, costs []float64, k int) int {
	best := rng.Intn(len(costs))
	for i := 1; i < k; i++ {
		c := rng.Intn(len(costs))
		if costs[c] < costs[best] {
			best = c
		}
	}
	return best
}

// SelectTournament draws count parents by repeated tournaments.
func SelectTournament(rng *rand.Rand, costs []float64, k, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = Tournament(rng, costs, k)
	}
	return out
}

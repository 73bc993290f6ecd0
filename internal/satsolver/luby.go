package satsolver

// luby computes the base-2 Luby restart sequence value at 0-based index x:
// 1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8, ...
// used as a multiplier on the base restart interval (standard MiniSat-style
// restart policy referenced by spec.md §4.5 step 4).
func luby(x int) int {
	size, seq := 1, 0
	for size < x+1 {
		seq++
		size = 2*size + 1
	}
	for size-1 != x {
		size = (size - 1) / 2
		seq--
		x = x % size
	}
	result := 1
	for i := 0; i < seq; i++ {
		result *= 2
	}
	return result
}

// lubyGen is a stateful generator over the luby sequence, 1-indexed.
type lubyGen struct{ n int }

func newLubyGen() *lubyGen { return &lubyGen{n: 0} }

func (g *lubyGen) next() int {
	g.n++
	return luby(g.n)
}

package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-verify/combeq/internal/aig"
)

func TestSetRandomPatternsEvaluatesAnd(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()
	and := store.And(a, b)
	store.AddOutput(and)

	v := New(store)
	v.SetRandomPatterns(4)
	require.Equal(t, 4, v.NumWords())

	av := v.Vector(a.Node())
	bv := v.Vector(b.Node())
	outv := v.Vector(and.Node())
	for i := 0; i < 4; i++ {
		assert.Equal(t, av[i]&bv[i], outv[i])
	}
}

func TestAppendPatternIncrementalMatchesBulk(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()
	and := store.And(a, b)
	store.AddOutput(and)

	v := New(store)
	v.AppendPattern([]bool{true, false})
	v.AppendPattern([]bool{true, true})

	outv := v.Vector(and.Node())
	require.Equal(t, 2, len(outv))
	assert.Equal(t, uint32(0), outv[0])          // true & false = false
	assert.Equal(t, ^uint32(0), outv[1])         // true & true = true
}

func TestFingerprintIsPhaseNormalized(t *testing.T) {
	vec := []uint32{0b10, 0b11, 0b00}
	compl := make([]uint32, len(vec))
	for i, w := range vec {
		compl[i] = ^w
	}

	k1, p1 := FingerprintVector(vec)
	k2, p2 := FingerprintVector(compl)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, p1, p2)
}

func TestFingerprintEmptyVector(t *testing.T) {
	k, p := FingerprintVector(nil)
	assert.Equal(t, uint64(0), k)
	assert.False(t, p)
}

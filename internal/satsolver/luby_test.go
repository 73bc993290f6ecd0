package satsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLubySequence(t *testing.T) {
	want := []int{1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8}
	for i, w := range want {
		assert.Equal(t, w, luby(i), "luby(%d)", i)
	}
}

func TestLubyGenMatchesSequence(t *testing.T) {
	g := newLubyGen()
	for i := 1; i <= 10; i++ {
		assert.Equal(t, luby(i), g.next())
	}
}

package satsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunningQueueAverageAndEviction(t *testing.T) {
	q := NewRunningQueue(3)
	assert.Equal(t, float64(0), q.Average())

	q.Push(2)
	q.Push(4)
	q.Push(6)
	assert.True(t, q.IsFull())
	assert.Equal(t, float64(4), q.Average())

	q.Push(9) // evicts the 2
	assert.Equal(t, float64(4+6+9)/3, q.Average())

	q.Clear()
	assert.False(t, q.IsFull())
	assert.Equal(t, 0, q.Len())
}

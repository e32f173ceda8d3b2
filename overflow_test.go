package stealq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverflowTakesMostRecentFirst(t *testing.T) {
	var o overflow
	_, ok := o.take()
	assert.False(t, ok)

	a, b := &job{id: "a"}, &job{id: "b"}
	o.push(a)
	o.push(b)

	j, ok := o.take()
	require.True(t, ok)
	assert.Same(t, b, j)
	j, ok = o.take()
	require.True(t, ok)
	assert.Same(t, a, j)
	_, ok = o.take()
	assert.False(t, ok)
}

func TestOverflowClear(t *testing.T) {
	var o overflow
	o.push(&job{id: "a"})
	o.push(&job{id: "b"})
	assert.Equal(t, 2, o.clear())
	assert.Equal(t, 0, o.clear())
	_, ok := o.take()
	assert.False(t, ok)
}

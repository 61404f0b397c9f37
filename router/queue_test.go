package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue(t *testing.T) {
	q := newQueue(3)
	assert.True(t, q.push(&queued{side: Local, generation: 1}))
	assert.True(t, q.push(&queued{side: Remote, generation: 1}))
	assert.True(t, q.push(&queued{side: Local, generation: 2}))
	assert.False(t, q.push(&queued{side: Local, generation: 3}))

	remote := q.take(func(item *queued) bool { return item.side == Remote })
	assert.Len(t, remote, 1)
	assert.Equal(t, 2, q.len())

	rest := q.take(func(item *queued) bool { return true })
	assert.Len(t, rest, 2)
	assert.EqualValues(t, 1, rest[0].generation)
	assert.EqualValues(t, 2, rest[1].generation)
	assert.Equal(t, 0, q.len())
}

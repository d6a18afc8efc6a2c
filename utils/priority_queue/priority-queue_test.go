/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package priority_queue_test

import (
	"testing"

	"github.com/named-data/hobhis/utils/priority_queue"
	"github.com/stretchr/testify/assert"
)

func TestBasics(t *testing.T) {
	q := priority_queue.New[int, int]()
	assert.Equal(t, 0, q.Len())
	q.Push(1, 1)
	q.Push(2, 3)
	q.Push(3, 2)
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 1, q.PeekPriority())
	assert.Equal(t, 1, q.Pop())
	assert.Equal(t, 2, q.PeekPriority())
	assert.Equal(t, 3, q.Pop())
	assert.Equal(t, 2, q.Pop())
	assert.Equal(t, 0, q.Len())
}

func TestUpdateRemove(t *testing.T) {
	q := priority_queue.New[string, float64]()
	a := q.Push("a", 1)
	b := q.Push("b", 2)
	c := q.Push("c", 3)

	q.Update(a, 10)
	assert.Equal(t, "b", q.Peek())

	q.Remove(b)
	q.Remove(b)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, "c", q.Peek())
	assert.Equal(t, 3.0, c.Priority())

	assert.Equal(t, "c", q.Pop())
	q.Update(c, 0)
	assert.Equal(t, "a", q.Pop())
	assert.Equal(t, 0, q.Len())
}

// internal/queue/queue_test.go
package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_New(t *testing.T) {
	q := New[int]()
	assert.True(t, q.Empty())
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.PopN(5))
}

func TestQueue_PushPopN(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)
	q.Push(4)

	assert.Equal(t, []int{1, 2}, q.PopN(2))
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, []int{3, 4}, q.PopN(10))
	assert.True(t, q.Empty())
}

func TestQueue_PopNAll(t *testing.T) {
	q := New[string]()
	q.Push("a", "b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, q.PopN(0))
	assert.True(t, q.Empty())
}

func TestQueue_PopNDoesNotAlias(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)
	batch := q.PopN(2)
	q.Push(9)
	batch[0] = 100
	assert.Equal(t, []int{3, 9}, q.PopN(0))
}

func TestQueue_RequeueKeepsOrder(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3, 4)
	failed := q.PopN(2)
	q.Push(5)
	q.Requeue(failed...)
	q.Requeue()

	assert.Equal(t, []int{1, 2, 3, 4, 5}, q.PopN(0))
}

func TestQueue_Clear(t *testing.T) {
	q := New[int]()
	q.Push(1, 2)
	assert.Equal(t, 2, q.Clear())
	assert.True(t, q.Empty())
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(n*100 + j)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1000, q.Len())

	seen := make(map[int]bool)
	for !q.Empty() {
		for _, v := range q.PopN(64) {
			seen[v] = true
		}
	}
	assert.Len(t, seen, 1000)
}

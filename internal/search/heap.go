package search

import (
	"container/heap"

	"github.com/tkonolige/cpsm/pkg/models"
)

// matchHeap keeps the worst retained match at the root so it can be
// evicted cheaply when a better one arrives.
type matchHeap []models.Match

func (h matchHeap) Len() int { return len(h) }

func (h matchHeap) Less(i, j int) bool {
	// i sorts toward the root when j ranks before it.
	return (&h[j]).Less(&h[i])
}

func (h matchHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *matchHeap) Push(x any) { *h = append(*h, x.(models.Match)) }

func (h *matchHeap) Pop() any {
	old := *h
	n := len(old)
	m := old[n-1]
	*h = old[:n-1]
	return m
}

// topK is a bounded collection of the best matches a worker has seen.
// A limit of 0 keeps everything.
type topK struct {
	limit int
	items matchHeap
}

func newTopK(limit int) *topK {
	t := &topK{limit: limit}
	if limit > 0 {
		t.items = make(matchHeap, 0, limit+1)
	}
	return t
}

// Add admits m and, when the heap is over its limit, evicts the worst
// retained match and returns its handle for release.
func (t *topK) Add(m models.Match) (any, bool) {
	heap.Push(&t.items, m)
	if t.limit > 0 && len(t.items) > t.limit {
		worst := heap.Pop(&t.items).(models.Match)
		return worst.Handle, true
	}
	return nil, false
}

// Drain returns the retained matches in heap order; the heap is spent
// afterwards.
func (t *topK) Drain() []models.Match {
	items := t.items
	t.items = nil
	return items
}

package service

import (
	"sync"

	"github.com/golang-collections/collections/queue"

	"devlaunch/internal/modules/runner/domain"
)

// lineQueue is an unbounded multi-producer, single-consumer FIFO.
type lineQueue struct {
	mu    sync.Mutex
	items queue.Queue
}

func (q *lineQueue) push(line domain.LogLine) {
	q.mu.Lock()
	q.items.Enqueue(line)
	q.mu.Unlock()
}

func (q *lineQueue) drain() []domain.LogLine {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return nil
	}
	out := make([]domain.LogLine, 0, q.items.Len())
	for q.items.Len() > 0 {
		out = append(out, q.items.Dequeue().(domain.LogLine))
	}
	return out
}

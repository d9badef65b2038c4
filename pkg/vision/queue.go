package vision

import (
	"sync/atomic"
)

// Queue hands observations from the feed goroutines to the control loop.
// Push never blocks: when the queue is full the oldest observation is dropped.
type Queue struct {
	c       chan Observation
	dropped uint64
}

func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{c: make(chan Observation, size)}
}

func (q *Queue) Push(o Observation) {
	for {
		select {
		case q.c <- o:
			return
		default:
		}
		select {
		case <-q.c:
			atomic.AddUint64(&q.dropped, 1)
		default:
		}
	}
}

// Drain returns everything queued so far without waiting for more.
func (q *Queue) Drain() []Observation {
	var out []Observation
	for {
		select {
		case o := <-q.c:
			out = append(out, o)
		default:
			return out
		}
	}
}

func (q *Queue) Len() int {
	return len(q.c)
}

// Dropped counts observations discarded because the control loop fell behind.
func (q *Queue) Dropped() uint64 {
	return atomic.LoadUint64(&q.dropped)
}

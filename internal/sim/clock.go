package sim

import (
	"container/heap"
	"time"
)

// scheduled is one pending action on a Clock.
type scheduled struct {
	due   time.Time
	seq   uint64
	name  string
	every time.Duration
	fn    func(now time.Time)
}

type eventQueue []*scheduled

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if !q[i].due.Equal(q[j].due) {
		return q[i].due.Before(q[j].due)
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)   { *q = append(*q, x.(*scheduled)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

// Clock is a simulated clock driving periodic and one-shot actions. Actions
// due at the same instant fire in scheduling order. Clock is not safe for
// concurrent use; the Simulator serializes access.
type Clock struct {
	now   time.Time
	seq   uint64
	queue eventQueue
}

// NewClock returns a clock reading start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the simulated time.
func (c *Clock) Now() time.Time { return c.now }

// After schedules fn once, d from now.
func (c *Clock) After(d time.Duration, name string, fn func(now time.Time)) {
	c.push(&scheduled{due: c.now.Add(d), name: name, fn: fn})
}

// Every schedules fn every d, first firing d from now.
func (c *Clock) Every(d time.Duration, name string, fn func(now time.Time)) {
	c.push(&scheduled{due: c.now.Add(d), name: name, every: d, fn: fn})
}

func (c *Clock) push(s *scheduled) {
	c.seq++
	s.seq = c.seq
	heap.Push(&c.queue, s)
}

// Pending returns the number of scheduled actions named name.
func (c *Clock) Pending(name string) int {
	n := 0
	for _, s := range c.queue {
		if s.name == name {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing every action that falls due
// on the way, including ones scheduled by actions fired during this call.
// It returns the number of actions fired.
func (c *Clock) Advance(d time.Duration) int {
	target := c.now.Add(d)
	fired := 0
	for len(c.queue) > 0 && !c.queue[0].due.After(target) {
		s := heap.Pop(&c.queue).(*scheduled)
		c.now = s.due
		s.fn(s.due)
		fired++
		if s.every > 0 {
			s.due = s.due.Add(s.every)
			c.push(s)
		}
	}
	c.now = target
	return fired
}

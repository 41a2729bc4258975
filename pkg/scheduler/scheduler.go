// Package scheduler is a cooperative timed-task queue. Tasks never run on
// their own goroutine: the owner advances the scheduler's clock and due
// tasks run synchronously, in due-time order, on the caller's goroutine.
//
// Every task carries a Stamp. A task whose stamp has gone stale by the time
// it is due is dropped without running.
package scheduler

import (
	"container/heap"
	"log/slog"
	"time"
)

type task struct {
	due   time.Time
	seq   uint64
	stamp Stamp
	label string
	run   func()
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Scheduler holds pending tasks against a virtual clock. It is not safe
// for concurrent use; a single owner drives it.
type Scheduler struct {
	now     time.Time
	seq     uint64
	tasks   taskHeap
	dropped int
	logger  *slog.Logger
}

// New creates a scheduler whose clock starts at start.
func New(start time.Time, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{now: start, logger: logger}
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.now
}

// After schedules fn to run once d has elapsed on the scheduler clock.
// The label only appears in logs.
func (s *Scheduler) After(d time.Duration, stamp Stamp, label string, fn func()) {
	if d < 0 {
		d = 0
	}
	s.seq++
	heap.Push(&s.tasks, &task{
		due:   s.now.Add(d),
		seq:   s.seq,
		stamp: stamp,
		label: label,
		run:   fn,
	})
	s.logger.Debug("Task scheduled", "label", label, "delay", d, "pending", len(s.tasks))
}

// Advance moves the clock forward by d and runs every task that falls due.
func (s *Scheduler) Advance(d time.Duration) int {
	return s.AdvanceTo(s.now.Add(d))
}

// AdvanceTo moves the clock to t and runs every task due at or before t,
// including tasks scheduled by tasks run during this call. It returns the
// number of tasks that ran. The clock never moves backwards.
func (s *Scheduler) AdvanceTo(t time.Time) int {
	ran := 0
	for len(s.tasks) > 0 {
		next := s.tasks[0]
		if next.due.After(t) {
			break
		}
		heap.Pop(&s.tasks)
		if next.due.After(s.now) {
			s.now = next.due
		}
		if !next.stamp.Valid() {
			s.dropped++
			s.logger.Debug("Stale task dropped", "label", next.label)
			continue
		}
		next.run()
		ran++
	}
	if t.After(s.now) {
		s.now = t
	}
	return ran
}

// Pending returns the number of queued tasks, stale or not.
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}

// Dropped returns how many stale tasks have been discarded.
func (s *Scheduler) Dropped() int {
	return s.dropped
}

// NextDue returns the due time of the earliest queued task.
func (s *Scheduler) NextDue() (time.Time, bool) {
	if len(s.tasks) == 0 {
		return time.Time{}, false
	}
	return s.tasks[0].due, true
}

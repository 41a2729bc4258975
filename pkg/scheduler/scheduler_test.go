package scheduler

import (
	"reflect"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestScheduler_RunsInDueOrder(t *testing.T) {
	s := New(epoch, nil)
	var order []string

	s.After(1500*time.Millisecond, Always, "c", func() { order = append(order, "c") })
	s.After(150*time.Millisecond, Always, "a", func() { order = append(order, "a") })
	s.After(time.Second, Always, "b1", func() { order = append(order, "b1") })
	s.After(time.Second, Always, "b2", func() { order = append(order, "b2") })

	if ran := s.Advance(100 * time.Millisecond); ran != 0 {
		t.Fatalf("expected nothing due yet, ran %d", ran)
	}
	if ran := s.Advance(time.Second); ran != 3 {
		t.Fatalf("expected 3 tasks, ran %d", ran)
	}
	if ran := s.Advance(time.Second); ran != 1 {
		t.Fatalf("expected 1 task, ran %d", ran)
	}

	expected := []string{"a", "b1", "b2", "c"}
	if !reflect.DeepEqual(order, expected) {
		t.Errorf("got %v, expected %v", order, expected)
	}
	if s.Pending() != 0 {
		t.Errorf("expected empty queue, %d pending", s.Pending())
	}
}

func TestScheduler_ClockFollowsTasks(t *testing.T) {
	s := New(epoch, nil)
	var seen time.Time
	s.After(time.Second, Always, "probe", func() { seen = s.Now() })
	s.Advance(5 * time.Second)

	if !seen.Equal(epoch.Add(time.Second)) {
		t.Errorf("task saw clock %v, expected %v", seen, epoch.Add(time.Second))
	}
	if !s.Now().Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("clock = %v after advance", s.Now())
	}

	s.AdvanceTo(epoch)
	if !s.Now().Equal(epoch.Add(5 * time.Second)) {
		t.Error("clock moved backwards")
	}
}

func TestScheduler_TasksScheduledDuringRun(t *testing.T) {
	s := New(epoch, nil)
	var order []string
	s.After(time.Second, Always, "first", func() {
		order = append(order, "first")
		s.After(500*time.Millisecond, Always, "chained", func() { order = append(order, "chained") })
	})

	if ran := s.Advance(2 * time.Second); ran != 2 {
		t.Fatalf("expected 2 tasks, ran %d", ran)
	}
	if !reflect.DeepEqual(order, []string{"first", "chained"}) {
		t.Errorf("got %v", order)
	}
}

func TestScheduler_DropsStaleTasks(t *testing.T) {
	s := New(epoch, nil)
	var gen Generation
	gen.Bump()

	fired := 0
	s.After(time.Second, gen.Stamp(), "old session", func() { fired++ })
	gen.Bump()
	s.After(time.Second, gen.Stamp(), "new session", func() { fired += 10 })

	s.Advance(2 * time.Second)
	if fired != 10 {
		t.Errorf("expected only the current-generation task to run, fired=%d", fired)
	}
	if s.Dropped() != 1 {
		t.Errorf("expected 1 dropped task, got %d", s.Dropped())
	}
}

func TestScheduler_NextDue(t *testing.T) {
	s := New(epoch, nil)
	if _, ok := s.NextDue(); ok {
		t.Error("empty scheduler should have nothing due")
	}
	s.After(3*time.Second, Always, "x", func() {})
	s.After(time.Second, Always, "y", func() {})
	due, ok := s.NextDue()
	if !ok || !due.Equal(epoch.Add(time.Second)) {
		t.Errorf("NextDue = %v, %v", due, ok)
	}
}

func TestStamp(t *testing.T) {
	var gen Generation
	if !Always.Valid() {
		t.Error("Always should be valid")
	}
	stamp := gen.Stamp()
	if !stamp.Valid() || stamp.Value() != 0 {
		t.Errorf("fresh stamp should be valid at 0, got %d", stamp.Value())
	}
	if gen.Bump() != 1 || gen.Current() != 1 {
		t.Error("bump should increment")
	}
	if stamp.Valid() {
		t.Error("stamp should be stale after bump")
	}
}

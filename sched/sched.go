// Package sched runs registered tasks at independent periodic intervals off
// a single ticker. A task that missed ticks while the process was suspended
// fires once and reanchors its schedule from "now" instead of bursting
// through the backlog.
package sched

import (
	"sync"
	"time"
)

// DefaultResolution is the base tick granularity. Task intervals shorter
// than the resolution fire once per base tick.
const DefaultResolution = 10 * time.Millisecond

type task struct {
	name     string
	interval time.Duration
	fn       func()
	next     time.Time
}

// Scheduler dispatches registered tasks from one goroutine. Register every
// task before Start; tasks run sequentially on the scheduler goroutine, so
// they must not block.
type Scheduler struct {
	resolution time.Duration
	tasks      []*task

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithResolution overrides the base tick granularity.
func WithResolution(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.resolution = d
		}
	}
}

// New creates a stopped scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{resolution: DefaultResolution}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a task to run every interval. Must be called before Start.
func (s *Scheduler) Add(name string, interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = s.resolution
	}
	s.tasks = append(s.tasks, &task{name: name, interval: interval, fn: fn})
}

// Start launches the dispatch goroutine. Starting a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	now := time.Now()
	for _, t := range s.tasks {
		t.next = now.Add(t.interval)
	}

	go s.loop()
}

// Stop halts dispatch and waits for the goroutine to exit. Safe to call
// multiple times and on a never-started scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.resolution)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.runDue(now)
		}
	}
}

// runDue fires every task whose deadline has passed, exactly once each, and
// reanchors it relative to now. After a long suspension the backlog of
// missed deadlines collapses into that single firing.
func (s *Scheduler) runDue(now time.Time) {
	for _, t := range s.tasks {
		if now.Before(t.next) {
			continue
		}
		t.fn()
		t.next = now.Add(t.interval)
	}
}

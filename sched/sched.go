// Package sched is a cooperative micro-batch task scheduler: it runs an
// unbounded stream of short tasks on a single drain goroutine, yielding
// the processor at a configured cadence so bulk side-effecting work
// never monopolizes the runtime. Schedulers are explicit injectable
// instances; a process-wide default is provided so all callers share
// one queue and therefore one backpressure bound.
package sched

import (
	"runtime"
	"sync"
	"time"

	"github.com/treecell/treecell/debug"
)

// Task is a queued unit of work. The queue owns it from enqueue until
// execution.
type Task func()

type Config struct {
	// YieldEveryTasks is the task count between voluntary yields.
	// Default 500.
	YieldEveryTasks int
	// YieldEvery is the elapsed-time yield cadence, checked only in
	// instrumented mode. Default 8ms.
	YieldEvery time.Duration
	// Instrument enables the time-based yield check and drain timing.
	Instrument bool
}

func (c *Config) withDefaults() Config {
	out := Config{YieldEveryTasks: 500, YieldEvery: 8 * time.Millisecond}
	if c == nil {
		return out
	}
	out.Instrument = c.Instrument
	if c.YieldEveryTasks > 0 {
		out.YieldEveryTasks = c.YieldEveryTasks
	}
	if c.YieldEvery > 0 {
		out.YieldEvery = c.YieldEvery
	}
	return out
}

type Metrics struct {
	DrainCycles        int64
	TasksExecuted      int64
	MaxQueueLength     int
	Yields             int64
	LastDrainDuration  time.Duration
	TotalDrainDuration time.Duration
}

type Scheduler struct {
	mu       sync.Mutex
	cond     *sync.Cond
	q        []Task
	draining bool
	cfg      Config
	m        Metrics
}

func New(cfg *Config) *Scheduler {
	s := &Scheduler{cfg: cfg.withDefaults()}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Configure replaces the scheduler's config. It applies from the next
// drain decision onward.
func (s *Scheduler) Configure(cfg *Config) {
	s.mu.Lock()
	s.cfg = cfg.withDefaults()
	s.mu.Unlock()
}

// PostTask enqueues t in FIFO order and starts a drain if none is
// running.
func (s *Scheduler) PostTask(t Task) {
	s.mu.Lock()
	s.q = append(s.q, t)
	if len(s.q) > s.m.MaxQueueLength {
		s.m.MaxQueueLength = len(s.q)
	}
	start := !s.draining
	if start {
		s.draining = true
	}
	s.mu.Unlock()
	if start {
		go s.drain()
	}
}

// drain pops and runs tasks until the queue empties, yielding every
// YieldEveryTasks executions or, when instrumented, whenever the
// current slice has run longer than YieldEvery.
func (s *Scheduler) drain() {
	start := time.Now()
	sliceStart := start
	executed := 0
	for {
		s.mu.Lock()
		if len(s.q) == 0 {
			s.draining = false
			s.m.DrainCycles++
			if s.cfg.Instrument {
				s.m.LastDrainDuration = time.Since(start)
				s.m.TotalDrainDuration += s.m.LastDrainDuration
			}
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		t := s.q[0]
		s.q = s.q[1:]
		s.m.TasksExecuted++
		cfg := s.cfg
		s.mu.Unlock()

		s.run(t)
		executed++

		if executed%cfg.YieldEveryTasks == 0 ||
			(cfg.Instrument && time.Since(sliceStart) > cfg.YieldEvery) {
			s.mu.Lock()
			s.m.Yields++
			s.mu.Unlock()
			runtime.Gosched()
			sliceStart = time.Now()
		}
	}
}

// run executes one task; a panicking task is logged and never halts the
// drain loop.
func (s *Scheduler) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			debug.Logf("sched: task panic: %v\n", r)
		}
	}()
	t()
}

// Wait blocks until the queue is empty and no drain is running.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	for s.draining || len(s.q) > 0 {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *Scheduler) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m
}

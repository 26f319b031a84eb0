// Package sched derives the client-side presentation timeline from one
// turn result and runs it on cancellable timers. The ordering contract
// (dice before movement before notifications, notifications staggered
// so they never overlap) is load-bearing: the UI layer assumes tasks
// fire in timeline order.
package sched

import (
	"sort"
	"sync"
	"time"

	"github.com/oskarw/quizparty/internal/protocol"
)

// Presentation pacing. Durations are tuned for readability, not
// realism.
const (
	DiceBaseDuration   = 600 * time.Millisecond
	DicePerPipDuration = 150 * time.Millisecond // higher rolls spin longer

	MovePerTileDuration = 250 * time.Millisecond
	// The landed tile lights up slightly before the pawn arrives.
	TileHighlightLead = 100 * time.Millisecond

	NotificationStagger = 1200 * time.Millisecond
)

// Task is one scheduled presentation step.
type Task struct {
	Delay  time.Duration
	Name   string
	Action func()
}

// Timeline converts a move result into an ordered task list. Actions
// are left nil; the caller binds them before scheduling. Returned
// tasks are sorted by delay.
func Timeline(res protocol.MoveResult) []Task {
	var tasks []Task
	if !res.Moved {
		tasks = append(tasks, Task{Delay: 0, Name: "answer_feedback"})
		return tasks
	}

	diceDur := DiceBaseDuration + time.Duration(res.Roll)*DicePerPipDuration
	tasks = append(tasks, Task{Delay: 0, Name: "dice"})

	moveDur := time.Duration(res.Roll) * MovePerTileDuration
	tasks = append(tasks, Task{Delay: diceDur, Name: "movement"})

	highlight := diceDur + moveDur - TileHighlightLead
	if highlight < diceDur {
		highlight = diceDur
	}
	tasks = append(tasks, Task{Delay: highlight, Name: "tile_highlight"})

	arrive := diceDur + moveDur
	tasks = append(tasks, Task{Delay: arrive, Name: "tile_resolve"})

	// Post-arrival notifications are staggered with fixed gaps.
	next := arrive + NotificationStagger
	if res.LapBonus > 0 {
		tasks = append(tasks, Task{Delay: next, Name: "lap_bonus"})
		next += NotificationStagger
	}
	if res.Event != nil {
		tasks = append(tasks, Task{Delay: next, Name: "tile_event"})
		next += NotificationStagger
	}
	if res.Prompt != nil {
		tasks = append(tasks, Task{Delay: next, Name: "interaction_prompt"})
		next += NotificationStagger
	}
	if res.SharedTile != nil {
		tasks = append(tasks, Task{Delay: next, Name: "shared_tile"})
	}

	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Delay < tasks[j].Delay })
	return tasks
}

// Scheduler runs delayed actions and can cancel all of them at once.
// Safe for concurrent use.
type Scheduler struct {
	mu     sync.Mutex
	timers map[int]*time.Timer
	nextID int
	closed bool
}

func New() *Scheduler {
	return &Scheduler{timers: make(map[int]*time.Timer)}
}

// After schedules fn to run once after d. Scheduling on a closed
// scheduler is a no-op.
func (s *Scheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	id := s.nextID
	s.nextID++
	s.timers[id] = time.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
}

// Run schedules every task in the timeline. Tasks without an action
// are skipped.
func (s *Scheduler) Run(tasks []Task) {
	for _, t := range tasks {
		if t.Action == nil {
			continue
		}
		s.After(t.Delay, t.Action)
	}
}

// CancelAll stops every outstanding timer. Actions that have not fired
// yet never will; the scheduler remains usable.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Close cancels everything and rejects future scheduling. Used on
// teardown or room-leave so stale callbacks cannot fire against reset
// state.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

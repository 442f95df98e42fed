package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"property_submission/internal/adapters/observability"
)

type saveState int

const (
	stateIdle saveState = iota
	stateScheduled
	stateSaving
	stateSavingPending // saving, and another trigger arrived meanwhile
)

func (s saveState) String() string {
	switch s {
	case stateScheduled:
		return "scheduled"
	case stateSaving:
		return "saving"
	case stateSavingPending:
		return "saving+pending"
	}
	return "idle"
}

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface{ Stop() bool }

// AfterFunc schedules f after d; time.AfterFunc by default, a manual clock in tests.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Autosave debounces edits into draft saves. It fires when the idle interval
// passes without a new edit, or on SaveNow, and only when eligible reports
// enough content. A trigger that arrives while a save is in flight is queued
// and fires once that save settles, so saves never overlap and no edit is
// dropped.
type Autosave struct {
	idle     time.Duration
	after    AfterFunc
	eligible func() bool
	save     func(ctx context.Context) error

	mu      sync.Mutex
	settled *sync.Cond
	state   saveState
	timer   Timer
	gen     uint64
	stopped bool
	trigger string
}

func NewAutosave(idle time.Duration, after AfterFunc, eligible func() bool, save func(ctx context.Context) error) *Autosave {
	if after == nil {
		after = realAfterFunc
	}
	a := &Autosave{idle: idle, after: after, eligible: eligible, save: save}
	a.settled = sync.NewCond(&a.mu)
	return a
}

// Touch records an edit: the idle countdown restarts.
func (a *Autosave) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	switch a.state {
	case stateIdle, stateScheduled:
		a.scheduleLocked(a.idle, "idle")
	case stateSaving:
		a.state = stateSavingPending
		a.trigger = "idle"
		observability.ObserveSave("autosave", "deferred")
	}
}

// SaveNow fires immediately, or queues behind an in-flight save.
func (a *Autosave) SaveNow() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	switch a.state {
	case stateIdle, stateScheduled:
		a.cancelTimerLocked()
		a.fireLocked("now")
	case stateSaving:
		a.state = stateSavingPending
		a.trigger = "now"
		observability.ObserveSave("autosave", "deferred")
	}
}

// Stop prevents further saves from being scheduled. A save already in
// flight is not cancelled; a queued retrigger is dropped.
func (a *Autosave) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.cancelTimerLocked()
	switch a.state {
	case stateScheduled:
		a.state = stateIdle
	case stateSavingPending:
		a.state = stateSaving
	}
}

// Start re-enables scheduling after Stop.
func (a *Autosave) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = false
}

// Wait blocks until no save is in flight.
func (a *Autosave) Wait() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for a.state == stateSaving || a.state == stateSavingPending {
		a.settled.Wait()
	}
}

func (a *Autosave) State() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.String()
}

func (a *Autosave) scheduleLocked(d time.Duration, trigger string) {
	a.cancelTimerLocked()
	a.gen++
	gen := a.gen
	a.state = stateScheduled
	a.trigger = trigger
	a.timer = a.after(d, func() { a.onTimer(gen) })
}

func (a *Autosave) cancelTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
}

func (a *Autosave) onTimer(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen || a.state != stateScheduled || a.stopped {
		return
	}
	a.timer = nil
	a.fireLocked(a.trigger)
}

func (a *Autosave) fireLocked(trigger string) {
	if !a.eligible() {
		a.state = stateIdle
		log.Debug().Str("trigger", trigger).Msg("autosave skipped: nothing to save yet")
		return
	}
	a.state = stateSaving
	go a.run(trigger)
}

func (a *Autosave) run(trigger string) {
	err := a.save(context.Background())

	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.settled.Broadcast()

	if err != nil {
		log.Warn().Err(err).Str("trigger", trigger).Msg("autosave failed")
	}
	switch {
	case a.stopped:
		a.state = stateIdle
	case a.state == stateSavingPending:
		a.fireLocked(a.trigger)
	case err != nil:
		// retry on the next idle tick with the same identity
		a.scheduleLocked(a.idle, "retry")
	default:
		a.state = stateIdle
	}
}

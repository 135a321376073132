package fetch

import (
	"context"
	"sync"
)

// Phase is the lifecycle position of a slot.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhaseLoaded   Phase = "loaded"
	PhaseFailed   Phase = "failed"
	PhaseCanceled Phase = "canceled"
)

// LoadFunc performs one fetch for a slot.
type LoadFunc[T any] func(ctx context.Context, logicalPath string) (T, error)

// State is an immutable snapshot of a slot. Data is only meaningful when
// Phase is PhaseLoaded; Err is only set when Phase is PhaseFailed.
type State[T any] struct {
	Phase Phase
	Path  string
	Data  T
	Err   error
}

// Loading reports whether a fetch is outstanding.
func (s State[T]) Loading() bool {
	return s.Phase == PhaseLoading
}

// Settled reports whether the slot is not waiting on a fetch.
func (s State[T]) Settled() bool {
	return s.Phase != PhaseLoading
}

// Message returns the error text, or "" when the slot has not failed.
func (s State[T]) Message() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Slot owns at most one outstanding fetch. Starting a new fetch abandons the
// previous one: its context is canceled and, should it still complete, its
// result is discarded without touching the slot state.
type Slot[T any] struct {
	load     LoadFunc[T]
	onChange func(State[T])

	mu     sync.Mutex
	gen    uint64
	state  State[T]
	cancel context.CancelFunc
	done   chan struct{}

	notifyMu sync.Mutex
}

// SlotOption configures a Slot.
type SlotOption[T any] func(*Slot[T])

// OnChange registers a callback invoked after every state transition, in
// transition order. The callback may read the slot but must not start or
// cancel fetches on it.
func OnChange[T any](fn func(State[T])) SlotOption[T] {
	return func(s *Slot[T]) {
		s.onChange = fn
	}
}

// NewSlot creates an idle slot that fetches with load.
func NewSlot[T any](load LoadFunc[T], opts ...SlotOption[T]) *Slot[T] {
	s := &Slot[T]{
		load:  load,
		state: State[T]{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins fetching logicalPath, superseding any fetch in flight. The
// fetch runs until it completes, ctx is canceled, or the slot is restarted
// or canceled.
func (s *Slot[T]) Start(ctx context.Context, logicalPath string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state = State[T]{Phase: PhaseLoading, Path: logicalPath}
	s.publishLocked()

	go s.run(fetchCtx, gen, logicalPath, done)
}

func (s *Slot[T]) run(ctx context.Context, gen uint64, logicalPath string, done chan struct{}) {
	defer close(done)

	data, err := s.load(ctx, logicalPath)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.cancel = nil
	switch {
	case err != nil && ctx.Err() != nil:
		s.state = State[T]{Phase: PhaseCanceled, Path: logicalPath}
	case err != nil:
		s.state = State[T]{Phase: PhaseFailed, Path: logicalPath, Err: err}
	default:
		s.state = State[T]{Phase: PhaseLoaded, Path: logicalPath, Data: data}
	}
	s.publishLocked()
}

// Cancel abandons the outstanding fetch, if any, and moves the slot to
// PhaseCanceled. A settled slot is left unchanged.
func (s *Slot[T]) Cancel() {
	s.mu.Lock()
	if s.state.Phase != PhaseLoading {
		s.mu.Unlock()
		return
	}
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = State[T]{Phase: PhaseCanceled, Path: s.state.Path}
	s.publishLocked()
}

// State returns the current snapshot.
func (s *Slot[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until the slot settles or ctx is done.
func (s *Slot[T]) Wait(ctx context.Context) (State[T], error) {
	for {
		s.mu.Lock()
		state, done := s.state, s.done
		s.mu.Unlock()

		if state.Settled() {
			return state, nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

// publishLocked releases s.mu and delivers the current state to the change
// callback. Holding notifyMu across the handoff keeps deliveries ordered.
func (s *Slot[T]) publishLocked() {
	state := s.state
	if s.onChange == nil {
		s.mu.Unlock()
		return
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	s.onChange(state)
}

package storefront

import (
	"errors"
	"fmt"
	"sync"
)

// View names a top-level storefront screen.
type View string

const (
	ViewHome    View = "home"
	ViewProduct View = "product"
)

var (
	// ErrTransitionInFlight rejects a navigation started while another one
	// has not completed.
	ErrTransitionInFlight = errors.New("view transition already in flight")
	ErrUnknownView        = errors.New("unknown view")
)

// ViewMachine tracks the visible view. At most one transition runs at a
// time; the browser app holds its transition open for the length of the
// CSS animation, server-side rendering completes it immediately.
type ViewMachine struct {
	mu       sync.Mutex
	current  View
	inFlight *Transition
	known    map[View]struct{}
}

// NewViewMachine starts at initial. The initial view is always known.
func NewViewMachine(initial View, views ...View) *ViewMachine {
	known := map[View]struct{}{initial: {}}
	for _, v := range views {
		known[v] = struct{}{}
	}
	return &ViewMachine{current: initial, known: known}
}

// Transition is a navigation in progress.
type Transition struct {
	m        *ViewMachine
	From, To View
	done     bool
}

// Begin starts a transition to the given view.
func (m *ViewMachine) Begin(to View) (*Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.known[to]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, to)
	}
	if m.inFlight != nil {
		return nil, fmt.Errorf("navigate %s -> %s: %w", m.inFlight.From, m.inFlight.To, ErrTransitionInFlight)
	}
	t := &Transition{m: m, From: m.current, To: to}
	m.inFlight = t
	return t, nil
}

// Complete makes the target view current. Calling it twice is a no-op.
func (t *Transition) Complete() {
	t.finish(true)
}

// Abort releases the transition and leaves the current view unchanged.
func (t *Transition) Abort() {
	t.finish(false)
}

func (t *Transition) finish(commit bool) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	if commit {
		t.m.current = t.To
	}
	if t.m.inFlight == t {
		t.m.inFlight = nil
	}
}

// Navigate begins and immediately completes a transition.
func (m *ViewMachine) Navigate(to View) error {
	t, err := m.Begin(to)
	if err != nil {
		return err
	}
	t.Complete()
	return nil
}

// Current returns the visible view.
func (m *ViewMachine) Current() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// InFlight reports whether a transition has begun but not finished.
func (m *ViewMachine) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight != nil
}

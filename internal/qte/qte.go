// Package qte is the quick-time-event bridge consumed by the combat core.
// The core only asks for a kind and waits for success or failure; raw input
// capture lives behind the bridge implementations.
package qte

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"atb_battle/internal/util"
)

type Kind int

const (
	TimingWindow Kind = iota
	RapidInput
)

func (k Kind) String() string {
	switch k {
	case TimingWindow:
		return "timing"
	case RapidInput:
		return "rapid"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names used in skills.yaml.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timing", "timing_window", "timingwindow":
		return TimingWindow, nil
	case "rapid", "rapid_input", "rapidinput":
		return RapidInput, nil
	}
	return 0, fmt.Errorf("unknown qte kind %q", s)
}

// Bridge resolves QTE requests. Request blocks until the outcome is known or
// ctx is done; Cancel forces any outstanding request to fail.
type Bridge interface {
	Request(ctx context.Context, kind Kind) bool
	Cancel()
}

type request struct {
	kind   Kind
	result chan bool
}

// Manual hands each request to an outside resolver (input layer or test).
type Manual struct {
	Timing TimingJudge
	Rapid  RapidJudge

	mu      sync.Mutex
	pending *request
	changed chan struct{}
}

func NewManual(timing TimingJudge, rapid RapidJudge) *Manual {
	return &Manual{Timing: timing, Rapid: rapid, changed: make(chan struct{})}
}

func (m *Manual) Request(ctx context.Context, kind Kind) bool {
	req := &request{kind: kind, result: make(chan bool, 1)}
	m.mu.Lock()
	if m.changed == nil {
		m.changed = make(chan struct{})
	}
	if m.pending != nil {
		m.pending.result <- false
	}
	m.pending = req
	close(m.changed)
	m.changed = make(chan struct{})
	m.mu.Unlock()

	select {
	case ok := <-req.result:
		return ok
	case <-ctx.Done():
		m.mu.Lock()
		if m.pending == req {
			m.pending = nil
		}
		m.mu.Unlock()
		return false
	}
}

// Pending reports the kind of the outstanding request, if any.
func (m *Manual) Pending() (Kind, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return 0, false
	}
	return m.pending.kind, true
}

// WaitPending blocks until a request is outstanding.
func (m *Manual) WaitPending(ctx context.Context) (Kind, error) {
	for {
		m.mu.Lock()
		if m.changed == nil {
			m.changed = make(chan struct{})
		}
		if m.pending != nil {
			k := m.pending.kind
			m.mu.Unlock()
			return k, nil
		}
		ch := m.changed
		m.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Resolve delivers ok to the outstanding request. It reports false when
// nothing was waiting.
func (m *Manual) Resolve(ok bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return false
	}
	m.pending.result <- ok
	m.pending = nil
	return true
}

// ResolveTiming judges a single press made elapsed seconds after the prompt.
func (m *Manual) ResolveTiming(elapsed float64) bool {
	return m.Resolve(m.Timing.Judge(elapsed))
}

// ResolveTaps judges a rapid-input attempt.
func (m *Manual) ResolveTaps(taps int, elapsed float64) bool {
	return m.Resolve(m.Rapid.Judge(taps, elapsed))
}

func (m *Manual) Cancel() {
	m.Resolve(false)
}

// Auto succeeds with a fixed probability. Used by the headless simulator.
type Auto struct {
	Rate float64
	rng  *util.Roller
}

func NewAuto(rate float64, rng *util.Roller) *Auto {
	if rng == nil {
		rng = util.NewRoller(1)
	}
	return &Auto{Rate: rate, rng: rng}
}

func (a *Auto) Request(ctx context.Context, _ Kind) bool {
	if ctx.Err() != nil {
		return false
	}
	return a.rng.Float64() < a.Rate
}

func (a *Auto) Cancel() {}

// Scripted returns predetermined outcomes in order, then Default.
type Scripted struct {
	Default bool

	mu      sync.Mutex
	results []bool
	calls   []Kind
}

func NewScripted(def bool, results ...bool) *Scripted {
	return &Scripted{Default: def, results: append([]bool(nil), results...)}
}

func (s *Scripted) Request(ctx context.Context, kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, kind)
	if ctx.Err() != nil {
		return false
	}
	if len(s.results) == 0 {
		return s.Default
	}
	ok := s.results[0]
	s.results = s.results[1:]
	return ok
}

func (s *Scripted) Cancel() {}

// Calls lists every kind requested so far.
func (s *Scripted) Calls() []Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Kind(nil), s.calls...)
}

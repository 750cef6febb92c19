package combat

import "sync"

// Presenter receives fire-and-forget presentation events. DamageTextsActive
// lets the core hold restoration until floating numbers have cleared.
type Presenter interface {
	Emit(ev Event)
	DamageTextsActive() bool
}

type nopPresenter struct{}

func (nopPresenter) Emit(Event)              {}
func (nopPresenter) DamageTextsActive() bool { return false }

// EventLog records every event. The headless simulator folds it into a SimResult.
type EventLog struct {
	mu     sync.Mutex
	events []Event
	// Busy, when set, is reported as DamageTextsActive.
	Busy func() bool
}

func (l *EventLog) Emit(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *EventLog) DamageTextsActive() bool {
	if l.Busy == nil {
		return false
	}
	return l.Busy()
}

// Events returns a copy of everything recorded so far.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func (l *EventLog) Count(typ string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

// OfType returns the recorded events of one type, in order.
func (l *EventLog) OfType(typ string) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, ev := range l.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

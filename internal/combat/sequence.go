package combat

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// Sequence states. A running task is always in exactly one of them; the
// suspension states name what the task is waiting on.
const (
	SeqRunning     = "running"
	SeqAwaitingQTE = "awaiting_qte"
	SeqPacing      = "pacing"
	SeqPresenting  = "presenting"
	SeqDone        = "done"
	SeqAborted     = "aborted"
)

const (
	evAwaitQTE = "await_qte"
	evResolve  = "resolve"
	evPace     = "pace"
	evPresent  = "present"
	evResume   = "resume"
	evFinish   = "finish"
	evAbort    = "abort"
)

// Sequence is the step machine of one running task. Label records the
// resumption point of the current suspension.
type Sequence struct {
	ID    string
	Name  string
	Actor string

	mu      sync.Mutex
	machine *fsm.FSM
	label   string
	history []string
}

func newSequence(name, actor string) *Sequence {
	s := &Sequence{ID: uuid.NewString(), Name: name, Actor: actor}
	s.machine = fsm.NewFSM(
		SeqRunning,
		fsm.Events{
			{Name: evAwaitQTE, Src: []string{SeqRunning}, Dst: SeqAwaitingQTE},
			{Name: evResolve, Src: []string{SeqAwaitingQTE}, Dst: SeqRunning},
			{Name: evPace, Src: []string{SeqRunning}, Dst: SeqPacing},
			{Name: evPresent, Src: []string{SeqRunning}, Dst: SeqPresenting},
			{Name: evResume, Src: []string{SeqPacing, SeqPresenting}, Dst: SeqRunning},
			{Name: evFinish, Src: []string{SeqRunning}, Dst: SeqDone},
			{Name: evAbort, Src: []string{SeqRunning, SeqAwaitingQTE, SeqPacing, SeqPresenting}, Dst: SeqAborted},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.history = append(s.history, e.Dst)
			},
		},
	)
	return s
}

// transition fires event if the machine allows it and records label.
func (s *Sequence) transition(event, label string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.machine.Can(event) {
		return
	}
	if err := s.machine.Event(context.Background(), event); err != nil {
		return
	}
	s.label = label
}

func (s *Sequence) State() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// Label names the step the sequence is suspended at, or last passed.
func (s *Sequence) Label() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

// History lists every state entered after the initial one.
func (s *Sequence) History() []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

func (s *Sequence) Finished() bool {
	st := s.State()
	return st == SeqDone || st == SeqAborted
}

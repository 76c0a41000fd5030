package status

import (
	"errors"
	"sync"
	"time"
)

// State is the lifecycle of one user-triggered action:
// Idle -> InProgress -> Complete | Failed.
type State string

const (
	Idle       State = "idle"
	InProgress State = "in_progress"
	Complete   State = "complete"
	Failed     State = "failed"
)

type Action string

const (
	ActionFetch   Action = "fetch"
	ActionAnalyze Action = "analyze"
)

var ErrInProgress = errors.New("action already in progress")

type Status struct {
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

type key struct {
	username string
	action   Action
}

// Tracker records action state per username for the UI layer and refuses
// to start an action that is already running for the same username.
type Tracker struct {
	mu     sync.Mutex
	states map[key]Status
	now    func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{states: make(map[key]Status), now: time.Now}
}

// Begin moves the action to InProgress, or returns ErrInProgress.
func (t *Tracker) Begin(username string, action Action) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{username, action}
	if t.states[k].State == InProgress {
		return ErrInProgress
	}
	t.states[k] = Status{State: InProgress, UpdatedAt: t.now()}
	return nil
}

// Finish records Complete when err is nil, Failed otherwise.
func (t *Tracker) Finish(username string, action Action, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := Status{State: Complete, UpdatedAt: t.now()}
	if err != nil {
		st.State = Failed
		st.Error = err.Error()
	}
	t.states[key{username, action}] = st
}

func (t *Tracker) Get(username string, action Action) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[key{username, action}]
	if !ok {
		return Status{State: Idle}
	}
	return st
}

// Reset returns every action of username to Idle.
func (t *Tracker) Reset(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for k := range t.states {
		if k.username == username && t.states[k].State != InProgress {
			delete(t.states, k)
		}
	}
}

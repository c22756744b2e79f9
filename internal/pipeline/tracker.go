package pipeline

import (
	"fmt"
	"sync"

	"github.com/hyperjump/docanalyzer/internal/models"
)

// State is the lifecycle position of one stage within a request.
type State string

const (
	StateNotStarted  State = "not_started"
	StateRunning     State = "running"
	StateSuccess     State = State(models.StatusSuccess)
	StateUnavailable State = State(models.StatusUnavailable)
	StateFailed      State = State(models.StatusFailed)
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateUnavailable || s == StateFailed
}

// tracker enforces NOT_STARTED -> RUNNING -> {SUCCESS, UNAVAILABLE, FAILED} per stage.
type tracker struct {
	mu     sync.Mutex
	states map[models.Stage]State
}

func newTracker(stages []models.Stage) *tracker {
	t := &tracker{states: make(map[models.Stage]State, len(stages))}
	for _, s := range stages {
		t.states[s] = StateNotStarted
	}
	return t
}

func (t *tracker) start(stage models.Stage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur := t.states[stage]; cur != StateNotStarted {
		return fmt.Errorf("stage %s: cannot start from %s", stage, cur)
	}
	t.states[stage] = StateRunning
	return nil
}

func (t *tracker) finish(stage models.Stage, status models.Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := State(status)
	if !next.Terminal() {
		return fmt.Errorf("stage %s: %q is not a terminal state", stage, status)
	}
	if cur := t.states[stage]; cur != StateRunning {
		return fmt.Errorf("stage %s: cannot finish from %s", stage, cur)
	}
	t.states[stage] = next
	return nil
}

func (t *tracker) state(stage models.Stage) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.states[stage]; ok {
		return s
	}
	return StateNotStarted
}

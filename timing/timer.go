package timing

import "time"

// TimerState is the phase of a Timer.
type TimerState int

const (
	TimerNotStarted TimerState = iota
	TimerStarted
	TimerStopped
	TimerManuallySet
)

func (s TimerState) String() string {
	switch s {
	case TimerStarted:
		return "started"
	case TimerStopped:
		return "stopped"
	case TimerManuallySet:
		return "manually_set"
	default:
		return "not_started"
	}
}

// Timer is a per-entrant stopwatch.
type Timer struct {
	state    TimerState
	start    time.Time
	duration time.Duration
}

// Start moves the timer to Started. A timer that is already running cannot be restarted.
func (t *Timer) Start(at time.Time) error {
	if t.state == TimerStarted {
		return ErrTimerAlreadyStarted
	}
	t.state = TimerStarted
	t.start = at
	t.duration = 0
	return nil
}

// Stop freezes the elapsed time measured since Start.
func (t *Timer) Stop(at time.Time) error {
	if t.state != TimerStarted {
		return ErrTimerNotStarted
	}
	t.state = TimerStopped
	t.duration = at.Sub(t.start)
	return nil
}

// Elapsed returns the live duration while running and the stored one otherwise.
func (t *Timer) Elapsed(at time.Time) (time.Duration, error) {
	switch t.state {
	case TimerNotStarted:
		return 0, ErrTimerNotStarted
	case TimerStarted:
		return at.Sub(t.start), nil
	default:
		return t.duration, nil
	}
}

// Set overrides the timer with a corrected duration regardless of its state.
func (t *Timer) Set(d time.Duration) {
	t.state = TimerManuallySet
	t.duration = d
}

func (t *Timer) Running() bool { return t.state == TimerStarted }

func (t *Timer) State() TimerState { return t.state }

// StartedAt is only meaningful while the timer is running.
func (t *Timer) StartedAt() time.Time { return t.start }

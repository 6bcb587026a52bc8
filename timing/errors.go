package timing

import "errors"

// Domain errors. None of them are retried by the core; callers decide.
var (
	ErrTimerAlreadyStarted       = errors.New("timer already started")
	ErrTimerNotStarted           = errors.New("timer has not started")
	ErrTrackNextCarNotRegistered = errors.New("next car has not been registered")
	ErrTrackOverlapLimitExceeded = errors.New("overlap limit exceeded")
	ErrTrackSpecifiedCarNotFound = errors.New("specified car not found")
	ErrTrackNobodyRunning        = errors.New("there is no running car")
	ErrNoSuchTrack               = errors.New("specified track not found")
	ErrNoSuchRecord              = errors.New("specified record not found")

	// ErrLogicError means an internal invariant was violated and indicates a bug.
	ErrLogicError = errors.New("assertion failed; application logic may be wrong")
)

package timing

import (
	"slices"
	"time"
)

// RunningCar is an entrant on the clock.
type RunningCar struct {
	EntryID         EntryID
	Timer           Timer
	PylonTouchCount int
	DerailmentCount int
}

// Track is one course: a pending slot for the next car and a FIFO queue of
// running cars bounded by the overlap limit.
type Track struct {
	pending      *RunningCar
	running      []*RunningCar
	overlapLimit int
	recordType   string
}

func NewTrack(overlapLimit int, recordType string) *Track {
	return &Track{overlapLimit: overlapLimit, recordType: recordType}
}

// RegisterNext sets the car that the next Start will launch. The last registration wins.
func (t *Track) RegisterNext(entry EntryID) {
	t.pending = &RunningCar{EntryID: entry}
}

func (t *Track) Start(at time.Time) error {
	if t.pending == nil {
		return ErrTrackNextCarNotRegistered
	}
	if len(t.running) >= t.overlapLimit {
		return ErrTrackOverlapLimitExceeded
	}
	if err := t.pending.Timer.Start(at); err != nil {
		return err
	}
	t.running = append(t.running, t.pending)
	t.pending = nil
	return nil
}

// Stop finishes the given car, or the car that started first when entry is empty.
func (t *Track) Stop(at time.Time, entry EntryID, id ResultID) (Record, error) {
	var (
		idx int
		err error
	)
	if entry == "" {
		if len(t.running) == 0 {
			return Record{}, ErrTrackNobodyRunning
		}
		idx = 0
	} else if idx, err = t.find(entry); err != nil {
		return Record{}, err
	}
	return t.finish(at, idx, id, RecordCheckered)
}

func (t *Track) MarkDNF(at time.Time, entry EntryID, id ResultID) (Record, error) {
	idx, err := t.find(entry)
	if err != nil {
		return Record{}, err
	}
	return t.finish(at, idx, id, RecordDidNotFinished)
}

func (t *Track) MissCourse(at time.Time, entry EntryID, id ResultID) (Record, error) {
	idx, err := t.find(entry)
	if err != nil {
		return Record{}, err
	}
	return t.finish(at, idx, id, RecordMissCourse)
}

// RedFlag discards every running car without producing records.
func (t *Track) RedFlag(time.Time) {
	t.running = nil
}

func (t *Track) AddPylonTouch(entry EntryID) error {
	return t.adjust(entry, func(c *RunningCar) { c.PylonTouchCount++ })
}

func (t *Track) RemovePylonTouch(entry EntryID) error {
	return t.adjust(entry, func(c *RunningCar) { c.PylonTouchCount-- })
}

func (t *Track) AddDerailment(entry EntryID) error {
	return t.adjust(entry, func(c *RunningCar) { c.DerailmentCount++ })
}

func (t *Track) RemoveDerailment(entry EntryID) error {
	return t.adjust(entry, func(c *RunningCar) { c.DerailmentCount-- })
}

// SetRecordType changes the type stamped on records created from now on.
func (t *Track) SetRecordType(kind string) {
	t.recordType = kind
}

func (t *Track) RecordType() string { return t.recordType }

func (t *Track) OverlapLimit() int { return t.overlapLimit }

// Pending returns the registered next car, if any.
func (t *Track) Pending() (EntryID, bool) {
	if t.pending == nil {
		return "", false
	}
	return t.pending.EntryID, true
}

// Running returns the running cars in start order.
func (t *Track) Running() []EntryID {
	ids := make([]EntryID, 0, len(t.running))
	for _, c := range t.running {
		ids = append(ids, c.EntryID)
	}
	return ids
}

func (t *Track) find(entry EntryID) (int, error) {
	idx := slices.IndexFunc(t.running, func(c *RunningCar) bool { return c.EntryID == entry })
	if idx < 0 {
		return 0, ErrTrackSpecifiedCarNotFound
	}
	return idx, nil
}

func (t *Track) adjust(entry EntryID, fn func(*RunningCar)) error {
	idx, err := t.find(entry)
	if err != nil {
		return err
	}
	fn(t.running[idx])
	return nil
}

// finish stops the car at idx and turns it into a record. Nothing is mutated
// unless the whole transition succeeds.
func (t *Track) finish(at time.Time, idx int, id ResultID, state RecordState) (Record, error) {
	if idx < 0 || idx >= len(t.running) {
		return Record{}, ErrLogicError
	}
	car := *t.running[idx]
	if err := car.Timer.Stop(at); err != nil {
		return Record{}, err
	}
	d, err := car.Timer.Elapsed(at)
	if err != nil {
		return Record{}, err
	}
	t.running = slices.Delete(t.running, idx, idx+1)
	return Record{
		ID:              id,
		State:           state,
		Duration:        d,
		EntryID:         car.EntryID,
		PylonTouchCount: car.PylonTouchCount,
		DerailmentCount: car.DerailmentCount,
		RecordType:      t.recordType,
		Timestamp:       at,
	}, nil
}

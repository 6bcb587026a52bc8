package timing

import (
	"fmt"
	"time"
)

// TrackConfiguration describes one track of a competition.
type TrackConfiguration struct {
	OverlapLimit int    `yaml:"overlap_limit" msgpack:"overlap_limit"`
	RecordType   string `yaml:"record_type,omitempty" msgpack:"record_type"`
}

// CompetitionConfiguration is the static layout a Competition is built from.
type CompetitionConfiguration struct {
	ID     ConfigurationID                `yaml:"id" msgpack:"id"`
	Tracks map[TrackID]TrackConfiguration `yaml:"tracks" msgpack:"tracks"`
}

// Build returns a fresh Competition with empty tracks and no records.
func (c CompetitionConfiguration) Build() *Competition {
	comp := &Competition{
		tracks:  make(map[TrackID]*Track, len(c.Tracks)),
		records: make(map[ResultID]*Record),
	}
	for id, tc := range c.Tracks {
		comp.tracks[id] = NewTrack(tc.OverlapLimit, tc.RecordType)
	}
	return comp
}

// Competition is the aggregate: every track plus every record produced so far.
type Competition struct {
	tracks  map[TrackID]*Track
	records map[ResultID]*Record
}

// Apply executes one command against the competition.
func (c *Competition) Apply(cmd Command) error {
	return cmd.apply(c)
}

func (c *Competition) Track(id TrackID) (*Track, error) {
	t, ok := c.tracks[id]
	if !ok {
		return nil, fmt.Errorf("track %q: %w", id, ErrNoSuchTrack)
	}
	return t, nil
}

func (c *Competition) Record(id ResultID) (*Record, error) {
	r, ok := c.records[id]
	if !ok {
		return nil, fmt.Errorf("record %q: %w", id, ErrNoSuchRecord)
	}
	return r, nil
}

func (c *Competition) RegisterNextCar(track TrackID, entry EntryID) error {
	t, err := c.Track(track)
	if err != nil {
		return err
	}
	t.RegisterNext(entry)
	return nil
}

func (c *Competition) Start(at time.Time, track TrackID) error {
	t, err := c.Track(track)
	if err != nil {
		return err
	}
	return t.Start(at)
}

func (c *Competition) Stop(at time.Time, track TrackID, entry EntryID, id ResultID) error {
	t, err := c.Track(track)
	if err != nil {
		return err
	}
	return c.store(t.Stop(at, entry, id))
}

func (c *Competition) MarkDNF(at time.Time, track TrackID, entry EntryID, id ResultID) error {
	t, err := c.Track(track)
	if err != nil {
		return err
	}
	return c.store(t.MarkDNF(at, entry, id))
}

func (c *Competition) MissCourse(at time.Time, track TrackID, entry EntryID, id ResultID) error {
	t, err := c.Track(track)
	if err != nil {
		return err
	}
	return c.store(t.MissCourse(at, entry, id))
}

func (c *Competition) RedFlag(at time.Time, track TrackID) error {
	t, err := c.Track(track)
	if err != nil {
		return err
	}
	t.RedFlag(at)
	return nil
}

func (c *Competition) onRunningCar(track TrackID, fn func(*Track) error) error {
	t, err := c.Track(track)
	if err != nil {
		return err
	}
	return fn(t)
}

func (c *Competition) SetTrackRecordType(track TrackID, kind string) error {
	t, err := c.Track(track)
	if err != nil {
		return err
	}
	t.SetRecordType(kind)
	return nil
}

func (c *Competition) setRecordState(id ResultID, state RecordState) error {
	r, err := c.Record(id)
	if err != nil {
		return err
	}
	r.State = state
	return nil
}

func (c *Competition) MarkDNFToRecord(id ResultID) error {
	return c.setRecordState(id, RecordDidNotFinished)
}

func (c *Competition) MarkMissCourseToRecord(id ResultID) error {
	return c.setRecordState(id, RecordMissCourse)
}

func (c *Competition) RemoveRecord(id ResultID) error {
	return c.setRecordState(id, RecordRemoved)
}

// RecoveryRecord reinstates a record as a clean finish.
func (c *Competition) RecoveryRecord(id ResultID) error {
	return c.setRecordState(id, RecordCheckered)
}

func (c *Competition) ChangeRecordPylonTouchCount(id ResultID, count int) error {
	r, err := c.Record(id)
	if err != nil {
		return err
	}
	r.PylonTouchCount = count
	return nil
}

func (c *Competition) ChangeRecordDerailmentCount(id ResultID, count int) error {
	r, err := c.Record(id)
	if err != nil {
		return err
	}
	r.DerailmentCount = count
	return nil
}

func (c *Competition) ChangeRecordType(id ResultID, kind string) error {
	r, err := c.Record(id)
	if err != nil {
		return err
	}
	r.RecordType = kind
	return nil
}

func (c *Competition) store(rec Record, err error) error {
	if err != nil {
		return err
	}
	c.records[rec.ID] = &rec
	return nil
}

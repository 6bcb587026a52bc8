package timing

import "time"

// Command is a timestamped intent that transforms a Competition. Commands are
// values: the same command applied in the same order always yields the same state.
type Command interface {
	Timestamp() time.Time
	Name() string
	apply(c *Competition) error
}

// At carries the logical timestamp shared by every command.
type At struct {
	Time time.Time
}

func (a At) Timestamp() time.Time { return a.Time }

type RegisterNextCar struct {
	At
	Track TrackID
	Entry EntryID
}

func (RegisterNextCar) Name() string { return "register_next_car" }

func (cmd RegisterNextCar) apply(c *Competition) error {
	return c.RegisterNextCar(cmd.Track, cmd.Entry)
}

type Start struct {
	At
	Track TrackID
}

func (Start) Name() string { return "start" }

func (cmd Start) apply(c *Competition) error {
	return c.Start(cmd.Time, cmd.Track)
}

// Stop finishes Entry, or the first car on the track when Entry is empty.
type Stop struct {
	At
	Track  TrackID
	Entry  EntryID
	Result ResultID
}

func (Stop) Name() string { return "stop" }

func (cmd Stop) apply(c *Competition) error {
	return c.Stop(cmd.Time, cmd.Track, cmd.Entry, cmd.Result)
}

type RedFlag struct {
	At
	Track TrackID
}

func (RedFlag) Name() string { return "red_flag" }

func (cmd RedFlag) apply(c *Competition) error {
	return c.RedFlag(cmd.Time, cmd.Track)
}

type MarkPylonTouch struct {
	At
	Track TrackID
	Entry EntryID
}

func (MarkPylonTouch) Name() string { return "mark_pylon_touch" }

func (cmd MarkPylonTouch) apply(c *Competition) error {
	return c.onRunningCar(cmd.Track, func(t *Track) error { return t.AddPylonTouch(cmd.Entry) })
}

type RemovePylonTouch struct {
	At
	Track TrackID
	Entry EntryID
}

func (RemovePylonTouch) Name() string { return "remove_pylon_touch" }

func (cmd RemovePylonTouch) apply(c *Competition) error {
	return c.onRunningCar(cmd.Track, func(t *Track) error { return t.RemovePylonTouch(cmd.Entry) })
}

type MarkDerailment struct {
	At
	Track TrackID
	Entry EntryID
}

func (MarkDerailment) Name() string { return "mark_derailment" }

func (cmd MarkDerailment) apply(c *Competition) error {
	return c.onRunningCar(cmd.Track, func(t *Track) error { return t.AddDerailment(cmd.Entry) })
}

type RemoveDerailment struct {
	At
	Track TrackID
	Entry EntryID
}

func (RemoveDerailment) Name() string { return "remove_derailment" }

func (cmd RemoveDerailment) apply(c *Competition) error {
	return c.onRunningCar(cmd.Track, func(t *Track) error { return t.RemoveDerailment(cmd.Entry) })
}

type MarkDNF struct {
	At
	Track  TrackID
	Entry  EntryID
	Result ResultID
}

func (MarkDNF) Name() string { return "mark_dnf" }

func (cmd MarkDNF) apply(c *Competition) error {
	return c.MarkDNF(cmd.Time, cmd.Track, cmd.Entry, cmd.Result)
}

type MarkMissCourse struct {
	At
	Track  TrackID
	Entry  EntryID
	Result ResultID
}

func (MarkMissCourse) Name() string { return "mark_miss_course" }

func (cmd MarkMissCourse) apply(c *Competition) error {
	return c.MissCourse(cmd.Time, cmd.Track, cmd.Entry, cmd.Result)
}

type SetTrackRecordType struct {
	At
	Track      TrackID
	RecordType string
}

func (SetTrackRecordType) Name() string { return "set_track_record_type" }

func (cmd SetTrackRecordType) apply(c *Competition) error {
	return c.SetTrackRecordType(cmd.Track, cmd.RecordType)
}

type MarkDNFToRecord struct {
	At
	Record ResultID
}

func (MarkDNFToRecord) Name() string { return "mark_dnf_to_record" }

func (cmd MarkDNFToRecord) apply(c *Competition) error { return c.MarkDNFToRecord(cmd.Record) }

type MarkMissCourseToRecord struct {
	At
	Record ResultID
}

func (MarkMissCourseToRecord) Name() string { return "mark_miss_course_to_record" }

func (cmd MarkMissCourseToRecord) apply(c *Competition) error {
	return c.MarkMissCourseToRecord(cmd.Record)
}

type RemoveRecord struct {
	At
	Record ResultID
}

func (RemoveRecord) Name() string { return "remove_record" }

func (cmd RemoveRecord) apply(c *Competition) error { return c.RemoveRecord(cmd.Record) }

type RecoveryRecord struct {
	At
	Record ResultID
}

func (RecoveryRecord) Name() string { return "recovery_record" }

func (cmd RecoveryRecord) apply(c *Competition) error { return c.RecoveryRecord(cmd.Record) }

type ChangeRecordPylonTouchCount struct {
	At
	Record ResultID
	Count  int
}

func (ChangeRecordPylonTouchCount) Name() string { return "change_record_pylon_touch_count" }

func (cmd ChangeRecordPylonTouchCount) apply(c *Competition) error {
	return c.ChangeRecordPylonTouchCount(cmd.Record, cmd.Count)
}

type ChangeRecordDerailmentCount struct {
	At
	Record ResultID
	Count  int
}

func (ChangeRecordDerailmentCount) Name() string { return "change_record_derailment_count" }

func (cmd ChangeRecordDerailmentCount) apply(c *Competition) error {
	return c.ChangeRecordDerailmentCount(cmd.Record, cmd.Count)
}

type ChangeRecordType struct {
	At
	Record     ResultID
	RecordType string
}

func (ChangeRecordType) Name() string { return "change_record_type" }

func (cmd ChangeRecordType) apply(c *Competition) error {
	return c.ChangeRecordType(cmd.Record, cmd.RecordType)
}

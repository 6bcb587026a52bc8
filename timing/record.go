package timing

import "time"

type (
	TrackID         string
	EntryID         string
	ResultID        string
	ConfigurationID string
)

// RecordState is the scoring outcome stored on a Record.
type RecordState string

const (
	RecordCheckered      RecordState = "checkered"
	RecordMissCourse     RecordState = "miss_course"
	RecordDidNotStarted  RecordState = "did_not_started"
	RecordDidNotFinished RecordState = "did_not_finished"
	RecordRemoved        RecordState = "removed"
)

// Record is the outcome of one run. It is created once per terminal event and
// corrected in place afterwards; it is never deleted.
type Record struct {
	ID              ResultID      `yaml:"id"`
	State           RecordState   `yaml:"state"`
	Duration        time.Duration `yaml:"duration"`
	EntryID         EntryID       `yaml:"car_id"`
	PylonTouchCount int           `yaml:"pylon_touch_count"`
	DerailmentCount int           `yaml:"derailment_count"`
	RecordType      string        `yaml:"record_type"`
	Timestamp       time.Time     `yaml:"timestamp"`
}

package timing

import (
	"slices"
	"strings"
	"time"
)

// RunningCarState is a read-only copy of a running car.
type RunningCarState struct {
	EntryID         EntryID   `yaml:"car_id"`
	Timer           string    `yaml:"timer"`
	StartedAt       time.Time `yaml:"started_at"`
	PylonTouchCount int       `yaml:"pylon_touch_count"`
	DerailmentCount int       `yaml:"derailment_count"`
}

// TrackState is a read-only copy of a track.
type TrackState struct {
	ID           TrackID           `yaml:"id"`
	OverlapLimit int               `yaml:"overlap_limit"`
	RecordType   string            `yaml:"record_type"`
	Pending      *EntryID          `yaml:"pending_car,omitempty"`
	Running      []RunningCarState `yaml:"running_cars"`
}

// CompetitionState is a deep copy of a Competition, ordered for stable output.
type CompetitionState struct {
	Tracks  []TrackState `yaml:"tracks"`
	Records []Record     `yaml:"records"`
}

// State copies the competition. Tracks are ordered by id, records by id.
func (c *Competition) State() CompetitionState {
	s := CompetitionState{
		Tracks:  make([]TrackState, 0, len(c.tracks)),
		Records: make([]Record, 0, len(c.records)),
	}
	for id, t := range c.tracks {
		ts := TrackState{
			ID:           id,
			OverlapLimit: t.overlapLimit,
			RecordType:   t.recordType,
			Running:      make([]RunningCarState, 0, len(t.running)),
		}
		if entry, ok := t.Pending(); ok {
			ts.Pending = &entry
		}
		for _, car := range t.running {
			ts.Running = append(ts.Running, RunningCarState{
				EntryID:         car.EntryID,
				Timer:           car.Timer.State().String(),
				StartedAt:       car.Timer.StartedAt(),
				PylonTouchCount: car.PylonTouchCount,
				DerailmentCount: car.DerailmentCount,
			})
		}
		s.Tracks = append(s.Tracks, ts)
	}
	for _, r := range c.records {
		s.Records = append(s.Records, *r)
	}
	slices.SortFunc(s.Tracks, func(a, b TrackState) int { return strings.Compare(string(a.ID), string(b.ID)) })
	slices.SortFunc(s.Records, func(a, b Record) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return s
}

// TrackIDs lists the configured tracks in order.
func (c *Competition) TrackIDs() []TrackID {
	ids := make([]TrackID, 0, len(c.tracks))
	for id := range c.tracks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

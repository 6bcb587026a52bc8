package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CompetitionConfiguration names a track layout a competition can be created from.
type CompetitionConfiguration struct {
	bun.BaseModel `bun:"table:competition_configurations,alias:cc"`

	ID        string    `bun:"id,pk" json:"id"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	Tracks []*ConfigurationTrack `bun:"rel:has-many,join:id=configuration_id" json:"tracks"`
}

// ConfigurationTrack is one track of a configuration.
type ConfigurationTrack struct {
	bun.BaseModel `bun:"table:configuration_tracks,alias:ct"`

	ConfigurationID string `bun:"configuration_id,pk" json:"configurationID"`
	TrackID         string `bun:"track_id,pk" json:"trackID"`
	OverlapLimit    int    `bun:"overlap_limit,notnull" json:"overlapLimit"`
	RecordType      string `bun:"record_type,notnull,default:''" json:"recordType"`
}

package model

import "time"

// VisitTime is one page-visit session for a (user, page) pair. At most one
// record per pair is open (EndTime == nil) at a time; closing it sets
// EndTime and recomputes Duration.
type VisitTime struct {
	UserID     string     `bson:"user_id" json:"userId"`
	Page       string     `bson:"page" json:"page"`
	StartTime  time.Time  `bson:"start_time" json:"startTime"`
	EndTime    *time.Time `bson:"end_time" json:"endTime"`
	DurationMS int64      `bson:"duration_ms" json:"durationMs"`
	DeviceInfo string     `bson:"device_info" json:"deviceInfo"`
}

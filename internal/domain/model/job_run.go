package model

import "time"

// JobRun is the persisted summary of one batch execution.
type JobRun struct {
	ID         string
	Job        string
	BranchID   string
	AsOf       time.Time
	Processed  int
	Skipped    int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

package ir

import "time"

// RunRecord summarizes one completed generation run for the archive.
type RunRecord struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	OutlineHash string       `json:"outline_hash"`
	DatasetHash string       `json:"dataset_hash"`
	Registered  []QuestionID `json:"registered"`
	Declined    []string     `json:"declined"`
	Areas       []string     `json:"areas"`
	Responses   int          `json:"responses"`
}

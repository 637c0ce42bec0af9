package model

import "time"

// StageStatus is the terminal state of one pipeline stage execution.
type StageStatus string

const (
	StageStatusSuccess StageStatus = "success"
	StageStatusError   StageStatus = "error"
)

// TraceEntry records a single stage execution for diagnostics. One entry is
// appended per stage run, whether the stage succeeded or failed.
type TraceEntry struct {
	Stage          string      `json:"stage"`
	StartedAt      time.Time   `json:"started_at"`
	EndedAt        time.Time   `json:"ended_at"`
	Duration       int64       `json:"duration_ms"`
	Status         StageStatus `json:"status"`
	PromptLength   int         `json:"prompt_length"`
	ResponseLength int         `json:"response_length"`
	Error          string      `json:"error,omitempty"`
}

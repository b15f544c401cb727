package model

import "time"

// EventType tags the ProgressEvent union
type EventType string

const (
	EventTypeConnected EventType = "connected"
	EventTypeProgress  EventType = "progress"
	EventTypeError     EventType = "error"
)

// StepStatus is the state of one pipeline step as seen by observers
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepActive    StepStatus = "active"
	StepCompleted StepStatus = "completed"
)

// ProgressEvent is broadcast to observers; never persisted.
// Progress events fill Step, StepProgress and Status; error events only Message and OverallProgress.
type ProgressEvent struct {
	Type            EventType  `json:"type"`
	RunID           string     `json:"runId,omitempty"`
	Seq             int64      `json:"seq,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	Step            int        `json:"step,omitempty"`
	StepProgress    int        `json:"stepProgress,omitempty"`
	Status          StepStatus `json:"status,omitempty"`
	Message         string     `json:"message,omitempty"`
	OverallProgress int        `json:"overallProgress"`
}

package pipeline

import (
	"time"

	"github.com/spigell/ats-tuner/internal/iteration"
)

// Status is the per-document result a batch reports.
type Status string

const (
	StatusCompleted             Status = "completed"
	StatusCompletedWithWarnings Status = "completed_with_warnings"
	StatusFailed                Status = "failed"
	StatusSkipped               Status = "skipped"
)

// Outcome describes what happened to one submission. Every submission of a
// batch gets exactly one.
type Outcome struct {
	Path         string               `json:"path"`
	Hash         string               `json:"hash,omitempty"`
	Status       Status               `json:"status"`
	Reason       string               `json:"reason,omitempty"`
	Warnings     []string             `json:"warnings,omitempty"`
	OutputPath   string               `json:"output_path,omitempty"`
	ReportPath   string               `json:"report_path,omitempty"`
	InitialScore float64              `json:"initial_score,omitempty"`
	FinalScore   float64              `json:"final_score,omitempty"`
	Iterations   int                  `json:"iterations,omitempty"`
	StopReason   iteration.StopReason `json:"stop_reason,omitempty"`
	Duration     time.Duration        `json:"duration,omitempty"`
	Err          error                `json:"-"`
}

func failed(path, hash, reason string, err error) Outcome {
	return Outcome{Path: path, Hash: hash, Status: StatusFailed, Reason: reason, Err: err}
}

// Summary counts outcomes by status.
type Summary struct {
	RunID    string
	Outcomes []Outcome
	Counts   map[Status]int
}

func summarize(runID string, outcomes []Outcome) Summary {
	counts := map[Status]int{}
	for _, o := range outcomes {
		counts[o.Status]++
	}
	return Summary{RunID: runID, Outcomes: outcomes, Counts: counts}
}

// Failed reports whether any submission failed.
func (s Summary) Failed() bool {
	return s.Counts[StatusFailed] > 0
}

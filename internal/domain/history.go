package domain

import "time"

// HistoryRecord captures the outcome of one invocation.
type HistoryRecord struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Action          string    `json:"action"`
	Category        string    `json:"category"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Parameters      string    `json:"parameters"`
	Success         bool      `json:"success"`
	ExitCode        int       `json:"exit_code"`
	Attempts        int       `json:"attempts"`
	ExecutionTimeMS int64     `json:"execution_time_ms"`
	Error           string    `json:"error,omitempty"`
}

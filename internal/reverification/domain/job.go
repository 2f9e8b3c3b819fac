// Package domain defines re-verification jobs: batches of documents whose
// clauses must be validated again after drift or on a schedule.
package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	driftDomain "github.com/allisson/occam/internal/drift/domain"
)

// Trigger is what created a job.
type Trigger string

const (
	TriggerDriftDetection Trigger = "drift-detection"
	TriggerScheduled      Trigger = "scheduled"
	TriggerManual         Trigger = "manual"
)

// Status is the lifecycle state of a job: pending, running, then completed or failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Priority orders jobs for operators.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// PriorityForRisk maps a drift risk level to a job priority.
func PriorityForRisk(risk driftDomain.RiskLevel) Priority {
	switch risk {
	case driftDomain.RiskCritical:
		return PriorityCritical
	case driftDomain.RiskHigh:
		return PriorityHigh
	case driftDomain.RiskMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Unit is one document and the clauses of it to validate.
type Unit struct {
	DocumentID string
	ClauseIDs  []string
}

// UnitResult is the outcome of validating one unit.
type UnitResult struct {
	DocumentID  string
	Success     bool
	ExecutionID string
	Error       string
	CompletedAt time.Time
}

// Progress counts processed units. Completed + Failed never exceeds Total.
type Progress struct {
	Total     int
	Completed int
	Failed    int
}

// Processed is the number of units with an outcome.
func (p Progress) Processed() int {
	return p.Completed + p.Failed
}

// Job is a batch of units to re-verify. Its counters and status are guarded
// by an internal mutex; workers report through RecordUnit.
type Job struct {
	mu sync.Mutex

	ID          uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Trigger     Trigger
	Status      Status
	DocumentIDs []string
	ClauseIDs   []string
	Units       []Unit
	Priority    Priority
	Progress    Progress
	Results     []UnitResult
	Error       string
}

// NewJob creates a pending job with one progress slot per unit.
func NewJob(trigger Trigger, priority Priority, units []Unit, now time.Time) *Job {
	job := &Job{
		ID:          uuid.Must(uuid.NewV7()),
		CreatedAt:   now,
		UpdatedAt:   now,
		Trigger:     trigger,
		Status:      StatusPending,
		DocumentIDs: make([]string, 0, len(units)),
		ClauseIDs:   make([]string, 0),
		Units:       units,
		Priority:    priority,
		Progress:    Progress{Total: len(units)},
		Results:     make([]UnitResult, 0, len(units)),
	}

	seen := make(map[string]bool)
	for _, unit := range units {
		job.DocumentIDs = append(job.DocumentIDs, unit.DocumentID)
		for _, clauseID := range unit.ClauseIDs {
			if !seen[clauseID] {
				seen[clauseID] = true
				job.ClauseIDs = append(job.ClauseIDs, clauseID)
			}
		}
	}
	return job
}

// Start moves a pending job to running.
func (j *Job) Start(now time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, StatusRunning)
	}
	j.Status = StatusRunning
	j.UpdatedAt = now
	return nil
}

// RecordUnit counts a unit outcome and returns a snapshot of the job after it.
func (j *Job) RecordUnit(result UnitResult) (*Job, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Progress.Processed() >= j.Progress.Total {
		return nil, ErrProgressOverflow
	}
	if result.Success {
		j.Progress.Completed++
	} else {
		j.Progress.Failed++
	}
	j.Results = append(j.Results, result)
	j.UpdatedAt = result.CompletedAt
	return j.snapshot(), nil
}

// Complete marks a running job completed. Every unit must have an outcome.
func (j *Job) Complete(now time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status != StatusRunning {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, StatusCompleted)
	}
	if j.Progress.Processed() != j.Progress.Total {
		return fmt.Errorf(
			"%w: %d of %d units processed",
			ErrInvalidTransition, j.Progress.Processed(), j.Progress.Total,
		)
	}
	j.Status = StatusCompleted
	j.UpdatedAt = now
	return nil
}

// Fail marks the job failed with reason.
func (j *Job) Fail(reason string, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Status = StatusFailed
	j.Error = reason
	j.UpdatedAt = now
}

// Snapshot returns a consistent copy of the job.
func (j *Job) Snapshot() *Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshot()
}

func (j *Job) snapshot() *Job {
	units := make([]Unit, 0, len(j.Units))
	for _, unit := range j.Units {
		units = append(units, Unit{DocumentID: unit.DocumentID, ClauseIDs: append([]string(nil), unit.ClauseIDs...)})
	}
	return &Job{
		ID:          j.ID,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		Trigger:     j.Trigger,
		Status:      j.Status,
		DocumentIDs: append([]string(nil), j.DocumentIDs...),
		ClauseIDs:   append([]string(nil), j.ClauseIDs...),
		Units:       units,
		Priority:    j.Priority,
		Progress:    j.Progress,
		Results:     append([]UnitResult(nil), j.Results...),
		Error:       j.Error,
	}
}

// UnitsFromChecks groups drift cases into one unit per document, in first-seen
// order. A job's total therefore counts documents, not clauses.
func UnitsFromChecks(checks []*driftDomain.Check) ([]Unit, Priority) {
	var units []Unit
	index := make(map[string]int)
	seen := make(map[string]bool)
	maxRisk := driftDomain.RiskNone

	for _, check := range checks {
		if check.RiskLevel.Rank() > maxRisk.Rank() {
			maxRisk = check.RiskLevel
		}
		i, ok := index[check.DocumentID]
		if !ok {
			i = len(units)
			index[check.DocumentID] = i
			units = append(units, Unit{DocumentID: check.DocumentID})
		}
		key := check.DocumentID + "\x00" + check.ClauseID
		if !seen[key] {
			seen[key] = true
			units[i].ClauseIDs = append(units[i].ClauseIDs, check.ClauseID)
		}
	}
	return units, PriorityForRisk(maxRisk)
}

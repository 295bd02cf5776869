package dto

import (
	"time"

	"github.com/noah-isme/gradadmin-api/internal/models"
)

// RowStatus is the outcome of one import row.
type RowStatus string

const (
	RowCreated RowStatus = "created"
	RowSkipped RowStatus = "skipped"
	RowFailed  RowStatus = "failed"
)

// RowResult reports what happened to one sheet row.
type RowResult struct {
	Row      int       `json:"row"`
	Status   RowStatus `json:"status"`
	EntityID string    `json:"entityId,omitempty"`
	Code     string    `json:"code,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// ImportReport summarises a completed import.
type ImportReport struct {
	Kind     models.EntityKind `json:"kind"`
	Total    int               `json:"total"`
	Created  int               `json:"created"`
	Skipped  int               `json:"skipped"`
	Failed   int               `json:"failed"`
	Rows     []RowResult       `json:"rows"`
	Errors   []string          `json:"errors"`
	Duration string            `json:"duration"`
}

// Tally recomputes the counters and error list from Rows.
func (r *ImportReport) Tally() {
	r.Total = len(r.Rows)
	r.Created, r.Skipped, r.Failed = 0, 0, 0
	r.Errors = r.Errors[:0]
	for _, row := range r.Rows {
		switch row.Status {
		case RowCreated:
			r.Created++
		case RowSkipped:
			r.Skipped++
		case RowFailed:
			r.Failed++
			r.Errors = append(r.Errors, row.Error)
		}
	}
}

// ImportJobStatus is the lifecycle state of a queued import.
type ImportJobStatus string

const (
	ImportQueued     ImportJobStatus = "queued"
	ImportProcessing ImportJobStatus = "processing"
	ImportCompleted  ImportJobStatus = "completed"
	ImportFailed     ImportJobStatus = "failed"
)

// ImportJob is the pollable handle of an import processed in the background.
type ImportJob struct {
	ID         string            `json:"id"`
	Kind       models.EntityKind `json:"kind"`
	Filename   string            `json:"filename"`
	Status     ImportJobStatus   `json:"status"`
	Rows       int               `json:"rows"`
	Report     *ImportReport     `json:"report,omitempty"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
}

// ImportResult is what POST /imports returns: a finished report or a job handle.
type ImportResult struct {
	Report *ImportReport `json:"report,omitempty"`
	Job    *ImportJob    `json:"job,omitempty"`
}

// Decision is the referential-integrity verdict for deleting one entity.
type Decision struct {
	Allowed      bool              `json:"allowed"`
	BlockingKind models.EntityKind `json:"blockingKind,omitempty"`
	Path         string            `json:"path,omitempty"`
}

// Violation is one dependent relationship that blocks a delete.
type Violation struct {
	Kind  models.EntityKind `json:"kind"`
	Path  string            `json:"path"`
	Count int               `json:"count"`
}

// DependentsReport lists every relationship that references an entity.
type DependentsReport struct {
	Kind       models.EntityKind `json:"kind"`
	ID         string            `json:"id"`
	Deletable  bool              `json:"deletable"`
	Violations []Violation       `json:"violations"`
}

package models

import "time"

// EntityKind names one of the persisted collections.
type EntityKind string

const (
	KindAdmin    EntityKind = "admin"
	KindFaculty  EntityKind = "faculty"
	KindStudent  EntityKind = "student"
	KindCourse   EntityKind = "course"
	KindSemester EntityKind = "semester"
	KindJob      EntityKind = "job"
	KindGrade    EntityKind = "grade"
	KindForm     EntityKind = "form"
	KindNote     EntityKind = "note"
)

// Kinds lists every entity kind in a stable order.
var Kinds = []EntityKind{KindAdmin, KindFaculty, KindStudent, KindCourse, KindSemester, KindJob, KindGrade, KindForm, KindNote}

// ParseKind resolves a kind from user input.
func ParseKind(raw string) (EntityKind, bool) {
	for _, k := range Kinds {
		if string(k) == raw {
			return k, true
		}
	}
	return "", false
}

// Base carries the identifier and audit timestamps shared by every entity.
type Base struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Meta exposes the embedded base record.
func (b *Base) Meta() *Base { return b }

// Entity is implemented by pointers to every persisted model.
type Entity interface {
	Meta() *Base
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

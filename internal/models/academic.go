package models

import "fmt"

// Semester is a (year, season) pair.
type Semester struct {
	Base
	Year   int    `db:"year" json:"year" validate:"gte=1900,lte=2200"`
	Season Season `db:"season" json:"season"`
}

// Label renders the "SEASON YEAR" form used on import sheets.
func (s Semester) Label() string {
	return fmt.Sprintf("%s %d", s.Season, s.Year)
}

// Course is one offered section of a course in a semester.
type Course struct {
	Base
	Department string         `db:"department" json:"department"`
	Number     int            `db:"number" json:"number" validate:"gt=0"`
	Name       string         `db:"name" json:"name"`
	Category   CourseCategory `db:"category" json:"category"`
	Hours      int            `db:"hours" json:"hours" validate:"gte=0"`
	FacultyID  string         `db:"faculty_id" json:"faculty"`
	SemesterID string         `db:"semester_id" json:"semester"`
	Section    int            `db:"section" json:"section" validate:"gte=0"`
}

// Code renders the "DEPT NUMBER SECTION" form used on job import sheets.
func (c Course) Code() string {
	return fmt.Sprintf("%s %d %d", c.Department, c.Number, c.Section)
}

// Job is an RA, TA or other appointment for a semester.
type Job struct {
	Base
	Position      JobPosition `db:"position" json:"position"`
	SupervisorID  string      `db:"supervisor_id" json:"supervisor"`
	SemesterID    string      `db:"semester_id" json:"semester"`
	CourseID      *string     `db:"course_id" json:"course"`
	Description   string      `db:"description" json:"description"`
	Hours         int         `db:"hours" json:"hours" validate:"gte=0"`
	FundingSource string      `db:"funding_source" json:"fundingSource"`
}

// Grade is a grade earned in a course.
type Grade struct {
	Base
	Grade    GradeValue `db:"grade" json:"grade"`
	CourseID string     `db:"course_id" json:"course"`
}

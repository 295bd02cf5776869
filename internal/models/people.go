package models

import (
	"time"

	"github.com/lib/pq"
)

// Admin is a department staff account.
type Admin struct {
	Base
	Onyen     string `db:"onyen" json:"onyen"`
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	Email     string `db:"email" json:"email"`
}

// Faculty is a faculty member who can advise, teach and supervise.
type Faculty struct {
	Base
	Onyen         string `db:"onyen" json:"onyen"`
	PID           string `db:"pid" json:"pid"`
	FirstName     string `db:"first_name" json:"firstName"`
	LastName      string `db:"last_name" json:"lastName"`
	Email         string `db:"email" json:"email"`
	SectionNumber int    `db:"section_number" json:"sectionNumber"`
	Active        bool   `db:"active" json:"active"`
	Admin         bool   `db:"is_admin" json:"admin"`
}

// DisplayName renders the "Last, First" form used on import sheets.
func (f Faculty) DisplayName() string {
	return f.LastName + ", " + f.FirstName
}

// Student is the aggregate root of a student's academic record.
type Student struct {
	Base
	Onyen           string        `db:"onyen" json:"onyen"`
	PID             string        `db:"pid" json:"pid"`
	FirstName       string        `db:"first_name" json:"firstName"`
	LastName        string        `db:"last_name" json:"lastName"`
	AlternativeName string        `db:"alternative_name" json:"alternativeName"`
	Email           string        `db:"email" json:"email"`
	Status          StudentStatus `db:"status" json:"status"`

	Gender         string `db:"gender" json:"gender"`
	Ethnicity      string `db:"ethnicity" json:"ethnicity"`
	Residency      string `db:"residency" json:"residency"`
	Citizenship    string `db:"citizenship" json:"citizenship"`
	EnteringStatus string `db:"entering_status" json:"enteringStatus"`
	ResearchArea   string `db:"research_area" json:"researchArea"`
	IntendedDegree string `db:"intended_degree" json:"intendedDegree"`
	HoursCompleted int    `db:"hours_completed" json:"hoursCompleted" validate:"gte=0"`

	TechnicalWritingApproved *time.Time `db:"technical_writing_approved" json:"technicalWritingApproved"`
	ProgramProductApproved   *time.Time `db:"program_product_approved" json:"programProductApproved"`
	OralExamPassed           *time.Time `db:"oral_exam_passed" json:"oralExamPassed"`
	CommitteeCompleted       *time.Time `db:"committee_completed" json:"committeeCompleted"`
	AllButDissertation       *time.Time `db:"all_but_dissertation" json:"allButDissertation"`
	DissertationDefence      *time.Time `db:"dissertation_defence" json:"dissertationDefence"`
	FinalDissertation        *time.Time `db:"final_dissertation" json:"finalDissertation"`

	AdvisorID         *string        `db:"advisor_id" json:"advisor"`
	SemesterStartedID *string        `db:"semester_started_id" json:"semesterStarted"`
	JobHistory        pq.StringArray `db:"job_history" json:"jobHistory"`
	Grades            pq.StringArray `db:"grade_ids" json:"grades"`
}

package models

// Form records a department form filed for a student.
type Form struct {
	Base
	Title        string    `db:"title" json:"title"`
	DefaultTitle FormTitle `db:"default_title" json:"defaultTitle"`
	StudentID    string    `db:"student_id" json:"student"`
}

// Note is a free-text note attached to a student.
type Note struct {
	Base
	Title     string `db:"title" json:"title"`
	Note      string `db:"note" json:"note"`
	StudentID string `db:"student_id" json:"student"`
}

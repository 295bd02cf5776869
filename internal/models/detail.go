package models

// CourseDetail is a course with its references resolved.
type CourseDetail struct {
	Course
	Populated CourseRefs `json:"populated"`
}

// CourseRefs holds the entities a course points at.
type CourseRefs struct {
	Faculty  *Faculty  `json:"faculty,omitempty"`
	Semester *Semester `json:"semester,omitempty"`
}

// JobDetail is a job with its references resolved.
type JobDetail struct {
	Job
	Populated JobRefs `json:"populated"`
}

// JobRefs holds the entities a job points at.
type JobRefs struct {
	Supervisor *Faculty  `json:"supervisor,omitempty"`
	Semester   *Semester `json:"semester,omitempty"`
	Course     *Course   `json:"course,omitempty"`
}

// GradeDetail is a grade with its course resolved.
type GradeDetail struct {
	Grade
	Populated GradeRefs `json:"populated"`
}

// GradeRefs holds the course a grade points at.
type GradeRefs struct {
	Course *Course `json:"course,omitempty"`
}

// StudentDetail is a student with advisor, start semester, jobs and grades resolved.
type StudentDetail struct {
	Student
	Populated StudentRefs `json:"populated"`
}

// StudentRefs holds the entities a student points at.
type StudentRefs struct {
	Advisor         *Faculty      `json:"advisor,omitempty"`
	SemesterStarted *Semester     `json:"semesterStarted,omitempty"`
	JobHistory      []Job         `json:"jobHistory"`
	Grades          []GradeDetail `json:"grades"`
}

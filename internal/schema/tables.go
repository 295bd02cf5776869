package schema

import "github.com/noah-isme/gradadmin-api/internal/models"

var registry = map[models.EntityKind]Schema{
	models.KindAdmin: {
		Kind:  models.KindAdmin,
		Table: "admins",
		Fields: []Field{
			{Name: "onyen", Column: "onyen", Type: String},
			{Name: "firstName", Column: "first_name", Type: String},
			{Name: "lastName", Column: "last_name", Type: String, Search: true},
			{Name: "email", Column: "email", Type: String, Optional: true},
		},
	},
	models.KindFaculty: {
		Kind:  models.KindFaculty,
		Table: "faculty",
		Fields: []Field{
			{Name: "onyen", Column: "onyen", Type: String},
			{Name: "pid", Column: "pid", Type: String, Optional: true},
			{Name: "firstName", Column: "first_name", Type: String},
			{Name: "lastName", Column: "last_name", Type: String, Search: true},
			{Name: "email", Column: "email", Type: String, Optional: true},
			{Name: "sectionNumber", Column: "section_number", Type: Int, Optional: true},
			{Name: "active", Column: "active", Type: Bool, Optional: true, Default: true},
			{Name: "admin", Column: "is_admin", Type: Bool, Optional: true, Default: false},
		},
	},
	models.KindSemester: {
		Kind:  models.KindSemester,
		Table: "semesters",
		Fields: []Field{
			{Name: "year", Column: "year", Type: Int},
			{Name: "season", Column: "season", Type: Enum, Enum: models.SeasonValues},
		},
	},
	models.KindCourse: {
		Kind:  models.KindCourse,
		Table: "courses",
		Fields: []Field{
			{Name: "department", Column: "department", Type: String},
			{Name: "number", Column: "number", Type: Int},
			{Name: "name", Column: "name", Type: String, Search: true},
			{Name: "category", Column: "category", Type: Enum, Enum: models.CourseCategoryValues},
			{Name: "hours", Column: "hours", Type: Int},
			{Name: "faculty", Column: "faculty_id", Type: Ref, RefKind: models.KindFaculty},
			{Name: "semester", Column: "semester_id", Type: Ref, RefKind: models.KindSemester},
			{Name: "section", Column: "section", Type: Int, Optional: true, Default: 1},
		},
	},
	models.KindJob: {
		Kind:  models.KindJob,
		Table: "jobs",
		Fields: []Field{
			{Name: "position", Column: "position", Type: Enum, Enum: models.JobPositionValues},
			{Name: "supervisor", Column: "supervisor_id", Type: Ref, RefKind: models.KindFaculty},
			{Name: "semester", Column: "semester_id", Type: Ref, RefKind: models.KindSemester},
			{Name: "course", Column: "course_id", Type: Ref, RefKind: models.KindCourse, Optional: true},
			{Name: "description", Column: "description", Type: String, Search: true},
			{Name: "hours", Column: "hours", Type: Int},
			{Name: "fundingSource", Column: "funding_source", Type: String, Optional: true},
		},
	},
	models.KindGrade: {
		Kind:  models.KindGrade,
		Table: "grades",
		Fields: []Field{
			{Name: "grade", Column: "grade", Type: Enum, Enum: models.GradeValues},
			{Name: "course", Column: "course_id", Type: Ref, RefKind: models.KindCourse},
		},
	},
	models.KindForm: {
		Kind:  models.KindForm,
		Table: "forms",
		Fields: []Field{
			{Name: "title", Column: "title", Type: String, Search: true},
			{Name: "defaultTitle", Column: "default_title", Type: Enum, Enum: models.FormTitleValues},
			{Name: "student", Column: "student_id", Type: Ref, RefKind: models.KindStudent},
		},
	},
	models.KindNote: {
		Kind:  models.KindNote,
		Table: "notes",
		Fields: []Field{
			{Name: "title", Column: "title", Type: String, Search: true},
			{Name: "note", Column: "note", Type: String},
			{Name: "student", Column: "student_id", Type: Ref, RefKind: models.KindStudent},
		},
	},
	models.KindStudent: {
		Kind:  models.KindStudent,
		Table: "students",
		Fields: []Field{
			{Name: "onyen", Column: "onyen", Type: String},
			{Name: "pid", Column: "pid", Type: String, Optional: true},
			{Name: "firstName", Column: "first_name", Type: String},
			{Name: "lastName", Column: "last_name", Type: String, Search: true},
			{Name: "alternativeName", Column: "alternative_name", Type: String, Optional: true},
			{Name: "email", Column: "email", Type: String, Optional: true},
			{Name: "status", Column: "status", Type: Enum, Enum: models.StudentStatusValues},
			{Name: "gender", Column: "gender", Type: String, Optional: true},
			{Name: "ethnicity", Column: "ethnicity", Type: String, Optional: true},
			{Name: "residency", Column: "residency", Type: String, Optional: true},
			{Name: "citizenship", Column: "citizenship", Type: String, Optional: true},
			{Name: "enteringStatus", Column: "entering_status", Type: String, Optional: true},
			{Name: "researchArea", Column: "research_area", Type: String, Optional: true},
			{Name: "intendedDegree", Column: "intended_degree", Type: String, Optional: true},
			{Name: "hoursCompleted", Column: "hours_completed", Type: Int, Optional: true},
			{Name: "technicalWritingApproved", Column: "technical_writing_approved", Type: Date, Optional: true},
			{Name: "programProductApproved", Column: "program_product_approved", Type: Date, Optional: true},
			{Name: "oralExamPassed", Column: "oral_exam_passed", Type: Date, Optional: true},
			{Name: "committeeCompleted", Column: "committee_completed", Type: Date, Optional: true},
			{Name: "allButDissertation", Column: "all_but_dissertation", Type: Date, Optional: true},
			{Name: "dissertationDefence", Column: "dissertation_defence", Type: Date, Optional: true},
			{Name: "finalDissertation", Column: "final_dissertation", Type: Date, Optional: true},
			{Name: "advisor", Column: "advisor_id", Type: Ref, RefKind: models.KindFaculty, Optional: true},
			{Name: "semesterStarted", Column: "semester_started_id", Type: Ref, RefKind: models.KindSemester, Optional: true},
			{Name: "jobHistory", Column: "job_history", Type: RefList, RefKind: models.KindJob, Optional: true},
			{Name: "grades", Column: "grade_ids", Type: RefList, RefKind: models.KindGrade, Optional: true},
		},
	},
}

package models

// StudentStatus tracks where a student is in the program.
type StudentStatus string

const (
	StatusActive     StudentStatus = "Active"
	StatusInactive   StudentStatus = "Inactive"
	StatusLeave      StudentStatus = "Leave"
	StatusGraduated  StudentStatus = "Graduated"
	StatusIneligible StudentStatus = "Ineligible"
)

// CourseCategory is the breadth area a course counts toward.
type CourseCategory string

const (
	CategoryNA      CourseCategory = "NA"
	CategoryTheory  CourseCategory = "Theory"
	CategorySystems CourseCategory = "Systems"
	CategoryAppls   CourseCategory = "Appls"
)

// Season identifies the term within an academic year.
type Season string

const (
	SeasonFall    Season = "FA"
	SeasonSpring  Season = "SP"
	SeasonSummer1 Season = "S1"
	SeasonSummer2 Season = "S2"
)

// JobPosition is the kind of appointment a job represents.
type JobPosition string

const (
	PositionRA    JobPosition = "RA"
	PositionTA    JobPosition = "TA"
	PositionOther JobPosition = "OTHER"
)

// RequiresCourse reports whether the position is tied to a course.
func (p JobPosition) RequiresCourse() bool { return p == PositionTA }

// GradeValue is a letter grade variant as recorded on a transcript.
type GradeValue string

// FormTitle names one of the department's fixed forms.
type FormTitle string

const (
	FormAdvisorSelection      FormTitle = "Advisor Selection"
	FormProgramProduct        FormTitle = "Program Product Requirement"
	FormTechnicalWriting      FormTitle = "Technical Writing Requirement"
	FormResearchAssessment    FormTitle = "Research Assessment Committee"
	FormDoctoralExamCommittee FormTitle = "Doctoral Exam Committee"
	FormDoctoralExamReport    FormTitle = "Report of Doctoral Examination"
	FormTeachingRequirement   FormTitle = "Teaching Requirement"
	FormOther                 FormTitle = "Other"
)

// Allowed values, in display order.
var (
	StudentStatusValues  = enumStrings(StatusActive, StatusInactive, StatusLeave, StatusGraduated, StatusIneligible)
	CourseCategoryValues = enumStrings(CategoryNA, CategoryTheory, CategorySystems, CategoryAppls)
	SeasonValues         = enumStrings(SeasonFall, SeasonSpring, SeasonSummer1, SeasonSummer2)
	JobPositionValues    = enumStrings(PositionRA, PositionTA, PositionOther)
	GradeValues          = []string{
		"H+", "H", "H-", "P+", "P", "P-", "L+", "L", "L-", "F",
		"A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-",
		"IN", "AB", "W", "S", "U",
	}
	FormTitleValues = enumStrings(FormAdvisorSelection, FormProgramProduct, FormTechnicalWriting,
		FormResearchAssessment, FormDoctoralExamCommittee, FormDoctoralExamReport, FormTeachingRequirement, FormOther)
)

func enumStrings[T ~string](values ...T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradadmin-api/internal/models"
)

// AdminRepository persists admin accounts.
type AdminRepository struct {
	*Store[models.Admin, *models.Admin]
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{Store: NewStore[models.Admin, *models.Admin](db, models.KindAdmin)}
}

// FindByOnyen returns the admins registered under onyen.
func (r *AdminRepository) FindByOnyen(ctx context.Context, onyen string) ([]models.Admin, error) {
	return r.FindWhere(ctx, sq.Eq{"onyen": onyen})
}

// FacultyRepository persists faculty members.
type FacultyRepository struct {
	*Store[models.Faculty, *models.Faculty]
}

// NewFacultyRepository constructs a FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{Store: NewStore[models.Faculty, *models.Faculty](db, models.KindFaculty)}
}

// FindByOnyen returns the faculty registered under onyen.
func (r *FacultyRepository) FindByOnyen(ctx context.Context, onyen string) ([]models.Faculty, error) {
	return r.FindWhere(ctx, sq.Eq{"onyen": onyen})
}

// SemesterRepository persists semesters.
type SemesterRepository struct {
	*Store[models.Semester, *models.Semester]
}

// NewSemesterRepository constructs a SemesterRepository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{Store: NewStore[models.Semester, *models.Semester](db, models.KindSemester)}
}

// FindBySeasonYear returns the semesters labelled season/year.
func (r *SemesterRepository) FindBySeasonYear(ctx context.Context, season models.Season, year int) ([]models.Semester, error) {
	return r.FindWhere(ctx, sq.Eq{"season": string(season), "year": year})
}

// CourseRepository persists courses.
type CourseRepository struct {
	*Store[models.Course, *models.Course]
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{Store: NewStore[models.Course, *models.Course](db, models.KindCourse)}
}

// FindByCode resolves a "DEPT NUMBER SECTION" code taught by facultyID in semesterID.
func (r *CourseRepository) FindByCode(ctx context.Context, department string, number, section int, facultyID, semesterID string) ([]models.Course, error) {
	return r.FindWhere(ctx, sq.And{
		sq.Expr("UPPER(department) = UPPER(?)", department),
		sq.Eq{"number": number, "section": section, "faculty_id": facultyID, "semester_id": semesterID},
	})
}

// JobRepository persists jobs.
type JobRepository struct {
	*Store[models.Job, *models.Job]
}

// NewJobRepository constructs a JobRepository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{Store: NewStore[models.Job, *models.Job](db, models.KindJob)}
}

// CourseSemester filters jobs whose course is offered in semesterID.
func CourseSemester(semesterID string) sq.Sqlizer {
	return sq.Expr("course_id IN (SELECT c.id FROM courses c WHERE c.semester_id = ?)", semesterID)
}

// GradeRepository persists grades.
type GradeRepository struct {
	*Store[models.Grade, *models.Grade]
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{Store: NewStore[models.Grade, *models.Grade](db, models.KindGrade)}
}

// FormRepository persists student forms.
type FormRepository struct {
	*Store[models.Form, *models.Form]
}

// NewFormRepository constructs a FormRepository.
func NewFormRepository(db *sqlx.DB) *FormRepository {
	return &FormRepository{Store: NewStore[models.Form, *models.Form](db, models.KindForm)}
}

// NoteRepository persists student notes.
type NoteRepository struct {
	*Store[models.Note, *models.Note]
}

// NewNoteRepository constructs a NoteRepository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{Store: NewStore[models.Note, *models.Note](db, models.KindNote)}
}

// StudentRepository persists students and their job and grade sets.
type StudentRepository struct {
	*Store[models.Student, *models.Student]
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{Store: NewStore[models.Student, *models.Student](db, models.KindStudent), db: db}
}

// Create inserts the student with empty reference sets when none were given.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	fillSets(student)
	return r.Store.Create(ctx, student)
}

// Update replaces the student record.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	fillSets(student)
	return r.Store.Update(ctx, student)
}

func fillSets(student *models.Student) {
	if student.JobHistory == nil {
		student.JobHistory = []string{}
	}
	if student.Grades == nil {
		student.Grades = []string{}
	}
}

// FindByOnyen returns the students registered under onyen.
func (r *StudentRepository) FindByOnyen(ctx context.Context, onyen string) ([]models.Student, error) {
	return r.FindWhere(ctx, sq.Eq{"onyen": onyen})
}

// AddJob adds jobID to the student's job history unless already present.
func (r *StudentRepository) AddJob(ctx context.Context, studentID, jobID string) error {
	return r.addToSet(ctx, "job_history", studentID, jobID)
}

// RemoveJob drops jobID from the student's job history.
func (r *StudentRepository) RemoveJob(ctx context.Context, studentID, jobID string) error {
	return r.removeFromSet(ctx, "job_history", studentID, jobID)
}

// AddGrade adds gradeID to the student's grades unless already present.
func (r *StudentRepository) AddGrade(ctx context.Context, studentID, gradeID string) error {
	return r.addToSet(ctx, "grade_ids", studentID, gradeID)
}

// RemoveGrade drops gradeID from the student's grades.
func (r *StudentRepository) RemoveGrade(ctx context.Context, studentID, gradeID string) error {
	return r.removeFromSet(ctx, "grade_ids", studentID, gradeID)
}

func (r *StudentRepository) addToSet(ctx context.Context, column, studentID, value string) error {
	query := fmt.Sprintf(`UPDATE students SET %[1]s = CASE WHEN $1::uuid = ANY(%[1]s) THEN %[1]s ELSE array_append(%[1]s, $1::uuid) END, updated_at = $2 WHERE id = $3`, column)
	res, err := r.db.ExecContext(ctx, query, value, time.Now().UTC(), studentID)
	if err != nil {
		return fmt.Errorf("add to student %s: %w", column, err)
	}
	return requireAffected(res)
}

func (r *StudentRepository) removeFromSet(ctx context.Context, column, studentID, value string) error {
	query := fmt.Sprintf(`UPDATE students SET %[1]s = array_remove(%[1]s, $1::uuid), updated_at = $2 WHERE id = $3`, column)
	res, err := r.db.ExecContext(ctx, query, value, time.Now().UTC(), studentID)
	if err != nil {
		return fmt.Errorf("remove from student %s: %w", column, err)
	}
	return requireAffected(res)
}

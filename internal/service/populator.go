package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/gradadmin-api/internal/models"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
)

type byIDStore[T any] interface {
	FindByIDs(ctx context.Context, ids []string) ([]T, error)
}

// PopulatorStores are the stores references resolve against.
type PopulatorStores struct {
	Faculty   byIDStore[models.Faculty]
	Semesters byIDStore[models.Semester]
	Courses   byIDStore[models.Course]
	Jobs      byIDStore[models.Job]
	Grades    byIDStore[models.Grade]
}

// Populator resolves reference fields into the referenced entities. Dangling references
// resolve to nothing rather than failing the read.
type Populator struct {
	stores PopulatorStores
}

// NewPopulator constructs a Populator.
func NewPopulator(stores PopulatorStores) *Populator {
	return &Populator{stores: stores}
}

// Course resolves faculty and semester.
func (p *Populator) Course(ctx context.Context, course *models.Course) (*models.CourseDetail, error) {
	detail := &models.CourseDetail{Course: *course}
	faculty, err := one(ctx, p.stores.Faculty, course.FacultyID)
	if err != nil {
		return nil, err
	}
	semester, err := one(ctx, p.stores.Semesters, course.SemesterID)
	if err != nil {
		return nil, err
	}
	detail.Populated = models.CourseRefs{Faculty: faculty, Semester: semester}
	return detail, nil
}

// Job resolves supervisor, semester and course.
func (p *Populator) Job(ctx context.Context, job *models.Job) (*models.JobDetail, error) {
	detail := &models.JobDetail{Job: *job}
	var err error
	if detail.Populated.Supervisor, err = one(ctx, p.stores.Faculty, job.SupervisorID); err != nil {
		return nil, err
	}
	if detail.Populated.Semester, err = one(ctx, p.stores.Semesters, job.SemesterID); err != nil {
		return nil, err
	}
	if job.CourseID != nil {
		if detail.Populated.Course, err = one(ctx, p.stores.Courses, *job.CourseID); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// Grade resolves the course.
func (p *Populator) Grade(ctx context.Context, grade *models.Grade) (*models.GradeDetail, error) {
	course, err := one(ctx, p.stores.Courses, grade.CourseID)
	if err != nil {
		return nil, err
	}
	return &models.GradeDetail{Grade: *grade, Populated: models.GradeRefs{Course: course}}, nil
}

// Student resolves advisor, start semester, job history and grades with their courses.
func (p *Populator) Student(ctx context.Context, student *models.Student) (*models.StudentDetail, error) {
	detail := &models.StudentDetail{Student: *student}
	var err error
	if student.AdvisorID != nil {
		if detail.Populated.Advisor, err = one(ctx, p.stores.Faculty, *student.AdvisorID); err != nil {
			return nil, err
		}
	}
	if student.SemesterStartedID != nil {
		if detail.Populated.SemesterStarted, err = one(ctx, p.stores.Semesters, *student.SemesterStartedID); err != nil {
			return nil, err
		}
	}

	jobs, err := p.stores.Jobs.FindByIDs(ctx, student.JobHistory)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load job history")
	}
	detail.Populated.JobHistory = append([]models.Job{}, jobs...)

	grades, err := p.stores.Grades.FindByIDs(ctx, student.Grades)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load grades")
	}
	detail.Populated.Grades = make([]models.GradeDetail, 0, len(grades))
	for i := range grades {
		g, err := p.Grade(ctx, &grades[i])
		if err != nil {
			return nil, err
		}
		detail.Populated.Grades = append(detail.Populated.Grades, *g)
	}
	return detail, nil
}

func one[T any](ctx context.Context, store byIDStore[T], id string) (*T, error) {
	if id == "" {
		return nil, nil
	}
	items, err := store.FindByIDs(ctx, []string{id})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to resolve reference")
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

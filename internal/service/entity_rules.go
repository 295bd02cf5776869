package service

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/internal/repository"
	"github.com/noah-isme/gradadmin-api/internal/schema"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
)

// Concrete services per entity kind.
type (
	AdminService    = EntityService[models.Admin, *models.Admin]
	FacultyService  = EntityService[models.Faculty, *models.Faculty]
	StudentService  = EntityService[models.Student, *models.Student]
	CourseService   = EntityService[models.Course, *models.Course]
	SemesterService = EntityService[models.Semester, *models.Semester]
	JobService      = EntityService[models.Job, *models.Job]
	GradeService    = EntityService[models.Grade, *models.Grade]
	FormService     = EntityService[models.Form, *models.Form]
	NoteService     = EntityService[models.Note, *models.Note]
)

type matchingStore[T any, P repository.EntityPtr[T]] interface {
	entityStore[T, P]
	FindMatching(ctx context.Context, candidate P) ([]T, error)
}

type onyenStore[T any, P repository.EntityPtr[T]] interface {
	entityStore[T, P]
	FindByOnyen(ctx context.Context, onyen string) ([]T, error)
}

type semesterStore interface {
	entityStore[models.Semester, *models.Semester]
	FindBySeasonYear(ctx context.Context, season models.Season, year int) ([]models.Semester, error)
}

// Deps bundles what every entity service needs besides its store.
type Deps struct {
	Refs      referenceChecker
	Guard     *IntegrityGuard
	Validator *validator.Validate
	Logger    *zap.Logger
}

var departmentPattern = regexp.MustCompile(`^[A-Za-z]{4}$`)

// NewCourseService enforces the department format, expands category shorthand and refuses
// exact duplicates.
func NewCourseService(store matchingStore[models.Course, *models.Course], deps Deps) *CourseService {
	rules := Rules[models.Course, *models.Course]{
		Precheck: func(raw url.Values) error {
			if values, ok := raw["department"]; ok {
				dept := ""
				if len(values) > 0 {
					dept = strings.TrimSpace(values[0])
				}
				if !departmentPattern.MatchString(dept) {
					return appErrors.Clonef(appErrors.ErrInvalidFormat, "department: %q must be exactly four letters", dept)
				}
				raw.Set("department", strings.ToUpper(dept))
			}
			if category := raw.Get("category"); category != "" {
				raw.Set("category", schema.NormalizeCategory(category))
			}
			return nil
		},
		Duplicate: matchDuplicate[models.Course, *models.Course](store),
	}
	return NewEntityService[models.Course, *models.Course](models.KindCourse, store, deps.Refs, deps.Guard, rules, deps.Validator, deps.Logger)
}

// NewJobService requires a course for TA positions and refuses exact duplicates.
func NewJobService(store matchingStore[models.Job, *models.Job], deps Deps) *JobService {
	rules := Rules[models.Job, *models.Job]{
		Validate: func(job *models.Job) error {
			hasCourse := job.CourseID != nil && *job.CourseID != ""
			if job.Position.RequiresCourse() && !hasCourse {
				return appErrors.Clonef(appErrors.ErrMissingRequiredField, "course is required for %s jobs", job.Position)
			}
			if job.Position == models.PositionRA && hasCourse {
				return appErrors.Clone(appErrors.ErrValidation, "RA jobs do not reference a course")
			}
			return nil
		},
		Duplicate: matchDuplicate[models.Job, *models.Job](store),
	}
	return NewEntityService[models.Job, *models.Job](models.KindJob, store, deps.Refs, deps.Guard, rules, deps.Validator, deps.Logger)
}

// NewFacultyService keeps onyens unique across faculty.
func NewFacultyService(store onyenStore[models.Faculty, *models.Faculty], deps Deps) *FacultyService {
	rules := Rules[models.Faculty, *models.Faculty]{
		Normalize: func(f *models.Faculty) { f.Onyen = normalizeOnyen(f.Onyen) },
		Duplicate: onyenDuplicate[models.Faculty, *models.Faculty](store, func(f *models.Faculty) string { return f.Onyen }),
	}
	return NewEntityService[models.Faculty, *models.Faculty](models.KindFaculty, store, deps.Refs, deps.Guard, rules, deps.Validator, deps.Logger)
}

// NewStudentService keeps onyens unique across students.
func NewStudentService(store onyenStore[models.Student, *models.Student], deps Deps) *StudentService {
	rules := Rules[models.Student, *models.Student]{
		Normalize: func(s *models.Student) { s.Onyen = normalizeOnyen(s.Onyen) },
		Duplicate: onyenDuplicate[models.Student, *models.Student](store, func(s *models.Student) string { return s.Onyen }),
	}
	return NewEntityService[models.Student, *models.Student](models.KindStudent, store, deps.Refs, deps.Guard, rules, deps.Validator, deps.Logger)
}

// NewAdminService keeps onyens unique across admins.
func NewAdminService(store onyenStore[models.Admin, *models.Admin], deps Deps) *AdminService {
	rules := Rules[models.Admin, *models.Admin]{
		Normalize: func(a *models.Admin) { a.Onyen = normalizeOnyen(a.Onyen) },
		Duplicate: onyenDuplicate[models.Admin, *models.Admin](store, func(a *models.Admin) string { return a.Onyen }),
	}
	return NewEntityService[models.Admin, *models.Admin](models.KindAdmin, store, deps.Refs, deps.Guard, rules, deps.Validator, deps.Logger)
}

// NewSemesterService keeps (year, season) unique.
func NewSemesterService(store semesterStore, deps Deps) *SemesterService {
	rules := Rules[models.Semester, *models.Semester]{
		Duplicate: func(ctx context.Context, s *models.Semester) (string, error) {
			existing, err := store.FindBySeasonYear(ctx, s.Season, s.Year)
			if err != nil {
				return "", err
			}
			return firstOther[models.Semester, *models.Semester](existing, s.ID), nil
		},
	}
	return NewEntityService[models.Semester, *models.Semester](models.KindSemester, store, deps.Refs, deps.Guard, rules, deps.Validator, deps.Logger)
}

// NewGradeService constructs the grade service.
func NewGradeService(store entityStore[models.Grade, *models.Grade], deps Deps) *GradeService {
	return NewEntityService[models.Grade, *models.Grade](models.KindGrade, store, deps.Refs, deps.Guard, Rules[models.Grade, *models.Grade]{}, deps.Validator, deps.Logger)
}

// NewFormService constructs the form service.
func NewFormService(store entityStore[models.Form, *models.Form], deps Deps) *FormService {
	return NewEntityService[models.Form, *models.Form](models.KindForm, store, deps.Refs, deps.Guard, Rules[models.Form, *models.Form]{}, deps.Validator, deps.Logger)
}

// NewNoteService constructs the note service.
func NewNoteService(store entityStore[models.Note, *models.Note], deps Deps) *NoteService {
	return NewEntityService[models.Note, *models.Note](models.KindNote, store, deps.Refs, deps.Guard, Rules[models.Note, *models.Note]{}, deps.Validator, deps.Logger)
}

func matchDuplicate[T any, P repository.EntityPtr[T]](store matchingStore[T, P]) func(context.Context, P) (string, error) {
	return func(ctx context.Context, candidate P) (string, error) {
		matches, err := store.FindMatching(ctx, candidate)
		if err != nil {
			return "", err
		}
		return firstOther[T, P](matches, candidate.Meta().ID), nil
	}
}

func onyenDuplicate[T any, P repository.EntityPtr[T]](store onyenStore[T, P], onyen func(P) string) func(context.Context, P) (string, error) {
	return func(ctx context.Context, candidate P) (string, error) {
		existing, err := store.FindByOnyen(ctx, onyen(candidate))
		if err != nil {
			return "", err
		}
		return firstOther[T, P](existing, candidate.Meta().ID), nil
	}
}

func firstOther[T any, P repository.EntityPtr[T]](items []T, self string) string {
	for i := range items {
		if id := P(&items[i]).Meta().ID; id != self {
			return id
		}
	}
	return ""
}

func normalizeOnyen(onyen string) string {
	return strings.ToLower(strings.TrimSpace(onyen))
}

package service

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/noah-isme/gradadmin-api/internal/models"
)

type facultyDirectory interface {
	All(ctx context.Context) ([]models.Faculty, error)
}

type semesterDirectory interface {
	All(ctx context.Context) ([]models.Semester, error)
}

type courseLookup interface {
	FindByCode(ctx context.Context, department string, number, section int, facultyID, semesterID string) ([]models.Course, error)
}

// referenceResolver maps the human-readable reference text on import sheets to ids.
// Faculty and semesters are loaded once per import and shared by all rows.
type referenceResolver struct {
	faculty   facultyDirectory
	semesters semesterDirectory
	courses   courseLookup

	facultyOnce  sync.Once
	facultyIndex map[string]string
	facultyErr   error

	semesterOnce  sync.Once
	semesterIndex map[string]string
	semesterErr   error
}

func newReferenceResolver(faculty facultyDirectory, semesters semesterDirectory, courses courseLookup) *referenceResolver {
	return &referenceResolver{faculty: faculty, semesters: semesters, courses: courses}
}

// Faculty resolves "Last, First".
func (r *referenceResolver) Faculty(ctx context.Context, text string) (string, bool, error) {
	if id, ok := asID(text); ok {
		return id, true, nil
	}
	r.facultyOnce.Do(func() {
		all, err := r.faculty.All(ctx)
		if err != nil {
			r.facultyErr = err
			return
		}
		r.facultyIndex = make(map[string]string, len(all))
		for _, f := range all {
			key := nameKey(f.LastName, f.FirstName)
			if _, taken := r.facultyIndex[key]; !taken {
				r.facultyIndex[key] = f.ID
			}
		}
	})
	if r.facultyErr != nil {
		return "", false, r.facultyErr
	}

	last, first, ok := strings.Cut(text, ",")
	if !ok {
		return "", false, nil
	}
	id, found := r.facultyIndex[nameKey(last, first)]
	return id, found, nil
}

// Semester resolves "SEASON YEAR".
func (r *referenceResolver) Semester(ctx context.Context, text string) (string, bool, error) {
	if id, ok := asID(text); ok {
		return id, true, nil
	}
	r.semesterOnce.Do(func() {
		all, err := r.semesters.All(ctx)
		if err != nil {
			r.semesterErr = err
			return
		}
		r.semesterIndex = make(map[string]string, len(all))
		for _, s := range all {
			r.semesterIndex[s.Label()] = s.ID
		}
	})
	if r.semesterErr != nil {
		return "", false, r.semesterErr
	}

	parts := strings.Fields(text)
	if len(parts) != 2 {
		return "", false, nil
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", false, nil
	}
	id, found := r.semesterIndex[models.Semester{Season: models.Season(strings.ToUpper(parts[0])), Year: year}.Label()]
	return id, found, nil
}

// Course resolves "DEPT NUMBER SECTION" for the given faculty and semester. The section
// defaults to 1 when omitted.
func (r *referenceResolver) Course(ctx context.Context, text, facultyID, semesterID string) (string, bool, error) {
	if id, ok := asID(text); ok {
		return id, true, nil
	}
	parts := strings.Fields(text)
	if len(parts) < 2 || len(parts) > 3 {
		return "", false, nil
	}
	number, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", false, nil
	}
	section := 1
	if len(parts) == 3 {
		if section, err = strconv.Atoi(parts[2]); err != nil {
			return "", false, nil
		}
	}
	matches, err := r.courses.FindByCode(ctx, parts[0], number, section, facultyID, semesterID)
	if err != nil {
		return "", false, err
	}
	if len(matches) == 0 {
		return "", false, nil
	}
	return matches[0].ID, true, nil
}

func nameKey(last, first string) string {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(last)) + "\x00" + fold.String(strings.TrimSpace(first))
}

func asID(text string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(text))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

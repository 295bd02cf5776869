package service

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/internal/repository"
)

// memStore is an in-memory entity store shared by the service tests.
type memStore[T any, P repository.EntityPtr[T]] struct {
	mu        sync.Mutex
	items     []T
	lastQuery repository.ListQuery
	same      func(stored, candidate P) bool
	onyen     func(P) string
	err       error
}

func newMemStore[T any, P repository.EntityPtr[T]](seed ...T) *memStore[T, P] {
	return &memStore[T, P]{items: append([]T(nil), seed...)}
}

func (m *memStore[T, P]) FindByID(ctx context.Context, id string) (P, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.items {
		if P(&m.items[i]).Meta().ID == id {
			cp := m.items[i]
			return P(&cp), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore[T, P]) FindByIDs(ctx context.Context, ids []string) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []T
	for i := range m.items {
		if want[P(&m.items[i]).Meta().ID] {
			out = append(out, m.items[i])
		}
	}
	return out, m.err
}

func (m *memStore[T, P]) List(ctx context.Context, q repository.ListQuery) ([]T, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	return append([]T(nil), m.items...), len(m.items), m.err
}

func (m *memStore[T, P]) All(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T(nil), m.items...), m.err
}

func (m *memStore[T, P]) Create(ctx context.Context, entity P) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if entity.Meta().ID == "" {
		entity.Meta().ID = uuid.NewString()
	}
	m.items = append(m.items, *entity)
	return nil
}

func (m *memStore[T, P]) Update(ctx context.Context, entity P) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if P(&m.items[i]).Meta().ID == entity.Meta().ID {
			m.items[i] = *entity
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore[T, P]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if P(&m.items[i]).Meta().ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore[T, P]) FindMatching(ctx context.Context, candidate P) ([]T, error) {
	return m.filter(func(stored P) bool { return m.same(stored, candidate) }), m.err
}

func (m *memStore[T, P]) FindByOnyen(ctx context.Context, onyen string) ([]T, error) {
	return m.filter(func(stored P) bool { return m.onyen(stored) == onyen }), m.err
}

func (m *memStore[T, P]) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *memStore[T, P]) filter(keep func(P) bool) []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []T
	for i := range m.items {
		if keep(P(&m.items[i])) {
			out = append(out, m.items[i])
		}
	}
	return out
}

type semesterMem struct {
	*memStore[models.Semester, *models.Semester]
}

func (m semesterMem) FindBySeasonYear(ctx context.Context, season models.Season, year int) ([]models.Semester, error) {
	return m.filter(func(s *models.Semester) bool { return s.Season == season && s.Year == year }), nil
}

type courseMem struct {
	*memStore[models.Course, *models.Course]
}

func (m courseMem) FindByCode(ctx context.Context, department string, number, section int, facultyID, semesterID string) ([]models.Course, error) {
	return m.filter(func(c *models.Course) bool {
		return strings.EqualFold(c.Department, department) && c.Number == number && c.Section == section &&
			c.FacultyID == facultyID && c.SemesterID == semesterID
	}), nil
}

type studentMem struct {
	*memStore[models.Student, *models.Student]
}

func (m studentMem) AddJob(ctx context.Context, studentID, jobID string) error {
	return m.mutate(studentID, func(s *models.Student) { s.JobHistory = addToSet(s.JobHistory, jobID) })
}

func (m studentMem) RemoveJob(ctx context.Context, studentID, jobID string) error {
	return m.mutate(studentID, func(s *models.Student) { s.JobHistory = removeFromSet(s.JobHistory, jobID) })
}

func (m studentMem) AddGrade(ctx context.Context, studentID, gradeID string) error {
	return m.mutate(studentID, func(s *models.Student) { s.Grades = addToSet(s.Grades, gradeID) })
}

func (m studentMem) RemoveGrade(ctx context.Context, studentID, gradeID string) error {
	return m.mutate(studentID, func(s *models.Student) { s.Grades = removeFromSet(s.Grades, gradeID) })
}

func (m studentMem) mutate(id string, fn func(*models.Student)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			fn(&m.items[i])
			return nil
		}
	}
	return sql.ErrNoRows
}

func addToSet(set []string, id string) []string {
	for _, v := range set {
		if v == id {
			return set
		}
	}
	return append(set, id)
}

func removeFromSet(set []string, id string) []string {
	out := set[:0]
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// fakeRefs reports ids listed in missing as absent.
type fakeRefs struct {
	missing map[string]bool
}

func (f *fakeRefs) MissingIDs(ctx context.Context, kind models.EntityKind, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if f.missing[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func courseStore(seed ...models.Course) courseMem {
	m := newMemStore[models.Course, *models.Course](seed...)
	m.same = func(a, b *models.Course) bool {
		return a.Department == b.Department && a.Number == b.Number && a.Name == b.Name &&
			a.Category == b.Category && a.Hours == b.Hours && a.FacultyID == b.FacultyID &&
			a.SemesterID == b.SemesterID && a.Section == b.Section && a.ID != b.ID
	}
	return courseMem{m}
}

func jobStore(seed ...models.Job) *memStore[models.Job, *models.Job] {
	m := newMemStore[models.Job, *models.Job](seed...)
	m.same = func(a, b *models.Job) bool {
		return a.Position == b.Position && a.SupervisorID == b.SupervisorID && a.SemesterID == b.SemesterID &&
			strPtr(a.CourseID) == strPtr(b.CourseID) && a.Description == b.Description && a.Hours == b.Hours &&
			a.FundingSource == b.FundingSource && a.ID != b.ID
	}
	return m
}

func studentStore(seed ...models.Student) studentMem {
	m := newMemStore[models.Student, *models.Student](seed...)
	m.onyen = func(s *models.Student) string { return s.Onyen }
	return studentMem{m}
}

func facultyStore(seed ...models.Faculty) *memStore[models.Faculty, *models.Faculty] {
	m := newMemStore[models.Faculty, *models.Faculty](seed...)
	m.onyen = func(f *models.Faculty) string { return f.Onyen }
	return m
}

func strPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func testDeps(refs referenceChecker, counter referenceCounter) Deps {
	if counter == nil {
		counter = &fakeReferenceCounter{}
	}
	return Deps{Refs: refs, Guard: NewIntegrityGuard(counter, nil)}
}

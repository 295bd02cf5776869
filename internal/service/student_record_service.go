package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"

	"go.uber.org/zap"

	"github.com/noah-isme/gradadmin-api/internal/models"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
)

type studentSets interface {
	AddJob(ctx context.Context, studentID, jobID string) error
	RemoveJob(ctx context.Context, studentID, jobID string) error
	AddGrade(ctx context.Context, studentID, gradeID string) error
	RemoveGrade(ctx context.Context, studentID, gradeID string) error
}

type existenceChecker interface {
	MissingIDs(ctx context.Context, kind models.EntityKind, ids []string) ([]string, error)
}

// StudentRecordService maintains a student's job history and grades and lists the forms
// and notes filed for them.
type StudentRecordService struct {
	sets   studentSets
	refs   existenceChecker
	forms  *FormService
	notes  *NoteService
	logger *zap.Logger
}

// NewStudentRecordService constructs a StudentRecordService.
func NewStudentRecordService(sets studentSets, refs existenceChecker, forms *FormService, notes *NoteService, logger *zap.Logger) *StudentRecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentRecordService{sets: sets, refs: refs, forms: forms, notes: notes, logger: logger}
}

// AddJob puts jobID in the student's job history. Adding a job already present is a no-op.
func (s *StudentRecordService) AddJob(ctx context.Context, studentID, jobID string) error {
	if err := s.requireExists(ctx, models.KindJob, jobID); err != nil {
		return err
	}
	return s.apply(s.sets.AddJob(ctx, studentID, jobID), "add job")
}

// RemoveJob takes jobID out of the student's job history.
func (s *StudentRecordService) RemoveJob(ctx context.Context, studentID, jobID string) error {
	return s.apply(s.sets.RemoveJob(ctx, studentID, jobID), "remove job")
}

// AddGrade puts gradeID in the student's grades. Adding a grade already present is a no-op.
func (s *StudentRecordService) AddGrade(ctx context.Context, studentID, gradeID string) error {
	if err := s.requireExists(ctx, models.KindGrade, gradeID); err != nil {
		return err
	}
	return s.apply(s.sets.AddGrade(ctx, studentID, gradeID), "add grade")
}

// RemoveGrade takes gradeID out of the student's grades.
func (s *StudentRecordService) RemoveGrade(ctx context.Context, studentID, gradeID string) error {
	return s.apply(s.sets.RemoveGrade(ctx, studentID, gradeID), "remove grade")
}

// Forms lists the forms filed for a student.
func (s *StudentRecordService) Forms(ctx context.Context, studentID string, page, size int) ([]models.Form, *models.Pagination, error) {
	if err := s.requireExists(ctx, models.KindStudent, studentID); err != nil {
		return nil, nil, err
	}
	return s.forms.List(ctx, ListParams{Filter: url.Values{"student": {studentID}}, Page: page, PageSize: size})
}

// Notes lists the notes attached to a student.
func (s *StudentRecordService) Notes(ctx context.Context, studentID string, page, size int) ([]models.Note, *models.Pagination, error) {
	if err := s.requireExists(ctx, models.KindStudent, studentID); err != nil {
		return nil, nil, err
	}
	return s.notes.List(ctx, ListParams{Filter: url.Values{"student": {studentID}}, Page: page, PageSize: size})
}

func (s *StudentRecordService) requireExists(ctx context.Context, kind models.EntityKind, id string) error {
	missing, err := s.refs.MissingIDs(ctx, kind, []string{id})
	if err != nil {
		return appErrors.Internal(err, "failed to look up "+string(kind))
	}
	if len(missing) > 0 {
		return appErrors.Clonef(appErrors.ErrNotFound, "%s not found", kind)
	}
	return nil
}

func (s *StudentRecordService) apply(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	s.logger.Error("student record update failed", zap.String("action", action), zap.Error(err))
	return appErrors.Internal(err, "failed to "+action)
}

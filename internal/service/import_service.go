package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/noah-isme/gradadmin-api/internal/dto"
	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/internal/schema"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
	"github.com/noah-isme/gradadmin-api/pkg/jobs"
	"github.com/noah-isme/gradadmin-api/pkg/sheet"
)

// JobTypeImport is the queue job type of background imports.
const JobTypeImport = "sheet_import"

// ImportTarget creates one entity from a reconciled row, skipping equivalents.
type ImportTarget interface {
	Kind() models.EntityKind
	ImportEntity(ctx context.Context, raw url.Values) (id string, created bool, err error)
}

type studentLookup interface {
	FindByOnyen(ctx context.Context, onyen string) ([]models.Student, error)
	AddJob(ctx context.Context, studentID, jobID string) error
}

type importStorage interface {
	SaveStream(name string, r io.Reader, maxBytes int64) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type importJobStore interface {
	Save(ctx context.Context, job *dto.ImportJob) error
	Get(ctx context.Context, id string) (*dto.ImportJob, error)
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// ImportConfig tunes import processing.
type ImportConfig struct {
	SyncRowLimit     int
	RowConcurrency   int
	MaxFileSizeBytes int64
}

// ImportDeps wires the import service.
type ImportDeps struct {
	Targets   []ImportTarget
	Faculty   facultyDirectory
	Semesters semesterDirectory
	Courses   courseLookup
	Students  studentLookup
	Storage   importStorage
	Jobs      importJobStore
	Metrics   *MetricsService
}

type importPayload struct {
	Kind     models.EntityKind
	StoredAs string
}

// ImportService reconciles spreadsheet rows into entities.
type ImportService struct {
	targets   map[models.EntityKind]ImportTarget
	faculty   facultyDirectory
	semesters semesterDirectory
	courses   courseLookup
	students  studentLookup
	storage   importStorage
	jobs      importJobStore
	queue     jobQueue
	metrics   *MetricsService
	cfg       ImportConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewImportService constructs an ImportService. Without a queue every import runs inline.
func NewImportService(deps ImportDeps, cfg ImportConfig, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RowConcurrency <= 0 {
		cfg.RowConcurrency = 8
	}
	if cfg.SyncRowLimit <= 0 {
		cfg.SyncRowLimit = 200
	}
	targets := make(map[models.EntityKind]ImportTarget, len(deps.Targets))
	for _, t := range deps.Targets {
		targets[t.Kind()] = t
	}
	return &ImportService{
		targets:   targets,
		faculty:   deps.Faculty,
		semesters: deps.Semesters,
		courses:   deps.Courses,
		students:  deps.Students,
		storage:   deps.Storage,
		jobs:      deps.Jobs,
		metrics:   deps.Metrics,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// AttachQueue enables background processing of large sheets.
func (s *ImportService) AttachQueue(q jobQueue) {
	s.queue = q
}

// Supported reports whether kind can be imported.
func (s *ImportService) Supported(kind models.EntityKind) bool {
	_, ok := s.targets[kind]
	return ok
}

// Template renders an empty import sheet for kind.
func (s *ImportService) Template(kind models.EntityKind) ([]byte, error) {
	if !s.Supported(kind) {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "%s cannot be imported", kind)
	}
	return ImportTemplate(kind)
}

// ImportTemplate renders the blank sheet of kind: a title row and the column row.
func ImportTemplate(kind models.EntityKind) ([]byte, error) {
	title := fmt.Sprintf("%s import", cases.Title(language.English).String(string(kind)))
	data, err := sheet.Template(title, schema.ImportColumns(kind))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render template")
	}
	return data, nil
}

// Submit reads an uploaded sheet and imports it inline when small, or queues it and
// returns a pollable job.
func (s *ImportService) Submit(ctx context.Context, kind models.EntityKind, filename string, r io.Reader) (*dto.ImportResult, error) {
	if !s.Supported(kind) {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "%s cannot be imported", kind)
	}
	data, err := s.readUpload(r)
	if err != nil {
		return nil, err
	}
	rows, err := readRows(bytes.NewReader(data), filename)
	if err != nil {
		return nil, err
	}

	if s.queue == nil || len(rows) <= s.cfg.SyncRowLimit {
		report, err := s.ImportRows(ctx, kind, rows)
		if err != nil {
			return nil, err
		}
		return &dto.ImportResult{Report: report}, nil
	}

	job, err := s.enqueue(ctx, kind, filename, data, len(rows))
	if err != nil {
		return nil, err
	}
	return &dto.ImportResult{Job: job}, nil
}

// Status returns the state of a background import.
func (s *ImportService) Status(ctx context.Context, id string) (*dto.ImportJob, error) {
	if s.jobs == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
	}
	return s.jobs.Get(ctx, id)
}

// ImportRows reconciles every row concurrently. A failing row never stops the others.
func (s *ImportService) ImportRows(ctx context.Context, kind models.EntityKind, rows []sheet.Row) (*dto.ImportReport, error) {
	target, ok := s.targets[kind]
	if !ok {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "%s cannot be imported", kind)
	}
	start := s.now()
	report := &dto.ImportReport{Kind: kind, Rows: make([]dto.RowResult, len(rows))}
	resolver := newReferenceResolver(s.faculty, s.semesters, s.courses)

	// Rows run to completion once dispatched, even if the caller goes away.
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(s.cfg.RowConcurrency)
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			report.Rows[i] = s.importRow(gctx, kind, target, resolver, row)
			return nil
		})
	}
	_ = g.Wait()

	report.Tally()
	elapsed := s.now().Sub(start)
	report.Duration = elapsed.String()
	s.metrics.ObserveImport(report, elapsed)
	s.logger.Info("import finished",
		zap.String("kind", string(kind)),
		zap.Int("rows", report.Total),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
	return report, nil
}

// HandleJob is the queue handler for background imports.
func (s *ImportService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(importPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	state, err := s.jobs.Get(ctx, job.ID)
	if err != nil {
		if delErr := s.storage.Delete(payload.StoredAs); delErr != nil {
			s.logger.Warn("failed to remove stored import", zap.String("file", payload.StoredAs), zap.Error(delErr))
		}
		return err
	}
	state.Status = dto.ImportProcessing
	if err := s.jobs.Save(ctx, state); err != nil {
		return err
	}

	report, runErr := s.runStored(ctx, payload)
	finished := s.now().UTC()
	state.FinishedAt = &finished
	if runErr != nil {
		state.Status = dto.ImportFailed
		state.Error = runErr.Error()
	} else {
		state.Status = dto.ImportCompleted
		state.Report = report
	}
	if err := s.storage.Delete(payload.StoredAs); err != nil {
		s.logger.Warn("failed to remove stored import", zap.String("file", payload.StoredAs), zap.Error(err))
	}
	if err := s.jobs.Save(ctx, state); err != nil {
		return err
	}
	return runErr
}

func (s *ImportService) runStored(ctx context.Context, payload importPayload) (*dto.ImportReport, error) {
	file, err := s.storage.Open(payload.StoredAs)
	if err != nil {
		return nil, err
	}
	defer file.Close() //nolint:errcheck

	rows, err := readRows(file, payload.StoredAs)
	if err != nil {
		return nil, err
	}
	return s.ImportRows(ctx, payload.Kind, rows)
}

func (s *ImportService) enqueue(ctx context.Context, kind models.EntityKind, filename string, data []byte, rows int) (*dto.ImportJob, error) {
	if s.storage == nil || s.jobs == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "background imports are not configured")
	}
	id := uuid.NewString()
	storedAs := id + strings.ToLower(filepath.Ext(filename))
	if _, err := s.storage.SaveStream(storedAs, bytes.NewReader(data), 0); err != nil {
		return nil, appErrors.Internal(err, "failed to store upload")
	}

	job := &dto.ImportJob{
		ID:        id,
		Kind:      kind,
		Filename:  filepath.Base(filename),
		Status:    dto.ImportQueued,
		Rows:      rows,
		CreatedAt: s.now().UTC(),
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		_ = s.storage.Delete(storedAs)
		return nil, appErrors.Internal(err, "failed to record import job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: id, Type: JobTypeImport, Payload: importPayload{Kind: kind, StoredAs: storedAs}}); err != nil {
		_ = s.storage.Delete(storedAs)
		job.Status = dto.ImportFailed
		job.Error = err.Error()
		_ = s.jobs.Save(ctx, job)
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Clone(appErrors.ErrInternal, "import queue is full, try again later")
		}
		return nil, appErrors.Internal(err, "failed to queue import")
	}
	s.metrics.ImportQueued(kind)
	s.logger.Info("import queued", zap.String("job_id", id), zap.String("kind", string(kind)), zap.Int("rows", rows))
	return job, nil
}

func (s *ImportService) readUpload(r io.Reader) ([]byte, error) {
	src := r
	if s.cfg.MaxFileSizeBytes > 0 {
		src = io.LimitReader(r, s.cfg.MaxFileSizeBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to read upload")
	}
	if s.cfg.MaxFileSizeBytes > 0 && int64(len(data)) > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "file exceeds %d bytes", s.cfg.MaxFileSizeBytes)
	}
	return data, nil
}

func readRows(r io.Reader, filename string) ([]sheet.Row, error) {
	rows, err := sheet.Read(r, filename)
	if err != nil {
		if errors.Is(err, sheet.ErrNoData) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "sheet has no data rows")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidFormat.Code, appErrors.ErrInvalidFormat.Status, "could not read spreadsheet")
	}
	return rows, nil
}

func (s *ImportService) importRow(ctx context.Context, kind models.EntityKind, target ImportTarget, resolver *referenceResolver, row sheet.Row) dto.RowResult {
	result := dto.RowResult{Row: row.Number}
	// code is the row's error kind; an empty code is taken from cause.
	fail := func(code string, cause error, format string, args ...interface{}) dto.RowResult {
		if code == "" {
			code = appErrors.FromError(cause).Code
		}
		result.Status = dto.RowFailed
		result.Code = code
		result.Error = fmt.Sprintf("row %d: ", row.Number) + fmt.Sprintf(format, args...)
		fields := []zap.Field{zap.String("kind", string(kind)), zap.Int("row", row.Number), zap.String("code", code), zap.String("reason", result.Error)}
		if cause != nil {
			fields = append(fields, zap.Error(cause))
		}
		s.logger.Warn("import row failed", fields...)
		return result
	}

	sch := schema.MustFor(kind)
	raw := url.Values{}
	for i, column := range schema.ImportColumns(kind) {
		if v := row.Cell(i); v != "" {
			raw.Set(column, v)
		}
	}
	if !schema.AllRequiredFieldsPresent(raw, sch) || (kind == models.KindJob && raw.Get(schema.StudentColumn) == "") {
		return fail(appErrors.ErrMissingRequiredField.Code, nil, "missing a field")
	}
	subject := rowSubject(kind, raw)

	var facultyID, semesterID string
	for _, f := range sch.Fields {
		text := raw.Get(f.Name)
		if f.Type != schema.Ref || text == "" {
			continue
		}
		switch f.RefKind {
		case models.KindFaculty:
			id, ok, err := resolver.Faculty(ctx, text)
			if err != nil {
				return fail("", err, "something is wrong with %s", subject)
			}
			if !ok {
				return fail(appErrors.ErrMalformedImportRow.Code, nil, "faculty is incorrect")
			}
			raw.Set(f.Name, id)
			facultyID = id
		case models.KindSemester:
			id, ok, err := resolver.Semester(ctx, text)
			if err != nil {
				return fail("", err, "something is wrong with %s", subject)
			}
			if !ok {
				return fail(appErrors.ErrMalformedImportRow.Code, nil, "semester is incorrect")
			}
			raw.Set(f.Name, id)
			semesterID = id
		}
	}
	if kind == models.KindJob {
		if text := raw.Get("course"); text != "" {
			id, ok, err := resolver.Course(ctx, text, facultyID, semesterID)
			if err != nil {
				return fail("", err, "something is wrong with %s", subject)
			}
			if !ok {
				return fail(appErrors.ErrMalformedImportRow.Code, nil, "%s is incorrect", text)
			}
			raw.Set("course", id)
		}
	}
	if kind == models.KindCourse {
		raw.Set("category", schema.NormalizeCategory(raw.Get("category")))
	}

	// Resolve the student first; an unknown onyen must not leave an orphan job.
	var studentID string
	if kind == models.KindJob {
		onyen := raw.Get(schema.StudentColumn)
		students, err := s.students.FindByOnyen(ctx, normalizeOnyen(onyen))
		if err != nil {
			return fail("", err, "something is wrong with %s", subject)
		}
		if len(students) == 0 {
			return fail(appErrors.ErrMalformedImportRow.Code, nil, "student %s not found for job %s", onyen, subject)
		}
		studentID = students[0].ID
	}

	id, created, err := target.ImportEntity(ctx, raw)
	if err != nil {
		return fail("", err, "something is wrong with %s", subject)
	}
	result.EntityID = id
	result.Status = dto.RowSkipped
	if created {
		result.Status = dto.RowCreated
	}

	if studentID != "" {
		if err := s.students.AddJob(ctx, studentID, id); err != nil {
			return fail("", err, "something is wrong with %s", subject)
		}
	}
	return result
}

func rowSubject(kind models.EntityKind, raw url.Values) string {
	switch kind {
	case models.KindCourse:
		return strings.TrimSpace(raw.Get("department") + " " + raw.Get("number"))
	case models.KindJob:
		return raw.Get("description")
	case models.KindSemester:
		return strings.ToUpper(raw.Get("season")) + " " + raw.Get("year")
	default:
		return raw.Get("onyen")
	}
}

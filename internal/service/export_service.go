package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gradadmin-api/internal/models"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
	"github.com/noah-isme/gradadmin-api/pkg/export"
)

type lister[T any] interface {
	All(ctx context.Context) ([]T, error)
}

// ExportSources are the stores exports read from.
type ExportSources struct {
	Courses   lister[models.Course]
	Students  lister[models.Student]
	Faculty   lister[models.Faculty]
	Semesters lister[models.Semester]
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders list views as CSV or PDF documents.
type ExportService struct {
	src       ExportSources
	exporters map[string]export.Exporter
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(src ExportSources, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		src: src,
		exporters: map[string]export.Exporter{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// Courses renders every course with its instructor and semester.
func (s *ExportService) Courses(ctx context.Context, format string) (*ExportFile, error) {
	exporter, err := s.exporter(format)
	if err != nil {
		return nil, err
	}
	courses, err := s.src.Courses.All(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load courses")
	}
	faculty, semesters, err := s.labels(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].Code() < courses[j].Code() })

	data := export.Dataset{
		Title:   "Courses",
		Headers: []string{"Department", "Number", "Section", "Name", "Category", "Hours", "Faculty", "Semester"},
	}
	for _, c := range courses {
		data.Rows = append(data.Rows, map[string]string{
			"Department": c.Department,
			"Number":     strconv.Itoa(c.Number),
			"Section":    strconv.Itoa(c.Section),
			"Name":       c.Name,
			"Category":   string(c.Category),
			"Hours":      strconv.Itoa(c.Hours),
			"Faculty":    faculty[c.FacultyID],
			"Semester":   semesters[c.SemesterID],
		})
	}
	return s.render(exporter, data, "courses")
}

// Students renders every student with advisor and start semester.
func (s *ExportService) Students(ctx context.Context, format string) (*ExportFile, error) {
	exporter, err := s.exporter(format)
	if err != nil {
		return nil, err
	}
	students, err := s.src.Students.All(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load students")
	}
	faculty, semesters, err := s.labels(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if !strings.EqualFold(a.LastName, b.LastName) {
			return strings.ToLower(a.LastName) < strings.ToLower(b.LastName)
		}
		return strings.ToLower(a.FirstName) < strings.ToLower(b.FirstName)
	})

	data := export.Dataset{
		Title:   "Students",
		Headers: []string{"Onyen", "Last Name", "First Name", "Email", "Status", "Advisor", "Semester Started", "Research Area", "Hours Completed"},
	}
	for _, st := range students {
		data.Rows = append(data.Rows, map[string]string{
			"Onyen":            st.Onyen,
			"Last Name":        st.LastName,
			"First Name":       st.FirstName,
			"Email":            st.Email,
			"Status":           string(st.Status),
			"Advisor":          faculty[deref(st.AdvisorID)],
			"Semester Started": semesters[deref(st.SemesterStartedID)],
			"Research Area":    st.ResearchArea,
			"Hours Completed":  strconv.Itoa(st.HoursCompleted),
		})
	}
	return s.render(exporter, data, "students")
}

func (s *ExportService) exporter(format string) (export.Exporter, error) {
	if format == "" {
		format = "csv"
	}
	exporter, ok := s.exporters[strings.ToLower(format)]
	if !ok {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "unsupported export format %q", format)
	}
	return exporter, nil
}

func (s *ExportService) render(exporter export.Exporter, data export.Dataset, name string) (*ExportFile, error) {
	payload, err := exporter.Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	s.logger.Debug("export rendered", zap.String("dataset", name), zap.String("format", exporter.Extension()), zap.Int("rows", len(data.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-%s.%s", name, s.now().UTC().Format("20060102"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        payload,
	}, nil
}

// labels maps faculty ids to display names and semester ids to "SEASON YEAR".
func (s *ExportService) labels(ctx context.Context) (map[string]string, map[string]string, error) {
	faculty, err := s.src.Faculty.All(ctx)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load faculty")
	}
	semesters, err := s.src.Semesters.All(ctx)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load semesters")
	}
	names := make(map[string]string, len(faculty))
	for _, f := range faculty {
		names[f.ID] = f.DisplayName()
	}
	terms := make(map[string]string, len(semesters))
	for _, sem := range semesters {
		terms[sem.ID] = sem.Label()
	}
	return names, terms, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

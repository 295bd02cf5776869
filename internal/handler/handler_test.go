package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradadmin-api/internal/dto"
	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/internal/service"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
)

type courseServiceMock struct {
	raw       url.Values
	params    service.ListParams
	createErr error
	deleteErr error
	course    *models.Course
}

func (m *courseServiceMock) Kind() models.EntityKind { return models.KindCourse }

func (m *courseServiceMock) Get(ctx context.Context, id string) (*models.Course, error) {
	if m.course == nil || m.course.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return m.course, nil
}

func (m *courseServiceMock) List(ctx context.Context, params service.ListParams) ([]models.Course, *models.Pagination, error) {
	m.params = params
	return []models.Course{}, &models.Pagination{Page: params.Page, PageSize: params.PageSize}, nil
}

func (m *courseServiceMock) Create(ctx context.Context, raw url.Values) (*models.Course, error) {
	m.raw = raw
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Course{Base: models.Base{ID: "c-1"}, Department: raw.Get("department")}, nil
}

func (m *courseServiceMock) Update(ctx context.Context, id string, raw url.Values) (*models.Course, error) {
	m.raw = raw
	return &models.Course{Base: models.Base{ID: id}}, nil
}

func (m *courseServiceMock) Delete(ctx context.Context, id string) error { return m.deleteErr }

func (m *courseServiceMock) Dependents(ctx context.Context, id string) (*dto.DependentsReport, error) {
	return &dto.DependentsReport{Kind: models.KindCourse, ID: id, Deletable: true}, nil
}

func performRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestRouter(routes Routes) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Mount(r, "/api/v1", routes)
	return r
}

func courseRouter(mock *courseServiceMock, opts ResourceOptions[*models.Course]) *gin.Engine {
	return newTestRouter(Routes{Resources: map[string]Registrar{
		"courses": NewResourceHandler[models.Course, *models.Course](mock, opts),
	}})
}

func TestCreateAcceptsJSON(t *testing.T) {
	mock := &courseServiceMock{}
	router := courseRouter(mock, ResourceOptions[*models.Course]{})

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/courses", strings.NewReader(`{"department":"COMP","number":410,"active":true,"tags":["a","b"],"faculty":null}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "/api/v1/courses/c-1", resp.Header().Get("Location"))
	assert.Equal(t, "410", mock.raw.Get("number"))
	assert.Equal(t, "true", mock.raw.Get("active"))
	assert.Equal(t, []string{"a", "b"}, mock.raw["tags"])
	_, hasFaculty := mock.raw["faculty"]
	assert.False(t, hasFaculty)
}

func TestCreateAcceptsFormPost(t *testing.T) {
	mock := &courseServiceMock{}
	router := courseRouter(mock, ResourceOptions[*models.Course]{})

	form := url.Values{"department": {"COMP"}, "number": {"410"}}
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/courses", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "COMP", mock.raw.Get("department"))
}

func TestCreateRejectsNestedJSON(t *testing.T) {
	router := courseRouter(&courseServiceMock{}, ResourceOptions[*models.Course]{})

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/courses", strings.NewReader(`{"faculty":{"id":"x"}}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "INVALID_FORMAT")
}

func TestCreateMapsServiceErrors(t *testing.T) {
	mock := &courseServiceMock{createErr: appErrors.Clone(appErrors.ErrDuplicateEntity, "course already exists")}
	router := courseRouter(mock, ResourceOptions[*models.Course]{})

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/courses", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "course already exists")
}

func TestGetRejectsMalformedID(t *testing.T) {
	router := courseRouter(&courseServiceMock{}, ResourceOptions[*models.Course]{})

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/courses/not-a-uuid", nil)
	resp := performRequest(router, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "course not found")
}

func TestGetPresentsPopulatedView(t *testing.T) {
	id := uuid.NewString()
	mock := &courseServiceMock{course: &models.Course{Base: models.Base{ID: id}}}
	router := courseRouter(mock, ResourceOptions[*models.Course]{
		Present: func(ctx context.Context, c *models.Course) (interface{}, error) {
			return &models.CourseDetail{Course: *c, Populated: models.CourseRefs{Faculty: &models.Faculty{LastName: "Doe"}}}, nil
		},
	})

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/courses/"+id, nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"populated"`)
	assert.Contains(t, resp.Body.String(), `"Doe"`)
}

func TestListSeparatesPagingFromFilter(t *testing.T) {
	mock := &courseServiceMock{}
	semester := uuid.NewString()
	router := courseRouter(mock, ResourceOptions[*models.Course]{
		Reserved: []string{"courseSemester"},
		Where: func(c *gin.Context) ([]sq.Sqlizer, error) {
			if v := c.Query("courseSemester"); v != "" {
				return []sq.Sqlizer{sq.Eq{"semester_id": v}}, nil
			}
			return nil, nil
		},
	})

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/courses?name=data&page=2&limit=5&courseSemester="+semester, nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, url.Values{"name": {"data"}}, mock.params.Filter)
	assert.Equal(t, 2, mock.params.Page)
	assert.Equal(t, 5, mock.params.PageSize)
	assert.Len(t, mock.params.Where, 1)
	assert.Contains(t, resp.Body.String(), `"pagination"`)
}

func TestDeleteBlockedReturnsConflict(t *testing.T) {
	mock := &courseServiceMock{deleteErr: appErrors.Clone(appErrors.ErrReferentialIntegrity, "cannot delete course because job is referencing it")}
	router := courseRouter(mock, ResourceOptions[*models.Course]{})

	req, _ := http.NewRequest(http.MethodDelete, "/api/v1/courses/"+uuid.NewString(), nil)
	resp := performRequest(router, req)

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "REFERENTIAL_INTEGRITY_VIOLATION")

	mock.deleteErr = nil
	resp = performRequest(router, httptest.NewRequest(http.MethodDelete, "/api/v1/courses/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestDependentsEndpoint(t *testing.T) {
	router := courseRouter(&courseServiceMock{}, ResourceOptions[*models.Course]{})

	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/courses/"+uuid.NewString()+"/dependents", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"deletable":true`)
}

type studentRecordMock struct {
	calls []string
	err   error
}

func (m *studentRecordMock) record(action string) error {
	m.calls = append(m.calls, action)
	return m.err
}

func (m *studentRecordMock) AddJob(ctx context.Context, studentID, jobID string) error {
	return m.record("add-job")
}

func (m *studentRecordMock) RemoveJob(ctx context.Context, studentID, jobID string) error {
	return m.record("remove-job")
}

func (m *studentRecordMock) AddGrade(ctx context.Context, studentID, gradeID string) error {
	return m.record("add-grade")
}

func (m *studentRecordMock) RemoveGrade(ctx context.Context, studentID, gradeID string) error {
	return m.record("remove-grade")
}

func (m *studentRecordMock) Forms(ctx context.Context, studentID string, page, size int) ([]models.Form, *models.Pagination, error) {
	return []models.Form{{Title: "Advisor"}}, &models.Pagination{Page: page, PageSize: size, TotalCount: 1}, m.err
}

func (m *studentRecordMock) Notes(ctx context.Context, studentID string, page, size int) ([]models.Note, *models.Pagination, error) {
	return []models.Note{}, &models.Pagination{Page: page, PageSize: size}, m.err
}

func TestStudentJobHistoryRoutes(t *testing.T) {
	mock := &studentRecordMock{}
	router := newTestRouter(Routes{Students: NewStudentHandler(mock)})
	base := "/api/v1/students/" + uuid.NewString()

	resp := performRequest(router, httptest.NewRequest(http.MethodPost, base+"/jobs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = performRequest(router, httptest.NewRequest(http.MethodDelete, base+"/grades/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = performRequest(router, httptest.NewRequest(http.MethodPost, base+"/jobs/bogus", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, []string{"add-job", "remove-grade"}, mock.calls)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, base+"/forms", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"Advisor"`)
}

type importServiceMock struct {
	kind     models.EntityKind
	filename string
	body     string
	result   *dto.ImportResult
}

func (m *importServiceMock) Submit(ctx context.Context, kind models.EntityKind, filename string, r io.Reader) (*dto.ImportResult, error) {
	data, _ := io.ReadAll(r)
	m.kind, m.filename, m.body = kind, filename, string(data)
	return m.result, nil
}

func (m *importServiceMock) Status(ctx context.Context, id string) (*dto.ImportJob, error) {
	if id != "job-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
	}
	return &dto.ImportJob{ID: id, Status: dto.ImportCompleted}, nil
}

func (m *importServiceMock) Template(kind models.EntityKind) ([]byte, error) {
	return []byte("PK"), nil
}

func uploadRequest(t *testing.T, kind, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("kind", kind))
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, _ = part.Write([]byte(content))
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImportSubmitInline(t *testing.T) {
	mock := &importServiceMock{result: &dto.ImportResult{Report: &dto.ImportReport{Kind: models.KindCourse, Total: 1, Created: 1}}}
	router := newTestRouter(Routes{Imports: NewImportHandler(mock)})

	resp := performRequest(router, uploadRequest(t, "course", "courses.csv", "a,b"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, models.KindCourse, mock.kind)
	assert.Equal(t, "courses.csv", mock.filename)
	assert.Equal(t, "a,b", mock.body)
	assert.Contains(t, resp.Body.String(), `"created":1`)
}

func TestImportSubmitQueued(t *testing.T) {
	mock := &importServiceMock{result: &dto.ImportResult{Job: &dto.ImportJob{ID: "job-1", Status: dto.ImportQueued}}}
	router := newTestRouter(Routes{Imports: NewImportHandler(mock)})

	resp := performRequest(router, uploadRequest(t, "job", "jobs.xlsx", "x"))
	require.Equal(t, http.StatusAccepted, resp.Code)
	assert.Equal(t, "/api/v1/imports/job-1", resp.Header().Get("Location"))

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/imports/job-1", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"completed"`)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/imports/job-2", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestImportSubmitValidation(t *testing.T) {
	router := newTestRouter(Routes{Imports: NewImportHandler(&importServiceMock{})})

	resp := performRequest(router, uploadRequest(t, "spaceship", "x.csv", "a"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = performRequest(router, uploadRequest(t, "course", "", ""))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "file is required")
}

func TestImportTemplateDownload(t *testing.T) {
	router := newTestRouter(Routes{Imports: NewImportHandler(&importServiceMock{})})

	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/imports/templates/course", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, xlsxContentType, resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "course-import.xlsx")
}

type exportServiceMock struct {
	format string
}

func (m *exportServiceMock) Courses(ctx context.Context, format string) (*service.ExportFile, error) {
	m.format = format
	return &service.ExportFile{Filename: "courses.csv", ContentType: "text/csv", Data: []byte("Department\n")}, nil
}

func (m *exportServiceMock) Students(ctx context.Context, format string) (*service.ExportFile, error) {
	return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
}

func TestExportRoutesCoexistWithResources(t *testing.T) {
	exports := &exportServiceMock{}
	router := newTestRouter(Routes{
		Exports:   NewExportHandler(exports),
		Resources: map[string]Registrar{"courses": NewResourceHandler[models.Course, *models.Course](&courseServiceMock{}, ResourceOptions[*models.Course]{})},
	})

	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/courses/export", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "csv", exports.format)
	assert.Equal(t, "Department\n", resp.Body.String())

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/students/export?format=xml", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestReadyReflectsDatabase(t *testing.T) {
	router := newTestRouter(Routes{Metrics: NewMetricsHandler(service.NewMetricsService(), pingerFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))})

	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

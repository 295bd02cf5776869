package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradadmin-api/internal/dto"
	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/internal/repository"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
	"github.com/noah-isme/gradadmin-api/pkg/jobs"
	"github.com/noah-isme/gradadmin-api/pkg/sheet"
	"github.com/noah-isme/gradadmin-api/pkg/storage"
)

type importFixture struct {
	svc       *ImportService
	courses   courseMem
	jobs      *memStore[models.Job, *models.Job]
	students  studentMem
	facultyID string
	semID     string
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	fx := &importFixture{facultyID: uuid.NewString(), semID: uuid.NewString()}
	faculty := facultyStore(models.Faculty{Base: models.Base{ID: fx.facultyID}, Onyen: "jdoe", FirstName: "Jane", LastName: "Doe"})
	semesters := semesterMem{newMemStore[models.Semester, *models.Semester](models.Semester{Base: models.Base{ID: fx.semID}, Year: 2024, Season: models.SeasonFall})}
	fx.courses = courseStore()
	fx.jobs = jobStore()
	fx.students = studentStore(models.Student{Base: models.Base{ID: uuid.NewString()}, Onyen: "jsmith"})

	deps := testDeps(&fakeRefs{}, nil)
	fx.svc = NewImportService(ImportDeps{
		Targets:   []ImportTarget{NewCourseService(fx.courses, deps), NewJobService(fx.jobs, deps)},
		Faculty:   faculty,
		Semesters: semesters,
		Courses:   fx.courses,
		Students:  fx.students,
	}, ImportConfig{RowConcurrency: 4}, nil)
	return fx
}

func dataRow(cells ...string) sheet.Row {
	return sheet.Row{Number: sheet.FirstDataRow, Cells: cells}
}

func TestImportCourseResolvesReferences(t *testing.T) {
	fx := newImportFixture(t)

	report, err := fx.svc.ImportRows(context.Background(), models.KindCourse, []sheet.Row{
		dataRow("comp", "410", "Data Structures", "s", "3", "Doe, Jane", "FA 2024"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Empty(t, report.Errors)

	all, _ := fx.courses.All(context.Background())
	require.Len(t, all, 1)
	assert.Equal(t, "COMP", all[0].Department)
	assert.Equal(t, models.CategorySystems, all[0].Category)
	assert.Equal(t, fx.facultyID, all[0].FacultyID)
	assert.Equal(t, fx.semID, all[0].SemesterID)
	assert.Equal(t, 1, all[0].Section)
}

func TestImportCourseRowErrors(t *testing.T) {
	fx := newImportFixture(t)

	cases := []struct {
		name string
		row  sheet.Row
		want string
		code string
	}{
		{"unknown faculty", dataRow("COMP", "410", "DS", "t", "3", "Nobody, Some", "FA 2024"), "row 3: faculty is incorrect", appErrors.ErrMalformedImportRow.Code},
		{"unknown semester", dataRow("COMP", "410", "DS", "t", "3", "Doe, Jane", "SP 1999"), "row 3: semester is incorrect", appErrors.ErrMalformedImportRow.Code},
		{"missing field", dataRow("COMP", "410", "", "t", "3", "Doe, Jane", "FA 2024"), "row 3: missing a field", appErrors.ErrMissingRequiredField.Code},
		{"bad department", dataRow("CO", "410", "DS", "t", "3", "Doe, Jane", "FA 2024"), "row 3: something is wrong with CO 410", appErrors.ErrInvalidFormat.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report, err := fx.svc.ImportRows(context.Background(), models.KindCourse, []sheet.Row{tc.row})
			require.NoError(t, err)
			assert.Equal(t, 1, report.Failed)
			assert.Equal(t, []string{tc.want}, report.Errors)
			require.Len(t, report.Rows, 1)
			assert.Equal(t, tc.code, report.Rows[0].Code)
		})
	}
	assert.Equal(t, 0, fx.courses.count())
}

func TestImportSkipsDuplicateCourse(t *testing.T) {
	fx := newImportFixture(t)
	row := dataRow("COMP", "410", "DS", "Theory", "3", "Doe, Jane", "FA 2024")

	_, err := fx.svc.ImportRows(context.Background(), models.KindCourse, []sheet.Row{row})
	require.NoError(t, err)
	report, err := fx.svc.ImportRows(context.Background(), models.KindCourse, []sheet.Row{row})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, dto.RowSkipped, report.Rows[0].Status)
	assert.Equal(t, 1, fx.courses.count())
}

func TestImportJobAddsToHistoryOnce(t *testing.T) {
	fx := newImportFixture(t)
	row := dataRow("JSmith", "RA", "Doe, Jane", "FA 2024", "", "Research", "20")

	for i := 0; i < 2; i++ {
		report, err := fx.svc.ImportRows(context.Background(), models.KindJob, []sheet.Row{row})
		require.NoError(t, err)
		assert.Empty(t, report.Errors)
	}

	require.Equal(t, 1, fx.jobs.count())
	jobsAll, _ := fx.jobs.All(context.Background())
	students, _ := fx.students.FindByOnyen(context.Background(), "jsmith")
	require.Len(t, students, 1)
	assert.Equal(t, []string{jobsAll[0].ID}, []string(students[0].JobHistory))
}

func TestImportTAJobResolvesCourse(t *testing.T) {
	fx := newImportFixture(t)
	courseID := uuid.NewString()
	require.NoError(t, fx.courses.Create(context.Background(), &models.Course{
		Base: models.Base{ID: courseID}, Department: "COMP", Number: 410, Section: 1,
		FacultyID: fx.facultyID, SemesterID: fx.semID,
	}))

	report, err := fx.svc.ImportRows(context.Background(), models.KindJob, []sheet.Row{
		dataRow("jsmith", "TA", "Doe, Jane", "FA 2024", "comp 410", "Grader", "10"),
		{Number: 4, Cells: []string{"jsmith", "TA", "Doe, Jane", "FA 2024", "COMP 411 1", "Grader", "10"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, []string{"row 4: COMP 411 1 is incorrect"}, report.Errors)

	all, _ := fx.jobs.All(context.Background())
	require.Len(t, all, 1)
	require.NotNil(t, all[0].CourseID)
	assert.Equal(t, courseID, *all[0].CourseID)
}

func TestImportJobUnknownStudent(t *testing.T) {
	fx := newImportFixture(t)

	report, err := fx.svc.ImportRows(context.Background(), models.KindJob, []sheet.Row{
		dataRow("ghost", "RA", "Doe, Jane", "FA 2024", "", "Research", "20"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"row 3: student ghost not found for job Research"}, report.Errors)
	assert.Equal(t, appErrors.ErrMalformedImportRow.Code, report.Rows[0].Code)
	assert.Equal(t, 0, fx.jobs.count())
}

func TestImportRowsIgnoresCallerCancellation(t *testing.T) {
	fx := newImportFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := fx.svc.ImportRows(ctx, models.KindCourse, []sheet.Row{
		dataRow("COMP", "410", "Data Structures", "s", "3", "Doe, Jane", "FA 2024"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, fx.courses.count())
}

func TestSubmitInlineSurvivesCancelledRequest(t *testing.T) {
	fx := newImportFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := fx.svc.Submit(ctx, models.KindCourse, "courses.csv", strings.NewReader(courseCSV))
	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.Equal(t, 2, result.Report.Created)
	assert.Equal(t, 2, fx.courses.count())
}

func TestImportRowsIndependent(t *testing.T) {
	fx := newImportFixture(t)
	rows := make([]sheet.Row, 0, 20)
	for i := 0; i < 20; i++ {
		faculty := "Doe, Jane"
		if i%2 == 1 {
			faculty = "Nobody, Some"
		}
		rows = append(rows, sheet.Row{Number: i + 3, Cells: []string{"COMP", fmt.Sprintf("1%02d", i), "DS", "t", "3", faculty, "FA 2024"}})
	}

	report, err := fx.svc.ImportRows(context.Background(), models.KindCourse, rows)
	require.NoError(t, err)
	assert.Equal(t, 20, report.Total)
	assert.Equal(t, 10, report.Created)
	assert.Equal(t, 10, report.Failed)
	for i, r := range report.Rows {
		assert.Equal(t, i+3, r.Row)
	}
}

func TestImportUnsupportedKind(t *testing.T) {
	fx := newImportFixture(t)
	_, err := fx.svc.ImportRows(context.Background(), models.KindNote, nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = fx.svc.Template(models.KindNote)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

const courseCSV = "Course import\ndepartment,number,name,category,hours,faculty,semester,section\n" +
	"COMP,410,Data Structures,s,3,\"Doe, Jane\",FA 2024,\n" +
	"COMP,411,Compilers,s,3,\"Doe, Jane\",FA 2024,\n"

func TestSubmitSmallSheetRunsInline(t *testing.T) {
	fx := newImportFixture(t)

	result, err := fx.svc.Submit(context.Background(), models.KindCourse, "courses.csv", strings.NewReader(courseCSV))
	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.Nil(t, result.Job)
	assert.Equal(t, 2, result.Report.Created)
}

func TestSubmitRejectsOversizedAndEmpty(t *testing.T) {
	fx := newImportFixture(t)
	fx.svc.cfg.MaxFileSizeBytes = 10

	_, err := fx.svc.Submit(context.Background(), models.KindCourse, "courses.csv", strings.NewReader(courseCSV))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	fx.svc.cfg.MaxFileSizeBytes = 0
	_, err = fx.svc.Submit(context.Background(), models.KindCourse, "courses.csv", strings.NewReader("title\nheader\n"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestSubmitLargeSheetQueuesJob(t *testing.T) {
	fx := newImportFixture(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	fx.svc.storage = store
	fx.svc.jobs = repository.NewImportJobRepository(repository.NewCacheRepository(nil, nil), time.Hour)
	fx.svc.cfg.SyncRowLimit = 1
	queue := &recordingQueue{}
	fx.svc.AttachQueue(queue)
	ctx := context.Background()

	result, err := fx.svc.Submit(ctx, models.KindCourse, "courses.csv", strings.NewReader(courseCSV))
	require.NoError(t, err)
	require.NotNil(t, result.Job)
	assert.Nil(t, result.Report)
	assert.Equal(t, dto.ImportQueued, result.Job.Status)
	assert.Equal(t, 2, result.Job.Rows)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, 0, fx.courses.count())

	require.NoError(t, fx.svc.HandleJob(ctx, queue.jobs[0]))

	state, err := fx.svc.Status(ctx, result.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.ImportCompleted, state.Status)
	require.NotNil(t, state.Report)
	assert.Equal(t, 2, state.Report.Created)
	assert.NotNil(t, state.FinishedAt)
	assert.Equal(t, 2, fx.courses.count())
}

func TestHandleJobWithoutStateRemovesUpload(t *testing.T) {
	fx := newImportFixture(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	fx.svc.storage = store
	fx.svc.jobs = repository.NewImportJobRepository(repository.NewCacheRepository(nil, nil), time.Hour)
	_, err = store.SaveStream("expired.csv", strings.NewReader(courseCSV), 0)
	require.NoError(t, err)

	err = fx.svc.HandleJob(context.Background(), jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeImport,
		Payload: importPayload{Kind: models.KindCourse, StoredAs: "expired.csv"},
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = store.Open("expired.csv")
	assert.Error(t, err)
	assert.Equal(t, 0, fx.courses.count())
}

func TestSubmitQueueFailureMarksJobFailed(t *testing.T) {
	fx := newImportFixture(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	fx.svc.storage = store
	fx.svc.jobs = repository.NewImportJobRepository(repository.NewCacheRepository(nil, nil), time.Hour)
	fx.svc.cfg.SyncRowLimit = 1
	fx.svc.AttachQueue(&recordingQueue{err: jobs.ErrQueueFull})

	_, err = fx.svc.Submit(context.Background(), models.KindCourse, "courses.csv", strings.NewReader(courseCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")
}

func TestTemplateListsImportColumns(t *testing.T) {
	fx := newImportFixture(t)
	data, err := fx.svc.Template(models.KindJob)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

package schema

import (
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradadmin-api/internal/models"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
)

const (
	facultyID  = "6f1c2d43-6e0f-4b0e-9b0a-0c8a5c1f1a01"
	semesterID = "3b9d8a7e-1c2d-4e5f-8a9b-0c1d2e3f4a5b"
)

func courseInput() url.Values {
	return url.Values{
		"department": {"COMP"},
		"number":     {"410"},
		"name":       {"Foundations"},
		"category":   {"systems"},
		"hours":      {"3"},
		"faculty":    {facultyID},
		"semester":   {strings.ToUpper(semesterID)},
		"csrf":       {"token"},
	}
}

func TestTablesMatchModels(t *testing.T) {
	entities := map[models.EntityKind]interface{}{
		models.KindAdmin:    models.Admin{},
		models.KindFaculty:  models.Faculty{},
		models.KindStudent:  models.Student{},
		models.KindCourse:   models.Course{},
		models.KindSemester: models.Semester{},
		models.KindJob:      models.Job{},
		models.KindGrade:    models.Grade{},
		models.KindForm:     models.Form{},
		models.KindNote:     models.Note{},
	}
	for kind, model := range entities {
		s, ok := For(kind)
		require.True(t, ok, kind)

		tags := map[string]string{}
		typ := reflect.TypeOf(model)
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if field.Anonymous {
				continue
			}
			tags[field.Tag.Get("json")] = field.Tag.Get("db")
		}
		assert.Len(t, s.Fields, len(tags), kind)
		for _, f := range s.Fields {
			column, ok := tags[f.Name]
			if assert.True(t, ok, "%s.%s has no model field", kind, f.Name) {
				assert.Equal(t, column, f.Column, "%s.%s", kind, f.Name)
			}
		}
	}
}

func TestProjectDropsUnknownAndCoerces(t *testing.T) {
	rec, err := Project(courseInput(), MustFor(models.KindCourse))
	require.NoError(t, err)

	assert.NotContains(t, rec, "csrf")
	assert.Equal(t, 410, rec["number"])
	assert.Equal(t, "Systems", rec["category"])
	assert.Equal(t, semesterID, rec["semester"])
	assert.Equal(t, 1, rec["section"])

	var course models.Course
	require.NoError(t, Decode(rec, &course))
	assert.Equal(t, "COMP", course.Department)
	assert.Equal(t, models.CategorySystems, course.Category)
	assert.Equal(t, facultyID, course.FacultyID)
	assert.Equal(t, 1, course.Section)
}

func TestProjectNamedParseErrors(t *testing.T) {
	cases := map[string]url.Values{
		"number":   {"number": {"four-ten"}},
		"category": {"category": {"Robotics"}},
		"faculty":  {"faculty": {"Smith, Jane"}},
	}
	for field, raw := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := Project(raw, MustFor(models.KindCourse))
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrInvalidFormat)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestProjectStudentDatesAndLists(t *testing.T) {
	jobA := "11111111-1111-1111-1111-111111111111"
	jobB := "22222222-2222-2222-2222-222222222222"
	raw := url.Values{
		"onyen":          {"jdoe"},
		"firstName":      {"Jane"},
		"lastName":       {"Doe"},
		"status":         {"active"},
		"oralExamPassed": {"4/15/2024"},
		"jobHistory":     {jobA + "," + jobB, jobA},
		"advisor":        {""},
	}
	rec, err := Project(raw, MustFor(models.KindStudent))
	require.NoError(t, err)
	assert.NotContains(t, rec, "advisor")

	var student models.Student
	require.NoError(t, Decode(rec, &student))
	assert.Equal(t, models.StatusActive, student.Status)
	require.NotNil(t, student.OralExamPassed)
	assert.True(t, student.OralExamPassed.Equal(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, student.AdvisorID)
	assert.Equal(t, []string{jobA, jobB}, []string(student.JobHistory))
}

func TestProjectPartialKeepsSearchTextRaw(t *testing.T) {
	rec, err := ProjectPartial(url.Values{"name": {"found"}, "number": {"410"}, "hours": {""}, "x": {"y"}}, MustFor(models.KindCourse))
	require.NoError(t, err)
	assert.Equal(t, Record{"name": "found", "number": 410}, rec)
}

func TestRequiredFields(t *testing.T) {
	s := MustFor(models.KindCourse)
	assert.True(t, AllRequiredFieldsPresent(courseInput(), s))

	raw := courseInput()
	raw.Set("hours", "  ")
	assert.False(t, AllRequiredFieldsPresent(raw, s))
	err := RequireFields(raw, s)
	assert.ErrorIs(t, err, appErrors.ErrMissingRequiredField)
	assert.Contains(t, err.Error(), "hours")

	raw = courseInput()
	raw.Del("section")
	assert.NoError(t, RequireFields(raw, s))
}

func TestImportColumns(t *testing.T) {
	assert.Equal(t,
		[]string{"department", "number", "name", "category", "hours", "faculty", "semester", "section"},
		ImportColumns(models.KindCourse))
	assert.Equal(t,
		[]string{"onyen", "position", "supervisor", "semester", "course", "description", "hours", "fundingSource"},
		ImportColumns(models.KindJob))
	assert.NotContains(t, ImportColumns(models.KindStudent), "jobHistory")
	assert.Nil(t, ImportColumns("unknown"))
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"t": "Theory", "T": "Theory",
		"s": "Systems", "S": "Systems",
		"a": "Appls", "A": "Appls", "applications": "Appls", "Applications": "Appls",
		"Theory": "Theory", "robotics": "robotics", "": "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCategory(in), in)
	}
}

func TestParseInt(t *testing.T) {
	n, err := ParseInt("hours", "3.0")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = ParseInt("hours", "3.5")
	assert.ErrorIs(t, err, appErrors.ErrInvalidFormat)
}

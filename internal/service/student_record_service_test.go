package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradadmin-api/internal/models"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
)

var recordStudentID = uuid.NewString()

func newRecordFixture(missing ...string) (*StudentRecordService, studentMem, *memStore[models.Form, *models.Form]) {
	students := studentStore(models.Student{Base: models.Base{ID: recordStudentID}, Onyen: "jsmith"})
	refs := &fakeRefs{missing: map[string]bool{}}
	for _, id := range missing {
		refs.missing[id] = true
	}
	forms := newMemStore[models.Form, *models.Form](models.Form{Base: models.Base{ID: "fm-1"}, StudentID: recordStudentID})
	deps := testDeps(refs, nil)
	svc := NewStudentRecordService(students, refs, NewFormService(forms, deps), NewNoteService(newMemStore[models.Note, *models.Note](), deps), nil)
	return svc, students, forms
}

func TestAddJobIsSetAdd(t *testing.T) {
	svc, students, _ := newRecordFixture()
	ctx := context.Background()

	require.NoError(t, svc.AddJob(ctx, recordStudentID, "j-1"))
	require.NoError(t, svc.AddJob(ctx, recordStudentID, "j-1"))
	require.NoError(t, svc.AddGrade(ctx, recordStudentID, "g-1"))

	st, err := students.FindByID(ctx, recordStudentID)
	require.NoError(t, err)
	assert.Equal(t, []string{"j-1"}, []string(st.JobHistory))
	assert.Equal(t, []string{"g-1"}, []string(st.Grades))

	require.NoError(t, svc.RemoveJob(ctx, recordStudentID, "j-1"))
	st, _ = students.FindByID(ctx, recordStudentID)
	assert.Empty(t, st.JobHistory)
}

func TestAddJobUnknownReferences(t *testing.T) {
	svc, _, _ := newRecordFixture("j-missing")
	ctx := context.Background()

	err := svc.AddJob(ctx, recordStudentID, "j-missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "job not found", err.Error())

	err = svc.AddGrade(ctx, "st-404", "g-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "student not found", err.Error())
}

func TestFormsFilteredByStudent(t *testing.T) {
	svc, _, forms := newRecordFixture("st-404")

	items, page, err := svc.Forms(context.Background(), recordStudentID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, recordStudentID, forms.lastQuery.Match["student"])

	_, _, err = svc.Forms(context.Background(), "st-404", 1, 10)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

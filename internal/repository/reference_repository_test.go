package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradadmin-api/internal/models"
)

func TestReferenceCondition(t *testing.T) {
	cases := []struct {
		dependent models.EntityKind
		path      string
		table     string
		sql       string
	}{
		{models.KindJob, "course", "jobs", "d.course_id = ?::uuid"},
		{models.KindStudent, "jobHistory", "students", "?::uuid = ANY(d.job_history)"},
		{models.KindStudent, "grades.course", "students", "EXISTS (SELECT 1 FROM grades i WHERE i.course_id = ?::uuid AND i.id = ANY(d.grade_ids))"},
		{models.KindNote, "student", "notes", "d.student_id = ?::uuid"},
	}
	for _, tc := range cases {
		cond, table, err := ReferenceCondition(tc.dependent, tc.path, "id-1")
		require.NoError(t, err, tc.path)
		sql, args, err := cond.ToSql()
		require.NoError(t, err)
		assert.Equal(t, tc.table, table)
		assert.Equal(t, tc.sql, sql)
		assert.Equal(t, []interface{}{"id-1"}, args)
	}

	_, _, err := ReferenceCondition(models.KindStudent, "lastName", "id-1")
	assert.Error(t, err)
	_, _, err = ReferenceCondition(models.KindStudent, "grades.course.faculty", "id-1")
	assert.Error(t, err)
}

func TestCountReferences(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students d WHERE $1::uuid = ANY(d.job_history)")).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountReferences(context.Background(), models.KindStudent, "jobHistory", "job-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingIDs(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM faculty WHERE id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("fac-1"))

	missing, err := repo.MissingIDs(context.Background(), models.KindFaculty, []string{"fac-1", "fac-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fac-2"}, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

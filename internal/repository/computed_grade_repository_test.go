package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakplan/hakplan-api/internal/models"
)

func TestComputedGradeRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComputedGradeRepository(db)

	mock.ExpectExec("INSERT INTO computed_grades").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	grade := &models.ComputedGrade{
		UserID:     "u1",
		SubjectID:  "s1",
		ExamType:   "midterm",
		FinalScore: 84,
		Components: models.ComponentScores{"written": 90, "performance": 75},
	}
	require.NoError(t, repo.Insert(context.Background(), grade))
	assert.NotEmpty(t, grade.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComputedGradeRepositoryListScansComponents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComputedGradeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "subject_id", "subject_name", "exam_type", "final_score", "component_scores", "created_at"}).
		AddRow("g1", "u1", "s1", "Mathematics", "midterm", 84.0, []byte(`{"written":90,"performance":75}`), time.Now())
	mock.ExpectQuery("SELECT cg.id, cg.user_id, cg.subject_id, s.name AS subject_name").
		WithArgs("u1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	grades, total, err := repo.List(context.Background(), models.ComputedGradeFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Mathematics", grades[0].SubjectName)
	assert.Equal(t, 90.0, grades[0].Components["written"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

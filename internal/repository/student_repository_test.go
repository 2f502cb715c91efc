package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/pkg/database"
)

func TestStudentRepositoryFindByEnrollmentNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "full_name", "birth_date", "enrollment_number", "class_section_name", "created_at"}).
		AddRow("stu-1", "t1", "Ana Souza", nil, "2025-00001", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE tenant_id = $1 AND enrollment_number = $2")).
		WithArgs("t1", "2025-00001").
		WillReturnRows(rows)

	student, err := repo.FindByEnrollmentNumber(context.Background(), "t1", "2025-00001")
	require.NoError(t, err)
	require.NotNil(t, student)
	assert.Equal(t, "stu-1", student.ID)
}

func TestStudentRepositoryFindByEnrollmentNumberMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	student, err := repo.FindByEnrollmentNumber(context.Background(), "t1", "2025-00009")
	require.NoError(t, err)
	assert.Nil(t, student)
}

func TestStudentRepositoryCreateUsesYearColumn(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO students (id, tenant_id, full_name, birth_date, enrollment_number, class_section_name, "year", created_at)`)).
		WithArgs(sqlmock.AnyArg(), "t1", "Ana Souza", nil, "2025-00001", nil, 2025, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	student := &models.Student{TenantID: "t1", FullName: "Ana Souza", EnrollmentNumber: "2025-00001", Year: 2025}
	require.NoError(t, repo.Create(context.Background(), student, "year"))
	assert.NotEmpty(t, student.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateSurfacesUndefinedColumn(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WillReturnError(&pq.Error{Code: "42703", Message: `column "school_year" of relation "students" does not exist`})

	err := repo.Create(context.Background(), &models.Student{TenantID: "t1", FullName: "Ana"}, "school_year")
	require.Error(t, err)
	assert.True(t, database.IsUndefinedColumn(err, "school_year"))
}

func TestStudentRepositoryCreateRejectsUnsafeColumn(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	err := repo.Create(context.Background(), &models.Student{}, "year; DROP TABLE students")
	require.Error(t, err)
}

func TestStudentRepositoryYearColumns(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("year"))

	columns, err := repo.YearColumns(context.Background(), []string{"school_year", "year"})
	require.NoError(t, err)
	assert.Equal(t, []string{"year"}, columns)
}

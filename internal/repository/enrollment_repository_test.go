package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/pkg/database"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	section := "section-1"
	ref := "signatures/t1/abc.png"
	enrollment := &models.Enrollment{
		TenantID: "t1", StudentID: "stu-1", ClassSectionID: &section,
		Number: "2025-00001", Year: 2025, Sequence: 1, SignatureRef: &ref,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments (id, tenant_id, student_id, class_section_id, number, year, sequence, signature_ref, submitted_at, status)")).
		WithArgs(sqlmock.AnyArg(), "t1", "stu-1", "section-1", "2025-00001", 2025, 1, ref, sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	assert.False(t, enrollment.SubmittedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateSequenceClash(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "enrollments_tenant_year_sequence_key"})

	err := repo.Create(context.Background(), &models.Enrollment{TenantID: "t1", StudentID: "s", Number: "2025-00001", Year: 2025, Sequence: 1})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err, "enrollments_tenant_year_sequence_key"))
}

func TestEnrollmentRepositoryMaxSequence(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(sequence), 0) FROM enrollments WHERE tenant_id = $1 AND year = $2")).
		WithArgs("t1", 2025).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(41))

	max, err := repo.MaxSequence(context.Background(), "t1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 41, max)
}

func TestEnrollmentRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("FROM enrollments WHERE tenant_id = \\$1 AND id = \\$2").
		WithArgs("t1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	enrollment, err := repo.FindByID(context.Background(), "t1", "missing")
	require.NoError(t, err)
	assert.Nil(t, enrollment)
}

func TestEnrollmentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "student_id", "class_section_id", "number", "year", "sequence", "signature_ref", "submitted_at", "status", "student_name", "class_section_name", "class_linked"}).
		AddRow("enr-1", "t1", "stu-1", "section-1", "2025-00001", 2025, 1, nil, now, "pending", "Ana Souza", "1A", true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.tenant_id")).
		WithArgs("t1", "pending", 2025, "%2025-0%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments e")).
		WithArgs("t1", "pending", 2025, "%2025-0%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.EnrollmentFilter{
		TenantID: "t1", Status: models.EnrollmentStatusPending, Year: 2025, Search: "2025-0",
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Ana Souza", items[0].StudentName)
	assert.True(t, items[0].ClassLinked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCounterRepositoryNext(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentCounterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO enrollment_counters (tenant_id, year, value)")).
		WithArgs("t1", 2025).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(7))

	next, err := repo.Next(context.Background(), "t1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 7, next)
}

func TestNormalizePage(t *testing.T) {
	page, size := normalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
	_, size = normalizePage(2, 500)
	assert.Equal(t, 20, size)
	_, size = normalizePage(1, -1)
	assert.Equal(t, 10000, size)
}

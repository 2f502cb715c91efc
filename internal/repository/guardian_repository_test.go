package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admission-api/internal/models"
)

func strPtr(v string) *string { return &v }

func TestGuardianRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGuardianRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO guardians")).
		WithArgs(sqlmock.AnyArg(), "enr-1", "primary", "Jane Doe", nil, nil, "11999990000", nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	guardian := &models.Guardian{EnrollmentID: "enr-1", Role: models.GuardianRolePrimary, FullName: strPtr("Jane Doe"), Phone: strPtr("11999990000")}
	require.NoError(t, repo.Create(context.Background(), guardian))
	assert.NotEmpty(t, guardian.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGuardianRepositoryListByEnrollment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGuardianRepository(db)

	rows := sqlmock.NewRows([]string{"id", "enrollment_id", "role", "full_name", "national_id", "birth_date", "phone", "email", "occupation", "created_at"}).
		AddRow("g1", "enr-1", "primary", "Jane Doe", nil, nil, "11999990000", nil, nil, time.Now()).
		AddRow("g2", "enr-1", "secondary", nil, nil, nil, nil, "john@example.com", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM guardians WHERE enrollment_id = $1")).
		WithArgs("enr-1").
		WillReturnRows(rows)

	guardians, err := repo.ListByEnrollment(context.Background(), "enr-1")
	require.NoError(t, err)
	require.Len(t, guardians, 2)
	assert.Equal(t, models.GuardianRoleSecondary, guardians[1].Role)
	assert.Nil(t, guardians[1].FullName)
}

func TestFinancialResponsibleRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinancialResponsibleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO financial_responsible")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), &models.FinancialResponsible{EnrollmentID: "enr-1", FullName: strPtr("Jane Doe")}))

	mock.ExpectQuery(regexp.QuoteMeta("FROM financial_responsible WHERE enrollment_id = $1")).
		WithArgs("enr-2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	fr, err := repo.FindByEnrollment(context.Background(), "enr-2")
	require.NoError(t, err)
	assert.Nil(t, fr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassLinkRepositoryFindAndCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassLinkRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM class_links")).
		WithArgs("stu-1", "section-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "class_section_id", "created_at"}))
	link, err := repo.Find(context.Background(), "stu-1", "section-1")
	require.NoError(t, err)
	assert.Nil(t, link)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_links")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "section-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), &models.ClassLink{StudentID: "stu-1", ClassSectionID: "section-1"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSectionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM class_sections WHERE tenant_id = $1 AND id = $2")).
		WithArgs("t1", "section-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "year"}).AddRow("section-1", "t1", "1A", 2025))

	section, err := repo.FindByID(context.Background(), "t1", "section-1")
	require.NoError(t, err)
	require.NotNil(t, section)
	assert.Equal(t, "1A", section.Name)
}

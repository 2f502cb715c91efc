package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/pkg/config"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

// fakeStudentTable only accepts inserts naming one of its columns.
type fakeStudentTable struct {
	mu         sync.Mutex
	columns    map[string]bool
	rows       []models.Student
	attempts   []string
	createErr  error
	introspect error
	probes     int
}

func newFakeStudentTable(columns ...string) *fakeStudentTable {
	set := map[string]bool{}
	for _, c := range columns {
		set[c] = true
	}
	return &fakeStudentTable{columns: set}
}

func (f *fakeStudentTable) FindByEnrollmentNumber(ctx context.Context, tenantID, number string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].TenantID == tenantID && f.rows[i].EnrollmentNumber == number {
			row := f.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeStudentTable) Create(ctx context.Context, student *models.Student, yearColumn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, yearColumn)
	if f.createErr != nil {
		return f.createErr
	}
	if !f.columns[yearColumn] {
		return &pq.Error{Code: "42703", Message: fmt.Sprintf(`column "%s" of relation "students" does not exist`, yearColumn)}
	}
	student.ID = fmt.Sprintf("student-%d", len(f.rows)+1)
	f.rows = append(f.rows, *student)
	return nil
}

func (f *fakeStudentTable) YearColumns(ctx context.Context, candidates []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	if f.introspect != nil {
		return nil, f.introspect
	}
	var found []string
	for _, c := range candidates {
		if f.columns[c] {
			found = append(found, c)
		}
	}
	return found, nil
}

func studentInput(number string) StudentInput {
	return StudentInput{EnrollmentNumber: number, FullName: "Ana Souza", Year: 2025}
}

func TestReconcileReturnsExistingStudent(t *testing.T) {
	table := newFakeStudentTable("school_year")
	reconciler := NewStudentReconciler(table, NewStudentSchema(config.EnrollmentConfig{}), nil, nil)

	first, err := reconciler.Reconcile(context.Background(), "T1", studentInput("2025-00001"))
	require.NoError(t, err)
	second, err := reconciler.Reconcile(context.Background(), "T1", studentInput("2025-00001"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, table.rows, 1)

	other, err := reconciler.Reconcile(context.Background(), "T2", studentInput("2025-00001"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestReconcileFallsBackToLegacyColumnOnUndefinedColumn(t *testing.T) {
	table := newFakeStudentTable("year")
	table.introspect = errors.New("permission denied for information_schema")
	schema := NewStudentSchema(config.EnrollmentConfig{})
	reconciler := NewStudentReconciler(table, schema, nil, nil)

	student, err := reconciler.Reconcile(context.Background(), "T1", studentInput("2025-00001"))
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, []string{"school_year", "year"}, table.attempts)
	assert.Equal(t, "year", schema.Resolved())

	_, err = reconciler.Reconcile(context.Background(), "T1", studentInput("2025-00002"))
	require.NoError(t, err)
	assert.Equal(t, []string{"school_year", "year", "year"}, table.attempts)
}

func TestReconcileDoesNotRetryOtherErrors(t *testing.T) {
	table := newFakeStudentTable("year")
	table.introspect = errors.New("unavailable")
	table.createErr = &pq.Error{Code: "23502", Message: `null value in column "full_name" violates not-null constraint`}
	reconciler := NewStudentReconciler(table, NewStudentSchema(config.EnrollmentConfig{}), nil, nil)

	_, err := reconciler.Reconcile(context.Background(), "T1", studentInput("2025-00001"))
	require.Error(t, err)
	assert.Equal(t, []string{"school_year"}, table.attempts)

	assert.True(t, errors.Is(err, appErrors.ErrReconciliation))
	var schemaErr *ReconciliationSchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "school_year", schemaErr.Column)
	assert.Equal(t, false, appErrors.FromError(err).Details["written"])
}

func TestReconcileUndefinedOtherColumnIsNotRetried(t *testing.T) {
	table := newFakeStudentTable("year")
	table.introspect = errors.New("unavailable")
	table.createErr = &pq.Error{Code: "42703", Message: `column "class_section_name" of relation "students" does not exist`}
	reconciler := NewStudentReconciler(table, NewStudentSchema(config.EnrollmentConfig{}), nil, nil)

	_, err := reconciler.Reconcile(context.Background(), "T1", studentInput("2025-00001"))
	require.Error(t, err)
	assert.Equal(t, []string{"school_year"}, table.attempts)
}

func TestReconcileUsesIntrospectionOnce(t *testing.T) {
	table := newFakeStudentTable("year")
	schema := NewStudentSchema(config.EnrollmentConfig{})
	reconciler := NewStudentReconciler(table, schema, nil, nil)

	for _, number := range []string{"2025-00001", "2025-00002"} {
		_, err := reconciler.Reconcile(context.Background(), "T1", studentInput(number))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, table.probes)
	assert.Equal(t, []string{"year", "year"}, table.attempts)

	schema.Reset()
	assert.Empty(t, schema.Resolved())
	_, err := reconciler.Reconcile(context.Background(), "T1", studentInput("2025-00003"))
	require.NoError(t, err)
	assert.Equal(t, 2, table.probes)
}

func TestReconcilePinnedColumnSkipsDetection(t *testing.T) {
	table := newFakeStudentTable("school_year")
	schema := NewStudentSchema(config.EnrollmentConfig{StudentYearColumn: "school_year"})
	reconciler := NewStudentReconciler(table, schema, nil, nil)

	_, err := reconciler.Reconcile(context.Background(), "T1", studentInput("2025-00001"))
	require.NoError(t, err)
	assert.Zero(t, table.probes)

	schema.Reset()
	assert.Equal(t, "school_year", schema.Resolved())
}

func TestReconcilePinnedColumnNeverFallsBack(t *testing.T) {
	table := newFakeStudentTable("year")
	reconciler := NewStudentReconciler(table, NewStudentSchema(config.EnrollmentConfig{StudentYearColumn: "school_year"}), nil, nil)

	_, err := reconciler.Reconcile(context.Background(), "T1", studentInput("2025-00001"))
	require.Error(t, err)
	assert.Equal(t, []string{"school_year"}, table.attempts)
}

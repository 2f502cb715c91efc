package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/pkg/config"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

// SequenceAllocator hands out the next human-facing enrollment number for a tenant.
type SequenceAllocator interface {
	Next(ctx context.Context, tenantID string) (models.EnrollmentSequence, error)
	Strategy() string
}

type maxSequenceReader interface {
	MaxSequence(ctx context.Context, tenantID string, year int) (int, error)
}

type sequenceCounter interface {
	Next(ctx context.Context, tenantID string, year int) (int, error)
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// NewSequenceAllocator picks the allocator for the configured strategy.
func NewSequenceAllocator(strategy string, enrollments maxSequenceReader, counters sequenceCounter, clock Clock, metrics *MetricsService) SequenceAllocator {
	if strategy == config.SequenceStrategyMax {
		return NewMaxSequenceAllocator(enrollments, clock, metrics)
	}
	return NewCounterSequenceAllocator(counters, clock, metrics)
}

// FormatEnrollmentNumber renders YEAR-NNNNN. Sequences wider than five digits are kept whole.
func FormatEnrollmentNumber(year, sequence int) string {
	return fmt.Sprintf("%d-%05d", year, sequence)
}

// MaxSequenceAllocator reads MAX(sequence) and adds one. Two concurrent calls for the
// same tenant and year can observe the same maximum and return the same number; the
// unique index on enrollments turns the second insert into SEQUENCE_CONFLICT.
type MaxSequenceAllocator struct {
	enrollments maxSequenceReader
	clock       Clock
	metrics     *MetricsService
}

// NewMaxSequenceAllocator constructs the read-then-write allocator.
func NewMaxSequenceAllocator(enrollments maxSequenceReader, clock Clock, metrics *MetricsService) *MaxSequenceAllocator {
	if clock == nil {
		clock = time.Now
	}
	return &MaxSequenceAllocator{enrollments: enrollments, clock: clock, metrics: metrics}
}

// Strategy names the allocator.
func (a *MaxSequenceAllocator) Strategy() string { return config.SequenceStrategyMax }

// Next computes max+1 for the current year.
func (a *MaxSequenceAllocator) Next(ctx context.Context, tenantID string) (models.EnrollmentSequence, error) {
	year := a.clock().Year()
	max, err := a.enrollments.MaxSequence(ctx, tenantID, year)
	a.metrics.RecordSequenceAllocation(a.Strategy(), err)
	if err != nil {
		return models.EnrollmentSequence{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate enrollment number")
	}
	seq := max + 1
	return models.EnrollmentSequence{Number: FormatEnrollmentNumber(year, seq), Year: year, Sequence: seq}, nil
}

// CounterSequenceAllocator increments a per (tenant, year) counter row in one statement.
// Values are unique and increasing; a failed submission leaves a gap.
type CounterSequenceAllocator struct {
	counters sequenceCounter
	clock    Clock
	metrics  *MetricsService
}

// NewCounterSequenceAllocator constructs the atomic counter allocator.
func NewCounterSequenceAllocator(counters sequenceCounter, clock Clock, metrics *MetricsService) *CounterSequenceAllocator {
	if clock == nil {
		clock = time.Now
	}
	return &CounterSequenceAllocator{counters: counters, clock: clock, metrics: metrics}
}

// Strategy names the allocator.
func (a *CounterSequenceAllocator) Strategy() string { return config.SequenceStrategyCounter }

// Next increments the counter for the current year.
func (a *CounterSequenceAllocator) Next(ctx context.Context, tenantID string) (models.EnrollmentSequence, error) {
	year := a.clock().Year()
	seq, err := a.counters.Next(ctx, tenantID, year)
	a.metrics.RecordSequenceAllocation(a.Strategy(), err)
	if err != nil {
		return models.EnrollmentSequence{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate enrollment number")
	}
	return models.EnrollmentSequence{Number: FormatEnrollmentNumber(year, seq), Year: year, Sequence: seq}, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/pkg/cache"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

type resumeKV interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Take(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReturnURLFunc builds the post sign-in destination for a resume ticket.
type ReturnURLFunc func(tenantID, ticket string) string

type resumeEntry struct {
	TenantID string               `json:"tenant_id"`
	Payload  models.WizardPayload `json:"payload"`
	SavedAt  time.Time            `json:"saved_at"`
}

// RestoredWizard is a payload recovered from a resume ticket.
type RestoredWizard struct {
	TenantID string
	Payload  models.WizardPayload
}

// WizardStateStore parks a wizard payload across the identity redirect. Every saved
// payload can be restored at most once.
type WizardStateStore struct {
	kv       resumeKV
	ttl      time.Duration
	returnTo ReturnURLFunc
	logger   *zap.Logger
}

// NewWizardStateStore constructs a WizardStateStore.
func NewWizardStateStore(kv resumeKV, ttl time.Duration, returnTo ReturnURLFunc, logger *zap.Logger) *WizardStateStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardStateStore{kv: kv, ttl: ttl, returnTo: returnTo, logger: logger}
}

func resumeKey(ticket, field string) string {
	return cache.Key("wizard", "resume", ticket, field)
}

// Save writes the payload and both redirect markers, returning the resume ticket.
func (s *WizardStateStore) Save(ctx context.Context, tenantID string, payload models.WizardPayload) (string, error) {
	ticket := uuid.NewString()
	entry := resumeEntry{TenantID: tenantID, Payload: payload, SavedAt: time.Now().UTC()}
	if err := s.kv.Set(ctx, resumeKey(ticket, "payload"), entry, s.ttl); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wizard state")
	}

	markers := models.ResumeMarkers{TenantPending: tenantID}
	if s.returnTo != nil {
		markers.ReturnTo = s.returnTo(tenantID, ticket)
	}
	if err := s.kv.Set(ctx, resumeKey(ticket, "tenant_pending"), markers.TenantPending, s.ttl); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wizard state")
	}
	if err := s.kv.Set(ctx, resumeKey(ticket, "return_to"), markers.ReturnTo, s.ttl); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wizard state")
	}
	return ticket, nil
}

// Restore consumes the ticket. It returns nil when nothing was saved, the ticket was
// already used, or the stored value could not be read; the key is gone in every case.
func (s *WizardStateStore) Restore(ctx context.Context, ticket string) (*RestoredWizard, error) {
	if ticket == "" {
		return nil, nil
	}
	var entry resumeEntry
	if err := s.kv.Take(ctx, resumeKey(ticket, "payload"), &entry); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("discarding unreadable wizard state", zap.String("ticket", ticket), zap.Error(err))
		}
		return nil, nil
	}
	return &RestoredWizard{TenantID: entry.TenantID, Payload: entry.Payload}, nil
}

// PendingRedirect returns the markers the sign-in return handler routes by.
func (s *WizardStateStore) PendingRedirect(ctx context.Context, ticket string) (*models.ResumeMarkers, error) {
	var markers models.ResumeMarkers
	if err := s.kv.Get(ctx, resumeKey(ticket, "tenant_pending"), &markers.TenantPending); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resume ticket not found or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read resume markers")
	}
	if err := s.kv.Get(ctx, resumeKey(ticket, "return_to"), &markers.ReturnTo); err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read resume markers")
	}
	return &markers, nil
}

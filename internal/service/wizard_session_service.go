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

type sessionKV interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type resumeStore interface {
	Save(ctx context.Context, tenantID string, payload models.WizardPayload) (string, error)
	Restore(ctx context.Context, ticket string) (*RestoredWizard, error)
	PendingRedirect(ctx context.Context, ticket string) (*models.ResumeMarkers, error)
}

type submitter interface {
	Submit(ctx context.Context, tenantID string, payload models.WizardPayload) (*models.Enrollment, error)
}

type signatureCapturer interface {
	Capture(input SignatureInput) (string, error)
}

type redirectBuilder interface {
	SignInURL(returnTo string) string
}

// ConfirmResult is the outcome of confirm: a redirect for anonymous callers or the
// confirmed session.
type ConfirmResult struct {
	Session     *models.WizardSession `json:"session"`
	Redirect    bool                  `json:"redirect"`
	RedirectURL string                `json:"redirect_url,omitempty"`
	Ticket      string                `json:"ticket,omitempty"`
}

// WizardSessionService keeps wizard sessions in Redis and runs each HTTP step
// through the EnrollmentWizard.
type WizardSessionService struct {
	kv         sessionKV
	wizard     *EnrollmentWizard
	store      resumeStore
	submission submitter
	signatures signatureCapturer
	identity   redirectBuilder
	ttl        time.Duration
	metrics    *MetricsService
	logger     *zap.Logger
}

// WizardSessionDeps groups WizardSessionService collaborators.
type WizardSessionDeps struct {
	KV         sessionKV
	Wizard     *EnrollmentWizard
	Store      resumeStore
	Submission submitter
	Signatures signatureCapturer
	Identity   redirectBuilder
	TTL        time.Duration
	Metrics    *MetricsService
	Logger     *zap.Logger
}

// NewWizardSessionService constructs a WizardSessionService.
func NewWizardSessionService(deps WizardSessionDeps) *WizardSessionService {
	if deps.TTL <= 0 {
		deps.TTL = 24 * time.Hour
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Wizard == nil {
		deps.Wizard = NewEnrollmentWizard(nil, nil)
	}
	return &WizardSessionService{
		kv:         deps.KV,
		wizard:     deps.Wizard,
		store:      deps.Store,
		submission: deps.Submission,
		signatures: deps.Signatures,
		identity:   deps.Identity,
		ttl:        deps.TTL,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

func sessionKey(tenantID, id string) string {
	return cache.Key("wizard", "session", tenantID, id)
}

// Start opens a new session at the first step.
func (s *WizardSessionService) Start(ctx context.Context, tenantID string) (*models.WizardSession, error) {
	session := s.wizard.NewSession(uuid.NewString(), tenantID)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get loads a session of the tenant.
func (s *WizardSessionService) Get(ctx context.Context, tenantID, id string) (*models.WizardSession, error) {
	var session models.WizardSession
	if err := s.kv.Get(ctx, sessionKey(tenantID, id), &session); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "wizard session not found or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load wizard session")
	}
	if session.TenantID != tenantID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "wizard session not found or expired")
	}
	return &session, nil
}

// SubmitStudent applies the student step.
func (s *WizardSessionService) SubmitStudent(ctx context.Context, tenantID, id string, step models.StudentStep) (*models.WizardSession, error) {
	return s.step(ctx, tenantID, id, func(session *models.WizardSession) error {
		return s.wizard.SubmitStudent(session, step)
	})
}

// SubmitGuardians applies the guardians step.
func (s *WizardSessionService) SubmitGuardians(ctx context.Context, tenantID, id string, primary, secondary models.GuardianStep) (*models.WizardSession, error) {
	return s.step(ctx, tenantID, id, func(session *models.WizardSession) error {
		return s.wizard.SubmitGuardians(session, primary, secondary)
	})
}

// SubmitFinancialResponsible applies the financial responsible step.
func (s *WizardSessionService) SubmitFinancialResponsible(ctx context.Context, tenantID, id string, step models.FinancialResponsibleStep) (*models.WizardSession, error) {
	return s.step(ctx, tenantID, id, func(session *models.WizardSession) error {
		return s.wizard.SubmitFinancialResponsible(session, step)
	})
}

// SubmitSignature captures the signature input and applies the signature step.
func (s *WizardSessionService) SubmitSignature(ctx context.Context, tenantID, id string, input SignatureInput) (*models.WizardSession, error) {
	return s.step(ctx, tenantID, id, func(session *models.WizardSession) error {
		if session.State != models.WizardStateCollectingSignature && session.State != models.WizardStateError {
			return invalidState(session.State)
		}
		dataURL, err := s.signatures.Capture(input)
		if err != nil {
			return err
		}
		return s.wizard.SubmitSignature(session, dataURL)
	})
}

// ClearSignature discards the captured signature.
func (s *WizardSessionService) ClearSignature(ctx context.Context, tenantID, id string) (*models.WizardSession, error) {
	return s.step(ctx, tenantID, id, s.wizard.ClearSignature)
}

// Back returns to the previous step.
func (s *WizardSessionService) Back(ctx context.Context, tenantID, id string) (*models.WizardSession, error) {
	return s.step(ctx, tenantID, id, s.wizard.Back)
}

// Confirm submits the reviewed payload. Without an identity the payload is parked in
// the WizardStateStore and the caller is sent to sign in; the session stays in review.
func (s *WizardSessionService) Confirm(ctx context.Context, tenantID, id string, identity *models.Identity) (*ConfirmResult, error) {
	session, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if identity == nil {
		switch session.State {
		case models.WizardStateReviewing, models.WizardStateError, models.WizardStateSubmitting:
		default:
			return nil, invalidState(session.State)
		}
		ticket, err := s.store.Save(ctx, tenantID, session.Payload)
		if err != nil {
			return nil, err
		}
		markers, err := s.store.PendingRedirect(ctx, ticket)
		if err != nil {
			return nil, err
		}
		s.metrics.RecordSubmission(OutcomeRedirected)
		return &ConfirmResult{
			Session:     session,
			Redirect:    true,
			RedirectURL: s.identity.SignInURL(markers.ReturnTo),
			Ticket:      ticket,
		}, nil
	}

	from := session.State
	if err := s.wizard.BeginSubmit(session); err != nil {
		if errors.Is(err, appErrors.ErrValidation) {
			_ = s.save(ctx, session)
		}
		return nil, err
	}
	s.metrics.RecordWizardTransition(string(from), string(session.State))
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("submitting enrollment wizard",
		zap.String("tenant_id", tenantID),
		zap.String("session_id", id),
		zap.String("user_id", identity.UserID))

	// the outcome is recorded even when the caller has gone away
	persistCtx := context.WithoutCancel(ctx)

	enrollment, submitErr := s.submission.Submit(ctx, tenantID, session.Payload)
	if submitErr != nil {
		s.wizard.Fail(session, submitErr)
		s.metrics.RecordWizardTransition(string(models.WizardStateSubmitting), string(session.State))
		if err := s.save(persistCtx, session); err != nil {
			s.logger.Warn("failed to persist wizard error state", zap.String("session_id", id), zap.Error(err))
		}
		return nil, submitErr
	}

	if err := s.wizard.Complete(session, enrollment); err != nil {
		return nil, err
	}
	s.metrics.RecordWizardTransition(string(models.WizardStateSubmitting), string(session.State))
	if err := s.save(persistCtx, session); err != nil {
		s.logger.Warn("failed to persist confirmed wizard", zap.String("session_id", id), zap.Error(err))
	}
	return &ConfirmResult{Session: session}, nil
}

// Resume restores a parked payload into a new session at review. An unknown, used or
// foreign-tenant ticket yields a fresh session.
func (s *WizardSessionService) Resume(ctx context.Context, tenantID, ticket string) (*models.WizardSession, error) {
	restored, err := s.store.Restore(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if restored == nil || restored.TenantID != tenantID {
		if restored != nil {
			s.logger.Warn("discarding wizard state saved for another tenant",
				zap.String("tenant_id", tenantID), zap.String("saved_tenant_id", restored.TenantID))
		}
		return s.Start(ctx, tenantID)
	}
	session := s.wizard.ResumeSession(uuid.NewString(), tenantID, restored.Payload)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// PendingRedirect exposes the resume markers for the sign-in return handler.
func (s *WizardSessionService) PendingRedirect(ctx context.Context, ticket string) (*models.ResumeMarkers, error) {
	return s.store.PendingRedirect(ctx, ticket)
}

func (s *WizardSessionService) step(ctx context.Context, tenantID, id string, apply func(*models.WizardSession) error) (*models.WizardSession, error) {
	session, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	from := session.State
	if err := apply(session); err != nil {
		if session.State != from {
			// recovery already happened; keep it
			_ = s.save(ctx, session)
		}
		return nil, err
	}
	s.metrics.RecordWizardTransition(string(from), string(session.State))
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *WizardSessionService) save(ctx context.Context, session *models.WizardSession) error {
	if err := s.kv.Set(ctx, sessionKey(session.TenantID, session.ID), session, s.ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wizard session")
	}
	return nil
}

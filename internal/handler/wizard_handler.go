package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admission-api/internal/middleware"
	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/internal/service"
	"github.com/noah-isme/sma-admission-api/pkg/response"
)

type wizardSessions interface {
	Start(ctx context.Context, tenantID string) (*models.WizardSession, error)
	Get(ctx context.Context, tenantID, id string) (*models.WizardSession, error)
	SubmitStudent(ctx context.Context, tenantID, id string, step models.StudentStep) (*models.WizardSession, error)
	SubmitGuardians(ctx context.Context, tenantID, id string, primary, secondary models.GuardianStep) (*models.WizardSession, error)
	SubmitFinancialResponsible(ctx context.Context, tenantID, id string, step models.FinancialResponsibleStep) (*models.WizardSession, error)
	SubmitSignature(ctx context.Context, tenantID, id string, input service.SignatureInput) (*models.WizardSession, error)
	ClearSignature(ctx context.Context, tenantID, id string) (*models.WizardSession, error)
	Back(ctx context.Context, tenantID, id string) (*models.WizardSession, error)
	Confirm(ctx context.Context, tenantID, id string, identity *models.Identity) (*service.ConfirmResult, error)
	Resume(ctx context.Context, tenantID, ticket string) (*models.WizardSession, error)
	PendingRedirect(ctx context.Context, ticket string) (*models.ResumeMarkers, error)
}

// GuardiansRequest carries both guardian slots of the guardians step.
type GuardiansRequest struct {
	PrimaryGuardian   models.GuardianStep `json:"primary_guardian"`
	SecondaryGuardian models.GuardianStep `json:"secondary_guardian"`
}

// ResumeRequest carries the ticket handed out on an anonymous confirm.
type ResumeRequest struct {
	Ticket string `json:"ticket" binding:"required"`
}

// WizardHandler exposes the enrollment wizard as one call per step.
type WizardHandler struct {
	sessions wizardSessions
}

// NewWizardHandler constructs WizardHandler.
func NewWizardHandler(sessions wizardSessions) *WizardHandler {
	return &WizardHandler{sessions: sessions}
}

// Start godoc
// @Summary Start an enrollment wizard session
// @Tags Enrollment Wizard
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Success 201 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollment-wizard [post]
func (h *WizardHandler) Start(c *gin.Context) {
	session, err := h.sessions.Start(c.Request.Context(), tenantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Current wizard state and payload
// @Tags Enrollment Wizard
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param sessionID path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollment-wizard/{sessionID} [get]
func (h *WizardHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), tenantID(c), c.Param("sessionID"))
	h.respond(c, session, err)
}

// Student godoc
// @Summary Submit the student step
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param sessionID path string true "Session ID"
// @Param payload body models.StudentStep true "Student"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollment-wizard/{sessionID}/student [put]
func (h *WizardHandler) Student(c *gin.Context) {
	var step models.StudentStep
	if !bindJSON(c, &step) {
		return
	}
	session, err := h.sessions.SubmitStudent(c.Request.Context(), tenantID(c), c.Param("sessionID"), step)
	h.respond(c, session, err)
}

// Guardians godoc
// @Summary Submit the guardians step
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param sessionID path string true "Session ID"
// @Param payload body GuardiansRequest true "Guardians"
// @Success 200 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollment-wizard/{sessionID}/guardians [put]
func (h *WizardHandler) Guardians(c *gin.Context) {
	var req GuardiansRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.sessions.SubmitGuardians(c.Request.Context(), tenantID(c), c.Param("sessionID"), req.PrimaryGuardian, req.SecondaryGuardian)
	h.respond(c, session, err)
}

// FinancialResponsible godoc
// @Summary Submit the financial responsible step
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param sessionID path string true "Session ID"
// @Param payload body models.FinancialResponsibleStep true "Financial responsible"
// @Success 200 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollment-wizard/{sessionID}/financial-responsible [put]
func (h *WizardHandler) FinancialResponsible(c *gin.Context) {
	var step models.FinancialResponsibleStep
	if !bindJSON(c, &step) {
		return
	}
	session, err := h.sessions.SubmitFinancialResponsible(c.Request.Context(), tenantID(c), c.Param("sessionID"), step)
	h.respond(c, session, err)
}

// Signature godoc
// @Summary Capture the signature from strokes or a PNG data URL
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param sessionID path string true "Session ID"
// @Param payload body service.SignatureInput true "Signature"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollment-wizard/{sessionID}/signature [put]
func (h *WizardHandler) Signature(c *gin.Context) {
	var input service.SignatureInput
	if !bindJSON(c, &input) {
		return
	}
	session, err := h.sessions.SubmitSignature(c.Request.Context(), tenantID(c), c.Param("sessionID"), input)
	h.respond(c, session, err)
}

// ClearSignature godoc
// @Summary Clear the captured signature
// @Tags Enrollment Wizard
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param sessionID path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollment-wizard/{sessionID}/signature [delete]
func (h *WizardHandler) ClearSignature(c *gin.Context) {
	session, err := h.sessions.ClearSignature(c.Request.Context(), tenantID(c), c.Param("sessionID"))
	h.respond(c, session, err)
}

// Back godoc
// @Summary Return to the previous step
// @Tags Enrollment Wizard
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param sessionID path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollment-wizard/{sessionID}/back [post]
func (h *WizardHandler) Back(c *gin.Context) {
	session, err := h.sessions.Back(c.Request.Context(), tenantID(c), c.Param("sessionID"))
	h.respond(c, session, err)
}

// Confirm godoc
// @Summary Confirm the reviewed enrollment
// @Description Anonymous callers receive 202 with a sign-in redirect and a resume ticket.
// @Tags Enrollment Wizard
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param sessionID path string true "Session ID"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollment-wizard/{sessionID}/confirm [post]
func (h *WizardHandler) Confirm(c *gin.Context) {
	result, err := h.sessions.Confirm(c.Request.Context(), tenantID(c), c.Param("sessionID"), middleware.CurrentIdentity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Redirect {
		response.Accepted(c, result)
		return
	}
	response.Created(c, result.Session)
}

// Resume godoc
// @Summary Resume a wizard after sign-in
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param payload body ResumeRequest true "Resume ticket"
// @Success 200 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollment-wizard/resume [post]
func (h *WizardHandler) Resume(c *gin.Context) {
	var req ResumeRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.sessions.Resume(c.Request.Context(), tenantID(c), req.Ticket)
	h.respond(c, session, err)
}

// PendingRedirect godoc
// @Summary Resume markers for the sign-in return handler
// @Tags Enrollment Wizard
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param ticket path string true "Resume ticket"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollment-wizard/resume/{ticket} [get]
func (h *WizardHandler) PendingRedirect(c *gin.Context) {
	markers, err := h.sessions.PendingRedirect(c.Request.Context(), c.Param("ticket"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, markers, nil)
}

func (h *WizardHandler) respond(c *gin.Context, session *models.WizardSession, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

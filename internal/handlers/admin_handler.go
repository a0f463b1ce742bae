package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mistriconnect/technician-backend/internal/middleware"
	"github.com/mistriconnect/technician-backend/internal/models"
	"github.com/mistriconnect/technician-backend/internal/services"
	"github.com/mistriconnect/technician-backend/internal/utils"
)

// AdminHandler serves the review side of the workflow
type AdminHandler struct {
	profiles   *services.ProfileService
	resolution *services.ResolutionService
	audit      *services.AuditService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	profiles *services.ProfileService,
	resolution *services.ResolutionService,
	audit *services.AuditService,
) *AdminHandler {
	return &AdminHandler{
		profiles:   profiles,
		resolution: resolution,
		audit:      audit,
	}
}

// ListApplications returns technicians awaiting a verification decision
// GET /api/v1/admin/applications
func (h *AdminHandler) ListApplications(c *gin.Context) {
	rows, err := h.profiles.ListPendingReview()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"applications": rows,
		"count":        len(rows),
	})
}

// GetApplication returns one technician's full projection for review
// GET /api/v1/admin/applications/:id
func (h *AdminHandler) GetApplication(c *gin.Context) {
	technicianID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(technicianID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// DecideApplication records the verdict on a completed application
// POST /api/v1/admin/applications/:id/decision
func (h *AdminHandler) DecideApplication(c *gin.Context) {
	userCtx, _ := middleware.GetUserContext(c)

	technicianID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var decision services.ApplicationDecision
	if err := c.ShouldBindJSON(&decision); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "invalid decision body",
		})
		return
	}

	tech, err := h.resolution.ResolveApplication(technicianID, decision)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.LogApplicationDecision(userCtx.UserID, technicianID, decision.Approve,
		utils.GetRealIP(c), utils.GetUserAgent(c))

	message := "Application rejected"
	if decision.Approve {
		message = "Application approved"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"technician": tech,
	})
}

// maintenanceDecisionRequest is the body for a maintenance request decision
type maintenanceDecisionRequest struct {
	Approve  bool    `json:"approve"`
	Comments *string `json:"comments,omitempty"`
}

// DecideMaintenanceRequest resolves one pending maintenance request
// POST /api/v1/admin/technicians/:id/requests/:kind/:requestId/decision
func (h *AdminHandler) DecideMaintenanceRequest(c *gin.Context) {
	userCtx, _ := middleware.GetUserContext(c)

	technicianID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	kind := models.RequestKind(c.Param("kind"))
	if !models.ValidRequestKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "kind must be one of service, zone, bank",
		})
		return
	}

	requestID, ok := parseUUIDParam(c, "requestId")
	if !ok {
		return
	}

	var body maintenanceDecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "invalid decision body",
		})
		return
	}

	if err := h.resolution.ResolveMaintenanceRequest(kind, technicianID, requestID, body.Approve, body.Comments); err != nil {
		respondError(c, err)
		return
	}

	h.audit.LogMaintenanceDecision(userCtx.UserID, string(kind), requestID.String(), body.Approve,
		utils.GetRealIP(c), utils.GetUserAgent(c))

	message := "Request rejected"
	if body.Approve {
		message = "Request approved"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// parseUUIDParam parses a UUID path parameter, writing a 400 on failure
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": name + " must be a valid UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

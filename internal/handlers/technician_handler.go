package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mistriconnect/technician-backend/internal/middleware"
	"github.com/mistriconnect/technician-backend/internal/models"
	"github.com/mistriconnect/technician-backend/internal/services"
	"github.com/mistriconnect/technician-backend/internal/utils"
)

// TechnicianHandler serves the technician-facing side of the workflow
type TechnicianHandler struct {
	profiles      *services.ProfileService
	submissions   *services.SubmissionService
	maintenance   *services.MaintenanceService
	audit         *services.AuditService
	maxUploadSize int64
}

// NewTechnicianHandler creates a new technician handler
func NewTechnicianHandler(
	profiles *services.ProfileService,
	submissions *services.SubmissionService,
	maintenance *services.MaintenanceService,
	audit *services.AuditService,
	maxUploadSize int64,
) *TechnicianHandler {
	return &TechnicianHandler{
		profiles:      profiles,
		submissions:   submissions,
		maintenance:   maintenance,
		audit:         audit,
		maxUploadSize: maxUploadSize,
	}
}

// registerRequest is the body for POST /register
type registerRequest struct {
	FullName string `json:"full_name" binding:"required"`
}

// Register creates a technician profile for the authenticated user
// POST /api/v1/technician/register
func (h *TechnicianHandler) Register(c *gin.Context) {
	userCtx, _ := middleware.GetUserContext(c)

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "full_name is required",
		})
		return
	}

	tech, err := h.profiles.Register(userCtx.UserID, req.FullName, userCtx.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Technician profile created",
		"technician": tech,
	})
}

// GetProfile returns the technician's full projection, including the derived
// payout status
// GET /api/v1/technician/profile
func (h *TechnicianHandler) GetProfile(c *gin.Context) {
	tech, _ := middleware.GetTechnician(c)

	profile, err := h.profiles.GetProfile(tech.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// stepRequest is the body for a step submission
type stepRequest struct {
	Step    int                  `json:"step" binding:"required"`
	Payload services.StepPayload `json:"payload"`
}

// SubmitStep records one onboarding step
// POST /api/v1/technician/onboarding/steps
func (h *TechnicianHandler) SubmitStep(c *gin.Context) {
	tech, _ := middleware.GetTechnician(c)
	userCtx, _ := middleware.GetUserContext(c)

	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "step and payload are required",
		})
		return
	}

	updated, err := h.submissions.SubmitStep(tech.ID, req.Step, req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.LogStepSubmission(userCtx.UserID, tech.ID, req.Step, utils.GetRealIP(c), utils.GetUserAgent(c))

	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("Step %d saved", req.Step),
		"technician": updated,
	})
}

// UploadDocument stores one verification document
// POST /api/v1/technician/documents (multipart: doc_type, file, optional document_id)
func (h *TechnicianHandler) UploadDocument(c *gin.Context) {
	tech, _ := middleware.GetTechnician(c)
	userCtx, _ := middleware.GetUserContext(c)

	docType := models.DocumentType(c.PostForm("doc_type"))

	var replaceID *uuid.UUID
	if raw := c.PostForm("document_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_failed",
				"message": "document_id must be a valid UUID",
			})
			return
		}
		replaceID = &id
	}

	fileName, contentType, data, err := h.readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := h.submissions.UploadDocument(c.Request.Context(), tech.ID, docType, replaceID, fileName, contentType, data)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.LogDocumentUpload(userCtx.UserID, tech.ID, string(docType), doc.ID.String(),
		utils.GetRealIP(c), utils.GetUserAgent(c))

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Document uploaded",
		"document": doc,
	})
}

// ListZones returns the serviceable zone catalog
// GET /api/v1/technician/zones
func (h *TechnicianHandler) ListZones(c *gin.Context) {
	zones, err := h.profiles.ListZones()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"zones": zones})
}

// SubmitServiceChange records a service add/remove request
// POST /api/v1/technician/requests/service (multipart: service_id, action, optional proof)
func (h *TechnicianHandler) SubmitServiceChange(c *gin.Context) {
	tech, _ := middleware.GetTechnician(c)
	userCtx, _ := middleware.GetUserContext(c)

	payload := services.ServiceChangePayload{
		ServiceID: c.PostForm("service_id"),
		Action:    models.ServiceAction(c.PostForm("action")),
	}
	if payload.ServiceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "service_id is required",
		})
		return
	}

	proof, err := h.readOptionalUpload(c, "proof")
	if err != nil {
		respondError(c, err)
		return
	}

	req, err := h.maintenance.SubmitServiceChange(c.Request.Context(), tech.ID, payload, proof)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.LogMaintenanceRequest(userCtx.UserID, string(models.KindServiceChange), req.ID.String(),
		utils.GetRealIP(c), utils.GetUserAgent(c))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Service change request submitted",
		"request": req,
	})
}

// SubmitZoneTransfer records a zone transfer request
// POST /api/v1/technician/requests/zone
func (h *TechnicianHandler) SubmitZoneTransfer(c *gin.Context) {
	tech, _ := middleware.GetTechnician(c)
	userCtx, _ := middleware.GetUserContext(c)

	var payload services.ZoneTransferPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "requested_zone_id is required",
		})
		return
	}

	req, err := h.maintenance.SubmitZoneTransfer(tech.ID, payload)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.LogMaintenanceRequest(userCtx.UserID, string(models.KindZoneTransfer), req.ID.String(),
		utils.GetRealIP(c), utils.GetUserAgent(c))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Zone transfer request submitted",
		"request": req,
	})
}

// SubmitBankUpdate records a payout account change request
// POST /api/v1/technician/requests/bank (multipart: bank fields + proof)
func (h *TechnicianHandler) SubmitBankUpdate(c *gin.Context) {
	tech, _ := middleware.GetTechnician(c)
	userCtx, _ := middleware.GetUserContext(c)

	payload := services.BankPayload{
		HolderName:    c.PostForm("holder_name"),
		AccountNumber: c.PostForm("account_number"),
		IFSCCode:      c.PostForm("ifsc_code"),
		BankName:      c.PostForm("bank_name"),
	}

	proof, err := h.readOptionalUpload(c, "proof")
	if err != nil {
		respondError(c, err)
		return
	}

	req, err := h.maintenance.SubmitBankUpdate(c.Request.Context(), tech.ID, payload, proof)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.LogMaintenanceRequest(userCtx.UserID, string(models.KindBankUpdate), req.ID.String(),
		utils.GetRealIP(c), utils.GetUserAgent(c))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Bank update request submitted; payouts are on hold until it is resolved",
		"request": req,
	})
}

// DismissRequest hides a resolved request from the active list
// POST /api/v1/technician/requests/:kind/:id/dismiss
func (h *TechnicianHandler) DismissRequest(c *gin.Context) {
	h.flagRequest(c, "dismiss")
}

// ArchiveRequest moves a resolved request into history
// POST /api/v1/technician/requests/:kind/:id/archive
func (h *TechnicianHandler) ArchiveRequest(c *gin.Context) {
	h.flagRequest(c, "archive")
}

func (h *TechnicianHandler) flagRequest(c *gin.Context, verb string) {
	tech, _ := middleware.GetTechnician(c)

	kind := models.RequestKind(c.Param("kind"))
	if !models.ValidRequestKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "kind must be one of service, zone, bank",
		})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "request id must be a valid UUID",
		})
		return
	}

	if verb == "dismiss" {
		err = h.maintenance.Dismiss(kind, tech.ID, requestID)
	} else {
		err = h.maintenance.Archive(kind, tech.ID, requestID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request " + verb + "ed"})
}

// readUpload reads a required multipart file, enforcing the size limit
func (h *TechnicianHandler) readUpload(c *gin.Context, field string) (string, string, []byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", "", nil, models.NewValidationError(field, "file is required")
	}
	return h.readFileHeader(fileHeader, field)
}

// readOptionalUpload reads a multipart file if present
func (h *TechnicianHandler) readOptionalUpload(c *gin.Context, field string) (*services.ProofFile, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	name, contentType, data, err := h.readFileHeader(fileHeader, field)
	if err != nil {
		return nil, err
	}
	return &services.ProofFile{FileName: name, ContentType: contentType, Data: data}, nil
}

func (h *TechnicianHandler) readFileHeader(fileHeader *multipart.FileHeader, field string) (string, string, []byte, error) {
	if fileHeader.Size > h.maxUploadSize {
		return "", "", nil, models.NewValidationError(field,
			fmt.Sprintf("file exceeds the %d byte limit", h.maxUploadSize))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > h.maxUploadSize {
		return "", "", nil, models.NewValidationError(field,
			fmt.Sprintf("file exceeds the %d byte limit", h.maxUploadSize))
	}

	return fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data, nil
}

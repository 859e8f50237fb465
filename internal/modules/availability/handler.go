package availability

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clinicbook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the availability endpoints. Template and override
// writes go through the staff gate; reads are open to any authenticated user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, staff gin.HandlerFunc) {
	rg.GET("/doctors/:id/availability", h.GetTemplate)
	rg.PUT("/doctors/:id/availability", staff, h.SetTemplate)
	rg.POST("/doctors/:id/slots/off", staff, h.DisableSlot)
	rg.DELETE("/doctors/:id/slots/off", staff, h.EnableSlot)
}

func (h *Handler) SetTemplate(c *gin.Context) {
	doctorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid doctor id")
		return
	}

	var req SetTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	template, err := h.service.SetWeeklyTemplate(c.Request.Context(), doctorID, req.Entries)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTemplate):
			response.Error(c, http.StatusBadRequest, "INVALID_TEMPLATE", err.Error())
		case errors.Is(err, ErrDoctorNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Doctor not found")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update template")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"template": template})
}

func (h *Handler) GetTemplate(c *gin.Context) {
	doctorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid doctor id")
		return
	}

	template, err := h.service.GetWeeklyTemplate(c.Request.Context(), doctorID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load template")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"template": template})
}

func (h *Handler) DisableSlot(c *gin.Context) {
	doctorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid doctor id")
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.DisableSlot(c.Request.Context(), doctorID, req.Date, req.StartTime, req.Reason); err != nil {
		if errors.Is(err, ErrInvalidTemplate) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to disable slot")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"disabled": true})
}

func (h *Handler) EnableSlot(c *gin.Context) {
	doctorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid doctor id")
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.EnableSlot(c.Request.Context(), doctorID, req.Date, req.StartTime); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to enable slot")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enabled": true})
}

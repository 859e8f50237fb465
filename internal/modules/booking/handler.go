package booking

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clinicbook/internal/domain"
	"clinicbook/internal/pkg/response"
	"clinicbook/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the appointment endpoints. Claiming, reading and
// cancelling are open to any authenticated user; the desk transitions go
// through the staff gate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, staff gin.HandlerFunc) {
	rg.POST("/appointments", h.ClaimSlot)
	rg.GET("/appointments/:id", h.GetAppointment)
	rg.GET("/patients/me/appointments", h.GetMyAppointments)
	rg.PATCH("/appointments/:id/cancel", h.Cancel)

	rg.GET("/appointments/:id/check-in", staff, h.CanCheckIn)
	rg.PATCH("/appointments/:id/confirm", staff, h.Confirm)
	rg.PATCH("/appointments/:id/check-in", staff, h.CheckIn)
	rg.PATCH("/appointments/:id/start", staff, h.StartConsultation)
	rg.PATCH("/appointments/:id/complete", staff, h.Complete)
	rg.PATCH("/appointments/:id/no-show", staff, h.MarkNoShow)
}

func (h *Handler) ClaimSlot(c *gin.Context) {
	var req ClaimSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid claim request", fields)
		return
	}

	patientID := c.GetInt64("user_id")

	a, err := h.service.ClaimSlot(c.Request.Context(), patientID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, ErrInvalidSlot):
			response.Error(c, http.StatusUnprocessableEntity, "INVALID_SLOT", "Requested time is not a bookable slot; refresh the slot list")
		case errors.Is(err, ErrSlotConflict):
			response.Error(c, http.StatusConflict, "SLOT_CONFLICT", "Slot was claimed by another patient; refresh the slot list")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create appointment")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"appointment": a})
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := h.appointmentID(c)
	if !ok {
		return
	}
	a, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) GetMyAppointments(c *gin.Context) {
	patientID := c.GetInt64("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.ListByPatient(c.Request.Context(), patientID, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load appointments")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointments": list})
}

func (h *Handler) CanCheckIn(c *gin.Context) {
	id, ok := h.appointmentID(c)
	if !ok {
		return
	}
	decision, err := h.service.CanCheckIn(c.Request.Context(), id)
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"check_in": decision})
}

func (h *Handler) Confirm(c *gin.Context) {
	h.lifecycle(c, h.service.Confirm)
}

func (h *Handler) CheckIn(c *gin.Context) {
	h.lifecycle(c, h.service.CheckIn)
}

func (h *Handler) StartConsultation(c *gin.Context) {
	h.lifecycle(c, h.service.StartConsultation)
}

func (h *Handler) Complete(c *gin.Context) {
	h.lifecycle(c, h.service.Complete)
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	h.lifecycle(c, h.service.MarkNoShow)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := h.appointmentID(c)
	if !ok {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Cancellation reason is required")
		return
	}

	a, err := h.service.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) lifecycle(c *gin.Context, op func(ctx context.Context, id int64) (*domain.Appointment, error)) {
	id, ok := h.appointmentID(c)
	if !ok {
		return
	}
	a, err := op(c.Request.Context(), id)
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) appointmentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid appointment id")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Appointment not found")
	case errors.Is(err, ErrAlreadyProcessed):
		response.Error(c, http.StatusConflict, "ALREADY_PROCESSED", err.Error())
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed")
	}
}

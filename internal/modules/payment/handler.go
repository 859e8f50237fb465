package payment

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"clinicbook/internal/domain"
	"clinicbook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the authenticated payment endpoints; refund
// management goes through the staff gate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, staff gin.HandlerFunc) {
	rg.POST("/payments", h.CreatePayment)
	rg.GET("/appointments/:id/payment", h.GetPaymentStatus)
	rg.GET("/refunds/pending", staff, h.ListPendingRefunds)
	rg.PATCH("/refunds/:id/settle", staff, h.SettleRefund)
}

// RegisterCallbackRoutes mounts the unauthenticated provider endpoints.
func (h *Handler) RegisterCallbackRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/callback/:provider", h.ProviderCallback)
}

func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	resp, err := h.service.CreatePayment(c.Request.Context(), req.AppointmentID, req.Method)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyPending):
			response.Error(c, http.StatusConflict, "PAYMENT_ALREADY_PENDING", "A payment attempt is already awaiting confirmation")
		case errors.Is(err, ErrInvalidMethod):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unsupported payment method")
		case errors.Is(err, ErrNotPayable):
			response.Error(c, http.StatusConflict, "NOT_PAYABLE", "Appointment cannot accept payments")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create payment")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"payment": resp})
}

func (h *Handler) GetPaymentStatus(c *gin.Context) {
	appointmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid appointment id")
		return
	}

	status, err := h.service.GetPaymentStatus(c.Request.Context(), appointmentID)
	if err != nil {
		if errors.Is(err, ErrNoPaymentFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "No payment for appointment")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load payment status")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payment": status})
}

// ProviderCallback ingests the asynchronous provider result. It is untrusted
// input: every failure mode is logged and acknowledged with 200 so the
// provider stops retrying; nothing here may corrupt ledger state.
func (h *Handler) ProviderCallback(c *gin.Context) {
	method := domain.PaymentMethod(strings.ToUpper(c.Param("provider")))

	var req CallbackRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Printf("payment callback malformed provider=%s err=%v", method, err)
		c.String(http.StatusOK, "IGNORED")
		return
	}

	if !h.service.VerifyCallbackSignature(c.Request.Context(), method, req) {
		log.Printf("payment callback bad signature provider=%s ref=%s", method, req.ProviderRef)
		c.String(http.StatusOK, "IGNORED")
		return
	}

	success := strings.EqualFold(req.Result, "success")
	err := h.service.HandleProviderResult(c.Request.Context(), req.ProviderRef, success, req.Amount, c.Request.URL.RawQuery)
	if err != nil {
		log.Printf("payment callback dropped provider=%s ref=%s err=%v", method, req.ProviderRef, err)
		c.String(http.StatusOK, "IGNORED")
		return
	}

	c.String(http.StatusOK, "OK")
}

func (h *Handler) ListPendingRefunds(c *gin.Context) {
	refunds, err := h.service.ListPendingRefunds(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load refunds")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refunds": refunds})
}

func (h *Handler) SettleRefund(c *gin.Context) {
	refundID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid refund id")
		return
	}

	if err := h.service.SettleRefund(c.Request.Context(), refundID); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to settle refund")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settled": true})
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campportal/reservation-payments/internal/models"
	"github.com/campportal/reservation-payments/internal/service"
)

const maxBatchSize = 500

type PaymentsService interface {
	Summarize(ctx context.Context, reservationID int64) (*models.ReservationPayments, error)
	SummarizeBatch(ctx context.Context, reservationIDs []int64) ([]service.BatchResult, error)
	ApplyAction(ctx context.Context, reservationID int64, id models.ComponentID, action models.ItemAction) (*models.ReservationPayments, error)
}

type ReservationPaymentsHandler struct {
	svc PaymentsService
}

func NewReservationPaymentsHandler(svc PaymentsService) *ReservationPaymentsHandler {
	return &ReservationPaymentsHandler{svc: svc}
}

func (h *ReservationPaymentsHandler) GetPayments(c *gin.Context) {
	id, err := reservationID(c)
	if err != nil {
		respondError(c, err, "")
		return
	}

	payments, err := h.svc.Summarize(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to compute reservation payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}

type batchRequest struct {
	ReservationIDs []int64 `json:"reservation_ids" binding:"required"`
}

func (h *ReservationPaymentsHandler) GetPaymentsBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": models.CodeInvalidInput})
		return
	}
	if len(req.ReservationIDs) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("at most %d reservations per batch", maxBatchSize),
			"code":  models.CodeInvalidInput,
		})
		return
	}

	results, err := h.svc.SummarizeBatch(c.Request.Context(), req.ReservationIDs)
	if err != nil {
		respondError(c, err, "Failed to compute reservation payments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ItemAction returns a handler applying action to the component named by the
// :item path parameter.
func (h *ReservationPaymentsHandler) ItemAction(action models.ItemAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := reservationID(c)
		if err != nil {
			respondError(c, err, "")
			return
		}
		component, err := models.ParseComponentID(c.Param("item"))
		if err != nil {
			respondError(c, err, "")
			return
		}

		payments, err := h.svc.ApplyAction(c.Request.Context(), id, component, action)
		if err != nil {
			respondError(c, err, "Failed to apply item action")
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

func reservationID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: reservation id %q", models.ErrInvalidInput, c.Param("id"))
	}
	return id, nil
}

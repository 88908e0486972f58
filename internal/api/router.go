package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campportal/reservation-payments/internal/handlers"
	"github.com/campportal/reservation-payments/internal/models"
	"github.com/campportal/reservation-payments/internal/telemetry"
)

func NewRouter(svc handlers.PaymentsService) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "reservation-payments"})
	})

	h := handlers.NewReservationPaymentsHandler(svc)
	reservations := r.Group("/reservations")
	reservations.GET("/:id/payments", h.GetPayments)
	reservations.POST("/payments/batch", h.GetPaymentsBatch)

	items := reservations.Group("/:id/items/:item")
	items.POST("/cancel", h.ItemAction(models.ActionCancel))
	items.POST("/refund/request", h.ItemAction(models.ActionRequestRefund))
	items.POST("/refund/confirm", h.ItemAction(models.ActionConfirmRefund))
	items.POST("/refund/abort", h.ItemAction(models.ActionAbortRefund))

	return r
}

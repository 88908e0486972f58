package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campportal/reservation-payments/internal/models"
	"github.com/campportal/reservation-payments/internal/telemetry"
)

var statusByCode = map[string]int{
	models.CodeNotFound:          http.StatusNotFound,
	models.CodeInvalidComponent:  http.StatusBadRequest,
	models.CodeInvalidInput:      http.StatusBadRequest,
	models.CodeInvalidTransition: http.StatusConflict,
	models.CodeLocked:            http.StatusLocked,
}

// respondError writes domain errors with their mapped status and hides
// everything else behind a 500.
func respondError(c *gin.Context, err error, msg string) {
	var de *models.DomainError
	if errors.As(err, &de) {
		if status, ok := statusByCode[de.Code]; ok {
			c.JSON(status, gin.H{"error": err.Error(), "code": de.Code})
			return
		}
	}

	telemetry.Logger.Error(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

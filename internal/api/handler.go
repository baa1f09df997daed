package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleetops-backend/internal/errs"
	"fleetops-backend/internal/maintenance"
	"fleetops-backend/internal/notification"
	"fleetops-backend/internal/registry"
	"fleetops-backend/internal/schedule"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	db        *gorm.DB
	schedules *schedule.Service
	maint     *maintenance.Service
	reg       *registry.Registry
	pool      *notification.WorkerPool
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(db *gorm.DB, schedules *schedule.Service, maint *maintenance.Service, pool *notification.WorkerPool, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		db:        db,
		schedules: schedules,
		maint:     maint,
		reg:       registry.New(db),
		pool:      pool,
		webpush:   webpushOptions,
	}
}

// respondError maps the core error taxonomy onto HTTP statuses. Conflict
// payloads carry the structured conflict list verbatim so the caller can
// render it.
func respondError(c *gin.Context, err error) {
	var vErr *errs.ValidationError
	var nfErr *errs.NotFoundError
	var ruErr *errs.ResourceUnavailableError
	var cErr *errs.ConflictError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "field": vErr.Field})
	case errors.As(err, &nfErr):
		c.JSON(http.StatusNotFound, gin.H{"error": nfErr.Error()})
	case errors.As(err, &ruErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":        ruErr.Error(),
			"resourceType": ruErr.ResourceType,
			"resourceId":   ruErr.ResourceID,
		})
	case errors.As(err, &cErr):
		c.JSON(http.StatusConflict, gin.H{"error": "scheduling conflict", "conflicts": cErr.Conflicts})
	default:
		logrus.Errorf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// notifyFlagged pushes one alert per affected depot after a flagging run.
func (h *Handler) notifyFlagged(flagged map[int64]int64) {
	if h.pool == nil {
		return
	}
	for depotID, count := range flagged {
		h.pool.Dispatch(notification.FlaggedAlert(depotID, count))
	}
}

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleetops-backend/internal/errs"
	"fleetops-backend/internal/model"
	"fleetops-backend/internal/mw"
	"fleetops-backend/internal/schedule"
)

// scheduleResponse is a schedule plus its derived fields and the route it
// runs on.
type scheduleResponse struct {
	model.Schedule
	TripsRemaining int          `json:"tripsRemaining"`
	Route          *model.Route `json:"route,omitempty"`
}

func toScheduleResponse(s *model.Schedule) scheduleResponse {
	resp := scheduleResponse{
		Schedule:       *s,
		TripsRemaining: s.TripsRemaining(),
	}
	if s.Route.ID != 0 {
		route := s.Route
		resp.Route = &route
	}
	return resp
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// ListSchedules handles GET /api/schedules.
func (h *Handler) ListSchedules(c *gin.Context) {
	schedules, err := h.schedules.List(c.Request.Context(), mw.DepotID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]scheduleResponse, len(schedules))
	for i := range schedules {
		resp[i] = toScheduleResponse(&schedules[i])
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetSchedule handles GET /api/schedules/:id.
func (h *Handler) GetSchedule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	sched, err := h.schedules.Get(c.Request.Context(), mw.DepotID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toScheduleResponse(sched)})
}

// CreateSchedule handles POST /api/schedules.
func (h *Handler) CreateSchedule(c *gin.Context) {
	var in schedule.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid schedule payload: %v", err))
		return
	}
	sched, err := h.schedules.Create(c.Request.Context(), mw.DepotID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": toScheduleResponse(sched)})
}

// UpdateSchedule handles PUT /api/schedules/:id.
func (h *Handler) UpdateSchedule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in schedule.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid schedule payload: %v", err))
		return
	}
	sched, err := h.schedules.Update(c.Request.Context(), mw.DepotID(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toScheduleResponse(sched)})
}

// ReassignSchedule handles POST /api/schedules/:id/reassign.
func (h *Handler) ReassignSchedule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in schedule.ReassignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid reassignment payload: %v", err))
		return
	}
	sched, err := h.schedules.Reassign(c.Request.Context(), mw.DepotID(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toScheduleResponse(sched)})
}

// DeleteSchedule handles DELETE /api/schedules/:id.
func (h *Handler) DeleteSchedule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.schedules.Delete(c.Request.Context(), mw.DepotID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "schedule deleted"})
}

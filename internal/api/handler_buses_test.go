package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops-backend/internal/model"
)

func TestBusEndpoints(t *testing.T) {
	router, gormDB := setupRouter(t)
	f := seedAPI(t, gormDB)

	t.Run("create applies defaults", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/buses", f.depot.ID, map[string]any{
			"number":             "NB-9999",
			"registrationNumber": "WP-NA-9999",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp struct {
			Data model.Bus `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, model.BusStatusActive, resp.Data.Status)
		assert.Equal(t, f.depot.ID, resp.Data.DepotID)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/buses", f.depot.ID, map[string]any{
			"number":             "NB-8888",
			"registrationNumber": "WP-NA-8888",
			"status":             "parked",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("assignable excludes inactive buses", func(t *testing.T) {
		inactive := model.Bus{Number: "NB-7777", RegistrationNumber: "WP-NA-7777", Status: model.BusStatusMaintenance, DepotID: f.depot.ID}
		require.NoError(t, gormDB.Create(&inactive).Error)

		w := doJSON(t, router, "GET", "/api/buses/assignable", f.depot.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data []model.Bus `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		for _, b := range resp.Data {
			assert.True(t, b.Status.Assignable(), "bus %s should not be listed", b.Number)
		}
	})

	t.Run("deactivation flags dependent future schedules", func(t *testing.T) {
		date := model.DateOf(time.Now().AddDate(0, 0, 3))
		w := doJSON(t, router, "POST", "/api/schedules", f.depot.ID, map[string]any{
			"routeId":       f.route.ID,
			"busId":         f.bus.ID,
			"driverId":      f.driver.ID,
			"conductorId":   f.conductor.ID,
			"date":          string(date),
			"departureTime": "08:00",
			"arrivalTime":   "10:00",
			"tripsTotal":    4,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = doJSON(t, router, "PUT", fmt.Sprintf("/api/buses/%d", f.bus.ID), f.depot.ID, map[string]any{
			"number":             f.bus.Number,
			"registrationNumber": f.bus.RegistrationNumber,
			"status":             "breakdown",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		// The response carries the entity as saved.
		var updated struct {
			Data model.Bus `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, f.bus.ID, updated.Data.ID)
		assert.Equal(t, model.BusStatusBreakdown, updated.Data.Status)

		var scheds []model.Schedule
		require.NoError(t, gormDB.Where("depot_id = ?", f.depot.ID).Find(&scheds).Error)
		require.Len(t, scheds, 1)
		assert.True(t, scheds[0].FlaggedForReassignment)
		assert.True(t, scheds[0].BusID.Is(f.bus.ID), "deactivation keeps the reference")
	})

	t.Run("maintenance status", func(t *testing.T) {
		due := model.DateOf(time.Now().AddDate(0, 0, 5))
		require.NoError(t, gormDB.Model(&model.Bus{}).Where("id = ?", f.bus.ID).
			Update("next_service_due", due).Error)

		w := doJSON(t, router, "GET", fmt.Sprintf("/api/buses/%d/maintenance-status", f.bus.ID), f.depot.ID, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			Data struct {
				IsDueSoon    bool `json:"isDueSoon"`
				IsOverdue    bool `json:"isOverdue"`
				DaysUntilDue *int `json:"daysUntilDue"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.IsDueSoon)
		assert.False(t, resp.Data.IsOverdue)
		require.NotNil(t, resp.Data.DaysUntilDue)
		assert.Equal(t, 5, *resp.Data.DaysUntilDue)
	})
}

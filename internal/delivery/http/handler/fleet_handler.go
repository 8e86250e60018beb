package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hotel-beacon-monitor/internal/engine"
	"hotel-beacon-monitor/internal/ingestion"
	"hotel-beacon-monitor/pkg/utils"
)

// FleetHandler exposes everything around the beacon collection itself:
// activity log, alarms, connection, settings, statistics snapshot and the
// manual refresh trigger.
type FleetHandler struct {
	engine *engine.Engine
	loop   *ingestion.Loop
}

func NewFleetHandler(eng *engine.Engine, loop *ingestion.Loop) *FleetHandler {
	return &FleetHandler{engine: eng, loop: loop}
}

func (h *FleetHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/snapshot", h.GetSnapshot)

	log := router.Group("/activity-log")
	{
		log.GET("", h.GetActivityLog)
		log.DELETE("", h.ClearActivityLog)
	}

	alarms := router.Group("/alarms")
	{
		alarms.GET("", h.GetAlarms)
		alarms.POST("/:id/acknowledge", h.AcknowledgeAlarm)
		alarms.DELETE("", h.ClearAlarms)
	}

	conn := router.Group("/connection")
	{
		conn.GET("", h.GetConnection)
		conn.POST("/toggle", h.ToggleConnection)
	}

	settings := router.Group("/settings")
	{
		settings.GET("", h.GetSettings)
		settings.PUT("", h.UpdateSettings)
	}

	ingest := router.Group("/ingestion")
	{
		ingest.POST("/refresh", h.ManualRefresh)
		ingest.GET("/metrics", h.GetIngestionMetrics)
	}
}

func (h *FleetHandler) GetSnapshot(c *gin.Context) {
	snap := h.engine.Snapshot()
	utils.SuccessResponse(c, http.StatusOK, "Snapshot retrieved successfully", FleetSnapshotResponse{
		Beacons:     ToBeaconResponses(snap.Beacons),
		ActivityLog: snap.ActivityLog,
		Alarms:      snap.Alarms,
		Connection:  snap.Connection,
		Settings:    snap.Settings,
		Statistics:  snap.Statistics,
	})
}

func (h *FleetHandler) GetActivityLog(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Activity log retrieved successfully", h.engine.ActivityLog())
}

func (h *FleetHandler) ClearActivityLog(c *gin.Context) {
	h.engine.ClearActivityLog()
	utils.SuccessResponse(c, http.StatusOK, "Activity log cleared", nil)
}

func (h *FleetHandler) GetAlarms(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Alarms retrieved successfully", h.engine.Alarms())
}

func (h *FleetHandler) AcknowledgeAlarm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid alarm ID")
		return
	}

	if err := h.engine.AcknowledgeAlarm(id); err != nil {
		respondEngineError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alarm acknowledged", nil)
}

func (h *FleetHandler) ClearAlarms(c *gin.Context) {
	h.engine.ClearAlarms()
	utils.SuccessResponse(c, http.StatusOK, "Alarms cleared", nil)
}

func (h *FleetHandler) GetConnection(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Connection status retrieved successfully", h.engine.Connection())
}

func (h *FleetHandler) ToggleConnection(c *gin.Context) {
	status := h.engine.ToggleConnection()
	utils.SuccessResponse(c, http.StatusOK, "Connection toggled", status)
}

func (h *FleetHandler) GetSettings(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Settings retrieved successfully", h.engine.Settings())
}

func (h *FleetHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	settings := h.engine.UpdateSettings(req.ToPatch())
	utils.SuccessResponse(c, http.StatusOK, "Settings updated successfully", settings)
}

// ManualRefresh schedules a one-shot ingestion cycle. The request returns as
// soon as the cycle is scheduled; 409 signals one is already in flight.
func (h *FleetHandler) ManualRefresh(c *gin.Context) {
	if _, ok := h.loop.ManualRefresh(); !ok {
		utils.ErrorResponse(c, http.StatusConflict, "A refresh is already in progress")
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Refresh scheduled", nil)
}

func (h *FleetHandler) GetIngestionMetrics(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Ingestion metrics retrieved successfully", h.loop.Metrics())
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hotel-beacon-monitor/internal/engine"
	apperrors "hotel-beacon-monitor/pkg/errors"
	"hotel-beacon-monitor/pkg/utils"
)

type BeaconHandler struct {
	engine *engine.Engine
}

func NewBeaconHandler(eng *engine.Engine) *BeaconHandler {
	return &BeaconHandler{engine: eng}
}

func (h *BeaconHandler) RegisterRoutes(router *gin.RouterGroup) {
	beacons := router.Group("/beacons")
	{
		beacons.GET("", h.ListBeacons)
		beacons.POST("", h.AddBeacon)
		beacons.PUT("/:id", h.UpdateBeacon)
		beacons.DELETE("/:id", h.DeleteBeacon)
		beacons.GET("/statistics", h.GetStatistics)
	}
}

func (h *BeaconHandler) ListBeacons(c *gin.Context) {
	beacons := h.engine.Beacons()
	utils.SuccessResponse(c, http.StatusOK, "Beacons retrieved successfully", ToBeaconResponses(beacons))
}

func (h *BeaconHandler) AddBeacon(c *gin.Context) {
	var req AddBeaconRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.engine.AddBeacon(req.ToPatch())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Beacon registered successfully", ToBeaconResponse(b))
}

func (h *BeaconHandler) UpdateBeacon(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid beacon ID")
		return
	}

	var req UpdateBeaconRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.engine.UpdateBeacon(id, req.ToPatch())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Beacon updated successfully", ToBeaconResponse(b))
}

func (h *BeaconHandler) DeleteBeacon(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid beacon ID")
		return
	}

	if err := h.engine.DeleteBeacon(id); err != nil {
		respondEngineError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Beacon deleted successfully", nil)
}

func (h *BeaconHandler) GetStatistics(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved successfully", h.engine.Statistics())
}

// respondEngineError maps the engine's error taxonomy onto HTTP statuses.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}

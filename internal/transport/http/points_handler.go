package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
	"github.com/jhubafrica/points-service/internal/transport/http/middleware"
)

type PointsHandler struct {
	points *usecase.PointsUseCase
	log    logger.Logger
}

func NewPointsHandler(points *usecase.PointsUseCase, log logger.Logger) *PointsHandler {
	return &PointsHandler{points: points, log: log}
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(middleware.UserIDKey))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user"})
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/v1/points/summary
func (h *PointsHandler) Summary(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	summary, err := h.points.Summary(c, userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// POST /api/v1/points/calculate
func (h *PointsHandler) Calculate(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	ev, err := h.points.Calculate(c, userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

type awardReq struct {
	Action      string `json:"action" binding:"required"`
	Points      int    `json:"points" binding:"required"`
	Description string `json:"description"`
}

// POST /api/v1/points/award
func (h *PointsHandler) Award(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req awardReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.points.Award(c, userID, req.Action, req.Points, req.Description)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// POST /api/v1/points/streak
func (h *PointsHandler) Streak(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	res, err := h.points.RecordActivity(c, userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

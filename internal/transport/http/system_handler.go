package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jhubafrica/points-service/internal/application/queue"
	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
)

type QueueStats interface {
	Stats() queue.Stats
}

type SystemHandler struct {
	consistency *usecase.ConsistencyUseCase
	queue       QueueStats
	log         logger.Logger
}

func NewSystemHandler(consistency *usecase.ConsistencyUseCase, q QueueStats, log logger.Logger) *SystemHandler {
	return &SystemHandler{consistency: consistency, queue: q, log: log}
}

// POST /api/v1/system/correct-data[?resume=true]
func (h *SystemHandler) CorrectData(c *gin.Context) {
	opts := usecase.CorrectAllOptions{Resume: c.Query("resume") == "true"}
	res, err := h.consistency.CorrectAllUsersData(c, opts)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/v1/system/validate-consistency
func (h *SystemHandler) ValidateConsistency(c *gin.Context) {
	report, err := h.consistency.ValidateSystemConsistency(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// POST /api/v1/system/auto-correct
func (h *SystemHandler) AutoCorrect(c *gin.Context) {
	res, err := h.consistency.AutoCorrectSystem(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/system/correct-user/:userId
func (h *SystemHandler) CorrectUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	res, err := h.consistency.CorrectUserData(c, userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/system/cleanup-orphans
func (h *SystemHandler) CleanupOrphans(c *gin.Context) {
	removed, err := h.consistency.CleanupOrphanedEnrollments(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// GET /api/v1/system/queue
func (h *SystemHandler) QueueStats(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusOK, queue.Stats{})
		return
	}
	c.JSON(http.StatusOK, h.queue.Stats())
}

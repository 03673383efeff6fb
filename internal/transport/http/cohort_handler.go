package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/domain"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
)

type CohortHandler struct {
	cohorts *usecase.CohortUseCase
	log     logger.Logger
}

func NewCohortHandler(cohorts *usecase.CohortUseCase, log logger.Logger) *CohortHandler {
	return &CohortHandler{cohorts: cohorts, log: log}
}

type courseTransition func(ctx context.Context, courseID uuid.UUID) (*domain.Course, error)

func (h *CohortHandler) run(c *gin.Context, fn courseTransition) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course id"})
		return
	}
	course, err := fn(c, courseID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course})
}

// POST /api/v1/courses/:id/start-recruiting
func (h *CohortHandler) StartRecruiting(c *gin.Context) {
	h.run(c, h.cohorts.StartRecruiting)
}

// POST /api/v1/courses/:id/start-cohort
func (h *CohortHandler) StartCohort(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course id"})
		return
	}
	res, err := h.cohorts.StartCohort(c, courseID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/courses/:id/complete-cohort
func (h *CohortHandler) CompleteCohort(c *gin.Context) {
	h.run(c, h.cohorts.CompleteCohort)
}

// POST /api/v1/courses/:id/open-cohort
func (h *CohortHandler) OpenCohort(c *gin.Context) {
	h.run(c, h.cohorts.OpenNewCohort)
}

// POST /api/v1/courses/:id/sync
func (h *CohortHandler) Sync(c *gin.Context) {
	h.run(c, h.cohorts.Sync)
}

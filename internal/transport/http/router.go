package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jhubafrica/points-service/internal/infrastructure/security"
	"github.com/jhubafrica/points-service/internal/transport/http/middleware"
)

type RouterDeps struct {
	Points         *PointsHandler
	System         *SystemHandler
	Cohorts        *CohortHandler
	Tokens         *security.TokenManager
	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	config := cors.DefaultConfig()
	if len(d.AllowedOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = d.AllowedOrigins
		config.AllowCredentials = true
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(config))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(d.Tokens))
	{
		points := api.Group("/points")
		{
			points.GET("/summary", d.Points.Summary)
			points.POST("/calculate", d.Limiter.Limit("points_calculate", 10, time.Minute), d.Points.Calculate)
			points.POST("/award", d.Limiter.Limit("points_award", 30, time.Minute), d.Points.Award)
			points.POST("/streak", d.Points.Streak)
		}

		system := api.Group("/system")
		system.Use(middleware.AdminOnly())
		{
			system.POST("/correct-data", d.System.CorrectData)
			system.GET("/validate-consistency", d.System.ValidateConsistency)
			system.POST("/auto-correct", d.System.AutoCorrect)
			system.POST("/correct-user/:userId", d.System.CorrectUser)
			system.POST("/cleanup-orphans", d.System.CleanupOrphans)
			system.GET("/queue", d.System.QueueStats)
		}

		courses := api.Group("/courses")
		courses.Use(middleware.AdminOnly())
		{
			courses.POST("/:id/start-recruiting", d.Cohorts.StartRecruiting)
			courses.POST("/:id/start-cohort", d.Cohorts.StartCohort)
			courses.POST("/:id/complete-cohort", d.Cohorts.CompleteCohort)
			courses.POST("/:id/open-cohort", d.Cohorts.OpenCohort)
			courses.POST("/:id/sync", d.Cohorts.Sync)
		}
	}

	return r
}

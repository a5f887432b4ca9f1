package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sipwise/sipwise-server/config"
	"github.com/sipwise/sipwise-server/controllers"
	"github.com/sipwise/sipwise-server/middleware"
	"github.com/sipwise/sipwise-server/utils"
)

// SetupRouter wires routes, middlewares, and controllers. The two Gemini
// clients are passed in separately because quiz and health traffic run on
// different API keys.
func SetupRouter(db *gorm.DB, quizAI, healthAI controllers.TextGenerator, images *utils.StabilityClient, blobs *utils.DiskBlobStore) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Generated images live on local disk and are public by URL.
	r.Static("/static", cfg.MediaDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.OK(ctx, gin.H{"status": "ok"})
	})

	quizController := controllers.NewQuizController(quizAI)
	healthController := controllers.NewHealthAIController(healthAI)
	imageController := controllers.NewImageController(db, images, blobs)
	challengeController := controllers.NewChallengeController(db)
	pointsController := controllers.NewPointsController(db)
	activityController := controllers.NewActivityController(db, healthAI)

	api := r.Group("/api")

	// AI-backed routes burn upstream quota; keep them rate limited.
	aiGroup := api.Group("")
	aiGroup.Use(middleware.RateLimitMiddleware())
	aiGroup.POST("/quiz-master", quizController.QuizMaster)
	aiGroup.POST("/health-ai", healthController.HealthAI)
	aiGroup.POST("/generate-real-image", imageController.GenerateRealImage)

	api.GET("/daily-challenge", challengeController.DailyChallenge)
	api.POST("/complete-challenge", challengeController.CompleteChallenge)
	api.GET("/leaderboard", pointsController.Leaderboard)

	api.GET("/points/:uid", pointsController.GetPoints)
	api.POST("/points", pointsController.SetPoints)

	api.POST("/activity/quiz", activityController.SaveQuiz)
	api.POST("/activity/interview-answers", activityController.SaveInterviewAnswers)
	api.GET("/activity/quiz-history/:uid", activityController.QuizHistory)
	api.GET("/activity/health-tips/:uid", activityController.HealthTips)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Fail(ctx, http.StatusNotFound, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}

package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/sipwise/sipwise-server/config"
	"github.com/sipwise/sipwise-server/models"
	"github.com/sipwise/sipwise-server/routes"
	"github.com/sipwise/sipwise-server/utils"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Both Gemini keys are mandatory; the process is useless without them.
	if cfg.GeminiAPIKey == "" {
		log.Fatal("Gemini API key (API_KEY) not found. Please check your .env file.")
	}
	if cfg.HealthAIAPIKey == "" {
		log.Fatal("Health AI Gemini key (HEALTH_AI_API_KEY) not found. Please check your .env file.")
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.QuizHistory{})

	ctx := context.Background()
	quizAI, err := utils.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		utils.Sugar.Fatalf("failed to create quiz Gemini client: %v", err)
	}
	healthAI, err := utils.NewGeminiClient(ctx, cfg.HealthAIAPIKey, cfg.GeminiModel)
	if err != nil {
		utils.Sugar.Fatalf("failed to create health Gemini client: %v", err)
	}

	images := utils.NewStabilityClient(cfg.StabilityAPIKey, cfg.StabilityEndpoint)
	blobs := utils.NewDiskBlobStore(cfg.MediaDir, cfg.PublicBaseURL)

	r := routes.SetupRouter(db, quizAI, healthAI, images, blobs)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

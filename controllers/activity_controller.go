package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sipwise/sipwise-server/models"
	"github.com/sipwise/sipwise-server/utils"
)

// ActivityController owns the personalization data: quiz history, interview
// answers, and the tips derived from them. The three write paths are
// independent of each other and of the points ledger.
type ActivityController struct {
	db *gorm.DB
	ai TextGenerator
}

// NewActivityController creates a new controller instance.
func NewActivityController(db *gorm.DB, ai TextGenerator) *ActivityController {
	return &ActivityController{db: db, ai: ai}
}

type saveQuizRequest struct {
	UID      string          `json:"uid"`
	QuizData json.RawMessage `json:"quizData"`
}

// SaveQuiz handles POST /api/activity/quiz: append one history entry with a
// server-assigned timestamp.
func (a *ActivityController) SaveQuiz(ctx *gin.Context) {
	var req saveQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.UID == "" || len(req.QuizData) == 0 {
		utils.Fail(ctx, http.StatusBadRequest, "User ID and quiz data are required.")
		return
	}

	entry := models.QuizHistory{
		UID:       req.UID,
		Payload:   string(req.QuizData),
		Timestamp: time.Now(),
	}
	if err := a.db.Create(&entry).Error; err != nil {
		logError("error saving quiz history", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to save quiz history.")
		return
	}
	utils.OK(ctx, gin.H{"success": true})
}

type saveAnswersRequest struct {
	UID     string   `json:"uid"`
	Answers []string `json:"answers"`
}

// SaveInterviewAnswers handles POST /api/activity/interview-answers: a
// merge-write that replaces the stored answers and nothing else, creating
// the user record when absent.
func (a *ActivityController) SaveInterviewAnswers(ctx *gin.Context) {
	var req saveAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.UID == "" || req.Answers == nil {
		utils.Fail(ctx, http.StatusBadRequest, "User ID and answers are required.")
		return
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where(models.User{UID: req.UID}).FirstOrCreate(&user).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("uid = ?", req.UID).
			Update("interview_answers", models.StringList(req.Answers)).Error
	})
	if err != nil {
		logError("error saving interview answers", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to save answers.")
		return
	}
	utils.OK(ctx, gin.H{"success": true})
}

// QuizHistory handles GET /api/activity/quiz-history/:uid: the ten most
// recent entries, newest first, each payload returned as stored.
func (a *ActivityController) QuizHistory(ctx *gin.Context) {
	uid := ctx.Param("uid")

	var rows []models.QuizHistory
	if err := a.db.Where("uid = ?", uid).Order("timestamp DESC").Limit(10).Find(&rows).Error; err != nil {
		logError("error fetching quiz history", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to fetch quiz history.")
		return
	}

	history := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		entry := gin.H{"id": row.ID, "timestamp": row.Timestamp}
		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(row.Payload), &payload); err == nil {
			for k, v := range payload {
				entry[k] = v
			}
		}
		history = append(history, entry)
	}
	utils.OK(ctx, history)
}

type healthTipsResponse struct {
	Tips []string `json:"tips"`
}

// HealthTips handles GET /api/activity/health-tips/:uid: re-feeds the
// stored interview answers into a JSON-constrained generation.
func (a *ActivityController) HealthTips(ctx *gin.Context) {
	uid := ctx.Param("uid")

	var user models.User
	err := a.db.Where("uid = ?", uid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(user.InterviewAnswers) == 0) {
		utils.Fail(ctx, http.StatusNotFound, "Interview answers not found for user.")
		return
	}
	if err != nil {
		logError("error generating health tips", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to generate health tips.")
		return
	}

	prompt := utils.HealthTipsPrompt(user.InterviewAnswers)
	text, err := a.ai.GenerateText(ctx.Request.Context(), prompt, true, 256)
	if err != nil {
		logError("error generating health tips", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to generate health tips.")
		return
	}

	var tips healthTipsResponse
	if err := json.Unmarshal([]byte(text), &tips); err != nil {
		logError("health tips response is not valid JSON", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to generate health tips.")
		return
	}
	utils.OK(ctx, tips)
}

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sipwise/sipwise-server/utils"
)

// QuizController drives the quiz-master flow: fact of the day, the
// three-question preference interview, quiz generation, and wrong-answer
// explanations. Which sub-stage runs is chosen by the client per call.
type QuizController struct {
	ai TextGenerator
}

// NewQuizController creates a new controller instance.
func NewQuizController(ai TextGenerator) *QuizController {
	return &QuizController{ai: ai}
}

type quizMasterRequest struct {
	Stage              string                    `json:"stage"`
	UserAnswers        []string                  `json:"userAnswers"`
	Difficulty         string                    `json:"difficulty"`
	IncorrectQuestions []utils.IncorrectQuestion `json:"incorrectQuestions"`
}

// QuizMaster handles POST /api/quiz-master. Plain-text stages answer with
// text/plain; JSON stages answer with the parsed upstream document.
func (q *QuizController) QuizMaster(ctx *gin.Context) {
	var req quizMasterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Stage == "" {
		utils.Fail(ctx, http.StatusBadRequest, "Stage is required.")
		return
	}

	prompt, requiresJSON, err := utils.BuildQuizPrompt(req.Stage, req.UserAnswers, req.Difficulty, req.IncorrectQuestions)
	if err != nil {
		if errors.Is(err, utils.ErrUnknownStage) {
			utils.Fail(ctx, http.StatusBadRequest, "Invalid stage provided.")
			return
		}
		logError("building quiz prompt", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to process the AI response. Check server logs.")
		return
	}

	text, err := q.ai.GenerateText(ctx.Request.Context(), prompt, requiresJSON, 2048)
	if err != nil {
		logError("error processing Google AI response", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to process the AI response. Check server logs.")
		return
	}

	if !requiresJSON {
		ctx.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
		return
	}

	if req.Stage == utils.StageGenerateQuiz {
		env, err := utils.ParseQuizEnvelope(text)
		if err != nil {
			logError("quiz response failed validation", err)
			utils.Fail(ctx, http.StatusInternalServerError, "Failed to process the AI response. Check server logs.")
			return
		}
		utils.OK(ctx, env)
		return
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		logError("AI response is not valid JSON", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to process the AI response. Check server logs.")
		return
	}
	utils.OK(ctx, parsed)
}

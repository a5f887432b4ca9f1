package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sipwise/sipwise-server/utils"
)

// HealthAIController runs the stateless wellness interview. The client
// resends the whole conversation on every call; nothing is stored here.
type HealthAIController struct {
	ai TextGenerator
}

// NewHealthAIController creates a new controller instance.
func NewHealthAIController(ai TextGenerator) *HealthAIController {
	return &HealthAIController{ai: ai}
}

// historyItem matches the Gemini-style wire history the web client sends:
// {role, parts: [{text}]}.
type historyItem struct {
	Role  string `json:"role"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

type healthAIRequest struct {
	History []historyItem `json:"history"`
}

// HealthAI handles POST /api/health-ai and answers {response, isFinal}.
func (h *HealthAIController) HealthAI(ctx *gin.Context) {
	var req healthAIRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Invalid request body.")
		return
	}

	history := make([]utils.ChatTurn, 0, len(req.History))
	for _, item := range req.History {
		texts := make([]string, 0, len(item.Parts))
		for _, p := range item.Parts {
			texts = append(texts, p.Text)
		}
		history = append(history, utils.ChatTurn{Role: item.Role, Text: strings.Join(texts, "\n")})
	}

	prompt, isFinal := utils.HealthDialogPrompt(history)

	text, err := h.ai.Chat(ctx.Request.Context(), prompt, history)
	if err != nil {
		logError("error in Health AI endpoint", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to get a response from the Health AI.")
		return
	}

	utils.OK(ctx, gin.H{"response": text, "isFinal": isFinal})
}

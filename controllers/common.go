package controllers

import (
	"context"

	"github.com/sipwise/sipwise-server/utils"
)

// TextGenerator is the slice of the Gemini client the controllers consume.
// Tests substitute a stub so no handler test touches the network.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, jsonOutput bool, maxTokens int) (string, error)
	Chat(ctx context.Context, instruction string, history []utils.ChatTurn) (string, error)
}

// logError logs a handler-side failure; every upstream failure is terminal
// for its request and only ever reported here.
func logError(msg string, err error) {
	if utils.Sugar != nil {
		utils.Sugar.Errorf("%s: %v", msg, err)
	}
}

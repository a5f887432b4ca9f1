package utils

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/schema"
)

// ChatTurn is one message of a client-held conversation. Role is "user" or
// "model"; the server never stores turns, callers resend the full history.
type ChatTurn struct {
	Role string
	Text string
}

// Default generation parameters, matching the upstream project this gateway
// replaced.
const (
	geminiTemperature   = 0.5
	geminiDefaultTokens = 2048
)

var errEmptyCompletion = errors.New("gemini returned no completion choices")

// GeminiClient wraps a langchaingo Google AI model. Two instances exist in
// the process, one per API key (quiz vs. health chat).
type GeminiClient struct {
	llm   *googleai.GoogleAI
	model string
}

// NewGeminiClient dials the Gemini API with the given key and model name.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{llm: llm, model: model}, nil
}

// GenerateText sends a single prompt and returns the completion text.
// With jsonOutput the model is constrained to emit application/json.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string, jsonOutput bool, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = geminiDefaultTokens
	}
	opts := []llms.CallOption{
		llms.WithTemperature(geminiTemperature),
		llms.WithMaxTokens(maxTokens),
	}
	if jsonOutput {
		opts = append(opts, llms.WithJSONMode())
	}
	return llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, opts...)
}

// Chat replays a multi-turn conversation and returns the model's next reply.
// The instruction is primed as an opening user turn followed by a fixed
// model acknowledgement, then the caller's history, then a nudge to
// continue; this reproduces the upstream chat-session behavior.
func (c *GeminiClient) Chat(ctx context.Context, instruction string, history []ChatTurn) (string, error) {
	msgs := make([]llms.MessageContent, 0, len(history)+3)
	msgs = append(msgs,
		llms.TextParts(schema.ChatMessageTypeHuman, instruction),
		llms.TextParts(schema.ChatMessageTypeAI, "Understood. I will follow all instructions."),
	)
	for _, turn := range history {
		role := schema.ChatMessageTypeHuman
		if turn.Role == "model" {
			role = schema.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, turn.Text))
	}
	msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeHuman, "Continue."))

	resp, err := c.llm.GenerateContent(ctx, msgs, llms.WithTemperature(geminiTemperature))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Content, nil
}

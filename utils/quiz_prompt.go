package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Quiz flow stages, selected by the client on every call.
const (
	StageFactOfTheDay   = "get_fact_of_the_day"
	StageStartInterview = "start_interview"
	StageGenerateQuiz   = "generate_quiz"
	StageExplainWrong   = "explain_wrong_answers"
)

// ErrUnknownStage is returned for any stage outside the four known ones.
var ErrUnknownStage = errors.New("invalid stage provided")

// IncorrectQuestion is a previously answered quiz question the user got
// wrong, sent back for per-question explanations.
type IncorrectQuestion struct {
	QuestionText       string   `json:"questionText"`
	Answers            []string `json:"answers"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
}

const factPrompt = "You are a health and wellness expert. Provide a single, surprising, and concise 'Fact of the Day' related to hydration, beverages, or nutrition in India. Make it engaging and easy to understand. Respond with only the fact as plain text."

const firstInterviewPrompt = "You are a friendly health coach. Ask the very first of three personal questions about a user's typical daily drink choices. Ask only one question and keep it brief and engaging."

// BuildQuizPrompt assembles the prompt for the given stage. requiresJSON
// tells the caller whether the model must answer with a JSON document.
func BuildQuizPrompt(stage string, userAnswers []string, difficulty string, incorrect []IncorrectQuestion) (prompt string, requiresJSON bool, err error) {
	switch stage {
	case StageFactOfTheDay:
		return factPrompt, false, nil

	case StageStartInterview:
		switch len(userAnswers) {
		case 0:
			return firstInterviewPrompt, false, nil
		case 1:
			return fmt.Sprintf("The user answered '%s'. Now, ask a second, different personal question about *why* or *when* they make that drink choice. Ask only one question.", userAnswers[0]), false, nil
		default:
			return fmt.Sprintf("The user's previous answers are '%s'. Now, ask the third and final personal question about what healthy changes they might be interested in. Ask only one question.", strings.Join(userAnswers, ", ")), false, nil
		}

	case StageGenerateQuiz:
		prompt = fmt.Sprintf(`
A user with preferences: "%s" has selected the '%s' difficulty level. You are an expert quiz creator for an Indian audience. Generate a quiz about health, drinks, and nutrition. **DIFFICULTY RULES:** - If '%s' is 'Easy': Ask common-knowledge questions. - If '%s' is 'Medium': Ask more specific questions involving numbers or common ingredients. - If '%s' is 'Hard': Ask complex, scientific, or data-driven questions. **CRITICAL RULES:** 1. **NO REPETITION:** Each quiz must feel completely fresh. 2. **VARY QUESTION STRUCTURE:** Mix up the formats. 3. **PLAUSIBLE DISTRACTORS:** Incorrect answers must be well-thought-out. Generate a quiz with exactly 8 questions. Each question must be an object with: - "questionText": the question string, - "answers": an array of 4 options, - "correctAnswerIndex": the index (0 to 3) of the correct answer in the "answers" array. Respond with a single JSON object with one key: 'quiz', whose value is an array of these question objects.`,
			strings.Join(userAnswers, ". "), difficulty, difficulty, difficulty, difficulty)
		return prompt, true, nil

	case StageExplainWrong:
		type pair struct {
			Question      string `json:"question"`
			CorrectAnswer string `json:"correctAnswer"`
		}
		pairs := make([]pair, 0, len(incorrect))
		for _, q := range incorrect {
			correct := ""
			if q.CorrectAnswerIndex >= 0 && q.CorrectAnswerIndex < len(q.Answers) {
				correct = q.Answers[q.CorrectAnswerIndex]
			}
			pairs = append(pairs, pair{Question: q.QuestionText, CorrectAnswer: correct})
		}
		encoded, err := json.Marshal(pairs)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("You are a helpful health expert. For each question in this list: %s, provide a clear, concise explanation. Respond with a single JSON object with one key: 'explanations', an array of objects, each with 'question' and 'explanation' keys.", encoded), true, nil

	default:
		return "", false, ErrUnknownStage
	}
}

// QuizQuestion is one generated question of the eight-question quiz.
type QuizQuestion struct {
	QuestionText       string   `json:"questionText"`
	Answers            []string `json:"answers"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
}

// QuizEnvelope is the document the model must produce for generate_quiz.
type QuizEnvelope struct {
	Quiz []QuizQuestion `json:"quiz"`
}

// ParseQuizEnvelope decodes and shape-checks a generated quiz: exactly 8
// questions, 4 answer options each, correct index within [0,3]. This is the
// schema boundary for upstream output; handlers map a failure to the same
// 500 a bare parse error produced.
func ParseQuizEnvelope(raw string) (*QuizEnvelope, error) {
	var env QuizEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("quiz response is not valid JSON: %w", err)
	}
	if len(env.Quiz) != 8 {
		return nil, fmt.Errorf("quiz has %d questions, want 8", len(env.Quiz))
	}
	for i, q := range env.Quiz {
		if len(q.Answers) != 4 {
			return nil, fmt.Errorf("question %d has %d answers, want 4", i, len(q.Answers))
		}
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex > 3 {
			return nil, fmt.Errorf("question %d has correct index %d outside [0,3]", i, q.CorrectAnswerIndex)
		}
	}
	return &env, nil
}

// HealthTipsPrompt asks for three personalized tips derived from stored
// interview answers.
func HealthTipsPrompt(answers []string) string {
	return fmt.Sprintf(`Based on these user statements about their drink habits in India ("%s"), generate 3 short, actionable, and personalized health tips. Respond only with a single JSON object with one key: "tips", which is an array of 3 tip strings.`, strings.Join(answers, "; "))
}

package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sipwise/sipwise-server/models"
	"github.com/sipwise/sipwise-server/utils"
)

// stubAI satisfies TextGenerator without touching the network.
type stubAI struct {
	textFn func(prompt string, jsonOutput bool, maxTokens int) (string, error)
	chatFn func(instruction string, history []utils.ChatTurn) (string, error)
}

func (s *stubAI) GenerateText(_ context.Context, prompt string, jsonOutput bool, maxTokens int) (string, error) {
	if s.textFn == nil {
		return "", fmt.Errorf("unexpected GenerateText call")
	}
	return s.textFn(prompt, jsonOutput, maxTokens)
}

func (s *stubAI) Chat(_ context.Context, instruction string, history []utils.ChatTurn) (string, error) {
	if s.chatFn == nil {
		return "", fmt.Errorf("unexpected Chat call")
	}
	return s.chatFn(instruction, history)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.QuizHistory{}))
	return db
}

func newTestRouter(t *testing.T, db *gorm.DB, ai TextGenerator, images *utils.StabilityClient, blobs *utils.DiskBlobStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	quiz := NewQuizController(ai)
	health := NewHealthAIController(ai)
	image := NewImageController(db, images, blobs)
	challenge := NewChallengeController(db)
	points := NewPointsController(db)
	activity := NewActivityController(db, ai)

	r.POST("/api/quiz-master", quiz.QuizMaster)
	r.POST("/api/health-ai", health.HealthAI)
	r.POST("/api/generate-real-image", image.GenerateRealImage)
	r.GET("/api/daily-challenge", challenge.DailyChallenge)
	r.POST("/api/complete-challenge", challenge.CompleteChallenge)
	r.GET("/api/leaderboard", points.Leaderboard)
	r.GET("/api/points/:uid", points.GetPoints)
	r.POST("/api/points", points.SetPoints)
	r.POST("/api/activity/quiz", activity.SaveQuiz)
	r.POST("/api/activity/interview-answers", activity.SaveInterviewAnswers)
	r.GET("/api/activity/quiz-history/:uid", activity.QuizHistory)
	r.GET("/api/activity/health-tips/:uid", activity.HealthTips)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGetPointsReadRepair(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db, &stubAI{}, nil, nil)

	w := doJSON(r, "GET", "/api/points/fresh-user", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["hydroPoints"])

	// The miss created a record; the second read finds it instead of
	// re-initializing.
	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("uid = ?", "fresh-user").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, db.Model(&models.User{}).Where("uid = ?", "fresh-user").
		Update("hydro_points", 17).Error)
	w = doJSON(r, "GET", "/api/points/fresh-user", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, float64(17), decodeBody(t, w)["hydroPoints"])
}

func TestSetPointsOverwrites(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db, &stubAI{}, nil, nil)

	w := doJSON(r, "POST", "/api/points", gin.H{"uid": "u1", "points": 42})
	require.Equal(t, 200, w.Code)
	assert.Equal(t, float64(42), decodeBody(t, w)["newTotal"])

	// Last writer wins; zero is a legal total.
	w = doJSON(r, "POST", "/api/points", gin.H{"uid": "u1", "points": 0})
	require.Equal(t, 200, w.Code)

	var user models.User
	require.NoError(t, db.First(&user, "uid = ?", "u1").Error)
	assert.Equal(t, 0, user.HydroPoints)
}

func TestSetPointsValidation(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db, &stubAI{}, nil, nil)

	assert.Equal(t, 400, doJSON(r, "POST", "/api/points", gin.H{"points": 10}).Code)
	assert.Equal(t, 400, doJSON(r, "POST", "/api/points", gin.H{"uid": "u1"}).Code)
}

func TestCompleteChallengeOncePerDay(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db, &stubAI{}, nil, nil)
	require.NoError(t, db.Create(&models.User{UID: "player", HydroPoints: 5}).Error)

	todays := models.ChallengeForDay(time.Now())

	w := doJSON(r, "POST", "/api/complete-challenge", gin.H{"uid": "player"})
	require.Equal(t, 200, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(todays.Points), body["pointsAwarded"])
	assert.Equal(t, float64(5+todays.Points), body["newTotal"])

	w = doJSON(r, "POST", "/api/complete-challenge", gin.H{"uid": "player"})
	assert.Equal(t, 409, w.Code)

	var user models.User
	require.NoError(t, db.First(&user, "uid = ?", "player").Error)
	assert.Equal(t, 5+todays.Points, user.HydroPoints)
}

func TestCompleteChallengeErrors(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db, &stubAI{}, nil, nil)

	assert.Equal(t, 400, doJSON(r, "POST", "/api/complete-challenge", gin.H{}).Code)
	assert.Equal(t, 404, doJSON(r, "POST", "/api/complete-challenge", gin.H{"uid": "nobody"}).Code)
}

func TestDailyChallengeIsStable(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db, &stubAI{}, nil, nil)

	first := doJSON(r, "GET", "/api/daily-challenge", nil)
	second := doJSON(r, "GET", "/api/daily-challenge", nil)
	require.Equal(t, 200, first.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.NotEmpty(t, decodeBody(t, first)["title"])
}

func TestLeaderboardOrdering(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db, &stubAI{}, nil, nil)

	// Insertion order deliberately differs from rank order.
	require.NoError(t, db.Create(&models.User{UID: "mid", HydroPoints: 50, DisplayName: "Mid", PhotoURL: "https://example.com/mid.png"}).Error)
	require.NoError(t, db.Create(&models.User{UID: "low", HydroPoints: 10}).Error)
	require.NoError(t, db.Create(&models.User{UID: "top", HydroPoints: 90, DisplayName: "Top"}).Error)

	w := doJSON(r, "GET", "/api/leaderboard", nil)
	require.Equal(t, 200, w.Code)

	var entries []struct {
		UID         string `json:"uid"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoURL"`
		HydroPoints int    `json:"hydroPoints"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, []int{90, 50, 10}, []int{entries[0].HydroPoints, entries[1].HydroPoints, entries[2].HydroPoints})
	assert.Equal(t, "top", entries[0].UID)

	// Missing display fields come back defaulted.
	assert.Equal(t, "Anonymous", entries[2].DisplayName)
	assert.Equal(t, defaultAvatarURL, entries[2].PhotoURL)
}

func TestLeaderboardTruncatesToTen(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db, &stubAI{}, nil, nil)

	for i := 0; i < 13; i++ {
		require.NoError(t, db.Create(&models.User{UID: fmt.Sprintf("u%02d", i), HydroPoints: i * 10}).Error)
	}
	w := doJSON(r, "GET", "/api/leaderboard", nil)
	require.Equal(t, 200, w.Code)

	var entries []json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 10)
}

func TestQuizHistoryNewestFirstCapTen(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db, &stubAI{}, nil, nil)

	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < 12; i++ {
		entry := models.QuizHistory{
			UID:       "quizzer",
			Payload:   fmt.Sprintf(`{"score": %d}`, i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&entry).Error)
	}

	w := doJSON(r, "GET", "/api/activity/quiz-history/quizzer", nil)
	require.Equal(t, 200, w.Code)

	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 10)
	assert.Equal(t, float64(11), history[0]["score"])
	assert.Equal(t, float64(2), history[9]["score"])
}

func TestSaveQuizValidation(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db, &stubAI{}, nil, nil)

	assert.Equal(t, 400, doJSON(r, "POST", "/api/activity/quiz", gin.H{"uid": "u"}).Code)
	assert.Equal(t, 400, doJSON(r, "POST", "/api/activity/quiz", gin.H{"quizData": gin.H{"score": 3}}).Code)

	w := doJSON(r, "POST", "/api/activity/quiz", gin.H{"uid": "u", "quizData": gin.H{"score": 3}})
	require.Equal(t, 200, w.Code)

	var row models.QuizHistory
	require.NoError(t, db.First(&row, "uid = ?", "u").Error)
	assert.JSONEq(t, `{"score": 3}`, row.Payload)
	assert.False(t, row.Timestamp.IsZero())
}

func TestInterviewAnswersAndHealthTips(t *testing.T) {
	db := openTestDB(t)
	ai := &stubAI{
		textFn: func(prompt string, jsonOutput bool, maxTokens int) (string, error) {
			assert.True(t, jsonOutput)
			assert.Equal(t, 256, maxTokens)
			assert.Contains(t, prompt, "chai twice a day; rarely water")
			return `{"tips": ["tip one", "tip two", "tip three"]}`, nil
		},
	}
	r := newTestRouter(t, db, ai, nil, nil)

	// No stored answers yet.
	assert.Equal(t, 404, doJSON(r, "GET", "/api/activity/health-tips/talker", nil).Code)

	w := doJSON(r, "POST", "/api/activity/interview-answers", gin.H{
		"uid":     "talker",
		"answers": []string{"chai twice a day", "rarely water"},
	})
	require.Equal(t, 200, w.Code)

	// Merge-write: existing fields survive the answers update.
	require.NoError(t, db.Model(&models.User{}).Where("uid = ?", "talker").Update("hydro_points", 33).Error)
	w = doJSON(r, "POST", "/api/activity/interview-answers", gin.H{
		"uid":     "talker",
		"answers": []string{"chai twice a day", "rarely water"},
	})
	require.Equal(t, 200, w.Code)
	var user models.User
	require.NoError(t, db.First(&user, "uid = ?", "talker").Error)
	assert.Equal(t, 33, user.HydroPoints)

	w = doJSON(r, "GET", "/api/activity/health-tips/talker", nil)
	require.Equal(t, 200, w.Code)
	var tips struct {
		Tips []string `json:"tips"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tips))
	assert.Equal(t, []string{"tip one", "tip two", "tip three"}, tips.Tips)
}

func TestHealthTipsUpstreamParseFailure(t *testing.T) {
	db := openTestDB(t)
	ai := &stubAI{
		textFn: func(string, bool, int) (string, error) {
			return "sorry, here are some tips in prose", nil
		},
	}
	r := newTestRouter(t, db, ai, nil, nil)
	require.NoError(t, db.Create(&models.User{UID: "talker", InterviewAnswers: models.StringList{"answer"}}).Error)

	assert.Equal(t, 500, doJSON(r, "GET", "/api/activity/health-tips/talker", nil).Code)
}

func TestHealthAIFinalFlag(t *testing.T) {
	db := openTestDB(t)

	var lastInstruction string
	ai := &stubAI{
		chatFn: func(instruction string, history []utils.ChatTurn) (string, error) {
			lastInstruction = instruction
			return "model reply", nil
		},
	}
	r := newTestRouter(t, db, ai, nil, nil)

	makeHistory := func(userTurns int) []gin.H {
		var history []gin.H
		for i := 0; i < userTurns; i++ {
			history = append(history,
				gin.H{"role": "model", "parts": []gin.H{{"text": "question?"}}},
				gin.H{"role": "user", "parts": []gin.H{{"text": "answer"}}},
			)
		}
		return history
	}

	w := doJSON(r, "POST", "/api/health-ai", gin.H{"history": makeHistory(3)})
	require.Equal(t, 200, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "model reply", body["response"])
	assert.Equal(t, false, body["isFinal"])
	assert.NotContains(t, lastInstruction, "interview is now complete")

	w = doJSON(r, "POST", "/api/health-ai", gin.H{"history": makeHistory(10)})
	require.Equal(t, 200, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, true, body["isFinal"])
	assert.Contains(t, lastInstruction, utils.HealthDisclaimer)
}

func TestQuizMasterStages(t *testing.T) {
	db := openTestDB(t)
	ai := &stubAI{
		textFn: func(prompt string, jsonOutput bool, maxTokens int) (string, error) {
			if jsonOutput {
				return validQuizDocument(), nil
			}
			return "Coconut water has more potassium than most sports drinks.", nil
		},
	}
	r := newTestRouter(t, db, ai, nil, nil)

	assert.Equal(t, 400, doJSON(r, "POST", "/api/quiz-master", gin.H{}).Code)
	assert.Equal(t, 400, doJSON(r, "POST", "/api/quiz-master", gin.H{"stage": "brew_tea"}).Code)

	w := doJSON(r, "POST", "/api/quiz-master", gin.H{"stage": "get_fact_of_the_day"})
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "Coconut water")

	w = doJSON(r, "POST", "/api/quiz-master", gin.H{
		"stage":       "generate_quiz",
		"userAnswers": []string{"chai", "no soda"},
		"difficulty":  "Easy",
	})
	require.Equal(t, 200, w.Code)
	var quiz struct {
		Quiz []struct {
			Answers            []string `json:"answers"`
			CorrectAnswerIndex int      `json:"correctAnswerIndex"`
		} `json:"quiz"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quiz))
	require.Len(t, quiz.Quiz, 8)
	for _, q := range quiz.Quiz {
		assert.Len(t, q.Answers, 4)
		assert.GreaterOrEqual(t, q.CorrectAnswerIndex, 0)
		assert.LessOrEqual(t, q.CorrectAnswerIndex, 3)
	}
}

func TestQuizMasterRejectsMalformedQuiz(t *testing.T) {
	db := openTestDB(t)
	ai := &stubAI{
		textFn: func(string, bool, int) (string, error) {
			return `{"quiz": [{"questionText": "only one", "answers": ["a","b","c","d"], "correctAnswerIndex": 0}]}`, nil
		},
	}
	r := newTestRouter(t, db, ai, nil, nil)

	w := doJSON(r, "POST", "/api/quiz-master", gin.H{"stage": "generate_quiz", "difficulty": "Easy"})
	assert.Equal(t, 500, w.Code)
}

func validQuizDocument() string {
	quiz := make([]map[string]interface{}, 8)
	for i := range quiz {
		quiz[i] = map[string]interface{}{
			"questionText":       fmt.Sprintf("question %d", i),
			"answers":            []string{"a", "b", "c", "d"},
			"correctAnswerIndex": i % 4,
		}
	}
	raw, _ := json.Marshal(map[string]interface{}{"quiz": quiz})
	return string(raw)
}

func TestGenerateImagePipeline(t *testing.T) {
	db := openTestDB(t)

	imageBytes := []byte("fake-jpeg-bytes")
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
		require.NoError(t, req.ParseMultipartForm(1<<20))
		assert.Equal(t, "sd3", req.FormValue("model"))
		assert.Equal(t, "1:1", req.FormValue("aspect_ratio"))
		assert.Equal(t, "jpeg", req.FormValue("output_format"))
		assert.Equal(t, "a glass of water at dawn", req.FormValue("prompt"))
		_ = json.NewEncoder(w).Encode(gin.H{"image": base64.StdEncoding.EncodeToString(imageBytes)})
	}))
	defer upstream.Close()

	images := utils.NewStabilityClient("test-key", upstream.URL)
	blobs := utils.NewDiskBlobStore(t.TempDir(), "http://localhost:3000/static")
	r := newTestRouter(t, db, &stubAI{}, images, blobs)

	w := doJSON(r, "POST", "/api/generate-real-image", gin.H{
		"userPrompt": "a glass of water at dawn",
		"uid":        "painter",
	})
	require.Equal(t, 200, w.Code)
	url, _ := decodeBody(t, w)["imageUrl"].(string)
	assert.True(t, strings.HasPrefix(url, "http://localhost:3000/static/images/painter/"))
	assert.True(t, strings.HasSuffix(url, ".jpeg"))

	// The URL lands in the gallery; the record is created on the fly.
	var user models.User
	require.NoError(t, db.First(&user, "uid = ?", "painter").Error)
	require.Len(t, user.ImageGallery, 1)
	assert.Equal(t, url, user.ImageGallery[0])
}

func TestGenerateImageUpstreamErrorIsVerbatim(t *testing.T) {
	db := openTestDB(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"name":"insufficient_balance"}`))
	}))
	defer upstream.Close()

	images := utils.NewStabilityClient("test-key", upstream.URL)
	blobs := utils.NewDiskBlobStore(t.TempDir(), "http://localhost:3000/static")
	r := newTestRouter(t, db, &stubAI{}, images, blobs)

	w := doJSON(r, "POST", "/api/generate-real-image", gin.H{"userPrompt": "anything"})
	require.Equal(t, 500, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "insufficient_balance")
}

func TestGenerateImageValidation(t *testing.T) {
	db := openTestDB(t)
	blobs := utils.NewDiskBlobStore(t.TempDir(), "http://localhost:3000/static")

	r := newTestRouter(t, db, &stubAI{}, utils.NewStabilityClient("key", "http://127.0.0.1:0"), blobs)
	assert.Equal(t, 400, doJSON(r, "POST", "/api/generate-real-image", gin.H{"uid": "u"}).Code)

	// No API key configured at all.
	r = newTestRouter(t, db, &stubAI{}, utils.NewStabilityClient("", "http://127.0.0.1:0"), blobs)
	w := doJSON(r, "POST", "/api/generate-real-image", gin.H{"userPrompt": "x"})
	require.Equal(t, 500, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "not configured")
}

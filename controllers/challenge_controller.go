package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sipwise/sipwise-server/models"
	"github.com/sipwise/sipwise-server/utils"
)

// ChallengeController serves the static daily challenge and awards its
// points at most once per calendar day per user.
type ChallengeController struct {
	db *gorm.DB
}

var errAlreadyCompleted = errors.New("challenge already completed today")

// NewChallengeController creates a new controller instance.
func NewChallengeController(db *gorm.DB) *ChallengeController {
	return &ChallengeController{db: db}
}

// DailyChallenge handles GET /api/daily-challenge. Selection is a pure
// function of the calendar day, so this never touches the record store.
func (c *ChallengeController) DailyChallenge(ctx *gin.Context) {
	utils.OK(ctx, models.ChallengeForDay(time.Now()))
}

type completeChallengeRequest struct {
	UID string `json:"uid"`
}

// CompleteChallenge handles POST /api/complete-challenge. The award runs as
// a conditional update inside a transaction: the date guard in the UPDATE's
// WHERE clause makes two same-day racers award exactly once.
func (c *ChallengeController) CompleteChallenge(ctx *gin.Context) {
	var req completeChallengeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.UID == "" {
		utils.Fail(ctx, http.StatusBadRequest, "User ID is required.")
		return
	}

	today := time.Now().Format("2006-01-02")
	challenge := models.ChallengeForDay(time.Now())

	var newTotal int
	err := c.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("uid = ?", req.UID).First(&user).Error; err != nil {
			return err
		}
		if user.LastChallengeCompleted == today {
			return errAlreadyCompleted
		}

		res := tx.Model(&models.User{}).
			Where("uid = ? AND (last_challenge_completed IS NULL OR last_challenge_completed <> ?)", req.UID, today).
			Updates(map[string]interface{}{
				"hydro_points":             gorm.Expr("hydro_points + ?", challenge.Points),
				"last_challenge_completed": today,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent completion won the race.
			return errAlreadyCompleted
		}

		newTotal = user.HydroPoints + challenge.Points
		return nil
	})

	switch {
	case err == nil:
		utils.OK(ctx, gin.H{
			"success":       true,
			"pointsAwarded": challenge.Points,
			"newTotal":      newTotal,
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Fail(ctx, http.StatusNotFound, "User not found.")
	case errors.Is(err, errAlreadyCompleted):
		utils.Fail(ctx, http.StatusConflict, "Challenge already completed today.")
	default:
		logError("error completing challenge", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to complete challenge.")
	}
}

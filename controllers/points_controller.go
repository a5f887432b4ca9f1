package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sipwise/sipwise-server/models"
	"github.com/sipwise/sipwise-server/utils"
)

const defaultAvatarURL = "https://i.ibb.co/6yvC0rT/default-avatar.png"

// PointsController exposes the points ledger and the leaderboard.
type PointsController struct {
	db *gorm.DB
}

// NewPointsController creates a new controller instance.
func NewPointsController(db *gorm.DB) *PointsController {
	return &PointsController{db: db}
}

// GetPoints handles GET /api/points/:uid. An unseen uid is created with
// zero points on the spot, so the next read returns the same record.
func (p *PointsController) GetPoints(ctx *gin.Context) {
	uid := ctx.Param("uid")

	var user models.User
	if err := p.db.Where(models.User{UID: uid}).FirstOrCreate(&user).Error; err != nil {
		logError("error fetching points", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to fetch points.")
		return
	}
	utils.OK(ctx, gin.H{"hydroPoints": user.HydroPoints})
}

type setPointsRequest struct {
	UID    string `json:"uid"`
	Points *int   `json:"points"`
}

// SetPoints handles POST /api/points: an unconditional overwrite of the
// point total, last writer wins. Other columns are untouched.
func (p *PointsController) SetPoints(ctx *gin.Context) {
	var req setPointsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.UID == "" || req.Points == nil {
		utils.Fail(ctx, http.StatusBadRequest, "User ID and points are required.")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where(models.User{UID: req.UID}).FirstOrCreate(&user).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("uid = ?", req.UID).
			Update("hydro_points", *req.Points).Error
	})
	if err != nil {
		logError("error updating points", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to update points.")
		return
	}
	utils.OK(ctx, gin.H{"success": true, "newTotal": *req.Points})
}

type leaderboardEntry struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	HydroPoints int    `json:"hydroPoints"`
}

// Leaderboard handles GET /api/leaderboard: top 10 users by points,
// descending, with display fields defaulted when missing.
func (p *PointsController) Leaderboard(ctx *gin.Context) {
	var users []models.User
	if err := p.db.Order("hydro_points DESC").Limit(10).Find(&users).Error; err != nil {
		logError("error fetching leaderboard", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to fetch leaderboard.")
		return
	}

	entries := make([]leaderboardEntry, 0, len(users))
	for _, u := range users {
		entry := leaderboardEntry{
			UID:         u.UID,
			DisplayName: u.DisplayName,
			PhotoURL:    u.PhotoURL,
			HydroPoints: u.HydroPoints,
		}
		if entry.DisplayName == "" {
			entry.DisplayName = "Anonymous"
		}
		if entry.PhotoURL == "" {
			entry.PhotoURL = defaultAvatarURL
		}
		entries = append(entries, entry)
	}
	utils.OK(ctx, entries)
}

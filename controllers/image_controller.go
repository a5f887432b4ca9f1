package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sipwise/sipwise-server/models"
	"github.com/sipwise/sipwise-server/utils"
)

// ImageController turns a text prompt into a stored, publicly reachable
// image: Stability AI generates it, the blob store keeps it, and the URL is
// appended to the user's gallery when a uid was supplied.
type ImageController struct {
	db     *gorm.DB
	images *utils.StabilityClient
	blobs  *utils.DiskBlobStore
}

// NewImageController creates a new controller instance.
func NewImageController(db *gorm.DB, images *utils.StabilityClient, blobs *utils.DiskBlobStore) *ImageController {
	return &ImageController{db: db, images: images, blobs: blobs}
}

type generateImageRequest struct {
	UserPrompt string `json:"userPrompt"`
	UID        string `json:"uid"`
}

// GenerateRealImage handles POST /api/generate-real-image.
func (i *ImageController) GenerateRealImage(ctx *gin.Context) {
	var req generateImageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.UserPrompt == "" {
		utils.Fail(ctx, http.StatusBadRequest, "A text prompt is required.")
		return
	}
	if !i.images.Configured() {
		utils.Fail(ctx, http.StatusInternalServerError, "Stability AI API key not configured.")
		return
	}

	data, err := i.images.GenerateImage(ctx.Request.Context(), req.UserPrompt)
	if err != nil {
		var upstream *utils.UpstreamError
		if errors.As(err, &upstream) {
			logError(fmt.Sprintf("stability AI failed with status %d", upstream.Status), errors.New(upstream.Body))
		} else {
			logError("error in /api/generate-real-image route", err)
		}
		// The image path surfaces the upstream's raw error body verbatim.
		utils.Fail(ctx, http.StatusInternalServerError, err.Error())
		return
	}

	owner := req.UID
	if owner == "" {
		owner = "public"
	}
	blobPath := fmt.Sprintf("images/%s/%s.jpeg", owner, uuid.NewString())
	publicURL, err := i.blobs.Save(blobPath, data)
	if err != nil {
		logError("error in /api/generate-real-image route", err)
		utils.Fail(ctx, http.StatusInternalServerError, err.Error())
		return
	}

	if req.UID != "" {
		// Merge-write: only the gallery column changes, and the record is
		// created when absent. If this fails the blob stays orphaned; there
		// is no cleanup path.
		if err := i.appendToGallery(req.UID, publicURL); err != nil {
			logError("error in /api/generate-real-image route", err)
			utils.Fail(ctx, http.StatusInternalServerError, err.Error())
			return
		}
	}

	utils.OK(ctx, gin.H{"imageUrl": publicURL})
}

func (i *ImageController) appendToGallery(uid, url string) error {
	return i.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where(models.User{UID: uid}).FirstOrCreate(&user).Error; err != nil {
			return err
		}
		gallery := append(user.ImageGallery, url)
		return tx.Model(&models.User{}).Where("uid = ?", uid).
			Update("image_gallery", gallery).Error
	})
}

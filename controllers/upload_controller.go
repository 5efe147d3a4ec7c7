package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repositories"
	"github.com/cppla/aiblog/utils"
)

// UploadController stores head images and attachments for posts.
type UploadController struct {
	uploads repositories.UploadRepository
	storage *utils.Storage
	ttl     time.Duration
	now     func() time.Time
}

func NewUploadController(uploads repositories.UploadRepository, storage *utils.Storage, cfg config.AppConfig) *UploadController {
	return &UploadController{
		uploads: uploads,
		storage: storage,
		ttl:     time.Duration(cfg.UploadOrphanMinutes) * time.Minute,
		now:     time.Now,
	}
}

// Upload handles multipart uploads. ?kind=images normalises the picture; anything else is
// stored as an attachment. The upload expires unless a post references it in time.
func (u *UploadController) Upload(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	kind := models.UploadKind(ctx.DefaultQuery("kind", string(models.UploadFiles)))
	if !kind.Valid() {
		utils.Error(ctx, http.StatusBadRequest, 40031, "kind must be images or files")
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	stored, err := u.storage.Save(string(kind), header.Filename, file, kind == models.UploadImages)
	switch {
	case errors.Is(err, utils.ErrFileTooLarge):
		utils.Error(ctx, http.StatusRequestEntityTooLarge, 41301, "file too large")
		return
	case errors.Is(err, utils.ErrNotAnImage):
		utils.Error(ctx, http.StatusBadRequest, 40033, "file is not a supported image")
		return
	case err != nil:
		_ = ctx.Error(err)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save file")
		return
	}

	expireAt := u.now().Add(u.ttl)
	record := models.UploadedFile{
		Name:     stored.Name,
		Kind:     kind,
		Size:     stored.Size,
		UserID:   userID,
		ExpireAt: &expireAt,
	}
	if err := u.uploads.Record(ctx.Request.Context(), &record); err != nil {
		_ = u.storage.Delete(stored.Name)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to record upload")
		return
	}

	utils.Created(ctx, gin.H{
		"name": stored.Name,
		"url":  u.storage.URL(stored.Name),
		"size": stored.Size,
		"kind": kind,
	})
}

package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/services"
	"github.com/careersfromhere/testimonial-service/internal/utils"
	"github.com/careersfromhere/testimonial-service/internal/validator"
	"github.com/gin-gonic/gin"
)

type VideoHandler struct {
	BaseHandler
	videoService services.VideoService
	validator    *validator.Validator
	uploadDir    string
}

func NewVideoHandler(videoService services.VideoService, validator *validator.Validator, uploadDir string, logger utils.Logger) *VideoHandler {
	return &VideoHandler{
		BaseHandler:  NewBaseHandler(logger),
		videoService: videoService,
		validator:    validator,
		uploadDir:    uploadDir,
	}
}

// CreateVideo starts a new recording session for the caller
// @Summary Create video
// @Tags videos
// @Accept json
// @Produce json
// @Param video body services.CreateVideoRequest true "Video data"
// @Success 201 {object} services.VideoResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /videos [post]
func (h *VideoHandler) CreateVideo(c *gin.Context) {
	h.LogRequest(c, "Creating video")

	var req services.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	video, err := h.videoService.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, video)
}

// ListVideos lists videos visible to the caller
// @Summary List videos
// @Tags videos
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Param approved query bool false "Filter by approval state (admins)"
// @Param categories query string false "Comma-separated category IDs"
// @Success 200 {object} services.VideoListResponse
// @Router /videos [get]
func (h *VideoHandler) ListVideos(c *gin.Context) {
	h.LogRequest(c, "Listing videos")

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	filters := h.parseVideoFilters(c)

	response, err := h.videoService.List(c.Request.Context(), filters, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListPublicVideos lists approved, publicly shared videos without authentication
// @Summary List public videos
// @Tags videos
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.VideoListResponse
// @Router /public/videos [get]
func (h *VideoHandler) ListPublicVideos(c *gin.Context) {
	h.LogRequest(c, "Listing public videos")

	limit, offset := h.parsePagination(c)

	response, err := h.videoService.ListPublic(c.Request.Context(), repositories.VideoFilters{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// UploadThumbnail stores a thumbnail image for a video
// @Summary Upload thumbnail
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Video ID"
// @Param file formData file true "Thumbnail image"
// @Success 200 {object} services.VideoResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /videos/{id}/thumbnail [post]
func (h *VideoHandler) UploadThumbnail(c *gin.Context) {
	videoID := h.parseIDParam(c, "id")
	if videoID == 0 {
		return
	}

	h.LogRequest(c, "Uploading thumbnail", "video_id", videoID)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Thumbnail file is required",
			Details: err.Error(),
		})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.LogError(c, err, "Failed to create upload directory")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to store upload",
		})
		return
	}

	thumbnailPath := filepath.Join(h.uploadDir, randomFilePrefix()+"-"+filepath.Base(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, thumbnailPath); err != nil {
		h.LogError(c, err, "Failed to save thumbnail")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to store upload",
		})
		return
	}

	video, err := h.videoService.SetThumbnail(c.Request.Context(), videoID, thumbnailPath, actorID)
	if err != nil {
		os.Remove(thumbnailPath)
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}

// GetPendingVideos lists videos waiting for approval
// @Summary List pending videos
// @Tags videos
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /videos/pending [get]
func (h *VideoHandler) GetPendingVideos(c *gin.Context) {
	h.LogRequest(c, "Listing pending videos")

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	videos, err := h.videoService.GetPending(c.Request.Context(), actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"videos": videos,
		"total":  len(videos),
	})
}

// GetVideo retrieves a video with its clips and categories
// @Summary Get video by ID
// @Tags videos
// @Produce json
// @Param id path uint true "Video ID"
// @Success 200 {object} services.VideoResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /videos/{id} [get]
func (h *VideoHandler) GetVideo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting video", "video_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	video, err := h.videoService.GetByID(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}

// UpdateVideo edits a video's category labels
// @Summary Update video
// @Tags videos
// @Accept json
// @Produce json
// @Param id path uint true "Video ID"
// @Param video body services.UpdateVideoRequest true "Fields to update"
// @Success 200 {object} services.VideoResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /videos/{id} [put]
func (h *VideoHandler) UpdateVideo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating video", "video_id", id)

	var req services.UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	video, err := h.videoService.Update(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}

// DeleteVideo removes a video and its clips
// @Summary Delete video
// @Tags videos
// @Produce json
// @Param id path uint true "Video ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /videos/{id} [delete]
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting video", "video_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.videoService.Delete(c.Request.Context(), id, actorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Video deleted"})
}

// UploadClip stores an uploaded answer clip pair and records it against a question
// @Summary Upload clip
// @Description Saves the video/audio pair under the upload directory and attaches it to the video
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Video ID"
// @Param video formData file true "Video track"
// @Param audio formData file false "Audio track"
// @Param question_id formData int true "Question being answered"
// @Param duration formData number false "Clip duration in seconds"
// @Success 201 {object} services.ClipResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /videos/{id}/clips [post]
func (h *VideoHandler) UploadClip(c *gin.Context) {
	videoID := h.parseIDParam(c, "id")
	if videoID == 0 {
		return
	}

	h.LogRequest(c, "Uploading clip", "video_id", videoID)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var form validator.ClipUploadRequest
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid clip metadata",
			Details: err.Error(),
		})
		return
	}

	videoFile, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Video file is required",
			Details: err.Error(),
		})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.LogError(c, err, "Failed to create upload directory")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to store upload",
		})
		return
	}

	// A random prefix keeps concurrent uploads of same-named files apart
	prefix := randomFilePrefix()
	videoPath := filepath.Join(h.uploadDir, prefix+"-"+filepath.Base(videoFile.Filename))
	if err := c.SaveUploadedFile(videoFile, videoPath); err != nil {
		h.LogError(c, err, "Failed to save video upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to store upload",
		})
		return
	}

	audioPath := ""
	if audioFile, err := c.FormFile("audio"); err == nil {
		audioPath = filepath.Join(h.uploadDir, prefix+"-"+filepath.Base(audioFile.Filename))
		if err := c.SaveUploadedFile(audioFile, audioPath); err != nil {
			os.Remove(videoPath)
			h.LogError(c, err, "Failed to save audio upload")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Message: "Failed to store upload",
			})
			return
		}
	}

	clip, err := h.videoService.AddClip(c.Request.Context(), videoID, &services.AddClipRequest{
		QuestionID: form.QuestionID,
		VideoPath:  videoPath,
		AudioPath:  audioPath,
		Duration:   form.Duration,
	}, actorID)
	if err != nil {
		// The clip row was not created, so the stored files are orphaned
		os.Remove(videoPath)
		if audioPath != "" {
			os.Remove(audioPath)
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, clip)
}

// ApproveVideo approves a video and queues its clips for enrichment
// @Summary Approve video
// @Description Marks the video approved; merge and publish run asynchronously
// @Tags videos
// @Produce json
// @Param id path uint true "Video ID"
// @Success 200 {object} services.VideoResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /videos/{id}/approve [post]
func (h *VideoHandler) ApproveVideo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Approving video", "video_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	video, err := h.videoService.Approve(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}

// RankVideos orders a school's approved videos by category overlap
// @Summary Rank videos by categories
// @Description Sorts approved videos by the number of selected categories they match
// @Tags videos
// @Produce json
// @Param id path uint true "School ID"
// @Param categories query string false "Comma-separated category IDs"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /schools/{id}/videos/rank [get]
func (h *VideoHandler) RankVideos(c *gin.Context) {
	schoolID := h.parseIDParam(c, "id")
	if schoolID == 0 {
		return
	}

	categoryIDs, err := parseUintList(c.Query("categories"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid categories parameter",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Ranking videos", "school_id", schoolID, "categories", len(categoryIDs))

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	videos, err := h.videoService.RankByCategories(c.Request.Context(), schoolID, categoryIDs, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"videos": videos,
		"total":  len(videos),
	})
}

// ===== HELPER METHODS =====

func (h *VideoHandler) parseVideoFilters(c *gin.Context) repositories.VideoFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.VideoFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if approvedStr := c.Query("approved"); approvedStr != "" {
		approved := approvedStr == "true"
		filters.Approved = &approved
	}

	if userIDStr := c.Query("user_id"); userIDStr != "" {
		if userID, err := strconv.ParseUint(userIDStr, 10, 32); err == nil {
			id := uint(userID)
			filters.UserID = &id
		}
	}

	if ids, err := parseUintList(c.Query("categories")); err == nil {
		filters.CategoryIDs = ids
	}

	return filters
}

func parseUintList(spec string) ([]uint, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func randomFilePrefix() string {
	buf := make([]byte, 6)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

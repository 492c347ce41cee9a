package handler

import (
	"context"
	"net/http"

	"speedrun/backend/internal/auth"
	"speedrun/backend/internal/models"
	"speedrun/backend/internal/service"
	"speedrun/backend/internal/upload"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// RecordInput submits a run. Proof may be a video URL or an uploaded
// "proof" file in a multipart form. CategoryIDs are linked to the new run.
type RecordInput struct {
	GameID      uint   `json:"game_id" form:"game_id" binding:"required,gt=0" example:"1"`
	VersionID   uint   `json:"version_id" form:"version_id" binding:"required,gt=0" example:"1"`
	Time        string `json:"time" form:"time" binding:"required,runtime" example:"01:39:28"`
	VideoURL    string `json:"video_url" form:"video_url" binding:"omitempty,url" example:"https://youtu.be/abc"`
	Notes       string `json:"notes" form:"notes"`
	CategoryIDs []uint `json:"category_ids" form:"category_ids" binding:"omitempty,dive,gt=0"`
}

// UpdateRecordInput changes only the fields that are present. Only admins
// may change the status.
type UpdateRecordInput struct {
	VersionID *uint   `json:"version_id" binding:"omitempty,gt=0"`
	Time      *string `json:"time" binding:"omitempty,runtime"`
	VideoURL  *string `json:"video_url" binding:"omitempty,url"`
	Status    *string `json:"status" binding:"omitempty,oneof=Pending Approved Rejected"`
	Notes     *string `json:"notes"`
}

// endregion

type RecordHandler struct {
	records *service.RecordService
	uploads *upload.Store
}

func NewRecordHandler(records *service.RecordService, uploads *upload.Store) *RecordHandler {
	return &RecordHandler{records: records, uploads: uploads}
}

// List godoc
// @Summary      List records
// @Tags         records
// @Produce      json
// @Param        status  query     string  false  "Pending, Approved or Rejected"
// @Success      200     {array}   RecordResponse
// @Failure      400     {object}  ErrorResponse
// @Router       /records [get]
func (h *RecordHandler) List(c *gin.Context) {
	status, err := optionalStatus(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	rows, err := h.records.List(c.Request.Context(), service.RecordFilter{Status: status})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(rows, newRecordResponse))
}

// Get godoc
// @Summary      Get a record
// @Tags         records
// @Produce      json
// @Param        id   path      int  true  "Record ID"
// @Success      200  {object}  RecordResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /records/{id} [get]
func (h *RecordHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	row, err := h.records.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRecordResponse(row))
}

// Filter godoc
// @Summary      Leaderboard of a game
// @Description  Same as /games/{id}/leaderboard; {id} is the game ID.
// @Tags         records
// @Produce      json
// @Param        id          path   int     true   "Game ID"
// @Param        categoryId  query  int     false  "Category ID"
// @Param        versionId   query  int     false  "Version ID"
// @Param        status      query  string  false  "Pending, Approved or Rejected"
// @Success      200  {array}   RecordResponse
// @Failure      404  {object}  ErrorResponse "No matching records"
// @Router       /records/{id}/filter [get]
func (h *RecordHandler) Filter(c *gin.Context) {
	leaderboard(c, h.records)
}

// Create godoc
// @Summary      Submit a run
// @Description  The run is stored as Pending for the authenticated user.
// @Tags         records
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        input body RecordInput true "Run"
// @Success      201  {object}  RecordResponse
// @Failure      400  {object}  ValidationErrorResponse "Invalid input, unknown or mismatched game/version"
// @Failure      401  {object}  ErrorResponse
// @Router       /records [post]
func (h *RecordHandler) Create(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var input RecordInput
	if err := c.ShouldBind(&input); err != nil {
		respondBindError(c, err)
		return
	}
	timeMs, err := models.ParseRunTime(input.Time)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	saved, ok := saveUpload(c, h.uploads, "proof")
	if !ok {
		return
	}
	if saved != "" {
		input.VideoURL = saved
	}

	row, err := h.records.Create(c.Request.Context(), service.CreateRecordInput{
		UserID:      userID,
		GameID:      input.GameID,
		VersionID:   input.VersionID,
		TimeMs:      timeMs,
		VideoURL:    input.VideoURL,
		Notes:       input.Notes,
		CategoryIDs: input.CategoryIDs,
	})
	if err != nil {
		discardUpload(h.uploads, saved)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecordResponse(row))
}

// Update godoc
// @Summary      Update a record
// @Description  Changes only the supplied fields. Owners may edit their runs; status changes need an admin. An owner's change to time, video or version sends the run back to Pending.
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Record ID"
// @Param        input body      UpdateRecordInput  true  "Fields to change"
// @Success      200   {object}  RecordResponse
// @Failure      400   {object}  ValidationErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /records/{id} [put]
func (h *RecordHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input UpdateRecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	current, err := h.records.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !auth.SelfOrAdmin(c, current.UserID) || (input.Status != nil && !auth.IsAdmin(c)) {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "not allowed to change this record"})
		return
	}

	patch := service.RecordPatch{
		VersionID: input.VersionID,
		VideoURL:  input.VideoURL,
		Notes:     input.Notes,
	}
	if input.Time != nil {
		ms, err := models.ParseRunTime(*input.Time)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
			return
		}
		patch.TimeMs = &ms
	}
	if input.Status != nil {
		st := models.RecordStatus(*input.Status)
		patch.Status = &st
	} else if !auth.IsAdmin(c) && (patch.VersionID != nil || patch.TimeMs != nil || patch.VideoURL != nil) {
		// an approved run edited by its owner needs another review
		pending := models.StatusPending
		patch.Status = &pending
	}

	affected, err := h.records.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "record")
		return
	}
	h.Get(c)
}

// Approve godoc
// @Summary      Approve a record
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Record ID"
// @Success      200  {object}  RecordResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse
// @Router       /records/{id}/approve [post]
func (h *RecordHandler) Approve(c *gin.Context) {
	h.moderate(c, h.records.Approve)
}

// Reject godoc
// @Summary      Reject a record
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Record ID"
// @Success      200  {object}  RecordResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse
// @Router       /records/{id}/reject [post]
func (h *RecordHandler) Reject(c *gin.Context) {
	h.moderate(c, h.records.Reject)
}

func (h *RecordHandler) moderate(c *gin.Context, action func(ctx context.Context, id uint) (models.RecordView, error)) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	row, err := action(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRecordResponse(row))
}

// Delete godoc
// @Summary      Delete a record
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Record ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /records/{id} [delete]
func (h *RecordHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	current, err := h.records.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !auth.SelfOrAdmin(c, current.UserID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "not allowed to delete this record"})
		return
	}
	affected, err := h.records.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "record")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "record deleted"})
}

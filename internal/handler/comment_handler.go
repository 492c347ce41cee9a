package handler

import (
	"net/http"

	"speedrun/backend/internal/auth"
	"speedrun/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// CommentInput posts a comment on a record as the authenticated user.
type CommentInput struct {
	RecordID uint   `json:"record_id" binding:"required,gt=0" example:"1"`
	Comment  string `json:"comment" binding:"required,max=2000" example:"gg"`
}

// UpdateCommentInput replaces the text of a comment.
type UpdateCommentInput struct {
	Comment *string `json:"comment" binding:"omitempty,min=1,max=2000"`
}

type CommentHandler struct {
	comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// List godoc
// @Summary      List comments
// @Tags         comments
// @Produce      json
// @Success      200  {array}   CommentResponse
// @Router       /comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.comments.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(comments, newCommentResponse))
}

// Get godoc
// @Summary      Get a comment
// @Tags         comments
// @Produce      json
// @Param        id   path      int  true  "Comment ID"
// @Success      200  {object}  CommentResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /comments/{id} [get]
func (h *CommentHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	comment, err := h.comments.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(comment))
}

// ListByRecord godoc
// @Summary      Comments on a record
// @Tags         comments
// @Produce      json
// @Param        id   path      int  true  "Record ID"
// @Success      200  {array}   CommentResponse
// @Failure      404  {object}  ErrorResponse "No comments"
// @Router       /comments/records/{id} [get]
func (h *CommentHandler) ListByRecord(c *gin.Context) {
	recordID, ok := idParam(c, "id")
	if !ok {
		return
	}
	comments, err := h.comments.ListByRecord(c.Request.Context(), recordID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(comments, newCommentResponse))
}

// ListByUser godoc
// @Summary      Comments by a user
// @Tags         comments
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {array}   CommentResponse
// @Failure      404  {object}  ErrorResponse "No comments"
// @Router       /comments/users/{id} [get]
func (h *CommentHandler) ListByUser(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	comments, err := h.comments.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(comments, newCommentResponse))
}

// Create godoc
// @Summary      Comment on a record
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CommentInput true "Comment"
// @Success      201  {object}  CommentResponse
// @Failure      400  {object}  ErrorResponse "Invalid input or unknown record"
// @Failure      401  {object}  ErrorResponse
// @Router       /comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	userID, _ := auth.UserID(c)
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), service.CommentInput{
		RecordID: input.RecordID,
		UserID:   userID,
		Text:     input.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCommentResponse(comment))
}

// Update godoc
// @Summary      Edit a comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                 true  "Comment ID"
// @Param        input body      UpdateCommentInput  true  "New text"
// @Success      200   {object}  CommentResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /comments/{id} [put]
func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input UpdateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	if !h.authorOrAdmin(c, id) {
		return
	}
	affected, err := h.comments.Update(c.Request.Context(), id, input.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "comment")
		return
	}
	h.Get(c)
}

// Delete godoc
// @Summary      Delete a comment
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Comment ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !h.authorOrAdmin(c, id) {
		return
	}
	affected, err := h.comments.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "comment")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "comment deleted"})
}

func (h *CommentHandler) authorOrAdmin(c *gin.Context, id uint) bool {
	comment, err := h.comments.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !auth.SelfOrAdmin(c, comment.UserID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "only the author may change this comment"})
		return false
	}
	return true
}

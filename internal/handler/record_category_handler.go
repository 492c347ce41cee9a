package handler

import (
	"net/http"

	"speedrun/backend/internal/auth"
	"speedrun/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// RecordCategoryInput links a record to a category of the same game.
type RecordCategoryInput struct {
	RecordID   uint `json:"record_id" binding:"required,gt=0" example:"1"`
	CategoryID uint `json:"category_id" binding:"required,gt=0" example:"1"`
}

// UpdateRecordCategoryInput moves a link to another category.
type UpdateRecordCategoryInput struct {
	CategoryID uint `json:"category_id" binding:"required,gt=0" example:"2"`
}

type RecordCategoryHandler struct {
	links   *service.RecordCategoryService
	records *service.RecordService
}

func NewRecordCategoryHandler(links *service.RecordCategoryService, records *service.RecordService) *RecordCategoryHandler {
	return &RecordCategoryHandler{links: links, records: records}
}

// ownsRecord answers 403 or the lookup error unless the caller owns the record or is an admin.
func (h *RecordCategoryHandler) ownsRecord(c *gin.Context, recordID uint) bool {
	record, err := h.records.Get(c.Request.Context(), recordID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !auth.SelfOrAdmin(c, record.UserID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "not allowed to change this record"})
		return false
	}
	return true
}

// List godoc
// @Summary      List record-category links
// @Tags         recordcategories
// @Produce      json
// @Success      200  {array}   models.RecordCategoryView
// @Router       /recordcategories [get]
func (h *RecordCategoryHandler) List(c *gin.Context) {
	links, err := h.links.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// Get godoc
// @Summary      Get a record-category link
// @Tags         recordcategories
// @Produce      json
// @Param        id   path      int  true  "Link ID"
// @Success      200  {object}  models.RecordCategoryView
// @Failure      404  {object}  ErrorResponse
// @Router       /recordcategories/{id} [get]
func (h *RecordCategoryHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	link, err := h.links.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// Create godoc
// @Summary      Put a record in a category
// @Description  The category must belong to the record's game.
// @Tags         recordcategories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RecordCategoryInput true "Link"
// @Success      201  {object}  models.RecordCategoryView
// @Failure      400  {object}  ErrorResponse "Unknown record/category or different games"
// @Failure      409  {object}  ErrorResponse "Link already exists"
// @Router       /recordcategories [post]
func (h *RecordCategoryHandler) Create(c *gin.Context) {
	var input RecordCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	if !h.ownsRecord(c, input.RecordID) {
		return
	}
	link, err := h.links.Create(c.Request.Context(), service.RecordCategoryInput{
		RecordID:   input.RecordID,
		CategoryID: input.CategoryID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

// Update godoc
// @Summary      Move a record to another category
// @Tags         recordcategories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                        true  "Link ID"
// @Param        input body      UpdateRecordCategoryInput  true  "New category"
// @Success      200   {object}  models.RecordCategoryView
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /recordcategories/{id} [put]
func (h *RecordCategoryHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input UpdateRecordCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	link, err := h.links.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.ownsRecord(c, link.RecordID) {
		return
	}
	affected, err := h.links.Update(c.Request.Context(), id, input.CategoryID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "record category")
		return
	}
	h.Get(c)
}

// Delete godoc
// @Summary      Remove a record from a category
// @Tags         recordcategories
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Link ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /recordcategories/{id} [delete]
func (h *RecordCategoryHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	link, err := h.links.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.ownsRecord(c, link.RecordID) {
		return
	}
	affected, err := h.links.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "record category")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "record category deleted"})
}

package handler

import (
	"net/http"

	"speedrun/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// CategoryInput defines a new category.
type CategoryInput struct {
	GameID      uint   `json:"game_id" binding:"required,gt=0" example:"1"`
	Name        string `json:"name" binding:"required,max=255" example:"Any%"`
	Description string `json:"description" example:"Beat the game as fast as possible"`
}

// UpdateCategoryInput changes only the fields that are present.
type UpdateCategoryInput struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

type CategoryHandler struct {
	categories *service.CategoryService
}

func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// List godoc
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Success      200  {array}   CategoryResponse
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(categories, newCategoryResponse))
}

// Get godoc
// @Summary      Get a category
// @Tags         categories
// @Produce      json
// @Param        id   path      int  true  "Category ID"
// @Success      200  {object}  CategoryResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	category, err := h.categories.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(category))
}

// ListByGame godoc
// @Summary      List categories of a game
// @Tags         categories
// @Produce      json
// @Param        id   path      int  true  "Game ID"
// @Success      200  {array}   CategoryResponse
// @Failure      404  {object}  ErrorResponse "Game has no categories"
// @Router       /categories/games/{id} [get]
func (h *CategoryHandler) ListByGame(c *gin.Context) {
	gameID, ok := idParam(c, "id")
	if !ok {
		return
	}
	categories, err := h.categories.ListByGame(c.Request.Context(), gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(categories, newCategoryResponse))
}

// Create godoc
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CategoryInput true "Category Info"
// @Success      201  {object}  CategoryResponse
// @Failure      400  {object}  ErrorResponse "Invalid input or unknown game"
// @Router       /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	category, err := h.categories.Create(c.Request.Context(), service.CategoryInput{
		GameID:      input.GameID,
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCategoryResponse(category))
}

// Update godoc
// @Summary      Update a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Category ID"
// @Param        input body      UpdateCategoryInput  true  "Fields to change"
// @Success      200   {object}  CategoryResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input UpdateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	affected, err := h.categories.Update(c.Request.Context(), id, service.CategoryPatch{
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "category")
		return
	}
	h.Get(c)
}

// Delete godoc
// @Summary      Delete a category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Category ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	affected, err := h.categories.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "category")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "category deleted"})
}

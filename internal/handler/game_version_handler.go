package handler

import (
	"net/http"

	"speedrun/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// GameVersionInput defines a new version.
type GameVersionInput struct {
	GameID uint   `json:"game_id" binding:"required,gt=0" example:"1"`
	Name   string `json:"name" binding:"required,max=255" example:"N64 JP"`
}

// UpdateGameVersionInput changes only the fields that are present.
type UpdateGameVersionInput struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=255"`
}

type GameVersionHandler struct {
	versions *service.GameVersionService
}

func NewGameVersionHandler(versions *service.GameVersionService) *GameVersionHandler {
	return &GameVersionHandler{versions: versions}
}

// List godoc
// @Summary      List game versions
// @Tags         gameversions
// @Produce      json
// @Success      200  {array}   GameVersionResponse
// @Router       /gameversions [get]
func (h *GameVersionHandler) List(c *gin.Context) {
	versions, err := h.versions.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(versions, newGameVersionResponse))
}

// Get godoc
// @Summary      Get a game version
// @Tags         gameversions
// @Produce      json
// @Param        id   path      int  true  "Version ID"
// @Success      200  {object}  GameVersionResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /gameversions/{id} [get]
func (h *GameVersionHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	version, err := h.versions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameVersionResponse(version))
}

// ListByGame godoc
// @Summary      List versions of a game
// @Tags         gameversions
// @Produce      json
// @Param        id   path      int  true  "Game ID"
// @Success      200  {array}   GameVersionResponse
// @Failure      404  {object}  ErrorResponse "Game has no versions"
// @Router       /gameversions/games/{id} [get]
func (h *GameVersionHandler) ListByGame(c *gin.Context) {
	gameID, ok := idParam(c, "id")
	if !ok {
		return
	}
	versions, err := h.versions.ListByGame(c.Request.Context(), gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(versions, newGameVersionResponse))
}

// Create godoc
// @Summary      Create a game version
// @Tags         gameversions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GameVersionInput true "Version Info"
// @Success      201  {object}  GameVersionResponse
// @Failure      400  {object}  ErrorResponse "Invalid input or unknown game"
// @Router       /gameversions [post]
func (h *GameVersionHandler) Create(c *gin.Context) {
	var input GameVersionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	version, err := h.versions.Create(c.Request.Context(), service.GameVersionInput{GameID: input.GameID, Name: input.Name})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newGameVersionResponse(version))
}

// Update godoc
// @Summary      Rename a game version
// @Tags         gameversions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                     true  "Version ID"
// @Param        input body      UpdateGameVersionInput  true  "Fields to change"
// @Success      200   {object}  GameVersionResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /gameversions/{id} [put]
func (h *GameVersionHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input UpdateGameVersionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	affected, err := h.versions.Update(c.Request.Context(), id, service.GameVersionPatch{Name: input.Name})
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "game version")
		return
	}
	h.Get(c)
}

// Delete godoc
// @Summary      Delete a game version
// @Description  Also deletes every record timed on this version.
// @Tags         gameversions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Version ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /gameversions/{id} [delete]
func (h *GameVersionHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	affected, err := h.versions.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "game version")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "game version deleted"})
}

package handler

import (
	"io"
	"net/http"
	"time"

	"speedrun/backend/internal/hub"
	"speedrun/backend/internal/models"
	"speedrun/backend/internal/service"
	"speedrun/backend/internal/upload"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// GameInput defines a new game.
type GameInput struct {
	Name        string `json:"name" form:"name" binding:"required,max=255" example:"Super Mario 64"`
	Icon        string `json:"icon" form:"icon"`
	ReleaseDate string `json:"release_date" form:"release_date" binding:"omitempty,releasedate" example:"1996-06-23"`
	Rules       string `json:"rules" form:"rules"`
	Developer   string `json:"developer" form:"developer" example:"Nintendo"`
}

// UpdateGameInput changes only the fields that are present.
type UpdateGameInput struct {
	Name        *string `json:"name" form:"name" binding:"omitempty,min=1,max=255"`
	Icon        *string `json:"icon" form:"icon"`
	ReleaseDate *string `json:"release_date" form:"release_date" binding:"omitempty,releasedate"`
	Rules       *string `json:"rules" form:"rules"`
	Developer   *string `json:"developer" form:"developer"`
}

// endregion

const sseKeepAlive = 25 * time.Second

type GameHandler struct {
	games   *service.GameService
	records *service.RecordService
	events  *hub.Hub
	uploads *upload.Store
}

func NewGameHandler(games *service.GameService, records *service.RecordService, events *hub.Hub, uploads *upload.Store) *GameHandler {
	return &GameHandler{games: games, records: records, events: events, uploads: uploads}
}

func parseReleaseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := models.ParseReleaseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List godoc
// @Summary      List games
// @Tags         games
// @Produce      json
// @Success      200  {array}   GameResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /games [get]
func (h *GameHandler) List(c *gin.Context) {
	games, err := h.games.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(games, newGameResponse))
}

// Search godoc
// @Summary      Search games by name
// @Tags         games
// @Produce      json
// @Param        q    query     string  true  "Search term"
// @Success      200  {array}   GameResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "No game matches"
// @Router       /games/search [get]
func (h *GameHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "query parameter q is required"})
		return
	}
	games, err := h.games.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(games, newGameResponse))
}

// Get godoc
// @Summary      Get a game by ID
// @Tags         games
// @Produce      json
// @Param        id   path      int  true  "Game ID"
// @Success      200  {object}  GameResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /games/{id} [get]
func (h *GameHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	game, err := h.games.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameResponse(game))
}

// Create godoc
// @Summary      Create a new game
// @Description  Accepts JSON, or a multipart form with an icon image.
// @Tags         games
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        input body GameInput true "Game Info"
// @Success      201  {object}  GameResponse
// @Failure      400  {object}  ValidationErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /games [post]
func (h *GameHandler) Create(c *gin.Context) {
	var input GameInput
	if err := c.ShouldBind(&input); err != nil {
		respondBindError(c, err)
		return
	}
	released, err := parseReleaseDate(input.ReleaseDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	saved, ok := saveUpload(c, h.uploads, "icon")
	if !ok {
		return
	}
	if saved != "" {
		input.Icon = saved
	}

	game, err := h.games.Create(c.Request.Context(), service.GameInput{
		Name:        input.Name,
		Icon:        input.Icon,
		ReleaseDate: released,
		Rules:       input.Rules,
		Developer:   input.Developer,
	})
	if err != nil {
		discardUpload(h.uploads, saved)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newGameResponse(game))
}

// Update godoc
// @Summary      Update a game
// @Description  Changes only the supplied fields. Renaming regenerates the slug.
// @Tags         games
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int              true  "Game ID"
// @Param        input body      UpdateGameInput  true  "Fields to change"
// @Success      200   {object}  GameResponse
// @Failure      400   {object}  ValidationErrorResponse
// @Failure      403   {object}  ErrorResponse "Admin access required"
// @Failure      404   {object}  ErrorResponse "Game not found"
// @Router       /games/{id} [put]
func (h *GameHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input UpdateGameInput
	if err := c.ShouldBind(&input); err != nil {
		respondBindError(c, err)
		return
	}
	patch := service.GamePatch{
		Name:      input.Name,
		Icon:      input.Icon,
		Rules:     input.Rules,
		Developer: input.Developer,
	}
	if input.ReleaseDate != nil {
		released, err := parseReleaseDate(*input.ReleaseDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
			return
		}
		patch.ReleaseDate = released
	}
	saved, ok := saveUpload(c, h.uploads, "icon")
	if !ok {
		return
	}
	if saved != "" {
		patch.Icon = &saved
	}

	affected, err := h.games.Update(c.Request.Context(), id, patch)
	if err != nil || !affected {
		discardUpload(h.uploads, saved)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "game")
		return
	}
	h.Get(c)
}

// Delete godoc
// @Summary      Delete a game
// @Description  Deletes a game with its versions, categories and records.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /games/{id} [delete]
func (h *GameHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	affected, err := h.games.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "game")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "game deleted"})
}

// Leaderboard godoc
// @Summary      Game leaderboard
// @Description  Records of a game ranked by time, optionally narrowed by category, version and status.
// @Tags         games
// @Produce      json
// @Param        id          path   int     true   "Game ID"
// @Param        categoryId  query  int     false  "Category ID"
// @Param        versionId   query  int     false  "Version ID"
// @Param        status      query  string  false  "Pending, Approved or Rejected"
// @Success      200  {array}   RecordResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "No matching records"
// @Router       /games/{id}/leaderboard [get]
func (h *GameHandler) Leaderboard(c *gin.Context) {
	leaderboard(c, h.records)
}

// leaderboard serves both the game route and the legacy /records/:id/filter route.
func leaderboard(c *gin.Context, records *service.RecordService) {
	gameID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var filter service.LeaderboardFilter
	var err error
	if filter.CategoryID, err = optionalID(c, "categoryId"); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	if filter.VersionID, err = optionalID(c, "versionId"); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	if filter.Status, err = optionalStatus(c); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	rows, err := records.Leaderboard(c.Request.Context(), gameID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(rows, newRecordResponse))
}

// Events godoc
// @Summary      Stream record events
// @Description  Server-sent events for records of a game being submitted, edited, moderated or deleted.
// @Tags         games
// @Produce      text/event-stream
// @Param        id   path  int  true  "Game ID"
// @Success      200
// @Failure      404  {object}  ErrorResponse
// @Router       /games/{id}/events [get]
func (h *GameHandler) Events(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.games.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	client := h.events.Subscribe(id)
	defer h.events.Unsubscribe(id, client)

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, open := <-client:
			if !open {
				return false
			}
			c.SSEvent("record", string(msg))
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", "")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

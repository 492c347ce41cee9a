package handler

import (
	"net/http"

	"speedrun/backend/internal/auth"
	"speedrun/backend/internal/service"
	"speedrun/backend/internal/upload"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// CreateUserInput is accepted by the admin user-creation endpoint.
type CreateUserInput struct {
	Username       string `json:"username" form:"username" binding:"required,min=3,max=50" example:"runner"`
	Email          string `json:"email" form:"email" binding:"required,email" example:"runner@example.com"`
	Password       string `json:"password" form:"password" binding:"required,min=8" example:"password123"`
	Role           string `json:"role" form:"role" binding:"omitempty,oneof=user admin" example:"user"`
	ProfilePicture string `json:"profile_picture" form:"profile_picture"`
	Bio            string `json:"bio" form:"bio"`
}

// UpdateUserInput changes only the fields that are present.
type UpdateUserInput struct {
	Username       *string `json:"username" form:"username" binding:"omitempty,min=3,max=50"`
	Email          *string `json:"email" form:"email" binding:"omitempty,email"`
	Password       *string `json:"password" form:"password" binding:"omitempty,min=8"`
	ProfilePicture *string `json:"profile_picture" form:"profile_picture"`
	Bio            *string `json:"bio" form:"bio"`
}

// endregion

type UserHandler struct {
	users   *service.UserService
	uploads *upload.Store
}

func NewUserHandler(users *service.UserService, uploads *upload.Store) *UserHandler {
	return &UserHandler{users: users, uploads: uploads}
}

// List godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {array}   UserResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(users, newUserResponse))
}

// Search godoc
// @Summary      Search users by username
// @Description  Case-insensitive substring match on the username.
// @Tags         users
// @Produce      json
// @Param        q    query     string  true  "Search term"
// @Success      200  {array}   UserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "No user matches"
// @Router       /users/search [get]
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "query parameter q is required"})
		return
	}
	users, err := h.users.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(users, newUserResponse))
}

// Get godoc
// @Summary      Get a user by ID
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  UserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// Create godoc
// @Summary      Create a user
// @Description  Admins may create accounts with any role.
// @Tags         users
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateUserInput true "User Info"
// @Success      201  {object}  UserResponse
// @Failure      400  {object}  ValidationErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      409  {object}  ErrorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBind(&input); err != nil {
		respondBindError(c, err)
		return
	}
	saved, ok := saveUpload(c, h.uploads, "profile_picture")
	if !ok {
		return
	}
	if saved != "" {
		input.ProfilePicture = saved
	}

	user, err := h.users.Create(c.Request.Context(), service.UserInput{
		Username:       input.Username,
		Email:          input.Email,
		Password:       input.Password,
		Role:           input.Role,
		ProfilePicture: input.ProfilePicture,
		Bio:            input.Bio,
	})
	if err != nil {
		discardUpload(h.uploads, saved)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(user))
}

// Update godoc
// @Summary      Update a user
// @Description  Changes only the supplied fields. Users may edit themselves; admins anyone.
// @Tags         users
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int              true  "User ID"
// @Param        input body      UpdateUserInput  true  "Fields to change"
// @Success      200   {object}  UserResponse
// @Failure      400   {object}  ValidationErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !auth.SelfOrAdmin(c, id) {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "you may only edit your own profile"})
		return
	}

	var input UpdateUserInput
	if err := c.ShouldBind(&input); err != nil {
		respondBindError(c, err)
		return
	}
	saved, ok := saveUpload(c, h.uploads, "profile_picture")
	if !ok {
		return
	}
	if saved != "" {
		input.ProfilePicture = &saved
	}

	affected, err := h.users.Update(c.Request.Context(), id, service.UserPatch{
		Username:       input.Username,
		Email:          input.Email,
		Password:       input.Password,
		ProfilePicture: input.ProfilePicture,
		Bio:            input.Bio,
	})
	if err != nil || !affected {
		discardUpload(h.uploads, saved)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "user")
		return
	}
	h.Get(c)
}

// Delete godoc
// @Summary      Delete a user
// @Description  Removes the account with its records and comments.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !auth.SelfOrAdmin(c, id) {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "you may only delete your own account"})
		return
	}
	affected, err := h.users.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !affected {
		respondMissing(c, "user")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/auth"
	"github.com/heritago/backend/internal/database"
	"github.com/heritago/backend/internal/models"
)

// CreateUser handles POST /users. Registration is open to anonymous callers.
func (h *Handler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(c, "failed to hash password", err)
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	})
	if err != nil {
		h.userWriteError(c, err, "failed to create user")
		return
	}

	h.logger.Info("Registered user", zap.String("id", user.ID), zap.String("username", user.Username))
	c.JSON(http.StatusCreated, user)
}

// GetMe handles GET /users/me.
func (h *Handler) GetMe(c *gin.Context) {
	h.getUser(c, auth.IdentityFrom(c).UserID)
}

// ReplaceMe handles PUT /users/me.
func (h *Handler) ReplaceMe(c *gin.Context) {
	h.replaceUser(c, auth.IdentityFrom(c).UserID)
}

// UpdateMe handles PATCH /users/me.
func (h *Handler) UpdateMe(c *gin.Context) {
	h.updateUser(c, auth.IdentityFrom(c).UserID)
}

// GetUser handles GET /users/:user_id. Callers may only read their own record.
func (h *Handler) GetUser(c *gin.Context) {
	if id, ok := selfOnly(c); ok {
		h.getUser(c, id)
	}
}

// ReplaceUser handles PUT /users/:user_id.
func (h *Handler) ReplaceUser(c *gin.Context) {
	if id, ok := selfOnly(c); ok {
		h.replaceUser(c, id)
	}
}

// UpdateUser handles PATCH /users/:user_id.
func (h *Handler) UpdateUser(c *gin.Context) {
	if id, ok := selfOnly(c); ok {
		h.updateUser(c, id)
	}
}

// IssueToken handles POST /auth/token.
func (h *Handler) IssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	user, err := h.users.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.internalError(c, "failed to get user", err)
		return
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "not_authenticated",
			Message: "invalid username or password",
		})
		return
	}

	token, expiresAt, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		h.internalError(c, "failed to issue token", err)
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{Token: token, ExpiresAt: expiresAt})
}

// selfOnly resolves :user_id and writes 403 unless it names the caller.
func selfOnly(c *gin.Context) (string, bool) {
	id := c.Param("user_id")
	if !auth.IsSelf(auth.IdentityFrom(c), id) {
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error:   "permission_denied",
			Message: "you do not have permission to perform this action",
		})
		return "", false
	}
	return id, true
}

func (h *Handler) getUser(c *gin.Context, id string) {
	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, "user not found", "failed to get user")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) replaceUser(c *gin.Context, id string) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	h.saveUser(c, id, req.Replacement())
}

func (h *Handler) updateUser(c *gin.Context, id string) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	h.saveUser(c, id, &req)
}

func (h *Handler) saveUser(c *gin.Context, id string, req *models.UpdateUserRequest) {
	ctx := c.Request.Context()

	user, err := h.users.GetUser(ctx, id)
	if err != nil {
		h.storeError(c, err, "user not found", "failed to get user")
		return
	}

	req.Apply(user)
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			h.internalError(c, "failed to hash password", err)
			return
		}
		user.PasswordHash = hash
	}

	updated, err := h.users.UpdateUser(ctx, user)
	if err != nil {
		h.userWriteError(c, err, "failed to update user")
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *Handler) userWriteError(c *gin.Context, err error, message string) {
	if errors.Is(err, database.ErrConflict) {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "conflict",
			Message: "username is already taken",
		})
		return
	}
	h.storeError(c, err, "user not found", message)
}

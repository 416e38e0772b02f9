package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/pkg/log"
	"github.com/weiawesome/duochat/pkg/response"
)

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind register request")
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Register(ctx, &req)
	if err != nil {
		handleError(c, err, "failed to register user")
		return
	}

	response.Created(c, user)
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.userService.Login(ctx, &req)
	if err != nil {
		handleError(c, err, "failed to login")
		return
	}

	response.Success(c, resp)
}

// ListUsers lists every registered username.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		handleError(c, err, "failed to list users")
		return
	}
	response.Success(c, users)
}

// CheckUser reports whether a username is registered.
func (h *Handler) CheckUser(c *gin.Context) {
	exists, err := h.userService.Exists(c.Request.Context(), c.Param("username"))
	if err != nil {
		handleError(c, err, "failed to check user")
		return
	}
	response.Success(c, gin.H{"exists": exists})
}

// GetProfile returns the caller's profile.
func (h *Handler) GetProfile(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), username)
	if err != nil {
		handleError(c, err, "failed to get profile")
		return
	}
	response.Success(c, user)
}

// UpdateProfile updates bio and avatar. It accepts a multipart form with
// optional "bio" and "avatar" fields, or a JSON body with "bio".
func (h *Handler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()

	username, ok := currentUser(c)
	if !ok {
		return
	}

	update := &domain.ProfileUpdate{}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		limitBody(c, h.maxUploadBytes)

		if bio, ok := c.GetPostForm("bio"); ok {
			update.Bio = &bio
		}
		upload, closeFn, err := formFile(c, "avatar")
		if err != nil && !isMissingFile(err) {
			writeFormError(c, err)
			return
		}
		if upload != nil {
			defer closeFn()
			update.Avatar = upload
		}
	} else {
		var body struct {
			Bio *string `json:"bio"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		update.Bio = body.Bio
	}

	user, err := h.userService.UpdateProfile(ctx, username, update)
	if err != nil {
		handleError(c, err, "failed to update profile")
		return
	}
	response.Success(c, user)
}

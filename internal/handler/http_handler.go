package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/internal/service"
	"github.com/weiawesome/duochat/pkg/log"
	"github.com/weiawesome/duochat/pkg/middleware"
	"github.com/weiawesome/duochat/pkg/response"
	"github.com/weiawesome/duochat/pkg/storage"
)

// Handler handles the REST API.
type Handler struct {
	userService    service.UserService
	messageService service.MessageService
	groupService   service.GroupService
	uploadService  service.UploadService
	files          storage.Storage
	authMiddleware *middleware.AuthMiddleware
	maxUploadBytes int64
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	userService service.UserService,
	messageService service.MessageService,
	groupService service.GroupService,
	uploadService service.UploadService,
	files storage.Storage,
	authMiddleware *middleware.AuthMiddleware,
	maxUploadBytes int64,
) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = service.DefaultMaxUploadSize
	}
	return &Handler{
		userService:    userService,
		messageService: messageService,
		groupService:   groupService,
		uploadService:  uploadService,
		files:          files,
		authMiddleware: authMiddleware,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/uploads/*key", h.ServeUpload)

	api := r.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/users", h.Register)
		api.POST("/login", h.Login)

		auth := api.Group("", h.authMiddleware.RequireAuth())
		{
			auth.GET("/users", h.ListUsers)
			auth.GET("/check-user/:username", h.CheckUser)
			auth.GET("/user/profile", h.GetProfile)
			auth.PUT("/user/profile", h.UpdateProfile)

			auth.GET("/messages/:username", h.History)
			auth.POST("/messages/send", h.SendDirect)
			auth.POST("/messages/send-group", h.SendGroup)
			auth.DELETE("/messages/:id", h.DeleteMessage)

			auth.GET("/groups", h.ListGroups)
			auth.POST("/groups", h.CreateGroup)
			auth.GET("/groups/:id/messages", h.GroupHistory)
			auth.POST("/groups/:id/add-members", h.AddMembers)

			auth.POST("/upload", h.Upload)
		}
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleError writes the response for a service error. Unexpected errors
// are logged and reported as internal with the given message.
func handleError(c *gin.Context, err error, internalMsg string) {
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		response.TooLarge(c, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		response.Error(c, http.StatusBadRequest, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(c, err.Error())
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg(internalMsg)
		response.InternalError(c, internalMsg)
	}
}

// currentUser returns the authenticated username, writing 401 if absent.
func currentUser(c *gin.Context) (string, bool) {
	username := middleware.GetUsername(c)
	if username == "" {
		response.Unauthorized(c, "unauthorized")
		return "", false
	}
	return username, true
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/duochat/internal/config"
	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/internal/hub"
	"github.com/weiawesome/duochat/internal/service"
	"github.com/weiawesome/duochat/pkg/log"
	"github.com/weiawesome/duochat/pkg/middleware"
	"github.com/weiawesome/duochat/pkg/response"
)

// WSHandler upgrades authenticated requests to live connections.
type WSHandler struct {
	hub            *hub.Hub
	service        service.ChatService
	authMiddleware *middleware.AuthMiddleware
	wsCfg          config.WebSocketConfig
	upgrader       websocket.Upgrader
}

func NewWSHandler(
	h *hub.Hub,
	svc service.ChatService,
	authMiddleware *middleware.AuthMiddleware,
	wsCfg config.WebSocketConfig,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		hub:            h,
		service:        svc,
		authMiddleware: authMiddleware,
		wsCfg:          wsCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.authMiddleware.RequireAuthOrQuery(), h.HandleWebSocket)
}

// HandleWebSocket binds the token's identity to a new connection and
// registers it with the hub before any event is read.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	// the connection outlives the request; keep its logger but not its cancellation
	ctx := context.WithoutCancel(c.Request.Context())
	l := log.Ctx(ctx)

	userID := middleware.GetUserID(c)
	username := middleware.GetUsername(c)
	if username == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	connID := uuid.New().String()
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	session := domain.NewSession(connID)
	session.Authenticate(userID, username)

	client := hub.NewClient(connID, h.hub, conn, session, h.wsCfg)
	ctx = connContext(ctx, connID)

	if err := h.service.HandleConnect(ctx, client); err != nil {
		l.Warn().Err(err).Msg("failed to register connection")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go func() {
		client.ReadPump(func(client *hub.Client, message []byte) {
			h.handleMessage(ctx, client, message)
		})
		h.service.HandleDisconnect(ctx, client)
	}()
}

// connContext tags the connection's logger with its id. The username is
// left to the entries that name it, such as audit records.
func connContext(ctx context.Context, connID string) context.Context {
	l := log.Ctx(ctx)
	return log.WithLogger(ctx, l.With().Str(log.FieldConnID, connID).Logger())
}

func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	l := log.Ctx(ctx)

	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid message format"))
		return
	}

	l.Debug().Str(log.FieldEvent, base.Type).Msg("websocket event")

	switch base.Type {
	case domain.MsgTypeSendMessage:
		var msg domain.SendMessageIn
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid sendMessage"))
			return
		}
		if err := h.service.HandleSendMessage(ctx, client, msg.Message.ID); err != nil {
			l.Debug().Err(err).Msg("sendMessage rejected")
		}

	case domain.MsgTypeTyping:
		var msg domain.TypingIn
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid typing"))
			return
		}
		if err := h.service.HandleTyping(ctx, client, &msg); err != nil {
			l.Debug().Err(err).Msg("typing rejected")
		}

	case domain.MsgTypeDeleteMessage:
		var msg domain.DeleteMessageIn
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid deleteMessage"))
			return
		}
		if err := h.service.HandleDeleteMessage(ctx, client, msg.MessageID); err != nil {
			l.Debug().Err(err).Msg("deleteMessage rejected")
		}

	case domain.MsgTypePing:
		client.SendMessage(&domain.PongOut{Type: domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown message type"))
	}
}

// originChecker accepts requests without an Origin header, and otherwise
// only origins in allowed. A "*" entry allows any origin.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

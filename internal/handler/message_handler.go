package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/pkg/log"
	"github.com/weiawesome/duochat/pkg/response"
)

// History returns the direct and group messages of the caller.
func (h *Handler) History(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	msgs, err := h.messageService.History(c.Request.Context(), username, c.Param("username"))
	if err != nil {
		handleError(c, err, "failed to fetch messages")
		return
	}
	response.Success(c, msgs)
}

// SendDirect sends a direct message.
func (h *Handler) SendDirect(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	sender, ok := currentUser(c)
	if !ok {
		return
	}

	var req domain.SendDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind send request")
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messageService.SendDirect(ctx, sender, &req)
	if err != nil {
		handleError(c, err, "failed to send message")
		return
	}
	response.Created(c, msg)
}

// SendGroup sends a message to a group.
func (h *Handler) SendGroup(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	sender, ok := currentUser(c)
	if !ok {
		return
	}

	var req domain.SendGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind send-group request")
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messageService.SendGroup(ctx, sender, &req)
	if err != nil {
		handleError(c, err, "failed to send group message")
		return
	}
	response.Created(c, msg)
}

// DeleteMessage deletes one of the caller's messages.
func (h *Handler) DeleteMessage(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.messageService.DeleteMessage(c.Request.Context(), requester, c.Param("id")); err != nil {
		handleError(c, err, "failed to delete message")
		return
	}
	response.OK(c, "message deleted")
}

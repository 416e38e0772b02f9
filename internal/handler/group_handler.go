package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/pkg/response"
)

// ListGroups lists the caller's groups.
func (h *Handler) ListGroups(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	groups, err := h.groupService.ListGroups(c.Request.Context(), username)
	if err != nil {
		handleError(c, err, "failed to fetch groups")
		return
	}
	response.Success(c, groups)
}

// CreateGroup creates a group including the caller.
func (h *Handler) CreateGroup(c *gin.Context) {
	creator, ok := currentUser(c)
	if !ok {
		return
	}

	var req domain.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), creator, &req)
	if err != nil {
		handleError(c, err, "failed to create group")
		return
	}
	response.Created(c, group)
}

// GroupHistory returns a group's messages to a member.
func (h *Handler) GroupHistory(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	msgs, err := h.messageService.GroupHistory(c.Request.Context(), username, c.Param("id"))
	if err != nil {
		handleError(c, err, "failed to fetch group messages")
		return
	}
	response.Success(c, msgs)
}

// AddMembers adds users to a group the caller belongs to.
func (h *Handler) AddMembers(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}

	var req domain.AddMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	group, err := h.groupService.AddMembers(c.Request.Context(), requester, c.Param("id"), req.NewMembers)
	if err != nil {
		handleError(c, err, "failed to add members")
		return
	}
	response.Success(c, group)
}

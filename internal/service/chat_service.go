package service

import (
	"context"
	"errors"

	"github.com/weiawesome/duochat/internal/audit"
	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/internal/hub"
	"github.com/weiawesome/duochat/pkg/log"
)

// ChatService handles events sent by clients over a live connection. The
// acting user is always the identity bound to the connection.
type ChatService interface {
	HandleTyping(ctx context.Context, client *hub.Client, msg *domain.TypingIn) error
	HandleDeleteMessage(ctx context.Context, client *hub.Client, messageID string) error
	HandleSendMessage(ctx context.Context, client *hub.Client, messageID string) error
	HandleConnect(ctx context.Context, client *hub.Client) error
	HandleDisconnect(ctx context.Context, client *hub.Client)
}

type chatServiceImpl struct {
	hub      *hub.Hub
	messages MessageService
	groups   GroupService
}

func NewChatService(h *hub.Hub, messages MessageService, groups GroupService) ChatService {
	return &chatServiceImpl{
		hub:      h,
		messages: messages,
		groups:   groups,
	}
}

func (s *chatServiceImpl) HandleConnect(ctx context.Context, client *hub.Client) error {
	if err := s.hub.Register(client); err != nil {
		return err
	}
	audit.Log(ctx, audit.ActionConnect, client.Session.GetUsername(), client.ID, "websocket connected")
	return nil
}

func (s *chatServiceImpl) HandleDisconnect(ctx context.Context, client *hub.Client) {
	audit.LogWithDetail(ctx, audit.ActionDisconnect, client.Session.GetUsername(), client.ID,
		client.Session.IdleSince().String(), "websocket disconnected")
}

// HandleTyping relays a typing notice to the peer, or to the other members
// of a group the sender belongs to. It is neither stored nor acknowledged.
func (s *chatServiceImpl) HandleTyping(ctx context.Context, client *hub.Client, msg *domain.TypingIn) error {
	sender := client.Session.GetUsername()

	if (msg.Receiver == "") == (msg.GroupID == "") {
		s.reject(client, domain.ErrCodeBadRequest, "typing needs exactly one of receiver or groupId")
		return domain.ErrInvalidArgument
	}

	var members []string
	if msg.GroupID != "" {
		group, err := s.groups.GetGroup(ctx, msg.GroupID)
		if err != nil {
			s.rejectErr(client, err)
			return err
		}
		if !group.HasMember(sender) {
			s.rejectErr(client, domain.ErrNotGroupMember)
			return domain.ErrNotGroupMember
		}
		members = group.Members
	}

	out := &domain.TypingOut{
		Type:     domain.MsgTypeTyping,
		Sender:   sender,
		Receiver: msg.Receiver,
		GroupID:  msg.GroupID,
	}
	return s.hub.BroadcastTo(ctx, domain.TypingAudience(sender, msg.Receiver, members), out, client.ID)
}

// HandleDeleteMessage deletes a message as the connection's user. The
// message service announces the deletion.
func (s *chatServiceImpl) HandleDeleteMessage(ctx context.Context, client *hub.Client, messageID string) error {
	if messageID == "" {
		s.reject(client, domain.ErrCodeBadRequest, "messageId is required")
		return domain.ErrInvalidArgument
	}
	if err := s.messages.DeleteMessage(ctx, client.Session.GetUsername(), messageID); err != nil {
		s.rejectErr(client, err)
		return err
	}
	return nil
}

// HandleSendMessage re-announces a stored message on behalf of its sender.
func (s *chatServiceImpl) HandleSendMessage(ctx context.Context, client *hub.Client, messageID string) error {
	if messageID == "" {
		s.reject(client, domain.ErrCodeBadRequest, "message.id is required")
		return domain.ErrInvalidArgument
	}
	if err := s.messages.Announce(ctx, client.Session.GetUsername(), messageID); err != nil {
		s.rejectErr(client, err)
		return err
	}
	return nil
}

func (s *chatServiceImpl) rejectErr(client *hub.Client, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.reject(client, domain.ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		s.reject(client, domain.ErrCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		s.reject(client, domain.ErrCodeBadRequest, err.Error())
	default:
		s.reject(client, domain.ErrCodeInternalError, "internal error")
	}
}

func (s *chatServiceImpl) reject(client *hub.Client, code, message string) {
	if err := client.SendMessage(domain.NewErrorMessage(code, message)); err != nil {
		l := log.L()
		l.Debug().Err(err).Str(log.FieldConnID, client.ID).Msg("failed to send error to client")
	}
}

package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/duochat/internal/audit"
	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/internal/repository"
	"github.com/weiawesome/duochat/pkg/log"
)

type messageServiceImpl struct {
	repo     repository.MessageRepository
	users    repository.UserRepository
	groups   GroupService
	notifier Notifier
}

func NewMessageService(
	repo repository.MessageRepository,
	users repository.UserRepository,
	groups GroupService,
	notifier Notifier,
) MessageService {
	return &messageServiceImpl{
		repo:     repo,
		users:    users,
		groups:   groups,
		notifier: notifier,
	}
}

// SendDirect stores a message from sender to req.Receiver and announces it.
func (s *messageServiceImpl) SendDirect(ctx context.Context, sender string, req *domain.SendDirectRequest) (*domain.Message, error) {
	text, file, err := validateContent(req.Text, req.File)
	if err != nil {
		return nil, err
	}

	receiver := strings.TrimSpace(req.Receiver)
	ok, err := s.users.Exists(ctx, receiver)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrReceiverNotFound
	}

	msg := &domain.Message{
		Sender:   sender,
		Receiver: receiver,
		Text:     text,
		File:     file,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionSendMessage, sender, msg.ID, "direct message sent")
	s.notifyCreated(ctx, msg, nil)
	return msg, nil
}

// SendGroup stores a message to a group the sender belongs to and
// announces it with the member set resolved now.
func (s *messageServiceImpl) SendGroup(ctx context.Context, sender string, req *domain.SendGroupRequest) (*domain.Message, error) {
	text, file, err := validateContent(req.Text, req.File)
	if err != nil {
		return nil, err
	}

	group, err := s.groups.GetGroup(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(sender) {
		return nil, domain.ErrNotGroupMember
	}

	msg := &domain.Message{
		Sender:  sender,
		GroupID: group.ID,
		Text:    text,
		File:    file,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionSendMessage, sender, msg.ID, "group message sent")
	s.notifyCreated(ctx, msg, group.Members)
	return msg, nil
}

// DeleteMessage removes a message sent by requester. For group messages
// the requester must still be a member. The deletion is announced to the
// audience of the original message.
func (s *messageServiceImpl) DeleteMessage(ctx context.Context, requester, messageID string) error {
	l := log.Ctx(ctx)

	msg, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Sender != requester {
		return domain.ErrNotMessageSender
	}

	var members []string
	if msg.IsGroup() {
		members, err = s.readableGroupMembers(ctx, requester, msg.GroupID)
		if err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, messageID); err != nil {
		return err
	}

	audit.Log(ctx, audit.ActionDeleteMessage, requester, messageID, "message deleted")

	if err := s.notifier.MessageDeleted(ctx, msg, members); err != nil {
		l.Warn().Err(err).Str(log.FieldMessageID, messageID).Msg("failed to broadcast deletion")
	}
	return nil
}

// Announce re-broadcasts a stored message. Only the sender may announce it.
func (s *messageServiceImpl) Announce(ctx context.Context, requester, messageID string) error {
	msg, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Sender != requester {
		return domain.ErrNotMessageSender
	}

	var members []string
	if msg.IsGroup() {
		members, err = s.readableGroupMembers(ctx, requester, msg.GroupID)
		if err != nil {
			return err
		}
	}

	s.notifyCreated(ctx, msg, members)
	return nil
}

// History returns the direct messages of username and the messages of all
// groups username belongs to, oldest first. Users may only read their own.
func (s *messageServiceImpl) History(ctx context.Context, requester, username string) ([]domain.Message, error) {
	if requester != username {
		return nil, domain.ErrHistoryForbidden
	}

	var direct, grouped []domain.Message

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		direct, err = s.repo.ListDirect(gCtx, username)
		return err
	})

	g.Go(func() error {
		groups, err := s.groups.ListGroups(gCtx, username)
		if err != nil {
			return err
		}
		ids := make([]string, len(groups))
		for i := range groups {
			ids[i] = groups[i].ID
		}
		grouped, err = s.repo.ListByGroups(gCtx, ids...)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeByTime(direct, grouped), nil
}

// GroupHistory returns a group's messages to one of its members.
func (s *messageServiceImpl) GroupHistory(ctx context.Context, requester, groupID string) ([]domain.Message, error) {
	if _, err := s.readableGroupMembers(ctx, requester, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListByGroups(ctx, groupID)
}

func (s *messageServiceImpl) readableGroupMembers(ctx context.Context, requester, groupID string) ([]string, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(requester) {
		return nil, domain.ErrNotGroupMember
	}
	return group.Members, nil
}

// notifyCreated never fails the send: the stored record is the source of
// truth and clients catch up on their next history fetch.
func (s *messageServiceImpl) notifyCreated(ctx context.Context, msg *domain.Message, members []string) {
	if err := s.notifier.MessageCreated(ctx, msg, members); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to broadcast message")
	}
}

func validateContent(text string, file *domain.File) (string, *domain.File, error) {
	if file != nil && strings.TrimSpace(file.URL) == "" {
		file = nil
	}
	if strings.TrimSpace(text) == "" && file == nil {
		return "", nil, domain.ErrEmptyMessage
	}
	return text, file, nil
}

// mergeByTime merges two lists already sorted by timestamp, then id.
func mergeByTime(a, b []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if before(&b[j], &a[i]) {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func before(x, y *domain.Message) bool {
	if !x.Timestamp.Equal(y.Timestamp) {
		return x.Timestamp.Before(y.Timestamp)
	}
	return x.ID < y.ID
}

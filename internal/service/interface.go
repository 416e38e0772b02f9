package service

import (
	"context"

	"github.com/weiawesome/duochat/internal/domain"
)

// UserService handles registration, login and profiles.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	ListUsers(ctx context.Context) ([]domain.UserSummary, error)
	Exists(ctx context.Context, username string) (bool, error)
	GetProfile(ctx context.Context, username string) (*domain.UserResponse, error)
	UpdateProfile(ctx context.Context, username string, update *domain.ProfileUpdate) (*domain.UserResponse, error)
}

// MessageService sends, deletes and lists messages. Every successful write
// is announced to the Notifier after it is persisted.
type MessageService interface {
	SendDirect(ctx context.Context, sender string, req *domain.SendDirectRequest) (*domain.Message, error)
	SendGroup(ctx context.Context, sender string, req *domain.SendGroupRequest) (*domain.Message, error)
	DeleteMessage(ctx context.Context, requester, messageID string) error
	// Announce re-broadcasts a stored message on behalf of its sender.
	Announce(ctx context.Context, requester, messageID string) error
	History(ctx context.Context, requester, username string) ([]domain.Message, error)
	GroupHistory(ctx context.Context, requester, groupID string) ([]domain.Message, error)
}

// GroupService manages groups and resolves their membership.
type GroupService interface {
	CreateGroup(ctx context.Context, creator string, req *domain.CreateGroupRequest) (*domain.Group, error)
	AddMembers(ctx context.Context, requester, groupID string, newMembers []string) (*domain.Group, error)
	ListGroups(ctx context.Context, username string) ([]domain.Group, error)
	GetGroup(ctx context.Context, groupID string) (*domain.Group, error)
	// Members returns the current member set of a group.
	Members(ctx context.Context, groupID string) ([]string, error)
}

// UploadService validates and stores attachments.
type UploadService interface {
	Upload(ctx context.Context, username string, file *domain.Upload) (*domain.UploadResult, error)
}

// Notifier receives message events after they are persisted. members is
// the group's member set at the time of the event, nil for direct messages.
type Notifier interface {
	MessageCreated(ctx context.Context, msg *domain.Message, members []string) error
	MessageDeleted(ctx context.Context, msg *domain.Message, members []string) error
}

package repository

import (
	"context"

	"github.com/weiawesome/duochat/internal/domain"
)

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
}

// MessageRepository stores messages. Create assigns ID and Timestamp.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	Delete(ctx context.Context, id string) error
	// ListDirect returns direct messages sent or received by username.
	ListDirect(ctx context.Context, username string) ([]domain.Message, error)
	// ListByGroups returns messages of the given groups.
	ListByGroups(ctx context.Context, groupIDs ...string) ([]domain.Message, error)
}

// GroupRepository stores groups. Create assigns ID and CreatedAt.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	ListByMember(ctx context.Context, username string) ([]domain.Group, error)
	// AddMembers unions members into the group and returns the updated group.
	AddMembers(ctx context.Context, id string, members []string) (*domain.Group, error)
}

package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/pkg/idgen"
	"github.com/weiawesome/duochat/pkg/log"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db    *gorm.DB
	ids   idgen.Generator
	clock func() time.Time
}

// NewGormMessageRepository creates a repository that assigns ULID message ids.
func NewGormMessageRepository(db *gorm.DB, ids idgen.Generator) *GormMessageRepository {
	return &GormMessageRepository{
		db:    db,
		ids:   ids,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// Create assigns the id and server timestamp, then inserts the message.
func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	l := log.Ctx(ctx)

	id, err := r.ids.Generate()
	if err != nil {
		return errors.Join(domain.ErrInternal, err)
	}
	msg.ID = id
	msg.Timestamp = r.clock()

	if err := r.db.WithContext(ctx).Create(domain.MessageToModel(msg)).Error; err != nil {
		l.Error().Err(err).Str(log.FieldMessageID, id).Msg("failed to insert message")
		return handleError(err)
	}
	return nil
}

// GetByID retrieves a message by id.
func (r *GormMessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var model domain.MessageModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, handleError(result.Error)
	}
	return model.ToDomain(), nil
}

// Delete hard-deletes a message.
func (r *GormMessageRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.MessageModel{}, "id = ?", id)
	if result.Error != nil {
		return handleError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// ListDirect returns direct messages to or from username, oldest first.
func (r *GormMessageRepository) ListDirect(ctx context.Context, username string) ([]domain.Message, error) {
	var models []domain.MessageModel
	err := r.db.WithContext(ctx).
		Where("group_id IS NULL").
		Where("sender = ? OR receiver = ?", username, username).
		Order("sent_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, handleError(err)
	}
	return toMessages(models), nil
}

// ListByGroups returns messages of the given groups, oldest first.
func (r *GormMessageRepository) ListByGroups(ctx context.Context, groupIDs ...string) ([]domain.Message, error) {
	if len(groupIDs) == 0 {
		return []domain.Message{}, nil
	}

	var models []domain.MessageModel
	err := r.db.WithContext(ctx).
		Where("group_id IN ?", groupIDs).
		Order("sent_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, handleError(err)
	}
	return toMessages(models), nil
}

func toMessages(models []domain.MessageModel) []domain.Message {
	msgs := make([]domain.Message, len(models))
	for i := range models {
		msgs[i] = *models[i].ToDomain()
	}
	return msgs
}

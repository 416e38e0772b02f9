package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/pkg/database"
	"github.com/weiawesome/duochat/pkg/log"
)

// GormGroupRepository implements GroupRepository using GORM.
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a new GORM-based group repository.
func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// Create inserts a group with its full member set in one write.
func (r *GormGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	l := log.Ctx(ctx)

	group.ID = uuid.New().String()
	model := domain.GroupToModel(group)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create group in db")
		return handleError(err)
	}

	group.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldGroupID, group.ID).Msg("group created in db")
	return nil
}

// GetByID retrieves a group by id.
func (r *GormGroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	var model domain.GroupModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, handleError(result.Error)
	}
	return model.ToDomain(), nil
}

// ListByMember returns the groups username belongs to, oldest first.
// Members are stored as a JSON array, so the LIKE prefilter on the quoted
// name is confirmed by an exact membership check.
func (r *GormGroupRepository) ListByMember(ctx context.Context, username string) ([]domain.Group, error) {
	quoted, err := json.Marshal(username)
	if err != nil {
		return nil, errors.Join(domain.ErrInternal, err)
	}

	var models []domain.GroupModel
	err = r.db.WithContext(ctx).
		Where("members LIKE ?", "%"+string(quoted)+"%").
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, handleError(err)
	}

	groups := make([]domain.Group, 0, len(models))
	for i := range models {
		if models[i].Members.Contains(username) {
			groups = append(groups, *models[i].ToDomain())
		}
	}
	return groups, nil
}

// AddMembers unions members into the group's member list inside a
// transaction that locks the row, so concurrent additions are not lost.
func (r *GormGroupRepository) AddMembers(ctx context.Context, id string, members []string) (*domain.Group, error) {
	var updated domain.GroupModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model domain.GroupModel
		q := tx
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrGroupNotFound
			}
			return err
		}

		merged := model.Members.Union(members...)
		if len(merged) != len(model.Members) {
			if err := tx.Model(&domain.GroupModel{}).
				Where("id = ?", id).
				Update("members", database.StringArray(merged)).Error; err != nil {
				return err
			}
		}

		model.Members = merged
		updated = model
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrGroupNotFound) {
			return nil, err
		}
		return nil, handleError(err)
	}
	return updated.ToDomain(), nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/pkg/log"
)

// GormGroupRepository implements GroupRepository using GORM.
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a new GORM-backed group repository.
func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// Create inserts a group. A taken slug yields ErrGroupSlugTaken.
func (r *GormGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	l := log.Ctx(ctx)

	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.GroupModel{}).
		Where("slug = ?", group.Slug).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrGroupSlugTaken
	}

	model := domain.GroupToModel(group)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrGroupSlugTaken
		}
		l.Error().Err(err).Str(log.FieldGroupSlug, group.Slug).Msg("failed to create group in db")
		return err
	}

	group.ID = model.ID
	group.CreatedAt = model.CreatedAt
	return nil
}

// GetBySlug retrieves a group by slug.
func (r *GormGroupRepository) GetBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	var model domain.GroupModel
	if err := r.db.WithContext(ctx).First(&model, "slug = ?", slug).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns all groups ordered by title.
func (r *GormGroupRepository) List(ctx context.Context) ([]domain.Group, error) {
	var models []domain.GroupModel
	if err := r.db.WithContext(ctx).Order("title ASC").Order("id ASC").Find(&models).Error; err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to list groups")
		return nil, err
	}

	groups := make([]domain.Group, len(models))
	for i := range models {
		groups[i] = *models[i].ToDomain()
	}
	return groups, nil
}

// Delete clears the group from its posts and removes it.
func (r *GormGroupRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.PostModel{}).
			Where("group_id = ?", id).
			Update("group_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&domain.GroupModel{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGroupNotFound
		}
		return nil
	})
}

var _ GroupRepository = (*GormGroupRepository)(nil)

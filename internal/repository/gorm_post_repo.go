package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/pkg/log"
)

// GormPostRepository implements PostRepository using GORM.
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GORM-backed post repository.
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// Create inserts a post. CreatedAt is kept when the caller set it.
func (r *GormPostRepository) Create(ctx context.Context, post *domain.Post) error {
	l := log.Ctx(ctx)

	model := domain.PostToModel(post)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		l.Error().Err(err).Str(log.FieldAuthorID, post.AuthorID).Msg("failed to create post in db")
		return err
	}

	post.ID = model.ID
	post.CreatedAt = model.CreatedAt
	l.Debug().Uint(log.FieldPostID, post.ID).Msg("post created in db")
	return nil
}

// GetByID retrieves a post with its author and group.
func (r *GormPostRepository) GetByID(ctx context.Context, id uint) (*domain.Post, error) {
	var model domain.PostModel
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&model, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Uint(log.FieldPostID, id).Msg("failed to get post by id")
		return nil, err
	}
	return model.ToDomain(), nil
}

// Update writes the mutable columns of a post. Callers load the post
// first; MySQL reports zero affected rows for no-op updates.
func (r *GormPostRepository) Update(ctx context.Context, post *domain.Post) error {
	result := r.db.WithContext(ctx).Model(&domain.PostModel{}).
		Where("id = ?", post.ID).
		Select("text", "group_id", "image_key").
		Updates(map[string]interface{}{
			"text":      post.Text,
			"group_id":  post.GroupID,
			"image_key": post.ImageKey,
		})
	if result.Error != nil {
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).Uint(log.FieldPostID, post.ID).Msg("failed to update post in db")
		return result.Error
	}
	return nil
}

// Delete removes a post's comments, then the post.
func (r *GormPostRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&domain.CommentModel{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&domain.PostModel{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

// List returns one page of posts matching criteria, newest first with
// id as tie-breaker, and the total number of matches.
func (r *GormPostRepository) List(ctx context.Context, criteria PostCriteria, page, pageSize int) ([]domain.Post, int64, error) {
	l := log.Ctx(ctx)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = domain.PageSize
	}
	query := r.db.WithContext(ctx).Model(&domain.PostModel{})
	if criteria.GroupID != 0 {
		query = query.Where("group_id = ?", criteria.GroupID)
	}
	if criteria.AuthorID != "" {
		query = query.Where("author_id = ?", criteria.AuthorID)
	}
	if criteria.FollowedBy != "" {
		followed := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
			Select("author_id").
			Where("follower_id = ?", criteria.FollowedBy)
		query = query.Where("author_id IN (?)", followed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		l.Error().Err(err).Msg("failed to count posts")
		return nil, 0, err
	}
	// Compared in pages so huge page numbers cannot overflow the offset.
	if total == 0 || int64(page-1) >= (total+int64(pageSize)-1)/int64(pageSize) {
		return []domain.Post{}, total, nil
	}
	offset := (page - 1) * pageSize

	var models []domain.PostModel
	err := query.
		Preload("Author").
		Preload("Group").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Msg("failed to list posts from db")
		return nil, 0, err
	}

	posts := make([]domain.Post, len(models))
	for i := range models {
		posts[i] = *models[i].ToDomain()
	}
	return posts, total, nil
}

var _ PostRepository = (*GormPostRepository)(nil)

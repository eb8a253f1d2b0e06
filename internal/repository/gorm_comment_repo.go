package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/pkg/log"
)

// GormCommentRepository implements CommentRepository using GORM.
type GormCommentRepository struct {
	db *gorm.DB
}

// NewGormCommentRepository creates a new GORM-backed comment repository.
func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// Create inserts a comment.
func (r *GormCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	model := domain.CommentModel{
		Text:      comment.Text,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		CreatedAt: comment.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&model).Error; err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Uint(log.FieldPostID, comment.PostID).Msg("failed to create comment in db")
		return err
	}

	comment.ID = model.ID
	comment.CreatedAt = model.CreatedAt
	return nil
}

// GetByID retrieves a comment by id.
func (r *GormCommentRepository) GetByID(ctx context.Context, id uint) (*domain.Comment, error) {
	var model domain.CommentModel
	if err := r.db.WithContext(ctx).Preload("Author").First(&model, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByPost returns a post's comments, oldest first.
func (r *GormCommentRepository) ListByPost(ctx context.Context, postID uint) ([]domain.Comment, error) {
	var models []domain.CommentModel
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Uint(log.FieldPostID, postID).Msg("failed to list comments")
		return nil, err
	}

	comments := make([]domain.Comment, len(models))
	for i := range models {
		comments[i] = *models[i].ToDomain()
	}
	return comments, nil
}

// Delete removes a comment.
func (r *GormCommentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.CommentModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

var _ CommentRepository = (*GormCommentRepository)(nil)

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/pkg/log"
)

// GormFollowRepository implements FollowRepository using GORM.
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-backed follow repository.
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Create inserts the (follower, author) edge with ON CONFLICT DO NOTHING,
// so concurrent or repeated follows leave exactly one row.
func (r *GormFollowRepository) Create(ctx context.Context, followerID, authorID string) (bool, error) {
	model := domain.FollowModel{FollowerID: followerID, AuthorID: authorID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return false, nil
		}
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).
			Str(log.FieldUserID, followerID).
			Str(log.FieldAuthorID, authorID).
			Msg("failed to create follow in db")
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete removes exactly the (follower, author) edge.
func (r *GormFollowRepository) Delete(ctx context.Context, followerID, authorID string) error {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND author_id = ?", followerID, authorID).
		Delete(&domain.FollowModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFollowNotFound
	}
	return nil
}

// Exists checks if followerID follows authorID.
func (r *GormFollowRepository) Exists(ctx context.Context, followerID, authorID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("follower_id = ? AND author_id = ?", followerID, authorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFollowedAuthors returns the users followerID follows, by username.
func (r *GormFollowRepository) ListFollowedAuthors(ctx context.Context, followerID string) ([]domain.User, error) {
	followed := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Select("author_id").
		Where("follower_id = ?", followerID)

	var models []domain.UserModel
	err := r.db.WithContext(ctx).
		Where("id IN (?)", followed).
		Order("username ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, len(models))
	for i := range models {
		users[i] = *models[i].ToDomain()
	}
	return users, nil
}

// CountFollowers returns how many users follow authorID.
func (r *GormFollowRepository) CountFollowers(ctx context.Context, authorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("author_id = ?", authorID).
		Count(&count).Error
	return count, err
}

// CountFollowing returns how many users followerID follows.
func (r *GormFollowRepository) CountFollowing(ctx context.Context, followerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("follower_id = ?", followerID).
		Count(&count).Error
	return count, err
}

var _ FollowRepository = (*GormFollowRepository)(nil)

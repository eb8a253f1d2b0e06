package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/pkg/log"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-backed user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Ensure upserts the user keyed by id so renames at the identity
// provider are picked up on the next action. A username held by another
// id is rejected before the upsert: MySQL's ON DUPLICATE KEY UPDATE fires
// on any unique key and would otherwise rewrite that other row.
func (r *GormUserRepository) Ensure(ctx context.Context, user *domain.User) error {
	l := log.Ctx(ctx)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var holders int64
		if err := tx.Model(&domain.UserModel{}).
			Where("username = ? AND id <> ?", user.Username, user.ID).
			Count(&holders).Error; err != nil {
			return err
		}
		if holders > 0 {
			return ErrUsernameTaken
		}

		model := domain.UserModel{ID: user.ID, Username: user.Username}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username"}),
		}).Create(&model).Error
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) || isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to upsert user")
		return err
	}
	return nil
}

// GetByUsername retrieves a user by username.
func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var model domain.UserModel
	if err := r.db.WithContext(ctx).First(&model, "username = ?", username).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Delete removes the user and cascades in one transaction: comments by
// the user, comments on the user's posts, the posts, follow edges in both
// directions, then the user row.
func (r *GormUserRepository) Delete(ctx context.Context, id string) ([]string, error) {
	l := log.Ctx(ctx)

	var imageKeys []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.UserModel
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}

		ownPosts := tx.Model(&domain.PostModel{}).Select("id").Where("author_id = ?", id)

		if err := tx.Model(&domain.PostModel{}).
			Where("author_id = ? AND image_key <> ''", id).
			Pluck("image_key", &imageKeys).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ? OR post_id IN (?)", id, ownPosts).
			Delete(&domain.CommentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&domain.PostModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR author_id = ?", id, id).
			Delete(&domain.FollowModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			l.Error().Err(err).Str(log.FieldUserID, id).Msg("failed to delete user")
		}
		return nil, err
	}

	l.Debug().Str(log.FieldUserID, id).Int("images", len(imageKeys)).Msg("user deleted in db")
	return imageKeys, nil
}

var _ UserRepository = (*GormUserRepository)(nil)

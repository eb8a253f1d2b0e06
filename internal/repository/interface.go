package repository

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-blog/internal/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrGroupNotFound   = errors.New("group not found")
	ErrGroupSlugTaken  = errors.New("group slug already taken")
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrFollowNotFound  = errors.New("follow relationship not found")
)

// UserRepository persists the local mirror of external identities.
type UserRepository interface {
	// Ensure inserts the user or refreshes its username.
	Ensure(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// Delete removes the user with everything it owns and returns the
	// media keys of the removed posts.
	Delete(ctx context.Context, id string) ([]string, error)
}

// GroupRepository persists groups.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetBySlug(ctx context.Context, slug string) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
	// Delete removes the group; its posts stay with the group cleared.
	Delete(ctx context.Context, id uint) error
}

// PostCriteria selects posts by ids. Zero fields are ignored.
type PostCriteria struct {
	GroupID    uint
	AuthorID   string
	FollowedBy string
}

// PostRepository persists posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uint) (*domain.Post, error)
	// Update writes text, group and image only; created_at is untouched.
	Update(ctx context.Context, post *domain.Post) error
	// Delete removes the post's comments, then the post.
	Delete(ctx context.Context, id uint) error
	// List returns one page ordered newest first plus the total match count.
	List(ctx context.Context, criteria PostCriteria, page, pageSize int) ([]domain.Post, int64, error)
}

// CommentRepository persists comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uint) (*domain.Comment, error)
	// ListByPost returns comments oldest first.
	ListByPost(ctx context.Context, postID uint) ([]domain.Comment, error)
	Delete(ctx context.Context, id uint) error
}

// FollowRepository persists follow edges.
type FollowRepository interface {
	// Create inserts the edge; created is false when it already existed.
	Create(ctx context.Context, followerID, authorID string) (created bool, err error)
	Delete(ctx context.Context, followerID, authorID string) error
	Exists(ctx context.Context, followerID, authorID string) (bool, error)
	ListFollowedAuthors(ctx context.Context, followerID string) ([]domain.User, error)
	CountFollowers(ctx context.Context, authorID string) (int64, error)
	CountFollowing(ctx context.Context, followerID string) (int64, error)
}

package service

import (
	"context"

	"github.com/weiawesome/wes-blog/internal/domain"
)

// ContentService manages groups, posts and comments.
type ContentService interface {
	CreatePost(ctx context.Context, actor domain.Actor, req *domain.CreatePostRequest, image *domain.ImageUpload) (*domain.PostResponse, error)
	GetPost(ctx context.Context, username string, postID uint) (*domain.PostDetail, error)
	EditPost(ctx context.Context, actor domain.Actor, username string, postID uint, req *domain.UpdatePostRequest, image *domain.ImageUpload) (*domain.PostResponse, error)
	AuthorizePostEdit(ctx context.Context, actor domain.Actor, username string, postID uint) error
	DeletePost(ctx context.Context, actor domain.Actor, username string, postID uint) error
	ListPosts(ctx context.Context, filter domain.PostFilter, page int) (*domain.PostPage, error)

	AddComment(ctx context.Context, actor domain.Actor, username string, postID uint, req *domain.CreateCommentRequest) (*domain.CommentResponse, error)
	DeleteComment(ctx context.Context, actor domain.Actor, commentID uint) error

	CreateGroup(ctx context.Context, actor domain.Actor, req *domain.CreateGroupRequest) (*domain.GroupResponse, error)
	GetGroup(ctx context.Context, slug string) (*domain.GroupResponse, error)
	ListGroups(ctx context.Context) ([]domain.GroupResponse, error)
	DeleteGroup(ctx context.Context, actor domain.Actor, slug string) error

	GetUser(ctx context.Context, username string) (*domain.User, error)
	DeleteUser(ctx context.Context, actor domain.Actor, username string) error
}

// SocialGraphService manages follow edges between users.
type SocialGraphService interface {
	Follow(ctx context.Context, actor domain.Actor, username string) error
	Unfollow(ctx context.Context, actor domain.Actor, username string) error
	IsFollowing(ctx context.Context, followerID, authorID string) (bool, error)
	FollowedAuthorsOf(ctx context.Context, userID string) ([]domain.User, error)
	FollowCounts(ctx context.Context, userID string) (*domain.FollowCounts, error)
}

// FeedService assembles paginated post feeds.
type FeedService interface {
	GetGlobalFeed(ctx context.Context, page int) (*domain.PostPage, error)
	GetGroupFeed(ctx context.Context, slug string, page int) (*domain.GroupFeed, error)
	GetProfileFeed(ctx context.Context, username string, viewer *domain.Actor, page int) (*domain.ProfileFeed, error)
	GetFollowingFeed(ctx context.Context, viewer *domain.Actor, page int) (*domain.PostPage, error)
}

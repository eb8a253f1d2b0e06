package service

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-blog/internal/audit"
	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/internal/repository"
	"github.com/weiawesome/wes-blog/pkg/log"
	"github.com/weiawesome/wes-blog/pkg/pubsub"
)

type socialGraphServiceImpl struct {
	users     repository.UserRepository
	follows   repository.FollowRepository
	publisher pubsub.Publisher
}

// NewSocialGraphService creates a new social graph service.
func NewSocialGraphService(users repository.UserRepository, follows repository.FollowRepository, publisher pubsub.Publisher) SocialGraphService {
	return &socialGraphServiceImpl{
		users:     users,
		follows:   follows,
		publisher: publisher,
	}
}

func (s *socialGraphServiceImpl) lookupAuthor(ctx context.Context, username string) (*domain.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return author, nil
}

// Follow makes actor follow username. Following someone already followed
// is a silent no-op.
func (s *socialGraphServiceImpl) Follow(ctx context.Context, actor domain.Actor, username string) error {
	if err := ensureActor(ctx, s.users, actor); err != nil {
		return err
	}
	author, err := s.lookupAuthor(ctx, username)
	if err != nil {
		return err
	}
	if author.ID == actor.ID {
		return ErrSelfFollow
	}

	created, err := s.follows.Create(ctx, actor.ID, author.ID)
	if err != nil {
		return err
	}
	if !created {
		l := log.Ctx(ctx)
		l.Debug().Str(log.FieldAuthorID, author.ID).Msg("already following")
		return nil
	}

	audit.Log(ctx, audit.ActionFollow, actor.ID, "user:"+author.ID, "followed author")
	publish(ctx, s.publisher, pubsub.EventFollowCreated, actor.ID, pubsub.FollowPayload{
		FollowerID: actor.ID,
		AuthorID:   author.ID,
	})
	return nil
}

// Unfollow removes exactly the (actor, username) edge.
func (s *socialGraphServiceImpl) Unfollow(ctx context.Context, actor domain.Actor, username string) error {
	if actor.ID == "" {
		return ErrUnauthenticated
	}
	author, err := s.lookupAuthor(ctx, username)
	if err != nil {
		return err
	}

	if err := s.follows.Delete(ctx, actor.ID, author.ID); err != nil {
		if errors.Is(err, repository.ErrFollowNotFound) {
			return ErrNotFollowing
		}
		return err
	}

	audit.Log(ctx, audit.ActionUnfollow, actor.ID, "user:"+author.ID, "unfollowed author")
	publish(ctx, s.publisher, pubsub.EventFollowDeleted, actor.ID, pubsub.FollowPayload{
		FollowerID: actor.ID,
		AuthorID:   author.ID,
	})
	return nil
}

// IsFollowing reports whether followerID follows authorID.
func (s *socialGraphServiceImpl) IsFollowing(ctx context.Context, followerID, authorID string) (bool, error) {
	if followerID == "" || authorID == "" {
		return false, nil
	}
	return s.follows.Exists(ctx, followerID, authorID)
}

// FollowedAuthorsOf returns everyone userID follows.
func (s *socialGraphServiceImpl) FollowedAuthorsOf(ctx context.Context, userID string) ([]domain.User, error) {
	return s.follows.ListFollowedAuthors(ctx, userID)
}

// FollowCounts returns follower and following totals for userID.
func (s *socialGraphServiceImpl) FollowCounts(ctx context.Context, userID string) (*domain.FollowCounts, error) {
	followers, err := s.follows.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.CountFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.FollowCounts{Followers: followers, Following: following}, nil
}

var _ SocialGraphService = (*socialGraphServiceImpl)(nil)

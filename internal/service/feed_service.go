package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-blog/internal/cache"
	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/pkg/log"
)

type feedServiceImpl struct {
	content  ContentService
	graph    SocialGraphService
	cache    cache.FeedCache
	cacheTTL time.Duration
	sf       singleflight.Group
}

// NewFeedService creates a feed service. Only the global feed goes
// through feedCache; the other feeds are read straight from the store.
func NewFeedService(content ContentService, graph SocialGraphService, feedCache cache.FeedCache, cacheTTL time.Duration) FeedService {
	return &feedServiceImpl{
		content:  content,
		graph:    graph,
		cache:    feedCache,
		cacheTTL: cacheTTL,
	}
}

// GetGlobalFeed serves all posts, newest first, from the cache when a
// fresh page is there. Concurrent misses for one page share one query.
func (s *feedServiceImpl) GetGlobalFeed(ctx context.Context, page int) (*domain.PostPage, error) {
	if page < 1 {
		page = 1
	}
	key := cache.Key{Feed: cache.FeedGlobal, Page: page}

	result, err, _ := s.sf.Do(key.String(), func() (interface{}, error) {
		// Callers share this result, so one caller going away must not
		// fail the query for the rest.
		flightCtx := context.WithoutCancel(ctx)
		l := log.Ctx(flightCtx)

		if s.cache != nil {
			cached, err := s.cache.Get(flightCtx, key)
			if err == nil {
				return cached, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				l.Warn().Err(err).Str(log.FieldCacheKey, key.String()).Msg("feed cache get error")
			}
		}

		posts, err := s.content.ListPosts(flightCtx, domain.AllPosts(), page)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			if err := s.cache.Set(flightCtx, key, posts, s.cacheTTL); err != nil {
				l.Warn().Err(err).Str(log.FieldCacheKey, key.String()).Msg("feed cache set error")
			}
		}
		return posts, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*domain.PostPage), nil
}

// GetGroupFeed returns a group and one page of its posts.
func (s *feedServiceImpl) GetGroupFeed(ctx context.Context, slug string, page int) (*domain.GroupFeed, error) {
	group, err := s.content.GetGroup(ctx, slug)
	if err != nil {
		return nil, err
	}
	posts, err := s.content.ListPosts(ctx, domain.PostsInGroup(slug), page)
	if err != nil {
		return nil, err
	}
	return &domain.GroupFeed{Group: *group, Posts: *posts}, nil
}

// GetProfileFeed returns an author's posts with follow information. The
// following flag is false for anonymous viewers.
func (s *feedServiceImpl) GetProfileFeed(ctx context.Context, username string, viewer *domain.Actor, page int) (*domain.ProfileFeed, error) {
	author, err := s.content.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	posts, err := s.content.ListPosts(ctx, domain.PostsByAuthor(username), page)
	if err != nil {
		return nil, err
	}
	counts, err := s.graph.FollowCounts(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	following := false
	if viewer != nil && viewer.ID != "" {
		following, err = s.graph.IsFollowing(ctx, viewer.ID, author.ID)
		if err != nil {
			return nil, err
		}
	}

	return &domain.ProfileFeed{
		Author:    author.ToResponse(),
		Following: following,
		Counts:    *counts,
		Posts:     *posts,
	}, nil
}

// GetFollowingFeed returns posts by the authors viewer follows.
func (s *feedServiceImpl) GetFollowingFeed(ctx context.Context, viewer *domain.Actor, page int) (*domain.PostPage, error) {
	if viewer == nil || viewer.ID == "" {
		return nil, ErrUnauthenticated
	}
	return s.content.ListPosts(ctx, domain.PostsFollowedBy(viewer.ID), page)
}

var _ FeedService = (*feedServiceImpl)(nil)

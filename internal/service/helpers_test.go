package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-blog/internal/cache"
	"github.com/weiawesome/wes-blog/internal/clock"
	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/internal/media"
	"github.com/weiawesome/wes-blog/internal/repository"
	"github.com/weiawesome/wes-blog/pkg/database"
	"github.com/weiawesome/wes-blog/pkg/pubsub"
	"github.com/weiawesome/wes-blog/pkg/storage"
)

const testCacheTTL = 5 * time.Second

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*pubsub.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// countingImages wraps an ImageStore and counts saves.
type countingImages struct {
	ImageStore
	mu    sync.Mutex
	saves int
}

func (c *countingImages) Save(ctx context.Context, upload *domain.ImageUpload) (string, error) {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	return c.ImageStore.Save(ctx, upload)
}

type fixture struct {
	db        *gorm.DB
	clock     *clock.Fake
	cache     *cache.MemoryFeedCache
	storage   *storage.LocalStorage
	images    *countingImages
	publisher *recordingPublisher
	content   ContentService
	graph     SocialGraphService
	feed      FeedService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, domain.AllModels()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	local, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	f := &fixture{
		db:        db,
		clock:     clock.NewFake(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		storage:   local,
		images:    &countingImages{ImageStore: media.NewImageStore(local, media.Config{ThumbWidth: 8, ThumbHeight: 8})},
		publisher: &recordingPublisher{},
	}
	f.cache = cache.NewMemoryFeedCache(f.clock)

	users := repository.NewGormUserRepository(db)
	f.content = NewContentService(ContentRepositories{
		Users:    users,
		Groups:   repository.NewGormGroupRepository(db),
		Posts:    repository.NewGormPostRepository(db),
		Comments: repository.NewGormCommentRepository(db),
	}, f.images, f.publisher, f.clock)
	f.graph = NewSocialGraphService(users, repository.NewGormFollowRepository(db), f.publisher)
	f.feed = NewFeedService(f.content, f.graph, f.cache, testCacheTTL)
	return f
}

func actor(id, username string, roles ...string) domain.Actor {
	return domain.Actor{ID: id, Username: username, Roles: roles}
}

// post creates a post and advances the clock so creation times differ.
func (f *fixture) post(t *testing.T, author domain.Actor, text, group string) *domain.PostResponse {
	t.Helper()
	resp, err := f.content.CreatePost(context.Background(), author, &domain.CreatePostRequest{Text: text, Group: group}, nil)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return resp
}

func postIDs(page *domain.PostPage) []uint {
	ids := make([]uint, len(page.Posts))
	for i, p := range page.Posts {
		ids[i] = p.ID
	}
	return ids
}

func pngUpload(t *testing.T) *domain.ImageUpload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &domain.ImageUpload{Filename: "pic.png", Size: int64(buf.Len()), Content: &buf}
}

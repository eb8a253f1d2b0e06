package repository

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/pkg/database"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, domain.AllModels()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func ensureUser(t *testing.T, repo *GormUserRepository, id, username string) {
	t.Helper()
	require.NoError(t, repo.Ensure(context.Background(), &domain.User{ID: id, Username: username}))
}

func createPost(t *testing.T, repo *GormPostRepository, authorID, text string, groupID *uint, at time.Time) *domain.Post {
	t.Helper()
	p := &domain.Post{AuthorID: authorID, Text: text, GroupID: groupID, CreatedAt: at}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestUserRepository_EnsureUpserts(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(setupDB(t))

	ensureUser(t, repo, "u-1", "alice")
	ensureUser(t, repo, "u-1", "alice2")

	u, err := repo.GetByUsername(ctx, "alice2")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	_, err = repo.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_EnsureRejectsUsernameOfAnotherID(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := NewGormUserRepository(db)

	ensureUser(t, repo, "u-1", "alice")
	err := repo.Ensure(ctx, &domain.User{ID: "u-2", Username: "alice"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	u, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	var rows int64
	require.NoError(t, db.Model(&domain.UserModel{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestPostRepository_ListOrderAndPagination(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := NewGormUserRepository(db)
	posts := NewGormPostRepository(db)
	ensureUser(t, users, "u-1", "alice")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		createPost(t, posts, "u-1", fmt.Sprintf("post %d", i), nil, base.Add(time.Duration(i)*time.Minute))
	}

	page1, total, err := posts.List(ctx, PostCriteria{}, 1, domain.PageSize)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, page1, 10)
	assert.Equal(t, "post 11", page1[0].Text)
	assert.Equal(t, "alice", page1[0].AuthorUsername)
	for i := 1; i < len(page1); i++ {
		assert.True(t, page1[i-1].CreatedAt.After(page1[i].CreatedAt))
	}

	page2, _, err := posts.List(ctx, PostCriteria{}, 2, domain.PageSize)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "post 0", page2[1].Text)

	page9, total, err := posts.List(ctx, PostCriteria{}, 9, domain.PageSize)
	require.NoError(t, err)
	assert.Empty(t, page9)
	assert.Equal(t, int64(12), total)
}

func TestPostRepository_HugePageIsEmpty(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	ensureUser(t, NewGormUserRepository(db), "u-1", "alice")
	posts := NewGormPostRepository(db)
	createPost(t, posts, "u-1", "only", nil, time.Now().UTC())

	for _, page := range []int{2, int(1e18), math.MaxInt} {
		list, total, err := posts.List(ctx, PostCriteria{}, page, domain.PageSize)
		require.NoError(t, err)
		assert.Empty(t, list, "page %d", page)
		assert.Equal(t, int64(1), total)
	}
}

func TestPostRepository_TiesBrokenByID(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	ensureUser(t, NewGormUserRepository(db), "u-1", "alice")
	posts := NewGormPostRepository(db)

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := createPost(t, posts, "u-1", "first", nil, at)
	second := createPost(t, posts, "u-1", "second", nil, at)

	list, _, err := posts.List(ctx, PostCriteria{}, 1, domain.PageSize)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestPostRepository_Filters(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := NewGormUserRepository(db)
	groups := NewGormGroupRepository(db)
	posts := NewGormPostRepository(db)
	follows := NewGormFollowRepository(db)

	ensureUser(t, users, "a", "alice")
	ensureUser(t, users, "b", "bob")
	ensureUser(t, users, "c", "carol")

	tech := &domain.Group{Title: "Tech", Slug: "tech"}
	require.NoError(t, groups.Create(ctx, tech))

	now := time.Now().UTC()
	bobTech := createPost(t, posts, "b", "bob in tech", &tech.ID, now)
	createPost(t, posts, "b", "bob plain", nil, now.Add(time.Second))
	createPost(t, posts, "c", "carol plain", nil, now.Add(2*time.Second))

	inGroup, total, err := posts.List(ctx, PostCriteria{GroupID: tech.ID}, 1, domain.PageSize)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, inGroup, 1)
	assert.Equal(t, bobTech.ID, inGroup[0].ID)
	assert.Equal(t, "tech", inGroup[0].GroupSlug)

	byCarol, _, err := posts.List(ctx, PostCriteria{AuthorID: "c"}, 1, domain.PageSize)
	require.NoError(t, err)
	require.Len(t, byCarol, 1)
	assert.Equal(t, "carol plain", byCarol[0].Text)

	_, err = follows.Create(ctx, "a", "b")
	require.NoError(t, err)
	followed, total, err := posts.List(ctx, PostCriteria{FollowedBy: "a"}, 1, domain.PageSize)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, p := range followed {
		assert.Equal(t, "b", p.AuthorID)
	}

	none, total, err := posts.List(ctx, PostCriteria{FollowedBy: "c"}, 1, domain.PageSize)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Zero(t, total)
}

func TestPostRepository_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	ensureUser(t, NewGormUserRepository(db), "u-1", "alice")
	posts := NewGormPostRepository(db)

	at := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	p := createPost(t, posts, "u-1", "draft", nil, at)

	p.Text = "final"
	p.CreatedAt = time.Now()
	require.NoError(t, posts.Update(ctx, p))

	got, err := posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Text)
	assert.True(t, got.CreatedAt.Equal(at))
}

func TestPostRepository_DeleteRemovesComments(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	ensureUser(t, NewGormUserRepository(db), "u-1", "alice")
	posts := NewGormPostRepository(db)
	comments := NewGormCommentRepository(db)

	p := createPost(t, posts, "u-1", "hello", nil, time.Now().UTC())
	require.NoError(t, comments.Create(ctx, &domain.Comment{PostID: p.ID, AuthorID: "u-1", Text: "c1"}))

	require.NoError(t, posts.Delete(ctx, p.ID))

	_, err := posts.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	list, err := comments.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, posts.Delete(ctx, p.ID), ErrPostNotFound)
}

func TestCommentRepository_ListOldestFirst(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := NewGormUserRepository(db)
	ensureUser(t, users, "u-1", "alice")
	ensureUser(t, users, "u-2", "bob")
	posts := NewGormPostRepository(db)
	comments := NewGormCommentRepository(db)

	p := createPost(t, posts, "u-1", "hello", nil, time.Now().UTC())
	base := time.Now().UTC()
	require.NoError(t, comments.Create(ctx, &domain.Comment{PostID: p.ID, AuthorID: "u-2", Text: "second", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, comments.Create(ctx, &domain.Comment{PostID: p.ID, AuthorID: "u-1", Text: "first", CreatedAt: base}))

	list, err := comments.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Text)
	assert.Equal(t, "bob", list[1].AuthorUsername)

	require.NoError(t, comments.Delete(ctx, list[0].ID))
	assert.ErrorIs(t, comments.Delete(ctx, list[0].ID), ErrCommentNotFound)
}

func TestGroupRepository_DuplicateSlugAndDelete(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	ensureUser(t, NewGormUserRepository(db), "u-1", "alice")
	groups := NewGormGroupRepository(db)
	posts := NewGormPostRepository(db)

	g := &domain.Group{Title: "Tech", Slug: "tech"}
	require.NoError(t, groups.Create(ctx, g))
	assert.ErrorIs(t, groups.Create(ctx, &domain.Group{Title: "Other", Slug: "tech"}), ErrGroupSlugTaken)

	require.NoError(t, groups.Create(ctx, &domain.Group{Title: "Art", Slug: "art"}))
	list, err := groups.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Art", list[0].Title)

	p := createPost(t, posts, "u-1", "grouped", &g.ID, time.Now().UTC())
	require.NoError(t, groups.Delete(ctx, g.ID))

	got, err := posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)

	_, err = groups.GetBySlug(ctx, "tech")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestFollowRepository_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := NewGormUserRepository(db)
	ensureUser(t, users, "a", "alice")
	ensureUser(t, users, "b", "bob")
	follows := NewGormFollowRepository(db)

	created, err := follows.Create(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = follows.Create(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, created)

	var rows int64
	require.NoError(t, db.Model(&domain.FollowModel{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	ok, err := follows.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = follows.Exists(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	authors, err := follows.ListFollowedAuthors(ctx, "a")
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, "bob", authors[0].Username)

	followers, err := follows.CountFollowers(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
	following, err := follows.CountFollowing(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), following)

	require.NoError(t, follows.Delete(ctx, "a", "b"))
	assert.ErrorIs(t, follows.Delete(ctx, "a", "b"), ErrFollowNotFound)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := NewGormUserRepository(db)
	posts := NewGormPostRepository(db)
	comments := NewGormCommentRepository(db)
	follows := NewGormFollowRepository(db)

	ensureUser(t, users, "a", "alice")
	ensureUser(t, users, "b", "bob")

	alicePost := &domain.Post{AuthorID: "a", Text: "with image", ImageKey: "posts/a.png"}
	require.NoError(t, posts.Create(ctx, alicePost))
	bobPost := createPost(t, posts, "b", "bob", nil, time.Now().UTC())

	require.NoError(t, comments.Create(ctx, &domain.Comment{PostID: alicePost.ID, AuthorID: "b", Text: "on alice"}))
	require.NoError(t, comments.Create(ctx, &domain.Comment{PostID: bobPost.ID, AuthorID: "a", Text: "by alice"}))
	require.NoError(t, comments.Create(ctx, &domain.Comment{PostID: bobPost.ID, AuthorID: "b", Text: "by bob"}))
	_, err := follows.Create(ctx, "a", "b")
	require.NoError(t, err)
	_, err = follows.Create(ctx, "b", "a")
	require.NoError(t, err)

	keys, err := users.Delete(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/a.png"}, keys)

	_, err = users.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)

	remaining, err := comments.ListByPost(ctx, bobPost.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "by bob", remaining[0].Text)

	var commentRows, followRows int64
	require.NoError(t, db.Model(&domain.CommentModel{}).Count(&commentRows).Error)
	require.NoError(t, db.Model(&domain.FollowModel{}).Count(&followRows).Error)
	assert.Equal(t, int64(1), commentRows)
	assert.Zero(t, followRows)

	_, err = users.Delete(ctx, "a")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

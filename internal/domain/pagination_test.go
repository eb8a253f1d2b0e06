package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	cases := map[string]int{
		"":     1,
		"abc":  1,
		"0":    1,
		"-3":   1,
		"1":    1,
		" 7 ":  7,
		"2.5":  1,
		"1000": 1000,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParsePage(raw), "raw=%q", raw)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, PageSize))
	assert.Equal(t, 1, TotalPages(1, PageSize))
	assert.Equal(t, 1, TotalPages(10, PageSize))
	assert.Equal(t, 2, TotalPages(11, PageSize))
}

func TestNewPostPage_BeyondLastPage(t *testing.T) {
	page := NewPostPage(nil, 12, 5)

	assert.Empty(t, page.Posts)
	assert.NotNil(t, page.Posts)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 5, page.Page)
	assert.Equal(t, PageSize, page.PageSize)
}

func TestPost_ToResponse(t *testing.T) {
	gid := uint(3)
	p := &Post{
		ID:             9,
		Text:           "hello",
		AuthorID:       "u-1",
		AuthorUsername: "alice",
		GroupID:        &gid,
		GroupSlug:      "tech",
		GroupTitle:     "Tech",
		ImageKey:       "posts/x.png",
		CreatedAt:      time.Now(),
	}

	resp := p.ToResponse()
	assert.Equal(t, "/api/v1/profiles/alice/posts/9", resp.URL)
	assert.Equal(t, "/media/posts/x.png", resp.ImageURL)
	assert.Equal(t, "/media/posts/x_thumb.jpg", resp.ThumbURL)
	if assert.NotNil(t, resp.Group) {
		assert.Equal(t, "tech", resp.Group.Slug)
	}

	p.GroupID = nil
	p.ImageKey = ""
	resp = p.ToResponse()
	assert.Nil(t, resp.Group)
	assert.Empty(t, resp.ImageURL)
}

func TestActor_HasRole(t *testing.T) {
	a := Actor{ID: "u-1", Roles: []string{"editor", RoleAdmin}}
	assert.True(t, a.HasRole(RoleAdmin))
	assert.False(t, Actor{}.HasRole(RoleAdmin))
}

func TestPostURL_EscapesUsername(t *testing.T) {
	assert.Equal(t, "/api/v1/profiles/alice/posts/3", PostURL("alice", 3))
	assert.Equal(t, "/api/v1/profiles/a%20b/posts/3", PostURL("a b", 3))
	assert.Equal(t, "/api/v1/profiles/a%2Fb%3F/posts/3", PostURL("a/b?", 3))
}

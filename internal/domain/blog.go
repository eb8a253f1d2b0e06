package domain

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

// RoleAdmin grants group deletion and user removal.
const RoleAdmin = "admin"

// Actor is the authenticated principal performing an operation.
type Actor struct {
	ID       string
	Username string
	Roles    []string
}

// HasRole reports whether the actor holds role.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User is the local mirror of an external identity.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Group is a named collection posts may belong to.
type Group struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Post is a single entry written by an author.
type Post struct {
	ID             uint
	Text           string
	AuthorID       string
	AuthorUsername string
	GroupID        *uint
	GroupSlug      string
	GroupTitle     string
	ImageKey       string
	CreatedAt      time.Time
}

// AuthorOf returns the owning user id.
func (p *Post) AuthorOf() string { return p.AuthorID }

// Comment is a reply attached to a post.
type Comment struct {
	ID             uint
	Text           string
	PostID         uint
	AuthorID       string
	AuthorUsername string
	CreatedAt      time.Time
}

// AuthorOf returns the owning user id.
func (c *Comment) AuthorOf() string { return c.AuthorID }

// Follow is a directed edge: FollowerID sees AuthorID's posts.
type Follow struct {
	FollowerID string
	AuthorID   string
	CreatedAt  time.Time
}

// FollowCounts summarises both directions of a user's follow edges.
type FollowCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// ImageUpload is an image attached to a create or edit request.
type ImageUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// CreatePostRequest represents a create post request. Group is a slug.
type CreatePostRequest struct {
	Text  string `json:"text" form:"text" binding:"required"`
	Group string `json:"group" form:"group" binding:"max=100"`
}

// UpdatePostRequest represents an edit post request. A nil Group keeps the
// current group; an empty one clears it.
type UpdatePostRequest struct {
	Text       string  `json:"text" form:"text" binding:"required"`
	Group      *string `json:"group" form:"group"`
	ClearImage bool    `json:"clear_image" form:"clear_image"`
}

// CreateCommentRequest represents an add comment request.
type CreateCommentRequest struct {
	Text string `json:"text" form:"text" binding:"required"`
}

// CreateGroupRequest represents a create group request.
type CreateGroupRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Slug        string `json:"slug" binding:"required,max=100"`
	Description string `json:"description"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// GroupRef is the short group reference embedded in posts.
type GroupRef struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// PostResponse represents a post in API responses.
type PostResponse struct {
	ID        uint         `json:"id"`
	Text      string       `json:"text"`
	Author    UserResponse `json:"author"`
	Group     *GroupRef    `json:"group,omitempty"`
	ImageURL  string       `json:"image_url,omitempty"`
	ThumbURL  string       `json:"thumbnail_url,omitempty"`
	URL       string       `json:"url"`
	CreatedAt time.Time    `json:"created_at"`
}

// CommentResponse represents a comment in API responses.
type CommentResponse struct {
	ID        uint         `json:"id"`
	PostID    uint         `json:"post_id"`
	Text      string       `json:"text"`
	Author    UserResponse `json:"author"`
	CreatedAt time.Time    `json:"created_at"`
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// PostPage is one page of a feed. It is also the cached payload.
type PostPage struct {
	Posts      []PostResponse `json:"posts"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// PostDetail is a single post with its comments, oldest first.
type PostDetail struct {
	Post         PostResponse      `json:"post"`
	Comments     []CommentResponse `json:"comments"`
	CommentCount int               `json:"comment_count"`
}

// GroupFeed is a group together with a page of its posts.
type GroupFeed struct {
	Group GroupResponse `json:"group"`
	Posts PostPage      `json:"posts"`
}

// ProfileFeed is an author's page: their posts, follow counts and whether
// the viewer follows them.
type ProfileFeed struct {
	Author    UserResponse `json:"author"`
	Following bool         `json:"following"`
	Counts    FollowCounts `json:"counts"`
	Posts     PostPage     `json:"posts"`
}

// PostURL is the canonical location of a post.
func PostURL(username string, postID uint) string {
	return fmt.Sprintf("/api/v1/profiles/%s/posts/%d", url.PathEscape(username), postID)
}

// MediaURL is where a stored image is served from.
func MediaURL(key string) string {
	if key == "" {
		return ""
	}
	return "/media/" + key
}

// ThumbnailKey derives the key of the cropped preview stored next to an
// uploaded image: posts/ab12.png -> posts/ab12_thumb.jpg.
func ThumbnailKey(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSuffix(key, path.Ext(key)) + "_thumb.jpg"
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username}
}

func (g *Group) ToResponse() GroupResponse {
	return GroupResponse{
		ID:          g.ID,
		Title:       g.Title,
		Slug:        g.Slug,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
	}
}

func (p *Post) ToResponse() PostResponse {
	resp := PostResponse{
		ID:        p.ID,
		Text:      p.Text,
		Author:    UserResponse{ID: p.AuthorID, Username: p.AuthorUsername},
		ImageURL:  MediaURL(p.ImageKey),
		ThumbURL:  MediaURL(ThumbnailKey(p.ImageKey)),
		URL:       PostURL(p.AuthorUsername, p.ID),
		CreatedAt: p.CreatedAt,
	}
	if p.GroupID != nil && p.GroupSlug != "" {
		resp.Group = &GroupRef{Slug: p.GroupSlug, Title: p.GroupTitle}
	}
	return resp
}

func (c *Comment) ToResponse() CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		Text:      c.Text,
		Author:    UserResponse{ID: c.AuthorID, Username: c.AuthorUsername},
		CreatedAt: c.CreatedAt,
	}
}

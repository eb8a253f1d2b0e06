package domain

import (
	"time"
)

// UserModel mirrors principals of the external identity provider.
type UserModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Username  string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *User {
	return &User{ID: m.ID, Username: m.Username, CreatedAt: m.CreatedAt}
}

// GroupModel is the GORM model for the groups table.
type GroupModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Title       string    `gorm:"type:varchar(200);not null"`
	Slug        string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (GroupModel) TableName() string { return "groups" }

func (m *GroupModel) ToDomain() *Group {
	return &Group{
		ID:          m.ID,
		Title:       m.Title,
		Slug:        m.Slug,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

func GroupToModel(g *Group) *GroupModel {
	return &GroupModel{
		ID:          g.ID,
		Title:       g.Title,
		Slug:        g.Slug,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
	}
}

// PostModel is the GORM model for the posts table. CreatedAt is written
// once on insert; updates go through an explicit column list.
type PostModel struct {
	ID        uint        `gorm:"primaryKey;autoIncrement"`
	Text      string      `gorm:"type:text;not null"`
	AuthorID  string      `gorm:"type:varchar(36);index;not null"`
	GroupID   *uint       `gorm:"index"`
	ImageKey  string      `gorm:"type:varchar(255)"`
	CreatedAt time.Time   `gorm:"index;autoCreateTime"`
	Author    *UserModel  `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Group     *GroupModel `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
}

func (PostModel) TableName() string { return "posts" }

func (m *PostModel) ToDomain() *Post {
	p := &Post{
		ID:        m.ID,
		Text:      m.Text,
		AuthorID:  m.AuthorID,
		GroupID:   m.GroupID,
		ImageKey:  m.ImageKey,
		CreatedAt: m.CreatedAt,
	}
	if m.Author != nil {
		p.AuthorUsername = m.Author.Username
	}
	if m.Group != nil {
		p.GroupSlug = m.Group.Slug
		p.GroupTitle = m.Group.Title
	}
	return p
}

func PostToModel(p *Post) *PostModel {
	return &PostModel{
		ID:        p.ID,
		Text:      p.Text,
		AuthorID:  p.AuthorID,
		GroupID:   p.GroupID,
		ImageKey:  p.ImageKey,
		CreatedAt: p.CreatedAt,
	}
}

// CommentModel is the GORM model for the comments table.
type CommentModel struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"`
	Text      string     `gorm:"type:text;not null"`
	PostID    uint       `gorm:"index;not null"`
	AuthorID  string     `gorm:"type:varchar(36);index;not null"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	Post      *PostModel `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Author    *UserModel `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func (CommentModel) TableName() string { return "comments" }

func (m *CommentModel) ToDomain() *Comment {
	c := &Comment{
		ID:        m.ID,
		Text:      m.Text,
		PostID:    m.PostID,
		AuthorID:  m.AuthorID,
		CreatedAt: m.CreatedAt,
	}
	if m.Author != nil {
		c.AuthorUsername = m.Author.Username
	}
	return c
}

// FollowModel is the GORM model for the follows table. The composite
// unique index is what makes a second follow a no-op.
type FollowModel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	FollowerID string    `gorm:"column:follower_id;type:varchar(36);not null;uniqueIndex:uidx_follow_pair,priority:1"`
	AuthorID   string    `gorm:"column:author_id;type:varchar(36);not null;uniqueIndex:uidx_follow_pair,priority:2;index:idx_follows_author"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (FollowModel) TableName() string { return "follows" }

func (m *FollowModel) ToDomain() *Follow {
	return &Follow{FollowerID: m.FollowerID, AuthorID: m.AuthorID, CreatedAt: m.CreatedAt}
}

// AllModels lists every table for AutoMigrate, parents first.
func AllModels() []interface{} {
	return []interface{}{
		&UserModel{},
		&GroupModel{},
		&PostModel{},
		&CommentModel{},
		&FollowModel{},
	}
}

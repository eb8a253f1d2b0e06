package pubsub

// ChannelBlogEvents carries every domain event of the blog service.
const ChannelBlogEvents = "blog:events"

// Event types.
const (
	EventPostCreated    = "post.created"
	EventPostUpdated    = "post.updated"
	EventPostDeleted    = "post.deleted"
	EventCommentCreated = "comment.created"
	EventFollowCreated  = "follow.created"
	EventFollowDeleted  = "follow.deleted"
)

// PostPayload accompanies post.* events.
type PostPayload struct {
	PostID    uint    `json:"post_id"`
	AuthorID  string  `json:"author_id"`
	GroupSlug *string `json:"group_slug,omitempty"`
}

// CommentPayload accompanies comment.* events.
type CommentPayload struct {
	CommentID uint   `json:"comment_id"`
	PostID    uint   `json:"post_id"`
	AuthorID  string `json:"author_id"`
}

// FollowPayload accompanies follow.* events.
type FollowPayload struct {
	FollowerID string `json:"follower_id"`
	AuthorID   string `json:"author_id"`
}

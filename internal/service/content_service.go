package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/weiawesome/wes-blog/internal/audit"
	"github.com/weiawesome/wes-blog/internal/clock"
	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/internal/media"
	"github.com/weiawesome/wes-blog/internal/repository"
	"github.com/weiawesome/wes-blog/pkg/log"
	"github.com/weiawesome/wes-blog/pkg/pubsub"
)

const (
	maxGroupTitleLen = 200
	maxGroupSlugLen  = 100
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ImageStore is the subset of media.ImageStore the content service needs.
type ImageStore interface {
	Save(ctx context.Context, upload *domain.ImageUpload) (string, error)
	Delete(ctx context.Context, key string) error
}

// ContentRepositories groups the stores backing ContentService.
type ContentRepositories struct {
	Users    repository.UserRepository
	Groups   repository.GroupRepository
	Posts    repository.PostRepository
	Comments repository.CommentRepository
}

// contentServiceImpl implements ContentService.
type contentServiceImpl struct {
	users     repository.UserRepository
	groups    repository.GroupRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	images    ImageStore
	publisher pubsub.Publisher
	clock     clock.Clock
}

// NewContentService creates a new content service. images and publisher
// may be nil; uploads are then rejected and events dropped.
func NewContentService(repos ContentRepositories, images ImageStore, publisher pubsub.Publisher, clk clock.Clock) ContentService {
	if clk == nil {
		clk = clock.Real{}
	}
	return &contentServiceImpl{
		users:     repos.Users,
		groups:    repos.Groups,
		posts:     repos.Posts,
		comments:  repos.Comments,
		images:    images,
		publisher: publisher,
		clock:     clk,
	}
}

// ensureActor mirrors the authenticated principal into the users table.
func ensureActor(ctx context.Context, users repository.UserRepository, actor domain.Actor) error {
	if actor.ID == "" {
		return ErrUnauthenticated
	}
	err := users.Ensure(ctx, &domain.User{ID: actor.ID, Username: actor.Username})
	if errors.Is(err, repository.ErrUsernameTaken) {
		return ErrUsernameUsed
	}
	return err
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid("text", "text is required")
	}
	return nil
}

// resolveGroup maps a slug onto a group id; an empty slug means no group.
func (s *contentServiceImpl) resolveGroup(ctx context.Context, slug string) (*domain.Group, error) {
	if slug == "" {
		return nil, nil
	}
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

func (s *contentServiceImpl) saveImage(ctx context.Context, upload *domain.ImageUpload) (string, error) {
	if upload == nil {
		return "", nil
	}
	if s.images == nil {
		return "", invalid("image", "image uploads are disabled")
	}
	key, err := s.images.Save(ctx, upload)
	switch {
	case errors.Is(err, media.ErrImageTooLarge):
		return "", invalid("image", "image is too large")
	case errors.Is(err, media.ErrUnsupportedImage):
		return "", invalid("image", "upload a valid JPEG, PNG or GIF image")
	case err != nil:
		return "", err
	}
	return key, nil
}

// dropImage removes a stored image without failing the caller.
func (s *contentServiceImpl) dropImage(ctx context.Context, key string) {
	if key == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldMediaKey, key).Msg("failed to delete image")
	}
}

// loadPost fetches a post addressed by its author's username.
func (s *contentServiceImpl) loadPost(ctx context.Context, username string, postID uint) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if post.AuthorUsername != username {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// loadOwnedPost fetches a post that actor is allowed to change.
func (s *contentServiceImpl) loadOwnedPost(ctx context.Context, actor domain.Actor, username string, postID uint) (*domain.Post, error) {
	if actor.ID == "" {
		return nil, ErrUnauthenticated
	}
	post, err := s.loadPost(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	if !canMutate(actor, post) {
		return nil, ErrNotAuthor
	}
	return post, nil
}

func applyGroup(post *domain.Post, group *domain.Group) {
	if group == nil {
		post.GroupID, post.GroupSlug, post.GroupTitle = nil, "", ""
		return
	}
	id := group.ID
	post.GroupID, post.GroupSlug, post.GroupTitle = &id, group.Slug, group.Title
}

func postPayload(post *domain.Post) pubsub.PostPayload {
	payload := pubsub.PostPayload{PostID: post.ID, AuthorID: post.AuthorID}
	if post.GroupSlug != "" {
		slug := post.GroupSlug
		payload.GroupSlug = &slug
	}
	return payload
}

// CreatePost validates and stores a new post. The image is stored before
// the row and removed again if the insert fails.
func (s *contentServiceImpl) CreatePost(ctx context.Context, actor domain.Actor, req *domain.CreatePostRequest, image *domain.ImageUpload) (*domain.PostResponse, error) {
	if err := ensureActor(ctx, s.users, actor); err != nil {
		return nil, err
	}
	if err := validateText(req.Text); err != nil {
		return nil, err
	}
	group, err := s.resolveGroup(ctx, req.Group)
	if err != nil {
		return nil, err
	}

	imageKey, err := s.saveImage(ctx, image)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		Text:           req.Text,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		ImageKey:       imageKey,
		CreatedAt:      s.clock.Now(),
	}
	applyGroup(post, group)

	if err := s.posts.Create(ctx, post); err != nil {
		s.dropImage(ctx, imageKey)
		return nil, err
	}

	audit.Log(ctx, audit.ActionCreatePost, actor.ID, fmt.Sprintf("post:%d", post.ID), "post created")
	publish(ctx, s.publisher, pubsub.EventPostCreated, actor.ID, postPayload(post))

	resp := post.ToResponse()
	return &resp, nil
}

// GetPost returns a post with its comments.
func (s *contentServiceImpl) GetPost(ctx context.Context, username string, postID uint) (*domain.PostDetail, error) {
	post, err := s.loadPost(ctx, username, postID)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	detail := &domain.PostDetail{
		Post:         post.ToResponse(),
		Comments:     make([]domain.CommentResponse, len(comments)),
		CommentCount: len(comments),
	}
	for i := range comments {
		detail.Comments[i] = comments[i].ToResponse()
	}
	return detail, nil
}

// EditPost changes text, group and image. Ownership is checked before
// anything, including the image upload, is touched; created_at is kept.
func (s *contentServiceImpl) EditPost(ctx context.Context, actor domain.Actor, username string, postID uint, req *domain.UpdatePostRequest, image *domain.ImageUpload) (*domain.PostResponse, error) {
	post, err := s.loadOwnedPost(ctx, actor, username, postID)
	if err != nil {
		return nil, err
	}

	if err := validateText(req.Text); err != nil {
		return nil, err
	}
	if req.Group != nil {
		group, err := s.resolveGroup(ctx, *req.Group)
		if err != nil {
			return nil, err
		}
		applyGroup(post, group)
	}

	oldKey := post.ImageKey
	newKey, err := s.saveImage(ctx, image)
	if err != nil {
		return nil, err
	}
	switch {
	case newKey != "":
		post.ImageKey = newKey
	case req.ClearImage:
		post.ImageKey = ""
	}

	post.Text = req.Text
	if err := s.posts.Update(ctx, post); err != nil {
		s.dropImage(ctx, newKey)
		return nil, err
	}
	if oldKey != "" && oldKey != post.ImageKey {
		s.dropImage(ctx, oldKey)
	}

	audit.Log(ctx, audit.ActionEditPost, actor.ID, fmt.Sprintf("post:%d", post.ID), "post edited")
	publish(ctx, s.publisher, pubsub.EventPostUpdated, actor.ID, postPayload(post))

	resp := post.ToResponse()
	return &resp, nil
}

// AuthorizePostEdit checks that the post exists and actor may change it,
// so callers can refuse before reading the request body.
func (s *contentServiceImpl) AuthorizePostEdit(ctx context.Context, actor domain.Actor, username string, postID uint) error {
	_, err := s.loadOwnedPost(ctx, actor, username, postID)
	return err
}

// DeletePost removes comments, the post, then its image.
func (s *contentServiceImpl) DeletePost(ctx context.Context, actor domain.Actor, username string, postID uint) error {
	post, err := s.loadOwnedPost(ctx, actor, username, postID)
	if err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	s.dropImage(ctx, post.ImageKey)

	audit.Log(ctx, audit.ActionDeletePost, actor.ID, fmt.Sprintf("post:%d", post.ID), "post deleted")
	publish(ctx, s.publisher, pubsub.EventPostDeleted, actor.ID, postPayload(post))
	return nil
}

// ListPosts returns one page of posts under filter, newest first.
func (s *contentServiceImpl) ListPosts(ctx context.Context, filter domain.PostFilter, page int) (*domain.PostPage, error) {
	if page < 1 {
		page = 1
	}

	var criteria repository.PostCriteria
	switch filter.Kind {
	case domain.FilterAll:
	case domain.FilterByGroup:
		group, err := s.resolveGroup(ctx, filter.GroupSlug)
		if err != nil {
			return nil, err
		}
		if group == nil {
			return nil, ErrGroupNotFound
		}
		criteria.GroupID = group.ID
	case domain.FilterByAuthor:
		author, err := s.GetUser(ctx, filter.Username)
		if err != nil {
			return nil, err
		}
		criteria.AuthorID = author.ID
	case domain.FilterByFollowedAuthorsOf:
		if filter.FollowerID == "" {
			return nil, ErrUnauthenticated
		}
		criteria.FollowedBy = filter.FollowerID
	default:
		return nil, fmt.Errorf("unknown post filter %d", filter.Kind)
	}

	posts, total, err := s.posts.List(ctx, criteria, page, domain.PageSize)
	if err != nil {
		return nil, err
	}
	return domain.NewPostPage(posts, total, page), nil
}

// AddComment attaches a comment to a post.
func (s *contentServiceImpl) AddComment(ctx context.Context, actor domain.Actor, username string, postID uint, req *domain.CreateCommentRequest) (*domain.CommentResponse, error) {
	if err := ensureActor(ctx, s.users, actor); err != nil {
		return nil, err
	}
	if err := validateText(req.Text); err != nil {
		return nil, err
	}
	post, err := s.loadPost(ctx, username, postID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		Text:           req.Text,
		PostID:         post.ID,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionCreateComment, actor.ID, fmt.Sprintf("post:%d", post.ID), "comment added")
	publish(ctx, s.publisher, pubsub.EventCommentCreated, actor.ID, pubsub.CommentPayload{
		CommentID: comment.ID,
		PostID:    post.ID,
		AuthorID:  actor.ID,
	})

	resp := comment.ToResponse()
	return &resp, nil
}

// DeleteComment removes a comment written by actor.
func (s *contentServiceImpl) DeleteComment(ctx context.Context, actor domain.Actor, commentID uint) error {
	if actor.ID == "" {
		return ErrUnauthenticated
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if !canMutate(actor, comment) {
		return ErrNotAuthor
	}

	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	audit.Log(ctx, audit.ActionDeleteComment, actor.ID, fmt.Sprintf("comment:%d", comment.ID), "comment deleted")
	return nil
}

// CreateGroup validates and stores a new group.
func (s *contentServiceImpl) CreateGroup(ctx context.Context, actor domain.Actor, req *domain.CreateGroupRequest) (*domain.GroupResponse, error) {
	if actor.ID == "" {
		return nil, ErrUnauthenticated
	}

	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		return nil, invalid("title", "title is required")
	case utf8.RuneCountInString(title) > maxGroupTitleLen:
		return nil, invalid("title", fmt.Sprintf("title must be at most %d characters", maxGroupTitleLen))
	}
	switch {
	case req.Slug == "":
		return nil, invalid("slug", "slug is required")
	case len(req.Slug) > maxGroupSlugLen:
		return nil, invalid("slug", fmt.Sprintf("slug must be at most %d characters", maxGroupSlugLen))
	case !slugPattern.MatchString(req.Slug):
		return nil, invalid("slug", "slug may contain only letters, digits, hyphens and underscores")
	}

	group := &domain.Group{Title: title, Slug: req.Slug, Description: req.Description}
	if err := s.groups.Create(ctx, group); err != nil {
		if errors.Is(err, repository.ErrGroupSlugTaken) {
			return nil, invalid("slug", "a group with this slug already exists")
		}
		return nil, err
	}

	audit.Log(ctx, audit.ActionCreateGroup, actor.ID, "group:"+group.Slug, "group created")

	resp := group.ToResponse()
	return &resp, nil
}

// GetGroup retrieves a group by slug.
func (s *contentServiceImpl) GetGroup(ctx context.Context, slug string) (*domain.GroupResponse, error) {
	group, err := s.resolveGroup(ctx, slug)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	resp := group.ToResponse()
	return &resp, nil
}

// ListGroups returns all groups ordered by title.
func (s *contentServiceImpl) ListGroups(ctx context.Context) ([]domain.GroupResponse, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.GroupResponse, len(groups))
	for i := range groups {
		resp[i] = groups[i].ToResponse()
	}
	return resp, nil
}

// DeleteGroup removes a group; its posts remain without a group.
func (s *contentServiceImpl) DeleteGroup(ctx context.Context, actor domain.Actor, slug string) error {
	if actor.ID == "" {
		return ErrUnauthenticated
	}
	if !actor.HasRole(domain.RoleAdmin) {
		return ErrAdminOnly
	}
	group, err := s.resolveGroup(ctx, slug)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}

	if err := s.groups.Delete(ctx, group.ID); err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return ErrGroupNotFound
		}
		return err
	}

	audit.Log(ctx, audit.ActionDeleteGroup, actor.ID, "group:"+slug, "group deleted")
	return nil
}

// GetUser retrieves a user by username.
func (s *contentServiceImpl) GetUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user and everything they own. Admins may delete
// anyone; other users only themselves.
func (s *contentServiceImpl) DeleteUser(ctx context.Context, actor domain.Actor, username string) error {
	if actor.ID == "" {
		return ErrUnauthenticated
	}
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return err
	}
	if user.ID != actor.ID && !actor.HasRole(domain.RoleAdmin) {
		return ErrAdminOnly
	}

	imageKeys, err := s.users.Delete(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	for _, key := range imageKeys {
		s.dropImage(ctx, key)
	}

	audit.Log(ctx, audit.ActionDeleteUser, actor.ID, "user:"+user.ID, "user deleted")
	return nil
}

var _ ContentService = (*contentServiceImpl)(nil)

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/internal/media"
	"github.com/weiawesome/wes-blog/internal/service"
	"github.com/weiawesome/wes-blog/pkg/log"
	"github.com/weiawesome/wes-blog/pkg/middleware"
	"github.com/weiawesome/wes-blog/pkg/response"
)

// MediaSource serves stored images.
type MediaSource interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Handler handles HTTP requests for the blog.
type Handler struct {
	content        service.ContentService
	graph          service.SocialGraphService
	feed           service.FeedService
	media          MediaSource
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(content service.ContentService, graph service.SocialGraphService, feed service.FeedService, mediaSource MediaSource, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		content:        content,
		graph:          graph,
		feed:           feed,
		media:          mediaSource,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	auth := h.authMiddleware

	api := r.Group("/api/v1")
	{
		posts := api.Group("/posts")
		{
			posts.GET("", auth.OptionalAuth(), h.GlobalFeed)
			posts.POST("", auth.RequireAuth(), h.CreatePost)
		}

		api.GET("/feed", auth.RequireAuth(), h.FollowingFeed)

		groups := api.Group("/groups")
		{
			groups.GET("", h.ListGroups)
			groups.GET("/:slug", h.GroupFeed)
			groups.POST("", auth.RequireAuth(), h.CreateGroup)
			groups.DELETE("/:slug", auth.RequireAuth(), auth.RequireRole(domain.RoleAdmin), h.DeleteGroup)
		}

		profiles := api.Group("/profiles/:username")
		{
			profiles.GET("", auth.OptionalAuth(), h.ProfileFeed)
			profiles.DELETE("", auth.RequireAuth(), h.DeleteUser)
			profiles.POST("/follow", auth.RequireAuth(), h.Follow)
			profiles.DELETE("/follow", auth.RequireAuth(), h.Unfollow)

			profiles.GET("/posts/:post_id", h.GetPost)
			profiles.PUT("/posts/:post_id", auth.RequireAuth(), h.EditPost)
			profiles.DELETE("/posts/:post_id", auth.RequireAuth(), h.DeletePost)
			profiles.POST("/posts/:post_id/comments", auth.RequireAuth(), h.AddComment)
		}

		api.DELETE("/comments/:comment_id", auth.RequireAuth(), h.DeleteComment)
	}

	r.GET("/media/*key", h.ServeMedia)
}

func currentActor(c *gin.Context) domain.Actor {
	return domain.Actor{
		ID:       middleware.GetUserID(c),
		Username: middleware.GetUsername(c),
		Roles:    middleware.GetRoles(c),
	}
}

func optionalViewer(c *gin.Context) *domain.Actor {
	if !middleware.IsAuthenticated(c) {
		return nil
	}
	viewer := currentActor(c)
	return &viewer
}

func page(c *gin.Context) int {
	return domain.ParsePage(c.Query("page"))
}

func postIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil {
		response.NotFound(c, "post not found")
		return 0, false
	}
	return uint(id), true
}

// bindRequest binds JSON or form bodies and reports binding failures as
// field errors.
func bindRequest(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBind(req); err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("failed to bind request")

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[strings.ToLower(fe.Field())] = "failed on the '" + fe.Tag() + "' rule"
			}
			response.ValidationFailed(c, "invalid request", fields)
			return false
		}
		response.BadRequest(c, err.Error())
		return false
	}
	return true
}

// imageUpload returns the optional multipart "image" file.
func imageUpload(c *gin.Context) (*domain.ImageUpload, func(), error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, func() {}, nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &domain.ImageUpload{Filename: fh.Filename, Size: fh.Size, Content: f}, func() { f.Close() }, nil
}

// writeError maps service errors onto responses.
func (h *Handler) writeError(c *gin.Context, err error, msg string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(c, verr.Message, map[string]string{verr.Field: verr.Message})
	case errors.Is(err, service.ErrUnauthenticated):
		h.authMiddleware.RedirectToLogin(c)
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg(msg)
		response.InternalError(c, msg)
	}
}

// writePostError sends refused post mutations back to the post.
func (h *Handler) writePostError(c *gin.Context, err error, msg string, username string, postID uint) {
	if errors.Is(err, service.ErrForbidden) {
		response.SeeOther(c, domain.PostURL(username, postID))
		return
	}
	h.writeError(c, err, msg)
}

// GlobalFeed returns all posts, newest first.
func (h *Handler) GlobalFeed(c *gin.Context) {
	result, err := h.feed.GetGlobalFeed(c.Request.Context(), page(c))
	if err != nil {
		h.writeError(c, err, "failed to get feed")
		return
	}
	response.Success(c, result)
}

// FollowingFeed returns posts by authors the caller follows.
func (h *Handler) FollowingFeed(c *gin.Context) {
	viewer := currentActor(c)
	result, err := h.feed.GetFollowingFeed(c.Request.Context(), &viewer, page(c))
	if err != nil {
		h.writeError(c, err, "failed to get following feed")
		return
	}
	response.Success(c, result)
}

// CreatePost creates a post from JSON or a multipart form with an image.
func (h *Handler) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.CreatePostRequest
	if !bindRequest(c, &req) {
		return
	}
	image, closeImage, err := imageUpload(c)
	if err != nil {
		response.ValidationFailed(c, "invalid image upload", map[string]string{"image": err.Error()})
		return
	}
	defer closeImage()

	post, err := h.content.CreatePost(ctx, currentActor(c), &req, image)
	if err != nil {
		h.writeError(c, err, "failed to create post")
		return
	}
	c.Header("Location", post.URL)
	response.Created(c, post)
}

// GetPost returns a post and its comments.
func (h *Handler) GetPost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	detail, err := h.content.GetPost(c.Request.Context(), c.Param("username"), postID)
	if err != nil {
		h.writeError(c, err, "failed to get post")
		return
	}
	response.Success(c, detail)
}

// EditPost updates a post written by the caller.
func (h *Handler) EditPost(c *gin.Context) {
	ctx := c.Request.Context()
	username := c.Param("username")
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	actor := currentActor(c)

	// Ownership is settled before the body is looked at.
	if err := h.content.AuthorizePostEdit(ctx, actor, username, postID); err != nil {
		h.writePostError(c, err, "failed to edit post", username, postID)
		return
	}

	var req domain.UpdatePostRequest
	if !bindRequest(c, &req) {
		return
	}
	image, closeImage, err := imageUpload(c)
	if err != nil {
		response.ValidationFailed(c, "invalid image upload", map[string]string{"image": err.Error()})
		return
	}
	defer closeImage()

	post, err := h.content.EditPost(ctx, actor, username, postID, &req, image)
	if err != nil {
		h.writePostError(c, err, "failed to edit post", username, postID)
		return
	}
	response.Success(c, post)
}

// DeletePost removes a post written by the caller.
func (h *Handler) DeletePost(c *gin.Context) {
	username := c.Param("username")
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := h.content.DeletePost(c.Request.Context(), currentActor(c), username, postID); err != nil {
		h.writePostError(c, err, "failed to delete post", username, postID)
		return
	}
	response.Success(c, gin.H{"message": "post deleted"})
}

// AddComment comments on a post.
func (h *Handler) AddComment(c *gin.Context) {
	username := c.Param("username")
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	var req domain.CreateCommentRequest
	if !bindRequest(c, &req) {
		return
	}

	comment, err := h.content.AddComment(c.Request.Context(), currentActor(c), username, postID, &req)
	if err != nil {
		h.writeError(c, err, "failed to add comment")
		return
	}
	response.Created(c, comment)
}

// DeleteComment removes a comment written by the caller.
func (h *Handler) DeleteComment(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		response.NotFound(c, "comment not found")
		return
	}

	if err := h.content.DeleteComment(c.Request.Context(), currentActor(c), uint(commentID)); err != nil {
		h.writeError(c, err, "failed to delete comment")
		return
	}
	response.Success(c, gin.H{"message": "comment deleted"})
}

// ListGroups lists all groups.
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.content.ListGroups(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "failed to list groups")
		return
	}
	response.Success(c, groups)
}

// CreateGroup creates a group.
func (h *Handler) CreateGroup(c *gin.Context) {
	var req domain.CreateGroupRequest
	if !bindRequest(c, &req) {
		return
	}

	group, err := h.content.CreateGroup(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		h.writeError(c, err, "failed to create group")
		return
	}
	response.Created(c, group)
}

// GroupFeed returns a group with a page of its posts.
func (h *Handler) GroupFeed(c *gin.Context) {
	result, err := h.feed.GetGroupFeed(c.Request.Context(), c.Param("slug"), page(c))
	if err != nil {
		h.writeError(c, err, "failed to get group feed")
		return
	}
	response.Success(c, result)
}

// DeleteGroup removes a group; admin only.
func (h *Handler) DeleteGroup(c *gin.Context) {
	if err := h.content.DeleteGroup(c.Request.Context(), currentActor(c), c.Param("slug")); err != nil {
		h.writeError(c, err, "failed to delete group")
		return
	}
	response.Success(c, gin.H{"message": "group deleted"})
}

// ProfileFeed returns an author's posts and follow state.
func (h *Handler) ProfileFeed(c *gin.Context) {
	result, err := h.feed.GetProfileFeed(c.Request.Context(), c.Param("username"), optionalViewer(c), page(c))
	if err != nil {
		h.writeError(c, err, "failed to get profile")
		return
	}
	response.Success(c, result)
}

// DeleteUser removes an account and its content.
func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.content.DeleteUser(c.Request.Context(), currentActor(c), c.Param("username")); err != nil {
		h.writeError(c, err, "failed to delete user")
		return
	}
	response.Success(c, gin.H{"message": "user deleted"})
}

// Follow makes the caller follow an author.
func (h *Handler) Follow(c *gin.Context) {
	username := c.Param("username")
	if err := h.graph.Follow(c.Request.Context(), currentActor(c), username); err != nil {
		h.writeError(c, err, "failed to follow")
		return
	}
	response.Success(c, gin.H{"following": true, "username": username})
}

// Unfollow removes the caller's follow of an author.
func (h *Handler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if err := h.graph.Unfollow(c.Request.Context(), currentActor(c), username); err != nil {
		h.writeError(c, err, "failed to unfollow")
		return
	}
	response.Success(c, gin.H{"following": false, "username": username})
}

// ServeMedia streams a stored image.
func (h *Handler) ServeMedia(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	rc, contentType, err := h.media.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, media.ErrImageNotFound) {
			response.NotFound(c, "image not found")
			return
		}
		h.writeError(c, err, "failed to read image")
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

package audit

import (
	"context"

	"github.com/weiawesome/wes-blog/pkg/log"
)

// Audit actions for blog-service.
const (
	ActionCreatePost    = "post.create"
	ActionEditPost      = "post.edit"
	ActionDeletePost    = "post.delete"
	ActionCreateComment = "comment.create"
	ActionDeleteComment = "comment.delete"
	ActionCreateGroup   = "group.create"
	ActionDeleteGroup   = "group.delete"
	ActionFollow        = "follow.create"
	ActionUnfollow      = "follow.delete"
	ActionDeleteUser    = "user.delete"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldTarget = "target"
)

// Log emits a structured audit entry via the context logger.
func Log(ctx context.Context, action, userID, target, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldTarget, target).
		Msg(msg)
}

package service

import (
	"context"

	"github.com/weiawesome/wes-blog/pkg/log"
	"github.com/weiawesome/wes-blog/pkg/pubsub"
)

// publish emits a domain event after a committed mutation. Failures are
// logged and never surface to the caller.
func publish(ctx context.Context, pub pubsub.Publisher, eventType, subjectID string, payload interface{}) {
	if pub == nil {
		return
	}
	l := log.Ctx(ctx)

	event, err := pubsub.NewEvent(eventType, subjectID, payload)
	if err != nil {
		l.Warn().Err(err).Str(log.FieldEventType, eventType).Msg("failed to build event")
		return
	}
	if err := pub.Publish(ctx, pubsub.ChannelBlogEvents, event); err != nil {
		l.Warn().Err(err).Str(log.FieldEventType, eventType).Msg("failed to publish event")
	}
}

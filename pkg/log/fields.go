package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware keys)
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Service
	FieldService = "service"

	// Blog entities
	FieldPostID    = "post_id"
	FieldCommentID = "comment_id"
	FieldGroupSlug = "group_slug"
	FieldAuthorID  = "author_id"
	FieldFeed      = "feed"
	FieldPage      = "page"
	FieldCacheKey  = "cache_key"
	FieldMediaKey  = "media_key"
	FieldEventType = "event_type"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)

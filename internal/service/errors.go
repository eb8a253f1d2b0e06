package service

import (
	"errors"
	"fmt"
)

// Error categories. Handlers branch on these with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthenticated  = errors.New("authentication required")
)

var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrGroupNotFound   = fmt.Errorf("group %w", ErrNotFound)
	ErrPostNotFound    = fmt.Errorf("post %w", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
	ErrNotFollowing    = fmt.Errorf("follow relationship %w", ErrNotFound)

	ErrNotAuthor    = fmt.Errorf("only the author may change this: %w", ErrForbidden)
	ErrAdminOnly    = fmt.Errorf("admin role required: %w", ErrForbidden)
	ErrSelfFollow   = &ValidationError{Field: "username", Message: "you cannot follow yourself"}
	ErrUsernameUsed = &ValidationError{Field: "username", Message: "username belongs to another account"}
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

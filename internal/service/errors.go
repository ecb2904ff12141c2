package service

import "errors"

// Store-level violations. Surfaced to callers as 4xx responses with the
// specific code; never silently dropped or retried.
var (
	ErrInvalidParticipants  = errors.New("invalid participants")
	ErrInsufficientMembers  = errors.New("group needs at least two other members")
	ErrEmptyMessage         = errors.New("message needs content or an image")
	ErrNotAParticipant      = errors.New("user is not a participant of this conversation")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUnauthorized         = errors.New("not allowed to access this conversation")
)

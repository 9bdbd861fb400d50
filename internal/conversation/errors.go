package conversation

import "errors"

// Submissions rejected with these errors leave the transcript untouched.
var (
	ErrEmptyInput    = errors.New("input is empty")
	ErrReplyPending  = errors.New("a reply is already pending")
	ErrSessionClosed = errors.New("session is closed")
)

// Reply backend failures. Only ErrNetworkFailure is retried.
var (
	ErrNetworkFailure  = errors.New("reply backend unreachable")
	ErrInvalidResponse = errors.New("invalid reply from backend")
)

package library

import "errors"

// Error kinds. Match with errors.Is.
var (
	ErrUpstreamFetch          = errors.New("upstream-fetch-failure")
	ErrPersistence            = errors.New("persistence-failure")
	ErrNotFoundOrUnauthorized = errors.New("not-found-or-unauthorized")
	ErrInvalidInput           = errors.New("invalid-input")
)

// Messages shown to users. Internal causes are only logged.
const (
	MsgFetchFailed    = "Could not fetch book data. Please try again later."
	MsgSaveFailed     = "Could not save book data."
	MsgListFailed     = "Could not fetch user's books."
	MsgDeleteFailed   = "Could not delete book. Please try again."
	MsgNotFound       = "No book found or unauthorized access."
	MsgDeleted        = "Book deleted successfully."
	MsgTitleRequired  = "Title is required."
	MsgUserIDRequired = "User id is required."
)

// Error is returned by every Service operation. Error() is the user-facing
// message; errors.Is matches the kind.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error // internal cause, may be nil
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// Message returns the user-facing text for err, falling back to a generic
// message for errors that did not come from this package.
func Message(err error) string {
	var libErr *Error
	if errors.As(err, &libErr) {
		return libErr.Message
	}
	return "Something went wrong. Please try again."
}

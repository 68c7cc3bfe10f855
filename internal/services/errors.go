package services

import (
	"errors"
	"net/http"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidUsername    = errors.New("username must be 3-64 characters")
	ErrInvalidPassword    = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserSuspended      = errors.New("user is suspended")
	ErrInvalidStatus      = errors.New("invalid user status")

	ErrSessionNotFound = errors.New("session not found or expired")

	ErrCannotFriendSelf        = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends          = errors.New("users are already friends")
	ErrDuplicatePending        = errors.New("a pending friend request already exists")
	ErrFriendRequestNotFound   = errors.New("friend request not found")
	ErrNotRequestRecipient     = errors.New("only the recipient can accept or reject a request")
	ErrRequestAlreadyProcessed = errors.New("friend request already processed")

	ErrEmptyMessage        = errors.New("message content cannot be empty")
	ErrMessageTooLong      = errors.New("message content is too long")
	ErrNotFriends          = errors.New("you can only message friends")
	ErrMessageNotFound     = errors.New("message not found")
	ErrNotMessageRecipient = errors.New("only the recipient can mark a message read")

	ErrUsernameRequired = errors.New("username is required")

	// ErrUnavailable marks a backing store failure rather than a business
	// rule violation. Callers may retry.
	ErrUnavailable = errors.New("service temporarily unavailable")
)

// Code classifies an error for API clients.
type Code string

const (
	CodeValidation  Code = "validation_error"
	CodeNotFound    Code = "not_found"
	CodeForbidden   Code = "forbidden"
	CodeConflict    Code = "conflict"
	CodeUnavailable Code = "unavailable"
	CodeInternal    Code = "internal"
)

var errorCodes = []struct {
	err  error
	code Code
}{
	{ErrCannotFriendSelf, CodeValidation},
	{ErrEmptyMessage, CodeValidation},
	{ErrMessageTooLong, CodeValidation},
	{ErrInvalidUsername, CodeValidation},
	{ErrInvalidPassword, CodeValidation},
	{ErrInvalidStatus, CodeValidation},
	{ErrUsernameRequired, CodeValidation},
	{ErrUserNotFound, CodeNotFound},
	{ErrFriendRequestNotFound, CodeNotFound},
	{ErrMessageNotFound, CodeNotFound},
	{ErrSessionNotFound, CodeNotFound},
	{ErrNotRequestRecipient, CodeForbidden},
	{ErrNotMessageRecipient, CodeForbidden},
	{ErrNotFriends, CodeForbidden},
	{ErrUserSuspended, CodeForbidden},
	{ErrInvalidCredentials, CodeForbidden},
	{ErrAlreadyFriends, CodeConflict},
	{ErrDuplicatePending, CodeConflict},
	{ErrRequestAlreadyProcessed, CodeConflict},
	{ErrUsernameTaken, CodeConflict},
	{ErrUnavailable, CodeUnavailable},
}

// CodeOf maps an error to its taxonomy code. Unknown errors are internal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// HTTPStatus returns the response status for a taxonomy code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

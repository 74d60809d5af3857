package services

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuthentication
	KindAuthorization
	KindConflict
	KindInsufficientPoints
)

// Error is a client-facing failure. Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

var (
	ErrReportNotFound     = &Error{Kind: KindNotFound, Message: "Report not found"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrRewardNotFound     = &Error{Kind: KindNotFound, Message: "Reward not found"}
	ErrInvalidUserID      = &Error{Kind: KindValidation, Message: "Invalid user ID"}
	ErrInvalidStatus      = &Error{Kind: KindValidation, Message: "Invalid status"}
	ErrNotReportOwner     = &Error{Kind: KindAuthorization, Message: "Unauthorized to delete this report"}
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Message: "Invalid email or password"}
	ErrEmailTaken         = &Error{Kind: KindConflict, Message: "User with this email already exists"}
	ErrAlreadyAssigned    = &Error{Kind: KindConflict, Message: "Report is already assigned to another volunteer"}
	ErrInsufficientPoints = &Error{Kind: KindInsufficientPoints, Message: "Not enough points to claim this reward"}
)

// KindOf returns the Kind of err, or KindInternal for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service layer wraps exactly one
// of these so handlers can map it to a status with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInternal        = errors.New("internal error")
)

var (
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrReceiverNotFound   = fmt.Errorf("%w: receiver not found", ErrNotFound)
	ErrGroupNotFound      = fmt.Errorf("%w: group not found", ErrNotFound)
	ErrMessageNotFound    = fmt.Errorf("%w: message not found", ErrNotFound)
	ErrEmailExists        = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUsernameExists     = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	ErrNotGroupMember     = fmt.Errorf("%w: not a member of this group", ErrForbidden)
	ErrNotMessageSender   = fmt.Errorf("%w: only the sender can delete this message", ErrForbidden)
	ErrHistoryForbidden   = fmt.Errorf("%w: cannot read another user's messages", ErrForbidden)
	ErrEmptyMessage       = fmt.Errorf("%w: message text or file is required", ErrInvalidArgument)
	ErrEmptyMembers       = fmt.Errorf("%w: members must not be empty", ErrInvalidArgument)
	ErrEmptyGroupName     = fmt.Errorf("%w: group name is required", ErrInvalidArgument)
	ErrFileTooLarge       = fmt.Errorf("%w: file too large", ErrInvalidArgument)
	ErrUnsupportedType    = fmt.Errorf("%w: unsupported file type", ErrInvalidArgument)
)

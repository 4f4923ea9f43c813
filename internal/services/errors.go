package services

import (
	"errors"
	"fmt"
)

// Session errors
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionNotActive     = errors.New("session is not active")
	ErrSessionExpired       = errors.New("session time has expired")
	ErrSessionAlreadyActive = errors.New("an active session already exists for this level")
)

// Level errors
var (
	ErrLevelNotFound = errors.New("level not found")
	ErrLevelLocked   = errors.New("level is locked")
)

// Question errors
var (
	ErrQuestionNotFound = errors.New("question not found")
)

// Generic errors
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrUserNotFound     = errors.New("user not found")
)

// PermissionError carries the denied resource and action for the handler
// error mapping
type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

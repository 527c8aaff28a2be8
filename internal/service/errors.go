package service

import "errors"

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")

	ErrItemNotFound       = errors.New("vocabulary item not found")
	ErrForbidden          = errors.New("not allowed to access this word bank")
	ErrLimitReached       = errors.New("daily limit reached")
	ErrEnrichmentInFlight = errors.New("enrichment already in progress")
	ErrNoDictionaryEntry  = errors.New("no dictionary entry found")

	ErrInviteInvalid = errors.New("invite code is invalid or expired")
	ErrSelfTutoring  = errors.New("cannot tutor your own account")

	ErrAIDisabled   = errors.New("AI assistant is not configured")
	ErrEmptyText    = errors.New("text is required")
	ErrTextTooLong  = errors.New("text is too long")
	ErrUnknownRound = errors.New("unknown round type")
	ErrUnknownUser  = errors.New("user not found")
)

// LimitError reports which daily quota blocked an action
type LimitError struct {
	Feature string
	Limit   int
}

func (e *LimitError) Error() string {
	return "daily limit reached for " + e.Feature
}

// Unwrap lets errors.Is match ErrLimitReached
func (e *LimitError) Unwrap() error {
	return ErrLimitReached
}

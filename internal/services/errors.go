// Package services defines the business logic for the achievement engine and
// the reading activity that feeds it. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrAchievementNotFound indicates that no completed progress row exists
	// for the requested user and achievement.
	ErrAchievementNotFound = errors.New("achievement not found")

	// ErrUnknownAchievement is returned when a store id does not resolve to
	// any catalog definition.
	ErrUnknownAchievement = errors.New("unknown achievement")

	// ErrInvalidStatus is returned for reading statuses outside
	// want_to_read, reading, read.
	ErrInvalidStatus = errors.New("invalid reading status")

	// ErrBookNotFound indicates that the referenced book is not in the catalog.
	ErrBookNotFound = errors.New("book not found")

	// ErrEmptyUser is returned when an operation needs a user id and got none.
	ErrEmptyUser = errors.New("user id is empty")

	// ErrInvalidEvent is returned when an event submission is malformed.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrMappingUnavailable means the achievement id mapping could not be
	// loaded from the store.
	ErrMappingUnavailable = errors.New("achievement mapping unavailable")
)

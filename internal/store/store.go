// Package store defines the submission model and the persistence contract
// implemented by storage modules.
package store

import (
	"context"
	"errors"
	"time"
)

// Type classifies a submission.
type Type string

// Supported submission types.
const (
	TypeCongrat      Type = "congrat"
	TypeAnnouncement Type = "announcement"
	TypeNews         Type = "news"
	TypeCarpool      Type = "carpool"
)

// Valid reports whether t is a known submission type.
func (t Type) Valid() bool {
	switch t {
	case TypeCongrat, TypeAnnouncement, TypeNews, TypeCarpool:
		return true
	}
	return false
}

// Status is the moderation lifecycle state of an application.
type Status string

// Lifecycle states. Transitions only move forward:
// pending → approved|rejected, approved → published.
const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPublished Status = "published"
)

// CanTransition reports whether moving from s to next is a legal
// forward transition.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusPublished
	}
	return false
}

// Terminal reports whether the status ends the moderation lifecycle.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusPublished
}

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound is returned when no application matches the given ID.
	ErrNotFound = errors.New("store: application not found")

	// ErrInvalidTransition is returned when a status update would move
	// backwards or skip a state, or when the row is not in the expected
	// current status.
	ErrInvalidTransition = errors.New("store: invalid status transition")
)

// Application is one user submission tracked through moderation.
// Text always holds the censored form; raw input is never persisted.
type Application struct {
	ID       int64
	UserID   int64
	Username string
	Type     Type
	Subtype  string
	FromName string
	ToName   string
	Text     string
	PhotoID  string
	Phone    string
	Status   Status

	CreatedAt   time.Time
	PublishDate *time.Time
	PublishedAt *time.Time
}

// Due reports whether the application may be delivered at the given time:
// no publish date, or a publish date on or before now's calendar day.
func (a *Application) Due(now time.Time) bool {
	if a.PublishDate == nil {
		return true
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return !a.PublishDate.After(today)
}

// Store is the persistence contract for applications.
// Implementations must be safe for concurrent use.
type Store interface {
	// Add inserts a new pending application and returns its ID.
	Add(ctx context.Context, app *Application) (int64, error)

	// ByID returns the application with the given ID.
	// Returns ErrNotFound if no such row exists.
	ByID(ctx context.Context, id int64) (*Application, error)

	// SetStatus moves an application from the expected current status to
	// next. Returns ErrInvalidTransition when the transition is illegal or
	// the row is no longer in the expected status, ErrNotFound when the
	// row does not exist.
	SetStatus(ctx context.Context, id int64, current, next Status) error

	// ApprovedUnpublished returns all applications eligible for delivery
	// at the given time: approved, not yet published, and due.
	ApprovedUnpublished(ctx context.Context, now time.Time) ([]Application, error)

	// MarkPublished records delivery: sets published_at and moves the
	// status to published.
	MarkPublished(ctx context.Context, id int64) error

	// CountRecentByUser returns how many applications the user created
	// within the window ending now.
	CountRecentByUser(ctx context.Context, userID int64, window time.Duration) (int, error)

	// CountByStatus returns the number of applications per status.
	CountByStatus(ctx context.Context) (map[Status]int64, error)

	// PurgeTerminal deletes rejected and published applications older
	// than the retention period and returns the number of rows removed.
	PurgeTerminal(ctx context.Context, retention time.Duration) (int64, error)
}

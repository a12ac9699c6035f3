package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConfigured means no database DSN was provided.
	ErrNotConfigured = errors.New("event store not configured")
	// ErrSchemaMissing means the database answered but the event tables are absent.
	ErrSchemaMissing = errors.New("event tables not found")
)

type VisitEvent struct {
	ID               int64     `json:"id"`
	VisitedAt        time.Time `json:"visited_at"`
	UserAgent        string    `json:"user_agent"`
	IPAddress        *string   `json:"ip_address"`
	Referrer         *string   `json:"referrer"`
	ReferrerPlatform *string   `json:"referrer_platform"`
}

type ClickEvent struct {
	ID        int64     `json:"id"`
	ClickedAt time.Time `json:"clicked_at"`
	LinkName  string    `json:"link_name"`
	LinkURL   string    `json:"link_url"`
	UserAgent *string   `json:"user_agent"`
	IPAddress *string   `json:"ip_address"`
	Referrer  *string   `json:"referrer"`
}

// Store is the append-only event log. Every read is bounded below by since.
type Store interface {
	// InsertVisit and InsertClick set the event ID assigned by the database.
	InsertVisit(ctx context.Context, ev *VisitEvent) error
	InsertClick(ctx context.Context, ev *ClickEvent) error

	CountClicks(ctx context.Context, since time.Time) (int64, error)
	CountVisits(ctx context.Context, since time.Time) (int64, error)

	// Projections skip NULL values and come back in insertion order.
	ClickIPs(ctx context.Context, since time.Time) ([]string, error)
	VisitIPs(ctx context.Context, since time.Time) ([]string, error)
	ClickLinkNames(ctx context.Context, since time.Time) ([]string, error)
	VisitPlatforms(ctx context.Context, since time.Time) ([]string, error)
	// ClickTimes is ordered oldest first.
	ClickTimes(ctx context.Context, since time.Time) ([]time.Time, error)

	// RecentClicks and RecentVisits are ordered newest first.
	RecentClicks(ctx context.Context, since time.Time, limit int) ([]ClickEvent, error)
	RecentVisits(ctx context.Context, since time.Time, limit int) ([]VisitEvent, error)
}

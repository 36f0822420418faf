// Package entity defines the entities and errors used in the application.
// It includes the Link struct, which represents a shortened URL with its gates and
// counters, the VisitEvent recorded for every successful resolution, and the
// analytics views computed from them.
package entity

import "time"

// Link represents a shortened URL.
type Link struct {
	ID                int64      // ID is the unique identifier of the link in the database.
	Token             string     // Token is the generated handle, always present.
	Alias             string     // Alias is the optional user-chosen handle, empty when unset.
	Destination       string     // Destination is the absolute URL the handles resolve to.
	OwnerID           string     // OwnerID is the identity of the creator, empty for anonymous links.
	PasswordProtected bool       // PasswordProtected reports whether resolution requires a password.
	PasswordHash      string     // PasswordHash is set if and only if PasswordProtected is true.
	Active            bool       // Active links resolve; inactive ones behave as not found.
	LinkStats                    // LinkStats contains lifetime counters of the link.
	ExpiresAt         *time.Time // ExpiresAt is the optional instant after which the link is inert.
	CreatedAt         time.Time  // CreatedAt is the timestamp when the link was created.
	UpdatedAt         time.Time  // UpdatedAt is the timestamp when the link was last updated.
}

// LinkStats contains lifetime counters of a link.
type LinkStats struct {
	ClickCount         int64      // ClickCount is the number of successful resolutions.
	UniqueVisitorCount int64      // UniqueVisitorCount is the number of distinct visitor keys.
	LastAccessedAt     *time.Time // LastAccessedAt is the time of the last successful resolution.
}

// Handle returns the public handle of the link: the alias if present, else the token.
func (l *Link) Handle() string {
	if l.Alias != "" {
		return l.Alias
	}
	return l.Token
}

// IsExpired reports whether the link has an expiry that is not after now.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// OwnedBy reports whether the link belongs to the given owner.
// Anonymous links are owned by nobody.
func (l *Link) OwnedBy(ownerID string) bool {
	return l.OwnerID != "" && l.OwnerID == ownerID
}

// CounterDelta describes which counters a visit increments.
type CounterDelta struct {
	Click         bool
	UniqueVisitor bool
}

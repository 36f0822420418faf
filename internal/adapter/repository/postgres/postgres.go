// Package postgres implements the link and visit repositories on PostgreSQL with sqlx.
//
// Handles live in link_handles, whose primary key spans tokens and aliases alike.
// Unique visitors are decided by an insert-if-absent into link_visitors, and counters
// are only ever changed with single UPDATE ... SET x = x + n statements.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

func isTransientError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		pgconn.Timeout(err) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// storageError wraps err with op and msg, marking timeouts and connection failures
// with entity.ErrStorageUnavailable.
func storageError(op, msg string, err error) error {
	if isTransientError(err) {
		return fmt.Errorf("%s: %s: %w: %w", op, msg, entity.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %s: %w", op, msg, err)
}

const linkColumns = `id, token, alias, destination, owner_id, password_protected, password_hash, active,
	click_count, unique_visitor_count, last_accessed_at, expires_at, created_at, updated_at`

type linkDB struct {
	ID                 int64          `db:"id"`
	Token              string         `db:"token"`
	Alias              sql.NullString `db:"alias"`
	Destination        string         `db:"destination"`
	OwnerID            sql.NullString `db:"owner_id"`
	PasswordProtected  bool           `db:"password_protected"`
	PasswordHash       sql.NullString `db:"password_hash"`
	Active             bool           `db:"active"`
	ClickCount         int64          `db:"click_count"`
	UniqueVisitorCount int64          `db:"unique_visitor_count"`
	LastAccessedAt     sql.NullTime   `db:"last_accessed_at"`
	ExpiresAt          sql.NullTime   `db:"expires_at"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (l *linkDB) toEntity() *entity.Link {
	return &entity.Link{
		ID:                l.ID,
		Token:             l.Token,
		Alias:             l.Alias.String,
		Destination:       l.Destination,
		OwnerID:           l.OwnerID.String,
		PasswordProtected: l.PasswordProtected,
		PasswordHash:      l.PasswordHash.String,
		Active:            l.Active,
		LinkStats: entity.LinkStats{
			ClickCount:         l.ClickCount,
			UniqueVisitorCount: l.UniqueVisitorCount,
			LastAccessedAt:     timePtr(l.LastAccessedAt),
		},
		ExpiresAt: timePtr(l.ExpiresAt),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

const visitColumns = `id, link_id, visitor_key, browser, os, device, country, region, city,
	referrer, is_unique, visited_at`

const prefixedVisitColumns = `v.id, v.link_id, v.visitor_key, v.browser, v.os, v.device, v.country,
	v.region, v.city, v.referrer, v.is_unique, v.visited_at`

type visitDB struct {
	ID         int64          `db:"id"`
	LinkID     int64          `db:"link_id"`
	VisitorKey string         `db:"visitor_key"`
	Browser    string         `db:"browser"`
	OS         string         `db:"os"`
	Device     string         `db:"device"`
	Country    sql.NullString `db:"country"`
	Region     sql.NullString `db:"region"`
	City       sql.NullString `db:"city"`
	Referrer   string         `db:"referrer"`
	IsUnique   bool           `db:"is_unique"`
	VisitedAt  time.Time      `db:"visited_at"`
}

func (v *visitDB) toEntity() entity.VisitEvent {
	event := entity.VisitEvent{
		ID:         v.ID,
		LinkID:     v.LinkID,
		VisitorKey: v.VisitorKey,
		Client: entity.ClientMeta{
			Browser: v.Browser,
			OS:      v.OS,
			Device:  v.Device,
		},
		Referrer:  v.Referrer,
		IsUnique:  v.IsUnique,
		VisitedAt: v.VisitedAt,
	}

	if v.Country.Valid {
		event.Geo = &entity.Geo{
			Country: v.Country.String,
			Region:  v.Region.String,
			City:    v.City.String,
		}
	}

	return event
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

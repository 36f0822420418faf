package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type VisitRepository struct {
	db *sqlx.DB
}

func NewVisitRepository(db *sqlx.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

// Append records visit. The visit is unique when it is the first one to insert its
// (link, visitor key) pair into link_visitors; the event row carries that outcome.
func (r *VisitRepository) Append(ctx context.Context, visit *entity.VisitEvent) (*entity.VisitEvent, error) {
	const op = "adapter.repository.postgres.VisitRepository.Append"
	const seenQuery = `INSERT INTO link_visitors(link_id, visitor_key, first_seen_at) VALUES ($1, $2, $3)
		ON CONFLICT (link_id, visitor_key) DO NOTHING`
	const eventQuery = `INSERT INTO visit_events(link_id, visitor_key, browser, os, device, country, region, city,
		referrer, is_unique, visited_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING ` + visitColumns

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageError(op, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, seenQuery, visit.LinkID, visit.VisitorKey, visit.VisitedAt)
	if err != nil {
		return nil, storageError(op, "failed to insert into link_visitors table", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	var country, region, city string
	if visit.Geo != nil {
		country, region, city = visit.Geo.Country, visit.Geo.Region, visit.Geo.City
	}

	var saved visitDB

	err = tx.GetContext(ctx, &saved, eventQuery,
		visit.LinkID,
		visit.VisitorKey,
		visit.Client.Browser,
		visit.Client.OS,
		visit.Client.Device,
		nullString(country),
		nullString(region),
		nullString(city),
		visit.Referrer,
		rowsAffected == 1,
		visit.VisitedAt,
	)
	if err != nil {
		return nil, storageError(op, "failed to insert into visit_events table", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageError(op, "failed to commit transaction", err)
	}

	event := saved.toEntity()
	return &event, nil
}

func (r *VisitRepository) ListByLink(ctx context.Context, linkID int64, from, to time.Time) ([]entity.VisitEvent, error) {
	const op = "adapter.repository.postgres.VisitRepository.ListByLink"
	const query = `SELECT ` + visitColumns + ` FROM visit_events
		WHERE link_id = $1 AND visited_at BETWEEN $2 AND $3 ORDER BY visited_at, id`

	return r.list(ctx, op, query, linkID, from, to)
}

func (r *VisitRepository) ListByOwner(ctx context.Context, ownerID string, from, to time.Time) ([]entity.VisitEvent, error) {
	const op = "adapter.repository.postgres.VisitRepository.ListByOwner"
	const query = `SELECT ` + prefixedVisitColumns + ` FROM visit_events v JOIN links l ON l.id = v.link_id
		WHERE l.owner_id = $1 AND v.visited_at BETWEEN $2 AND $3 ORDER BY v.visited_at, v.id`

	return r.list(ctx, op, query, ownerID, from, to)
}

func (r *VisitRepository) ListRecentByOwner(ctx context.Context, ownerID string, limit int) ([]entity.VisitEvent, error) {
	const op = "adapter.repository.postgres.VisitRepository.ListRecentByOwner"
	const query = `SELECT ` + prefixedVisitColumns + ` FROM visit_events v JOIN links l ON l.id = v.link_id
		WHERE l.owner_id = $1 ORDER BY v.visited_at DESC, v.id DESC LIMIT $2`

	return r.list(ctx, op, query, ownerID, limit)
}

func (r *VisitRepository) list(ctx context.Context, op, query string, args ...any) ([]entity.VisitEvent, error) {
	var rows []visitDB

	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageError(op, "failed to select from visit_events table", err)
	}

	events := make([]entity.VisitEvent, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toEntity())
	}

	return events, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create stores link and claims its token and alias in link_handles within one transaction.
func (r *LinkRepository) Create(ctx context.Context, link *entity.Link) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.Create"
	const query = `INSERT INTO links(token, alias, destination, owner_id, password_protected, password_hash, active, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING ` + linkColumns

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageError(op, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var created linkDB

	err = tx.GetContext(ctx, &created, query,
		link.Token,
		nullString(link.Alias),
		link.Destination,
		nullString(link.OwnerID),
		link.PasswordProtected,
		nullString(link.PasswordHash),
		link.Active,
		nullTime(link.ExpiresAt),
	)
	if err != nil {
		return nil, storageError(op, "failed to insert into links table", err)
	}

	if err := insertHandle(ctx, tx, link.Token, created.ID); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrTokenExists)
		}
		return nil, storageError(op, "failed to claim token", err)
	}

	if link.Alias != "" {
		if err := insertHandle(ctx, tx, link.Alias, created.ID); err != nil {
			if isUniqueViolationError(err) {
				return nil, fmt.Errorf("%s: %w", op, entity.ErrAliasTaken)
			}
			return nil, storageError(op, "failed to claim alias", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storageError(op, "failed to commit transaction", err)
	}

	return created.toEntity(), nil
}

func (r *LinkRepository) GetByID(ctx context.Context, id int64) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.GetByID"
	const query = `SELECT ` + linkColumns + ` FROM links WHERE id = $1`

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, storageError(op, "failed to get row from links table", err)
	}

	return link.toEntity(), nil
}

// FindByHandle resolves a token or an alias with a single indexed lookup.
// Inactive links are returned too; callers decide how to gate them.
func (r *LinkRepository) FindByHandle(ctx context.Context, handle string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.FindByHandle"
	const query = `SELECT ` + linkColumns + ` FROM links
		WHERE id = (SELECT link_id FROM link_handles WHERE handle = $1)`

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, handle); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, storageError(op, "failed to get row from links table", err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.ListByOwner"
	const query = `SELECT ` + linkColumns + ` FROM links WHERE owner_id = $1 ORDER BY id DESC`

	var rows []linkDB

	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, storageError(op, "failed to select from links table", err)
	}

	links := make([]entity.Link, 0, len(rows))
	for i := range rows {
		links = append(links, *rows[i].toEntity())
	}

	return links, nil
}

// Update writes the mutable attributes of link. When the alias differs from prevAlias
// the old handle is released and the new one claimed in the same transaction.
func (r *LinkRepository) Update(ctx context.Context, link *entity.Link, prevAlias string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.Update"
	const query = `UPDATE links SET destination = $2, alias = $3, password_protected = $4, password_hash = $5,
		active = $6, expires_at = $7, updated_at = NOW() WHERE id = $1 RETURNING ` + linkColumns
	const releaseQuery = `DELETE FROM link_handles WHERE handle = $1 AND link_id = $2`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageError(op, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var updated linkDB

	err = tx.GetContext(ctx, &updated, query,
		link.ID,
		link.Destination,
		nullString(link.Alias),
		link.PasswordProtected,
		nullString(link.PasswordHash),
		link.Active,
		nullTime(link.ExpiresAt),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, storageError(op, "failed to update links table row", err)
	}

	if link.Alias != prevAlias {
		if prevAlias != "" {
			if _, err := tx.ExecContext(ctx, releaseQuery, prevAlias, link.ID); err != nil {
				return nil, storageError(op, "failed to release alias", err)
			}
		}

		if link.Alias != "" {
			if err := insertHandle(ctx, tx, link.Alias, link.ID); err != nil {
				if isUniqueViolationError(err) {
					return nil, fmt.Errorf("%s: %w", op, entity.ErrAliasTaken)
				}
				return nil, storageError(op, "failed to claim alias", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storageError(op, "failed to commit transaction", err)
	}

	return updated.toEntity(), nil
}

// Delete removes the link; handles, seen visitors and visit events cascade.
func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	const op = "adapter.repository.postgres.LinkRepository.Delete"
	const query = `DELETE FROM links WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return storageError(op, "failed to delete from links table", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}

func (r *LinkRepository) IncrementCounters(ctx context.Context, id int64, delta entity.CounterDelta, at time.Time) error {
	const op = "adapter.repository.postgres.LinkRepository.IncrementCounters"
	const query = `UPDATE links SET click_count = click_count + $2,
		unique_visitor_count = unique_visitor_count + $3, last_accessed_at = $4 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, boolToInt(delta.Click), boolToInt(delta.UniqueVisitor), at)
	if err != nil {
		return storageError(op, "failed to update links table row", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}

func insertHandle(ctx context.Context, tx *sqlx.Tx, handle string, linkID int64) error {
	const query = `INSERT INTO link_handles(handle, link_id) VALUES ($1, $2)`

	_, err := tx.ExecContext(ctx, query, handle, linkID)
	return err
}

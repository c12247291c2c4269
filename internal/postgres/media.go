package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/ordering"
)

func (c *Client) GetMedia(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	var media models.Media
	err := c.db.QueryRowContext(ctx, `
		SELECT id, member_id, filename, preview, full_version, position, price, created_at, updated_at
		FROM media
		WHERE id = $1
	`, id).Scan(
		&media.ID, &media.MemberID, &media.Filename, &media.Preview, &media.FullVersion,
		&media.Position, &media.Price, &media.CreatedAt, &media.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "failed to get media")
	}

	return &media, nil
}

// MediaByIDs resolves a batch of media ids. Unknown ids are silently absent
// from the result.
func (c *Client) MediaByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, member_id, filename, preview, full_version, position, price, created_at, updated_at
		FROM media
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get media batch: %w", err)
	}
	defer rows.Close()

	var medias []models.Media
	for rows.Next() {
		var media models.Media
		err := rows.Scan(
			&media.ID, &media.MemberID, &media.Filename, &media.Preview, &media.FullVersion,
			&media.Position, &media.Price, &media.CreatedAt, &media.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		medias = append(medias, media)
	}

	return medias, rows.Err()
}

func (c *Client) UpdateMediaPrice(ctx context.Context, id uuid.UUID, price int) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE media
		SET price = $2, updated_at = NOW()
		WHERE id = $1
	`, id, price)
	if err != nil {
		return fmt.Errorf("failed to update media price: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// WithMediaSequence runs fn against a sequence store backed by a single
// transaction, so a shift-and-assign (or delete-and-compact) commits
// all-or-nothing. Store methods that resolve a parent scope take a postgres
// advisory lock on that scope first: concurrent sequence operations on the
// same member serialize, different members proceed independently.
func (c *Client) WithMediaSequence(ctx context.Context, fn func(ordering.Store) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&mediaSequenceStore{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit media sequence: %w", err)
	}
	return nil
}

// CreateMediaInSequence inserts a media row as part of a running sequence
// transaction; callers compute the position via ordering.NextPosition first.
func CreateMediaInSequence(ctx context.Context, s ordering.Store, media *models.Media) error {
	store, ok := s.(*mediaSequenceStore)
	if !ok {
		return fmt.Errorf("store is not a media sequence store")
	}

	err := store.tx.QueryRowContext(ctx, `
		INSERT INTO media (id, member_id, filename, preview, full_version, position, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, media.ID, media.MemberID, media.Filename, media.Preview, media.FullVersion,
		media.Position, media.Price).Scan(&media.CreatedAt, &media.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

type mediaSequenceStore struct {
	tx *sql.Tx
}

func (s *mediaSequenceStore) lockScope(ctx context.Context, parentID uuid.UUID) error {
	_, err := s.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, parentID.String())
	if err != nil {
		return fmt.Errorf("failed to lock member scope: %w", err)
	}
	return nil
}

func (s *mediaSequenceStore) Item(ctx context.Context, itemID uuid.UUID) (uuid.UUID, int, error) {
	var parentID uuid.UUID
	var position int
	err := s.tx.QueryRowContext(ctx, `
		SELECT member_id, position
		FROM media
		WHERE id = $1
		FOR UPDATE
	`, itemID).Scan(&parentID, &position)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, 0, ordering.ErrNotFound
		}
		return uuid.Nil, 0, fmt.Errorf("failed to get media item: %w", err)
	}

	if err := s.lockScope(ctx, parentID); err != nil {
		return uuid.Nil, 0, err
	}
	return parentID, position, nil
}

func (s *mediaSequenceStore) Count(ctx context.Context, parentID uuid.UUID) (int, error) {
	var count int
	err := s.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM media WHERE member_id = $1
	`, parentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count media: %w", err)
	}
	return count, nil
}

func (s *mediaSequenceStore) MaxPosition(ctx context.Context, parentID uuid.UUID) (int, error) {
	if err := s.lockScope(ctx, parentID); err != nil {
		return 0, err
	}

	var max int
	err := s.tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), 0) FROM media WHERE member_id = $1
	`, parentID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max position: %w", err)
	}
	return max, nil
}

func (s *mediaSequenceStore) ShiftRange(ctx context.Context, parentID uuid.UUID, lo, hi, delta int) error {
	_, err := s.tx.ExecContext(ctx, `
		UPDATE media
		SET position = position + $4, updated_at = NOW()
		WHERE member_id = $1 AND position >= $2 AND position <= $3
	`, parentID, lo, hi, delta)
	if err != nil {
		return fmt.Errorf("failed to shift media positions: %w", err)
	}
	return nil
}

func (s *mediaSequenceStore) SetPosition(ctx context.Context, itemID uuid.UUID, position int) error {
	_, err := s.tx.ExecContext(ctx, `
		UPDATE media
		SET position = $2, updated_at = NOW()
		WHERE id = $1
	`, itemID, position)
	if err != nil {
		return fmt.Errorf("failed to set media position: %w", err)
	}
	return nil
}

func (s *mediaSequenceStore) Delete(ctx context.Context, itemID uuid.UUID) error {
	res, err := s.tx.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ordering.ErrNotFound
	}
	return nil
}

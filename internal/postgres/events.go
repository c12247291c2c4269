package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventphoto-backend/internal/models"
)

func (c *Client) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO events (id, name, date, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, date, price, created_at, updated_at
	`, event.ID, event.Name, event.Date, event.Price).Scan(
		&event.ID, &event.Name, &event.Date, &event.Price, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event, nil
}

func (c *Client) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, date, price, created_at, updated_at
		FROM events
		WHERE id = $1
	`, id).Scan(&event.ID, &event.Name, &event.Date, &event.Price, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "failed to get event")
	}

	return &event, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id uuid.UUID, name string, date *time.Time, price *int) (*models.Event, error) {
	var event models.Event
	err := c.db.QueryRowContext(ctx, `
		UPDATE events
		SET name = COALESCE(NULLIF($2, ''), name),
		    date = COALESCE($3, date),
		    price = COALESCE($4, price),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, date, price, created_at, updated_at
	`, id, name, date, price).Scan(
		&event.ID, &event.Name, &event.Date, &event.Price, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "failed to update event")
	}

	return &event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// EventWithCover pairs an event with one media item from its tree so
// listings can render a thumbnail without walking relations per event.
type EventWithCover struct {
	Event     models.Event
	LastPhoto *models.Media
}

func (c *Client) ListEvents(ctx context.Context, page, limit int) ([]EventWithCover, int, error) {
	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT e.id, e.name, e.date, e.price, e.created_at, e.updated_at,
		       m.id, m.member_id, m.filename, m.preview, m.full_version, m.position, m.price, m.created_at, m.updated_at
		FROM events e
		LEFT JOIN LATERAL (
			SELECT md.*
			FROM media md
			JOIN members mb ON mb.id = md.member_id
			JOIN speeches s ON s.id = mb.speech_id
			JOIN flows f ON f.id = s.flow_id
			WHERE f.event_id = e.id
			ORDER BY md.created_at DESC
			LIMIT 1
		) m ON TRUE
		ORDER BY e.created_at DESC
		OFFSET $1 LIMIT $2
	`, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []EventWithCover
	for rows.Next() {
		var item EventWithCover
		var mediaID, memberID uuid.NullUUID
		var filename, preview, fullVersion sql.NullString
		var position, price sql.NullInt64
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&item.Event.ID, &item.Event.Name, &item.Event.Date, &item.Event.Price,
			&item.Event.CreatedAt, &item.Event.UpdatedAt,
			&mediaID, &memberID, &filename, &preview, &fullVersion, &position, &price, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan event: %w", err)
		}

		if mediaID.Valid {
			item.LastPhoto = &models.Media{
				ID:          mediaID.UUID,
				MemberID:    memberID.UUID,
				Filename:    filename.String,
				Preview:     preview.String,
				FullVersion: fullVersion.String,
				Position:    int(position.Int64),
				Price:       int(price.Int64),
				CreatedAt:   createdAt.Time,
				UpdatedAt:   updatedAt.Time,
			}
		}
		events = append(events, item)
	}

	return events, total, rows.Err()
}

// IsEventBuyer reports whether userID bought the event.
func (c *Client) IsEventBuyer(ctx context.Context, eventID uuid.UUID, userID int) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM event_buyers WHERE event_id = $1 AND user_id = $2)
	`, eventID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event buyer: %w", err)
	}
	return exists, nil
}

func (c *Client) CreateFlow(ctx context.Context, flow *models.Flow) (*models.Flow, error) {
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO flows (id, event_id, name, date_from, date_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, event_id, name, date_from, date_to
	`, flow.ID, flow.EventID, flow.Name, flow.From, flow.To).Scan(
		&flow.ID, &flow.EventID, &flow.Name, &flow.From, &flow.To,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}

	return flow, nil
}

func (c *Client) GetFlow(ctx context.Context, id uuid.UUID) (*models.Flow, error) {
	var flow models.Flow
	err := c.db.QueryRowContext(ctx, `
		SELECT id, event_id, name, date_from, date_to
		FROM flows
		WHERE id = $1
	`, id).Scan(&flow.ID, &flow.EventID, &flow.Name, &flow.From, &flow.To)
	if err != nil {
		return nil, notFoundOr(err, "failed to get flow")
	}

	return &flow, nil
}

func (c *Client) ListFlows(ctx context.Context, eventID uuid.UUID, page, limit int) ([]models.Flow, int, error) {
	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flows WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count flows: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, event_id, name, date_from, date_to
		FROM flows
		WHERE event_id = $1
		ORDER BY date_from ASC
		OFFSET $2 LIMIT $3
	`, eventID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	var flows []models.Flow
	for rows.Next() {
		var flow models.Flow
		if err := rows.Scan(&flow.ID, &flow.EventID, &flow.Name, &flow.From, &flow.To); err != nil {
			return nil, 0, fmt.Errorf("failed to scan flow: %w", err)
		}
		flows = append(flows, flow)
	}

	return flows, total, rows.Err()
}

func (c *Client) DeleteFlow(ctx context.Context, id uuid.UUID) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM flows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

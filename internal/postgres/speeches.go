package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"eventphoto-backend/internal/models"
)

// CreateSpeech appends a speech to its flow; the stored zero-based position
// feeds the tiered price fallback for speeches without an explicit price.
func (c *Client) CreateSpeech(ctx context.Context, speech *models.Speech) (*models.Speech, error) {
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO speeches (id, flow_id, name, price, position)
		VALUES ($1, $2, $3, $4,
			(SELECT COUNT(*) FROM speeches WHERE flow_id = $2))
		RETURNING id, flow_id, name, price, position
	`, speech.ID, speech.FlowID, speech.Name, speech.Price).Scan(
		&speech.ID, &speech.FlowID, &speech.Name, &speech.Price, &speech.Position,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech: %w", err)
	}

	return speech, nil
}

func (c *Client) GetSpeech(ctx context.Context, id uuid.UUID) (*models.Speech, error) {
	var speech models.Speech
	err := c.db.QueryRowContext(ctx, `
		SELECT id, flow_id, name, price, position
		FROM speeches
		WHERE id = $1
	`, id).Scan(&speech.ID, &speech.FlowID, &speech.Name, &speech.Price, &speech.Position)
	if err != nil {
		return nil, notFoundOr(err, "failed to get speech")
	}

	return &speech, nil
}

// SpeechesByIDs resolves a batch of speech ids. Unknown ids are silently
// absent from the result; purchase callers may pass ids optimistically.
func (c *Client) SpeechesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Speech, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, flow_id, name, price, position
		FROM speeches
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get speeches: %w", err)
	}
	defer rows.Close()

	var speeches []models.Speech
	for rows.Next() {
		var speech models.Speech
		if err := rows.Scan(&speech.ID, &speech.FlowID, &speech.Name, &speech.Price, &speech.Position); err != nil {
			return nil, fmt.Errorf("failed to scan speech: %w", err)
		}
		speeches = append(speeches, speech)
	}

	return speeches, rows.Err()
}

func (c *Client) ListSpeeches(ctx context.Context, flowID uuid.UUID, page, limit int) ([]models.Speech, int, error) {
	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM speeches WHERE flow_id = $1`, flowID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count speeches: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, flow_id, name, price, position
		FROM speeches
		WHERE flow_id = $1
		ORDER BY position ASC
		OFFSET $2 LIMIT $3
	`, flowID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list speeches: %w", err)
	}
	defer rows.Close()

	var speeches []models.Speech
	for rows.Next() {
		var speech models.Speech
		if err := rows.Scan(&speech.ID, &speech.FlowID, &speech.Name, &speech.Price, &speech.Position); err != nil {
			return nil, 0, fmt.Errorf("failed to scan speech: %w", err)
		}
		speeches = append(speeches, speech)
	}

	return speeches, total, rows.Err()
}

func (c *Client) UpdateSpeech(ctx context.Context, id uuid.UUID, name string, price *int) (*models.Speech, error) {
	var speech models.Speech
	err := c.db.QueryRowContext(ctx, `
		UPDATE speeches
		SET name = COALESCE(NULLIF($2, ''), name),
		    price = COALESCE($3, price)
		WHERE id = $1
		RETURNING id, flow_id, name, price, position
	`, id, name, price).Scan(&speech.ID, &speech.FlowID, &speech.Name, &speech.Price, &speech.Position)
	if err != nil {
		return nil, notFoundOr(err, "failed to update speech")
	}

	return &speech, nil
}

func (c *Client) DeleteSpeech(ctx context.Context, id uuid.UUID) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM speeches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete speech: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) CreateMember(ctx context.Context, member *models.Member) (*models.Member, error) {
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO members (id, speech_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, speech_id, name
	`, member.ID, member.SpeechID, member.Name).Scan(&member.ID, &member.SpeechID, &member.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return member, nil
}

func (c *Client) GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	err := c.db.QueryRowContext(ctx, `
		SELECT id, speech_id, name
		FROM members
		WHERE id = $1
	`, id).Scan(&member.ID, &member.SpeechID, &member.Name)
	if err != nil {
		return nil, notFoundOr(err, "failed to get member")
	}

	return &member, nil
}

func (c *Client) ListMembers(ctx context.Context, speechID uuid.UUID, page, limit int) ([]models.Member, int, error) {
	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE speech_id = $1`, speechID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count members: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, speech_id, name
		FROM members
		WHERE speech_id = $1
		OFFSET $2 LIMIT $3
	`, speechID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var member models.Member
		if err := rows.Scan(&member.ID, &member.SpeechID, &member.Name); err != nil {
			return nil, 0, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	return members, total, rows.Err()
}

func (c *Client) DeleteMember(ctx context.Context, id uuid.UUID) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) ListMemberMedia(ctx context.Context, memberID uuid.UUID, page, limit int) ([]models.Media, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, member_id, filename, preview, full_version, position, price, created_at, updated_at
		FROM media
		WHERE member_id = $1
		ORDER BY position ASC
		OFFSET $2 LIMIT $3
	`, memberID, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list member media: %w", err)
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

// BoughtMediaIDs returns which of the given media ids the user bought,
// i.e. appear on an order_media row whose buyers set contains the user.
// One query regardless of how many media are being listed.
func (c *Client) BoughtMediaIDs(ctx context.Context, userID int, mediaIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	bought := make(map[uuid.UUID]bool)
	if len(mediaIDs) == 0 {
		return bought, nil
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT DISTINCT om.media_id
		FROM order_media om
		JOIN order_media_buyers omb ON omb.order_media_id = om.id
		WHERE omb.user_id = $1 AND om.media_id = ANY($2)
	`, userID, pq.Array(mediaIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get bought media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan media id: %w", err)
		}
		bought[id] = true
	}

	return bought, rows.Err()
}

// IsEventBuyerForMember reports whether the user bought the event that
// transitively contains the member (member -> speech -> flow -> event).
func (c *Client) IsEventBuyerForMember(ctx context.Context, memberID uuid.UUID, userID int) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM members mb
			JOIN speeches s ON s.id = mb.speech_id
			JOIN flows f ON f.id = s.flow_id
			JOIN event_buyers eb ON eb.event_id = f.event_id
			WHERE mb.id = $1 AND eb.user_id = $2
		)
	`, memberID, userID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check event access: %w", err)
	}
	return exists, nil
}

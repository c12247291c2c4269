package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"eventphoto-backend/internal/models"
)

// CreatePaymentOrder persists a new purchase in one transaction: the
// pending payment, its order, one order_media row per selected media and
// the order's speech links. Nothing is observable until commit.
func (c *Client) CreatePaymentOrder(ctx context.Context, payment *models.Payment, order *models.Order, orderMedia []models.OrderMedia, speechIDs []uuid.UUID) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO payments (id, user_id, amount, system_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, payment.ID, payment.UserID, payment.Amount, payment.SystemID, payment.Status).Scan(&payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, payment_id, status)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, order.ID, order.PaymentID, order.Status).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, om := range orderMedia {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_media (id, order_id, media_id, requires_processing, display_order)
			VALUES ($1, $2, $3, $4, $5)
		`, om.ID, om.OrderID, om.MediaID, om.RequiresProcessing, om.DisplayOrder)
		if err != nil {
			return fmt.Errorf("failed to create order media: %w", err)
		}
	}

	for _, speechID := range speechIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_speeches (order_id, speech_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, order.ID, speechID)
		if err != nil {
			return fmt.Errorf("failed to link speech: %w", err)
		}
	}

	return tx.Commit()
}

// PaymentBySystemID looks up a payment and its order by the gateway-facing
// invoice id.
func (c *Client) PaymentBySystemID(ctx context.Context, systemID string) (*models.Payment, *models.Order, error) {
	var payment models.Payment
	var order models.Order
	err := c.db.QueryRowContext(ctx, `
		SELECT p.id, p.user_id, p.amount, p.system_id, p.status, p.created_at,
		       o.id, o.payment_id, o.status, o.created_at
		FROM payments p
		JOIN orders o ON o.payment_id = p.id
		WHERE p.system_id = $1
	`, systemID).Scan(
		&payment.ID, &payment.UserID, &payment.Amount, &payment.SystemID, &payment.Status, &payment.CreatedAt,
		&order.ID, &order.PaymentID, &order.Status, &order.CreatedAt,
	)
	if err != nil {
		return nil, nil, notFoundOr(err, "failed to get payment")
	}

	return &payment, &order, nil
}

// SetPaymentStatus writes a terminal status onto a pending payment under a
// row lock. Returns false when the payment already left PENDING, which is
// the idempotent no-op path for duplicate webhook deliveries.
func (c *Client) SetPaymentStatus(ctx context.Context, paymentID uuid.UUID, status string) (bool, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM payments WHERE id = $1 FOR UPDATE
	`, paymentID).Scan(&current)
	if err != nil {
		return false, notFoundOr(err, "failed to lock payment")
	}

	if current != models.PaymentStatusPending {
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `UPDATE payments SET status = $2 WHERE id = $1`, paymentID, status); err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}

	return true, tx.Commit()
}

// ChangeStatusResult reports what a status change did.
type ChangeStatusResult struct {
	Applied bool
	Status  string
	PayerID int
}

// ChangeOrderStatus advances an order's status under a row lock. Status
// transitions are monotonic; a non-advancing status is a no-op, never a
// regression. On APPROVED the payer is added to the buyers set of every
// order_media row and every linked speech inside the same transaction, so
// grants and the status write commit or roll back together.
func (c *Client) ChangeOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (*ChangeStatusResult, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	var payerID int
	err = tx.QueryRowContext(ctx, `
		SELECT o.status, p.user_id
		FROM orders o
		JOIN payments p ON p.id = o.payment_id
		WHERE o.id = $1
		FOR UPDATE OF o
	`, orderID).Scan(&current, &payerID)
	if err != nil {
		return nil, notFoundOr(err, "failed to lock order")
	}

	if models.OrderStatusRank(status) <= models.OrderStatusRank(current) {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit: %w", err)
		}
		return &ChangeStatusResult{Applied: false, Status: current, PayerID: payerID}, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, status); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if status == models.OrderStatusApproved {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_media_buyers (order_media_id, user_id)
			SELECT om.id, $2 FROM order_media om WHERE om.order_id = $1
			ON CONFLICT DO NOTHING
		`, orderID, payerID)
		if err != nil {
			return nil, fmt.Errorf("failed to grant media access: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO speech_buyers (speech_id, user_id)
			SELECT os.speech_id, $2 FROM order_speeches os WHERE os.order_id = $1
			ON CONFLICT DO NOTHING
		`, orderID, payerID)
		if err != nil {
			return nil, fmt.Errorf("failed to grant speech access: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &ChangeStatusResult{Applied: true, Status: status, PayerID: payerID}, nil
}

// OrderProcessingInfo reports whether an order carries media at all and
// whether any of it still requires operator processing.
func (c *Client) OrderProcessingInfo(ctx context.Context, orderID uuid.UUID) (hasMedia, requiresProcessing bool, err error) {
	err = c.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM order_media WHERE order_id = $1),
		       EXISTS (SELECT 1 FROM order_media WHERE order_id = $1 AND requires_processing)
	`, orderID).Scan(&hasMedia, &requiresProcessing)
	if err != nil {
		return false, false, fmt.Errorf("failed to check order processing: %w", err)
	}
	return hasMedia, requiresProcessing, nil
}

// OrderMediaItem is one purchased media with its processing metadata.
type OrderMediaItem struct {
	OrderMedia models.OrderMedia
	Media      models.Media
}

// MemberMedia is a member with its media, ordered by position.
type MemberMedia struct {
	Member models.Member
	Media  []models.Media
}

// OrderSpeechItem is one purchased speech with its members and their media.
type OrderSpeechItem struct {
	Speech  models.Speech
	Members []MemberMedia
}

// OrderGraph is one order with everything a response needs, fetched in a
// bounded number of queries rather than per-item lookups.
type OrderGraph struct {
	Order      models.Order
	Amount     int
	PayerID    int
	OrderMedia []OrderMediaItem
	Speeches   []OrderSpeechItem
}

// GetOrderGraph loads one order graph. When payerID is non-zero the order
// must belong to that payer (admins pass zero).
func (c *Client) GetOrderGraph(ctx context.Context, orderID uuid.UUID, payerID int) (*OrderGraph, error) {
	var graph OrderGraph
	err := c.db.QueryRowContext(ctx, `
		SELECT o.id, o.payment_id, o.status, o.created_at, p.amount, p.user_id
		FROM orders o
		JOIN payments p ON p.id = o.payment_id
		WHERE o.id = $1 AND ($2 = 0 OR p.user_id = $2)
	`, orderID, payerID).Scan(
		&graph.Order.ID, &graph.Order.PaymentID, &graph.Order.Status, &graph.Order.CreatedAt,
		&graph.Amount, &graph.PayerID,
	)
	if err != nil {
		return nil, notFoundOr(err, "failed to get order")
	}

	if err := c.fillOrderGraph(ctx, &graph); err != nil {
		return nil, err
	}
	return &graph, nil
}

// ListOrderGraphs pages over orders. Non-admin callers see only their own.
func (c *Client) ListOrderGraphs(ctx context.Context, payerID int, status string, page, limit int) ([]OrderGraph, int, error) {
	var total int
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders o
		JOIN payments p ON p.id = o.payment_id
		WHERE ($1 = 0 OR p.user_id = $1) AND ($2 = '' OR o.status = $2)
	`, payerID, status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT o.id, o.payment_id, o.status, o.created_at, p.amount, p.user_id
		FROM orders o
		JOIN payments p ON p.id = o.payment_id
		WHERE ($1 = 0 OR p.user_id = $1) AND ($2 = '' OR o.status = $2)
		ORDER BY o.created_at ASC
		OFFSET $3 LIMIT $4
	`, payerID, status, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var graphs []OrderGraph
	for rows.Next() {
		var graph OrderGraph
		err := rows.Scan(
			&graph.Order.ID, &graph.Order.PaymentID, &graph.Order.Status, &graph.Order.CreatedAt,
			&graph.Amount, &graph.PayerID,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		graphs = append(graphs, graph)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range graphs {
		if err := c.fillOrderGraph(ctx, &graphs[i]); err != nil {
			return nil, 0, err
		}
	}

	return graphs, total, nil
}

func (c *Client) fillOrderGraph(ctx context.Context, graph *OrderGraph) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT om.id, om.order_id, om.media_id, om.requires_processing,
		       om.processed_preview, om.processed_full_version, om.processed_at, om.display_order,
		       m.id, m.member_id, m.filename, m.preview, m.full_version, m.position, m.price, m.created_at, m.updated_at
		FROM order_media om
		JOIN media m ON m.id = om.media_id
		WHERE om.order_id = $1
		ORDER BY om.display_order ASC
	`, graph.Order.ID)
	if err != nil {
		return fmt.Errorf("failed to get order media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderMediaItem
		err := rows.Scan(
			&item.OrderMedia.ID, &item.OrderMedia.OrderID, &item.OrderMedia.MediaID, &item.OrderMedia.RequiresProcessing,
			&item.OrderMedia.ProcessedPreview, &item.OrderMedia.ProcessedFullVersion, &item.OrderMedia.ProcessedAt, &item.OrderMedia.DisplayOrder,
			&item.Media.ID, &item.Media.MemberID, &item.Media.Filename, &item.Media.Preview, &item.Media.FullVersion,
			&item.Media.Position, &item.Media.Price, &item.Media.CreatedAt, &item.Media.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order media: %w", err)
		}
		graph.OrderMedia = append(graph.OrderMedia, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	speechRows, err := c.db.QueryContext(ctx, `
		SELECT s.id, s.flow_id, s.name, s.price, s.position
		FROM speeches s
		JOIN order_speeches os ON os.speech_id = s.id
		WHERE os.order_id = $1
	`, graph.Order.ID)
	if err != nil {
		return fmt.Errorf("failed to get order speeches: %w", err)
	}
	defer speechRows.Close()

	var speechIDs []uuid.UUID
	for speechRows.Next() {
		var item OrderSpeechItem
		err := speechRows.Scan(
			&item.Speech.ID, &item.Speech.FlowID, &item.Speech.Name, &item.Speech.Price, &item.Speech.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order speech: %w", err)
		}
		graph.Speeches = append(graph.Speeches, item)
		speechIDs = append(speechIDs, item.Speech.ID)
	}
	if err := speechRows.Err(); err != nil {
		return err
	}
	if len(speechIDs) == 0 {
		return nil
	}

	memberRows, err := c.db.QueryContext(ctx, `
		SELECT mb.id, mb.speech_id, mb.name,
		       m.id, m.member_id, m.filename, m.preview, m.full_version, m.position, m.price, m.created_at, m.updated_at
		FROM members mb
		LEFT JOIN media m ON m.member_id = mb.id
		WHERE mb.speech_id = ANY($1)
		ORDER BY mb.id, m.position ASC
	`, pq.Array(speechIDs))
	if err != nil {
		return fmt.Errorf("failed to get speech members: %w", err)
	}
	defer memberRows.Close()

	membersBySpeech := make(map[uuid.UUID][]MemberMedia)
	memberIndex := make(map[uuid.UUID]int)
	for memberRows.Next() {
		var member models.Member
		var mediaID, memberID uuid.NullUUID
		var filename, preview, fullVersion sql.NullString
		var position, price sql.NullInt64
		var createdAt, updatedAt sql.NullTime

		err := memberRows.Scan(
			&member.ID, &member.SpeechID, &member.Name,
			&mediaID, &memberID, &filename, &preview, &fullVersion, &position, &price, &createdAt, &updatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan speech member: %w", err)
		}

		idx, seen := memberIndex[member.ID]
		if !seen {
			membersBySpeech[member.SpeechID] = append(membersBySpeech[member.SpeechID], MemberMedia{Member: member})
			idx = len(membersBySpeech[member.SpeechID]) - 1
			memberIndex[member.ID] = idx
		}

		if mediaID.Valid {
			media := models.Media{
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
			list := membersBySpeech[member.SpeechID]
			list[idx].Media = append(list[idx].Media, media)
		}
	}
	if err := memberRows.Err(); err != nil {
		return err
	}

	for i := range graph.Speeches {
		graph.Speeches[i].Members = membersBySpeech[graph.Speeches[i].Speech.ID]
	}
	return nil
}

// GetOrderMedia fetches one order_media row by its composite key.
func (c *Client) GetOrderMedia(ctx context.Context, orderID, mediaID uuid.UUID) (*models.OrderMedia, error) {
	var om models.OrderMedia
	err := c.db.QueryRowContext(ctx, `
		SELECT id, order_id, media_id, requires_processing,
		       processed_preview, processed_full_version, processed_at, display_order
		FROM order_media
		WHERE order_id = $1 AND media_id = $2
	`, orderID, mediaID).Scan(
		&om.ID, &om.OrderID, &om.MediaID, &om.RequiresProcessing,
		&om.ProcessedPreview, &om.ProcessedFullVersion, &om.ProcessedAt, &om.DisplayOrder,
	)
	if err != nil {
		return nil, notFoundOr(err, "failed to get order media")
	}

	return &om, nil
}

// SetOrderMediaProcessed records the processed replacements for one
// purchased media item.
func (c *Client) SetOrderMediaProcessed(ctx context.Context, orderID, mediaID uuid.UUID, preview, fullVersion string) (*models.OrderMedia, error) {
	var om models.OrderMedia
	err := c.db.QueryRowContext(ctx, `
		UPDATE order_media
		SET processed_preview = $3, processed_full_version = $4, processed_at = NOW()
		WHERE order_id = $1 AND media_id = $2
		RETURNING id, order_id, media_id, requires_processing,
		          processed_preview, processed_full_version, processed_at, display_order
	`, orderID, mediaID, preview, fullVersion).Scan(
		&om.ID, &om.OrderID, &om.MediaID, &om.RequiresProcessing,
		&om.ProcessedPreview, &om.ProcessedFullVersion, &om.ProcessedAt, &om.DisplayOrder,
	)
	if err != nil {
		return nil, notFoundOr(err, "failed to update order media")
	}

	return &om, nil
}

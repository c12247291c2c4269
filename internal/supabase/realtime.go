package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Supabase Go client has no direct Realtime publish; subscribers
	// listen to postgres changes on the orders table instead, so database
	// updates fan out automatically. Kept as an explicit hook point.
	return nil
}

func (r *RealtimeClient) PublishOrderEvent(orderID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("order:%s", orderID.String())
	return r.PublishEvent(channel, event, payload)
}

func (r *RealtimeClient) PublishUserEvent(userID int, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("user:%d", userID)
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func PaymentReceivedPayload(orderID uuid.UUID, amount int) map[string]interface{} {
	return map[string]interface{}{
		"order_id": orderID.String(),
		"status":   "paid",
		"amount":   amount,
	}
}

func PaymentFailedPayload(orderID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"order_id": orderID.String(),
		"status":   "payment_failed",
	}
}

func OrderApprovedPayload(orderID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"order_id": orderID.String(),
		"status":   "approved",
	}
}

func MediaProcessedPayload(orderID, mediaID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"order_id": orderID.String(),
		"media_id": mediaID.String(),
		"status":   "processed",
	}
}

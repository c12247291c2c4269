package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"eventphoto-backend/internal/entitlement"
	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
	"eventphoto-backend/internal/supabase"
)

// OrderStore is the slice of the database layer order fulfillment needs.
type OrderStore interface {
	ChangeOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (*postgres.ChangeStatusResult, error)
	GetOrderGraph(ctx context.Context, orderID uuid.UUID, payerID int) (*postgres.OrderGraph, error)
	ListOrderGraphs(ctx context.Context, payerID int, status string, page, limit int) ([]postgres.OrderGraph, int, error)
}

type OrderService struct {
	store    OrderStore
	realtime *supabase.RealtimeClient
}

func NewOrderService(store OrderStore, realtime *supabase.RealtimeClient) *OrderService {
	return &OrderService{store: store, realtime: realtime}
}

// ChangeStatus advances an order's status. Regressions and repeats are
// no-ops; moving to APPROVED grants the payer access to everything on the
// order atomically with the status write.
func (s *OrderService) ChangeStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	if models.OrderStatusRank(status) < 0 {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}

	result, err := s.store.ChangeOrderStatus(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return err
	}

	if !result.Applied {
		log.Printf("[%s]: status %s not applied, order already at %s", orderID, status, result.Status)
		return nil
	}

	log.Printf("[%s]: status changed to %s", orderID, status)
	if status == models.OrderStatusApproved && s.realtime != nil {
		if err := s.realtime.PublishOrderEvent(orderID, "order_approved", supabase.OrderApprovedPayload(orderID)); err != nil {
			log.Printf("[%s]: failed to publish approval event: %v", orderID, err)
		}
	}
	return nil
}

// SkipProcessing lets a buyer approve their own paid order instead of
// waiting for retouched files. Only the payer of a PENDING order with media
// may do this.
func (s *OrderService) SkipProcessing(ctx context.Context, userID int, orderID uuid.UUID) error {
	graph, err := s.store.GetOrderGraph(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return err
	}

	if graph.Order.Status != models.OrderStatusPending || len(graph.OrderMedia) == 0 {
		return fmt.Errorf("%w: order is not awaiting processing", ErrInvalidArgument)
	}

	return s.ChangeStatus(ctx, orderID, models.OrderStatusApproved)
}

// GetOrder returns one order rendered for the viewer. Non-admin viewers only
// see their own orders; full-version URLs are disclosed per the entitlement
// policy.
func (s *OrderService) GetOrder(ctx context.Context, viewer *entitlement.Viewer, orderID uuid.UUID) (*models.OrderResponse, error) {
	graph, err := s.store.GetOrderGraph(ctx, orderID, scopePayerID(viewer))
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}

	resp := renderOrder(viewer, graph)
	return &resp, nil
}

// ListOrders pages over orders visible to the viewer, optionally filtered by
// status.
func (s *OrderService) ListOrders(ctx context.Context, viewer *entitlement.Viewer, status string, page, limit int) (*models.OrderListResponse, error) {
	if status != "" && models.OrderStatusRank(status) < 0 {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}

	graphs, total, err := s.store.ListOrderGraphs(ctx, scopePayerID(viewer), status, page, limit)
	if err != nil {
		return nil, err
	}

	orders := make([]models.OrderResponse, 0, len(graphs))
	for i := range graphs {
		orders = append(orders, renderOrder(viewer, &graphs[i]))
	}
	return &models.OrderListResponse{Orders: orders, Total: total}, nil
}

// scopePayerID converts a viewer into the payer filter the store understands:
// zero means unscoped, which only admins get.
func scopePayerID(viewer *entitlement.Viewer) int {
	if viewer == nil {
		return 0
	}
	if viewer.IsAdmin {
		return 0
	}
	return viewer.UserID
}

func renderOrder(viewer *entitlement.Viewer, graph *postgres.OrderGraph) models.OrderResponse {
	approved := graph.Order.Status == models.OrderStatusApproved

	items := make([]entitlement.Item, len(graph.OrderMedia))
	for i, om := range graph.OrderMedia {
		items[i] = entitlement.Item{
			Media:         om.Media,
			PayerID:       graph.PayerID,
			OrderApproved: approved,
		}
	}
	resolutions := entitlement.Resolve(viewer, items)

	orderMedia := make([]models.OrderMediaResponse, len(graph.OrderMedia))
	for i, om := range graph.OrderMedia {
		res := resolutions[i]
		omr := models.OrderMediaResponse{
			ID:                 om.OrderMedia.ID.String(),
			Media:              MediaResponse(res.Media),
			RequiresProcessing: om.OrderMedia.RequiresProcessing,
			DisplayOrder:       om.OrderMedia.DisplayOrder,
		}
		if om.OrderMedia.ProcessedAt.Valid {
			t := om.OrderMedia.ProcessedAt.Time
			omr.ProcessedAt = &t
		}
		// Processed replacements follow the same disclosure verdict as the
		// original full version.
		omr.ProcessedPreview = om.OrderMedia.ProcessedPreview.String
		if res.Disclosed {
			omr.ProcessedFullVersion = om.OrderMedia.ProcessedFullVersion.String
		}
		orderMedia[i] = omr
	}

	speeches := make([]models.OrderSpeechResponse, len(graph.Speeches))
	for i, speech := range graph.Speeches {
		members := make([]models.MemberResponse, len(speech.Members))
		for j, member := range speech.Members {
			memberItems := make([]entitlement.Item, len(member.Media))
			for k, media := range member.Media {
				memberItems[k] = entitlement.Item{
					Media:         media,
					PayerID:       graph.PayerID,
					OrderApproved: approved,
				}
			}
			memberResolutions := entitlement.Resolve(viewer, memberItems)

			mediaResponses := make([]models.MediaResponse, len(memberResolutions))
			for k, res := range memberResolutions {
				mediaResponses[k] = MediaResponse(res.Media)
			}
			members[j] = models.MemberResponse{
				ID:       member.Member.ID.String(),
				SpeechID: member.Member.SpeechID.String(),
				Name:     member.Member.Name.String,
				Media:    mediaResponses,
			}
		}
		speeches[i] = models.OrderSpeechResponse{
			ID:      speech.Speech.ID.String(),
			Members: members,
		}
	}

	return models.OrderResponse{
		ID:         graph.Order.ID.String(),
		Status:     graph.Order.Status,
		Amount:     graph.Amount,
		OrderMedia: orderMedia,
		Speeches:   speeches,
		CreatedAt:  graph.Order.CreatedAt,
	}
}

// MediaResponse maps a media record to its wire shape. Redaction happens
// before this point; an empty FullVersion is simply omitted.
func MediaResponse(media models.Media) models.MediaResponse {
	return models.MediaResponse{
		ID:          media.ID.String(),
		Filename:    media.Filename,
		Preview:     media.Preview,
		FullVersion: media.FullVersion,
		Position:    media.Position,
		Price:       media.Price,
		CreatedAt:   media.CreatedAt,
	}
}

package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventphoto-backend/internal/entitlement"
	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
	"eventphoto-backend/internal/services"
)

// orderStore is an in-memory services.OrderStore over a set of order graphs.
type orderStore struct {
	graphs map[uuid.UUID]*postgres.OrderGraph
	grants map[uuid.UUID]int
}

func newOrderStore() *orderStore {
	return &orderStore{
		graphs: make(map[uuid.UUID]*postgres.OrderGraph),
		grants: make(map[uuid.UUID]int),
	}
}

func (s *orderStore) ChangeOrderStatus(_ context.Context, orderID uuid.UUID, status string) (*postgres.ChangeStatusResult, error) {
	graph, ok := s.graphs[orderID]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	if models.OrderStatusRank(status) <= models.OrderStatusRank(graph.Order.Status) {
		return &postgres.ChangeStatusResult{Applied: false, Status: graph.Order.Status, PayerID: graph.PayerID}, nil
	}
	graph.Order.Status = status
	if status == models.OrderStatusApproved {
		s.grants[orderID]++
	}
	return &postgres.ChangeStatusResult{Applied: true, Status: status, PayerID: graph.PayerID}, nil
}

func (s *orderStore) GetOrderGraph(_ context.Context, orderID uuid.UUID, payerID int) (*postgres.OrderGraph, error) {
	graph, ok := s.graphs[orderID]
	if !ok || (payerID != 0 && graph.PayerID != payerID) {
		return nil, postgres.ErrNotFound
	}
	return graph, nil
}

func (s *orderStore) ListOrderGraphs(_ context.Context, payerID int, status string, _, _ int) ([]postgres.OrderGraph, int, error) {
	var out []postgres.OrderGraph
	for _, graph := range s.graphs {
		if payerID != 0 && graph.PayerID != payerID {
			continue
		}
		if status != "" && graph.Order.Status != status {
			continue
		}
		out = append(out, *graph)
	}
	return out, len(out), nil
}

func seedGraph(store *orderStore, payerID int, status string) uuid.UUID {
	orderID := uuid.New()
	store.graphs[orderID] = &postgres.OrderGraph{
		Order:   models.Order{ID: orderID, Status: status},
		Amount:  2800,
		PayerID: payerID,
		OrderMedia: []postgres.OrderMediaItem{
			{
				OrderMedia: models.OrderMedia{ID: uuid.New(), OrderID: orderID},
				Media: models.Media{
					ID:          uuid.New(),
					Preview:     "https://cdn.example.com/preview.jpg",
					FullVersion: "https://cdn.example.com/full.jpg",
					Position:    1,
					Price:       400,
				},
			},
		},
	}
	return orderID
}

func TestChangeStatus_Advances(t *testing.T) {
	store := newOrderStore()
	svc := services.NewOrderService(store, nil)
	orderID := seedGraph(store, 7, models.OrderStatusWaitingForPayment)

	require.NoError(t, svc.ChangeStatus(context.Background(), orderID, models.OrderStatusPending))
	assert.Equal(t, models.OrderStatusPending, store.graphs[orderID].Order.Status)
}

func TestChangeStatus_NeverRegresses(t *testing.T) {
	store := newOrderStore()
	svc := services.NewOrderService(store, nil)
	orderID := seedGraph(store, 7, models.OrderStatusApproved)

	// Regressions and repeats are accepted but change nothing.
	require.NoError(t, svc.ChangeStatus(context.Background(), orderID, models.OrderStatusPending))
	require.NoError(t, svc.ChangeStatus(context.Background(), orderID, models.OrderStatusApproved))

	assert.Equal(t, models.OrderStatusApproved, store.graphs[orderID].Order.Status)
	assert.Equal(t, 0, store.grants[orderID])
}

func TestChangeStatus_GrantsOnceOnApproval(t *testing.T) {
	store := newOrderStore()
	svc := services.NewOrderService(store, nil)
	orderID := seedGraph(store, 7, models.OrderStatusPending)

	require.NoError(t, svc.ChangeStatus(context.Background(), orderID, models.OrderStatusApproved))
	require.NoError(t, svc.ChangeStatus(context.Background(), orderID, models.OrderStatusApproved))

	assert.Equal(t, 1, store.grants[orderID])
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	store := newOrderStore()
	svc := services.NewOrderService(store, nil)
	orderID := seedGraph(store, 7, models.OrderStatusPending)

	err := svc.ChangeStatus(context.Background(), orderID, "CANCELLED")
	assert.ErrorIs(t, err, services.ErrInvalidArgument)
}

func TestChangeStatus_UnknownOrder(t *testing.T) {
	svc := services.NewOrderService(newOrderStore(), nil)

	err := svc.ChangeStatus(context.Background(), uuid.New(), models.OrderStatusPending)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestSkipProcessing_ApprovesOwnPendingOrder(t *testing.T) {
	store := newOrderStore()
	svc := services.NewOrderService(store, nil)
	orderID := seedGraph(store, 7, models.OrderStatusPending)

	require.NoError(t, svc.SkipProcessing(context.Background(), 7, orderID))
	assert.Equal(t, models.OrderStatusApproved, store.graphs[orderID].Order.Status)
}

func TestSkipProcessing_RejectsUnpaidOrder(t *testing.T) {
	store := newOrderStore()
	svc := services.NewOrderService(store, nil)
	orderID := seedGraph(store, 7, models.OrderStatusWaitingForPayment)

	err := svc.SkipProcessing(context.Background(), 7, orderID)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)
}

func TestSkipProcessing_HidesForeignOrders(t *testing.T) {
	store := newOrderStore()
	svc := services.NewOrderService(store, nil)
	orderID := seedGraph(store, 7, models.OrderStatusPending)

	err := svc.SkipProcessing(context.Background(), 8, orderID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, models.OrderStatusPending, store.graphs[orderID].Order.Status)
}

func TestGetOrder_DisclosesFullVersionsToPayerWhenApproved(t *testing.T) {
	store := newOrderStore()
	svc := services.NewOrderService(store, nil)
	orderID := seedGraph(store, 7, models.OrderStatusApproved)

	resp, err := svc.GetOrder(context.Background(), &entitlement.Viewer{UserID: 7}, orderID)
	require.NoError(t, err)

	require.Len(t, resp.OrderMedia, 1)
	assert.Equal(t, "https://cdn.example.com/full.jpg", resp.OrderMedia[0].Media.FullVersion)
	assert.Equal(t, 2800, resp.Amount)
}

func TestGetOrder_RedactsBeforeApproval(t *testing.T) {
	store := newOrderStore()
	svc := services.NewOrderService(store, nil)
	orderID := seedGraph(store, 7, models.OrderStatusPending)

	resp, err := svc.GetOrder(context.Background(), &entitlement.Viewer{UserID: 7}, orderID)
	require.NoError(t, err)

	require.Len(t, resp.OrderMedia, 1)
	assert.Empty(t, resp.OrderMedia[0].Media.FullVersion)
	assert.NotEmpty(t, resp.OrderMedia[0].Media.Preview)
}

func TestGetOrder_ScopedToPayer(t *testing.T) {
	store := newOrderStore()
	svc := services.NewOrderService(store, nil)
	orderID := seedGraph(store, 7, models.OrderStatusApproved)

	_, err := svc.GetOrder(context.Background(), &entitlement.Viewer{UserID: 8}, orderID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	// Admins read any order and see full versions.
	resp, err := svc.GetOrder(context.Background(), &entitlement.Viewer{UserID: 1, IsAdmin: true}, orderID)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.OrderMedia[0].Media.FullVersion)
}

func TestListOrders_FiltersByStatus(t *testing.T) {
	store := newOrderStore()
	svc := services.NewOrderService(store, nil)
	seedGraph(store, 7, models.OrderStatusApproved)
	seedGraph(store, 7, models.OrderStatusPending)

	resp, err := svc.ListOrders(context.Background(), &entitlement.Viewer{UserID: 7}, models.OrderStatusApproved, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, models.OrderStatusApproved, resp.Orders[0].Status)
}

func TestListOrders_UnknownStatus(t *testing.T) {
	svc := services.NewOrderService(newOrderStore(), nil)

	_, err := svc.ListOrders(context.Background(), &entitlement.Viewer{UserID: 7}, "BOGUS", 1, 20)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)
}

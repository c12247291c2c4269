package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"eventphoto-backend/internal/config"
	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
	"eventphoto-backend/internal/pricing"
	"eventphoto-backend/internal/robokassa"
	"eventphoto-backend/internal/supabase"
)

// invoiceAttempts bounds re-rolls when a generated invoice id collides with
// an existing payment.
const invoiceAttempts = 5

// PaymentStore is the slice of the database layer the payment ledger needs.
type PaymentStore interface {
	MediaByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Media, error)
	SpeechesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Speech, error)
	CreatePaymentOrder(ctx context.Context, payment *models.Payment, order *models.Order, orderMedia []models.OrderMedia, speechIDs []uuid.UUID) error
	PaymentBySystemID(ctx context.Context, systemID string) (*models.Payment, *models.Order, error)
	SetPaymentStatus(ctx context.Context, paymentID uuid.UUID, status string) (bool, error)
	ChangeOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (*postgres.ChangeStatusResult, error)
	OrderProcessingInfo(ctx context.Context, orderID uuid.UUID) (hasMedia, requiresProcessing bool, err error)
}

type PaymentService struct {
	store    PaymentStore
	gateway  *robokassa.Client
	pricing  pricing.Policy
	realtime *supabase.RealtimeClient
	cfg      *config.Config
}

func NewPaymentService(store PaymentStore, gateway *robokassa.Client, policy pricing.Policy, realtime *supabase.RealtimeClient, cfg *config.Config) *PaymentService {
	return &PaymentService{
		store:    store,
		gateway:  gateway,
		pricing:  policy,
		realtime: realtime,
		cfg:      cfg,
	}
}

// CreatePurchase prices the selection, opens a WAITING_FOR_PAYMENT order with
// its PENDING payment and returns the gateway redirect URL. Unknown ids in
// the selection are dropped rather than rejected; an empty priced selection
// is an error.
func (s *PaymentService) CreatePurchase(ctx context.Context, userID int, req models.CreatePurchaseRequest) (*models.PaymentLinkResponse, error) {
	mediaIDs := make([]uuid.UUID, 0, len(req.Medias))
	requiresProcessing := make(map[uuid.UUID]bool, len(req.Medias))
	displayOrder := make(map[uuid.UUID]int, len(req.Medias))
	for i, sel := range req.Medias {
		id, err := uuid.Parse(sel.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid media id %q", ErrInvalidArgument, sel.ID)
		}
		mediaIDs = append(mediaIDs, id)
		requiresProcessing[id] = sel.RequiresProcessing
		displayOrder[id] = i
	}

	speechIDs := make([]uuid.UUID, 0, len(req.Speeches))
	for _, sel := range req.Speeches {
		id, err := uuid.Parse(sel.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid speech id %q", ErrInvalidArgument, sel.ID)
		}
		speechIDs = append(speechIDs, id)
	}

	medias, err := s.store.MediaByIDs(ctx, mediaIDs)
	if err != nil {
		return nil, err
	}
	speeches, err := s.store.SpeechesByIDs(ctx, speechIDs)
	if err != nil {
		return nil, err
	}
	if len(medias) == 0 && len(speeches) == 0 {
		return nil, fmt.Errorf("%w: nothing to purchase", ErrInvalidArgument)
	}

	amount := 0
	orderMedia := make([]models.OrderMedia, 0, len(medias))
	for _, media := range medias {
		price := media.Price
		if price == 0 {
			price = s.cfg.DefaultMediaPrice
		}
		amount += price
		orderMedia = append(orderMedia, models.OrderMedia{
			ID:                 uuid.New(),
			MediaID:            media.ID,
			RequiresProcessing: requiresProcessing[media.ID],
			DisplayOrder:       displayOrder[media.ID],
		})
	}

	orderSpeechIDs := make([]uuid.UUID, 0, len(speeches))
	for _, speech := range speeches {
		var stored *int
		if speech.Price.Valid {
			price := int(speech.Price.Int64)
			stored = &price
		}
		amount += s.pricing.SpeechPrice(stored, speech.Position)
		orderSpeechIDs = append(orderSpeechIDs, speech.ID)
	}

	var payment *models.Payment
	var order *models.Order
	for attempt := 0; attempt < invoiceAttempts; attempt++ {
		invoiceID, err := robokassa.NewInvoiceID()
		if err != nil {
			return nil, err
		}

		payment = &models.Payment{
			ID:       uuid.New(),
			UserID:   userID,
			Amount:   amount,
			SystemID: invoiceID,
			Status:   models.PaymentStatusPending,
		}
		order = &models.Order{
			ID:        uuid.New(),
			PaymentID: payment.ID,
			Status:    models.OrderStatusWaitingForPayment,
		}
		for i := range orderMedia {
			orderMedia[i].OrderID = order.ID
		}

		err = s.store.CreatePaymentOrder(ctx, payment, order, orderMedia, orderSpeechIDs)
		if err == nil {
			break
		}
		if postgres.IsUniqueViolation(err) && attempt < invoiceAttempts-1 {
			continue
		}
		return nil, err
	}

	url := s.gateway.PaymentURL(amount, payment.SystemID, fmt.Sprintf("Photo order %s", order.ID))
	return &models.PaymentLinkResponse{Success: true, URL: url}, nil
}

// Reconcile applies a gateway callback to the ledger. The signature is
// verified against the stored amount before anything mutates; a bad
// signature changes nothing. Only the first delivery moves the payment out
// of PENDING, but every delivery of a successful payment re-runs the order
// status steps: those are monotonic no-ops once done, and they let a retry
// finish fulfillment if an earlier delivery crashed between the payment
// write and the order write.
func (s *PaymentService) Reconcile(ctx context.Context, invoiceID, signature string, success bool) error {
	payment, order, err := s.store.PaymentBySystemID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return fmt.Errorf("%w: unknown invoice %s", ErrNotFound, invoiceID)
		}
		return err
	}

	if !s.gateway.VerifyResult(payment.Amount, invoiceID, signature) {
		return fmt.Errorf("%w: bad payment signature for invoice %s", ErrForbidden, invoiceID)
	}

	status := models.PaymentStatusFailed
	if success {
		status = models.PaymentStatusSuccess
	}

	applied, err := s.store.SetPaymentStatus(ctx, payment.ID, status)
	if err != nil {
		return err
	}

	settled := status
	if !applied {
		settled = payment.Status
		log.Printf("[%s]: payment already settled as %s, re-checking order status", order.ID, settled)
	}

	if settled != models.PaymentStatusSuccess {
		if applied {
			s.publish(order.ID, "payment_failed", supabase.PaymentFailedPayload(order.ID))
		}
		return nil
	}

	res, err := s.store.ChangeOrderStatus(ctx, order.ID, models.OrderStatusPending)
	if err != nil {
		return err
	}
	if res.Applied {
		s.publish(order.ID, "payment_received", supabase.PaymentReceivedPayload(order.ID, payment.Amount))
	}

	// Orders with nothing to retouch go straight to APPROVED; the buyer
	// gets access without waiting for an operator.
	_, requiresProcessing, err := s.store.OrderProcessingInfo(ctx, order.ID)
	if err != nil {
		return err
	}
	if !requiresProcessing {
		res, err := s.store.ChangeOrderStatus(ctx, order.ID, models.OrderStatusApproved)
		if err != nil {
			return err
		}
		if res.Applied {
			s.publish(order.ID, "order_approved", supabase.OrderApprovedPayload(order.ID))
		}
	}

	return nil
}

func (s *PaymentService) publish(orderID uuid.UUID, event string, payload map[string]interface{}) {
	if s.realtime == nil {
		return
	}
	if err := s.realtime.PublishOrderEvent(orderID, event, payload); err != nil {
		log.Printf("[%s]: failed to publish %s event: %v", orderID, event, err)
	}
}

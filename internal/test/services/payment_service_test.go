package services_test

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventphoto-backend/internal/config"
	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
	"eventphoto-backend/internal/pricing"
	"eventphoto-backend/internal/robokassa"
	"eventphoto-backend/internal/services"
)

// fakeStore is an in-memory services.PaymentStore mimicking the database
// semantics the payment ledger relies on: idempotent payment settlement and
// monotonic order status changes.
type fakeStore struct {
	medias   map[uuid.UUID]models.Media
	speeches map[uuid.UUID]models.Speech

	payments   map[uuid.UUID]*models.Payment
	orders     map[uuid.UUID]*models.Order
	orderMedia map[uuid.UUID][]models.OrderMedia

	grants         map[uuid.UUID]int
	failingCreates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		medias:     make(map[uuid.UUID]models.Media),
		speeches:   make(map[uuid.UUID]models.Speech),
		payments:   make(map[uuid.UUID]*models.Payment),
		orders:     make(map[uuid.UUID]*models.Order),
		orderMedia: make(map[uuid.UUID][]models.OrderMedia),
		grants:     make(map[uuid.UUID]int),
	}
}

func (f *fakeStore) MediaByIDs(_ context.Context, ids []uuid.UUID) ([]models.Media, error) {
	var out []models.Media
	for _, id := range ids {
		if media, ok := f.medias[id]; ok {
			out = append(out, media)
		}
	}
	return out, nil
}

func (f *fakeStore) SpeechesByIDs(_ context.Context, ids []uuid.UUID) ([]models.Speech, error) {
	var out []models.Speech
	for _, id := range ids {
		if speech, ok := f.speeches[id]; ok {
			out = append(out, speech)
		}
	}
	return out, nil
}

func (f *fakeStore) CreatePaymentOrder(_ context.Context, payment *models.Payment, order *models.Order, orderMedia []models.OrderMedia, _ []uuid.UUID) error {
	if f.failingCreates > 0 {
		f.failingCreates--
		return fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	}
	f.payments[payment.ID] = payment
	f.orders[order.ID] = order
	f.orderMedia[order.ID] = orderMedia
	return nil
}

func (f *fakeStore) PaymentBySystemID(_ context.Context, systemID string) (*models.Payment, *models.Order, error) {
	for _, payment := range f.payments {
		if payment.SystemID == systemID {
			for _, order := range f.orders {
				if order.PaymentID == payment.ID {
					return payment, order, nil
				}
			}
		}
	}
	return nil, nil, postgres.ErrNotFound
}

func (f *fakeStore) SetPaymentStatus(_ context.Context, paymentID uuid.UUID, status string) (bool, error) {
	payment, ok := f.payments[paymentID]
	if !ok {
		return false, postgres.ErrNotFound
	}
	if payment.Status != models.PaymentStatusPending {
		return false, nil
	}
	payment.Status = status
	return true, nil
}

func (f *fakeStore) ChangeOrderStatus(_ context.Context, orderID uuid.UUID, status string) (*postgres.ChangeStatusResult, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	payment := f.payments[order.PaymentID]
	if models.OrderStatusRank(status) <= models.OrderStatusRank(order.Status) {
		return &postgres.ChangeStatusResult{Applied: false, Status: order.Status, PayerID: payment.UserID}, nil
	}
	order.Status = status
	if status == models.OrderStatusApproved {
		f.grants[orderID]++
	}
	return &postgres.ChangeStatusResult{Applied: true, Status: status, PayerID: payment.UserID}, nil
}

func (f *fakeStore) OrderProcessingInfo(_ context.Context, orderID uuid.UUID) (bool, bool, error) {
	media := f.orderMedia[orderID]
	requires := false
	for _, om := range media {
		if om.RequiresProcessing {
			requires = true
		}
	}
	return len(media) > 0, requires, nil
}

func newPaymentService(store *fakeStore) *services.PaymentService {
	gateway := robokassa.New("shop", "pass1", "pass2", true)
	policy := pricing.NewPolicy([]int{2000, 1000, 1500})
	cfg := &config.Config{DefaultMediaPrice: 400}
	return services.NewPaymentService(store, gateway, policy, nil, cfg)
}

func resultSignature(amount int, invoiceID string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("%.2f:%s:pass1", float64(amount), invoiceID))))
}

func addMedia(store *fakeStore, price int) uuid.UUID {
	id := uuid.New()
	store.medias[id] = models.Media{ID: id, Price: price}
	return id
}

func addSpeech(store *fakeStore, position int) uuid.UUID {
	id := uuid.New()
	store.speeches[id] = models.Speech{ID: id, Position: position}
	return id
}

func TestCreatePurchase_PricesSelection(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store)

	priced := addMedia(store, 400)
	unpriced := addMedia(store, 0) // falls back to the default price
	speech := addSpeech(store, 0)  // first tier, 2000

	resp, err := svc.CreatePurchase(context.Background(), 7, models.CreatePurchaseRequest{
		Medias: []models.MediaSelection{
			{ID: priced.String()},
			{ID: unpriced.String(), RequiresProcessing: true},
		},
		Speeches: []models.SpeechSelection{{ID: speech.String()}},
	})
	require.NoError(t, err)
	require.True(t, resp.Success)

	require.Len(t, store.payments, 1)
	for _, payment := range store.payments {
		assert.Equal(t, 2800, payment.Amount)
		assert.Equal(t, 7, payment.UserID)
		assert.Equal(t, models.PaymentStatusPending, payment.Status)
	}
	for _, order := range store.orders {
		assert.Equal(t, models.OrderStatusWaitingForPayment, order.Status)
	}

	parsed, err := url.Parse(resp.URL)
	require.NoError(t, err)
	assert.Equal(t, "2800", parsed.Query().Get("OutSum"))
	assert.NotEmpty(t, parsed.Query().Get("SignatureValue"))
}

func TestCreatePurchase_DropsUnknownIDs(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store)

	known := addMedia(store, 500)

	_, err := svc.CreatePurchase(context.Background(), 7, models.CreatePurchaseRequest{
		Medias: []models.MediaSelection{
			{ID: known.String()},
			{ID: uuid.NewString()},
		},
	})
	require.NoError(t, err)

	for _, payment := range store.payments {
		assert.Equal(t, 500, payment.Amount)
	}
	for _, media := range store.orderMedia {
		assert.Len(t, media, 1)
	}
}

func TestCreatePurchase_EmptySelection(t *testing.T) {
	svc := newPaymentService(newFakeStore())

	_, err := svc.CreatePurchase(context.Background(), 7, models.CreatePurchaseRequest{
		Medias: []models.MediaSelection{{ID: uuid.NewString()}},
	})
	assert.ErrorIs(t, err, services.ErrInvalidArgument)
}

func TestCreatePurchase_RerollsInvoiceOnCollision(t *testing.T) {
	store := newFakeStore()
	store.failingCreates = 2
	svc := newPaymentService(store)

	media := addMedia(store, 400)

	resp, err := svc.CreatePurchase(context.Background(), 7, models.CreatePurchaseRequest{
		Medias: []models.MediaSelection{{ID: media.String()}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Len(t, store.payments, 1)
}

// seedOrder plants a settled-ready purchase and returns its invoice id.
func seedOrder(store *fakeStore, amount int, requiresProcessing bool) (string, uuid.UUID) {
	payment := &models.Payment{
		ID:       uuid.New(),
		UserID:   7,
		Amount:   amount,
		SystemID: "12345",
		Status:   models.PaymentStatusPending,
	}
	order := &models.Order{
		ID:        uuid.New(),
		PaymentID: payment.ID,
		Status:    models.OrderStatusWaitingForPayment,
	}
	store.payments[payment.ID] = payment
	store.orders[order.ID] = order
	store.orderMedia[order.ID] = []models.OrderMedia{
		{ID: uuid.New(), OrderID: order.ID, MediaID: uuid.New(), RequiresProcessing: requiresProcessing},
	}
	return payment.SystemID, order.ID
}

func TestReconcile_SuccessApprovesOrderWithoutProcessing(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store)
	invoice, orderID := seedOrder(store, 2800, false)

	err := svc.Reconcile(context.Background(), invoice, resultSignature(2800, invoice), true)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusApproved, store.orders[orderID].Status)
	assert.Equal(t, 1, store.grants[orderID])
	for _, payment := range store.payments {
		assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	}
}

func TestReconcile_SuccessLeavesProcessingOrdersPending(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store)
	invoice, orderID := seedOrder(store, 2800, true)

	err := svc.Reconcile(context.Background(), invoice, resultSignature(2800, invoice), true)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, store.orders[orderID].Status)
	assert.Equal(t, 0, store.grants[orderID])
}

func TestReconcile_DuplicateCallbackIsNoop(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store)
	invoice, orderID := seedOrder(store, 2800, false)
	signature := resultSignature(2800, invoice)

	require.NoError(t, svc.Reconcile(context.Background(), invoice, signature, true))
	require.NoError(t, svc.Reconcile(context.Background(), invoice, signature, true))

	// The grant happened exactly once; the second delivery changed nothing.
	assert.Equal(t, 1, store.grants[orderID])
	assert.Equal(t, models.OrderStatusApproved, store.orders[orderID].Status)
}

func TestReconcile_RetryFinishesInterruptedFulfillment(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store)
	invoice, orderID := seedOrder(store, 2800, false)

	// A previous delivery settled the payment but died before touching the
	// order. The gateway retry must pick the order up from there.
	for _, payment := range store.payments {
		payment.Status = models.PaymentStatusSuccess
	}

	err := svc.Reconcile(context.Background(), invoice, resultSignature(2800, invoice), true)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusApproved, store.orders[orderID].Status)
	assert.Equal(t, 1, store.grants[orderID])
}

func TestReconcile_RetryLeavesFailedPaymentAlone(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store)
	invoice, orderID := seedOrder(store, 2800, false)

	for _, payment := range store.payments {
		payment.Status = models.PaymentStatusFailed
	}

	err := svc.Reconcile(context.Background(), invoice, resultSignature(2800, invoice), true)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusWaitingForPayment, store.orders[orderID].Status)
	assert.Equal(t, 0, store.grants[orderID])
	for _, payment := range store.payments {
		assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	}
}

func TestReconcile_BadSignatureMutatesNothing(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store)
	invoice, orderID := seedOrder(store, 2800, false)

	err := svc.Reconcile(context.Background(), invoice, "deadbeef", true)
	assert.ErrorIs(t, err, services.ErrForbidden)

	assert.Equal(t, models.OrderStatusWaitingForPayment, store.orders[orderID].Status)
	for _, payment := range store.payments {
		assert.Equal(t, models.PaymentStatusPending, payment.Status)
	}
}

func TestReconcile_UnknownInvoice(t *testing.T) {
	svc := newPaymentService(newFakeStore())

	err := svc.Reconcile(context.Background(), "99999", "deadbeef", true)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestReconcile_FailureSettlesPaymentOnly(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store)
	invoice, orderID := seedOrder(store, 2800, false)

	err := svc.Reconcile(context.Background(), invoice, resultSignature(2800, invoice), false)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusWaitingForPayment, store.orders[orderID].Status)
	for _, payment := range store.payments {
		assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	}
}

package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Payment status values. A payment is terminal once it leaves PENDING.
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
)

// Order status values. Transitions are monotonic:
// WAITING_FOR_PAYMENT -> PENDING -> APPROVED.
const (
	OrderStatusWaitingForPayment = "WAITING_FOR_PAYMENT"
	OrderStatusPending           = "PENDING"
	OrderStatusApproved          = "APPROVED"
)

// OrderStatusRank orders statuses along the allowed progression; a
// transition is valid only when the rank strictly increases. Unknown
// statuses rank below everything.
func OrderStatusRank(status string) int {
	switch status {
	case OrderStatusWaitingForPayment:
		return 0
	case OrderStatusPending:
		return 1
	case OrderStatusApproved:
		return 2
	default:
		return -1
	}
}

type User struct {
	ID        int
	Fullname  string
	Email     string
	Login     string
	Password  string
	IsAdmin   bool
	CreatedAt time.Time
}

type Event struct {
	ID        uuid.UUID
	Name      string
	Date      time.Time
	Price     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Flow struct {
	ID      uuid.UUID
	EventID uuid.UUID
	Name    string
	From    time.Time
	To      time.Time
}

type Speech struct {
	ID       uuid.UUID
	FlowID   uuid.UUID
	Name     string
	Price    sql.NullInt64
	Position int
}

type Member struct {
	ID       uuid.UUID
	SpeechID uuid.UUID
	Name     sql.NullString
}

// Media is one purchasable photo. Position is its 1-based slot within the
// owning member's sequence; the set of positions under one member is always
// exactly {1..count}.
type Media struct {
	ID          uuid.UUID
	MemberID    uuid.UUID
	Filename    string
	Preview     string
	FullVersion string
	Position    int
	Price       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Payment struct {
	ID        uuid.UUID
	UserID    int
	Amount    int
	SystemID  string
	Status    string
	CreatedAt time.Time
}

type Order struct {
	ID        uuid.UUID
	PaymentID uuid.UUID
	Status    string
	CreatedAt time.Time
}

// OrderMedia joins a purchased media item to its order. Processed fields are
// filled once an operator uploads a retouched replacement.
type OrderMedia struct {
	ID                   uuid.UUID
	OrderID              uuid.UUID
	MediaID              uuid.UUID
	RequiresProcessing   bool
	ProcessedPreview     sql.NullString
	ProcessedFullVersion sql.NullString
	ProcessedAt          sql.NullTime
	DisplayOrder         int
}

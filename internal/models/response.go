package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

type UserResponse struct {
	ID       int    `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Login    string `json:"login"`
	IsAdmin  bool   `json:"is_admin"`
}

type EventResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Price     int       `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

type EventListResponse struct {
	Events []EventSummary `json:"events"`
	Total  int            `json:"total"`
}

// EventSummary carries one cover photo so listings can render a thumbnail
// without walking the whole tree.
type EventSummary struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Date      time.Time      `json:"date"`
	Price     int            `json:"price"`
	LastPhoto *MediaResponse `json:"last_photo,omitempty"`
}

type FlowResponse struct {
	ID      string    `json:"id"`
	EventID string    `json:"event_id"`
	Name    string    `json:"name"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
}

type FlowListResponse struct {
	Flows []FlowResponse `json:"flows"`
	Total int            `json:"total"`
}

type SpeechResponse struct {
	ID     string `json:"id"`
	FlowID string `json:"flow_id"`
	Name   string `json:"name"`
	Price  int    `json:"price"`
}

type SpeechListResponse struct {
	Speeches []SpeechResponse `json:"speeches"`
	Total    int              `json:"total"`
}

type MemberResponse struct {
	ID       string          `json:"id"`
	SpeechID string          `json:"speech_id"`
	Name     string          `json:"name,omitempty"`
	Media    []MediaResponse `json:"media,omitempty"`
}

type MemberListResponse struct {
	Members []MemberResponse `json:"members"`
	Total   int              `json:"total"`
}

// MediaResponse redacts FullVersion for viewers without an entitlement;
// the field is omitted entirely rather than sent empty.
type MediaResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Preview     string    `json:"preview"`
	FullVersion string    `json:"full_version,omitempty"`
	Position    int       `json:"position"`
	Price       int       `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

type PaymentLinkResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

type OrderMediaResponse struct {
	ID                   string        `json:"id"`
	Media                MediaResponse `json:"media"`
	RequiresProcessing   bool          `json:"requires_processing"`
	ProcessedPreview     string        `json:"processed_preview,omitempty"`
	ProcessedFullVersion string        `json:"processed_full_version,omitempty"`
	ProcessedAt          *time.Time    `json:"processed_at,omitempty"`
	DisplayOrder         int           `json:"display_order"`
}

type OrderSpeechResponse struct {
	ID      string           `json:"id"`
	Members []MemberResponse `json:"members"`
}

type OrderResponse struct {
	ID         string                `json:"id"`
	Status     string                `json:"status"`
	Amount     int                   `json:"amount"`
	OrderMedia []OrderMediaResponse  `json:"order_media"`
	Speeches   []OrderSpeechResponse `json:"speeches"`
	CreatedAt  time.Time             `json:"created_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

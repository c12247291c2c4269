package models

type SignUpRequest struct {
	Fullname string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type SignInRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type CreateEventRequest struct {
	Name  string `json:"name" binding:"required"`
	Date  string `json:"date" binding:"required"`
	Price int    `json:"price"`
}

type UpdateEventRequest struct {
	Name  string `json:"name"`
	Date  string `json:"date"`
	Price *int   `json:"price"`
}

type CreateFlowRequest struct {
	EventID string `json:"event_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
	From    string `json:"from" binding:"required"`
	To      string `json:"to" binding:"required"`
}

type CreateSpeechRequest struct {
	FlowID string `json:"flow_id" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Price  *int   `json:"price"`
}

type UpdateSpeechRequest struct {
	Name  string `json:"name"`
	Price *int   `json:"price"`
}

type CreateMemberRequest struct {
	SpeechID string `json:"speech_id" binding:"required"`
	Name     string `json:"name"`
}

type UpdateMediaRequest struct {
	Position int  `json:"position" binding:"required,min=1"`
	Price    *int `json:"price"`
}

// MediaSelection is one media item in a purchase request.
type MediaSelection struct {
	ID                 string `json:"id" binding:"required"`
	RequiresProcessing bool   `json:"requires_processing"`
}

type SpeechSelection struct {
	ID string `json:"id" binding:"required"`
}

type CreatePurchaseRequest struct {
	Medias   []MediaSelection  `json:"medias"`
	Speeches []SpeechSelection `json:"speeches"`
}

type ChangeOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=WAITING_FOR_PAYMENT PENDING APPROVED"`
}

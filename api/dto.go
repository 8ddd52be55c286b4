/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Monetary fields are decimal.Decimal. They serialize as quoted decimal
  strings ("42.50"), never as floats, so clients round-trip exact values.

DATES:
  Walk dates are YYYY-MM-DD strings matching the domain model. Instants
  are RFC3339.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - billing/types.go: The domain entities these map from
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawsteps/walkops/billing"
)

// =============================================================================
// USERS
// =============================================================================

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateUserRequest is the request to create a user.
type CreateUserRequest struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// UpdateUserRequest is a partial user update. Nil fields are untouched.
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Active *bool   `json:"active"`
}

func toUserDTO(u billing.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Role:      string(u.Role),
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Active:    u.Active,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// CLIENTS
// =============================================================================

// ClientDTO represents a client with its derived balance.
type ClientDTO struct {
	ID               int64              `json:"id"`
	UserID           int64              `json:"user_id"`
	UserName         string             `json:"user_name,omitempty"`
	Address          string             `json:"address,omitempty"`
	EmergencyContact string             `json:"emergency_contact,omitempty"`
	Notes            string             `json:"notes,omitempty"`
	Balance          decimal.Decimal    `json:"balance"`
	LastPaymentDate  string             `json:"last_payment_date,omitempty"`
	Payments         []ClientPaymentDTO `json:"payments,omitempty"`
	Pets             []PetDTO           `json:"pets,omitempty"`
}

// ClientPaymentDTO is one recorded payment in a client's history.
type ClientPaymentDTO struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
	Method string          `json:"method"`
}

// CreateClientRequest is the request to create a client profile.
type CreateClientRequest struct {
	UserID           int64  `json:"user_id"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergency_contact"`
	Notes            string `json:"notes"`
}

// UpdateClientRequest is a partial client update.
type UpdateClientRequest struct {
	Address          *string `json:"address"`
	EmergencyContact *string `json:"emergency_contact"`
	Notes            *string `json:"notes"`
}

// RecordPaymentRequest records a payment against a client's balance.
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
	Method string          `json:"method"`
}

func toClientDTO(c billing.ClientWithBalance) ClientDTO {
	dto := ClientDTO{
		ID:               c.ID,
		UserID:           c.UserID,
		UserName:         c.UserName,
		Address:          c.Address,
		EmergencyContact: c.EmergencyContact,
		Notes:            c.Notes,
		Balance:          c.Balance,
	}
	if c.LastPaymentDate != nil {
		dto.LastPaymentDate = c.LastPaymentDate.Format(time.RFC3339)
	}
	for _, p := range c.Payments {
		dto.Payments = append(dto.Payments, ClientPaymentDTO{
			Amount: p.Amount,
			Date:   p.Date.Format(time.RFC3339),
			Method: p.Method,
		})
	}
	return dto
}

// =============================================================================
// WALKERS
// =============================================================================

// WalkerDTO represents a walker profile with rates and earnings totals.
type WalkerDTO struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Bio            string          `json:"bio,omitempty"`
	Availability   string          `json:"availability,omitempty"`
	Rating         decimal.Decimal `json:"rating"`
	Color          string          `json:"color,omitempty"`
	Address        string          `json:"address,omitempty"`
	Rate20Min      decimal.Decimal `json:"rate_20_min"`
	Rate30Min      decimal.Decimal `json:"rate_30_min"`
	Rate60Min      decimal.Decimal `json:"rate_60_min"`
	RateOvernight  decimal.Decimal `json:"rate_overnight"`
	TotalEarnings  decimal.Decimal `json:"total_earnings"`
	UnpaidEarnings decimal.Decimal `json:"unpaid_earnings"`
}

// CreateWalkerRequest is the request to create a walker profile.
type CreateWalkerRequest struct {
	UserID        int64           `json:"user_id"`
	Bio           string          `json:"bio"`
	Availability  string          `json:"availability"`
	Color         string          `json:"color"`
	Address       string          `json:"address"`
	Rate20Min     decimal.Decimal `json:"rate_20_min"`
	Rate30Min     decimal.Decimal `json:"rate_30_min"`
	Rate60Min     decimal.Decimal `json:"rate_60_min"`
	RateOvernight decimal.Decimal `json:"rate_overnight"`
}

// UpdateWalkerRequest is a partial walker update. Earnings totals are
// engine-owned and cannot be set through the API.
type UpdateWalkerRequest struct {
	Bio           *string          `json:"bio"`
	Availability  *string          `json:"availability"`
	Color         *string          `json:"color"`
	Address       *string          `json:"address"`
	Rate20Min     *decimal.Decimal `json:"rate_20_min"`
	Rate30Min     *decimal.Decimal `json:"rate_30_min"`
	Rate60Min     *decimal.Decimal `json:"rate_60_min"`
	RateOvernight *decimal.Decimal `json:"rate_overnight"`
}

func toWalkerDTO(w billing.Walker) WalkerDTO {
	return WalkerDTO{
		ID:             w.ID,
		UserID:         w.UserID,
		Bio:            w.Bio,
		Availability:   w.Availability,
		Rating:         w.Rating,
		Color:          w.Color,
		Address:        w.Address,
		Rate20Min:      w.Rate20Min,
		Rate30Min:      w.Rate30Min,
		Rate60Min:      w.Rate60Min,
		RateOvernight:  w.RateOvernight,
		TotalEarnings:  w.TotalEarnings,
		UnpaidEarnings: w.UnpaidEarnings,
	}
}

// WalkerEarningDTO is one walk's compensation entry.
type WalkerEarningDTO struct {
	ID         int64           `json:"id"`
	WalkID     int64           `json:"walk_id"`
	WalkerID   int64           `json:"walker_id"`
	Amount     decimal.Decimal `json:"amount"`
	EarnedDate string          `json:"earned_date"`
	IsPaid     bool            `json:"is_paid"`
	PaymentID  int64           `json:"payment_id,omitempty"`
}

// WalkerPaymentDTO is one payout to a walker.
type WalkerPaymentDTO struct {
	ID       int64           `json:"id"`
	WalkerID int64           `json:"walker_id"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"`
	Method   string          `json:"method,omitempty"`
	Notes    string          `json:"notes,omitempty"`
}

// PayWalkerRequest records a payout to a walker.
type PayWalkerRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
	Method string          `json:"method"`
	Notes  string          `json:"notes"`
}

func toEarningDTO(e billing.WalkerEarning) WalkerEarningDTO {
	return WalkerEarningDTO{
		ID:         e.ID,
		WalkID:     e.WalkID,
		WalkerID:   e.WalkerID,
		Amount:     e.Amount,
		EarnedDate: e.EarnedDate.Format("2006-01-02"),
		IsPaid:     e.IsPaid,
		PaymentID:  e.PaymentID,
	}
}

func toWalkerPaymentDTO(p billing.WalkerPayment) WalkerPaymentDTO {
	return WalkerPaymentDTO{
		ID:       p.ID,
		WalkerID: p.WalkerID,
		Amount:   p.Amount,
		Date:     p.Date.Format(time.RFC3339),
		Method:   p.Method,
		Notes:    p.Notes,
	}
}

// =============================================================================
// PETS
// =============================================================================

// PetDTO represents a pet in API responses.
type PetDTO struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"client_id"`
	Name     string `json:"name"`
	Breed    string `json:"breed,omitempty"`
	Age      int    `json:"age,omitempty"`
	Size     string `json:"size,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Active   bool   `json:"active"`
}

// CreatePetRequest is the request to register a pet.
type CreatePetRequest struct {
	ClientID int64  `json:"client_id"`
	Name     string `json:"name"`
	Breed    string `json:"breed"`
	Age      int    `json:"age"`
	Size     string `json:"size"`
	Notes    string `json:"notes"`
}

// UpdatePetRequest is a partial pet update.
type UpdatePetRequest struct {
	Name   *string `json:"name"`
	Breed  *string `json:"breed"`
	Age    *int    `json:"age"`
	Size   *string `json:"size"`
	Notes  *string `json:"notes"`
	Active *bool   `json:"active"`
}

func toPetDTO(p billing.Pet) PetDTO {
	return PetDTO{
		ID:       p.ID,
		ClientID: p.ClientID,
		Name:     p.Name,
		Breed:    p.Breed,
		Age:      p.Age,
		Size:     p.Size,
		Notes:    p.Notes,
		Active:   p.Active,
	}
}

// =============================================================================
// WALKS
// =============================================================================

// WalkDTO represents a walk, optionally with denormalized display names.
type WalkDTO struct {
	ID               int64           `json:"id"`
	ClientID         int64           `json:"client_id"`
	WalkerID         int64           `json:"walker_id,omitempty"`
	PetID            int64           `json:"pet_id"`
	PetIDs           []int64         `json:"pet_ids,omitempty"`
	Date             string          `json:"date"`
	Time             string          `json:"time,omitempty"`
	Duration         int             `json:"duration"`
	BillingAmount    decimal.Decimal `json:"billing_amount"`
	Notes            string          `json:"notes,omitempty"`
	Status           string          `json:"status"`
	IsPaid           bool            `json:"is_paid"`
	PaidDate         string          `json:"paid_date,omitempty"`
	BalanceApplied   bool            `json:"balance_applied"`
	RepeatWeekly     bool            `json:"repeat_weekly,omitempty"`
	NumberOfWeeks    int             `json:"number_of_weeks,omitempty"`
	RecurringGroupID string          `json:"recurring_group_id,omitempty"`

	ClientName string   `json:"client_name,omitempty"`
	WalkerName string   `json:"walker_name,omitempty"`
	PetName    string   `json:"pet_name,omitempty"`
	PetNames   []string `json:"pet_names,omitempty"`
}

// CreateWalkRequest is the request to schedule a walk. When repeat_weekly
// is set, one walk per week is created and the response carries the whole
// series.
type CreateWalkRequest struct {
	ClientID      int64           `json:"client_id"`
	WalkerID      int64           `json:"walker_id"`
	PetID         int64           `json:"pet_id"`
	PetIDs        []int64         `json:"pet_ids"`
	Date          string          `json:"date"`
	Time          string          `json:"time"`
	Duration      int             `json:"duration"`
	BillingAmount decimal.Decimal `json:"billing_amount"`
	Notes         string          `json:"notes"`
	RepeatWeekly  bool            `json:"repeat_weekly"`
	NumberOfWeeks int             `json:"number_of_weeks"`
}

// UpdateWalkRequest is a partial walk update. Setting status to
// "completed" triggers the completion side effects.
type UpdateWalkRequest struct {
	WalkerID      *int64           `json:"walker_id"`
	PetID         *int64           `json:"pet_id"`
	PetIDs        *[]int64         `json:"pet_ids"`
	Date          *string          `json:"date"`
	Time          *string          `json:"time"`
	Duration      *int             `json:"duration"`
	BillingAmount *decimal.Decimal `json:"billing_amount"`
	Notes         *string          `json:"notes"`
	Status        *string          `json:"status"`
	IsPaid        *bool            `json:"is_paid"`
	PaidDate      *string          `json:"paid_date"`
}

func toWalkDTO(w billing.Walk) WalkDTO {
	dto := WalkDTO{
		ID:               w.ID,
		ClientID:         w.ClientID,
		WalkerID:         w.WalkerID,
		PetID:            w.PetID,
		PetIDs:           w.PetIDs,
		Date:             w.Date,
		Time:             w.Time,
		Duration:         w.Duration,
		BillingAmount:    w.BillingAmount,
		Notes:            w.Notes,
		Status:           string(w.Status),
		IsPaid:           w.IsPaid,
		BalanceApplied:   w.BalanceApplied,
		RepeatWeekly:     w.RepeatWeekly,
		NumberOfWeeks:    w.NumberOfWeeks,
		RecurringGroupID: w.RecurringGroupID,
	}
	if w.PaidDate != nil {
		dto.PaidDate = w.PaidDate.Format(time.RFC3339)
	}
	return dto
}

func toWalkDetailsDTO(d billing.WalkDetails) WalkDTO {
	dto := toWalkDTO(d.Walk)
	dto.ClientName = d.ClientName
	dto.WalkerName = d.WalkerName
	dto.PetName = d.PetName
	dto.PetNames = d.PetNames
	return dto
}

// WalkPhotoDTO is one photo attached to a walk.
type WalkPhotoDTO struct {
	ID         int64  `json:"id"`
	WalkID     int64  `json:"walk_id"`
	URL        string `json:"url"`
	UploadedAt string `json:"uploaded_at"`
}

// AddPhotoRequest attaches a photo URL to a walk.
type AddPhotoRequest struct {
	URL string `json:"url"`
}

func toPhotoDTO(p billing.WalkPhoto) WalkPhotoDTO {
	return WalkPhotoDTO{
		ID:         p.ID,
		WalkID:     p.WalkID,
		URL:        p.URL,
		UploadedAt: p.UploadedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// MESSAGES
// =============================================================================

// MessageDTO represents a user-to-user message.
type MessageDTO struct {
	ID         int64  `json:"id"`
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	Body       string `json:"body"`
	SentAt     string `json:"sent_at"`
	IsRead     bool   `json:"is_read"`
}

// SendMessageRequest is the request to send a message.
type SendMessageRequest struct {
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	Body       string `json:"body"`
}

func toMessageDTO(m billing.Message) MessageDTO {
	return MessageDTO{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Body:       m.Body,
		SentAt:     m.SentAt.Format(time.RFC3339),
		IsRead:     m.IsRead,
	}
}

// =============================================================================
// SHARED
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

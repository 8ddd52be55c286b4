/*
Package billing provides the core operations engine for a dog-walking
business: walk scheduling and lifecycle, client balances, walker
earnings, and the batch reconciliation sweeps that keep them consistent.

KEY CONCEPTS IN THIS FILE (types.go):
  - Entities: User, Client, Walker, Pet, Walk, WalkPhoto, WalkerEarning,
    WalkerPayment, Message
  - WalkStatus: the walk lifecycle states
  - Derived views: WalkDetails, ClientWithPets, ClientWithBalance

DESIGN PRINCIPLES:
  1. Derived balances: a client's balance and a walker's earnings totals
     are always recomputed from the walk/payment history, never trusted
     from a stored counter.
  2. Precision: money uses decimal.Decimal to avoid floating-point errors.
  3. At-most-once side effects: Walk.BalanceApplied guards balance
     credits; one WalkerEarning row per walk guards earnings.

SEE ALSO:
  - store.go:     Persistence contract
  - engine.go:    Walk lifecycle operations
  - balance.go:   Client balance ledger
  - earnings.go:  Walker earnings ledger
  - reconcile.go: Batch reconciliation sweeps
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ROLES AND STATUSES
// =============================================================================

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
	RoleWalker Role = "walker"
)

type WalkStatus string

const (
	StatusScheduled   WalkStatus = "scheduled"
	StatusCompleted   WalkStatus = "completed"
	StatusCancelled   WalkStatus = "cancelled"
	StatusOutstanding WalkStatus = "outstanding"
)

// ValidStatus reports whether s is one of the known walk statuses.
func ValidStatus(s WalkStatus) bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusOutstanding:
		return true
	}
	return false
}

// OvernightDuration is the sentinel duration for overnight stays.
// Overnight walks bill at the walker's overnight rate and end 24 hours
// after their start instant.
const OvernightDuration = -1

// MaxRecurringWeeks caps unbounded weekly-repeat bookings.
const MaxRecurringWeeks = 52

// =============================================================================
// PEOPLE
// =============================================================================

// User is the identity record shared by admins, clients, and walkers.
// Users are deactivated (soft-delete), never destroyed.
type User struct {
	ID     int64
	Role   Role
	Name   string
	Email  string
	Phone  string
	Active bool

	CreatedAt time.Time
}

// Client is the billing-side profile for a user with RoleClient.
// Balance is intentionally absent: it is derived on every read from the
// completed-walk history minus recorded payments. See ClientBalance.
type Client struct {
	ID               int64
	UserID           int64
	Address          string
	EmergencyContact string
	Notes            string

	LastPaymentDate *time.Time
	Payments        []ClientPayment
}

// ClientPayment is one recorded payment against a client's balance.
type ClientPayment struct {
	Amount decimal.Decimal
	Date   time.Time
	Method string
}

// Walker is the profile for a user with RoleWalker. The four rate tiers
// drive earning computation; a zero rate means "not configured" and
// yields a zero earning (see EarningForDuration).
//
// TotalEarnings and UnpaidEarnings are read-through caches over the
// earnings table. They are refreshed only by refreshWalkerTotals; every
// other path derives totals from the table directly.
type Walker struct {
	ID           int64
	UserID       int64
	Bio          string
	Availability string // serialized weekly schedule, opaque to the engine
	Rating       decimal.Decimal
	Color        string
	Address      string

	Rate20Min     decimal.Decimal
	Rate30Min     decimal.Decimal
	Rate60Min     decimal.Decimal
	RateOvernight decimal.Decimal

	TotalEarnings  decimal.Decimal
	UnpaidEarnings decimal.Decimal
}

// Pet belongs to exactly one client. Soft-deleted via Active.
type Pet struct {
	ID       int64
	ClientID int64
	Name     string
	Breed    string
	Age      int
	Size     string
	Notes    string
	Active   bool
}

// =============================================================================
// WALKS
// =============================================================================

// Walk is the central entity: one scheduled appointment linking a
// client, one or more pets, and optionally a walker.
//
// PetIDs holds the full multi-pet set as a typed list (the primary pet
// PetID is always a member). BalanceApplied guards against crediting the
// client's balance twice for the same walk.
type Walk struct {
	ID       int64
	ClientID int64
	WalkerID int64 // 0 = unassigned
	PetID    int64 // primary pet
	PetIDs   []int64

	Date     string // YYYY-MM-DD
	Time     string // named slot or HH:MM:SS
	Duration int    // minutes, or OvernightDuration

	BillingAmount decimal.Decimal
	Notes         string
	Status        WalkStatus

	IsPaid         bool
	PaidDate       *time.Time
	BalanceApplied bool

	RepeatWeekly     bool
	NumberOfWeeks    int
	RecurringGroupID string

	CreatedAt time.Time
}

// NewWalk is the creation payload for CreateWalk. Referential validity
// of ClientID/PetIDs/WalkerID is the route layer's responsibility; the
// engine persists what it is given.
type NewWalk struct {
	ClientID int64
	WalkerID int64
	PetID    int64
	PetIDs   []int64

	Date     string
	Time     string
	Duration int

	BillingAmount decimal.Decimal
	Notes         string

	RepeatWeekly  bool
	NumberOfWeeks int
}

// WalkUpdate is a partial update: nil fields are left untouched.
type WalkUpdate struct {
	WalkerID      *int64
	PetID         *int64
	PetIDs        *[]int64
	Date          *string
	Time          *string
	Duration      *int
	BillingAmount *decimal.Decimal
	Notes         *string
	Status        *WalkStatus
	IsPaid        *bool
	PaidDate      *time.Time
}

// WalkPhoto belongs to one walk and is cascade-deleted with it.
type WalkPhoto struct {
	ID         int64
	WalkID     int64
	URL        string
	UploadedAt time.Time
}

// =============================================================================
// EARNINGS AND PAYMENTS
// =============================================================================

// WalkerEarning is a walker's compensation for one completed walk.
// At most one earning exists per walk. Amount is computed once from the
// walker's rate table at creation time and never recalculated, even if
// rates or the walk's duration later change.
type WalkerEarning struct {
	ID         int64
	WalkID     int64
	WalkerID   int64
	Amount     decimal.Decimal
	EarnedDate time.Time
	IsPaid     bool
	PaymentID  int64 // 0 = none
}

// WalkerPayment is one payout to a walker. Recording a payment marks
// unpaid earnings paid oldest-first until the amount is exhausted.
type WalkerPayment struct {
	ID       int64
	WalkerID int64
	Amount   decimal.Decimal
	Date     time.Time
	Method   string
	Notes    string
}

// Message is user-to-user chat. It shares the store but is outside the
// billing engine's logic.
type Message struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Body       string
	SentAt     time.Time
	IsRead     bool
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// WalkDetails is a walk with denormalized display names attached.
type WalkDetails struct {
	Walk
	ClientName string
	WalkerName string
	PetName    string
	PetNames   []string
}

// ClientWithBalance pairs a client with its derived balance.
type ClientWithBalance struct {
	Client
	UserName string
	Balance  decimal.Decimal
}

// ClientWithPets adds the client's active pets on top of the balance view.
type ClientWithPets struct {
	ClientWithBalance
	Pets []Pet
}

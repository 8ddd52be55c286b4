/*
store.go - Persistence contract between the engine and its backing store

PURPOSE:
  Defines the interface the billing engine depends on. Stores are dumb:
  keyed CRUD plus a few keyed lookups, no business logic. The engine owns
  every invariant (at-most-once credit, one earning per walk, derived
  balances); the store just remembers entities and assigns IDs.

ID GENERATION:
  Create* methods assign a monotonic auto-increment ID per entity type
  and return the stored value. Callers never pick IDs.

IMPLEMENTATIONS:
  - store/memory: in-memory maps, for tests and single-process deploys
  - store/sqlite: durable SQLite backend

CONCURRENCY:
  Implementations must be safe for concurrent use. The engine still
  serializes its check-then-act sequences behind its own lock; store
  thread-safety alone is not enough to preserve billing invariants.
*/
package billing

import "context"

// =============================================================================
// PER-ENTITY CONTRACTS
// =============================================================================

type UserStore interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, u User) error
}

type ClientStore interface {
	CreateClient(ctx context.Context, c Client) (Client, error)
	GetClient(ctx context.Context, id int64) (*Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	UpdateClient(ctx context.Context, c Client) error
}

type WalkerStore interface {
	CreateWalker(ctx context.Context, w Walker) (Walker, error)
	GetWalker(ctx context.Context, id int64) (*Walker, error)
	ListWalkers(ctx context.Context) ([]Walker, error)
	UpdateWalker(ctx context.Context, w Walker) error
}

type PetStore interface {
	CreatePet(ctx context.Context, p Pet) (Pet, error)
	GetPet(ctx context.Context, id int64) (*Pet, error)
	ListPets(ctx context.Context) ([]Pet, error)
	ListPetsByClient(ctx context.Context, clientID int64) ([]Pet, error)
	UpdatePet(ctx context.Context, p Pet) error
}

type WalkStore interface {
	CreateWalk(ctx context.Context, w Walk) (Walk, error)
	GetWalk(ctx context.Context, id int64) (*Walk, error)
	ListWalks(ctx context.Context) ([]Walk, error)
	ListWalksByClient(ctx context.Context, clientID int64) ([]Walk, error)
	ListWalksByWalker(ctx context.Context, walkerID int64) ([]Walk, error)
	ListWalksByStatus(ctx context.Context, status WalkStatus) ([]Walk, error)
	UpdateWalk(ctx context.Context, w Walk) error

	// DeleteWalk hard-deletes the walk row only. Photo cascade is the
	// engine's job so the policy lives in one place.
	DeleteWalk(ctx context.Context, id int64) error
}

type PhotoStore interface {
	AddPhoto(ctx context.Context, p WalkPhoto) (WalkPhoto, error)
	ListPhotosByWalk(ctx context.Context, walkID int64) ([]WalkPhoto, error)
	DeletePhotosByWalk(ctx context.Context, walkID int64) error
}

type EarningStore interface {
	CreateEarning(ctx context.Context, e WalkerEarning) (WalkerEarning, error)
	// GetEarningByWalk returns nil when no earning references walkID.
	GetEarningByWalk(ctx context.Context, walkID int64) (*WalkerEarning, error)
	ListEarningsByWalker(ctx context.Context, walkerID int64) ([]WalkerEarning, error)
	UpdateEarning(ctx context.Context, e WalkerEarning) error
}

type WalkerPaymentStore interface {
	CreateWalkerPayment(ctx context.Context, p WalkerPayment) (WalkerPayment, error)
	ListWalkerPaymentsByWalker(ctx context.Context, walkerID int64) ([]WalkerPayment, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, m Message) (Message, error)
	GetMessage(ctx context.Context, id int64) (*Message, error)
	ListMessagesByUser(ctx context.Context, userID int64) ([]Message, error)
	UpdateMessage(ctx context.Context, m Message) error
}

// =============================================================================
// COMBINED STORE
// =============================================================================

// Store is the full persistence surface the engine is built on.
type Store interface {
	UserStore
	ClientStore
	WalkerStore
	PetStore
	WalkStore
	PhotoStore
	EarningStore
	WalkerPaymentStore
	MessageStore
}

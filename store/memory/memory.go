/*
Package memory provides the in-memory Store implementation.

PURPOSE:
  Backs the billing engine with keyed maps and per-entity monotonic
  auto-increment IDs. Used by tests and by single-process deployments
  that accept process-lifetime persistence.

CONCURRENCY:
  A single RWMutex guards all maps. Entities are copied on the way in
  and out (including their slices), so callers can never alias store
  state.

SEE ALSO:
  - billing/store.go: the contract this implements
  - store/sqlite:     the durable alternative
*/
package memory

import (
	"context"
	"sync"

	"github.com/pawsteps/walkops/billing"
)

// Store implements billing.Store with in-memory maps.
type Store struct {
	mu sync.RWMutex

	users    map[int64]billing.User
	clients  map[int64]billing.Client
	walkers  map[int64]billing.Walker
	pets     map[int64]billing.Pet
	walks    map[int64]billing.Walk
	photos   map[int64]billing.WalkPhoto
	earnings map[int64]billing.WalkerEarning
	payments map[int64]billing.WalkerPayment
	messages map[int64]billing.Message

	// one counter per entity type
	nextID map[string]int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[int64]billing.User),
		clients:  make(map[int64]billing.Client),
		walkers:  make(map[int64]billing.Walker),
		pets:     make(map[int64]billing.Pet),
		walks:    make(map[int64]billing.Walk),
		photos:   make(map[int64]billing.WalkPhoto),
		earnings: make(map[int64]billing.WalkerEarning),
		payments: make(map[int64]billing.WalkerPayment),
		messages: make(map[int64]billing.Message),
		nextID:   make(map[string]int64),
	}
}

// Reset wipes all data and restarts every ID counter.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[int64]billing.User)
	s.clients = make(map[int64]billing.Client)
	s.walkers = make(map[int64]billing.Walker)
	s.pets = make(map[int64]billing.Pet)
	s.walks = make(map[int64]billing.Walk)
	s.photos = make(map[int64]billing.WalkPhoto)
	s.earnings = make(map[int64]billing.WalkerEarning)
	s.payments = make(map[int64]billing.WalkerPayment)
	s.messages = make(map[int64]billing.Message)
	s.nextID = make(map[string]int64)
	return nil
}

// next assigns the next ID for an entity type. Callers hold s.mu.
func (s *Store) next(kind string) int64 {
	s.nextID[kind]++
	return s.nextID[kind]
}

func copyWalk(w billing.Walk) billing.Walk {
	w.PetIDs = append([]int64(nil), w.PetIDs...)
	return w
}

func copyClient(c billing.Client) billing.Client {
	c.Payments = append([]billing.ClientPayment(nil), c.Payments...)
	return c
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) CreateUser(_ context.Context, u billing.User) (billing.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.next("user")
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*billing.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]billing.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u billing.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return billing.ErrUserNotFound
	}
	s.users[u.ID] = u
	return nil
}

// =============================================================================
// CLIENTS
// =============================================================================

func (s *Store) CreateClient(_ context.Context, c billing.Client) (billing.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.next("client")
	s.clients[c.ID] = copyClient(c)
	return c, nil
}

func (s *Store) GetClient(_ context.Context, id int64) (*billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, nil
	}
	c = copyClient(c)
	return &c, nil
}

func (s *Store) ListClients(_ context.Context) ([]billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, copyClient(c))
	}
	return out, nil
}

func (s *Store) UpdateClient(_ context.Context, c billing.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; !ok {
		return billing.ErrClientNotFound
	}
	s.clients[c.ID] = copyClient(c)
	return nil
}

// =============================================================================
// WALKERS
// =============================================================================

func (s *Store) CreateWalker(_ context.Context, w billing.Walker) (billing.Walker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.ID = s.next("walker")
	s.walkers[w.ID] = w
	return w, nil
}

func (s *Store) GetWalker(_ context.Context, id int64) (*billing.Walker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.walkers[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (s *Store) ListWalkers(_ context.Context) ([]billing.Walker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Walker, 0, len(s.walkers))
	for _, w := range s.walkers {
		out = append(out, w)
	}
	return out, nil
}

func (s *Store) UpdateWalker(_ context.Context, w billing.Walker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.walkers[w.ID]; !ok {
		return billing.ErrWalkerNotFound
	}
	s.walkers[w.ID] = w
	return nil
}

// =============================================================================
// PETS
// =============================================================================

func (s *Store) CreatePet(_ context.Context, p billing.Pet) (billing.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.next("pet")
	s.pets[p.ID] = p
	return p, nil
}

func (s *Store) GetPet(_ context.Context, id int64) (*billing.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pets[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) ListPets(_ context.Context) ([]billing.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Pet, 0, len(s.pets))
	for _, p := range s.pets {
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) ListPetsByClient(_ context.Context, clientID int64) ([]billing.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.Pet
	for _, p := range s.pets {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) UpdatePet(_ context.Context, p billing.Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pets[p.ID]; !ok {
		return billing.ErrPetNotFound
	}
	s.pets[p.ID] = p
	return nil
}

// =============================================================================
// WALKS
// =============================================================================

func (s *Store) CreateWalk(_ context.Context, w billing.Walk) (billing.Walk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.ID = s.next("walk")
	s.walks[w.ID] = copyWalk(w)
	return w, nil
}

func (s *Store) GetWalk(_ context.Context, id int64) (*billing.Walk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.walks[id]
	if !ok {
		return nil, nil
	}
	w = copyWalk(w)
	return &w, nil
}

func (s *Store) ListWalks(_ context.Context) ([]billing.Walk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Walk, 0, len(s.walks))
	for _, w := range s.walks {
		out = append(out, copyWalk(w))
	}
	return out, nil
}

func (s *Store) ListWalksByClient(_ context.Context, clientID int64) ([]billing.Walk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.Walk
	for _, w := range s.walks {
		if w.ClientID == clientID {
			out = append(out, copyWalk(w))
		}
	}
	return out, nil
}

func (s *Store) ListWalksByWalker(_ context.Context, walkerID int64) ([]billing.Walk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.Walk
	for _, w := range s.walks {
		if w.WalkerID == walkerID {
			out = append(out, copyWalk(w))
		}
	}
	return out, nil
}

func (s *Store) ListWalksByStatus(_ context.Context, status billing.WalkStatus) ([]billing.Walk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.Walk
	for _, w := range s.walks {
		if w.Status == status {
			out = append(out, copyWalk(w))
		}
	}
	return out, nil
}

func (s *Store) UpdateWalk(_ context.Context, w billing.Walk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.walks[w.ID]; !ok {
		return billing.ErrWalkNotFound
	}
	s.walks[w.ID] = copyWalk(w)
	return nil
}

func (s *Store) DeleteWalk(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.walks[id]; !ok {
		return billing.ErrWalkNotFound
	}
	delete(s.walks, id)
	return nil
}

// =============================================================================
// PHOTOS
// =============================================================================

func (s *Store) AddPhoto(_ context.Context, p billing.WalkPhoto) (billing.WalkPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.next("photo")
	s.photos[p.ID] = p
	return p, nil
}

func (s *Store) ListPhotosByWalk(_ context.Context, walkID int64) ([]billing.WalkPhoto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.WalkPhoto
	for _, p := range s.photos {
		if p.WalkID == walkID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) DeletePhotosByWalk(_ context.Context, walkID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.photos {
		if p.WalkID == walkID {
			delete(s.photos, id)
		}
	}
	return nil
}

// =============================================================================
// EARNINGS
// =============================================================================

func (s *Store) CreateEarning(_ context.Context, e billing.WalkerEarning) (billing.WalkerEarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.next("earning")
	s.earnings[e.ID] = e
	return e, nil
}

func (s *Store) GetEarningByWalk(_ context.Context, walkID int64) (*billing.WalkerEarning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.earnings {
		if e.WalkID == walkID {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (s *Store) ListEarningsByWalker(_ context.Context, walkerID int64) ([]billing.WalkerEarning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.WalkerEarning
	for _, e := range s.earnings {
		if e.WalkerID == walkerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) UpdateEarning(_ context.Context, e billing.WalkerEarning) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.earnings[e.ID]; !ok {
		return billing.ErrEarningNotFound
	}
	s.earnings[e.ID] = e
	return nil
}

// =============================================================================
// WALKER PAYMENTS
// =============================================================================

func (s *Store) CreateWalkerPayment(_ context.Context, p billing.WalkerPayment) (billing.WalkerPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.next("walker_payment")
	s.payments[p.ID] = p
	return p, nil
}

func (s *Store) ListWalkerPaymentsByWalker(_ context.Context, walkerID int64) ([]billing.WalkerPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.WalkerPayment
	for _, p := range s.payments {
		if p.WalkerID == walkerID {
			out = append(out, p)
		}
	}
	return out, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

func (s *Store) CreateMessage(_ context.Context, m billing.Message) (billing.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.next("message")
	s.messages[m.ID] = m
	return m, nil
}

func (s *Store) GetMessage(_ context.Context, id int64) (*billing.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *Store) ListMessagesByUser(_ context.Context, userID int64) ([]billing.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.Message
	for _, m := range s.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) UpdateMessage(_ context.Context, m billing.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[m.ID]; !ok {
		return billing.ErrNotFound
	}
	s.messages[m.ID] = m
	return nil
}

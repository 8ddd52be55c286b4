/*
handlers.go - HTTP API handlers for the dog-walking operations console

PURPOSE:
  Exposes the billing engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Users:
    GET    /api/users                   List all users
    POST   /api/users                   Create user
    GET    /api/users/{id}              Get user
    PUT    /api/users/{id}              Update user (incl. deactivation)

  Clients:
    GET    /api/clients                 List clients with derived balances
    POST   /api/clients                 Create client profile
    GET    /api/clients/{id}            Client with balance and pets
    PUT    /api/clients/{id}            Update client profile
    GET    /api/clients/{id}/pets       Client's active pets
    POST   /api/clients/{id}/payments   Record a payment
    GET    /api/clients/balances        All balances (billing dashboard)

  Walkers:
    GET    /api/walkers                 List walkers
    POST   /api/walkers                 Create walker profile
    GET    /api/walkers/{id}            Get walker
    PUT    /api/walkers/{id}            Update walker (rates etc.)
    GET    /api/walkers/{id}/earnings   Full earning history
    GET    /api/walkers/{id}/earnings/unpaid  Unpaid earnings, oldest first
    GET    /api/walkers/{id}/payments   Payout history
    POST   /api/walkers/{id}/payments   Record payout (allocates earnings)

  Pets:
    GET/POST /api/pets, GET/PUT /api/pets/{id}

  Walks:
    GET    /api/walks                   All walks (?status= filter)
    POST   /api/walks                   Schedule walk (weekly series aware)
    GET    /api/walks/upcoming          Scheduled walks from today (?limit=)
    GET    /api/walks/{id}              Walk with display names
    PUT    /api/walks/{id}              Update (completion side effects)
    DELETE /api/walks/{id}              Delete walk + photo cascade
    GET    /api/walks/{id}/photos       Photos for a walk
    POST   /api/walks/{id}/photos       Attach photo

  Messages:
    POST   /api/messages                Send message
    GET    /api/messages/user/{id}      Conversation history for a user
    POST   /api/messages/{id}/read      Mark read

  Scenarios (see scenarios.go):
    GET    /api/scenarios               List demo scenarios
    POST   /api/scenarios/load          Reset store and load a scenario

  Admin:
    POST   /api/admin/reconcile               All four sweeps in order
    POST   /api/admin/reconcile/outstanding   Past unpaid walks sweep
    POST   /api/admin/reconcile/completed     Elapsed walk completion sweep
    POST   /api/admin/reconcile/balances      Balance credit repair sweep
    POST   /api/admin/reconcile/earnings      Missing earnings sweep

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Entity not found
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - billing: The engine every handler delegates to
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pawsteps/walkops/billing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *billing.Engine
}

// NewHandler creates a new handler around the billing engine.
func NewHandler(engine *billing.Engine) *Handler {
	return &Handler{Engine: engine}
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns all users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Engine.Store().ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUser creates a new user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	role := billing.Role(req.Role)
	switch role {
	case billing.RoleAdmin, billing.RoleClient, billing.RoleWalker:
	default:
		writeError(w, http.StatusBadRequest, "Invalid role (use admin, client, or walker)", nil)
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required", nil)
		return
	}

	u, err := h.Engine.Store().CreateUser(r.Context(), billing.User{
		Role:      role,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

// GetUser returns a single user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	u, err := h.Engine.Store().GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*u))
}

// UpdateUser applies a partial update. Deactivation (active=false) is the
// soft-delete path; users are never destroyed.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	u, err := h.Engine.Store().GetUser(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Active != nil {
		u.Active = *req.Active
	}

	if err := h.Engine.Store().UpdateUser(ctx, *u); err != nil {
		writeStoreError(w, "Failed to update user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*u))
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients with their derived balances.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Engine.AllClientsWithBalances(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateClient creates a client profile.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	c, err := h.Engine.Store().CreateClient(r.Context(), billing.Client{
		UserID:           req.UserID,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		Notes:            req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(billing.ClientWithBalance{Client: c}))
}

// GetClient returns the client with derived balance and active pets.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	view, err := h.Engine.GetClientWithPets(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get client", err)
		return
	}

	dto := toClientDTO(view.ClientWithBalance)
	for _, p := range view.Pets {
		dto.Pets = append(dto.Pets, toPetDTO(p))
	}
	writeJSON(w, http.StatusOK, dto)
}

// UpdateClient applies a partial profile update. Payment history and
// balance are engine-owned and not writable here.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	c, err := h.Engine.Store().GetClient(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}

	if req.Address != nil {
		c.Address = *req.Address
	}
	if req.EmergencyContact != nil {
		c.EmergencyContact = *req.EmergencyContact
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}

	if err := h.Engine.Store().UpdateClient(ctx, *c); err != nil {
		writeStoreError(w, "Failed to update client", err)
		return
	}

	view, err := h.Engine.GetClient(ctx, id)
	if err != nil {
		writeStoreError(w, "Failed to reload client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*view))
}

// ListClientPets returns the client's active pets.
func (h *Handler) ListClientPets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	view, err := h.Engine.GetClientWithPets(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get client", err)
		return
	}

	dtos := make([]PetDTO, len(view.Pets))
	for i, p := range view.Pets {
		dtos[i] = toPetDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordClientPayment records a payment against the client's balance.
func (h *Handler) RecordClientPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := parseDateOrNow(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	view, err := h.Engine.RecordClientPayment(r.Context(), id, req.Amount, date, req.Method)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidAmount) {
			writeError(w, http.StatusBadRequest, "Payment amount must be positive", err)
			return
		}
		writeStoreError(w, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(*view))
}

// ListClientBalances is the billing dashboard view: every client with
// its derived balance.
func (h *Handler) ListClientBalances(w http.ResponseWriter, r *http.Request) {
	h.ListClients(w, r)
}

// =============================================================================
// WALKER HANDLERS
// =============================================================================

// ListWalkers returns all walker profiles.
func (h *Handler) ListWalkers(w http.ResponseWriter, r *http.Request) {
	walkers, err := h.Engine.Store().ListWalkers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list walkers", err)
		return
	}

	dtos := make([]WalkerDTO, len(walkers))
	for i, wk := range walkers {
		dtos[i] = toWalkerDTO(wk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWalker creates a walker profile.
func (h *Handler) CreateWalker(w http.ResponseWriter, r *http.Request) {
	var req CreateWalkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	wk, err := h.Engine.Store().CreateWalker(r.Context(), billing.Walker{
		UserID:        req.UserID,
		Bio:           req.Bio,
		Availability:  req.Availability,
		Color:         req.Color,
		Address:       req.Address,
		Rate20Min:     req.Rate20Min,
		Rate30Min:     req.Rate30Min,
		Rate60Min:     req.Rate60Min,
		RateOvernight: req.RateOvernight,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create walker", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWalkerDTO(wk))
}

// GetWalker returns a single walker.
func (h *Handler) GetWalker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	wk, err := h.Engine.Store().GetWalker(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get walker", err)
		return
	}
	if wk == nil {
		writeError(w, http.StatusNotFound, "Walker not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toWalkerDTO(*wk))
}

// UpdateWalker applies a partial profile update. Rate changes affect
// future earnings only; existing earning rows keep their amounts.
func (h *Handler) UpdateWalker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateWalkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	wk, err := h.Engine.Store().GetWalker(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get walker", err)
		return
	}
	if wk == nil {
		writeError(w, http.StatusNotFound, "Walker not found", nil)
		return
	}

	if req.Bio != nil {
		wk.Bio = *req.Bio
	}
	if req.Availability != nil {
		wk.Availability = *req.Availability
	}
	if req.Color != nil {
		wk.Color = *req.Color
	}
	if req.Address != nil {
		wk.Address = *req.Address
	}
	if req.Rate20Min != nil {
		wk.Rate20Min = *req.Rate20Min
	}
	if req.Rate30Min != nil {
		wk.Rate30Min = *req.Rate30Min
	}
	if req.Rate60Min != nil {
		wk.Rate60Min = *req.Rate60Min
	}
	if req.RateOvernight != nil {
		wk.RateOvernight = *req.RateOvernight
	}

	if err := h.Engine.Store().UpdateWalker(ctx, *wk); err != nil {
		writeStoreError(w, "Failed to update walker", err)
		return
	}
	writeJSON(w, http.StatusOK, toWalkerDTO(*wk))
}

// ListWalkerEarnings returns the walker's full earning history.
func (h *Handler) ListWalkerEarnings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	earnings, err := h.Engine.WalkerEarnings(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get earnings", err)
		return
	}

	dtos := make([]WalkerEarningDTO, len(earnings))
	for i, e := range earnings {
		dtos[i] = toEarningDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListUnpaidWalkerEarnings returns unpaid earnings oldest first, the
// order payouts will consume them in.
func (h *Handler) ListUnpaidWalkerEarnings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	earnings, err := h.Engine.UnpaidWalkerEarnings(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get unpaid earnings", err)
		return
	}

	dtos := make([]WalkerEarningDTO, len(earnings))
	for i, e := range earnings {
		dtos[i] = toEarningDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListWalkerPayments returns the walker's payout history.
func (h *Handler) ListWalkerPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	payments, err := h.Engine.WalkerPayments(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get payments", err)
		return
	}

	dtos := make([]WalkerPaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toWalkerPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PayWalker records a payout and allocates it to unpaid earnings.
func (h *Handler) PayWalker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req PayWalkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := parseDateOrNow(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	payment, err := h.Engine.ProcessWalkerPayment(r.Context(), id, req.Amount, date, req.Method, req.Notes)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidAmount) {
			writeError(w, http.StatusBadRequest, "Payment amount must be positive", err)
			return
		}
		writeStoreError(w, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWalkerPaymentDTO(*payment))
}

// =============================================================================
// PET HANDLERS
// =============================================================================

// ListPets returns all pets.
func (h *Handler) ListPets(w http.ResponseWriter, r *http.Request) {
	pets, err := h.Engine.Store().ListPets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pets", err)
		return
	}

	dtos := make([]PetDTO, len(pets))
	for i, p := range pets {
		dtos[i] = toPetDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePet registers a pet for a client.
func (h *Handler) CreatePet(w http.ResponseWriter, r *http.Request) {
	var req CreatePetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ClientID == 0 || req.Name == "" {
		writeError(w, http.StatusBadRequest, "client_id and name are required", nil)
		return
	}

	p, err := h.Engine.Store().CreatePet(r.Context(), billing.Pet{
		ClientID: req.ClientID,
		Name:     req.Name,
		Breed:    req.Breed,
		Age:      req.Age,
		Size:     req.Size,
		Notes:    req.Notes,
		Active:   true,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create pet", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPetDTO(p))
}

// GetPet returns a single pet.
func (h *Handler) GetPet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.Engine.Store().GetPet(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get pet", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Pet not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPetDTO(*p))
}

// UpdatePet applies a partial update. Setting active=false soft-deletes;
// past walks keep referencing the pet.
func (h *Handler) UpdatePet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdatePetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	p, err := h.Engine.Store().GetPet(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get pet", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Pet not found", nil)
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Breed != nil {
		p.Breed = *req.Breed
	}
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.Size != nil {
		p.Size = *req.Size
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := h.Engine.Store().UpdatePet(ctx, *p); err != nil {
		writeStoreError(w, "Failed to update pet", err)
		return
	}
	writeJSON(w, http.StatusOK, toPetDTO(*p))
}

// =============================================================================
// WALK HANDLERS
// =============================================================================

// ListWalks returns all walks, optionally filtered by ?status=.
func (h *Handler) ListWalks(w http.ResponseWriter, r *http.Request) {
	status := billing.WalkStatus(r.URL.Query().Get("status"))

	walks, err := h.Engine.WalksByStatus(r.Context(), status)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "Invalid status filter", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to list walks", err)
		return
	}

	dtos := make([]WalkDTO, len(walks))
	for i, wlk := range walks {
		dtos[i] = toWalkDTO(wlk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWalk schedules a walk. With repeat_weekly the whole weekly
// series is created and returned.
func (h *Handler) CreateWalk(w http.ResponseWriter, r *http.Request) {
	var req CreateWalkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ClientID == 0 {
		writeError(w, http.StatusBadRequest, "client_id is required", nil)
		return
	}

	walks, err := h.Engine.CreateWalk(r.Context(), billing.NewWalk{
		ClientID:      req.ClientID,
		WalkerID:      req.WalkerID,
		PetID:         req.PetID,
		PetIDs:        req.PetIDs,
		Date:          req.Date,
		Time:          req.Time,
		Duration:      req.Duration,
		BillingAmount: req.BillingAmount,
		Notes:         req.Notes,
		RepeatWeekly:  req.RepeatWeekly,
		NumberOfWeeks: req.NumberOfWeeks,
	})
	if err != nil {
		if errors.Is(err, billing.ErrInvalidDate) {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create walk", err)
		return
	}

	dtos := make([]WalkDTO, len(walks))
	for i, wlk := range walks {
		dtos[i] = toWalkDTO(wlk)
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// UpcomingWalks returns scheduled walks from today onward, soonest
// first. ?limit= caps the result.
func (h *Handler) UpcomingWalks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	walks, err := h.Engine.UpcomingWalks(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list upcoming walks", err)
		return
	}

	dtos := make([]WalkDTO, len(walks))
	for i, wlk := range walks {
		dtos[i] = toWalkDTO(wlk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWalk returns a walk with denormalized client/walker/pet names.
func (h *Handler) GetWalk(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	details, err := h.Engine.GetWalkWithDetails(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get walk", err)
		return
	}
	writeJSON(w, http.StatusOK, toWalkDetailsDTO(*details))
}

// UpdateWalk applies a partial update. A transition into "completed"
// credits the client balance and creates the walker earning.
func (h *Handler) UpdateWalk(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateWalkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	upd := billing.WalkUpdate{
		WalkerID:      req.WalkerID,
		PetID:         req.PetID,
		PetIDs:        req.PetIDs,
		Date:          req.Date,
		Time:          req.Time,
		Duration:      req.Duration,
		BillingAmount: req.BillingAmount,
		Notes:         req.Notes,
		IsPaid:        req.IsPaid,
	}
	if req.Status != nil {
		status := billing.WalkStatus(*req.Status)
		upd.Status = &status
	}
	if req.PaidDate != nil {
		t, err := time.Parse("2006-01-02", *req.PaidDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_date format (use YYYY-MM-DD)", err)
			return
		}
		upd.PaidDate = &t
	}

	walk, err := h.Engine.UpdateWalk(r.Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "Invalid status", err)
		case errors.Is(err, billing.ErrInvalidDate):
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		default:
			writeStoreError(w, "Failed to update walk", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toWalkDTO(*walk))
}

// DeleteWalk removes a walk and its photos. Applied balance credits and
// earnings are left in place.
func (h *Handler) DeleteWalk(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Engine.DeleteWalk(r.Context(), id); err != nil {
		writeStoreError(w, "Failed to delete walk", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// ListWalkPhotos returns the photos attached to a walk.
func (h *Handler) ListWalkPhotos(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if _, err := h.Engine.GetWalk(ctx, id); err != nil {
		writeStoreError(w, "Failed to get walk", err)
		return
	}

	photos, err := h.Engine.Store().ListPhotosByWalk(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list photos", err)
		return
	}

	dtos := make([]WalkPhotoDTO, len(photos))
	for i, p := range photos {
		dtos[i] = toPhotoDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddWalkPhoto attaches a photo URL to a walk.
func (h *Handler) AddWalkPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req AddPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required", nil)
		return
	}

	ctx := r.Context()
	if _, err := h.Engine.GetWalk(ctx, id); err != nil {
		writeStoreError(w, "Failed to get walk", err)
		return
	}

	photo, err := h.Engine.Store().AddPhoto(ctx, billing.WalkPhoto{
		WalkID:     id,
		URL:        req.URL,
		UploadedAt: time.Now().UTC(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add photo", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPhotoDTO(photo))
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

// SendMessage creates a user-to-user message.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.SenderID == 0 || req.ReceiverID == 0 || req.Body == "" {
		writeError(w, http.StatusBadRequest, "sender_id, receiver_id and body are required", nil)
		return
	}

	m, err := h.Engine.Store().CreateMessage(r.Context(), billing.Message{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
		SentAt:     time.Now().UTC(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to send message", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessageDTO(m))
}

// ListUserMessages returns all messages a user sent or received.
func (h *Handler) ListUserMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	msgs, err := h.Engine.Store().ListMessagesByUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list messages", err)
		return
	}

	dtos := make([]MessageDTO, len(msgs))
	for i, m := range msgs {
		dtos[i] = toMessageDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MarkMessageRead flags a message as read.
func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	m, err := h.Engine.Store().GetMessage(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get message", err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "Message not found", nil)
		return
	}

	m.IsRead = true
	if err := h.Engine.Store().UpdateMessage(ctx, *m); err != nil {
		writeStoreError(w, "Failed to update message", err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTO(*m))
}

// =============================================================================
// RECONCILIATION ENDPOINTS
// =============================================================================

// Reconcile runs all four sweeps in order and reports per-sweep counts.
// POST /api/admin/reconcile
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Engine.RunAllSweeps(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ReconcileOutstanding flags past unpaid walks as outstanding.
func (h *Handler) ReconcileOutstanding(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, "outstanding", h.Engine.MarkOutstandingWalks)
}

// ReconcileCompleted completes scheduled walks whose end time has passed.
func (h *Handler) ReconcileCompleted(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, "completed", h.Engine.CompleteElapsedWalks)
}

// ReconcileBalances repairs completed walks that never got their balance
// credit applied.
func (h *Handler) ReconcileBalances(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, "balances_applied", h.Engine.ApplyCompletedWalkBalances)
}

// ReconcileEarnings creates earnings for completed walks that are
// missing one.
func (h *Handler) ReconcileEarnings(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, "earnings_created", h.Engine.CreateMissingEarnings)
}

func (h *Handler) runSweep(w http.ResponseWriter, r *http.Request, name string, sweep func(ctx context.Context) (int, error)) {
	n, err := sweep(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reconciliation sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{name: n})
}

// =============================================================================
// HELPERS
// =============================================================================

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

// parseDateOrNow parses a YYYY-MM-DD payment date, defaulting to now.
func parseDateOrNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeStoreError maps engine errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, message string, err error) {
	if billing.IsNotFound(err) {
		writeError(w, http.StatusNotFound, message, err)
		return
	}
	writeError(w, http.StatusInternalServerError, message, err)
}

/*
engine.go - Walk lifecycle engine

PURPOSE:
  The mutation surface for walks: create (including weekly recurrence),
  partial update (with completion side effects), hard delete (with photo
  cascade), and the read operations the API routes consume.

LIFECYCLE:
  scheduled -> completed   (explicit update, or CompleteElapsedWalks sweep)
  scheduled -> cancelled   (explicit update)
  scheduled -> outstanding (MarkOutstandingWalks sweep)
  completed -> scheduled   (manual reactivate; allowed for corrections)

  No status is truly terminal: any status can be rewritten through
  UpdateWalk. Correctness therefore rests on the BalanceApplied flag and
  the one-earning-per-walk guard, not on state-machine enforcement.

COMPLETION SIDE EFFECTS:
  Transitioning into completed runs exactly one code path, shared with
  the batch sweeps: mark the balance applied (applyWalkBalance) and
  create the walker's earning if one is missing (ensureEarningForWalk).
  Re-completing an already-completed walk is a no-op.

CONCURRENCY:
  A single engine mutex serializes every mutating operation and sweep.
  Reads that feed a mutation happen inside the same critical section, so
  check-then-act sequences cannot interleave.
*/
package billing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pawsteps/walkops/logger"
)

// Engine implements the billing and scheduling operations on top of an
// injected Store.
type Engine struct {
	store Store
	mu    sync.Mutex
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Tests use this to pin
// "now" for sweep behavior.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.now = clock }
}

// NewEngine creates an engine backed by store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes the backing store for the plain CRUD passthroughs the
// route layer performs (users, pets, messages).
func (e *Engine) Store() Store { return e.store }

// =============================================================================
// WALK CREATION
// =============================================================================

// CreateWalk persists a new walk, defaulting status to scheduled. When
// RepeatWeekly is set it generates one walk per week for NumberOfWeeks
// occurrences (capped at MaxRecurringWeeks), all sharing a generated
// recurring group ID. Returns every created walk in date order.
func (e *Engine) CreateWalk(ctx context.Context, nw NewWalk) ([]Walk, error) {
	baseDate, err := ParseWalkDate(nw.Date)
	if err != nil {
		return nil, err
	}

	petIDs := normalizePetIDs(nw.PetID, nw.PetIDs)

	occurrences := 1
	groupID := ""
	if nw.RepeatWeekly {
		occurrences = nw.NumberOfWeeks
		if occurrences <= 0 || occurrences > MaxRecurringWeeks {
			occurrences = MaxRecurringWeeks
		}
		groupID = uuid.NewString()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	created := make([]Walk, 0, occurrences)
	for i := 0; i < occurrences; i++ {
		w := Walk{
			ClientID:         nw.ClientID,
			WalkerID:         nw.WalkerID,
			PetID:            nw.PetID,
			PetIDs:           append([]int64(nil), petIDs...),
			Date:             FormatWalkDate(weeksAfter(baseDate, i)),
			Time:             nw.Time,
			Duration:         nw.Duration,
			BillingAmount:    nw.BillingAmount,
			Notes:            nw.Notes,
			Status:           StatusScheduled,
			RepeatWeekly:     nw.RepeatWeekly,
			NumberOfWeeks:    nw.NumberOfWeeks,
			RecurringGroupID: groupID,
			CreatedAt:        e.now(),
		}
		stored, err := e.store.CreateWalk(ctx, w)
		if err != nil {
			return created, err
		}
		created = append(created, stored)
	}
	return created, nil
}

// normalizePetIDs guarantees the primary pet appears in the multi-pet set.
func normalizePetIDs(primary int64, ids []int64) []int64 {
	for _, id := range ids {
		if id == primary {
			return ids
		}
	}
	if primary == 0 {
		return ids
	}
	return append([]int64{primary}, ids...)
}

// =============================================================================
// WALK UPDATE AND DELETE
// =============================================================================

// UpdateWalk merges the non-nil fields of upd into the walk. If the
// update transitions status into completed from any other state, the
// completion side effects run (balance applied once, earning ensured).
func (e *Engine) UpdateWalk(ctx context.Context, id int64, upd WalkUpdate) (*Walk, error) {
	if upd.Status != nil && !ValidStatus(*upd.Status) {
		return nil, ErrInvalidStatus
	}
	if upd.Date != nil {
		if _, err := ParseWalkDate(*upd.Date); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	w, err := e.store.GetWalk(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWalkNotFound
	}

	wasCompleted := w.Status == StatusCompleted
	mergeWalkUpdate(w, upd)

	if err := e.store.UpdateWalk(ctx, *w); err != nil {
		return nil, err
	}

	if w.Status == StatusCompleted && !wasCompleted {
		if err := e.applyWalkBalance(ctx, w); err != nil {
			return nil, err
		}
		if w.WalkerID != 0 {
			if _, err := e.ensureEarningForWalk(ctx, *w); err != nil {
				return nil, err
			}
		}
	}
	return w, nil
}

func mergeWalkUpdate(w *Walk, upd WalkUpdate) {
	if upd.WalkerID != nil {
		w.WalkerID = *upd.WalkerID
	}
	if upd.PetID != nil {
		w.PetID = *upd.PetID
	}
	if upd.PetIDs != nil {
		w.PetIDs = normalizePetIDs(w.PetID, *upd.PetIDs)
	}
	if upd.Date != nil {
		w.Date = *upd.Date
	}
	if upd.Time != nil {
		w.Time = *upd.Time
	}
	if upd.Duration != nil {
		w.Duration = *upd.Duration
	}
	if upd.BillingAmount != nil {
		w.BillingAmount = *upd.BillingAmount
	}
	if upd.Notes != nil {
		w.Notes = *upd.Notes
	}
	if upd.Status != nil {
		w.Status = *upd.Status
	}
	if upd.IsPaid != nil {
		w.IsPaid = *upd.IsPaid
	}
	if upd.PaidDate != nil {
		w.PaidDate = upd.PaidDate
	}
}

// DeleteWalk hard-deletes the walk and cascades to its photos. Any
// balance credit or earning already applied is deliberately left in
// place: deleted walks keep their billing history.
func (e *Engine) DeleteWalk(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, err := e.store.GetWalk(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return ErrWalkNotFound
	}
	if err := e.store.DeleteWalk(ctx, id); err != nil {
		return err
	}
	if err := e.store.DeletePhotosByWalk(ctx, id); err != nil {
		return err
	}
	logger.Info("walk deleted", "walk_id", id, "status", w.Status)
	return nil
}

// =============================================================================
// WALK READS
// =============================================================================

// GetWalk returns a walk by ID.
func (e *Engine) GetWalk(ctx context.Context, id int64) (*Walk, error) {
	w, err := e.store.GetWalk(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWalkNotFound
	}
	return w, nil
}

// GetWalkWithDetails returns a walk with denormalized client, walker,
// and pet names for display. Pet IDs that no longer resolve degrade to
// the primary pet rather than failing the read.
func (e *Engine) GetWalkWithDetails(ctx context.Context, id int64) (*WalkDetails, error) {
	w, err := e.GetWalk(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &WalkDetails{Walk: *w}

	if c, err := e.store.GetClient(ctx, w.ClientID); err == nil && c != nil {
		if u, err := e.store.GetUser(ctx, c.UserID); err == nil && u != nil {
			d.ClientName = u.Name
		}
	}
	if w.WalkerID != 0 {
		if wk, err := e.store.GetWalker(ctx, w.WalkerID); err == nil && wk != nil {
			if u, err := e.store.GetUser(ctx, wk.UserID); err == nil && u != nil {
				d.WalkerName = u.Name
			}
		}
	}

	names, ok := e.resolvePetNames(ctx, w.PetIDs)
	if !ok {
		// Degraded view: treat the primary pet as the sole pet.
		names, _ = e.resolvePetNames(ctx, []int64{w.PetID})
	}
	d.PetNames = names
	if len(names) > 0 {
		d.PetName = names[0]
	}
	return d, nil
}

// resolvePetNames looks up every pet ID; ok is false when any ID fails
// to resolve.
func (e *Engine) resolvePetNames(ctx context.Context, ids []int64) ([]string, bool) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		p, err := e.store.GetPet(ctx, id)
		if err != nil || p == nil {
			return names, false
		}
		names = append(names, p.Name)
	}
	return names, true
}

// WalksByClient returns the client's walks, soonest first.
func (e *Engine) WalksByClient(ctx context.Context, clientID int64) ([]Walk, error) {
	walks, err := e.store.ListWalksByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	sortWalksByStart(walks)
	return walks, nil
}

// WalksByWalker returns the walker's walks, soonest first.
func (e *Engine) WalksByWalker(ctx context.Context, walkerID int64) ([]Walk, error) {
	walks, err := e.store.ListWalksByWalker(ctx, walkerID)
	if err != nil {
		return nil, err
	}
	sortWalksByStart(walks)
	return walks, nil
}

// WalksByStatus returns walks in the given status; an empty status
// returns every walk.
func (e *Engine) WalksByStatus(ctx context.Context, status WalkStatus) ([]Walk, error) {
	var walks []Walk
	var err error
	if status == "" {
		walks, err = e.store.ListWalks(ctx)
	} else {
		if !ValidStatus(status) {
			return nil, ErrInvalidStatus
		}
		walks, err = e.store.ListWalksByStatus(ctx, status)
	}
	if err != nil {
		return nil, err
	}
	sortWalksByStart(walks)
	return walks, nil
}

// UpcomingWalks returns up to limit scheduled walks dated today or
// later, soonest first. limit <= 0 means no limit.
func (e *Engine) UpcomingWalks(ctx context.Context, limit int) ([]Walk, error) {
	walks, err := e.store.ListWalksByStatus(ctx, StatusScheduled)
	if err != nil {
		return nil, err
	}

	today := dateOnly(e.now())
	upcoming := walks[:0]
	for _, w := range walks {
		date, err := ParseWalkDate(w.Date)
		if err != nil {
			continue
		}
		if !date.Before(today) {
			upcoming = append(upcoming, w)
		}
	}
	sortWalksByStart(upcoming)
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}

// sortWalksByStart orders walks by start instant, ID as tiebreak.
func sortWalksByStart(walks []Walk) {
	sort.SliceStable(walks, func(i, j int) bool {
		di, erri := ParseWalkDate(walks[i].Date)
		dj, errj := ParseWalkDate(walks[j].Date)
		if erri != nil || errj != nil {
			return walks[i].ID < walks[j].ID
		}
		si := walkStart(di, walks[i].Time)
		sj := walkStart(dj, walks[j].Time)
		if si.Equal(sj) {
			return walks[i].ID < walks[j].ID
		}
		return si.Before(sj)
	})
}

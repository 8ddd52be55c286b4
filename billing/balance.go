/*
balance.go - Client balance ledger

PURPOSE:
  Derives client balances and records client payments.

DERIVATION, NOT ACCUMULATION:
  A balance is always a pure function of state:

    balance = sum(BillingAmount of completed walks for the client)
            - sum(recorded payment amounts)

  Nothing increments a stored balance. Every read recomputes from the
  walk and payment history, so a missed update path can never cause
  drift. O(walks) per read is an accepted cost at this scale.

  Walk.BalanceApplied does not feed the arithmetic; it records that a
  completed walk has been acknowledged by a crediting path, which keeps
  the acknowledgment idempotent and gives the safety-net sweep
  (ApplyCompletedWalkBalances) something to detect.

OVERPAYMENT:
  Payments are not capped at the current balance. Overpaying drives the
  balance negative, which the console displays as a credit.
*/
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawsteps/walkops/logger"
)

// defaultPaymentMethod is used when a payment is recorded without one.
const defaultPaymentMethod = "cash"

// =============================================================================
// BALANCE DERIVATION
// =============================================================================

// ClientBalance recomputes the client's balance from completed walks
// minus recorded payments.
func (e *Engine) ClientBalance(ctx context.Context, clientID int64) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.store.GetClient(ctx, clientID)
	if err != nil {
		return decimal.Zero, err
	}
	if c == nil {
		return decimal.Zero, ErrClientNotFound
	}
	return e.clientBalanceLocked(ctx, c)
}

// clientBalanceLocked is the single derivation used by every balance
// read and every crediting path. Callers hold e.mu.
func (e *Engine) clientBalanceLocked(ctx context.Context, c *Client) (decimal.Decimal, error) {
	walks, err := e.store.ListWalksByClient(ctx, c.ID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, w := range walks {
		if w.Status == StatusCompleted {
			balance = balance.Add(w.BillingAmount)
		}
	}
	for _, p := range c.Payments {
		balance = balance.Sub(p.Amount)
	}
	return balance, nil
}

// applyWalkBalance acknowledges a completed walk's billing amount
// against its client's balance. Because balances are derived, the
// amount is already included the moment the walk is completed; this
// records the acknowledgment at most once. Callers hold e.mu.
func (e *Engine) applyWalkBalance(ctx context.Context, w *Walk) error {
	if w.BalanceApplied {
		return nil
	}
	w.BalanceApplied = true
	if err := e.store.UpdateWalk(ctx, *w); err != nil {
		return err
	}
	logger.Debug("walk balance applied",
		"walk_id", w.ID, "client_id", w.ClientID, "amount", w.BillingAmount)
	return nil
}

// =============================================================================
// CLIENT READS
// =============================================================================

// GetClient returns the client with its derived balance attached.
func (e *Engine) GetClient(ctx context.Context, id int64) (*ClientWithBalance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clientViewLocked(ctx, id)
}

func (e *Engine) clientViewLocked(ctx context.Context, id int64) (*ClientWithBalance, error) {
	c, err := e.store.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrClientNotFound
	}

	balance, err := e.clientBalanceLocked(ctx, c)
	if err != nil {
		return nil, err
	}

	view := &ClientWithBalance{Client: *c, Balance: balance}
	if u, err := e.store.GetUser(ctx, c.UserID); err == nil && u != nil {
		view.UserName = u.Name
	}
	return view, nil
}

// GetClientWithPets returns the balance view plus the client's active pets.
func (e *Engine) GetClientWithPets(ctx context.Context, id int64) (*ClientWithPets, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	view, err := e.clientViewLocked(ctx, id)
	if err != nil {
		return nil, err
	}

	pets, err := e.store.ListPetsByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	active := make([]Pet, 0, len(pets))
	for _, p := range pets {
		if p.Active {
			active = append(active, p)
		}
	}
	return &ClientWithPets{ClientWithBalance: *view, Pets: active}, nil
}

// AllClientsWithBalances returns every client with its derived balance.
func (e *Engine) AllClientsWithBalances(ctx context.Context) ([]ClientWithBalance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients, err := e.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ClientWithBalance, 0, len(clients))
	for i := range clients {
		view, err := e.clientViewLocked(ctx, clients[i].ID)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

// RecordClientPayment appends a payment to the client's history and
// updates the last-payment date. The method defaults to cash when
// empty. Returns the client view with the freshly derived balance.
func (e *Engine) RecordClientPayment(ctx context.Context, clientID int64, amount decimal.Decimal, date time.Time, method string) (*ClientWithBalance, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if method == "" {
		method = defaultPaymentMethod
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrClientNotFound
	}

	c.Payments = append(c.Payments, ClientPayment{
		Amount: amount,
		Date:   date,
		Method: method,
	})
	c.LastPaymentDate = &date

	if err := e.store.UpdateClient(ctx, *c); err != nil {
		return nil, err
	}

	logger.Info("client payment recorded",
		"client_id", clientID, "amount", amount, "method", method)

	return e.clientViewLocked(ctx, clientID)
}

/*
Package sqlite provides the SQLite-backed Store implementation.

PURPOSE:
  Durable persistence for the billing engine. The same billing.Store
  contract as store/memory, so the engine is indifferent to which one
  it was wired with.

KEY TABLES:
  users, clients, walkers, pets:  people and profiles
  client_payments:                ordered payment history per client
  walks, walk_pets:               walks and the multi-pet association
                                  (a real join table, not an encoded
                                  string)
  walk_photos:                    cascade-deleted with their walk
  walker_earnings:                one row per walk, enforced UNIQUE
  walker_payments, messages

MONEY AND DATES:
  Money is stored as decimal strings (TEXT) and parsed with
  shopspring/decimal, never floats. Walk dates keep their YYYY-MM-DD
  text form; instants are RFC3339 text.

WAL MODE:
  The database is opened with WAL so readers do not block the writer.
  A mutex still serializes writes at the store level; billing
  invariants are additionally serialized by the engine's own lock.

MIGRATION:
  Schema is auto-migrated on New(). Use ":memory:" for tests.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/pawsteps/walkops/billing"
)

// Store implements billing.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (creating if needed) the database at dbPath and migrates
// the schema. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset wipes all rows and restarts the ID sequences. Child tables go
// first so the foreign keys never trip.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"messages", "walker_payments", "walker_earnings",
		"walk_photos", "walk_pets", "walks",
		"pets", "client_payments", "walkers", "clients", "users",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM sqlite_sequence")
	return err
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		role TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		address TEXT,
		emergency_contact TEXT,
		notes TEXT,
		last_payment_date TEXT
	);

	CREATE TABLE IF NOT EXISTS client_payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		method TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_client_payments_client ON client_payments(client_id);

	CREATE TABLE IF NOT EXISTS walkers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		bio TEXT,
		availability TEXT,
		rating TEXT NOT NULL DEFAULT '0',
		color TEXT,
		address TEXT,
		rate_20_min TEXT NOT NULL DEFAULT '0',
		rate_30_min TEXT NOT NULL DEFAULT '0',
		rate_60_min TEXT NOT NULL DEFAULT '0',
		rate_overnight TEXT NOT NULL DEFAULT '0',
		total_earnings TEXT NOT NULL DEFAULT '0',
		unpaid_earnings TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS pets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		breed TEXT,
		age INTEGER,
		size TEXT,
		notes TEXT,
		active INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_pets_client ON pets(client_id);

	CREATE TABLE IF NOT EXISTS walks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		walker_id INTEGER NOT NULL DEFAULT 0,
		pet_id INTEGER NOT NULL DEFAULT 0,
		date TEXT NOT NULL,
		time TEXT,
		duration INTEGER NOT NULL,
		billing_amount TEXT NOT NULL DEFAULT '0',
		notes TEXT,
		status TEXT NOT NULL,
		is_paid INTEGER NOT NULL DEFAULT 0,
		paid_date TEXT,
		balance_applied INTEGER NOT NULL DEFAULT 0,
		repeat_weekly INTEGER NOT NULL DEFAULT 0,
		number_of_weeks INTEGER NOT NULL DEFAULT 0,
		recurring_group_id TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_walks_client ON walks(client_id);
	CREATE INDEX IF NOT EXISTS idx_walks_walker ON walks(walker_id);
	CREATE INDEX IF NOT EXISTS idx_walks_status ON walks(status);

	CREATE TABLE IF NOT EXISTS walk_pets (
		walk_id INTEGER NOT NULL,
		pet_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (walk_id, pet_id)
	);

	CREATE TABLE IF NOT EXISTS walk_photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		walk_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		uploaded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_walk_photos_walk ON walk_photos(walk_id);

	CREATE TABLE IF NOT EXISTS walker_earnings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		walk_id INTEGER NOT NULL UNIQUE,
		walker_id INTEGER NOT NULL,
		amount TEXT NOT NULL,
		earned_date TEXT NOT NULL,
		is_paid INTEGER NOT NULL DEFAULT 0,
		payment_id INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_walker_earnings_walker ON walker_earnings(walker_id);

	CREATE TABLE IF NOT EXISTS walker_payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		walker_id INTEGER NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		method TEXT,
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_walker_payments_walker ON walker_payments(walker_id);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL,
		receiver_id INTEGER NOT NULL,
		body TEXT NOT NULL,
		sent_at TEXT NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id);
	CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func scanNullableTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, u billing.User) (billing.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (role, name, email, phone, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		string(u.Role), u.Name, u.Email, u.Phone, u.Active, formatTime(u.CreatedAt))
	if err != nil {
		return billing.User{}, err
	}
	u.ID, err = res.LastInsertId()
	return u, err
}

func (s *Store) GetUser(ctx context.Context, id int64) (*billing.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, role, name, email, phone, active, created_at FROM users WHERE id = ?`, id)
	var u billing.User
	var role, createdAt string
	err := row.Scan(&u.ID, &role, &u.Name, &u.Email, &u.Phone, &u.Active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = billing.Role(role)
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]billing.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, name, email, phone, active, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.User
	for rows.Next() {
		var u billing.User
		var role, createdAt string
		if err := rows.Scan(&u.ID, &role, &u.Name, &u.Email, &u.Phone, &u.Active, &createdAt); err != nil {
			return nil, err
		}
		u.Role = billing.Role(role)
		u.CreatedAt = parseTime(createdAt)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u billing.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = ?, name = ?, email = ?, phone = ?, active = ? WHERE id = ?`,
		string(u.Role), u.Name, u.Email, u.Phone, u.Active, u.ID)
	if err != nil {
		return err
	}
	return requireRow(res, billing.ErrUserNotFound)
}

// =============================================================================
// CLIENTS
// =============================================================================

func (s *Store) CreateClient(ctx context.Context, c billing.Client) (billing.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (user_id, address, emergency_contact, notes, last_payment_date)
		 VALUES (?, ?, ?, ?, ?)`,
		c.UserID, c.Address, c.EmergencyContact, c.Notes, nullableTime(c.LastPaymentDate))
	if err != nil {
		return billing.Client{}, err
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return billing.Client{}, err
	}
	if err := s.replacePayments(ctx, c.ID, c.Payments); err != nil {
		return billing.Client{}, err
	}
	return c, nil
}

func (s *Store) GetClient(ctx context.Context, id int64) (*billing.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, address, emergency_contact, notes, last_payment_date
		 FROM clients WHERE id = ?`, id)

	var c billing.Client
	var lastPayment sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &c.Address, &c.EmergencyContact, &c.Notes, &lastPayment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.LastPaymentDate = scanNullableTime(lastPayment)

	c.Payments, err = s.loadPayments(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) loadPayments(ctx context.Context, clientID int64) ([]billing.ClientPayment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT amount, date, method FROM client_payments WHERE client_id = ? ORDER BY id`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.ClientPayment
	for rows.Next() {
		var p billing.ClientPayment
		var amount, date string
		if err := rows.Scan(&amount, &date, &p.Method); err != nil {
			return nil, err
		}
		p.Amount = parseDecimal(amount)
		p.Date = parseTime(date)
		out = append(out, p)
	}
	return out, rows.Err()
}

// replacePayments rewrites the client's payment history to match the
// entity. Payment lists are small and append-mostly, so a rewrite keeps
// the store dumb instead of diffing.
func (s *Store) replacePayments(ctx context.Context, clientID int64, payments []billing.ClientPayment) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM client_payments WHERE client_id = ?`, clientID); err != nil {
		return err
	}
	for _, p := range payments {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO client_payments (client_id, amount, date, method) VALUES (?, ?, ?, ?)`,
			clientID, p.Amount.String(), formatTime(p.Date), p.Method); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListClients(ctx context.Context) ([]billing.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM clients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]billing.Client, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetClient(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *Store) UpdateClient(ctx context.Context, c billing.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE clients SET user_id = ?, address = ?, emergency_contact = ?, notes = ?, last_payment_date = ?
		 WHERE id = ?`,
		c.UserID, c.Address, c.EmergencyContact, c.Notes, nullableTime(c.LastPaymentDate), c.ID)
	if err != nil {
		return err
	}
	if err := requireRow(res, billing.ErrClientNotFound); err != nil {
		return err
	}
	return s.replacePayments(ctx, c.ID, c.Payments)
}

// =============================================================================
// WALKERS
// =============================================================================

const walkerColumns = `id, user_id, bio, availability, rating, color, address,
	rate_20_min, rate_30_min, rate_60_min, rate_overnight, total_earnings, unpaid_earnings`

func (s *Store) CreateWalker(ctx context.Context, w billing.Walker) (billing.Walker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO walkers (user_id, bio, availability, rating, color, address,
		   rate_20_min, rate_30_min, rate_60_min, rate_overnight, total_earnings, unpaid_earnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.UserID, w.Bio, w.Availability, w.Rating.String(), w.Color, w.Address,
		w.Rate20Min.String(), w.Rate30Min.String(), w.Rate60Min.String(), w.RateOvernight.String(),
		w.TotalEarnings.String(), w.UnpaidEarnings.String())
	if err != nil {
		return billing.Walker{}, err
	}
	w.ID, err = res.LastInsertId()
	return w, err
}

func scanWalker(scan func(...any) error) (*billing.Walker, error) {
	var w billing.Walker
	var rating, r20, r30, r60, rOvernight, total, unpaid string
	err := scan(&w.ID, &w.UserID, &w.Bio, &w.Availability, &rating, &w.Color, &w.Address,
		&r20, &r30, &r60, &rOvernight, &total, &unpaid)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w.Rating = parseDecimal(rating)
	w.Rate20Min = parseDecimal(r20)
	w.Rate30Min = parseDecimal(r30)
	w.Rate60Min = parseDecimal(r60)
	w.RateOvernight = parseDecimal(rOvernight)
	w.TotalEarnings = parseDecimal(total)
	w.UnpaidEarnings = parseDecimal(unpaid)
	return &w, nil
}

func (s *Store) GetWalker(ctx context.Context, id int64) (*billing.Walker, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+walkerColumns+` FROM walkers WHERE id = ?`, id)
	return scanWalker(row.Scan)
}

func (s *Store) ListWalkers(ctx context.Context) ([]billing.Walker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+walkerColumns+` FROM walkers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.Walker
	for rows.Next() {
		w, err := scanWalker(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (s *Store) UpdateWalker(ctx context.Context, w billing.Walker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE walkers SET user_id = ?, bio = ?, availability = ?, rating = ?, color = ?, address = ?,
		   rate_20_min = ?, rate_30_min = ?, rate_60_min = ?, rate_overnight = ?,
		   total_earnings = ?, unpaid_earnings = ?
		 WHERE id = ?`,
		w.UserID, w.Bio, w.Availability, w.Rating.String(), w.Color, w.Address,
		w.Rate20Min.String(), w.Rate30Min.String(), w.Rate60Min.String(), w.RateOvernight.String(),
		w.TotalEarnings.String(), w.UnpaidEarnings.String(), w.ID)
	if err != nil {
		return err
	}
	return requireRow(res, billing.ErrWalkerNotFound)
}

// =============================================================================
// PETS
// =============================================================================

func (s *Store) CreatePet(ctx context.Context, p billing.Pet) (billing.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pets (client_id, name, breed, age, size, notes, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ClientID, p.Name, p.Breed, p.Age, p.Size, p.Notes, p.Active)
	if err != nil {
		return billing.Pet{}, err
	}
	p.ID, err = res.LastInsertId()
	return p, err
}

func (s *Store) GetPet(ctx context.Context, id int64) (*billing.Pet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, client_id, name, breed, age, size, notes, active FROM pets WHERE id = ?`, id)
	var p billing.Pet
	err := row.Scan(&p.ID, &p.ClientID, &p.Name, &p.Breed, &p.Age, &p.Size, &p.Notes, &p.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) petQuery(ctx context.Context, query string, args ...any) ([]billing.Pet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.Pet
	for rows.Next() {
		var p billing.Pet
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Breed, &p.Age, &p.Size, &p.Notes, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListPets(ctx context.Context) ([]billing.Pet, error) {
	return s.petQuery(ctx,
		`SELECT id, client_id, name, breed, age, size, notes, active FROM pets ORDER BY id`)
}

func (s *Store) ListPetsByClient(ctx context.Context, clientID int64) ([]billing.Pet, error) {
	return s.petQuery(ctx,
		`SELECT id, client_id, name, breed, age, size, notes, active FROM pets WHERE client_id = ? ORDER BY id`,
		clientID)
}

func (s *Store) UpdatePet(ctx context.Context, p billing.Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE pets SET client_id = ?, name = ?, breed = ?, age = ?, size = ?, notes = ?, active = ?
		 WHERE id = ?`,
		p.ClientID, p.Name, p.Breed, p.Age, p.Size, p.Notes, p.Active, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res, billing.ErrPetNotFound)
}

// =============================================================================
// WALKS
// =============================================================================

const walkColumns = `id, client_id, walker_id, pet_id, date, time, duration, billing_amount,
	notes, status, is_paid, paid_date, balance_applied, repeat_weekly, number_of_weeks,
	recurring_group_id, created_at`

func (s *Store) CreateWalk(ctx context.Context, w billing.Walk) (billing.Walk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO walks (client_id, walker_id, pet_id, date, time, duration, billing_amount,
		   notes, status, is_paid, paid_date, balance_applied, repeat_weekly, number_of_weeks,
		   recurring_group_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ClientID, w.WalkerID, w.PetID, w.Date, w.Time, w.Duration, w.BillingAmount.String(),
		w.Notes, string(w.Status), w.IsPaid, nullableTime(w.PaidDate), w.BalanceApplied,
		w.RepeatWeekly, w.NumberOfWeeks, w.RecurringGroupID, formatTime(w.CreatedAt))
	if err != nil {
		return billing.Walk{}, err
	}
	w.ID, err = res.LastInsertId()
	if err != nil {
		return billing.Walk{}, err
	}
	if err := s.replaceWalkPets(ctx, w.ID, w.PetIDs); err != nil {
		return billing.Walk{}, err
	}
	return w, nil
}

func (s *Store) replaceWalkPets(ctx context.Context, walkID int64, petIDs []int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM walk_pets WHERE walk_id = ?`, walkID); err != nil {
		return err
	}
	for i, petID := range petIDs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO walk_pets (walk_id, pet_id, position) VALUES (?, ?, ?)`,
			walkID, petID, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadWalkPets(ctx context.Context, walkID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pet_id FROM walk_pets WHERE walk_id = ? ORDER BY position`, walkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanWalk(scan func(...any) error) (*billing.Walk, error) {
	var w billing.Walk
	var amount, status, createdAt string
	var paidDate, groupID sql.NullString
	err := scan(&w.ID, &w.ClientID, &w.WalkerID, &w.PetID, &w.Date, &w.Time, &w.Duration, &amount,
		&w.Notes, &status, &w.IsPaid, &paidDate, &w.BalanceApplied, &w.RepeatWeekly,
		&w.NumberOfWeeks, &groupID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w.BillingAmount = parseDecimal(amount)
	w.Status = billing.WalkStatus(status)
	w.PaidDate = scanNullableTime(paidDate)
	w.RecurringGroupID = groupID.String
	w.CreatedAt = parseTime(createdAt)
	return &w, nil
}

func (s *Store) GetWalk(ctx context.Context, id int64) (*billing.Walk, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+walkColumns+` FROM walks WHERE id = ?`, id)
	w, err := scanWalk(row.Scan)
	if err != nil || w == nil {
		return w, err
	}
	w.PetIDs, err = s.loadWalkPets(ctx, id)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Store) walkQuery(ctx context.Context, query string, args ...any) ([]billing.Walk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.Walk
	for rows.Next() {
		w, err := scanWalk(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].PetIDs, err = s.loadWalkPets(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) ListWalks(ctx context.Context) ([]billing.Walk, error) {
	return s.walkQuery(ctx, `SELECT `+walkColumns+` FROM walks ORDER BY id`)
}

func (s *Store) ListWalksByClient(ctx context.Context, clientID int64) ([]billing.Walk, error) {
	return s.walkQuery(ctx, `SELECT `+walkColumns+` FROM walks WHERE client_id = ? ORDER BY id`, clientID)
}

func (s *Store) ListWalksByWalker(ctx context.Context, walkerID int64) ([]billing.Walk, error) {
	return s.walkQuery(ctx, `SELECT `+walkColumns+` FROM walks WHERE walker_id = ? ORDER BY id`, walkerID)
}

func (s *Store) ListWalksByStatus(ctx context.Context, status billing.WalkStatus) ([]billing.Walk, error) {
	return s.walkQuery(ctx, `SELECT `+walkColumns+` FROM walks WHERE status = ? ORDER BY id`, string(status))
}

func (s *Store) UpdateWalk(ctx context.Context, w billing.Walk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE walks SET client_id = ?, walker_id = ?, pet_id = ?, date = ?, time = ?, duration = ?,
		   billing_amount = ?, notes = ?, status = ?, is_paid = ?, paid_date = ?, balance_applied = ?,
		   repeat_weekly = ?, number_of_weeks = ?, recurring_group_id = ?
		 WHERE id = ?`,
		w.ClientID, w.WalkerID, w.PetID, w.Date, w.Time, w.Duration,
		w.BillingAmount.String(), w.Notes, string(w.Status), w.IsPaid, nullableTime(w.PaidDate),
		w.BalanceApplied, w.RepeatWeekly, w.NumberOfWeeks, w.RecurringGroupID, w.ID)
	if err != nil {
		return err
	}
	if err := requireRow(res, billing.ErrWalkNotFound); err != nil {
		return err
	}
	return s.replaceWalkPets(ctx, w.ID, w.PetIDs)
}

func (s *Store) DeleteWalk(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM walks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res, billing.ErrWalkNotFound); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM walk_pets WHERE walk_id = ?`, id)
	return err
}

// =============================================================================
// PHOTOS
// =============================================================================

func (s *Store) AddPhoto(ctx context.Context, p billing.WalkPhoto) (billing.WalkPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO walk_photos (walk_id, url, uploaded_at) VALUES (?, ?, ?)`,
		p.WalkID, p.URL, formatTime(p.UploadedAt))
	if err != nil {
		return billing.WalkPhoto{}, err
	}
	p.ID, err = res.LastInsertId()
	return p, err
}

func (s *Store) ListPhotosByWalk(ctx context.Context, walkID int64) ([]billing.WalkPhoto, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, walk_id, url, uploaded_at FROM walk_photos WHERE walk_id = ? ORDER BY id`, walkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.WalkPhoto
	for rows.Next() {
		var p billing.WalkPhoto
		var uploadedAt string
		if err := rows.Scan(&p.ID, &p.WalkID, &p.URL, &uploadedAt); err != nil {
			return nil, err
		}
		p.UploadedAt = parseTime(uploadedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeletePhotosByWalk(ctx context.Context, walkID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM walk_photos WHERE walk_id = ?`, walkID)
	return err
}

// =============================================================================
// EARNINGS
// =============================================================================

func (s *Store) CreateEarning(ctx context.Context, e billing.WalkerEarning) (billing.WalkerEarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO walker_earnings (walk_id, walker_id, amount, earned_date, is_paid, payment_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.WalkID, e.WalkerID, e.Amount.String(), formatTime(e.EarnedDate), e.IsPaid, e.PaymentID)
	if err != nil {
		return billing.WalkerEarning{}, err
	}
	e.ID, err = res.LastInsertId()
	return e, err
}

func scanEarning(scan func(...any) error) (*billing.WalkerEarning, error) {
	var e billing.WalkerEarning
	var amount, earnedDate string
	err := scan(&e.ID, &e.WalkID, &e.WalkerID, &amount, &earnedDate, &e.IsPaid, &e.PaymentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Amount = parseDecimal(amount)
	e.EarnedDate = parseTime(earnedDate)
	return &e, nil
}

func (s *Store) GetEarningByWalk(ctx context.Context, walkID int64) (*billing.WalkerEarning, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, walk_id, walker_id, amount, earned_date, is_paid, payment_id
		 FROM walker_earnings WHERE walk_id = ?`, walkID)
	return scanEarning(row.Scan)
}

func (s *Store) ListEarningsByWalker(ctx context.Context, walkerID int64) ([]billing.WalkerEarning, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, walk_id, walker_id, amount, earned_date, is_paid, payment_id
		 FROM walker_earnings WHERE walker_id = ? ORDER BY earned_date, id`, walkerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.WalkerEarning
	for rows.Next() {
		e, err := scanEarning(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) UpdateEarning(ctx context.Context, e billing.WalkerEarning) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE walker_earnings SET walk_id = ?, walker_id = ?, amount = ?, earned_date = ?,
		   is_paid = ?, payment_id = ?
		 WHERE id = ?`,
		e.WalkID, e.WalkerID, e.Amount.String(), formatTime(e.EarnedDate), e.IsPaid, e.PaymentID, e.ID)
	if err != nil {
		return err
	}
	return requireRow(res, billing.ErrEarningNotFound)
}

// =============================================================================
// WALKER PAYMENTS
// =============================================================================

func (s *Store) CreateWalkerPayment(ctx context.Context, p billing.WalkerPayment) (billing.WalkerPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO walker_payments (walker_id, amount, date, method, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		p.WalkerID, p.Amount.String(), formatTime(p.Date), p.Method, p.Notes)
	if err != nil {
		return billing.WalkerPayment{}, err
	}
	p.ID, err = res.LastInsertId()
	return p, err
}

func (s *Store) ListWalkerPaymentsByWalker(ctx context.Context, walkerID int64) ([]billing.WalkerPayment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, walker_id, amount, date, method, notes
		 FROM walker_payments WHERE walker_id = ? ORDER BY id`, walkerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.WalkerPayment
	for rows.Next() {
		var p billing.WalkerPayment
		var amount, date string
		if err := rows.Scan(&p.ID, &p.WalkerID, &amount, &date, &p.Method, &p.Notes); err != nil {
			return nil, err
		}
		p.Amount = parseDecimal(amount)
		p.Date = parseTime(date)
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// MESSAGES
// =============================================================================

func (s *Store) CreateMessage(ctx context.Context, m billing.Message) (billing.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, body, sent_at, is_read)
		 VALUES (?, ?, ?, ?, ?)`,
		m.SenderID, m.ReceiverID, m.Body, formatTime(m.SentAt), m.IsRead)
	if err != nil {
		return billing.Message{}, err
	}
	m.ID, err = res.LastInsertId()
	return m, err
}

func (s *Store) GetMessage(ctx context.Context, id int64) (*billing.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, sender_id, receiver_id, body, sent_at, is_read FROM messages WHERE id = ?`, id)
	var m billing.Message
	var sentAt string
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &sentAt, &m.IsRead)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.SentAt = parseTime(sentAt)
	return &m, nil
}

func (s *Store) ListMessagesByUser(ctx context.Context, userID int64) ([]billing.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, body, sent_at, is_read
		 FROM messages WHERE sender_id = ? OR receiver_id = ? ORDER BY id`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.Message
	for rows.Next() {
		var m billing.Message
		var sentAt string
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &sentAt, &m.IsRead); err != nil {
			return nil, err
		}
		m.SentAt = parseTime(sentAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMessage(ctx context.Context, m billing.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET sender_id = ?, receiver_id = ?, body = ?, sent_at = ?, is_read = ?
		 WHERE id = ?`,
		m.SenderID, m.ReceiverID, m.Body, formatTime(m.SentAt), m.IsRead, m.ID)
	if err != nil {
		return err
	}
	return requireRow(res, billing.ErrNotFound)
}

// Package storage persists the fee catalog, household registry, payment
// ledger and reminder firing log in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"bluemoon/internal/core"
	"bluemoon/internal/services"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Timestamps are stored as RFC3339 text so rows stay readable in the
// sqlite shell.
func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CreateFee inserts a fee definition and returns it with its assigned id.
func (r *SQLiteRepository) CreateFee(ctx context.Context, fee core.FeeDefinition) (core.FeeDefinition, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO fees (name, category, unit_price, valid_from, valid_to, active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		fee.Name, string(fee.Category), fee.UnitPrice.Amount,
		encodeTime(fee.ValidFrom), encodeTime(fee.ValidTo), fee.Active)
	if err != nil {
		return core.FeeDefinition{}, fmt.Errorf("insert fee: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.FeeDefinition{}, fmt.Errorf("fee insert id: %w", err)
	}
	fee.ID = id

	slog.InfoContext(ctx, "Fee saved",
		"id", fee.ID,
		"name", fee.Name,
		"category", fee.Category)
	return fee, nil
}

func (r *SQLiteRepository) FeeByID(ctx context.Context, id int64) (core.FeeDefinition, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, category, unit_price, valid_from, valid_to, active
		 FROM fees WHERE id = ?`, id)
	fee, err := scanFee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FeeDefinition{}, core.ErrUnknownFee
	}
	if err != nil {
		return core.FeeDefinition{}, fmt.Errorf("get fee %d: %w", id, err)
	}
	return fee, nil
}

func (r *SQLiteRepository) ListFees(ctx context.Context) ([]core.FeeDefinition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, unit_price, valid_from, valid_to, active
		 FROM fees ORDER BY valid_from, id`)
	if err != nil {
		return nil, fmt.Errorf("list fees: %w", err)
	}
	defer rows.Close()

	var fees []core.FeeDefinition
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fee: %w", err)
		}
		fees = append(fees, fee)
	}
	return fees, rows.Err()
}

func (r *SQLiteRepository) SetFeeActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE fees SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("set fee active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set fee active rows: %w", err)
	}
	if n == 0 {
		return core.ErrUnknownFee
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFee(row rowScanner) (core.FeeDefinition, error) {
	var (
		fee      core.FeeDefinition
		category string
		from, to string
	)
	if err := row.Scan(&fee.ID, &fee.Name, &category, &fee.UnitPrice.Amount, &from, &to, &fee.Active); err != nil {
		return core.FeeDefinition{}, err
	}
	fee.Category = core.FeeCategory(category)

	var err error
	if fee.ValidFrom, err = parseTime(from); err != nil {
		return core.FeeDefinition{}, fmt.Errorf("parse valid_from: %w", err)
	}
	if fee.ValidTo, err = parseTime(to); err != nil {
		return core.FeeDefinition{}, fmt.Errorf("parse valid_to: %w", err)
	}
	return fee, nil
}

// CreateHousehold registers a dwelling unit and returns it with its id.
func (r *SQLiteRepository) CreateHousehold(ctx context.Context, h core.Household) (core.Household, error) {
	if h.RegisteredAt.IsZero() {
		h.RegisteredAt = time.Now().UTC()
	}
	var head sql.NullInt64
	if h.HeadUserID != nil {
		head = sql.NullInt64{Int64: *h.HeadUserID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO households (code, status, head_user_id, registered_at)
		 VALUES (?, ?, ?, ?)`,
		h.Code, string(h.Status), head, encodeTime(h.RegisteredAt))
	if err != nil {
		return core.Household{}, fmt.Errorf("insert household: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Household{}, fmt.Errorf("household insert id: %w", err)
	}
	h.ID = id

	slog.InfoContext(ctx, "Household registered", "id", h.ID, "code", h.Code)
	return h, nil
}

func (r *SQLiteRepository) HouseholdByID(ctx context.Context, id int64) (core.Household, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, code, status, head_user_id, registered_at
		 FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Household{}, core.ErrUnknownHousehold
	}
	if err != nil {
		return core.Household{}, fmt.Errorf("get household %d: %w", id, err)
	}
	return h, nil
}

func (r *SQLiteRepository) ListHouseholds(ctx context.Context) ([]core.Household, error) {
	return r.queryHouseholds(ctx,
		`SELECT id, code, status, head_user_id, registered_at
		 FROM households ORDER BY code`)
}

func (r *SQLiteRepository) ActiveHouseholds(ctx context.Context) ([]core.Household, error) {
	return r.queryHouseholds(ctx,
		`SELECT id, code, status, head_user_id, registered_at
		 FROM households WHERE status = 'active' ORDER BY code`)
}

func (r *SQLiteRepository) queryHouseholds(ctx context.Context, query string) ([]core.Household, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query households: %w", err)
	}
	defer rows.Close()

	var households []core.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, h)
	}
	return households, rows.Err()
}

func (r *SQLiteRepository) SetHouseholdStatus(ctx context.Context, id int64, status core.HouseholdState) error {
	res, err := r.db.ExecContext(ctx, `UPDATE households SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set household status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set household status rows: %w", err)
	}
	if n == 0 {
		return core.ErrUnknownHousehold
	}
	return nil
}

func scanHousehold(row rowScanner) (core.Household, error) {
	var (
		h            core.Household
		status       string
		head         sql.NullInt64
		registeredAt string
	)
	if err := row.Scan(&h.ID, &h.Code, &status, &head, &registeredAt); err != nil {
		return core.Household{}, err
	}
	h.Status = core.HouseholdState(status)
	if head.Valid {
		h.HeadUserID = &head.Int64
	}

	var err error
	if h.RegisteredAt, err = parseTime(registeredAt); err != nil {
		return core.Household{}, fmt.Errorf("parse registered_at: %w", err)
	}
	return h, nil
}

// AddMember puts a person on a household roster.
func (r *SQLiteRepository) AddMember(ctx context.Context, m core.Member) (core.Member, error) {
	if _, err := r.HouseholdByID(ctx, m.HouseholdID); err != nil {
		return core.Member{}, err
	}

	var leftAt sql.NullString
	if m.LeftAt != nil {
		leftAt = sql.NullString{String: encodeTime(*m.LeftAt), Valid: true}
	}
	var dob string
	if !m.DateOfBirth.IsZero() {
		dob = encodeTime(m.DateOfBirth)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (household_id, full_name, life_status, date_of_birth, joined_at, left_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.HouseholdID, m.FullName, string(m.LifeStatus), dob, encodeTime(m.JoinedAt), leftAt)
	if err != nil {
		return core.Member{}, fmt.Errorf("insert member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Member{}, fmt.Errorf("member insert id: %w", err)
	}
	m.ID = id
	return m, nil
}

func (r *SQLiteRepository) MembersOf(ctx context.Context, householdID int64) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, full_name, life_status, date_of_birth, joined_at, left_at
		 FROM members WHERE household_id = ? ORDER BY id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()
	return collectMembers(rows)
}

// SetMemberLifeStatus records a life-status transition. Passing leftAt closes
// the membership period; nil leaves it open.
func (r *SQLiteRepository) SetMemberLifeStatus(ctx context.Context, id int64, status core.LifeStatus, leftAt *time.Time) error {
	var left sql.NullString
	if leftAt != nil {
		left = sql.NullString{String: encodeTime(*leftAt), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET life_status = ?, left_at = ? WHERE id = ?`,
		string(status), left, id)
	if err != nil {
		return fmt.Errorf("set member life status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set member life status rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

func (r *SQLiteRepository) allMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, full_name, life_status, date_of_birth, joined_at, left_at
		 FROM members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()
	return collectMembers(rows)
}

func collectMembers(rows *sql.Rows) ([]core.Member, error) {
	var members []core.Member
	for rows.Next() {
		var (
			m        core.Member
			status   string
			dob      string
			joinedAt string
			leftAt   sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.HouseholdID, &m.FullName, &status, &dob, &joinedAt, &leftAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.LifeStatus = core.LifeStatus(status)

		var err error
		if dob != "" {
			if m.DateOfBirth, err = parseTime(dob); err != nil {
				return nil, fmt.Errorf("parse date_of_birth: %w", err)
			}
		}
		if m.JoinedAt, err = parseTime(joinedAt); err != nil {
			return nil, fmt.Errorf("parse joined_at: %w", err)
		}
		if leftAt.Valid {
			t, err := parseTime(leftAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse left_at: %w", err)
			}
			m.LeftAt = &t
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AppendPayment writes one ledger record. The ledger is append-only; there
// is deliberately no update or delete path.
func (r *SQLiteRepository) AppendPayment(ctx context.Context, rec core.PaymentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, household_id, fee_id, amount, method, recorded_by, paid_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.HouseholdID, rec.FeeID, rec.Amount.Amount,
		string(rec.Method), rec.RecordedBy, encodeTime(rec.PaidAt))
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment saved",
		"id", rec.ID,
		"household_id", rec.HouseholdID,
		"fee_id", rec.FeeID,
		"amount", rec.Amount.Amount)
	return nil
}

func (r *SQLiteRepository) PaidTotal(ctx context.Context, householdID, feeID int64) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE household_id = ? AND fee_id = ?`,
		householdID, feeID).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum payments: %w", err)
	}
	return core.Money{Amount: total}, nil
}

func (r *SQLiteRepository) allPayments(ctx context.Context) ([]core.PaymentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, fee_id, amount, method, recorded_by, paid_at
		 FROM payments ORDER BY paid_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []core.PaymentRecord
	for rows.Next() {
		var (
			p      core.PaymentRecord
			method string
			paidAt string
		)
		if err := rows.Scan(&p.ID, &p.HouseholdID, &p.FeeID, &p.Amount.Amount, &method, &p.RecordedBy, &paidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Method = core.PaymentMethod(method)
		if p.PaidAt, err = parseTime(paidAt); err != nil {
			return nil, fmt.Errorf("parse paid_at: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Snapshot loads the four tables concurrently and indexes them into an
// immutable view for classification and reporting.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (services.Snapshot, error) {
	var (
		fees       []core.FeeDefinition
		households []core.Household
		members    []core.Member
		payments   []core.PaymentRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		fees, err = r.ListFees(gctx)
		return err
	})
	g.Go(func() (err error) {
		households, err = r.ListHouseholds(gctx)
		return err
	})
	g.Go(func() (err error) {
		members, err = r.allMembers(gctx)
		return err
	})
	g.Go(func() (err error) {
		payments, err = r.allPayments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return services.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	return services.NewSnapshot(fees, households, members, payments, time.Now().UTC()), nil
}

func (r *SQLiteRepository) HasFired(ctx context.Context, feeID int64, lookaheadDays int, day string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM reminder_log WHERE fee_id = ? AND lookahead_days = ? AND fired_on = ?`,
		feeID, lookaheadDays, day).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check reminder firing: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) RecordFiring(ctx context.Context, feeID int64, lookaheadDays int, day string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reminder_log (fee_id, lookahead_days, fired_on) VALUES (?, ?, ?)`,
		feeID, lookaheadDays, day)
	if err != nil {
		return fmt.Errorf("record reminder firing: %w", err)
	}
	return nil
}

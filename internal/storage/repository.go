// Package storage persists transactions to a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"paisa/internal/core"
)

const transactionColumns = `t.id, t.date, t.description, t.amount, t.currency,
	t.main_category, t.sub_category, t.type, p.name, t.group_name, t.split_ratio`

// Filters narrows List results. Zero values mean "no filter".
type Filters struct {
	Type     core.TxType
	DaysBack int
}

// CategoryTotal is one row of the monthly spending summary.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

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

// Insert writes one transaction atomically, upserting the person row and its
// running owed balance in the same database transaction. Returns the
// store-assigned id, which increases monotonically.
func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var personID sql.NullInt64
	if t.Person != "" {
		id, err := upsertPerson(ctx, tx, t)
		if err != nil {
			return 0, err
		}
		personID = sql.NullInt64{Int64: id, Valid: true}
	}

	var group sql.NullString
	if t.Group != "" {
		group = sql.NullString{String: t.Group, Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions
			(date, description, amount, currency, main_category, sub_category, type, person_id, group_name, split_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date.String(), t.Description, t.Amount.String(), t.Currency,
		t.MainCategory, t.SubCategory, string(t.Type), personID, group, t.SplitRatio,
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"description", t.Description,
		"amount", t.Amount.String(),
		"type", string(t.Type),
		"category", t.MainCategory)

	return id, nil
}

// upsertPerson ensures a persons row exists and moves its owed balance:
// expenses paid on someone's behalf increase what they owe, income received
// from them decreases it.
func upsertPerson(ctx context.Context, tx *sql.Tx, t core.Transaction) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO persons (name) VALUES (?)`, t.Person); err != nil {
		return 0, fmt.Errorf("upsert person: %w", err)
	}

	var (
		id    int64
		owed  string
		total decimal.Decimal
	)
	if err := tx.QueryRowContext(ctx,
		`SELECT id, total_owed FROM persons WHERE name = ?`, t.Person).Scan(&id, &owed); err != nil {
		return 0, fmt.Errorf("select person: %w", err)
	}

	total, err := decimal.NewFromString(owed)
	if err != nil {
		return 0, fmt.Errorf("parse owed balance for %s: %w", t.Person, err)
	}
	if t.Type == core.Expense {
		total = total.Add(t.Amount)
	} else {
		total = total.Sub(t.Amount)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE persons SET total_owed = ? WHERE id = ?`, total.String(), id); err != nil {
		return 0, fmt.Errorf("update owed balance: %w", err)
	}

	return id, nil
}

// List returns transactions newest first, optionally filtered by type and a
// trailing day window.
func (r *SQLiteRepository) List(ctx context.Context, f Filters) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN persons p ON t.person_id = p.id
		WHERE 1=1`
	var args []any

	if f.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, string(f.Type))
	}
	if f.DaysBack > 0 {
		query += ` AND t.date >= date('now', ?)`
		args = append(args, fmt.Sprintf("-%d days", f.DaysBack))
	}
	query += ` ORDER BY t.date DESC, t.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get retrieves a single transaction by id.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN persons p ON t.person_id = p.id
		WHERE t.id = ?`, id)
	return scanTransaction(row)
}

// SpendingSummary totals current-month expenses by main category, highest
// first. Amounts are summed as decimals in Go so TEXT-stored values stay
// exact.
func (r *SQLiteRepository) SpendingSummary(ctx context.Context) ([]CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT main_category, amount
		FROM transactions
		WHERE type = 'expense'
		  AND strftime('%Y-%m', date) = strftime('%Y-%m', 'now')`)
	if err != nil {
		return nil, fmt.Errorf("spending summary: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category, amount string
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		totals[category] = totals[category].Add(d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]CategoryTotal, 0, len(totals))
	for category, total := range totals {
		out = append(out, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Equal(out[j].Total) {
			return out[i].Category < out[j].Category
		}
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out, nil
}

// PendingExport returns ids of transactions not yet exported, oldest first.
// Used by the worker as a backup sweep for lost queue messages.
func (r *SQLiteRepository) PendingExport(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM transactions
		WHERE export_status = 'pending'
		ORDER BY id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending export: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkExported records a successful spreadsheet export.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_status = 'exported' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

// MarkExportError flags a transaction whose export failed so the periodic
// sweep leaves it alone until investigated.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t      core.Transaction
		date   string
		amount string
		txType string
		person sql.NullString
		group  sql.NullString
	)
	if err := row.Scan(&t.ID, &date, &t.Description, &amount, &t.Currency,
		&t.MainCategory, &t.SubCategory, &txType, &person, &group, &t.SplitRatio); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	parsedDate, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	t.Date = parsedDate

	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}

	t.Type = core.TxType(txType)
	t.Person = person.String
	t.Group = group.String
	return t, nil
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"platewatch/catalog"
)

// ErrNotFound is returned when an order id is unknown.
var ErrNotFound = errors.New("order not found")

type OrderHistory struct {
	ID        int64     `json:"id"`
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

const orderSelectCols = `order_id, reference, customer_name, status, order_type, status_changed_at, estimated_prep_minutes, total_amount`

// execer abstracts *sql.DB and *sql.Tx so the upsert helpers run inside or
// outside a transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func scanOrder(row interface{ Scan(...any) error }) (catalog.Order, error) {
	var o catalog.Order
	var changedAt any
	err := row.Scan(&o.ID, &o.Reference, &o.CustomerName, &o.Status, &o.Type,
		&changedAt, &o.EstimatedPrepMinutes, &o.TotalAmount)
	if err != nil {
		return catalog.Order{}, err
	}
	o.StatusChangedAt = parseTime(changedAt)
	return o, nil
}

func tsArg(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// UpsertOrder inserts or updates an order by its feed id and records a
// history row when the status changed.
func (db *DB) UpsertOrder(o catalog.Order) error {
	return db.upsertOrderIn(db.DB, o)
}

func (db *DB) upsertOrderIn(q execer, o catalog.Order) error {
	var prev string
	err := q.QueryRow(db.Q(`SELECT status FROM orders WHERE order_id=?`), o.ID).Scan(&prev)
	known := err == nil
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("upsert order %s: %w", o.ID, err)
	}

	_, err = q.Exec(db.Q(`INSERT INTO orders (order_id, reference, customer_name, status, order_type, status_changed_at, estimated_prep_minutes, total_amount, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (order_id) DO UPDATE SET
			reference=excluded.reference,
			customer_name=excluded.customer_name,
			status=excluded.status,
			order_type=excluded.order_type,
			status_changed_at=excluded.status_changed_at,
			estimated_prep_minutes=excluded.estimated_prep_minutes,
			total_amount=excluded.total_amount,
			active=excluded.active,
			updated_at=datetime('now')`),
		o.ID, o.Reference, o.CustomerName, string(o.Status), string(o.Type),
		tsArg(o.StatusChangedAt), o.EstimatedPrepMinutes, o.TotalAmount, boolArg(db.driver, true))
	if err != nil {
		return fmt.Errorf("upsert order %s: %w", o.ID, err)
	}

	if !known || prev != string(o.Status) {
		return db.appendHistoryIn(q, o.ID, string(o.Status), "")
	}
	return nil
}

// ReplaceActiveOrders marks every stored order inactive, then upserts the
// supplied list as the active set, all in one transaction: a concurrent
// reader sees the old set or the new set, never a half-replaced one. Orders
// the feed stopped reporting stay on record but drop out of
// ListActiveOrders.
func (db *DB) ReplaceActiveOrders(orders []catalog.Order) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("replace active orders: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(db.Q(`UPDATE orders SET active=? WHERE active=?`),
		boolArg(db.driver, false), boolArg(db.driver, true)); err != nil {
		return fmt.Errorf("deactivate orders: %w", err)
	}
	for _, o := range orders {
		if err := db.upsertOrderIn(tx, o); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListActiveOrders returns the persisted active set, oldest first. Used to
// warm the watcher on startup before the first feed message arrives.
func (db *DB) ListActiveOrders() ([]catalog.Order, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(
		`SELECT %s FROM orders WHERE active=? ORDER BY created_at, id`, orderSelectCols)),
		boolArg(db.driver, true))
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	defer rows.Close()

	var orders []catalog.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetOrder looks up one order by its feed id.
func (db *DB) GetOrder(orderID string) (catalog.Order, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(
		`SELECT %s FROM orders WHERE order_id=?`, orderSelectCols)), orderID)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return catalog.Order{}, ErrNotFound
	}
	if err != nil {
		return catalog.Order{}, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return o, nil
}

// ApplyStatusChange patches one order's status and clock start, recording
// history. Returns ErrNotFound for unknown orders.
func (db *DB) ApplyStatusChange(orderID string, status catalog.OrderStatus, changedAt time.Time) error {
	res, err := db.Exec(db.Q(`UPDATE orders SET status=?, status_changed_at=?, updated_at=datetime('now') WHERE order_id=?`),
		string(status), tsArg(changedAt), orderID)
	if err != nil {
		return fmt.Errorf("status change %s: %w", orderID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return db.AppendHistory(orderID, string(status), "")
}

func (db *DB) AppendHistory(orderID, status, detail string) error {
	return db.appendHistoryIn(db.DB, orderID, status, detail)
}

func (db *DB) appendHistoryIn(q execer, orderID, status, detail string) error {
	_, err := q.Exec(db.Q(`INSERT INTO order_history (order_id, status, detail) VALUES (?, ?, ?)`),
		orderID, status, detail)
	return err
}

// ListHistory returns an order's status timeline, oldest first.
func (db *DB) ListHistory(orderID string) ([]OrderHistory, error) {
	rows, err := db.Query(db.Q(`SELECT id, order_id, status, detail, created_at FROM order_history WHERE order_id=? ORDER BY id`), orderID)
	if err != nil {
		return nil, fmt.Errorf("list history %s: %w", orderID, err)
	}
	defer rows.Close()

	var out []OrderHistory
	for rows.Next() {
		var h OrderHistory
		var createdAt any
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Detail, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTime(createdAt)
		out = append(out, h)
	}
	return out, rows.Err()
}

// boolArg maps a bool to what each driver stores for BOOLEAN columns.
func boolArg(driver string, v bool) any {
	if driver == "sqlite" {
		if v {
			return 1
		}
		return 0
	}
	return v
}

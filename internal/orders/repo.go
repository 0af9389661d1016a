package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemInput struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

type Repo struct{ DB *pgxpool.Pool }

var (
	ErrUnknownSKU    = errors.New("unknown sku")
	ErrInvalidQty    = errors.New("invalid qty")
	ErrOutOfStock    = errors.New("out of stock")
	ErrOrderNotFound = errors.New("order not found")
	ErrBadTransition = errors.New("invalid status transition")
)

// CreateCheckout creates a PENDING order, idempotent on client_ref.
// Prices are snapshotted from variants inside the transaction; availability
// is checked but stock is only decremented once payment is captured.
func (r *Repo) CreateCheckout(ctx context.Context, clientRef, userID string, items []ItemInput) (orderID string, total int64, existed bool, err error) {
	row := r.DB.QueryRow(ctx, `SELECT id, total_paise FROM orders WHERE client_ref=$1`, clientRef)
	if err = row.Scan(&orderID, &total); err == nil {
		return orderID, total, true, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", 0, false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	skus := make([]any, 0, len(items))
	params := ""
	for i, it := range items {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		skus = append(skus, it.SKU)
	}
	rows, err := tx.Query(ctx, `SELECT id, sku, price_paise, stock FROM variants WHERE sku IN (`+params+`)`, skus...)
	if err != nil {
		return "", 0, false, err
	}
	type variant struct {
		id    string
		price int64
		stock int
	}
	bySKU := map[string]variant{}
	for rows.Next() {
		var v variant
		var sku string
		if err := rows.Scan(&v.id, &sku, &v.price, &v.stock); err != nil {
			return "", 0, false, err
		}
		bySKU[sku] = v
	}
	if err := rows.Err(); err != nil {
		return "", 0, false, err
	}

	for _, it := range items {
		v, ok := bySKU[it.SKU]
		if !ok {
			return "", 0, false, fmt.Errorf("%w: %s", ErrUnknownSKU, it.SKU)
		}
		if it.Qty <= 0 {
			return "", 0, false, fmt.Errorf("%w: sku=%s", ErrInvalidQty, it.SKU)
		}
		if v.stock < it.Qty {
			return "", 0, false, fmt.Errorf("%w: sku=%s available=%d", ErrOutOfStock, it.SKU, v.stock)
		}
		total += v.price * int64(it.Qty)
	}

	orderID = uuid.NewString()
	if _, err = tx.Exec(ctx, `INSERT INTO orders(id, client_ref, user_id, status, total_paise, currency)
	                          VALUES ($1,$2,$3,$4,$5,'INR')`, orderID, clientRef, userID, StatusPending, total); err != nil {
		if isUniqueViolation(err) {
			// lost the race to a concurrent checkout with the same client_ref
			_ = tx.Rollback(ctx)
			row := r.DB.QueryRow(ctx, `SELECT id, total_paise FROM orders WHERE client_ref=$1`, clientRef)
			if err := row.Scan(&orderID, &total); err != nil {
				return "", 0, false, err
			}
			return orderID, total, true, nil
		}
		return "", 0, false, err
	}
	for _, it := range items {
		v := bySKU[it.SKU]
		if _, err = tx.Exec(ctx, `INSERT INTO order_items(order_id, variant_id, qty, price_paise)
		                          VALUES ($1,$2,$3,$4)`, orderID, v.id, it.Qty, v.price); err != nil {
			return "", 0, false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return "", 0, false, err
	}
	return orderID, total, false, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *Repo) GetOrderStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// ExportRows flattens recent orders with their items for the admin export.
func (r *Repo) ExportRows(ctx context.Context, limit int) ([]ExportRow, error) {
	if limit <= 0 || limit > 10000 {
		limit = 1000
	}
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.client_ref, o.user_id, o.status, o.total_paise, o.currency,
		       v.sku, oi.qty, oi.price_paise, o.created_at
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN variants v ON v.id = oi.variant_id
		ORDER BY o.created_at DESC, o.id, oi.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var e ExportRow
		if err := rows.Scan(&e.OrderID, &e.ClientRef, &e.UserID, &e.Status, &e.TotalPaise, &e.Currency,
			&e.SKU, &e.Qty, &e.PricePaise, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

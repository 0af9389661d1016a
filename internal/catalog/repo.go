package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var ErrProductNotFound = errors.New("product not found")

// ListProducts pages newest-first on (created_at, id) with optional
// fabric/category filters.
func (r *Repo) ListProducts(ctx context.Context, f ListFilter) (ListPage, error) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := `SELECT id, slug, name, description, fabric, category, created_at, updated_at FROM products`
	args := []any{}
	where := []string{}

	if f.Cursor != "" {
		t, id, err := parseCursor(f.Cursor)
		if err != nil {
			return ListPage{}, err
		}
		args = append(args, t, id)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	if f.Fabric != "" {
		args = append(args, f.Fabric)
		where = append(where, fmt.Sprintf("fabric = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	for i, w := range where {
		if i == 0 {
			q += " WHERE " + w
		} else {
			q += " AND " + w
		}
	}
	args = append(args, limit+1)
	q += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return ListPage{}, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.Fabric, &p.Category, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return ListPage{}, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return ListPage{}, err
	}

	page := ListPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.NextCursor = encodeCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}

// GetBySlug returns a product with its variants.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `SELECT id, slug, name, description, fabric, category, created_at, updated_at
	                           FROM products WHERE slug=$1`, slug).
		Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.Fabric, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}

	rows, err := r.DB.Query(ctx, `SELECT id, product_id, sku, colour, size, price_paise, stock, low_stock_threshold
	                              FROM variants WHERE product_id=$1 ORDER BY sku`, p.ID)
	if err != nil {
		return Product{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Colour, &v.Size, &v.PricePaise, &v.Stock, &v.LowStockThreshold); err != nil {
			return Product{}, err
		}
		p.Variants = append(p.Variants, v)
	}
	return p, rows.Err()
}

// LowStock lists variants at or below their threshold.
func (r *Repo) LowStock(ctx context.Context) ([]Variant, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, product_id, sku, colour, size, price_paise, stock, low_stock_threshold
	                              FROM variants WHERE stock <= low_stock_threshold ORDER BY stock, sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Colour, &v.Size, &v.PricePaise, &v.Stock, &v.LowStockThreshold); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

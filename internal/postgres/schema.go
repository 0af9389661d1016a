package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          UUID PRIMARY KEY,
		slug        TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		fabric      TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS variants (
		id                  UUID PRIMARY KEY,
		product_id          UUID NOT NULL REFERENCES products(id),
		sku                 TEXT NOT NULL UNIQUE,
		colour              TEXT NOT NULL DEFAULT '',
		size                TEXT NOT NULL DEFAULT '',
		price_paise         BIGINT NOT NULL,
		stock               INT NOT NULL DEFAULT 0,
		low_stock_threshold INT NOT NULL DEFAULT 5,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id          UUID PRIMARY KEY,
		client_ref  TEXT NOT NULL UNIQUE,
		user_id     TEXT NOT NULL,
		status      TEXT NOT NULL,
		total_paise BIGINT NOT NULL,
		currency    TEXT NOT NULL DEFAULT 'INR',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id          BIGSERIAL PRIMARY KEY,
		order_id    UUID NOT NULL REFERENCES orders(id),
		variant_id  UUID NOT NULL REFERENCES variants(id),
		qty         INT NOT NULL,
		price_paise BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id                  UUID PRIMARY KEY,
		order_id            UUID NOT NULL REFERENCES orders(id),
		provider_event_id   TEXT NOT NULL UNIQUE,
		provider_payment_id TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL,
		amount_paise        BIGINT NOT NULL,
		currency            TEXT NOT NULL,
		method              TEXT NOT NULL DEFAULT '',
		failure_reason      TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id                UUID PRIMARY KEY,
		product_id        UUID NOT NULL REFERENCES products(id),
		user_id           TEXT NOT NULL,
		rating            INT NOT NULL,
		title             TEXT NOT NULL DEFAULT '',
		body              TEXT NOT NULL DEFAULT '',
		image_count       INT NOT NULL DEFAULT 0,
		image_bytes_total BIGINT NOT NULL DEFAULT 0,
		status            TEXT NOT NULL,
		risk_score        DOUBLE PRECISION,
		verdict_reasons   TEXT[] NOT NULL DEFAULT '{}',
		verified_purchase BOOLEAN NOT NULL DEFAULT FALSE,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		decided_at        TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_product_status ON reviews(product_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_created ON products(created_at, id)`,
}

// EnsureSchema creates the tables on startup so a fresh database works
// without out-of-band migrations.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

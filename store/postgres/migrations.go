package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the provenance store.
var Migrations = migrate.NewGroup("provenance")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_provenance_settings",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_settings (
    id                  INT PRIMARY KEY CHECK (id = 1),
    admin               TEXT NOT NULL,
    registry_account    TEXT NOT NULL,
    deposit_account     TEXT NOT NULL,
    enrollment_fee      BIGINT NOT NULL DEFAULT 0 CHECK (enrollment_fee >= 0),
    enrollment_currency TEXT NOT NULL DEFAULT '',
    deposit_fee         BIGINT NOT NULL DEFAULT 0 CHECK (deposit_fee >= 0),
    deposit_currency    TEXT NOT NULL DEFAULT '',
    max_stock           BIGINT NOT NULL DEFAULT 0 CHECK (max_stock >= 0),
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_settings`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_provenance_producers",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_producers (
    account    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    enrolled   BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_provenance_producers_created ON provenance_producers (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_producers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_provenance_products",
			Version: "20250301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_products (
    id          BIGINT PRIMARY KEY CHECK (id > 0),
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    attribute   BIGINT NOT NULL DEFAULT 0,
    producer    TEXT NOT NULL REFERENCES provenance_producers (account),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_provenance_products_producer ON provenance_products (producer);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_products`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_provenance_retail_stores",
			Version: "20250301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_retail_stores (
    id             TEXT PRIMARY KEY,
    owner          TEXT NOT NULL,
    price_amount   BIGINT NOT NULL DEFAULT 0 CHECK (price_amount >= 0),
    price_currency TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_provenance_retail_stores_owner ON provenance_retail_stores (owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_retail_stores`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_provenance_authorizations",
			Version: "20250301000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_authorizations (
    producer   TEXT PRIMARY KEY REFERENCES provenance_producers (account),
    store_id   TEXT NOT NULL REFERENCES provenance_retail_stores (id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_authorizations`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_provenance_stock",
			Version: "20250301000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_stock (
    holder      TEXT NOT NULL,
    product_id  BIGINT NOT NULL REFERENCES provenance_products (id),
    stock       BIGINT NOT NULL DEFAULT 0 CHECK (stock >= 0),
    received    BIGINT NOT NULL DEFAULT 0,
    released    BIGINT NOT NULL DEFAULT 0,
    transferred BIGINT NOT NULL DEFAULT 0,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (holder, product_id),
    CHECK (stock = received - released - transferred)
);

CREATE INDEX IF NOT EXISTS idx_provenance_stock_product ON provenance_stock (product_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_stock`)
				return err
			},
		},
	)
}

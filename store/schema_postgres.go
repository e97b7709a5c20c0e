package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS orders (
    id                     BIGSERIAL PRIMARY KEY,
    order_id               TEXT NOT NULL UNIQUE,
    reference              TEXT NOT NULL DEFAULT '',
    customer_name          TEXT NOT NULL DEFAULT '',
    status                 TEXT NOT NULL DEFAULT 'NEW',
    order_type             TEXT NOT NULL DEFAULT 'TABLE',
    status_changed_at      TIMESTAMPTZ NOT NULL,
    estimated_prep_minutes INTEGER NOT NULL DEFAULT 0,
    total_amount           DOUBLE PRECISION NOT NULL DEFAULT 0,
    active                 BOOLEAN NOT NULL DEFAULT TRUE,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_orders_active ON orders(active);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

CREATE TABLE IF NOT EXISTS order_history (
    id          BIGSERIAL PRIMARY KEY,
    order_id    TEXT NOT NULL,
    status      TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_order_history_order ON order_history(order_id);

CREATE TABLE IF NOT EXISTS admin_users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

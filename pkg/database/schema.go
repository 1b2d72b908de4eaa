package database

import (
	"context"
	"fmt"
)

// principalsDDL is idempotent. The unique index on lower(email) is what
// settles concurrent registrations for the same address.
const principalsDDL = `
CREATE TABLE IF NOT EXISTS principals (
	id                     BIGSERIAL PRIMARY KEY,
	name                   TEXT        NOT NULL,
	email                  TEXT        NOT NULL,
	password_hash          TEXT        NOT NULL,
	role                   TEXT        NOT NULL CHECK (role IN ('customer', 'vendor', 'admin')),
	vendor_id              BIGINT      UNIQUE,
	is_active              BOOLEAN     NOT NULL DEFAULT true,
	country                TEXT,
	governorate            TEXT,
	phone                  TEXT,
	national_id            TEXT,
	failed_attempts        INT         NOT NULL DEFAULT 0,
	lock_until             TIMESTAMPTZ,
	reset_token_hash       TEXT,
	reset_token_expires_at TIMESTAMPTZ,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_principals_email ON principals (lower(email));
CREATE INDEX IF NOT EXISTS idx_principals_reset_token ON principals (reset_token_hash) WHERE reset_token_hash IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_principals_unlinked_vendors ON principals (created_at) WHERE role = 'vendor' AND vendor_id IS NULL;
`

// EnsureSchema creates the principals table and its indexes if missing.
func EnsureSchema(ctx context.Context, db PgxIface) error {
	if _, err := db.Exec(ctx, principalsDDL); err != nil {
		return fmt.Errorf("ensure principals schema: %w", err)
	}
	return nil
}

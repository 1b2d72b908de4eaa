package entity

import "time"

// Base holds the store-assigned identity and audit timestamps.
type Base struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

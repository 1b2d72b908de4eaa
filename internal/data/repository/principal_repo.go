package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"account-provisioning/internal/data/entity"
	"account-provisioning/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateEmail is returned by Create when the unique email index rejects the row.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrTicketNotFound is returned when a reset ticket no longer matches.
	ErrTicketNotFound = errors.New("reset ticket not found")
	// ErrPrincipalNotFound is returned by single-row mutations that touched nothing.
	ErrPrincipalNotFound = errors.New("principal not found")
)

const uniqueViolation = "23505"

type PrincipalRepository interface {
	Create(ctx context.Context, p *entity.Principal) error
	FindByID(ctx context.Context, id int64) (*entity.Principal, error)
	FindByEmail(ctx context.Context, email string) (*entity.Principal, error)
	FindByResetTokenHash(ctx context.Context, tokenHash string) (*entity.Principal, error)
	FindUnlinkedVendors(ctx context.Context, createdBefore time.Time, limit int) ([]*entity.Principal, error)
	LinkVendor(ctx context.Context, id, vendorID int64) error
	UpdateLockout(ctx context.Context, id int64, failedAttempts int, lockUntil *time.Time) error
	SetResetTicket(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error
	RedeemResetTicket(ctx context.Context, id int64, tokenHash, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
	DeleteUnlinkedVendor(ctx context.Context, id int64) error
}

type principalRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPrincipalRepository(db database.PgxIface, log *zap.Logger) PrincipalRepository {
	return &principalRepository{
		db:  db,
		log: log.With(zap.String("repository", "principal")),
	}
}

const principalColumns = `
	id, name, email, password_hash, role, vendor_id, is_active,
	country, governorate, phone, national_id,
	failed_attempts, lock_until, reset_token_hash, reset_token_expires_at,
	created_at, updated_at`

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanPrincipal(row pgx.Row) (*entity.Principal, error) {
	var p entity.Principal
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.PasswordHash,
		&p.Role,
		&p.VendorID,
		&p.IsActive,
		&p.Country,
		&p.Governorate,
		&p.Phone,
		&p.NationalID,
		&p.FailedAttempts,
		&p.LockUntil,
		&p.ResetTokenHash,
		&p.ResetTokenExpiresAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts the principal and fills in the store-assigned id and timestamps.
func (r *principalRepository) Create(ctx context.Context, p *entity.Principal) error {
	query := `
		INSERT INTO principals (name, email, password_hash, role, is_active,
		                        country, governorate, phone, national_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	p.Email = NormalizeEmail(p.Email)

	err := r.db.QueryRow(ctx, query,
		p.Name,
		p.Email,
		p.PasswordHash,
		p.Role,
		p.IsActive,
		p.Country,
		p.Governorate,
		p.Phone,
		p.NationalID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.log.Warn("Duplicate email on insert", zap.String("email", p.Email))
			return ErrDuplicateEmail
		}
		r.log.Error("Failed to create principal",
			zap.Error(err),
			zap.String("email", p.Email),
			zap.String("role", string(p.Role)),
		)
		return fmt.Errorf("create principal %s: %w", p.Email, err)
	}

	return nil
}

func (r *principalRepository) FindByID(ctx context.Context, id int64) (*entity.Principal, error) {
	query := `SELECT` + principalColumns + ` FROM principals WHERE id = $1`

	p, err := scanPrincipal(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find principal by ID", zap.Error(err), zap.Int64("principal_id", id))
		return nil, fmt.Errorf("find principal by ID %d: %w", id, err)
	}

	return p, nil
}

func (r *principalRepository) FindByEmail(ctx context.Context, email string) (*entity.Principal, error) {
	query := `SELECT` + principalColumns + ` FROM principals WHERE lower(email) = $1`

	email = NormalizeEmail(email)
	p, err := scanPrincipal(r.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find principal by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("find principal by email %s: %w", email, err)
	}

	return p, nil
}

func (r *principalRepository) FindByResetTokenHash(ctx context.Context, tokenHash string) (*entity.Principal, error) {
	query := `SELECT` + principalColumns + ` FROM principals WHERE reset_token_hash = $1`

	p, err := scanPrincipal(r.db.QueryRow(ctx, query, tokenHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find principal by reset token", zap.Error(err))
		return nil, fmt.Errorf("find principal by reset token: %w", err)
	}

	return p, nil
}

// FindUnlinkedVendors lists vendor principals that never got a vendor profile
// linked and are older than createdBefore.
func (r *principalRepository) FindUnlinkedVendors(ctx context.Context, createdBefore time.Time, limit int) ([]*entity.Principal, error) {
	query := `SELECT` + principalColumns + `
		FROM principals
		WHERE role = 'vendor' AND vendor_id IS NULL AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, createdBefore, limit)
	if err != nil {
		r.log.Error("Failed to list unlinked vendors", zap.Error(err), zap.Time("created_before", createdBefore))
		return nil, fmt.Errorf("list unlinked vendors: %w", err)
	}
	defer rows.Close()

	var principals []*entity.Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			r.log.Error("Failed to scan principal row", zap.Error(err))
			return nil, fmt.Errorf("scan principal row: %w", err)
		}
		principals = append(principals, p)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate principal rows: %w", err)
	}

	return principals, nil
}

// LinkVendor records the provisioned vendor profile id. It only applies to a
// vendor whose linkage is still empty.
func (r *principalRepository) LinkVendor(ctx context.Context, id, vendorID int64) error {
	query := `
		UPDATE principals
		SET vendor_id = $2, updated_at = NOW()
		WHERE id = $1 AND role = 'vendor' AND vendor_id IS NULL
	`

	result, err := r.db.Exec(ctx, query, id, vendorID)
	if err != nil {
		r.log.Error("Failed to link vendor profile",
			zap.Error(err),
			zap.Int64("principal_id", id),
			zap.Int64("vendor_id", vendorID),
		)
		return fmt.Errorf("link vendor %d to principal %d: %w", vendorID, id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("link vendor %d to principal %d: %w", vendorID, id, ErrPrincipalNotFound)
	}

	return nil
}

func (r *principalRepository) UpdateLockout(ctx context.Context, id int64, failedAttempts int, lockUntil *time.Time) error {
	query := `
		UPDATE principals
		SET failed_attempts = $2, lock_until = $3, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Exec(ctx, query, id, failedAttempts, lockUntil); err != nil {
		r.log.Error("Failed to update lockout state",
			zap.Error(err),
			zap.Int64("principal_id", id),
			zap.Int("failed_attempts", failedAttempts),
		)
		return fmt.Errorf("update lockout for principal %d: %w", id, err)
	}

	return nil
}

// SetResetTicket replaces any previous ticket; only one is valid at a time.
func (r *principalRepository) SetResetTicket(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE principals
		SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, tokenHash, expiresAt)
	if err != nil {
		r.log.Error("Failed to store reset ticket", zap.Error(err), zap.Int64("principal_id", id))
		return fmt.Errorf("set reset ticket for principal %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("set reset ticket for principal %d: %w", id, ErrPrincipalNotFound)
	}

	return nil
}

// RedeemResetTicket swaps the password, clears the ticket and the lockout
// state in one statement. The hash condition makes the ticket single-use even
// when two redemptions race.
func (r *principalRepository) RedeemResetTicket(ctx context.Context, id int64, tokenHash, passwordHash string) error {
	query := `
		UPDATE principals
		SET password_hash = $3,
		    reset_token_hash = NULL,
		    reset_token_expires_at = NULL,
		    failed_attempts = 0,
		    lock_until = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND reset_token_hash = $2
	`

	result, err := r.db.Exec(ctx, query, id, tokenHash, passwordHash)
	if err != nil {
		r.log.Error("Failed to redeem reset ticket", zap.Error(err), zap.Int64("principal_id", id))
		return fmt.Errorf("redeem reset ticket for principal %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrTicketNotFound
	}

	return nil
}

func (r *principalRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE principals SET is_active = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, active)
	if err != nil {
		r.log.Error("Failed to update active flag", zap.Error(err), zap.Int64("principal_id", id))
		return fmt.Errorf("set active for principal %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("set active for principal %d: %w", id, ErrPrincipalNotFound)
	}

	return nil
}

// Delete hard-deletes a principal. It is only used to compensate a failed
// vendor provisioning, so a missing row counts as success.
func (r *principalRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM principals WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete principal", zap.Error(err), zap.Int64("principal_id", id))
		return fmt.Errorf("delete principal %d: %w", id, err)
	}

	r.log.Info("Principal deleted",
		zap.Int64("principal_id", id),
		zap.Int64("rows", result.RowsAffected()),
	)
	return nil
}

// DeleteUnlinkedVendor removes a vendor principal only while its linkage is
// still empty, so a row linked by a concurrent pass survives. Touching nothing
// returns ErrPrincipalNotFound.
func (r *principalRepository) DeleteUnlinkedVendor(ctx context.Context, id int64) error {
	query := `DELETE FROM principals WHERE id = $1 AND role = 'vendor' AND vendor_id IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete unlinked vendor", zap.Error(err), zap.Int64("principal_id", id))
		return fmt.Errorf("delete unlinked vendor %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete unlinked vendor %d: %w", id, ErrPrincipalNotFound)
	}

	r.log.Info("Unlinked vendor deleted", zap.Int64("principal_id", id))
	return nil
}

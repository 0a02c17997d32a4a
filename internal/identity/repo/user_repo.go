package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/petrolia/termlab/internal/identity/entity"
)

// UserRepo provides data access for users and their terminal grants.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, name, last_name, email, role, photo_url, password_hash,
	refresh_token_hash, must_change_password, is_active, company_id, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (name, last_name, email, role, photo_url, password_hash,
	                              must_change_password, is_active, company_id)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	           RETURNING ` + userColumns
	return r.db.GetContext(ctx, u, q,
		u.Name, u.LastName, u.Email, u.Role, u.PhotoURL, u.PasswordHash,
		u.MustChangePassword, u.IsActive, u.CompanyID)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail matches case-insensitively (citext column).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, email); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE company_id=$1 ORDER BY id LIMIT $2 OFFSET $3`
	out := []*entity.User{}
	if err := r.db.SelectContext(ctx, &out, q, companyID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserRepo) Update(ctx context.Context, u *entity.User) (int64, error) {
	const q = `UPDATE users SET name=$2, last_name=$3, email=$4, role=$5, photo_url=$6,
	                            is_active=$7, company_id=$8, updated_at=NOW()
	           WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q,
		u.ID, u.Name, u.LastName, u.Email, u.Role, u.PhotoURL, u.IsActive, u.CompanyID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetPassword stores a new hash and clears the forced-reset flag.
func (r *UserRepo) SetPassword(ctx context.Context, id int64, hash string) error {
	const q = `UPDATE users SET password_hash=$2, must_change_password=false, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, hash)
	return err
}

// SetRefreshTokenHash stores the hash of the current refresh token; nil
// revokes it.
func (r *UserRepo) SetRefreshTokenHash(ctx context.Context, id int64, hash *string) error {
	const q = `UPDATE users SET refresh_token_hash=$2, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, hash)
	return err
}

// GetByRefreshTokenHash resolves the user holding the given refresh hash.
func (r *UserRepo) GetByRefreshTokenHash(ctx context.Context, hash string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE refresh_token_hash=$1`
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, hash); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GrantTerminal(ctx context.Context, userID, terminalID int64) error {
	const q = `INSERT INTO user_terminals (user_id, terminal_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, q, userID, terminalID)
	return err
}

func (r *UserRepo) RevokeTerminal(ctx context.Context, userID, terminalID int64) (int64, error) {
	const q = `DELETE FROM user_terminals WHERE user_id=$1 AND terminal_id=$2`
	res, err := r.db.ExecContext(ctx, q, userID, terminalID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TerminalIDs returns the terminals the user may act on.
func (r *UserRepo) TerminalIDs(ctx context.Context, userID int64) ([]int64, error) {
	const q = `SELECT terminal_id FROM user_terminals WHERE user_id=$1 ORDER BY terminal_id`
	out := []int64{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

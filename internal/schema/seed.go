package schema

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Seed makes sure a fresh install has an operator company and a superadmin
// to log in with. The password hash is supplied by the caller so this
// package stays free of crypto concerns. The seeded account carries
// must_change_password so the first login forces a reset.
func Seed(ctx context.Context, db *sqlx.DB, adminEmail, passwordHash string) error {
	var companyID int64
	err := db.GetContext(ctx, &companyID,
		`SELECT id FROM companies WHERE name = 'Petrolia Operations'`)
	if errors.Is(err, sql.ErrNoRows) {
		err = db.GetContext(ctx, &companyID,
			`INSERT INTO companies (name, company_type)
			 VALUES ('Petrolia Operations', 'client')
			 RETURNING id`)
	}
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (name, last_name, email, role, password_hash, must_change_password, company_id)
		 VALUES ('Admin', 'Local', $1, 'superadmin', $2, true, $3)
		 ON CONFLICT (email) DO NOTHING`,
		adminEmail, passwordHash, companyID)
	return err
}

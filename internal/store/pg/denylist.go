package pg

import (
	"context"
	"database/sql"
	"time"
)

// Denylist stores revoked refresh token identifiers. Rows past their expiry
// are dead weight only; Prune clears them.
type Denylist struct {
	db *sql.DB
}

func (s *Store) Denylist() *Denylist { return &Denylist{db: s.db} }

func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := d.db.ExecContext(ctx, `
		insert into revoked_tokens(jti, expires_at) values ($1,$2)
		on conflict (jti) do nothing
	`, jti, expiresAt)
	return err
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, `
		select 1 from revoked_tokens where jti=$1 and expires_at > now()
	`, jti).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *Denylist) Prune(ctx context.Context) (int64, error) {
	res, err := d.db.ExecContext(ctx, `delete from revoked_tokens where expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

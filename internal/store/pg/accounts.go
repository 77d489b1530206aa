package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"campus.org/internal/auth"
	"campus.org/internal/resource"
)

type accountStore struct {
	db *sql.DB
}

var accountColumns = map[string]string{
	"email":      "email",
	"password":   "password_hash",
	"role":       "role",
	"active":     "active",
	"first_name": "first_name",
	"last_name":  "last_name",
	"mobile":     "mobile",
	"birth_date": "birth_date",
	"address":    "address",
	"updated_at": "updated_at",
}

const accountSelect = `select key, public_id, email, password_hash, role, active,
	first_name, last_name, mobile, birth_date, address, created_at, updated_at
	from accounts`

func (s *accountStore) Insert(ctx context.Context, a *auth.Account) error {
	_, err := s.db.ExecContext(ctx, `
		insert into accounts(key, public_id, email, password_hash, role, active,
			first_name, last_name, mobile, birth_date, address, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, a.Key, a.PublicID, a.Email, a.PasswordHash, a.Role, a.Active,
		a.FirstName, a.LastName, a.Mobile, nullTime(a.BirthDate), a.Address,
		a.CreatedAt, a.UpdatedAt)
	return maybeConflict(err)
}

func (s *accountStore) FindByPublicID(ctx context.Context, publicID string) (*auth.Account, error) {
	return s.findOne(ctx, accountSelect+` where public_id=$1`, publicID)
}

func (s *accountStore) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return s.findOne(ctx, accountSelect+` where email=$1`, strings.ToLower(email))
}

func (s *accountStore) findOne(ctx context.Context, query string, arg any) (*auth.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, resource.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *accountStore) List(ctx context.Context, filter resource.Filter) ([]*auth.Account, error) {
	where, args, err := whereClause(filter, accountColumns)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, accountSelect+where+` order by key`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*auth.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (s *accountStore) Update(ctx context.Context, a *auth.Account, changed []string) error {
	set, fields, err := updateSet(changed, accountColumns)
	if err != nil {
		return err
	}
	args := []any{a.Key}
	for _, f := range fields {
		switch f {
		case "email":
			args = append(args, a.Email)
		case "password":
			args = append(args, a.PasswordHash)
		case "role":
			args = append(args, a.Role)
		case "active":
			args = append(args, a.Active)
		case "first_name":
			args = append(args, a.FirstName)
		case "last_name":
			args = append(args, a.LastName)
		case "mobile":
			args = append(args, a.Mobile)
		case "birth_date":
			args = append(args, nullTime(a.BirthDate))
		case "address":
			args = append(args, a.Address)
		case "updated_at":
			args = append(args, a.UpdatedAt)
		}
	}
	_, err = s.db.ExecContext(ctx, `update accounts set `+set+` where key=$1`, args...)
	return maybeConflict(err)
}

func (s *accountStore) Delete(ctx context.Context, a *auth.Account) error {
	_, err := s.db.ExecContext(ctx, `delete from accounts where key=$1`, a.Key)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*auth.Account, error) {
	var a auth.Account
	var birth sql.NullTime
	if err := row.Scan(&a.Key, &a.PublicID, &a.Email, &a.PasswordHash, &a.Role,
		&a.Active, &a.FirstName, &a.LastName, &a.Mobile, &birth, &a.Address,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if birth.Valid {
		ts := birth.Time.UTC()
		a.BirthDate = &ts
	}
	return &a, nil
}

func nullTime(ts *time.Time) sql.NullTime {
	if ts == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *ts, Valid: true}
}

package pg

import (
	"context"
	"database/sql"
	"errors"

	"campus.org/internal/campus"
	"campus.org/internal/resource"
)

type sessionStore struct {
	db *sql.DB
}

var sessionColumns = map[string]string{
	"schedule":   "schedule_id",
	"student":    "student_id",
	"homework":   "homework",
	"attended":   "attended",
	"desc":       "descr",
	"updated_at": "updated_at",
}

const sessionSelect = `select key, public_id, schedule_id, student_id, homework, attended, descr, created_at, updated_at from sessions`

func (s *sessionStore) Insert(ctx context.Context, se *campus.Session) error {
	_, err := s.db.ExecContext(ctx, `
		insert into sessions(key, public_id, schedule_id, student_id, homework, attended, descr, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, se.Key, se.PublicID, se.Schedule, se.Student, nullInt(se.Homework),
		nullBool(se.Attended), se.Desc, se.CreatedAt, se.UpdatedAt)
	return maybeConflict(err)
}

func (s *sessionStore) FindByPublicID(ctx context.Context, publicID string) (*campus.Session, error) {
	se, err := scanSession(s.db.QueryRowContext(ctx, sessionSelect+` where public_id=$1`, publicID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, resource.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return se, nil
}

func (s *sessionStore) List(ctx context.Context, filter resource.Filter) ([]*campus.Session, error) {
	where, args, err := whereClause(filter, sessionColumns)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, sessionSelect+where+` order by key`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*campus.Session
	for rows.Next() {
		se, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, se)
	}
	return res, rows.Err()
}

func (s *sessionStore) Update(ctx context.Context, se *campus.Session, changed []string) error {
	set, fields, err := updateSet(changed, sessionColumns)
	if err != nil {
		return err
	}
	args := []any{se.Key}
	for _, f := range fields {
		switch f {
		case "schedule":
			args = append(args, se.Schedule)
		case "student":
			args = append(args, se.Student)
		case "homework":
			args = append(args, nullInt(se.Homework))
		case "attended":
			args = append(args, nullBool(se.Attended))
		case "desc":
			args = append(args, se.Desc)
		case "updated_at":
			args = append(args, se.UpdatedAt)
		}
	}
	_, err = s.db.ExecContext(ctx, `update sessions set `+set+` where key=$1`, args...)
	return maybeConflict(err)
}

func (s *sessionStore) Delete(ctx context.Context, se *campus.Session) error {
	_, err := s.db.ExecContext(ctx, `delete from sessions where key=$1`, se.Key)
	return err
}

func scanSession(row rowScanner) (*campus.Session, error) {
	var se campus.Session
	var homework sql.NullInt64
	var attended sql.NullBool
	if err := row.Scan(&se.Key, &se.PublicID, &se.Schedule, &se.Student,
		&homework, &attended, &se.Desc, &se.CreatedAt, &se.UpdatedAt); err != nil {
		return nil, err
	}
	if homework.Valid {
		n := int(homework.Int64)
		se.Homework = &n
	}
	if attended.Valid {
		b := attended.Bool
		se.Attended = &b
	}
	return &se, nil
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

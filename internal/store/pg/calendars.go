package pg

import (
	"context"
	"database/sql"
	"errors"

	"campus.org/internal/campus"
	"campus.org/internal/resource"
)

type calendarStore struct {
	db *sql.DB
}

var calendarColumns = map[string]string{
	"user":       "user_id",
	"name":       "name",
	"time_start": "time_start",
	"time_end":   "time_end",
	"desc":       "descr",
	"updated_at": "updated_at",
}

const calendarSelect = `select key, public_id, user_id, name, time_start, time_end, descr, created_at, updated_at from calendars`

func (s *calendarStore) Insert(ctx context.Context, c *campus.Calendar) error {
	_, err := s.db.ExecContext(ctx, `
		insert into calendars(key, public_id, user_id, name, time_start, time_end, descr, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, c.Key, c.PublicID, c.User, c.Name, c.TimeStart, c.TimeEnd, c.Desc, c.CreatedAt, c.UpdatedAt)
	return maybeConflict(err)
}

func (s *calendarStore) FindByPublicID(ctx context.Context, publicID string) (*campus.Calendar, error) {
	c, err := scanCalendar(s.db.QueryRowContext(ctx, calendarSelect+` where public_id=$1`, publicID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, resource.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *calendarStore) List(ctx context.Context, filter resource.Filter) ([]*campus.Calendar, error) {
	where, args, err := whereClause(filter, calendarColumns)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, calendarSelect+where+` order by key`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*campus.Calendar
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *calendarStore) Update(ctx context.Context, c *campus.Calendar, changed []string) error {
	set, fields, err := updateSet(changed, calendarColumns)
	if err != nil {
		return err
	}
	args := []any{c.Key}
	for _, f := range fields {
		switch f {
		case "user":
			args = append(args, c.User)
		case "name":
			args = append(args, c.Name)
		case "time_start":
			args = append(args, c.TimeStart)
		case "time_end":
			args = append(args, c.TimeEnd)
		case "desc":
			args = append(args, c.Desc)
		case "updated_at":
			args = append(args, c.UpdatedAt)
		}
	}
	_, err = s.db.ExecContext(ctx, `update calendars set `+set+` where key=$1`, args...)
	return maybeConflict(err)
}

func (s *calendarStore) Delete(ctx context.Context, c *campus.Calendar) error {
	_, err := s.db.ExecContext(ctx, `delete from calendars where key=$1`, c.Key)
	return err
}

func scanCalendar(row rowScanner) (*campus.Calendar, error) {
	var c campus.Calendar
	if err := row.Scan(&c.Key, &c.PublicID, &c.User, &c.Name, &c.TimeStart,
		&c.TimeEnd, &c.Desc, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

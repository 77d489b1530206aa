package pg

import (
	"context"
	"database/sql"
	"errors"

	"campus.org/internal/campus"
	"campus.org/internal/resource"
)

type scheduleStore struct {
	db *sql.DB
}

var scheduleColumns = map[string]string{
	"class":      "class_id",
	"time_start": "time_start",
	"time_end":   "time_end",
	"desc":       "descr",
	"updated_at": "updated_at",
}

const scheduleSelect = `select key, public_id, class_id, time_start, time_end, descr, created_at, updated_at from schedules`

func (s *scheduleStore) Insert(ctx context.Context, sc *campus.Schedule) error {
	_, err := s.db.ExecContext(ctx, `
		insert into schedules(key, public_id, class_id, time_start, time_end, descr, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, sc.Key, sc.PublicID, sc.Class, sc.TimeStart, sc.TimeEnd, sc.Desc, sc.CreatedAt, sc.UpdatedAt)
	return maybeConflict(err)
}

func (s *scheduleStore) FindByPublicID(ctx context.Context, publicID string) (*campus.Schedule, error) {
	sc, err := scanSchedule(s.db.QueryRowContext(ctx, scheduleSelect+` where public_id=$1`, publicID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, resource.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *scheduleStore) List(ctx context.Context, filter resource.Filter) ([]*campus.Schedule, error) {
	where, args, err := whereClause(filter, scheduleColumns)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, scheduleSelect+where+` order by key`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*campus.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, sc)
	}
	return res, rows.Err()
}

func (s *scheduleStore) Update(ctx context.Context, sc *campus.Schedule, changed []string) error {
	set, fields, err := updateSet(changed, scheduleColumns)
	if err != nil {
		return err
	}
	args := []any{sc.Key}
	for _, f := range fields {
		switch f {
		case "class":
			args = append(args, sc.Class)
		case "time_start":
			args = append(args, sc.TimeStart)
		case "time_end":
			args = append(args, sc.TimeEnd)
		case "desc":
			args = append(args, sc.Desc)
		case "updated_at":
			args = append(args, sc.UpdatedAt)
		}
	}
	_, err = s.db.ExecContext(ctx, `update schedules set `+set+` where key=$1`, args...)
	return maybeConflict(err)
}

func (s *scheduleStore) Delete(ctx context.Context, sc *campus.Schedule) error {
	_, err := s.db.ExecContext(ctx, `delete from schedules where key=$1`, sc.Key)
	return err
}

func scanSchedule(row rowScanner) (*campus.Schedule, error) {
	var sc campus.Schedule
	if err := row.Scan(&sc.Key, &sc.PublicID, &sc.Class, &sc.TimeStart,
		&sc.TimeEnd, &sc.Desc, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
		return nil, err
	}
	return &sc, nil
}

package pg

import (
	"context"
	"database/sql"
	"errors"

	"campus.org/internal/campus"
	"campus.org/internal/resource"
)

type courseStore struct {
	db *sql.DB
}

var courseColumns = map[string]string{
	"name":       "name",
	"desc":       "descr",
	"tags":       "tags @>",
	"duration":   "duration",
	"updated_at": "updated_at",
}

const courseSelect = `select key, public_id, name, descr, tags, duration, created_at, updated_at from courses`

func (s *courseStore) Insert(ctx context.Context, c *campus.Course) error {
	tags, err := encodeList(c.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into courses(key, public_id, name, descr, tags, duration, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, c.Key, c.PublicID, c.Name, c.Desc, tags, c.Duration, c.CreatedAt, c.UpdatedAt)
	return maybeConflict(err)
}

func (s *courseStore) FindByPublicID(ctx context.Context, publicID string) (*campus.Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx, courseSelect+` where public_id=$1`, publicID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, resource.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *courseStore) List(ctx context.Context, filter resource.Filter) ([]*campus.Course, error) {
	where, args, err := whereClause(filter, courseColumns)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, courseSelect+where+` order by key`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*campus.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *courseStore) Update(ctx context.Context, c *campus.Course, changed []string) error {
	set, fields, err := updateSet(changed, courseColumns)
	if err != nil {
		return err
	}
	args := []any{c.Key}
	for _, f := range fields {
		switch f {
		case "name":
			args = append(args, c.Name)
		case "desc":
			args = append(args, c.Desc)
		case "tags":
			tags, err := encodeList(c.Tags)
			if err != nil {
				return err
			}
			args = append(args, tags)
		case "duration":
			args = append(args, c.Duration)
		case "updated_at":
			args = append(args, c.UpdatedAt)
		}
	}
	_, err = s.db.ExecContext(ctx, `update courses set `+set+` where key=$1`, args...)
	return maybeConflict(err)
}

func (s *courseStore) Delete(ctx context.Context, c *campus.Course) error {
	_, err := s.db.ExecContext(ctx, `delete from courses where key=$1`, c.Key)
	return err
}

func scanCourse(row rowScanner) (*campus.Course, error) {
	var c campus.Course
	var tags []byte
	if err := row.Scan(&c.Key, &c.PublicID, &c.Name, &c.Desc, &tags,
		&c.Duration, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	list, err := decodeList(tags)
	if err != nil {
		return nil, err
	}
	c.Tags = list
	return &c, nil
}

package pg

import (
	"context"
	"database/sql"
	"errors"

	"campus.org/internal/campus"
	"campus.org/internal/resource"
)

type classStore struct {
	db *sql.DB
}

var classColumns = map[string]string{
	"course":     "course_id",
	"name":       "name",
	"teacher":    "teacher_id",
	"students":   "students @>",
	"status":     "status",
	"desc":       "descr",
	"updated_at": "updated_at",
}

const classSelect = `select key, public_id, course_id, name, teacher_id, students, status, descr, created_at, updated_at from classes`

func (s *classStore) Insert(ctx context.Context, c *campus.Class) error {
	students, err := encodeList(c.Students)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into classes(key, public_id, course_id, name, teacher_id, students, status, descr, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, c.Key, c.PublicID, c.Course, c.Name, nullString(c.Teacher), students,
		c.Status, c.Desc, c.CreatedAt, c.UpdatedAt)
	return maybeConflict(err)
}

func (s *classStore) FindByPublicID(ctx context.Context, publicID string) (*campus.Class, error) {
	c, err := scanClass(s.db.QueryRowContext(ctx, classSelect+` where public_id=$1`, publicID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, resource.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *classStore) List(ctx context.Context, filter resource.Filter) ([]*campus.Class, error) {
	where, args, err := whereClause(filter, classColumns)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, classSelect+where+` order by key`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*campus.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *classStore) Update(ctx context.Context, c *campus.Class, changed []string) error {
	set, fields, err := updateSet(changed, classColumns)
	if err != nil {
		return err
	}
	args := []any{c.Key}
	for _, f := range fields {
		switch f {
		case "course":
			args = append(args, c.Course)
		case "name":
			args = append(args, c.Name)
		case "teacher":
			args = append(args, nullString(c.Teacher))
		case "students":
			students, err := encodeList(c.Students)
			if err != nil {
				return err
			}
			args = append(args, students)
		case "status":
			args = append(args, c.Status)
		case "desc":
			args = append(args, c.Desc)
		case "updated_at":
			args = append(args, c.UpdatedAt)
		}
	}
	_, err = s.db.ExecContext(ctx, `update classes set `+set+` where key=$1`, args...)
	return maybeConflict(err)
}

func (s *classStore) Delete(ctx context.Context, c *campus.Class) error {
	_, err := s.db.ExecContext(ctx, `delete from classes where key=$1`, c.Key)
	return err
}

func scanClass(row rowScanner) (*campus.Class, error) {
	var c campus.Class
	var teacher sql.NullString
	var students []byte
	if err := row.Scan(&c.Key, &c.PublicID, &c.Course, &c.Name, &teacher,
		&students, &c.Status, &c.Desc, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Teacher = teacher.String
	list, err := decodeList(students)
	if err != nil {
		return nil, err
	}
	c.Students = list
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"campus.org/internal/campus"
	"campus.org/internal/resource"
)

// Store owns the database handle and hands out per-entity stores over it.
type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle. Used by tests with sqlmock.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Stores bundles the per-entity stores for the registry.
func (s *Store) Stores() campus.Stores {
	return campus.Stores{
		Accounts:  &accountStore{db: s.db},
		Courses:   &courseStore{db: s.db},
		Classes:   &classStore{db: s.db},
		Schedules: &scheduleStore{db: s.db},
		Sessions:  &sessionStore{db: s.db},
		Calendars: &calendarStore{db: s.db},
	}
}

// uniqueConstraints maps violated constraint names to the reported field and
// message, mirroring what the in-memory store produces.
var uniqueConstraints = map[string]resource.ConflictError{
	"accounts_email_key":            {Field: "email"},
	"accounts_mobile_key":           {Field: "mobile"},
	"courses_name_key":              {Field: "name"},
	"classes_name_key":              {Field: "name"},
	"sessions_schedule_student_key": {Field: "student", Message: "Already exists for this schedule."},
}

// maybeConflict converts Postgres unique violations into the conflict error
// the engine understands; anything else passes through.
func maybeConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if conflict, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
			return &conflict
		}
		return &resource.ConflictError{Field: "uuid"}
	}
	return err
}

// whereClause renders a validated filter into SQL. Column names come from the
// caller's own map, never from the request.
func whereClause(filter resource.Filter, columns map[string]string) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	var conds []string
	var args []any
	i := 1
	for field, value := range filter {
		col, ok := columns[field]
		if !ok {
			return "", nil, fmt.Errorf("unfilterable field %q", field)
		}
		if strings.HasSuffix(col, "@>") {
			member, err := json.Marshal([]string{value})
			if err != nil {
				return "", nil, err
			}
			conds = append(conds, fmt.Sprintf("%s $%d::jsonb", col, i))
			args = append(args, string(member))
		} else {
			conds = append(conds, fmt.Sprintf("%s = $%d", col, i))
			args = append(args, value)
		}
		i++
	}
	return " where " + strings.Join(conds, " and "), args, nil
}

// updateSet renders the changed-columns part of an update statement. The
// first placeholder is reserved for the row key.
func updateSet(changed []string, columns map[string]string) (string, []string, error) {
	assigns := make([]string, 0, len(changed))
	cols := make([]string, 0, len(changed))
	for i, field := range changed {
		col, ok := columns[field]
		if !ok {
			return "", nil, fmt.Errorf("unknown field %q", field)
		}
		col = strings.TrimSuffix(col, " @>")
		assigns = append(assigns, fmt.Sprintf("%s = $%d", col, i+2))
		cols = append(cols, field)
	}
	return strings.Join(assigns, ", "), cols, nil
}

func encodeList(ss []string) (string, error) {
	if ss == nil {
		ss = []string{}
	}
	raw, err := json.Marshal(ss)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeList(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, err
	}
	if len(ss) == 0 {
		return nil, nil
	}
	return ss, nil
}

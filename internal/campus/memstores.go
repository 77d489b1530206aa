package campus

import (
	"context"
	"strings"

	"campus.org/internal/auth"
	"campus.org/internal/resource"
)

// memAccounts adds the login-time email lookup on top of the generic
// in-memory store.
type memAccounts struct {
	*resource.MemStore[*auth.Account]
}

func (m *memAccounts) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	accounts, err := m.List(ctx, resource.Filter{"email": strings.ToLower(email)})
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, resource.ErrNotFound
	}
	return accounts[0], nil
}

// NewMemStores builds a fully in-memory Stores bundle. Used by tests and by
// the server when no database is configured.
func NewMemStores() Stores {
	return Stores{
		Accounts:  &memAccounts{resource.NewMemStore(AccountSchema())},
		Courses:   resource.NewMemStore(CourseSchema()),
		Classes:   resource.NewMemStore(ClassSchema(nil, nil)),
		Schedules: resource.NewMemStore(ScheduleSchema(nil)),
		Sessions:  resource.NewMemStore(SessionSchema(nil, nil)),
		Calendars: resource.NewMemStore(CalendarSchema(nil)),
	}
}

package campus

import (
	"context"
	"slices"
	"time"

	"campus.org/internal/auth"
	"campus.org/internal/resource"
)

// AccountStore persists accounts and supports login-time lookup by email.
type AccountStore interface {
	resource.Store[*auth.Account]
	FindByEmail(ctx context.Context, email string) (*auth.Account, error)
}

// Stores bundles the persistence backends for every entity type. Both the
// in-memory and the Postgres implementations satisfy it.
type Stores struct {
	Accounts  AccountStore
	Courses   resource.Store[*Course]
	Classes   resource.Store[*Class]
	Schedules resource.Store[*Schedule]
	Sessions  resource.Store[*Session]
	Calendars resource.Store[*Calendar]
}

// Registry holds one engine per entity type with relations and cascade
// policies wired between them. Deleting a course removes its classes, their
// schedules and the sessions under those; deleting an account removes the
// account's sessions and calendar entries and takes it off every class it
// appears on.
type Registry struct {
	Accounts  *resource.Engine[*auth.Account]
	Courses   *resource.Engine[*Course]
	Classes   *resource.Engine[*Class]
	Schedules *resource.Engine[*Schedule]
	Sessions  *resource.Engine[*Session]
	Calendars *resource.Engine[*Calendar]

	stores Stores
	now    func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the registry-wide time source.
func WithClock(fn func() time.Time) Option {
	return func(r *Registry) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRegistry wires the five engines over the given stores.
func NewRegistry(stores Stores, opts ...Option) *Registry {
	r := &Registry{stores: stores, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	accounts := resource.StoreResolver(stores.Accounts)
	courses := resource.StoreResolver(stores.Courses)
	classes := resource.StoreResolver(stores.Classes)
	schedules := resource.StoreResolver(stores.Schedules)

	r.Accounts = resource.NewEngine(AccountSchema(), stores.Accounts,
		resource.WithClock[*auth.Account](r.now),
		resource.WithDeleteHook[*auth.Account](r.detachAccount),
	)
	r.Courses = resource.NewEngine(CourseSchema(), stores.Courses,
		resource.WithClock[*Course](r.now),
		resource.WithDeleteHook[*Course](r.cascadeCourse),
	)
	r.Classes = resource.NewEngine(ClassSchema(courses, accounts), stores.Classes,
		resource.WithClock[*Class](r.now),
		resource.WithDeleteHook[*Class](r.cascadeClass),
	)
	r.Schedules = resource.NewEngine(ScheduleSchema(classes), stores.Schedules,
		resource.WithClock[*Schedule](r.now),
		resource.WithDeleteHook[*Schedule](r.cascadeSchedule),
	)
	r.Sessions = resource.NewEngine(SessionSchema(schedules, accounts), stores.Sessions,
		resource.WithClock[*Session](r.now),
	)
	r.Calendars = resource.NewEngine(CalendarSchema(accounts), stores.Calendars,
		resource.WithClock[*Calendar](r.now),
	)
	return r
}

// Resources lists the engines in mount order for the HTTP layer.
func (r *Registry) Resources() []resource.Resource {
	return []resource.Resource{r.Accounts, r.Courses, r.Classes, r.Schedules, r.Sessions, r.Calendars}
}

func (r *Registry) cascadeCourse(ctx context.Context, publicID string) error {
	classes, err := r.stores.Classes.List(ctx, resource.Filter{"course": publicID})
	if err != nil {
		return err
	}
	for _, class := range classes {
		if err := r.Classes.Delete(ctx, class.PublicID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) cascadeClass(ctx context.Context, publicID string) error {
	schedules, err := r.stores.Schedules.List(ctx, resource.Filter{"class": publicID})
	if err != nil {
		return err
	}
	for _, schedule := range schedules {
		if err := r.Schedules.Delete(ctx, schedule.PublicID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) cascadeSchedule(ctx context.Context, publicID string) error {
	sessions, err := r.stores.Sessions.List(ctx, resource.Filter{"schedule": publicID})
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if err := r.Sessions.Delete(ctx, session.PublicID); err != nil {
			return err
		}
	}
	return nil
}

// detachAccount scrubs references to an account before it goes away: the
// account's own sessions and calendar entries are deleted, class rosters
// drop it and classes it taught lose their teacher.
func (r *Registry) detachAccount(ctx context.Context, publicID string) error {
	sessions, err := r.stores.Sessions.List(ctx, resource.Filter{"student": publicID})
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if err := r.Sessions.Delete(ctx, session.PublicID); err != nil {
			return err
		}
	}

	calendars, err := r.stores.Calendars.List(ctx, resource.Filter{"user": publicID})
	if err != nil {
		return err
	}
	for _, cal := range calendars {
		if err := r.Calendars.Delete(ctx, cal.PublicID); err != nil {
			return err
		}
	}

	classes, err := r.stores.Classes.List(ctx, nil)
	if err != nil {
		return err
	}
	for _, class := range classes {
		var changed []string
		if class.Teacher == publicID {
			class.Teacher = ""
			changed = append(changed, "teacher")
		}
		if i := slices.Index(class.Students, publicID); i >= 0 {
			class.Students = slices.Delete(class.Students, i, i+1)
			changed = append(changed, "students")
		}
		if len(changed) == 0 {
			continue
		}
		class.UpdatedAt = r.now().UTC()
		changed = append(changed, "updated_at")
		if err := r.stores.Classes.Update(ctx, class, changed); err != nil {
			return err
		}
	}
	return nil
}

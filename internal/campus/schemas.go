package campus

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"campus.org/internal/auth"
	"campus.org/internal/resource"
)

// AccountSchema is the field registry for accounts. The password is
// write-only and hashed on the way in; the hash itself never appears in any
// representation. Roles are validated against the fixed catalog, since this
// system has no role CRUD.
func AccountSchema() *resource.Schema[*auth.Account] {
	return &resource.Schema[*auth.Account]{
		Name:       "account",
		Collection: "accounts",
		New:        func() *auth.Account { return &auth.Account{Active: true} },
		Copy:       copyAccount,
		Filters:    []string{"email", "mobile", "role", "active", "first_name", "last_name"},
		Fields: []resource.Field[*auth.Account]{
			{
				Name: "email", Kind: resource.KindString, Required: true, Unique: true,
				Validate: validEmail,
				Get:      func(a *auth.Account) any { return a.Email },
				Set: func(a *auth.Account, v any) error {
					a.Email = strings.ToLower(v.(string))
					return nil
				},
			},
			{
				Name: "password", Kind: resource.KindString, Required: true, WriteOnly: true,
				Validate: func(v any) error {
					if len(v.(string)) < 8 {
						return fmt.Errorf("must be at least 8 characters")
					}
					return nil
				},
				Get: func(a *auth.Account) any { return a.PasswordHash },
				Set: func(a *auth.Account, v any) error {
					hash, err := auth.HashPassword(v.(string))
					if err != nil {
						return err
					}
					a.PasswordHash = hash
					return nil
				},
			},
			{
				Name: "role", Kind: resource.KindString, Required: true,
				Validate: validRole,
				Get:      func(a *auth.Account) any { return a.Role },
				Set:      func(a *auth.Account, v any) error { a.Role = v.(string); return nil },
			},
			{
				Name: "active", Kind: resource.KindBool,
				Get: func(a *auth.Account) any { return a.Active },
				Set: func(a *auth.Account, v any) error {
					if v == nil {
						a.Active = false
						return nil
					}
					a.Active = v.(bool)
					return nil
				},
			},
			{
				Name: "first_name", Kind: resource.KindString,
				Get: func(a *auth.Account) any { return a.FirstName },
				Set: setString(func(a *auth.Account) *string { return &a.FirstName }),
			},
			{
				Name: "last_name", Kind: resource.KindString,
				Get: func(a *auth.Account) any { return a.LastName },
				Set: setString(func(a *auth.Account) *string { return &a.LastName }),
			},
			{
				Name: "mobile", Kind: resource.KindString, Required: true, Unique: true,
				Validate: validMobile,
				Get:      func(a *auth.Account) any { return a.Mobile },
				Set:      setString(func(a *auth.Account) *string { return &a.Mobile }),
			},
			{
				Name: "birth_date", Kind: resource.KindTime,
				Get: func(a *auth.Account) any {
					if a.BirthDate == nil {
						return nil
					}
					return *a.BirthDate
				},
				Set: func(a *auth.Account, v any) error {
					if v == nil {
						a.BirthDate = nil
						return nil
					}
					ts := v.(time.Time)
					a.BirthDate = &ts
					return nil
				},
			},
			{
				Name: "address", Kind: resource.KindString,
				Get: func(a *auth.Account) any { return a.Address },
				Set: setString(func(a *auth.Account) *string { return &a.Address }),
			},
		},
	}
}

// CourseSchema covers course CRUD including the tag list.
func CourseSchema() *resource.Schema[*Course] {
	return &resource.Schema[*Course]{
		Name:       "course",
		Collection: "courses",
		New:        func() *Course { return &Course{} },
		Copy:       copyCourse,
		Filters:    []string{"name", "duration", "tags"},
		Fields: []resource.Field[*Course]{
			{
				Name: "name", Kind: resource.KindString, Required: true, Unique: true,
				Validate: notBlank,
				Get:      func(c *Course) any { return c.Name },
				Set:      func(c *Course, v any) error { c.Name = v.(string); return nil },
			},
			{
				Name: "desc", Kind: resource.KindString,
				Get: func(c *Course) any { return c.Desc },
				Set: setString(func(c *Course) *string { return &c.Desc }),
			},
			{
				Name: "tags", Kind: resource.KindStringList,
				Get: func(c *Course) any { return slices.Clone(c.Tags) },
				Set: func(c *Course, v any) error {
					if v == nil {
						c.Tags = nil
						return nil
					}
					c.Tags = normalizeTags(v.([]string))
					return nil
				},
			},
			{
				Name: "duration", Kind: resource.KindInt, Required: true,
				Validate: func(v any) error {
					if v.(int) <= 0 {
						return fmt.Errorf("must be a positive number of weeks")
					}
					return nil
				},
				Get: func(c *Course) any { return c.Duration },
				Set: func(c *Course, v any) error { c.Duration = v.(int); return nil },
			},
		},
	}
}

// ClassSchema wires course, teacher and roster relations. The roster is an
// identifier set resolved all-or-nothing against accounts.
func ClassSchema(courses, accounts resource.Resolver) *resource.Schema[*Class] {
	return &resource.Schema[*Class]{
		Name:       "class",
		Collection: "classes",
		New:        func() *Class { return &Class{} },
		Copy:       copyClass,
		Filters:    []string{"name", "course", "teacher", "status"},
		Fields: []resource.Field[*Class]{
			{
				Name: "course", Kind: resource.KindRef, Required: true, Resolve: courses,
				Get: func(c *Class) any { return c.Course },
				Set: func(c *Class, v any) error { c.Course = v.(string); return nil },
			},
			{
				Name: "name", Kind: resource.KindString, Required: true, Unique: true,
				Validate: notBlank,
				Get:      func(c *Class) any { return c.Name },
				Set:      func(c *Class, v any) error { c.Name = v.(string); return nil },
			},
			{
				Name: "teacher", Kind: resource.KindRef, Resolve: accounts,
				Get: func(c *Class) any { return c.Teacher },
				Set: func(c *Class, v any) error {
					if v == nil {
						c.Teacher = ""
						return nil
					}
					c.Teacher = v.(string)
					return nil
				},
			},
			{
				Name: "students", Kind: resource.KindRefList, Resolve: accounts,
				Get: func(c *Class) any { return slices.Clone(c.Students) },
				Set: func(c *Class, v any) error {
					if v == nil {
						c.Students = nil
						return nil
					}
					ids := slices.Clone(v.([]string))
					slices.Sort(ids)
					c.Students = slices.Compact(ids)
					return nil
				},
			},
			{
				Name: "status", Kind: resource.KindString, Required: true,
				Validate: notBlank,
				Get:      func(c *Class) any { return c.Status },
				Set:      func(c *Class, v any) error { c.Status = v.(string); return nil },
			},
			{
				Name: "desc", Kind: resource.KindString,
				Get: func(c *Class) any { return c.Desc },
				Set: setString(func(c *Class) *string { return &c.Desc }),
			},
		},
	}
}

// ScheduleSchema covers class meeting windows.
func ScheduleSchema(classes resource.Resolver) *resource.Schema[*Schedule] {
	return &resource.Schema[*Schedule]{
		Name:       "schedule",
		Collection: "schedules",
		New:        func() *Schedule { return &Schedule{} },
		Copy:       copySchedule,
		Filters:    []string{"class"},
		Check: func(s *Schedule) resource.FieldErrors {
			if s.TimeEnd <= s.TimeStart {
				return resource.FieldErrors{"time_end": "Must be after time_start."}
			}
			return nil
		},
		Fields: []resource.Field[*Schedule]{
			{
				Name: "class", Kind: resource.KindRef, Required: true, Resolve: classes,
				Get: func(s *Schedule) any { return s.Class },
				Set: func(s *Schedule, v any) error { s.Class = v.(string); return nil },
			},
			{
				Name: "time_start", Kind: resource.KindInt, Required: true,
				Get: func(s *Schedule) any { return s.TimeStart },
				Set: func(s *Schedule, v any) error { s.TimeStart = v.(int); return nil },
			},
			{
				Name: "time_end", Kind: resource.KindInt, Required: true,
				Get: func(s *Schedule) any { return s.TimeEnd },
				Set: func(s *Schedule, v any) error { s.TimeEnd = v.(int); return nil },
			},
			{
				Name: "desc", Kind: resource.KindString,
				Get: func(s *Schedule) any { return s.Desc },
				Set: setString(func(s *Schedule) *string { return &s.Desc }),
			},
		},
	}
}

// CalendarSchema covers personal planning entries. Each entry belongs to one
// account and disappears with it.
func CalendarSchema(accounts resource.Resolver) *resource.Schema[*Calendar] {
	return &resource.Schema[*Calendar]{
		Name:       "calendar",
		Collection: "calendars",
		New:        func() *Calendar { return &Calendar{} },
		Copy:       copyCalendar,
		Filters:    []string{"user", "name"},
		Check: func(c *Calendar) resource.FieldErrors {
			if c.TimeEnd <= c.TimeStart {
				return resource.FieldErrors{"time_end": "Must be after time_start."}
			}
			return nil
		},
		Fields: []resource.Field[*Calendar]{
			{
				Name: "user", Kind: resource.KindRef, Required: true, Resolve: accounts,
				Get: func(c *Calendar) any { return c.User },
				Set: func(c *Calendar, v any) error { c.User = v.(string); return nil },
			},
			{
				Name: "name", Kind: resource.KindString, Required: true,
				Validate: notBlank,
				Get:      func(c *Calendar) any { return c.Name },
				Set:      func(c *Calendar, v any) error { c.Name = v.(string); return nil },
			},
			{
				Name: "time_start", Kind: resource.KindInt, Required: true,
				Get: func(c *Calendar) any { return c.TimeStart },
				Set: func(c *Calendar, v any) error { c.TimeStart = v.(int); return nil },
			},
			{
				Name: "time_end", Kind: resource.KindInt, Required: true,
				Get: func(c *Calendar) any { return c.TimeEnd },
				Set: func(c *Calendar, v any) error { c.TimeEnd = v.(int); return nil },
			},
			{
				Name: "desc", Kind: resource.KindString,
				Get: func(c *Calendar) any { return c.Desc },
				Set: setString(func(c *Calendar) *string { return &c.Desc }),
			},
		},
	}
}

// SessionSchema covers per-student attendance records; one per
// (schedule, student) pair.
func SessionSchema(schedules, accounts resource.Resolver) *resource.Schema[*Session] {
	return &resource.Schema[*Session]{
		Name:       "session",
		Collection: "sessions",
		New:        func() *Session { return &Session{} },
		Copy:       copySession,
		Filters:    []string{"schedule", "student", "attended"},
		UniqueSets: [][]string{{"schedule", "student"}},
		Fields: []resource.Field[*Session]{
			{
				Name: "schedule", Kind: resource.KindRef, Required: true, Resolve: schedules,
				Get: func(s *Session) any { return s.Schedule },
				Set: func(s *Session, v any) error { s.Schedule = v.(string); return nil },
			},
			{
				Name: "student", Kind: resource.KindRef, Required: true, Resolve: accounts,
				Get: func(s *Session) any { return s.Student },
				Set: func(s *Session, v any) error { s.Student = v.(string); return nil },
			},
			{
				Name: "homework", Kind: resource.KindInt,
				Validate: func(v any) error {
					if n := v.(int); n < 0 || n > 100 {
						return fmt.Errorf("must be between 0 and 100")
					}
					return nil
				},
				Get: func(s *Session) any {
					if s.Homework == nil {
						return nil
					}
					return *s.Homework
				},
				Set: func(s *Session, v any) error {
					if v == nil {
						s.Homework = nil
						return nil
					}
					n := v.(int)
					s.Homework = &n
					return nil
				},
			},
			{
				Name: "attended", Kind: resource.KindBool,
				Get: func(s *Session) any {
					if s.Attended == nil {
						return nil
					}
					return *s.Attended
				},
				Set: func(s *Session, v any) error {
					if v == nil {
						s.Attended = nil
						return nil
					}
					b := v.(bool)
					s.Attended = &b
					return nil
				},
			},
			{
				Name: "desc", Kind: resource.KindString,
				Get: func(s *Session) any { return s.Desc },
				Set: setString(func(s *Session) *string { return &s.Desc }),
			},
		},
	}
}

func setString[T resource.Entity](target func(T) *string) func(T, any) error {
	return func(e T, v any) error {
		if v == nil {
			*target(e) = ""
			return nil
		}
		*target(e) = v.(string)
		return nil
	}
}

func notBlank(v any) error {
	if strings.TrimSpace(v.(string)) == "" {
		return fmt.Errorf("must not be blank")
	}
	return nil
}

func validEmail(v any) error {
	s := v.(string)
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 || strings.ContainsAny(s, " \t") {
		return fmt.Errorf("%q is not a valid email address", s)
	}
	return nil
}

func validMobile(v any) error {
	s := v.(string)
	if len(s) < 7 || len(s) > 15 {
		return fmt.Errorf("must be 7 to 15 digits")
	}
	for i, r := range s {
		if r == '+' && i == 0 {
			continue
		}
		if r < '0' || r > '9' {
			return fmt.Errorf("must contain only digits")
		}
	}
	return nil
}

func validRole(v any) error {
	name := v.(string)
	for _, role := range auth.BuiltinRoles {
		if role.Name == name {
			return nil
		}
	}
	return fmt.Errorf("unknown role %q", name)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

package campus

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus.org/internal/resource"
)

func testClock() time.Time {
	return time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
}

type graph struct {
	reg *Registry

	admin, teacher, studentA, studentB string
	course, class, schedule            string
	sessionA, sessionB                 string
}

// seedGraph builds a full entity graph on in-memory stores: one course, one
// class with a teacher and two students, one schedule and one attendance
// session per student.
func seedGraph(t *testing.T) *graph {
	t.Helper()
	reg := NewRegistry(NewMemStores(), WithClock(testClock))
	ctx := context.Background()
	g := &graph{reg: reg}

	mustCreate := func(eng interface {
		Create(context.Context, resource.Record) (resource.Record, error)
	}, in resource.Record) string {
		t.Helper()
		rec, err := eng.Create(ctx, in)
		if err != nil {
			t.Fatalf("create %v: %v", in, err)
		}
		return rec["uuid"].(string)
	}
	account := func(email, mobile, role string) string {
		return mustCreate(reg.Accounts, resource.Record{
			"email":    email,
			"password": "correct-horse",
			"role":     role,
			"mobile":   mobile,
		})
	}

	g.admin = account("admin@campus.org", "70010001", "admin")
	g.teacher = account("teacher@campus.org", "70010002", "teacher")
	g.studentA = account("alice@campus.org", "70010003", "student")
	g.studentB = account("bob@campus.org", "70010004", "student")

	g.course = mustCreate(reg.Courses, resource.Record{
		"name":     "Go Programming",
		"duration": float64(12),
		"tags":     []any{"Backend", "go"},
	})
	g.class = mustCreate(reg.Classes, resource.Record{
		"course":   g.course,
		"name":     "GO-101",
		"teacher":  g.teacher,
		"students": []any{g.studentA, g.studentB},
		"status":   "active",
	})
	g.schedule = mustCreate(reg.Schedules, resource.Record{
		"class":      g.class,
		"time_start": float64(1756710000),
		"time_end":   float64(1756717200),
	})
	g.sessionA = mustCreate(reg.Sessions, resource.Record{
		"schedule": g.schedule,
		"student":  g.studentA,
		"attended": true,
	})
	g.sessionB = mustCreate(reg.Sessions, resource.Record{
		"schedule": g.schedule,
		"student":  g.studentB,
	})
	return g
}

func TestRelationsRequireExistingTargets(t *testing.T) {
	g := seedGraph(t)
	ctx := context.Background()

	phantom := "99999999-9999-4999-8999-999999999999"
	_, err := g.reg.Classes.Create(ctx, resource.Record{
		"course": phantom,
		"name":   "GO-102",
		"status": "active",
	})
	fe, ok := resource.AsFieldErrors(err)
	if !ok || fe["course"] == "" {
		t.Fatalf("expected course lookup error, got %v", err)
	}

	_, err = g.reg.Classes.Create(ctx, resource.Record{
		"course":   g.course,
		"name":     "GO-102",
		"status":   "active",
		"students": []any{g.studentA, phantom},
	})
	fe, ok = resource.AsFieldErrors(err)
	if !ok || fe["students"] == "" {
		t.Fatalf("expected roster lookup error, got %v", err)
	}
}

func TestSessionUniquePerScheduleStudent(t *testing.T) {
	g := seedGraph(t)

	_, err := g.reg.Sessions.Create(context.Background(), resource.Record{
		"schedule": g.schedule,
		"student":  g.studentA,
	})
	fe, ok := resource.AsFieldErrors(err)
	if !ok {
		t.Fatalf("expected field errors, got %v", err)
	}
	if fe["student"] != "Already exists for this schedule." {
		t.Fatalf("student: %q", fe["student"])
	}
}

func TestScheduleWindowOrdering(t *testing.T) {
	g := seedGraph(t)

	_, err := g.reg.Schedules.Create(context.Background(), resource.Record{
		"class":      g.class,
		"time_start": float64(200),
		"time_end":   float64(100),
	})
	fe, ok := resource.AsFieldErrors(err)
	if !ok || fe["time_end"] != "Must be after time_start." {
		t.Fatalf("expected window error, got %v", err)
	}
}

func TestCourseDeleteCascades(t *testing.T) {
	g := seedGraph(t)
	ctx := context.Background()

	if err := g.reg.Courses.Delete(ctx, g.course); err != nil {
		t.Fatalf("Delete course: %v", err)
	}
	for _, probe := range []struct {
		name string
		eng  resource.Resource
		id   string
	}{
		{"class", g.reg.Classes, g.class},
		{"schedule", g.reg.Schedules, g.schedule},
		{"session a", g.reg.Sessions, g.sessionA},
		{"session b", g.reg.Sessions, g.sessionB},
	} {
		if _, err := probe.eng.Get(ctx, probe.id, nil); !errors.Is(err, resource.ErrNotFound) {
			t.Fatalf("%s survived the cascade: %v", probe.name, err)
		}
	}
	// Accounts are untouched.
	if _, err := g.reg.Accounts.Get(ctx, g.studentA, nil); err != nil {
		t.Fatalf("student account: %v", err)
	}
}

func TestScheduleDeleteRemovesSessionsOnly(t *testing.T) {
	g := seedGraph(t)
	ctx := context.Background()

	if err := g.reg.Schedules.Delete(ctx, g.schedule); err != nil {
		t.Fatalf("Delete schedule: %v", err)
	}
	if _, err := g.reg.Sessions.Get(ctx, g.sessionA, nil); !errors.Is(err, resource.ErrNotFound) {
		t.Fatalf("session survived: %v", err)
	}
	if _, err := g.reg.Classes.Get(ctx, g.class, nil); err != nil {
		t.Fatalf("class must survive a schedule delete: %v", err)
	}
}

func TestAccountDeleteDetaches(t *testing.T) {
	g := seedGraph(t)
	ctx := context.Background()

	if err := g.reg.Accounts.Delete(ctx, g.studentA); err != nil {
		t.Fatalf("Delete student: %v", err)
	}
	if _, err := g.reg.Sessions.Get(ctx, g.sessionA, nil); !errors.Is(err, resource.ErrNotFound) {
		t.Fatalf("student's session survived: %v", err)
	}
	if _, err := g.reg.Sessions.Get(ctx, g.sessionB, nil); err != nil {
		t.Fatalf("other student's session: %v", err)
	}

	class, err := g.reg.Classes.Get(ctx, g.class, nil)
	if err != nil {
		t.Fatalf("Get class: %v", err)
	}
	students := class["students"].([]string)
	if len(students) != 1 || students[0] != g.studentB {
		t.Fatalf("roster after detach: %v", students)
	}

	if err := g.reg.Accounts.Delete(ctx, g.teacher); err != nil {
		t.Fatalf("Delete teacher: %v", err)
	}
	class, err = g.reg.Classes.Get(ctx, g.class, nil)
	if err != nil {
		t.Fatalf("Get class: %v", err)
	}
	if class["teacher"] != "" {
		t.Fatalf("teacher slot after detach: %v", class["teacher"])
	}
}

func TestCalendarValidation(t *testing.T) {
	g := seedGraph(t)
	ctx := context.Background()

	phantom := "99999999-9999-4999-8999-999999999999"
	_, err := g.reg.Calendars.Create(ctx, resource.Record{
		"user":       phantom,
		"name":       "Parent meeting",
		"time_start": float64(1756712000),
		"time_end":   float64(1756715600),
	})
	fe, ok := resource.AsFieldErrors(err)
	if !ok || fe["user"] == "" {
		t.Fatalf("expected user lookup error, got %v", err)
	}

	_, err = g.reg.Calendars.Create(ctx, resource.Record{
		"user":       g.admin,
		"name":       "Parent meeting",
		"time_start": float64(200),
		"time_end":   float64(100),
	})
	fe, ok = resource.AsFieldErrors(err)
	if !ok || fe["time_end"] != "Must be after time_start." {
		t.Fatalf("expected window error, got %v", err)
	}
}

func TestAccountDeleteRemovesCalendars(t *testing.T) {
	g := seedGraph(t)
	ctx := context.Background()

	entry := func(user, name string) string {
		t.Helper()
		rec, err := g.reg.Calendars.Create(ctx, resource.Record{
			"user":       user,
			"name":       name,
			"time_start": float64(1756712000),
			"time_end":   float64(1756715600),
		})
		if err != nil {
			t.Fatalf("create calendar %s: %v", name, err)
		}
		return rec["uuid"].(string)
	}
	teachers := entry(g.teacher, "Office hours")
	admins := entry(g.admin, "Board review")

	if err := g.reg.Accounts.Delete(ctx, g.teacher); err != nil {
		t.Fatalf("Delete teacher: %v", err)
	}
	if _, err := g.reg.Calendars.Get(ctx, teachers, nil); !errors.Is(err, resource.ErrNotFound) {
		t.Fatalf("teacher's calendar survived: %v", err)
	}
	if _, err := g.reg.Calendars.Get(ctx, admins, nil); err != nil {
		t.Fatalf("admin's calendar: %v", err)
	}

	// The per-user reverse lookup only sees the surviving entry.
	mine, err := g.reg.Calendars.List(ctx, resource.Filter{"user": g.admin}, nil)
	if err != nil {
		t.Fatalf("List by user: %v", err)
	}
	if len(mine) != 1 || mine[0]["name"] != "Board review" {
		t.Fatalf("admin's entries: %v", mine)
	}
}

func TestTagUsageAndSuggest(t *testing.T) {
	g := seedGraph(t)
	ctx := context.Background()

	for name, tags := range map[string][]any{
		"Databases": {"go", "sql"},
		"Frontend":  {"javascript"},
	} {
		if _, err := g.reg.Courses.Create(ctx, resource.Record{
			"name": name, "duration": float64(8), "tags": tags,
		}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	usage, err := g.reg.TagUsage(ctx, 0)
	if err != nil {
		t.Fatalf("TagUsage: %v", err)
	}
	want := []TagCount{
		{Name: "go", Count: 2},
		{Name: "backend", Count: 1},
		{Name: "javascript", Count: 1},
		{Name: "sql", Count: 1},
	}
	if len(usage) != len(want) {
		t.Fatalf("usage = %v", usage)
	}
	for i, tc := range want {
		if usage[i] != tc {
			t.Fatalf("usage[%d] = %v, want %v", i, usage[i], tc)
		}
	}

	top, err := g.reg.TagUsage(ctx, 2)
	if err != nil {
		t.Fatalf("TagUsage limit: %v", err)
	}
	if len(top) != 2 || top[0].Name != "go" {
		t.Fatalf("top = %v", top)
	}

	names, err := g.reg.SuggestTags(ctx, "ja")
	if err != nil {
		t.Fatalf("SuggestTags: %v", err)
	}
	if len(names) != 1 || names[0] != "javascript" {
		t.Fatalf("names = %v", names)
	}
	if names, _ = g.reg.SuggestTags(ctx, ""); len(names) != 0 {
		t.Fatalf("empty txt must suggest nothing, got %v", names)
	}
}

func TestAccountEmailConflict(t *testing.T) {
	g := seedGraph(t)

	_, err := g.reg.Accounts.Create(context.Background(), resource.Record{
		"email":    "Alice@Campus.org",
		"password": "correct-horse",
		"role":     "student",
		"mobile":   "70010099",
	})
	fe, ok := resource.AsFieldErrors(err)
	if !ok {
		t.Fatalf("expected field errors, got %v", err)
	}
	if fe["email"] != "Already exists." {
		t.Fatalf("email: %q", fe["email"])
	}
}

func TestAccountStoreLookupByEmail(t *testing.T) {
	g := seedGraph(t)
	stores := g.reg.stores

	acc, err := stores.Accounts.FindByEmail(context.Background(), "ALICE@campus.org")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if acc.PublicID != g.studentA {
		t.Fatalf("wrong account: %s", acc.PublicID)
	}
	if _, err := stores.Accounts.FindByEmail(context.Background(), "ghost@campus.org"); !errors.Is(err, resource.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

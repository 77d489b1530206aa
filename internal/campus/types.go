package campus

import (
	"slices"

	"campus.org/internal/auth"
	"campus.org/internal/resource"
)

// Course is a subject offered by the organization.
type Course struct {
	resource.Meta
	Name     string
	Desc     string
	Tags     []string
	Duration int
}

// Class is a running instance of a course with a roster. Teacher and
// students hold account public identifiers; the roster is an explicit
// identifier set, not nested representations.
type Class struct {
	resource.Meta
	Course   string
	Name     string
	Teacher  string
	Students []string
	Status   string
	Desc     string
}

// Schedule is one meeting window of a class, in unix seconds.
type Schedule struct {
	resource.Meta
	Class     string
	TimeStart int
	TimeEnd   int
	Desc      string
}

// Calendar is one personal planning entry pinned to an account, in unix
// seconds. Staff use these for appointments outside the class schedule.
type Calendar struct {
	resource.Meta
	User      string
	Name      string
	TimeStart int
	TimeEnd   int
	Desc      string
}

// Session records one student's attendance and homework for a schedule.
// Homework and Attended stay nil until somebody fills them in.
type Session struct {
	resource.Meta
	Schedule string
	Student  string
	Homework *int
	Attended *bool
	Desc     string
}

func copyCourse(c *Course) *Course {
	d := *c
	d.Tags = slices.Clone(c.Tags)
	return &d
}

func copyClass(c *Class) *Class {
	d := *c
	d.Students = slices.Clone(c.Students)
	return &d
}

func copySchedule(s *Schedule) *Schedule {
	d := *s
	return &d
}

func copyCalendar(c *Calendar) *Calendar {
	d := *c
	return &d
}

func copySession(s *Session) *Session {
	d := *s
	if s.Homework != nil {
		hw := *s.Homework
		d.Homework = &hw
	}
	if s.Attended != nil {
		at := *s.Attended
		d.Attended = &at
	}
	return &d
}

func copyAccount(a *auth.Account) *auth.Account {
	d := *a
	if a.BirthDate != nil {
		bd := *a.BirthDate
		d.BirthDate = &bd
	}
	return &d
}

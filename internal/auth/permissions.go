package auth

// Permission keys. Every mutating resource endpoint is gated on one of the
// manage permissions; grade_students additionally gates homework scoring.
const (
	PermManageAccounts  = "account.manage"
	PermManageCourses   = "course.manage"
	PermManageClasses   = "class.manage"
	PermManageSchedules = "schedule.manage"
	PermManageSessions  = "session.manage"
	PermManageCalendars = "calendar.manage"
	PermGradeStudents   = "grade_students"
)

// BuiltinRoles is the fixed role catalog. Role membership is the only thing
// stored per account; permission sets live here, so adding a role is a
// deploy, not a data change.
var BuiltinRoles = []Role{
	NewRole("admin",
		PermManageAccounts, PermManageCourses, PermManageClasses,
		PermManageSchedules, PermManageSessions, PermManageCalendars,
		PermGradeStudents),
	NewRole("staff",
		PermManageAccounts, PermManageCourses, PermManageClasses,
		PermManageSchedules, PermManageSessions, PermManageCalendars),
	NewRole("teacher",
		PermGradeStudents, PermManageSessions),
	NewRole("student"),
}

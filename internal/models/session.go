package models

import "time"

// Session is the resolved identity for one request. The gate builds it once at the route
// boundary after checking role membership and hands it to services explicitly.
type Session struct {
	PrincipalID string
	Email       string
	FullName    string
	Role        Role
	TokenID     string
	ExpiresAt   time.Time
}

// Is reports whether the session was granted for role.
func (s *Session) Is(role Role) bool {
	return s != nil && s.Role == role
}

// Navigation targets sent back alongside notices.
const (
	RouteLanding          = "/"
	RouteTeacherLogin     = "/teacher-login"
	RouteStudentLogin     = "/student-login"
	RouteTeacherSetup     = "/teacher/setup"
	RouteTeacherDashboard = "/teacher/dashboard"
	RouteStudentDashboard = "/student-dashboard"
)

// LoginRoute is where a principal without a session for role is sent.
func LoginRoute(role Role) string {
	if role == RoleStudent {
		return RouteStudentLogin
	}
	return RouteTeacherLogin
}

// HomeRoute is the landing page after a successful login for role.
func HomeRoute(role Role) string {
	if role == RoleStudent {
		return RouteStudentDashboard
	}
	return RouteTeacherSetup
}

// Other returns the counterpart role.
func (r Role) Other() Role {
	if r == RoleStudent {
		return RoleTeacher
	}
	return RoleStudent
}

package auth

import "strings"

// UserRole is the user's role
type UserRole string

const (
	// RoleCandidate applies to job applicants
	RoleCandidate UserRole = "candidate"
	// RoleAdmin manages the whole platform
	RoleAdmin UserRole = "admin"
	// RoleRecruiter manages requisitions and pipelines
	RoleRecruiter UserRole = "recruiter"
	// RoleHiringManager reviews candidates for their teams
	RoleHiringManager UserRole = "hiring_manager"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleCandidate, RoleAdmin, RoleRecruiter, RoleHiringManager:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleCandidate,
		RoleAdmin,
		RoleRecruiter,
		RoleHiringManager,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(roleStr)))
	return role, role.IsValid()
}

const (
	// EnrollmentPath is where candidates land until onboarding is done.
	EnrollmentPath = "/enrollment"
	// DefaultDashboardPath is used for roles without a mapping.
	DefaultDashboardPath = "/dashboard"
	// APIPathPrefix is stripped from redirect targets.
	APIPathPrefix = "/api"
)

// DashboardRoutes maps a role to its landing path.
type DashboardRoutes map[UserRole]string

// DefaultDashboardRoutes returns the stock role to dashboard mapping.
func DefaultDashboardRoutes() DashboardRoutes {
	return DashboardRoutes{
		RoleCandidate:     "/dashboard",
		RoleAdmin:         "/api/admin/dashboard",
		RoleRecruiter:     "/api/admin/dashboard",
		RoleHiringManager: "/api/admin/dashboard",
	}
}

// Resolve returns the post sign-in redirect path for the user.
// Candidates with pending enrollment always go to EnrollmentPath.
func (d DashboardRoutes) Resolve(user *User) string {
	if user == nil {
		return DefaultDashboardPath
	}

	target := DefaultDashboardPath
	if user.NeedsEnrollment() {
		target = EnrollmentPath
	} else if path, ok := d[user.Role]; ok && strings.TrimSpace(path) != "" {
		target = path
	}

	return StripAPIPrefix(target)
}

// StripAPIPrefix removes a leading API segment and guarantees a relative path.
func StripAPIPrefix(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultDashboardPath
	}

	if strings.Contains(path, "://") || strings.HasPrefix(path, "//") {
		return DefaultDashboardPath
	}

	if path == APIPathPrefix {
		return "/"
	}

	if strings.HasPrefix(path, APIPathPrefix+"/") {
		path = strings.TrimPrefix(path, APIPathPrefix)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return path
}

// Package nav defines the static role-to-route permission table that gates
// every protected surface of the API. The table is the single source of
// truth: a route is reachable for a role iff it appears here for that role.
package nav

import (
	"github.com/emedica/emedica-api/internal/domain"
)

type Item struct {
	Route string        `json:"route"`
	Label string        `json:"label"`
	Roles []domain.Role `json:"-"`
}

// items mirrors the dashboard sidebar: one entry per navigable page, tagged
// with the roles allowed to reach it.
var items = []Item{
	{Route: "/", Label: "Dashboard", Roles: []domain.Role{domain.RolePatient, domain.RoleDoctor, domain.RoleAdmin, domain.RoleSuperAdmin, domain.RoleTrainee}},

	// Patient
	{Route: "/appointments", Label: "My Appointments", Roles: []domain.Role{domain.RolePatient}},
	{Route: "/medical-records", Label: "Medical Records", Roles: []domain.Role{domain.RolePatient}},
	{Route: "/prescriptions", Label: "Prescriptions", Roles: []domain.Role{domain.RolePatient}},

	// Doctor
	{Route: "/patients", Label: "My Patients", Roles: []domain.Role{domain.RoleDoctor}},
	{Route: "/schedule", Label: "Schedule", Roles: []domain.Role{domain.RoleDoctor}},
	{Route: "/consultations", Label: "Consultations", Roles: []domain.Role{domain.RoleDoctor}},

	// Trainee
	{Route: "/assigned-patients", Label: "Assigned Patients", Roles: []domain.Role{domain.RoleTrainee}},
	{Route: "/learning", Label: "Learning Cases", Roles: []domain.Role{domain.RoleTrainee}},
	{Route: "/supervisor-reports", Label: "Supervisor Reports", Roles: []domain.Role{domain.RoleTrainee, domain.RoleAdmin, domain.RoleSuperAdmin}},

	// Admin
	{Route: "/staff-management", Label: "Staff Management", Roles: []domain.Role{domain.RoleAdmin}},
	{Route: "/hospital-analytics", Label: "Hospital Analytics", Roles: []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin}},
	{Route: "/hospital-resources", Label: "Hospital Resources", Roles: []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin}},
	{Route: "/appointment-management", Label: "Appointments", Roles: []domain.Role{domain.RoleAdmin}},

	// Super admin
	{Route: "/overview", Label: "System Overview", Roles: []domain.Role{domain.RoleSuperAdmin}},
	{Route: "/user-management", Label: "User Management", Roles: []domain.Role{domain.RoleSuperAdmin}},
	{Route: "/system-settings", Label: "System Settings", Roles: []domain.Role{domain.RoleSuperAdmin}},
	{Route: "/security", Label: "Security", Roles: []domain.Role{domain.RoleSuperAdmin}},
	{Route: "/hospital-map", Label: "Hospital Map", Roles: []domain.Role{domain.RoleSuperAdmin}},
}

// ItemsFor returns the navigation entries visible to a role, in menu order.
func ItemsFor(role domain.Role) []Item {
	var out []Item
	for _, it := range items {
		for _, r := range it.Roles {
			if r == role {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// RoutesFor returns the exact permitted route set for a role.
func RoutesFor(role domain.Role) []string {
	its := ItemsFor(role)
	routes := make([]string, 0, len(its))
	for _, it := range its {
		routes = append(routes, it.Route)
	}
	return routes
}

// CanAccess reports whether a role may reach a route. Unknown routes and
// unknown roles are both denied.
func CanAccess(role domain.Role, route string) bool {
	for _, it := range items {
		if it.Route != route {
			continue
		}
		for _, r := range it.Roles {
			if r == role {
				return true
			}
		}
		return false
	}
	return false
}

// DashboardFor selects the dashboard variant for a role. An unrecognized
// role is an error, never a silent fallback to a privileged view.
func DashboardFor(role domain.Role) (string, error) {
	switch role {
	case domain.RolePatient:
		return "patient", nil
	case domain.RoleDoctor:
		return "doctor", nil
	case domain.RoleAdmin:
		return "admin", nil
	case domain.RoleSuperAdmin:
		return "superadmin", nil
	case domain.RoleTrainee:
		return "trainee", nil
	default:
		return "", ErrUnknownRole
	}
}

package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emedica/emedica-api/internal/domain"
)

func TestRoutesFor(t *testing.T) {
	tests := []struct {
		role   domain.Role
		routes []string
	}{
		{
			role:   domain.RolePatient,
			routes: []string{"/", "/appointments", "/medical-records", "/prescriptions"},
		},
		{
			role:   domain.RoleDoctor,
			routes: []string{"/", "/patients", "/schedule", "/consultations"},
		},
		{
			role:   domain.RoleTrainee,
			routes: []string{"/", "/assigned-patients", "/learning", "/supervisor-reports"},
		},
		{
			role: domain.RoleAdmin,
			routes: []string{
				"/", "/supervisor-reports", "/staff-management",
				"/hospital-analytics", "/hospital-resources", "/appointment-management",
			},
		},
		{
			role: domain.RoleSuperAdmin,
			routes: []string{
				"/", "/supervisor-reports", "/hospital-analytics", "/hospital-resources",
				"/overview", "/user-management", "/system-settings", "/security", "/hospital-map",
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.routes, RoutesFor(tt.role))
		})
	}
}

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name    string
		role    domain.Role
		route   string
		allowed bool
	}{
		{"every role reaches the dashboard", domain.RolePatient, "/", true},
		{"patient reads own medical records", domain.RolePatient, "/medical-records", true},
		{"patient cannot reach staff management", domain.RolePatient, "/staff-management", false},
		{"doctor cannot reach staff management", domain.RoleDoctor, "/staff-management", false},
		{"doctor cannot reach user management", domain.RoleDoctor, "/user-management", false},
		{"trainee shares supervisor reports with admins", domain.RoleTrainee, "/supervisor-reports", true},
		{"admin shares supervisor reports with trainees", domain.RoleAdmin, "/supervisor-reports", true},
		{"admin cannot reach superadmin system settings", domain.RoleAdmin, "/system-settings", false},
		{"superadmin sees hospital analytics", domain.RoleSuperAdmin, "/hospital-analytics", true},
		{"superadmin does not inherit admin staff management", domain.RoleSuperAdmin, "/staff-management", false},
		{"unknown route denied", domain.RoleSuperAdmin, "/not-a-page", false},
		{"unknown role denied everywhere", domain.Role("intruder"), "/", false},
		{"empty role denied", domain.Role(""), "/appointments", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanAccess(tt.role, tt.route))
		})
	}
}

func TestDashboardFor(t *testing.T) {
	for _, role := range domain.Roles() {
		dash, err := DashboardFor(role)
		require.NoError(t, err)
		assert.Equal(t, string(role), dash)
	}
}

func TestDashboardForUnknownRoleIsError(t *testing.T) {
	for _, role := range []domain.Role{"", "root", "Doctor", "PATIENT"} {
		dash, err := DashboardFor(role)
		assert.ErrorIs(t, err, ErrUnknownRole, "role %q", role)
		assert.Empty(t, dash)
	}
}

func TestItemsForPreservesMenuOrder(t *testing.T) {
	its := ItemsFor(domain.RolePatient)
	require.Len(t, its, 4)
	assert.Equal(t, "Dashboard", its[0].Label)
	assert.Equal(t, "My Appointments", its[1].Label)
}

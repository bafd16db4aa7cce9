package directory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emedica/emedica-api/internal/domain"
)

// User is an identity directory record. The directory is the single source
// for login matching: email for the password flow, phone for the OTP flow.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Name         string      `gorm:"column:name;type:varchar(200);not null"`
	Email        string      `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Phone        string      `gorm:"column:phone;type:varchar(20);uniqueIndex"`
	PasswordHash string      `gorm:"column:password_hash;type:varchar(255);not null"`
	Role         domain.Role `gorm:"column:role;type:varchar(30);not null;index"`

	// Profile attributes; populated per role.
	Specialization   string     `gorm:"column:specialization;type:varchar(100)"`
	Department       string     `gorm:"column:department;type:varchar(100)"`
	Address          string     `gorm:"column:address;type:text"`
	DateOfBirth      *time.Time `gorm:"column:date_of_birth"`
	EmergencyContact string     `gorm:"column:emergency_contact;type:varchar(200)"`
	LicenseNumber    string     `gorm:"column:license_number;type:varchar(50)"`

	// For trainees, the supervising doctor.
	SupervisorID *uuid.UUID `gorm:"column:supervisor_id;type:uuid;index"`

	IsActive    bool       `gorm:"column:is_active;default:true;index"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
}

func (User) TableName() string {
	return "identity.users"
}

// Public returns the wire representation without credential material.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		Role:           u.Role,
		Specialization: u.Specialization,
		Department:     u.Department,
		LicenseNumber:  u.LicenseNumber,
		SupervisorID:   u.SupervisorID,
	}
}

type PublicUser struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone,omitempty"`
	Role           domain.Role `json:"role"`
	Specialization string      `json:"specialization,omitempty"`
	Department     string      `json:"department,omitempty"`
	LicenseNumber  string      `json:"license_number,omitempty"`
	SupervisorID   *uuid.UUID  `json:"supervisor_id,omitempty"`
}

type CreateUserCommand struct {
	Name           string
	Email          string
	Phone          string
	Password       string
	Role           domain.Role
	Specialization string
	Department     string
	SupervisorID   *uuid.UUID
	CreatedBy      uuid.UUID
}

// ListUsersQuery filters the directory for the management pages.
// Search matches name and email case-insensitively.
type ListUsersQuery struct {
	Search   string
	Role     *domain.Role
	Page     int
	PageSize int
}

type PagedUsers struct {
	Users      []*User
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}

// NormalizeEmail canonicalizes an email for lookup and uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips everything except digits so directory lookups accept
// formatted input ("+1 (555) 123-4567" and "15551234567" match).
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

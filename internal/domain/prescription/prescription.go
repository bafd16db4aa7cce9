package prescription

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Prescription struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	PrescribedBy string `gorm:"column:prescribed_by;type:varchar(200)"`

	Medication string `gorm:"column:medication;type:varchar(255);not null;index"`
	Dosage     string `gorm:"column:dosage;type:varchar(50);not null"`     // e.g. "10mg"
	Frequency  string `gorm:"column:frequency;type:varchar(100);not null"` // e.g. "Once daily"
	Duration   string `gorm:"column:duration;type:varchar(100)"`           // e.g. "30 days"

	PrescribedDate time.Time  `gorm:"column:prescribed_date;not null;index"`
	StartDate      *time.Time `gorm:"column:start_date"`
	EndDate        *time.Time `gorm:"column:end_date"`

	Status           Status `gorm:"column:status;type:varchar(30);not null;default:'active';index"`
	RefillsRemaining int    `gorm:"column:refills_remaining;default:0"`

	Instructions string `gorm:"column:instructions;type:text"`
	SideEffects  string `gorm:"column:side_effects;type:text"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Prescription) TableName() string {
	return "clinical.prescriptions"
}

func (p *Prescription) IsRefillable() bool {
	return p.Status == StatusActive && p.RefillsRemaining > 0
}

func (p *Prescription) Refill() error {
	if !p.IsRefillable() {
		return ErrNotRefillable
	}
	p.RefillsRemaining--
	if p.RefillsRemaining == 0 {
		p.Status = StatusCompleted
	}
	return nil
}

// MatchesSearch applies the prescriptions page filter: case-insensitive
// substring match on medication and prescriber.
func (p *Prescription) MatchesSearch(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(p.Medication), q) ||
		strings.Contains(strings.ToLower(p.PrescribedBy), q)
}

type CreatePrescriptionCommand struct {
	PatientID        uuid.UUID
	DoctorID         uuid.UUID
	Medication       string
	Dosage           string
	Frequency        string
	Duration         string
	PrescribedDate   time.Time
	StartDate        *time.Time
	EndDate          *time.Time
	RefillsRemaining int
	Instructions     string
	SideEffects      string
	CreatedBy        uuid.UUID
}

type ListPrescriptionsQuery struct {
	Search    string
	Status    *Status
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Page      int
	PageSize  int
}

type PagedPrescriptions struct {
	Prescriptions []*Prescription
	TotalCount    int64
	Page          int
	PageSize      int
	TotalPages    int
}

package record

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MedicalRecord is append-only: once written it is never edited or deleted.
type MedicalRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	DoctorName string `gorm:"column:doctor_name;type:varchar(200)"`

	VisitDate    time.Time `gorm:"column:visit_date;not null;index"`
	Diagnosis    string    `gorm:"column:diagnosis;type:text;not null"`
	Treatment    string    `gorm:"column:treatment;type:text"`
	Prescription string    `gorm:"column:prescription;type:text"`
	Notes        string    `gorm:"column:notes;type:text"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (MedicalRecord) TableName() string {
	return "clinical.medical_records"
}

// MatchesSearch applies the records page filter: case-insensitive substring
// match on diagnosis, treatment and doctor name.
func (r *MedicalRecord) MatchesSearch(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(r.Diagnosis), q) ||
		strings.Contains(strings.ToLower(r.Treatment), q) ||
		strings.Contains(strings.ToLower(r.DoctorName), q)
}

type CreateRecordCommand struct {
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	VisitDate    time.Time
	Diagnosis    string
	Treatment    string
	Prescription string
	Notes        string
	CreatedBy    uuid.UUID
}

type ListRecordsQuery struct {
	Search    string
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedRecords struct {
	Records    []*MedicalRecord
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}

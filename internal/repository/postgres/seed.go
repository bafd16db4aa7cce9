package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/appointment"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/prescription"
	"github.com/emedica/emedica-api/internal/domain/record"
)

// demoPassword is the shared credential for the five demo accounts. Demo
// environments only; SeedDemoData is rejected in production config.
const demoPassword = "password"

type seedUser struct {
	Name           string
	Email          string
	Phone          string
	Role           domain.Role
	Specialization string
	Department     string
	Address        string
	LicenseNumber  string
	Supervisor     string // email of supervising doctor, resolved after insert
}

var seedUsers = []seedUser{
	{
		Name:           "Dr. Kavita Joshi",
		Email:          "doctor@hospital.com",
		Phone:          "9999999991",
		Role:           domain.RoleDoctor,
		Specialization: "Cardiology",
		Department:     "Internal Medicine",
		LicenseNumber:  "MD123456",
	},
	{
		Name:    "Suresh Nair",
		Email:   "patient@email.com",
		Phone:   "9999999992",
		Role:    domain.RolePatient,
		Address: "123 Main St, City, State 12345",
	},
	{
		Name:       "Manoj Gupta",
		Email:      "admin@hospital.com",
		Phone:      "9999999993",
		Role:       domain.RoleAdmin,
		Department: "Administration",
	},
	{
		Name:  "Pooja Desai",
		Email: "superadmin@hospital.com",
		Phone: "9999999994",
		Role:  domain.RoleSuperAdmin,
	},
	{
		Name:           "Dr. Asha Menon",
		Email:          "trainee@hospital.com",
		Phone:          "9999999995",
		Role:           domain.RoleTrainee,
		Specialization: "Internal Medicine",
		Department:     "Internal Medicine",
		Supervisor:     "doctor@hospital.com",
	},
}

// SeedDemoData inserts the demo identity directory and a small set of
// clinical rows the dashboard pages render. Idempotent: existing users are
// left untouched and clinical rows are only written on first run.
func SeedDemoData(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}

	byEmail := make(map[string]*directory.User, len(seedUsers))
	created := false

	for _, su := range seedUsers {
		var existing directory.User
		err := db.WithContext(ctx).
			Where("lower(email) = ?", directory.NormalizeEmail(su.Email)).
			First(&existing).Error
		if err == nil {
			byEmail[su.Email] = &existing
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("checking seed user %s: %w", su.Email, err)
		}

		u := &directory.User{
			Name:           su.Name,
			Email:          directory.NormalizeEmail(su.Email),
			Phone:          su.Phone,
			PasswordHash:   string(hash),
			Role:           su.Role,
			Specialization: su.Specialization,
			Department:     su.Department,
			Address:        su.Address,
			LicenseNumber:  su.LicenseNumber,
			IsActive:       true,
		}
		if err := db.WithContext(ctx).Create(u).Error; err != nil {
			return fmt.Errorf("seeding user %s: %w", su.Email, err)
		}
		byEmail[su.Email] = u
		created = true
	}

	// Resolve supervisor links once every user exists.
	for _, su := range seedUsers {
		if su.Supervisor == "" {
			continue
		}
		trainee, supervisor := byEmail[su.Email], byEmail[su.Supervisor]
		if trainee.SupervisorID == nil {
			if err := db.WithContext(ctx).Model(trainee).
				Update("supervisor_id", supervisor.ID).Error; err != nil {
				return fmt.Errorf("linking supervisor for %s: %w", su.Email, err)
			}
		}
	}

	if !created {
		return nil
	}

	doctor := byEmail["doctor@hospital.com"]
	patient := byEmail["patient@email.com"]

	now := time.Now()
	appts := []*appointment.Appointment{
		{
			PatientID: patient.ID, DoctorID: doctor.ID,
			PatientName: patient.Name, DoctorName: doctor.Name,
			ScheduledAt: now.Add(72 * time.Hour),
			Type:        "Consultation", Status: appointment.StatusScheduled,
			Reason: "Chest pain follow-up", CreatedBy: doctor.ID,
		},
		{
			PatientID: patient.ID, DoctorID: doctor.ID,
			PatientName: patient.Name, DoctorName: doctor.Name,
			ScheduledAt: now.Add(-14 * 24 * time.Hour),
			Type:        "Routine Checkup", Status: appointment.StatusCompleted,
			Reason: "Annual physical", CreatedBy: doctor.ID,
		},
	}
	for _, a := range appts {
		if err := db.WithContext(ctx).Create(a).Error; err != nil {
			return fmt.Errorf("seeding appointment: %w", err)
		}
	}

	recs := []*record.MedicalRecord{
		{
			PatientID: patient.ID, DoctorID: doctor.ID, DoctorName: doctor.Name,
			VisitDate: now.Add(-14 * 24 * time.Hour),
			Diagnosis: "Hypertension, stage 1",
			Treatment: "Lifestyle changes, started on ACE inhibitor",
			Notes:     "Patient to monitor blood pressure at home",
			CreatedBy: doctor.ID,
		},
	}
	for _, rec := range recs {
		if err := db.WithContext(ctx).Create(rec).Error; err != nil {
			return fmt.Errorf("seeding medical record: %w", err)
		}
	}

	start := now.Add(-13 * 24 * time.Hour)
	end := start.Add(30 * 24 * time.Hour)
	scripts := []*prescription.Prescription{
		{
			PatientID: patient.ID, DoctorID: doctor.ID, PrescribedBy: doctor.Name,
			Medication: "Lisinopril", Dosage: "10mg", Frequency: "Once daily",
			Duration:       "30 days",
			PrescribedDate: now.Add(-14 * 24 * time.Hour),
			StartDate:      &start, EndDate: &end,
			Status: prescription.StatusActive, RefillsRemaining: 2,
			Instructions: "Take with water, preferably in the morning. Monitor blood pressure regularly.",
			SideEffects:  "Dizziness, dry cough, fatigue",
			CreatedBy:    doctor.ID,
		},
		{
			PatientID: patient.ID, DoctorID: doctor.ID, PrescribedBy: doctor.Name,
			Medication: "Metformin", Dosage: "500mg", Frequency: "Twice daily",
			Duration:       "90 days",
			PrescribedDate: now.Add(-20 * 24 * time.Hour),
			Status:         prescription.StatusActive, RefillsRemaining: 1,
			Instructions: "Take with meals to reduce stomach upset.",
			CreatedBy:    doctor.ID,
		},
	}
	for _, p := range scripts {
		if err := db.WithContext(ctx).Create(p).Error; err != nil {
			return fmt.Errorf("seeding prescription: %w", err)
		}
	}

	log.Info("demo data seeded",
		zap.Int("users", len(seedUsers)),
		zap.Int("appointments", len(appts)),
		zap.Int("prescriptions", len(scripts)),
	)
	return nil
}

package registry

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/medidesk/clinic-api/internal/cache"
	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/internal/repository"
	"github.com/medidesk/clinic-api/pkg/errors"
	"github.com/medidesk/clinic-api/pkg/metrics"
)

// Service is the receptionist-facing patient registry: registration with
// store-assigned tokens, charge assignment, and the patient list.
type Service struct {
	patients repository.PatientRepository
	cache    *cache.DashboardCache
	metrics  *metrics.Metrics
}

func NewService(patients repository.PatientRepository, dashCache *cache.DashboardCache, m *metrics.Metrics) *Service {
	return &Service{
		patients: patients,
		cache:    dashCache,
		metrics:  m,
	}
}

// Register validates the intake form and persists a new Waiting patient
// with zero charges. The token is assigned by the store at write time, so
// two receptionists registering at once can never collide.
func (s *Service) Register(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	patient := &model.Patient{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(req.Name),
		Age:      req.Age,
		Gender:   req.Gender,
		Contact:  strings.TrimSpace(req.Contact),
		Symptoms: strings.TrimSpace(req.Symptoms),
		Charges:  0,
		Status:   model.StatusWaiting,
	}

	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, errors.Unavailable(err)
	}

	s.cache.InvalidatePatients()
	s.metrics.PatientsRegistered.Inc()
	return patient, nil
}

// SetCharges overwrites the patient's consultation charges. Zero is the
// "not yet set" sentinel and is a valid value, not an error.
func (s *Service) SetCharges(ctx context.Context, patientID uuid.UUID, charges int) (*model.Patient, error) {
	if charges < 0 {
		return nil, errors.Validation("charges must not be negative")
	}

	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, errors.NotFound("patient", err)
	}

	if err := s.patients.UpdateCharges(ctx, patientID, charges); err != nil {
		return nil, errors.Unavailable(err)
	}

	s.cache.InvalidatePatients()

	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, errors.Unavailable(err)
	}
	return patient, nil
}

// List returns all patients ordered by creation time ascending, served
// through the dashboard cache.
func (s *Service) List(ctx context.Context) ([]*model.Patient, error) {
	if patients, ok := s.cache.Patients(); ok {
		return patients, nil
	}

	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	s.cache.SetPatients(patients)
	return patients, nil
}

func (s *Service) Get(ctx context.Context, patientID uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, errors.NotFound("patient", err)
	}
	return patient, nil
}

func (s *Service) Stats(ctx context.Context) (*model.DashboardStats, error) {
	if stats, ok := s.cache.Stats(); ok {
		return stats, nil
	}

	stats, err := s.patients.Stats(ctx)
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	s.cache.SetStats(stats)
	return stats, nil
}

func validateRegistration(req *model.RegisterPatientRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.Validation("name is required")
	}
	if req.Age <= 0 {
		return errors.Validation("age must be a positive integer")
	}
	if strings.TrimSpace(req.Gender) == "" {
		return errors.Validation("gender is required")
	}
	if strings.TrimSpace(req.Contact) == "" {
		return errors.Validation("contact is required")
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		return errors.Validation("symptoms are required")
	}
	return nil
}

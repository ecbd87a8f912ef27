package reader

import (
	"context"

	"github.com/google/uuid"

	"github.com/medidesk/clinic-api/internal/cache"
	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/internal/repository"
	"github.com/medidesk/clinic-api/pkg/errors"
)

// Service is the read side for closed visits and issued prescriptions.
// Both reads are side-effect free and an empty result is a normal answer
// for a new patient, not an error.
type Service struct {
	history       repository.HistoryRepository
	prescriptions repository.PrescriptionRepository
	cache         *cache.DashboardCache
}

func NewService(history repository.HistoryRepository, prescriptions repository.PrescriptionRepository, dashCache *cache.DashboardCache) *Service {
	return &Service{
		history:       history,
		prescriptions: prescriptions,
		cache:         dashCache,
	}
}

// VisitHistory returns the patient's closed visits, most recent first.
func (s *Service) VisitHistory(ctx context.Context, patientID uuid.UUID) ([]*model.HistoryEntry, error) {
	if entries, ok := s.cache.History(patientID); ok {
		return entries, nil
	}

	entries, err := s.history.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, errors.Unavailable(err)
	}
	if entries == nil {
		entries = []*model.HistoryEntry{}
	}

	s.cache.SetHistory(patientID, entries)
	return entries, nil
}

// Prescriptions returns the patient's prescriptions, most recent first.
func (s *Service) Prescriptions(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	if prescriptions, ok := s.cache.Prescriptions(patientID); ok {
		return prescriptions, nil
	}

	prescriptions, err := s.prescriptions.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, errors.Unavailable(err)
	}
	if prescriptions == nil {
		prescriptions = []*model.Prescription{}
	}

	s.cache.SetPrescriptions(patientID, prescriptions)
	return prescriptions, nil
}

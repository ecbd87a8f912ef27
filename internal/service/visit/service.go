package visit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medidesk/clinic-api/internal/cache"
	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/internal/repository"
	"github.com/medidesk/clinic-api/pkg/errors"
	"github.com/medidesk/clinic-api/pkg/logger"
	"github.com/medidesk/clinic-api/pkg/metrics"
)

// Service coordinates the per-visit state machine and the archival
// sequence that closes a visit. The store commits per statement; the three
// archival writes are issued strictly in order and a failure partway is
// surfaced as partial completion, never absorbed.
type Service struct {
	patients      repository.PatientRepository
	prescriptions repository.PrescriptionRepository
	history       repository.HistoryRepository
	cache         *cache.DashboardCache
	metrics       *metrics.Metrics
	logger        *logger.Logger
}

func NewService(
	patients repository.PatientRepository,
	prescriptions repository.PrescriptionRepository,
	history repository.HistoryRepository,
	dashCache *cache.DashboardCache,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		patients:      patients,
		prescriptions: prescriptions,
		history:       history,
		cache:         dashCache,
		metrics:       m,
		logger:        log,
	}
}

// ArchivalResult reports a completed archival to the caller.
type ArchivalResult struct {
	Patient      *model.Patient      `json:"patient"`
	Prescription *model.Prescription `json:"prescription"`
	HistoryEntry *model.HistoryEntry `json:"history_entry"`
}

// StartConsultation moves a Waiting patient into consultation. The status
// is only considered changed once the store acknowledges the write; a
// stale caller whose patient already moved on gets a conflict and no state
// change.
func (s *Service) StartConsultation(ctx context.Context, patientID uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, errors.NotFound("patient", err)
	}

	switch patient.Status {
	case model.StatusWaiting:
		// the only valid source state
	case model.StatusInConsultation:
		return nil, errors.Conflict("consultation already in progress")
	case model.StatusCompleted:
		return nil, errors.Conflict("visit is already completed")
	default:
		return nil, errors.Conflict("patient is not waiting")
	}

	moved, err := s.patients.TransitionStatus(ctx, patientID, model.StatusWaiting, model.StatusInConsultation)
	if err != nil {
		return nil, errors.Unavailable(err)
	}
	if !moved {
		// Lost the race against another transition since the read above.
		return nil, errors.Conflict("patient is no longer waiting")
	}

	s.cache.InvalidatePatients()
	s.metrics.ConsultationsStarted.Inc()

	patient, err = s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, errors.Unavailable(err)
	}
	return patient, nil
}

// RecordPrescription closes the visit: it writes the prescription, then a
// history entry snapshotting the patient's symptoms and charges, then
// flips the status to Completed. The writes are sequential and the status
// flip commits last because Completed is defined as "has an archived
// history entry". A failure after the first write leaves the prescription
// behind; that duplicate is tolerated on retry, the history/status pair is
// the correctness gate.
func (s *Service) RecordPrescription(ctx context.Context, patientID, doctorID uuid.UUID, text string) (*ArchivalResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.Validation("prescription text is required")
	}

	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, errors.NotFound("patient", err)
	}
	if patient.Status == model.StatusWaiting {
		return nil, errors.Conflict("consultation has not been started")
	}

	prescription := &model.Prescription{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Text:      text,
	}
	if err := s.prescriptions.Create(ctx, prescription); err != nil {
		// Nothing committed yet; plain retryable failure.
		return nil, errors.Unavailable(err)
	}

	entry := &model.HistoryEntry{
		ID:           uuid.New(),
		PatientID:    patientID,
		VisitDate:    time.Now(),
		Symptoms:     patient.Symptoms,
		Prescription: text,
		Charges:      patient.Charges,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		// The prescription exists but the visit is not archived; status
		// must stay untouched and the caller must hear about it.
		s.metrics.PartialCompletions.Inc()
		s.logger.Error(err, "history write failed after prescription committed",
			"patient_id", patientID.String(), "prescription_id", prescription.ID.String())
		return nil, errors.PartialCompletion("prescription", err)
	}

	if err := s.patients.MarkCompleted(ctx, patientID); err != nil {
		// History says completed, the patient row disagrees. Surface it
		// for reconciliation.
		s.metrics.PartialCompletions.Inc()
		s.logger.Error(err, "status flip failed after history committed",
			"patient_id", patientID.String(), "history_id", entry.ID.String())
		return nil, errors.PartialCompletion("history", err)
	}

	s.cache.InvalidatePatient(patientID)
	s.metrics.VisitsArchived.Inc()

	patient, err = s.patients.Get(ctx, patientID)
	if err != nil {
		// The archival itself succeeded; report it with the stale row
		// rather than failing the whole operation.
		s.logger.Error(err, "failed to reload patient after archival", "patient_id", patientID.String())
		patient = &model.Patient{ID: patientID, Status: model.StatusCompleted}
	}

	return &ArchivalResult{
		Patient:      patient,
		Prescription: prescription,
		HistoryEntry: entry,
	}, nil
}

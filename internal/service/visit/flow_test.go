package visit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medidesk/clinic-api/internal/cache"
	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/internal/service/reader"
	"github.com/medidesk/clinic-api/internal/service/registry"
	"github.com/medidesk/clinic-api/pkg/logger"
)

// Full visit walkthrough: registration through archival, read back through
// the reader.
func TestVisitLifecycle(t *testing.T) {
	ctx := context.Background()
	patients := newFakePatientRepo()
	prescriptions := &fakePrescriptionRepo{}
	history := &fakeHistoryRepo{}
	dashCache := cache.NewDashboardCache(time.Minute, time.Minute)

	registrySvc := registry.NewService(patients, dashCache, testMetrics)
	visitSvc := NewService(patients, prescriptions, history, dashCache, testMetrics, logger.NewLogger(nil))
	readerSvc := reader.NewService(history, prescriptions, dashCache)

	patient, err := registrySvc.Register(ctx, &model.RegisterPatientRequest{
		Name:     "John Doe",
		Age:      35,
		Gender:   "Male",
		Contact:  "+1234567890",
		Symptoms: "Fever",
	})
	require.NoError(t, err)
	assert.Equal(t, "T001", patient.Token)
	assert.Equal(t, model.StatusWaiting, patient.Status)
	assert.Equal(t, 0, patient.Charges)

	// A brand-new patient has no history and that is not an error.
	entries, err := readerSvc.VisitHistory(ctx, patient.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	inConsultation, err := visitSvc.StartConsultation(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInConsultation, inConsultation.Status)

	doctorID := uuid.New()
	result, err := visitSvc.RecordPrescription(ctx, patient.ID, doctorID, "Paracetamol 500mg twice daily")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, result.Patient.Status)

	entries, err = readerSvc.VisitHistory(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Fever", entries[0].Symptoms)
	assert.Equal(t, "Paracetamol 500mg twice daily", entries[0].Prescription)

	issued, err := readerSvc.Prescriptions(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, issued, 1)
	assert.Equal(t, doctorID, issued[0].DoctorID)
	assert.Equal(t, "Paracetamol 500mg twice daily", issued[0].Text)
}

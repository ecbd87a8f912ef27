package reader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medidesk/clinic-api/internal/cache"
	"github.com/medidesk/clinic-api/internal/model"
	apperrors "github.com/medidesk/clinic-api/pkg/errors"
)

type fakeHistoryRepo struct {
	entries map[uuid.UUID][]*model.HistoryEntry
	calls   int
	fail    bool
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *model.HistoryEntry) error {
	r.entries[entry.PatientID] = append([]*model.HistoryEntry{entry}, r.entries[entry.PatientID]...)
	return nil
}

func (r *fakeHistoryRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.HistoryEntry, error) {
	r.calls++
	if r.fail {
		return nil, errors.New("store unreachable")
	}
	return r.entries[patientID], nil
}

type fakePrescriptionRepo struct {
	prescriptions map[uuid.UUID][]*model.Prescription
	calls         int
}

func (r *fakePrescriptionRepo) Create(_ context.Context, p *model.Prescription) error {
	r.prescriptions[p.PatientID] = append([]*model.Prescription{p}, r.prescriptions[p.PatientID]...)
	return nil
}

func (r *fakePrescriptionRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	r.calls++
	return r.prescriptions[patientID], nil
}

func newTestService() (*Service, *fakeHistoryRepo, *fakePrescriptionRepo, *cache.DashboardCache) {
	history := &fakeHistoryRepo{entries: map[uuid.UUID][]*model.HistoryEntry{}}
	prescriptions := &fakePrescriptionRepo{prescriptions: map[uuid.UUID][]*model.Prescription{}}
	dashCache := cache.NewDashboardCache(time.Minute, time.Minute)
	return NewService(history, prescriptions, dashCache), history, prescriptions, dashCache
}

// A patient with no closed visits reads back empty, not an error.
func TestVisitHistoryEmpty(t *testing.T) {
	svc, _, _, _ := newTestService()

	entries, err := svc.VisitHistory(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestPrescriptionsEmpty(t *testing.T) {
	svc, _, _, _ := newTestService()

	prescriptions, err := svc.Prescriptions(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, prescriptions)
	assert.Empty(t, prescriptions)
}

func TestVisitHistoryOrdering(t *testing.T) {
	svc, history, _, _ := newTestService()
	patientID := uuid.New()

	for _, symptoms := range []string{"Cough", "Fever", "Headache"} {
		require.NoError(t, history.Create(context.Background(), &model.HistoryEntry{
			ID:        uuid.New(),
			PatientID: patientID,
			Symptoms:  symptoms,
			VisitDate: time.Now(),
		}))
	}

	entries, err := svc.VisitHistory(context.Background(), patientID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Headache", entries[0].Symptoms)
	assert.Equal(t, "Cough", entries[2].Symptoms)
}

func TestVisitHistoryServedFromCache(t *testing.T) {
	svc, history, _, _ := newTestService()
	patientID := uuid.New()

	_, err := svc.VisitHistory(context.Background(), patientID)
	require.NoError(t, err)
	_, err = svc.VisitHistory(context.Background(), patientID)
	require.NoError(t, err)

	assert.Equal(t, 1, history.calls)
}

func TestVisitHistoryRefreshesAfterInvalidation(t *testing.T) {
	svc, history, _, dashCache := newTestService()
	patientID := uuid.New()

	entries, err := svc.VisitHistory(context.Background(), patientID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, history.Create(context.Background(), &model.HistoryEntry{
		ID:        uuid.New(),
		PatientID: patientID,
		Symptoms:  "Fever",
	}))
	dashCache.InvalidatePatient(patientID)

	entries, err = svc.VisitHistory(context.Background(), patientID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Fever", entries[0].Symptoms)
}

func TestVisitHistoryStoreFailure(t *testing.T) {
	svc, history, _, _ := newTestService()
	history.fail = true

	_, err := svc.VisitHistory(context.Background(), uuid.New())
	assert.Equal(t, apperrors.ErrUnavailable, apperrors.CodeOf(err))
}

func TestPrescriptionsScopedToPatient(t *testing.T) {
	svc, _, prescriptions, _ := newTestService()
	first, second := uuid.New(), uuid.New()

	require.NoError(t, prescriptions.Create(context.Background(), &model.Prescription{
		ID:        uuid.New(),
		PatientID: first,
		Text:      "Paracetamol 500mg twice daily",
	}))
	require.NoError(t, prescriptions.Create(context.Background(), &model.Prescription{
		ID:        uuid.New(),
		PatientID: second,
		Text:      "Ibuprofen 200mg as needed",
	}))

	got, err := svc.Prescriptions(context.Background(), first)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Paracetamol 500mg twice daily", got[0].Text)
}

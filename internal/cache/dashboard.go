package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/medidesk/clinic-api/internal/model"
)

const (
	keyPatients = "patients"
	keyStats    = "stats"
)

// DashboardCache is the single read cache in front of the store for
// dashboard queries. Refresh points are explicit: entries are filled on
// read miss and dropped after every successful write that touches
// patients. Nothing else reads or mutates this state.
type DashboardCache struct {
	c *gocache.Cache
}

func NewDashboardCache(ttl, cleanupInterval time.Duration) *DashboardCache {
	return &DashboardCache{c: gocache.New(ttl, cleanupInterval)}
}

func (d *DashboardCache) Patients() ([]*model.Patient, bool) {
	if v, ok := d.c.Get(keyPatients); ok {
		return v.([]*model.Patient), true
	}
	return nil, false
}

func (d *DashboardCache) SetPatients(patients []*model.Patient) {
	d.c.SetDefault(keyPatients, patients)
}

func (d *DashboardCache) Stats() (*model.DashboardStats, bool) {
	if v, ok := d.c.Get(keyStats); ok {
		return v.(*model.DashboardStats), true
	}
	return nil, false
}

func (d *DashboardCache) SetStats(stats *model.DashboardStats) {
	d.c.SetDefault(keyStats, stats)
}

func (d *DashboardCache) History(patientID uuid.UUID) ([]*model.HistoryEntry, bool) {
	if v, ok := d.c.Get(historyKey(patientID)); ok {
		return v.([]*model.HistoryEntry), true
	}
	return nil, false
}

func (d *DashboardCache) SetHistory(patientID uuid.UUID, entries []*model.HistoryEntry) {
	d.c.SetDefault(historyKey(patientID), entries)
}

func (d *DashboardCache) Prescriptions(patientID uuid.UUID) ([]*model.Prescription, bool) {
	if v, ok := d.c.Get(prescriptionKey(patientID)); ok {
		return v.([]*model.Prescription), true
	}
	return nil, false
}

func (d *DashboardCache) SetPrescriptions(patientID uuid.UUID, prescriptions []*model.Prescription) {
	d.c.SetDefault(prescriptionKey(patientID), prescriptions)
}

// InvalidatePatients drops the list and stats entries. Called after every
// successful patient write.
func (d *DashboardCache) InvalidatePatients() {
	d.c.Delete(keyPatients)
	d.c.Delete(keyStats)
}

// InvalidatePatient additionally drops the per-patient read side after an
// archival wrote new history and prescription rows.
func (d *DashboardCache) InvalidatePatient(patientID uuid.UUID) {
	d.InvalidatePatients()
	d.c.Delete(historyKey(patientID))
	d.c.Delete(prescriptionKey(patientID))
}

func historyKey(id uuid.UUID) string {
	return fmt.Sprintf("history:%s", id)
}

func prescriptionKey(id uuid.UUID) string {
	return fmt.Sprintf("prescriptions:%s", id)
}

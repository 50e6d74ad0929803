package service

import (
	"sync"
	"time"

	"github.com/tieubaoca/docflow/types"
)

// TrackingStore is the in-memory per-upload status map. It is not durable
// and resets on process restart; it only serves client polling of an
// individual upload's fate.
type TrackingStore struct {
	mu      sync.RWMutex
	records map[string]*types.TrackingRecord
}

func NewTrackingStore() *TrackingStore {
	return &TrackingStore{
		records: make(map[string]*types.TrackingRecord),
	}
}

func (s *TrackingStore) Create(trackingID, filename, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[trackingID] = &types.TrackingRecord{
		TrackingID: trackingID,
		Filename:   filename,
		Path:       path,
		Status:     types.TrackingUploaded,
		CreatedAt:  time.Now(),
	}
}

// Update changes the status of an existing record; unknown ids are
// ignored (the record may belong to a previous process lifetime).
func (s *TrackingStore) Update(trackingID, status, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[trackingID]
	if !ok {
		return
	}
	now := time.Now()
	rec.Status = status
	rec.UpdatedAt = &now
	rec.Error = errMsg
}

func (s *TrackingStore) Get(trackingID string) (*types.TrackingRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[trackingID]
	if !ok {
		return nil, false
	}
	copied := *rec
	return &copied, true
}

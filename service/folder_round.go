package service

import "sync"

// folderRound accumulates per-file outcomes for one folder ingestion
// round. Safe for concurrent use should per-file dispatch ever fan out.
type folderRound struct {
	mu      sync.Mutex
	ok      int
	errored int
}

func newFolderRound() *folderRound {
	return &folderRound{}
}

func (r *folderRound) addOK() {
	r.mu.Lock()
	r.ok++
	r.mu.Unlock()
}

func (r *folderRound) addError() {
	r.mu.Lock()
	r.errored++
	r.mu.Unlock()
}

func (r *folderRound) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ok, r.errored
}

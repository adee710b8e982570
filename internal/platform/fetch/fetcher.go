// Package fetch drives resource loading for a patient chart. A Fetcher owns
// the lifecycle of one remote load: idle until asked, loading while in
// flight, then succeeded with data or failed with an error. Overlapping
// loads are serialized by a generation counter so a slow early response can
// never overwrite a newer one.
package fetch

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/chart/internal/platform/notify"
)

// ErrInvalidPatientID rejects a load before any network traffic happens.
var ErrInvalidPatientID = errors.New("Invalid patient UUID")

// Status is the lifecycle state of a Fetcher.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// LoadFunc performs the actual remote load for one patient.
type LoadFunc[T any] func(ctx context.Context, patientID string) (T, error)

// Snapshot is a point-in-time copy of a Fetcher's state.
type Snapshot[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Fetcher runs a LoadFunc and tracks its lifecycle. Safe for concurrent use.
type Fetcher[T any] struct {
	mu         sync.Mutex
	status     Status
	data       T
	err        error
	generation uint64
	patientID  string

	load     LoadFunc[T]
	notifier *notify.Channel
	logger   zerolog.Logger
}

// New builds an idle Fetcher around load.
func New[T any](load LoadFunc[T], notifier *notify.Channel, logger zerolog.Logger) *Fetcher[T] {
	return &Fetcher[T]{
		status:   StatusIdle,
		load:     load,
		notifier: notifier,
		logger:   logger,
	}
}

// Fetch loads data for patientID and returns the resulting snapshot. An
// empty patientID fails immediately with ErrInvalidPatientID and raises a
// notification; no load is attempted. When a newer Fetch starts while this
// one is in flight, the stale result is discarded and the snapshot reflects
// the state the newer call left behind.
func (f *Fetcher[T]) Fetch(ctx context.Context, patientID string) Snapshot[T] {
	if patientID == "" {
		f.mu.Lock()
		f.generation++
		f.status = StatusFailed
		var zero T
		f.data = zero
		f.err = ErrInvalidPatientID
		f.patientID = ""
		snap := f.snapshotLocked()
		f.mu.Unlock()

		f.logger.Warn().Msg("fetch rejected: missing patient id")
		f.notifier.ShowError("Error", ErrInvalidPatientID.Error(), 0)
		return snap
	}

	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.status = StatusLoading
	f.err = nil
	f.patientID = patientID
	f.mu.Unlock()

	data, err := f.load(ctx, patientID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		// A newer fetch superseded this one; drop the result.
		f.logger.Debug().Str("patient_id", patientID).Msg("discarding stale fetch result")
		return f.snapshotLocked()
	}
	if err != nil {
		f.status = StatusFailed
		var zero T
		f.data = zero
		f.err = err
	} else {
		f.status = StatusSucceeded
		f.data = data
		f.err = nil
	}
	return f.snapshotLocked()
}

// Refetch replays the last Fetch. Before any Fetch it behaves like a Fetch
// with an empty patient id.
func (f *Fetcher[T]) Refetch(ctx context.Context) Snapshot[T] {
	f.mu.Lock()
	id := f.patientID
	f.mu.Unlock()
	return f.Fetch(ctx, id)
}

// Snapshot returns the current state without triggering a load.
func (f *Fetcher[T]) Snapshot() Snapshot[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Fetcher[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{Status: f.status, Data: f.data, Err: f.err}
}

package common

import "arcchain/arcerr"

// VersionedEntry is the "envelope fields" trait shared by every registry
// entry and access-control account: state_version for optimistic
// concurrency, operation_in_progress as a reentrancy latch, and
// last_update_timestamp. Free functions parameterised over this interface
// replace the class-hierarchy dispatch the spec's DESIGN NOTES §9
// explicitly steers away from.
type VersionedEntry interface {
	StateVersion() uint64
	SetStateVersion(uint64)
	OperationInProgress() bool
	SetOperationInProgress(bool)
	SetLastUpdateTimestamp(int64)
}

// WithConcurrencyGuard applies the uniform concurrency guard described in
// spec §4.I around mutate: it fails fast if an operation is already latched
// in, runs mutate with the latch held, confirms no other writer raced the
// version between load and commit, then advances the version and timestamp.
// mutate must not change StateVersion itself — the guard owns that.
func WithConcurrencyGuard(e VersionedEntry, now int64, mutate func() error) error {
	if e.OperationInProgress() {
		return arcerr.New(arcerr.CodeOperationInProgress)
	}
	expected := e.StateVersion()
	e.SetOperationInProgress(true)

	if err := mutate(); err != nil {
		e.SetOperationInProgress(false)
		return err
	}
	if e.StateVersion() != expected {
		e.SetOperationInProgress(false)
		return arcerr.New(arcerr.CodeStateVersionMismatch)
	}
	e.SetStateVersion(expected + 1)
	e.SetLastUpdateTimestamp(now)
	e.SetOperationInProgress(false)
	return nil
}

// Status is the shared lifecycle enum for registry entries (spec §3.1):
// Pending -> Active/Inactive freely, any of those -> Deregistered, which is
// terminal for every mutating operation but read.
type Status uint8

const (
	StatusPending Status = iota
	StatusActive
	StatusInactive
	StatusDeregistered
)

// Valid reports whether s is one of the four defined status values.
func (s Status) Valid() bool {
	return s <= StatusDeregistered
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusDeregistered:
		return "deregistered"
	default:
		return "unknown"
	}
}

// RequireMutable enforces Open Question #1's resolution: once an entry is
// Deregistered, every mutating operation other than a read must fail.
// Resource-not-found is the closest-fitting stable code — a Deregistered
// entry is, from a mutator's perspective, no longer a resource it can act
// on — so no new error kind is introduced beyond the §7 enumeration.
func RequireMutable(s Status) error {
	if s == StatusDeregistered {
		return arcerr.New(arcerr.CodeResourceNotFound)
	}
	return nil
}

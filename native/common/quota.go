package common

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrQuotaRequestsExceeded = errors.New("quota requests exceeded")
	ErrQuotaUnitsExceeded    = errors.New("quota usage cap exceeded")
	ErrQuotaCounterOverflow  = errors.New("quota counter overflow")
)

// Store provides persistence for quota counters, keyed by module and epoch
// so a rollover to a new epoch starts the counters fresh.
type Store interface {
	Load(module string, epoch uint64, addr []byte) (QuotaNow, bool, error)
	Save(module string, epoch uint64, addr []byte, counters QuotaNow) error
}

// QuotaNow captures the current quota usage counters for an address within
// one epoch. Units is a generic secondary counter alongside request count —
// the dispatch layer's per-signer request cap (program/quota.go) uses
// ReqCount alone, but other callers
// (e.g. a registration-fee quota) can use Units for a cost-weighted cap.
type QuotaNow struct {
	ReqCount uint32
	Units    uint64
	EpochID  uint64
}

// Quota defines the limits enforced for a module interaction per address.
type Quota struct {
	MaxRequestsPerEpoch uint32
	MaxUnitsPerEpoch    uint64
	EpochSeconds        uint32
}

// CheckQuota verifies whether the additional request and unit usage fit
// within the configured quota. The returned QuotaNow reflects the updated
// counters when the quota is not exceeded; prev is returned unchanged when
// it is.
func CheckQuota(q Quota, nowEpoch uint64, prev QuotaNow, addReq uint32, addUnits uint64) (QuotaNow, error) {
	next := prev
	if prev.EpochID != nowEpoch {
		next = QuotaNow{EpochID: nowEpoch}
	}

	if addReq > 0 {
		if next.ReqCount > math.MaxUint32-addReq {
			return prev, ErrQuotaCounterOverflow
		}
		next.ReqCount += addReq
	}
	if q.MaxRequestsPerEpoch > 0 && next.ReqCount > q.MaxRequestsPerEpoch {
		return prev, ErrQuotaRequestsExceeded
	}

	if addUnits > 0 {
		if next.Units > math.MaxUint64-addUnits {
			return prev, ErrQuotaCounterOverflow
		}
		next.Units += addUnits
	}
	if q.MaxUnitsPerEpoch > 0 && next.Units > q.MaxUnitsPerEpoch {
		return prev, ErrQuotaUnitsExceeded
	}

	return next, nil
}

// Apply loads the persisted counters for the provided address and updates
// them with the supplied increments when within quota limits. The updated
// counters are stored back to the underlying persistence layer. When the
// quota is exceeded the original counters are returned alongside the error.
func Apply(store Store, module string, nowEpoch uint64, addr []byte, q Quota, addReq uint32, addUnits uint64) (QuotaNow, error) {
	if store == nil {
		return QuotaNow{}, fmt.Errorf("quota: store unavailable")
	}
	if len(addr) == 0 {
		return QuotaNow{}, fmt.Errorf("quota: address required")
	}
	prev, _, err := store.Load(module, nowEpoch, addr)
	if err != nil {
		return QuotaNow{}, err
	}
	next, err := CheckQuota(q, nowEpoch, prev, addReq, addUnits)
	if err != nil {
		return prev, err
	}
	if err := store.Save(module, nowEpoch, addr, next); err != nil {
		return QuotaNow{}, err
	}
	return next, nil
}

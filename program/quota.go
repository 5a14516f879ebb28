package program

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"arcchain/arcerr"
	"arcchain/native/common"
)

// memQuotaStore backs the per-signer request quota with in-process
// counters. A prior-epoch entry is ignored on load and overwritten on the
// next save; entries of signers that stop sending are not removed, so the
// map keeps one entry per module and signer seen so far.
type memQuotaStore struct {
	mu       sync.Mutex
	counters map[string]common.QuotaNow
}

func newMemQuotaStore() *memQuotaStore {
	return &memQuotaStore{counters: make(map[string]common.QuotaNow)}
}

func quotaKey(module string, addr []byte) string {
	return module + "/" + string(addr)
}

func (s *memQuotaStore) Load(module string, epoch uint64, addr []byte) (common.QuotaNow, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now, ok := s.counters[quotaKey(module, addr)]
	if !ok || now.EpochID != epoch {
		return common.QuotaNow{EpochID: epoch}, false, nil
	}
	return now, true, nil
}

func (s *memQuotaStore) Save(module string, epoch uint64, addr []byte, counters common.QuotaNow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[quotaKey(module, addr)] = counters
	return nil
}

// SetRequestQuota enables a per-signer request cap per module epoch,
// enforced ahead of instruction decoding. A zero MaxRequestsPerEpoch
// disables the cap.
func (p *Program) SetRequestQuota(q common.Quota) {
	p.quota = q
	if p.quotaStore == nil {
		p.quotaStore = newMemQuotaStore()
	}
}

func (p *Program) applyQuota(module string, signer [32]byte) error {
	if p.quota.MaxRequestsPerEpoch == 0 || p.quotaStore == nil {
		return nil
	}
	epochSeconds := uint64(p.quota.EpochSeconds)
	if epochSeconds == 0 {
		epochSeconds = 1
	}
	epoch := uint64(time.Now().Unix()) / epochSeconds
	_, err := common.Apply(p.quotaStore, module, epoch, signer[:], p.quota, 1, 0)
	if err != nil {
		if errors.Is(err, common.ErrQuotaRequestsExceeded) {
			return arcerr.New(arcerr.CodeRateLimitExceeded)
		}
		return fmt.Errorf("program: request quota: %w", err)
	}
	return nil
}

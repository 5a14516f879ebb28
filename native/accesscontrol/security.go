package accesscontrol

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"arcchain/arcerr"
)

// Security-monitor constants (spec §4.K). Kept as unexported constants
// rather than configuration, per the Open Question decision in DESIGN.md:
// determinism matters more than runtime tunability here.
const (
	auditWindowSeconds       = 60
	rateLimitThreshold       = 100
	suspiciousFailureCount   = 50
	suspiciousNonceJump      = 1000
	suspiciousDeepGrantCount = 10
	suspiciousDelegationMin  = 3
	timestampDriftMedium     = 30
	timestampDriftHigh       = 300
)

// AuditEntry is one record in a wallet's rolling audit log (spec §4.K).
// RiskScore is the supplemental composite score SPEC_FULL.md §C.3 adds
// alongside the boolean pass/fail gate the spec itself defines.
type AuditEntry struct {
	Timestamp       int64
	Wallet          [32]byte
	Operation       string
	ResourceID      string
	Success         bool
	ErrorCode       *arcerr.Code
	NonceUsed       uint64
	DelegationDepth uint8
	RiskScore       uint32
}

// walletLog is the per-wallet state the monitor tracks: the rolling audit
// window and a token-bucket limiter layered in front of it (SPEC_FULL.md
// §B: golang.org/x/time/rate gives an O(1) first line of defense before
// the spec's exact sliding-window count check runs).
type walletLog struct {
	entries   []AuditEntry
	lastNonce uint64
	limiter   *rate.Limiter
}

// SecurityMonitor implements component K: per-wallet rate limiting,
// suspicious-pattern scoring, and timestamp-drift checking. It holds no
// on-chain account state — the rolling log is process-local observability,
// not part of any account's serialized layout.
type SecurityMonitor struct {
	mu      sync.Mutex
	wallets map[[32]byte]*walletLog
}

// NewSecurityMonitor constructs an empty monitor.
func NewSecurityMonitor() *SecurityMonitor {
	return &SecurityMonitor{wallets: make(map[[32]byte]*walletLog)}
}

func (m *SecurityMonitor) logFor(wallet [32]byte) *walletLog {
	l, ok := m.wallets[wallet]
	if !ok {
		l = &walletLog{limiter: rate.NewLimiter(rate.Limit(rateLimitThreshold)/rate.Limit(auditWindowSeconds), rateLimitThreshold)}
		m.wallets[wallet] = l
	}
	return l
}

// CheckTimestampDrift enforces the replay-acceptance window: drift beyond
// timestampDriftHigh seconds is rejected outright (spec §4.K); drift beyond
// timestampDriftMedium is flagged but not rejected (the caller may still
// choose to record it on the audit entry's risk score).
func CheckTimestampDrift(now, msgTimestamp int64) (medium bool, err error) {
	drift := now - msgTimestamp
	if drift < 0 {
		drift = -drift
	}
	if drift > timestampDriftHigh {
		return true, arcerr.New(arcerr.CodeReplayDetected)
	}
	return drift > timestampDriftMedium, nil
}

// Gate runs the rate-limit half of §4.K's acceptance sequence ahead of any
// other validation: a token-bucket limiter backed by an exact count of the
// wallet's entries still inside the sliding window. Split out from Record
// so callers can reject a call before it does any signature/nonce work,
// matching §4.F's "(1) run security audit" ordering, while still recording
// the call's real outcome (including failures the later steps produce)
// exactly once via Record.
func (m *SecurityMonitor) Gate(wallet [32]byte, now int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.logFor(wallet)
	cutoff := now - auditWindowSeconds
	kept := l.entries[:0:0]
	for _, e := range l.entries {
		if e.Timestamp >= cutoff {
			kept = append(kept, e)
		}
	}
	l.entries = kept

	if !l.limiter.AllowN(time.Unix(now, 0), 1) {
		return arcerr.New(arcerr.CodeRateLimitExceeded)
	}
	if len(l.entries) >= rateLimitThreshold {
		return arcerr.New(arcerr.CodeRateLimitExceeded)
	}
	return nil
}

// Record appends the call's actual outcome to the wallet's rolling log and
// evaluates the suspicious-pattern checks over the resulting window. A
// rejected call is itself evidence for future pattern checks, so Record is
// called for both successes and failures.
func (m *SecurityMonitor) Record(wallet [32]byte, operation, resourceID string, success bool, errCode *arcerr.Code, nonceUsed uint64, delegationDepth uint8, now int64) (AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.logFor(wallet)
	entry := AuditEntry{
		Timestamp:       now,
		Wallet:          wallet,
		Operation:       operation,
		ResourceID:      resourceID,
		Success:         success,
		ErrorCode:       errCode,
		NonceUsed:       nonceUsed,
		DelegationDepth: delegationDepth,
	}

	failures := 0
	deepGrants := 0
	for _, e := range l.entries {
		if !e.Success {
			failures++
		}
		if e.DelegationDepth > suspiciousDelegationMin {
			deepGrants++
		}
	}

	var verdict error
	switch {
	case failures >= suspiciousFailureCount:
		verdict = arcerr.New(arcerr.CodeSuspiciousActivity)
	case l.lastNonce != 0 && nonceUsed > l.lastNonce && nonceUsed-l.lastNonce > suspiciousNonceJump:
		verdict = arcerr.New(arcerr.CodeSuspiciousActivity)
	case deepGrants > suspiciousDeepGrantCount:
		verdict = arcerr.New(arcerr.CodeSuspiciousActivity)
	}

	entry.RiskScore = riskScore(failures, deepGrants, nonceUsed, l.lastNonce)
	l.entries = append(l.entries, entry)
	if nonceUsed != 0 {
		l.lastNonce = nonceUsed
	}
	return entry, verdict
}

// riskScore is the supplemental composite score (SPEC_FULL.md §C.3),
// bounded 0..100: failures and a large nonce jump each contribute, capped
// so one extreme input can't blow past the scale.
func riskScore(failures, deepGrants int, nonceUsed, lastNonce uint64) uint32 {
	score := uint32(failures) * 2
	score += uint32(deepGrants) * 5
	if lastNonce != 0 && nonceUsed > lastNonce {
		jump := nonceUsed - lastNonce
		if jump > suspiciousNonceJump {
			score += 30
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

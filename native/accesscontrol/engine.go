package accesscontrol

import (
	"time"

	"arcchain/arcerr"
	"arcchain/events"
	"arcchain/native/common"
	"arcchain/pda"
)

// accessControlState is the narrow persistence seam the engine needs,
// mirroring native/agentregistry's agentRegistryState pattern: three
// distinct account families, each keyed by its own PDA.
type accessControlState interface {
	AccessControlGet(addr pda.Address) (*AccessControlAccount, bool)
	AccessControlPut(*AccessControlAccount) error
	NonceTrackerGet(addr pda.Address) (*NonceTracker, bool)
	NonceTrackerPut(addr pda.Address, t *NonceTracker) error
	PermissionIndexGet(addr pda.Address) (*PermissionIndex, bool)
	PermissionIndexPut(addr pda.Address, p *PermissionIndex) error
}

// Engine implements the access-control operations (spec §4.F): initialize,
// grant, revoke, verify_signature, execute, transfer_ownership,
// prune_expired_grants, update_nonce.
type Engine struct {
	state     accessControlState
	emitter   events.Emitter
	nowFn     func() int64
	pauses    common.PauseView
	allowlist common.Allowlist
	monitor   *SecurityMonitor
}

const moduleName = "access_control"

// NewEngine constructs an access-control engine with no-op defaults; call
// SetState before use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		monitor: NewSecurityMonitor(),
	}
}

func (e *Engine) SetState(s accessControlState) { e.state = s }

func (e *Engine) SetEmitter(em events.Emitter) {
	if em == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = em
}

func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) SetPauses(p common.PauseView)     { e.pauses = p }
func (e *Engine) SetAllowlist(a common.Allowlist)  { e.allowlist = a }
func (e *Engine) SetSecurityMonitor(m *SecurityMonitor) {
	if m == nil {
		m = NewSecurityMonitor()
	}
	e.monitor = m
}

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadAccount(resourceProgram [32]byte, resourceID string) (pda.Address, *AccessControlAccount, error) {
	addr, bump, err := pda.FindAccessControlAddress(resourceProgram, resourceID)
	if err != nil {
		return pda.Address{}, nil, err
	}
	a, ok := e.state.AccessControlGet(addr)
	if !ok {
		return addr, nil, arcerr.New(arcerr.CodeResourceNotFound)
	}
	if a.Bump != bump {
		return addr, nil, arcerr.New(arcerr.CodeInvalidPda)
	}
	return addr, a, nil
}

func (e *Engine) loadNonceTracker(resourceProgram [32]byte, resourceID string, wallet [32]byte) (pda.Address, *NonceTracker, error) {
	addr, bump, err := pda.FindNonceTrackerAddress(resourceProgram, resourceID, wallet)
	if err != nil {
		return pda.Address{}, nil, err
	}
	t, ok := e.state.NonceTrackerGet(addr)
	if !ok {
		t = &NonceTracker{Bump: bump, ResourceID: resourceID, Wallet: wallet}
		return addr, t, nil
	}
	if t.Bump != bump {
		return addr, nil, arcerr.New(arcerr.CodeInvalidPda)
	}
	return addr, t, nil
}

// hasPermission reports whether wallet may perform op on a: the owner holds
// the universe of operations; anyone else needs a non-expired grant
// covering op.
func hasPermission(a *AccessControlAccount, wallet [32]byte, op string, now int64) bool {
	if wallet == a.Owner {
		return true
	}
	idx := a.Find(wallet)
	if idx < 0 {
		return false
	}
	g := a.PermissionGrants[idx]
	if g.Expired(now) {
		return false
	}
	return g.HasOperation(op)
}

// isAdmin reports whether wallet is the owner or holds a non-expired grant
// with the "admin" operation (spec §4.F's revoke/prune authorization rule).
func isAdmin(a *AccessControlAccount, wallet [32]byte, now int64) bool {
	return hasPermission(a, wallet, "admin", now)
}

// Initialize creates a new AccessControlAccount (spec §4.F).
func (e *Engine) Initialize(resourceID string, resourceProgram, initialOwner [32]byte) (*AccessControlAccount, error) {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := common.RequireNonEmpty(resourceID, arcerr.CodeInvalidIDLength); err != nil {
		return nil, err
	}
	if err := common.BoundedString(resourceID, MaxResourceIDLength, arcerr.CodeInvalidIDLength); err != nil {
		return nil, err
	}
	addr, bump, err := pda.FindAccessControlAddress(resourceProgram, resourceID)
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.AccessControlGet(addr); ok {
		return nil, arcerr.New(arcerr.CodeAccountAlreadyExists)
	}

	now := e.now()
	a := &AccessControlAccount{
		Bump:                 bump,
		ResourceID:           resourceID,
		ResourceProgram:      resourceProgram,
		Owner:                initialOwner,
		DelegationChainLimit: DelegationChainLimit,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	a.SetStateVersion(0)
	if err := e.state.AccessControlPut(a); err != nil {
		return nil, err
	}
	emitInitialized(e.emitter, a)
	return a, nil
}

// Grant adds or replaces target_wallet's permission grant (spec §4.F): the
// signer must be the owner or a non-expired, delegation-enabled holder;
// AccessControlAccount.Insert (component E) runs the cycle, depth, and
// privilege-escalation checks.
func (e *Engine) Grant(resourceID string, resourceProgram, signer, targetWallet [32]byte, permissions []string, expiresAt *int64, canDelegate bool, maxDelegationDepth uint8) (*AccessControlAccount, error) {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	_, a, err := e.loadAccount(resourceProgram, resourceID)
	if err != nil {
		return nil, err
	}
	now := e.now()

	var depth uint8
	switch {
	case signer == a.Owner:
		depth = 0
	default:
		idx := a.Find(signer)
		if idx < 0 {
			return nil, arcerr.New(arcerr.CodePermissionDenied)
		}
		g := a.PermissionGrants[idx]
		if g.Expired(now) {
			return nil, arcerr.New(arcerr.CodePermissionExpired)
		}
		if !g.CanDelegate {
			return nil, arcerr.New(arcerr.CodeCannotDelegate)
		}
		depth = g.DelegationDepth + 1
	}

	grant := PermissionGrant{
		Wallet:             targetWallet,
		Operations:         append([]string(nil), permissions...),
		GrantedAt:          now,
		ExpiresAt:          expiresAt,
		CanDelegate:        canDelegate,
		GrantedBy:          signer,
		DelegationDepth:    depth,
		MaxDelegationDepth: maxDelegationDepth,
	}

	err = common.WithConcurrencyGuard(a, now, func() error {
		return a.Insert(grant, now)
	})
	if err != nil {
		return nil, err
	}
	if err := e.state.AccessControlPut(a); err != nil {
		return nil, err
	}

	grantIdx := a.Find(targetWallet)
	idxAddr, idxBump, err := pda.FindPermissionIndexAddress(resourceProgram, resourceID, targetWallet)
	if err != nil {
		return nil, err
	}
	pi := &PermissionIndex{
		Bump:           idxBump,
		ResourceID:     resourceID,
		Wallet:         targetWallet,
		GrantIndex:     uint8(grantIdx),
		OperationFlags: operationFlags(grant.Operations),
		UpdatedAt:      now,
	}
	if err := e.state.PermissionIndexPut(idxAddr, pi); err != nil {
		return nil, err
	}

	emitGranted(e.emitter, a, grant)
	return a, nil
}

// Revoke removes target_wallet's grant (spec §4.F); the signer must be the
// owner or an admin-permission holder.
func (e *Engine) Revoke(resourceID string, resourceProgram, signer, targetWallet [32]byte, revokeDelegated bool) (*AccessControlAccount, error) {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	_, a, err := e.loadAccount(resourceProgram, resourceID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if !isAdmin(a, signer, now) {
		return nil, arcerr.New(arcerr.CodeUnauthorized)
	}

	var removed int
	err = common.WithConcurrencyGuard(a, now, func() error {
		removed = a.Revoke(targetWallet, revokeDelegated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := e.state.AccessControlPut(a); err != nil {
		return nil, err
	}

	idxAddr, idxBump, err := pda.FindPermissionIndexAddress(resourceProgram, resourceID, targetWallet)
	if err == nil {
		_ = e.state.PermissionIndexPut(idxAddr, &PermissionIndex{
			Bump:       idxBump,
			ResourceID: resourceID,
			Wallet:     targetWallet,
			UpdatedAt:  now,
		})
	}

	emitRevoked(e.emitter, a, targetWallet, removed, revokeDelegated)
	return a, nil
}

// VerifySignature validates a detached signature over the canonical
// message and consumes the accompanying nonce (spec §4.F).
func (e *Engine) VerifySignature(resourceID string, resourceProgram, signer [32]byte, operation string, sig [64]byte, nonce uint64, timestamp int64, payload []byte) error {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	now := e.now()

	// (1) run security audit K — the rate-limit gate runs before any other
	// validation so a wallet already over its budget is rejected cheaply;
	// every later failure is recorded and may upgrade to the monitor's
	// SuspiciousActivity verdict.
	if err := e.monitor.Gate(signer, now); err != nil {
		return e.record(signer, "verify_signature", resourceID, err, nonce, 0, now)
	}

	_, a, err := e.loadAccount(resourceProgram, resourceID)
	if err != nil {
		return e.record(signer, "verify_signature", resourceID, err, nonce, 0, now)
	}

	if _, err := CheckTimestampDrift(now, timestamp); err != nil {
		return e.record(signer, "verify_signature", resourceID, err, nonce, 0, now)
	}

	// (2) validate the ed25519 signature over the canonical message.
	if !VerifySignature(signer, sig, resourceID, operation, nonce, timestamp, payload) {
		err := arcerr.New(arcerr.CodeUnauthorized)
		return e.record(signer, "verify_signature", resourceID, err, nonce, 0, now)
	}

	// (3)+(4) nonce window accept/mark-used.
	trackerAddr, tracker, err := e.loadNonceTracker(resourceProgram, resourceID, signer)
	if err != nil {
		return e.record(signer, "verify_signature", resourceID, err, nonce, 0, now)
	}
	if err := AcceptNonce(tracker, nonce, now); err != nil {
		return e.record(signer, "verify_signature", resourceID, err, nonce, 0, now)
	}
	if err := e.state.NonceTrackerPut(trackerAddr, tracker); err != nil {
		return e.record(signer, "verify_signature", resourceID, err, nonce, 0, now)
	}

	// (5) permission check: owner or a non-expired grant covering op.
	depth := uint8(0)
	if idx := a.Find(signer); idx >= 0 {
		depth = a.PermissionGrants[idx].DelegationDepth
	}
	if !hasPermission(a, signer, operation, now) {
		err := arcerr.New(arcerr.CodePermissionDenied)
		return e.record(signer, "verify_signature", resourceID, err, nonce, depth, now)
	}

	// (6) update updated_at via the standard concurrency guard.
	if err := common.WithConcurrencyGuard(a, now, func() error { return nil }); err != nil {
		return e.record(signer, "verify_signature", resourceID, err, nonce, depth, now)
	}
	if err := e.state.AccessControlPut(a); err != nil {
		return err
	}

	if err := e.record(signer, "verify_signature", resourceID, nil, nonce, depth, now); err != nil {
		return err
	}
	emitSignatureVerified(e.emitter, a, signer, operation, nonce)
	emitNonceUpdated(e.emitter, resourceID, signer, nonce, now)
	return nil
}

// record appends the call's outcome to the security monitor's audit log and
// folds the monitor's suspicious-pattern verdict into the operation's
// result: a verdict supersedes whatever error the call was already failing
// with, so a wallet tripping the §4.K pattern checks observes
// SuspiciousActivity regardless of which step its call died on. Returns err
// unchanged when no pattern fires.
func (e *Engine) record(wallet [32]byte, operation, resourceID string, err error, nonce uint64, depth uint8, now int64) error {
	var code *arcerr.Code
	if ae, ok := err.(*arcerr.Error); ok {
		c := ae.Code
		code = &c
	}
	_, verdict := e.monitor.Record(wallet, operation, resourceID, err == nil, code, nonce, depth, now)
	if verdict != nil {
		return verdict
	}
	return err
}

// Execute rechecks signer's permission for operation and emits an audit
// record; the actual cross-program call is left to the host runtime (spec
// §4.F).
func (e *Engine) Execute(resourceID string, resourceProgram, signer [32]byte, operation string, targetProgram [32]byte) error {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	now := e.now()
	if err := e.monitor.Gate(signer, now); err != nil {
		return e.record(signer, "execute", resourceID, err, 0, 0, now)
	}
	_, a, err := e.loadAccount(resourceProgram, resourceID)
	if err != nil {
		return e.record(signer, "execute", resourceID, err, 0, 0, now)
	}
	if !hasPermission(a, signer, operation, now) {
		err := arcerr.New(arcerr.CodePermissionDenied)
		return e.record(signer, "execute", resourceID, err, 0, 0, now)
	}
	if err := e.record(signer, "execute", resourceID, nil, 0, 0, now); err != nil {
		return err
	}
	emitExecuted(e.emitter, a, signer, operation, targetProgram)
	return nil
}

// TransferOwnership reassigns Owner (spec §4.F); only the current owner may
// call it.
func (e *Engine) TransferOwnership(resourceID string, resourceProgram, signer, newOwner [32]byte) (*AccessControlAccount, error) {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	_, a, err := e.loadAccount(resourceProgram, resourceID)
	if err != nil {
		return nil, err
	}
	if signer != a.Owner {
		return nil, arcerr.New(arcerr.CodeUnauthorized)
	}

	oldOwner := a.Owner
	now := e.now()
	err = common.WithConcurrencyGuard(a, now, func() error {
		a.Owner = newOwner
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := e.state.AccessControlPut(a); err != nil {
		return nil, err
	}
	emitOwnershipTransferred(e.emitter, a, oldOwner, newOwner)
	return a, nil
}

// PruneExpiredGrants removes up to maxToPrune expired grants (spec §4.F);
// the signer must be the owner or an admin-permission holder.
func (e *Engine) PruneExpiredGrants(resourceID string, resourceProgram, signer [32]byte, maxToPrune int) (*AccessControlAccount, int, error) {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, 0, err
	}
	_, a, err := e.loadAccount(resourceProgram, resourceID)
	if err != nil {
		return nil, 0, err
	}
	now := e.now()
	if !isAdmin(a, signer, now) {
		return nil, 0, arcerr.New(arcerr.CodeUnauthorized)
	}

	var removed int
	err = common.WithConcurrencyGuard(a, now, func() error {
		removed = a.Prune(now, maxToPrune)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if err := e.state.AccessControlPut(a); err != nil {
		return nil, 0, err
	}
	emitPruned(e.emitter, a, removed)
	return a, removed, nil
}

// UpdateNonce lets a wallet advance its own nonce tracker out of band (spec
// §4.F): only the signer's own tracker may be mutated this way.
func (e *Engine) UpdateNonce(resourceID string, resourceProgram, signer [32]byte, newNonce uint64) (*NonceTracker, error) {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	now := e.now()
	trackerAddr, tracker, err := e.loadNonceTracker(resourceProgram, resourceID, signer)
	if err != nil {
		return nil, err
	}
	if err := AcceptNonce(tracker, newNonce, now); err != nil {
		return nil, err
	}
	if err := e.state.NonceTrackerPut(trackerAddr, tracker); err != nil {
		return nil, err
	}
	emitNonceUpdated(e.emitter, resourceID, signer, newNonce, now)
	return tracker, nil
}

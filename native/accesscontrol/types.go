// Package accesscontrol implements the reusable access-control subsystem
// (spec §3.2, §4.D-F, §4.K): delegable permission grants with cycle
// detection and bounded depth, a sliding-window nonce bitmap for replay
// prevention, ed25519 canonical-message signature verification, and a
// security monitor.
//
// Grounded on native/escrow/types.go's Sanitize*/Clone/status-enum-with-
// Valid() shape and native/escrow/trade_engine.go's engine-with-injected-
// state pattern, generalized from an escrow trade to an access-control
// account.
package accesscontrol

import (
	"github.com/ethereum/go-ethereum/rlp"

	"arcchain/arcerr"
	"arcchain/codec"
	"arcchain/native/common"
)

// Field bounds (spec §3.2, matching original_source/programs/access-control/
// src/state.rs's MAX_* constants exactly).
const (
	MaxResourceIDLength    = 64
	MaxOperationLength     = 32
	MaxPermissionsPerGrant = 16
	MaxGrantsPerResource   = 100
	DelegationChainLimit   = 5
	NonceWindowSize        = 64
)

// Operation bitfield flags for PermissionIndex.OperationFlags.
const (
	OpRead uint32 = 1 << iota
	OpWrite
	OpExecute
	OpTransfer
	OpDelegate
	OpAdmin
)

// PermissionGrant is one entry in an AccessControlAccount's grants vector
// (spec §3.2).
type PermissionGrant struct {
	Wallet             [32]byte
	Operations         []string
	GrantedAt          int64
	ExpiresAt          *int64
	CanDelegate        bool
	GrantedBy          [32]byte
	DelegationDepth    uint8
	MaxDelegationDepth uint8
}

// PermissionGrantSpace is the exact encoded size of a PermissionGrant.
const PermissionGrantSpace = 32 + // Wallet
	4 + MaxPermissionsPerGrant*(4+MaxOperationLength) + // Operations vector
	8 + // GrantedAt
	1 + 8 + // ExpiresAt option
	1 + // CanDelegate
	32 + // GrantedBy
	1 + // DelegationDepth
	1 // MaxDelegationDepth

// Clone returns a deep copy so callers can mutate a grant without aliasing
// the vector it lives in.
func (g PermissionGrant) Clone() PermissionGrant {
	out := g
	out.Operations = append([]string(nil), g.Operations...)
	if g.ExpiresAt != nil {
		v := *g.ExpiresAt
		out.ExpiresAt = &v
	}
	return out
}

// HasOperation reports whether op is present in the grant's operation set.
func (g PermissionGrant) HasOperation(op string) bool {
	for _, o := range g.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// Expired reports whether the grant has passed its expiry at time now.
func (g PermissionGrant) Expired(now int64) bool {
	return g.ExpiresAt != nil && *g.ExpiresAt < now
}

func (g PermissionGrant) encode(w *codec.Writer) {
	w.PutBytes(g.Wallet[:])
	w.PutU32(uint32(len(g.Operations)))
	for i := 0; i < MaxPermissionsPerGrant; i++ {
		if i < len(g.Operations) {
			w.PutString(g.Operations[i], MaxOperationLength)
		} else {
			w.PutString("", MaxOperationLength)
		}
	}
	w.PutI64(g.GrantedAt)
	w.PutOptionalI64(g.ExpiresAt)
	w.PutBool(g.CanDelegate)
	w.PutBytes(g.GrantedBy[:])
	w.PutU8(g.DelegationDepth)
	w.PutU8(g.MaxDelegationDepth)
}

func decodePermissionGrant(r *codec.Reader) PermissionGrant {
	var g PermissionGrant
	copy(g.Wallet[:], r.Bytes(32))
	n := r.U32()
	ops := make([]string, 0, n)
	for i := 0; i < MaxPermissionsPerGrant; i++ {
		s := r.String(MaxOperationLength)
		if uint32(i) < n {
			ops = append(ops, s)
		}
	}
	g.Operations = ops
	g.GrantedAt = r.I64()
	g.ExpiresAt = r.OptionalI64()
	g.CanDelegate = r.Bool()
	copy(g.GrantedBy[:], r.Bytes(32))
	g.DelegationDepth = r.U8()
	g.MaxDelegationDepth = r.U8()
	return g
}

// AccessControlAccount is the per-resource access-control record (spec
// §3.2). It also carries the envelope fields §4.I's concurrency guard
// requires, applied uniformly across F's operations the same way the
// registries apply them in G/H.
type AccessControlAccount struct {
	Bump                 uint8
	ResourceID           string
	ResourceProgram      [32]byte
	Owner                [32]byte
	GlobalNonceCounter   uint64
	DelegationChainLimit uint8
	CreatedAt            int64
	UpdatedAt            int64
	PermissionGrants     []PermissionGrant

	stateVersion        uint64
	operationInProgress bool
}

// accessControlDiscriminator tags the first bytes of every serialised
// AccessControlAccount (spec §6's account-layout convention, shared with the
// two registries).
var accessControlDiscriminator = codec.Discriminator("AccessControlAccount")

// AccessControlAccountSpace is the exact encoded size of an
// AccessControlAccount at maximum grant occupancy.
const AccessControlAccountSpace = codec.DiscriminatorSize +
	1 + // Bump
	8 + 1 + // StateVersion, OperationInProgress
	(4 + MaxResourceIDLength) + // ResourceID
	32 + 32 + // ResourceProgram, Owner
	8 + 1 + // GlobalNonceCounter, DelegationChainLimit
	8 + 8 + // CreatedAt, UpdatedAt
	4 + MaxGrantsPerResource*PermissionGrantSpace // PermissionGrants vector

// StateVersion / SetStateVersion / etc. implement common.VersionedEntry.
func (a *AccessControlAccount) StateVersion() uint64            { return a.stateVersion }
func (a *AccessControlAccount) SetStateVersion(v uint64)        { a.stateVersion = v }
func (a *AccessControlAccount) OperationInProgress() bool       { return a.operationInProgress }
func (a *AccessControlAccount) SetOperationInProgress(b bool)   { a.operationInProgress = b }
func (a *AccessControlAccount) SetLastUpdateTimestamp(ts int64) { a.UpdatedAt = ts }

// Encode serialises the account to its fixed-layout SPACE bytes.
func (a *AccessControlAccount) Encode() []byte {
	w := codec.NewWriter(AccessControlAccountSpace)
	w.PutBytes(accessControlDiscriminator[:])
	w.PutU8(a.Bump)
	w.PutU64(a.stateVersion)
	w.PutBool(a.operationInProgress)
	w.PutString(a.ResourceID, MaxResourceIDLength)
	w.PutBytes(a.ResourceProgram[:])
	w.PutBytes(a.Owner[:])
	w.PutU64(a.GlobalNonceCounter)
	w.PutU8(a.DelegationChainLimit)
	w.PutI64(a.CreatedAt)
	w.PutI64(a.UpdatedAt)
	w.PutU32(uint32(len(a.PermissionGrants)))
	for i := 0; i < MaxGrantsPerResource; i++ {
		if i < len(a.PermissionGrants) {
			a.PermissionGrants[i].encode(w)
		} else {
			PermissionGrant{}.encode(w)
		}
	}
	buf := w.Bytes()
	if len(buf) < AccessControlAccountSpace {
		buf = append(buf, make([]byte, AccessControlAccountSpace-len(buf))...)
	}
	return buf
}

// DecodeAccessControlAccount parses bytes produced by Encode.
func DecodeAccessControlAccount(buf []byte) (*AccessControlAccount, error) {
	r := codec.NewReader(buf)
	a := &AccessControlAccount{}
	var disc [codec.DiscriminatorSize]byte
	copy(disc[:], r.Bytes(codec.DiscriminatorSize))
	if r.Err() == nil && disc != accessControlDiscriminator {
		return nil, arcerr.Wrap(arcerr.CodeInvalidProgramAccount, "account discriminator mismatch")
	}
	a.Bump = r.U8()
	a.stateVersion = r.U64()
	a.operationInProgress = r.Bool()
	a.ResourceID = r.String(MaxResourceIDLength)
	copy(a.ResourceProgram[:], r.Bytes(32))
	copy(a.Owner[:], r.Bytes(32))
	a.GlobalNonceCounter = r.U64()
	a.DelegationChainLimit = r.U8()
	a.CreatedAt = r.I64()
	a.UpdatedAt = r.I64()
	n := r.U32()
	grants := make([]PermissionGrant, 0, n)
	for i := 0; i < MaxGrantsPerResource; i++ {
		g := decodePermissionGrant(r)
		if uint32(i) < n {
			grants = append(grants, g)
		}
	}
	a.PermissionGrants = grants
	if r.Err() != nil {
		return nil, arcerr.Wrap(arcerr.CodeInvalidPda, r.Err().Error())
	}
	return a, nil
}

// NonceWindow is the 64-bit sliding bitmap for one (resource, wallet) pair
// (spec §3.2, §4.D).
type NonceWindow struct {
	BaseNonce            uint64
	WindowBitmap         uint64
	TotalNoncesProcessed uint64
}

// NonceTracker is the per-(resource, wallet) replay-prevention record (spec
// §3.2).
type NonceTracker struct {
	Bump                uint8
	ResourceID          string
	Wallet              [32]byte
	Window              NonceWindow
	LastUpdateTimestamp int64
	UpdateSequence      uint64
}

// NonceTracker is a secondary lookup record, not the primary fixed-layout
// account the spec's §4.A SPACE requirement targets, so it is RLP-encoded
// (SPEC_FULL.md §B) the same way the teacher's state.Manager RLP-encodes
// everything that sits beside its own fixed-size records.
type storedNonceTracker struct {
	Bump                uint8
	ResourceID          string
	Wallet              []byte
	BaseNonce           uint64
	WindowBitmap        uint64
	TotalNoncesProcessed uint64
	LastUpdateTimestamp uint64
	UpdateSequence      uint64
}

// nonceTrackerDiscriminator and permissionIndexDiscriminator tag the
// secondary RLP records the same way the fixed-layout accounts are tagged:
// eight discriminator bytes, then the body.
var (
	nonceTrackerDiscriminator    = codec.Discriminator("NonceTracker")
	permissionIndexDiscriminator = codec.Discriminator("PermissionIndex")
)

func splitDiscriminator(buf []byte, want [codec.DiscriminatorSize]byte) ([]byte, error) {
	if len(buf) < codec.DiscriminatorSize {
		return nil, arcerr.Wrap(arcerr.CodeInvalidProgramAccount, "account too short for discriminator")
	}
	var disc [codec.DiscriminatorSize]byte
	copy(disc[:], buf)
	if disc != want {
		return nil, arcerr.Wrap(arcerr.CodeInvalidProgramAccount, "account discriminator mismatch")
	}
	return buf[codec.DiscriminatorSize:], nil
}

// Encode serialises the tracker via RLP.
func (t *NonceTracker) Encode() []byte {
	stored := storedNonceTracker{
		Bump:                 t.Bump,
		ResourceID:           t.ResourceID,
		Wallet:               append([]byte(nil), t.Wallet[:]...),
		BaseNonce:            t.Window.BaseNonce,
		WindowBitmap:         t.Window.WindowBitmap,
		TotalNoncesProcessed: t.Window.TotalNoncesProcessed,
		LastUpdateTimestamp:  uint64(t.LastUpdateTimestamp),
		UpdateSequence:       t.UpdateSequence,
	}
	buf, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		panic(err) // storedNonceTracker is rlp-encodable by construction
	}
	return append(append([]byte(nil), nonceTrackerDiscriminator[:]...), buf...)
}

// DecodeNonceTracker parses bytes produced by Encode.
func DecodeNonceTracker(buf []byte) (*NonceTracker, error) {
	body, err := splitDiscriminator(buf, nonceTrackerDiscriminator)
	if err != nil {
		return nil, err
	}
	var stored storedNonceTracker
	if err := rlp.DecodeBytes(body, &stored); err != nil {
		return nil, arcerr.Wrap(arcerr.CodeInvalidPda, err.Error())
	}
	t := &NonceTracker{
		Bump:                stored.Bump,
		ResourceID:          stored.ResourceID,
		LastUpdateTimestamp: int64(stored.LastUpdateTimestamp),
		UpdateSequence:      stored.UpdateSequence,
		Window: NonceWindow{
			BaseNonce:            stored.BaseNonce,
			WindowBitmap:         stored.WindowBitmap,
			TotalNoncesProcessed: stored.TotalNoncesProcessed,
		},
	}
	copy(t.Wallet[:], stored.Wallet)
	return t, nil
}

// PermissionIndex is the denormalized fast-lookup handle described in spec
// §3.2/§3.3: a weak reference into a grants vector, invalidated whenever
// the vector is mutated.
type PermissionIndex struct {
	Bump           uint8
	ResourceID     string
	Wallet         [32]byte
	GrantIndex     uint8
	OperationFlags uint32
	UpdatedAt      int64
}

// storedPermissionIndex is PermissionIndex's RLP wire shape — like
// NonceTracker, this is a secondary lookup record rather than the primary
// fixed-layout account (SPEC_FULL.md §B).
type storedPermissionIndex struct {
	Bump           uint8
	ResourceID     string
	Wallet         []byte
	GrantIndex     uint8
	OperationFlags uint32
	UpdatedAt      uint64
}

// Encode serialises the index via RLP.
func (p *PermissionIndex) Encode() []byte {
	stored := storedPermissionIndex{
		Bump:           p.Bump,
		ResourceID:     p.ResourceID,
		Wallet:         append([]byte(nil), p.Wallet[:]...),
		GrantIndex:     p.GrantIndex,
		OperationFlags: p.OperationFlags,
		UpdatedAt:      uint64(p.UpdatedAt),
	}
	buf, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		panic(err)
	}
	return append(append([]byte(nil), permissionIndexDiscriminator[:]...), buf...)
}

// DecodePermissionIndex parses bytes produced by Encode.
func DecodePermissionIndex(buf []byte) (*PermissionIndex, error) {
	body, err := splitDiscriminator(buf, permissionIndexDiscriminator)
	if err != nil {
		return nil, err
	}
	var stored storedPermissionIndex
	if err := rlp.DecodeBytes(body, &stored); err != nil {
		return nil, arcerr.Wrap(arcerr.CodeInvalidPda, err.Error())
	}
	p := &PermissionIndex{
		Bump:           stored.Bump,
		ResourceID:     stored.ResourceID,
		GrantIndex:     stored.GrantIndex,
		OperationFlags: stored.OperationFlags,
		UpdatedAt:      int64(stored.UpdatedAt),
	}
	copy(p.Wallet[:], stored.Wallet)
	return p, nil
}

// operationFlag maps a named operation to its PermissionIndex bit.
func operationFlag(op string) uint32 {
	switch op {
	case "read":
		return OpRead
	case "write":
		return OpWrite
	case "execute":
		return OpExecute
	case "transfer":
		return OpTransfer
	case "delegate":
		return OpDelegate
	case "admin":
		return OpAdmin
	default:
		return 0
	}
}

// operationFlags ORs together the bit for every named operation in ops.
func operationFlags(ops []string) uint32 {
	var flags uint32
	for _, op := range ops {
		flags |= operationFlag(op)
	}
	return flags
}

var _ common.VersionedEntry = (*AccessControlAccount)(nil)

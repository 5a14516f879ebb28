package accesscontrol

import (
	"strconv"

	"arcchain/events"

	"github.com/google/uuid"
)

func attrs(resourceID string, ts int64) map[string]string {
	return map[string]string{
		"resource_id": resourceID,
		"timestamp":   strconv.FormatInt(ts, 10),
		"trace_id":    uuid.NewString(),
	}
}

func hexAddr(b [32]byte) string {
	const hexDigits = "0123456789abcdef"
	var out [64]byte
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out[:])
}

func emitInitialized(e events.Emitter, a *AccessControlAccount) {
	a2 := attrs(a.ResourceID, a.CreatedAt)
	a2["owner"] = hexAddr(a.Owner)
	e.Emit(events.Record{Type: "AccessControlInitialized", Attributes: a2})
}

func emitGranted(e events.Emitter, a *AccessControlAccount, g PermissionGrant) {
	a2 := attrs(a.ResourceID, a.UpdatedAt)
	a2["wallet"] = hexAddr(g.Wallet)
	a2["granted_by"] = hexAddr(g.GrantedBy)
	a2["delegation_depth"] = strconv.Itoa(int(g.DelegationDepth))
	e.Emit(events.Record{Type: "PermissionGranted", Attributes: a2})
}

func emitRevoked(e events.Emitter, a *AccessControlAccount, wallet [32]byte, removed int, cascaded bool) {
	a2 := attrs(a.ResourceID, a.UpdatedAt)
	a2["wallet"] = hexAddr(wallet)
	a2["removed_count"] = strconv.Itoa(removed)
	a2["cascaded"] = strconv.FormatBool(cascaded)
	e.Emit(events.Record{Type: "PermissionRevoked", Attributes: a2})
}

func emitSignatureVerified(e events.Emitter, a *AccessControlAccount, wallet [32]byte, operation string, nonce uint64) {
	a2 := attrs(a.ResourceID, a.UpdatedAt)
	a2["wallet"] = hexAddr(wallet)
	a2["operation"] = operation
	a2["nonce"] = strconv.FormatUint(nonce, 10)
	e.Emit(events.Record{Type: "SignatureVerified", Attributes: a2})
}

func emitExecuted(e events.Emitter, a *AccessControlAccount, wallet [32]byte, operation string, targetProgram [32]byte) {
	a2 := attrs(a.ResourceID, a.UpdatedAt)
	a2["wallet"] = hexAddr(wallet)
	a2["operation"] = operation
	a2["target_program"] = hexAddr(targetProgram)
	e.Emit(events.Record{Type: "AccessControlExecuted", Attributes: a2})
}

func emitOwnershipTransferred(e events.Emitter, a *AccessControlAccount, oldOwner, newOwner [32]byte) {
	a2 := attrs(a.ResourceID, a.UpdatedAt)
	a2["old_owner"] = hexAddr(oldOwner)
	a2["new_owner"] = hexAddr(newOwner)
	e.Emit(events.Record{Type: "OwnershipTransferred", Attributes: a2})
}

func emitPruned(e events.Emitter, a *AccessControlAccount, removed int) {
	a2 := attrs(a.ResourceID, a.UpdatedAt)
	a2["removed_count"] = strconv.Itoa(removed)
	e.Emit(events.Record{Type: "ExpiredGrantsPruned", Attributes: a2})
}

func emitNonceUpdated(e events.Emitter, resourceID string, wallet [32]byte, nonce uint64, ts int64) {
	a2 := attrs(resourceID, ts)
	a2["wallet"] = hexAddr(wallet)
	a2["nonce"] = strconv.FormatUint(nonce, 10)
	e.Emit(events.Record{Type: "NonceUpdated", Attributes: a2})
}

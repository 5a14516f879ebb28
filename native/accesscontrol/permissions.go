package accesscontrol

import (
	"arcchain/arcerr"
)

// Find returns the index of wallet's grant in a.PermissionGrants, or -1 if
// none exists.
func (a *AccessControlAccount) Find(wallet [32]byte) int {
	for i := range a.PermissionGrants {
		if a.PermissionGrants[i].Wallet == wallet {
			return i
		}
	}
	return -1
}

// Insert adds or replaces the permission grant for grant.Wallet, enforcing
// the delegation invariants in spec §4.E: the delegation chain (followed via
// GrantedBy) must terminate within DelegationChainLimit hops without a
// cycle, and a delegated grant's operations must be a subset of the
// granter's operations (no privilege escalation through delegation).
func (a *AccessControlAccount) Insert(grant PermissionGrant, now int64) error {
	// Invariant A2: delegation_depth <= max_delegation_depth <=
	// delegation_chain_limit. A grant that can delegate further must
	// declare a non-zero ceiling; its own depth must already sit at or
	// below that ceiling.
	if grant.MaxDelegationDepth > DelegationChainLimit {
		return arcerr.New(arcerr.CodeInvalidDelegationChain)
	}
	if grant.CanDelegate && grant.MaxDelegationDepth == 0 {
		return arcerr.New(arcerr.CodeInvalidDelegationChain)
	}
	if grant.DelegationDepth > DelegationChainLimit {
		return arcerr.New(arcerr.CodeDelegationChainTooDeep)
	}
	if err := a.checkDelegation(grant); err != nil {
		return err
	}

	idx := a.Find(grant.Wallet)
	if idx >= 0 {
		a.PermissionGrants[idx] = grant
		return nil
	}
	if len(a.PermissionGrants) >= MaxGrantsPerResource {
		return arcerr.New(arcerr.CodeTooManyPermissions)
	}
	a.PermissionGrants = append(a.PermissionGrants, grant)
	return nil
}

// checkDelegation verifies that granting grant does not introduce a cycle
// in the GrantedBy chain, does not exceed DelegationChainLimit hops, and
// does not let the new grant's operations exceed the granter's.
func (a *AccessControlAccount) checkDelegation(grant PermissionGrant) error {
	// The account owner is the implicit root of every delegation tree: it
	// holds the universal operation set without an entry in
	// PermissionGrants, so a direct owner grant needs no ancestor lookup.
	if grant.GrantedBy == a.Owner {
		return nil
	}

	granterIdx := a.Find(grant.GrantedBy)
	if granterIdx < 0 {
		return arcerr.New(arcerr.CodeInvalidDelegationChain)
	}
	granter := a.PermissionGrants[granterIdx]
	if !granter.CanDelegate {
		return arcerr.New(arcerr.CodeCannotDelegate)
	}
	for _, op := range grant.Operations {
		if !granter.HasOperation(op) {
			return arcerr.New(arcerr.CodeDelegationPrivilegeEscalation)
		}
	}

	visited := map[[32]byte]bool{grant.Wallet: true, grant.GrantedBy: true}
	cursor := granter.GrantedBy
	depth := uint8(1)
	for cursor != a.Owner {
		if visited[cursor] {
			return arcerr.New(arcerr.CodeCircularDelegationDetected)
		}
		visited[cursor] = true
		depth++
		if depth > DelegationChainLimit {
			return arcerr.New(arcerr.CodeDelegationChainTooDeep)
		}
		idx := a.Find(cursor)
		if idx < 0 {
			return arcerr.New(arcerr.CodeInvalidDelegationChain)
		}
		cursor = a.PermissionGrants[idx].GrantedBy
	}
	return nil
}

// Revoke removes wallet's own grant and, if revokeDelegated is set, performs
// one additional pass removing every grant it directly delegated (shallow
// cascade, not recursive — see the Open Question decision in the ledger).
// Returns the number of grants removed.
func (a *AccessControlAccount) Revoke(wallet [32]byte, revokeDelegated bool) int {
	removed := 0
	kept := a.PermissionGrants[:0:0]
	for _, g := range a.PermissionGrants {
		if g.Wallet == wallet {
			removed++
			continue
		}
		if revokeDelegated && g.GrantedBy == wallet && g.Wallet != wallet {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	a.PermissionGrants = kept
	return removed
}

// Prune removes up to maxToPrune expired grants (ExpiresAt < now), returning
// the number actually removed (spec §4.F's maintenance operation).
func (a *AccessControlAccount) Prune(now int64, maxToPrune int) int {
	removed := 0
	kept := a.PermissionGrants[:0:0]
	for _, g := range a.PermissionGrants {
		if removed < maxToPrune && g.Expired(now) {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	a.PermissionGrants = kept
	return removed
}

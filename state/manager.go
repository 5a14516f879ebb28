// Package state provides the persistence layer for every registry and
// access-control account family. Grounded on core/state/manager.go's
// Manager-wraps-a-trie shape and its EscrowPut/EscrowGet key-derivation
// convention, adapted to this module's fixed-layout codec in place of the
// teacher's RLP encoding: each account type already knows how to
// Encode/Decode itself, so the manager only derives keys and moves bytes in
// and out of its stores.
package state

import (
	"arcchain/native/accesscontrol"
	"arcchain/native/agentregistry"
	"arcchain/native/mcpregistry"
	"arcchain/pda"
	"arcchain/storage"
	"arcchain/storage/trie"
)

// Manager is the single persistence seam every engine's narrow state
// interface is implemented against. The three primary fixed-layout account
// families (agents, MCP servers, access-control accounts) live in the
// account trie, keyed by their PDA-derived address, the same way the
// teacher's Manager backs every native module's state. The RLP-encoded
// secondary records (nonce trackers, permission indexes) live in a flat
// storage.Database beside the trie: they are rewritten on nearly every
// signature-verified call, and keeping that churn out of the trie keeps the
// account root a function of the primary accounts alone.
type Manager struct {
	trie *trie.Trie
	side storage.Database
}

// NewManager creates a state manager operating on the provided account trie
// and secondary-record store.
func NewManager(tr *trie.Trie, side storage.Database) *Manager {
	return &Manager{trie: tr, side: side}
}

// AgentPut persists an AgentEntry keyed by its (id, owner)-derived PDA.
func (m *Manager) AgentPut(a *agentregistry.AgentEntry) error {
	addr, _, err := pda.FindAgentAddress(a.ID, a.OwnerAuthority)
	if err != nil {
		return err
	}
	return m.trie.Update(addr[:], a.Encode())
}

// AgentGet loads an AgentEntry by its derived address, reporting whether it
// exists.
func (m *Manager) AgentGet(addr pda.Address) (*agentregistry.AgentEntry, bool) {
	data, err := m.trie.Get(addr[:])
	if err != nil || len(data) == 0 {
		return nil, false
	}
	entry, err := agentregistry.DecodeAgentEntry(data)
	if err != nil {
		return nil, false
	}
	return entry, true
}

// McpPut persists an McpServerEntry keyed by its (id, owner)-derived PDA.
func (m *Manager) McpPut(e *mcpregistry.McpServerEntry) error {
	addr, _, err := pda.FindMcpAddress(e.ID, e.OwnerAuthority)
	if err != nil {
		return err
	}
	return m.trie.Update(addr[:], e.Encode())
}

// McpGet loads an McpServerEntry by its derived address.
func (m *Manager) McpGet(addr pda.Address) (*mcpregistry.McpServerEntry, bool) {
	data, err := m.trie.Get(addr[:])
	if err != nil || len(data) == 0 {
		return nil, false
	}
	entry, err := mcpregistry.DecodeMcpServerEntry(data)
	if err != nil {
		return nil, false
	}
	return entry, true
}

// AccessControlPut persists an AccessControlAccount keyed by its
// (resource_program, resource_id)-derived PDA.
func (m *Manager) AccessControlPut(a *accesscontrol.AccessControlAccount) error {
	addr, _, err := pda.FindAccessControlAddress(a.ResourceProgram, a.ResourceID)
	if err != nil {
		return err
	}
	return m.trie.Update(addr[:], a.Encode())
}

// AccessControlGet loads an AccessControlAccount by its derived address.
func (m *Manager) AccessControlGet(addr pda.Address) (*accesscontrol.AccessControlAccount, bool) {
	data, err := m.trie.Get(addr[:])
	if err != nil || len(data) == 0 {
		return nil, false
	}
	a, err := accesscontrol.DecodeAccessControlAccount(data)
	if err != nil {
		return nil, false
	}
	return a, true
}

// NonceTrackerPut persists a NonceTracker at its caller-derived PDA in the
// secondary store. The engine supplies addr because NonceTracker itself
// does not carry resource_program, so the manager cannot re-derive the key
// from the struct alone the way it does for the owner-carrying entries.
func (m *Manager) NonceTrackerPut(addr pda.Address, t *accesscontrol.NonceTracker) error {
	return m.side.Put(addr[:], t.Encode())
}

// NonceTrackerGet loads a NonceTracker by its derived address.
func (m *Manager) NonceTrackerGet(addr pda.Address) (*accesscontrol.NonceTracker, bool) {
	data, err := m.side.Get(addr[:])
	if err != nil || len(data) == 0 {
		return nil, false
	}
	t, err := accesscontrol.DecodeNonceTracker(data)
	if err != nil {
		return nil, false
	}
	return t, true
}

// PermissionIndexPut persists a PermissionIndex at its caller-derived PDA
// in the secondary store, for the same reason NonceTrackerPut takes an
// explicit address.
func (m *Manager) PermissionIndexPut(addr pda.Address, p *accesscontrol.PermissionIndex) error {
	return m.side.Put(addr[:], p.Encode())
}

// PermissionIndexGet loads a PermissionIndex by its derived address.
func (m *Manager) PermissionIndexGet(addr pda.Address) (*accesscontrol.PermissionIndex, bool) {
	data, err := m.side.Get(addr[:])
	if err != nil || len(data) == 0 {
		return nil, false
	}
	p, err := accesscontrol.DecodePermissionIndex(data)
	if err != nil {
		return nil, false
	}
	return p, true
}

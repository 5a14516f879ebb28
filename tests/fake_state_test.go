// Package tests exercises the registry and access-control engines together
// against the literal scenarios the specification calls out (S1-S6),
// using a tiny in-memory map in place of state.Manager so each scenario
// runs without a real trie/database. Grounded on native/escrow's
// engine-level table tests, generalized to testify's require/assert the
// way SPEC_FULL.md's test-tooling section calls for.
package tests

import (
	"arcchain/native/accesscontrol"
	"arcchain/native/agentregistry"
	"arcchain/native/mcpregistry"
	"arcchain/pda"
)

// fakeState backs every engine's narrow state interface with plain maps
// keyed by the PDA address, standing in for state.Manager's trie-backed
// storage in these cross-package scenario tests.
type fakeState struct {
	agents            map[pda.Address]*agentregistry.AgentEntry
	servers           map[pda.Address]*mcpregistry.McpServerEntry
	accessAccounts    map[pda.Address]*accesscontrol.AccessControlAccount
	nonceTrackers     map[pda.Address]*accesscontrol.NonceTracker
	permissionIndexes map[pda.Address]*accesscontrol.PermissionIndex
}

func newFakeState() *fakeState {
	return &fakeState{
		agents:            map[pda.Address]*agentregistry.AgentEntry{},
		servers:           map[pda.Address]*mcpregistry.McpServerEntry{},
		accessAccounts:    map[pda.Address]*accesscontrol.AccessControlAccount{},
		nonceTrackers:     map[pda.Address]*accesscontrol.NonceTracker{},
		permissionIndexes: map[pda.Address]*accesscontrol.PermissionIndex{},
	}
}

func (s *fakeState) AgentPut(a *agentregistry.AgentEntry) error {
	addr, _, err := pda.FindAgentAddress(a.ID, a.OwnerAuthority)
	if err != nil {
		return err
	}
	s.agents[addr] = a
	return nil
}

func (s *fakeState) AgentGet(addr pda.Address) (*agentregistry.AgentEntry, bool) {
	a, ok := s.agents[addr]
	return a, ok
}

func (s *fakeState) McpPut(e *mcpregistry.McpServerEntry) error {
	addr, _, err := pda.FindMcpAddress(e.ID, e.OwnerAuthority)
	if err != nil {
		return err
	}
	s.servers[addr] = e
	return nil
}

func (s *fakeState) McpGet(addr pda.Address) (*mcpregistry.McpServerEntry, bool) {
	e, ok := s.servers[addr]
	return e, ok
}

func (s *fakeState) AccessControlPut(a *accesscontrol.AccessControlAccount) error {
	addr, _, err := pda.FindAccessControlAddress(a.ResourceProgram, a.ResourceID)
	if err != nil {
		return err
	}
	s.accessAccounts[addr] = a
	return nil
}

func (s *fakeState) AccessControlGet(addr pda.Address) (*accesscontrol.AccessControlAccount, bool) {
	a, ok := s.accessAccounts[addr]
	return a, ok
}

func (s *fakeState) NonceTrackerPut(addr pda.Address, t *accesscontrol.NonceTracker) error {
	s.nonceTrackers[addr] = t
	return nil
}

func (s *fakeState) NonceTrackerGet(addr pda.Address) (*accesscontrol.NonceTracker, bool) {
	t, ok := s.nonceTrackers[addr]
	return t, ok
}

func (s *fakeState) PermissionIndexPut(addr pda.Address, p *accesscontrol.PermissionIndex) error {
	s.permissionIndexes[addr] = p
	return nil
}

func (s *fakeState) PermissionIndexGet(addr pda.Address) (*accesscontrol.PermissionIndex, bool) {
	p, ok := s.permissionIndexes[addr]
	return p, ok
}

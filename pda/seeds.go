package pda

// Seed prefixes (spec §6), UTF-8 byte strings combined with entry-specific
// payload to derive each account family's address.
var (
	SeedAgentRegistry     = []byte("agent_reg_v1")
	SeedMcpRegistry       = []byte("mcp_srv_reg_v1")
	SeedAccessControl     = []byte("access_control")
	SeedNonceTracker      = []byte("nonce_tracker")
	SeedPermissionIndex   = []byte("permission_index")
	SeedStakingVault      = []byte("staking_vault")
	SeedFeeVault          = []byte("fee_vault")
	SeedRegistrationVault = []byte("registration_vault")
)

// FindAgentAddress derives an AgentEntry's address: seeds =
// (agent_reg_v1, id, owner). Tying the address to the owner key prevents
// squatting on an id owned by a different principal (spec §4.B).
func FindAgentAddress(id string, owner [32]byte) (Address, uint8, error) {
	return FindAddress(SeedAgentRegistry, []byte(id), owner[:])
}

// FindMcpAddress derives an McpServerEntry's address: seeds =
// (mcp_srv_reg_v1, id, owner).
func FindMcpAddress(id string, owner [32]byte) (Address, uint8, error) {
	return FindAddress(SeedMcpRegistry, []byte(id), owner[:])
}

// FindAccessControlAddress derives an AccessControlAccount's address: seeds =
// (access_control, resource_program, resource_id).
func FindAccessControlAddress(resourceProgram [32]byte, resourceID string) (Address, uint8, error) {
	return FindAddress(SeedAccessControl, resourceProgram[:], []byte(resourceID))
}

// FindNonceTrackerAddress derives a NonceTracker's address: the
// access-control seed set plus the wallet key (spec §4.B: "nonce tracker
// adds wallet_key_bytes").
func FindNonceTrackerAddress(resourceProgram [32]byte, resourceID string, wallet [32]byte) (Address, uint8, error) {
	return FindAddress(SeedNonceTracker, resourceProgram[:], []byte(resourceID), wallet[:])
}

// FindPermissionIndexAddress derives a PermissionIndex's address, following
// the same pattern as the nonce tracker (spec §4.B).
func FindPermissionIndexAddress(resourceProgram [32]byte, resourceID string, wallet [32]byte) (Address, uint8, error) {
	return FindAddress(SeedPermissionIndex, resourceProgram[:], []byte(resourceID), wallet[:])
}

// FindStakingVaultAddress derives the PDA that signs for staked-fund
// transfers out of scope of this module's own logic (host runtime SPL-token
// equivalent, §5 "shared-resource policy").
func FindStakingVaultAddress() (Address, uint8, error) {
	return FindAddress(SeedStakingVault)
}

// FindFeeVaultAddress derives the PDA that signs for collected-fee
// withdrawals.
func FindFeeVaultAddress() (Address, uint8, error) {
	return FindAddress(SeedFeeVault)
}

// FindRegistrationVaultAddress derives the PDA that signs for registration
// deposit/stake escrow, consumed by the optional fee hook (spec §1's
// "staking/fee economics beyond the operations the registry must expose").
func FindRegistrationVaultAddress() (Address, uint8, error) {
	return FindAddress(SeedRegistrationVault)
}

package agentregistry

import (
	"time"

	"arcchain/arcerr"
	"arcchain/events"
	"arcchain/native/common"
	"arcchain/pda"
)

// agentRegistryState is the narrow persistence seam the engine needs,
// grounded on native/escrow/trade_engine.go's tradeEngineState pattern:
// a small interface the concrete state.Manager satisfies structurally, so
// this package never imports the state package (avoiding an import cycle)
// and tests can inject an in-memory fake.
type agentRegistryState interface {
	AgentPut(*AgentEntry) error
	AgentGet(addr pda.Address) (*AgentEntry, bool)
}

// DepositHook is the seam through which the host runtime collects a
// registration fee or stake deposit when an entry is created. The registry
// owns no token logic itself: it hands the host the registering owner and
// the registration-vault PDA, and the host performs the transfer before the
// entry is committed. A failed deposit aborts the registration.
type DepositHook interface {
	CollectRegistrationDeposit(owner [32]byte, vault pda.Address) error
}

// Engine implements the agent registry operations (spec §4.G): register,
// update_details, update_status, deregister, record_service_completion,
// record_dispute_outcome.
type Engine struct {
	state   agentRegistryState
	emitter events.Emitter
	nowFn   func() int64
	pauses  common.PauseView
	allow   common.Allowlist
	deposit DepositHook
}

// NewEngine constructs an agent registry engine with no-op defaults; call
// SetState before use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(s agentRegistryState) { e.state = s }

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

func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetAuthorizedCallers configures the allowlist record_service_completion
// and record_dispute_outcome check against (DESIGN NOTES §9).
func (e *Engine) SetAuthorizedCallers(allow common.Allowlist) { e.allow = allow }

// SetDepositHook installs the host's registration-deposit collector; nil
// disables fee collection entirely.
func (e *Engine) SetDepositHook(h DepositHook) { e.deposit = h }

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

const moduleName = "agent_registry"

func (e *Engine) load(id string, owner [32]byte) (pda.Address, *AgentEntry, error) {
	addr, bump, err := pda.FindAgentAddress(id, owner)
	if err != nil {
		return pda.Address{}, nil, err
	}
	entry, ok := e.state.AgentGet(addr)
	if !ok {
		return addr, nil, arcerr.New(arcerr.CodeResourceNotFound)
	}
	if entry.Bump != bump {
		return addr, nil, arcerr.New(arcerr.CodeInvalidPda)
	}
	return addr, entry, nil
}

// Register creates a new AgentEntry owned by owner (spec §4.G). The PDA
// address is derived from (id, owner) so an id already claimed by a
// different owner fails with AccountAlreadyExists rather than silently
// overwriting it.
func (e *Engine) Register(owner [32]byte, p RegisterParams) (*AgentEntry, error) {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := validateCommon(p); err != nil {
		return nil, err
	}
	addr, bump, err := pda.FindAgentAddress(p.ID, owner)
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.AgentGet(addr); ok {
		return nil, arcerr.New(arcerr.CodeAccountAlreadyExists)
	}
	if e.deposit != nil {
		vault, _, err := pda.FindRegistrationVaultAddress()
		if err != nil {
			return nil, err
		}
		if err := e.deposit.CollectRegistrationDeposit(owner, vault); err != nil {
			return nil, err
		}
	}

	now := e.now()
	entry := &AgentEntry{
		Bump:                      bump,
		RegistryVersion:           CurrentRegistryVersion,
		OwnerAuthority:            owner,
		ID:                        p.ID,
		Status:                    common.StatusPending,
		RegistrationTimestamp:     now,
		LastUpdateTimestamp:       now,
		Tags:                      append([]string(nil), p.Tags...),
		Name:                      p.Name,
		Description:               p.Description,
		AgentVersion:              p.AgentVersion,
		ProviderName:              p.ProviderName,
		ProviderURL:               p.ProviderURL,
		DocumentationURL:          p.DocumentationURL,
		ServiceEndpoints:          append([]ServiceEndpoint(nil), p.ServiceEndpoints...),
		CapabilitiesFlags:         p.CapabilitiesFlags,
		SupportedInputModes:       append([]string(nil), p.SupportedInputModes...),
		SupportedOutputModes:      append([]string(nil), p.SupportedOutputModes...),
		Skills:                    append([]Skill(nil), p.Skills...),
		SecurityInfoURI:           p.SecurityInfoURI,
		AeaAddress:                p.AeaAddress,
		EconomicIntentSummary:     p.EconomicIntentSummary,
		SupportedAeaProtocolsHash: p.SupportedAeaProtocolsHash,
		ExtendedMetadataURI:       p.ExtendedMetadataURI,
	}
	entry.SetStateVersion(0)
	if err := e.state.AgentPut(entry); err != nil {
		return nil, err
	}
	emitRegistered(e.emitter, entry)
	return entry, nil
}

// requireOwner fails unless signer matches the entry's owner_authority
// (invariant I7: owner_authority changes only via transfer_ownership,
// itself not part of this registry's op set per spec §4.G's list — the
// owner's signature gates every other mutating op).
func requireOwner(entry *AgentEntry, signer [32]byte) error {
	if entry.OwnerAuthority != signer {
		return arcerr.New(arcerr.CodeUnauthorized)
	}
	return nil
}

// UpdatePatch is the partial-update payload for UpdateDetails (spec §4.G,
// §9 "Patch objects for partial updates"): a present pointer sets, a
// present Clear flag clears the matching optional field, and neither
// leaves the field untouched. Replace-style collections use a pointer to a
// slice so nil means "untouched" and a non-nil (possibly empty) slice means
// "replace wholesale".
type UpdatePatch struct {
	Name         *string
	Description  *string
	AgentVersion *string

	ProviderName      *string
	ClearProviderName bool
	ProviderURL       *string
	ClearProviderURL  bool
	DocumentationURL  *string
	ClearDocumentationURL bool

	ServiceEndpoints     *[]ServiceEndpoint
	CapabilitiesFlags    *uint64
	SupportedInputModes  *[]string
	SupportedOutputModes *[]string
	Skills               *[]Skill

	SecurityInfoURI            *string
	ClearSecurityInfoURI       bool
	AeaAddress                 *string
	ClearAeaAddress            bool
	EconomicIntentSummary      *string
	ClearEconomicIntentSummary bool
	SupportedAeaProtocolsHash  *[32]byte
	ExtendedMetadataURI        *string
	ClearExtendedMetadataURI   bool

	Tags *[]string
}

func strPtr(s string) *string { return &s }

// apply merges patch into a clone of the current entry, returning the
// merged RegisterParams-shaped view (for re-validation) plus the list of
// field names that actually changed (SPEC_FULL.md §C.2: per-field
// granularity on AgentUpdated, not a generic "updated" marker).
func (p UpdatePatch) apply(a *AgentEntry) (RegisterParams, []string) {
	merged := RegisterParams{
		ID:                        a.ID,
		Name:                      a.Name,
		Description:               a.Description,
		AgentVersion:              a.AgentVersion,
		ProviderName:              a.ProviderName,
		ProviderURL:               a.ProviderURL,
		DocumentationURL:          a.DocumentationURL,
		ServiceEndpoints:          a.ServiceEndpoints,
		CapabilitiesFlags:         a.CapabilitiesFlags,
		SupportedInputModes:       a.SupportedInputModes,
		SupportedOutputModes:      a.SupportedOutputModes,
		Skills:                    a.Skills,
		SecurityInfoURI:           a.SecurityInfoURI,
		AeaAddress:                a.AeaAddress,
		EconomicIntentSummary:     a.EconomicIntentSummary,
		SupportedAeaProtocolsHash: a.SupportedAeaProtocolsHash,
		ExtendedMetadataURI:       a.ExtendedMetadataURI,
		Tags:                      a.Tags,
	}
	var changed []string

	if p.Name != nil {
		merged.Name = *p.Name
		changed = append(changed, "name")
	}
	if p.Description != nil {
		merged.Description = *p.Description
		changed = append(changed, "description")
	}
	if p.AgentVersion != nil {
		merged.AgentVersion = *p.AgentVersion
		changed = append(changed, "agent_version")
	}
	if p.ProviderName != nil {
		merged.ProviderName = p.ProviderName
		changed = append(changed, "provider_name")
	} else if p.ClearProviderName {
		merged.ProviderName = nil
		changed = append(changed, "provider_name")
	}
	if p.ProviderURL != nil {
		merged.ProviderURL = p.ProviderURL
		changed = append(changed, "provider_url")
	} else if p.ClearProviderURL {
		merged.ProviderURL = nil
		changed = append(changed, "provider_url")
	}
	if p.DocumentationURL != nil {
		merged.DocumentationURL = p.DocumentationURL
		changed = append(changed, "documentation_url")
	} else if p.ClearDocumentationURL {
		merged.DocumentationURL = nil
		changed = append(changed, "documentation_url")
	}
	if p.ServiceEndpoints != nil {
		merged.ServiceEndpoints = *p.ServiceEndpoints
		changed = append(changed, "service_endpoints")
	}
	if p.CapabilitiesFlags != nil {
		merged.CapabilitiesFlags = *p.CapabilitiesFlags
		changed = append(changed, "capabilities_flags")
	}
	if p.SupportedInputModes != nil {
		merged.SupportedInputModes = *p.SupportedInputModes
		changed = append(changed, "supported_input_modes")
	}
	if p.SupportedOutputModes != nil {
		merged.SupportedOutputModes = *p.SupportedOutputModes
		changed = append(changed, "supported_output_modes")
	}
	if p.Skills != nil {
		merged.Skills = *p.Skills
		changed = append(changed, "skills")
	}
	if p.SecurityInfoURI != nil {
		merged.SecurityInfoURI = p.SecurityInfoURI
		changed = append(changed, "security_info_uri")
	} else if p.ClearSecurityInfoURI {
		merged.SecurityInfoURI = nil
		changed = append(changed, "security_info_uri")
	}
	if p.AeaAddress != nil {
		merged.AeaAddress = p.AeaAddress
		changed = append(changed, "aea_address")
	} else if p.ClearAeaAddress {
		merged.AeaAddress = nil
		changed = append(changed, "aea_address")
	}
	if p.EconomicIntentSummary != nil {
		merged.EconomicIntentSummary = p.EconomicIntentSummary
		changed = append(changed, "economic_intent_summary")
	} else if p.ClearEconomicIntentSummary {
		merged.EconomicIntentSummary = nil
		changed = append(changed, "economic_intent_summary")
	}
	if p.SupportedAeaProtocolsHash != nil {
		merged.SupportedAeaProtocolsHash = *p.SupportedAeaProtocolsHash
		changed = append(changed, "supported_aea_protocols_hash")
	}
	if p.ExtendedMetadataURI != nil {
		merged.ExtendedMetadataURI = p.ExtendedMetadataURI
		changed = append(changed, "extended_metadata_uri")
	} else if p.ClearExtendedMetadataURI {
		merged.ExtendedMetadataURI = nil
		changed = append(changed, "extended_metadata_uri")
	}
	if p.Tags != nil {
		merged.Tags = *p.Tags
		changed = append(changed, "tags")
	}
	return merged, changed
}

// UpdateDetails applies a partial update under the concurrency guard (spec
// §4.G, §4.I). L1: an empty patch is a no-op — version and timestamp are
// left unchanged because no field name would appear in changed, in which
// case this returns successfully without touching state_version.
func (e *Engine) UpdateDetails(id string, signer [32]byte, owner [32]byte, patch UpdatePatch) (*AgentEntry, error) {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	_, entry, err := e.load(id, owner)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(entry, signer); err != nil {
		return nil, err
	}
	if err := common.RequireMutable(entry.Status); err != nil {
		return nil, err
	}

	merged, changed := patch.apply(entry)
	if len(changed) == 0 {
		return entry, nil // L1: empty patch is a no-op
	}
	merged.ID = entry.ID
	if err := validateCommon(merged); err != nil {
		return nil, err
	}

	now := e.now()
	err = common.WithConcurrencyGuard(entry, now, func() error {
		entry.Name = merged.Name
		entry.Description = merged.Description
		entry.AgentVersion = merged.AgentVersion
		entry.ProviderName = merged.ProviderName
		entry.ProviderURL = merged.ProviderURL
		entry.DocumentationURL = merged.DocumentationURL
		entry.ServiceEndpoints = merged.ServiceEndpoints
		entry.CapabilitiesFlags = merged.CapabilitiesFlags
		entry.SupportedInputModes = merged.SupportedInputModes
		entry.SupportedOutputModes = merged.SupportedOutputModes
		entry.Skills = merged.Skills
		entry.SecurityInfoURI = merged.SecurityInfoURI
		entry.AeaAddress = merged.AeaAddress
		entry.EconomicIntentSummary = merged.EconomicIntentSummary
		entry.SupportedAeaProtocolsHash = merged.SupportedAeaProtocolsHash
		entry.ExtendedMetadataURI = merged.ExtendedMetadataURI
		entry.Tags = merged.Tags
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := e.state.AgentPut(entry); err != nil {
		return nil, err
	}
	emitUpdated(e.emitter, entry, changed)
	return entry, nil
}

// UpdateStatus transitions the entry's status (spec §4.G). L2: setting the
// current status is a no-op.
func (e *Engine) UpdateStatus(id string, signer [32]byte, owner [32]byte, newStatus common.Status) (*AgentEntry, error) {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	_, entry, err := e.load(id, owner)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(entry, signer); err != nil {
		return nil, err
	}
	if err := common.ValidateStatusRange(newStatus, arcerr.CodeInvalidAgentStatus); err != nil {
		return nil, err
	}
	if entry.Status == newStatus {
		return entry, nil // L2
	}
	if err := common.RequireMutable(entry.Status); err != nil {
		return nil, err
	}

	old := entry.Status
	now := e.now()
	err = common.WithConcurrencyGuard(entry, now, func() error {
		entry.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := e.state.AgentPut(entry); err != nil {
		return nil, err
	}
	emitStatusChanged(e.emitter, entry, uint8(old), uint8(newStatus))
	return entry, nil
}

// Deregister sets status to Deregistered (spec §4.G). L3: deregistering an
// already-deregistered entry is a no-op, matching update_status's L2
// no-op semantics for the same target value.
func (e *Engine) Deregister(id string, signer [32]byte, owner [32]byte) (*AgentEntry, error) {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	_, entry, err := e.load(id, owner)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(entry, signer); err != nil {
		return nil, err
	}
	if entry.Status == common.StatusDeregistered {
		return entry, nil
	}

	now := e.now()
	err = common.WithConcurrencyGuard(entry, now, func() error {
		entry.Status = common.StatusDeregistered
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := e.state.AgentPut(entry); err != nil {
		return nil, err
	}
	emitDeregistered(e.emitter, entry)
	return entry, nil
}

// responseBucketScore maps a response time to the §4.K bucket score.
func responseBucketScore(responseTimeSecs uint64) uint64 {
	switch {
	case responseTimeSecs <= 5*60:
		return 100
	case responseTimeSecs <= 15*60:
		return 80
	case responseTimeSecs <= 60*60:
		return 60
	case responseTimeSecs <= 24*60*60:
		return 40
	default:
		return 20
	}
}

// recomputeQualityScore applies the §4.K formula:
// score = min(10000, 5*min(completed,1000) + 600*avg_rating +
// 10*dispute_win_ratio% + 10*response_bucket_score).
func recomputeQualityScore(a *AgentEntry) {
	completed := a.ServiceCompletedCount
	if completed > 1000 {
		completed = 1000
	}
	var avgRatingCenti uint64
	if a.RatingCount > 0 {
		avgRatingCenti = a.RatingSumCenti / a.RatingCount // centi-units, 0..500
	}
	// 600 * avg_rating, avg_rating = avgRatingCenti/100
	ratingTerm := 600 * avgRatingCenti / 100

	var disputeWinPct uint64
	if a.DisputeCount > 0 {
		disputeWinPct = uint64(a.DisputeWins) * 100 / uint64(a.DisputeCount)
	}

	score := 5*completed + ratingTerm + 10*disputeWinPct + 10*responseBucketScore(a.AvgResponseTimeSecs)
	if score > 10000 {
		score = 10000
	}
	a.QualityScore = uint32(score)
}

// RecordServiceCompletion is callable only by the authorised escrow program
// (spec §4.G, §6). rating is expressed in centi-units (0..500, i.e. a 0.0-5.0
// star rating scaled by 100) so the quality-score formula's integer math
// stays exact.
func (e *Engine) RecordServiceCompletion(caller common.Caller, id string, owner [32]byte, earnings uint64, ratingCenti uint32, responseTimeSecs uint64) (*AgentEntry, error) {
	if err := common.AuthorizedFor(e.allow, common.CallerEscrow, caller); err != nil {
		return nil, err
	}
	_, entry, err := e.load(id, owner)
	if err != nil {
		return nil, err
	}
	if err := common.RequireMutable(entry.Status); err != nil {
		return nil, err
	}

	now := e.now()
	err = common.WithConcurrencyGuard(entry, now, func() error {
		entry.ServiceCompletedCount++
		entry.TotalEarnings += earnings
		entry.RatingSumCenti += uint64(ratingCenti)
		entry.RatingCount++
		if entry.AvgResponseTimeSecs == 0 {
			entry.AvgResponseTimeSecs = responseTimeSecs
		} else {
			entry.AvgResponseTimeSecs = (entry.AvgResponseTimeSecs + responseTimeSecs) / 2
		}
		recomputeQualityScore(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := e.state.AgentPut(entry); err != nil {
		return nil, err
	}
	emitServiceCompleted(e.emitter, entry, earnings, ratingCenti, responseTimeSecs)
	return entry, nil
}

// RecordDisputeOutcome is callable only by the authorised DDR program (spec
// §4.G, §6).
func (e *Engine) RecordDisputeOutcome(caller common.Caller, id string, owner [32]byte, won bool) (*AgentEntry, error) {
	if err := common.AuthorizedFor(e.allow, common.CallerDDR, caller); err != nil {
		return nil, err
	}
	_, entry, err := e.load(id, owner)
	if err != nil {
		return nil, err
	}
	if err := common.RequireMutable(entry.Status); err != nil {
		return nil, err
	}

	now := e.now()
	err = common.WithConcurrencyGuard(entry, now, func() error {
		entry.DisputeCount++
		if won {
			entry.DisputeWins++
		}
		recomputeQualityScore(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := e.state.AgentPut(entry); err != nil {
		return nil, err
	}
	emitDisputeRecorded(e.emitter, entry, won)
	return entry, nil
}

package mcpregistry

import (
	"time"

	"arcchain/arcerr"
	"arcchain/events"
	"arcchain/native/common"
	"arcchain/pda"
)

// mcpRegistryState is the narrow persistence seam the engine needs,
// mirroring native/agentregistry's agentRegistryState pattern.
type mcpRegistryState interface {
	McpPut(*McpServerEntry) error
	McpGet(addr pda.Address) (*McpServerEntry, bool)
}

// DepositHook mirrors native/agentregistry.DepositHook: the host-provided
// registration-deposit collector invoked before a new entry is committed.
type DepositHook interface {
	CollectRegistrationDeposit(owner [32]byte, vault pda.Address) error
}

// Engine implements the MCP-server registry operations (spec §4.H):
// register, update_details, update_status, deregister.
type Engine struct {
	state   mcpRegistryState
	emitter events.Emitter
	nowFn   func() int64
	pauses  common.PauseView
	deposit DepositHook
}

const moduleName = "mcp_registry"

// NewEngine constructs an MCP registry engine with no-op defaults; call
// SetState before use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(s mcpRegistryState) { e.state = s }

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

// SetDepositHook installs the host's registration-deposit collector; nil
// disables fee collection entirely.
func (e *Engine) SetDepositHook(h DepositHook) { e.deposit = h }

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) load(id string, owner [32]byte) (pda.Address, *McpServerEntry, error) {
	addr, bump, err := pda.FindMcpAddress(id, owner)
	if err != nil {
		return pda.Address{}, nil, err
	}
	entry, ok := e.state.McpGet(addr)
	if !ok {
		return addr, nil, arcerr.New(arcerr.CodeResourceNotFound)
	}
	if entry.Bump != bump {
		return addr, nil, arcerr.New(arcerr.CodeInvalidPda)
	}
	return addr, entry, nil
}

func requireOwner(entry *McpServerEntry, signer [32]byte) error {
	if entry.OwnerAuthority != signer {
		return arcerr.New(arcerr.CodeUnauthorized)
	}
	return nil
}

// Register creates a new McpServerEntry owned by owner (spec §4.H).
func (e *Engine) Register(owner [32]byte, p RegisterParams) (*McpServerEntry, error) {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := validateCommon(p); err != nil {
		return nil, err
	}
	addr, bump, err := pda.FindMcpAddress(p.ID, owner)
	if err != nil {
		return nil, err
	}
	if _, ok := e.state.McpGet(addr); ok {
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
	entry := &McpServerEntry{
		Bump:                  bump,
		RegistryVersion:       CurrentRegistryVersion,
		OwnerAuthority:        owner,
		ID:                    p.ID,
		Status:                common.StatusPending,
		RegistrationTimestamp: now,
		LastUpdateTimestamp:   now,
		Tags:                  append([]string(nil), p.Tags...),
		Name:                  p.Name,
		ServerVersion:         p.ServerVersion,
		ServiceEndpoint:       p.ServiceEndpoint,
		DocumentationURL:      p.DocumentationURL,
		CapabilitiesSummary:   p.CapabilitiesSummary,
		SupportsResources:     p.SupportsResources,
		SupportsTools:         p.SupportsTools,
		SupportsPrompts:       p.SupportsPrompts,
		Tools:                 append([]ToolDefinition(nil), p.Tools...),
		Resources:             append([]ResourceDefinition(nil), p.Resources...),
		Prompts:               append([]PromptDefinition(nil), p.Prompts...),
		FullCapabilitiesURI:   p.FullCapabilitiesURI,
	}
	entry.SetStateVersion(0)
	if err := e.state.McpPut(entry); err != nil {
		return nil, err
	}
	emitRegistered(e.emitter, entry)
	return entry, nil
}

// UpdatePatch is the partial-update payload for UpdateDetails (spec §4.H,
// same semantics as native/agentregistry.UpdatePatch): tool/resource/prompt
// vectors "replace wholesale" per spec §4.H.
type UpdatePatch struct {
	Name          *string
	ServerVersion *string

	ServiceEndpoint *string

	DocumentationURL      *string
	ClearDocumentationURL bool

	CapabilitiesSummary      *string
	ClearCapabilitiesSummary bool

	SupportsResources *bool
	SupportsTools     *bool
	SupportsPrompts   *bool

	Tools     *[]ToolDefinition
	Resources *[]ResourceDefinition
	Prompts   *[]PromptDefinition

	FullCapabilitiesURI      *string
	ClearFullCapabilitiesURI bool

	Tags *[]string
}

func (p UpdatePatch) apply(a *McpServerEntry) (RegisterParams, []string) {
	merged := RegisterParams{
		ID:                  a.ID,
		Name:                a.Name,
		ServerVersion:       a.ServerVersion,
		ServiceEndpoint:     a.ServiceEndpoint,
		DocumentationURL:    a.DocumentationURL,
		CapabilitiesSummary: a.CapabilitiesSummary,
		SupportsResources:   a.SupportsResources,
		SupportsTools:       a.SupportsTools,
		SupportsPrompts:     a.SupportsPrompts,
		Tools:               a.Tools,
		Resources:           a.Resources,
		Prompts:             a.Prompts,
		FullCapabilitiesURI: a.FullCapabilitiesURI,
		Tags:                a.Tags,
	}
	var changed []string

	if p.Name != nil {
		merged.Name = *p.Name
		changed = append(changed, "name")
	}
	if p.ServerVersion != nil {
		merged.ServerVersion = *p.ServerVersion
		changed = append(changed, "server_version")
	}
	if p.ServiceEndpoint != nil {
		merged.ServiceEndpoint = *p.ServiceEndpoint
		changed = append(changed, "service_endpoint")
	}
	if p.DocumentationURL != nil {
		merged.DocumentationURL = p.DocumentationURL
		changed = append(changed, "documentation_url")
	} else if p.ClearDocumentationURL {
		merged.DocumentationURL = nil
		changed = append(changed, "documentation_url")
	}
	if p.CapabilitiesSummary != nil {
		merged.CapabilitiesSummary = p.CapabilitiesSummary
		changed = append(changed, "capabilities_summary")
	} else if p.ClearCapabilitiesSummary {
		merged.CapabilitiesSummary = nil
		changed = append(changed, "capabilities_summary")
	}
	if p.SupportsResources != nil {
		merged.SupportsResources = *p.SupportsResources
		changed = append(changed, "supports_resources")
	}
	if p.SupportsTools != nil {
		merged.SupportsTools = *p.SupportsTools
		changed = append(changed, "supports_tools")
	}
	if p.SupportsPrompts != nil {
		merged.SupportsPrompts = *p.SupportsPrompts
		changed = append(changed, "supports_prompts")
	}
	if p.Tools != nil {
		merged.Tools = *p.Tools
		changed = append(changed, "tools")
	}
	if p.Resources != nil {
		merged.Resources = *p.Resources
		changed = append(changed, "resources")
	}
	if p.Prompts != nil {
		merged.Prompts = *p.Prompts
		changed = append(changed, "prompts")
	}
	if p.FullCapabilitiesURI != nil {
		merged.FullCapabilitiesURI = p.FullCapabilitiesURI
		changed = append(changed, "full_capabilities_uri")
	} else if p.ClearFullCapabilitiesURI {
		merged.FullCapabilitiesURI = nil
		changed = append(changed, "full_capabilities_uri")
	}
	if p.Tags != nil {
		merged.Tags = *p.Tags
		changed = append(changed, "tags")
	}
	return merged, changed
}

// UpdateDetails applies a partial update under the concurrency guard (spec
// §4.H, §4.I). L1: an empty patch is a no-op.
func (e *Engine) UpdateDetails(id string, signer [32]byte, owner [32]byte, patch UpdatePatch) (*McpServerEntry, error) {
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
		return entry, nil
	}
	merged.ID = entry.ID
	if err := validateCommon(merged); err != nil {
		return nil, err
	}

	now := e.now()
	err = common.WithConcurrencyGuard(entry, now, func() error {
		entry.Name = merged.Name
		entry.ServerVersion = merged.ServerVersion
		entry.ServiceEndpoint = merged.ServiceEndpoint
		entry.DocumentationURL = merged.DocumentationURL
		entry.CapabilitiesSummary = merged.CapabilitiesSummary
		entry.SupportsResources = merged.SupportsResources
		entry.SupportsTools = merged.SupportsTools
		entry.SupportsPrompts = merged.SupportsPrompts
		entry.Tools = merged.Tools
		entry.Resources = merged.Resources
		entry.Prompts = merged.Prompts
		entry.FullCapabilitiesURI = merged.FullCapabilitiesURI
		entry.Tags = merged.Tags
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := e.state.McpPut(entry); err != nil {
		return nil, err
	}
	emitUpdated(e.emitter, entry, changed)
	return entry, nil
}

// UpdateStatus transitions the entry's status (spec §4.H). L2: setting the
// current status is a no-op.
func (e *Engine) UpdateStatus(id string, signer [32]byte, owner [32]byte, newStatus common.Status) (*McpServerEntry, error) {
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
	if err := common.ValidateStatusRange(newStatus, arcerr.CodeInvalidMcpServerStatus); err != nil {
		return nil, err
	}
	if entry.Status == newStatus {
		return entry, nil
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
	if err := e.state.McpPut(entry); err != nil {
		return nil, err
	}
	emitStatusChanged(e.emitter, entry, uint8(old), uint8(newStatus))
	return entry, nil
}

// Deregister sets status to Deregistered (spec §4.H). L3: deregistering an
// already-deregistered entry is a no-op.
func (e *Engine) Deregister(id string, signer [32]byte, owner [32]byte) (*McpServerEntry, error) {
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
	if err := e.state.McpPut(entry); err != nil {
		return nil, err
	}
	emitDeregistered(e.emitter, entry)
	return entry, nil
}

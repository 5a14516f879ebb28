// Package program is the operation-dispatch surface described in the
// external-interface contract: every inbound operation is a 1-byte
// discriminant followed by a length-prefixed payload, routed to the
// matching registry or access-control engine. The payload codecs reuse the
// same length-prefixed primitives the account layouts use, so a client SDK
// and this dispatcher share one encoding vocabulary.
package program

import (
	"arcchain/arcerr"
	"arcchain/codec"
	"arcchain/native/accesscontrol"
	"arcchain/native/agentregistry"
	"arcchain/native/mcpregistry"
)

// Agent registry operation discriminants. 0-3 are the core lifecycle ops;
// 4-5 are the authorised-caller record ops invoked by the escrow and
// dispute-resolution programs.
const (
	AgentOpRegister byte = iota
	AgentOpUpdateDetails
	AgentOpUpdateStatus
	AgentOpDeregister
	AgentOpRecordServiceCompletion
	AgentOpRecordDisputeOutcome
)

// MCP server registry operation discriminants.
const (
	McpOpRegister byte = iota
	McpOpUpdateDetails
	McpOpUpdateStatus
	McpOpDeregister
)

// Access-control operation discriminants.
const (
	AccessOpInitialize byte = iota
	AccessOpVerifySignature
	AccessOpExecute
	AccessOpGrant
	AccessOpRevoke
	AccessOpTransferOwnership
	AccessOpPruneExpired
	AccessOpUpdateNonce
)

// maxInstructionPayload bounds a single instruction's payload so a
// malformed length prefix can never drive a large allocation. The largest
// legitimate payload (a full agent registration) fits well inside it.
const maxInstructionPayload = 16 * 1024

// Frame prepends the discriminant and 4-byte length prefix to payload,
// producing the wire form Dispatch* consumes.
func Frame(op byte, payload []byte) []byte {
	w := codec.NewWriter(1 + 4 + len(payload))
	w.PutU8(op)
	w.PutU32(uint32(len(payload)))
	w.PutBytes(payload)
	return w.Bytes()
}

// unframe splits wire data into its discriminant and payload, rejecting
// truncated or oversized frames.
func unframe(data []byte) (byte, []byte, error) {
	r := codec.NewReader(data)
	op := r.U8()
	n := r.U32()
	if r.Err() != nil {
		return 0, nil, arcerr.Wrap(arcerr.CodeInvalidProgramAccount, "truncated instruction header")
	}
	if n > maxInstructionPayload {
		return 0, nil, arcerr.Wrap(arcerr.CodeInvalidProgramAccount, "instruction payload too large")
	}
	payload := r.Bytes(int(n))
	if r.Err() != nil || r.Remaining() != 0 {
		return 0, nil, arcerr.Wrap(arcerr.CodeInvalidProgramAccount, "instruction payload length mismatch")
	}
	return op, payload, nil
}

// --- shared payload helpers ---

func putStrings(w *codec.Writer, ss []string, maxLen int) {
	w.PutU32(uint32(len(ss)))
	for _, s := range ss {
		w.PutString(s, maxLen)
	}
}

// readStrings decodes a counted string vector. Element counts beyond the
// schema bound are still decoded (the engine's validation rejects them with
// the right error code); only the allocation is capped, so a forged count
// can never drive a large allocation — the payload bound catches the
// underrun first.
func readStrings(r *codec.Reader, maxItems, maxLen int) []string {
	n := r.U32()
	out := make([]string, 0, capCount(n, maxItems))
	for i := uint32(0); i < n; i++ {
		out = append(out, r.String(maxLen))
		if r.Err() != nil {
			return out
		}
	}
	return out
}

func capCount(n uint32, maxItems int) int {
	if int(n) > maxItems {
		return maxItems
	}
	return int(n)
}

func putHash(w *codec.Writer, h [32]byte) { w.PutBytes(h[:]) }

func readHash(r *codec.Reader) [32]byte {
	var h [32]byte
	copy(h[:], r.Bytes(32))
	return h
}

func putOptionalHash(w *codec.Writer, h *[32]byte) {
	if h == nil {
		w.PutU8(0)
		w.PutBytes(make([]byte, 32))
		return
	}
	w.PutU8(1)
	w.PutBytes(h[:])
}

func readOptionalHash(r *codec.Reader) *[32]byte {
	disc := r.U8()
	h := readHash(r)
	if disc == 0 {
		return nil
	}
	return &h
}

// --- agent registry payloads ---

func putServiceEndpoints(w *codec.Writer, eps []agentregistry.ServiceEndpoint) {
	w.PutU32(uint32(len(eps)))
	for _, ep := range eps {
		w.PutString(ep.Protocol, agentregistry.MaxProtocolLength)
		w.PutString(ep.URL, agentregistry.MaxEndpointURLLength)
		w.PutBool(ep.IsDefault)
	}
}

func readServiceEndpoints(r *codec.Reader) []agentregistry.ServiceEndpoint {
	n := r.U32()
	out := make([]agentregistry.ServiceEndpoint, 0, capCount(n, agentregistry.MaxServiceEndpoints))
	for i := uint32(0); i < n; i++ {
		out = append(out, agentregistry.ServiceEndpoint{
			Protocol:  r.String(agentregistry.MaxProtocolLength),
			URL:       r.String(agentregistry.MaxEndpointURLLength),
			IsDefault: r.Bool(),
		})
		if r.Err() != nil {
			return out
		}
	}
	return out
}

func putSkills(w *codec.Writer, skills []agentregistry.Skill) {
	w.PutU32(uint32(len(skills)))
	for _, s := range skills {
		w.PutString(s.ID, agentregistry.MaxSkillIDLength)
		w.PutString(s.Name, agentregistry.MaxSkillNameLength)
		putOptionalHash(w, s.DescriptionHash)
		putStrings(w, s.Tags, agentregistry.MaxTagLength)
	}
}

func readSkills(r *codec.Reader) []agentregistry.Skill {
	n := r.U32()
	out := make([]agentregistry.Skill, 0, capCount(n, agentregistry.MaxSkills))
	for i := uint32(0); i < n; i++ {
		out = append(out, agentregistry.Skill{
			ID:              r.String(agentregistry.MaxSkillIDLength),
			Name:            r.String(agentregistry.MaxSkillNameLength),
			DescriptionHash: readOptionalHash(r),
			Tags:            readStrings(r, agentregistry.MaxSkillTags, agentregistry.MaxTagLength),
		})
		if r.Err() != nil {
			return out
		}
	}
	return out
}

// EncodeAgentRegister serialises a Register payload (op AgentOpRegister).
func EncodeAgentRegister(p agentregistry.RegisterParams) []byte {
	w := codec.NewWriter(512)
	w.PutString(p.ID, agentregistry.MaxIDLength)
	w.PutString(p.Name, agentregistry.MaxNameLength)
	w.PutString(p.Description, agentregistry.MaxDescriptionLength)
	w.PutString(p.AgentVersion, agentregistry.MaxVersionLength)
	w.PutOptionalString(p.ProviderName, agentregistry.MaxProviderNameLength)
	w.PutOptionalString(p.ProviderURL, agentregistry.MaxProviderURLLength)
	w.PutOptionalString(p.DocumentationURL, agentregistry.MaxDocumentationURLLength)
	putServiceEndpoints(w, p.ServiceEndpoints)
	w.PutU64(p.CapabilitiesFlags)
	putStrings(w, p.SupportedInputModes, agentregistry.MaxModeLength)
	putStrings(w, p.SupportedOutputModes, agentregistry.MaxModeLength)
	putSkills(w, p.Skills)
	w.PutOptionalString(p.SecurityInfoURI, agentregistry.MaxSecurityInfoURILength)
	w.PutOptionalString(p.AeaAddress, agentregistry.MaxAeaAddressLength)
	w.PutOptionalString(p.EconomicIntentSummary, agentregistry.MaxEconomicIntentSummaryLength)
	putHash(w, p.SupportedAeaProtocolsHash)
	w.PutOptionalString(p.ExtendedMetadataURI, agentregistry.MaxExtendedMetadataURILength)
	putStrings(w, p.Tags, agentregistry.MaxTagLength)
	return w.Bytes()
}

func decodeAgentRegister(r *codec.Reader) agentregistry.RegisterParams {
	return agentregistry.RegisterParams{
		ID:                        r.String(agentregistry.MaxIDLength),
		Name:                      r.String(agentregistry.MaxNameLength),
		Description:               r.String(agentregistry.MaxDescriptionLength),
		AgentVersion:              r.String(agentregistry.MaxVersionLength),
		ProviderName:              r.OptionalString(agentregistry.MaxProviderNameLength),
		ProviderURL:               r.OptionalString(agentregistry.MaxProviderURLLength),
		DocumentationURL:          r.OptionalString(agentregistry.MaxDocumentationURLLength),
		ServiceEndpoints:          readServiceEndpoints(r),
		CapabilitiesFlags:         r.U64(),
		SupportedInputModes:       readStrings(r, agentregistry.MaxSupportedModes, agentregistry.MaxModeLength),
		SupportedOutputModes:      readStrings(r, agentregistry.MaxSupportedModes, agentregistry.MaxModeLength),
		Skills:                    readSkills(r),
		SecurityInfoURI:           r.OptionalString(agentregistry.MaxSecurityInfoURILength),
		AeaAddress:                r.OptionalString(agentregistry.MaxAeaAddressLength),
		EconomicIntentSummary:     r.OptionalString(agentregistry.MaxEconomicIntentSummaryLength),
		SupportedAeaProtocolsHash: readHash(r),
		ExtendedMetadataURI:       r.OptionalString(agentregistry.MaxExtendedMetadataURILength),
		Tags:                      readStrings(r, agentregistry.MaxAgentTags, agentregistry.MaxTagLength),
	}
}

// Patch field presence on the wire: one byte per field. A set pointer and a
// clear flag are encoded independently, matching the patch record's "both
// absent leaves intact" semantics exactly.

func putPresentString(w *codec.Writer, s *string, maxLen int) {
	w.PutOptionalString(s, maxLen)
}

func putPresentStrings(w *codec.Writer, ss *[]string, maxLen int) {
	if ss == nil {
		w.PutBool(false)
		return
	}
	w.PutBool(true)
	putStrings(w, *ss, maxLen)
}

func readPresentStrings(r *codec.Reader, maxItems, maxLen int) *[]string {
	if !r.Bool() {
		return nil
	}
	v := readStrings(r, maxItems, maxLen)
	return &v
}

func putPresentU64(w *codec.Writer, v *uint64) {
	if v == nil {
		w.PutBool(false)
		w.PutU64(0)
		return
	}
	w.PutBool(true)
	w.PutU64(*v)
}

func readPresentU64(r *codec.Reader) *uint64 {
	present := r.Bool()
	v := r.U64()
	if !present {
		return nil
	}
	return &v
}

func putPresentBool(w *codec.Writer, v *bool) {
	if v == nil {
		w.PutBool(false)
		w.PutBool(false)
		return
	}
	w.PutBool(true)
	w.PutBool(*v)
}

func readPresentBool(r *codec.Reader) *bool {
	present := r.Bool()
	v := r.Bool()
	if !present {
		return nil
	}
	return &v
}

// EncodeAgentUpdateDetails serialises an UpdateDetails payload (op
// AgentOpUpdateDetails): the entry id followed by the patch record.
func EncodeAgentUpdateDetails(id string, p agentregistry.UpdatePatch) []byte {
	w := codec.NewWriter(256)
	w.PutString(id, agentregistry.MaxIDLength)
	putPresentString(w, p.Name, agentregistry.MaxNameLength)
	putPresentString(w, p.Description, agentregistry.MaxDescriptionLength)
	putPresentString(w, p.AgentVersion, agentregistry.MaxVersionLength)
	putPresentString(w, p.ProviderName, agentregistry.MaxProviderNameLength)
	w.PutBool(p.ClearProviderName)
	putPresentString(w, p.ProviderURL, agentregistry.MaxProviderURLLength)
	w.PutBool(p.ClearProviderURL)
	putPresentString(w, p.DocumentationURL, agentregistry.MaxDocumentationURLLength)
	w.PutBool(p.ClearDocumentationURL)
	if p.ServiceEndpoints == nil {
		w.PutBool(false)
	} else {
		w.PutBool(true)
		putServiceEndpoints(w, *p.ServiceEndpoints)
	}
	putPresentU64(w, p.CapabilitiesFlags)
	putPresentStrings(w, p.SupportedInputModes, agentregistry.MaxModeLength)
	putPresentStrings(w, p.SupportedOutputModes, agentregistry.MaxModeLength)
	if p.Skills == nil {
		w.PutBool(false)
	} else {
		w.PutBool(true)
		putSkills(w, *p.Skills)
	}
	putPresentString(w, p.SecurityInfoURI, agentregistry.MaxSecurityInfoURILength)
	w.PutBool(p.ClearSecurityInfoURI)
	putPresentString(w, p.AeaAddress, agentregistry.MaxAeaAddressLength)
	w.PutBool(p.ClearAeaAddress)
	putPresentString(w, p.EconomicIntentSummary, agentregistry.MaxEconomicIntentSummaryLength)
	w.PutBool(p.ClearEconomicIntentSummary)
	if p.SupportedAeaProtocolsHash == nil {
		w.PutBool(false)
		w.PutBytes(make([]byte, 32))
	} else {
		w.PutBool(true)
		w.PutBytes(p.SupportedAeaProtocolsHash[:])
	}
	putPresentString(w, p.ExtendedMetadataURI, agentregistry.MaxExtendedMetadataURILength)
	w.PutBool(p.ClearExtendedMetadataURI)
	putPresentStrings(w, p.Tags, agentregistry.MaxTagLength)
	return w.Bytes()
}

func decodeAgentUpdateDetails(r *codec.Reader) (string, agentregistry.UpdatePatch) {
	id := r.String(agentregistry.MaxIDLength)
	var p agentregistry.UpdatePatch
	p.Name = r.OptionalString(agentregistry.MaxNameLength)
	p.Description = r.OptionalString(agentregistry.MaxDescriptionLength)
	p.AgentVersion = r.OptionalString(agentregistry.MaxVersionLength)
	p.ProviderName = r.OptionalString(agentregistry.MaxProviderNameLength)
	p.ClearProviderName = r.Bool()
	p.ProviderURL = r.OptionalString(agentregistry.MaxProviderURLLength)
	p.ClearProviderURL = r.Bool()
	p.DocumentationURL = r.OptionalString(agentregistry.MaxDocumentationURLLength)
	p.ClearDocumentationURL = r.Bool()
	if r.Bool() {
		eps := readServiceEndpoints(r)
		p.ServiceEndpoints = &eps
	}
	p.CapabilitiesFlags = readPresentU64(r)
	p.SupportedInputModes = readPresentStrings(r, agentregistry.MaxSupportedModes, agentregistry.MaxModeLength)
	p.SupportedOutputModes = readPresentStrings(r, agentregistry.MaxSupportedModes, agentregistry.MaxModeLength)
	if r.Bool() {
		skills := readSkills(r)
		p.Skills = &skills
	}
	p.SecurityInfoURI = r.OptionalString(agentregistry.MaxSecurityInfoURILength)
	p.ClearSecurityInfoURI = r.Bool()
	p.AeaAddress = r.OptionalString(agentregistry.MaxAeaAddressLength)
	p.ClearAeaAddress = r.Bool()
	p.EconomicIntentSummary = r.OptionalString(agentregistry.MaxEconomicIntentSummaryLength)
	p.ClearEconomicIntentSummary = r.Bool()
	hashPresent := r.Bool()
	hash := readHash(r)
	if hashPresent {
		p.SupportedAeaProtocolsHash = &hash
	}
	p.ExtendedMetadataURI = r.OptionalString(agentregistry.MaxExtendedMetadataURILength)
	p.ClearExtendedMetadataURI = r.Bool()
	p.Tags = readPresentStrings(r, agentregistry.MaxAgentTags, agentregistry.MaxTagLength)
	return id, p
}

// EncodeUpdateStatus serialises an UpdateStatus payload for either registry
// (ops AgentOpUpdateStatus / McpOpUpdateStatus): the entry id plus the raw
// status byte.
func EncodeUpdateStatus(id string, status uint8) []byte {
	w := codec.NewWriter(8 + len(id))
	w.PutString(id, agentregistry.MaxIDLength)
	w.PutU8(status)
	return w.Bytes()
}

// EncodeDeregister serialises a Deregister payload for either registry.
func EncodeDeregister(id string) []byte {
	w := codec.NewWriter(8 + len(id))
	w.PutString(id, agentregistry.MaxIDLength)
	return w.Bytes()
}

// EncodeRecordServiceCompletion serialises the escrow callback payload (op
// AgentOpRecordServiceCompletion). The entry owner rides in the payload
// because the invoking signer is the escrow program, not the owner.
func EncodeRecordServiceCompletion(id string, owner [32]byte, earnings uint64, ratingCenti uint32, responseTimeSecs uint64) []byte {
	w := codec.NewWriter(64 + len(id))
	w.PutString(id, agentregistry.MaxIDLength)
	w.PutBytes(owner[:])
	w.PutU64(earnings)
	w.PutU32(ratingCenti)
	w.PutU64(responseTimeSecs)
	return w.Bytes()
}

// EncodeRecordDisputeOutcome serialises the dispute-resolution callback
// payload (op AgentOpRecordDisputeOutcome).
func EncodeRecordDisputeOutcome(id string, owner [32]byte, won bool) []byte {
	w := codec.NewWriter(40 + len(id))
	w.PutString(id, agentregistry.MaxIDLength)
	w.PutBytes(owner[:])
	w.PutBool(won)
	return w.Bytes()
}

// --- MCP registry payloads ---

func putTools(w *codec.Writer, tools []mcpregistry.ToolDefinition) {
	w.PutU32(uint32(len(tools)))
	for _, t := range tools {
		w.PutString(t.Name, mcpregistry.MaxToolNameLength)
		putHash(w, t.DescriptionHash)
		putHash(w, t.InputSchemaHash)
		putHash(w, t.OutputSchemaHash)
		putStrings(w, t.Tags, mcpregistry.MaxTagLength)
	}
}

func readTools(r *codec.Reader) []mcpregistry.ToolDefinition {
	n := r.U32()
	out := make([]mcpregistry.ToolDefinition, 0, capCount(n, mcpregistry.MaxToolDefinitions))
	for i := uint32(0); i < n; i++ {
		out = append(out, mcpregistry.ToolDefinition{
			Name:             r.String(mcpregistry.MaxToolNameLength),
			DescriptionHash:  readHash(r),
			InputSchemaHash:  readHash(r),
			OutputSchemaHash: readHash(r),
			Tags:             readStrings(r, mcpregistry.MaxToolTags, mcpregistry.MaxTagLength),
		})
		if r.Err() != nil {
			return out
		}
	}
	return out
}

func putResources(w *codec.Writer, resources []mcpregistry.ResourceDefinition) {
	w.PutU32(uint32(len(resources)))
	for _, res := range resources {
		w.PutString(res.URIPattern, mcpregistry.MaxURIPatternLength)
		putHash(w, res.DescriptionHash)
		putStrings(w, res.Tags, mcpregistry.MaxTagLength)
	}
}

func readResources(r *codec.Reader) []mcpregistry.ResourceDefinition {
	n := r.U32()
	out := make([]mcpregistry.ResourceDefinition, 0, capCount(n, mcpregistry.MaxResourceDefinitions))
	for i := uint32(0); i < n; i++ {
		out = append(out, mcpregistry.ResourceDefinition{
			URIPattern:      r.String(mcpregistry.MaxURIPatternLength),
			DescriptionHash: readHash(r),
			Tags:            readStrings(r, mcpregistry.MaxResourceTags, mcpregistry.MaxTagLength),
		})
		if r.Err() != nil {
			return out
		}
	}
	return out
}

func putPrompts(w *codec.Writer, prompts []mcpregistry.PromptDefinition) {
	w.PutU32(uint32(len(prompts)))
	for _, p := range prompts {
		w.PutString(p.Name, mcpregistry.MaxPromptNameLength)
		putHash(w, p.DescriptionHash)
		putStrings(w, p.Tags, mcpregistry.MaxTagLength)
	}
}

func readPrompts(r *codec.Reader) []mcpregistry.PromptDefinition {
	n := r.U32()
	out := make([]mcpregistry.PromptDefinition, 0, capCount(n, mcpregistry.MaxPromptDefinitions))
	for i := uint32(0); i < n; i++ {
		out = append(out, mcpregistry.PromptDefinition{
			Name:            r.String(mcpregistry.MaxPromptNameLength),
			DescriptionHash: readHash(r),
			Tags:            readStrings(r, mcpregistry.MaxPromptTags, mcpregistry.MaxTagLength),
		})
		if r.Err() != nil {
			return out
		}
	}
	return out
}

// EncodeMcpRegister serialises a Register payload (op McpOpRegister).
func EncodeMcpRegister(p mcpregistry.RegisterParams) []byte {
	w := codec.NewWriter(512)
	w.PutString(p.ID, mcpregistry.MaxIDLength)
	w.PutString(p.Name, mcpregistry.MaxNameLength)
	w.PutString(p.ServerVersion, mcpregistry.MaxVersionLength)
	w.PutString(p.ServiceEndpoint, mcpregistry.MaxEndpointURLLength)
	w.PutOptionalString(p.DocumentationURL, mcpregistry.MaxDocumentationURLLength)
	w.PutOptionalString(p.CapabilitiesSummary, mcpregistry.MaxCapabilitiesSummaryLength)
	w.PutBool(p.SupportsResources)
	w.PutBool(p.SupportsTools)
	w.PutBool(p.SupportsPrompts)
	putTools(w, p.Tools)
	putResources(w, p.Resources)
	putPrompts(w, p.Prompts)
	w.PutOptionalString(p.FullCapabilitiesURI, mcpregistry.MaxFullCapabilitiesURILength)
	putStrings(w, p.Tags, mcpregistry.MaxTagLength)
	return w.Bytes()
}

func decodeMcpRegister(r *codec.Reader) mcpregistry.RegisterParams {
	return mcpregistry.RegisterParams{
		ID:                  r.String(mcpregistry.MaxIDLength),
		Name:                r.String(mcpregistry.MaxNameLength),
		ServerVersion:       r.String(mcpregistry.MaxVersionLength),
		ServiceEndpoint:     r.String(mcpregistry.MaxEndpointURLLength),
		DocumentationURL:    r.OptionalString(mcpregistry.MaxDocumentationURLLength),
		CapabilitiesSummary: r.OptionalString(mcpregistry.MaxCapabilitiesSummaryLength),
		SupportsResources:   r.Bool(),
		SupportsTools:       r.Bool(),
		SupportsPrompts:     r.Bool(),
		Tools:               readTools(r),
		Resources:           readResources(r),
		Prompts:             readPrompts(r),
		FullCapabilitiesURI: r.OptionalString(mcpregistry.MaxFullCapabilitiesURILength),
		Tags:                readStrings(r, mcpregistry.MaxServerTags, mcpregistry.MaxTagLength),
	}
}

// EncodeMcpUpdateDetails serialises an UpdateDetails payload (op
// McpOpUpdateDetails).
func EncodeMcpUpdateDetails(id string, p mcpregistry.UpdatePatch) []byte {
	w := codec.NewWriter(256)
	w.PutString(id, mcpregistry.MaxIDLength)
	putPresentString(w, p.Name, mcpregistry.MaxNameLength)
	putPresentString(w, p.ServerVersion, mcpregistry.MaxVersionLength)
	putPresentString(w, p.ServiceEndpoint, mcpregistry.MaxEndpointURLLength)
	putPresentString(w, p.DocumentationURL, mcpregistry.MaxDocumentationURLLength)
	w.PutBool(p.ClearDocumentationURL)
	putPresentString(w, p.CapabilitiesSummary, mcpregistry.MaxCapabilitiesSummaryLength)
	w.PutBool(p.ClearCapabilitiesSummary)
	putPresentBool(w, p.SupportsResources)
	putPresentBool(w, p.SupportsTools)
	putPresentBool(w, p.SupportsPrompts)
	if p.Tools == nil {
		w.PutBool(false)
	} else {
		w.PutBool(true)
		putTools(w, *p.Tools)
	}
	if p.Resources == nil {
		w.PutBool(false)
	} else {
		w.PutBool(true)
		putResources(w, *p.Resources)
	}
	if p.Prompts == nil {
		w.PutBool(false)
	} else {
		w.PutBool(true)
		putPrompts(w, *p.Prompts)
	}
	putPresentString(w, p.FullCapabilitiesURI, mcpregistry.MaxFullCapabilitiesURILength)
	w.PutBool(p.ClearFullCapabilitiesURI)
	putPresentStrings(w, p.Tags, mcpregistry.MaxTagLength)
	return w.Bytes()
}

func decodeMcpUpdateDetails(r *codec.Reader) (string, mcpregistry.UpdatePatch) {
	id := r.String(mcpregistry.MaxIDLength)
	var p mcpregistry.UpdatePatch
	p.Name = r.OptionalString(mcpregistry.MaxNameLength)
	p.ServerVersion = r.OptionalString(mcpregistry.MaxVersionLength)
	p.ServiceEndpoint = r.OptionalString(mcpregistry.MaxEndpointURLLength)
	p.DocumentationURL = r.OptionalString(mcpregistry.MaxDocumentationURLLength)
	p.ClearDocumentationURL = r.Bool()
	p.CapabilitiesSummary = r.OptionalString(mcpregistry.MaxCapabilitiesSummaryLength)
	p.ClearCapabilitiesSummary = r.Bool()
	p.SupportsResources = readPresentBool(r)
	p.SupportsTools = readPresentBool(r)
	p.SupportsPrompts = readPresentBool(r)
	if r.Bool() {
		tools := readTools(r)
		p.Tools = &tools
	}
	if r.Bool() {
		resources := readResources(r)
		p.Resources = &resources
	}
	if r.Bool() {
		prompts := readPrompts(r)
		p.Prompts = &prompts
	}
	p.FullCapabilitiesURI = r.OptionalString(mcpregistry.MaxFullCapabilitiesURILength)
	p.ClearFullCapabilitiesURI = r.Bool()
	p.Tags = readPresentStrings(r, mcpregistry.MaxServerTags, mcpregistry.MaxTagLength)
	return id, p
}

// --- access-control payloads ---

const (
	maxResourceIDLength = accesscontrol.MaxResourceIDLength
	maxOperationLength  = accesscontrol.MaxOperationLength
)

// EncodeAccessInitialize serialises an Initialize payload (op
// AccessOpInitialize).
func EncodeAccessInitialize(resourceID string, resourceProgram, initialOwner [32]byte) []byte {
	w := codec.NewWriter(80 + len(resourceID))
	w.PutString(resourceID, maxResourceIDLength)
	w.PutBytes(resourceProgram[:])
	w.PutBytes(initialOwner[:])
	return w.Bytes()
}

// EncodeAccessVerifySignature serialises a VerifySig payload (op
// AccessOpVerifySignature).
func EncodeAccessVerifySignature(resourceID string, resourceProgram [32]byte, operation string, sig [64]byte, nonce uint64, timestamp int64, payload []byte) []byte {
	w := codec.NewWriter(160 + len(resourceID) + len(payload))
	w.PutString(resourceID, maxResourceIDLength)
	w.PutBytes(resourceProgram[:])
	w.PutString(operation, maxOperationLength)
	w.PutBytes(sig[:])
	w.PutU64(nonce)
	w.PutI64(timestamp)
	w.PutU32(uint32(len(payload)))
	w.PutBytes(payload)
	return w.Bytes()
}

// EncodeAccessExecute serialises an Execute payload (op AccessOpExecute).
func EncodeAccessExecute(resourceID string, resourceProgram [32]byte, operation string, targetProgram [32]byte) []byte {
	w := codec.NewWriter(112 + len(resourceID))
	w.PutString(resourceID, maxResourceIDLength)
	w.PutBytes(resourceProgram[:])
	w.PutString(operation, maxOperationLength)
	w.PutBytes(targetProgram[:])
	return w.Bytes()
}

// EncodeAccessGrant serialises a Grant payload (op AccessOpGrant).
func EncodeAccessGrant(resourceID string, resourceProgram, targetWallet [32]byte, permissions []string, expiresAt *int64, canDelegate bool, maxDelegationDepth uint8) []byte {
	w := codec.NewWriter(128 + len(resourceID))
	w.PutString(resourceID, maxResourceIDLength)
	w.PutBytes(resourceProgram[:])
	w.PutBytes(targetWallet[:])
	putStrings(w, permissions, maxOperationLength)
	w.PutOptionalI64(expiresAt)
	w.PutBool(canDelegate)
	w.PutU8(maxDelegationDepth)
	return w.Bytes()
}

// EncodeAccessRevoke serialises a Revoke payload (op AccessOpRevoke).
func EncodeAccessRevoke(resourceID string, resourceProgram, targetWallet [32]byte, revokeDelegated bool) []byte {
	w := codec.NewWriter(80 + len(resourceID))
	w.PutString(resourceID, maxResourceIDLength)
	w.PutBytes(resourceProgram[:])
	w.PutBytes(targetWallet[:])
	w.PutBool(revokeDelegated)
	return w.Bytes()
}

// EncodeAccessTransferOwnership serialises a TransferOwnership payload (op
// AccessOpTransferOwnership).
func EncodeAccessTransferOwnership(resourceID string, resourceProgram, newOwner [32]byte) []byte {
	w := codec.NewWriter(80 + len(resourceID))
	w.PutString(resourceID, maxResourceIDLength)
	w.PutBytes(resourceProgram[:])
	w.PutBytes(newOwner[:])
	return w.Bytes()
}

// EncodeAccessPruneExpired serialises a PruneExpired payload (op
// AccessOpPruneExpired).
func EncodeAccessPruneExpired(resourceID string, resourceProgram [32]byte, maxToPrune uint32) []byte {
	w := codec.NewWriter(48 + len(resourceID))
	w.PutString(resourceID, maxResourceIDLength)
	w.PutBytes(resourceProgram[:])
	w.PutU32(maxToPrune)
	return w.Bytes()
}

// EncodeAccessUpdateNonce serialises an UpdateNonce payload (op
// AccessOpUpdateNonce).
func EncodeAccessUpdateNonce(resourceID string, resourceProgram [32]byte, newNonce uint64) []byte {
	w := codec.NewWriter(48 + len(resourceID))
	w.PutString(resourceID, maxResourceIDLength)
	w.PutBytes(resourceProgram[:])
	w.PutU64(newNonce)
	return w.Bytes()
}

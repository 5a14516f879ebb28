// Package mcpregistry implements the MCP-server registry state machine
// (spec §3.1, §4.H): the same envelope as native/agentregistry, with MCP
// tool/resource/prompt summary fields in place of agent skills, and no
// default-endpoint invariant (a server has exactly one service endpoint).
//
// Grounded on native/escrow/types.go's Sanitize*/Clone/status-enum-with-
// Valid() shape, shared with native/agentregistry rather than duplicated
// through an inheritance hierarchy (spec DESIGN NOTES §9).
package mcpregistry

import (
	"arcchain/arcerr"
	"arcchain/codec"
	"arcchain/native/common"
)

// Field bounds (spec §3.1).
const (
	MaxIDLength                 = 64
	MaxServerTags               = 10
	MaxTagLength                = 32
	MaxNameLength               = 128
	MaxVersionLength            = 32
	MaxEndpointURLLength        = 256
	MaxDocumentationURLLength   = 256
	MaxCapabilitiesSummaryLength = 256
	MaxToolDefinitions          = 5
	MaxToolNameLength           = 64
	MaxToolTags                 = 3
	MaxResourceDefinitions      = 5
	MaxURIPatternLength         = 128
	MaxResourceTags             = 3
	MaxPromptDefinitions        = 5
	MaxPromptNameLength         = 64
	MaxPromptTags               = 3
	MaxFullCapabilitiesURILength = 256
)

// CurrentRegistryVersion is the schema version new registrations are
// stamped with (spec §3.1).
const CurrentRegistryVersion uint8 = 1

// ToolDefinition is an on-chain summary of one MCP tool (spec §3.1): full
// schemas live off-chain, only content hashes are stored on-chain.
type ToolDefinition struct {
	Name               string
	DescriptionHash    [32]byte
	InputSchemaHash    [32]byte
	OutputSchemaHash   [32]byte
	Tags               []string
}

var toolDefinitionSpace = codec.StringSpace(MaxToolNameLength) + 32*3 +
	codec.VectorSpace(MaxToolTags, codec.StringSpace(MaxTagLength))

func (t ToolDefinition) encode(w *codec.Writer) {
	w.PutString(t.Name, MaxToolNameLength)
	w.PutBytes(t.DescriptionHash[:])
	w.PutBytes(t.InputSchemaHash[:])
	w.PutBytes(t.OutputSchemaHash[:])
	w.PutU32(uint32(len(t.Tags)))
	for i := 0; i < MaxToolTags; i++ {
		if i < len(t.Tags) {
			w.PutString(t.Tags[i], MaxTagLength)
		} else {
			w.PutString("", MaxTagLength)
		}
	}
}

func decodeToolDefinition(r *codec.Reader) ToolDefinition {
	var t ToolDefinition
	t.Name = r.String(MaxToolNameLength)
	copy(t.DescriptionHash[:], r.Bytes(32))
	copy(t.InputSchemaHash[:], r.Bytes(32))
	copy(t.OutputSchemaHash[:], r.Bytes(32))
	n := r.U32()
	tags := make([]string, 0, n)
	for i := 0; i < MaxToolTags; i++ {
		tag := r.String(MaxTagLength)
		if uint32(i) < n {
			tags = append(tags, tag)
		}
	}
	t.Tags = tags
	return t
}

// ResourceDefinition is an on-chain summary of one MCP resource.
type ResourceDefinition struct {
	URIPattern      string
	DescriptionHash [32]byte
	Tags            []string
}

var resourceDefinitionSpace = codec.StringSpace(MaxURIPatternLength) + 32 +
	codec.VectorSpace(MaxResourceTags, codec.StringSpace(MaxTagLength))

func (r ResourceDefinition) encode(w *codec.Writer) {
	w.PutString(r.URIPattern, MaxURIPatternLength)
	w.PutBytes(r.DescriptionHash[:])
	w.PutU32(uint32(len(r.Tags)))
	for i := 0; i < MaxResourceTags; i++ {
		if i < len(r.Tags) {
			w.PutString(r.Tags[i], MaxTagLength)
		} else {
			w.PutString("", MaxTagLength)
		}
	}
}

func decodeResourceDefinition(r *codec.Reader) ResourceDefinition {
	var d ResourceDefinition
	d.URIPattern = r.String(MaxURIPatternLength)
	copy(d.DescriptionHash[:], r.Bytes(32))
	n := r.U32()
	tags := make([]string, 0, n)
	for i := 0; i < MaxResourceTags; i++ {
		tag := r.String(MaxTagLength)
		if uint32(i) < n {
			tags = append(tags, tag)
		}
	}
	d.Tags = tags
	return d
}

// PromptDefinition is an on-chain summary of one MCP prompt.
type PromptDefinition struct {
	Name            string
	DescriptionHash [32]byte
	Tags            []string
}

var promptDefinitionSpace = codec.StringSpace(MaxPromptNameLength) + 32 +
	codec.VectorSpace(MaxPromptTags, codec.StringSpace(MaxTagLength))

func (p PromptDefinition) encode(w *codec.Writer) {
	w.PutString(p.Name, MaxPromptNameLength)
	w.PutBytes(p.DescriptionHash[:])
	w.PutU32(uint32(len(p.Tags)))
	for i := 0; i < MaxPromptTags; i++ {
		if i < len(p.Tags) {
			w.PutString(p.Tags[i], MaxTagLength)
		} else {
			w.PutString("", MaxTagLength)
		}
	}
}

func decodePromptDefinition(r *codec.Reader) PromptDefinition {
	var p PromptDefinition
	p.Name = r.String(MaxPromptNameLength)
	copy(p.DescriptionHash[:], r.Bytes(32))
	n := r.U32()
	tags := make([]string, 0, n)
	for i := 0; i < MaxPromptTags; i++ {
		tag := r.String(MaxTagLength)
		if uint32(i) < n {
			tags = append(tags, tag)
		}
	}
	p.Tags = tags
	return p
}

// McpServerEntry is the content-addressed registry record for one MCP
// server (spec §3.1).
type McpServerEntry struct {
	Bump                  uint8
	RegistryVersion       uint8
	OwnerAuthority        [32]byte
	ID                    string
	Status                common.Status
	RegistrationTimestamp int64
	LastUpdateTimestamp   int64
	Tags                  []string

	Name                 string
	ServerVersion        string
	ServiceEndpoint      string
	DocumentationURL     *string
	CapabilitiesSummary  *string
	SupportsResources    bool
	SupportsTools        bool
	SupportsPrompts      bool
	Tools                []ToolDefinition
	Resources            []ResourceDefinition
	Prompts              []PromptDefinition
	FullCapabilitiesURI  *string

	stateVersion        uint64
	operationInProgress bool
}

// mcpServerEntryDiscriminator tags the first bytes of every serialised
// McpServerEntry so an account of the wrong type is rejected before any
// field is read.
var mcpServerEntryDiscriminator = codec.Discriminator("McpServerEntry")

// McpServerEntrySpace is the exact encoded size of an McpServerEntry at
// maximum field occupancy (spec §4.A).
var McpServerEntrySpace = codec.DiscriminatorSize +
	1 + 1 + /* Bump, RegistryVersion */
	8 + 1 + /* StateVersion, OperationInProgress */
	32 + /* OwnerAuthority */
	codec.StringSpace(MaxIDLength) +
	1 + /* Status */
	8 + 8 + /* timestamps */
	codec.VectorSpace(MaxServerTags, codec.StringSpace(MaxTagLength)) +
	codec.StringSpace(MaxNameLength) +
	codec.StringSpace(MaxVersionLength) +
	codec.StringSpace(MaxEndpointURLLength) +
	codec.OptionSpace(codec.StringSpace(MaxDocumentationURLLength)) +
	codec.OptionSpace(codec.StringSpace(MaxCapabilitiesSummaryLength)) +
	1 + 1 + 1 + /* three booleans */
	codec.VectorSpace(MaxToolDefinitions, toolDefinitionSpace) +
	codec.VectorSpace(MaxResourceDefinitions, resourceDefinitionSpace) +
	codec.VectorSpace(MaxPromptDefinitions, promptDefinitionSpace) +
	codec.OptionSpace(codec.StringSpace(MaxFullCapabilitiesURILength))

func (a *McpServerEntry) StateVersion() uint64            { return a.stateVersion }
func (a *McpServerEntry) SetStateVersion(v uint64)        { a.stateVersion = v }
func (a *McpServerEntry) OperationInProgress() bool       { return a.operationInProgress }
func (a *McpServerEntry) SetOperationInProgress(b bool)   { a.operationInProgress = b }
func (a *McpServerEntry) SetLastUpdateTimestamp(ts int64) { a.LastUpdateTimestamp = ts }

// Encode serialises the entry to its fixed-layout SPACE bytes.
func (a *McpServerEntry) Encode() []byte {
	w := codec.NewWriter(McpServerEntrySpace)
	w.PutBytes(mcpServerEntryDiscriminator[:])
	w.PutU8(a.Bump)
	w.PutU8(a.RegistryVersion)
	w.PutU64(a.stateVersion)
	w.PutBool(a.operationInProgress)
	w.PutBytes(a.OwnerAuthority[:])
	w.PutString(a.ID, MaxIDLength)
	w.PutU8(uint8(a.Status))
	w.PutI64(a.RegistrationTimestamp)
	w.PutI64(a.LastUpdateTimestamp)

	w.PutU32(uint32(len(a.Tags)))
	for i := 0; i < MaxServerTags; i++ {
		if i < len(a.Tags) {
			w.PutString(a.Tags[i], MaxTagLength)
		} else {
			w.PutString("", MaxTagLength)
		}
	}

	w.PutString(a.Name, MaxNameLength)
	w.PutString(a.ServerVersion, MaxVersionLength)
	w.PutString(a.ServiceEndpoint, MaxEndpointURLLength)
	w.PutOptionalString(a.DocumentationURL, MaxDocumentationURLLength)
	w.PutOptionalString(a.CapabilitiesSummary, MaxCapabilitiesSummaryLength)
	w.PutBool(a.SupportsResources)
	w.PutBool(a.SupportsTools)
	w.PutBool(a.SupportsPrompts)

	w.PutU32(uint32(len(a.Tools)))
	for i := 0; i < MaxToolDefinitions; i++ {
		if i < len(a.Tools) {
			a.Tools[i].encode(w)
		} else {
			ToolDefinition{}.encode(w)
		}
	}
	w.PutU32(uint32(len(a.Resources)))
	for i := 0; i < MaxResourceDefinitions; i++ {
		if i < len(a.Resources) {
			a.Resources[i].encode(w)
		} else {
			ResourceDefinition{}.encode(w)
		}
	}
	w.PutU32(uint32(len(a.Prompts)))
	for i := 0; i < MaxPromptDefinitions; i++ {
		if i < len(a.Prompts) {
			a.Prompts[i].encode(w)
		} else {
			PromptDefinition{}.encode(w)
		}
	}
	w.PutOptionalString(a.FullCapabilitiesURI, MaxFullCapabilitiesURILength)
	buf := w.Bytes()
	if len(buf) < McpServerEntrySpace {
		buf = append(buf, make([]byte, McpServerEntrySpace-len(buf))...)
	}
	return buf
}

// DecodeMcpServerEntry parses bytes produced by Encode.
func DecodeMcpServerEntry(buf []byte) (*McpServerEntry, error) {
	r := codec.NewReader(buf)
	a := &McpServerEntry{}
	var disc [codec.DiscriminatorSize]byte
	copy(disc[:], r.Bytes(codec.DiscriminatorSize))
	if r.Err() == nil && disc != mcpServerEntryDiscriminator {
		return nil, arcerr.Wrap(arcerr.CodeInvalidProgramAccount, "account discriminator mismatch")
	}
	a.Bump = r.U8()
	a.RegistryVersion = r.U8()
	a.stateVersion = r.U64()
	a.operationInProgress = r.Bool()
	copy(a.OwnerAuthority[:], r.Bytes(32))
	a.ID = r.String(MaxIDLength)
	a.Status = common.Status(r.U8())
	a.RegistrationTimestamp = r.I64()
	a.LastUpdateTimestamp = r.I64()

	n := r.U32()
	tags := make([]string, 0, n)
	for i := 0; i < MaxServerTags; i++ {
		t := r.String(MaxTagLength)
		if uint32(i) < n {
			tags = append(tags, t)
		}
	}
	a.Tags = tags

	a.Name = r.String(MaxNameLength)
	a.ServerVersion = r.String(MaxVersionLength)
	a.ServiceEndpoint = r.String(MaxEndpointURLLength)
	a.DocumentationURL = r.OptionalString(MaxDocumentationURLLength)
	a.CapabilitiesSummary = r.OptionalString(MaxCapabilitiesSummaryLength)
	a.SupportsResources = r.Bool()
	a.SupportsTools = r.Bool()
	a.SupportsPrompts = r.Bool()

	tn := r.U32()
	tools := make([]ToolDefinition, 0, tn)
	for i := 0; i < MaxToolDefinitions; i++ {
		t := decodeToolDefinition(r)
		if uint32(i) < tn {
			tools = append(tools, t)
		}
	}
	a.Tools = tools

	rn := r.U32()
	resources := make([]ResourceDefinition, 0, rn)
	for i := 0; i < MaxResourceDefinitions; i++ {
		d := decodeResourceDefinition(r)
		if uint32(i) < rn {
			resources = append(resources, d)
		}
	}
	a.Resources = resources

	pn := r.U32()
	prompts := make([]PromptDefinition, 0, pn)
	for i := 0; i < MaxPromptDefinitions; i++ {
		p := decodePromptDefinition(r)
		if uint32(i) < pn {
			prompts = append(prompts, p)
		}
	}
	a.Prompts = prompts

	a.FullCapabilitiesURI = r.OptionalString(MaxFullCapabilitiesURILength)

	if r.Err() != nil {
		return nil, arcerr.Wrap(arcerr.CodeInvalidPda, r.Err().Error())
	}
	return a, nil
}

var _ common.VersionedEntry = (*McpServerEntry)(nil)

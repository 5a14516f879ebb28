// Package agentregistry implements the agent registry state machine (spec
// §3.1, §4.G): content-addressed AgentEntry accounts with rich schemas,
// length-bounded variable fields, a status lifecycle, optimistic-
// concurrency versioning, and a reentrancy guard.
//
// Grounded on native/escrow/types.go's Sanitize*/Clone/status-enum-with-
// Valid() shape, generalized from an escrow trade record to a registry
// entry.
package agentregistry

import (
	"arcchain/arcerr"
	"arcchain/codec"
	"arcchain/native/common"
)

// Field bounds (spec §3.1).
const (
	MaxIDLength                    = 64
	MaxAgentTags                   = 10
	MaxTagLength                   = 32
	MaxNameLength                  = 128
	MaxDescriptionLength           = 512
	MaxVersionLength                = 32
	MaxProviderNameLength           = 128
	MaxProviderURLLength            = 256
	MaxDocumentationURLLength       = 256
	MaxServiceEndpoints             = 3
	MaxProtocolLength               = 64
	MaxEndpointURLLength            = 256
	MaxSupportedModes               = 5
	MaxModeLength                   = 64
	MaxSkills                       = 10
	MaxSkillIDLength                = 64
	MaxSkillNameLength              = 128
	MaxSkillTags                    = 5
	MaxSecurityInfoURILength        = 256
	MaxAeaAddressLength             = 128
	MaxEconomicIntentSummaryLength  = 256
	MaxExtendedMetadataURILength    = 256
)

// CurrentRegistryVersion is the schema version new registrations are
// stamped with (spec §3.1: "registry_version: u8 — schema version, starts
// at 1"). A future layout change enlarges SPACE and bumps this constant,
// per §4.A's migration note.
const CurrentRegistryVersion uint8 = 1

// ServiceEndpoint is one entry in an AgentEntry's service_endpoints list
// (spec §3.1). Exactly one entry in a non-empty list must have
// IsDefault == true (invariant I2).
type ServiceEndpoint struct {
	Protocol  string
	URL       string
	IsDefault bool
}

var serviceEndpointSpace = codec.StringSpace(MaxProtocolLength) + codec.StringSpace(MaxEndpointURLLength) + 1

func (e ServiceEndpoint) encode(w *codec.Writer) {
	w.PutString(e.Protocol, MaxProtocolLength)
	w.PutString(e.URL, MaxEndpointURLLength)
	w.PutBool(e.IsDefault)
}

func decodeServiceEndpoint(r *codec.Reader) ServiceEndpoint {
	return ServiceEndpoint{
		Protocol:  r.String(MaxProtocolLength),
		URL:       r.String(MaxEndpointURLLength),
		IsDefault: r.Bool(),
	}
}

// Skill is one entry in an AgentEntry's skills list (spec §3.1).
type Skill struct {
	ID              string
	Name            string
	DescriptionHash *[32]byte
	Tags            []string
}

var skillSpace = codec.StringSpace(MaxSkillIDLength) + codec.StringSpace(MaxSkillNameLength) +
	codec.OptionSpace(32) + codec.VectorSpace(MaxSkillTags, codec.StringSpace(MaxTagLength))

func (s Skill) Clone() Skill {
	out := s
	out.Tags = append([]string(nil), s.Tags...)
	if s.DescriptionHash != nil {
		v := *s.DescriptionHash
		out.DescriptionHash = &v
	}
	return out
}

func (s Skill) encode(w *codec.Writer) {
	w.PutString(s.ID, MaxSkillIDLength)
	w.PutString(s.Name, MaxSkillNameLength)
	if s.DescriptionHash == nil {
		w.PutU8(0)
		w.PutBytes(make([]byte, 32))
	} else {
		w.PutU8(1)
		w.PutBytes(s.DescriptionHash[:])
	}
	w.PutU32(uint32(len(s.Tags)))
	for i := 0; i < MaxSkillTags; i++ {
		if i < len(s.Tags) {
			w.PutString(s.Tags[i], MaxTagLength)
		} else {
			w.PutString("", MaxTagLength)
		}
	}
}

func decodeSkill(r *codec.Reader) Skill {
	var s Skill
	s.ID = r.String(MaxSkillIDLength)
	s.Name = r.String(MaxSkillNameLength)
	disc := r.U8()
	hashBytes := r.Bytes(32)
	if disc != 0 {
		var h [32]byte
		copy(h[:], hashBytes)
		s.DescriptionHash = &h
	}
	n := r.U32()
	tags := make([]string, 0, n)
	for i := 0; i < MaxSkillTags; i++ {
		t := r.String(MaxTagLength)
		if uint32(i) < n {
			tags = append(tags, t)
		}
	}
	s.Tags = tags
	return s
}

// AgentEntry is the content-addressed registry record for one autonomous
// agent (spec §3.1).
type AgentEntry struct {
	Bump                  uint8
	RegistryVersion       uint8
	OwnerAuthority        [32]byte
	ID                    string
	Status                common.Status
	RegistrationTimestamp int64
	LastUpdateTimestamp   int64
	Tags                  []string

	Name                      string
	Description               string
	AgentVersion              string
	ProviderName              *string
	ProviderURL               *string
	DocumentationURL          *string
	ServiceEndpoints          []ServiceEndpoint
	CapabilitiesFlags         uint64
	SupportedInputModes       []string
	SupportedOutputModes      []string
	Skills                    []Skill
	SecurityInfoURI           *string
	AeaAddress                *string
	EconomicIntentSummary     *string
	SupportedAeaProtocolsHash [32]byte
	ExtendedMetadataURI       *string

	// Supplemental service/dispute tracking exercised by §4.G's
	// record_service_completion / record_dispute_outcome and §4.K's
	// quality-score formula. Not named individually in §3.1's envelope but
	// required by the operations the spec does name.
	ServiceCompletedCount uint64
	TotalEarnings         uint64
	RatingSumCenti        uint64 // sum of per-service ratings, scaled x100
	RatingCount           uint64
	AvgResponseTimeSecs   uint64
	DisputeCount          uint32
	DisputeWins           uint32
	QualityScore          uint32

	stateVersion        uint64
	operationInProgress bool
}

// agentEntryDiscriminator tags the first bytes of every serialised
// AgentEntry so the host runtime (and this module's own decoder) can reject
// an account of the wrong type before reading any field.
var agentEntryDiscriminator = codec.Discriminator("AgentEntry")

// AgentEntrySpace is the exact encoded size of an AgentEntry at maximum
// field occupancy (spec §4.A).
var AgentEntrySpace = codec.DiscriminatorSize +
	1 + 1 + /* Bump, RegistryVersion */
	8 + 1 + /* StateVersion, OperationInProgress */
	32 + /* OwnerAuthority */
	codec.StringSpace(MaxIDLength) +
	1 + /* Status */
	8 + 8 + /* timestamps */
	codec.VectorSpace(MaxAgentTags, codec.StringSpace(MaxTagLength)) +
	codec.StringSpace(MaxNameLength) +
	codec.StringSpace(MaxDescriptionLength) +
	codec.StringSpace(MaxVersionLength) +
	codec.OptionSpace(codec.StringSpace(MaxProviderNameLength)) +
	codec.OptionSpace(codec.StringSpace(MaxProviderURLLength)) +
	codec.OptionSpace(codec.StringSpace(MaxDocumentationURLLength)) +
	codec.VectorSpace(MaxServiceEndpoints, serviceEndpointSpace) +
	8 + /* CapabilitiesFlags */
	codec.VectorSpace(MaxSupportedModes, codec.StringSpace(MaxModeLength)) +
	codec.VectorSpace(MaxSupportedModes, codec.StringSpace(MaxModeLength)) +
	codec.VectorSpace(MaxSkills, skillSpace) +
	codec.OptionSpace(codec.StringSpace(MaxSecurityInfoURILength)) +
	codec.OptionSpace(codec.StringSpace(MaxAeaAddressLength)) +
	codec.OptionSpace(codec.StringSpace(MaxEconomicIntentSummaryLength)) +
	32 + /* SupportedAeaProtocolsHash */
	codec.OptionSpace(codec.StringSpace(MaxExtendedMetadataURILength)) +
	8 + 8 + 8 + 8 + 8 + 4 + 4 + 4 /* service/dispute counters */

// StateVersion / SetStateVersion / etc. implement common.VersionedEntry.
func (a *AgentEntry) StateVersion() uint64            { return a.stateVersion }
func (a *AgentEntry) SetStateVersion(v uint64)        { a.stateVersion = v }
func (a *AgentEntry) OperationInProgress() bool       { return a.operationInProgress }
func (a *AgentEntry) SetOperationInProgress(b bool)   { a.operationInProgress = b }
func (a *AgentEntry) SetLastUpdateTimestamp(ts int64) { a.LastUpdateTimestamp = ts }

// Clone returns a deep copy so callers can mutate an entry without aliasing
// the version persisted in state.
func (a *AgentEntry) Clone() *AgentEntry {
	out := *a
	out.Tags = append([]string(nil), a.Tags...)
	out.ServiceEndpoints = append([]ServiceEndpoint(nil), a.ServiceEndpoints...)
	out.SupportedInputModes = append([]string(nil), a.SupportedInputModes...)
	out.SupportedOutputModes = append([]string(nil), a.SupportedOutputModes...)
	out.Skills = make([]Skill, len(a.Skills))
	for i, s := range a.Skills {
		out.Skills[i] = s.Clone()
	}
	if a.ProviderName != nil {
		v := *a.ProviderName
		out.ProviderName = &v
	}
	if a.ProviderURL != nil {
		v := *a.ProviderURL
		out.ProviderURL = &v
	}
	if a.DocumentationURL != nil {
		v := *a.DocumentationURL
		out.DocumentationURL = &v
	}
	if a.SecurityInfoURI != nil {
		v := *a.SecurityInfoURI
		out.SecurityInfoURI = &v
	}
	if a.AeaAddress != nil {
		v := *a.AeaAddress
		out.AeaAddress = &v
	}
	if a.EconomicIntentSummary != nil {
		v := *a.EconomicIntentSummary
		out.EconomicIntentSummary = &v
	}
	if a.ExtendedMetadataURI != nil {
		v := *a.ExtendedMetadataURI
		out.ExtendedMetadataURI = &v
	}
	return &out
}

// Encode serialises the entry to its fixed-layout SPACE bytes.
func (a *AgentEntry) Encode() []byte {
	w := codec.NewWriter(AgentEntrySpace)
	w.PutBytes(agentEntryDiscriminator[:])
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
	for i := 0; i < MaxAgentTags; i++ {
		if i < len(a.Tags) {
			w.PutString(a.Tags[i], MaxTagLength)
		} else {
			w.PutString("", MaxTagLength)
		}
	}

	w.PutString(a.Name, MaxNameLength)
	w.PutString(a.Description, MaxDescriptionLength)
	w.PutString(a.AgentVersion, MaxVersionLength)
	w.PutOptionalString(a.ProviderName, MaxProviderNameLength)
	w.PutOptionalString(a.ProviderURL, MaxProviderURLLength)
	w.PutOptionalString(a.DocumentationURL, MaxDocumentationURLLength)

	w.PutU32(uint32(len(a.ServiceEndpoints)))
	for i := 0; i < MaxServiceEndpoints; i++ {
		if i < len(a.ServiceEndpoints) {
			a.ServiceEndpoints[i].encode(w)
		} else {
			ServiceEndpoint{}.encode(w)
		}
	}

	w.PutU64(a.CapabilitiesFlags)

	w.PutU32(uint32(len(a.SupportedInputModes)))
	for i := 0; i < MaxSupportedModes; i++ {
		if i < len(a.SupportedInputModes) {
			w.PutString(a.SupportedInputModes[i], MaxModeLength)
		} else {
			w.PutString("", MaxModeLength)
		}
	}
	w.PutU32(uint32(len(a.SupportedOutputModes)))
	for i := 0; i < MaxSupportedModes; i++ {
		if i < len(a.SupportedOutputModes) {
			w.PutString(a.SupportedOutputModes[i], MaxModeLength)
		} else {
			w.PutString("", MaxModeLength)
		}
	}

	w.PutU32(uint32(len(a.Skills)))
	for i := 0; i < MaxSkills; i++ {
		if i < len(a.Skills) {
			a.Skills[i].encode(w)
		} else {
			Skill{}.encode(w)
		}
	}

	w.PutOptionalString(a.SecurityInfoURI, MaxSecurityInfoURILength)
	w.PutOptionalString(a.AeaAddress, MaxAeaAddressLength)
	w.PutOptionalString(a.EconomicIntentSummary, MaxEconomicIntentSummaryLength)
	w.PutBytes(a.SupportedAeaProtocolsHash[:])
	w.PutOptionalString(a.ExtendedMetadataURI, MaxExtendedMetadataURILength)

	w.PutU64(a.ServiceCompletedCount)
	w.PutU64(a.TotalEarnings)
	w.PutU64(a.RatingSumCenti)
	w.PutU64(a.RatingCount)
	w.PutU64(a.AvgResponseTimeSecs)
	w.PutU32(a.DisputeCount)
	w.PutU32(a.DisputeWins)
	w.PutU32(a.QualityScore)
	buf := w.Bytes()
	if len(buf) < AgentEntrySpace {
		buf = append(buf, make([]byte, AgentEntrySpace-len(buf))...)
	}
	return buf
}

// DecodeAgentEntry parses bytes produced by Encode.
func DecodeAgentEntry(buf []byte) (*AgentEntry, error) {
	if len(buf) < AgentEntrySpace {
		return nil, arcerr.Wrap(arcerr.CodeInvalidPda, "account shorter than its SPACE")
	}
	r := codec.NewReader(buf)
	a := &AgentEntry{}
	var disc [codec.DiscriminatorSize]byte
	copy(disc[:], r.Bytes(codec.DiscriminatorSize))
	if r.Err() == nil && disc != agentEntryDiscriminator {
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
	for i := 0; i < MaxAgentTags; i++ {
		t := r.String(MaxTagLength)
		if uint32(i) < n {
			tags = append(tags, t)
		}
	}
	a.Tags = tags

	a.Name = r.String(MaxNameLength)
	a.Description = r.String(MaxDescriptionLength)
	a.AgentVersion = r.String(MaxVersionLength)
	a.ProviderName = r.OptionalString(MaxProviderNameLength)
	a.ProviderURL = r.OptionalString(MaxProviderURLLength)
	a.DocumentationURL = r.OptionalString(MaxDocumentationURLLength)

	en := r.U32()
	endpoints := make([]ServiceEndpoint, 0, en)
	for i := 0; i < MaxServiceEndpoints; i++ {
		e := decodeServiceEndpoint(r)
		if uint32(i) < en {
			endpoints = append(endpoints, e)
		}
	}
	a.ServiceEndpoints = endpoints

	a.CapabilitiesFlags = r.U64()

	inN := r.U32()
	inModes := make([]string, 0, inN)
	for i := 0; i < MaxSupportedModes; i++ {
		m := r.String(MaxModeLength)
		if uint32(i) < inN {
			inModes = append(inModes, m)
		}
	}
	a.SupportedInputModes = inModes

	outN := r.U32()
	outModes := make([]string, 0, outN)
	for i := 0; i < MaxSupportedModes; i++ {
		m := r.String(MaxModeLength)
		if uint32(i) < outN {
			outModes = append(outModes, m)
		}
	}
	a.SupportedOutputModes = outModes

	sn := r.U32()
	skills := make([]Skill, 0, sn)
	for i := 0; i < MaxSkills; i++ {
		s := decodeSkill(r)
		if uint32(i) < sn {
			skills = append(skills, s)
		}
	}
	a.Skills = skills

	a.SecurityInfoURI = r.OptionalString(MaxSecurityInfoURILength)
	a.AeaAddress = r.OptionalString(MaxAeaAddressLength)
	a.EconomicIntentSummary = r.OptionalString(MaxEconomicIntentSummaryLength)
	copy(a.SupportedAeaProtocolsHash[:], r.Bytes(32))
	a.ExtendedMetadataURI = r.OptionalString(MaxExtendedMetadataURILength)

	a.ServiceCompletedCount = r.U64()
	a.TotalEarnings = r.U64()
	a.RatingSumCenti = r.U64()
	a.RatingCount = r.U64()
	a.AvgResponseTimeSecs = r.U64()
	a.DisputeCount = r.U32()
	a.DisputeWins = r.U32()
	a.QualityScore = r.U32()

	if r.Err() != nil {
		return nil, arcerr.Wrap(arcerr.CodeInvalidPda, r.Err().Error())
	}
	return a, nil
}

var _ common.VersionedEntry = (*AgentEntry)(nil)

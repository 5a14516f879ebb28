package agentregistry

import (
	"arcchain/arcerr"
	"arcchain/native/common"
)

// RegisterParams carries every field accepted by Register (spec §4.G).
type RegisterParams struct {
	ID                        string
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
	Tags                      []string
}

// validateCommon runs the bound/format checks shared by Register and
// UpdateDetails's merged result (spec §4.C).
func validateCommon(p RegisterParams) error {
	if err := common.ValidateResourceID(p.ID, MaxIDLength); err != nil {
		return err
	}
	if err := common.RequireNonEmpty(p.Name, arcerr.CodeInvalidNameLength); err != nil {
		return err
	}
	if err := common.BoundedString(p.Name, MaxNameLength, arcerr.CodeInvalidNameLength); err != nil {
		return err
	}
	if err := common.BoundedString(p.Description, MaxDescriptionLength, arcerr.CodeInvalidDescriptionLength); err != nil {
		return err
	}
	if err := common.RequireNonEmpty(p.AgentVersion, arcerr.CodeInvalidVersionLength); err != nil {
		return err
	}
	if err := common.BoundedString(p.AgentVersion, MaxVersionLength, arcerr.CodeInvalidVersionLength); err != nil {
		return err
	}
	if p.ProviderName != nil {
		if err := common.BoundedString(*p.ProviderName, MaxProviderNameLength, arcerr.CodeInvalidNameLength); err != nil {
			return err
		}
	}
	if p.ProviderURL != nil {
		if err := validateURLField(*p.ProviderURL, MaxProviderURLLength); err != nil {
			return err
		}
	}
	if p.DocumentationURL != nil {
		if err := validateURLField(*p.DocumentationURL, MaxDocumentationURLLength); err != nil {
			return err
		}
	}

	if err := common.BoundedCount(len(p.ServiceEndpoints), MaxServiceEndpoints, arcerr.CodeTooManyServiceEndpoints); err != nil {
		return err
	}
	isDefault := make([]bool, len(p.ServiceEndpoints))
	for i, ep := range p.ServiceEndpoints {
		if err := common.BoundedString(ep.Protocol, MaxProtocolLength, arcerr.CodeInvalidModeLength); err != nil {
			return err
		}
		if err := validateURLField(ep.URL, MaxEndpointURLLength); err != nil {
			return err
		}
		isDefault[i] = ep.IsDefault
	}
	if err := common.ValidateExactlyOneDefault(isDefault); err != nil {
		return err
	}

	if err := common.BoundedCount(len(p.SupportedInputModes), MaxSupportedModes, arcerr.CodeTooManySupportedModes); err != nil {
		return err
	}
	for _, m := range p.SupportedInputModes {
		if err := common.BoundedString(m, MaxModeLength, arcerr.CodeInvalidModeLength); err != nil {
			return err
		}
	}
	if err := common.BoundedCount(len(p.SupportedOutputModes), MaxSupportedModes, arcerr.CodeTooManySupportedModes); err != nil {
		return err
	}
	for _, m := range p.SupportedOutputModes {
		if err := common.BoundedString(m, MaxModeLength, arcerr.CodeInvalidModeLength); err != nil {
			return err
		}
	}

	if err := common.BoundedCount(len(p.Skills), MaxSkills, arcerr.CodeTooManySkills); err != nil {
		return err
	}
	for _, s := range p.Skills {
		if err := common.RequireNonEmpty(s.ID, arcerr.CodeInvalidIDLength); err != nil {
			return err
		}
		if err := common.BoundedString(s.ID, MaxSkillIDLength, arcerr.CodeInvalidIDLength); err != nil {
			return err
		}
		if err := common.BoundedString(s.Name, MaxSkillNameLength, arcerr.CodeInvalidNameLength); err != nil {
			return err
		}
		if err := common.BoundedCount(len(s.Tags), MaxSkillTags, arcerr.CodeTooManySkillTags); err != nil {
			return err
		}
		for _, t := range s.Tags {
			if err := common.BoundedString(t, MaxTagLength, arcerr.CodeInvalidTagLength); err != nil {
				return err
			}
		}
	}

	if p.SecurityInfoURI != nil {
		if err := validateURLField(*p.SecurityInfoURI, MaxSecurityInfoURILength); err != nil {
			return err
		}
	}
	if p.AeaAddress != nil {
		if err := common.BoundedString(*p.AeaAddress, MaxAeaAddressLength, arcerr.CodeInvalidIDLength); err != nil {
			return err
		}
	}
	if p.EconomicIntentSummary != nil {
		if err := common.BoundedString(*p.EconomicIntentSummary, MaxEconomicIntentSummaryLength, arcerr.CodeInvalidDescriptionLength); err != nil {
			return err
		}
	}
	if p.ExtendedMetadataURI != nil {
		if err := validateURLField(*p.ExtendedMetadataURI, MaxExtendedMetadataURILength); err != nil {
			return err
		}
	}

	if err := common.BoundedCount(len(p.Tags), MaxAgentTags, arcerr.CodeTooManyAgentTags); err != nil {
		return err
	}
	for _, t := range p.Tags {
		if err := common.BoundedString(t, MaxTagLength, arcerr.CodeInvalidTagLength); err != nil {
			return err
		}
	}
	return nil
}

func validateURLField(u string, max int) error {
	if err := common.BoundedString(u, max, arcerr.CodeInvalidURLLength); err != nil {
		return err
	}
	if u == "" {
		return nil
	}
	return common.ValidateURL(u, arcerr.CodeInvalidURLFormat)
}

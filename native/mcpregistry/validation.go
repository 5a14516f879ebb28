package mcpregistry

import (
	"arcchain/arcerr"
	"arcchain/native/common"
)

// RegisterParams carries every field accepted by Register (spec §4.H).
type RegisterParams struct {
	ID                  string
	Name                string
	ServerVersion       string
	ServiceEndpoint     string
	DocumentationURL    *string
	CapabilitiesSummary *string
	SupportsResources   bool
	SupportsTools       bool
	SupportsPrompts     bool
	Tools               []ToolDefinition
	Resources           []ResourceDefinition
	Prompts             []PromptDefinition
	FullCapabilitiesURI *string
	Tags                []string
}

// validateCommon runs the bound/format checks shared by Register and
// UpdateDetails's merged result (spec §4.C). Unlike the agent registry,
// there is no default-endpoint invariant to check: a server has exactly
// one ServiceEndpoint.
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
	if err := common.RequireNonEmpty(p.ServerVersion, arcerr.CodeInvalidVersionLength); err != nil {
		return err
	}
	if err := common.BoundedString(p.ServerVersion, MaxVersionLength, arcerr.CodeInvalidVersionLength); err != nil {
		return err
	}
	if err := validateURLField(p.ServiceEndpoint, MaxEndpointURLLength); err != nil {
		return err
	}
	if err := common.RequireNonEmpty(p.ServiceEndpoint, arcerr.CodeInvalidURLLength); err != nil {
		return err
	}
	if p.DocumentationURL != nil {
		if err := validateURLField(*p.DocumentationURL, MaxDocumentationURLLength); err != nil {
			return err
		}
	}
	if p.CapabilitiesSummary != nil {
		if err := common.BoundedString(*p.CapabilitiesSummary, MaxCapabilitiesSummaryLength, arcerr.CodeInvalidDescriptionLength); err != nil {
			return err
		}
	}

	if err := common.BoundedCount(len(p.Tools), MaxToolDefinitions, arcerr.CodeTooManyToolDefinitions); err != nil {
		return err
	}
	for _, t := range p.Tools {
		if err := common.RequireNonEmpty(t.Name, arcerr.CodeInvalidNameLength); err != nil {
			return err
		}
		if err := common.BoundedString(t.Name, MaxToolNameLength, arcerr.CodeInvalidNameLength); err != nil {
			return err
		}
		if err := common.BoundedCount(len(t.Tags), MaxToolTags, arcerr.CodeTooManySkillTags); err != nil {
			return err
		}
		for _, tag := range t.Tags {
			if err := common.BoundedString(tag, MaxTagLength, arcerr.CodeInvalidTagLength); err != nil {
				return err
			}
		}
	}

	if err := common.BoundedCount(len(p.Resources), MaxResourceDefinitions, arcerr.CodeTooManyResourceDefinitions); err != nil {
		return err
	}
	for _, r := range p.Resources {
		if err := common.RequireNonEmpty(r.URIPattern, arcerr.CodeInvalidURLLength); err != nil {
			return err
		}
		if err := common.BoundedString(r.URIPattern, MaxURIPatternLength, arcerr.CodeInvalidURLLength); err != nil {
			return err
		}
		if err := common.BoundedCount(len(r.Tags), MaxResourceTags, arcerr.CodeTooManySkillTags); err != nil {
			return err
		}
		for _, tag := range r.Tags {
			if err := common.BoundedString(tag, MaxTagLength, arcerr.CodeInvalidTagLength); err != nil {
				return err
			}
		}
	}

	if err := common.BoundedCount(len(p.Prompts), MaxPromptDefinitions, arcerr.CodeTooManyPromptDefinitions); err != nil {
		return err
	}
	for _, pr := range p.Prompts {
		if err := common.RequireNonEmpty(pr.Name, arcerr.CodeInvalidNameLength); err != nil {
			return err
		}
		if err := common.BoundedString(pr.Name, MaxPromptNameLength, arcerr.CodeInvalidNameLength); err != nil {
			return err
		}
		if err := common.BoundedCount(len(pr.Tags), MaxPromptTags, arcerr.CodeTooManySkillTags); err != nil {
			return err
		}
		for _, tag := range pr.Tags {
			if err := common.BoundedString(tag, MaxTagLength, arcerr.CodeInvalidTagLength); err != nil {
				return err
			}
		}
	}

	if p.FullCapabilitiesURI != nil {
		if err := validateURLField(*p.FullCapabilitiesURI, MaxFullCapabilitiesURILength); err != nil {
			return err
		}
	}

	if err := common.BoundedCount(len(p.Tags), MaxServerTags, arcerr.CodeTooManyServerTags); err != nil {
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

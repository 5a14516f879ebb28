package agentregistry

import (
	"errors"
	"strings"
	"testing"

	"arcchain/arcerr"
)

func TestValidateCommonBounds(t *testing.T) {
	base := params("r1")
	long := func(n int) string { return strings.Repeat("x", n) }

	cases := []struct {
		name   string
		mutate func(*RegisterParams)
		want   arcerr.Code
	}{
		{"empty id", func(p *RegisterParams) { p.ID = "" }, arcerr.CodeInvalidIDLength},
		{"long id", func(p *RegisterParams) { p.ID = long(MaxIDLength + 1) }, arcerr.CodeInvalidIDLength},
		{"bad id charset", func(p *RegisterParams) { p.ID = "agent one" }, arcerr.CodeInvalidServerIDFormat},
		{"empty name", func(p *RegisterParams) { p.Name = "" }, arcerr.CodeInvalidNameLength},
		{"long name", func(p *RegisterParams) { p.Name = long(MaxNameLength + 1) }, arcerr.CodeInvalidNameLength},
		{"long description", func(p *RegisterParams) { p.Description = long(MaxDescriptionLength + 1) }, arcerr.CodeInvalidDescriptionLength},
		{"empty version", func(p *RegisterParams) { p.AgentVersion = "" }, arcerr.CodeInvalidVersionLength},
		{"long version", func(p *RegisterParams) { p.AgentVersion = long(MaxVersionLength + 1) }, arcerr.CodeInvalidVersionLength},
		{"bad provider url scheme", func(p *RegisterParams) { p.ProviderURL = strp("ftp://example.com") }, arcerr.CodeInvalidURLFormat},
		{"long provider url", func(p *RegisterParams) { p.ProviderURL = strp("https://" + long(MaxProviderURLLength)) }, arcerr.CodeInvalidURLLength},
		{"too many endpoints", func(p *RegisterParams) {
			p.ServiceEndpoints = []ServiceEndpoint{
				{Protocol: "https", URL: "https://1.example.com", IsDefault: true},
				{Protocol: "https", URL: "https://2.example.com"},
				{Protocol: "https", URL: "https://3.example.com"},
				{Protocol: "https", URL: "https://4.example.com"},
			}
		}, arcerr.CodeTooManyServiceEndpoints},
		{"endpoint bad url", func(p *RegisterParams) {
			p.ServiceEndpoints = []ServiceEndpoint{{Protocol: "https", URL: "example.com", IsDefault: true}}
		}, arcerr.CodeInvalidURLFormat},
		{"too many input modes", func(p *RegisterParams) {
			p.SupportedInputModes = []string{"a", "b", "c", "d", "e", "f"}
		}, arcerr.CodeTooManySupportedModes},
		{"too many skills", func(p *RegisterParams) {
			skills := make([]Skill, MaxSkills+1)
			for i := range skills {
				skills[i] = Skill{ID: "s", Name: "S"}
			}
			p.Skills = skills
		}, arcerr.CodeTooManySkills},
		{"skill without id", func(p *RegisterParams) {
			p.Skills = []Skill{{Name: "S"}}
		}, arcerr.CodeInvalidIDLength},
		{"too many skill tags", func(p *RegisterParams) {
			p.Skills = []Skill{{ID: "s", Name: "S", Tags: []string{"a", "b", "c", "d", "e", "f"}}}
		}, arcerr.CodeTooManySkillTags},
		{"too many tags", func(p *RegisterParams) {
			p.Tags = make([]string, MaxAgentTags+1)
		}, arcerr.CodeTooManyAgentTags},
		{"long tag", func(p *RegisterParams) {
			p.Tags = []string{long(MaxTagLength + 1)}
		}, arcerr.CodeInvalidTagLength},
		{"bad metadata uri", func(p *RegisterParams) {
			p.ExtendedMetadataURI = strp("file:///etc/passwd")
		}, arcerr.CodeInvalidURLFormat},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := base
			c.mutate(&p)
			err := validateCommon(p)
			var ae *arcerr.Error
			if !errors.As(err, &ae) || ae.Code != c.want {
				t.Fatalf("want code %d, got %v", c.want, err)
			}
		})
	}
}

func TestValidateCommonAcceptsAllSchemes(t *testing.T) {
	for _, u := range []string{"http://x", "https://x", "ipfs://x", "ar://x"} {
		p := params("r1")
		p.DocumentationURL = strp(u)
		if err := validateCommon(p); err != nil {
			t.Errorf("scheme %q rejected: %v", u, err)
		}
	}
}

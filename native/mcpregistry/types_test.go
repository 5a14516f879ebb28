package mcpregistry

import (
	"reflect"
	"testing"

	"arcchain/native/common"
)

func strp(s string) *string { return &s }

func fullEntry() *McpServerEntry {
	a := &McpServerEntry{
		Bump:                  253,
		RegistryVersion:       CurrentRegistryVersion,
		OwnerAuthority:        [32]byte{0x01},
		ID:                    "files-server",
		Status:                common.StatusActive,
		RegistrationTimestamp: 1000,
		LastUpdateTimestamp:   2000,
		Tags:                  []string{"files", "storage"},
		Name:                  "File Server",
		ServerVersion:         "0.4.2",
		ServiceEndpoint:       "https://mcp.example.com/files",
		DocumentationURL:      strp("https://docs.example.com/files"),
		SupportsResources:     true,
		SupportsTools:         true,
		Tools: []ToolDefinition{
			{
				Name:             "read_file",
				DescriptionHash:  [32]byte{0x01},
				InputSchemaHash:  [32]byte{0x02},
				OutputSchemaHash: [32]byte{0x03},
				Tags:             []string{"fs"},
			},
		},
		Resources: []ResourceDefinition{
			{URIPattern: "file:///**", DescriptionHash: [32]byte{0x04}, Tags: []string{}},
		},
		Prompts: []PromptDefinition{
			{Name: "summarize", DescriptionHash: [32]byte{0x05}, Tags: []string{"text"}},
		},
		FullCapabilitiesURI: strp("ipfs://bafycaps"),
	}
	a.SetStateVersion(3)
	return a
}

func TestMcpServerEntryRoundTrip(t *testing.T) {
	a := fullEntry()
	decoded, err := DecodeMcpServerEntry(a.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(a, decoded) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", a, decoded)
	}
}

func TestMcpServerEntryEncodesExactSpace(t *testing.T) {
	if got := len(fullEntry().Encode()); got != McpServerEntrySpace {
		t.Fatalf("encoded %d bytes, SPACE is %d", got, McpServerEntrySpace)
	}
	minimal := &McpServerEntry{ID: "s", Name: "S", ServerVersion: "1", ServiceEndpoint: "https://x"}
	if got := len(minimal.Encode()); got != McpServerEntrySpace {
		t.Fatalf("minimal entry encoded %d bytes, SPACE is %d", got, McpServerEntrySpace)
	}
}

func TestMcpServerEntryDecodeRejectsForeignDiscriminator(t *testing.T) {
	buf := fullEntry().Encode()
	buf[0] ^= 0xFF
	if _, err := DecodeMcpServerEntry(buf); err == nil {
		t.Fatal("mismatched discriminator must be rejected")
	}
}

package arcerr

import (
	"errors"
	"testing"
)

// Code values are external ABI: callers key retry logic and monitoring off
// the numeric value, so any renumbering is a breaking change this table is
// meant to catch.
func TestCodeValuesAreStable(t *testing.T) {
	pinned := map[Code]uint32{
		CodeInvalidIDLength:               100,
		CodeInvalidNameLength:             101,
		CodeInvalidDescriptionLength:      102,
		CodeInvalidVersionLength:          103,
		CodeInvalidURLLength:              104,
		CodeInvalidURLFormat:              105,
		CodeInvalidModeLength:             106,
		CodeInvalidTagLength:              107,
		CodeTooManyServiceEndpoints:       108,
		CodeTooManySupportedModes:         109,
		CodeTooManySkills:                 110,
		CodeTooManySkillTags:              111,
		CodeTooManyAgentTags:              112,
		CodeTooManyServerTags:             113,
		CodeTooManyToolDefinitions:        114,
		CodeTooManyResourceDefinitions:    115,
		CodeTooManyPromptDefinitions:      116,
		CodeMultipleDefaultEndpoints:      117,
		CodeMissingDefaultEndpoint:        118,
		CodeInvalidServerIDFormat:         119,
		CodeInvalidAgentStatus:            120,
		CodeInvalidMcpServerStatus:        121,
		CodeUnauthorized:                  200,
		CodeMissingRequiredSignature:      201,
		CodeInvalidProgramAccount:         202,
		CodeUnauthorizedProgram:           203,
		CodeCannotDelegate:                204,
		CodePermissionDenied:              205,
		CodeDelegationChainTooDeep:        206,
		CodeCircularDelegationDetected:    207,
		CodeInvalidDelegationChain:        208,
		CodeDelegationPrivilegeEscalation: 209,
		CodeOperationInProgress:           300,
		CodeStateVersionMismatch:          301,
		CodeConcurrentNonceUpdate:         302,
		CodeNonceAlreadyUsed:              400,
		CodeNonceOverflow:                 401,
		CodeNonceWindowManipulation:       402,
		CodeReplayDetected:                403,
		CodeAccountAlreadyExists:          500,
		CodeResourceNotFound:              501,
		CodeInvalidPda:                    502,
		CodeBumpSeedNotInHashMap:          503,
		CodePermissionExpired:             504,
		CodeTooManyPermissions:            505,
		CodeRateLimitExceeded:             600,
		CodeSuspiciousActivity:            601,
	}
	for code, want := range pinned {
		if uint32(code) != want {
			t.Errorf("code %s renumbered: want %d, got %d", New(code).Message, want, uint32(code))
		}
	}
	if len(pinned) != len(messages) {
		t.Errorf("pinned %d codes but %d have messages; extend the ABI table", len(pinned), len(messages))
	}
}

func TestEveryCodeHasAMessage(t *testing.T) {
	for code, msg := range messages {
		if msg == "" {
			t.Errorf("code %d has an empty message", code)
		}
		if got := New(code).Message; got != msg {
			t.Errorf("New(%d) message mismatch: %q vs %q", code, got, msg)
		}
	}
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := Wrap(CodeNonceAlreadyUsed, "nonce 5")
	if !errors.Is(err, New(CodeNonceAlreadyUsed)) {
		t.Fatal("errors.Is should match same-code errors regardless of detail")
	}
	if errors.Is(err, New(CodeNonceOverflow)) {
		t.Fatal("errors.Is must not match a different code")
	}
}

func TestWrapAppendsDetail(t *testing.T) {
	base := New(CodeInvalidPda)
	wrapped := Wrap(CodeInvalidPda, "expected abc")
	if wrapped.Message == base.Message {
		t.Fatal("detail not appended")
	}
	if Wrap(CodeInvalidPda, "").Message != base.Message {
		t.Fatal("empty detail should leave the canonical message untouched")
	}
}

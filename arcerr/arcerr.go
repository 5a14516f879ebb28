// Package arcerr defines the stable error codes returned by every registry
// and access-control operation. Exact Code values are part of the external
// ABI and must never be renumbered once shipped.
package arcerr

import "fmt"

// Code identifies one of the error kinds enumerated in the specification.
// Values are grouped by family in blocks of 100 so a new kind can be added
// to a family without renumbering the ones after it.
type Code uint32

const (
	// Input shape (§7 "Input shape").
	CodeInvalidIDLength Code = 100 + iota
	CodeInvalidNameLength
	CodeInvalidDescriptionLength
	CodeInvalidVersionLength
	CodeInvalidURLLength
	CodeInvalidURLFormat
	CodeInvalidModeLength
	CodeInvalidTagLength
	CodeTooManyServiceEndpoints
	CodeTooManySupportedModes
	CodeTooManySkills
	CodeTooManySkillTags
	CodeTooManyAgentTags
	CodeTooManyServerTags
	CodeTooManyToolDefinitions
	CodeTooManyResourceDefinitions
	CodeTooManyPromptDefinitions
	CodeMultipleDefaultEndpoints
	CodeMissingDefaultEndpoint
	CodeInvalidServerIDFormat
	CodeInvalidAgentStatus
	CodeInvalidMcpServerStatus
)

const (
	// Authorization (§7 "Authorization").
	CodeUnauthorized Code = 200 + iota
	CodeMissingRequiredSignature
	CodeInvalidProgramAccount
	CodeUnauthorizedProgram
	CodeCannotDelegate
	CodePermissionDenied
	CodeDelegationChainTooDeep
	CodeCircularDelegationDetected
	CodeInvalidDelegationChain
	CodeDelegationPrivilegeEscalation
)

const (
	// Concurrency (§7 "Concurrency").
	CodeOperationInProgress Code = 300 + iota
	CodeStateVersionMismatch
	CodeConcurrentNonceUpdate
)

const (
	// Nonce/replay (§7 "Nonce/replay").
	CodeNonceAlreadyUsed Code = 400 + iota
	CodeNonceOverflow
	CodeNonceWindowManipulation
	CodeReplayDetected
)

const (
	// Lifecycle (§7 "Lifecycle").
	CodeAccountAlreadyExists Code = 500 + iota
	CodeResourceNotFound
	CodeInvalidPda
	CodeBumpSeedNotInHashMap
	CodePermissionExpired
	CodeTooManyPermissions
)

const (
	// Security monitor (§7 "Security monitor").
	CodeRateLimitExceeded Code = 600 + iota
	CodeSuspiciousActivity
)

var messages = map[Code]string{
	CodeInvalidIDLength:               "id exceeds the maximum allowed length",
	CodeInvalidNameLength:             "name exceeds the maximum allowed length",
	CodeInvalidDescriptionLength:      "description exceeds the maximum allowed length",
	CodeInvalidVersionLength:          "version string exceeds the maximum allowed length",
	CodeInvalidURLLength:              "url exceeds the maximum allowed length",
	CodeInvalidURLFormat:              "url does not begin with an accepted scheme",
	CodeInvalidModeLength:             "mode string exceeds the maximum allowed length",
	CodeInvalidTagLength:              "tag exceeds the maximum allowed length",
	CodeTooManyServiceEndpoints:       "too many service endpoints",
	CodeTooManySupportedModes:         "too many supported modes",
	CodeTooManySkills:                 "too many skills",
	CodeTooManySkillTags:              "too many skill tags",
	CodeTooManyAgentTags:              "too many agent tags",
	CodeTooManyServerTags:             "too many server tags",
	CodeTooManyToolDefinitions:        "too many tool definitions",
	CodeTooManyResourceDefinitions:    "too many resource definitions",
	CodeTooManyPromptDefinitions:      "too many prompt definitions",
	CodeMultipleDefaultEndpoints:      "more than one service endpoint marked default",
	CodeMissingDefaultEndpoint:        "no service endpoint marked default",
	CodeInvalidServerIDFormat:         "id contains characters outside [A-Za-z0-9_-]",
	CodeInvalidAgentStatus:            "agent status value out of range",
	CodeInvalidMcpServerStatus:        "mcp server status value out of range",
	CodeUnauthorized:                  "caller is not the owner authority",
	CodeMissingRequiredSignature:      "required signer missing from the call",
	CodeInvalidProgramAccount:         "caller account is not a valid program account",
	CodeUnauthorizedProgram:           "caller program is not on the authorised list",
	CodeCannotDelegate:                "grant does not permit delegation",
	CodePermissionDenied:              "signer lacks the requested permission",
	CodeDelegationChainTooDeep:        "delegation chain exceeds the configured limit",
	CodeCircularDelegationDetected:    "delegation graph would contain a cycle",
	CodeInvalidDelegationChain:        "delegation chain is malformed",
	CodeDelegationPrivilegeEscalation: "delegated operations are not a subset of the granter's",
	CodeOperationInProgress:           "an operation is already in progress for this entry",
	CodeStateVersionMismatch:          "state version changed since it was read",
	CodeConcurrentNonceUpdate:         "nonce tracker updated concurrently",
	CodeNonceAlreadyUsed:              "nonce has already been consumed",
	CodeNonceOverflow:                 "nonce counter would overflow",
	CodeNonceWindowManipulation:       "nonce is too far ahead of the current window",
	CodeReplayDetected:                "signed message is outside the replay-acceptance window",
	CodeAccountAlreadyExists:          "account already exists",
	CodeResourceNotFound:              "resource not found",
	CodeInvalidPda:                    "derived address does not match the expected PDA",
	CodeBumpSeedNotInHashMap:          "bump seed could not be resolved",
	CodePermissionExpired:             "permission grant has expired",
	CodeTooManyPermissions:            "permission grants vector is full",
	CodeRateLimitExceeded:             "wallet exceeded the request rate limit",
	CodeSuspiciousActivity:            "request pattern flagged as suspicious",
}

// Error is the stable, structured error type returned by every operation.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("arcchain[%d]: %s", e.Code, e.Message)
}

// Is allows errors.Is(err, arcerr.New(Code)) style comparisons by code.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Code == e.Code
}

// New constructs a stable error for the supplied code using its canonical
// message.
func New(code Code) *Error {
	msg, ok := messages[code]
	if !ok {
		msg = "unknown error"
	}
	return &Error{Code: code, Message: msg}
}

// Wrap constructs a stable error for the supplied code, appending detail to
// the canonical message. Detail is developer-facing context only; the Code
// is what callers must rely on programmatically.
func Wrap(code Code, detail string) *Error {
	base := New(code)
	if detail == "" {
		return base
	}
	return &Error{Code: code, Message: base.Message + ": " + detail}
}

package tests

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"arcchain/arcerr"
	"arcchain/native/accesscontrol"
	"arcchain/native/agentregistry"
	"arcchain/native/common"
	"arcchain/pda"
)

func clockAt(seconds ...int64) func() int64 {
	i := 0
	return func() int64 {
		if i >= len(seconds) {
			return seconds[len(seconds)-1]
		}
		v := seconds[i]
		i++
		return v
	}
}

func codeOf(t *testing.T, err error) arcerr.Code {
	t.Helper()
	var ae *arcerr.Error
	require.True(t, errors.As(err, &ae), "expected an *arcerr.Error, got %v", err)
	return ae.Code
}

func minimalAgentParams(id string) agentregistry.RegisterParams {
	return agentregistry.RegisterParams{
		ID:           id,
		Name:         "Routing Agent",
		Description:  "routes tasks between downstream agents",
		AgentVersion: "1.0.0",
	}
}

// S1: register an agent, then deregister it, checking the PDA, timestamps,
// and state_version advance exactly as the spec's envelope fields require.
func TestScenarioS1_RegisterThenDeregister(t *testing.T) {
	state := newFakeState()
	owner := [32]byte{0x01}
	engine := agentregistry.NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(clockAt(1000, 2000))

	entry, err := engine.Register(owner, minimalAgentParams("router-1"))
	require.NoError(t, err)

	wantAddr, wantBump, err := pda.FindAgentAddress("router-1", owner)
	require.NoError(t, err)
	require.Equal(t, wantBump, entry.Bump)
	require.Equal(t, int64(1000), entry.RegistrationTimestamp)
	require.Equal(t, int64(1000), entry.LastUpdateTimestamp)
	require.Equal(t, uint64(0), entry.StateVersion())
	require.Equal(t, common.StatusPending, entry.Status)

	stored, ok := state.AgentGet(wantAddr)
	require.True(t, ok)
	require.Same(t, entry, stored)

	deregistered, err := engine.Deregister("router-1", owner, owner)
	require.NoError(t, err)
	require.Equal(t, common.StatusDeregistered, deregistered.Status)
	require.Equal(t, uint64(1), deregistered.StateVersion())
	require.Equal(t, int64(2000), deregistered.LastUpdateTimestamp)

	// L3: deregistering an already-deregistered entry is a no-op.
	again, err := engine.Deregister("router-1", owner, owner)
	require.NoError(t, err)
	require.Equal(t, uint64(1), again.StateVersion())

	// Mutating a deregistered entry fails CodeResourceNotFound (Open
	// Question #1's resolution).
	_, err = engine.UpdateStatus("router-1", owner, owner, common.StatusActive)
	require.Equal(t, arcerr.CodeResourceNotFound, codeOf(t, err))
}

func setupAccessControlEngine(t *testing.T, owner [32]byte, now func() int64) (*accesscontrol.Engine, *fakeState, [32]byte) {
	t.Helper()
	state := newFakeState()
	engine := accesscontrol.NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(now)

	resourceProgram := [32]byte{0xAA}
	_, err := engine.Initialize("svc-1", resourceProgram, owner)
	require.NoError(t, err)
	return engine, state, resourceProgram
}

// S2: nonce replay protection. nonce=5 is accepted, resubmitting nonce=5
// fails CodeNonceAlreadyUsed, and nonce=70 (beyond the 64-wide window)
// slides the window forward and is accepted.
func TestScenarioS2_NonceReplayAndSlide(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	var wallet [32]byte
	copy(wallet[:], pub)

	now := clockAt(1000, 1001, 1002)
	engine, _, resourceProgram := setupAccessControlEngine(t, wallet, now)

	sign := func(nonce uint64, ts int64) [64]byte {
		msg := accesscontrol.BuildCanonicalMessage("svc-1", "read", nonce, ts, nil)
		var sig [64]byte
		copy(sig[:], ed25519.Sign(priv, msg))
		return sig
	}

	err = engine.VerifySignature("svc-1", resourceProgram, wallet, "read", sign(5, 1000), 5, 1000, nil)
	require.NoError(t, err)

	err = engine.VerifySignature("svc-1", resourceProgram, wallet, "read", sign(5, 1001), 5, 1001, nil)
	require.Equal(t, arcerr.CodeNonceAlreadyUsed, codeOf(t, err))

	err = engine.VerifySignature("svc-1", resourceProgram, wallet, "read", sign(70, 1002), 70, 1002, nil)
	require.NoError(t, err)
}

// S4: a delegation cycle is rejected. Owner grants A, A delegates to B,
// and B's attempt to grant back to A must fail with
// CodeCircularDelegationDetected rather than looping forever.
func TestScenarioS4_DelegationCycleRejected(t *testing.T) {
	owner := [32]byte{0x01}
	walletA := [32]byte{0x02}
	walletB := [32]byte{0x03}

	engine, _, resourceProgram := setupAccessControlEngine(t, owner, clockAt(1000))

	_, err := engine.Grant("svc-1", resourceProgram, owner, walletA, []string{"read", "write"}, nil, true, 3)
	require.NoError(t, err)

	_, err = engine.Grant("svc-1", resourceProgram, walletA, walletB, []string{"read"}, nil, true, 2)
	require.NoError(t, err)

	_, err = engine.Grant("svc-1", resourceProgram, walletB, walletA, []string{"read"}, nil, false, 0)
	require.Equal(t, arcerr.CodeCircularDelegationDetected, codeOf(t, err))
}

// S5: a delegated grant may never exceed the granter's own operation set.
// A holds {read}; A's attempt to grant B {read, write} must fail with
// CodeDelegationPrivilegeEscalation.
func TestScenarioS5_PrivilegeEscalationRejected(t *testing.T) {
	owner := [32]byte{0x01}
	walletA := [32]byte{0x02}
	walletB := [32]byte{0x03}

	engine, _, resourceProgram := setupAccessControlEngine(t, owner, clockAt(1000))

	_, err := engine.Grant("svc-1", resourceProgram, owner, walletA, []string{"read"}, nil, true, 2)
	require.NoError(t, err)

	_, err = engine.Grant("svc-1", resourceProgram, walletA, walletB, []string{"read", "write"}, nil, false, 0)
	require.Equal(t, arcerr.CodeDelegationPrivilegeEscalation, codeOf(t, err))
}

// S6: the default-service-endpoint invariant (I2) holds across zero, one,
// and two default-marked endpoints.
func TestScenarioS6_DefaultEndpointInvariant(t *testing.T) {
	state := newFakeState()
	owner := [32]byte{0x01}
	engine := agentregistry.NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(clockAt(1000))

	noEndpoints := minimalAgentParams("agent-zero")
	_, err := engine.Register(owner, noEndpoints)
	require.NoError(t, err, "zero endpoints requires no default marker")

	oneDefault := minimalAgentParams("agent-one")
	oneDefault.ServiceEndpoints = []agentregistry.ServiceEndpoint{
		{Protocol: "https", URL: "https://a2a.example.com/agent-one", IsDefault: true},
	}
	_, err = engine.Register(owner, oneDefault)
	require.NoError(t, err, "exactly one default endpoint is valid")

	missingDefault := minimalAgentParams("agent-missing")
	missingDefault.ServiceEndpoints = []agentregistry.ServiceEndpoint{
		{Protocol: "https", URL: "https://a2a.example.com/agent-missing", IsDefault: false},
	}
	_, err = engine.Register(owner, missingDefault)
	require.Equal(t, arcerr.CodeMissingDefaultEndpoint, codeOf(t, err))

	twoDefaults := minimalAgentParams("agent-two")
	twoDefaults.ServiceEndpoints = []agentregistry.ServiceEndpoint{
		{Protocol: "https", URL: "https://a2a.example.com/agent-two/1", IsDefault: true},
		{Protocol: "https", URL: "https://a2a.example.com/agent-two/2", IsDefault: true},
	}
	_, err = engine.Register(owner, twoDefaults)
	require.Equal(t, arcerr.CodeMultipleDefaultEndpoints, codeOf(t, err))
}

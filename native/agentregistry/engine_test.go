package agentregistry

import (
	"errors"
	"testing"

	"arcchain/arcerr"
	"arcchain/native/common"
	"arcchain/pda"
)

type memState struct {
	agents map[pda.Address]*AgentEntry
}

func newMemState() *memState {
	return &memState{agents: map[pda.Address]*AgentEntry{}}
}

func (s *memState) AgentPut(a *AgentEntry) error {
	addr, _, err := pda.FindAgentAddress(a.ID, a.OwnerAuthority)
	if err != nil {
		return err
	}
	s.agents[addr] = a
	return nil
}

func (s *memState) AgentGet(addr pda.Address) (*AgentEntry, bool) {
	a, ok := s.agents[addr]
	return a, ok
}

func wantCode(t *testing.T, err error, code arcerr.Code) {
	t.Helper()
	var ae *arcerr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *arcerr.Error, got %v", err)
	}
	if ae.Code != code {
		t.Fatalf("expected code %d, got %d (%v)", code, ae.Code, err)
	}
}

func params(id string) RegisterParams {
	return RegisterParams{
		ID:           id,
		Name:         "Routing Agent",
		Description:  "routes tasks between downstream agents",
		AgentVersion: "1.0.0",
	}
}

func newTestEngine(ts int64) (*Engine, *memState) {
	s := newMemState()
	e := NewEngine()
	e.SetState(s)
	e.SetNowFunc(func() int64 { return ts })
	return e, s
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	e, _ := newTestEngine(1000)
	owner := [32]byte{0x01}
	if _, err := e.Register(owner, params("r1")); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := e.Register(owner, params("r1"))
	wantCode(t, err, arcerr.CodeAccountAlreadyExists)
}

func TestSameIDDifferentOwnersCoexist(t *testing.T) {
	e, _ := newTestEngine(1000)
	if _, err := e.Register([32]byte{0x01}, params("shared")); err != nil {
		t.Fatal(err)
	}
	// The PDA folds in the owner key, so another principal registering the
	// same id lands on a different address instead of colliding.
	if _, err := e.Register([32]byte{0x02}, params("shared")); err != nil {
		t.Fatalf("different owner must get its own account: %v", err)
	}
}

func TestUpdateDetailsRequiresOwnerSignature(t *testing.T) {
	e, _ := newTestEngine(1000)
	owner := [32]byte{0x01}
	if _, err := e.Register(owner, params("r1")); err != nil {
		t.Fatal(err)
	}
	_, err := e.UpdateDetails("r1", [32]byte{0x02}, owner, UpdatePatch{Name: strp("X")})
	wantCode(t, err, arcerr.CodeUnauthorized)
}

func TestUpdateDetailsEmptyPatchIsNoOp(t *testing.T) {
	e, _ := newTestEngine(1000)
	owner := [32]byte{0x01}
	entry, err := e.Register(owner, params("r1"))
	if err != nil {
		t.Fatal(err)
	}

	e.SetNowFunc(func() int64 { return 2000 })
	after, err := e.UpdateDetails("r1", owner, owner, UpdatePatch{})
	if err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	if after.StateVersion() != entry.StateVersion() || after.LastUpdateTimestamp != 1000 {
		t.Fatal("empty patch must leave version and timestamp untouched")
	}
}

func TestUpdateDetailsSetAndClear(t *testing.T) {
	e, _ := newTestEngine(1000)
	owner := [32]byte{0x01}
	p := params("r1")
	p.ProviderName = strp("Example Labs")
	if _, err := e.Register(owner, p); err != nil {
		t.Fatal(err)
	}

	e.SetNowFunc(func() int64 { return 2000 })
	after, err := e.UpdateDetails("r1", owner, owner, UpdatePatch{
		Name:                strp("Renamed"),
		ClearProviderName:   true,
		DocumentationURL:    strp("https://docs.example.com"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if after.Name != "Renamed" {
		t.Fatal("set did not apply")
	}
	if after.ProviderName != nil {
		t.Fatal("clear did not apply")
	}
	if after.DocumentationURL == nil || *after.DocumentationURL != "https://docs.example.com" {
		t.Fatal("optional set did not apply")
	}
	if after.StateVersion() != 1 || after.LastUpdateTimestamp != 2000 {
		t.Fatalf("version/timestamp not advanced: v=%d ts=%d", after.StateVersion(), after.LastUpdateTimestamp)
	}
	if after.RegistrationTimestamp != 1000 {
		t.Fatal("registration timestamp must never move")
	}
}

func TestUpdateDetailsRevalidatesMergedEntry(t *testing.T) {
	e, _ := newTestEngine(1000)
	owner := [32]byte{0x01}
	if _, err := e.Register(owner, params("r1")); err != nil {
		t.Fatal(err)
	}
	eps := []ServiceEndpoint{
		{Protocol: "https", URL: "https://a.example.com", IsDefault: false},
	}
	_, err := e.UpdateDetails("r1", owner, owner, UpdatePatch{ServiceEndpoints: &eps})
	wantCode(t, err, arcerr.CodeMissingDefaultEndpoint)
}

func TestUpdateStatusIsNoOpOnSameValue(t *testing.T) {
	e, _ := newTestEngine(1000)
	owner := [32]byte{0x01}
	entry, err := e.Register(owner, params("r1"))
	if err != nil {
		t.Fatal(err)
	}
	after, err := e.UpdateStatus("r1", owner, owner, common.StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if after.StateVersion() != entry.StateVersion() {
		t.Fatal("same-status update must not advance the version")
	}
}

func TestUpdateStatusRejectsOutOfRange(t *testing.T) {
	e, _ := newTestEngine(1000)
	owner := [32]byte{0x01}
	if _, err := e.Register(owner, params("r1")); err != nil {
		t.Fatal(err)
	}
	_, err := e.UpdateStatus("r1", owner, owner, common.Status(9))
	wantCode(t, err, arcerr.CodeInvalidAgentStatus)
}

func TestDeregisteredEntryRejectsMutation(t *testing.T) {
	e, _ := newTestEngine(1000)
	owner := [32]byte{0x01}
	if _, err := e.Register(owner, params("r1")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Deregister("r1", owner, owner); err != nil {
		t.Fatal(err)
	}
	_, err := e.UpdateDetails("r1", owner, owner, UpdatePatch{Name: strp("X")})
	wantCode(t, err, arcerr.CodeResourceNotFound)
	_, err = e.UpdateStatus("r1", owner, owner, common.StatusActive)
	wantCode(t, err, arcerr.CodeResourceNotFound)
}

func testCaller(program [32]byte) common.Caller {
	return common.Caller{Program: program, IsSigner: true, Executable: true}
}

func TestRecordServiceCompletionGatedByAllowlist(t *testing.T) {
	e, _ := newTestEngine(1000)
	owner := [32]byte{0x01}
	escrow := [32]byte{0xE0}
	e.SetAuthorizedCallers(common.Allowlist{Escrow: escrow})
	if _, err := e.Register(owner, params("r1")); err != nil {
		t.Fatal(err)
	}

	_, err := e.RecordServiceCompletion(testCaller([32]byte{0x99}), "r1", owner, 100, 450, 120)
	wantCode(t, err, arcerr.CodeUnauthorizedProgram)

	unsigned := testCaller(escrow)
	unsigned.IsSigner = false
	_, err = e.RecordServiceCompletion(unsigned, "r1", owner, 100, 450, 120)
	wantCode(t, err, arcerr.CodeMissingRequiredSignature)

	nonExec := testCaller(escrow)
	nonExec.Executable = false
	_, err = e.RecordServiceCompletion(nonExec, "r1", owner, 100, 450, 120)
	wantCode(t, err, arcerr.CodeInvalidProgramAccount)

	entry, err := e.RecordServiceCompletion(testCaller(escrow), "r1", owner, 100, 450, 120)
	if err != nil {
		t.Fatalf("authorised caller: %v", err)
	}
	if entry.ServiceCompletedCount != 1 || entry.TotalEarnings != 100 {
		t.Fatal("counters not updated")
	}
}

func TestQualityScoreFormula(t *testing.T) {
	e, _ := newTestEngine(1000)
	owner := [32]byte{0x01}
	escrow := [32]byte{0xE0}
	ddr := [32]byte{0xD0}
	e.SetAuthorizedCallers(common.Allowlist{Escrow: escrow, DDR: ddr})
	if _, err := e.Register(owner, params("r1")); err != nil {
		t.Fatal(err)
	}

	// One completion: perfect 5.0 rating, 2-minute response.
	entry, err := e.RecordServiceCompletion(testCaller(escrow), "r1", owner, 100, 500, 120)
	if err != nil {
		t.Fatal(err)
	}
	// 5*1 + 600*5 + 0 + 10*100 = 4005
	if entry.QualityScore != 4005 {
		t.Fatalf("expected quality score 4005, got %d", entry.QualityScore)
	}

	entry, err = e.RecordDisputeOutcome(testCaller(ddr), "r1", owner, true)
	if err != nil {
		t.Fatal(err)
	}
	// dispute win ratio now 100%: 4005 + 10*100 = 5005
	if entry.QualityScore != 5005 {
		t.Fatalf("expected quality score 5005, got %d", entry.QualityScore)
	}
	if entry.DisputeCount != 1 || entry.DisputeWins != 1 {
		t.Fatal("dispute counters not updated")
	}
}

type recordingDeposit struct {
	calls int
	fail  error
}

func (d *recordingDeposit) CollectRegistrationDeposit(owner [32]byte, vault pda.Address) error {
	d.calls++
	return d.fail
}

func TestRegisterRunsDepositHook(t *testing.T) {
	e, s := newTestEngine(1000)
	owner := [32]byte{0x01}

	hook := &recordingDeposit{fail: errors.New("insufficient funds")}
	e.SetDepositHook(hook)
	if _, err := e.Register(owner, params("r1")); err == nil {
		t.Fatal("failed deposit must abort registration")
	}
	if len(s.agents) != 0 {
		t.Fatal("aborted registration must not persist an entry")
	}

	hook.fail = nil
	if _, err := e.Register(owner, params("r1")); err != nil {
		t.Fatalf("register with passing hook: %v", err)
	}
	if hook.calls != 2 {
		t.Fatalf("hook called %d times, want 2", hook.calls)
	}
}

func TestResponseBucketScore(t *testing.T) {
	cases := []struct {
		secs uint64
		want uint64
	}{
		{60, 100},
		{5 * 60, 100},
		{10 * 60, 80},
		{30 * 60, 60},
		{3 * 60 * 60, 40},
		{48 * 60 * 60, 20},
	}
	for _, c := range cases {
		if got := responseBucketScore(c.secs); got != c.want {
			t.Errorf("responseBucketScore(%d) = %d, want %d", c.secs, got, c.want)
		}
	}
}

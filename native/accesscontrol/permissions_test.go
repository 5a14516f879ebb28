package accesscontrol

import (
	"errors"
	"testing"

	"arcchain/arcerr"
)

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

func testAccount(owner [32]byte) *AccessControlAccount {
	return &AccessControlAccount{
		ResourceID:           "svc",
		Owner:                owner,
		DelegationChainLimit: DelegationChainLimit,
	}
}

func ownerGrant(owner, wallet [32]byte, ops []string, canDelegate bool) PermissionGrant {
	maxDepth := uint8(0)
	if canDelegate {
		maxDepth = DelegationChainLimit
	}
	return PermissionGrant{
		Wallet:             wallet,
		Operations:         ops,
		GrantedBy:          owner,
		CanDelegate:        canDelegate,
		MaxDelegationDepth: maxDepth,
	}
}

func TestInsertReplacesExistingGrant(t *testing.T) {
	owner := [32]byte{0x01}
	wallet := [32]byte{0x02}
	a := testAccount(owner)

	if err := a.Insert(ownerGrant(owner, wallet, []string{"read", "write"}, false), 0); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := a.Insert(ownerGrant(owner, wallet, []string{"read"}, false), 0); err != nil {
		t.Fatalf("replace insert: %v", err)
	}
	if len(a.PermissionGrants) != 1 {
		t.Fatalf("grant wallets must stay unique, got %d grants", len(a.PermissionGrants))
	}
	if len(a.PermissionGrants[0].Operations) != 1 {
		t.Fatal("replacement did not take effect")
	}
}

func TestInsertRejectsUnknownGranter(t *testing.T) {
	owner := [32]byte{0x01}
	a := testAccount(owner)
	g := PermissionGrant{
		Wallet:    [32]byte{0x03},
		GrantedBy: [32]byte{0x99}, // neither owner nor an existing grantee
	}
	wantCode(t, a.Insert(g, 0), arcerr.CodeInvalidDelegationChain)
}

func TestInsertRejectsEscalation(t *testing.T) {
	owner := [32]byte{0x01}
	walletA := [32]byte{0x02}
	walletB := [32]byte{0x03}
	a := testAccount(owner)

	if err := a.Insert(ownerGrant(owner, walletA, []string{"read"}, true), 0); err != nil {
		t.Fatalf("seed grant: %v", err)
	}
	g := PermissionGrant{
		Wallet:          walletB,
		Operations:      []string{"read", "write"},
		GrantedBy:       walletA,
		DelegationDepth: 1,
	}
	wantCode(t, a.Insert(g, 0), arcerr.CodeDelegationPrivilegeEscalation)
}

func TestInsertRejectsCycle(t *testing.T) {
	owner := [32]byte{0x01}
	walletA := [32]byte{0x02}
	walletB := [32]byte{0x03}
	a := testAccount(owner)

	if err := a.Insert(ownerGrant(owner, walletA, []string{"read"}, true), 0); err != nil {
		t.Fatalf("grant A: %v", err)
	}
	b := PermissionGrant{
		Wallet:             walletB,
		Operations:         []string{"read"},
		GrantedBy:          walletA,
		CanDelegate:        true,
		DelegationDepth:    1,
		MaxDelegationDepth: 3,
	}
	if err := a.Insert(b, 0); err != nil {
		t.Fatalf("grant B: %v", err)
	}
	// Re-granting A from B would make A's chain A -> B -> A.
	back := PermissionGrant{
		Wallet:          walletA,
		Operations:      []string{"read"},
		GrantedBy:       walletB,
		DelegationDepth: 2,
	}
	wantCode(t, a.Insert(back, 0), arcerr.CodeCircularDelegationDetected)
}

func TestInsertRejectsDepthBeyondLimit(t *testing.T) {
	owner := [32]byte{0x01}
	a := testAccount(owner)
	g := ownerGrant(owner, [32]byte{0x02}, []string{"read"}, false)
	g.DelegationDepth = DelegationChainLimit + 1
	wantCode(t, a.Insert(g, 0), arcerr.CodeDelegationChainTooDeep)
}

func TestInsertRejectsGrantVectorOverflow(t *testing.T) {
	owner := [32]byte{0x01}
	a := testAccount(owner)
	for i := 0; i < MaxGrantsPerResource; i++ {
		var w [32]byte
		w[0] = 0x10
		w[1] = byte(i)
		if err := a.Insert(ownerGrant(owner, w, []string{"read"}, false), 0); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	overflow := ownerGrant(owner, [32]byte{0xFF, 0xFF}, []string{"read"}, false)
	wantCode(t, a.Insert(overflow, 0), arcerr.CodeTooManyPermissions)
}

func TestRevokeCascadeIsShallow(t *testing.T) {
	owner := [32]byte{0x01}
	walletA := [32]byte{0x02}
	walletB := [32]byte{0x03}
	walletC := [32]byte{0x04}
	a := testAccount(owner)

	if err := a.Insert(ownerGrant(owner, walletA, []string{"read"}, true), 0); err != nil {
		t.Fatal(err)
	}
	b := PermissionGrant{Wallet: walletB, Operations: []string{"read"}, GrantedBy: walletA, CanDelegate: true, DelegationDepth: 1, MaxDelegationDepth: 3}
	if err := a.Insert(b, 0); err != nil {
		t.Fatal(err)
	}
	c := PermissionGrant{Wallet: walletC, Operations: []string{"read"}, GrantedBy: walletB, DelegationDepth: 2}
	if err := a.Insert(c, 0); err != nil {
		t.Fatal(err)
	}

	removed := a.Revoke(walletA, true)
	if removed != 2 {
		t.Fatalf("expected A and its direct delegate B removed, got %d", removed)
	}
	// C was delegated by B, not A: the cascade is one level, so C survives
	// as an orphan until its own parent is revoked with the flag set.
	if a.Find(walletC) < 0 {
		t.Fatal("grandchild grant must survive a shallow cascade")
	}
}

func TestRevokeWithoutCascadeLeavesDelegates(t *testing.T) {
	owner := [32]byte{0x01}
	walletA := [32]byte{0x02}
	walletB := [32]byte{0x03}
	a := testAccount(owner)

	if err := a.Insert(ownerGrant(owner, walletA, []string{"read"}, true), 0); err != nil {
		t.Fatal(err)
	}
	b := PermissionGrant{Wallet: walletB, Operations: []string{"read"}, GrantedBy: walletA, DelegationDepth: 1}
	if err := a.Insert(b, 0); err != nil {
		t.Fatal(err)
	}
	if removed := a.Revoke(walletA, false); removed != 1 {
		t.Fatalf("expected only A removed, got %d", removed)
	}
	if a.Find(walletB) < 0 {
		t.Fatal("delegate must survive a non-cascading revoke")
	}
}

func TestPruneIsBounded(t *testing.T) {
	owner := [32]byte{0x01}
	a := testAccount(owner)
	expired := int64(10)
	for i := 0; i < 4; i++ {
		var w [32]byte
		w[0] = byte(i + 2)
		g := ownerGrant(owner, w, []string{"read"}, false)
		g.ExpiresAt = &expired
		if err := a.Insert(g, 0); err != nil {
			t.Fatal(err)
		}
	}
	if removed := a.Prune(100, 2); removed != 2 {
		t.Fatalf("prune must respect max_to_prune, removed %d", removed)
	}
	if len(a.PermissionGrants) != 2 {
		t.Fatalf("expected 2 grants left, got %d", len(a.PermissionGrants))
	}
	if removed := a.Prune(100, 10); removed != 2 {
		t.Fatalf("second prune should remove the rest, removed %d", removed)
	}
}

func TestExpiredGrantIsNotLive(t *testing.T) {
	past := int64(5)
	g := PermissionGrant{Operations: []string{"read"}, ExpiresAt: &past}
	if !g.Expired(10) {
		t.Fatal("grant past its expiry must report expired")
	}
	if g.Expired(5) {
		t.Fatal("grant at its expiry instant is still live")
	}
	g.ExpiresAt = nil
	if g.Expired(1 << 40) {
		t.Fatal("grant without expiry never expires")
	}
}

package accesscontrol

import (
	"reflect"
	"testing"
)

func fullAccount() *AccessControlAccount {
	expiry := int64(9000)
	a := &AccessControlAccount{
		Bump:                 254,
		ResourceID:           "payments-gateway",
		ResourceProgram:      [32]byte{0xAA, 0x01},
		Owner:                [32]byte{0xBB, 0x02},
		GlobalNonceCounter:   42,
		DelegationChainLimit: DelegationChainLimit,
		CreatedAt:            1000,
		UpdatedAt:            2000,
		PermissionGrants: []PermissionGrant{
			{
				Wallet:             [32]byte{0x03},
				Operations:         []string{"read", "write"},
				GrantedAt:          1500,
				ExpiresAt:          &expiry,
				CanDelegate:        true,
				GrantedBy:          [32]byte{0xBB, 0x02},
				DelegationDepth:    0,
				MaxDelegationDepth: 3,
			},
			{
				Wallet:          [32]byte{0x04},
				Operations:      []string{"read"},
				GrantedAt:       1600,
				GrantedBy:       [32]byte{0x03},
				DelegationDepth: 1,
			},
		},
	}
	a.SetStateVersion(7)
	return a
}

func TestAccessControlAccountRoundTrip(t *testing.T) {
	a := fullAccount()
	decoded, err := DecodeAccessControlAccount(a.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(a, decoded) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", a, decoded)
	}
}

func TestAccessControlAccountEncodesExactSpace(t *testing.T) {
	// SPACE is defined as the serialized length at maximum occupancy and the
	// encoder always pads vectors to their bound, so every account encodes
	// to exactly SPACE bytes regardless of runtime content.
	if got := len(fullAccount().Encode()); got != AccessControlAccountSpace {
		t.Fatalf("encoded %d bytes, SPACE is %d", got, AccessControlAccountSpace)
	}
	empty := &AccessControlAccount{ResourceID: "x"}
	if got := len(empty.Encode()); got != AccessControlAccountSpace {
		t.Fatalf("empty account encoded %d bytes, SPACE is %d", got, AccessControlAccountSpace)
	}
}

func TestDecodeRejectsForeignDiscriminator(t *testing.T) {
	buf := fullAccount().Encode()
	buf[0] ^= 0xFF
	if _, err := DecodeAccessControlAccount(buf); err == nil {
		t.Fatal("mismatched discriminator must be rejected")
	}
}

func TestNonceTrackerRoundTrip(t *testing.T) {
	tr := &NonceTracker{
		Bump:                253,
		ResourceID:          "payments-gateway",
		Wallet:              [32]byte{0x05},
		LastUpdateTimestamp: 1234,
		UpdateSequence:      9,
		Window: NonceWindow{
			BaseNonce:            64,
			WindowBitmap:         0b1011,
			TotalNoncesProcessed: 70,
		},
	}
	decoded, err := DecodeNonceTracker(tr.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(tr, decoded) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", tr, decoded)
	}
}

func TestNonceTrackerRejectsWrongDiscriminator(t *testing.T) {
	tr := &NonceTracker{ResourceID: "svc"}
	buf := tr.Encode()
	buf[3] ^= 0x55
	if _, err := DecodeNonceTracker(buf); err == nil {
		t.Fatal("mismatched discriminator must be rejected")
	}
}

func TestPermissionIndexRoundTrip(t *testing.T) {
	p := &PermissionIndex{
		Bump:           252,
		ResourceID:     "payments-gateway",
		Wallet:         [32]byte{0x06},
		GrantIndex:     3,
		OperationFlags: OpRead | OpDelegate,
		UpdatedAt:      4321,
	}
	decoded, err := DecodePermissionIndex(p.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(p, decoded) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", p, decoded)
	}
}

func TestOperationFlags(t *testing.T) {
	flags := operationFlags([]string{"read", "execute", "admin", "unknown"})
	if flags != OpRead|OpExecute|OpAdmin {
		t.Fatalf("wrong flags: %b", flags)
	}
}

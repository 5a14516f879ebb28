package crypto

import "testing"

func TestAddressRoundTrip(t *testing.T) {
	priv, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	addr := priv.PubKey().Address()
	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.String() != addr.String() {
		t.Fatalf("round trip mismatch: %s != %s", decoded.String(), addr.String())
	}
}

func TestSignAndVerify(t *testing.T) {
	priv, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	msg := []byte("agent-registry:register")
	sig := priv.Sign(msg)
	if !priv.PubKey().Verify(msg, sig) {
		t.Fatal("signature did not verify")
	}
	if priv.PubKey().Verify([]byte("tampered"), sig) {
		t.Fatal("signature verified against tampered message")
	}
}

func TestSeedRoundTrip(t *testing.T) {
	priv, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	reconstructed, err := PrivateKeyFromSeed(priv.Seed())
	if err != nil {
		t.Fatalf("from seed: %v", err)
	}
	if reconstructed.PubKey().Address().String() != priv.PubKey().Address().String() {
		t.Fatal("reconstructed key has different address")
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	priv, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	path := t.TempDir() + "/key.json"
	if err := SaveToKeystore(path, priv, "correct horse battery staple"); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadFromKeystore(path, "correct horse battery staple")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.PubKey().Address().String() != priv.PubKey().Address().String() {
		t.Fatal("loaded key has different address")
	}
	if _, err := LoadFromKeystore(path, "wrong passphrase"); err == nil {
		t.Fatal("expected error for wrong passphrase")
	}
}

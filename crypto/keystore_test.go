package crypto

import (
	"path/filepath"
	"testing"
)

func TestSaveToKeystoreValidatesInputs(t *testing.T) {
	if err := SaveToKeystore("", &PrivateKey{}, "pw"); err == nil {
		t.Fatal("empty path must be rejected")
	}
	if err := SaveToKeystore(filepath.Join(t.TempDir(), "k.json"), nil, "pw"); err == nil {
		t.Fatal("nil key must be rejected")
	}
}

func TestSaveToKeystoreCreatesParentDirs(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "nested", "wallet", "key.json")
	if err := SaveToKeystore(path, key, "pw"); err != nil {
		t.Fatalf("save into missing directories: %v", err)
	}
	if _, err := LoadFromKeystore(path, "pw"); err != nil {
		t.Fatalf("load: %v", err)
	}
}

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	cryptorand "crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

// Scrypt parameters mirror the teacher's StandardScryptN/StandardScryptP
// go-ethereum keystore defaults; N=2^18 costs ~1s on modern hardware, which
// is the same interactive-unlock budget the teacher keystore targets.
const (
	scryptN     = 1 << 18
	scryptR     = 8
	scryptP     = 1
	scryptKeyLen = 32
	saltLen     = 32
	nonceLen    = 12
)

// keystoreFile is the on-disk envelope: scrypt KDF parameters plus an
// AES-256-GCM ciphertext wrapping the ed25519 seed. This replaces the
// teacher's go-ethereum v3 keystore JSON, which is hard-coded to ECDSA keys
// and has no field for an ed25519 seed.
type keystoreFile struct {
	Version int    `json:"version"`
	Salt    string `json:"salt"`
	Nonce   string `json:"nonce"`
	Cipher  string `json:"ciphertext"`
	N       int    `json:"scrypt_n"`
	R       int    `json:"scrypt_r"`
	P       int    `json:"scrypt_p"`
}

const keystoreVersion = 1

// SaveToKeystore writes the private key's ed25519 seed to an encrypted
// keystore file at path, creating parent directories as needed. The file is
// written via a temp-file-then-rename so a crash mid-write never leaves a
// truncated keystore behind.
func SaveToKeystore(path string, key *PrivateKey, passphrase string) error {
	if key == nil {
		return errors.New("crypto: nil private key")
	}
	if path == "" {
		return errors.New("crypto: empty keystore path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	salt := make([]byte, saltLen)
	if _, err := cryptorand.Read(salt); err != nil {
		return err
	}
	derived, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return err
	}
	block, err := aes.NewCipher(derived)
	if err != nil {
		return err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}
	nonce := make([]byte, nonceLen)
	if _, err := cryptorand.Read(nonce); err != nil {
		return err
	}
	ciphertext := gcm.Seal(nil, nonce, key.Seed(), nil)

	out := keystoreFile{
		Version: keystoreVersion,
		Salt:    hex.EncodeToString(salt),
		Nonce:   hex.EncodeToString(nonce),
		Cipher:  hex.EncodeToString(ciphertext),
		N:       scryptN,
		R:       scryptR,
		P:       scryptP,
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "keystore-")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}

// LoadFromKeystore decrypts a keystore file written by SaveToKeystore using
// the supplied passphrase and reconstructs the ed25519 private key.
func LoadFromKeystore(path, passphrase string) (*PrivateKey, error) {
	if path == "" {
		return nil, errors.New("crypto: empty keystore path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in keystoreFile
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("crypto: malformed keystore file: %w", err)
	}
	if in.Version != keystoreVersion {
		return nil, fmt.Errorf("crypto: unsupported keystore version %d", in.Version)
	}
	salt, err := hex.DecodeString(in.Salt)
	if err != nil {
		return nil, fmt.Errorf("crypto: malformed salt: %w", err)
	}
	nonce, err := hex.DecodeString(in.Nonce)
	if err != nil {
		return nil, fmt.Errorf("crypto: malformed nonce: %w", err)
	}
	ciphertext, err := hex.DecodeString(in.Cipher)
	if err != nil {
		return nil, fmt.Errorf("crypto: malformed ciphertext: %w", err)
	}

	derived, err := scrypt.Key([]byte(passphrase), salt, in.N, in.R, in.P, scryptKeyLen)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	seed, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.New("crypto: incorrect passphrase or corrupted keystore")
	}
	return PrivateKeyFromSeed(seed)
}

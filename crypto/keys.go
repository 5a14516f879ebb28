// Package crypto provides the wallet key material used to authorize
// registry and access-control operations: ed25519 keypairs displayed as
// bech32 addresses, the same shape as the teacher's ECDSA/bech32 Address
// type, swapped to the curve the spec's signature verification actually
// requires (see native/accesscontrol/signature.go).
package crypto

import (
	"crypto/ed25519"
	cryptorand "crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// AddressPrefix defines the human-readable address prefix family.
type AddressPrefix string

// ArcPrefix is the only address prefix this module issues; callers decoding
// addresses from elsewhere still validate the prefix explicitly so a
// foreign-network address is never silently accepted.
const ArcPrefix AddressPrefix = "arc"

// Address is a bech32-displayed ed25519 public key.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

// NewAddress wraps the raw ed25519 public key bytes (ed25519.PublicKeySize,
// 32 bytes) with a display prefix.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != ed25519.PublicKeySize {
		return Address{}, fmt.Errorf("address must be %d bytes long, got %d", ed25519.PublicKeySize, len(b))
	}
	cloned := append([]byte(nil), b...)
	return Address{prefix: prefix, bytes: cloned}, nil
}

// MustNewAddress constructs an address and panics if the input is invalid.
func MustNewAddress(prefix AddressPrefix, b []byte) Address {
	addr, err := NewAddress(prefix, b)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns the raw 32-byte ed25519 public key.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a.bytes...)
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// DecodeAddress parses a bech32-encoded address string.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}

// --- Key Management ---

// PrivateKey wraps an ed25519 seed-backed signing key.
type PrivateKey struct {
	key ed25519.PrivateKey
}

// PublicKey wraps an ed25519 verification key.
type PublicKey struct {
	key ed25519.PublicKey
}

// GeneratePrivateKey creates a fresh ed25519 keypair.
func GeneratePrivateKey() (*PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(cryptorand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: priv}, nil
}

// Bytes returns the 64-byte ed25519 private key encoding (seed || pubkey).
func (k *PrivateKey) Bytes() []byte {
	return append([]byte(nil), k.key...)
}

// Seed returns the 32-byte seed the private key was derived from; this is
// what gets wrapped by the keystore envelope, not the full 64-byte encoding.
func (k *PrivateKey) Seed() []byte {
	return append([]byte(nil), k.key.Seed()...)
}

// PubKey derives the associated public key.
func (k *PrivateKey) PubKey() *PublicKey {
	pub, ok := k.key.Public().(ed25519.PublicKey)
	if !ok {
		panic("crypto: ed25519 private key produced unexpected public key type")
	}
	return &PublicKey{key: pub}
}

// Sign produces a detached ed25519 signature over msg.
func (k *PrivateKey) Sign(msg []byte) []byte {
	return ed25519.Sign(k.key, msg)
}

// Bytes returns the raw 32-byte ed25519 public key.
func (k *PublicKey) Bytes() []byte {
	return append([]byte(nil), k.key...)
}

// Address renders the public key as a bech32 arc1... address.
func (k *PublicKey) Address() Address {
	return MustNewAddress(ArcPrefix, k.key)
}

// Verify checks a detached signature over msg.
func (k *PublicKey) Verify(msg, sig []byte) bool {
	return ed25519.Verify(k.key, msg, sig)
}

// PrivateKeyFromSeed reconstructs a private key from its 32-byte seed.
func PrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes long, got %d", ed25519.SeedSize, len(seed))
	}
	return &PrivateKey{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// PublicKeyFromBytes wraps a raw 32-byte ed25519 public key.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes long, got %d", ed25519.PublicKeySize, len(b))
	}
	return &PublicKey{key: append(ed25519.PublicKey(nil), b...)}, nil
}

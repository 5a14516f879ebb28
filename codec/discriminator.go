package codec

import "github.com/ethereum/go-ethereum/crypto"

// DiscriminatorSize is the width of the account-type discriminator stored
// in the first bytes of every registry and access-control account.
const DiscriminatorSize = 8

// Discriminator derives the 8-byte type tag for an account struct from its
// name, keccak-hashed under a fixed domain prefix so two structs can never
// share a tag and a tag can never collide with serialized field content.
// The derivation uses the same hash primitive as the rest of the module
// (see pda.FindAddress).
func Discriminator(name string) [DiscriminatorSize]byte {
	hash := crypto.Keccak256([]byte("account:" + name))
	var out [DiscriminatorSize]byte
	copy(out[:], hash)
	return out
}

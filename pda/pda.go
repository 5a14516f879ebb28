// Package pda derives deterministic, collision-resistant addresses from a
// set of seeds, the same way `core/state/manager.go`'s `escrowModuleAddress`
// and `escrowStorageKey` derive module/account keys by hashing a seed
// prefix plus payload with keccak256. Here the derivation also searches a
// canonical bump so two different seed sets can never be steered onto the
// same address by an attacker picking their own bump (mirroring the
// off-curve exclusion a PDA derivation performs on a real curve-based host).
package pda

import (
	"github.com/ethereum/go-ethereum/crypto"

	"arcchain/arcerr"
)

// MaxSeedLength bounds any individual seed, matching the resource/operation
// id bounds elsewhere in the spec so a seed can never silently truncate.
const MaxSeedLength = 64

// MaxSeeds bounds the number of seeds combined into one derivation.
const MaxSeeds = 8

// excludedByte is the canonical value a derived address's leading byte must
// not equal; if the first candidate bump collides, the bump search tries
// the next candidate instead of accepting it. This stands in for the
// off-curve check a Solana-style host performs natively.
const excludedByte = 0xff

// Address is the 32-byte derived address type used to key every registry
// and access-control account.
type Address [32]byte

// FindAddress derives a canonical address and bump for the given seeds,
// starting the bump search at 255 and counting down, matching the
// find_program_address convention the spec borrows: the first bump that
// does not land on an excluded candidate wins, and that result is the only
// one CreateAddress will accept at the given seeds.
func FindAddress(seeds ...[]byte) (Address, uint8, error) {
	if len(seeds) == 0 || len(seeds) > MaxSeeds {
		return Address{}, 0, arcerr.Wrap(arcerr.CodeInvalidPda, "seed count out of range")
	}
	for _, s := range seeds {
		if len(s) > MaxSeedLength {
			return Address{}, 0, arcerr.Wrap(arcerr.CodeInvalidPda, "seed exceeds max length")
		}
	}
	for bump := 255; bump >= 0; bump-- {
		addr := derive(seeds, uint8(bump))
		if addr[0] != excludedByte {
			return addr, uint8(bump), nil
		}
	}
	return Address{}, 0, arcerr.New(arcerr.CodeBumpSeedNotInHashMap)
}

// CreateAddress derives the address for seeds at an explicit bump without
// searching, and reports whether that bump is the canonical one (i.e. would
// have been chosen by FindAddress). Callers that received a stored bump use
// this to re-derive and verify it; only the bumps above it are re-derived,
// to confirm none of them would have been chosen first.
func CreateAddress(seeds [][]byte, bump uint8) (Address, bool) {
	addr := derive(seeds, bump)
	if addr[0] == excludedByte {
		return addr, false
	}
	for b := 255; b > int(bump); b-- {
		if derive(seeds, uint8(b))[0] != excludedByte {
			return addr, false
		}
	}
	return addr, true
}

// Verify re-derives the address for seeds at bump and confirms it matches
// want exactly, returning arcerr.CodeBumpSeedNotInHashMap for a
// non-canonical bump and arcerr.CodeInvalidPda for an address mismatch.
func Verify(want Address, bump uint8, seeds ...[]byte) error {
	got, canonical := CreateAddress(seeds, bump)
	if !canonical {
		return arcerr.New(arcerr.CodeBumpSeedNotInHashMap)
	}
	if got != want {
		return arcerr.New(arcerr.CodeInvalidPda)
	}
	return nil
}

func derive(seeds [][]byte, bump uint8) Address {
	total := 0
	for _, s := range seeds {
		total += len(s) + 1 // length-delimit each seed so ("ab","c") != ("a","bc")
	}
	buf := make([]byte, 0, total+1)
	for _, s := range seeds {
		buf = append(buf, byte(len(s)))
		buf = append(buf, s...)
	}
	buf = append(buf, bump)
	hash := crypto.Keccak256(buf)
	var addr Address
	copy(addr[:], hash)
	return addr
}

package accesscontrol

import (
	"crypto/ed25519"
	"encoding/binary"
)

// BuildCanonicalMessage constructs the exact byte sequence signed for
// access-control verification (spec §6):
// resource_id || 0x00 || operation || 0x00 || nonce_le_u64 ||
// timestamp_le_i64 || optional_payload.
func BuildCanonicalMessage(resourceID, operation string, nonce uint64, timestamp int64, payload []byte) []byte {
	buf := make([]byte, 0, len(resourceID)+1+len(operation)+1+8+8+len(payload))
	buf = append(buf, resourceID...)
	buf = append(buf, 0x00)
	buf = append(buf, operation...)
	buf = append(buf, 0x00)
	var nonceBuf [8]byte
	binary.LittleEndian.PutUint64(nonceBuf[:], nonce)
	buf = append(buf, nonceBuf[:]...)
	var tsBuf [8]byte
	binary.LittleEndian.PutUint64(tsBuf[:], uint64(timestamp))
	buf = append(buf, tsBuf[:]...)
	buf = append(buf, payload...)
	return buf
}

// VerifySignature checks a detached ed25519 signature over the canonical
// message built from the supplied fields, using signer as the wallet's
// public key (spec §6: "public key is the signer's wallet key").
func VerifySignature(signer [32]byte, sig [64]byte, resourceID, operation string, nonce uint64, timestamp int64, payload []byte) bool {
	msg := BuildCanonicalMessage(resourceID, operation, nonce, timestamp, payload)
	return ed25519.Verify(ed25519.PublicKey(signer[:]), msg, sig[:])
}

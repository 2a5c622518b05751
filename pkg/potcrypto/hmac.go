// Package potcrypto implements the three cryptographic primitives the PoT
// chain relies on: HMAC-SHA256 over a fixed preimage, length-preserving
// AES-CTR encryption of the 32-byte PVF under a wire-exact 16-byte nonce
// (no authentication tag), and CSPRNG nonce
// generation. These map directly onto the external AES/HMAC primitives
// named in the specification; nothing here is a home-grown cipher.
package potcrypto

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/srv6pot/potnode/pkg/errs"
	"github.com/srv6pot/potnode/pkg/wire"
)

// KeyLen is the fixed width of every k_pot_in[i] symmetric key.
const KeyLen = 32

// HMAC computes the 32-byte HMAC-SHA256 over preimage under key.
func HMAC(key [KeyLen]byte, preimage []byte) ([wire.HMACLen]byte, error) {
	mac := hmac.New(sha256.New, key[:])
	if _, err := mac.Write(preimage); err != nil {
		return [wire.HMACLen]byte{}, errs.Wrap(errs.Crypto, err)
	}
	var out [wire.HMACLen]byte
	copy(out[:], mac.Sum(nil))
	return out, nil
}

// Equal does a constant-time comparison of two HMAC values, per the
// egress verification step.
func Equal(a, b [wire.HMACLen]byte) bool {
	return hmac.Equal(a[:], b[:])
}

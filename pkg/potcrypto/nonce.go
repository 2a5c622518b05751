package potcrypto

import (
	"crypto/rand"

	"github.com/srv6pot/potnode/pkg/errs"
	"github.com/srv6pot/potnode/pkg/wire"
)

// Nonce draws a fresh 16-byte nonce from the system CSPRNG. Ingress calls
// this once per packet; the PoT scheme's security depends on every
// (key, nonce) pair being used at most once, which a fresh random draw
// gives with overwhelming probability without any caller-side bookkeeping.
func Nonce() ([wire.NonceLen]byte, error) {
	var out [wire.NonceLen]byte
	if _, err := rand.Read(out[:]); err != nil {
		return out, errs.New(errs.Crypto, "nonce: entropy source unavailable: %v", err)
	}
	return out, nil
}

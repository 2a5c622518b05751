package potcrypto

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/srv6pot/potnode/pkg/errs"
	"github.com/srv6pot/potnode/pkg/wire"
)

// streamForKey builds an AES-CTR keystream keyed by key and seeded with
// the wire-exact 16-byte PoT TLV nonce as the IV. AES's own block size is
// 16 bytes, so the nonce is used whole, with no truncation or padding.
// CTR is length-preserving: the 32-byte PVF stays 32 bytes on the wire.
// Authentication is not provided by this primitive; it is provided by the
// outer HMAC-SHA256 recomputation and comparison the egress performs
// after decryption (§4.6), which is exactly the scheme's "caller
// guarantees nonce uniqueness per key" branch — satisfied here because
// nonce() draws a fresh value per packet.
func streamForKey(key [KeyLen]byte, nonce [wire.NonceLen]byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errs.Wrap(errs.Crypto, err)
	}
	if block.BlockSize() != wire.NonceLen {
		return nil, errs.New(errs.Crypto, "pvf: unexpected AES block size %d", block.BlockSize())
	}
	return cipher.NewCTR(block, nonce[:]), nil
}

// EncryptPVF seals the 32-byte HMAC value under (key, nonce), producing a
// 32-byte ciphertext.
func EncryptPVF(key [KeyLen]byte, nonce [wire.NonceLen]byte, h [wire.HMACLen]byte) ([wire.HMACLen]byte, error) {
	stream, err := streamForKey(key, nonce)
	if err != nil {
		return [wire.HMACLen]byte{}, err
	}
	var out [wire.HMACLen]byte
	stream.XORKeyStream(out[:], h[:])
	return out, nil
}

// DecryptPVF is EncryptPVF's exact inverse.
func DecryptPVF(key [KeyLen]byte, nonce [wire.NonceLen]byte, ciphertext [wire.HMACLen]byte) ([wire.HMACLen]byte, error) {
	stream, err := streamForKey(key, nonce)
	if err != nil {
		return [wire.HMACLen]byte{}, err
	}
	var out [wire.HMACLen]byte
	stream.XORKeyStream(out[:], ciphertext[:])
	return out, nil
}

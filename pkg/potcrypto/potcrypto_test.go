package potcrypto

import (
	"bytes"
	"testing"

	"github.com/srv6pot/potnode/pkg/wire"
)

func mustKey(b byte) [KeyLen]byte {
	var k [KeyLen]byte
	for i := range k {
		k[i] = b
	}
	return k
}

func TestHMAC_Deterministic(t *testing.T) {
	key := mustKey(0x42)
	preimage := bytes.Repeat([]byte{0x01}, 64)

	h1, err := HMAC(key, preimage)
	if err != nil {
		t.Fatalf("HMAC: %v", err)
	}
	h2, err := HMAC(key, preimage)
	if err != nil {
		t.Fatalf("HMAC: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("HMAC not deterministic: %x != %x", h1, h2)
	}
}

func TestHMAC_DifferentKeysDiffer(t *testing.T) {
	preimage := bytes.Repeat([]byte{0x01}, 64)
	h1, _ := HMAC(mustKey(0x01), preimage)
	h2, _ := HMAC(mustKey(0x02), preimage)
	if h1 == h2 {
		t.Fatalf("HMAC collided across distinct keys")
	}
}

func TestEqual(t *testing.T) {
	key := mustKey(0x07)
	preimage := bytes.Repeat([]byte{0xAB}, 64)
	h, _ := HMAC(key, preimage)
	if !Equal(h, h) {
		t.Fatalf("Equal(h, h) = false")
	}
	other := h
	other[0] ^= 0xFF
	if Equal(h, other) {
		t.Fatalf("Equal(h, tampered) = true")
	}
}

func TestEncryptDecryptPVF_Inverse(t *testing.T) {
	key := mustKey(0x11)
	var nonce [wire.NonceLen]byte
	for i := range nonce {
		nonce[i] = byte(i)
	}
	var h [wire.HMACLen]byte
	for i := range h {
		h[i] = byte(255 - i)
	}

	ct, err := EncryptPVF(key, nonce, h)
	if err != nil {
		t.Fatalf("EncryptPVF: %v", err)
	}
	if ct == h {
		t.Fatalf("ciphertext equals plaintext")
	}
	pt, err := DecryptPVF(key, nonce, ct)
	if err != nil {
		t.Fatalf("DecryptPVF: %v", err)
	}
	if pt != h {
		t.Fatalf("DecryptPVF(EncryptPVF(h)) = %x, want %x", pt, h)
	}
}

func TestEncryptPVF_NonceChangesCiphertext(t *testing.T) {
	key := mustKey(0x22)
	var n1, n2 [wire.NonceLen]byte
	n2[0] = 1
	var h [wire.HMACLen]byte
	h[0] = 1

	c1, _ := EncryptPVF(key, n1, h)
	c2, _ := EncryptPVF(key, n2, h)
	if c1 == c2 {
		t.Fatalf("ciphertext identical across distinct nonces")
	}
}

func TestNonce_Unique(t *testing.T) {
	n1, err := Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	n2, err := Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if n1 == n2 {
		t.Fatalf("two consecutive nonces collided, astronomically unlikely")
	}
}

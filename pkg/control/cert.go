package control

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"time"

	"github.com/srv6pot/potnode/pkg/errs"
)

// generateTLSConfig builds a throwaway self-signed ed25519 certificate for
// the management endpoint. It is regenerated on every start-up and never
// written to disk: nothing about the management endpoint's identity needs
// to survive a restart, and operators are expected to pin the node's
// public key out of band rather than trust a CA chain.
func generateTLSConfig(commonName string) (*tls.Config, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errs.Wrap(errs.Crypto, err)
	}

	serialLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, serialLimit)
	if err != nil {
		return nil, errs.Wrap(errs.Crypto, err)
	}

	subject := pkix.Name{
		Organization: []string{"srv6pot"},
		CommonName:   commonName,
	}
	tpl := x509.Certificate{
		SerialNumber:          serial,
		Subject:               subject,
		Issuer:                subject,
		NotBefore:             time.Now().Add(-5 * time.Minute),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		PublicKeyAlgorithm:    x509.Ed25519,
		SignatureAlgorithm:    x509.PureEd25519,
		PublicKey:             pub,
	}

	der, err := x509.CreateCertificate(rand.Reader, &tpl, &tpl, pub, priv)
	if err != nil {
		return nil, errs.Wrap(errs.Crypto, err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"h3"},
	}, nil
}

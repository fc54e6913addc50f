package sign

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"io"

	// Register the hashes used by Digest.
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"

	"gopkg.in/square/go-jose.v2"
)

// Provider performs the raw asymmetric operations behind Sign and Verify.
type Provider interface {
	// LoadPublicKey parses a DER SubjectPublicKeyInfo.
	LoadPublicKey(spki []byte) (crypto.PublicKey, error)
	// MarshalPublicKey returns the DER SubjectPublicKeyInfo of pub.
	MarshalPublicKey(pub crypto.PublicKey) ([]byte, error)
	Sign(digest Digest, data []byte, key crypto.Signer) ([]byte, error)
	// Verify never panics; any failure is reported as false.
	Verify(digest Digest, data []byte, pub crypto.PublicKey, signature []byte) bool
	// SameKeyPair reports whether a and b hold the same public key. Either
	// argument may be a private key.
	SameKeyPair(a, b any) bool
}

// CryptoProvider implements Provider with the standard crypto packages.
type CryptoProvider struct {
	// Rand is the entropy source for signing. nil means crypto/rand.
	Rand io.Reader
}

// DefaultProvider is used by Sign, Verify and VerifyRaw.
var DefaultProvider Provider = CryptoProvider{}

func (p CryptoProvider) rand() io.Reader {
	if p.Rand != nil {
		return p.Rand
	}
	return rand.Reader
}

func (CryptoProvider) LoadPublicKey(spki []byte) (crypto.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(spki)
	if err != nil {
		return nil, fmt.Errorf("loading public key: %w", err)
	}
	if _, err := KindOf(pub); err != nil {
		return nil, err
	}
	return pub, nil
}

func (CryptoProvider) MarshalPublicKey(pub crypto.PublicKey) ([]byte, error) {
	if _, err := KindOf(pub); err != nil {
		return nil, err
	}
	return x509.MarshalPKIXPublicKey(pub)
}

func (p CryptoProvider) Sign(digest Digest, data []byte, key crypto.Signer) ([]byte, error) {
	if _, err := KindOf(key); err != nil {
		return nil, err
	}
	h, err := digest.Hash()
	if err != nil {
		return nil, err
	}
	hasher := h.New()
	hasher.Write(data)
	return key.Sign(p.rand(), hasher.Sum(nil), h)
}

func (CryptoProvider) Verify(digest Digest, data []byte, pub crypto.PublicKey, signature []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	h, err := digest.Hash()
	if err != nil {
		return false
	}
	hasher := h.New()
	hasher.Write(data)
	hashed := hasher.Sum(nil)

	switch k := pub.(type) {
	case *rsa.PublicKey:
		return rsa.VerifyPKCS1v15(k, h, hashed, signature) == nil
	case *ecdsa.PublicKey:
		return ecdsa.VerifyASN1(k, hashed, signature)
	}
	return false
}

func (CryptoProvider) SameKeyPair(a, b any) bool {
	ta, err := thumbprint(a)
	if err != nil {
		return false
	}
	tb, err := thumbprint(b)
	if err != nil {
		return false
	}
	return string(ta) == string(tb)
}

func thumbprint(key any) ([]byte, error) {
	if s, ok := key.(crypto.Signer); ok {
		key = s.Public()
	}
	jwk := jose.JSONWebKey{Key: key}
	return jwk.Thumbprint(crypto.SHA256)
}

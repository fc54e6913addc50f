package core

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/letsencrypt/pkider/pkix"
)

func ecKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func rsaKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// selfSigned builds a self-signed certificate for cn valid for a year from
// notBefore.
func selfSigned(t *testing.T, key crypto.Signer, cn string, notBefore time.Time) *Certificate {
	t.Helper()
	csr, err := NewCertificateSigningRequest(pkix.Name{CommonName: cn}, key, "")
	require.NoError(t, err)
	cert, err := csr.CreateSelfSignedCertificate(notBefore.AddDate(1, 0, 0), WithNotBefore(notBefore))
	require.NoError(t, err)
	return cert
}

package core

import (
	"bytes"
	"crypto/rand"
	"crypto/x509"
	x509pkix "crypto/x509/pkix"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letsencrypt/pkider/der"
	"github.com/letsencrypt/pkider/pkix"
	"github.com/letsencrypt/pkider/sign"
)

func TestCSREndToEnd(t *testing.T) {
	t.Parallel()
	key := ecKey(t)
	subject := pkix.Name{CommonName: "client"}

	csr, err := NewCertificateSigningRequest(subject, key, "")
	require.NoError(t, err)
	assert.Equal(t, sign.SHA256, csr.Digest)

	raw, err := csr.ToBytes()
	require.NoError(t, err)

	parsed, err := ParseCertificateSigningRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, subject, parsed.Subject)
	assert.Equal(t, sign.SHA256, parsed.Digest)
	assert.True(t, sign.DefaultProvider.SameKeyPair(parsed.PublicKey, key))

	again, err := parsed.ToBytes()
	require.NoError(t, err)
	assert.Equal(t, raw, again, "a parsed csr returns its original bytes")

	// Flip every byte of the signature value.
	top, err := der.Decode(raw)
	require.NoError(t, err)
	sig, err := top[2].(der.BitString).Payload()
	require.NoError(t, err)
	sigStart := len(raw) - len(sig)
	for i := sigStart; i < len(raw); i++ {
		tampered := bytes.Clone(raw)
		tampered[i] ^= 0xff
		_, err := ParseCertificateSigningRequest(tampered)
		assert.Error(t, err, "flipping signature byte %d", i)
	}
}

func TestCSRTamperedInfo(t *testing.T) {
	t.Parallel()
	csr, err := NewCertificateSigningRequest(pkix.Name{CommonName: "client", Organization: "Example"}, ecKey(t), "")
	require.NoError(t, err)
	raw, err := csr.ToBytes()
	require.NoError(t, err)

	outer, err := der.Split(raw)
	require.NoError(t, err)
	inner, err := der.Split(outer[0].Bytes)
	require.NoError(t, err)
	start := inner[0].Offset + (len(outer[0].FullBytes) - len(outer[0].Bytes))
	end := start + len(inner[0].FullBytes)

	for i := start; i < end; i++ {
		tampered := bytes.Clone(raw)
		tampered[i] ^= 0x01
		_, err := ParseCertificateSigningRequest(tampered)
		assert.Error(t, err, "flipping byte %d", i)
	}
}

func TestCSRReadableByCryptoX509(t *testing.T) {
	t.Parallel()
	subject := pkix.Name{Country: "US", Organization: "Example", CommonName: "client", EmailAddress: "client@example.com"}
	csr, err := NewCertificateSigningRequest(subject, rsaKey(t), sign.SHA512)
	require.NoError(t, err)
	raw, err := csr.ToBytes()
	require.NoError(t, err)

	x, err := x509.ParseCertificateRequest(raw)
	require.NoError(t, err)
	require.NoError(t, x.CheckSignature())
	assert.Equal(t, x509.SHA512WithRSA, x.SignatureAlgorithm)
	assert.Equal(t, "client", x.Subject.CommonName)
	assert.Equal(t, []string{"US"}, x.Subject.Country)
}

func TestParseCryptoX509CSR(t *testing.T) {
	t.Parallel()
	key := ecKey(t)
	raw, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject: x509pkix.Name{CommonName: "from x509", Organization: []string{"Example"}},
	}, key)
	require.NoError(t, err)

	csr, err := ParseCertificateSigningRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, pkix.Name{Organization: "Example", CommonName: "from x509"}, csr.Subject)

	_, err = csr.CreateSelfSignedCertificate(time.Now().Add(time.Hour))
	assert.True(t, errors.Is(err, ErrNoPrivateKey))

	cert, err := csr.CreateSelfSignedCertificate(time.Now().Add(time.Hour), WithSigningKey(key))
	require.NoError(t, err)
	assert.True(t, cert.SelfSigned)
}

func TestParseCSRRejectsVersion(t *testing.T) {
	t.Parallel()
	key := ecKey(t)
	spki, err := publicKeyInfo(key.Public())
	require.NoError(t, err)

	info := der.Sequence{der.NewInteger(1), pkix.Serialize(pkix.Name{CommonName: "v2"}), spki}
	rawInfo, err := der.Encode(info)
	require.NoError(t, err)
	algID, sig, err := sign.Sign(rawInfo, key, sign.SHA256)
	require.NoError(t, err)
	raw, err := der.Encode(der.Sequence{info, algID, sig})
	require.NoError(t, err)

	_, err = ParseCertificateSigningRequest(raw)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestCSRKeyChecks(t *testing.T) {
	t.Parallel()
	now := time.Now().Truncate(time.Second)
	key := ecKey(t)
	other := ecKey(t)

	csr, err := NewCertificateSigningRequest(pkix.Name{CommonName: "client"}, key, "")
	require.NoError(t, err)

	_, err = csr.CreateSelfSignedCertificate(now.Add(time.Hour), WithSigningKey(other))
	assert.True(t, errors.Is(err, ErrKeyMismatch))

	issuer := selfSigned(t, other, "issuer", now)
	_, err = csr.CreateCertificate(now.Add(time.Hour), issuer, key)
	assert.True(t, errors.Is(err, ErrKeyMismatch))
	_, err = csr.CreateCertificate(now.Add(time.Hour), issuer, nil)
	assert.True(t, errors.Is(err, ErrNoPrivateKey))
	_, err = csr.CreateCertificate(now.Add(time.Hour), nil, other)
	assert.True(t, errors.Is(err, ErrIssuerRequired))

	cert, err := csr.CreateCertificate(now.Add(time.Hour), issuer, other, WithNotBefore(now), WithSerialNumber(big.NewInt(42)))
	require.NoError(t, err)
	assert.False(t, cert.SelfSigned)
	assert.Equal(t, 0, cert.SerialNumber.Cmp(big.NewInt(42)))
	assert.True(t, cert.NotBefore.Equal(now))
	assert.Equal(t, der.ObjectIdentifier("1.2.840.10045.4.3.2"), cert.SignatureAlgorithm)

	cert, err = csr.CreateCertificate(now.Add(time.Hour), issuer, other, WithDigest(sign.SHA384))
	require.NoError(t, err)
	assert.Equal(t, der.ObjectIdentifier("1.2.840.10045.4.3.3"), cert.SignatureAlgorithm)

	_, err = NewCertificateSigningRequest(pkix.Name{}, nil, "")
	assert.True(t, errors.Is(err, ErrNoPrivateKey))
	_, err = NewCertificateSigningRequest(pkix.Name{}, key, "md5")
	assert.True(t, errors.Is(err, sign.ErrUnsupportedDigest))
}

func TestCSRPEM(t *testing.T) {
	t.Parallel()
	csr, err := NewCertificateSigningRequest(pkix.Name{CommonName: "client"}, ecKey(t), "")
	require.NoError(t, err)

	p, err := csr.PEM()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(p, []byte("-----BEGIN CERTIFICATE REQUEST-----\n")))

	parsed, err := ParseCertificateSigningRequestPEM(p)
	require.NoError(t, err)
	assert.Equal(t, csr.Subject, parsed.Subject)
}

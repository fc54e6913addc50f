package core

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/letsencrypt/pkider/der"
	"github.com/letsencrypt/pkider/pkix"
	"github.com/letsencrypt/pkider/sign"
)

// Certificate is an X.509 certificate. It is immutable once built or
// parsed.
type Certificate struct {
	SerialNumber       *big.Int
	SignatureAlgorithm der.ObjectIdentifier
	Subject            pkix.Name
	Issuer             pkix.Name
	NotBefore          time.Time
	NotAfter           time.Time
	PublicKey          crypto.PublicKey
	// Signature is the signature value without the BIT STRING unused-bits
	// octet.
	Signature []byte
	// SelfSigned is set when the issuer equals the subject and the
	// signature verifies against the certificate's own key.
	SelfSigned bool

	raw    []byte
	rawTBS []byte
}

// CertificateProperties describes a certificate to build.
type CertificateProperties struct {
	// SerialNumber defaults to 127 random bits.
	SerialNumber *big.Int
	SigningKey   crypto.Signer
	// Digest defaults to sha256.
	Digest  sign.Digest
	Issuer  pkix.Name
	Subject pkix.Name
	// NotBefore defaults to the current time.
	NotBefore  time.Time
	NotAfter   time.Time
	PublicKey  crypto.PublicKey
	SelfSigned bool
}

func randomSerial() (*big.Int, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	b[0] &= 0x7f
	return new(big.Int).SetBytes(b), nil
}

// validityTime picks UTCTime through 2049 and GeneralizedTime otherwise.
func validityTime(t time.Time) der.Node {
	if y := t.Year(); y >= 1950 && y < 2050 {
		return der.UTCTime(t)
	}
	return der.GeneralizedTime(t)
}

// NewCertificate assembles the TBSCertificate described by props and signs
// it.
func NewCertificate(props CertificateProperties) (*Certificate, error) {
	if props.SigningKey == nil {
		return nil, ErrNoPrivateKey
	}
	digest := props.Digest
	if digest == "" {
		digest = sign.SHA256
	}
	kind, err := sign.KindOf(props.SigningKey)
	if err != nil {
		return nil, err
	}
	algorithm, err := sign.DetermineAlgorithm(kind, digest)
	if err != nil {
		return nil, err
	}

	serial := props.SerialNumber
	if serial == nil {
		if serial, err = randomSerial(); err != nil {
			return nil, fmt.Errorf("generating serial number: %w", err)
		}
	}

	notBefore := props.NotBefore
	if notBefore.IsZero() {
		notBefore = time.Now()
	}
	notBefore = notBefore.UTC().Truncate(time.Second)
	notAfter := props.NotAfter.UTC().Truncate(time.Second)
	if !notAfter.After(notBefore) {
		return nil, fmt.Errorf("notAfter %s is not after notBefore %s", notAfter, notBefore)
	}

	spki, err := publicKeyInfo(props.PublicKey)
	if err != nil {
		return nil, err
	}

	tbs := der.Sequence{
		der.Integer{Value: new(big.Int).Set(serial)},
		sign.AlgorithmIdentifier(algorithm),
		pkix.Serialize(props.Issuer),
		der.Sequence{validityTime(notBefore), validityTime(notAfter)},
		pkix.Serialize(props.Subject),
		spki,
	}
	rawTBS, err := der.Encode(tbs)
	if err != nil {
		return nil, err
	}
	algID, sig, err := sign.Sign(rawTBS, props.SigningKey, digest)
	if err != nil {
		return nil, fmt.Errorf("signing certificate: %w", err)
	}
	raw, err := der.Encode(der.Sequence{tbs, algID, sig})
	if err != nil {
		return nil, err
	}

	return &Certificate{
		SerialNumber:       new(big.Int).Set(serial),
		SignatureAlgorithm: algorithm,
		Subject:            props.Subject,
		Issuer:             props.Issuer,
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		PublicKey:          props.PublicKey,
		Signature:          []byte(sig[1:]),
		SelfSigned:         props.SelfSigned,
		raw:                raw,
		rawTBS:             rawTBS,
	}, nil
}

// publicKeyInfo returns the SubjectPublicKeyInfo of pub as a node.
func publicKeyInfo(pub crypto.PublicKey) (der.Sequence, error) {
	if pub == nil {
		return nil, errors.New("no public key provided")
	}
	b, err := sign.DefaultProvider.MarshalPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return der.Decode(b)
}

// ParseCertificate parses a DER certificate and checks whether it is
// self-signed.
func ParseCertificate(b []byte, opt ...ParseOption) (*Certificate, error) {
	c, err := parseCertificate(b, getParseOpts(opt...))
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %w", err)
	}
	return c, nil
}

func parseCertificate(b []byte, opts parseOptions) (*Certificate, error) {
	top, err := opts.decoder.Decode(b)
	if err != nil {
		return nil, err
	}
	if len(top) != 3 {
		return nil, fmt.Errorf("expected 3 top level fields, got %d", len(top))
	}
	tbs, err := der.Get[der.Sequence](top, 0)
	if err != nil {
		return nil, err
	}
	outerAlgorithm, err := der.Get[der.Sequence](top, 1)
	if err != nil {
		return nil, err
	}
	algorithm, err := der.Get[der.ObjectIdentifier](outerAlgorithm, 0)
	if err != nil {
		return nil, err
	}
	sigBits, err := der.Get[der.BitString](top, 2)
	if err != nil {
		return nil, err
	}
	signature, err := sigBits.Payload()
	if err != nil {
		return nil, err
	}

	fields := []der.Node(tbs)
	if len(fields) > 0 {
		// Optional explicit [0] version.
		if _, ok := fields[0].(der.Custom); ok {
			fields = fields[1:]
		}
	}

	serial, err := der.Get[der.Integer](fields, 0)
	if err != nil {
		return nil, err
	}
	innerAlgorithm, err := der.Get[der.Sequence](fields, 1)
	if err != nil {
		return nil, err
	}
	innerOID, err := der.Get[der.ObjectIdentifier](innerAlgorithm, 0)
	if err != nil {
		return nil, err
	}
	if innerOID != algorithm {
		return nil, fmt.Errorf("signature algorithm %s does not match the TBSCertificate algorithm %s", algorithm, innerOID)
	}
	issuerRDNs, err := der.Get[der.Sequence](fields, 2)
	if err != nil {
		return nil, err
	}
	validity, err := der.Get[der.Sequence](fields, 3)
	if err != nil {
		return nil, err
	}
	subjectRDNs, err := der.Get[der.Sequence](fields, 4)
	if err != nil {
		return nil, err
	}
	spki, err := der.Get[der.Sequence](fields, 5)
	if err != nil {
		return nil, err
	}

	notBefore, err := validityBound(validity, 0)
	if err != nil {
		return nil, err
	}
	notAfter, err := validityBound(validity, 1)
	if err != nil {
		return nil, err
	}
	issuer, err := pkix.Parse(issuerRDNs)
	if err != nil {
		return nil, fmt.Errorf("issuer: %w", err)
	}
	subject, err := pkix.Parse(subjectRDNs)
	if err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}

	spkiDER, err := der.Encode(spki)
	if err != nil {
		return nil, err
	}
	pub, err := sign.DefaultProvider.LoadPublicKey(spkiDER)
	if err != nil {
		return nil, err
	}

	rawTBS, err := firstElement(b)
	if err != nil {
		return nil, err
	}

	return &Certificate{
		SerialNumber:       serial.Value,
		SignatureAlgorithm: algorithm,
		Subject:            subject,
		Issuer:             issuer,
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		PublicKey:          pub,
		Signature:          signature,
		SelfSigned:         issuer.Equal(subject) && sign.VerifyRaw(rawTBS, pub, algorithm, signature),
		raw:                bytes.Clone(b),
		rawTBS:             rawTBS,
	}, nil
}

// firstElement returns a copy of the encoding of the first member of the
// SEQUENCE in b: the exact bytes a certificate or CSR signature covers.
func firstElement(b []byte) ([]byte, error) {
	outer, err := der.Split(b)
	if err != nil {
		return nil, err
	}
	inner, err := der.Split(outer[0].Bytes)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(inner[0].FullBytes), nil
}

func validityBound(validity der.Sequence, i int) (time.Time, error) {
	if i >= len(validity) {
		return time.Time{}, &der.TypeMismatchError{Expected: "utc_time or generalized_time", Actual: "nothing", Index: i}
	}
	switch t := validity[i].(type) {
	case der.UTCTime:
		return time.Time(t), nil
	case der.GeneralizedTime:
		return time.Time(t), nil
	}
	return time.Time{}, &der.TypeMismatchError{Expected: "utc_time or generalized_time", Actual: validity[i].Kind(), Index: i}
}

// ParseCertificatePEM parses a PEM "CERTIFICATE" block.
func ParseCertificatePEM(data []byte, opt ...ParseOption) (*Certificate, error) {
	b, err := DecodePEM(data, CertificateLabel)
	if err != nil {
		return nil, err
	}
	return ParseCertificate(b, opt...)
}

// Verify is VerifyAt with the current time.
func (c *Certificate) Verify(issuer *Certificate) (bool, error) {
	return c.VerifyAt(time.Now(), issuer)
}

// VerifyAt reports whether c is within its validity window at now and, unless
// it is self-signed, whether it was signed by issuer. It does not evaluate
// trust. ErrIssuerRequired is returned when c is not self-signed and issuer is
// nil.
func (c *Certificate) VerifyAt(now time.Time, issuer *Certificate) (bool, error) {
	if now.Before(c.NotBefore) || now.After(c.NotAfter) {
		return false, nil
	}
	if c.SelfSigned {
		return true, nil
	}
	if issuer == nil {
		return false, ErrIssuerRequired
	}
	if !c.Issuer.Equal(issuer.Subject) {
		return false, nil
	}
	return sign.VerifyRaw(c.rawTBS, issuer.PublicKey, c.SignatureAlgorithm, c.Signature), nil
}

// Raw returns the DER encoding of c.
func (c *Certificate) Raw() []byte {
	return bytes.Clone(c.raw)
}

// RawTBS returns the DER encoding of the signed TBSCertificate.
func (c *Certificate) RawTBS() []byte {
	return bytes.Clone(c.rawTBS)
}

// PEM returns c armored as a "CERTIFICATE" block.
func (c *Certificate) PEM() []byte {
	return EncodePEM(c.raw, CertificateLabel)
}

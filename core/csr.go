package core

import (
	"bytes"
	"crypto"
	"fmt"
	"time"

	"github.com/letsencrypt/pkider/der"
	"github.com/letsencrypt/pkider/pkix"
	"github.com/letsencrypt/pkider/sign"
)

// attributesTag is the [0] IMPLICIT SET of PKCS#10 attributes.
const attributesTag = 0xa0

// CertificateSigningRequest is a PKCS#10 request. A request built with
// NewCertificateSigningRequest holds its private key and is signed on every
// ToBytes call. A parsed request holds its original encoding and returns it
// verbatim.
type CertificateSigningRequest struct {
	Subject   pkix.Name
	PublicKey crypto.PublicKey
	Digest    sign.Digest

	state csrState
}

type csrState interface{ isCSRState() }

type signableCSR struct {
	key crypto.Signer
}

type verifiedCSR struct {
	raw []byte
}

func (signableCSR) isCSRState() {}
func (verifiedCSR) isCSRState() {}

// NewCertificateSigningRequest returns a request for subject signed by key
// with digest. An empty digest means sha256.
func NewCertificateSigningRequest(subject pkix.Name, key crypto.Signer, digest sign.Digest) (*CertificateSigningRequest, error) {
	if key == nil {
		return nil, ErrNoPrivateKey
	}
	if _, err := sign.KindOf(key); err != nil {
		return nil, fmt.Errorf("cannot create csr: %w", err)
	}
	if digest == "" {
		digest = sign.SHA256
	}
	if _, err := digest.Hash(); err != nil {
		return nil, err
	}
	return &CertificateSigningRequest{
		Subject:   subject,
		PublicKey: key.Public(),
		Digest:    digest,
		state:     signableCSR{key: key},
	}, nil
}

// ParseCertificateSigningRequest parses a DER request. The request must be
// version 0 and its signature must verify against its own key.
func ParseCertificateSigningRequest(b []byte, opt ...ParseOption) (*CertificateSigningRequest, error) {
	csr, err := parseCSR(b, getParseOpts(opt...))
	if err != nil {
		return nil, fmt.Errorf("parsing csr: %w", err)
	}
	return csr, nil
}

func parseCSR(b []byte, opts parseOptions) (*CertificateSigningRequest, error) {
	top, err := opts.decoder.Decode(b)
	if err != nil {
		return nil, err
	}
	if len(top) != 3 {
		return nil, fmt.Errorf("expected 3 top level fields, got %d", len(top))
	}
	info, err := der.Get[der.Sequence](top, 0)
	if err != nil {
		return nil, err
	}
	algorithmID, err := der.Get[der.Sequence](top, 1)
	if err != nil {
		return nil, err
	}
	algorithm, err := der.Get[der.ObjectIdentifier](algorithmID, 0)
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

	version, err := der.Get[der.Integer](info, 0)
	if err != nil {
		return nil, err
	}
	if version.Value.Sign() != 0 {
		return nil, fmt.Errorf("%w: expected version 0, got %s", ErrUnsupportedVersion, version.Value)
	}
	subjectRDNs, err := der.Get[der.Sequence](info, 1)
	if err != nil {
		return nil, err
	}
	spki, err := der.Get[der.Sequence](info, 2)
	if err != nil {
		return nil, err
	}
	switch len(info) {
	case 3:
	case 4:
		if attrs, ok := info[3].(der.Custom); !ok || attrs.Identifier != attributesTag {
			return nil, fmt.Errorf("unexpected %s after SubjectPublicKeyInfo", info[3].Kind())
		}
	default:
		return nil, fmt.Errorf("CertificationRequestInfo has %d fields", len(info))
	}

	spkiDER, err := der.Encode(spki)
	if err != nil {
		return nil, err
	}
	pub, err := sign.DefaultProvider.LoadPublicKey(spkiDER)
	if err != nil {
		return nil, err
	}

	rawInfo, err := firstElement(b)
	if err != nil {
		return nil, err
	}
	if !sign.VerifyRaw(rawInfo, pub, algorithm, signature) {
		return nil, ErrBadSignature
	}
	digest, _ := sign.DigestForAlgorithm(algorithm)

	subject, err := pkix.Parse(subjectRDNs)
	if err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}

	return &CertificateSigningRequest{
		Subject:   subject,
		PublicKey: pub,
		Digest:    digest,
		state:     verifiedCSR{raw: bytes.Clone(b)},
	}, nil
}

// ParseCertificateSigningRequestPEM parses a PEM "CERTIFICATE REQUEST" block.
func ParseCertificateSigningRequestPEM(data []byte, opt ...ParseOption) (*CertificateSigningRequest, error) {
	b, err := DecodePEM(data, CSRLabel)
	if err != nil {
		return nil, err
	}
	return ParseCertificateSigningRequest(b, opt...)
}

// ToBytes returns the DER encoding of csr. Parsed requests return their
// original bytes.
func (csr *CertificateSigningRequest) ToBytes() ([]byte, error) {
	switch s := csr.state.(type) {
	case verifiedCSR:
		return bytes.Clone(s.raw), nil
	case signableCSR:
		return csr.encode(s.key)
	}
	return nil, ErrNoPrivateKey
}

func (csr *CertificateSigningRequest) encode(key crypto.Signer) ([]byte, error) {
	spki, err := publicKeyInfo(csr.PublicKey)
	if err != nil {
		return nil, err
	}
	info := der.Sequence{
		der.NewInteger(0),
		pkix.Serialize(csr.Subject),
		spki,
		der.Custom{Identifier: attributesTag},
	}
	rawInfo, err := der.Encode(info)
	if err != nil {
		return nil, err
	}
	algID, sig, err := sign.Sign(rawInfo, key, csr.Digest)
	if err != nil {
		return nil, fmt.Errorf("signing csr: %w", err)
	}
	return der.Encode(der.Sequence{info, algID, sig})
}

// PEM returns csr armored as a "CERTIFICATE REQUEST" block.
func (csr *CertificateSigningRequest) PEM() ([]byte, error) {
	b, err := csr.ToBytes()
	if err != nil {
		return nil, err
	}
	return EncodePEM(b, CSRLabel), nil
}

func (csr *CertificateSigningRequest) digest(opts options) sign.Digest {
	if opts.digest != "" {
		return opts.digest
	}
	return csr.Digest
}

func (csr *CertificateSigningRequest) privateKey() crypto.Signer {
	if s, ok := csr.state.(signableCSR); ok {
		return s.key
	}
	return nil
}

// CreateSelfSignedCertificate issues a certificate for csr signed by its own
// key. Parsed requests need WithSigningKey.
func (csr *CertificateSigningRequest) CreateSelfSignedCertificate(notAfter time.Time, opt ...Option) (*Certificate, error) {
	opts := getOpts(opt...)
	key := opts.signingKey
	if key == nil {
		key = csr.privateKey()
	}
	if key == nil {
		return nil, ErrNoPrivateKey
	}
	if !sign.DefaultProvider.SameKeyPair(csr.PublicKey, key) {
		return nil, ErrKeyMismatch
	}
	return NewCertificate(CertificateProperties{
		SerialNumber: opts.serialNumber,
		SigningKey:   key,
		Digest:       csr.digest(opts),
		Issuer:       csr.Subject,
		Subject:      csr.Subject,
		NotBefore:    opts.notBefore,
		NotAfter:     notAfter,
		PublicKey:    csr.PublicKey,
		SelfSigned:   true,
	})
}

// CreateCertificate issues a certificate for csr signed by issuer's key.
func (csr *CertificateSigningRequest) CreateCertificate(notAfter time.Time, issuer *Certificate, issuerKey crypto.Signer, opt ...Option) (*Certificate, error) {
	if issuer == nil {
		return nil, ErrIssuerRequired
	}
	if issuerKey == nil {
		return nil, ErrNoPrivateKey
	}
	if !sign.DefaultProvider.SameKeyPair(issuer.PublicKey, issuerKey) {
		return nil, ErrKeyMismatch
	}
	opts := getOpts(opt...)
	return NewCertificate(CertificateProperties{
		SerialNumber: opts.serialNumber,
		SigningKey:   issuerKey,
		Digest:       csr.digest(opts),
		Issuer:       issuer.Subject,
		Subject:      csr.Subject,
		NotBefore:    opts.notBefore,
		NotAfter:     notAfter,
		PublicKey:    csr.PublicKey,
	})
}

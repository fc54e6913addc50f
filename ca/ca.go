package ca

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/letsencrypt/pkider/core"
	"github.com/letsencrypt/pkider/db"
	"github.com/letsencrypt/pkider/der"
	"github.com/letsencrypt/pkider/pkix"
	"github.com/letsencrypt/pkider/sign"
)

const (
	rootCAPrefix         = "pkider Root CA "
	intermediateCAPrefix = "pkider Intermediate CA "

	KeyTypeRSA   = "rsa"
	KeyTypeECDSA = "ecdsa"

	defaultCAValidity   = 30 * 365 * 24 * time.Hour
	defaultLeafValidity = 90 * 24 * time.Hour
)

// Config tunes the issuers and the limits applied to submitted CSRs. Zero
// values select the defaults.
type Config struct {
	// KeyType of the root and intermediate keys, "ecdsa" by default.
	KeyType string
	// Digest the CA signs with, sha256 by default.
	Digest       sign.Digest
	CAValidity   time.Duration
	LeafValidity time.Duration
	// MaxDepth and MaxSize bound the DER of submitted CSRs and certificates.
	MaxDepth int
	MaxSize  int
}

func (c Config) withDefaults() Config {
	if c.KeyType == "" {
		c.KeyType = KeyTypeECDSA
	}
	if c.Digest == "" {
		c.Digest = sign.SHA256
	}
	if c.CAValidity <= 0 {
		c.CAValidity = defaultCAValidity
	}
	if c.LeafValidity <= 0 {
		c.LeafValidity = defaultLeafValidity
	}
	return c
}

// ErrRejectedCSR wraps every failure caused by the submitted CSR itself, as
// opposed to failures inside the CA.
var ErrRejectedCSR = errors.New("csr rejected")

type CAImpl struct {
	log     *zap.Logger
	db      db.Storage
	clk     clock.Clock
	cfg     Config
	decoder der.Decoder
	metrics *metrics

	root         *issuer
	intermediate *issuer
}

type issuer struct {
	key  crypto.Signer
	cert *core.IssuedCertificate
}

func makeSerial() (*big.Int, error) {
	serial, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, fmt.Errorf("unable to create random serial number: %w", err)
	}
	return serial, nil
}

func serialID(serial *big.Int) string {
	return hex.EncodeToString(serial.Bytes())
}

// makeKey creates a new 2048 bit RSA or P-256 ECDSA private key
func makeKey(keyType string) (crypto.Signer, error) {
	var key crypto.Signer
	var err error
	switch keyType {
	case KeyTypeRSA:
		key, err = rsa.GenerateKey(rand.Reader, 2048)
	case KeyTypeECDSA:
		key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	default:
		return nil, fmt.Errorf("unsupported key type %q", keyType)
	}
	if err != nil {
		return nil, err
	}
	return key, nil
}

// New creates a root issuer and an intermediate issuer signed by it, both
// stored in db.
func New(log *zap.Logger, db db.Storage, clk clock.Clock, reg prometheus.Registerer, cfg Config) (*CAImpl, error) {
	cfg = cfg.withDefaults()
	if _, err := cfg.Digest.Hash(); err != nil {
		return nil, err
	}
	ca := &CAImpl{
		log:     log,
		db:      db,
		clk:     clk,
		cfg:     cfg,
		decoder: der.Decoder{MaxDepth: cfg.MaxDepth, MaxSize: cfg.MaxSize},
		metrics: newMetrics(reg),
	}

	if err := ca.newRootIssuer(); err != nil {
		return nil, err
	}
	if err := ca.newIntermediateIssuer(); err != nil {
		return nil, err
	}
	return ca, nil
}

func (ca *CAImpl) makeRootCert(
	subjectKey crypto.Signer,
	subjCNPrefix string,
	signer *issuer) (*core.IssuedCertificate, error) {

	serial, err := makeSerial()
	if err != nil {
		return nil, err
	}
	subject := pkix.Name{
		Organization: "pkider",
		CommonName:   subjCNPrefix + fmt.Sprintf("%06x", serial.Uint64()&0xffffff),
	}
	csr, err := core.NewCertificateSigningRequest(subject, subjectKey, ca.cfg.Digest)
	if err != nil {
		return nil, err
	}

	now := ca.clk.Now()
	notAfter := now.Add(ca.cfg.CAValidity)
	opts := []core.Option{core.WithNotBefore(now), core.WithSerialNumber(serial)}

	var cert *core.Certificate
	if signer != nil && signer.key != nil {
		cert, err = csr.CreateCertificate(notAfter, signer.cert.Cert, signer.key, opts...)
	} else {
		cert, err = csr.CreateSelfSignedCertificate(notAfter, opts...)
	}
	if err != nil {
		return nil, err
	}

	newCert := &core.IssuedCertificate{
		ID:   serialID(cert.SerialNumber),
		Cert: cert,
	}
	if signer != nil && signer.cert != nil {
		newCert.Issuer = signer.cert
	}
	_, err = ca.db.AddCertificate(newCert)
	if err != nil {
		return nil, err
	}
	return newCert, nil
}

func (ca *CAImpl) newRootIssuer() error {
	// Make a root private key
	rk, err := makeKey(ca.cfg.KeyType)
	if err != nil {
		return fmt.Errorf("unable to create a new root private key: %w", err)
	}
	// Make a self-signed root certificate
	rc, err := ca.makeRootCert(rk, rootCAPrefix, nil)
	if err != nil {
		return fmt.Errorf("unable to create a new root certificate: %w", err)
	}

	ca.root = &issuer{
		key:  rk,
		cert: rc,
	}
	ca.log.Info("Generated new root issuer",
		zap.String("serial", rc.ID),
		zap.Stringer("subject", rc.Cert.Subject))
	return nil
}

func (ca *CAImpl) newIntermediateIssuer() error {
	if ca.root == nil {
		return fmt.Errorf("newIntermediateIssuer() called before newRootIssuer()")
	}

	// Make an intermediate private key
	ik, err := makeKey(ca.cfg.KeyType)
	if err != nil {
		return fmt.Errorf("unable to create a new intermediate private key: %w", err)
	}

	// Make an intermediate certificate with the root issuer
	ic, err := ca.makeRootCert(ik, intermediateCAPrefix, ca.root)
	if err != nil {
		return fmt.Errorf("unable to create a new intermediate certificate: %w", err)
	}
	ca.intermediate = &issuer{
		key:  ik,
		cert: ic,
	}
	ca.log.Info("Generated new intermediate issuer",
		zap.String("serial", ic.ID),
		zap.Stringer("subject", ic.Cert.Subject))
	return nil
}

// IssueCertificate verifies a DER CSR and issues a leaf certificate for it
// from the intermediate.
func (ca *CAImpl) IssueCertificate(csrDER []byte) (*core.IssuedCertificate, error) {
	issuer := ca.intermediate
	if issuer == nil || issuer.cert == nil {
		return nil, fmt.Errorf("cannot sign certificate - nil issuer")
	}

	csr, err := core.ParseCertificateSigningRequest(csrDER, core.WithDecoder(ca.decoder))
	if err != nil {
		ca.metrics.rejected.Inc()
		return nil, fmt.Errorf("%w: %w", ErrRejectedCSR, err)
	}

	serial, err := makeSerial()
	if err != nil {
		return nil, err
	}
	now := ca.clk.Now()
	cert, err := csr.CreateCertificate(now.Add(ca.cfg.LeafValidity), issuer.cert.Cert, issuer.key,
		core.WithNotBefore(now),
		core.WithSerialNumber(serial),
		core.WithDigest(ca.cfg.Digest))
	if err != nil {
		return nil, err
	}

	newCert := &core.IssuedCertificate{
		ID:     serialID(cert.SerialNumber),
		Cert:   cert,
		Issuer: issuer.cert,
	}
	_, err = ca.db.AddCertificate(newCert)
	if err != nil {
		return nil, err
	}
	ca.metrics.issued.Inc()
	ca.log.Info("Issued certificate",
		zap.String("serial", newCert.ID),
		zap.Stringer("subject", cert.Subject),
		zap.Time("notAfter", cert.NotAfter))
	return newCert, nil
}

// VerifyCertificate checks a DER certificate at the current time against this
// CA's issuers. The only self-signed certificate accepted is the CA's own
// root. Any other certificate naming an issuer this CA does not know is
// reported invalid.
func (ca *CAImpl) VerifyCertificate(certDER []byte) (bool, error) {
	cert, err := core.ParseCertificate(certDER, core.WithDecoder(ca.decoder))
	if err != nil {
		ca.metrics.verifications.WithLabelValues(resultMalformed).Inc()
		return false, err
	}

	var parent *core.Certificate
	if cert.SelfSigned {
		if ca.root == nil || !bytes.Equal(cert.Raw(), ca.root.cert.DER()) {
			ca.metrics.verifications.WithLabelValues(resultUnknownIssuer).Inc()
			ca.log.Debug("Self-signed certificate is not this CA's root", zap.Stringer("subject", cert.Subject))
			return false, nil
		}
	} else {
		for _, candidate := range []*issuer{ca.intermediate, ca.root} {
			if candidate != nil && cert.Issuer.Equal(candidate.cert.Cert.Subject) {
				parent = candidate.cert.Cert
				break
			}
		}
		if parent == nil {
			ca.metrics.verifications.WithLabelValues(resultUnknownIssuer).Inc()
			ca.log.Debug("Certificate issuer is unknown", zap.Stringer("issuer", cert.Issuer))
			return false, nil
		}
	}

	ok, err := cert.VerifyAt(ca.clk.Now(), parent)
	if err != nil {
		return false, err
	}
	result := resultInvalid
	if ok {
		result = resultValid
	}
	ca.metrics.verifications.WithLabelValues(result).Inc()
	return ok, nil
}

func (ca *CAImpl) Root() *core.IssuedCertificate {
	return ca.root.cert
}

func (ca *CAImpl) Intermediate() *core.IssuedCertificate {
	return ca.intermediate.cert
}

package core

import (
	"crypto"
	"math/big"
	"time"

	"github.com/letsencrypt/pkider/der"
	"github.com/letsencrypt/pkider/sign"
)

// Option adjusts how a certificate is issued from a CSR.
type Option func(*options)

type options struct {
	notBefore    time.Time
	serialNumber *big.Int
	signingKey   crypto.Signer
	digest       sign.Digest
}

func getOpts(opt ...Option) options {
	var opts options
	for _, o := range opt {
		if o != nil {
			o(&opts)
		}
	}
	return opts
}

// WithNotBefore sets the start of the validity window. The default is the
// current time.
func WithNotBefore(t time.Time) Option {
	return func(o *options) {
		o.notBefore = t
	}
}

// WithSerialNumber sets the serial number. The default is 127 random bits.
func WithSerialNumber(serial *big.Int) Option {
	return func(o *options) {
		o.serialNumber = serial
	}
}

// WithSigningKey supplies the private key for a self-signed certificate when
// the CSR holds none, as is the case for parsed CSRs.
func WithSigningKey(key crypto.Signer) Option {
	return func(o *options) {
		o.signingKey = key
	}
}

// WithDigest overrides the digest requested by the CSR.
func WithDigest(digest sign.Digest) Option {
	return func(o *options) {
		o.digest = digest
	}
}

// ParseOption adjusts how certificates and CSRs are decoded.
type ParseOption func(*parseOptions)

type parseOptions struct {
	decoder der.Decoder
}

func getParseOpts(opt ...ParseOption) parseOptions {
	var opts parseOptions
	for _, o := range opt {
		if o != nil {
			o(&opts)
		}
	}
	return opts
}

// WithDecoder decodes the input with d, whose limits replace the defaults.
func WithDecoder(d der.Decoder) ParseOption {
	return func(o *parseOptions) {
		o.decoder = d
	}
}

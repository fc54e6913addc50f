package core

import (
	"errors"

	"github.com/letsencrypt/pkider/sign"
)

var (
	// ErrIssuerRequired is returned when a certificate that is not
	// self-signed is verified without its issuer.
	ErrIssuerRequired = errors.New("issuer certificate required")
	// ErrNoPrivateKey is returned when an operation needs to sign but holds
	// no private key.
	ErrNoPrivateKey = errors.New("no private key provided")
	// ErrKeyMismatch is returned when a private key does not belong to the
	// public key it is presented with.
	ErrKeyMismatch = errors.New("public and private key mismatch")
	// ErrUnsupportedKey is returned for keys that are neither RSA nor EC.
	ErrUnsupportedKey = sign.ErrUnsupportedKey

	ErrBadSignature       = errors.New("signature does not verify")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrInvalidPEM         = errors.New("invalid PEM")
)

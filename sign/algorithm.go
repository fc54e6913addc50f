// Package sign builds and checks the AlgorithmIdentifier and BIT STRING pair
// that closes every signed X.509 structure.
package sign

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/letsencrypt/pkider/der"
)

// Digest names the hash a signature is computed with.
type Digest string

const (
	SHA1   Digest = "sha1"
	SHA224 Digest = "sha224"
	SHA256 Digest = "sha256"
	SHA384 Digest = "sha384"
	SHA512 Digest = "sha512"
)

// Hash maps d to its crypto.Hash.
func (d Digest) Hash() (crypto.Hash, error) {
	switch d {
	case SHA1:
		return crypto.SHA1, nil
	case SHA224:
		return crypto.SHA224, nil
	case SHA256:
		return crypto.SHA256, nil
	case SHA384:
		return crypto.SHA384, nil
	case SHA512:
		return crypto.SHA512, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedDigest, string(d))
}

// KeyKind is the family of an asymmetric key.
type KeyKind int

const (
	RSA KeyKind = iota + 1
	EC
)

func (k KeyKind) String() string {
	switch k {
	case RSA:
		return "rsa"
	case EC:
		return "ec"
	}
	return "unknown"
}

var (
	ErrUnsupportedKey    = errors.New("unsupported key type: only RSA and EC keys are supported")
	ErrUnsupportedDigest = errors.New("unsupported digest")
	ErrUnknownAlgorithm  = errors.New("unknown signature algorithm")
)

// KindOf reports the family of a public or private key.
func KindOf(key any) (KeyKind, error) {
	switch k := key.(type) {
	case *rsa.PublicKey, *rsa.PrivateKey:
		return RSA, nil
	case *ecdsa.PublicKey, *ecdsa.PrivateKey:
		return EC, nil
	case crypto.Signer:
		return KindOf(k.Public())
	}
	return 0, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
}

type algorithm struct {
	oid    der.ObjectIdentifier
	kind   KeyKind
	digest Digest
}

var algorithms = []algorithm{
	{"1.2.840.113549.1.1.5", RSA, SHA1},    // sha1WithRSAEncryption
	{"1.2.840.113549.1.1.14", RSA, SHA224}, // sha224WithRSAEncryption
	{"1.2.840.113549.1.1.11", RSA, SHA256}, // sha256WithRSAEncryption
	{"1.2.840.113549.1.1.12", RSA, SHA384}, // sha384WithRSAEncryption
	{"1.2.840.113549.1.1.13", RSA, SHA512}, // sha512WithRSAEncryption
	{"1.2.840.10045.4.1", EC, SHA1},        // ecdsa-with-SHA1
	{"1.2.840.10045.4.3.1", EC, SHA224},    // ecdsa-with-SHA224
	{"1.2.840.10045.4.3.2", EC, SHA256},    // ecdsa-with-SHA256
	{"1.2.840.10045.4.3.3", EC, SHA384},    // ecdsa-with-SHA384
	{"1.2.840.10045.4.3.4", EC, SHA512},    // ecdsa-with-SHA512
}

// DetermineAlgorithm returns the signature algorithm OID for signing with a
// key of the given kind over the given digest.
func DetermineAlgorithm(kind KeyKind, digest Digest) (der.ObjectIdentifier, error) {
	if kind != RSA && kind != EC {
		return "", ErrUnsupportedKey
	}
	for _, a := range algorithms {
		if a.kind == kind && a.digest == digest {
			return a.oid, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDigest, string(digest))
}

func lookup(oid der.ObjectIdentifier) (algorithm, bool) {
	for _, a := range algorithms {
		if a.oid == oid {
			return a, true
		}
	}
	return algorithm{}, false
}

// DigestForAlgorithm maps a signature algorithm OID back to its digest.
func DigestForAlgorithm(oid der.ObjectIdentifier) (Digest, bool) {
	a, ok := lookup(oid)
	return a.digest, ok
}

// AlgorithmIdentifier returns the AlgorithmIdentifier SEQUENCE for oid. RSA
// algorithms carry NULL parameters, ECDSA ones carry none (RFC 5758).
func AlgorithmIdentifier(oid der.ObjectIdentifier) der.Sequence {
	if a, ok := lookup(oid); ok && a.kind == EC {
		return der.Sequence{oid}
	}
	return der.Sequence{oid, der.Null{}}
}

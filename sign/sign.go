package sign

import (
	"crypto"

	"github.com/letsencrypt/pkider/der"
)

// Sign signs data with key and returns the AlgorithmIdentifier and the
// signature BIT STRING that follow the signed structure.
func Sign(data []byte, key crypto.Signer, digest Digest) (der.Sequence, der.BitString, error) {
	kind, err := KindOf(key)
	if err != nil {
		return nil, nil, err
	}
	oid, err := DetermineAlgorithm(kind, digest)
	if err != nil {
		return nil, nil, err
	}
	sig, err := DefaultProvider.Sign(digest, data, key)
	if err != nil {
		return nil, nil, err
	}
	return AlgorithmIdentifier(oid), der.NewBitString(sig), nil
}

// Verify encodes tbs and checks signature against it. Any failure,
// including a malformed envelope, yields false.
func Verify(tbs der.Node, pub crypto.PublicKey, algorithm der.Sequence, signature der.BitString) bool {
	data, err := der.Encode(tbs)
	if err != nil {
		return false
	}
	oid, err := der.Get[der.ObjectIdentifier](algorithm, 0)
	if err != nil {
		return false
	}
	sig, err := signature.Payload()
	if err != nil {
		return false
	}
	return VerifyRaw(data, pub, oid, sig)
}

// VerifyRaw checks signature over data. An algorithm outside the supported
// table, or one that does not match the kind of pub, yields false.
func VerifyRaw(data []byte, pub crypto.PublicKey, algorithm der.ObjectIdentifier, signature []byte) bool {
	a, ok := lookup(algorithm)
	if !ok {
		return false
	}
	if kind, err := KindOf(pub); err != nil || kind != a.kind {
		return false
	}
	return DefaultProvider.Verify(a.digest, data, pub, signature)
}

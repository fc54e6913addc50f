package db

import (
	"crypto"
	"encoding/hex"
	"fmt"

	"gopkg.in/square/go-jose.v2"
)

// ExistingCertificateError is returned when a certificate ID is stored twice.
type ExistingCertificateError struct {
	ID string
}

func (e ExistingCertificateError) Error() string {
	return fmt.Sprintf("cert %q already exists", e.ID)
}

/*
 * KeyToID produces a string with the hex representation of the RFC 7638
 * SHA256 thumbprint of a public key. We use it to find every certificate
 * issued for a given key.
 */
func KeyToID(key crypto.PublicKey) (string, error) {
	switch t := key.(type) {
	case *jose.JSONWebKey:
		if t == nil {
			return "", fmt.Errorf("Cannot compute ID of nil key")
		}
		return KeyToID(t.Key)
	case jose.JSONWebKey:
		return KeyToID(t.Key)
	case crypto.Signer:
		return KeyToID(t.Public())
	default:
		jwk := jose.JSONWebKey{Key: key}
		thumbprint, err := jwk.Thumbprint(crypto.SHA256)
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(thumbprint), nil
	}
}

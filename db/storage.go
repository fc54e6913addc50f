package db

import (
	"crypto"

	"github.com/letsencrypt/pkider/core"
)

// Storage holds the certificates a CA has issued, including its own.
type Storage interface {
	// AddCertificate stores a new certificate and returns the number of
	// stored certificates
	AddCertificate(*core.IssuedCertificate) (int, error)

	// GetCertificateByID returns the certificate with the given ID, or nil
	GetCertificateByID(string) *core.IssuedCertificate

	// GetCertificateByDER returns the certificate encoded as the given DER
	// bytes, or nil
	GetCertificateByDER([]byte) *core.IssuedCertificate

	// GetCertificatesByKey returns every certificate issued for a public key
	GetCertificatesByKey(crypto.PublicKey) ([]*core.IssuedCertificate, error)

	// CountCertificates returns the number of stored certificates
	CountCertificates() int
}

package core

import (
	"bytes"
)

// IssuedCertificate is a certificate held by the CA together with the issuer
// record it chains to. Roots have a nil Issuer.
type IssuedCertificate struct {
	ID     string
	Cert   *Certificate
	Issuer *IssuedCertificate
}

func (c IssuedCertificate) PEM() []byte {
	return c.Cert.PEM()
}

func (c IssuedCertificate) DER() []byte {
	return c.Cert.Raw()
}

// Chain returns the PEM of c followed by its intermediates.
func (c IssuedCertificate) Chain() []byte {
	chain := make([][]byte, 0)

	// Add the leaf certificate
	chain = append(chain, c.PEM())

	// Add zero or more issuers
	issuer := c.Issuer
	for {
		// a nil issuer, or an issuer without its own issuer, is a root and is
		// left out of the chain
		if issuer == nil || issuer.Issuer == nil {
			break
		}
		chain = append(chain, issuer.PEM())
		issuer = issuer.Issuer
	}

	// Return the chain, leaf cert first
	return bytes.Join(chain, []byte{})
}

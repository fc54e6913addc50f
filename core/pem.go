package core

import (
	"encoding/pem"
	"fmt"
)

const (
	CertificateLabel = "CERTIFICATE"
	CSRLabel         = "CERTIFICATE REQUEST"
)

// EncodePEM armors der under label, wrapping at 64 columns.
func EncodePEM(der []byte, label string) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: label, Bytes: der})
}

// DecodePEM returns the body of the first PEM block in data, which must
// carry label.
func DecodePEM(data []byte, label string) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidPEM)
	}
	if block.Type != label {
		return nil, fmt.Errorf("%w: expected label %q, got %q", ErrInvalidPEM, label, block.Type)
	}
	if len(block.Bytes) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidPEM)
	}
	return block.Bytes, nil
}

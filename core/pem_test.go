package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPEM(t *testing.T) {
	t.Parallel()
	body := make([]byte, 100)
	for i := range body {
		body[i] = byte(i)
	}

	armored := EncodePEM(body, CertificateLabel)
	lines := strings.Split(strings.TrimSpace(string(armored)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "-----BEGIN CERTIFICATE-----", lines[0])
	assert.Len(t, lines[1], 64)
	assert.Equal(t, "-----END CERTIFICATE-----", lines[4])

	decoded, err := DecodePEM(armored, CertificateLabel)
	require.NoError(t, err)
	assert.Equal(t, body, decoded)

	tests := []struct {
		name  string
		input string
	}{
		{"no block", "hello"},
		{"wrong label", string(EncodePEM(body, CSRLabel))},
		{"mismatched footer", "-----BEGIN CERTIFICATE-----\nAAEC\n-----END CERTIFICATE REQUEST-----\n"},
		{"empty body", "-----BEGIN CERTIFICATE-----\n-----END CERTIFICATE-----\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePEM([]byte(tc.input), CertificateLabel)
			assert.True(t, errors.Is(err, ErrInvalidPEM), "got %v", err)
		})
	}
}

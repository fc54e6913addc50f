package der

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectIdentifierEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		oid      ObjectIdentifier
		expected []byte
	}{
		{"2.5.4.3", []byte{0x55, 0x04, 0x03}},
		{"1.2.840.113549.1.1.11", []byte{0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x0b}},
		{"1.2.840.10045.4.3.2", []byte{0x2a, 0x86, 0x48, 0xce, 0x3d, 0x04, 0x03, 0x02}},
		{"0.0", []byte{0x00}},
		{"1.3.127", []byte{0x2b, 0x7f}},
		{"1.3.128", []byte{0x2b, 0x81, 0x00}},
		{"1.3.16383", []byte{0x2b, 0xff, 0x7f}},
		{"1.3.16384", []byte{0x2b, 0x81, 0x80, 0x00}},
		{"2.999.3", []byte{0x88, 0x37, 0x03}},
	}

	for _, tc := range tests {
		encoded, err := encodeOID(tc.oid)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, encoded, "encoding %s", tc.oid)

		decoded, err := decodeOID(encoded)
		require.NoError(t, err)
		assert.Equal(t, tc.oid, decoded)
	}
}

func TestObjectIdentifierWideArcs(t *testing.T) {
	t.Parallel()

	for _, oid := range []ObjectIdentifier{
		"1.3.6.1.4.1.4294967296",
		"2.25.329800735698586629295641978511506172918",
	} {
		encoded, err := encodeOID(oid)
		require.NoError(t, err)
		decoded, err := decodeOID(encoded)
		require.NoError(t, err)
		assert.Equal(t, oid, decoded)
	}
}

func TestObjectIdentifierRejects(t *testing.T) {
	t.Parallel()

	for _, oid := range []ObjectIdentifier{"", "1", "3.1", "1.40", "1.2.x", "1..2", "1.02", "1.-2"} {
		_, err := encodeOID(oid)
		assert.Error(t, err, "oid %q", oid)
	}

	for _, input := range [][]byte{nil, {0x2b, 0x81}, {0x2b, 0x80, 0x01}} {
		_, err := decodeOID(input)
		assert.Error(t, err, "input % x", input)
	}
}

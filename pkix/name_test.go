package pkix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letsencrypt/pkider/der"
)

func TestNameRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dn   Name
	}{
		{"empty", Name{}},
		{"common name only", Name{CommonName: "test"}},
		{"subset", Name{Country: "FR", Organization: "Example", CommonName: "client"}},
		{"all attributes", Name{
			Country:            "US",
			State:              "California",
			Locality:           "San Francisco",
			Organization:       "Example Inc.",
			OrganizationalUnit: "Engineering",
			CommonName:         "www.example.com",
			EmailAddress:       "admin@example.com",
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := der.Encode(Serialize(tc.dn))
			require.NoError(t, err)

			decoded, err := der.Decode(encoded)
			require.NoError(t, err)

			parsed, err := Parse(decoded)
			require.NoError(t, err)
			assert.Equal(t, tc.dn, parsed)
		})
	}
}

func TestSerializeShape(t *testing.T) {
	t.Parallel()

	rdns := Serialize(Name{Country: "US", CommonName: "test", EmailAddress: "a@b.c"})
	require.Len(t, rdns, 3)

	expected := der.Sequence{
		der.Set{der.Sequence{der.ObjectIdentifier("2.5.4.6"), der.PrintableString("US")}},
		der.Set{der.Sequence{der.ObjectIdentifier("2.5.4.3"), der.UTF8String("test")}},
		der.Set{der.Sequence{der.ObjectIdentifier("1.2.840.113549.1.9.1"), der.IA5String("a@b.c")}},
	}
	assert.Equal(t, expected, rdns)
}

func TestParseSkipsUnknownAttributes(t *testing.T) {
	t.Parallel()

	rdns := der.Sequence{
		der.Set{der.Sequence{der.ObjectIdentifier("2.5.4.5"), der.PrintableString("12345")}},
		der.Set{der.Sequence{der.ObjectIdentifier("2.5.4.3"), der.PrintableString("legacy")}},
	}
	parsed, err := Parse(rdns)
	require.NoError(t, err)
	assert.Equal(t, Name{CommonName: "legacy"}, parsed)
}

func TestParseTypeMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rdns der.Sequence
	}{
		{"rdn is not a set", der.Sequence{der.Sequence{}}},
		{"attribute is not a sequence", der.Sequence{der.Set{der.Null{}}}},
		{"value is not a string", der.Sequence{der.Set{der.Sequence{der.ObjectIdentifier("2.5.4.3"), der.NewInteger(1)}}}},
		{"type is not an oid", der.Sequence{der.Set{der.Sequence{der.UTF8String("x"), der.UTF8String("y")}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.rdns)
			var tm *der.TypeMismatchError
			assert.True(t, errors.As(err, &tm), "expected a TypeMismatchError, got %v", err)
		})
	}
}

func TestNameString(t *testing.T) {
	t.Parallel()

	n := Name{Country: "US", Organization: "Example", CommonName: "test"}
	assert.Equal(t, "CN=test,O=Example,C=US", n.String())
	assert.True(t, n.Equal(Name{Country: "US", Organization: "Example", CommonName: "test"}))
	assert.False(t, n.Equal(Name{CommonName: "test"}))
}

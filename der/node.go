// Package der implements the subset of the ASN.1 Distinguished Encoding
// Rules needed to read and write X.509 certificates and PKCS#10 certificate
// signing requests.
//
// A decoded structure is a tree of Node values. Universal tags the package
// understands map to one concrete Node type each; every tag outside the
// universal class (context-specific, application and private) is kept
// verbatim as a Custom node so that fields such as the explicitly tagged
// certificate version or the extensions block survive a round trip.
package der

import (
	"math/big"
	"time"

	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Universal tags understood by the codec.
const (
	TagBoolean         = byte(cryptobyte_asn1.BOOLEAN)
	TagInteger         = byte(cryptobyte_asn1.INTEGER)
	TagBitString       = byte(cryptobyte_asn1.BIT_STRING)
	TagOctetString     = byte(cryptobyte_asn1.OCTET_STRING)
	TagNull            = byte(cryptobyte_asn1.NULL)
	TagOID             = byte(cryptobyte_asn1.OBJECT_IDENTIFIER)
	TagUTF8String      = byte(cryptobyte_asn1.UTF8String)
	TagPrintableString = byte(cryptobyte_asn1.PrintableString)
	TagIA5String       = byte(cryptobyte_asn1.IA5String)
	TagUTCTime         = byte(cryptobyte_asn1.UTCTime)
	TagGeneralizedTime = byte(cryptobyte_asn1.GeneralizedTime)
	TagSequence        = byte(cryptobyte_asn1.SEQUENCE)
	TagSet             = byte(cryptobyte_asn1.SET)
)

const (
	classMask        = 0xc0
	classUniversal   = 0x00
	constructedFlag  = 0x20
	highTagNumberTag = 0x1f
)

// Node is one decoded TLV. The set of implementations is closed: it is
// exactly the types declared in this file.
type Node interface {
	// Tag returns the identifier octet the node is encoded with.
	Tag() byte
	// Kind returns a short lowercase name of the node type, used in errors.
	Kind() string

	isNode()
}

type (
	// Boolean is an ASN.1 BOOLEAN.
	Boolean bool

	// Integer is an ASN.1 INTEGER of arbitrary size.
	Integer struct{ Value *big.Int }

	// BitString holds the content octets of a BIT STRING, including the
	// leading octet counting the unused bits of the last byte.
	BitString []byte

	// OctetString is an ASN.1 OCTET STRING.
	OctetString []byte

	// Null is the ASN.1 NULL.
	Null struct{}

	// ObjectIdentifier is an OID in dotted-decimal form, e.g. "2.5.4.3".
	ObjectIdentifier string

	UTF8String      string
	PrintableString string
	IA5String       string

	// UTCTime and GeneralizedTime are always UTC once decoded.
	UTCTime         time.Time
	GeneralizedTime time.Time

	Sequence []Node

	// Set keeps the order its members were decoded or built in.
	Set []Node

	// Custom is any node whose tag is not in the universal class. Bytes are
	// the raw content octets.
	Custom struct {
		Identifier byte
		Bytes      []byte
	}
)

func (Boolean) Tag() byte { return TagBoolean }
func (Integer) Tag() byte { return TagInteger }
func (BitString) Tag() byte { return TagBitString }
func (OctetString) Tag() byte { return TagOctetString }
func (Null) Tag() byte { return TagNull }
func (ObjectIdentifier) Tag() byte { return TagOID }
func (UTF8String) Tag() byte { return TagUTF8String }
func (PrintableString) Tag() byte { return TagPrintableString }
func (IA5String) Tag() byte { return TagIA5String }
func (UTCTime) Tag() byte { return TagUTCTime }
func (GeneralizedTime) Tag() byte { return TagGeneralizedTime }
func (Sequence) Tag() byte { return TagSequence }
func (Set) Tag() byte { return TagSet }
func (c Custom) Tag() byte { return c.Identifier }

func (Boolean) Kind() string { return "boolean" }
func (Integer) Kind() string { return "integer" }
func (BitString) Kind() string { return "bit_string" }
func (OctetString) Kind() string { return "octet_string" }
func (Null) Kind() string { return "null" }
func (ObjectIdentifier) Kind() string { return "oid" }
func (UTF8String) Kind() string { return "utf8_string" }
func (PrintableString) Kind() string { return "printable_string" }
func (IA5String) Kind() string { return "ia5_string" }
func (UTCTime) Kind() string { return "utc_time" }
func (GeneralizedTime) Kind() string { return "generalized_time" }
func (Sequence) Kind() string { return "sequence" }
func (Set) Kind() string { return "set" }
func (Custom) Kind() string { return "custom" }

func (Boolean) isNode() {}
func (Integer) isNode() {}
func (BitString) isNode() {}
func (OctetString) isNode() {}
func (Null) isNode() {}
func (ObjectIdentifier) isNode() {}
func (UTF8String) isNode() {}
func (PrintableString) isNode() {}
func (IA5String) isNode() {}
func (UTCTime) isNode() {}
func (GeneralizedTime) isNode() {}
func (Sequence) isNode() {}
func (Set) isNode() {}
func (Custom) isNode() {}

// NewInteger returns an Integer node holding v.
func NewInteger(v int64) Integer {
	return Integer{Value: big.NewInt(v)}
}

// NewBitString wraps payload in a BIT STRING with no unused bits.
func NewBitString(payload []byte) BitString {
	b := make(BitString, 0, len(payload)+1)
	b = append(b, 0)
	return append(b, payload...)
}

// Payload returns a copy of the bit string contents without the leading
// unused-bits octet. Only whole-octet bit strings are accepted.
func (b BitString) Payload() ([]byte, error) {
	if len(b) == 0 {
		return nil, &SyntaxError{Msg: "empty bit string"}
	}
	if b[0] != 0 {
		return nil, &SyntaxError{Msg: "bit string has unused bits"}
	}
	out := make([]byte, len(b)-1)
	copy(out, b[1:])
	return out, nil
}

// Get returns item i of nodes as a T, or a *TypeMismatchError when the node
// has another type.
func Get[T Node](nodes []Node, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(nodes) {
		return zero, &TypeMismatchError{Expected: zero.Kind(), Actual: "nothing", Index: i}
	}
	n, ok := nodes[i].(T)
	if !ok {
		return zero, &TypeMismatchError{Expected: zero.Kind(), Actual: nodes[i].Kind(), Index: i}
	}
	return n, nil
}

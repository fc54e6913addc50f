package der

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/cryptobyte"
)

const (
	// DefaultMaxDepth is the nesting limit of Decode.
	DefaultMaxDepth = 32
	// DefaultMaxSize is the input size limit of Decode.
	DefaultMaxSize = 1 << 20
)

// RawValue is one undecoded TLV as produced by Split. Bytes and FullBytes
// alias the input buffer.
type RawValue struct {
	Tag       byte
	Offset    int
	Bytes     []byte // content octets
	FullBytes []byte // tag, length and content octets
}

// Split walks b as a concatenation of TLVs and returns them in order.
func Split(b []byte) ([]RawValue, error) {
	return split(b, 0)
}

func split(b []byte, base int) ([]RawValue, error) {
	var out []RawValue
	s := cryptobyte.String(b)
	for !s.Empty() {
		pos := len(b) - len(s)
		var tag uint8
		s.ReadUint8(&tag)
		if tag&highTagNumberTag == highTagNumberTag {
			return nil, &SyntaxError{Offset: base + pos, Msg: "high tag number form is not supported"}
		}

		hdr, length, err := DecodeLength(s)
		if err != nil {
			var se *SyntaxError
			if errors.As(err, &se) {
				se.Offset += base + pos + 1
			}
			return nil, err
		}
		if length > len(s)-hdr {
			return nil, &SyntaxError{
				Offset: base + pos,
				Msg:    fmt.Sprintf("declared length %d exceeds the %d remaining octets", length, len(s)-hdr),
			}
		}

		var content []byte
		s.Skip(hdr)
		s.ReadBytes(&content, length)
		out = append(out, RawValue{
			Tag:       tag,
			Offset:    base + pos,
			Bytes:     content,
			FullBytes: b[pos : pos+1+hdr+length],
		})
	}
	return out, nil
}

// A Decoder turns DER into Node trees. The zero value uses the default
// limits.
type Decoder struct {
	// MaxDepth bounds how many SEQUENCE/SET levels may nest.
	MaxDepth int
	// MaxSize bounds the length of the input buffer.
	MaxSize int
}

var defaultDecoder Decoder

// Decode decodes b, which must hold exactly one SEQUENCE, and returns its
// members.
func Decode(b []byte) (Sequence, error) {
	return defaultDecoder.Decode(b)
}

// DecodeAll decodes every TLV of b.
func DecodeAll(b []byte) ([]Node, error) {
	return defaultDecoder.DecodeAll(b)
}

func (d Decoder) maxDepth() int {
	if d.MaxDepth > 0 {
		return d.MaxDepth
	}
	return DefaultMaxDepth
}

func (d Decoder) maxSize() int {
	if d.MaxSize > 0 {
		return d.MaxSize
	}
	return DefaultMaxSize
}

// Decode decodes b, which must hold exactly one SEQUENCE, and returns its
// members.
func (d Decoder) Decode(b []byte) (Sequence, error) {
	if len(b) == 0 || b[0] != TagSequence {
		return nil, &SyntaxError{Msg: "does not start with a SEQUENCE"}
	}
	if len(b) > d.maxSize() {
		return nil, fmt.Errorf("%w: input of %d octets exceeds %d", ErrLimitExceeded, len(b), d.maxSize())
	}
	raws, err := split(b, 0)
	if err != nil {
		return nil, err
	}
	if len(raws) != 1 {
		return nil, &SyntaxError{Offset: raws[1].Offset, Msg: "trailing data after SEQUENCE"}
	}
	n, err := d.decodeValue(raws[0], 1)
	if err != nil {
		return nil, err
	}
	return n.(Sequence), nil
}

// DecodeAll decodes every TLV of b.
func (d Decoder) DecodeAll(b []byte) ([]Node, error) {
	if len(b) > d.maxSize() {
		return nil, fmt.Errorf("%w: input of %d octets exceeds %d", ErrLimitExceeded, len(b), d.maxSize())
	}
	return d.decodeList(b, 0, 1)
}

func (d Decoder) decodeList(b []byte, base, depth int) ([]Node, error) {
	raws, err := split(b, base)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(raws))
	for _, rv := range raws {
		n, err := d.decodeValue(rv, depth)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// decodeValue dispatches one TLV to its value codec. Content octets are
// copied, never referenced.
func (d Decoder) decodeValue(rv RawValue, depth int) (Node, error) {
	if rv.Tag&classMask != classUniversal {
		return Custom{Identifier: rv.Tag, Bytes: bytes.Clone(rv.Bytes)}, nil
	}

	content := rv.Bytes
	invalid := func(err error) error {
		return &SyntaxError{Offset: rv.Offset, Msg: "invalid contents", Err: err}
	}

	switch rv.Tag {
	case TagBoolean:
		if len(content) != 1 || (content[0] != 0x00 && content[0] != 0xff) {
			return nil, invalid(&ValueError{Kind: "boolean", Msg: "must be a single 0x00 or 0xff octet"})
		}
		return Boolean(content[0] == 0xff), nil
	case TagInteger:
		n, err := decodeInteger(content)
		if err != nil {
			return nil, invalid(err)
		}
		return Integer{Value: n}, nil
	case TagBitString:
		if len(content) == 0 || content[0] > 7 || (len(content) == 1 && content[0] != 0) {
			return nil, invalid(&ValueError{Kind: "bit_string", Msg: "bad unused bits octet"})
		}
		return BitString(bytes.Clone(content)), nil
	case TagOctetString:
		return OctetString(bytes.Clone(content)), nil
	case TagNull:
		if len(content) != 0 {
			return nil, invalid(&ValueError{Kind: "null", Msg: "must be empty"})
		}
		return Null{}, nil
	case TagOID:
		oid, err := decodeOID(content)
		if err != nil {
			return nil, invalid(err)
		}
		return oid, nil
	case TagUTF8String, TagPrintableString, TagIA5String:
		var n Node
		switch rv.Tag {
		case TagUTF8String:
			n = UTF8String(content)
		case TagPrintableString:
			n = PrintableString(content)
		default:
			n = IA5String(content)
		}
		if err := checkStringNode(n); err != nil {
			return nil, invalid(err)
		}
		return n, nil
	case TagUTCTime:
		t, err := decodeUTCTime(content)
		if err != nil {
			return nil, invalid(err)
		}
		return UTCTime(t), nil
	case TagGeneralizedTime:
		t, err := decodeGeneralizedTime(content)
		if err != nil {
			return nil, invalid(err)
		}
		return GeneralizedTime(t), nil
	case TagSequence, TagSet:
		if depth > d.maxDepth() {
			return nil, fmt.Errorf("%w: nesting deeper than %d at offset %d", ErrLimitExceeded, d.maxDepth(), rv.Offset)
		}
		base := rv.Offset + len(rv.FullBytes) - len(rv.Bytes)
		children, err := d.decodeList(content, base, depth+1)
		if err != nil {
			return nil, err
		}
		if rv.Tag == TagSet {
			return Set(children), nil
		}
		return Sequence(children), nil
	}
	return nil, &UnsupportedTagError{Offset: rv.Offset, Tag: rv.Tag}
}

func checkStringNode(n Node) error {
	return checkString(n.Kind(), n.Tag(), stringValue(n))
}

// Encode returns the DER encoding of n.
func Encode(n Node) ([]byte, error) {
	var b cryptobyte.Builder
	if err := appendNode(&b, n); err != nil {
		return nil, err
	}
	return b.Bytes()
}

// EncodeAll returns the concatenated DER encodings of nodes.
func EncodeAll(nodes []Node) ([]byte, error) {
	var b cryptobyte.Builder
	for _, n := range nodes {
		if err := appendNode(&b, n); err != nil {
			return nil, err
		}
	}
	return b.Bytes()
}

func appendNode(b *cryptobyte.Builder, n Node) error {
	if n == nil {
		return &ValueError{Kind: "node", Msg: "nil node"}
	}
	content, err := encodeContent(n)
	if err != nil {
		return err
	}
	b.AddUint8(n.Tag())
	b.AddBytes(EncodeLength(len(content)))
	b.AddBytes(content)
	return nil
}

func encodeContent(n Node) ([]byte, error) {
	switch v := n.(type) {
	case Boolean:
		if v {
			return []byte{0xff}, nil
		}
		return []byte{0x00}, nil
	case Integer:
		if v.Value == nil {
			return nil, &ValueError{Kind: v.Kind(), Msg: "nil value"}
		}
		return encodeInteger(v.Value), nil
	case BitString:
		if len(v) == 0 || v[0] > 7 || (len(v) == 1 && v[0] != 0) {
			return nil, &ValueError{Kind: v.Kind(), Msg: "bad unused bits octet"}
		}
		return v, nil
	case OctetString:
		return v, nil
	case Null:
		return nil, nil
	case ObjectIdentifier:
		return encodeOID(v)
	case UTF8String, PrintableString, IA5String:
		if err := checkStringNode(v); err != nil {
			return nil, err
		}
		return []byte(stringValue(v)), nil
	case UTCTime:
		return encodeUTCTime(time.Time(v))
	case GeneralizedTime:
		return encodeGeneralizedTime(time.Time(v))
	case Sequence:
		return EncodeAll(v)
	case Set:
		return EncodeAll(v)
	case Custom:
		if v.Identifier&classMask == classUniversal {
			return nil, &ValueError{Kind: v.Kind(), Msg: fmt.Sprintf("tag 0x%02x is in the universal class", v.Identifier)}
		}
		if v.Identifier&highTagNumberTag == highTagNumberTag {
			return nil, &ValueError{Kind: v.Kind(), Msg: "high tag number form is not supported"}
		}
		return v.Bytes, nil
	}
	return nil, &ValueError{Kind: "node", Msg: fmt.Sprintf("unknown node type %T", n)}
}

func stringValue(n Node) string {
	switch v := n.(type) {
	case UTF8String:
		return string(v)
	case PrintableString:
		return string(v)
	case IA5String:
		return string(v)
	}
	return ""
}

package der

import (
	"math"

	"golang.org/x/crypto/cryptobyte"
)

// maxLengthOctets bounds the long form. Four octets already describe more
// than any Decoder will accept.
const maxLengthOctets = 4

// DecodeLength reads a definite length from the start of b. It returns the
// number of header octets consumed and the length they encode. Offsets in
// returned errors are relative to b.
func DecodeLength(b []byte) (consumed int, length int, err error) {
	s := cryptobyte.String(b)
	var first uint8
	if !s.ReadUint8(&first) {
		return 0, 0, &SyntaxError{Msg: "truncated length"}
	}
	if first&0x80 == 0 {
		return 1, int(first), nil
	}

	count := int(first & 0x7f)
	switch {
	case count == 0:
		return 0, 0, &SyntaxError{Msg: "indefinite length is not allowed"}
	case count > maxLengthOctets:
		return 0, 0, &SyntaxError{Msg: "length uses too many octets"}
	}

	var octets []byte
	if !s.ReadBytes(&octets, count) {
		return 0, 0, &SyntaxError{Msg: "truncated length"}
	}
	if octets[0] == 0 {
		return 0, 0, &SyntaxError{Offset: 1, Msg: "length has leading zero octet"}
	}

	var l uint64
	for _, o := range octets {
		l = l<<8 | uint64(o)
	}
	if l < 0x80 {
		return 0, 0, &SyntaxError{Msg: "long form used for short length"}
	}
	if l > math.MaxInt32 {
		return 0, 0, &SyntaxError{Msg: "length too large"}
	}
	return 1 + count, int(l), nil
}

// EncodeLength returns the minimal definite-length encoding of n.
func EncodeLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var octets []byte
	for v := n; v > 0; v >>= 8 {
		octets = append([]byte{byte(v)}, octets...)
	}
	return append([]byte{0x80 | byte(len(octets))}, octets...)
}

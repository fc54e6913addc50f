package der

import (
	"math/big"
	"strings"
)

var (
	big40  = big.NewInt(40)
	big80  = big.NewInt(80)
	mask7f = big.NewInt(0x7f)
)

// encodeOID converts a dotted-decimal OID into content octets. The first two
// arcs share one subidentifier (40*arc1 + arc2); every subidentifier is a
// base-128 big-endian number with the high bit set on all but its last octet.
func encodeOID(oid ObjectIdentifier) ([]byte, error) {
	parts := strings.Split(string(oid), ".")
	if len(parts) < 2 {
		return nil, &ValueError{Kind: "oid", Msg: "need at least two arcs in " + string(oid)}
	}

	arcs := make([]*big.Int, len(parts))
	for i, p := range parts {
		arc, ok := parseArc(p)
		if !ok {
			return nil, &ValueError{Kind: "oid", Msg: "bad arc " + `"` + p + `"` + " in " + string(oid)}
		}
		arcs[i] = arc
	}

	if arcs[0].Cmp(big.NewInt(2)) > 0 {
		return nil, &ValueError{Kind: "oid", Msg: "first arc must be 0, 1 or 2 in " + string(oid)}
	}
	if arcs[0].Cmp(big.NewInt(2)) < 0 && arcs[1].Cmp(big40) >= 0 {
		return nil, &ValueError{Kind: "oid", Msg: "second arc must be below 40 in " + string(oid)}
	}

	first := new(big.Int).Mul(arcs[0], big40)
	first.Add(first, arcs[1])
	out := appendBase128(nil, first)
	for _, arc := range arcs[2:] {
		out = appendBase128(out, arc)
	}
	return out, nil
}

func parseArc(s string) (*big.Int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return nil, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, false
		}
	}
	return new(big.Int).SetString(s, 10)
}

func appendBase128(dst []byte, n *big.Int) []byte {
	if n.Sign() == 0 {
		return append(dst, 0)
	}
	var groups []byte
	v := new(big.Int).Set(n)
	g := new(big.Int)
	for v.Sign() > 0 {
		groups = append(groups, byte(g.And(v, mask7f).Uint64()))
		v.Rsh(v, 7)
	}
	for i := len(groups) - 1; i >= 0; i-- {
		o := groups[i]
		if i > 0 {
			o |= 0x80
		}
		dst = append(dst, o)
	}
	return dst
}

// decodeOID is the inverse of encodeOID. Arcs are accumulated in a big.Int,
// so arcs wider than 64 bits (UUID OIDs under 2.25) are kept intact.
func decodeOID(b []byte) (ObjectIdentifier, error) {
	if len(b) == 0 {
		return "", &ValueError{Kind: "oid", Msg: "empty contents"}
	}

	var sb strings.Builder
	arc := new(big.Int)
	first, start := true, true
	for i, c := range b {
		if start && c == 0x80 {
			return "", &ValueError{Kind: "oid", Msg: "subidentifier not minimally encoded"}
		}
		start = false
		arc.Lsh(arc, 7)
		arc.Or(arc, big.NewInt(int64(c&0x7f)))
		if c&0x80 != 0 {
			if i == len(b)-1 {
				return "", &ValueError{Kind: "oid", Msg: "truncated subidentifier"}
			}
			continue
		}

		if first {
			switch {
			case arc.Cmp(big40) < 0:
				sb.WriteString("0.")
				sb.WriteString(arc.String())
			case arc.Cmp(big80) < 0:
				sb.WriteString("1.")
				sb.WriteString(new(big.Int).Sub(arc, big40).String())
			default:
				sb.WriteString("2.")
				sb.WriteString(new(big.Int).Sub(arc, big80).String())
			}
			first = false
		} else {
			sb.WriteByte('.')
			sb.WriteString(arc.String())
		}
		arc.SetInt64(0)
		start = true
	}
	return ObjectIdentifier(sb.String()), nil
}

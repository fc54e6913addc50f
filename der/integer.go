package der

import "math/big"

var bigOne = big.NewInt(1)

// decodeInteger reads a two's complement big-endian INTEGER. b is never
// modified.
func decodeInteger(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return nil, &ValueError{Kind: "integer", Msg: "empty contents"}
	}
	if len(b) > 1 && ((b[0] == 0x00 && b[1]&0x80 == 0) || (b[0] == 0xff && b[1]&0x80 != 0)) {
		return nil, &ValueError{Kind: "integer", Msg: "not minimally encoded"}
	}

	n := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(bigOne, uint(len(b))*8))
	}
	return n, nil
}

// encodeInteger returns the shortest two's complement encoding of n.
func encodeInteger(n *big.Int) []byte {
	switch n.Sign() {
	case 0:
		return []byte{0x00}
	case 1:
		b := n.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0x00}, b...)
		}
		return b
	}

	// -n-1 has the complemented bits of n's two's complement form.
	m := new(big.Int).Neg(n)
	m.Sub(m, bigOne)
	b := m.Bytes()
	for i := range b {
		b[i] ^= 0xff
	}
	if len(b) == 0 || b[0]&0x80 == 0 {
		b = append([]byte{0xff}, b...)
	}
	return b
}

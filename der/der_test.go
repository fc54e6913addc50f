package der

import (
	"bytes"
	"math/big"
	"time"
)

// nodeEqual compares two trees by value. big.Int and time.Time carry
// internal state that reflect.DeepEqual does not treat as equal.
func nodeEqual(a, b Node) bool {
	switch x := a.(type) {
	case Integer:
		y, ok := b.(Integer)
		return ok && x.Value.Cmp(y.Value) == 0
	case UTCTime:
		y, ok := b.(UTCTime)
		return ok && time.Time(x).Equal(time.Time(y))
	case GeneralizedTime:
		y, ok := b.(GeneralizedTime)
		return ok && time.Time(x).Equal(time.Time(y))
	case BitString:
		y, ok := b.(BitString)
		return ok && bytes.Equal(x, y)
	case OctetString:
		y, ok := b.(OctetString)
		return ok && bytes.Equal(x, y)
	case Custom:
		y, ok := b.(Custom)
		return ok && x.Identifier == y.Identifier && bytes.Equal(x.Bytes, y.Bytes)
	case Sequence:
		y, ok := b.(Sequence)
		return ok && listEqual(x, y)
	case Set:
		y, ok := b.(Set)
		return ok && listEqual(x, y)
	}
	return a == b
}

func listEqual(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !nodeEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		panic("bad big int literal " + s)
	}
	return n
}

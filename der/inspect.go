package der

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// maxDumpOctets bounds how many content octets of an opaque value are shown.
const maxDumpOctets = 32

var universalNames = map[byte]string{
	TagBoolean:         "BOOLEAN",
	TagInteger:         "INTEGER",
	TagBitString:       "BIT STRING",
	TagOctetString:     "OCTET STRING",
	TagNull:            "NULL",
	TagOID:             "OBJECT",
	TagUTF8String:      "UTF8STRING",
	TagPrintableString: "PRINTABLESTRING",
	TagIA5String:       "IA5STRING",
	TagUTCTime:         "UTCTIME",
	TagGeneralizedTime: "GENERALIZEDTIME",
	TagSequence:        "SEQUENCE",
	TagSet:             "SET",
}

// Inspect renders b as one line per TLV in the layout of openssl asn1parse:
// offset, depth, header length, content length, primitive or constructed,
// type and, for primitives, the value.
func Inspect(b []byte) (string, error) {
	var sb strings.Builder
	if err := inspectList(&sb, b, 0, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func inspectList(w *strings.Builder, b []byte, base, depth int) error {
	if depth >= DefaultMaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d at offset %d", ErrLimitExceeded, DefaultMaxDepth, base)
	}
	raws, err := split(b, base)
	if err != nil {
		return err
	}

	for _, rv := range raws {
		hl := len(rv.FullBytes) - len(rv.Bytes)
		constructed := rv.Tag&constructedFlag != 0
		form := "prim"
		if constructed {
			form = "cons"
		}
		fmt.Fprintf(w, "%5d:d=%-2d hl=%d l=%4d %s: %s%-18s",
			rv.Offset, depth, hl, len(rv.Bytes), form, strings.Repeat(" ", depth), tagName(rv.Tag))

		if constructed {
			w.WriteByte('\n')
			if err := inspectList(w, rv.Bytes, rv.Offset+hl, depth+1); err != nil {
				return err
			}
			continue
		}
		if v := describe(rv); v != "" {
			w.WriteString(":" + v)
		}
		w.WriteByte('\n')
	}
	return nil
}

func tagName(tag byte) string {
	number := tag & highTagNumberTag
	switch tag & classMask {
	case 0x40:
		return fmt.Sprintf("appl [ %d ]", number)
	case 0x80:
		return fmt.Sprintf("cont [ %d ]", number)
	case 0xc0:
		return fmt.Sprintf("priv [ %d ]", number)
	}
	if name, ok := universalNames[tag]; ok {
		return name
	}
	return fmt.Sprintf("UNIVERSAL 0x%02x", tag)
}

func describe(rv RawValue) string {
	n, err := defaultDecoder.decodeValue(rv, 1)
	if err != nil {
		return hexDump(rv.Bytes)
	}

	switch v := n.(type) {
	case Boolean:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case Integer:
		return v.Value.String()
	case ObjectIdentifier:
		return string(v)
	case UTF8String, PrintableString, IA5String:
		return stringValue(v)
	case UTCTime:
		return time.Time(v).Format(time.RFC3339)
	case GeneralizedTime:
		return time.Time(v).Format(time.RFC3339Nano)
	case Null:
		return ""
	}
	return hexDump(rv.Bytes)
}

func hexDump(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	suffix := ""
	if len(b) > maxDumpOctets {
		b, suffix = b[:maxDumpOctets], "..."
	}
	return "[HEX DUMP]:" + strings.ToUpper(hex.EncodeToString(b)) + suffix
}

package der

import "unicode/utf8"

func isPrintable(c byte) bool {
	return 'a' <= c && c <= 'z' ||
		'A' <= c && c <= 'Z' ||
		'0' <= c && c <= '9' ||
		'\'' <= c && c <= ')' ||
		'+' <= c && c <= '/' ||
		c == ' ' || c == ':' || c == '=' || c == '?'
}

func checkString(kind string, tag byte, s string) error {
	switch tag {
	case TagUTF8String:
		if !utf8.ValidString(s) {
			return &ValueError{Kind: kind, Msg: "invalid UTF-8"}
		}
	case TagPrintableString:
		for i := 0; i < len(s); i++ {
			if !isPrintable(s[i]) {
				return &ValueError{Kind: kind, Msg: "character outside the PrintableString set"}
			}
		}
	case TagIA5String:
		for i := 0; i < len(s); i++ {
			if s[i] >= utf8.RuneSelf {
				return &ValueError{Kind: kind, Msg: "non-ASCII character"}
			}
		}
	}
	return nil
}

package der

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	utcTimeRE         = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})?(Z|[+-]\d{4})$`)
	generalizedTimeRE = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(\d{2})(?:(\d{2})(?:(\d{2})(?:\.(\d{1,3}))?)?)?(Z|[+-]\d{4})?$`)
)

const (
	utcTimeGrammar         = "YYMMDDHHMM[SS](Z|+HHMM|-HHMM)"
	generalizedTimeGrammar = "YYYYMMDDHH[MM[SS[.fff]]][Z|+HHMM|-HHMM]"
)

// decodeUTCTime parses UTCTime contents. Two digit years from 50 up are in
// the 1900s, the rest in the 2000s (RFC 5280, 4.1.2.5.1).
func decodeUTCTime(b []byte) (time.Time, error) {
	m := utcTimeRE.FindStringSubmatch(string(b))
	if m == nil {
		return time.Time{}, &ValueError{Kind: "utc_time", Msg: fmt.Sprintf("%q does not match %s", b, utcTimeGrammar)}
	}

	year := atoi(m[1])
	if year >= 50 {
		year += 1900
	} else {
		year += 2000
	}
	return buildTime("utc_time", year, atoi(m[2]), atoi(m[3]), atoi(m[4]), atoi(m[5]), atoi(m[6]), 0, m[7], time.UTC)
}

// decodeGeneralizedTime parses GeneralizedTime contents. Without a zone
// suffix the value is read as local time.
func decodeGeneralizedTime(b []byte) (time.Time, error) {
	m := generalizedTimeRE.FindStringSubmatch(string(b))
	if m == nil {
		return time.Time{}, &ValueError{Kind: "generalized_time", Msg: fmt.Sprintf("%q does not match %s", b, generalizedTimeGrammar)}
	}

	millis := 0
	if frac := m[7]; frac != "" {
		millis = atoi(frac)
		for i := len(frac); i < 3; i++ {
			millis *= 10
		}
	}
	return buildTime("generalized_time", atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), atoi(m[5]), atoi(m[6]), millis, m[8], time.Local)
}

func buildTime(kind string, year, month, day, hour, minute, second, millis int, zone string, noZone *time.Location) (time.Time, error) {
	loc := noZone
	if zone == "Z" {
		loc = time.UTC
	} else if zone != "" {
		hh, mm := atoi(zone[1:3]), atoi(zone[3:5])
		if hh > 23 || mm > 59 {
			return time.Time{}, &ValueError{Kind: kind, Msg: "zone offset out of range: " + zone}
		}
		offset := hh*3600 + mm*60
		if zone[0] == '-' {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, millis*int(time.Millisecond), loc)
	// time.Date normalizes out of range fields; a changed field means the
	// input named an impossible instant.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return time.Time{}, &ValueError{Kind: kind, Msg: "field out of range"}
	}
	return t.UTC(), nil
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// encodeUTCTime always emits seconds and a Z suffix. Sub-second precision is
// dropped.
func encodeUTCTime(t time.Time) ([]byte, error) {
	t = t.UTC()
	if t.Year() < 1950 || t.Year() > 2049 {
		return nil, &ValueError{Kind: "utc_time", Msg: fmt.Sprintf("year %d cannot be represented", t.Year())}
	}
	return []byte(t.Format("060102150405Z")), nil
}

// encodeGeneralizedTime emits milliseconds only when they are non-zero, with
// trailing zeros removed.
func encodeGeneralizedTime(t time.Time) ([]byte, error) {
	t = t.UTC()
	if t.Year() < 0 || t.Year() > 9999 {
		return nil, &ValueError{Kind: "generalized_time", Msg: fmt.Sprintf("year %d cannot be represented", t.Year())}
	}
	s := t.Format("20060102150405")
	if ms := t.Nanosecond() / int(time.Millisecond); ms != 0 {
		s += "." + strings.TrimRight(fmt.Sprintf("%03d", ms), "0")
	}
	return []byte(s + "Z"), nil
}

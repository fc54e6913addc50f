package der

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUTCTimeCenturyRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		year  int
	}{
		{"490101000000Z", 2049},
		{"500101000000Z", 1950},
		{"990101000000Z", 1999},
		{"000101000000Z", 2000},
	}
	for _, tc := range tests {
		decoded, err := decodeUTCTime([]byte(tc.input))
		require.NoError(t, err)
		assert.Equal(t, tc.year, decoded.Year(), "input %s", tc.input)
	}
}

func TestDecodeUTCTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected time.Time
	}{
		{"240102030405Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2401020304Z", time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
		{"240102030405+0130", time.Date(2024, 1, 2, 1, 34, 5, 0, time.UTC)},
		{"240102030405-0200", time.Date(2024, 1, 2, 5, 4, 5, 0, time.UTC)},
		{"240101000000+0100", time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		decoded, err := decodeUTCTime([]byte(tc.input))
		require.NoError(t, err)
		assert.True(t, tc.expected.Equal(decoded), "input %s: expected %s, got %s", tc.input, tc.expected, decoded)
		assert.Equal(t, time.UTC, decoded.Location())
	}
}

func TestDecodeGeneralizedTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected time.Time
	}{
		{"20240102030405Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2024010203Z", time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)},
		{"20240102030405.5Z", time.Date(2024, 1, 2, 3, 4, 5, 500*int(time.Millisecond), time.UTC)},
		{"20240102030405.123Z", time.Date(2024, 1, 2, 3, 4, 5, 123*int(time.Millisecond), time.UTC)},
		{"20240102030405.12-0030", time.Date(2024, 1, 2, 3, 34, 5, 120*int(time.Millisecond), time.UTC)},
		{"21240102030405Z", time.Date(2124, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	for _, tc := range tests {
		decoded, err := decodeGeneralizedTime([]byte(tc.input))
		require.NoError(t, err)
		assert.True(t, tc.expected.Equal(decoded), "input %s: expected %s, got %s", tc.input, tc.expected, decoded)
	}
}

func TestDecodeGeneralizedTimeWithoutZoneIsLocal(t *testing.T) {
	t.Parallel()

	decoded, err := decodeGeneralizedTime([]byte("20240615120000"))
	require.NoError(t, err)
	expected := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)
	assert.True(t, expected.Equal(decoded), "expected %s, got %s", expected, decoded)
}

func TestDecodeTimeRejects(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "2401020304", "240102030405", "241302030405Z", "240230030405Z", "240102250405Z", "24010203040Z", "240102030405+2400"} {
		_, err := decodeUTCTime([]byte(input))
		var ve *ValueError
		assert.True(t, errors.As(err, &ve), "utc_time %q: expected a ValueError, got %v", input, err)
	}
	for _, input := range []string{"", "20240102", "20240102030405.1234Z", "20240102030405,1Z", "20241332000000Z"} {
		_, err := decodeGeneralizedTime([]byte(input))
		var ve *ValueError
		assert.True(t, errors.As(err, &ve), "generalized_time %q: expected a ValueError, got %v", input, err)
	}
}

func TestEncodeTime(t *testing.T) {
	t.Parallel()

	instant := time.Date(2024, 1, 2, 3, 4, 5, 678*int(time.Millisecond), time.FixedZone("", 3600))

	utc, err := encodeUTCTime(instant)
	require.NoError(t, err)
	assert.Equal(t, "240102020405Z", string(utc))

	generalized, err := encodeGeneralizedTime(instant)
	require.NoError(t, err)
	assert.Equal(t, "20240102020405.678Z", string(generalized))

	generalized, err = encodeGeneralizedTime(instant.Truncate(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "20240102020405Z", string(generalized))

	generalized, err = encodeGeneralizedTime(time.Date(2024, 1, 2, 3, 4, 5, 500*int(time.Millisecond), time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "20240102030405.5Z", string(generalized))

	_, err = encodeUTCTime(time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

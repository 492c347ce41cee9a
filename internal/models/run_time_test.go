package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRunTime(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"00:00:01", 1000},
		{"01:02:03", 3_723_000},
		{"00:15:42.5", 942_500},
		{"00:15:42.05", 942_050},
		{"123:00:00", 442_800_000},
	}
	for _, tc := range cases {
		got, err := ParseRunTime(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRunTimeRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "1:2:3", "00:60:00", "00:00:61", "ab:cd:ef", "00:00:00.1234", "10:00"} {
		_, err := ParseRunTime(in)
		assert.Error(t, err, in)
	}
}

func TestFormatRunTimeRoundTrip(t *testing.T) {
	for _, in := range []string{"00:00:01", "01:02:03", "00:15:42.500", "100:59:59.999"} {
		ms, err := ParseRunTime(in)
		require.NoError(t, err)
		assert.Equal(t, in, FormatRunTime(ms))
	}
}

func TestParseRecordStatus(t *testing.T) {
	st, err := ParseRecordStatus("approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, st)

	_, err = ParseRecordStatus("done")
	assert.Error(t, err)
}

func TestParseReleaseDate(t *testing.T) {
	for _, in := range []string{"2017-10-27", "October 27, 2017", "Oct 27, 2017"} {
		d, err := ParseReleaseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2017-10-27", d.Format("2006-01-02"))
	}
	_, err := ParseReleaseDate("27/10/2017")
	assert.Error(t, err)
}

package dateparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestNormalizeISO(t *testing.T) {
	cases := []struct {
		name string
		in   *string
		want *string
	}{
		{"iso unchanged", ptr("2025-06-13"), ptr("2025-06-13")},
		{"slashes", ptr("2025/10/14"), ptr("2025-10-14")},
		{"us short", ptr("9/14/25"), ptr("2025-09-14")},
		{"us padded", ptr("09/04/25"), ptr("2025-09-04")},
		{"roc", ptr("1141014"), ptr("2025-10-14")},
		{"trimmed", ptr("  2025/01/02\n"), ptr("2025-01-02")},
		{"two digit year pivot", ptr("1/1/69"), ptr("1969-01-01")},
		{"garbage", ptr("not-a-date"), nil},
		{"nil", nil, nil},
		{"blank", ptr("   "), nil},
		{"us impossible day", ptr("2/30/25"), nil},
		{"eight digits", ptr("20251014"), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeISO(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, *tc.want, *got)
			}
		})
	}
}

func TestNormalizeROCPassesInvalidCalendarValuesThrough(t *testing.T) {
	got, err := Normalize("1141301")
	assert.NoError(t, err)
	assert.Equal(t, "2025-13-01", got)
}

func TestNormalizeErrors(t *testing.T) {
	_, err := Normalize("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Normalize("14 Oct 2025")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

package guestbook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFieldsAcceptsBounds(t *testing.T) {
	require.Empty(t, ValidateFields(EntryFields{GuestName: "A", MessageText: "B"}))
	require.Empty(t, ValidateFields(EntryFields{
		GuestName:   strings.Repeat("n", MaxNameLength),
		MessageText: strings.Repeat("m", MaxMessageLength),
	}))
}

func TestValidateFieldsRequired(t *testing.T) {
	errs := ValidateFields(EntryFields{GuestName: "   ", MessageText: "\n\t"})
	require.Equal(t, []string{"Name is required.", "Message is required."}, errs)
}

func TestValidateFieldsTooLong(t *testing.T) {
	errs := ValidateFields(EntryFields{
		GuestName:   strings.Repeat("n", MaxNameLength+1),
		MessageText: strings.Repeat("m", MaxMessageLength+1),
	})
	require.Equal(t, []string{
		"Name must be 255 characters or fewer.",
		"Message must be 2000 characters or fewer.",
	}, errs)
}

func TestValidateFieldsAccumulatesAcrossFields(t *testing.T) {
	errs := ValidateFields(EntryFields{
		GuestName:   "",
		MessageText: strings.Repeat("x", 2001),
	})
	require.Equal(t, []string{"Name is required.", "Message must be 2000 characters or fewer."}, errs)
}

func TestValidateFieldsCountsCharacters(t *testing.T) {
	// 255 three-byte runes is well over 255 bytes but within the limit.
	name := strings.Repeat("界", MaxNameLength)
	require.Empty(t, ValidateFields(EntryFields{GuestName: name, MessageText: "hi"}))

	errs := ValidateFields(EntryFields{GuestName: name + "界", MessageText: "hi"})
	require.Equal(t, []string{"Name must be 255 characters or fewer."}, errs)
}

func TestValidateFieldsTrimsBeforeMeasuring(t *testing.T) {
	padded := "  " + strings.Repeat("n", MaxNameLength) + "  "
	require.Empty(t, ValidateFields(EntryFields{GuestName: padded, MessageText: "hi"}))
}

func TestParseEntryID(t *testing.T) {
	cases := []struct {
		raw  string
		id   uint64
		want bool
	}{
		{"1", 1, true},
		{"0", 0, true},
		{"007", 7, true},
		{"18446744073709551615", 18446744073709551615, true},
		{"18446744073709551616", 0, false},
		{"", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{" 1", 0, false},
		{"1.5", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"١", 0, false},
	}
	for _, tc := range cases {
		id, ok := ParseEntryID(tc.raw)
		require.Equal(t, tc.want, ok, "raw %q", tc.raw)
		require.Equal(t, tc.id, id, "raw %q", tc.raw)
	}
}

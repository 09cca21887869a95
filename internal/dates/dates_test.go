package dates

import (
	"errors"
	"testing"

	"github.com/starford/notedex/internal/apperr"
)

func TestParse_SameInstantAcrossEncodings(t *testing.T) {
	const want = int64(1609545600) // 2021-01-02T00:00:00Z

	inputs := []string{
		"2021-01-02",
		"2021-01-02T00:00:00Z",
		"2021-01-02T01:00:00+01:00",
		"2021-01-02T00:00:00",
		"2021-01-02T00:00",
		"2021-01-02 00:00:00",
		"2021-01-02 00:00",
		"2021-01-02 00:00:00 +0000",
		"1609545600",
		"Jan 2, 2021",
		"January 2, 2021",
		"2 Jan 2021",
		"Sat, 02 Jan 2021 00:00:00 GMT",
		"2021/01/02",
		"20210102",
		"  2021-01-02\n",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := ParseUnix(in)
			if err != nil {
				t.Fatalf("ParseUnix(%q): %v", in, err)
			}
			if got != want {
				t.Errorf("ParseUnix(%q) = %d, want %d", in, got, want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "yesterday-ish", "2021-13-45", "02/01/2021 maybe"} {
		_, err := Parse(in)
		if !errors.Is(err, apperr.ErrDateParse) {
			t.Errorf("Parse(%q) err = %v, want ErrDateParse", in, err)
		}
	}
}

func TestParse_EightDigitsNotADay(t *testing.T) {
	got, err := ParseUnix("99999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 99999999 {
		t.Errorf("got %d, want epoch seconds", got)
	}
}

func TestParse_NegativeEpoch(t *testing.T) {
	got, err := ParseUnix("-86400")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -86400 {
		t.Errorf("got %d", got)
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	s := Format(1609545600)
	if s != "2021-01-02T00:00:00Z" {
		t.Fatalf("Format = %q", s)
	}
	back, err := ParseUnix(s)
	if err != nil {
		t.Fatalf("ParseUnix: %v", err)
	}
	if back != 1609545600 {
		t.Errorf("round trip = %d", back)
	}
}

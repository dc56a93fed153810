package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()
	d, err := ParseDate("2025-03-13")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d != (Date{Year: 2025, Month: time.March, Day: 13}) || d.Weekday() != time.Thursday || d.String() != "2025-03-13" {
		t.Fatalf("date = %+v", d)
	}
	for _, raw := range []string{"", "13-03-2025", "2025-02-30", "2025-3-1"} {
		if _, err := ParseDate(raw); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q) err = %v", raw, err)
		}
	}
}

func TestDateArithmetic(t *testing.T) {
	t.Parallel()
	d := Date{Year: 2025, Month: time.February, Day: 28}
	if got := d.AddDays(1); got != (Date{Year: 2025, Month: time.March, Day: 1}) {
		t.Fatalf("AddDays = %v", got)
	}
	if !d.Before(d.AddDays(1)) || d.AddDays(1).Before(d) {
		t.Fatalf("Before is not ordered")
	}
	loc := time.FixedZone("PST", -8*3600)
	at := d.At(TimeOfDay(9*60+30), loc)
	if at.Hour() != 9 || at.Minute() != 30 || at.Location() != loc {
		t.Fatalf("At = %v", at)
	}
}

func TestTimeOfDay(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw     string
		minutes int
		wantErr bool
	}{
		{raw: "00:00", minutes: 0},
		{raw: "09:05", minutes: 545},
		{raw: "23:59", minutes: 1439},
		{raw: "24:00", wantErr: true},
		{raw: "9am", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.raw)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidTimeOfDay) {
				t.Fatalf("ParseTimeOfDay(%q) err = %v", tc.raw, err)
			}
			continue
		}
		if err != nil || got.Minutes() != tc.minutes || got.String() != tc.raw {
			t.Fatalf("ParseTimeOfDay(%q) = %d, %v", tc.raw, got, err)
		}
	}
}

func TestWindowOverlaps(t *testing.T) {
	t.Parallel()
	base := Window{Start: 540, End: 720}
	cases := []struct {
		name  string
		other Window
		want  bool
	}{
		{name: "inside", other: Window{Start: 600, End: 660}, want: true},
		{name: "straddles start", other: Window{Start: 480, End: 600}, want: true},
		{name: "straddles end", other: Window{Start: 700, End: 800}, want: true},
		{name: "touches end", other: Window{Start: 720, End: 840}},
		{name: "touches start", other: Window{Start: 420, End: 540}},
		{name: "covers", other: Window{Start: 0, End: 1440}, want: true},
	}
	for _, tc := range cases {
		if got := base.Overlaps(tc.other); got != tc.want {
			t.Fatalf("%s: Overlaps = %v", tc.name, got)
		}
		if got := tc.other.Overlaps(base); got != tc.want {
			t.Fatalf("%s: Overlaps is not symmetric", tc.name)
		}
	}
	if _, err := NewWindow(540, 0); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("zero-length window err = %v", err)
	}
	if !base.Contains(Window{Start: 540, End: 720}) || base.Contains(Window{Start: 530, End: 600}) {
		t.Fatalf("Contains is wrong")
	}
}

func TestDateText(t *testing.T) {
	t.Parallel()
	var d Date
	if err := d.UnmarshalText([]byte("2025-03-13")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	out, _ := d.MarshalText()
	if string(out) != "2025-03-13" {
		t.Fatalf("MarshalText = %q", out)
	}
	if err := d.UnmarshalText(nil); err != nil || !d.IsZero() {
		t.Fatalf("empty text should clear date: %+v %v", d, err)
	}
}

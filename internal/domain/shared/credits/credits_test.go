package credits

import "testing"

func TestPercentOf(t *testing.T) {
	t.Parallel()
	cases := []struct {
		amount  Credits
		percent int
		want    Credits
	}{
		{amount: 900, percent: 50, want: 450},
		{amount: 900, percent: 0, want: 0},
		{amount: 999, percent: 10, want: 99},
		{amount: 900, percent: 150, want: 900},
		{amount: 900, percent: -5, want: 0},
	}
	for _, tc := range cases {
		if got := tc.amount.PercentOf(tc.percent); got != tc.want {
			t.Fatalf("%d.PercentOf(%d) = %d, want %d", tc.amount, tc.percent, got, tc.want)
		}
	}
}

func TestForMinutes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		hourly  Credits
		minutes int
		want    Credits
	}{
		{hourly: 300, minutes: 180, want: 900},
		{hourly: 300, minutes: 195, want: 975},
		{hourly: 100, minutes: 1, want: 2},
		{hourly: 10, minutes: 1, want: 0},
		{hourly: 300, minutes: 0, want: 0},
	}
	for _, tc := range cases {
		if got := ForMinutes(tc.hourly, tc.minutes); got != tc.want {
			t.Fatalf("ForMinutes(%d, %d) = %d, want %d", tc.hourly, tc.minutes, got, tc.want)
		}
	}
}

func TestPresentation(t *testing.T) {
	t.Parallel()
	if got := Credits(905).FormatUSD(); got != "$90.50" {
		t.Fatalf("FormatUSD = %q", got)
	}
	if Sum(1, 2, 3) != 6 || Credits(-4).NonNegative() != 0 || Credits(7).Multiply(3) != 21 {
		t.Fatalf("arithmetic helpers are wrong")
	}
}

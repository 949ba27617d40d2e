package cli

import "testing"

func TestFormatTokens(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234, "1.2K"},
		{1_234_567, "1.2M"},
		{1_234_567_890, "1.2B"},
		{-1500, "-1.5K"},
	}
	for _, tc := range cases {
		if got := FormatTokens(tc.in); got != tc.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		amount   float64
		currency string
		want     string
	}{
		{0.5, "USD", "$0.50"},
		{12.34, "USD", "$12.3"},
		{250, "EUR", "€250"},
		{1234.56, "USD", "$1,235"},
		{3.5, "SEK", "3.50 SEK"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.amount, tc.currency); got != tc.want {
			t.Errorf("FormatCurrency(%v, %s) = %q, want %q", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber(1234567) = %q", got)
	}
	if got := FormatNumber(-1000); got != "-1,000" {
		t.Errorf("FormatNumber(-1000) = %q", got)
	}
	if got := FormatNumber(999); got != "999" {
		t.Errorf("FormatNumber(999) = %q", got)
	}
}

func TestFormatTrend(t *testing.T) {
	if got := FormatTrend(15, 10); got != "+50.0%" {
		t.Errorf("FormatTrend(15, 10) = %q", got)
	}
	if got := FormatTrend(5, 10); got != "-50.0%" {
		t.Errorf("FormatTrend(5, 10) = %q", got)
	}
	if got := FormatTrend(5, 0); got != "n/a" {
		t.Errorf("FormatTrend(5, 0) = %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline(nil); got != "" {
		t.Errorf("empty sparkline = %q", got)
	}
	got := RenderSparkline([]float64{0, 1, 2, 4})
	if len([]rune(got)) != 4 {
		t.Errorf("sparkline runes = %d, want 4 (%q)", len([]rune(got)), got)
	}
}

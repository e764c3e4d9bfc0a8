package engine

import "testing"

func TestRound(t *testing.T) {
	cases := map[float64]float64{
		2.5:      3,
		2.49:     2,
		-2.5:     -2,
		-2.51:    -3,
		8967.344: 8967,
		0:        0,
	}
	for in, want := range cases {
		if got := Round(in); got != want {
			t.Errorf("Round(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{3_000_000, "¥3,000,000"},
		{8967.34, "¥8,967"},
		{0, "¥0"},
		{-12782.6, "-¥12,783"},
	}
	for _, c := range cases {
		if got := FormatCurrency(c.in); got != c.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSummarizeNil(t *testing.T) {
	if Summarize(nil) != nil {
		t.Fatal("expected nil summary for nil result")
	}
}

package money

import "testing"

func TestFromFloatRounds(t *testing.T) {
	cases := []struct {
		in   float64
		want Amount
	}{
		{1.5, 1500},
		{0.25, 250},
		{-0.5, -500},
		{1.0 / 3, 333}, // sub-thousandth precision rounds away
		{0, 0},
	}
	for _, c := range cases {
		if got := FromFloat(c.in); got != c.want {
			t.Errorf("FromFloat(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFloatRoundTrip(t *testing.T) {
	a := Amount(12345)
	if a.Float() != 12.345 {
		t.Errorf("Float() = %v", a.Float())
	}
}

func TestPercent(t *testing.T) {
	// 10% of 20.000 is exactly 2.000
	if got := Amount(20000).Percent(10); got != 2000 {
		t.Errorf("Percent(10) of 20.000 = %d, want 2000", got)
	}
	// 15% of 0.010 = 0.0015, rounds to 0.002
	if got := Amount(10).Percent(15); got != 2 {
		t.Errorf("Percent(15) of 0.010 = %d, want 2", got)
	}
}

func TestMulIntAndMin(t *testing.T) {
	if got := Amount(1500).MulInt(3); got != 4500 {
		t.Errorf("MulInt = %d", got)
	}
	if got := Min(1500, 2000); got != 1500 {
		t.Errorf("Min = %d", got)
	}
	if got := Min(2000, 1500); got != 1500 {
		t.Errorf("Min = %d", got)
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		in   Amount
		want string
	}{
		{1500, "1.500"},
		{20, "0.020"},
		{12345, "12.345"},
		{-500, "-0.500"}, // whole part truncates to 0; sign must survive
		{-1500, "-1.500"},
		{0, "0.000"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("%d.String() = %q, want %q", c.in, got, c.want)
		}
	}
}

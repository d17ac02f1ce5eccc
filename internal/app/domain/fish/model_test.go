package fish

import "testing"

func TestStateForXP(t *testing.T) {
	cases := []struct {
		xp   float64
		want State
	}{
		{-10, StateBaby},
		{0, StateBaby},
		{49.9, StateBaby},
		{50, StateJuvenile},
		{149.99, StateJuvenile},
		{150, StateYoungAdult},
		{349.9, StateYoungAdult},
		{350, StateAdult},
		{10000, StateAdult},
	}
	for _, tc := range cases {
		if got := StateForXP(tc.xp); got != tc.want {
			t.Errorf("StateForXP(%v) = %s, want %s", tc.xp, got, tc.want)
		}
	}
}

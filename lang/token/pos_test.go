package token

import "testing"

func TestPosUnknown(t *testing.T) {
	cases := []struct {
		pos  Pos
		want bool
	}{
		{NoPos, true},
		{0, true},
		{1, false},
		{42, false},
	}
	for _, c := range cases {
		if got := c.pos.Unknown(); got != c.want {
			t.Errorf("Pos(%d).Unknown() = %t, want %t", c.pos, got, c.want)
		}
	}
}

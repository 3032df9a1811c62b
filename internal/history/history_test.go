package history

import "testing"

func TestClampLimit(t *testing.T) {
	cases := map[int]int{-3: DefaultListLimit, 0: DefaultListLimit, 1: 1, 75: 75, 10000: MaxListLimit}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

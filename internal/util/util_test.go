package util

import "testing"

func TestPlural(t *testing.T) {
	t.Parallel()

	cases := map[int]string{0: "0 points", 1: "1 point", 2: "2 points", -1: "-1 point"}
	for n, want := range cases {
		if got := Plural(n, "point", "points"); got != want {
			t.Errorf("Plural(%d) = %q, want %q", n, got, want)
		}
	}
}

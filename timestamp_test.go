package sigv4

import "testing"

func TestValidTimestamp(t *testing.T) {
	cases := map[string]bool{
		"20190901T084743Z": true,
		"20190901T084743":  false,
		"2019-09-01T08:47:43Z": false,
		"":                 false,
		"20190901t084743Z": false,
	}
	for input, want := range cases {
		if got := ValidTimestamp(input); got != want {
			t.Errorf("ValidTimestamp(%q) = %v, want %v", input, got, want)
		}
	}
}

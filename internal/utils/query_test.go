package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		{"x", 5, 5},
		{" 42", 7, 7},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestLimitParam(t *testing.T) {
	cases := []struct {
		s    string
		want int
	}{
		{"", 10},
		{"junk", 10},
		{"0", 1},
		{"-5", 1},
		{"25", 25},
		{"1000", 100},
	}
	for _, tc := range cases {
		if got := LimitParam(tc.s, 10, 100); got != tc.want {
			t.Fatalf("LimitParam(%q) = %d; want %d", tc.s, got, tc.want)
		}
	}
}

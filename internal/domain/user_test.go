package domain

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := [][2]string{
		{"test1@EXAMPLE.com", "test1@example.com"},
		{"Test2@Example.com", "Test2@example.com"},
		{"TEST3@EXAMPLE.COM", "TEST3@example.com"},
		{"test4@example.COM", "test4@example.com"},
		{"  spaced@Example.org ", "spaced@example.org"},
		{"no-at-sign", "no-at-sign"},
	}
	for _, c := range cases {
		if got := NormalizeEmail(c[0]); got != c[1] {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", c[0], got, c[1])
		}
	}
}

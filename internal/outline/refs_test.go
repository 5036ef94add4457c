package outline

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestOneLine(t *testing.T) {
	got := OneLine("  first line\nsecond\r\nthird  \n")
	if got != "first line second third" {
		t.Errorf("got %q", got)
	}
}

func TestStripRefs(t *testing.T) {
	got := StripRefs("Fact one [b3] and two [b12]  ")
	if got != "Fact one and two" {
		t.Errorf("got %q", got)
	}
}

func TestEnsureBlockRefs(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		chosen []int
		want   string
	}{
		{"keeps chosen, drops foreign", "Claim [b2] more [b9] end [b4]", []int{4, 2, 7}, "Claim more end [b2][b4]"},
		{"adds first two when none survive", "Claim [b9]", []int{4, 2, 7}, "Claim [b4][b2]"},
		{"no refs at all", "Claim", []int{5}, "Claim [b5]"},
		{"duplicates collapse", "A [b2] B [b2]", []int{2}, "A B [b2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnsureBlockRefs(tt.in, tt.chosen, 0); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEnsureBlockRefs_CapsProseOnly(t *testing.T) {
	prose := strings.Repeat("word ", 200)
	got := EnsureBlockRefs(prose+"[b1]", []int{1}, 380)
	if !strings.HasSuffix(got, "… [b1]") {
		t.Errorf("expected capped prose followed by reference, got %q", got[len(got)-20:])
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, " [b1]")); n > 380 {
		t.Errorf("prose is %d characters, want <= 380", n)
	}
}

func TestCapProse(t *testing.T) {
	if got := CapProse("short", 380); got != "short" {
		t.Errorf("got %q", got)
	}
	got := CapProse("alpha beta gamma delta", 12)
	if got != "alpha beta…" {
		t.Errorf("got %q", got)
	}
}

func TestLinkify(t *testing.T) {
	xpaths := map[int]string{3: "/html/body/p[2]"}
	got := Linkify("See [b3][b4]", "https://ex.com/a b?q=1", xpaths)
	want := "See [b3](mm://page?url=https%3A%2F%2Fex.com%2Fa%20b%3Fq%3D1&xpath=%2Fhtml%2Fbody%2Fp%5B2%5D&block=3)[b4]"
	if got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestRefIDs(t *testing.T) {
	if got := RefIDs("x [b1] y [b22][b3]"); !reflect.DeepEqual(got, []int{1, 22, 3}) {
		t.Errorf("got %v", got)
	}
}

package normalize

import (
	"reflect"
	"testing"
)

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Tigres UANL", "tigres uanl"},
		{"strip accents", "México Liga MX", "mexico liga mx"},
		{"punctuation to spaces", "Tigres UANL - Pachuca CF | Liga MX", "tigres uanl pachuca cf liga mx"},
		{"collapse whitespace", "a   b\t\tc", "a b c"},
		{"trim", "  ***Real Madrid***  ", "real madrid"},
		{"keep digits", "Over 0.5 1H", "over 0 5 1h"},
		{"empty", "", ""},
		{"pure noise", "***---***", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.in); got != tc.want {
				t.Fatalf("Text(%q) = %q，期望 %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"México Liga MX",
		"Tigres UANL - Pachuca CF | Liga MX",
		"  Þórr &  Ödd  ",
		"already normalized text 123",
	}
	for _, in := range inputs {
		once := Text(in)
		twice := Text(once)
		if once != twice {
			t.Fatalf("规范化不幂等：Text(%q)=%q，再规范化=%q", in, once, twice)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("México Liga MX")
	want := []string{"mexico", "liga", "mx"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokens 不符合预期：got=%v want=%v", got, want)
	}
	if got := Tokens("   "); len(got) != 0 {
		t.Fatalf("空白输入应得到空 token 序列，实际 %v", got)
	}
}

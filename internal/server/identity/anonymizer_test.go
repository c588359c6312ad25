package identity

import (
	"strings"
	"testing"
)

func TestAnonymize_DeterministicAcrossCalls(t *testing.T) {
	a := Anonymize("KN/24A/0001")
	b := Anonymize("KN/24A/0001")
	if a != b {
		t.Fatalf("same credential produced different tokens: %s vs %s", a, b)
	}
}

func TestAnonymize_NormalizationEquivalence(t *testing.T) {
	base := Anonymize("KN/24A/0001")

	variants := []string{
		"kn/24a/0001",
		"  KN/24A/0001  ",
		"\tKn/24a/0001\n",
	}
	for _, v := range variants {
		if got := Anonymize(v); got != base {
			t.Fatalf("variant %q produced different token", v)
		}
	}
}

func TestAnonymize_DistinctCredentialsDistinctTokens(t *testing.T) {
	if Anonymize("KN/24A/0001") == Anonymize("KN/24A/0002") {
		t.Fatal("distinct credentials collided")
	}
}

func TestAnonymize_TokenShape(t *testing.T) {
	tok := Anonymize("KN/24A/0001")
	if len(tok) != TokenLength {
		t.Fatalf("want length %d, got %d", TokenLength, len(tok))
	}
	if strings.ToLower(tok) != tok {
		t.Fatal("token must be lowercase hex")
	}
	for _, r := range tok {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("non-hex rune %q in token", r)
		}
	}
}

func TestAnonymize_TokenNotCredential(t *testing.T) {
	if strings.Contains(Anonymize("KN/24A/0001"), "KN") {
		t.Fatal("token leaks credential text")
	}
}

func TestValidCredential(t *testing.T) {
	cases := map[string]bool{
		"KN/24A/0001": true,
		"AB123":       true,
		"  ab/1  ":    false,
		"":            false,
		"   ":         false,
	}
	for raw, want := range cases {
		if got := ValidCredential(raw); got != want {
			t.Fatalf("ValidCredential(%q) = %v, want %v", raw, got, want)
		}
	}
}

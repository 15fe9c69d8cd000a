package search

import (
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"basic", "Reset your VPN password", []string{"reset", "your", "vpn", "password"}},
		{"punctuation split", "error: code-500, retry?", []string{"error", "code", "500", "retry"}},
		{"case folding and dupes", "VPN vpn Vpn", []string{"vpn"}},
		{"short tokens dropped", "a b is ok", []string{"is", "ok"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("token count = %d, want %d (%v)", len(got), len(tt.want), got)
			}
			for _, token := range tt.want {
				if _, ok := got[token]; !ok {
					t.Errorf("missing token %q in %v", token, got)
				}
			}
		})
	}
}

func TestJaccard(t *testing.T) {
	set := func(tokens ...string) map[string]struct{} {
		s := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			s[tok] = struct{}{}
		}
		return s
	}

	tests := []struct {
		name string
		a, b map[string]struct{}
		want float64
	}{
		{"identical", set("vpn", "reset"), set("vpn", "reset"), 1},
		{"disjoint", set("vpn"), set("leave"), 0},
		{"half overlap", set("vpn", "reset"), set("vpn", "request"), 1.0 / 3.0},
		{"empty side", set(), set("vpn"), 0},
		{"both empty", set(), set(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Jaccard(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Jaccard = %v, want %v", got, tt.want)
			}
			// Symmetric.
			if rev := Jaccard(tt.b, tt.a); rev != got {
				t.Errorf("Jaccard not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestLexicalOverlap(t *testing.T) {
	score := LexicalOverlap(
		"how do I reset my VPN password",
		"To reset your VPN password, open the self-service portal.",
	)
	if score <= 0 {
		t.Errorf("overlapping texts scored %v, want > 0", score)
	}

	unrelated := LexicalOverlap("vacation balance", "kubernetes deployment rollback")
	if unrelated != 0 {
		t.Errorf("disjoint texts scored %v, want 0", unrelated)
	}
}

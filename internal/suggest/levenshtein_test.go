package suggest

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical empty", "", "", 0},
		{"identical word", "seattle", "seattle", 0},
		{"empty a", "", "boston", 6},
		{"empty b", "boston", "", 6},
		{"one substitution", "cat", "bat", 1},
		{"one insertion", "seatle", "seattle", 1},
		{"one deletion", "seattlee", "seattle", 1},
		{"kitten to sitting", "kitten", "sitting", 3},
		{"case difference", "Portland", "portland", 1},
		{"unicode substitution", "café", "cafe", 1},
		// A transposition costs two plain-Levenshtein edits.
		{"transposition ab-ba", "ab", "ba", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevenshteinDistance(tt.a, tt.b); got != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
			// Distance is symmetric.
			if got := LevenshteinDistance(tt.b, tt.a); got != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.b, tt.a, got, tt.expected)
			}
		})
	}
}

func TestDamerauLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical", "portland", "portland", 0},
		{"empty a", "", "ab", 2},
		// A transposition is a single edit here.
		{"transposition ab-ba", "ab", "ba", 1},
		{"transposed city", "seattel", "seattle", 1},
		{"transposed multi-word", "new yrok", "new york", 1},
		{"substitution", "cat", "bat", 1},
		{"mixed edits", "portlnad", "portland", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DamerauLevenshteinDistance(tt.a, tt.b); got != tt.expected {
				t.Errorf("DamerauLevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

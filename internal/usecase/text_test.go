package usecase

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	t.Run("lowercases and strips punctuation", func(t *testing.T) {
		got := tokenize("Linen, SOFA (beige)")
		want := []string{"linen", "sofa", "beige"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("tokenize() = %v, want %v", got, want)
		}
	})

	t.Run("filters stop words and storefront noise", func(t *testing.T) {
		for _, token := range tokenize("Buy the best sofa online in Kuwait") {
			if token != "sofa" {
				t.Errorf("unexpected token %q", token)
			}
		}
	})

	t.Run("drops pure numbers but keeps dimensions", func(t *testing.T) {
		got := tokenize("sofa 210 210cm")
		want := []string{"sofa", "210cm"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("tokenize() = %v, want %v", got, want)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := tokenize(""); len(got) != 0 {
			t.Errorf("tokenize(\"\") = %v", got)
		}
	})
}

func TestSignificantWords(t *testing.T) {
	got := significantWords("3-seat beige linen sofa, beige", 3)
	want := []string{"seat", "beige", "linen", "sofa"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("significantWords() = %v, want %v", got, want)
	}
}

func TestWordOverlap(t *testing.T) {
	tests := []struct {
		description string
		text        string
		want        int
	}{
		{"3-seat beige linen sofa", "3 seater sofa beige linen - store x kd 199", 3},
		{"beige linen sofa", "velvet armchair 80cm", 0},
		// words of three letters or fewer never count
		{"oak tv bed", "oak tv bed", 0},
	}

	for _, tt := range tests {
		if got := wordOverlap(tt.description, tt.text); got != tt.want {
			t.Errorf("wordOverlap(%q, %q) = %d, want %d", tt.description, tt.text, got, tt.want)
		}
	}
}

func TestFindIntersection(t *testing.T) {
	count, matched := findIntersection([]string{"beige", "sofa", "linen"}, []string{"sofa", "beige", "sofa", "grey"})
	if count != 2 || !reflect.DeepEqual(matched, []string{"sofa", "beige"}) {
		t.Errorf("findIntersection() = %d, %v", count, matched)
	}

	if count, _ := findIntersection(nil, []string{"sofa"}); count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestNormalizeForCacheKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Linen Sofa, Kuwait", "linen sofa kuwait"},
		{"  3-Seater   Sofa ", "3 seater sofa"},
		{"كنبة بيج Kuwait", "كنبة بيج kuwait"},
		{"Canapé d'angle", "canapé d angle"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeForCacheKey(tt.input); got != tt.want {
			t.Errorf("normalizeForCacheKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	// Queries in other scripts keep distinct keys
	a := normalizeForCacheKey("كنبة بيج Kuwait")
	b := normalizeForCacheKey("طاولة قهوة Kuwait")
	if a == b {
		t.Errorf("different Arabic queries share the key %q", a)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("a longer title", 8); got != "a longer..." {
		t.Errorf("truncate() = %q", got)
	}
}

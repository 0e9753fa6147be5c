package shortener

import (
	"strings"
	"testing"
)

func TestGenerateSecureSlug(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		slug, err := GenerateSecureSlug(8)
		if err != nil {
			t.Fatalf("GenerateSecureSlug failed: %v", err)
		}
		if len(slug) != 8 {
			t.Fatalf("expected length 8, got %d (%q)", len(slug), slug)
		}
		for _, c := range slug {
			if !strings.ContainsRune(alphabet, c) {
				t.Fatalf("slug %q contains character outside alphabet", slug)
			}
		}
		if _, dup := seen[slug]; dup {
			t.Fatalf("duplicate slug generated: %q", slug)
		}
		seen[slug] = struct{}{}
	}
}

func TestGenerateSecureSlug_InvalidLength(t *testing.T) {
	if _, err := GenerateSecureSlug(0); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := GenerateSecureSlug(-3); err == nil {
		t.Fatal("expected error for negative length")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rosa's Bakery", "rosa-s-bakery"},
		{"  Hello   World  ", "hello-world"},
		{"Café Münster", "caf-m-nster"},
		{"---", ""},
		{"UPPER case 42", "upper-case-42"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSiteSlug(t *testing.T) {
	slug, err := SiteSlug("Rosa's Bakery")
	if err != nil {
		t.Fatalf("SiteSlug failed: %v", err)
	}
	if !strings.HasPrefix(slug, "rosa-s-bakery-") {
		t.Fatalf("unexpected slug prefix: %q", slug)
	}
	if slug != strings.ToLower(slug) {
		t.Fatalf("slug should be lowercase: %q", slug)
	}

	empty, err := SiteSlug("")
	if err != nil {
		t.Fatalf("SiteSlug failed: %v", err)
	}
	if len(empty) != 6 {
		t.Fatalf("expected bare 6-char suffix for empty title, got %q", empty)
	}
}

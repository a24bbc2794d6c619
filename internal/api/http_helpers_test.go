package api

import "testing"

func TestSanitizeRedirectPath(t *testing.T) {
	t.Parallel()

	fallback := ""

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty uses fallback", raw: "", want: fallback},
		{name: "absolute url blocked", raw: "https://evil.example", want: fallback},
		{name: "protocol relative blocked", raw: "//evil.example", want: fallback},
		{name: "backslash trick blocked", raw: "/\\evil.example", want: fallback},
		{name: "path without leading slash blocked", raw: "settings", want: fallback},
		{name: "valid local path kept", raw: "/settings", want: "/settings"},
		{name: "valid local path with query kept", raw: "/settings?tab=calendar", want: "/settings?tab=calendar"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			got := sanitizeRedirectPath(test.raw, fallback)
			if got != test.want {
				t.Fatalf("sanitizeRedirectPath(%q) = %q, want %q", test.raw, got, test.want)
			}
		})
	}
}

package matcher

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		path   string
		locale bool
		want   string
	}{
		{"/api/users", false, "/api/users"},
		{"", false, "/"},
		{"/a//b", false, "/a//b"},
		{"/en/dashboard/settings", true, "/dashboard/settings"},
		{"/fr-CA/api/users/", true, "/api/users"},
		{"/en//a///b", true, "/a/b"},
		{"/en", true, "/"},
		{"/en/", true, "/"},
		{"/", true, "/"},
		{"", true, "/"},
	}

	for _, tc := range cases {
		got := NormalizePath(tc.path, tc.locale)
		if got != tc.want {
			t.Errorf("NormalizePath(%q, %v): expected %q, got %q", tc.path, tc.locale, tc.want, got)
		}
	}
}

// TestLocaleStrippedPathMatches tests the locale example end to end through the matcher
func TestLocaleStrippedPathMatches(t *testing.T) {
	path := NormalizePath("/en/dashboard/settings", true)
	if !Compile("/dashboard/*").Match(path) {
		t.Errorf("Expected /dashboard/* to match %q", path)
	}
	if Compile("/en/*").Match(path) {
		t.Errorf("Expected /en/* not to match the stripped path %q", path)
	}
}

func TestLocale(t *testing.T) {
	cases := map[string]string{
		"/en/dashboard": "en",
		"/fr":           "fr",
		"/":             "",
		"":              "",
	}
	for path, want := range cases {
		if got := Locale(path); got != want {
			t.Errorf("Locale(%q): expected %q, got %q", path, want, got)
		}
	}
}

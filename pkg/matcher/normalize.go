package matcher

import "strings"

// NormalizePath returns the canonical form of a request path used for matching.
//
// Without locale stripping the path is returned unchanged, except that an empty path
// becomes "/". With locale stripping the leading empty segment and the locale segment are
// dropped, empty segments are removed and the rest is rejoined under a leading slash:
// "/en/dashboard/settings" becomes "/dashboard/settings". A path with nothing after the
// locale, such as "/en" or "/", becomes "/".
func NormalizePath(path string, locale bool) string {
	if !locale {
		if path == "" {
			return "/"
		}
		return path
	}

	segments := strings.Split(path, "/")
	if len(segments) <= 2 {
		return "/"
	}

	rest := make([]string, 0, len(segments)-2)
	for _, s := range segments[2:] {
		if s != "" {
			rest = append(rest, s)
		}
	}
	return "/" + strings.Join(rest, "/")
}

// Locale returns the segment NormalizePath strips as the locale, or "" if the path has none.
func Locale(path string) string {
	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return ""
	}
	return segments[1]
}

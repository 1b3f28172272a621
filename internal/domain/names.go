package domain

// SafeName reports whether s is filesystem-safe: non-empty and built only
// from alphanumerics, '-', '_' and '.'. Package names, versions, and
// workspace names must all pass this check before touching disk or store.
func SafeName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}

package schema

// ValidIdentifier reports whether s is a strict SQL identifier: letters,
// digits, and underscore, not starting with a digit. Anything interpolated
// into SQL that cannot be parameterized (table names for introspection,
// pragma arguments) must pass this check first.
func ValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

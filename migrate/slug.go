package migrate

import (
	"strings"

	"github.com/strata-db/strata/strataerr"
)

// Slugify sanitizes a human-readable migration name into a filesystem-safe
// slug: lowercase, any run of characters outside [a-z0-9] becomes a single
// underscore word boundary. A name with nothing left after sanitization is
// rejected so path fragments like "../.." can never become a directory name.
func Slugify(name string) (string, error) {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "_")
	if slug == "" {
		return "", strataerr.NewValidation(name, "migration name sanitizes to an empty slug")
	}
	return slug, nil
}

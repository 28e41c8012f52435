// Package slug derives URL-safe identifiers from display names.
//
//	slug.Make("Acme Shop!!")   // "acme-shop"
//	slug.Make("Bücher & Mehr") // "b-cher-mehr"
//
// Derivation is idempotent, so names differing only by case or punctuation
// collapse to the same slug. Uniqueness checks therefore run on the derived
// slug, not the name.
package slug

import "strings"

// Make lower-cases name, collapses every run of non-alphanumeric characters
// to a single hyphen and trims leading and trailing hyphens.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pending := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

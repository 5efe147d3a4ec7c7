package utils

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugStrip matches everything but letters, marks, digits, underscores, whitespace and hyphens
	slugStrip = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s-]+`)
	// slugSeparators matches runs of whitespace and hyphens
	slugSeparators = regexp.MustCompile(`[-\s]+`)
	slugValid      = regexp.MustCompile(`^[\p{L}\p{M}\p{N}_-]+$`)
)

// Slugify converts a name into a lowercase URL path segment. Letters of any script are kept;
// when nothing survives, an ASCII transliteration is tried instead.
func Slugify(s string) string {
	if slug := slugify(s); slug != "" {
		return slug
	}
	return slugify(unidecode.Unidecode(s))
}

func slugify(s string) string {
	s = norm.NFKC.String(s)
	s = slugStrip.ReplaceAllString(strings.ToLower(s), "")
	s = slugSeparators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}

// IsValidSlug reports whether s is non-empty and made only of letters, marks, digits,
// underscores and hyphens.
func IsValidSlug(s string) bool {
	return slugValid.MatchString(s)
}

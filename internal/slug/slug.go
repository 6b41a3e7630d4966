package slug

import (
	"regexp"
	"strings"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given name. Accented latin
// characters common in tour names are transliterated to ASCII.
//
// Examples:
//   - "The Forest Hiker" → "the-forest-hiker"
//   - "Ålesund Fjord Cruise" → "alesund-fjord-cruise"
func Generate(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))

	replacer := strings.NewReplacer(
		"à", "a", "á", "a", "â", "a", "ä", "a", "å", "a", "ã", "a",
		"è", "e", "é", "e", "ê", "e", "ë", "e",
		"ì", "i", "í", "i", "î", "i", "ï", "i",
		"ò", "o", "ó", "o", "ô", "o", "ö", "o", "õ", "o", "ø", "o",
		"ù", "u", "ú", "u", "û", "u", "ü", "u",
		"ç", "c", "ñ", "n", "ß", "ss",
	)
	slug = replacer.Replace(slug)

	slug = slugRegexp.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	return slug
}

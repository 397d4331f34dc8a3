package book

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"“", `"`, "”", `"`, "„", `"`, "«", `"`, "»", `"`,
	"–", "-", "—", "-", "―", "-", "−", "-",
	"…", "...",
	"\u00a0", " ",
	"\u00ad", "",
	"\ufeff", "",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ß", "ss",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
)

// Normalize maps typographic punctuation to keyboard characters, strips
// combining accents, transliterates the rest to ASCII and collapses every
// whitespace run to a single space. The result holds only printable ASCII.
func Normalize(s string) (string, error) {
	s = punctuation.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		return "", err
	}
	return collapseSpace(unidecode.Unidecode(stripped)), nil
}

// collapseSpace also drops whatever transliteration left untypable.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		if r < ' ' || r > '~' {
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

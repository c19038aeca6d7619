package similarity

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes lists company-form suffixes stripped during normalization.
// Facility registers across Europe mix national forms, so the common ones of
// each reporting country are included.
var legalSuffixes = []string{
	" GMBH CO KG", " GMBH AND CO KG", " GMBH", " AG", " KG", " KGAA", " SE", " EV",
	" SA", " SAS", " SARL", " SNC", " SCA",
	" SPA", " SRL", " SAPA",
	" SL", " SLU",
	" BV", " NV", " VOF",
	" AB", " AS", " ASA", " OY", " OYJ", " APS",
	" SP ZOO", " SRO", " DOO", " KFT", " ZRT", " NYRT",
	" LTD", " LIMITED", " PLC", " LLC", " INC", " CORP", " CO",
}

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	punctRe      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// fold removes diacritics ("Société" -> "Societe").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize standardizes a company or facility name for matching:
// diacritics folded, upper-cased, "&" spelled out, punctuation dropped,
// a trailing legal form removed and whitespace collapsed.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = strings.ToUpper(fold(name))
	name = strings.ReplaceAll(name, "&", " AND ")
	name = strings.NewReplacer(".", "", "'", "", "-", " ", "/", " ").Replace(name)
	name = punctRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(multiSpaceRe.ReplaceAllString(name, " "))

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	return strings.TrimSpace(name)
}

// tokens splits a normalized name into its distinct words.
func tokens(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, f := range strings.Fields(s) {
		set[f] = struct{}{}
	}
	return set
}

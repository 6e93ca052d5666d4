// Package textnorm canonicalizes free text (question text, section labels,
// emails) so that equality checks ignore case, spacing and typographic variants.
package textnorm

import (
	"regexp"
	"strings"
)

const edgeCutset = ".,;:!? \t\r\n\v\f"

var (
	typographic = strings.NewReplacer(
		"’", "'", // ’
		"‘", "'", // ‘
		"“", "'", // “
		"”", "'", // ”
		"–", "-", // en dash
		"—", "-", // em dash
	)

	letterPrefix = regexp.MustCompile(`^[a-z]\.\s+`)
)

// legacy section labels that collapse onto a canonical one
var sectionAliases = map[string]string{
	"verbal interpretation": "comments",
}

// Normalize returns the comparison key for text. It is idempotent.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, edgeCutset)
	return typographic.Replace(s)
}

// NormalizeSection is Normalize plus the rules used for evaluation section
// labels: "B. Classroom Management" and "classroom management" share a key,
// "&" reads as "and", and legacy aliases map to their canonical label. Only
// one letter prefix is removed.
func NormalizeSection(label string) string {
	s := Normalize(strings.ReplaceAll(label, "&", " and "))
	s = Normalize(letterPrefix.ReplaceAllString(s, ""))
	if alias, ok := sectionAliases[s]; ok {
		return alias
	}
	return s
}

// SectionMatches reports whether two section labels refer to the same bucket.
// Keys match when equal or when one contains the other on word boundaries.
func SectionMatches(a, b string) bool {
	ka, kb := NormalizeSection(a), NormalizeSection(b)
	if ka == "" || kb == "" {
		return false
	}
	if ka == kb {
		return true
	}
	return containsWords(ka, kb) || containsWords(kb, ka)
}

func containsWords(long, short string) bool {
	return strings.Contains(" "+long+" ", " "+short+" ")
}

// EmailKey is the identity key for an email address.
func EmailKey(email string) string {
	return Normalize(email)
}

// StudentIDFromEmail derives the student id used as a secondary identity: the
// local part of the address. It returns "" when the address has no "@".
func StudentIDFromEmail(email string) string {
	key := EmailKey(email)
	at := strings.IndexByte(key, '@')
	if at <= 0 {
		return ""
	}
	return key[:at]
}

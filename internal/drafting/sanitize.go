package drafting

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// bannedRewrites maps each banned marketing term to a softer word so a
// sentence keeps its grammar after the rewrite.
var bannedRewrites = map[string]string{
	"oferta":      "idea",
	"ofertas":     "ideas",
	"premium":     "cuidado",
	"descuento":   "detalle",
	"descuentos":  "detalles",
	"promoción":   "sorpresa",
	"promocion":   "sorpresa",
	"promociones": "sorpresas",
	"promo":       "sorpresa",
	"promos":      "sorpresas",
	"rebaja":      "detalle",
	"rebajas":     "detalles",
	"gratis":      "de regalo",
	"exclusivo":   "especial",
	"exclusiva":   "especial",
	"exclusivos":  "especiales",
	"exclusivas":  "especiales",
	"discount":    "little treat",
	"discounts":   "little treats",
	"deal":        "idea",
	"deals":       "ideas",
	"offer":       "idea",
	"offers":      "ideas",
}

var bannedRe = regexp.MustCompile(`(?i)\b(?:ofertas?|premium|descuentos?|promoci[oó]n|promociones|promos?|rebajas?|gratis|exclusiv[oa]s?|discounts?|deals?|offers?)\b`)

var (
	spaceRe       = regexp.MustCompile(`\s+`)
	spaceBeforeRe = regexp.MustCompile(`\s+([,.;:!?…])`)
	spaceAfterRe  = regexp.MustCompile(`([¿¡])\s+`)
	emptyClauseRe = regexp.MustCompile(`([,;:])\s*([,;:.!?])`)
	placeholderRe = regexp.MustCompile(`\{[^{}]*\}`)
)

// RewriteBanned replaces banned marketing terms in place, keeping the case
// of the first letter.
func RewriteBanned(text string) string {
	return bannedRe.ReplaceAllStringFunc(text, func(word string) string {
		repl, ok := bannedRewrites[strings.ToLower(word)]
		if !ok {
			return word
		}
		first, _ := utf8.DecodeRuneInString(word)
		if unicode.IsUpper(first) {
			r, size := utf8.DecodeRuneInString(repl)
			return string(unicode.ToUpper(r)) + repl[size:]
		}
		return repl
	})
}

// BannedTerms lists the banned marketing terms found in text, lowercased and
// in order of first appearance.
func BannedTerms(text string) []string {
	var found []string
	seen := map[string]bool{}
	for _, m := range bannedRe.FindAllString(text, -1) {
		m = strings.ToLower(m)
		if !seen[m] {
			seen[m] = true
			found = append(found, m)
		}
	}
	return found
}

// NormalizeSpace collapses runs of whitespace and tidies the spacing around
// punctuation.
func NormalizeSpace(text string) string {
	text = spaceRe.ReplaceAllString(text, " ")
	text = spaceBeforeRe.ReplaceAllString(text, "$1")
	text = spaceAfterRe.ReplaceAllString(text, "$1")
	text = emptyClauseRe.ReplaceAllString(text, "$2")
	return strings.TrimSpace(text)
}

// Sanitize rewrites banned terms and normalizes whitespace.
func Sanitize(text string) string {
	return NormalizeSpace(RewriteBanned(text))
}

var (
	urlRe    = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+|\b[a-z0-9-]+\.(?:com|net|org|io|me|ly|es|link)\b`)
	emailRe  = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)
	handleRe = regexp.MustCompile(`(?:^|\s)@[A-Za-z0-9_.]{2,}`)
	digitsRe = regexp.MustCompile(`\d`)
)

const (
	contextMaxWords = 10
	contextMaxRunes = 80
	contextMaxDigit = 6
)

// unsafeForContext is true for messages that must not be echoed back:
// safety signals, links, emails, handles and phone-like numbers.
func unsafeForContext(msg string) bool {
	if CheckSafety(msg).Blocked() {
		return true
	}
	if urlRe.MatchString(msg) || emailRe.MatchString(msg) || handleRe.MatchString(msg) {
		return true
	}
	return len(digitsRe.FindAllStringIndex(msg, -1)) > contextMaxDigit
}

// ContextSnippet extracts a short echo of the fan's last message. It returns
// false when the message is empty or unsafe to repeat.
func ContextSnippet(msg string) (string, bool) {
	msg = strings.TrimSpace(msg)
	if msg == "" || unsafeForContext(msg) {
		return "", false
	}

	words := strings.Fields(msg)
	if len(words) > contextMaxWords {
		words = words[:contextMaxWords]
	}
	snippet := strings.Join(words, " ")

	if utf8.RuneCountInString(snippet) > contextMaxRunes {
		runes := []rune(snippet)
		cut := string(runes[:contextMaxRunes])
		if idx := strings.LastIndex(cut, " "); idx > 0 && !unicode.IsSpace(runes[contextMaxRunes]) {
			cut = cut[:idx]
		}
		snippet = cut
	}

	snippet = strings.TrimRightFunc(snippet, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	})
	snippet = Sanitize(snippet)
	if snippet == "" {
		return "", false
	}
	return snippet, true
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

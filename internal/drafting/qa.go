package drafting

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Warnings emitted by the QA scorer.
const (
	WarnNoContent     = "no content"
	WarnNoQuestion    = "does not end with a question"
	WarnTooShort      = "too short"
	WarnTooLong       = "longer than 220 characters"
	WarnBannedWord    = "banned marketing word"
	WarnNoWarmth      = "no human warmth"
	WarnNoSensory     = "no sensory detail"
	WarnLongQuestion  = "closing question is too long"
	WarnRepeated      = "repeated phrase"
	WarnMarketing     = "marketing register"
	WarnGenericOpener = "generic greeting"
)

const (
	qaBase            = 60
	qaShortRunes      = 25
	qaIdealRunes      = 180
	qaQuestionClause  = 60
	qaMinScore        = 0
	qaMaxScore        = 100
	qaRepeatThreshold = 2
)

var (
	warmthRe    = regexp.MustCompile(`(?i)(?:\bcari[ñn]o\b|\bguap[oa]\b|\bamor\b|\bcielo\b|\bcoraz[oó]n\b|\bmi vida\b|\bme encanta|\bme gusta|\bpensando en ti\b|\bte echaba de menos\b|\bte extraño|\bte extrañaba|\bqu[eé] bien\b|\bgracias\b|\bun beso\b|\bbesit[oa]s?\b|\bsweetheart\b|\bbabe\b|\bhoney\b|\bmiss(?:ed)? you\b|\bthinking (?:of|about) you\b)`)
	sensoryRe   = regexp.MustCompile(`(?i)(?:\bpiel\b|\bsuave\b|\bcalentit[oa]\b|\btibi[oa]\b|\bc[aá]lid[oa]\b|\baroma\b|\bolor\b|\boliendo\b|\bvainilla\b|\bsusurr|\bluz\b|\bs[aá]banas\b|\bseda\b|\bencaje\b|\blabios\b|\brespira|\bescalofr|\bvelas?\b|\bsoft\b|\bwarm\b|\bskin\b|\blace\b|\bsilk\b|\bwhisper|\bcandle)`)
	marketingRe = regexp.MustCompile(`(?i)(?:\bcompra(?:lo|la)?\s+ya\b|\bno te lo pierdas\b|[uú]ltimas?\s+(?:unidades|horas|plazas)|\bpor tiempo limitado\b|\bsolo hoy\b|\bhaz clic\b|\bclick\b|\blink\b|\benlace\b|\bsuscr[ií]bete\b|\baprovecha\b|\bbuy now\b|\blimited time\b|\bact now\b|\bdon'?t miss\b|\bsubscribe\b)`)
	genericRe   = regexp.MustCompile(`^(?:hola|hey|hi|hello|buenas(?: noches| tardes| d[ií]as)?|qu[eé] tal)(?: \S+)?(?: (?:qu[eé] tal|c[oó]mo est[aá]s|c[oó]mo vas|how are you|what'?s up))?$`)
	wordRe      = regexp.MustCompile(`[\p{L}\p{N}']+`)
	greetPunct  = regexp.MustCompile(`[¿?¡!.,;:…]+`)
)

// repeatedIdioms are filler phrases that read as canned when used twice.
var repeatedIdioms = []string{"la verdad", "te cuento", "por cierto", "ya sabes", "me encanta", "you know"}

// QAResult is the heuristic grade of a draft.
type QAResult struct {
	Score    int      `json:"score"`
	Warnings []string `json:"warnings"`
}

// HardRulesResult is the pre-send gate outcome.
type HardRulesResult struct {
	OK       bool     `json:"ok"`
	Warnings []string `json:"warnings"`
}

type finding struct {
	warning string
	hard    bool
}

// ScoreDraft grades text from 0 to 100. It depends only on the text.
func ScoreDraft(text string) QAResult {
	score, findings := evaluate(text)
	return QAResult{Score: score, Warnings: warnings(findings)}
}

// PassesHardRules runs the same checks as ScoreDraft and fails on any hard
// warning: no content, no closing question, too long, banned or marketing
// words, or a generic greeting.
func PassesHardRules(text string) HardRulesResult {
	_, findings := evaluate(text)
	ok := true
	for _, f := range findings {
		if f.hard {
			ok = false
			break
		}
	}
	return HardRulesResult{OK: ok, Warnings: warnings(findings)}
}

func warnings(findings []finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.warning)
	}
	return out
}

func evaluate(raw string) (int, []finding) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, []finding{{warning: WarnNoContent, hard: true}}
	}

	score := qaBase
	var findings []finding
	warn := func(w string, hard bool) { findings = append(findings, finding{warning: w, hard: hard}) }

	endsWithQuestion := strings.HasSuffix(text, "?")
	if endsWithQuestion {
		score += 15
	} else {
		score -= 15
		warn(WarnNoQuestion, true)
	}

	switch n := runeLen(text); {
	case n < qaShortRunes:
		score -= 6
		warn(WarnTooShort, false)
	case n <= qaIdealRunes:
		score += 4
	case n <= MaxDraftRunes:
	default:
		score -= 12
		warn(WarnTooLong, true)
	}

	if banned := BannedTerms(text); len(banned) > 0 {
		score -= 24
		warn(WarnBannedWord+": "+strings.Join(banned, ", "), true)
	}

	if warmthRe.MatchString(text) {
		score += 8
	} else {
		score -= 8
		warn(WarnNoWarmth, false)
	}

	if sensoryRe.MatchString(text) {
		score += 6
	} else {
		score -= 8
		warn(WarnNoSensory, false)
	}

	if endsWithQuestion && runeLen(closingQuestion(text)) > qaQuestionClause {
		score -= 5
		warn(WarnLongQuestion, false)
	}

	if hasRepetition(text) {
		score -= 8
		warn(WarnRepeated, false)
	}

	if marketingRe.MatchString(text) {
		score -= 18
		warn(WarnMarketing, true)
	}

	if isGenericGreeting(text) {
		score -= 14
		warn(WarnGenericOpener, true)
	}

	if score < qaMinScore {
		score = qaMinScore
	}
	if score > qaMaxScore {
		score = qaMaxScore
	}
	return score, findings
}

// closingQuestion is the last question clause: from the last "¿" if there is
// one, else from the end of the previous sentence.
func closingQuestion(text string) string {
	body := strings.TrimSuffix(text, "?")
	if idx := strings.LastIndex(body, "¿"); idx >= 0 {
		return strings.TrimSpace(body[idx:]) + "?"
	}
	if idx := strings.LastIndexAny(body, ".!?…"); idx >= 0 {
		_, size := utf8.DecodeRuneInString(body[idx:])
		return strings.TrimSpace(body[idx+size:]) + "?"
	}
	return text
}

func hasRepetition(text string) bool {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]bool)
	for i := 0; i+2 < len(words); i++ {
		tri := words[i] + " " + words[i+1] + " " + words[i+2]
		if seen[tri] {
			return true
		}
		seen[tri] = true
	}
	for _, idiom := range repeatedIdioms {
		if countPhrase(words, strings.Fields(idiom)) >= qaRepeatThreshold {
			return true
		}
	}
	return false
}

func countPhrase(words, phrase []string) int {
	n := 0
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, w := range phrase {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

func isGenericGreeting(text string) bool {
	flat := strings.ToLower(greetPunct.ReplaceAllString(text, " "))
	flat = strings.Join(strings.Fields(flat), " ")
	return genericRe.MatchString(flat)
}

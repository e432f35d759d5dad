package drafting

import (
	"regexp"
	"strings"
)

// SafetyGate names the hard-stop check that fired on a fan message.
type SafetyGate string

const (
	GateNone       SafetyGate = ""
	GateUnderage   SafetyGate = "underage"
	GateNonConsent SafetyGate = "non_consent"
)

// Fixed replies returned when a gate fires. Both end with a question so they
// pass the same question rule as generated drafts.
const (
	UnderageReply   = "Solo hablo con personas mayores de edad, así que no puedo seguir con esta conversación. ¿Lo entiendes, verdad?"
	NonConsentReply = "Aquí todo va siempre con consentimiento y respeto, eso no lo voy a hacer. ¿Hablamos de otra cosa?"
)

// safetyPattern is one compiled signal inside a gate.
type safetyPattern struct {
	re     *regexp.Regexp
	reason string
}

var underagePatterns = []safetyPattern{
	{regexp.MustCompile(`(?i)\btengo\s+(?:1[0-7]|[1-9])\s*(?:años|anos|añitos)`), "underage:age_es"},
	{regexp.MustCompile(`(?i)\bsoy\s+(?:de\s+)?(?:1[0-7]|[1-9])(?:\s*(?:años|anos)|\s*$|\s*[.,!?])`), "underage:age_es"},
	{regexp.MustCompile(`(?i)\bcumpl[oí]\s+(?:1[0-7]|[1-9])\b`), "underage:age_es"},
	{regexp.MustCompile(`(?i)\bmenor\s+de\s+edad\b`), "underage:minor_es"},
	{regexp.MustCompile(`(?i)\b(?:i'?m|i\s+am)\s+(?:1[0-7]|[1-9])(?:\s*$|\s*[.,!?])`), "underage:age_en"},
	{regexp.MustCompile(`(?i)\b(?:1[0-7]|[1-9])\s*(?:years?\s+old|yo|y/o)\b`), "underage:age_en"},
	{regexp.MustCompile(`(?i)\bunder\s?age\b`), "underage:minor_en"},
	{regexp.MustCompile(`(?i)\b(?:secundaria|instituto|la\s+eso|bachillerato|middle\s+school|high\s+school|junior\s+high)\b`), "underage:school"},
}

var nonConsentPatterns = []safetyPattern{
	{regexp.MustCompile(`(?i)\bsin\s+(?:su\s+|mi\s+|tu\s+)?consentimiento\b`), "non_consent:no_consent_es"},
	{regexp.MustCompile(`(?i)\b(?:forzarla|forzarle|forzad[ao]|obligarla|obligarle)\b`), "non_consent:force_es"},
	{regexp.MustCompile(`(?i)\b(?:drogad[ao]|inconsciente)\b`), "non_consent:incapacitated_es"},
	{regexp.MustCompile(`(?i)\b(?:mientras|cuando)\s+(?:est[aá]|estaba|esté)\s+dormid[ao]\b`), "non_consent:asleep_es"},
	{regexp.MustCompile(`(?i)\baunque\s+(?:ella\s+|él\s+)?(?:no\s+quiera|diga\s+que\s+no)`), "non_consent:refusal_es"},
	{regexp.MustCompile(`(?i)\bviol(?:ar|arla|arle|arte|ación|acion)\b`), "non_consent:rape_es"},
	{regexp.MustCompile(`(?i)\bwithout\s+(?:her\s+|his\s+|their\s+|my\s+|your\s+)?consent\b`), "non_consent:no_consent_en"},
	{regexp.MustCompile(`(?i)\bnon[-\s]?consensual\b`), "non_consent:no_consent_en"},
	{regexp.MustCompile(`(?i)\b(?:force|forcing)\s+(?:her|him|them|you|me)\b`), "non_consent:force_en"},
	{regexp.MustCompile(`(?i)\b(?:drugged|passed\s+out|unconscious)\b`), "non_consent:incapacitated_en"},
	{regexp.MustCompile(`(?i)\brape\b`), "non_consent:rape_en"},
}

// SafetyResult is the outcome of scanning a fan message.
type SafetyResult struct {
	Gate    SafetyGate
	Reasons []string
}

// Blocked reports whether a gate fired.
func (r SafetyResult) Blocked() bool { return r.Gate != GateNone }

// Reply is the fixed safe reply for the gate, or "" when nothing fired.
func (r SafetyResult) Reply() string {
	switch r.Gate {
	case GateUnderage:
		return UnderageReply
	case GateNonConsent:
		return NonConsentReply
	default:
		return ""
	}
}

// CheckSafety scans a fan message for underage and non-consent signals.
// Underage wins when both sets match.
func CheckSafety(msg string) SafetyResult {
	if strings.TrimSpace(msg) == "" {
		return SafetyResult{}
	}
	if reasons := scan(underagePatterns, msg); len(reasons) > 0 {
		return SafetyResult{Gate: GateUnderage, Reasons: reasons}
	}
	if reasons := scan(nonConsentPatterns, msg); len(reasons) > 0 {
		return SafetyResult{Gate: GateNonConsent, Reasons: reasons}
	}
	return SafetyResult{}
}

func scan(patterns []safetyPattern, msg string) []string {
	var reasons []string
	for _, p := range patterns {
		if p.re.MatchString(msg) {
			reasons = append(reasons, p.reason)
		}
	}
	return reasons
}

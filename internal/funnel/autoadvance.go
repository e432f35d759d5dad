package funnel

import (
	"regexp"
	"strings"
)

// Matcher tests a normalized action key.
type Matcher interface {
	Matches(key string) bool
}

// Literal matches an action key exactly, with or without its intent:/autopilot: prefix.
type Literal string

// Matches implements Matcher.
func (l Literal) Matches(key string) bool {
	want := strings.ToLower(strings.TrimSpace(string(l)))
	return key == want || stripActionPrefix(key) == want
}

// Pattern matches an action key against a regular expression.
type Pattern struct {
	re *regexp.Regexp
}

// NewPattern compiles expr into a Pattern. It panics on an invalid expression,
// so it is only meant for package-level rule tables.
func NewPattern(expr string) Pattern {
	return Pattern{re: regexp.MustCompile(expr)}
}

// Matches implements Matcher.
func (p Pattern) Matches(key string) bool {
	return p.re != nil && p.re.MatchString(key)
}

func (p Pattern) String() string {
	if p.re == nil {
		return ""
	}
	return p.re.String()
}

// Rule moves a conversation from any stage in From to To when one of its
// matchers accepts the action key.
type Rule struct {
	Name  string
	From  []Stage
	To    Stage
	Match []Matcher
}

func (r Rule) appliesTo(s Stage) bool {
	for _, from := range r.From {
		if from == s {
			return true
		}
	}
	return false
}

func (r Rule) matches(key string) bool {
	for _, m := range r.Match {
		if m.Matches(key) {
			return true
		}
	}
	return false
}

const prefix = `^(?:intent:|autopilot:)?`

// advanceRules is evaluated top to bottom and the first hit wins. Recovery and
// renewal come before new offers, offers before closing, closing before
// warm-up/heat. Reordering changes behavior.
var advanceRules = []Rule{
	{
		Name: "boundary",
		From: []Stage{StageNew, StageWarmUp, StageHeat, StageOffer, StageClose, StageAftercare, StageRecovery},
		To:   StageBoundary,
		Match: []Matcher{
			Literal("intent:limite"),
			NewPattern(prefix + `(?:boundary|limite|limits?|hard_no)\b`),
		},
	},
	{
		Name: "recovery",
		From: []Stage{StageNew, StageWarmUp, StageHeat, StageOffer, StageClose, StageAftercare, StageBoundary},
		To:   StageRecovery,
		Match: []Matcher{
			Literal("intent:reactivar"),
			Literal("autopilot:reengage"),
			NewPattern(prefix + `(?:recover|reactiv|re_?engage|win_?back|rescate)`),
			NewPattern(prefix + `(?:expired|caducad|churn)`),
		},
	},
	{
		Name: "renewal",
		From: []Stage{StageClose, StageAftercare, StageRecovery},
		To:   StageOffer,
		Match: []Matcher{
			Literal("intent:renovar"),
			NewPattern(prefix + `(?:renew|renova|renewal|resub)`),
		},
	},
	{
		Name: "offer",
		From: []Stage{StageWarmUp, StageHeat, StageAftercare, StageRecovery},
		To:   StageOffer,
		Match: []Matcher{
			Literal("intent:ofrecer_extra"),
			Literal("intent:ofrecer_pack"),
			NewPattern(prefix + `(?:offer|oferta|ofrecer|pack|bundle|upsell|extra_offer|propuesta)`),
			NewPattern(`^ppv:offer`),
		},
	},
	{
		Name: "close",
		From: []Stage{StageOffer},
		To:   StageClose,
		Match: []Matcher{
			Literal("intent:cerrar"),
			NewPattern(`^ppv:`),
			NewPattern(prefix + `(?:close|cerrar|cierre|send_ppv|unlock|paid|purchase|compra)`),
		},
	},
	{
		Name: "aftercare",
		From: []Stage{StageClose},
		To:   StageAftercare,
		Match: []Matcher{
			Literal("intent:gracias"),
			NewPattern(prefix + `(?:thanks|gracias|aftercare|post_?purchase|follow_?up|seguimiento)`),
		},
	},
	{
		Name: "warm_up",
		From: []Stage{StageNew},
		To:   StageWarmUp,
		Match: []Matcher{
			Literal("intent:bienvenida"),
			NewPattern(prefix + `(?:welcome|bienvenida|saludo|greeting|icebreaker|warm_?up)`),
		},
	},
	{
		Name: "heat",
		From: []Stage{StageWarmUp},
		To:   StageHeat,
		Match: []Matcher{
			Literal("intent:calentar"),
			NewPattern(prefix + `(?:heat|flirt|coqueteo|tease|picante|calentar)`),
		},
	},
}

// Rules returns a copy of the ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(advanceRules))
	copy(out, advanceRules)
	return out
}

// NextStage returns the stage a conversation in current should move to after
// actionKey, or false when no rule applies and the stage stays as it is.
func NextStage(current Stage, actionKey string) (Stage, bool) {
	rule := firstMatch(current, actionKey)
	if rule == nil {
		return "", false
	}
	return rule.To, true
}

// MatchingRule returns the name of the rule NextStage would apply, or "".
func MatchingRule(current Stage, actionKey string) string {
	if rule := firstMatch(current, actionKey); rule != nil {
		return rule.Name
	}
	return ""
}

func firstMatch(current Stage, actionKey string) *Rule {
	key := strings.ToLower(strings.TrimSpace(actionKey))
	if key == "" {
		return nil
	}
	for i := range advanceRules {
		rule := &advanceRules[i]
		if rule.To == current || !rule.appliesTo(current) {
			continue
		}
		if rule.matches(key) {
			return rule
		}
	}
	return nil
}

func stripActionPrefix(key string) string {
	for _, p := range []string{"intent:", "autopilot:"} {
		if strings.HasPrefix(key, p) {
			return strings.TrimPrefix(key, p)
		}
	}
	return key
}

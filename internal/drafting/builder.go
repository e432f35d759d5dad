package drafting

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wolfman30/creator-sales-engine/internal/funnel"
)

// MaxDraftRunes is the length ceiling offer injection must respect.
const MaxDraftRunes = 220

// FallbackQuestion is used when no template produced any text.
const FallbackQuestion = "¿Qué es lo que más te apetece hoy?"

// Mode selects which slots are assembled.
type Mode string

const (
	ModeFull  Mode = "full"
	ModeShort Mode = "short"
)

// ParseMode defaults to full for anything but "short".
func ParseMode(raw string) Mode {
	if strings.EqualFold(strings.TrimSpace(raw), string(ModeShort)) {
		return ModeShort
	}
	return ModeFull
}

// Slot is one position in an assembled draft.
type Slot string

const (
	SlotOpener Slot = "opener"
	SlotBridge Slot = "bridge"
	SlotTease  Slot = "tease"
	SlotCTA    Slot = "cta"
)

// Slots returns the slots assembled for a mode, in order.
func (m Mode) Slots() []Slot {
	if m == ModeShort {
		return []Slot{SlotOpener, SlotTease, SlotCTA}
	}
	return []Slot{SlotOpener, SlotBridge, SlotTease, SlotCTA}
}

// Pools are the template blocks a draft is assembled from.
type Pools struct {
	Openers []string `json:"openers" yaml:"openers"`
	Bridges []string `json:"bridges" yaml:"bridges"`
	Teases  []string `json:"teases" yaml:"teases"`
	CTAs    []string `json:"ctas" yaml:"ctas"`
}

// Pool returns the blocks for a slot.
func (p Pools) Pool(s Slot) []string {
	switch s {
	case SlotOpener:
		return p.Openers
	case SlotBridge:
		return p.Bridges
	case SlotTease:
		return p.Teases
	case SlotCTA:
		return p.CTAs
	default:
		return nil
	}
}

// Empty reports whether every pool is empty.
func (p Pools) Empty() bool {
	return len(p.Openers) == 0 && len(p.Bridges) == 0 && len(p.Teases) == 0 && len(p.CTAs) == 0
}

// Options drive one draft.
type Options struct {
	FanName        string           `json:"fan_name"`
	LastFanMessage string           `json:"last_fan_message"`
	Stage          funnel.Stage     `json:"stage"`
	Objective      funnel.Objective `json:"objective"`
	Intensity      funnel.Intensity `json:"intensity"`
	OfferTitle     string           `json:"offer_title"`
	OfferTier      string           `json:"offer_tier"`
	Variant        int              `json:"variant"`
	Mode           Mode             `json:"mode"`
	Pools          Pools            `json:"pools"`
}

// Result is a built draft.
type Result struct {
	Text          string          `json:"text"`
	Used          map[Slot]string `json:"used"`
	Context       *string         `json:"context"`
	SafetyGate    SafetyGate      `json:"safety_gate,omitempty"`
	OfferInjected bool            `json:"offer_injected"`
}

// offerPhrasings are sensory clauses inserted before the closing question.
var offerPhrasings = []string{
	"con mi {offerTitle} recién grabado, todavía calentito",
	"mientras te enseño {offerTitle} con la luz suave de la tarde",
	"con {offerTitle} esperándote, oliendo a vainilla",
	"pensando en {offerTitle} con la piel aún tibia",
}

// Build assembles a draft. The same options always produce the same result;
// bumping Variant cycles through other combinations.
func Build(opts Options) Result {
	if gate := CheckSafety(opts.LastFanMessage); gate.Blocked() {
		return Result{Text: gate.Reply(), Used: map[Slot]string{}, SafetyGate: gate.Gate}
	}

	mode := opts.Mode
	if mode != ModeShort {
		mode = ModeFull
	}
	variant := opts.Variant
	if variant < 0 {
		variant = 0
	}

	snippet, hasSnippet := ContextSnippet(opts.LastFanMessage)
	seed := Seed(
		strings.TrimSpace(opts.FanName),
		snippet,
		string(opts.Stage),
		string(opts.Objective),
		string(opts.Intensity),
		strings.TrimSpace(opts.OfferTitle),
		strings.TrimSpace(opts.OfferTier),
		strconv.Itoa(variant),
	)

	vars := strings.NewReplacer(
		"{fanName}", strings.TrimSpace(opts.FanName),
		"{context}", snippet,
		"{offerTitle}", strings.TrimSpace(opts.OfferTitle),
		"{offerTier}", strings.TrimSpace(opts.OfferTier),
	)

	result := Result{Used: make(map[Slot]string)}
	if hasSnippet {
		result.Context = &snippet
	}

	var parts []string
	for _, slot := range mode.Slots() {
		pool := usableBlocks(opts.Pools.Pool(slot), hasSnippet)
		block, _, ok := Pick(pool, seed, variant)
		if !ok {
			continue
		}
		result.Used[slot] = block
		if part := interpolate(vars, block); part != "" {
			parts = append(parts, part)
		}
	}

	text := Sanitize(strings.Join(parts, " "))
	if text == "" {
		text = FallbackQuestion
	}

	if title := strings.TrimSpace(opts.OfferTitle); title != "" && !mentions(text, title) {
		text, result.OfferInjected = injectOffer(text, vars, seed, variant)
	}

	result.Text = EnsureQuestion(text)
	return result
}

// usableBlocks drops blocks that need a context snippet when there is none.
func usableBlocks(pool []string, hasSnippet bool) []string {
	if hasSnippet {
		return pool
	}
	out := make([]string, 0, len(pool))
	for _, block := range pool {
		if !strings.Contains(block, "{context}") {
			out = append(out, block)
		}
	}
	return out
}

// interpolate fills placeholders. A block that opened with a placeholder
// which came out empty loses its leading separator and is recapitalized.
func interpolate(vars *strings.Replacer, block string) string {
	out := vars.Replace(block)
	out = placeholderRe.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)
	trimmed := strings.TrimLeft(out, ",;: ")
	if trimmed != out {
		trimmed = capitalizeFirst(trimmed)
	}
	return trimmed
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func mentions(text, title string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, strings.ToLower(title)) ||
		strings.Contains(lower, strings.ToLower(RewriteBanned(title)))
}

// injectOffer tries each phrasing starting at the seeded one and keeps the
// first that fits under MaxDraftRunes once the question mark is in place.
func injectOffer(text string, vars *strings.Replacer, seed uint64, variant int) (string, bool) {
	_, start, _ := Pick(offerPhrasings, seed, variant)
	for i := range offerPhrasings {
		phrase := Sanitize(interpolate(vars, offerPhrasings[(start+i)%len(offerPhrasings)]))
		if phrase == "" {
			continue
		}
		candidate := insertBeforeQuestion(text, phrase)
		if runeLen(EnsureQuestion(candidate)) <= MaxDraftRunes {
			return candidate, true
		}
	}
	return text, false
}

func insertBeforeQuestion(text, phrase string) string {
	trimmed := strings.TrimRight(text, " ")
	if idx := strings.LastIndex(trimmed, "?"); idx >= 0 && idx == len(trimmed)-1 {
		return NormalizeSpace(trimmed[:idx] + " " + phrase + "?")
	}
	// join a closing statement and the phrase into one clause
	trimmed = strings.TrimRight(trimmed, ".!… ")
	return NormalizeSpace(trimmed + ", " + phrase)
}

// EnsureQuestion strips trailing sentence punctuation and makes the text end
// with a question mark.
func EnsureQuestion(text string) string {
	text = strings.TrimRight(strings.TrimSpace(text), ".!…,;: ")
	if text == "" {
		return FallbackQuestion
	}
	if strings.HasSuffix(text, "?") {
		return text
	}
	return text + "?"
}

var objectiveInstructions = map[funnel.Objective]string{
	funnel.ObjectiveConnect:     "Keep the conversation personal and end with a light question about their day.",
	funnel.ObjectiveSellExtra:   "Tease one extra and ask if they want it now, without pressure.",
	funnel.ObjectiveSellPack:    "Describe the pack as a treat and ask if they want to unlock it.",
	funnel.ObjectiveSellMonthly: "Remind them what the monthly brings and ask if they want to stay close.",
	funnel.ObjectiveRecover:     "Say you missed them and ask what they have been up to.",
	funnel.ObjectiveRetain:      "Thank them warmly and ask what they would love to see next.",
	funnel.ObjectiveUpsell:      "Build on what they already enjoyed and ask if they want the next step up.",
}

// ObjectiveInstruction is the call-to-action guidance for an objective.
// Custom objectives get the CONNECT guidance.
func ObjectiveInstruction(obj funnel.Objective) string {
	if text, ok := objectiveInstructions[obj]; ok {
		return text
	}
	return objectiveInstructions[funnel.ObjectiveConnect]
}

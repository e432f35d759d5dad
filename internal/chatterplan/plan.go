package chatterplan

import (
	"strings"

	"github.com/wolfman30/creator-sales-engine/internal/funnel"
	"github.com/wolfman30/creator-sales-engine/internal/ladder"
)

// TurnMode is the creator-level strategy dial.
type TurnMode string

const (
	TurnBalanced TurnMode = "BALANCED"
	TurnHeatUp   TurnMode = "HEATUP"
	TurnPackPush TurnMode = "PACK_PUSH"
	TurnVIPCare  TurnMode = "VIP_CARE"
)

// ParseTurnMode coerces free text and falls back to BALANCED.
func ParseTurnMode(raw string) TurnMode {
	mode := TurnMode(strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToUpper(strings.TrimSpace(raw))))
	switch mode {
	case TurnHeatUp, TurnPackPush, TurnVIPCare:
		return mode
	case "HEAT_UP":
		return TurnHeatUp
	default:
		return TurnBalanced
	}
}

// Focus is what the next turns should concentrate on.
type Focus string

const (
	FocusWarmup      Focus = "warmup"
	FocusExtraLadder Focus = "extra_ladder"
	FocusPackOffer   Focus = "pack_offer"
	FocusVIPCare     Focus = "vip_care"
)

// Step refines a focus based on what happened in today's session.
type Step string

const (
	StepNone       Step = "none"
	StepFirstExtra Step = "first_extra"
	StepLadderRun  Step = "ladder_run"
	StepAfterPeak  Step = "after_peak"
)

// Usage tags which template pool the draft should come from.
type Usage string

const (
	UsageWarmup      Usage = "warmup"
	UsageExtraQuick  Usage = "extra_quick"
	UsageExtraLadder Usage = "extra_ladder"
	UsagePackOffer   Usage = "pack_offer"
	UsageRenewal     Usage = "renewal"
	UsageVIPCheckin  Usage = "vip_checkin"
)

// AllUsages lists every usage tag.
func AllUsages() []Usage {
	return []Usage{UsageWarmup, UsageExtraQuick, UsageExtraLadder, UsagePackOffer, UsageRenewal, UsageVIPCheckin}
}

// ParseUsage reports whether raw is a known usage tag.
func ParseUsage(raw string) (Usage, bool) {
	u := Usage(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllUsages() {
		if u == known {
			return u, true
		}
	}
	return "", false
}

// Options are the tunable thresholds of the plan. Zero fields take defaults.
type Options struct {
	RenewalWindowDays int         `json:"renewal_window_days"`
	PackPushMinSpend  float64     `json:"pack_push_min_spend"`
	PackPushMinTier   ladder.Tier `json:"pack_push_min_tier"`
	HighTier          ladder.Tier `json:"high_tier"`
	LateSessionExtras int         `json:"late_session_extras"`
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		RenewalWindowDays: 7,
		PackPushMinSpend:  50,
		PackPushMinTier:   ladder.T2,
		HighTier:          ladder.T3,
		LateSessionExtras: 3,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RenewalWindowDays <= 0 {
		o.RenewalWindowDays = d.RenewalWindowDays
	}
	if o.PackPushMinSpend <= 0 {
		o.PackPushMinSpend = d.PackPushMinSpend
	}
	if o.PackPushMinTier <= ladder.T0 || !o.PackPushMinTier.Valid() {
		o.PackPushMinTier = d.PackPushMinTier
	}
	if o.HighTier <= ladder.T0 || !o.HighTier.Valid() {
		o.HighTier = d.HighTier
	}
	if o.LateSessionExtras <= 0 {
		o.LateSessionExtras = d.LateSessionExtras
	}
	return o
}

// Input is everything the plan looks at for one fan.
type Input struct {
	Ladder        ladder.LadderStatus `json:"ladder"`
	Session       ladder.SessionToday `json:"session"`
	TurnMode      TurnMode            `json:"turn_mode"`
	Access        AccessSnapshot      `json:"access"`
	AccessState   AccessState         `json:"access_state"`
	LastGrantType GrantType           `json:"last_grant_type"`
	Options       Options             `json:"options"`
}

// Plan is the recommended next move for a fan.
type Plan struct {
	Focus      Focus            `json:"focus"`
	Step       Step             `json:"step"`
	Usage      Usage            `json:"suggested_usage"`
	Intensity  funnel.Intensity `json:"suggested_intensity"`
	Branch     string           `json:"branch"`
	GoalLabel  string           `json:"goal_label"`
	StepLabel  string           `json:"step_label"`
	FocusLabel string           `json:"focus_label"`
	Summary    string           `json:"summary"`
}

type outcome struct {
	focus     Focus
	goal      string
	usage     Usage // forced usage; empty derives it from focus and step
	stepless  bool
	intensity funnel.Intensity
}

type branch struct {
	name string
	when func(*Input) bool
	then func(*Input) outcome
}

// branches run top to bottom and the first whose predicate holds decides the
// focus. Special pack is checked before the monthly renewal window.
var branches = []branch{
	{
		name: "expired_with_history",
		when: func(in *Input) bool {
			return in.AccessState == AccessExpired && (in.Access.HasHistory || in.Ladder.HasHistory())
		},
		then: func(in *Input) outcome {
			goal := "Re-engage a past buyer"
			switch in.LastGrantType {
			case GrantMonthly:
				goal = "Win back an expired monthly subscriber"
			case GrantSpecialPack:
				goal = "Re-engage a past special-pack buyer"
			}
			return outcome{focus: FocusVIPCare, goal: goal, usage: UsageRenewal, stepless: true, intensity: funnel.IntensitySoft}
		},
	},
	{
		name: "active_special_pack",
		when: func(in *Input) bool { return in.Access.ActiveSpecialPack },
		then: func(in *Input) outcome {
			return outcome{focus: FocusVIPCare, goal: "Look after an active special-pack fan", intensity: funnel.IntensitySoft}
		},
	},
	{
		name: "renewal_window",
		when: func(in *Input) bool {
			return in.Access.ActiveMonthly && in.Access.MonthlyDaysLeft >= 0 &&
				in.Access.MonthlyDaysLeft <= in.Options.RenewalWindowDays
		},
		then: func(in *Input) outcome {
			return outcome{focus: FocusVIPCare, goal: "Secure the monthly renewal", usage: UsageRenewal, intensity: funnel.IntensitySoft}
		},
	},
	{
		name: "pack_push",
		when: func(in *Input) bool { return in.TurnMode == TurnPackPush },
		then: func(in *Input) outcome {
			if in.Ladder.TotalSpent >= in.Options.PackPushMinSpend || in.Ladder.TierAtLeast(in.Options.PackPushMinTier) {
				return outcome{focus: FocusPackOffer, goal: "Offer a special pack", intensity: funnel.IntensityMedium}
			}
			return outcome{focus: FocusExtraLadder, goal: "Move the fan up the extras ladder", intensity: funnel.IntensityMedium}
		},
	},
	{
		name: "vip_care_mode",
		when: func(in *Input) bool { return in.TurnMode == TurnVIPCare },
		then: func(in *Input) outcome {
			return outcome{focus: FocusVIPCare, goal: "Keep a paying fan close", intensity: funnel.IntensitySoft}
		},
	},
	{
		name: "heatup_unpaid",
		when: func(in *Input) bool { return in.TurnMode == TurnHeatUp && !in.Access.HasPaidAccess() },
		then: func(in *Input) outcome {
			return outcome{focus: FocusWarmup, goal: "Build rapport before selling", stepless: true, intensity: funnel.IntensitySoft}
		},
	},
	{
		name: "unpaid_default",
		when: func(in *Input) bool { return !in.Access.HasPaidAccess() },
		then: func(in *Input) outcome {
			return outcome{focus: FocusExtraLadder, goal: "Move the fan up the extras ladder", intensity: funnel.IntensityMedium}
		},
	},
	{
		name: "paying_default",
		when: func(in *Input) bool {
			return in.Access.ActiveMonthly || in.Ladder.TierAtLeast(in.Options.HighTier)
		},
		then: func(in *Input) outcome {
			return outcome{focus: FocusVIPCare, goal: "Keep a paying fan close", intensity: funnel.IntensitySoft}
		},
	},
	{
		name: "fallback",
		when: func(*Input) bool { return true },
		then: func(in *Input) outcome {
			return outcome{focus: FocusExtraLadder, goal: "Move the fan up the extras ladder", intensity: funnel.IntensityMedium}
		},
	},
}

// Build picks the focus, step and template usage for a fan.
func Build(in Input) Plan {
	in.Options = in.Options.withDefaults()
	if in.TurnMode == "" {
		in.TurnMode = TurnBalanced
	}
	if in.AccessState == "" {
		in.AccessState = AccessNone
	}

	var (
		name string
		out  outcome
	)
	for _, b := range branches {
		if b.when(&in) {
			name = b.name
			out = b.then(&in)
			break
		}
	}

	step := StepNone
	if !out.stepless {
		step = stepFor(in)
	}

	usage := out.usage
	if usage == "" {
		usage = usageFor(out.focus, step)
	}
	if usage == UsagePackOffer && in.Session.ExtrasBought >= in.Options.LateSessionExtras {
		usage = UsageExtraQuick
	}

	intensity := out.intensity
	if intensity == "" {
		intensity = funnel.IntensityMedium
	}
	if step == StepAfterPeak {
		intensity = funnel.IntensitySoft
	}

	plan := Plan{
		Focus:      out.focus,
		Step:       step,
		Usage:      usage,
		Intensity:  intensity,
		Branch:     name,
		GoalLabel:  out.goal,
		StepLabel:  stepLabel(step),
		FocusLabel: focusLabel(out.focus),
	}
	plan.Summary = plan.GoalLabel + " · " + plan.FocusLabel + " · " + plan.StepLabel
	return plan
}

func stepFor(in Input) Step {
	extras := in.Session.ExtrasBought
	switch {
	case extras <= 0:
		return StepFirstExtra
	case extras >= in.Options.LateSessionExtras:
		return StepAfterPeak
	case in.Ladder.TierAtLeast(in.Options.HighTier):
		return StepAfterPeak
	default:
		return StepLadderRun
	}
}

func usageFor(focus Focus, step Step) Usage {
	switch focus {
	case FocusWarmup:
		return UsageWarmup
	case FocusPackOffer:
		return UsagePackOffer
	case FocusVIPCare:
		return UsageVIPCheckin
	}
	switch step {
	case StepLadderRun:
		return UsageExtraLadder
	case StepAfterPeak:
		return UsageVIPCheckin
	default:
		return UsageExtraQuick
	}
}

func focusLabel(f Focus) string {
	switch f {
	case FocusWarmup:
		return "Warm-up"
	case FocusPackOffer:
		return "Pack offer"
	case FocusVIPCare:
		return "VIP care"
	default:
		return "Extra ladder"
	}
}

func stepLabel(s Step) string {
	switch s {
	case StepFirstExtra:
		return "First extra of the session"
	case StepLadderRun:
		return "Ladder run, next rung up"
	case StepAfterPeak:
		return "After the peak, ease off"
	default:
		return "No sales step, keep it flowing"
	}
}

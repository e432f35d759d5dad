package priority

import (
	"math"
	"sort"
	"time"

	"github.com/wolfman30/creator-sales-engine/internal/funnel"
)

// Flags are independent boolean segments of a fan.
type Flags struct {
	VIP     bool `json:"vip"`
	Expired bool `json:"expired"`
	AtRisk  bool `json:"at_risk"`
	IsNew   bool `json:"is_new"`
}

// Input is everything the scorer looks at for one fan. It is built fresh per request.
type Input struct {
	Now            time.Time        `json:"now"`
	LastIncomingAt *time.Time       `json:"last_incoming_at,omitempty"`
	LastOutgoingAt *time.Time       `json:"last_outgoing_at,omitempty"`
	Spent7d        float64          `json:"spent_7d"`
	Spent30d       float64          `json:"spent_30d"`
	Stage          funnel.Stage     `json:"stage"`
	Objective      funnel.Objective `json:"objective"`
	Intensity      funnel.Intensity `json:"intensity"`
	Flags          Flags            `json:"flags"`
}

// Factor is one additive contribution to a score.
type Factor struct {
	Name  string  `json:"name"`
	Delta float64 `json:"delta"`
}

// Result is a score with the factors that produced it, in evaluation order.
type Result struct {
	Score   int      `json:"score"`
	Factors []Factor `json:"factors"`
}

type factorFunc func(Input) (string, float64)

var factors = []factorFunc{
	stageFactor,
	objectiveFactor,
	intensityFactor,
	incomingRecencyFactor,
	repliedPenaltyFactor,
	spend7dFactor,
	spend30dFactor,
	vipFactor,
	expiredFactor,
	atRiskFactor,
	isNewFactor,
}

// Score ranks how urgently the creator should answer a fan. It is never negative.
func Score(in Input) int {
	return Breakdown(in).Score
}

// Breakdown scores in and reports every non-zero factor.
func Breakdown(in Input) Result {
	var total float64
	result := Result{Factors: []Factor{}}
	for _, f := range factors {
		name, delta := f(in)
		if delta == 0 || math.IsNaN(delta) {
			continue
		}
		total += delta
		result.Factors = append(result.Factors, Factor{Name: name, Delta: delta})
	}
	if total < 0 {
		total = 0
	}
	result.Score = int(math.Round(total))
	return result
}

func stageWeight(s funnel.Stage) float64 {
	switch s {
	case funnel.StageNew:
		return 10
	case funnel.StageWarmUp:
		return 15
	case funnel.StageHeat:
		return 25
	case funnel.StageOffer:
		return 30
	case funnel.StageClose:
		return 35
	case funnel.StageAftercare:
		return 12
	case funnel.StageRecovery:
		return 20
	case funnel.StageBoundary:
		return 5
	default:
		return 0
	}
}

func objectiveWeight(o funnel.Objective) float64 {
	switch o {
	case funnel.ObjectiveConnect:
		return 8
	case funnel.ObjectiveSellExtra:
		return 15
	case funnel.ObjectiveSellPack:
		return 18
	case funnel.ObjectiveSellMonthly:
		return 16
	case funnel.ObjectiveRecover:
		return 14
	case funnel.ObjectiveRetain:
		return 10
	case funnel.ObjectiveUpsell:
		return 12
	default:
		// custom codes keep their label elsewhere but score like CONNECT
		return objectiveWeight(funnel.ObjectiveConnect)
	}
}

func intensityWeight(i funnel.Intensity) float64 {
	switch i {
	case funnel.IntensitySoft:
		return 2
	case funnel.IntensityMedium:
		return 5
	case funnel.IntensityIntense:
		return 8
	default:
		return 0
	}
}

func stageFactor(in Input) (string, float64) {
	return "stage", stageWeight(in.Stage)
}

func objectiveFactor(in Input) (string, float64) {
	return "objective", objectiveWeight(in.Objective)
}

func intensityFactor(in Input) (string, float64) {
	return "intensity", intensityWeight(in.Intensity)
}

func incomingRecencyFactor(in Input) (string, float64) {
	hours, ok := hoursSince(in.Now, in.LastIncomingAt)
	if !ok {
		return "incoming_recency", 0
	}
	switch {
	case hours <= 2:
		return "incoming_recency", 25
	case hours <= 12:
		return "incoming_recency", 15
	case hours <= 48:
		return "incoming_recency", 8
	case hours <= 168:
		return "incoming_recency", 3
	default:
		return "incoming_recency", 0
	}
}

// repliedPenaltyFactor lowers urgency when the creator already answered the
// latest incoming message.
func repliedPenaltyFactor(in Input) (string, float64) {
	if in.LastOutgoingAt == nil || in.LastIncomingAt == nil {
		return "already_replied", 0
	}
	if in.LastIncomingAt.IsZero() || !in.LastOutgoingAt.After(*in.LastIncomingAt) {
		return "already_replied", 0
	}
	hours, ok := hoursSince(in.Now, in.LastOutgoingAt)
	if !ok {
		return "already_replied", 0
	}
	switch {
	case hours <= 1:
		return "already_replied", -20
	case hours <= 6:
		return "already_replied", -12
	case hours <= 24:
		return "already_replied", -6
	default:
		return "already_replied", 0
	}
}

type spendBand struct {
	min   float64
	bonus float64
}

// Bands are checked from the top; the first one met wins.
var spend7dBands = []spendBand{
	{200, 20},
	{100, 14},
	{50, 9},
	{20, 5},
	{0.01, 2},
}

var spend30dBands = []spendBand{
	{500, 15},
	{250, 10},
	{100, 6},
	{30, 3},
}

func bandBonus(bands []spendBand, spent float64) float64 {
	if math.IsNaN(spent) {
		return 0
	}
	for _, b := range bands {
		if spent >= b.min {
			return b.bonus
		}
	}
	return 0
}

func spend7dFactor(in Input) (string, float64) {
	return "spend_7d", bandBonus(spend7dBands, in.Spent7d)
}

func spend30dFactor(in Input) (string, float64) {
	return "spend_30d", bandBonus(spend30dBands, in.Spent30d)
}

func flagBonus(set bool, bonus float64) float64 {
	if set {
		return bonus
	}
	return 0
}

func vipFactor(in Input) (string, float64)     { return "vip", flagBonus(in.Flags.VIP, 15) }
func expiredFactor(in Input) (string, float64) { return "expired", flagBonus(in.Flags.Expired, 10) }
func atRiskFactor(in Input) (string, float64)  { return "at_risk", flagBonus(in.Flags.AtRisk, 12) }
func isNewFactor(in Input) (string, float64)   { return "is_new", flagBonus(in.Flags.IsNew, 6) }

// hoursSince is false for missing, zero, or future timestamps.
func hoursSince(now time.Time, at *time.Time) (float64, bool) {
	if at == nil || at.IsZero() || now.IsZero() {
		return 0, false
	}
	d := now.Sub(*at)
	if d < 0 {
		return 0, false
	}
	return d.Hours(), true
}

// Ranked is one scored entry in an inbox.
type Ranked struct {
	FanID  string `json:"fan_id"`
	Result Result `json:"priority"`
	Input  Input  `json:"-"`
}

// Rank scores every input and orders them for an inbox: highest score first,
// then most recent incoming message, then fan ID.
func Rank(inputs map[string]Input) []Ranked {
	out := make([]Ranked, 0, len(inputs))
	for fanID, in := range inputs {
		out = append(out, Ranked{FanID: fanID, Result: Breakdown(in), Input: in})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Result.Score != b.Result.Score {
			return a.Result.Score > b.Result.Score
		}
		ai, bi := incomingOrZero(a.Input), incomingOrZero(b.Input)
		if !ai.Equal(bi) {
			return ai.After(bi)
		}
		return a.FanID < b.FanID
	})
	return out
}

func incomingOrZero(in Input) time.Time {
	if in.LastIncomingAt == nil {
		return time.Time{}
	}
	return *in.LastIncomingAt
}

package funnel

import (
	"regexp"
	"strings"
)

// Stage is the lifecycle position of a fan conversation.
type Stage string

const (
	StageNew       Stage = "NEW"
	StageWarmUp    Stage = "WARM_UP"
	StageHeat      Stage = "HEAT"
	StageOffer     Stage = "OFFER"
	StageClose     Stage = "CLOSE"
	StageAftercare Stage = "AFTERCARE"
	StageRecovery  Stage = "RECOVERY"
	StageBoundary  Stage = "BOUNDARY"
)

// AllStages lists every stage in lifecycle order.
func AllStages() []Stage {
	return []Stage{
		StageNew,
		StageWarmUp,
		StageHeat,
		StageOffer,
		StageClose,
		StageAftercare,
		StageRecovery,
		StageBoundary,
	}
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageNew, StageWarmUp, StageHeat, StageOffer, StageClose, StageAftercare, StageRecovery, StageBoundary:
		return true
	}
	return false
}

// Objective is the goal currently pursued with a fan. Creators may define their
// own codes; only the built-ins carry scoring weights.
type Objective string

const (
	ObjectiveConnect     Objective = "CONNECT"
	ObjectiveSellExtra   Objective = "SELL_EXTRA"
	ObjectiveSellPack    Objective = "SELL_PACK"
	ObjectiveSellMonthly Objective = "SELL_MONTHLY"
	ObjectiveRecover     Objective = "RECOVER"
	ObjectiveRetain      Objective = "RETAIN"
	ObjectiveUpsell      Objective = "UPSELL"
)

// BuiltinObjectives lists the objectives the engine knows about.
func BuiltinObjectives() []Objective {
	return []Objective{
		ObjectiveConnect,
		ObjectiveSellExtra,
		ObjectiveSellPack,
		ObjectiveSellMonthly,
		ObjectiveRecover,
		ObjectiveRetain,
		ObjectiveUpsell,
	}
}

// IsBuiltin reports whether o is one of the built-in objectives.
func (o Objective) IsBuiltin() bool {
	switch o {
	case ObjectiveConnect, ObjectiveSellExtra, ObjectiveSellPack, ObjectiveSellMonthly,
		ObjectiveRecover, ObjectiveRetain, ObjectiveUpsell:
		return true
	}
	return false
}

// Intensity is the desired tone of the conversation.
type Intensity string

const (
	IntensitySoft    Intensity = "SOFT"
	IntensityMedium  Intensity = "MEDIUM"
	IntensityIntense Intensity = "INTENSE"
)

// AllIntensities lists every intensity from softest to strongest.
func AllIntensities() []Intensity {
	return []Intensity{IntensitySoft, IntensityMedium, IntensityIntense}
}

// Valid reports whether i is a known intensity.
func (i Intensity) Valid() bool {
	switch i {
	case IntensitySoft, IntensityMedium, IntensityIntense:
		return true
	}
	return false
}

var customObjectivePattern = regexp.MustCompile(`^[A-Z0-9_]{2,40}$`)

// normalizeCode upper-cases a vocabulary code and folds separators to "_".
func normalizeCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	code = strings.NewReplacer("-", "_", " ", "_").Replace(code)
	return code
}

// ParseStage coerces free text into a Stage.
func ParseStage(raw string) (Stage, bool) {
	s := Stage(normalizeCode(raw))
	if !s.Valid() {
		return "", false
	}
	return s, true
}

// NormalizeObjective coerces free text into an Objective. Unknown but well-formed
// codes are accepted as creator-defined objectives.
func NormalizeObjective(raw string) (Objective, bool) {
	code := normalizeCode(raw)
	if !customObjectivePattern.MatchString(code) {
		return "", false
	}
	return Objective(code), true
}

// ParseIntensity coerces free text into an Intensity.
func ParseIntensity(raw string) (Intensity, bool) {
	i := Intensity(normalizeCode(raw))
	if !i.Valid() {
		return "", false
	}
	return i, true
}

// IntensityOrDefault parses raw and falls back to MEDIUM.
func IntensityOrDefault(raw string) Intensity {
	if i, ok := ParseIntensity(raw); ok {
		return i
	}
	return IntensityMedium
}

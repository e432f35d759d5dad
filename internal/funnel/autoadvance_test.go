package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStage(t *testing.T) {
	tests := []struct {
		name      string
		current   Stage
		actionKey string
		want      Stage
		wantOK    bool
	}{
		{name: "welcome intent warms up a new fan", current: StageNew, actionKey: "intent:bienvenida", want: StageWarmUp, wantOK: true},
		{name: "ppv send closes an offer", current: StageOffer, actionKey: "ppv:voice_note_1", want: StageClose, wantOK: true},
		{name: "unrelated key is a no-op", current: StageHeat, actionKey: "unrelated_text", wantOK: false},
		{name: "key is trimmed and lower-cased", current: StageNew, actionKey: "  Intent:Bienvenida  ", want: StageWarmUp, wantOK: true},
		{name: "empty key", current: StageNew, actionKey: "", wantOK: false},
		{name: "whitespace key", current: StageOffer, actionKey: "   ", wantOK: false},
		{name: "autopilot prefix", current: StageWarmUp, actionKey: "autopilot:flirt_opener", want: StageHeat, wantOK: true},
		{name: "literal without prefix", current: StageClose, actionKey: "gracias", want: StageAftercare, wantOK: true},
		{name: "offer from heat", current: StageHeat, actionKey: "intent:ofrecer_extra", want: StageOffer, wantOK: true},
		{name: "offer key ignored once already offering", current: StageOffer, actionKey: "intent:ofrecer_extra", wantOK: false},
		{name: "renewal from aftercare", current: StageAftercare, actionKey: "intent:renovar", want: StageOffer, wantOK: true},
		{name: "recovery from close", current: StageClose, actionKey: "autopilot:reengage", want: StageRecovery, wantOK: true},
		{name: "boundary from heat", current: StageHeat, actionKey: "intent:limite", want: StageBoundary, wantOK: true},
		{name: "heat key does not skip warm-up", current: StageNew, actionKey: "intent:calentar", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextStage(tt.current, tt.actionKey)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextStage_RecoveryBeatsOffer(t *testing.T) {
	// "reactivar_pack" looks like both a win-back and an offer from AFTERCARE.
	got, ok := NextStage(StageAftercare, "intent:reactivar_pack")
	assert.True(t, ok)
	assert.Equal(t, StageRecovery, got)
	assert.Equal(t, "recovery", MatchingRule(StageAftercare, "intent:reactivar_pack"))
}

func TestNextStage_RenewalBeatsOffer(t *testing.T) {
	got, ok := NextStage(StageRecovery, "renewal_pack")
	assert.True(t, ok)
	assert.Equal(t, StageOffer, got)
	assert.Equal(t, "renewal", MatchingRule(StageRecovery, "renewal_pack"))
}

func TestNextStage_OfferBeatsClose(t *testing.T) {
	assert.Equal(t, "offer", MatchingRule(StageHeat, "ppv:offer_bundle"))
	assert.Equal(t, "close", MatchingRule(StageOffer, "ppv:offer_bundle"))
}

func TestNextStage_OnlyReturnsReachableTargets(t *testing.T) {
	keys := []string{
		"intent:bienvenida", "ppv:voice_note_1", "intent:reactivar", "intent:renovar",
		"intent:ofrecer_pack", "intent:cerrar", "intent:gracias", "intent:calentar",
		"intent:limite", "autopilot:winback", "offer", "compra", "unlock_photo",
	}
	for _, current := range AllStages() {
		for _, key := range keys {
			got, ok := NextStage(current, key)
			if !ok {
				continue
			}
			assert.NotEqual(t, current, got, "%s + %q must not be reported as a transition", current, key)

			reachable := false
			for _, rule := range Rules() {
				if rule.To == got && rule.appliesTo(current) {
					reachable = true
				}
			}
			assert.True(t, reachable, "%s + %q returned unreachable %s", current, key, got)
		}
	}
}

func TestRules_NoSelfLoops(t *testing.T) {
	for _, rule := range Rules() {
		for _, from := range rule.From {
			assert.NotEqual(t, rule.To, from, "rule %s lists its own target in From", rule.Name)
		}
		assert.NotEmpty(t, rule.Match, "rule %s has no matchers", rule.Name)
	}
}

func TestRules_OrderIsStable(t *testing.T) {
	var names []string
	for _, rule := range Rules() {
		names = append(names, rule.Name)
	}
	assert.Equal(t, []string{"boundary", "recovery", "renewal", "offer", "close", "aftercare", "warm_up", "heat"}, names)
}

func TestMatchers(t *testing.T) {
	assert.True(t, Literal("intent:bienvenida").Matches("intent:bienvenida"))
	assert.True(t, Literal("gracias").Matches("autopilot:gracias"))
	assert.False(t, Literal("gracias").Matches("gracias_mil"))
	assert.True(t, NewPattern(`^ppv:`).Matches("ppv:photo"))
	assert.False(t, Pattern{}.Matches("anything"))
}

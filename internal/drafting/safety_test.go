package drafting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSafety(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want SafetyGate
	}{
		// Underage signals
		{"spanish age", "tengo 15 años", GateUnderage},
		{"spanish age shouting", "Tengo 16 AÑOS jaja", GateUnderage},
		{"minor", "soy menor de edad pero...", GateUnderage},
		{"soy with age", "soy 16.", GateUnderage},
		{"english age", "I'm 16", GateUnderage},
		{"english years old", "she is 14 years old", GateUnderage},
		{"school", "acabo de salir de la secundaria", GateUnderage},

		// Non-consent signals
		{"no consent es", "hazlo sin su consentimiento", GateNonConsent},
		{"asleep", "mientras está dormida", GateNonConsent},
		{"drugged es", "quiero verla drogada", GateNonConsent},
		{"no consent en", "do it without her consent", GateNonConsent},
		{"forcing", "I like forcing her", GateNonConsent},
		{"ignoring refusal", "aunque diga que no", GateNonConsent},

		// Must not trigger
		{"adult age", "tengo 25 años", GateNone},
		{"minutes es", "tengo 15 minutos libres", GateNone},
		{"minutes en", "I'm 5 minutes away", GateNone},
		{"adult en", "I'm 18", GateNone},
		{"fell asleep", "me quedé dormida viendo tu vídeo", GateNone},
		{"forced to wait", "I'm forced to wait all day", GateNone},
		{"empty", "   ", GateNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckSafety(tt.msg)
			assert.Equal(t, tt.want, got.Gate, tt.msg)
			assert.Equal(t, tt.want != GateNone, got.Blocked())
			if got.Blocked() {
				assert.NotEmpty(t, got.Reasons)
			}
		})
	}
}

func TestCheckSafety_UnderageWinsOverNonConsent(t *testing.T) {
	got := CheckSafety("tengo 15 años y lo quiero sin consentimiento")
	assert.Equal(t, GateUnderage, got.Gate)
	assert.Equal(t, UnderageReply, got.Reply())
}

func TestSafeRepliesEndWithQuestion(t *testing.T) {
	for _, reply := range []string{UnderageReply, NonConsentReply} {
		assert.True(t, strings.HasSuffix(reply, "?"), reply)
		assert.LessOrEqual(t, runeLen(reply), MaxDraftRunes)
		assert.Empty(t, BannedTerms(reply))
	}
	assert.Equal(t, "", SafetyResult{}.Reply())
}

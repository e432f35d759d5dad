package drafting

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/creator-sales-engine/internal/funnel"
)

var endsWithQuestion = regexp.MustCompile(`\?$`)

func testPools() Pools {
	return Pools{
		Openers: []string{
			"Hola {fanName}, me quedé con lo de {context}.",
			"Hey {fanName}, qué bien leerte.",
			"Cariño, pensaba en ti.",
			"{fanName}, justo me acabo de duchar.",
		},
		Bridges: []string{
			"Hoy tengo la piel suave y ganas de jugar.",
			"La luz de la tarde me pone tierna.",
			"Estoy en la cama con las sábanas calentitas.",
			"Me he puesto el encaje que te gustaba.",
		},
		Teases: []string{
			"Te preparé algo de {offerTier} que no has visto.",
			"Tengo algo nuevo solo para ti.",
			"Grabé algo pensando en ti.",
			"Hay algo que quiero enseñarte.",
		},
		CTAs: []string{
			"¿Te lo enseño?",
			"¿Quieres verlo ahora?",
			"¿Te apetece?",
			"¿Lo quieres ya?",
		},
	}
}

func baseOptions() Options {
	return Options{
		FanName:   "Ana",
		Stage:     funnel.StageHeat,
		Objective: funnel.ObjectiveSellExtra,
		Intensity: funnel.IntensityMedium,
		Mode:      ModeFull,
		Pools:     testPools(),
	}
}

func TestBuild_SafetyGateOverridesEverything(t *testing.T) {
	stages := []funnel.Stage{funnel.StageNew, funnel.StageOffer, funnel.StageClose}
	for _, stage := range stages {
		for _, offer := range []string{"", "vídeo en la ducha"} {
			opts := baseOptions()
			opts.Stage = stage
			opts.OfferTitle = offer
			opts.LastFanMessage = "tengo 15 años"

			result := Build(opts)
			assert.Equal(t, UnderageReply, result.Text)
			assert.Equal(t, GateUnderage, result.SafetyGate)
			assert.Empty(t, result.Used)
			assert.Nil(t, result.Context)
			assert.False(t, result.OfferInjected)
		}
	}

	opts := baseOptions()
	opts.LastFanMessage = "quiero hacerlo sin su consentimiento"
	result := Build(opts)
	assert.Equal(t, NonConsentReply, result.Text)
	assert.Equal(t, GateNonConsent, result.SafetyGate)
}

func TestBuild_IsDeterministic(t *testing.T) {
	opts := baseOptions()
	opts.LastFanMessage = "qué día más largo en el trabajo"
	opts.OfferTitle = "vídeo en la ducha"
	opts.Variant = 3

	first := Build(opts)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Build(opts))
	}
}

func TestBuild_VariantsCycle(t *testing.T) {
	seen := map[string]bool{}
	for v := 0; v < 12; v++ {
		opts := baseOptions()
		opts.Variant = v
		seen[Build(opts).Text] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestBuild_AlwaysEndsWithQuestion(t *testing.T) {
	messages := []string{"", "hola", "me encanta tu foto de ayer", "mira www.example.com"}
	for _, mode := range []Mode{ModeFull, ModeShort} {
		for _, msg := range messages {
			for v := 0; v < 8; v++ {
				opts := baseOptions()
				opts.Mode = mode
				opts.LastFanMessage = msg
				opts.Variant = v
				opts.Pools.CTAs = []string{"Dime algo.", "Cuéntame!", "¿Vienes?"}
				text := Build(opts).Text
				assert.Regexp(t, endsWithQuestion, text)
			}
		}
	}
}

func TestBuild_DropsContextBlocksWithoutSnippet(t *testing.T) {
	opts := baseOptions()
	opts.Pools.Openers = []string{"Me quedé con lo de {context}.", "Hola {fanName}."}
	for v := 0; v < 6; v++ {
		opts.Variant = v
		result := Build(opts)
		assert.Nil(t, result.Context)
		assert.Equal(t, "Hola {fanName}.", result.Used[SlotOpener])
		assert.NotContains(t, result.Text, "{")
	}
}

func TestBuild_UsesContextSnippet(t *testing.T) {
	opts := baseOptions()
	opts.LastFanMessage = "me encanta tu foto de ayer en la playa!!"
	opts.Pools.Openers = []string{"Oye {fanName}, {context}."}

	result := Build(opts)
	require.NotNil(t, result.Context)
	assert.Equal(t, "me encanta tu foto de ayer en la playa", *result.Context)
	assert.True(t, strings.HasPrefix(result.Text, "Oye Ana, me encanta tu foto de ayer en la playa."))
}

func TestBuild_ShortModeSkipsBridge(t *testing.T) {
	opts := baseOptions()
	opts.Mode = ModeShort
	result := Build(opts)

	_, hasBridge := result.Used[SlotBridge]
	assert.False(t, hasBridge)
	assert.Contains(t, result.Used, SlotOpener)
	assert.Contains(t, result.Used, SlotTease)
	assert.Contains(t, result.Used, SlotCTA)

	opts.Mode = ""
	assert.Contains(t, Build(opts).Used, SlotBridge)
}

func TestBuild_RewritesBannedWords(t *testing.T) {
	opts := baseOptions()
	opts.Pools = Pools{
		Openers: []string{"Tengo una oferta para ti."},
		CTAs:    []string{"¿Quieres el descuento?"},
	}
	result := Build(opts)
	assert.Equal(t, "Tengo una idea para ti. ¿Quieres el detalle?", result.Text)
	assert.Empty(t, BannedTerms(result.Text))
	assert.Equal(t, "Tengo una oferta para ti.", result.Used[SlotOpener])
}

func TestBuild_UnresolvedPlaceholdersCollapse(t *testing.T) {
	opts := Options{Pools: Pools{Openers: []string{"Hola {fanName}, {mood} guapa"}}}
	result := Build(opts)
	assert.Equal(t, "Hola, guapa?", result.Text)
}

func TestBuild_EmptyPoolsFallBack(t *testing.T) {
	result := Build(Options{FanName: "Ana"})
	assert.Equal(t, FallbackQuestion, result.Text)
	assert.Empty(t, result.Used)
}

func TestBuild_InjectsOffer(t *testing.T) {
	opts := baseOptions()
	opts.OfferTitle = "vídeo en la ducha"
	for v := 0; v < 8; v++ {
		opts.Variant = v
		result := Build(opts)
		if !strings.Contains(result.Used[SlotTease], "{offerTitle}") {
			assert.True(t, result.OfferInjected)
		}
		assert.Contains(t, result.Text, "vídeo en la ducha")
		assert.LessOrEqual(t, runeLen(result.Text), MaxDraftRunes)
		assert.Regexp(t, endsWithQuestion, result.Text)
	}
}

func TestBuild_DoesNotRepeatMentionedOffer(t *testing.T) {
	opts := baseOptions()
	opts.OfferTitle = "vídeo en la ducha"
	opts.Pools.CTAs = []string{"¿Quieres mi {offerTitle}?"}

	result := Build(opts)
	assert.False(t, result.OfferInjected)
	assert.Equal(t, 1, strings.Count(result.Text, "vídeo en la ducha"))
}

func TestBuild_SkipsOfferThatDoesNotFit(t *testing.T) {
	long := strings.Repeat("muy ", 50) + "bien"
	opts := Options{
		OfferTitle: "vídeo en la ducha",
		Pools:      Pools{Openers: []string{long}, CTAs: []string{"¿Sí?"}},
	}

	result := Build(opts)
	assert.False(t, result.OfferInjected)
	assert.NotContains(t, result.Text, "vídeo en la ducha")
	assert.Equal(t, long+" ¿Sí?", result.Text)
}

func TestBuild_EmptyFanNameLeavesNoStraySeparator(t *testing.T) {
	opts := Options{
		Pools: Pools{
			Openers: []string{"{fanName}, justo estaba pensando en ti."},
			CTAs:    []string{"¿Me cuentas algo tuyo?"},
		},
	}

	result := Build(opts)
	assert.Equal(t, "Justo estaba pensando en ti. ¿Me cuentas algo tuyo?", result.Text)

	opts.FanName = "Leo"
	assert.Equal(t, "Leo, justo estaba pensando en ti. ¿Me cuentas algo tuyo?", Build(opts).Text)
}

func TestBuild_OfferJoinsClosingStatement(t *testing.T) {
	opts := Options{
		OfferTitle: "Audio",
		Pools:      Pools{Openers: []string{"Te va a gustar."}},
	}

	result := Build(opts)
	require.True(t, result.OfferInjected)
	assert.True(t, strings.HasPrefix(result.Text, "Te va a gustar, "), result.Text)
	assert.NotContains(t, result.Text, ". ")
	assert.Contains(t, result.Text, "Audio")
	assert.Regexp(t, endsWithQuestion, result.Text)
}

func TestInsertBeforeQuestion(t *testing.T) {
	assert.Equal(t, "¿Lo quieres pensando en Audio?", insertBeforeQuestion("¿Lo quieres?", "pensando en Audio"))
	assert.Equal(t, "Te va a gustar, pensando en Audio", insertBeforeQuestion("Te va a gustar.", "pensando en Audio"))
	assert.Equal(t, "Mira esto, pensando en Audio", insertBeforeQuestion("Mira esto!", "pensando en Audio"))
}

func TestEnsureQuestion(t *testing.T) {
	assert.Equal(t, "¿Vienes?", EnsureQuestion("¿Vienes?"))
	assert.Equal(t, "Te espero?", EnsureQuestion("Te espero..."))
	assert.Equal(t, "Dime?", EnsureQuestion("Dime!  "))
	assert.Equal(t, FallbackQuestion, EnsureQuestion(" ... "))
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeShort, ParseMode(" SHORT "))
	assert.Equal(t, ModeFull, ParseMode("full"))
	assert.Equal(t, ModeFull, ParseMode("weird"))
}

func TestObjectiveInstruction(t *testing.T) {
	for _, obj := range funnel.BuiltinObjectives() {
		assert.NotEmpty(t, ObjectiveInstruction(obj), string(obj))
	}
	assert.Equal(t, ObjectiveInstruction(funnel.ObjectiveConnect), ObjectiveInstruction("BIRTHDAY_PUSH"))
}

package templates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/drafting"
	"github.com/wolfman30/creator-sales-engine/pkg/logging"
)

func TestDefaults_CoverEveryUsage(t *testing.T) {
	catalog, err := Defaults()
	require.NoError(t, err)

	for _, usage := range chatterplan.AllUsages() {
		pools, ok := catalog.Pools(usage)
		require.True(t, ok, usage)
		assert.NotEmpty(t, pools.Openers, usage)
		assert.NotEmpty(t, pools.CTAs, usage)
		for _, cta := range pools.CTAs {
			assert.True(t, strings.HasSuffix(cta, "?"), cta)
		}
		for _, block := range append(append(append(pools.Openers, pools.Bridges...), pools.Teases...), pools.CTAs...) {
			assert.Empty(t, drafting.BannedTerms(block), block)
		}
	}
	assert.Len(t, catalog.Usages(), len(chatterplan.AllUsages()))
}

func TestDefaults_ReturnsCopy(t *testing.T) {
	first, err := Defaults()
	require.NoError(t, err)
	first[chatterplan.UsageWarmup] = drafting.Pools{}

	second, err := Defaults()
	require.NoError(t, err)
	_, ok := second.Pools(chatterplan.UsageWarmup)
	assert.True(t, ok)
}

func TestDefaults_DraftsStayWithinLimits(t *testing.T) {
	catalog, err := Defaults()
	require.NoError(t, err)

	for _, usage := range catalog.Usages() {
		pools, _ := catalog.Pools(usage)
		for v := 0; v < 10; v++ {
			result := drafting.Build(drafting.Options{
				FanName:        "Alejandro",
				LastFanMessage: "hoy salí tarde del trabajo y estoy reventado",
				OfferTitle:     "vídeo en la ducha",
				Variant:        v,
				Pools:          pools,
			})
			assert.LessOrEqual(t, len([]rune(result.Text)), drafting.MaxDraftRunes, result.Text)
			assert.True(t, strings.HasSuffix(result.Text, "?"))
		}
	}
}

func TestParse_RejectsUnknownUsage(t *testing.T) {
	_, err := Parse([]byte("usages:\n  flash_sale:\n    openers: [\"hola\"]\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownUsage))

	_, err = Parse([]byte("usages: [oops"))
	assert.Error(t, err)
}

func TestLoad_LayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
usages:
  warmup:
    openers: ["Buenas, {fanName}."]
    ctas: ["¿Qué tal la semana?"]
`), 0o600))

	catalog, err := Load(path)
	require.NoError(t, err)

	warmup, ok := catalog.Pools(chatterplan.UsageWarmup)
	require.True(t, ok)
	assert.Equal(t, []string{"Buenas, {fanName}."}, warmup.Openers)
	assert.Empty(t, warmup.Bridges)

	_, ok = catalog.Pools(chatterplan.UsageRenewal)
	assert.True(t, ok, "usages missing from the file keep their defaults")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRedisStore(client)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	mr, store := newRedis(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "cr_1", chatterplan.UsagePackOffer)
	require.NoError(t, err)
	assert.False(t, ok)

	pools := drafting.Pools{Openers: []string{"Hola {fanName}."}, CTAs: []string{"¿Lo quieres?"}}
	require.NoError(t, store.Set(ctx, "cr_1", chatterplan.UsagePackOffer, pools))
	assert.True(t, mr.Exists("templates:creator:cr_1:pack_offer"))

	got, ok, err := store.Get(ctx, "cr_1", chatterplan.UsagePackOffer)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, pools, got)

	require.NoError(t, store.Delete(ctx, "cr_1", chatterplan.UsagePackOffer))
	_, ok, err = store.Get(ctx, "cr_1", chatterplan.UsagePackOffer)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Validation(t *testing.T) {
	_, store := newRedis(t)
	ctx := context.Background()

	err := store.Set(ctx, "cr_1", chatterplan.Usage("flash_sale"), drafting.Pools{CTAs: []string{"¿Sí?"}})
	assert.ErrorIs(t, err, ErrUnknownUsage)
	assert.ErrorIs(t, store.Set(ctx, "cr_1", chatterplan.UsageWarmup, drafting.Pools{}), ErrEmptyPools)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, store := newRedis(t)
	require.NoError(t, mr.Set("templates:creator:cr_1:warmup", "{not json"))

	_, _, err := store.Get(context.Background(), "cr_1", chatterplan.UsageWarmup)
	assert.Error(t, err)
}

func TestSource_PrefersOverride(t *testing.T) {
	_, store := newRedis(t)
	ctx := context.Background()
	catalog, err := Defaults()
	require.NoError(t, err)

	override := drafting.Pools{Openers: []string{"Solo para ti."}, CTAs: []string{"¿Vienes?"}}
	require.NoError(t, store.Set(ctx, "cr_1", chatterplan.UsageWarmup, override))

	source := NewSource(catalog, store, logging.Discard())
	assert.Equal(t, override, source.Pools(ctx, "cr_1", chatterplan.UsageWarmup))

	defaults, _ := catalog.Pools(chatterplan.UsageWarmup)
	assert.Equal(t, defaults, source.Pools(ctx, "cr_2", chatterplan.UsageWarmup))
}

func TestSource_FallsBackWhenRedisIsDown(t *testing.T) {
	mr, store := newRedis(t)
	catalog, err := Defaults()
	require.NoError(t, err)
	mr.Close()

	rec := &fallbackRecorder{}
	source := NewSource(catalog, store, logging.Discard()).WithMetrics(rec)
	defaults, _ := catalog.Pools(chatterplan.UsageRenewal)
	assert.Equal(t, defaults, source.Pools(context.Background(), "cr_1", chatterplan.UsageRenewal))
	assert.Equal(t, []string{"override_error"}, rec.reasons)
}

type fallbackRecorder struct{ reasons []string }

func (r *fallbackRecorder) ObserveTemplateFallback(reason string) {
	r.reasons = append(r.reasons, reason)
}

func TestSource_MissingUsageUsesExtraQuick(t *testing.T) {
	catalog := Catalog{chatterplan.UsageExtraQuick: {CTAs: []string{"¿Te lo enseño?"}}}
	rec := &fallbackRecorder{}
	source := NewSource(catalog, nil, nil).WithMetrics(rec)

	assert.Equal(t, []string{"¿Te lo enseño?"}, source.Pools(context.Background(), "", chatterplan.UsageRenewal).CTAs)
	assert.Equal(t, []string{"missing_usage"}, rec.reasons)
}

func TestSource_OverrideLifecycle(t *testing.T) {
	_, store := newRedis(t)
	ctx := context.Background()
	catalog, err := Defaults()
	require.NoError(t, err)
	source := NewSource(catalog, store, logging.Discard())

	got, err := source.Resolve(ctx, "cr_1", chatterplan.UsageVIPCheckin)
	require.NoError(t, err)
	assert.False(t, got.Override)
	defaults, _ := catalog.Pools(chatterplan.UsageVIPCheckin)
	assert.Equal(t, defaults, got.Pools)

	override := drafting.Pools{Openers: []string{"Te extrañé, {fanName}."}, CTAs: []string{"¿Me cuentas tu día?"}}
	require.NoError(t, source.SaveOverride(ctx, "cr_1", chatterplan.UsageVIPCheckin, override))

	got, err = source.Resolve(ctx, "cr_1", chatterplan.UsageVIPCheckin)
	require.NoError(t, err)
	assert.True(t, got.Override)
	assert.Equal(t, override, got.Pools)

	require.NoError(t, source.ClearOverride(ctx, "cr_1", chatterplan.UsageVIPCheckin))
	got, err = source.Resolve(ctx, "cr_1", chatterplan.UsageVIPCheckin)
	require.NoError(t, err)
	assert.False(t, got.Override)
}

func TestSource_OverrideErrors(t *testing.T) {
	catalog, err := Defaults()
	require.NoError(t, err)
	ctx := context.Background()

	readOnly := NewSource(catalog, nil, logging.Discard())
	assert.ErrorIs(t, readOnly.SaveOverride(ctx, "cr_1", chatterplan.UsageWarmup, drafting.Pools{CTAs: []string{"¿Sí?"}}), ErrOverridesUnavailable)
	assert.ErrorIs(t, readOnly.ClearOverride(ctx, "cr_1", chatterplan.UsageWarmup), ErrOverridesUnavailable)

	_, err = readOnly.Resolve(ctx, "cr_1", chatterplan.Usage("flash_sale"))
	assert.ErrorIs(t, err, ErrUnknownUsage)

	_, store := newRedis(t)
	source := NewSource(catalog, store, logging.Discard())
	assert.ErrorIs(t, source.ClearOverride(ctx, "cr_1", chatterplan.Usage("flash_sale")), ErrUnknownUsage)
	assert.ErrorIs(t, source.SaveOverride(ctx, "cr_1", chatterplan.UsageWarmup, drafting.Pools{}), ErrEmptyPools)
}

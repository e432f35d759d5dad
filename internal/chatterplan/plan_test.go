package chatterplan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/creator-sales-engine/internal/funnel"
	"github.com/wolfman30/creator-sales-engine/internal/ladder"
)

func tierPtr(t ladder.Tier) *ladder.Tier { return &t }

func ladderAt(max ladder.Tier, spent float64) ladder.LadderStatus {
	return ladder.LadderStatus{TotalSpent: spent, PurchaseCount: 1, MaxTierBought: tierPtr(max)}
}

func TestBuild_BranchOrder(t *testing.T) {
	monthly := AccessSnapshot{ActiveMonthly: true, MonthlyDaysLeft: 20, HasHistory: true}

	tests := []struct {
		name       string
		in         Input
		wantBranch string
		wantFocus  Focus
		wantUsage  Usage
		wantStep   Step
	}{
		{
			name: "expired monthly fan is re-engaged",
			in: Input{
				TurnMode:      TurnPackPush,
				Access:        AccessSnapshot{HasHistory: true, MonthlyDaysLeft: -1},
				AccessState:   AccessExpired,
				LastGrantType: GrantMonthly,
				Ladder:        ladderAt(ladder.T4, 400),
			},
			wantBranch: "expired_with_history", wantFocus: FocusVIPCare, wantUsage: UsageRenewal, wantStep: StepNone,
		},
		{
			name: "active special pack wins over turn mode",
			in: Input{
				TurnMode:    TurnHeatUp,
				Access:      AccessSnapshot{ActiveSpecialPack: true, MonthlyDaysLeft: -1, HasHistory: true},
				AccessState: AccessActive,
			},
			wantBranch: "active_special_pack", wantFocus: FocusVIPCare, wantUsage: UsageVIPCheckin, wantStep: StepFirstExtra,
		},
		{
			name: "special pack checked before renewal window",
			in: Input{
				Access:      AccessSnapshot{ActiveSpecialPack: true, ActiveMonthly: true, MonthlyDaysLeft: 2, HasHistory: true},
				AccessState: AccessActive,
			},
			wantBranch: "active_special_pack", wantFocus: FocusVIPCare, wantUsage: UsageVIPCheckin, wantStep: StepFirstExtra,
		},
		{
			name: "monthly about to expire gets renewal",
			in: Input{
				TurnMode:    TurnPackPush,
				Access:      AccessSnapshot{ActiveMonthly: true, MonthlyDaysLeft: 7, HasHistory: true},
				AccessState: AccessActive,
			},
			wantBranch: "renewal_window", wantFocus: FocusVIPCare, wantUsage: UsageRenewal, wantStep: StepFirstExtra,
		},
		{
			name: "pack push with enough spend offers a pack",
			in: Input{
				TurnMode: TurnPackPush,
				Ladder:   ladderAt(ladder.T1, 60),
				Session:  ladder.SessionToday{ExtrasBought: 1},
			},
			wantBranch: "pack_push", wantFocus: FocusPackOffer, wantUsage: UsagePackOffer, wantStep: StepLadderRun,
		},
		{
			name: "pack push with enough tier offers a pack",
			in: Input{
				TurnMode: TurnPackPush,
				Ladder:   ladderAt(ladder.T2, 20),
			},
			wantBranch: "pack_push", wantFocus: FocusPackOffer, wantUsage: UsagePackOffer, wantStep: StepFirstExtra,
		},
		{
			name:       "pack push below threshold climbs the ladder",
			in:         Input{TurnMode: TurnPackPush, Ladder: ladderAt(ladder.T1, 10)},
			wantBranch: "pack_push", wantFocus: FocusExtraLadder, wantUsage: UsageExtraQuick, wantStep: StepFirstExtra,
		},
		{
			name:       "vip care mode",
			in:         Input{TurnMode: TurnVIPCare},
			wantBranch: "vip_care_mode", wantFocus: FocusVIPCare, wantUsage: UsageVIPCheckin, wantStep: StepFirstExtra,
		},
		{
			name:       "heat up without paid access warms up",
			in:         Input{TurnMode: TurnHeatUp, Session: ladder.SessionToday{ExtrasBought: 2}},
			wantBranch: "heatup_unpaid", wantFocus: FocusWarmup, wantUsage: UsageWarmup, wantStep: StepNone,
		},
		{
			name:       "heat up with monthly is a paying fan",
			in:         Input{TurnMode: TurnHeatUp, Access: monthly, AccessState: AccessActive},
			wantBranch: "paying_default", wantFocus: FocusVIPCare, wantUsage: UsageVIPCheckin, wantStep: StepFirstExtra,
		},
		{
			name:       "balanced unpaid climbs the ladder",
			in:         Input{Session: ladder.SessionToday{ExtrasBought: 1}, Ladder: ladderAt(ladder.T1, 7)},
			wantBranch: "unpaid_default", wantFocus: FocusExtraLadder, wantUsage: UsageExtraLadder, wantStep: StepLadderRun,
		},
		{
			name:       "balanced monthly subscriber",
			in:         Input{TurnMode: TurnBalanced, Access: monthly, AccessState: AccessActive},
			wantBranch: "paying_default", wantFocus: FocusVIPCare, wantUsage: UsageVIPCheckin, wantStep: StepFirstExtra,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Build(tt.in)
			assert.Equal(t, tt.wantBranch, plan.Branch)
			assert.Equal(t, tt.wantFocus, plan.Focus)
			assert.Equal(t, tt.wantUsage, plan.Usage)
			assert.Equal(t, tt.wantStep, plan.Step)
		})
	}
}

func TestBuild_ExpiredFraming(t *testing.T) {
	in := Input{
		Access:        AccessSnapshot{HasHistory: true, MonthlyDaysLeft: -1},
		AccessState:   AccessExpired,
		LastGrantType: GrantMonthly,
	}
	monthly := Build(in)

	in.LastGrantType = GrantSpecialPack
	pack := Build(in)

	assert.Equal(t, UsageRenewal, monthly.Usage)
	assert.Equal(t, UsageRenewal, pack.Usage)
	assert.NotEqual(t, monthly.GoalLabel, pack.GoalLabel)
}

func TestBuild_ExpiredLadderOnlyHistoryUsesNeutralFraming(t *testing.T) {
	plan := Build(Input{
		Access:      AccessSnapshot{MonthlyDaysLeft: -1},
		AccessState: AccessExpired,
		Ladder:      ladderAt(ladder.T2, 30),
	})

	assert.Equal(t, "expired_with_history", plan.Branch)
	assert.Equal(t, UsageRenewal, plan.Usage)
	assert.Equal(t, "Re-engage a past buyer", plan.GoalLabel)
	assert.NotContains(t, plan.GoalLabel, "monthly")
}

func TestBuild_ExpiredWithoutHistoryFallsThrough(t *testing.T) {
	plan := Build(Input{AccessState: AccessExpired})
	assert.Equal(t, "unpaid_default", plan.Branch)
}

func TestBuild_Steps(t *testing.T) {
	tests := []struct {
		name   string
		extras int
		tier   ladder.Tier
		want   Step
		usage  Usage
	}{
		{"no extras yet", 0, ladder.T3, StepFirstExtra, UsageExtraQuick},
		{"one extra low tier", 1, ladder.T1, StepLadderRun, UsageExtraLadder},
		{"two extras mid tier", 2, ladder.T2, StepLadderRun, UsageExtraLadder},
		{"one extra high tier", 1, ladder.T3, StepAfterPeak, UsageVIPCheckin},
		{"three extras", 3, ladder.T1, StepAfterPeak, UsageVIPCheckin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Build(Input{
				TurnMode: TurnPackPush,
				Ladder:   ladderAt(tt.tier, 5),
				Session:  ladder.SessionToday{ExtrasBought: tt.extras},
				Options:  Options{PackPushMinTier: ladder.T4, PackPushMinSpend: 1000},
			})
			assert.Equal(t, FocusExtraLadder, plan.Focus)
			assert.Equal(t, tt.want, plan.Step)
			assert.Equal(t, tt.usage, plan.Usage)
		})
	}
}

func TestBuild_LateSessionOverridesPackOffer(t *testing.T) {
	in := Input{TurnMode: TurnPackPush, Ladder: ladderAt(ladder.T3, 120)}

	in.Session.ExtrasBought = 2
	assert.Equal(t, UsagePackOffer, Build(in).Usage)

	in.Session.ExtrasBought = 3
	plan := Build(in)
	assert.Equal(t, FocusPackOffer, plan.Focus)
	assert.Equal(t, UsageExtraQuick, plan.Usage)
}

func TestBuild_LabelsAlwaysPresent(t *testing.T) {
	modes := []TurnMode{"", TurnBalanced, TurnHeatUp, TurnPackPush, TurnVIPCare}
	states := []AccessState{"", AccessNone, AccessActive, AccessExpired}
	for _, mode := range modes {
		for _, state := range states {
			for extras := 0; extras <= 4; extras++ {
				plan := Build(Input{
					TurnMode:    mode,
					AccessState: state,
					Access:      AccessSnapshot{HasHistory: state != AccessNone, MonthlyDaysLeft: -1},
					Session:     ladder.SessionToday{ExtrasBought: extras},
				})
				assert.NotEmpty(t, plan.GoalLabel)
				assert.NotEmpty(t, plan.StepLabel)
				assert.NotEmpty(t, plan.FocusLabel)
				assert.NotEmpty(t, plan.Branch)
				assert.True(t, plan.Intensity.Valid())
				assert.Equal(t, plan.GoalLabel+" · "+plan.FocusLabel+" · "+plan.StepLabel, plan.Summary)
			}
		}
	}
}

func TestBuild_DefaultsAreConservative(t *testing.T) {
	plan := Build(Input{})
	assert.Equal(t, "unpaid_default", plan.Branch)
	assert.Equal(t, FocusExtraLadder, plan.Focus)
	assert.Equal(t, funnel.IntensityMedium, plan.Intensity)
}

func TestBuild_IsDeterministic(t *testing.T) {
	in := Input{TurnMode: TurnPackPush, Ladder: ladderAt(ladder.T2, 80), Session: ladder.SessionToday{ExtrasBought: 1}}
	first := Build(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Build(in))
	}
}

func TestParseTurnMode(t *testing.T) {
	assert.Equal(t, TurnPackPush, ParseTurnMode("pack-push"))
	assert.Equal(t, TurnHeatUp, ParseTurnMode(" heat up "))
	assert.Equal(t, TurnVIPCare, ParseTurnMode("vip_care"))
	assert.Equal(t, TurnBalanced, ParseTurnMode("whatever"))
	assert.Equal(t, TurnBalanced, ParseTurnMode(""))
}

func TestParseUsage(t *testing.T) {
	u, ok := ParseUsage(" Pack_Offer ")
	assert.True(t, ok)
	assert.Equal(t, UsagePackOffer, u)

	_, ok = ParseUsage("flash_sale")
	assert.False(t, ok)
}

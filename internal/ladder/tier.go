package ladder

import (
	"fmt"
	"strconv"
	"strings"
)

// Tier is a rung on the extras spend ladder. T0 is the free teaser tier.
type Tier int8

const (
	T0 Tier = iota
	T1
	T2
	T3
	T4
)

// MaxTier is the top of the ladder.
const MaxTier = T4

// AllTiers lists tiers from lowest to highest.
func AllTiers() []Tier {
	return []Tier{T0, T1, T2, T3, T4}
}

// Valid reports whether t is on the ladder.
func (t Tier) Valid() bool {
	return t >= T0 && t <= T4
}

func (t Tier) String() string {
	if !t.Valid() {
		return ""
	}
	return "T" + strconv.Itoa(int(t))
}

// Next returns the rung above t, or false at the top.
func (t Tier) Next() (Tier, bool) {
	if t >= MaxTier {
		return 0, false
	}
	return t + 1, true
}

// MarshalText encodes the tier as "T0".."T4".
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("ladder: invalid tier %d", int8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText accepts anything ParseTier accepts.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, ok := ParseTier(string(text))
	if !ok {
		return fmt.Errorf("ladder: invalid tier %q", string(text))
	}
	*t = parsed
	return nil
}

// UnmarshalJSON accepts a tier as a string ("T2", "2") or as the number the
// database stores.
func (t *Tier) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	return t.UnmarshalText([]byte(raw))
}

// ParseTier accepts "T2", "t2" or "2".
func ParseTier(raw string) (Tier, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "T")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	t := Tier(n)
	if !t.Valid() {
		return 0, false
	}
	return t, true
}

// TierForAmount places a paid amount on the ladder when nothing better is known.
func TierForAmount(amount float64) Tier {
	switch {
	case amount <= 0:
		return T0
	case amount < 10:
		return T1
	case amount < 25:
		return T2
	case amount < 50:
		return T3
	default:
		return T4
	}
}

// PhaseLabel is the short human label for a max tier bought; nil means nothing bought.
func PhaseLabel(maxTier *Tier) string {
	if maxTier == nil {
		return "Phase 0 – no extras yet"
	}
	switch *maxTier {
	case T1:
		return "Phase 1 – first extra unlocked"
	case T2:
		return "Phase 2 – climbing the ladder"
	case T3:
		return "Phase 3 – high-tier buyer"
	case T4:
		return "Phase 4 – top of the ladder"
	default:
		return "Phase 0 – no extras yet"
	}
}

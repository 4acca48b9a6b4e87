package econ

import (
	"testing"
	"time"
)

func TestEffectCatalog(t *testing.T) {
	for _, kind := range []EffectKind{
		EffectLowEnergy, EffectAddicted, EffectMotivated,
		EffectDemoralized, EffectOverworked,
	} {
		def, ok := EffectByKind(kind)
		if !ok {
			t.Fatalf("missing catalog entry for %s", kind)
		}
		if def.Kind != kind {
			t.Fatalf("catalog entry %s carries kind %s", kind, def.Kind)
		}
		if def.DefaultTicks <= 0 {
			t.Fatalf("%s has non-positive default duration", kind)
		}
	}

	if !effectCatalog[EffectOverworked].BlocksWork {
		t.Fatal("overworked must block work")
	}
	if !effectCatalog[EffectAddicted].ClearsAtMaxMood {
		t.Fatal("addicted must clear at max mood")
	}
	if effectCatalog[EffectAddicted].MoodSwingMult != 2 {
		t.Fatal("addicted must double gambling mood swings")
	}
	if effectCatalog[EffectMotivated].RewardMult != 1.25 {
		t.Fatal("motivated reward multiplier changed")
	}
	if effectCatalog[EffectDemoralized].RewardMult != 0.7 {
		t.Fatal("demoralized reward multiplier changed")
	}
}

func TestMergeTransitionsRefreshes(t *testing.T) {
	got := mergeTransitions([]effectTransition{
		{Kind: EffectOverworked, Ticks: 30},
		{Kind: EffectLowEnergy, Ticks: 60},
		{Kind: EffectOverworked, Ticks: 45},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 transitions after merge, got %d", len(got))
	}
	if got[0].Kind != EffectOverworked || got[0].Ticks != 45 {
		t.Fatalf("re-apply must refresh duration, got %+v", got[0])
	}
	if got[1].Kind != EffectLowEnergy || got[1].Ticks != 60 {
		t.Fatalf("unrelated transition mangled: %+v", got[1])
	}
}

func TestActiveEffectExpiresAt(t *testing.T) {
	applied := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := ActiveEffect{Kind: EffectOverworked, Duration: 30, Ticks: 30, AppliedAt: applied}
	want := applied.Add(30 * BaseTick)
	if !a.ExpiresAt().Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", a.ExpiresAt(), want)
	}
}

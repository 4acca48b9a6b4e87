package econ

import (
	"math"
	mathrand "math/rand"
	"testing"
)

func TestWorkFailChanceTiers(t *testing.T) {
	tests := []struct {
		mood, moodMax int
		want          float64
	}{
		{100, 100, 0.1},
		{60, 100, 0.1},
		{59, 100, 0.5},
		{30, 100, 0.5},
		{29, 100, 0.8},
		{0, 100, 0.8},
		{50, 0, 0.8}, // degenerate max treated as lowest tier
	}
	for _, tc := range tests {
		if got := workFailChance(tc.mood, tc.moodMax); got != tc.want {
			t.Fatalf("workFailChance(%d, %d) = %v, want %v", tc.mood, tc.moodMax, got, tc.want)
		}
	}
}

func TestApplyRewardBonuses(t *testing.T) {
	tests := []struct {
		base                            int64
		toolbelt, motivated, demoralized bool
		want                            int64
	}{
		{400, false, false, false, 400},
		{400, true, false, false, 500},
		{400, false, true, false, 500},
		{400, false, false, true, 280},
		// truncation happens once, after all multipliers: 400*1.25*1.25*0.7 = 437.5
		{400, true, true, true, 437},
		{333, true, false, false, 416}, // 416.25
	}
	for _, tc := range tests {
		got := applyRewardBonuses(tc.base, tc.toolbelt, tc.motivated, tc.demoralized)
		if got != tc.want {
			t.Fatalf("applyRewardBonuses(%d, %v, %v, %v) = %d, want %d",
				tc.base, tc.toolbelt, tc.motivated, tc.demoralized, got, tc.want)
		}
	}
}

func TestOverworkChance(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{0, 0},
		{10, 0.5},
		{20, 1.0}, // 20 work actions in 5 minutes is a certainty
		{100, 1.0},
	}
	for _, tc := range tests {
		if got := overworkChance(tc.count); got != tc.want {
			t.Fatalf("overworkChance(%d) = %v, want %v", tc.count, got, tc.want)
		}
	}
}

// An account below 30% mood fails roughly 80% of attempts.
func TestLowMoodFailureRate(t *testing.T) {
	r := mathrand.New(mathrand.NewSource(99))
	failChance := workFailChance(20, 100)
	const trials = 50_000
	failures := 0
	for i := 0; i < trials; i++ {
		if !(r.Float64() > failChance) {
			failures++
		}
	}
	rate := float64(failures) / trials
	if math.Abs(rate-0.8) > 0.01 {
		t.Fatalf("low-mood failure rate = %.4f, want 0.80 ± 0.01", rate)
	}
}

func TestRollMaterialsFrequencies(t *testing.T) {
	r := mathrand.New(mathrand.NewSource(5))
	const trials = 100_000
	hits := make(map[int64]int)
	for i := 0; i < trials; i++ {
		for _, d := range rollMaterials(r) {
			hits[d.ItemID]++
			if d.Quantity < 1 {
				t.Fatalf("material %s dropped with quantity %d", d.Name, d.Quantity)
			}
		}
	}
	for _, m := range materialTable {
		got := float64(hits[m.ItemID]) / trials
		if math.Abs(got-m.Chance) > 0.01 {
			t.Fatalf("%s drop rate = %.4f, want %.2f ± 0.01", m.Name, got, m.Chance)
		}
	}
}

// Drops are independent rolls, not mutually exclusive: a single action can
// yield several materials.
func TestRollMaterialsIndependent(t *testing.T) {
	r := mathrand.New(mathrand.NewSource(11))
	multi := false
	for i := 0; i < 10_000 && !multi; i++ {
		if len(rollMaterials(r)) >= 2 {
			multi = true
		}
	}
	if !multi {
		t.Fatal("never observed a multi-material drop in 10k rolls")
	}
}

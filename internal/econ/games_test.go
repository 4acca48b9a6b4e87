package econ

import (
	"math"
	mathrand "math/rand"
	"testing"
	"time"
)

func TestSlotMultiplier(t *testing.T) {
	tests := []struct {
		symbols [3]string
		want    float64
	}{
		{[3]string{"⭐", "⭐", "⭐"}, 5.0},
		{[3]string{"⭐", "⭐", "🍒"}, 1.5},
		{[3]string{"⭐", "🍒", "⭐"}, 1.5},
		{[3]string{"🍒", "⭐", "⭐"}, 1.5},
		{[3]string{"💠", "🍀", "🔔"}, 0},
	}
	for _, tc := range tests {
		if got := slotMultiplier(tc.symbols); got != tc.want {
			t.Fatalf("slotMultiplier(%v) = %v, want %v", tc.symbols, got, tc.want)
		}
	}
}

// With 5 symbols drawn independently: P(triple) = 1/25, P(exactly two) =
// 12/25, so the expected payout multiplier is 0.04*5 + 0.48*1.5 = 0.92.
func TestSlotExpectedValue(t *testing.T) {
	r := mathrand.New(mathrand.NewSource(42))
	const trials = 200_000
	var sum float64
	for i := 0; i < trials; i++ {
		sum += slotMultiplier(drawSlots(r))
	}
	mean := sum / trials
	if math.Abs(mean-0.92) > 0.02 {
		t.Fatalf("slot mean multiplier = %.4f, want 0.92 ± 0.02", mean)
	}
}

func TestWeightedMultiplierProportions(t *testing.T) {
	r := mathrand.New(mathrand.NewSource(7))
	const trials = 500_000
	counts := make(map[int]int)
	for i := 0; i < trials; i++ {
		counts[weightedMultiplier(r)]++
	}

	var total float64
	for _, w := range scratchWeights {
		total += w
	}
	for i, m := range scratchMultipliers {
		want := scratchWeights[i] / total
		got := float64(counts[m]) / trials
		if math.Abs(got-want) > 0.004 {
			t.Fatalf("multiplier %d: observed %.4f, want %.4f ± 0.004", m, got, want)
		}
	}
}

func TestScratchPayout(t *testing.T) {
	tests := []struct {
		picks        []int
		bet          int64
		wantTotal    int
		wantWinnings int64
	}{
		{[]int{1, 2, 3}, 100, 6, 600},
		{[]int{10, -1, -2}, 100, 7, 700},
		{[]int{1, -1, 0}, 100, 0, 0},  // exactly zero forfeits, never negative
		{[]int{-2, -2, -1}, 100, -5, 0},
		{[]int{0, 0, 1}, 250, 1, 250},
	}
	for _, tc := range tests {
		total, winnings := scratchPayout(tc.bet, tc.picks)
		if total != tc.wantTotal || winnings != tc.wantWinnings {
			t.Fatalf("scratchPayout(%d, %v) = (%d, %d), want (%d, %d)",
				tc.bet, tc.picks, total, winnings, tc.wantTotal, tc.wantWinnings)
		}
	}
}

func TestAddictionChance(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{0, 0},
		{20, 0.5},
		{40, 1.0},
		{400, 1.0},
	}
	for _, tc := range tests {
		if got := addictionChance(tc.count); got != tc.want {
			t.Fatalf("addictionChance(%d) = %v, want %v", tc.count, got, tc.want)
		}
	}
}

func TestGambleSideEffectsCountsAddictedPlays(t *testing.T) {
	s := NewService(nil, nil, nil)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	apply, swing := s.gambleSideEffects(true, now, 7)
	if len(apply) != 0 {
		t.Fatalf("addicted play rolled a new transition: %v", apply)
	}
	if want := effectCatalog[EffectAddicted].MoodSwingMult; swing != want {
		t.Fatalf("addicted swing = %d, want %d", swing, want)
	}
	// The addicted play above must have counted toward today's total.
	if got := s.freq.RecordGamble(7, now); got != 2 {
		t.Fatalf("daily gamble count = %d, want 2 (addicted play not counted)", got)
	}

	_, swing = s.gambleSideEffects(false, now, 7)
	if swing != 1 {
		t.Fatalf("sober swing = %d, want 1", swing)
	}
	if got := s.freq.RecordGamble(7, now); got != 4 {
		t.Fatalf("daily gamble count = %d, want 4", got)
	}
}

func TestValidateWager(t *testing.T) {
	s := NewService(nil, nil, nil)

	if err := s.validateWager(Wager{Amount: 50, Cap: 1000}, 1); err != nil {
		t.Fatalf("valid wager rejected: %v", err)
	}
	if err := s.validateWager(Wager{Amount: 0, Cap: 1000}, 1); err == nil {
		t.Fatal("zero wager accepted")
	}
	if err := s.validateWager(Wager{Amount: 99, Cap: 1000}, ScratchMinBet); err == nil {
		t.Fatal("wager below scratch minimum accepted")
	}
	if err := s.validateWager(Wager{Amount: 2000, Cap: 1000}, 1); err == nil {
		t.Fatal("wager above cap accepted")
	}
	// Cap 0 means the caller computed no cap.
	if err := s.validateWager(Wager{Amount: 1 << 40}, 1); err != nil {
		t.Fatalf("uncapped wager rejected: %v", err)
	}
}

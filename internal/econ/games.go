package econ

import (
	"context"
	"fmt"
	"math"
	mathrand "math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

var slotSymbols = []string{"💠", "🍀", "🔔", "⭐", "🍒"}

var (
	scratchMultipliers = []int{1, 2, 3, 5, 10, 0, -1, -2}

	// Relative draw weights for the multipliers above. They are kept exactly
	// as tuned; the sampler works off the running total, so the table is
	// never renormalized. Changing a weight changes the house edge.
	scratchWeights = []float64{0.25, 0.15, 0.03, 0.01, 0.001, 0.25, 0.20, 0.109}
)

func slotMultiplier(symbols [3]string) float64 {
	switch {
	case symbols[0] == symbols[1] && symbols[1] == symbols[2]:
		return 5.0
	case symbols[0] == symbols[1] || symbols[1] == symbols[2] || symbols[0] == symbols[2]:
		return 1.5
	default:
		return 0
	}
}

func drawSlots(r *mathrand.Rand) [3]string {
	var out [3]string
	for i := range out {
		out[i] = slotSymbols[r.Intn(len(slotSymbols))]
	}
	return out
}

func drawCoin(r *mathrand.Rand) string {
	if r.Intn(2) == 0 {
		return "heads"
	}
	return "tails"
}

func weightedMultiplier(r *mathrand.Rand) int {
	var total float64
	for _, w := range scratchWeights {
		total += w
	}
	u := r.Float64() * total
	for i, w := range scratchWeights {
		u -= w
		if u < 0 {
			return scratchMultipliers[i]
		}
	}
	return scratchMultipliers[len(scratchMultipliers)-1]
}

func drawGrid(r *mathrand.Rand) [3][3]int {
	var g [3][3]int
	for row := range g {
		for col := range g[row] {
			g[row][col] = weightedMultiplier(r)
		}
	}
	return g
}

// scratchPayout settles three revealed multipliers. A total of zero or less
// forfeits the bet; it never goes negative beyond the stake.
func scratchPayout(bet int64, picks []int) (total int, winnings int64) {
	for _, m := range picks {
		total += m
	}
	if total > 0 {
		winnings = bet * int64(total)
	}
	return total, winnings
}

func addictionChance(gambleCountToday int) float64 {
	return math.Min(float64(gambleCountToday)/AddictionDivisor, 1.0)
}

func (s *Service) validateWager(w Wager, min int64) error {
	if w.Amount < min {
		return fmt.Errorf("%w: minimum %d", ErrBetTooSmall, min)
	}
	if w.Cap > 0 && w.Amount > w.Cap {
		return fmt.Errorf("%w: cap %d", ErrBetTooLarge, w.Cap)
	}
	return nil
}

// gambleSideEffects rolls the addiction escalation for one play and returns
// the transitions to apply atomically with the settlement, plus the mood
// swing multiplier in force. Every play counts toward the daily total, even
// while already addicted; only the addiction draw is skipped then.
func (s *Service) gambleSideEffects(addicted bool, now time.Time, userID int64) (apply []effectTransition, swing int) {
	count := s.freq.RecordGamble(userID, now)
	if addicted {
		return nil, effectCatalog[EffectAddicted].MoodSwingMult
	}
	if s.nextFloat() < addictionChance(count) {
		apply = append(apply, transitionFor(EffectAddicted))
	}
	return apply, 1
}

// PlaySlots draws three symbols and settles the wager in one transaction.
// Triple match pays 5x, a pair 1.5x, anything else loses the stake.
func (s *Service) PlaySlots(ctx context.Context, w Wager) (SlotOutcome, error) {
	var out SlotOutcome
	if err := s.validateWager(w, 1); err != nil {
		return out, err
	}
	if err := s.EnsureAccount(ctx, w.UserID); err != nil {
		return out, err
	}

	addicted, err := s.HasEffect(ctx, w.UserID, EffectAddicted)
	if err != nil {
		return out, err
	}

	s.mu.Lock()
	symbols := drawSlots(s.rand)
	s.mu.Unlock()

	mult := slotMultiplier(symbols)
	winnings := int64(math.Round(float64(w.Amount) * mult))
	win := winnings > 0

	apply, swing := s.gambleSideEffects(addicted, s.now(), w.UserID)
	moodDelta := -SlotMoodLoss * swing
	var clearAtMax EffectKind
	if win {
		moodDelta = SlotMoodWin * swing
		if addicted {
			clearAtMax = EffectAddicted
		}
	}

	acct, clearedAtMax, err := s.settle(ctx, settlement{
		UserID:         w.UserID,
		Action:         "slot",
		CoinsDelta:     winnings - w.Amount,
		EnergyDelta:    -GameEnergyCost,
		MoodDelta:      moodDelta,
		RequireCoins:   w.Amount,
		RequireEnergy:  GameEnergyCost,
		Apply:          apply,
		ClearAtMaxMood: clearAtMax,
	})
	if err != nil {
		return out, err
	}

	out = SlotOutcome{
		Outcome:    outcomeFrom(acct, win, winnings-w.Amount, -GameEnergyCost, moodDelta, apply, clearedAtMax, clearAtMax),
		Symbols:    symbols,
		Multiplier: mult,
		Winnings:   winnings,
	}
	return out, nil
}

// PlayCoinflip settles a heads-or-tails wager; the net result is the full
// stake either way.
func (s *Service) PlayCoinflip(ctx context.Context, w Wager, guess string) (FlipOutcome, error) {
	var out FlipOutcome
	guess = strings.ToLower(strings.TrimSpace(guess))
	if guess != "heads" && guess != "tails" {
		return out, ErrInvalidGuess
	}
	if err := s.validateWager(w, 1); err != nil {
		return out, err
	}
	if err := s.EnsureAccount(ctx, w.UserID); err != nil {
		return out, err
	}

	addicted, err := s.HasEffect(ctx, w.UserID, EffectAddicted)
	if err != nil {
		return out, err
	}

	s.mu.Lock()
	result := drawCoin(s.rand)
	s.mu.Unlock()
	win := guess == result

	apply, swing := s.gambleSideEffects(addicted, s.now(), w.UserID)
	moodDelta := -FlipMoodSwing * swing
	coinsDelta := -w.Amount
	var clearAtMax EffectKind
	if win {
		moodDelta = FlipMoodSwing * swing
		coinsDelta = w.Amount
		if addicted {
			clearAtMax = EffectAddicted
		}
	}

	acct, clearedAtMax, err := s.settle(ctx, settlement{
		UserID:         w.UserID,
		Action:         "coinflip",
		CoinsDelta:     coinsDelta,
		EnergyDelta:    -GameEnergyCost,
		MoodDelta:      moodDelta,
		RequireCoins:   w.Amount,
		RequireEnergy:  GameEnergyCost,
		Apply:          apply,
		ClearAtMaxMood: clearAtMax,
	})
	if err != nil {
		return out, err
	}

	out = FlipOutcome{
		Outcome: outcomeFrom(acct, win, coinsDelta, -GameEnergyCost, moodDelta, apply, clearedAtMax, clearAtMax),
		Guess:   guess,
		Result:  result,
	}
	return out, nil
}

type scratchSession struct {
	id        string
	userID    int64
	bet       int64
	grid      [3][3]int
	revealed  [3][3]bool
	picks     []int
	expiresAt time.Time
}

// StartScratch buys a scratchcard: the bet is debited up front and a reveal
// session opens for ScratchTimeout. An expired session forfeits the bet.
func (s *Service) StartScratch(ctx context.Context, w Wager) (ScratchCard, error) {
	var out ScratchCard
	if err := s.validateWager(w, ScratchMinBet); err != nil {
		return out, err
	}
	if err := s.EnsureAccount(ctx, w.UserID); err != nil {
		return out, err
	}

	addicted, err := s.HasEffect(ctx, w.UserID, EffectAddicted)
	if err != nil {
		return out, err
	}
	apply, _ := s.gambleSideEffects(addicted, s.now(), w.UserID)

	if _, _, err := s.settle(ctx, settlement{
		UserID:        w.UserID,
		Action:        "scratch_buy",
		CoinsDelta:    -w.Amount,
		EnergyDelta:   -GameEnergyCost,
		RequireCoins:  w.Amount,
		RequireEnergy: GameEnergyCost,
		Apply:         apply,
	}); err != nil {
		return out, err
	}

	s.mu.Lock()
	grid := drawGrid(s.rand)
	s.mu.Unlock()

	sess := &scratchSession{
		id:        uuid.NewString(),
		userID:    w.UserID,
		bet:       w.Amount,
		grid:      grid,
		expiresAt: s.now().Add(ScratchTimeout),
	}
	s.pmu.Lock()
	s.scratch[sess.id] = sess
	s.pmu.Unlock()

	return ScratchCard{
		ID:        sess.id,
		UserID:    sess.userID,
		Bet:       sess.bet,
		ExpiresAt: sess.expiresAt,
	}, nil
}

// RevealScratch uncovers one cell. The third reveal settles the card: a
// positive multiplier total pays bet times total, zero or less pays nothing.
func (s *Service) RevealScratch(ctx context.Context, userID int64, cardID string, row, col int) (ScratchReveal, error) {
	var out ScratchReveal
	if row < 0 || row > 2 || col < 0 || col > 2 {
		return out, fmt.Errorf("%w: cell out of range", ErrCardNotFound)
	}

	s.pmu.Lock()
	sess, ok := s.scratch[cardID]
	if !ok {
		s.pmu.Unlock()
		return out, ErrCardNotFound
	}
	if sess.userID != userID {
		s.pmu.Unlock()
		return out, ErrInvalidTarget
	}
	if s.now().After(sess.expiresAt) {
		delete(s.scratch, cardID)
		s.pmu.Unlock()
		return out, ErrConfirmationExpired
	}
	if sess.revealed[row][col] {
		s.pmu.Unlock()
		return out, ErrAlreadyRevealed
	}
	sess.revealed[row][col] = true
	mult := sess.grid[row][col]
	sess.picks = append(sess.picks, mult)
	done := len(sess.picks) >= ScratchPicks
	if done {
		delete(s.scratch, cardID)
	}
	picks := append([]int(nil), sess.picks...)
	bet := sess.bet
	s.pmu.Unlock()

	out = ScratchReveal{
		Row:        row,
		Col:        col,
		Multiplier: mult,
		Remaining:  ScratchPicks - len(picks),
		Done:       done,
	}
	if !done {
		return out, nil
	}

	final, err := s.settleScratch(ctx, userID, bet, picks)
	if err != nil {
		return out, err
	}
	out.Final = &final
	return out, nil
}

func (s *Service) settleScratch(ctx context.Context, userID, bet int64, picks []int) (ScratchResult, error) {
	var out ScratchResult
	total, winnings := scratchPayout(bet, picks)
	win := winnings > 0

	addicted, err := s.HasEffect(ctx, userID, EffectAddicted)
	if err != nil {
		return out, err
	}
	swing := 1
	if addicted {
		swing = effectCatalog[EffectAddicted].MoodSwingMult
	}
	moodDelta := -FlipMoodSwing * swing
	var clearAtMax EffectKind
	if win {
		moodDelta = FlipMoodSwing * swing
		if addicted {
			clearAtMax = EffectAddicted
		}
	}

	acct, clearedAtMax, err := s.settle(ctx, settlement{
		UserID:         userID,
		Action:         "scratch_payout",
		CoinsDelta:     winnings,
		MoodDelta:      moodDelta,
		ClearAtMaxMood: clearAtMax,
	})
	if err != nil {
		return out, err
	}

	out = ScratchResult{
		Outcome:         outcomeFrom(acct, win, winnings-bet, 0, moodDelta, nil, clearedAtMax, clearAtMax),
		Picks:           picks,
		TotalMultiplier: total,
		Winnings:        winnings,
	}
	return out, nil
}

func outcomeFrom(acct Account, win bool, coinsDelta int64, energyDelta, moodDelta int, apply []effectTransition, clearedAtMax bool, clearAtMax EffectKind) Outcome {
	o := Outcome{
		Win:         win,
		CoinsDelta:  coinsDelta,
		EnergyDelta: energyDelta,
		MoodDelta:   moodDelta,
		Balance:     acct.Coins,
	}
	for _, tr := range apply {
		o.AppliedEffects = append(o.AppliedEffects, tr.Kind)
	}
	if clearedAtMax {
		o.ClearedEffects = append(o.ClearedEffects, clearAtMax)
	}
	return o
}

package econ

import (
	"context"
	"math"
	mathrand "math/rand"

	"github.com/jackc/pgx/v5"
)

// materialTable drives the independent drop rolls on a successful work
// action. Rolls are not mutually exclusive.
var materialTable = []struct {
	ItemID int64
	Name   string
	Chance float64
	Min    int
	Max    int
}{
	{ItemWood, "Wood", 0.40, 1, 3},
	{ItemStone, "Stone", 0.25, 1, 2},
	{ItemScrap, "Scrap", 0.10, 1, 1},
	{ItemHerb, "Herb", 0.05, 1, 1},
	{ItemCoal, "Coal", 0.03, 1, 1},
}

// workFailChance maps the mood ratio to a failure probability tier.
func workFailChance(mood, moodMax int) float64 {
	var ratio float64
	if moodMax > 0 {
		ratio = float64(mood) / float64(moodMax)
	}
	switch {
	case ratio >= 0.6:
		return 0.1
	case ratio >= 0.3:
		return 0.5
	default:
		return 0.8
	}
}

// applyRewardBonuses stacks the multiplicative reward bonuses, truncating to
// an integer once after all of them.
func applyRewardBonuses(base int64, toolbelt, motivated, demoralized bool) int64 {
	reward := float64(base)
	if toolbelt {
		reward *= 1.25
	}
	if motivated {
		reward *= effectCatalog[EffectMotivated].RewardMult
	}
	if demoralized {
		reward *= effectCatalog[EffectDemoralized].RewardMult
	}
	return int64(reward)
}

func overworkChance(recentWorkCount int) float64 {
	return math.Min(float64(recentWorkCount)/OverworkDivisor, 1.0)
}

func rollMaterials(r *mathrand.Rand) []MaterialDrop {
	var out []MaterialDrop
	for _, m := range materialTable {
		if r.Float64() >= m.Chance {
			continue
		}
		qty := m.Min
		if m.Max > m.Min {
			qty += r.Intn(m.Max - m.Min + 1)
		}
		out = append(out, MaterialDrop{ItemID: m.ItemID, Name: m.Name, Quantity: qty})
	}
	return out
}

// Work resolves a single work action: gate on the overworked effect and
// energy, roll success against the mood tier, pay out with bonuses and
// material drops, and escalate overwork from the rolling frequency window.
// The payout, inventory writes and effect transitions commit in one
// transaction.
func (s *Service) Work(ctx context.Context, userID int64) (WorkOutcome, error) {
	var out WorkOutcome
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return out, err
	}
	now := s.now()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)

	acct, err := scanAccountTx(ctx, tx, userID, true)
	if err != nil {
		return out, err
	}

	overworked, err := hasEffectTx(ctx, tx, userID, EffectOverworked)
	if err != nil {
		return out, err
	}
	if overworked {
		return out, ErrEffectBlocked
	}
	if acct.Energy < WorkEnergyCost {
		return out, ErrInsufficientEnergy
	}

	var applies []effectTransition
	if acct.Energy-WorkEnergyCost < LowEnergyThreshold {
		applies = append(applies, transitionFor(EffectLowEnergy))
	}

	workCount := s.freq.RecordWork(userID, now)

	s.mu.Lock()
	success := s.rand.Float64() > workFailChance(acct.Mood, acct.MoodMax)
	baseReward := int64(WorkRewardMin + s.rand.Intn(WorkRewardMax-WorkRewardMin+1))
	overworkRoll := s.rand.Float64()
	materials := rollMaterials(s.rand)
	s.mu.Unlock()

	if !success {
		streak := s.freq.AddWorkFailure(userID, now)
		out.FailureStreak = streak
		if streak >= WorkFailureLimit {
			applies = append(applies, transitionFor(EffectDemoralized))
			s.freq.ResetWorkFailures(userID, now)
		}

		next := acct
		next.Energy = clampInt(acct.Energy-WorkEnergyCost, 0, acct.EnergyMax)
		next.Mood = clampInt(acct.Mood-WorkMoodPenalty, 0, acct.MoodMax)
		if _, err := tx.Exec(ctx, `
			UPDATE users SET energy = $1, mood = $2 WHERE id = $3
		`, next.Energy, next.Mood, userID); err != nil {
			return out, err
		}
		for _, tr := range mergeTransitions(applies) {
			if err := applyEffectTx(ctx, tx, userID, tr); err != nil {
				return out, err
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return out, err
		}
		out.Outcome = outcomeFrom(next, false, 0, -WorkEnergyCost, -WorkMoodPenalty, applies, false, "")
		return out, nil
	}

	s.freq.ResetWorkFailures(userID, now)

	toolbelt, err := hasToolbeltTx(ctx, tx, userID)
	if err != nil {
		return out, err
	}
	motivated, err := hasEffectTx(ctx, tx, userID, EffectMotivated)
	if err != nil {
		return out, err
	}
	demoralized, err := hasEffectTx(ctx, tx, userID, EffectDemoralized)
	if err != nil {
		return out, err
	}
	reward := applyRewardBonuses(baseReward, toolbelt, motivated, demoralized)

	if overworkRoll < overworkChance(workCount) {
		applies = append(applies, transitionFor(EffectOverworked))
	}

	next := acct
	next.Coins += reward
	next.Energy = clampInt(acct.Energy-WorkEnergyCost, 0, acct.EnergyMax)
	next.Mood = clampInt(acct.Mood-1, 0, acct.MoodMax)
	if _, err := tx.Exec(ctx, `
		UPDATE users SET coins = $1, energy = $2, mood = $3 WHERE id = $4
	`, next.Coins, next.Energy, next.Mood, userID); err != nil {
		return out, err
	}

	for _, m := range materials {
		if _, err := tx.Exec(ctx, `
			INSERT INTO inventory (user_id, item_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, item_id) DO UPDATE
			SET quantity = inventory.quantity + $3
		`, userID, m.ItemID, m.Quantity); err != nil {
			return out, err
		}
	}
	for _, tr := range mergeTransitions(applies) {
		if err := applyEffectTx(ctx, tx, userID, tr); err != nil {
			return out, err
		}
	}
	if err := appendLedgerEntry(ctx, tx, userID, "work", reward); err != nil {
		return out, err
	}
	if err := tx.Commit(ctx); err != nil {
		return out, err
	}

	out.Outcome = outcomeFrom(next, true, reward, -WorkEnergyCost, -1, applies, false, "")
	out.Reward = reward
	out.ToolbeltBonus = toolbelt
	out.Motivated = motivated
	out.Demoralized = demoralized
	out.Materials = materials
	return out, nil
}

func hasToolbeltTx(ctx context.Context, tx pgx.Tx, userID int64) (bool, error) {
	var qty int64
	err := tx.QueryRow(ctx, `
		SELECT quantity FROM inventory
		WHERE user_id = $1 AND item_id = $2 AND quantity > 0
	`, userID, ItemToolbelt).Scan(&qty)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

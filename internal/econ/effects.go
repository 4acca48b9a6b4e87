package econ

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// EffectKind identifies a timed status effect. The catalog below carries each
// effect's behaviour as data so callers never branch on raw identifiers.
type EffectKind string

const (
	EffectLowEnergy   EffectKind = "low_energy"
	EffectAddicted    EffectKind = "addicted"
	EffectMotivated   EffectKind = "motivated"
	EffectDemoralized EffectKind = "demoralized"
	EffectOverworked  EffectKind = "overworked"
)

type EffectDef struct {
	Kind EffectKind
	Name string
	Icon string

	// DefaultTicks is the duration applied when the engine triggers the
	// effect itself. One tick is BaseTick of wall-clock time.
	DefaultTicks int32

	// RewardMult scales the work reward while active. 1 means no change.
	RewardMult float64

	// MoodSwingMult scales gambling mood swings while active.
	MoodSwingMult int

	// BlocksWork rejects work actions outright while active.
	BlocksWork bool

	// ClearsAtMaxMood removes the effect as soon as mood reaches its
	// maximum after a payout, inside the same transaction.
	ClearsAtMaxMood bool
}

var effectCatalog = map[EffectKind]EffectDef{
	EffectLowEnergy: {
		Kind:          EffectLowEnergy,
		Name:          "Low Energy",
		Icon:          "🪫",
		DefaultTicks:  60,
		RewardMult:    1,
		MoodSwingMult: 1,
	},
	EffectAddicted: {
		Kind:            EffectAddicted,
		Name:            "Addicted",
		Icon:            "🎰",
		DefaultTicks:    999999, // effectively until cured
		RewardMult:      1,
		MoodSwingMult:   2,
		ClearsAtMaxMood: true,
	},
	EffectMotivated: {
		Kind:          EffectMotivated,
		Name:          "Motivated",
		Icon:          "🔥",
		DefaultTicks:  60,
		RewardMult:    1.25,
		MoodSwingMult: 1,
	},
	EffectDemoralized: {
		Kind:          EffectDemoralized,
		Name:          "Demoralized",
		Icon:          "🌧️",
		DefaultTicks:  120,
		RewardMult:    0.7,
		MoodSwingMult: 1,
	},
	EffectOverworked: {
		Kind:          EffectOverworked,
		Name:          "Overworked",
		Icon:          "😵",
		DefaultTicks:  30,
		RewardMult:    1,
		MoodSwingMult: 1,
		BlocksWork:    true,
	},
}

// EffectByKind returns the catalog entry for a kind.
func EffectByKind(kind EffectKind) (EffectDef, bool) {
	def, ok := effectCatalog[kind]
	return def, ok
}

// ActiveEffect is one row of a user's active effect set.
type ActiveEffect struct {
	Kind      EffectKind
	Duration  int32 // ticks remaining
	Ticks     int32 // original length
	AppliedAt time.Time
}

// ExpiresAt projects the wall-clock expiry from the remaining ticks.
func (a ActiveEffect) ExpiresAt() time.Time {
	return a.AppliedAt.Add(time.Duration(a.Duration) * BaseTick)
}

// effectTransition is one apply-with-duration entry in a settlement's
// post-payout hook list.
type effectTransition struct {
	Kind  EffectKind
	Ticks int32
}

func transitionFor(kind EffectKind) effectTransition {
	return effectTransition{Kind: kind, Ticks: effectCatalog[kind].DefaultTicks}
}

// mergeTransitions collapses duplicate kinds, keeping the last duration.
// Applying an already-pending effect refreshes it rather than stacking.
func mergeTransitions(applies []effectTransition) []effectTransition {
	out := applies[:0:0]
	for _, tr := range applies {
		replaced := false
		for i := range out {
			if out[i].Kind == tr.Kind {
				out[i].Ticks = tr.Ticks
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, tr)
		}
	}
	return out
}

func hasEffectTx(ctx context.Context, tx pgx.Tx, userID int64, kind EffectKind) (bool, error) {
	var one int
	err := tx.QueryRow(ctx, `
		SELECT 1 FROM current_effects
		WHERE user_id = $1 AND kind = $2
	`, userID, string(kind)).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// applyEffectTx upserts an active effect. A second apply for the same
// (user, kind) pair resets duration instead of creating another row.
func applyEffectTx(ctx context.Context, tx pgx.Tx, userID int64, tr effectTransition) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO current_effects (user_id, kind, duration, ticks, applied_at)
		VALUES ($1, $2, $3, $3, now())
		ON CONFLICT (user_id, kind) DO UPDATE
		SET duration = $3, ticks = $3, applied_at = now()
	`, userID, string(tr.Kind), tr.Ticks)
	return err
}

// clearEffectTx removes an effect; clearing an absent effect is a no-op.
func clearEffectTx(ctx context.Context, tx pgx.Tx, userID int64, kind EffectKind) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM current_effects
		WHERE user_id = $1 AND kind = $2
	`, userID, string(kind))
	return err
}

// HasEffect reports whether an effect is active, outside any transaction.
func (s *Service) HasEffect(ctx context.Context, userID int64, kind EffectKind) (bool, error) {
	var one int
	err := s.db.QueryRow(ctx, `
		SELECT 1 FROM current_effects
		WHERE user_id = $1 AND kind = $2
	`, userID, string(kind)).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ActiveEffects lists a user's active effects, longest-remaining first.
func (s *Service) ActiveEffects(ctx context.Context, userID int64) ([]ActiveEffect, error) {
	rows, err := s.db.Query(ctx, `
		SELECT kind, duration, ticks, applied_at
		FROM current_effects
		WHERE user_id = $1
		ORDER BY duration DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActiveEffect
	for rows.Next() {
		var a ActiveEffect
		var kind string
		if err := rows.Scan(&kind, &a.Duration, &a.Ticks, &a.AppliedAt); err != nil {
			return nil, err
		}
		a.Kind = EffectKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

// TickEffects decrements every active effect by one tick and removes the
// expired ones. The ticker job owns the cadence.
func (s *Service) TickEffects(ctx context.Context) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE current_effects SET duration = duration - 1`); err != nil {
		return 0, err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM current_effects WHERE duration <= 0`)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

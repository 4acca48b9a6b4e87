package econ

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// AccountStatus reads coins, energy/mood with maxima, active effects and the
// inventory load. Read-only.
func (s *Service) AccountStatus(ctx context.Context, userID int64) (AccountStatus, error) {
	var out AccountStatus
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return out, err
	}
	err := s.db.QueryRow(ctx, `
		SELECT id, coins, energy, energy_max, mood, mood_max
		FROM users
		WHERE id = $1
	`, userID).Scan(&out.ID, &out.Coins, &out.Energy, &out.EnergyMax, &out.Mood, &out.MoodMax)
	if err == pgx.ErrNoRows {
		return out, ErrAccountNotFound
	}
	if err != nil {
		return out, err
	}

	out.Effects, err = s.ActiveEffects(ctx, userID)
	if err != nil {
		return out, err
	}
	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM inventory WHERE user_id = $1
	`, userID).Scan(&out.InventoryLoad)
	return out, err
}

// GuildFundBalance returns the tenant fund's coins.
func (s *Service) GuildFundBalance(ctx context.Context, guildID int64) (int64, error) {
	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return 0, err
	}
	var coins int64
	err := s.db.QueryRow(ctx, `SELECT coins FROM guilds WHERE id = $1`, guildID).Scan(&coins)
	return coins, err
}

// FundGive moves coins from the guild fund to a user. The fund row is locked
// and sufficiency re-checked under the lock, same discipline as transfers.
func (s *Service) FundGive(ctx context.Context, guildID, targetID int64, rawAmount string) (int64, error) {
	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return 0, err
	}
	if err := s.EnsureAccount(ctx, targetID); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var fund int64
	if err := tx.QueryRow(ctx, `
		SELECT coins FROM guilds WHERE id = $1 FOR UPDATE
	`, guildID).Scan(&fund); err != nil {
		return 0, err
	}
	amount, err := ParseAmount(rawAmount, fund)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if fund < amount {
		return 0, ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, `UPDATE guilds SET coins = coins - $1 WHERE id = $2`, amount, guildID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET coins = coins + $1 WHERE id = $2`, amount, targetID); err != nil {
		return 0, err
	}
	if err := appendLedgerEntry(ctx, tx, targetID, "fund_give", amount); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return amount, nil
}

// FundDonate moves coins from a user into the guild fund.
func (s *Service) FundDonate(ctx context.Context, guildID, userID int64, rawAmount string) (int64, error) {
	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return 0, err
	}
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	acct, err := scanAccountTx(ctx, tx, userID, true)
	if err != nil {
		return 0, err
	}
	amount, err := ParseAmount(rawAmount, acct.Coins)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if acct.Coins < amount {
		return 0, ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET coins = coins - $1 WHERE id = $2`, amount, userID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `UPDATE guilds SET coins = coins + $1 WHERE id = $2`, amount, guildID); err != nil {
		return 0, err
	}
	if err := appendLedgerEntry(ctx, tx, userID, "fund_donate", -amount); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return amount, nil
}

// GuildSettings reads the tenant configuration row.
func (s *Service) GuildSettings(ctx context.Context, guildID int64) (GuildConfig, error) {
	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return GuildConfig{}, err
	}
	var cfg GuildConfig
	err := s.db.QueryRow(ctx, `
		SELECT guild_id, prefix, locale, transfer_tax_rate, allow_rob
		FROM guild_config
		WHERE guild_id = $1
	`, guildID).Scan(&cfg.GuildID, &cfg.Prefix, &cfg.Locale, &cfg.TransferTaxRate, &cfg.AllowRob)
	return cfg, err
}

// TransferTaxRate returns the guild's tax rate; guilds without a config row
// pay no tax.
func (s *Service) TransferTaxRate(ctx context.Context, guildID int64) (float64, error) {
	var rate float64
	err := s.db.QueryRow(ctx, `
		SELECT transfer_tax_rate FROM guild_config WHERE guild_id = $1
	`, guildID).Scan(&rate)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return rate, err
}

// SetTransferTaxRate clamps the rate to [0, 1] and stores it.
func (s *Service) SetTransferTaxRate(ctx context.Context, guildID int64, rate float64) (float64, error) {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return 0, err
	}
	_, err := s.db.Exec(ctx, `
		UPDATE guild_config SET transfer_tax_rate = $1 WHERE guild_id = $2
	`, rate, guildID)
	return rate, err
}

// ToggleRobAllowed flips the rob feature toggle and returns the new value.
func (s *Service) ToggleRobAllowed(ctx context.Context, guildID int64) (bool, error) {
	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return false, err
	}
	var allow bool
	err := s.db.QueryRow(ctx, `
		UPDATE guild_config SET allow_rob = NOT allow_rob
		WHERE guild_id = $1
		RETURNING allow_rob
	`, guildID).Scan(&allow)
	return allow, err
}

func (s *Service) SetPrefix(ctx context.Context, guildID int64, prefix string) error {
	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		UPDATE guild_config SET prefix = $1 WHERE guild_id = $2
	`, prefix, guildID)
	return err
}

func (s *Service) SetLocale(ctx context.Context, guildID int64, locale string) error {
	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		UPDATE guild_config SET locale = $1 WHERE guild_id = $2
	`, locale, guildID)
	return err
}

// EngineStats is an operational snapshot for the ops server.
type EngineStats struct {
	Users              int64 `json:"users"`
	Guilds             int64 `json:"guilds"`
	CoinsInCirculation int64 `json:"coins_in_circulation"`
	ActiveEffects      int64 `json:"active_effects"`
}

// Stats aggregates engine-wide counters.
func (s *Service) Stats(ctx context.Context) (EngineStats, error) {
	var st EngineStats
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM guilds),
			(SELECT COALESCE(SUM(coins), 0) FROM users),
			(SELECT count(*) FROM current_effects)
	`).Scan(&st.Users, &st.Guilds, &st.CoinsInCirculation, &st.ActiveEffects)
	return st, err
}

// Leaderboard lists the richest accounts.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, coins
		FROM users
		ORDER BY coins DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	var rank int64 = 1
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.UserID, &r.Coins); err != nil {
			return nil, err
		}
		r.Rank = rank
		rank++
		out = append(out, r)
	}
	return out, rows.Err()
}

package econ

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// settlement is one atomic balance mutation plus the effect transitions that
// must land with it. Engines compute outcomes up front and emit a settlement;
// the ledger applies it inside a single transaction holding a FOR UPDATE lock
// on the balance row, re-validating preconditions after the lock.
type settlement struct {
	UserID int64
	Action string

	CoinsDelta  int64
	EnergyDelta int
	MoodDelta   int

	// Re-validated under the lock; protects against balance changes between
	// the caller's pre-check and the commit.
	RequireCoins  int64
	RequireEnergy int

	Apply []effectTransition
	Clear []EffectKind

	// ClearAtMaxMood removes the effect when the post-settlement mood hits
	// its maximum, in the same transaction that paid out.
	ClearAtMaxMood EffectKind
}

// applySettlement validates a settlement against an account snapshot and
// returns the mutated snapshot. Pure; the caller holds the row lock.
func applySettlement(a Account, st settlement) (Account, bool, error) {
	if a.Coins < st.RequireCoins {
		return a, false, ErrInsufficientFunds
	}
	if a.Energy < st.RequireEnergy {
		return a, false, ErrInsufficientEnergy
	}
	if a.Coins+st.CoinsDelta < 0 {
		return a, false, ErrInsufficientFunds
	}

	a.Coins += st.CoinsDelta
	a.Energy = clampInt(a.Energy+st.EnergyDelta, 0, a.EnergyMax)
	a.Mood = clampInt(a.Mood+st.MoodDelta, 0, a.MoodMax)

	clearedAtMax := st.ClearAtMaxMood != "" && a.Mood >= a.MoodMax
	return a, clearedAtMax, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// settle runs one settlement to commit or full rollback.
func (s *Service) settle(ctx context.Context, st settlement) (Account, bool, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return Account{}, false, err
	}
	defer tx.Rollback(ctx)

	acct, err := scanAccountTx(ctx, tx, st.UserID, true)
	if err != nil {
		return Account{}, false, err
	}
	next, clearedAtMax, err := applySettlement(acct, st)
	if err != nil {
		return Account{}, false, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET coins = $1, energy = $2, mood = $3
		WHERE id = $4
	`, next.Coins, next.Energy, next.Mood, st.UserID); err != nil {
		return Account{}, false, err
	}

	for _, tr := range mergeTransitions(st.Apply) {
		if err := applyEffectTx(ctx, tx, st.UserID, tr); err != nil {
			return Account{}, false, err
		}
	}
	for _, kind := range st.Clear {
		if err := clearEffectTx(ctx, tx, st.UserID, kind); err != nil {
			return Account{}, false, err
		}
	}
	if clearedAtMax {
		if err := clearEffectTx(ctx, tx, st.UserID, st.ClearAtMaxMood); err != nil {
			return Account{}, false, err
		}
	}

	if st.CoinsDelta != 0 {
		if err := appendLedgerEntry(ctx, tx, st.UserID, st.Action, st.CoinsDelta); err != nil {
			return Account{}, false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Account{}, false, err
	}
	return next, clearedAtMax, nil
}

// Credit adds coins to an account atomically.
func (s *Service) Credit(ctx context.Context, userID, amount int64, action string) (Account, error) {
	if amount <= 0 {
		return Account{}, fmt.Errorf("%w: credit must be positive", ErrInvalidAmount)
	}
	acct, _, err := s.settle(ctx, settlement{UserID: userID, Action: action, CoinsDelta: amount})
	return acct, err
}

// Debit removes coins, failing with ErrInsufficientFunds rather than ever
// committing a negative balance.
func (s *Service) Debit(ctx context.Context, userID, amount int64, action string) (Account, error) {
	if amount <= 0 {
		return Account{}, fmt.Errorf("%w: debit must be positive", ErrInvalidAmount)
	}
	acct, _, err := s.settle(ctx, settlement{UserID: userID, Action: action, CoinsDelta: -amount, RequireCoins: amount})
	return acct, err
}

// splitTax divides a transfer into the tenant-fund cut and the net amount.
// tax + net == amount always holds; tax == floor(amount * rate).
func splitTax(amount int64, rate float64) (tax, net int64) {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	tax = int64(math.Floor(float64(amount) * rate))
	return tax, amount - tax
}

// transferWithTax debits the giver by amount, credits the receiver by the
// net and the guild fund by the tax, all in one transaction. The giver row
// lock is taken first and sufficiency re-checked under it. Retries on
// serialization failures and deadlocks the way concurrent row-lock traffic
// produces them.
func (s *Service) transferWithTax(ctx context.Context, guildID, giverID, receiverID, amount int64) (tax, net int64, err error) {
	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tax, net, err = s.transferWithTaxOnce(ctx, guildID, giverID, receiverID, amount)
		if err == nil || !isRetryableTxError(err) {
			return tax, net, err
		}
		if attempt == maxAttempts-1 {
			return 0, 0, err
		}
		if serr := sleepWithContext(ctx, retryDelay); serr != nil {
			return 0, 0, serr
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return tax, net, err
}

func (s *Service) transferWithTaxOnce(ctx context.Context, guildID, giverID, receiverID, amount int64) (int64, int64, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	rate, err := taxRateTx(ctx, tx, guildID)
	if err != nil {
		return 0, 0, err
	}
	tax, net := splitTax(amount, rate)

	giver, err := scanAccountTx(ctx, tx, giverID, true)
	if err != nil {
		return 0, 0, err
	}
	if giver.Coins < amount {
		return 0, 0, ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET coins = coins - $1 WHERE id = $2`, amount, giverID); err != nil {
		return 0, 0, err
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET coins = coins + $1 WHERE id = $2`, net, receiverID); err != nil {
		return 0, 0, err
	}
	if tax > 0 {
		if _, err := tx.Exec(ctx, `UPDATE guilds SET coins = coins + $1 WHERE id = $2`, tax, guildID); err != nil {
			return 0, 0, err
		}
	}
	if err := appendTransferEntries(ctx, tx, giverID, receiverID, amount, tax); err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return tax, net, nil
}

func taxRateTx(ctx context.Context, tx pgx.Tx, guildID int64) (float64, error) {
	var rate float64
	err := tx.QueryRow(ctx, `
		SELECT transfer_tax_rate FROM guild_config WHERE guild_id = $1
	`, guildID).Scan(&rate)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return rate, err
}

// appendLedgerEntry writes a double-entry pair for an action settled against
// a single account. Winnings appear and forfeits disappear against the
// counterparty account.
func appendLedgerEntry(ctx context.Context, tx pgx.Tx, userID int64, action string, delta int64) error {
	meta, _ := json.Marshal(map[string]any{"action": action})
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (tx_group_id, user_id, account, delta, metadata)
		VALUES
		($1, $2, 'wallet', $3, $5::jsonb),
		($1, $2, 'counterparty', $4, $5::jsonb)
	`, uuid.NewString(), userID, delta, -delta, string(meta))
	return err
}

func appendTransferEntries(ctx context.Context, tx pgx.Tx, giverID, receiverID, amount, tax int64) error {
	txID := uuid.NewString()
	meta, _ := json.Marshal(map[string]any{"action": "transfer"})
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (tx_group_id, user_id, account, delta, metadata)
		VALUES
		($1, $2, 'wallet', $4, $6::jsonb),
		($1, $3, 'wallet', $5, $6::jsonb)
	`, txID, giverID, receiverID, -amount, amount-tax, string(meta))
	if err != nil {
		return err
	}
	if tax > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO ledger_entries (tx_group_id, user_id, account, delta, metadata)
			VALUES ($1, $2, 'fund', $3, '{"action":"transfer_tax"}')
		`, txID, giverID, tax)
	}
	return err
}

package econ

import (
	"context"
	"errors"
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service owns the economy engine: the ledger, the effect state machine, the
// game engines and the anti-abuse caches. All balance mutations go through a
// single transaction with row locks on the affected balances.
type Service struct {
	db   *pgxpool.Pool
	log  *slog.Logger
	freq FrequencyCache

	mu   sync.Mutex
	rand *mathrand.Rand

	now func() time.Time

	pmu     sync.Mutex
	pending map[string]*TransferProposal
	scratch map[string]*scratchSession
	drops   map[string]*coinDropState
}

func NewService(db *pgxpool.Pool, logger *slog.Logger, freq FrequencyCache) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if freq == nil {
		freq = NewMemoryFrequencyCache()
	}
	return &Service{
		db:      db,
		log:     logger,
		freq:    freq,
		rand:    mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		pending: make(map[string]*TransferProposal),
		scratch: make(map[string]*scratchSession),
		drops:   make(map[string]*coinDropState),
	}
}

func (s *Service) nextFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

func (s *Service) nextIntn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Intn(n)
}

// EnsureAccount creates the users row on first action.
func (s *Service) EnsureAccount(ctx context.Context, userID int64) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, coins, energy, energy_max, mood, mood_max)
		VALUES ($1, 0, $2, $2, $3, $3)
		ON CONFLICT (id) DO NOTHING
	`, userID, StartingEnergy, StartingMood)
	return err
}

// EnsureGuild creates the guild fund and config rows lazily.
func (s *Service) EnsureGuild(ctx context.Context, guildID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO guilds (id, coins)
		VALUES ($1, 0)
		ON CONFLICT (id) DO NOTHING
	`, guildID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO guild_config (guild_id)
		VALUES ($1)
		ON CONFLICT (guild_id) DO NOTHING
	`, guildID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Sweep drops expired transfer proposals, scratch sessions and coin drops.
// Expiry mutates no balances; expired scratch bets and unclaimed drops were
// already debited when created.
func (s *Service) Sweep(now time.Time) {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	for token, p := range s.pending {
		if now.After(p.ExpiresAt) {
			delete(s.pending, token)
		}
	}
	for id, sess := range s.scratch {
		if now.After(sess.expiresAt) {
			delete(s.scratch, id)
		}
	}
	for id, d := range s.drops {
		if now.After(d.expiresAt) {
			delete(s.drops, id)
		}
	}
}

// IsDomainError reports whether err belongs to the expected, recoverable
// taxonomy the presentation layer renders directly. Anything else is treated
// as a store fault: logged, surfaced generically, retryable by the caller.
func IsDomainError(err error) bool {
	for _, e := range []error{
		ErrInvalidAmount, ErrInsufficientFunds, ErrInsufficientEnergy,
		ErrInvalidTarget, ErrInvalidGuess, ErrEffectBlocked,
		ErrConfirmationExpired, ErrAlreadyClaimed, ErrAlreadyRevealed,
		ErrBetTooSmall, ErrBetTooLarge, ErrAccountNotFound,
		ErrCardNotFound,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization failure or deadlock detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func scanAccountTx(ctx context.Context, tx pgx.Tx, userID int64, forUpdate bool) (Account, error) {
	q := `
		SELECT id, coins, energy, energy_max, mood, mood_max
		FROM users
		WHERE id = $1
	`
	if forUpdate {
		q += " FOR UPDATE"
	}
	var a Account
	err := tx.QueryRow(ctx, q, userID).Scan(&a.ID, &a.Coins, &a.Energy, &a.EnergyMax, &a.Mood, &a.MoodMax)
	if err == pgx.ErrNoRows {
		return a, ErrAccountNotFound
	}
	return a, err
}

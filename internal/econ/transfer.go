package econ

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProposeTransfer validates a peer-to-peer transfer and returns a short-lived
// confirmation token with the tax preview. Nothing is mutated until the
// proposal is confirmed.
func (s *Service) ProposeTransfer(ctx context.Context, guildID, giverID, receiverID int64, rawAmount string, receiverIsBot bool) (TransferProposal, error) {
	var out TransferProposal
	if receiverIsBot || receiverID == giverID {
		return out, ErrInvalidTarget
	}
	if err := s.EnsureAccount(ctx, giverID); err != nil {
		return out, err
	}
	if err := s.EnsureAccount(ctx, receiverID); err != nil {
		return out, err
	}
	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return out, err
	}

	var coins int64
	err := s.db.QueryRow(ctx, `SELECT coins FROM users WHERE id = $1`, giverID).Scan(&coins)
	if err == pgx.ErrNoRows {
		return out, ErrAccountNotFound
	}
	if err != nil {
		return out, err
	}

	amount, err := ParseAmount(rawAmount, coins)
	if err != nil {
		return out, err
	}
	if amount <= 0 {
		return out, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if amount > coins {
		return out, ErrInsufficientFunds
	}

	rate, err := s.TransferTaxRate(ctx, guildID)
	if err != nil {
		return out, err
	}
	tax, net := splitTax(amount, rate)

	out = TransferProposal{
		Token:      uuid.NewString(),
		GuildID:    guildID,
		GiverID:    giverID,
		ReceiverID: receiverID,
		Amount:     amount,
		Tax:        tax,
		Net:        net,
		ExpiresAt:  s.now().Add(TransferConfirmWindow),
	}
	s.pmu.Lock()
	s.pending[out.Token] = &out
	s.pmu.Unlock()
	return out, nil
}

// takePending removes and returns a live proposal. Single-use: a second take
// of the same token fails.
func (s *Service) takePending(token string, giverID int64, now time.Time) (*TransferProposal, error) {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	p, ok := s.pending[token]
	if !ok {
		return nil, ErrConfirmationExpired
	}
	if now.After(p.ExpiresAt) {
		delete(s.pending, token)
		return nil, ErrConfirmationExpired
	}
	if p.GiverID != giverID {
		return nil, ErrInvalidTarget
	}
	delete(s.pending, token)
	return p, nil
}

// ConfirmTransfer re-validates sufficiency under the giver's row lock and
// performs the taxed move atomically. The tax rate is re-read at confirm
// time, so the receipt may differ from the preview if an admin changed it.
func (s *Service) ConfirmTransfer(ctx context.Context, token string, giverID int64) (TransferReceipt, error) {
	var out TransferReceipt
	p, err := s.takePending(token, giverID, s.now())
	if err != nil {
		return out, err
	}
	tax, net, err := s.transferWithTax(ctx, p.GuildID, p.GiverID, p.ReceiverID, p.Amount)
	if err != nil {
		return out, err
	}
	return TransferReceipt{
		GiverID:    p.GiverID,
		ReceiverID: p.ReceiverID,
		Amount:     p.Amount,
		Tax:        tax,
		Net:        net,
	}, nil
}

// CancelTransfer withdraws a proposal; cancelled and expired proposals
// perform no mutation.
func (s *Service) CancelTransfer(token string, giverID int64) error {
	_, err := s.takePending(token, giverID, s.now())
	return err
}

type coinDropState struct {
	id        string
	dropperID int64
	amount    int64
	expiresAt time.Time
	claimed   bool
}

// DropCoins debits the dropper and leaves the amount up for grabs for
// DropClaimWindow. Unclaimed coins are gone when the window closes.
func (s *Service) DropCoins(ctx context.Context, userID int64, rawAmount string) (CoinDrop, error) {
	var out CoinDrop
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return out, err
	}

	var coins int64
	err := s.db.QueryRow(ctx, `SELECT coins FROM users WHERE id = $1`, userID).Scan(&coins)
	if err == pgx.ErrNoRows {
		return out, ErrAccountNotFound
	}
	if err != nil {
		return out, err
	}
	amount, err := ParseAmount(rawAmount, coins)
	if err != nil {
		return out, err
	}
	if amount <= 0 {
		return out, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	if _, err := s.Debit(ctx, userID, amount, "drop"); err != nil {
		return out, err
	}

	drop := &coinDropState{
		id:        uuid.NewString(),
		dropperID: userID,
		amount:    amount,
		expiresAt: s.now().Add(DropClaimWindow),
	}
	s.pmu.Lock()
	s.drops[drop.id] = drop
	s.pmu.Unlock()

	return CoinDrop{
		ID:        drop.id,
		DropperID: drop.dropperID,
		Amount:    drop.amount,
		ExpiresAt: drop.expiresAt,
	}, nil
}

// PickUpCoins credits the first claimer of a live drop. Exactly one claim
// succeeds.
func (s *Service) PickUpCoins(ctx context.Context, dropID string, claimerID int64) (int64, error) {
	s.pmu.Lock()
	d, ok := s.drops[dropID]
	if !ok {
		s.pmu.Unlock()
		return 0, ErrConfirmationExpired
	}
	if s.now().After(d.expiresAt) {
		delete(s.drops, dropID)
		s.pmu.Unlock()
		return 0, ErrConfirmationExpired
	}
	if d.claimed {
		s.pmu.Unlock()
		return 0, ErrAlreadyClaimed
	}
	d.claimed = true
	amount := d.amount
	delete(s.drops, dropID)
	s.pmu.Unlock()

	if err := s.EnsureAccount(ctx, claimerID); err != nil {
		return 0, err
	}
	if _, err := s.Credit(ctx, claimerID, amount, "pickup"); err != nil {
		return 0, err
	}
	return amount, nil
}

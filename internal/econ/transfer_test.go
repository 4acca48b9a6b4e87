package econ

import (
	"context"
	"errors"
	"testing"
	"time"
)

func frozenService(at time.Time) (*Service, *time.Time) {
	s := NewService(nil, nil, nil)
	now := at
	s.now = func() time.Time { return now }
	return s, &now
}

func TestTakePendingLifecycle(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, _ := frozenService(base)

	p := &TransferProposal{
		Token:      "tok",
		GiverID:    1,
		ReceiverID: 2,
		Amount:     500,
		ExpiresAt:  base.Add(TransferConfirmWindow),
	}
	s.pending[p.Token] = p

	// Wrong giver does not consume the token.
	if _, err := s.takePending("tok", 99, base); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("wrong giver: want ErrInvalidTarget, got %v", err)
	}

	got, err := s.takePending("tok", 1, base.Add(time.Second))
	if err != nil {
		t.Fatalf("live token rejected: %v", err)
	}
	if got.Amount != 500 {
		t.Fatalf("proposal amount = %d, want 500", got.Amount)
	}

	// Single use.
	if _, err := s.takePending("tok", 1, base); !errors.Is(err, ErrConfirmationExpired) {
		t.Fatalf("reused token: want ErrConfirmationExpired, got %v", err)
	}
}

func TestTakePendingExpiry(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, _ := frozenService(base)

	s.pending["tok"] = &TransferProposal{Token: "tok", GiverID: 1, ExpiresAt: base.Add(TransferConfirmWindow)}

	late := base.Add(TransferConfirmWindow + time.Second)
	if _, err := s.takePending("tok", 1, late); !errors.Is(err, ErrConfirmationExpired) {
		t.Fatalf("expired token: want ErrConfirmationExpired, got %v", err)
	}
	if len(s.pending) != 0 {
		t.Fatal("expired proposal left behind")
	}
}

func TestCancelTransfer(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, _ := frozenService(base)

	s.pending["tok"] = &TransferProposal{Token: "tok", GiverID: 1, ExpiresAt: base.Add(TransferConfirmWindow)}
	if err := s.CancelTransfer("tok", 1); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if len(s.pending) != 0 {
		t.Fatal("cancelled proposal still pending")
	}
}

func TestSweepDropsExpiredState(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, _ := frozenService(base)

	s.pending["live"] = &TransferProposal{Token: "live", ExpiresAt: base.Add(time.Minute)}
	s.pending["dead"] = &TransferProposal{Token: "dead", ExpiresAt: base.Add(-time.Minute)}
	s.scratch["dead"] = &scratchSession{id: "dead", expiresAt: base.Add(-time.Second)}
	s.drops["dead"] = &coinDropState{id: "dead", expiresAt: base.Add(-time.Second)}

	s.Sweep(base)

	if _, ok := s.pending["live"]; !ok {
		t.Fatal("live proposal swept")
	}
	if _, ok := s.pending["dead"]; ok {
		t.Fatal("expired proposal survived sweep")
	}
	if len(s.scratch) != 0 || len(s.drops) != 0 {
		t.Fatal("expired session state survived sweep")
	}
}

func TestRevealScratchBookkeeping(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, _ := frozenService(base)

	sess := &scratchSession{
		id:        "card",
		userID:    1,
		bet:       100,
		grid:      [3][3]int{{1, 2, 3}, {0, -1, -2}, {5, 10, 0}},
		expiresAt: base.Add(ScratchTimeout),
	}
	s.scratch[sess.id] = sess

	if _, err := s.RevealScratch(context.Background(), 2, "card", 0, 0); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("foreign reveal: want ErrInvalidTarget, got %v", err)
	}
	if _, err := s.RevealScratch(context.Background(), 1, "missing", 0, 0); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("unknown card: want ErrCardNotFound, got %v", err)
	}

	rev, err := s.RevealScratch(context.Background(), 1, "card", 0, 1)
	if err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if rev.Multiplier != 2 || rev.Remaining != 2 || rev.Done {
		t.Fatalf("unexpected reveal: %+v", rev)
	}

	if _, err := s.RevealScratch(context.Background(), 1, "card", 0, 1); !errors.Is(err, ErrAlreadyRevealed) {
		t.Fatalf("double reveal: want ErrAlreadyRevealed, got %v", err)
	}

	rev, err = s.RevealScratch(context.Background(), 1, "card", 2, 1)
	if err != nil {
		t.Fatalf("second reveal failed: %v", err)
	}
	if rev.Multiplier != 10 || rev.Remaining != 1 {
		t.Fatalf("unexpected second reveal: %+v", rev)
	}
}

func TestRevealScratchExpired(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, now := frozenService(base)

	s.scratch["card"] = &scratchSession{id: "card", userID: 1, bet: 100, expiresAt: base.Add(ScratchTimeout)}
	*now = base.Add(ScratchTimeout + time.Second)

	if _, err := s.RevealScratch(context.Background(), 1, "card", 0, 0); !errors.Is(err, ErrConfirmationExpired) {
		t.Fatalf("expired card: want ErrConfirmationExpired, got %v", err)
	}
	if len(s.scratch) != 0 {
		t.Fatal("expired session not removed")
	}
}

func TestPickUpCoinsSingleClaim(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, now := frozenService(base)

	s.drops["drop"] = &coinDropState{id: "drop", dropperID: 1, amount: 250, expiresAt: base.Add(DropClaimWindow)}

	// Expired drop claims nothing.
	*now = base.Add(DropClaimWindow + time.Second)
	if _, err := s.PickUpCoins(context.Background(), "drop", 2); !errors.Is(err, ErrConfirmationExpired) {
		t.Fatalf("expired drop: want ErrConfirmationExpired, got %v", err)
	}
	if _, err := s.PickUpCoins(context.Background(), "gone", 2); !errors.Is(err, ErrConfirmationExpired) {
		t.Fatalf("unknown drop: want ErrConfirmationExpired, got %v", err)
	}
}

func TestIsDomainError(t *testing.T) {
	if !IsDomainError(ErrInsufficientFunds) {
		t.Fatal("sentinel not recognized as domain error")
	}
	if IsDomainError(errors.New("connection refused")) {
		t.Fatal("store fault misclassified as domain error")
	}
}

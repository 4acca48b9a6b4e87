package bot

import (
	"fmt"
	"testing"

	"duckonomy/internal/econ"

	"github.com/bwmarrin/discordgo"
)

func TestScratchGridLayout(t *testing.T) {
	grid := scratchGrid("card-1")
	if len(grid) != 3 {
		t.Fatalf("grid has %d rows, want 3", len(grid))
	}
	seen := map[string]bool{}
	for r, comp := range grid {
		row, ok := comp.(discordgo.ActionsRow)
		if !ok {
			t.Fatalf("row %d is %T, want ActionsRow", r, comp)
		}
		if len(row.Components) != 3 {
			t.Fatalf("row %d has %d buttons, want 3", r, len(row.Components))
		}
		for c, inner := range row.Components {
			btn, ok := inner.(discordgo.Button)
			if !ok {
				t.Fatalf("cell %d,%d is %T, want Button", r, c, inner)
			}
			want := fmt.Sprintf("scratch:card-1:%d:%d", r, c)
			if btn.CustomID != want {
				t.Fatalf("cell %d,%d custom id = %q, want %q", r, c, btn.CustomID, want)
			}
			if seen[btn.CustomID] {
				t.Fatalf("duplicate custom id %q", btn.CustomID)
			}
			seen[btn.CustomID] = true
		}
	}
}

func TestMultiplierLabel(t *testing.T) {
	tests := []struct {
		m    int
		want string
	}{
		{10, "×10"},
		{2, "×2"},
		{0, "×0"},
		{-1, "-1"},
		{-2, "-2"},
	}
	for _, tc := range tests {
		if got := multiplierLabel(tc.m); got != tc.want {
			t.Fatalf("multiplierLabel(%d) = %q, want %q", tc.m, got, tc.want)
		}
	}
}

func TestErrBodyCoversSentinels(t *testing.T) {
	sentinels := []error{
		econ.ErrInsufficientFunds,
		econ.ErrInsufficientEnergy,
		econ.ErrEffectBlocked,
		econ.ErrInvalidAmount,
		econ.ErrInvalidTarget,
		econ.ErrInvalidGuess,
		econ.ErrBetTooSmall,
		econ.ErrBetTooLarge,
		econ.ErrConfirmationExpired,
		econ.ErrAlreadyClaimed,
		econ.ErrAlreadyRevealed,
		econ.ErrCardNotFound,
	}
	generic := errBody(fmt.Errorf("pq: connection reset"))
	for _, err := range sentinels {
		if body := errBody(err); body == generic {
			t.Fatalf("sentinel %v falls through to the generic message", err)
		}
	}
}

func TestParseSnowflake(t *testing.T) {
	id, err := parseSnowflake(" 123456789012345678 ")
	if err != nil {
		t.Fatalf("valid snowflake rejected: %v", err)
	}
	if id != 123456789012345678 {
		t.Fatalf("parsed %d", id)
	}
	if _, err := parseSnowflake("not-a-number"); err == nil {
		t.Fatal("garbage snowflake accepted")
	}
}

package econ

import "time"

// Account mirrors one users row.
type Account struct {
	ID        int64 `json:"id"`
	Coins     int64 `json:"coins"`
	Energy    int   `json:"energy"`
	EnergyMax int   `json:"energy_max"`
	Mood      int   `json:"mood"`
	MoodMax   int   `json:"mood_max"`
}

// Wager is a validated-by-the-caller stake. Cap is computed externally per
// account tier; the engine only enforces it.
type Wager struct {
	UserID int64
	Amount int64
	Cap    int64
}

// Outcome is the structured result every action hands back to the
// presentation layer. The engine never formats user-facing text.
type Outcome struct {
	Win            bool         `json:"win"`
	CoinsDelta     int64        `json:"coins_delta"`
	EnergyDelta    int          `json:"energy_delta"`
	MoodDelta      int          `json:"mood_delta"`
	AppliedEffects []EffectKind `json:"applied_effects,omitempty"`
	ClearedEffects []EffectKind `json:"cleared_effects,omitempty"`
	Balance        int64        `json:"balance"`
}

type SlotOutcome struct {
	Outcome
	Symbols    [3]string `json:"symbols"`
	Multiplier float64   `json:"multiplier"`
	Winnings   int64     `json:"winnings"`
}

type FlipOutcome struct {
	Outcome
	Guess  string `json:"guess"`
	Result string `json:"result"`
}

// ScratchCard is an open reveal session. The grid stays hidden from the
// caller until cells are revealed.
type ScratchCard struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Bet       int64     `json:"bet"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ScratchReveal struct {
	Row        int  `json:"row"`
	Col        int  `json:"col"`
	Multiplier int  `json:"multiplier"`
	Remaining  int  `json:"remaining"`
	Done       bool `json:"done"`

	// Final holds the settled result once three cells are revealed.
	Final *ScratchResult `json:"final,omitempty"`
}

type ScratchResult struct {
	Outcome
	Picks           []int `json:"picks"`
	TotalMultiplier int   `json:"total_multiplier"`
	Winnings        int64 `json:"winnings"`
}

type MaterialDrop struct {
	ItemID   int64  `json:"item_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type WorkOutcome struct {
	Outcome
	Reward        int64          `json:"reward"`
	ToolbeltBonus bool           `json:"toolbelt_bonus"`
	Motivated     bool           `json:"motivated"`
	Demoralized   bool           `json:"demoralized"`
	Materials     []MaterialDrop `json:"materials,omitempty"`
	FailureStreak int            `json:"failure_streak"`
}

// TransferProposal is the confirmation token handed back by ProposeTransfer.
type TransferProposal struct {
	Token      string    `json:"token"`
	GuildID    int64     `json:"guild_id"`
	GiverID    int64     `json:"giver_id"`
	ReceiverID int64     `json:"receiver_id"`
	Amount     int64     `json:"amount"`
	Tax        int64     `json:"tax"`
	Net        int64     `json:"net"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type TransferReceipt struct {
	GiverID    int64 `json:"giver_id"`
	ReceiverID int64 `json:"receiver_id"`
	Amount     int64 `json:"amount"`
	Tax        int64 `json:"tax"`
	Net        int64 `json:"net"`
}

// CoinDrop is a dropped pile of coins waiting for a claimer.
type CoinDrop struct {
	ID        string    `json:"id"`
	DropperID int64     `json:"dropper_id"`
	Amount    int64     `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AccountStatus struct {
	Account
	Effects       []ActiveEffect `json:"effects,omitempty"`
	InventoryLoad int64          `json:"inventory_load"`
}

type LeaderboardRow struct {
	Rank   int64 `json:"rank"`
	UserID int64 `json:"user_id"`
	Coins  int64 `json:"coins"`
}

// GuildConfig is a tenant's configuration row.
type GuildConfig struct {
	GuildID         int64   `json:"guild_id"`
	Prefix          string  `json:"prefix"`
	Locale          string  `json:"locale"`
	TransferTaxRate float64 `json:"transfer_tax_rate"`
	AllowRob        bool    `json:"allow_rob"`
}

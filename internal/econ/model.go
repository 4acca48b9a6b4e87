package econ

import (
	"errors"
	"time"
)

// BaseTick is the wall-clock length of one effect tick. Effect durations are
// stored in ticks; the ticker job decrements them once per BaseTick.
const BaseTick = 30 * time.Second

const (
	StartingEnergy = 100
	StartingMood   = 100

	WorkEnergyCost     = 10
	WorkRewardMin      = 200
	WorkRewardMax      = 800
	WorkMoodPenalty    = 5
	WorkFailureLimit   = 3
	LowEnergyThreshold = 10

	GameEnergyCost = 1
	SlotMoodWin    = 2
	SlotMoodLoss   = 1
	FlipMoodSwing  = 2
	ScratchMinBet  = 100
	ScratchPicks   = 3
	ScratchTimeout = 60 * time.Second

	OverworkWindow   = 5 * time.Minute
	OverworkDivisor  = 20
	AddictionDivisor = 40

	TransferConfirmWindow = 30 * time.Second
	DropClaimWindow       = 30 * time.Second
)

// Item ids referenced by the engine. Full inventory semantics live elsewhere;
// the engine only reads the toolbelt bonus and accumulates material drops.
const (
	ItemScrap    = 3
	ItemHerb     = 10
	ItemCoal     = 15
	ItemStone    = 18
	ItemWood     = 19
	ItemToolbelt = 26
)

var (
	ErrInvalidAmount       = errors.New("invalid amount expression")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientEnergy  = errors.New("insufficient energy")
	ErrInvalidTarget       = errors.New("invalid target")
	ErrInvalidGuess        = errors.New("guess must be heads or tails")
	ErrEffectBlocked       = errors.New("blocked by an active effect")
	ErrConfirmationExpired = errors.New("confirmation expired")
	ErrAlreadyClaimed      = errors.New("already claimed")
	ErrAlreadyRevealed     = errors.New("spot already revealed")
	ErrBetTooSmall         = errors.New("bet below minimum")
	ErrBetTooLarge         = errors.New("bet exceeds cap")
	ErrAccountNotFound     = errors.New("account not found")
	ErrCardNotFound        = errors.New("scratchcard not found")
)

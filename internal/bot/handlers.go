package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"duckonomy/internal/econ"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) handleWork(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	userID, _, err := interactionIDs(i)
	if err != nil {
		return err
	}
	out, err := b.econ.Work(ctx, userID)
	if err != nil {
		return err
	}

	var sb strings.Builder
	if out.Win {
		fmt.Fprintf(&sb, "You earned **%d** coins.", out.Reward)
		if out.ToolbeltBonus {
			sb.WriteString(" 🧰 Toolbelt bonus!")
		}
		for _, m := range out.Materials {
			fmt.Fprintf(&sb, "\nFound %d × %s.", m.Quantity, m.Name)
		}
	} else {
		sb.WriteString("The shift went badly. No pay this time.")
		if out.FailureStreak > 0 {
			fmt.Fprintf(&sb, " (%d in a row)", out.FailureStreak)
		}
	}
	for _, kind := range out.AppliedEffects {
		if def, ok := econ.EffectByKind(kind); ok {
			fmt.Fprintf(&sb, "\n%s You are now **%s**.", def.Icon, def.Name)
		}
	}
	fmt.Fprintf(&sb, "\nBalance: **%d**", out.Balance)

	return respondEmbed(s, i, resultEmbed("Work", sb.String(), out.Win))
}

func (b *Bot) handleBalance(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	userID, _, err := interactionIDs(i)
	if err != nil {
		return err
	}
	if target, ok := userOption(s, i, "user"); ok {
		userID, err = parseSnowflake(target.ID)
		if err != nil {
			return err
		}
	}
	if err := b.econ.EnsureAccount(ctx, userID); err != nil {
		return err
	}
	status, err := b.econ.AccountStatus(ctx, userID)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🪙 Coins: **%d**\n⚡ Energy: **%d/%d**\n😊 Mood: **%d/%d**\n📦 Inventory: **%d** items",
		status.Coins, status.Energy, status.EnergyMax, status.Mood, status.MoodMax, status.InventoryLoad)
	if len(status.Effects) > 0 {
		sb.WriteString("\n\nActive effects:")
		for _, e := range status.Effects {
			def, ok := econ.EffectByKind(e.Kind)
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "\n%s %s, %d ticks left", def.Icon, def.Name, e.Duration)
		}
	}
	return respondEmbed(s, i, resultEmbed(fmt.Sprintf("Account <@%d>", userID), sb.String(), true))
}

func (b *Bot) handleSlot(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	userID, _, err := interactionIDs(i)
	if err != nil {
		return err
	}
	w, err := b.resolveWager(ctx, i, userID, stringOption(i, "amount"))
	if err != nil {
		return err
	}
	out, err := b.econ.PlaySlots(ctx, w)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s\n", out.Symbols[0], out.Symbols[1], out.Symbols[2])
	if out.Win {
		fmt.Fprintf(&sb, "×%.1f payout, you win **%d**!", out.Multiplier, out.Winnings)
	} else {
		fmt.Fprintf(&sb, "No match, you lose **%d**.", w.Amount)
	}
	appendEffectLines(&sb, out.Outcome)
	fmt.Fprintf(&sb, "\nBalance: **%d**", out.Balance)
	return respondEmbed(s, i, resultEmbed("Slots", sb.String(), out.Win))
}

func (b *Bot) handleFlipbet(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	userID, _, err := interactionIDs(i)
	if err != nil {
		return err
	}
	guess := stringOption(i, "guess")
	w, err := b.resolveWager(ctx, i, userID, stringOption(i, "amount"))
	if err != nil {
		return err
	}
	out, err := b.econ.PlayCoinflip(ctx, w, guess)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "The coin lands on **%s**.\n", out.Result)
	if out.Win {
		fmt.Fprintf(&sb, "You called it, **+%d** coins!", w.Amount)
	} else {
		fmt.Fprintf(&sb, "Wrong call, **-%d** coins.", w.Amount)
	}
	appendEffectLines(&sb, out.Outcome)
	fmt.Fprintf(&sb, "\nBalance: **%d**", out.Balance)
	return respondEmbed(s, i, resultEmbed("Coin flip", sb.String(), out.Win))
}

func (b *Bot) handleScratchcard(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	userID, _, err := interactionIDs(i)
	if err != nil {
		return err
	}
	w, err := b.resolveWager(ctx, i, userID, stringOption(i, "amount"))
	if err != nil {
		return err
	}
	card, err := b.econ.StartScratch(ctx, w)
	if err != nil {
		return err
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{resultEmbed("Scratch card",
				fmt.Sprintf("Card bought for **%d** coins. Scratch %d cells!", card.Bet, econ.ScratchPicks), true)},
			Components: scratchGrid(card.ID),
		},
	})
}

func (b *Bot) handleGiveCoins(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	giverID, guildID, err := interactionIDs(i)
	if err != nil {
		return err
	}
	target, ok := userOption(s, i, "user")
	if !ok {
		return econ.ErrInvalidTarget
	}
	receiverID, err := parseSnowflake(target.ID)
	if err != nil {
		return err
	}
	p, err := b.econ.ProposeTransfer(ctx, guildID, giverID, receiverID, stringOption(i, "amount"), target.Bot)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Send **%d** coins to <@%d>?\nTax: **%d**, they receive **%d**.\nConfirm within %s.",
		p.Amount, p.ReceiverID, p.Tax, p.Net, econ.TransferConfirmWindow)
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{resultEmbed("Transfer", body, true)},
			Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Confirm", Style: discordgo.SuccessButton, CustomID: "transfer:confirm:" + p.Token},
				discordgo.Button{Label: "Cancel", Style: discordgo.DangerButton, CustomID: "transfer:cancel:" + p.Token},
			}}},
		},
	})
}

func (b *Bot) handleDropCoins(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	userID, _, err := interactionIDs(i)
	if err != nil {
		return err
	}
	drop, err := b.econ.DropCoins(ctx, userID, stringOption(i, "amount"))
	if err != nil {
		return err
	}

	body := fmt.Sprintf("<@%d> dropped **%d** coins! First to press the button keeps them.", drop.DropperID, drop.Amount)
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{resultEmbed("Coin drop", body, true)},
			Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Pick up", Style: discordgo.PrimaryButton, Emoji: &discordgo.ComponentEmoji{Name: "🪙"}, CustomID: "drop:" + drop.ID},
			}}},
		},
	})
}

func (b *Bot) handleFund(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, guildID, err := interactionIDs(i)
	if err != nil {
		return err
	}
	if err := b.econ.EnsureGuild(ctx, guildID); err != nil {
		return err
	}
	balance, err := b.econ.GuildFundBalance(ctx, guildID)
	if err != nil {
		return err
	}
	return respondEmbed(s, i, resultEmbed("Guild fund", fmt.Sprintf("The fund holds **%d** coins.", balance), true))
}

func (b *Bot) handleFundGive(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, guildID, err := interactionIDs(i)
	if err != nil {
		return err
	}
	target, ok := userOption(s, i, "user")
	if !ok || target.Bot {
		return econ.ErrInvalidTarget
	}
	targetID, err := parseSnowflake(target.ID)
	if err != nil {
		return err
	}
	moved, err := b.econ.FundGive(ctx, guildID, targetID, stringOption(i, "amount"))
	if err != nil {
		return err
	}
	return respondEmbed(s, i, resultEmbed("Guild fund",
		fmt.Sprintf("Paid **%d** coins from the fund to <@%d>.", moved, targetID), true))
}

func (b *Bot) handleFundDonate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	userID, guildID, err := interactionIDs(i)
	if err != nil {
		return err
	}
	moved, err := b.econ.FundDonate(ctx, guildID, userID, stringOption(i, "amount"))
	if err != nil {
		return err
	}
	return respondEmbed(s, i, resultEmbed("Guild fund",
		fmt.Sprintf("Donated **%d** coins to the fund. Thank you!", moved), true))
}

func (b *Bot) handleLeaderboard(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	rows, err := b.econ.Leaderboard(ctx, 10)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return respondEmbed(s, i, resultEmbed("Leaderboard", "No accounts yet.", true))
	}
	var sb strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&sb, "**#%d** <@%d>, %d coins\n", row.Rank, row.UserID, row.Coins)
	}
	return respondEmbed(s, i, resultEmbed("Leaderboard", sb.String(), true))
}

func (b *Bot) handleQuests(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	board, err := b.quests.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(board) == 0 {
		return respondEmbed(s, i, resultEmbed("Trade quests", "The board is empty right now.", true))
	}
	var sb strings.Builder
	for _, q := range board {
		fmt.Fprintf(&sb, "• Deliver **%d × %s** for **%d** coins\n", q.Quantity, q.ItemName, q.Reward)
	}
	return respondEmbed(s, i, resultEmbed("Trade quests", sb.String(), true))
}

func (b *Bot) handleTransferTax(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, guildID, err := interactionIDs(i)
	if err != nil {
		return err
	}
	if err := b.econ.EnsureGuild(ctx, guildID); err != nil {
		return err
	}
	if rate, ok := numberOption(i, "rate"); ok {
		applied, err := b.econ.SetTransferTaxRate(ctx, guildID, rate)
		if err != nil {
			return err
		}
		return respondEmbed(s, i, resultEmbed("Transfer tax",
			fmt.Sprintf("Transfer tax set to **%.0f%%**.", applied*100), true))
	}
	rate, err := b.econ.TransferTaxRate(ctx, guildID)
	if err != nil {
		return err
	}
	return respondEmbed(s, i, resultEmbed("Transfer tax",
		fmt.Sprintf("Current transfer tax is **%.0f%%**.", rate*100), true))
}

func (b *Bot) handleAllowRob(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, guildID, err := interactionIDs(i)
	if err != nil {
		return err
	}
	if err := b.econ.EnsureGuild(ctx, guildID); err != nil {
		return err
	}
	allowed, err := b.econ.ToggleRobAllowed(ctx, guildID)
	if err != nil {
		return err
	}
	state := "disabled"
	if allowed {
		state = "enabled"
	}
	return respondEmbed(s, i, resultEmbed("Robbing", fmt.Sprintf("Robbing is now **%s**.", state), true))
}

func (b *Bot) handleGuildSettings(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, guildID, err := interactionIDs(i)
	if err != nil {
		return err
	}
	if prefix := stringOption(i, "prefix"); prefix != "" {
		if err := b.econ.SetPrefix(ctx, guildID, prefix); err != nil {
			return err
		}
	}
	if locale := stringOption(i, "locale"); locale != "" {
		if err := b.econ.SetLocale(ctx, guildID, locale); err != nil {
			return err
		}
	}
	cfg, err := b.econ.GuildSettings(ctx, guildID)
	if err != nil {
		return err
	}
	rob := "off"
	if cfg.AllowRob {
		rob = "on"
	}
	body := fmt.Sprintf("Prefix: `%s`\nLocale: `%s`\nTransfer tax: **%.0f%%**\nRobbing: **%s**",
		cfg.Prefix, cfg.Locale, cfg.TransferTaxRate*100, rob)
	return respondEmbed(s, i, resultEmbed("Guild settings", body, true))
}

// resolveWager ensures the account exists, resolves amount shorthand against
// the current balance and attaches the bet cap for this member.
func (b *Bot) resolveWager(ctx context.Context, i *discordgo.InteractionCreate, userID int64, raw string) (econ.Wager, error) {
	if err := b.econ.EnsureAccount(ctx, userID); err != nil {
		return econ.Wager{}, err
	}
	status, err := b.econ.AccountStatus(ctx, userID)
	if err != nil {
		return econ.Wager{}, err
	}
	amount, err := econ.ParseAmount(raw, status.Coins)
	if err != nil {
		return econ.Wager{}, err
	}
	return econ.Wager{UserID: userID, Amount: amount, Cap: b.capFor(i)}, nil
}

func appendEffectLines(sb *strings.Builder, out econ.Outcome) {
	for _, kind := range out.AppliedEffects {
		if def, ok := econ.EffectByKind(kind); ok {
			fmt.Fprintf(sb, "\n%s You are now **%s**.", def.Icon, def.Name)
		}
	}
	for _, kind := range out.ClearedEffects {
		if def, ok := econ.EffectByKind(kind); ok {
			fmt.Fprintf(sb, "\n✨ **%s** wore off.", def.Name)
		}
	}
}

func parseSnowflake(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse snowflake %q: %w", raw, err)
	}
	return id, nil
}

func stringOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

func numberOption(i *discordgo.InteractionCreate, name string) (float64, bool) {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionNumber {
			return opt.FloatValue(), true
		}
	}
	return 0, false
}

func userOption(s *discordgo.Session, i *discordgo.InteractionCreate, name string) (*discordgo.User, bool) {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionUser {
			u := opt.UserValue(s)
			if u != nil {
				return u, true
			}
		}
	}
	return nil, false
}

func errBody(err error) string {
	switch {
	case errors.Is(err, econ.ErrInsufficientFunds):
		return "You don't have enough coins for that."
	case errors.Is(err, econ.ErrInsufficientEnergy):
		return "You're too tired. Rest a while and come back."
	case errors.Is(err, econ.ErrEffectBlocked):
		return "You're overworked. The boss sent you home."
	case errors.Is(err, econ.ErrInvalidAmount):
		return "That amount doesn't parse. Try a number, a percentage, `all` or `!keep`."
	case errors.Is(err, econ.ErrInvalidTarget):
		return "You can't do that with that target."
	case errors.Is(err, econ.ErrInvalidGuess):
		return "Call `heads` or `tails`."
	case errors.Is(err, econ.ErrBetTooSmall):
		return fmt.Sprintf("The minimum for that game is %d coins.", econ.ScratchMinBet)
	case errors.Is(err, econ.ErrBetTooLarge):
		return "That's over the table limit."
	case errors.Is(err, econ.ErrConfirmationExpired):
		return "Too slow! That offer has expired."
	case errors.Is(err, econ.ErrAlreadyClaimed):
		return "Someone beat you to it."
	case errors.Is(err, econ.ErrAlreadyRevealed):
		return "That cell is already scratched."
	case errors.Is(err, econ.ErrCardNotFound):
		return "That card is gone."
	default:
		return "Something went wrong. Try again in a moment."
	}
}

func (b *Bot) replyError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	if !econ.IsDomainError(err) {
		b.log.Error("interaction failed", "err", err)
	}
	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{resultEmbed("Oops", errBody(err), false)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	}
	if err := s.InteractionRespond(i.Interaction, resp); err != nil {
		b.log.Error("error reply failed", "err", err)
	}
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
}

const (
	colorWin  = 0x57f287
	colorLoss = 0xed4245
)

func resultEmbed(title, body string, win bool) *discordgo.MessageEmbed {
	color := colorLoss
	if win {
		color = colorWin
	}
	return &discordgo.MessageEmbed{Title: title, Description: body, Color: color}
}

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"duckonomy/internal/econ"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) handleTransferButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, id string) error {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) != 3 {
		return econ.ErrConfirmationExpired
	}
	action, token := parts[1], parts[2]

	presserID, _, err := interactionIDs(i)
	if err != nil {
		return err
	}

	switch action {
	case "confirm":
		receipt, err := b.econ.ConfirmTransfer(ctx, token, presserID)
		if err != nil {
			return err
		}
		body := fmt.Sprintf("<@%d> sent **%d** coins to <@%d>.\nTax collected: **%d**, received: **%d**.",
			receipt.GiverID, receipt.Amount, receipt.ReceiverID, receipt.Tax, receipt.Net)
		return updateMessage(s, i, resultEmbed("Transfer complete", body, true), nil)
	case "cancel":
		if err := b.econ.CancelTransfer(token, presserID); err != nil {
			return err
		}
		return updateMessage(s, i, resultEmbed("Transfer cancelled", "The offer was withdrawn.", false), nil)
	default:
		return econ.ErrConfirmationExpired
	}
}

func (b *Bot) handleDropButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, id string) error {
	dropID := strings.TrimPrefix(id, "drop:")
	claimerID, _, err := interactionIDs(i)
	if err != nil {
		return err
	}
	amount, err := b.econ.PickUpCoins(ctx, dropID, claimerID)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("<@%d> scooped up **%d** coins!", claimerID, amount)
	return updateMessage(s, i, resultEmbed("Coins claimed", body, true), nil)
}

func (b *Bot) handleScratchButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, id string) error {
	parts := strings.Split(id, ":")
	if len(parts) != 4 {
		return econ.ErrCardNotFound
	}
	cardID := parts[1]
	row, err1 := strconv.Atoi(parts[2])
	col, err2 := strconv.Atoi(parts[3])
	if err1 != nil || err2 != nil {
		return econ.ErrCardNotFound
	}

	userID, _, err := interactionIDs(i)
	if err != nil {
		return err
	}
	rev, err := b.econ.RevealScratch(ctx, userID, cardID, row, col)
	if err != nil {
		return err
	}

	components := revealCell(i.Message.Components, id, rev.Multiplier, rev.Done)
	if !rev.Done {
		body := fmt.Sprintf("Revealed **%s**. %d cells to go.", multiplierLabel(rev.Multiplier), rev.Remaining)
		return updateMessage(s, i, resultEmbed("Scratch card", body, true), components)
	}

	final := rev.Final
	var sb strings.Builder
	picks := make([]string, 0, len(final.Picks))
	for _, p := range final.Picks {
		picks = append(picks, multiplierLabel(p))
	}
	fmt.Fprintf(&sb, "Picks: %s\nTotal multiplier: **%d**\n", strings.Join(picks, " + "), final.TotalMultiplier)
	if final.Win {
		fmt.Fprintf(&sb, "You win **%d** coins!", final.Winnings)
	} else {
		sb.WriteString("The card is a dud. Better luck next time.")
	}
	appendEffectLines(&sb, final.Outcome)
	fmt.Fprintf(&sb, "\nBalance: **%d**", final.Balance)
	return updateMessage(s, i, resultEmbed("Scratch card", sb.String(), final.Win), components)
}

// scratchGrid builds the 3x3 button grid for a fresh card.
func scratchGrid(cardID string) []discordgo.MessageComponent {
	rows := make([]discordgo.MessageComponent, 0, 3)
	for r := 0; r < 3; r++ {
		buttons := make([]discordgo.MessageComponent, 0, 3)
		for c := 0; c < 3; c++ {
			buttons = append(buttons, discordgo.Button{
				Label:    "❓",
				Style:    discordgo.SecondaryButton,
				CustomID: fmt.Sprintf("scratch:%s:%d:%d", cardID, r, c),
			})
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}

// revealCell rewrites the existing grid, flipping the pressed button to its
// multiplier and, once the card is done, disabling everything.
func revealCell(existing []discordgo.MessageComponent, pressedID string, multiplier int, done bool) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(existing))
	for _, comp := range existing {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			out = append(out, comp)
			continue
		}
		buttons := make([]discordgo.MessageComponent, 0, len(row.Components))
		for _, inner := range row.Components {
			btn, ok := inner.(*discordgo.Button)
			if !ok {
				buttons = append(buttons, inner)
				continue
			}
			next := *btn
			if next.CustomID == pressedID {
				next.Label = multiplierLabel(multiplier)
				next.Disabled = true
				if multiplier > 0 {
					next.Style = discordgo.SuccessButton
				} else {
					next.Style = discordgo.DangerButton
				}
			}
			if done {
				next.Disabled = true
			}
			buttons = append(buttons, next)
		}
		out = append(out, discordgo.ActionsRow{Components: buttons})
	}
	return out
}

func multiplierLabel(m int) string {
	if m < 0 {
		return strconv.Itoa(m)
	}
	return "×" + strconv.Itoa(m)
}

func updateMessage(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"duckonomy/internal/econ"
	"duckonomy/internal/quests"

	"github.com/bwmarrin/discordgo"
)

// Bot wires the Discord gateway to the economy engine. It owns no game
// rules: every action is a thin translation from an interaction to an
// engine call and from the outcome back to an embed.
type Bot struct {
	log     *slog.Logger
	econ    *econ.Service
	quests  *quests.Generator
	session *discordgo.Session

	defaultCap int64
	boostedCap int64
}

func New(token string, logger *slog.Logger, econSvc *econ.Service, questGen *quests.Generator, defaultCap, boostedCap int64) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	b := &Bot{
		log:        logger,
		econ:       econSvc,
		quests:     questGen,
		session:    session,
		defaultCap: defaultCap,
		boostedCap: boostedCap,
	}
	session.AddHandler(b.onInteraction)
	return b, nil
}

// Run opens the gateway, registers the command set and blocks until the
// context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	defer b.session.Close()

	appID := b.session.State.User.ID
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, "", commands); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	b.log.Info("bot ready", "user", b.session.State.User.Username, "commands", len(commands))

	<-ctx.Done()
	return nil
}

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "work",
		Description: "Put in a shift and earn coins",
	},
	{
		Name:        "balance",
		Description: "Show an account's coins, energy, mood and active effects",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Another member's account"},
		},
	},
	{
		Name:        "slot",
		Description: "Spin the slot machine",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "amount", Description: "Wager (number, %, all or !keep)", Required: true},
		},
	},
	{
		Name:        "flipbet",
		Description: "Bet on a coin flip",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type: discordgo.ApplicationCommandOptionString, Name: "guess", Description: "heads or tails", Required: true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "heads", Value: "heads"},
					{Name: "tails", Value: "tails"},
				},
			},
			{Type: discordgo.ApplicationCommandOptionString, Name: "amount", Description: "Wager (number, %, all or !keep)", Required: true},
		},
	},
	{
		Name:        "scratchcard",
		Description: "Buy a scratch card and reveal three cells",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "amount", Description: "Card price, minimum 100", Required: true},
		},
	},
	{
		Name:        "give-coins",
		Description: "Offer coins to another member",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Receiver", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "amount", Description: "Amount (number, %, all or !keep)", Required: true},
		},
	},
	{
		Name:        "drop-coins",
		Description: "Drop coins for anyone in the channel to pick up",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "amount", Description: "Amount (number, %, all or !keep)", Required: true},
		},
	},
	{
		Name:        "fund",
		Description: "Show the guild fund balance",
	},
	{
		Name:        "fund-give",
		Description: "Pay out guild fund coins to a member",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Receiver", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "amount", Description: "Amount (number, %, all)", Required: true},
		},
		DefaultMemberPermissions: adminPermission(),
	},
	{
		Name:        "fund-donate",
		Description: "Donate your coins to the guild fund",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "amount", Description: "Amount (number, %, all or !keep)", Required: true},
		},
	},
	{
		Name:        "leaderboard",
		Description: "Top balances across all accounts",
	},
	{
		Name:        "quests",
		Description: "Show the current trade quest board",
	},
	{
		Name:        "transfer-tax",
		Description: "Show or change this guild's transfer tax rate",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionNumber, Name: "rate", Description: "New rate between 0 and 1"},
		},
		DefaultMemberPermissions: adminPermission(),
	},
	{
		Name:                     "allow-rob",
		Description:              "Toggle whether robbing is allowed in this guild",
		DefaultMemberPermissions: adminPermission(),
	},
	{
		Name:        "guild-settings",
		Description: "Show this guild's settings, optionally changing prefix or locale",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "prefix", Description: "New command prefix"},
			{Type: discordgo.ApplicationCommandOptionString, Name: "locale", Description: "New locale code, e.g. en"},
		},
		DefaultMemberPermissions: adminPermission(),
	},
}

func adminPermission() *int64 {
	p := int64(discordgo.PermissionAdministrator)
	return &p
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.dispatchCommand(ctx, s, i)
	case discordgo.InteractionMessageComponent:
		b.dispatchComponent(ctx, s, i)
	}
}

func (b *Bot) dispatchCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	var err error
	switch data.Name {
	case "work":
		err = b.handleWork(ctx, s, i)
	case "balance":
		err = b.handleBalance(ctx, s, i)
	case "slot":
		err = b.handleSlot(ctx, s, i)
	case "flipbet":
		err = b.handleFlipbet(ctx, s, i)
	case "scratchcard":
		err = b.handleScratchcard(ctx, s, i)
	case "give-coins":
		err = b.handleGiveCoins(ctx, s, i)
	case "drop-coins":
		err = b.handleDropCoins(ctx, s, i)
	case "fund":
		err = b.handleFund(ctx, s, i)
	case "fund-give":
		err = b.handleFundGive(ctx, s, i)
	case "fund-donate":
		err = b.handleFundDonate(ctx, s, i)
	case "leaderboard":
		err = b.handleLeaderboard(ctx, s, i)
	case "quests":
		err = b.handleQuests(ctx, s, i)
	case "transfer-tax":
		err = b.handleTransferTax(ctx, s, i)
	case "allow-rob":
		err = b.handleAllowRob(ctx, s, i)
	case "guild-settings":
		err = b.handleGuildSettings(ctx, s, i)
	default:
		return
	}
	if err != nil {
		b.replyError(s, i, err)
	}
}

func (b *Bot) dispatchComponent(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	id := i.MessageComponentData().CustomID
	var err error
	switch {
	case strings.HasPrefix(id, "transfer:"):
		err = b.handleTransferButton(ctx, s, i, id)
	case strings.HasPrefix(id, "drop:"):
		err = b.handleDropButton(ctx, s, i, id)
	case strings.HasPrefix(id, "scratch:"):
		err = b.handleScratchButton(ctx, s, i, id)
	default:
		return
	}
	if err != nil {
		b.replyError(s, i, err)
	}
}

// interactionIDs resolves the acting user and guild snowflakes. Snowflakes
// arrive as decimal strings; the engine keys everything by int64.
func interactionIDs(i *discordgo.InteractionCreate) (userID, guildID int64, err error) {
	var raw string
	if i.Member != nil && i.Member.User != nil {
		raw = i.Member.User.ID
	} else if i.User != nil {
		raw = i.User.ID
	}
	userID, err = parseSnowflake(raw)
	if err != nil {
		return 0, 0, err
	}
	if i.GuildID != "" {
		guildID, err = parseSnowflake(i.GuildID)
		if err != nil {
			return 0, 0, err
		}
	}
	return userID, guildID, nil
}

// capFor picks the bet cap: members boosting the guild play with the raised
// table limit.
func (b *Bot) capFor(i *discordgo.InteractionCreate) int64 {
	if i.Member != nil && i.Member.PremiumSince != nil {
		return b.boostedCap
	}
	return b.defaultCap
}

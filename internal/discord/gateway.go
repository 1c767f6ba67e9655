package discord

import (
	"context"
	"fmt"
	"heist-bot/internal/config"
	"heist-bot/internal/constants"
	"heist-bot/internal/resolver"
	"heist-bot/internal/server"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

func Commands() []*discordgo.ApplicationCommand {
	targetOption := func(required bool) []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "target",
			Description: "The user to target",
			Required:    required,
		}}
	}
	return []*discordgo.ApplicationCommand{
		{Name: "woozie", Description: "Rob someone with your woozie", Options: targetOption(false)},
		{Name: "plock", Description: "Rob someone with your glock", Options: targetOption(false)},
		{Name: "fight", Description: "Challenge someone to a fight", Options: targetOption(true)},
	}
}

// Gateway connects to Discord and routes interactions to the bot.
type Gateway struct {
	session *discordgo.Session
	bot     *server.Bot
	guildID string
	logger  zerolog.Logger
}

func NewGateway(session *discordgo.Session, bot *server.Bot, cfg *config.Config, logger zerolog.Logger) *Gateway {
	return &Gateway{
		session: session,
		bot:     bot,
		guildID: cfg.GuildID,
		logger:  logger.With().Str("component", "gateway").Logger(),
	}
}

func (g *Gateway) Open() error {
	g.session.AddHandler(g.onReady)
	g.session.AddHandler(g.onInteraction)

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	cmds, err := g.session.ApplicationCommandBulkOverwrite(g.session.State.User.ID, g.guildID, Commands())
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	g.logger.Info().Int("commands", len(cmds)).Str("guild_id", g.guildID).Msg("commands registered")
	return nil
}

func (g *Gateway) Close() error {
	return g.session.Close()
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	g.logger.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("connected to discord")
}

func (g *Gateway) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	out := newResponder(s, i.Interaction)

	if i.GuildID == "" || i.Member == nil {
		_ = out.Notify(ctx, "❌ This only works inside a server.")
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		g.handleCommand(ctx, s, i, out)
	case discordgo.InteractionMessageComponent:
		g.handleComponent(ctx, s, i, out)
	case discordgo.InteractionModalSubmit:
		g.handleModal(ctx, s, i, out)
	}
}

func (g *Gateway) handleCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, out *responder) {
	data := i.ApplicationCommandData()
	inv, err := g.invocation(ctx, s, i, data.Name)
	if err != nil {
		g.logger.Error().Err(err).Str("command", data.Name).Msg("failed to build invocation")
		_ = out.Notify(ctx, "❌ An unexpected error occurred. Please try again later.")
		return
	}

	for _, opt := range data.Options {
		if opt.Name != "target" || opt.Type != discordgo.ApplicationCommandOptionUser {
			continue
		}
		id, _ := opt.Value.(string)
		if data.Resolved == nil || data.Resolved.Users[id] == nil {
			continue
		}
		names, err := roleNames(ctx, s, i.GuildID)
		if err != nil {
			g.logger.Warn().Err(err).Msg("failed to resolve role names")
		}
		target := toMember(data.Resolved.Users[id], data.Resolved.Members[id], names)
		inv.Target = &target
	}

	if v, ok := resolver.VariantForCommand(data.Name); ok {
		if err := out.Defer(ctx); err != nil {
			g.logger.Warn().Err(err).Msg("failed to defer response")
		}
		g.bot.Rob(ctx, v, inv, out)
		return
	}
	if data.Name == "fight" {
		g.bot.Fight(ctx, inv, out)
	}
}

func (g *Gateway) handleComponent(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, out *responder) {
	customID := i.MessageComponentData().CustomID
	duelID := i.Message.ID

	switch {
	case customID == acceptButtonID:
		if err := out.Defer(ctx); err != nil {
			g.logger.Warn().Err(err).Msg("failed to defer response")
		}
		inv, err := g.invocation(ctx, s, i, "accept")
		if err != nil {
			g.logger.Error().Err(err).Msg("failed to build invocation")
			_ = out.Notify(ctx, "❌ An unexpected error occurred. Please try again later.")
			return
		}
		g.bot.AcceptFight(ctx, inv, duelID, out)

	case strings.HasPrefix(customID, betButtonPrefix):
		if err := g.bot.CanBet(duelID); err != nil {
			_ = out.Notify(ctx, "❌ "+capitalize(err.Error())+".")
			return
		}
		fighterID := strings.TrimPrefix(customID, betButtonPrefix)
		if err := s.InteractionRespond(i.Interaction, betModal(duelID, fighterID), discordgo.WithContext(ctx)); err != nil {
			g.logger.Warn().Err(err).Str("duel_id", duelID).Msg("failed to open bet modal")
		}
	}
}

func (g *Gateway) handleModal(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, out *responder) {
	data := i.ModalSubmitData()
	duelID, fighterID, ok := parseBetModalID(data.CustomID)
	if !ok {
		g.logger.Warn().Str("custom_id", data.CustomID).Msg("unknown modal")
		return
	}

	inv, err := g.invocation(ctx, s, i, "bet")
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to build invocation")
		return
	}
	if err := out.Defer(ctx); err != nil {
		g.logger.Warn().Err(err).Msg("failed to defer response")
	}
	g.bot.Bet(ctx, inv, duelID, fighterID, modalValue(data, betAmountInput), out)
}

func (g *Gateway) invocation(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, command string) (server.Invocation, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.NotifyTimeout)
	defer cancel()

	names, err := roleNames(ctx, s, i.GuildID)
	if err != nil {
		return server.Invocation{}, err
	}
	return server.Invocation{
		Command:   command,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Actor:     toMember(nil, i.Member, names),
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

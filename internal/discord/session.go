package discord

import (
	"context"
	"fmt"
	"heist-bot/internal/config"
	"heist-bot/internal/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

func NewSession(cfg *config.Config, logger zerolog.Logger) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	s.StateEnabled = true

	logger.Debug().Msg("discord session created")
	return s, nil
}

// roleNames resolves the guild's role ids to names, preferring the gateway
// state cache over a REST call.
func roleNames(ctx context.Context, s *discordgo.Session, guildID string) (map[string]string, error) {
	var roles []*discordgo.Role
	if g, err := s.State.Guild(guildID); err == nil {
		roles = g.Roles
	}
	if len(roles) == 0 {
		fetched, err := s.GuildRoles(guildID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch roles: %w", err)
		}
		roles = fetched
	}

	names := make(map[string]string, len(roles))
	for _, r := range roles {
		names[r.ID] = r.Name
	}
	return names, nil
}

func toMember(u *discordgo.User, m *discordgo.Member, names map[string]string) domain.Member {
	if u == nil && m != nil {
		u = m.User
	}
	out := domain.Member{}
	if u == nil {
		return out
	}

	out.ID = u.ID
	out.Mention = u.Mention()
	out.Bot = u.Bot
	out.DisplayName = u.Username
	if u.GlobalName != "" {
		out.DisplayName = u.GlobalName
	}

	if m != nil {
		if m.Nick != "" {
			out.DisplayName = m.Nick
		}
		for _, id := range m.Roles {
			if name, ok := names[id]; ok {
				out.Roles = append(out.Roles, name)
			}
		}
	}
	return out
}

package discord

import (
	"context"
	"fmt"
	"heist-bot/internal/domain"

	"github.com/bwmarrin/discordgo"
)

const memberPageSize = 1000

// Directory lists guild members for random target selection.
type Directory struct {
	session *discordgo.Session
}

func NewDirectory(session *discordgo.Session) *Directory {
	return &Directory{session: session}
}

func (d *Directory) Members(ctx context.Context, guildID string) ([]domain.Member, error) {
	names, err := roleNames(ctx, d.session, guildID)
	if err != nil {
		return nil, err
	}

	var out []domain.Member
	after := ""
	for {
		page, err := d.session.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list guild members: %w", err)
		}
		for _, m := range page {
			out = append(out, toMember(nil, m, names))
		}
		if len(page) < memberPageSize {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Announcer posts duel messages that are not replies to an interaction.
type Announcer struct {
	session *discordgo.Session
}

func NewAnnouncer(session *discordgo.Session) *Announcer {
	return &Announcer{session: session}
}

func (a *Announcer) Announce(ctx context.Context, channelID, content string) error {
	_, err := a.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

// CloseChallenge replaces the challenge text and removes its buttons.
func (a *Announcer) CloseChallenge(ctx context.Context, channelID, messageID, content string) error {
	_, err := a.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Content:    &content,
		Components: &[]discordgo.MessageComponent{},
	}, discordgo.WithContext(ctx))
	return err
}

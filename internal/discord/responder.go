package discord

import (
	"context"
	"heist-bot/internal/domain"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// responder answers one interaction. The first public message becomes the
// interaction response, later ones are follow-ups.
type responder struct {
	session *discordgo.Session
	i       *discordgo.Interaction

	mu        sync.Mutex
	deferred  bool
	responded bool
}

func newResponder(s *discordgo.Session, i *discordgo.Interaction) *responder {
	return &responder{session: s, i: i}
}

// Defer acknowledges the interaction so slow ledger calls do not run into
// the three second response deadline.
func (r *responder) Defer(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deferred || r.responded {
		return nil
	}
	err := r.session.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err == nil {
		r.deferred = true
	}
	return err
}

func (r *responder) Respond(ctx context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.responded:
		return r.followUp(ctx, content, 0)
	case r.deferred:
		if _, err := r.session.InteractionResponseEdit(r.i, &discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	default:
		if err := r.session.InteractionRespond(r.i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: content},
		}, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	r.responded = true
	return nil
}

func (r *responder) FollowUp(ctx context.Context, content string) error {
	r.mu.Lock()
	responded := r.responded
	r.mu.Unlock()
	if !responded {
		return r.Respond(ctx, content)
	}
	return r.followUp(ctx, content, 0)
}

// Notify sends an ephemeral notice. A pending deferred response is removed
// so the notice is the only thing the user sees.
func (r *responder) Notify(ctx context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.responded:
		return r.followUp(ctx, content, discordgo.MessageFlagsEphemeral)
	case r.deferred:
		if err := r.session.InteractionResponseDelete(r.i, discordgo.WithContext(ctx)); err != nil {
			return err
		}
		r.responded = true
		return r.followUp(ctx, content, discordgo.MessageFlagsEphemeral)
	default:
		r.responded = true
		return r.session.InteractionRespond(r.i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: content,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		}, discordgo.WithContext(ctx))
	}
}

// PostChallenge responds with the challenge message and its buttons and
// returns the id of that message.
func (r *responder) PostChallenge(ctx context.Context, content string, challenger, target domain.Member) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.session.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: challengeComponents(challenger, target),
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	r.responded = true

	msg, err := r.session.InteractionResponse(r.i, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (r *responder) followUp(ctx context.Context, content string, flags discordgo.MessageFlags) error {
	_, err := r.session.FollowupMessageCreate(r.i, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   flags,
	}, discordgo.WithContext(ctx))
	return err
}

package discord

import (
	"fmt"
	"heist-bot/internal/domain"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	acceptButtonID  = "duel_accept"
	betButtonPrefix = "duel_bet:"
	betModalPrefix  = "duel_bet_modal:"
	betAmountInput  = "amount"
)

func challengeComponents(challenger, target domain.Member) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Accept Fight", Style: discordgo.SuccessButton, CustomID: acceptButtonID},
			discordgo.Button{Label: "Bet on " + challenger.DisplayName, Style: discordgo.PrimaryButton, CustomID: betButtonPrefix + challenger.ID},
			discordgo.Button{Label: "Bet on " + target.DisplayName, Style: discordgo.PrimaryButton, CustomID: betButtonPrefix + target.ID},
		}},
	}
}

func betModal(duelID, fighterID string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: fmt.Sprintf("%s%s:%s", betModalPrefix, duelID, fighterID),
			Title:    "Place your bet",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    betAmountInput,
						Label:       "Bet amount",
						Style:       discordgo.TextInputShort,
						Placeholder: "Enter amount to bet",
						MinLength:   1,
						MaxLength:   20,
					},
				}},
			},
		},
	}
}

// parseBetModalID splits "duel_bet_modal:<duel id>:<fighter id>".
func parseBetModalID(customID string) (duelID, fighterID string, ok bool) {
	rest, found := strings.CutPrefix(customID, betModalPrefix)
	if !found {
		return "", "", false
	}
	duelID, fighterID, ok = strings.Cut(rest, ":")
	if !ok || duelID == "" || fighterID == "" {
		return "", "", false
	}
	return duelID, fighterID, true
}

func modalValue(data discordgo.ModalSubmitInteractionData, id string) string {
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok && input.CustomID == id {
				return input.Value
			}
		}
	}
	return ""
}

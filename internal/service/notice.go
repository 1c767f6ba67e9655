package service

import (
	"errors"
	"fmt"
	"heist-bot/internal/api"
	"math"
)

// FailureNotice turns a ledger error into the message shown to players.
func FailureNotice(err error) string {
	var rateLimit *api.RateLimitError
	var status *api.StatusError
	var network *api.NetworkError

	switch {
	case errors.As(err, &rateLimit):
		secs := int(math.Ceil(rateLimit.RetryAfter.Seconds()))
		return fmt.Sprintf("⏳ The bank is handling too many requests. Try again in %ds.", secs)
	case errors.Is(err, api.ErrUnauthorized):
		return "❌ The bank rejected the bot's credentials. An admin needs to check the API token."
	case errors.Is(err, api.ErrForbidden):
		return "❌ The bot isn't allowed to manage balances in this server."
	case api.IsTimeout(err):
		return "⌛ The bank took too long to answer. Try again shortly."
	case errors.As(err, &network):
		return "❌ Couldn't reach the bank. Try again shortly."
	case errors.As(err, &status):
		return fmt.Sprintf("❌ The bank returned an error (%d).", status.Status)
	default:
		return "❌ Something went wrong while updating balances."
	}
}

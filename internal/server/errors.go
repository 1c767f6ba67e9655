package server

import (
	"errors"
	"heist-bot/internal/api"
)

func isLedgerError(err error) bool {
	var rateLimit *api.RateLimitError
	var status *api.StatusError
	var network *api.NetworkError
	return errors.As(err, &rateLimit) ||
		errors.As(err, &status) ||
		errors.As(err, &network) ||
		errors.Is(err, api.ErrUnauthorized) ||
		errors.Is(err, api.ErrForbidden)
}

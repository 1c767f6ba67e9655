package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"heist-bot/internal/config"
	"heist-bot/internal/constants"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// LedgerClient talks to the external economy service. Every call is attempted
// exactly once; a retried debit could charge twice.
type LedgerClient struct {
	baseURL     string
	token       string
	client      *fasthttp.Client
	logger      zerolog.Logger
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`

	// milliseconds until reset, as reported by the API
	Reset int64 `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

type UserBalance struct {
	Rank  string `json:"rank"`
	Cash  int64  `json:"cash"`
	Bank  int64  `json:"bank"`
	Total int64  `json:"total"`
}

type patchBody struct {
	Cash int64 `json:"cash"`
}

func NewLedgerClient(cfg *config.Config, logger zerolog.Logger) *LedgerClient {
	timeout := cfg.LedgerTimeout
	if timeout <= 0 {
		timeout = constants.ExternalAPITimeout
	}
	return newLedgerClient(cfg.LedgerBaseURL, cfg.LedgerToken, &fasthttp.Client{
		MaxConnsPerHost:     50,
		ReadTimeout:         timeout,
		WriteTimeout:        timeout,
		MaxIdleConnDuration: 1 * time.Minute,
	}, logger)
}

func newLedgerClient(baseURL, token string, client *fasthttp.Client, logger zerolog.Logger) *LedgerClient {
	return &LedgerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
		logger:  logger.With().Str("component", "ledger").Logger(),
	}
}

func (c *LedgerClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *LedgerClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("X-RateLimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-RateLimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-RateLimit-Reset")); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// GetBalance returns the user's cash balance.
func (c *LedgerClient) GetBalance(ctx context.Context, guildID, userID string) (int64, error) {
	c.logger.Debug().Str("guild_id", guildID).Str("user_id", userID).Msg("getting balance")

	res, err := doRequest[UserBalance](ctx, c, fasthttp.MethodGet, c.userURL(guildID, userID), nil)
	if err != nil {
		c.logger.Warn().Err(err).Str("guild_id", guildID).Str("user_id", userID).Msg("get balance failed")
		return 0, err
	}
	return res.Cash, nil
}

// AdjustBalance applies a signed cash delta and returns the new cash balance.
func (c *LedgerClient) AdjustBalance(ctx context.Context, guildID, userID string, delta int64) (int64, error) {
	c.logger.Info().Str("guild_id", guildID).Str("user_id", userID).Int64("delta", delta).Msg("adjusting balance")

	body, err := json.Marshal(patchBody{Cash: delta})
	if err != nil {
		return 0, err
	}

	res, err := doRequest[UserBalance](ctx, c, fasthttp.MethodPatch, c.userURL(guildID, userID), body)
	if err != nil {
		c.logger.Warn().Err(err).Str("guild_id", guildID).Str("user_id", userID).Int64("delta", delta).Msg("adjust balance failed")
		return 0, err
	}

	c.logger.Info().Str("user_id", userID).Int64("cash", res.Cash).Msg("balance adjusted")
	return res.Cash, nil
}

func (c *LedgerClient) userURL(guildID, userID string) string {
	return fmt.Sprintf("%s/guilds/%s/users/%s", c.baseURL, url.PathEscape(guildID), url.PathEscape(userID))
}

func doRequest[T any](ctx context.Context, client *LedgerClient, method, url string, body []byte) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", client.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{Timeout: errors.Is(err, context.DeadlineExceeded), Err: err}
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = client.client.DoDeadline(req, resp, deadline)
	} else {
		err = client.client.Do(req, resp)
	}
	if err != nil {
		return nil, &NetworkError{Timeout: isTimeout(err), Err: err}
	}

	client.updateRateLimit(resp)

	switch status := resp.StatusCode(); status {
	case fasthttp.StatusOK:
	case fasthttp.StatusTooManyRequests:
		info := client.GetRateLimitInfo()
		client.logger.Warn().
			Int("limit", info.Limit).
			Int("remaining", info.Remaining).
			Int64("reset_ms", info.Reset).
			Msg("rate limited")
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(string(resp.Header.Peek("Retry-After")))}
	case fasthttp.StatusUnauthorized:
		return nil, ErrUnauthorized
	case fasthttp.StatusForbidden:
		return nil, ErrForbidden
	default:
		return nil, &StatusError{Status: status, Body: string(resp.Body())}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("ledger: decode response: %w", err)
	}
	return &result, nil
}

func isTimeout(err error) bool {
	return errors.Is(err, fasthttp.ErrTimeout) ||
		errors.Is(err, fasthttp.ErrDialTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

// parseRetryAfter accepts seconds, possibly fractional.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return constants.DefaultRetryAfter
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return constants.DefaultRetryAfter
	}
	return time.Duration(secs * float64(time.Second))
}

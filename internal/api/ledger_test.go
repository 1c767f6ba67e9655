package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler) *LedgerClient {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	return newLedgerClient("http://ledger.test/api/v1/", "secret-token", &fasthttp.Client{
		Dial:         func(string) (net.Conn, error) { return ln.Dial() },
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}, zerolog.Nop())
}

func TestLedgerClient_GetBalance(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, fasthttp.MethodGet, string(ctx.Method()))
		assert.Equal(t, "/api/v1/guilds/g1/users/u1", string(ctx.Path()))
		assert.Equal(t, "secret-token", string(ctx.Request.Header.Peek("Authorization")))
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString(`{"rank":"3","cash":5000,"bank":10,"total":5010}`)
	})

	balance, err := client.GetBalance(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)
}

func TestLedgerClient_GetBalanceIsStable(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"cash":1234}`)
	})

	first, err := client.GetBalance(context.Background(), "g1", "u1")
	require.NoError(t, err)
	second, err := client.GetBalance(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLedgerClient_AdjustBalanceSendsSignedDelta(t *testing.T) {
	var got []int64
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, fasthttp.MethodPatch, string(ctx.Method()))
		assert.Equal(t, "application/json", string(ctx.Request.Header.ContentType()))
		var body patchBody
		require.NoError(t, json.Unmarshal(ctx.PostBody(), &body))
		got = append(got, body.Cash)
		ctx.SetBodyString(`{"cash":100}`)
	})

	ctx := context.Background()
	_, err := client.AdjustBalance(ctx, "g1", "u1", -250)
	require.NoError(t, err)
	cash, err := client.AdjustBalance(ctx, "g1", "u1", 40)
	require.NoError(t, err)

	assert.Equal(t, []int64{-250, 40}, got)
	assert.Equal(t, int64(100), cash)
}

func TestLedgerClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header map[string]string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "rate limited",
			status: fasthttp.StatusTooManyRequests,
			header: map[string]string{"Retry-After": "2.5"},
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				require.ErrorAs(t, err, &rl)
				assert.Equal(t, 2500*time.Millisecond, rl.RetryAfter)
			},
		},
		{
			name:   "rate limited without header",
			status: fasthttp.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				require.ErrorAs(t, err, &rl)
				assert.Equal(t, 60*time.Second, rl.RetryAfter)
			},
		},
		{
			name:   "unauthorized",
			status: fasthttp.StatusUnauthorized,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnauthorized) },
		},
		{
			name:   "forbidden",
			status: fasthttp.StatusForbidden,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrForbidden) },
		},
		{
			name:   "unknown",
			status: fasthttp.StatusBadGateway,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, fasthttp.StatusBadGateway, se.Status)
				assert.Equal(t, "upstream down", se.Body)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
				for k, v := range tt.header {
					ctx.Response.Header.Set(k, v)
				}
				ctx.SetStatusCode(tt.status)
				ctx.SetBodyString("upstream down")
			})

			_, err := client.AdjustBalance(context.Background(), "g1", "u1", -10)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestLedgerClient_RecordsRateLimitHeaders(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("X-RateLimit-Limit", "20")
		ctx.Response.Header.Set("X-RateLimit-Remaining", "19")
		ctx.SetBodyString(`{"cash":1}`)
	})

	_, err := client.GetBalance(context.Background(), "g1", "u1")
	require.NoError(t, err)

	info := client.GetRateLimitInfo()
	assert.Equal(t, 20, info.Limit)
	assert.Equal(t, 19, info.Remaining)
}

func TestLedgerClient_LogsRateLimitOn429(t *testing.T) {
	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, func(ctx *fasthttp.RequestCtx) {
			ctx.Response.Header.Set("X-RateLimit-Limit", "20")
			ctx.Response.Header.Set("X-RateLimit-Remaining", "0")
			ctx.Response.Header.Set("X-RateLimit-Reset", "1500")
			ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
		})
	}()
	t.Cleanup(func() { _ = ln.Close() })

	var buf bytes.Buffer
	client := newLedgerClient("http://ledger.test", "secret-token", &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}, zerolog.New(&buf))

	_, err := client.GetBalance(context.Background(), "g1", "u1")
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)

	var entry map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var e map[string]any
		require.NoError(t, json.Unmarshal(line, &e))
		if e["message"] == "rate limited" {
			entry = e
		}
	}
	require.NotNil(t, entry)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, float64(20), entry["limit"])
	assert.Equal(t, float64(0), entry["remaining"])
	assert.Equal(t, float64(1500), entry["reset_ms"])
}

func TestLedgerClient_Timeout(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
		ctx.SetBodyString(`{"cash":1}`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetBalance(ctx, "g1", "u1")
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "expected timeout, got %v", err)
}

func TestLedgerClient_NetworkError(t *testing.T) {
	client := newLedgerClient("http://ledger.test", "t", &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return nil, errors.New("connection refused") },
	}, zerolog.Nop())

	_, err := client.GetBalance(context.Background(), "g1", "u1")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.False(t, netErr.Timeout)
}

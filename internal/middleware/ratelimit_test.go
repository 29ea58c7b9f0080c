package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizfprog/betesportes-api/internal/config"
)

func newLimiterClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func hitLimiter(mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return rec
}

func TestRateLimitEnforcesWindow(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Limit: 2, Window: time.Minute, Prefix: "rl"}
	mr, client := newLimiterClient(t)
	mw := RateLimit(cfg, client)

	assert.Equal(t, http.StatusOK, hitLimiter(mw).Code)
	assert.Equal(t, http.StatusOK, hitLimiter(mw).Code)

	rec := hitLimiter(mw)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// The counter must carry a TTL so the window eventually resets.
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))
}

func TestRateLimitDisabledOrNoRedisPassesThrough(t *testing.T) {
	mw := RateLimit(config.RateLimitConfig{Enabled: false}, nil)
	assert.Equal(t, http.StatusOK, hitLimiter(mw).Code)

	mw = RateLimit(config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute, Prefix: "rl"}, nil)
	assert.Equal(t, http.StatusOK, hitLimiter(mw).Code)
}

func TestRateLimitFailsOpenWhenRedisDown(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute, Prefix: "rl"}
	mr, client := newLimiterClient(t)
	mw := RateLimit(cfg, client)
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hitLimiter(mw).Code)
	}
}

// expireFailHook makes EXPIRE commands fail while every other command goes
// through, simulating a Redis that accepts writes but loses the TTL call.
type expireFailHook struct{}

func (expireFailHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (expireFailHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "expire" {
			return errors.New("expire unavailable")
		}
		return next(ctx, cmd)
	}
}

func (expireFailHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

// A counter that never gets a TTL would throttle its key forever once it
// crosses the limit.  When EXPIRE fails the limiter must drop the counter
// and let the request pass instead.
func TestRateLimitFailsOpenWhenExpireFails(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute, Prefix: "rl"}
	mr, client := newLimiterClient(t)
	client.AddHook(expireFailHook{})
	mw := RateLimit(cfg, client)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hitLimiter(mw).Code)
	}
	assert.Empty(t, mr.Keys())
}

//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type LimiterIntegrationSuite struct {
	suite.Suite
	client *redis.Client
	ctx    context.Context
}

func TestLimiterIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(LimiterIntegrationSuite))
}

func (s *LimiterIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcredis.Run(s.ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)

	opts, err := redis.ParseURL(addr)
	s.Require().NoError(err)
	s.client = redis.NewClient(opts)
	s.Require().NoError(s.client.Ping(s.ctx).Err())
}

func (s *LimiterIntegrationSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(s.ctx).Err())
}

// TestLimitEnforcedPerSubject verifies the fixed window blocks the subject
// once the budget is spent, and only that subject.
func (s *LimiterIntegrationSuite) TestLimitEnforcedPerSubject() {
	l := New(s.client, 3, time.Minute, testLogger())

	for i := 0; i < 3; i++ {
		allowed, _ := l.Allow(s.ctx, "203.0.113.9")
		s.Require().True(allowed, "request %d should be allowed", i+1)
	}

	allowed, retryAfter := l.Allow(s.ctx, "203.0.113.9")
	s.False(allowed)
	s.GreaterOrEqual(retryAfter, 1)

	otherAllowed, _ := l.Allow(s.ctx, "198.51.100.7")
	s.True(otherAllowed)
}

// TestWindowResets verifies the counter expires with the window.
func (s *LimiterIntegrationSuite) TestWindowResets() {
	l := New(s.client, 1, time.Second, testLogger())

	allowed, _ := l.Allow(s.ctx, "203.0.113.9")
	s.Require().True(allowed)
	allowed, _ = l.Allow(s.ctx, "203.0.113.9")
	s.Require().False(allowed)

	time.Sleep(1100 * time.Millisecond)

	allowed, _ = l.Allow(s.ctx, "203.0.113.9")
	s.True(allowed)
}

// TestMiddlewareReturns429 verifies the HTTP surface of a breached limit.
func (s *LimiterIntegrationSuite) TestMiddlewareReturns429() {
	l := New(s.client, 1, time.Minute, testLogger())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := l.Middleware(next)

	issue := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/donations/process", nil)
		req.RemoteAddr = "203.0.113.9:4321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(s.T(), http.StatusOK, issue().Code)

	rec := issue()
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.NotEmpty(rec.Header().Get("Retry-After"))
	s.Contains(rec.Body.String(), "rate_limited")
}

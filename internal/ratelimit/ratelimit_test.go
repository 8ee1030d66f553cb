package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFixedWindow(t *testing.T) {
	limiter := NewLocal()
	now := time.Now()
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "ip=1.2.3.4|email=a@b.c", 3)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "ip=1.2.3.4|email=a@b.c", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	// Other keys have their own budget.
	ok, err = limiter.Allow(ctx, "ip=5.6.7.8|email=a@b.c", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	// The window resets after a minute.
	now = now.Add(Window + time.Second)
	ok, err = limiter.Allow(ctx, "ip=1.2.3.4|email=a@b.c", 3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedis(client, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "user=u1", 2)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "user=u1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(Window + time.Second)
	ok, err = limiter.Allow(ctx, "user=u1", 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisFallsBackToLocal(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedis(client, zap.NewNop())
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "user=u1", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(context.Background(), "user=u1", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "x-forwarded-for first hop",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"},
			remote:  "10.0.0.2:1234",
			want:    "203.0.113.9",
		},
		{
			name:    "x-real-ip",
			headers: map[string]string{"X-Real-IP": "203.0.113.10"},
			remote:  "10.0.0.2:1234",
			want:    "203.0.113.10",
		},
		{
			name:    "forwarded header",
			headers: map[string]string{"Forwarded": `for=203.0.113.11;proto=https`},
			remote:  "10.0.0.2:1234",
			want:    "203.0.113.11",
		},
		{
			name:    "forwarded header quoted ipv6",
			headers: map[string]string{"Forwarded": `for="[2001:db8::1]:4711"`},
			remote:  "10.0.0.2:1234",
			want:    "2001:db8::1",
		},
		{
			name:   "socket remote address",
			remote: "198.51.100.7:9999",
			want:   "198.51.100.7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

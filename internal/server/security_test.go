package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/word-impostor/internal/config"
)

func newRequest(remoteAddr string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestRateLimiter_Limits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		perSecond int
		perMinute int
		allowed   int
	}{
		{"per-second limit", 5, 10, 5},
		{"per-minute limit", 100, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rl := NewRateLimiter(tt.perSecond, tt.perMinute, time.Minute)
			t.Cleanup(rl.Stop)

			for i := range tt.allowed {
				require.True(t, rl.Allow("203.0.113.7"), "connection %d", i)
			}
			assert.False(t, rl.Allow("203.0.113.7"))
			assert.True(t, rl.IsBanned("203.0.113.7"))

			// 封禁只影响超限的 IP
			assert.True(t, rl.Allow("203.0.113.8"))
			assert.False(t, rl.IsBanned("203.0.113.8"))
		})
	}
}

func TestRateLimiter_BanExpires(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(2, 100, time.Second)
	t.Cleanup(rl.Stop)
	ip := "198.51.100.1"

	assert.True(t, rl.Allow(ip))
	assert.True(t, rl.Allow(ip))
	assert.False(t, rl.Allow(ip))

	// 封禁期间即使过了统计窗口也拒绝
	assert.False(t, rl.Allow(ip))

	time.Sleep(1100 * time.Millisecond)
	assert.False(t, rl.IsBanned(ip))
	assert.True(t, rl.Allow(ip))
}

func TestRateLimiter_ConfiguredDefaults(t *testing.T) {
	t.Parallel()

	sec := config.Default().Security.RateLimit
	rl := NewRateLimiter(sec.MaxPerSecond, sec.MaxPerMinute, sec.BanDurationTime())
	t.Cleanup(rl.Stop)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for range sec.MaxPerSecond * 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("192.0.2.10") {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	// 同一秒内的并发握手最多放行 MaxPerSecond 个
	assert.Equal(t, int32(sec.MaxPerSecond), ok.Load())
	assert.True(t, rl.IsBanned("192.0.2.10"))
}

func TestRateLimiter_StopIdempotent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1, time.Second)
	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}

func TestIPFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ip      string
		setup   func(*IPFilter)
		allowed bool
	}{
		{"open by default", "192.0.2.1", nil, true},
		{"blacklisted", "192.0.2.2", func(f *IPFilter) { f.AddToBlacklist("192.0.2.2") }, false},
		{"removed from blacklist", "192.0.2.3", func(f *IPFilter) {
			f.AddToBlacklist("192.0.2.3")
			f.RemoveFromBlacklist("192.0.2.3")
		}, true},
		{"outside whitelist", "192.0.2.4", func(f *IPFilter) { f.AddToWhitelist("10.0.0.1") }, false},
		{"inside whitelist", "10.0.0.1", func(f *IPFilter) { f.AddToWhitelist("10.0.0.1") }, true},
		{"blacklist wins over whitelist", "10.0.0.2", func(f *IPFilter) {
			f.AddToWhitelist("10.0.0.2")
			f.AddToBlacklist("10.0.0.2")
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := NewIPFilter()
			if tt.setup != nil {
				tt.setup(f)
			}
			assert.Equal(t, tt.allowed, f.IsAllowed(tt.ip))
		})
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:51234", nil, "192.0.2.1"},
		{"forwarded for", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.1"}, "203.0.113.1"},
		{"first hop of chain", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2, 10.0.0.3"}, "203.0.113.1"},
		{"real ip", "10.0.0.1:80", map[string]string{"X-Real-IP": "203.0.113.2"}, "203.0.113.2"},
		{"forwarded for wins", "10.0.0.1:80", map[string]string{
			"X-Forwarded-For": "203.0.113.3",
			"X-Real-IP":       "203.0.113.4",
		}, "203.0.113.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetClientIP(newRequest(tt.remoteAddr, tt.headers)))
		})
	}
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	t.Run("wildcard", func(t *testing.T) {
		oc := NewOriginChecker([]string{"*"})
		assert.True(t, oc.Check(newRequest("192.0.2.1:1", map[string]string{"Origin": "https://anywhere.test"})))
	})

	t.Run("explicit list", func(t *testing.T) {
		oc := NewOriginChecker([]string{"https://impostor.example", "https://play.impostor.example"})
		tests := []struct {
			origin  string
			allowed bool
		}{
			{"https://impostor.example", true},
			{"https://play.impostor.example", true},
			{"https://evil.example", false},
			{"http://impostor.example", false},
			{"", true}, // 非浏览器客户端不带 Origin
		}
		for _, tt := range tests {
			headers := map[string]string{}
			if tt.origin != "" {
				headers["Origin"] = tt.origin
			}
			assert.Equal(t, tt.allowed, oc.Check(newRequest("192.0.2.1:1", headers)), "origin %q", tt.origin)
		}
	})
}

func TestMessageRateLimiter_Warnings(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(5)

	for i := range 5 {
		allowed, warning := ml.AllowMessage("conn-1")
		require.True(t, allowed, "message %d", i)
		// 用掉超过一半令牌后开始警告
		if i < 2 {
			assert.False(t, warning, "message %d", i)
		}
		if i >= 3 {
			assert.True(t, warning, "message %d", i)
		}
	}

	allowed, warning := ml.AllowMessage("conn-1")
	assert.False(t, allowed)
	assert.True(t, warning)
	assert.Equal(t, 1, ml.GetWarningCount("conn-1"))
}

func TestMessageRateLimiter_PerConnection(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(2)
	for range 2 {
		allowed, _ := ml.AllowMessage("a")
		assert.True(t, allowed)
	}
	for range 3 {
		allowed, _ := ml.AllowMessage("a")
		assert.False(t, allowed)
	}

	allowed, _ := ml.AllowMessage("b")
	assert.True(t, allowed)
	assert.Equal(t, 3, ml.GetWarningCount("a"))
	assert.Zero(t, ml.GetWarningCount("b"))
	assert.Zero(t, ml.GetWarningCount("unknown"))
}

func TestMessageRateLimiter_RemoveClient(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(3)
	for range 4 {
		ml.AllowMessage("conn-2")
	}
	require.Equal(t, 1, ml.GetWarningCount("conn-2"))

	// 断线后重新计数
	ml.RemoveClient("conn-2")
	assert.Zero(t, ml.GetWarningCount("conn-2"))
	allowed, warning := ml.AllowMessage("conn-2")
	assert.True(t, allowed)
	assert.False(t, warning)
}

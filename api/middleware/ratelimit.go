package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/anoixa/image-api/api/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter 按客户端 IP 限流
type IPRateLimiter struct {
	rps        rate.Limit
	burst      int
	expireTime time.Duration

	mu       sync.Mutex
	clients  map[string]*clientLimiter
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter 创建 IP 限流器，并启动过期客户端清理
func NewIPRateLimiter(rps float64, burst int, expireTime time.Duration) *IPRateLimiter {
	if expireTime <= 0 {
		expireTime = 10 * time.Minute
	}
	rl := &IPRateLimiter{
		rps:        rate.Limit(rps),
		burst:      burst,
		expireTime: expireTime,
		clients:    make(map[string]*clientLimiter),
		stopChan:   make(chan struct{}),
	}

	go rl.cleanupStaleClients()

	return rl
}

// Allow 判断该 IP 是否还有令牌
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	client, ok := rl.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = client
	}
	client.lastSeen = time.Now()
	rl.mu.Unlock()

	return client.limiter.Allow()
}

// Middleware 返回 Gin 中间件
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			common.RespondErrorAbort(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}

// StopCleanup 停止清理协程，可重复调用
func (rl *IPRateLimiter) StopCleanup() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
	})
}

func (rl *IPRateLimiter) cleanupStaleClients() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evict(time.Now())
		case <-rl.stopChan:
			return
		}
	}
}

// evict 删除超过 expireTime 未访问的客户端
func (rl *IPRateLimiter) evict(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, client := range rl.clients {
		if now.Sub(client.lastSeen) > rl.expireTime {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

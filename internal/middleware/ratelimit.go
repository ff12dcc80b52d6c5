package middleware

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"volley-globe/internal/logger"
)

// 文档注释：令牌桶限流（每秒）
// 背景：会话事件与排名接口都可能被前端高频调用，入口限速避免上游 FIVB 与地图投影计算被放大
// 约束：不排队，超额直接 429；每个自然秒重置令牌
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	now      func() time.Time
	mu       sync.Mutex
}

func NewTokenBucket(qps int, now func() time.Time) *TokenBucket {
	if now == nil {
		now = time.Now
	}
	if qps < 1 {
		qps = 1
	}
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: now().Unix(), now: now}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// EdgeGeo：CDN 边缘节点改写的访问者地理头
type EdgeGeo struct {
	ClientIP    string
	CountryCode string
	CountryName string
}

type edgeGeoKey struct{}

// EdgeGeoFrom：读取中间件注入的边缘地理信息
func EdgeGeoFrom(ctx context.Context) (EdgeGeo, bool) {
	g, ok := ctx.Value(edgeGeoKey{}).(EdgeGeo)
	return g, ok && g.CountryCode != ""
}

// Wrap：边缘地理头注入 + 可选限流（RATE_LIMIT_ENABLED / RATE_LIMIT_QPS）
func Wrap(next http.Handler) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g, ok := parseEdgeGeo(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), edgeGeoKey{}, g))
		}
		next.ServeHTTP(w, r)
	})
	if os.Getenv("RATE_LIMIT_ENABLED") != "true" {
		return inner
	}
	qps := 200
	if s := os.Getenv("RATE_LIMIT_QPS"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			qps = n
		}
	}
	return Limit(NewTokenBucket(qps, nil), inner)
}

// Limit：超额请求返回 429
func Limit(tb *TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.Allow() {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limited"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// 文档注释：解析 EdgeOne 改写的地理头
// 约束：仅取国家代码与客户端 IP；代码非两位字母时忽略
func parseEdgeGeo(r *http.Request) (EdgeGeo, bool) {
	h := r.Header
	code := strings.ToUpper(strings.TrimSpace(h.Get("X-EO-Geo-CountryCodeAlpha2")))
	if len(code) != 2 {
		return EdgeGeo{}, false
	}
	g := EdgeGeo{
		ClientIP:    h.Get("X-EO-Client-IP"),
		CountryCode: code,
		CountryName: h.Get("X-EO-Geo-Country"),
	}
	logger.L().Debug("edge_geo_parse", "ip", g.ClientIP, "country", g.CountryCode)
	return g, true
}

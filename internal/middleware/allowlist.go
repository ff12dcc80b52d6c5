package middleware

import (
	"net"
	"net/http"
	"os"
	"strings"
	"sync"

	"volley-globe/internal/logger"
)

// 文档注释：管理接口来源白名单（单 IP + CIDR）
// 背景：/metrics 与排名刷新只面向运维；部署在 CDN 后时需要按真实来源 IP 放行
// 约束：
// 1) 列表为空时不做限制，仍由管理令牌兜底；
// 2) 支持 IPv4/IPv6 CIDR；
// 3) 来源 IP 以 RemoteAddr 为准，RealIPHeader 非空时取该头的首个有效 IP
type Allowlist struct {
	ips          map[string]struct{}
	cidrs        []*net.IPNet
	realIPHeader string
	mu           sync.RWMutex
}

// NewAllowlist：entries 可混合单 IP 与 CIDR；无法解析的条目被忽略
func NewAllowlist(entries []string, realIPHeader string) *Allowlist {
	a := &Allowlist{ips: map[string]struct{}{}, realIPHeader: strings.TrimSpace(realIPHeader)}
	a.Add(entries...)
	return a
}

// AllowlistFromEnv：ADMIN_ALLOW_IPS（逗号分隔，可含 CIDR）/ ADMIN_ALLOW_LOCAL / ADMIN_REAL_IP_HEADER
func AllowlistFromEnv() *Allowlist {
	var entries []string
	for _, p := range strings.Split(os.Getenv("ADMIN_ALLOW_IPS"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			entries = append(entries, p)
		}
	}
	if os.Getenv("ADMIN_ALLOW_LOCAL") == "true" {
		entries = append(entries, "127.0.0.1", "::1")
	}
	return NewAllowlist(entries, os.Getenv("ADMIN_REAL_IP_HEADER"))
}

func (a *Allowlist) Add(entries ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if strings.Contains(e, "/") {
			if _, n, err := net.ParseCIDR(e); err == nil {
				a.cidrs = append(a.cidrs, n)
			}
			continue
		}
		if ip := net.ParseIP(e); ip != nil {
			a.ips[ip.String()] = struct{}{}
		}
	}
}

// Empty：未配置任何条目
func (a *Allowlist) Empty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.ips) == 0 && len(a.cidrs) == 0
}

func (a *Allowlist) Allowed(ip net.IP) bool {
	if ip == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, ok := a.ips[ip.String()]; ok {
		return true
	}
	for _, n := range a.cidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Guard：不在白名单内返回 403 JSON
func (a *Allowlist) Guard(next http.Handler) http.Handler {
	if a == nil || a.Empty() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := a.sourceIP(r)
		if !a.Allowed(ip) {
			logger.L().Debug("admin_allowlist_block", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Allowlist) sourceIP(r *http.Request) net.IP {
	if a.realIPHeader != "" {
		if raw := r.Header.Get(a.realIPHeader); raw != "" {
			first := strings.TrimSpace(strings.Split(raw, ",")[0])
			if ip := net.ParseIP(first); ip != nil {
				return ip
			}
		}
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return net.ParseIP(host)
}

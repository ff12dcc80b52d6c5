// 包 locate：访问者 IP → 国家 → 建议的初始视角
// 背景：首次打开页面时把地球转到访问者所在国家；离线库依次尝试，先命中者生效
// 约束：任一库缺失或查询失败都不是错误，结果 Found=false 时客户端保持默认视角
package locate

import (
	"net"
	"net/http"
	"strings"

	"volley-globe/internal/geo"
	"volley-globe/internal/logger"
	"volley-globe/internal/metrics"
	"volley-globe/internal/registry"
)

// Lookup：IP → ISO alpha-2；未知返回空串
type Lookup interface {
	Name() string
	CountryCode(ip net.IP) (string, error)
}

// Result：定位结果
type Result struct {
	IP        string        `json:"ip"`
	Found     bool          `json:"found"`
	Source    string        `json:"source,omitempty"`
	CountryID string        `json:"countryId,omitempty"`
	Name      string        `json:"name,omitempty"`
	FlagCode  string        `json:"flagCode,omitempty"`
	FlagURL   string        `json:"flagUrl,omitempty"`
	Rotation  *geo.Rotation `json:"rotation,omitempty"`
}

// Locator：按顺序查询各库
type Locator struct {
	sources   []Lookup
	reg       *registry.Registry
	centroids map[string]geo.Feature
}

func New(reg *registry.Registry, features []geo.Feature, sources ...Lookup) *Locator {
	m := make(map[string]geo.Feature, len(features))
	for _, f := range features {
		m[registry.PadID(f.ID)] = f
	}
	var ss []Lookup
	for _, s := range sources {
		if s != nil {
			ss = append(ss, s)
		}
	}
	return &Locator{sources: ss, reg: reg, centroids: m}
}

// Sources：已启用的库名
func (l *Locator) Sources() []string {
	out := make([]string, 0, len(l.sources))
	for _, s := range l.sources {
		out = append(out, s.Name())
	}
	return out
}

// Locate：解析失败或全部未命中时 Found=false
func (l *Locator) Locate(ip string) Result {
	res := Result{IP: ip}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		metrics.LocateTotal.WithLabelValues("invalid").Inc()
		return res
	}
	for _, s := range l.sources {
		code, err := s.CountryCode(parsed)
		if err != nil {
			logger.L().Debug("locate_source_error", "source", s.Name(), "ip", ip, "err", err)
			continue
		}
		if l.resolve(&res, s.Name(), code) {
			return res
		}
	}
	metrics.LocateTotal.WithLabelValues("none").Inc()
	return res
}

// FromCode：已知国家代码（如 CDN 边缘头）直接解析，未知代码时回退到 IP 查询
func (l *Locator) FromCode(ip, source, code string) Result {
	res := Result{IP: ip}
	if l.resolve(&res, source, code) {
		return res
	}
	return l.Locate(ip)
}

func (l *Locator) resolve(res *Result, source, code string) bool {
	id, ok := l.reg.IDForAlpha2(code)
	if !ok {
		return false
	}
	res.Found = true
	res.Source = source
	res.CountryID = id
	res.FlagCode = l.reg.FlagCode(id)
	res.FlagURL = l.reg.FlagURL(id)
	if f, ok := l.centroids[id]; ok {
		res.Name = l.reg.Name(f.ID, f.Properties)
		rot := geo.Centered(f.Centroid)
		res.Rotation = &rot
	} else {
		res.Name = l.reg.Name(id, nil)
	}
	metrics.LocateTotal.WithLabelValues(source).Inc()
	return true
}

// VisitorIP：常见反向代理头优先，最后回退远端地址
// 约束：头部可被伪造，仅用于选择初始视角，不用于鉴权
func VisitorIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(x)
		}
	}
	if x := h.Get("forwarded"); x != "" {
		if i := strings.Index(strings.ToLower(x), "for="); i >= 0 {
			y := x[i+4:]
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			y = strings.Trim(y, "\" ")
			y = strings.TrimSuffix(strings.TrimPrefix(y, "["), "]")
			return y
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

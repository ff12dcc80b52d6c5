package locate

import (
	"net"
	"strings"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"
	"github.com/oschwald/geoip2-golang"
)

// GeoIP：MaxMind GeoLite2-Country / City mmdb
type GeoIP struct {
	r *geoip2.Reader
}

func OpenGeoIP(path string) (*GeoIP, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIP{r: r}, nil
}

func (g *GeoIP) Name() string { return "geoip2" }

func (g *GeoIP) CountryCode(ip net.IP) (string, error) {
	rec, err := g.r.Country(ip)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(rec.Country.IsoCode), nil
}

func (g *GeoIP) Close() error { return g.r.Close() }

// IP2Region：v4 xdb，仅文件句柄查询，不整库载入内存
type IP2Region struct {
	s *xdb.Searcher
}

func OpenIP2Region(path string) (*IP2Region, error) {
	s, err := xdb.NewWithFileOnly(xdb.IPv4, path)
	if err != nil {
		return nil, err
	}
	return &IP2Region{s: s}, nil
}

func (p *IP2Region) Name() string { return "ip2region" }

func (p *IP2Region) CountryCode(ip net.IP) (string, error) {
	v4 := ip.To4()
	if v4 == nil {
		return "", nil
	}
	region, err := p.s.SearchByStr(v4.String())
	if err != nil {
		return "", err
	}
	return regionCountry(region), nil
}

func (p *IP2Region) Close() { p.s.Close() }

// zhCountries：ip2region 中文国家名 → ISO alpha-2（常见排球国家）
var zhCountries = map[string]string{
	"中国": "CN", "美国": "US", "日本": "JP", "韩国": "KR", "巴西": "BR",
	"意大利": "IT", "波兰": "PL", "法国": "FR", "德国": "DE", "英国": "GB",
	"俄罗斯": "RU", "土耳其": "TR", "塞尔维亚": "RS", "荷兰": "NL", "加拿大": "CA",
	"阿根廷": "AR", "伊朗": "IR", "泰国": "TH", "多米尼加": "DO", "古巴": "CU",
	"比利时": "BE", "斯洛文尼亚": "SI", "乌克兰": "UA", "澳大利亚": "AU", "新加坡": "SG",
	"印度": "IN", "越南": "VN", "菲律宾": "PH", "印度尼西亚": "ID", "墨西哥": "MX",
	"西班牙": "ES", "捷克": "CZ", "保加利亚": "BG", "埃及": "EG", "肯尼亚": "KE",
}

// regionCountry：区域串 "国家|区域|省份|城市|ISP"；新版数据末尾带 ISO 代码
func regionCountry(region string) string {
	parts := strings.Split(region, "|")
	for i := len(parts) - 1; i >= 0; i-- {
		p := strings.TrimSpace(parts[i])
		if len(p) == 2 && isUpperASCII(p) {
			return p
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return zhCountries[strings.TrimSpace(parts[0])]
}

func isUpperASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

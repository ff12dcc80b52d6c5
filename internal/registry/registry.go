// 包 registry：国家编号到名称 / ISO alpha-2 / 国旗地址的静态映射
// 约束：查询不会失败；未知编号按属性回退链命名，国旗代码回退为 "XX"
package registry

import (
	"sort"
	"strings"

	"volley-globe/internal/geo"
	"volley-globe/internal/reconcile"
)

// UnknownFlag：无 ISO alpha-2 映射时的占位代码
const UnknownFlag = "XX"

// propertyKeys：地图数据集常见的名称字段，按优先级排列
var propertyKeys = []string{
	"NAME", "name", "NAME_EN", "NAME_LONG", "ADMIN", "admin",
	"NAME_SORT", "NAME_LOCAL", "SOVEREIGNT", "GEOUNIT", "NAME_AR", "NAME_ZH",
}

// Country：对外展示的国家信息
type Country struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FlagCode string `json:"flagCode"`
	FlagURL  string `json:"flagUrl"`
}

// Registry：静态表 + 国旗地址拼接
type Registry struct {
	flagBase     string
	flagFallback string
	byAlpha2     map[string]string
	ids          []string
}

// New：flagBase 形如 https://flagcdn.com/w320/，fallback 为无映射时的占位图
func New(flagBase, fallback string) *Registry {
	r := &Registry{flagBase: flagBase, flagFallback: fallback, byAlpha2: map[string]string{}}
	ids := make([]string, 0, len(alpha2ByID))
	for id := range alpha2ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		code := alpha2ByID[id]
		if _, dup := r.byAlpha2[code]; !dup {
			r.byAlpha2[code] = id
		}
	}
	for id := range countryNames {
		r.ids = append(r.ids, PadID(id))
	}
	sort.Strings(r.ids)
	return r
}

// Name：静态表 → 要素属性回退链 → "Country ID: {id}" → "Unknown Country"
func (r *Registry) Name(id string, props map[string]any) string {
	if id != "" {
		if n, ok := countryNames[TrimID(id)]; ok {
			return n
		}
	}
	for _, k := range propertyKeys {
		if s, ok := props[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	if id != "" {
		return "Country ID: " + id
	}
	return "Unknown Country"
}

// FlagCode：ISO alpha-2（大写），未知返回 UnknownFlag
func (r *Registry) FlagCode(id string) string {
	if c, ok := alpha2ByID[PadID(id)]; ok {
		return c
	}
	return UnknownFlag
}

// FlagURL：已知代码拼接国旗 CDN 地址，否则返回占位图
func (r *Registry) FlagURL(id string) string {
	code := r.FlagCode(id)
	if code == UnknownFlag {
		return r.flagFallback
	}
	return r.flagBase + strings.ToLower(code) + ".png"
}

func (r *Registry) FallbackFlagURL() string { return r.flagFallback }

// IDForAlpha2：反查三位编号；同一代码对应多个编号时取排序最小者
func (r *Registry) IDForAlpha2(code string) (string, bool) {
	id, ok := r.byAlpha2[strings.ToUpper(strings.TrimSpace(code))]
	return id, ok
}

// IDForName：按国名反查三位编号，比较规则同联合会名称对齐
func (r *Registry) IDForName(name string) (string, bool) {
	i, _ := reconcile.Find(name, r.ids, func(id string) string { return countryNames[TrimID(id)] })
	if i < 0 {
		return "", false
	}
	return r.ids[i], true
}

// Country：组装要素的展示信息
func (r *Registry) Country(f geo.Feature) Country {
	return Country{
		ID:       f.ID,
		Name:     r.Name(f.ID, f.Properties),
		FlagCode: r.FlagCode(f.ID),
		FlagURL:  r.FlagURL(f.ID),
	}
}

// TrimID：去掉前导零（"076" → "76"）；非数字编号原样返回
func TrimID(id string) string {
	id = strings.TrimSpace(id)
	if !numeric(id) {
		return id
	}
	t := strings.TrimLeft(id, "0")
	if t == "" {
		return "0"
	}
	return t
}

// PadID：补零到三位（"4" → "004"）；非数字编号原样返回
func PadID(id string) string {
	id = TrimID(id)
	if !numeric(id) {
		return id
	}
	for len(id) < 3 {
		id = "0" + id
	}
	return id
}

func numeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// 包 reconcile：地图国家名与排名联合会名称的对齐
// 背景：地图数据使用正式或常用国名，FIVB 使用联合会简称；两侧先归一化到同一规范写法再比较
// 约束：回退匹配只允许整词边界（前缀或后缀），禁止子串包含，避免 "oman" 命中 "romania"
package reconcile

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// aliases：已知变体 → 规范简称（键为归一化后的小写形式）
var aliases = map[string]string{
	"united states of america":               "united states",
	"usa":                                    "united states",
	"u.s.a.":                                 "united states",
	"russian federation":                     "russia",
	"republic of korea":                      "korea",
	"south korea":                            "korea",
	"korea, republic of":                     "korea",
	"north korea":                            "dpr korea",
	"korea, democratic people's republic of": "dpr korea",
	"democratic peoples republic of korea":   "dpr korea",
	"democratic republic of the congo":       "democratic republic of congo",
	"republic of the congo":                  "congo",
	"united kingdom":                         "great britain",
	"england":                                "great britain",
	"czech republic":                         "czechia",
	"ivory coast":                            "côte d'ivoire",
	"vietnam":                                "viet nam",
	"taiwan":                                 "chinese taipei",
	"holland":                                "netherlands",
	"uae":                                    "united arab emirates",
	"türkiye":                                "turkey",
	"turkiye":                                "turkey",
}

var punct = strings.NewReplacer("\u2019", "'", "\u2018", "'", "\u00a0", " ")

// Normalize：NFC → 小写 → 去首尾空白 → 合并内部空白 → 别名表
func Normalize(name string) string {
	s := norm.NFC.String(name)
	s = punct.Replace(strings.ToLower(s))
	s = strings.Join(strings.Fields(s), " ")
	if a, ok := aliases[s]; ok {
		return a
	}
	return s
}

// Outcome：匹配方式，用于指标与日志
type Outcome string

const (
	Exact    Outcome = "exact"
	Boundary Outcome = "boundary"
	Miss     Outcome = "miss"
)

// Find：在候选中查找与 input 对应的条目，返回下标
// 顺序：规范写法完全相等 → 联合会名以 "input " 开头或以 " input" 结尾 → 未命中
// 约束：空输入永远不命中；多个候选满足时取靠前者
func Find[T any](input string, candidates []T, nameOf func(T) string) (int, Outcome) {
	in := Normalize(input)
	if in == "" {
		return -1, Miss
	}
	normalized := make([]string, len(candidates))
	for i, c := range candidates {
		normalized[i] = Normalize(nameOf(c))
		if normalized[i] == in {
			return i, Exact
		}
	}
	for i, fed := range normalized {
		if fed == "" {
			continue
		}
		if strings.HasPrefix(fed, in+" ") || strings.HasSuffix(fed, " "+in) {
			return i, Boundary
		}
	}
	return -1, Miss
}

// Same：两个名称归一化后是否相同
func Same(a, b string) bool {
	na := Normalize(a)
	return na != "" && na == Normalize(b)
}

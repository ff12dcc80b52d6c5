package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Graticule：经纬网，step 度间隔
// 约束：次网格纬度范围 ±80；90 的整数倍经线延伸到极点
func Graticule(step float64) []orb.LineString {
	if step <= 0 {
		step = 10
	}
	const sample = 2.5
	var lines []orb.LineString
	for lon := -180.0; lon < 180; lon += step {
		lo, hi := -80.0, 80.0
		if math.Mod(math.Abs(lon), 90) == 0 {
			lo, hi = -90, 90
		}
		var ls orb.LineString
		for lat := lo; lat <= hi+epsilon; lat += sample {
			ls = append(ls, orb.Point{lon, lat})
		}
		lines = append(lines, ls)
	}
	for lat := -80.0; lat <= 80+epsilon; lat += step {
		var ls orb.LineString
		for lon := -180.0; lon <= 180+epsilon; lon += sample {
			ls = append(ls, orb.Point{lon, lat})
		}
		lines = append(lines, ls)
	}
	return lines
}

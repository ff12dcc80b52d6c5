// 包 geo：正射投影、反投影、球面质心与要素命中测试
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	radians = math.Pi / 180
	degrees = 180 / math.Pi
	epsilon = 1e-9
)

// Rotation：视图旋转，Lambda 绕极轴，Phi 绕横轴；单位为度
type Rotation struct {
	Lambda float64 `json:"lambda"`
	Phi    float64 `json:"phi"`
}

// ScreenPoint：屏幕坐标，原点在左上角，Y 轴向下
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Projector：带旋转与缩放的正射投影
// 约束：值类型，除旋转/缩放/中心外不持有隐藏状态；并发读安全
type Projector struct {
	Rotation  Rotation
	Scale     float64
	Center    ScreenPoint
	ClipAngle float64
}

// NewProjector：以视口中心为平移点，裁剪角 90 度
func NewProjector(width, height, scale float64) Projector {
	return Projector{
		Scale:     scale,
		Center:    ScreenPoint{X: width / 2, Y: height / 2},
		ClipAngle: 90,
	}
}

// Project：经纬度 → 屏幕坐标；背面（与视图中心角距超过裁剪角）返回 false
func (p Projector) Project(pt orb.Point) (ScreenPoint, bool) {
	lambda, phi := p.rotate(pt.Lon()*radians, pt.Lat()*radians)
	if math.Cos(phi)*math.Cos(lambda) <= math.Cos(p.clip())+epsilon {
		return ScreenPoint{}, false
	}
	return p.toScreen(lambda, phi), true
}

// ProjectUnclipped：不做可见性判断的投影，用于绘制裁剪边界附近的路径端点
func (p Projector) ProjectUnclipped(pt orb.Point) ScreenPoint {
	lambda, phi := p.rotate(pt.Lon()*radians, pt.Lat()*radians)
	return p.toScreen(lambda, phi)
}

// Visible：点是否位于可见半球
func (p Projector) Visible(pt orb.Point) bool {
	_, ok := p.Project(pt)
	return ok
}

// Invert：屏幕坐标 → 经纬度；落在球面圆盘之外返回 false
func (p Projector) Invert(sp ScreenPoint) (orb.Point, bool) {
	if p.Scale <= 0 {
		return orb.Point{}, false
	}
	x := (sp.X - p.Center.X) / p.Scale
	y := (p.Center.Y - sp.Y) / p.Scale
	rho := math.Hypot(x, y)
	if rho > 1+epsilon {
		return orb.Point{}, false
	}
	if rho > 1 {
		rho = 1
	}
	c := math.Asin(rho)
	sc, cc := math.Sin(c), math.Cos(c)
	lambda := math.Atan2(x*sc, rho*cc)
	phi := 0.0
	if rho > 0 {
		phi = math.Asin(clampUnit(y * sc / rho))
	}
	lon, lat := p.invertRotate(lambda, phi)
	return orb.Point{NormalizeLon(lon * degrees), lat * degrees}, true
}

// Disc：可见球面的外接圆（海洋底色）
func (p Projector) Disc() (center ScreenPoint, radius float64) {
	return p.Center, p.Scale
}

// Centered：以指定经纬度为视图中心的旋转
func Centered(pt orb.Point) Rotation {
	return Rotation{Lambda: -pt.Lon(), Phi: Clamp(-pt.Lat(), -90, 90)}
}

func (p Projector) clip() float64 {
	if p.ClipAngle <= 0 || p.ClipAngle > 180 {
		return 90 * radians
	}
	return p.ClipAngle * radians
}

func (p Projector) toScreen(lambda, phi float64) ScreenPoint {
	cp := math.Cos(phi)
	return ScreenPoint{
		X: p.Center.X + p.Scale*cp*math.Sin(lambda),
		Y: p.Center.Y - p.Scale*math.Sin(phi),
	}
}

// rotate：先绕极轴旋转 Lambda，再绕横轴旋转 Phi
func (p Projector) rotate(lambda, phi float64) (float64, float64) {
	lambda = wrapRad(lambda + p.Rotation.Lambda*radians)
	dp := p.Rotation.Phi * radians
	if dp == 0 {
		return lambda, phi
	}
	cdp, sdp := math.Cos(dp), math.Sin(dp)
	cp := math.Cos(phi)
	x := math.Cos(lambda) * cp
	y := math.Sin(lambda) * cp
	z := math.Sin(phi)
	k := z*cdp + x*sdp
	return math.Atan2(y, x*cdp-z*sdp), math.Asin(clampUnit(k))
}

func (p Projector) invertRotate(lambda, phi float64) (float64, float64) {
	dp := p.Rotation.Phi * radians
	if dp != 0 {
		cdp, sdp := math.Cos(dp), math.Sin(dp)
		cp := math.Cos(phi)
		x := math.Cos(lambda) * cp
		y := math.Sin(lambda) * cp
		z := math.Sin(phi)
		lambda = math.Atan2(y, x*cdp+z*sdp)
		phi = math.Asin(clampUnit(z*cdp - x*sdp))
	}
	return wrapRad(lambda - p.Rotation.Lambda*radians), phi
}

// Clamp：数值夹取
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizeLon：经度归一到 [-180, 180)
func NormalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func wrapRad(a float64) float64 {
	if a >= -math.Pi && a <= math.Pi {
		return a
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func clampUnit(v float64) float64 { return Clamp(v, -1, 1) }

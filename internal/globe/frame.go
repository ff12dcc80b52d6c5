// 包 globe：地球视图的交互状态机与帧输出
package globe

import (
	"volley-globe/internal/geo"
)

// Mode：交互状态
type Mode string

const (
	ModeAutorotating Mode = "autorotating"
	ModeDragging     Mode = "dragging"
	ModeSelected     Mode = "selected"
)

// Sea：可见球面圆盘
type Sea struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	R  float64 `json:"r"`
}

// CountryPath：一个国家在当前视角下的可见折线
type CountryPath struct {
	ID       string              `json:"id"`
	Selected bool                `json:"selected,omitempty"`
	Paths    [][]geo.ScreenPoint `json:"paths"`
}

// Marker：选中国家的图钉与国旗锚点；质心转到背面时 Visible=false
type Marker struct {
	ID       string          `json:"id"`
	FlagCode string          `json:"flagCode,omitempty"`
	Visible  bool            `json:"visible"`
	Pin      geo.ScreenPoint `json:"pin"`
	Flag     geo.ScreenPoint `json:"flag"`
}

// Frame：一次完整重投影的结果，Seq 单调递增
type Frame struct {
	Seq        uint64              `json:"seq"`
	Mode       Mode                `json:"mode"`
	AutoRotate bool                `json:"autoRotate"`
	Rotation   geo.Rotation        `json:"rotation"`
	Scale      float64             `json:"scale"`
	Sea        Sea                 `json:"sea"`
	Graticule  [][]geo.ScreenPoint `json:"graticule"`
	Countries  []CountryPath       `json:"countries"`
	Marker     *Marker             `json:"marker,omitempty"`
}

// Renderer：帧的接收端（HTTP 响应、WebSocket、测试桩）
type Renderer interface {
	Render(Frame)
}

// RendererFunc：函数适配
type RendererFunc func(Frame)

func (f RendererFunc) Render(fr Frame) { f(fr) }

// 图钉尺寸，与前端样式一致
const (
	pinStickLength = 30
	pinBallRadius  = 10
	flagOffsetX    = 20
	flagOffsetY    = 40
)

package globe

import (
	"sync"

	"github.com/paulmach/orb"

	"volley-globe/internal/config"
	"volley-globe/internal/geo"
	"volley-globe/internal/metrics"
	"volley-globe/internal/reconcile"
)

// Options：视图常量
type Options struct {
	Width           float64
	Height          float64
	Scale           float64
	MinScale        float64
	MaxScale        float64
	ZoomMin         float64
	ZoomMax         float64
	ZoomStep        float64
	InitialPhi      float64
	RotationSpeed   float64
	DragSensitivity float64
	GraticuleStep   float64
}

// DefaultOptions：960×640，缩放 280（200..500），每 16ms 旋转 0.02 度
func DefaultOptions() Options {
	return OptionsFrom(config.Globe{
		Width: config.DefaultGlobeWidth, Height: config.DefaultGlobeHeight,
		Scale: config.DefaultGlobeScale, MinScale: config.DefaultGlobeMinScale, MaxScale: config.DefaultGlobeMaxScale,
		ZoomMin: config.DefaultGlobeZoomMin, ZoomMax: config.DefaultGlobeZoomMax,
		InitialPhi: -10, RotationSpeed: 0.02, DragSensitivity: 0.25, ZoomStep: 30, GraticuleStepDeg: 10,
	})
}

func OptionsFrom(g config.Globe) Options {
	return Options{
		Width:           g.Width,
		Height:          g.Height,
		Scale:           g.Scale,
		MinScale:        g.MinScale,
		MaxScale:        g.MaxScale,
		ZoomMin:         g.ZoomMin,
		ZoomMax:         g.ZoomMax,
		ZoomStep:        g.ZoomStep,
		InitialPhi:      g.InitialPhi,
		RotationSpeed:   g.RotationSpeed,
		DragSensitivity: g.DragSensitivity,
		GraticuleStep:   g.GraticuleStepDeg,
	}
}

// State：控制器状态快照
type State struct {
	Rotation         geo.Rotation `json:"rotation"`
	Scale            float64      `json:"scale"`
	Mode             Mode         `json:"mode"`
	AutoRotate       bool         `json:"autoRotate"`
	SelectedID       string       `json:"selectedId,omitempty"`
	SelectedCentroid *orb.Point   `json:"selectedCentroid,omitempty"`
}

// Controller：旋转 / 缩放 / 选中状态机
// 约束：状态变更在锁内同步完成，不等待任何 I/O；帧在锁内生成、锁外投递
// 约束：Phi 始终在 [-90, 90]，缩放始终在 [MinScale, MaxScale]；选中国家时不自动旋转
type Controller struct {
	mu        sync.Mutex
	opts      Options
	features  []geo.Feature
	graticule []orb.LineString
	proj      geo.Projector
	mode      Mode
	auto      bool
	selected  *geo.Feature
	seq       uint64
	renderer  Renderer
	nameOf    func(geo.Feature) string
	flagOf    func(id string) string
}

type ControllerOption func(*Controller)

// WithNames：按名称选中时使用的国名解析
func WithNames(nameOf func(geo.Feature) string) ControllerOption {
	return func(c *Controller) { c.nameOf = nameOf }
}

// WithFlags：图钉上的国旗代码
func WithFlags(flagOf func(id string) string) ControllerOption {
	return func(c *Controller) { c.flagOf = flagOf }
}

func NewController(features []geo.Feature, opts Options, r Renderer, copts ...ControllerOption) *Controller {
	if opts.MinScale > opts.MaxScale {
		opts.MinScale, opts.MaxScale = opts.MaxScale, opts.MinScale
	}
	if opts.ZoomMin <= 0 || opts.ZoomMax < opts.ZoomMin {
		opts.ZoomMin, opts.ZoomMax = config.DefaultGlobeZoomMin, config.DefaultGlobeZoomMax
	}
	proj := geo.NewProjector(opts.Width, opts.Height, geo.Clamp(opts.Scale, opts.MinScale, opts.MaxScale))
	proj.Rotation = geo.Rotation{Phi: geo.Clamp(opts.InitialPhi, -90, 90)}
	c := &Controller{
		opts:      opts,
		features:  features,
		graticule: geo.Graticule(opts.GraticuleStep),
		proj:      proj,
		mode:      ModeAutorotating,
		auto:      true,
		renderer:  r,
		nameOf:    func(f geo.Feature) string { return f.ID },
	}
	for _, o := range copts {
		o(c)
	}
	return c
}

// Features：只读要素列表
func (c *Controller) Features() []geo.Feature { return c.features }

func (c *Controller) Projector() geo.Projector {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proj
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	s := State{Rotation: c.proj.Rotation, Scale: c.proj.Scale, Mode: c.mode, AutoRotate: c.auto}
	if c.selected != nil {
		s.SelectedID = c.selected.ID
		pt := c.selected.Centroid
		s.SelectedCentroid = &pt
	}
	return s
}

// Render：不改变状态，输出当前帧
func (c *Controller) Render() Frame {
	c.mu.Lock()
	f := c.frameLocked()
	c.mu.Unlock()
	c.emit(f)
	return f
}

// PointerDown：进入拖拽，暂停自动旋转
func (c *Controller) PointerDown() Frame {
	return c.update(func() bool {
		c.mode = ModeDragging
		c.auto = false
		return true
	})
}

// Drag：dx 转经度、dy 转纬度（向下拖动使 Phi 减小）；Phi 夹取到 [-90, 90]
func (c *Controller) Drag(dx, dy float64) Frame {
	return c.update(func() bool {
		k := c.opts.DragSensitivity
		r := c.proj.Rotation
		r.Lambda = geo.NormalizeLon(r.Lambda + dx*k)
		r.Phi = geo.Clamp(r.Phi-dy*k, -90, 90)
		c.proj.Rotation = r
		return true
	})
}

// PointerUp：松开或离开视图；未选中时恢复自动旋转
func (c *Controller) PointerUp() Frame {
	return c.update(func() bool {
		if c.selected == nil {
			c.mode = ModeAutorotating
			c.auto = true
		} else {
			c.mode = ModeSelected
		}
		return true
	})
}

// Zoom：k 为相对基准缩放的倍数，先夹取到 [ZoomMin, ZoomMax]（GLOBE_ZOOM_MIN/MAX）再夹取到尺度上下限
func (c *Controller) Zoom(k float64) Frame {
	return c.update(func() bool {
		k = geo.Clamp(k, c.opts.ZoomMin, c.opts.ZoomMax)
		c.proj.Scale = geo.Clamp(c.opts.Scale*k, c.opts.MinScale, c.opts.MaxScale)
		return true
	})
}

func (c *Controller) ZoomIn() Frame { return c.step(c.opts.ZoomStep) }

func (c *Controller) ZoomOut() Frame { return c.step(-c.opts.ZoomStep) }

func (c *Controller) step(delta float64) Frame {
	return c.update(func() bool {
		c.proj.Scale = geo.Clamp(c.proj.Scale+delta, c.opts.MinScale, c.opts.MaxScale)
		return true
	})
}

// Tick：自动旋转一步，与帧率无关（按 16ms 基准折算）
// 返回：仅在实际旋转时输出帧
func (c *Controller) Tick(elapsedMs float64) (Frame, bool) {
	var f Frame
	c.mu.Lock()
	if !c.auto || c.selected != nil || elapsedMs <= 0 {
		c.mu.Unlock()
		return f, false
	}
	r := c.proj.Rotation
	r.Lambda = geo.NormalizeLon(r.Lambda + c.opts.RotationSpeed*elapsedMs/16)
	c.proj.Rotation = r
	f = c.frameLocked()
	c.mu.Unlock()
	c.emit(f)
	return f, true
}

// Select：清除旧选中，转到新国家质心，停止自动旋转
func (c *Controller) Select(f geo.Feature) Frame {
	return c.update(func() bool {
		sel := f
		c.selected = &sel
		c.proj.Rotation = geo.Centered(f.Centroid)
		c.auto = false
		c.mode = ModeSelected
		return true
	})
}

// SelectID：按要素编号选中
func (c *Controller) SelectID(id string) (*geo.Feature, Frame, bool) {
	for i := range c.features {
		if c.features[i].ID == id {
			f := c.features[i]
			return &f, c.Select(f), true
		}
	}
	return nil, Frame{}, false
}

// SelectByName：排行榜联动，按国名对齐后选中
func (c *Controller) SelectByName(name string) (*geo.Feature, Frame, bool) {
	i, outcome := reconcile.Find(name, c.features, c.nameOf)
	metrics.ReconcileTotal.WithLabelValues(string(outcome)).Inc()
	if i < 0 {
		return nil, Frame{}, false
	}
	f := c.features[i]
	return &f, c.Select(f), true
}

// Deselect：清除选中并恢复自动旋转
func (c *Controller) Deselect() Frame {
	return c.update(func() bool {
		c.selected = nil
		c.auto = true
		c.mode = ModeAutorotating
		return true
	})
}

// HitTest：屏幕坐标下的国家；海洋或球外返回 false
func (c *Controller) HitTest(sp geo.ScreenPoint) (*geo.Feature, bool) {
	proj := c.Projector()
	pt, ok := proj.Invert(sp)
	if !ok {
		return nil, false
	}
	return geo.HitTest(c.features, pt)
}

// Click：命中国家则选中；未命中不改变状态
func (c *Controller) Click(sp geo.ScreenPoint) (*geo.Feature, Frame, bool) {
	f, ok := c.HitTest(sp)
	if !ok {
		return nil, Frame{}, false
	}
	return f, c.Select(*f), true
}

func (c *Controller) update(mutate func() bool) Frame {
	c.mu.Lock()
	if !mutate() {
		c.mu.Unlock()
		return Frame{}
	}
	f := c.frameLocked()
	c.mu.Unlock()
	c.emit(f)
	return f
}

func (c *Controller) emit(f Frame) {
	metrics.FramesTotal.Inc()
	if c.renderer != nil {
		c.renderer.Render(f)
	}
}

func (c *Controller) frameLocked() Frame {
	c.seq++
	p := c.proj
	center, radius := p.Disc()
	f := Frame{
		Seq:        c.seq,
		Mode:       c.mode,
		AutoRotate: c.auto,
		Rotation:   p.Rotation,
		Scale:      p.Scale,
		Sea:        Sea{CX: center.X, CY: center.Y, R: radius},
	}
	for _, ls := range c.graticule {
		f.Graticule = append(f.Graticule, p.ProjectLine(ls)...)
	}
	selID := ""
	if c.selected != nil {
		selID = c.selected.ID
	}
	f.Countries = make([]CountryPath, 0, len(c.features))
	for i := range c.features {
		paths := p.ProjectFeature(c.features[i])
		if len(paths) == 0 {
			continue
		}
		id := c.features[i].ID
		f.Countries = append(f.Countries, CountryPath{ID: id, Selected: id == selID && id != "", Paths: paths})
	}
	if c.selected != nil {
		m := &Marker{ID: c.selected.ID}
		if c.flagOf != nil {
			m.FlagCode = c.flagOf(c.selected.ID)
		}
		if pin, ok := p.Project(c.selected.Centroid); ok {
			m.Visible = true
			m.Pin = pin
			m.Flag = geo.ScreenPoint{X: pin.X - flagOffsetX, Y: pin.Y - pinStickLength - pinBallRadius - flagOffsetY}
		}
		f.Marker = m
	}
	return f
}

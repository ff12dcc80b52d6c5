// 包 session：每个访问者一套独立的地球视图状态
// 背景：服务端持有旋转/缩放/选中状态，客户端通过 REST 或 WebSocket 推送指针事件并接收帧
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"volley-globe/internal/geo"
	"volley-globe/internal/globe"
	"volley-globe/internal/rankings"
	"volley-globe/internal/registry"
	"volley-globe/internal/selection"
)

var (
	ErrUnknownEvent = errors.New("session: unknown event type")
	ErrNotFound     = errors.New("session: country not found")
)

// 事件类型
const (
	EventPointerDown    = "pointer_down"
	EventDrag           = "drag"
	EventPointerUp      = "pointer_up"
	EventZoom           = "zoom"
	EventZoomIn         = "zoom_in"
	EventZoomOut        = "zoom_out"
	EventTick           = "tick"
	EventClick          = "click"
	EventHover          = "hover"
	EventSelect         = "select"
	EventSelectName     = "select_name"
	EventDeselect       = "deselect"
	EventDivision       = "division"
	EventToggleDivision = "toggle_division"
	EventRender         = "render"
)

// Event：客户端输入；按 Type 使用对应字段
type Event struct {
	Type     string  `json:"type"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	DX       float64 `json:"dx,omitempty"`
	DY       float64 `json:"dy,omitempty"`
	K        float64 `json:"k,omitempty"`
	Elapsed  float64 `json:"elapsed,omitempty"`
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Division string  `json:"division,omitempty"`
}

// Reply：事件处理结果；Frame 为空表示状态未变
type Reply struct {
	Frame     *globe.Frame      `json:"frame,omitempty"`
	Selection *selection.Result `json:"selection,omitempty"`
	Hover     *registry.Country `json:"hover,omitempty"`
	Division  rankings.Division `json:"division"`
}

// Session：一个地球视图
// 约束：帧通道容量为 1，新帧覆盖未读旧帧；Seq 不大于已投递最大值的帧直接丢弃
// 约束：选中结果通道满时丢弃最旧的一条
type Session struct {
	ID      string
	Created time.Time

	ctl    *globe.Controller
	coord  *selection.Coordinator
	reg    *registry.Registry
	frames chan globe.Frame
	picks  chan selection.Result

	frameMu sync.Mutex
	lastSeq uint64

	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	lastSeen time.Time
	now      func() time.Time
}

func newSession(id string, d Deps, now func() time.Time) *Session {
	s := &Session{
		ID:      id,
		Created: now(),
		reg:     d.Registry,
		frames:  make(chan globe.Frame, 1),
		picks:   make(chan selection.Result, 8),
		done:    make(chan struct{}),
		now:     now,
	}
	s.lastSeen = s.Created
	s.coord = selection.New(d.Registry, d.Rankings, s.pushSelection)
	s.ctl = globe.NewController(d.Features, d.Options, globe.RendererFunc(s.pushFrame),
		globe.WithNames(func(f geo.Feature) string { return d.Registry.Name(f.ID, f.Properties) }),
		globe.WithFlags(d.Registry.FlagCode),
	)
	return s
}

// pushFrame：渲染可能在控制器锁外并发投递，按 Seq 保留最新帧
func (s *Session) pushFrame(f globe.Frame) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	if f.Seq <= s.lastSeq {
		return
	}
	s.lastSeq = f.Seq
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case old := <-s.frames:
			if old.Seq > f.Seq {
				f = old
			}
		default:
		}
	}
}

func (s *Session) pushSelection(r selection.Result) {
	for {
		select {
		case s.picks <- r:
			return
		default:
		}
		select {
		case <-s.picks:
		default:
		}
	}
}

// Frames：最新帧
func (s *Session) Frames() <-chan globe.Frame { return s.frames }

// Selections：选中结果
func (s *Session) Selections() <-chan selection.Result { return s.picks }

// Done：会话被删除或过期时关闭
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) close() { s.once.Do(func() { close(s.done) }) }

func (s *Session) Controller() *globe.Controller { return s.ctl }

func (s *Session) Division() rankings.Division { return s.coord.Division() }

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Tick：服务端定时推进自动旋转
func (s *Session) Tick(elapsedMs float64) (globe.Frame, bool) {
	return s.ctl.Tick(elapsedMs)
}

// Apply：应用一个客户端事件
// 约束：切换组别会清除当前选中
func (s *Session) Apply(ctx context.Context, ev Event) (Reply, error) {
	s.touch()
	var (
		rep Reply
		f   globe.Frame
	)
	switch ev.Type {
	case EventPointerDown:
		f = s.ctl.PointerDown()
	case EventDrag:
		f = s.ctl.Drag(ev.DX, ev.DY)
	case EventPointerUp:
		f = s.ctl.PointerUp()
	case EventZoom:
		f = s.ctl.Zoom(ev.K)
	case EventZoomIn:
		f = s.ctl.ZoomIn()
	case EventZoomOut:
		f = s.ctl.ZoomOut()
	case EventTick:
		fr, ok := s.ctl.Tick(ev.Elapsed)
		if !ok {
			rep.Division = s.coord.Division()
			return rep, nil
		}
		f = fr
	case EventRender:
		f = s.ctl.Render()
	case EventClick:
		feat, fr, ok := s.ctl.Click(geo.ScreenPoint{X: ev.X, Y: ev.Y})
		if !ok {
			rep.Division = s.coord.Division()
			return rep, nil
		}
		res := s.coord.Select(ctx, *feat)
		rep.Selection = &res
		f = fr
	case EventHover:
		rep.Division = s.coord.Division()
		if feat, ok := s.ctl.HitTest(geo.ScreenPoint{X: ev.X, Y: ev.Y}); ok {
			c := s.reg.Country(*feat)
			rep.Hover = &c
		}
		return rep, nil
	case EventSelect:
		feat, fr, ok := s.ctl.SelectID(registry.PadID(ev.ID))
		if !ok {
			feat, fr, ok = s.ctl.SelectID(ev.ID)
		}
		if !ok {
			return rep, fmt.Errorf("%w: id %q", ErrNotFound, ev.ID)
		}
		res := s.coord.Select(ctx, *feat)
		rep.Selection = &res
		f = fr
	case EventSelectName:
		feat, fr, ok := s.ctl.SelectByName(ev.Name)
		if !ok {
			return rep, fmt.Errorf("%w: name %q", ErrNotFound, ev.Name)
		}
		res := s.coord.Select(ctx, *feat)
		rep.Selection = &res
		f = fr
	case EventDeselect:
		f = s.ctl.Deselect()
	case EventDivision:
		d, err := rankings.ParseDivision(ev.Division)
		if err != nil {
			return rep, err
		}
		s.coord.SetDivision(d)
		f = s.ctl.Deselect()
	case EventToggleDivision:
		s.coord.ToggleDivision()
		f = s.ctl.Deselect()
	default:
		return rep, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	rep.Frame = &f
	rep.Division = s.coord.Division()
	return rep, nil
}

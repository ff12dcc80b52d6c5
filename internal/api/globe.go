package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"volley-globe/internal/globe"
	"volley-globe/internal/locate"
	"volley-globe/internal/middleware"
	"volley-globe/internal/rankings"
	"volley-globe/internal/selection"
	"volley-globe/internal/session"
)

type sessionResponse struct {
	ID       string            `json:"id"`
	Division rankings.Division `json:"division"`
	State    *globe.State      `json:"state,omitempty"`
	Frame    *globe.Frame      `json:"frame,omitempty"`
}

// wsMessage：服务端推送
type wsMessage struct {
	Type      string            `json:"type"`
	Frame     *globe.Frame      `json:"frame,omitempty"`
	Selection *selection.Result `json:"selection,omitempty"`
	Error     string            `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const wsWriteWait = 5 * time.Second

func (s *server) sessionOf(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.Sessions.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
	}
	return sess, ok
}

// createSession：POST /globe/sessions，返回初始帧
func (s *server) createSession(w http.ResponseWriter, r *http.Request) {
	sess, f := s.Sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, Division: sess.Division(), Frame: &f})
}

func (s *server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOf(w, r)
	if !ok {
		return
	}
	st := sess.Controller().State()
	writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, Division: sess.Division(), State: &st})
}

func (s *server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.Sessions.Delete(mux.Vars(r)["id"]) {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// eventStatus：事件错误 → HTTP 状态码
func eventStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// sessionEvent：POST /globe/sessions/{id}/events
func (s *server) sessionEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOf(w, r)
	if !ok {
		return
	}
	var ev session.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body")
		return
	}
	rep, err := sess.Apply(r.Context(), ev)
	if err != nil {
		writeError(w, eventStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// sessionSocket：GET /globe/sessions/{id}/ws
// 客户端发送 Event；服务端推送 frame / selection / error，并按 TickInterval 推进自动旋转
// 约束：所有写操作在同一 goroutine 内完成
func (s *server) sessionSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOf(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws_upgrade_error", "session", sess.ID, "err", err)
		return
	}
	defer conn.Close()
	s.log.Info("ws_open", "session", sess.ID)

	errs := make(chan string, 8)
	closed := make(chan struct{})
	ctx := r.Context()
	go func() {
		defer close(closed)
		for {
			var ev session.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			if _, err := sess.Apply(ctx, ev); err != nil {
				select {
				case errs <- err.Error():
				default:
				}
			}
		}
	}()

	// 新连接先推一帧当前状态
	sess.Controller().Render()

	t := time.NewTicker(s.TickInterval)
	defer t.Stop()
	last := time.Now()
	send := func(m wsMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(m); err != nil {
			s.log.Debug("ws_write_error", "session", sess.ID, "err", err)
			return false
		}
		return true
	}
	for {
		select {
		case <-closed:
			s.log.Info("ws_closed", "session", sess.ID)
			return
		case <-sess.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session expired"),
				time.Now().Add(wsWriteWait))
			return
		case f := <-sess.Frames():
			if !send(wsMessage{Type: "frame", Frame: &f}) {
				return
			}
		case res := <-sess.Selections():
			if !send(wsMessage{Type: "selection", Selection: &res}) {
				return
			}
		case msg := <-errs:
			if !send(wsMessage{Type: "error", Error: msg}) {
				return
			}
		case now := <-t.C:
			sess.Tick(float64(now.Sub(last).Microseconds()) / 1000)
			last = now
		}
	}
}

// locate：GET /locate?ip=，缺省使用访问者 IP；CDN 边缘国家头优先
func (s *server) locate(w http.ResponseWriter, r *http.Request) {
	if s.Locator == nil {
		writeJSON(w, http.StatusOK, locate.Result{})
		return
	}
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		ip = locate.VisitorIP(r)
		if g, ok := middleware.EdgeGeoFrom(r.Context()); ok {
			writeJSON(w, http.StatusOK, s.Locator.FromCode(ip, "edgeone", g.CountryCode))
			return
		}
	}
	writeJSON(w, http.StatusOK, s.Locator.Locate(ip))
}

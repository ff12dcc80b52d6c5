package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"volley-globe/internal/rankings"
	"volley-globe/internal/registry"
)

type leaderboardResponse struct {
	Division rankings.Division `json:"division"`
	Count    int               `json:"count"`
	Entries  []rankings.Entry  `json:"entries"`
}

type countryRankingResponse struct {
	Division rankings.Division `json:"division"`
	Name     string            `json:"name"`
	Ranking  *rankings.Entry   `json:"ranking"`
}

// leaderboard：GET /rankings/{division}?limit=
// 约束：缓存中的切片只读，附加国旗地址前先复制
func (s *server) leaderboard(w http.ResponseWriter, r *http.Request) {
	d, ok := division(w, r)
	if !ok {
		return
	}
	limit := intParam(r, "limit", 0, 0, 500)
	es, err := s.Rankings.TopRankings(r.Context(), d, limit)
	if err != nil {
		s.log.Warn("leaderboard_error", "division", d, "err", err)
		writeError(w, statusOf(err), err.Error())
		return
	}
	out := make([]rankings.Entry, len(es))
	copy(out, es)
	for i := range out {
		out[i].FlagURL = s.flagFor(out[i].FederationName)
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Division: d, Count: len(out), Entries: out})
}

// flagFor：联合会名称 → 国旗地址；无法对齐时返回占位图
func (s *server) flagFor(federation string) string {
	if id, ok := s.Registry.IDForName(federation); ok {
		return s.Registry.FlagURL(id)
	}
	return s.Registry.FallbackFlagURL()
}

// countryName：?name= 优先，其次 ?id= 经静态表解析
func (s *server) countryName(r *http.Request) string {
	q := r.URL.Query()
	if n := strings.TrimSpace(q.Get("name")); n != "" {
		return n
	}
	if id := strings.TrimSpace(q.Get("id")); id != "" {
		if f, ok := s.byID[registry.PadID(id)]; ok {
			return s.Registry.Name(f.ID, f.Properties)
		}
		return s.Registry.Name(id, nil)
	}
	return ""
}

// countryRanking：GET /rankings/{division}/country?name=|id=
// 未命中返回 404 与 {"ranking": null}
func (s *server) countryRanking(w http.ResponseWriter, r *http.Request) {
	d, ok := division(w, r)
	if !ok {
		return
	}
	name := s.countryName(r)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name or id required")
		return
	}
	e, err := s.Rankings.CountryRanking(r.Context(), name, d)
	if err != nil {
		s.log.Warn("country_ranking_error", "division", d, "name", name, "err", err)
		writeError(w, statusOf(err), err.Error())
		return
	}
	resp := countryRankingResponse{Division: d, Name: name, Ranking: e}
	if e == nil {
		writeJSON(w, http.StatusNotFound, resp)
		return
	}
	e.FlagURL = s.flagFor(e.FederationName)
	writeJSON(w, http.StatusOK, resp)
}

// history：GET /rankings/{division}/history?name=&limit=
// 先经缓存对齐到联合会名称，缓存不可用时按原名查询
func (s *server) history(w http.ResponseWriter, r *http.Request) {
	d, ok := division(w, r)
	if !ok {
		return
	}
	if s.History == nil {
		writeError(w, http.StatusServiceUnavailable, "history store disabled")
		return
	}
	name := s.countryName(r)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name or id required")
		return
	}
	federation := name
	if e, err := s.Rankings.CountryRanking(r.Context(), name, d); err == nil && e != nil {
		federation = e.FederationName
	}
	pts, err := s.History.History(r.Context(), d, federation, intParam(r, "limit", 30, 1, 365))
	if err != nil {
		s.log.Error("history_error", "division", d, "federation", federation, "err", err)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"division": d, "federationName": federation, "points": pts})
}

// refresh：POST /rankings/{division}/refresh，需 x-admin-token
func (s *server) refresh(w http.ResponseWriter, r *http.Request) {
	t := r.Header.Get("x-admin-token")
	if s.AdminToken == "" || subtle.ConstantTimeCompare([]byte(t), []byte(s.AdminToken)) != 1 {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	d, ok := division(w, r)
	if !ok {
		return
	}
	snap, err := s.Rankings.Refresh(r.Context(), d)
	if err != nil {
		s.log.Warn("rankings_refresh_error", "division", d, "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.log.Info("rankings_refreshed", "division", d, "entries", len(snap.Entries))
	writeJSON(w, http.StatusOK, map[string]any{"division": d, "entries": len(snap.Entries), "fetchedAt": snap.FetchedAt})
}

func (s *server) rankingStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"slots": s.Rankings.Status()})
}

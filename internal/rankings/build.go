package rankings

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"volley-globe/internal/fivb"
)

// progressionSize：走势图保留的最近比赛数
const progressionSize = 12

// Build：过滤无有效积分的队伍，按源顺序分配连续名次
// 约束：积分缺失、为 0 或为负的队伍不参与排名
func Build(teams []fivb.Team) []Entry {
	out := make([]Entry, 0, len(teams))
	for _, t := range teams {
		if !t.DecimalPoints.Valid || t.DecimalPoints.Value <= 0 {
			continue
		}
		out = append(out, Entry{
			Rank:                len(out) + 1,
			FederationName:      strings.TrimSpace(t.FederationName),
			Points:              t.DecimalPoints.Value,
			ParticipationPoints: t.ParticipationPoints.Or(0),
			GamesPlayed:         int(t.GamesPlayed.Or(0)),
			ConfederationName:   t.ConfederationName,
			ConfederationCode:   t.ConfederationCode,
			Trend:               int(t.Trend.Or(0)),
			FlagURL:             t.FlagURL,
			Progression:         Progression(t),
		})
	}
	return out
}

// Progression：本队参与的比赛按日期升序，取最近 12 场
// 约束：客场时积分取 awayWRS，增量取反；比分以本队在前
func Progression(t fivb.Team) []Match {
	type dated struct {
		m fivb.Match
		t time.Time
	}
	var ms []dated
	for _, m := range t.TeamMatches {
		if !m.IsHomeTeamActive && !m.IsAwayTeamActive {
			continue
		}
		ms = append(ms, dated{m: m, t: parseDate(m.LocalDate)})
	}
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].t.IsZero() || ms[j].t.IsZero() {
			return ms[i].m.LocalDate < ms[j].m.LocalDate
		}
		return ms[i].t.Before(ms[j].t)
	})
	if len(ms) > progressionSize {
		ms = ms[len(ms)-progressionSize:]
	}
	out := make([]Match, 0, len(ms))
	for _, d := range ms {
		m := d.m
		home := m.IsHomeTeamActive
		pm := Match{Date: m.LocalDate, Event: m.EventName, Result: "-"}
		inc := m.Increment.Or(0)
		if home {
			pm.Points = m.HomeWRS.Or(0)
			pm.Increment = inc
			pm.Opponent = m.AwayTeam
		} else {
			pm.Points = m.AwayWRS.Or(0)
			pm.Increment = -inc
			pm.Opponent = m.HomeTeam
		}
		if hs, as, ok := parseScore(m.Result); ok {
			own, other := hs, as
			if !home {
				own, other = as, hs
			}
			pm.Result = "L"
			if own > other {
				pm.Result = "W"
			}
			pm.Score = strconv.Itoa(own) + "-" + strconv.Itoa(other)
		}
		out = append(out, pm)
	}
	return out
}

// parseScore："3 - 0" → (3, 0)
func parseScore(s string) (int, int, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	a, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return h, a, true
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

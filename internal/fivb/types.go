package fivb

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Team：排名接口中的一支国家队
type Team struct {
	FederationName      string  `json:"federationName"`
	DecimalPoints       Number  `json:"decimalPoints"`
	ParticipationPoints Number  `json:"participationPoints"`
	GamesPlayed         Number  `json:"gamesPlayed"`
	ConfederationName   string  `json:"confederationName"`
	ConfederationCode   string  `json:"confederationCode"`
	Trend               Number  `json:"trend"`
	FlagURL             string  `json:"flagUrl"`
	TeamMatches         []Match `json:"teamMatches"`
}

// Match：队伍近期比赛，WRS 为赛后世界排名积分
type Match struct {
	LocalDate        string `json:"localDate"`
	IsHomeTeamActive bool   `json:"isHomeTeamActive"`
	IsAwayTeamActive bool   `json:"isAwayTeamActive"`
	HomeWRS          Number `json:"homeWRS"`
	AwayWRS          Number `json:"awayWRS"`
	Increment        Number `json:"increment"`
	HomeTeam         string `json:"homeTeam"`
	AwayTeam         string `json:"awayTeam"`
	Result           string `json:"result"`
	EventName        string `json:"eventName"`
}

// Number：接口中数值字段可能是数字、数字字符串、空串或 null
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			n.Value, n.Valid = v, true
		}
		return nil
	}
	if v, err := strconv.ParseFloat(string(b), 64); err == nil {
		n.Value, n.Valid = v, true
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// Or：无效时返回默认值
func (n Number) Or(def float64) float64 {
	if n.Valid {
		return n.Value
	}
	return def
}

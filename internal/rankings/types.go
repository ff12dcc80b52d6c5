// 包 rankings：FIVB 世界排名的拉取、整形与按组别缓存
package rankings

import (
	"fmt"
	"strings"
	"time"
)

// Division：男子 / 女子两个互相独立的组别
type Division string

const (
	Women Division = "women"
	Men   Division = "men"
)

// Divisions：全部组别，顺序固定
var Divisions = []Division{Women, Men}

// Code：排名接口路径中的组别编号
func (d Division) Code() int {
	if d == Women {
		return 0
	}
	return 1
}

// Other：另一组别，用于界面切换
func (d Division) Other() Division {
	if d == Women {
		return Men
	}
	return Women
}

func (d Division) String() string { return string(d) }

// ParseDivision：接受 women/men 及常见别名
func ParseDivision(s string) (Division, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "women", "woman", "w", "female", "0":
		return Women, nil
	case "men", "man", "m", "male", "1":
		return Men, nil
	}
	return "", fmt.Errorf("unknown division %q", s)
}

// Match：积分走势中的一场比赛（以本队视角）
type Match struct {
	Date      string  `json:"date"`
	Points    float64 `json:"points"`
	Increment float64 `json:"increment"`
	Event     string  `json:"event"`
	Opponent  string  `json:"opponent"`
	Result    string  `json:"result"`
	Score     string  `json:"score"`
}

// Entry：一次拉取中的一条排名记录
// 约束：Rank 在同一组别同一次拉取内从 1 开始连续且唯一；Points 不为负
type Entry struct {
	Rank                int     `json:"rank"`
	FederationName      string  `json:"federationName"`
	Points              float64 `json:"points"`
	ParticipationPoints float64 `json:"participationPoints"`
	GamesPlayed         int     `json:"gamesPlayed"`
	ConfederationName   string  `json:"confederationName"`
	ConfederationCode   string  `json:"confederationCode"`
	Trend               int     `json:"trend"`
	FlagURL             string  `json:"flagUrl,omitempty"`
	Progression         []Match `json:"progression"`
}

// Snapshot：一个组别的完整排名列表及拉取时间；作为整体替换，不做增量合并
type Snapshot struct {
	Division  Division  `json:"division"`
	Entries   []Entry   `json:"entries"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// SlotStatus：缓存槽位状态，供管理接口与 CLI 展示
type SlotStatus struct {
	Division  Division      `json:"division"`
	Entries   int           `json:"entries"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Age       time.Duration `json:"age"`
	Fresh     bool          `json:"fresh"`
}
